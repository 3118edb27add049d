package logfields

import (
	"errors"
	"testing"
)

func TestHelpers(t *testing.T) {
	if a := RunID("r1"); a.Key != KeyRunID || a.Value.String() != "r1" {
		t.Fatalf("unexpected attr: %v", a)
	}
	if a := Stage("assemble"); a.Key != KeyStage || a.Value.String() != "assemble" {
		t.Fatalf("unexpected attr: %v", a)
	}
	if a := Component("lofire-broker"); a.Key != KeyComponent {
		t.Fatalf("unexpected key: %s", a.Key)
	}
}

func TestCommitShortens(t *testing.T) {
	if got := Commit("0123456789abcdef").Value.String(); got != "01234567" {
		t.Fatalf("expected short hash, got %s", got)
	}
	if got := Commit("abc").Value.String(); got != "abc" {
		t.Fatalf("expected short input unchanged, got %s", got)
	}
}

func TestErrorNil(t *testing.T) {
	if v := Error(nil).Value.String(); v != "" {
		t.Fatalf("expected empty string, got %q", v)
	}
	if v := Error(errors.New("x")).Value.String(); v != "x" {
		t.Fatalf("expected x, got %q", v)
	}
}
