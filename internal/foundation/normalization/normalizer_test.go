package normalization

import (
	"testing"
)

type testEnum string

const (
	testAlpha testEnum = "alpha"
	testBeta  testEnum = "beta"
	testGamma testEnum = "gamma-ray"
)

func TestNormalize(t *testing.T) {
	n := New("greek", testGamma, testAlpha, testBeta).Alias("gamma", testGamma)

	tests := []struct {
		name   string
		input  testEnum
		expect testEnum
		ok     bool
	}{
		{"exact match", "alpha", testAlpha, true},
		{"case insensitive", "ALPHA", testAlpha, true},
		{"with spaces", "  beta  ", testBeta, true},
		{"alias", "Gamma", testGamma, true},
		{"unknown kept verbatim", " Delta", " Delta", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := n.Normalize(tt.input)
			if got != tt.expect || ok != tt.ok {
				t.Errorf("Normalize(%q) = %q, %v; want %q, %v", tt.input, got, ok, tt.expect, tt.ok)
			}
		})
	}
}

func TestValidAndDescribe(t *testing.T) {
	n := New("greek", testGamma, testAlpha, testBeta)
	if got := n.Valid(); len(got) != 3 || got[0] != "alpha" || got[2] != "gamma-ray" {
		t.Errorf("Valid() = %v", got)
	}
	if got := n.Describe(); got != "alpha, beta or gamma-ray" {
		t.Errorf("Describe() = %q", got)
	}
	if got := New("one", testAlpha).Describe(); got != "alpha" {
		t.Errorf("Describe() = %q", got)
	}
	if n.Name() != "greek" {
		t.Errorf("Name() = %q", n.Name())
	}
}
