package errors

import (
	"bytes"
	"encoding/json"
	stderrors "errors"
	"fmt"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestClassifiedError(t *testing.T) {
	t.Run("builder sets fields", func(t *testing.T) {
		err := NewError(CategoryAssembly, "move generated tree").
			WithSeverity(SeverityFatal).
			WithContext("target", "/site/doc").
			Build()

		assert.Equal(t, CategoryAssembly, err.Category())
		assert.Equal(t, SeverityFatal, err.Severity())
		assert.Equal(t, "move generated tree", err.Message())
		target, ok := err.Context().GetString("target")
		require.True(t, ok)
		assert.Equal(t, "/site/doc", target)
		assert.Equal(t, "[assembly:fatal] move generated tree", err.Error())
	})

	t.Run("wrapping keeps cause reachable", func(t *testing.T) {
		cause := stderrors.New("exit status 101")
		err := WrapError(cause, CategoryGenerate, "generator failed").Build()

		assert.ErrorIs(t, err, cause)
		assert.Contains(t, err.Error(), "exit status 101")
	})

	t.Run("classification survives fmt wrapping", func(t *testing.T) {
		inner := ConfigError("missing source").Build()
		outer := fmt.Errorf("load: %w", inner)

		_, ok := AsClassified(outer)
		assert.True(t, ok)
		assert.True(t, HasCategory(outer, CategoryConfig))
		assert.Equal(t, SeverityFatal, GetSeverity(outer))
	})

	t.Run("plain errors default to internal", func(t *testing.T) {
		err := stderrors.New("boom")
		_, ok := AsClassified(err)
		assert.False(t, ok)
		assert.Equal(t, CategoryInternal, GetCategory(err))
		assert.Equal(t, SeverityError, GetSeverity(err))
	})

	t.Run("WithContext copies", func(t *testing.T) {
		base := NotFoundError("run not found").Build()
		withID := base.WithContext("run_id", "abc")

		_, ok := base.Context().Get("run_id")
		assert.False(t, ok)
		id, _ := withID.Context().GetString("run_id")
		assert.Equal(t, "abc", id)
		assert.ErrorIs(t, withID, base)
	})
}

func TestErrorContextMerge(t *testing.T) {
	var nilCtx ErrorContext
	assert.Equal(t, ErrorContext{"a": 1}, nilCtx.Merge(ErrorContext{"a": 1}))

	merged := ErrorContext{"a": 1, "b": 2}.Merge(ErrorContext{"b": 3})
	assert.Equal(t, ErrorContext{"a": 1, "b": 3}, merged)
}

func TestCLIErrorAdapter(t *testing.T) {
	adapter := NewCLIErrorAdapter(false, slog.New(slog.NewTextHandler(&bytes.Buffer{}, nil)))

	tests := []struct {
		name string
		err  error
		code int
	}{
		{"nil", nil, 0},
		{"plain", stderrors.New("x"), 1},
		{"validation", ValidationError("bad flag").Build(), 2},
		{"config", ConfigError("bad config").Build(), 7},
		{"git", GitError("clone failed").Build(), 8},
		{"assembly", AssemblyError("doc exists").Build(), 11},
		{"publish", PublishError("deploy failed").Build(), 12},
		{"canceled", CanceledError("superseded").Build(), 130},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.code, adapter.ExitCodeFor(tt.err))
		})
	}
}

func TestCLIErrorAdapterReport(t *testing.T) {
	var logs, out bytes.Buffer
	adapter := NewCLIErrorAdapter(false, slog.New(slog.NewTextHandler(&logs, nil)))
	adapter.out = &out

	err := WrapError(stderrors.New("no such file"), CategoryAssembly, "generated tree missing").
		WithContext("path", "/tmp/doc").
		Build()

	code := adapter.Report(err)
	assert.Equal(t, 11, code)
	assert.Equal(t, "Error (assembly): generated tree missing: no such file\n", out.String())
	assert.Contains(t, logs.String(), "generated tree missing")
	assert.Contains(t, logs.String(), "path=/tmp/doc")
}

func TestHTTPErrorAdapter(t *testing.T) {
	adapter := NewHTTPErrorAdapter(slog.New(slog.NewTextHandler(&bytes.Buffer{}, nil)))

	assert.Equal(t, http.StatusOK, adapter.StatusCodeFor(nil))
	assert.Equal(t, http.StatusBadRequest, adapter.StatusCodeFor(ValidationError("x").Build()))
	assert.Equal(t, http.StatusNotFound, adapter.StatusCodeFor(NotFoundError("x").Build()))
	assert.Equal(t, http.StatusUnauthorized, adapter.StatusCodeFor(AuthError("x").Build()))
	assert.Equal(t, http.StatusInternalServerError, adapter.StatusCodeFor(stderrors.New("x")))

	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/runs/missing", nil)
	adapter.WriteErrorResponse(rec, req, NotFoundError("run not found").WithContext("run_id", "missing").Build())

	require.Equal(t, http.StatusNotFound, rec.Code)
	var payload HTTPErrorResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &payload))
	assert.Equal(t, "run not found", payload.Error)
	assert.Equal(t, "not_found", payload.Code)
	assert.Equal(t, "missing", payload.Details["run_id"])
}
