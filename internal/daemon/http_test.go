package daemon

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"git.home.luguber.info/inful/docpublish/internal/foundation/errors"
	"git.home.luguber.info/inful/docpublish/internal/history"
	"git.home.luguber.info/inful/docpublish/internal/pipeline"
)

type fakeCoordinator struct {
	mu        sync.Mutex
	submitted []pipeline.Trigger
	current   *pipeline.Run
}

func (f *fakeCoordinator) Submit(trigger pipeline.Trigger) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.submitted = append(f.submitted, trigger)
	run := pipeline.NewRun(trigger)
	f.current = &run
	return run.ID, nil
}

func (f *fakeCoordinator) Current() (pipeline.Run, bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.current == nil {
		return pipeline.Run{}, false
	}
	return *f.current, true
}

func newTestHandlers(t *testing.T, secret string) (*handlers, *fakeCoordinator, *history.SQLiteStore) {
	t.Helper()
	store, err := history.NewSQLiteStore(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { _ = store.Close() })
	fc := &fakeCoordinator{}
	h := &handlers{
		runs:     fc,
		history:  store,
		settings: func() webhookSettings { return webhookSettings{Branch: "main", Secret: secret} },
		metrics:  http.NotFoundHandler(),
		errs:     errors.NewHTTPErrorAdapter(slog.Default()),
		started:  time.Now(),
	}
	return h, fc, store
}

func do(t *testing.T, h http.Handler, method, path, body string, header http.Header) (*httptest.ResponseRecorder, map[string]any) {
	t.Helper()
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	for k, v := range header {
		req.Header[k] = v
	}
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	var payload map[string]any
	_ = json.Unmarshal(rec.Body.Bytes(), &payload)
	return rec, payload
}

func TestPushToDesignatedBranchTriggersRun(t *testing.T) {
	h, fc, _ := newTestHandlers(t, "")
	rec, body := do(t, h.routes(), http.MethodPost, "/webhooks/push",
		`{"ref":"refs/heads/main","after":"abc"}`, http.Header{"X-Github-Event": {"push"}})

	assert.Equal(t, http.StatusAccepted, rec.Code)
	assert.Equal(t, "accepted", body["status"])
	assert.NotEmpty(t, body["run_id"])
	assert.Equal(t, []pipeline.Trigger{pipeline.TriggerPush}, fc.submitted)
}

func TestPushToOtherBranchIsIgnored(t *testing.T) {
	h, fc, _ := newTestHandlers(t, "")
	for _, ref := range []string{"refs/heads/feature", "refs/tags/v1.0", "refs/heads/main-old"} {
		rec, body := do(t, h.routes(), http.MethodPost, "/webhooks/push", `{"ref":"`+ref+`"}`, nil)
		assert.Equal(t, http.StatusAccepted, rec.Code)
		assert.Equal(t, "ignored", body["status"])
	}
	assert.Empty(t, fc.submitted)
}

func TestNonPushEventIsIgnored(t *testing.T) {
	h, fc, _ := newTestHandlers(t, "")
	rec, body := do(t, h.routes(), http.MethodPost, "/webhooks/push", `{"zen":"hi"}`, http.Header{"X-Github-Event": {"ping"}})
	assert.Equal(t, http.StatusAccepted, rec.Code)
	assert.Equal(t, "ignored", body["status"])
	assert.Empty(t, fc.submitted)
}

func TestPushSignature(t *testing.T) {
	h, fc, _ := newTestHandlers(t, "s3cret")
	payload := `{"ref":"refs/heads/main"}`

	rec, body := do(t, h.routes(), http.MethodPost, "/webhooks/push", payload,
		http.Header{"X-Hub-Signature-256": {"sha256=" + sign([]byte(payload), "wrong")}})
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Equal(t, "auth", body["code"])
	assert.Empty(t, fc.submitted)

	rec, _ = do(t, h.routes(), http.MethodPost, "/webhooks/push", payload,
		http.Header{"X-Hub-Signature-256": {"sha256=" + sign([]byte(payload), "s3cret")}})
	assert.Equal(t, http.StatusAccepted, rec.Code)
	assert.Len(t, fc.submitted, 1)
}

func TestPushInvalidJSON(t *testing.T) {
	h, _, _ := newTestHandlers(t, "")
	rec, body := do(t, h.routes(), http.MethodPost, "/webhooks/push", `{`, nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "validation", body["code"])
}

func TestManualTrigger(t *testing.T) {
	h, fc, _ := newTestHandlers(t, "")
	rec, body := do(t, h.routes(), http.MethodPost, "/runs", "", nil)
	assert.Equal(t, http.StatusAccepted, rec.Code)
	assert.NotEmpty(t, body["run_id"])
	assert.Equal(t, []pipeline.Trigger{pipeline.TriggerManual}, fc.submitted)

	rec, _ = do(t, h.routes(), http.MethodGet, "/healthz", "", nil)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "current_run")
}

func TestRunsEndpoints(t *testing.T) {
	h, _, store := newTestHandlers(t, "")
	ctx := t.Context()
	require.NoError(t, store.Append(ctx, "run-1", history.EventRunStarted, history.RunStarted{Trigger: "push"}, nil))
	require.NoError(t, store.Append(ctx, "run-1", history.EventRunFinished, history.RunFinished{Status: "success"}, nil))

	rec, body := do(t, h.routes(), http.MethodGet, "/runs", "", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	runs, ok := body["runs"].([]any)
	require.True(t, ok)
	require.Len(t, runs, 1)
	assert.Equal(t, "run-1", runs[0].(map[string]any)["run_id"])

	rec, body = do(t, h.routes(), http.MethodGet, "/runs/run-1", "", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "success", body["summary"].(map[string]any)["status"])
	assert.Len(t, body["events"], 2)

	rec, body = do(t, h.routes(), http.MethodGet, "/runs/missing", "", nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Equal(t, "not_found", body["code"])

	rec, _ = do(t, h.routes(), http.MethodGet, "/runs?limit=zero", "", nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestWebhookRejectsGet(t *testing.T) {
	h, _, _ := newTestHandlers(t, "")
	rec, _ := do(t, h.routes(), http.MethodGet, "/webhooks/push", "", nil)
	assert.Equal(t, http.StatusMethodNotAllowed, rec.Code)
}
