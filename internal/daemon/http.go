package daemon

import (
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"git.home.luguber.info/inful/docpublish/internal/foundation/errors"
	"git.home.luguber.info/inful/docpublish/internal/history"
	"git.home.luguber.info/inful/docpublish/internal/logfields"
	"git.home.luguber.info/inful/docpublish/internal/pipeline"
)

const maxWebhookBody = 10 << 20

// Coordinator is the part of runner.Coordinator the HTTP surface needs.
type Coordinator interface {
	Submit(trigger pipeline.Trigger) (string, error)
	Current() (pipeline.Run, bool)
}

// webhookSettings is read per request so configuration reloads apply immediately.
type webhookSettings struct {
	Branch string
	Secret string
}

type handlers struct {
	runs     Coordinator
	history  history.Store
	settings func() webhookSettings
	metrics  http.Handler
	errs     *errors.HTTPErrorAdapter
	started  time.Time
}

func (h *handlers) routes() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("POST /webhooks/push", h.handlePush)
	mux.HandleFunc("POST /runs", h.handleTrigger)
	mux.HandleFunc("GET /runs", h.handleRuns)
	mux.HandleFunc("GET /runs/{id}", h.handleRun)
	mux.HandleFunc("GET /healthz", h.handleHealth)
	if h.metrics != nil {
		mux.Handle("GET /metrics", h.metrics)
	}
	return h.middleware(mux)
}

func (h *handlers) handlePush(w http.ResponseWriter, r *http.Request) {
	body, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxWebhookBody))
	if err != nil {
		h.errs.WriteErrorResponse(w, r, errors.ValidationError("unreadable webhook body").WithCause(err).Build())
		return
	}
	settings := h.settings()
	if settings.Secret != "" && !validSignature(r.Header, body, settings.Secret) {
		h.errs.WriteErrorResponse(w, r, errors.AuthError("invalid webhook signature").Build())
		return
	}

	if ev := eventType(r.Header); ev != "" && ev != "push" {
		writeJSON(w, http.StatusAccepted, map[string]any{"status": "ignored", "reason": "event " + ev})
		return
	}
	push, err := parsePush(body)
	if err != nil {
		h.errs.WriteErrorResponse(w, r, errors.ValidationError("invalid JSON payload").WithCause(err).Build())
		return
	}
	want := "refs/heads/" + settings.Branch
	if push.Ref != want {
		slog.Debug("Ignoring push to other ref", slog.String("ref", push.Ref), logfields.Branch(settings.Branch))
		writeJSON(w, http.StatusAccepted, map[string]any{"status": "ignored", "reason": "ref " + push.Ref})
		return
	}

	id, err := h.runs.Submit(pipeline.TriggerPush)
	if err != nil {
		h.errs.WriteErrorResponse(w, r, err)
		return
	}
	slog.Info("Push accepted",
		logfields.RunID(id),
		slog.String("repository", push.repository()),
		logfields.Commit(push.commit()))
	writeJSON(w, http.StatusAccepted, map[string]any{"status": "accepted", "run_id": id})
}

func (h *handlers) handleTrigger(w http.ResponseWriter, r *http.Request) {
	id, err := h.runs.Submit(pipeline.TriggerManual)
	if err != nil {
		h.errs.WriteErrorResponse(w, r, err)
		return
	}
	writeJSON(w, http.StatusAccepted, map[string]any{"status": "accepted", "run_id": id})
}

func (h *handlers) handleRuns(w http.ResponseWriter, r *http.Request) {
	limit := 20
	if v := r.URL.Query().Get("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n <= 0 {
			h.errs.WriteErrorResponse(w, r, errors.ValidationError("limit must be a positive integer").
				WithContext("limit", v).Build())
			return
		}
		limit = n
	}

	runs := []history.RunSummary{}
	if h.history != nil {
		recent, err := h.history.Recent(r.Context(), limit)
		if err != nil {
			h.errs.WriteErrorResponse(w, r, err)
			return
		}
		runs = append(runs, recent...)
	}
	resp := map[string]any{"runs": runs}
	if cur, ok := h.runs.Current(); ok {
		resp["current"] = cur
	}
	writeJSON(w, http.StatusOK, resp)
}

func (h *handlers) handleRun(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	var events []history.Event
	if h.history != nil {
		var err error
		if events, err = h.history.ByRun(r.Context(), id); err != nil {
			h.errs.WriteErrorResponse(w, r, err)
			return
		}
	}
	if len(events) == 0 {
		h.errs.WriteErrorResponse(w, r, errors.NotFoundError("run not found").WithContext("run_id", id).Build())
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"summary": history.Summarize(id, events),
		"events":  events,
	})
}

func (h *handlers) handleHealth(w http.ResponseWriter, _ *http.Request) {
	resp := map[string]any{
		"status":         "ok",
		"uptime_seconds": int64(time.Since(h.started).Seconds()),
	}
	if cur, ok := h.runs.Current(); ok {
		resp["current_run"] = cur.ID
	}
	writeJSON(w, http.StatusOK, resp)
}

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (s *statusRecorder) WriteHeader(code int) {
	s.status = code
	s.ResponseWriter.WriteHeader(code)
}

// middleware logs each request and turns panics into 500 responses.
func (h *handlers) middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		start := time.Now()
		defer func() {
			if p := recover(); p != nil {
				slog.Error("Handler panic", slog.Any("panic", p), logfields.URL(r.URL.Path))
				h.errs.WriteErrorResponse(rec, r, errors.InternalError("internal server error").Build())
			}
			slog.Debug("HTTP request",
				slog.String("method", r.Method),
				logfields.URL(r.URL.Path),
				slog.Int("status", rec.status),
				logfields.DurationMS(float64(time.Since(start).Milliseconds())))
		}()
		next.ServeHTTP(rec, r)
	})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(v); err != nil {
		slog.Warn("Failed to write JSON response", logfields.Error(err))
	}
}
