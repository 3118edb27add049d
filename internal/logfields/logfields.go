package logfields

import "log/slog"

// Canonical log field name constants to avoid drift across packages.
const (
	KeyRunID          = "run_id"
	KeyTrigger        = "trigger"
	KeyStage          = "stage"
	KeyDurationMS     = "duration_ms"
	KeyComponent      = "component"
	KeyPath           = "path"
	KeyURL            = "url"
	KeyBranch         = "branch"
	KeyCommit         = "commit"
	KeyEnvFingerprint = "env_fingerprint"
	KeyStatus         = "status"
	KeyError          = "error"
)

// Simple helpers returning slog.Attr. Keeping each granular means callers can compose.
func RunID(id string) slog.Attr         { return slog.String(KeyRunID, id) }
func Trigger(t string) slog.Attr        { return slog.String(KeyTrigger, t) }
func Stage(name string) slog.Attr       { return slog.String(KeyStage, name) }
func DurationMS(ms float64) slog.Attr   { return slog.Float64(KeyDurationMS, ms) }
func Component(name string) slog.Attr   { return slog.String(KeyComponent, name) }
func Path(p string) slog.Attr           { return slog.String(KeyPath, p) }
func URL(u string) slog.Attr            { return slog.String(KeyURL, u) }
func Branch(b string) slog.Attr         { return slog.String(KeyBranch, b) }
func EnvFingerprint(f string) slog.Attr { return slog.String(KeyEnvFingerprint, f) }
func Status(s string) slog.Attr         { return slog.String(KeyStatus, s) }

// Commit shortens full hashes to eight characters.
func Commit(hash string) slog.Attr {
	if len(hash) > 8 {
		hash = hash[:8]
	}
	return slog.String(KeyCommit, hash)
}

func Error(err error) slog.Attr {
	if err == nil {
		return slog.String(KeyError, "")
	}
	return slog.String(KeyError, err.Error())
}
