package pipeline

import (
	"time"

	"git.home.luguber.info/inful/docpublish/internal/publish"
)

// Status is the final state of a run.
type Status string

const (
	StatusSuccess  Status = "success"
	StatusFailed   Status = "failed"
	StatusCanceled Status = "canceled"
)

// Report describes a finished run.
type Report struct {
	Run            Run
	Status         Status
	Stages         []StageResult
	Branch         string
	Commit         string
	Environment    string
	EnvFingerprint string
	Toolchain      string
	Components     []string
	SiteRoot       string
	Artifact       *publish.Artifact
	Manifest       string
	Deployment     *publish.Deployment
	Started        time.Time
	Finished       time.Time
	Err            error
}

// Duration is the wall time of the run.
func (r *Report) Duration() time.Duration { return r.Finished.Sub(r.Started) }

// FailedStage returns the stage that ended the run, if any.
func (r *Report) FailedStage() *StageResult {
	for i := range r.Stages {
		if r.Stages[i].Err != nil {
			return &r.Stages[i]
		}
	}
	return nil
}

// ErrorString is the run error message, or "" on success.
func (r *Report) ErrorString() string {
	if r.Err == nil {
		return ""
	}
	return r.Err.Error()
}
