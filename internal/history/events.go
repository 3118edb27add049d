// Package history persists run events in SQLite so runs can be inspected after the fact.
package history

import (
	"encoding/json"
	"time"
)

// EventType identifies a run event.
type EventType string

const (
	EventRunStarted     EventType = "run_started"
	EventStageCompleted EventType = "stage_completed"
	EventRunFinished    EventType = "run_finished"
)

// Event is one stored row.
type Event struct {
	ID        int64             `json:"id"`
	RunID     string            `json:"run_id"`
	Type      EventType         `json:"type"`
	Timestamp time.Time         `json:"timestamp"`
	Payload   json.RawMessage   `json:"payload"`
	Metadata  map[string]string `json:"metadata,omitempty"`
}

// RunStarted is the payload of EventRunStarted.
type RunStarted struct {
	Trigger string `json:"trigger"`
	Branch  string `json:"branch,omitempty"`
}

// StageCompleted is the payload of EventStageCompleted.
type StageCompleted struct {
	Stage      string `json:"stage"`
	DurationMS int64  `json:"duration_ms"`
	Error      string `json:"error,omitempty"`
}

// RunFinished is the payload of EventRunFinished.
type RunFinished struct {
	Status         string   `json:"status"`
	Commit         string   `json:"commit,omitempty"`
	EnvFingerprint string   `json:"env_fingerprint,omitempty"`
	Components     []string `json:"components,omitempty"`
	ArtifactSHA256 string   `json:"artifact_sha256,omitempty"`
	DurationMS     int64    `json:"duration_ms"`
	Error          string   `json:"error,omitempty"`
}

// RunSummary is the projection of a run's events.
type RunSummary struct {
	RunID      string     `json:"run_id"`
	Trigger    string     `json:"trigger,omitempty"`
	Branch     string     `json:"branch,omitempty"`
	Status     string     `json:"status"`
	Commit     string     `json:"commit,omitempty"`
	Components []string   `json:"components,omitempty"`
	Stages     []string   `json:"stages,omitempty"`
	Error      string     `json:"error,omitempty"`
	StartedAt  time.Time  `json:"started_at"`
	FinishedAt *time.Time `json:"finished_at,omitempty"`
}

// StatusRunning marks a run without a run_finished event.
const StatusRunning = "running"

// Summarize folds the events of a single run into a RunSummary.
func Summarize(runID string, events []Event) RunSummary {
	s := RunSummary{RunID: runID, Status: StatusRunning}
	for _, e := range events {
		switch e.Type {
		case EventRunStarted:
			var p RunStarted
			if json.Unmarshal(e.Payload, &p) == nil {
				s.Trigger, s.Branch = p.Trigger, p.Branch
			}
			s.StartedAt = e.Timestamp
		case EventStageCompleted:
			var p StageCompleted
			if json.Unmarshal(e.Payload, &p) == nil {
				s.Stages = append(s.Stages, p.Stage)
			}
		case EventRunFinished:
			var p RunFinished
			if json.Unmarshal(e.Payload, &p) == nil {
				s.Status, s.Commit, s.Components, s.Error = p.Status, p.Commit, p.Components, p.Error
			}
			ts := e.Timestamp
			s.FinishedAt = &ts
		}
	}
	return s
}
