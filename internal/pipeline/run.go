package pipeline

import (
	"time"

	"github.com/google/uuid"
)

// Trigger identifies what started a run.
type Trigger string

const (
	TriggerPush   Trigger = "push"
	TriggerManual Trigger = "manual"
)

// Run identifies one pipeline execution.
type Run struct {
	ID          string    `json:"id"`
	Trigger     Trigger   `json:"trigger"`
	RequestedAt time.Time `json:"requested_at"`
}

// NewRun creates a run with a fresh ID.
func NewRun(trigger Trigger) Run {
	return Run{ID: uuid.NewString(), Trigger: trigger, RequestedAt: time.Now()}
}
