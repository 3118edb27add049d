package pipeline

import (
	"context"

	"git.home.luguber.info/inful/docpublish/internal/metrics"
)

// StageName is a strongly-typed identifier for a pipeline stage.
type StageName string

const (
	StageAcquire  StageName = "acquire"
	StageGenerate StageName = "generate"
	StageAssemble StageName = "assemble"
	StageVerify   StageName = "verify"
	StagePublish  StageName = "publish"
)

type stageFunc func(ctx context.Context, st *runState) error

// stageDef pairs a stage name with its executing function.
type stageDef struct {
	Name StageName
	Fn   stageFunc
}

// StageResult records the outcome of one executed stage.
type StageResult struct {
	Stage    StageName
	Result   metrics.ResultLabel
	Duration int64 // milliseconds
	Err      error
}
