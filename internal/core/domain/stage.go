package domain

import (
	"errors"
	"fmt"
)

// Stage names one step of the extraction pipeline. The values double as the
// wire-level stage identifiers in failure responses.
type Stage string

const (
	StageRasterize Stage = "rasterize"
	StageExtract   Stage = "extract"
	StageParse     Stage = "parse"
	StageFilter    Stage = "filter"
)

// PipelineState tracks the orchestrator's strictly sequential progression.
type PipelineState string

const (
	StateReceived   PipelineState = "received"
	StateRasterized PipelineState = "rasterized"
	StateExtracted  PipelineState = "extracted"
	StateParsed     PipelineState = "parsed"
	StateFiltered   PipelineState = "filtered"
	StateDone       PipelineState = "done"
	StateFailed     PipelineState = "failed"
)

// StageError attributes a pipeline failure to the stage that raised it.
type StageError struct {
	Stage Stage
	Err   error
}

func (e *StageError) Error() string {
	return fmt.Sprintf("stage %s: %v", e.Stage, e.Err)
}

func (e *StageError) Unwrap() error { return e.Err }

// FailAt wraps err with the failing stage, preserving the error kind chain.
func FailAt(stage Stage, err error) error {
	if err == nil {
		return nil
	}
	return &StageError{Stage: stage, Err: err}
}

// StageOf reports which stage a pipeline error originated from.
func StageOf(err error) (Stage, bool) {
	var se *StageError
	if errors.As(err, &se) {
		return se.Stage, true
	}
	return "", false
}
