// Package audit defines the analysis audit trail model.
//
// Events are emitted from the evaluation path to record what was analysed,
// when, and with which outcome. The model is transport-agnostic so publishers
// can fan out to different sinks.
package audit

import (
	"context"
	"time"
)

// Action classifies what an audit event records.
type Action string

const (
	// ActionPackageAnalysed records one package evaluation, successful or not.
	ActionPackageAnalysed Action = "package_analysed"

	// ActionBatchCompleted records the aggregate of one evaluation run.
	ActionBatchCompleted Action = "batch_completed"
)

// Outcome values for package events.
const (
	OutcomeAnalysed = "analysed"
	OutcomeFailed   = "failed"
)

// Event records one analysis action. RunID correlates all events of a batch.
// Package carries the canonical purl; Level and Outcome are only set on
// package events.
type Event struct {
	ID        string    `json:"id"`
	RunID     string    `json:"run_id"`
	Action    Action    `json:"action"`
	Package   string    `json:"package,omitempty"`
	Level     string    `json:"level,omitempty"`
	Outcome   string    `json:"outcome,omitempty"`
	Timestamp time.Time `json:"timestamp"`
}

// Emitter publishes audit events. Implementations must be safe for concurrent
// use. Emission failures are the caller's to tolerate: the analysis trail is
// an observability aid, not a gate.
type Emitter interface {
	Emit(ctx context.Context, event Event) error
}
