// Package sink persists screening outcomes. The engine produces results;
// writing them to the application record is a collaborator concern kept
// behind the Sink interface so the engine stays storage-agnostic.
package sink

import (
	"context"

	"cvscreen/internal/errors"
	"cvscreen/internal/types"
)

// Sink receives completed screening outcomes.
type Sink interface {
	Save(ctx context.Context, outcome types.ScreeningOutcome) error
}

// LogSink writes outcomes to the structured log. It is the default when
// no database is configured, and keeps the screening pipeline runnable
// from the CLI with zero infrastructure.
type LogSink struct {
	logger *errors.Logger
}

// NewLogSink creates a sink backed by the structured log.
func NewLogSink(logger *errors.Logger) *LogSink {
	return &LogSink{logger: logger}
}

func (s *LogSink) Save(ctx context.Context, outcome types.ScreeningOutcome) error {
	if s.logger == nil {
		return nil
	}
	args := []any{
		"application_id", outcome.ApplicationID,
		"disposition", outcome.Disposition,
		"matched", len(outcome.Matched),
		"missing", len(outcome.Missing),
	}
	if outcome.Score != nil {
		args = append(args, "score", *outcome.Score)
	}
	s.logger.Info("Screening outcome", args...)
	return nil
}
