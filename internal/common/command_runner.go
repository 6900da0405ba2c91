package common

import (
	"context"

	"cvscreen/internal/errors"
	"cvscreen/internal/types"
)

// ScreenFunc runs one screening. It follows the engine's non-throwing
// contract: failures surface in the outcome, not as an error.
type ScreenFunc func(ctx context.Context, req types.ScreeningRequest) types.ScreeningOutcome

// RunScreeningCommand encapsulates the common logic for CLI screening:
// run the pipeline, then format and write the outcome.
func RunScreeningCommand(
	ctx context.Context,
	logger *errors.Logger,
	cmdConfig CommandConfig,
	req types.ScreeningRequest,
	screen ScreenFunc,
) error {
	outputHandler := NewOutputHandler(logger)

	logger.Info("Starting document screening",
		"application_id", req.ApplicationID,
		"document", req.DocumentRef,
		"keyword_count", len(req.RequiredKeywords),
		"output_format", cmdConfig.OutputFormat)

	outcome := screen(ctx, req)

	if outcome.Screened() {
		logger.Info("Screening completed",
			"application_id", outcome.ApplicationID,
			"score", *outcome.Score,
			"disposition", outcome.Disposition)
	} else {
		logger.Warn("Document could not be screened",
			"application_id", outcome.ApplicationID,
			"reason", outcome.Reasoning)
	}

	return outputHandler.HandleOutput(outcome, cmdConfig)
}
