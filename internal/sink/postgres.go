package sink

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"

	"cvscreen/internal/errors"
	"cvscreen/internal/types"
)

// updateApplicationSQL maps the outcome onto the application record.
// status flips to rejected only on auto_rejected; every other
// disposition leaves it for human or organization action.
const updateApplicationSQL = `
UPDATE applications
SET ai_score = $2,
    ai_analysis = $3,
    screening_status = $4,
    status = CASE WHEN $4 = 'auto_rejected' THEN 'rejected' ELSE status END,
    screened_at = now()
WHERE id = $1`

// analysisPayload is the structured ai_analysis column content.
type analysisPayload struct {
	Reasoning string               `json:"reasoning"`
	Matched   []string             `json:"matched"`
	Missing   []string             `json:"missing"`
	Quality   types.QualitySignals `json:"quality"`
}

// PostgresSink persists outcomes into the applications table.
type PostgresSink struct {
	pool   *pgxpool.Pool
	logger *errors.Logger
}

// NewPostgresSink connects a pool and verifies it with a ping.
func NewPostgresSink(ctx context.Context, connString string, logger *errors.Logger) (*PostgresSink, error) {
	pool, err := pgxpool.New(ctx, connString)
	if err != nil {
		return nil, errors.NewConfigError(errors.ErrCodeInvalidConfig,
			"invalid database connection string", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, errors.NewIOError(errors.ErrCodeSinkFailed,
			"database is unreachable", err)
	}
	return &PostgresSink{pool: pool, logger: logger}, nil
}

// Save writes one outcome. Unscreened outcomes persist a null score with
// the failure cause in ai_analysis.
func (s *PostgresSink) Save(ctx context.Context, outcome types.ScreeningOutcome) error {
	payload, err := json.Marshal(analysisPayload{
		Reasoning: outcome.Reasoning,
		Matched:   outcome.Matched,
		Missing:   outcome.Missing,
		Quality:   outcome.Quality,
	})
	if err != nil {
		return errors.NewInternalError(errors.ErrCodeSinkFailed,
			"failed to encode analysis payload", err)
	}

	tag, err := s.pool.Exec(ctx, updateApplicationSQL,
		outcome.ApplicationID, outcome.Score, payload, string(outcome.Disposition))
	if err != nil {
		return errors.NewIOError(errors.ErrCodeSinkFailed,
			"failed to persist screening outcome", err).
			WithContext("application_id", outcome.ApplicationID)
	}
	if tag.RowsAffected() == 0 {
		return errors.NewIOError(errors.ErrCodeSinkFailed,
			fmt.Sprintf("no application record with id %s", outcome.ApplicationID), nil)
	}

	if s.logger != nil {
		s.logger.Debug("Screening outcome persisted",
			"application_id", outcome.ApplicationID,
			"disposition", outcome.Disposition)
	}
	return nil
}

// Close releases the connection pool.
func (s *PostgresSink) Close() {
	s.pool.Close()
}
