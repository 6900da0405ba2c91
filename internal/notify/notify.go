// Package notify defines the outbound notification contract. The
// screening engine classifies outcomes; actual mail delivery belongs to
// an external collaborator behind the Notifier interface.
package notify

import (
	"context"

	"cvscreen/internal/errors"
)

// Notifier is implemented by mail collaborators.
type Notifier interface {
	// RejectionNotice signals that the application was auto-rejected.
	RejectionNotice(ctx context.Context, applicationID string) error
	// AcceptanceNotice signals an organization-driven acceptance.
	AcceptanceNotice(ctx context.Context, applicationID string) error
}

// LogNotifier records notices in the log instead of sending mail. It is
// the default when no mail collaborator is configured.
type LogNotifier struct {
	logger *errors.Logger
}

// NewLogNotifier creates a notifier backed by the structured log.
func NewLogNotifier(logger *errors.Logger) *LogNotifier {
	return &LogNotifier{logger: logger}
}

func (n *LogNotifier) RejectionNotice(ctx context.Context, applicationID string) error {
	if n.logger != nil {
		n.logger.Info("Rejection notice triggered", "application_id", applicationID)
	}
	return nil
}

func (n *LogNotifier) AcceptanceNotice(ctx context.Context, applicationID string) error {
	if n.logger != nil {
		n.logger.Info("Acceptance notice triggered", "application_id", applicationID)
	}
	return nil
}
