package detectors

import (
	"context"
	"errors"

	"go-raidguard/internal/forensics"
	"go-raidguard/internal/models"
)

var ErrInvalidEvent = errors.New("event has no guild")

// Responder runs one remediation and reports its outcome.
type Responder interface {
	Respond(ctx context.Context, target models.Target, action models.Action, reason string) models.Outcome
}

// Attributor resolves the actor behind the newest audit log entry of an action.
type Attributor interface {
	Resolve(ctx context.Context, guildID string, action int) forensics.Attribution
}

// Reporter delivers a report; it never fails.
type Reporter interface {
	Send(ctx context.Context, report *models.Report)
}
