package mfa

import (
	"context"
	"log/slog"
	"time"

	"github.com/dmitrymomot/mfakit/pkg/logger"
)

// Notifier receives orchestrator events for external collaborators (audit
// trails, user notification). Implementations must not block verification;
// expensive delivery belongs behind a queue.
type Notifier interface {
	// Verified fires after a successful verification.
	Verified(ctx context.Context, userID string, factor FactorKind)

	// LockedOut fires when consecutive failures cross the threshold.
	LockedOut(ctx context.Context, userID string, until time.Time, failures int)

	// CloneSuspected fires when a sign count regression disabled a
	// credential; the user should be pushed into forced re-enrollment.
	CloneSuspected(ctx context.Context, userID string)
}

// slogNotifier is the default Notifier, reporting events via structured
// logging only.
type slogNotifier struct {
	log *slog.Logger
}

func (n slogNotifier) Verified(ctx context.Context, userID string, factor FactorKind) {
	n.log.InfoContext(ctx, "mfa verification succeeded",
		logger.UserID(userID),
		logger.Factor(string(factor)),
	)
}

func (n slogNotifier) LockedOut(ctx context.Context, userID string, until time.Time, failures int) {
	n.log.WarnContext(ctx, "mfa lockout triggered",
		logger.UserID(userID),
		slog.Time("locked_until", until),
		slog.Int("failures", failures),
	)
}

func (n slogNotifier) CloneSuspected(ctx context.Context, userID string) {
	n.log.WarnContext(ctx, "mfa credential clone suspected",
		logger.UserID(userID),
	)
}
