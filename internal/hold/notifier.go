package hold

import (
	"context"
	"time"

	"github.com/stagepass/stagepass-backend/pkg/logger"
)

// LogNotifier emits countdown transitions as structured log events. The
// storefront polls GET /cart for the same state; the log stream is for
// operators.
type LogNotifier struct {
	logg *logger.Logger
}

// NewLogNotifier wraps the logger in a Notifier.
func NewLogNotifier(logg *logger.Logger) *LogNotifier {
	return &LogNotifier{logg: logg}
}

func (n *LogNotifier) HoldWarning(sessionID string, remaining time.Duration) {
	if n == nil || n.logg == nil {
		return
	}
	ctx := n.fields(sessionID, remaining)
	n.logg.Info(ctx, "hold.warning")
}

func (n *LogNotifier) HoldUrgent(sessionID string, remaining time.Duration) {
	if n == nil || n.logg == nil {
		return
	}
	ctx := n.fields(sessionID, remaining)
	n.logg.Info(ctx, "hold.urgent")
}

func (n *LogNotifier) HoldExpired(sessionID string) {
	if n == nil || n.logg == nil {
		return
	}
	ctx := n.logg.WithCartSession(context.Background(), sessionID)
	n.logg.Info(ctx, "hold.expired")
}

func (n *LogNotifier) fields(sessionID string, remaining time.Duration) context.Context {
	ctx := n.logg.WithCartSession(context.Background(), sessionID)
	return n.logg.WithField(ctx, "remaining_ms", remaining.Milliseconds())
}
