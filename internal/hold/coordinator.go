package hold

import (
	"context"
	"fmt"

	"github.com/stagepass/stagepass-backend/pkg/logger"
	"github.com/stagepass/stagepass-backend/pkg/metrics"
	"go.uber.org/multierr"
)

type seatReleaseClient interface {
	ReleaseSeats(ctx context.Context, seatingContextID string, seatIDs []string) error
}

// Coordinator issues idempotent seat-release requests to the inventory
// service. Calls are independent and best-effort: a failure on one hold is
// logged and never blocks releasing the others or clearing the cart. The
// backend's idempotent sweep is the correctness backstop.
type Coordinator struct {
	client  seatReleaseClient
	logg    *logger.Logger
	metrics *metrics.EngineMetrics
}

// NewCoordinator builds a release coordinator.
func NewCoordinator(client seatReleaseClient, logg *logger.Logger, m *metrics.EngineMetrics) (*Coordinator, error) {
	if client == nil {
		return nil, fmt.Errorf("seat release client required")
	}
	if logg == nil {
		return nil, fmt.Errorf("logger required")
	}
	return &Coordinator{client: client, logg: logg, metrics: m}, nil
}

// ReleaseAll releases every hold that carries seat ids. The combined error is
// returned for observability only; callers clear the cart regardless.
func (c *Coordinator) ReleaseAll(ctx context.Context, holds []SeatHold) error {
	var errs []error
	for _, h := range holds {
		if err := c.ReleaseOne(ctx, h); err != nil {
			errs = append(errs, err)
		}
	}
	return multierr.Combine(errs...)
}

// ReleaseOne releases a single seat hold. General-admission holds (no seat
// ids) require no release call.
func (c *Coordinator) ReleaseOne(ctx context.Context, h SeatHold) error {
	if len(h.SeatIDs) == 0 {
		return nil
	}

	if err := c.client.ReleaseSeats(ctx, h.SeatingContextID, h.SeatIDs); err != nil {
		logCtx := c.logg.WithFields(ctx, map[string]any{
			"seating_context": h.SeatingContextID,
			"seat_count":      len(h.SeatIDs),
		})
		c.logg.Error(logCtx, "seat release failed", err)
		c.metrics.IncSeatRelease("failure")
		return err
	}

	c.metrics.IncSeatRelease("success")
	return nil
}
