package cart

import (
	"context"

	"github.com/google/uuid"
	"github.com/stagepass/stagepass-backend/internal/hold"
	"go.uber.org/multierr"
)

// NewExpiryHandler builds the ledger callback for elapsed reservation windows:
// release every seat hold the cart carries, then clear the cart. The clear
// always runs; release failures ride along for logging only.
func NewExpiryHandler(svc Service, releaser seatReleaser) hold.ExpiryHandlerFunc {
	return func(ctx context.Context, sessionID uuid.UUID) error {
		snapshot, err := svc.Get(ctx, sessionID)
		if err != nil {
			return err
		}

		relErr := releaser.ReleaseAll(ctx, snapshot.SeatHolds())
		clearErr := svc.Clear(ctx, sessionID, ClearReasonExpired)
		return multierr.Append(relErr, clearErr)
	}
}
