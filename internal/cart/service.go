package cart

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/stagepass/stagepass-backend/internal/hold"
	pkgerrors "github.com/stagepass/stagepass-backend/pkg/errors"
	"github.com/stagepass/stagepass-backend/pkg/logger"
)

// ClearReason says why a cart is being emptied; only user-driven clears
// release seat holds here. Expiry releases before clearing, and checkout
// success consumes the inventory instead of releasing it.
type ClearReason string

const (
	ClearReasonUser     ClearReason = "user"
	ClearReasonCheckout ClearReason = "checkout"
	ClearReasonExpired  ClearReason = "expired"
)

type windowLedger interface {
	Begin(sessionID uuid.UUID) hold.Window
	Adopt(sessionID uuid.UUID, window hold.Window) bool
	Clear(sessionID uuid.UUID)
}

type seatReleaser interface {
	ReleaseAll(ctx context.Context, holds []hold.SeatHold) error
	ReleaseOne(ctx context.Context, h hold.SeatHold) error
}

// Service exposes cart mutations. Every mutation leaves the snapshot
// consistent; callers recompute totals after each one since the store
// holds no derived amounts.
type Service interface {
	Get(ctx context.Context, sessionID uuid.UUID) (*Snapshot, error)
	AddLine(ctx context.Context, sessionID uuid.UUID, line Line) (*Snapshot, error)
	UpdateQuantity(ctx context.Context, sessionID uuid.UUID, index, delta int) (*Snapshot, error)
	RemoveLine(ctx context.Context, sessionID uuid.UUID, index int) (*Snapshot, error)
	SetInsurance(ctx context.Context, sessionID uuid.UUID, selected bool) (*Snapshot, error)
	Clear(ctx context.Context, sessionID uuid.UUID, reason ClearReason) error
}

type service struct {
	repo     Repository
	ledger   windowLedger
	releaser seatReleaser
	logg     *logger.Logger
}

// NewService builds a cart service backed by the provided stack.
func NewService(repo Repository, ledger windowLedger, releaser seatReleaser, logg *logger.Logger) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("cart repository required")
	}
	if ledger == nil {
		return nil, fmt.Errorf("reservation ledger required")
	}
	if releaser == nil {
		return nil, fmt.Errorf("seat releaser required")
	}
	if logg == nil {
		return nil, fmt.Errorf("logger required")
	}
	return &service{repo: repo, ledger: ledger, releaser: releaser, logg: logg}, nil
}

func (s *service) Get(ctx context.Context, sessionID uuid.UUID) (*Snapshot, error) {
	if sessionID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "cart session id is required")
	}
	snapshot, err := s.repo.Load(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	if snapshot == nil {
		return &Snapshot{SessionID: sessionID}, nil
	}

	// A stored window with no ledger entry means the process restarted while
	// the cart was held. Resume the clock, or expire the cart on the spot if
	// the deadline passed while nothing was driving it.
	if snapshot.Window != nil && !s.ledger.Adopt(sessionID, *snapshot.Window) {
		if relErr := s.releaser.ReleaseAll(ctx, snapshot.SeatHolds()); relErr != nil {
			s.logg.Warn(s.logg.WithCartSession(ctx, sessionID.String()), "some seat releases failed while expiring a stale cart")
		}
		if err := s.repo.Delete(ctx, sessionID); err != nil {
			return nil, err
		}
		return &Snapshot{SessionID: sessionID}, nil
	}
	return snapshot, nil
}

// AddLine appends a confirmed ticket/seat selection. The first insertion into
// an empty cart stamps the reservation window; later insertions never move it.
func (s *service) AddLine(ctx context.Context, sessionID uuid.UUID, line Line) (*Snapshot, error) {
	if err := line.Validate(); err != nil {
		return nil, err
	}

	snapshot, err := s.Get(ctx, sessionID)
	if err != nil {
		return nil, err
	}

	if err := checkSeatOverlap(snapshot.Lines, line); err != nil {
		return nil, err
	}

	wasEmpty := snapshot.IsEmpty()
	snapshot.Lines = append(snapshot.Lines, line)
	if wasEmpty {
		window := s.ledger.Begin(sessionID)
		snapshot.Window = &window
	}

	if err := s.repo.Save(ctx, snapshot); err != nil {
		return nil, err
	}
	return snapshot, nil
}

// UpdateQuantity applies a quantity delta. Exceeding the cap rejects without
// mutation; dropping to zero or below the per-order minimum removes the line
// entirely rather than clamping.
func (s *service) UpdateQuantity(ctx context.Context, sessionID uuid.UUID, index, delta int) (*Snapshot, error) {
	snapshot, err := s.Get(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	if index < 0 || index >= len(snapshot.Lines) {
		return nil, pkgerrors.New(pkgerrors.CodeNotFound, "cart line not found")
	}

	line := snapshot.Lines[index]
	if len(line.SeatIDs) > 0 && delta != 0 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "seated lines cannot change quantity; remove the line instead")
	}
	next := line.Quantity + delta
	if next > line.MaxAllowed() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "quantity exceeds the per-order maximum")
	}
	if next <= 0 || (delta < 0 && next < line.MinPerOrder) {
		return s.removeAt(ctx, snapshot, index)
	}

	snapshot.Lines[index].Quantity = next
	if err := s.repo.Save(ctx, snapshot); err != nil {
		return nil, err
	}
	return snapshot, nil
}

// RemoveLine drops one line and releases its seat holds best-effort.
func (s *service) RemoveLine(ctx context.Context, sessionID uuid.UUID, index int) (*Snapshot, error) {
	snapshot, err := s.Get(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	if index < 0 || index >= len(snapshot.Lines) {
		return nil, pkgerrors.New(pkgerrors.CodeNotFound, "cart line not found")
	}
	return s.removeAt(ctx, snapshot, index)
}

// SetInsurance toggles the buyer's insurance selection on a non-empty cart.
func (s *service) SetInsurance(ctx context.Context, sessionID uuid.UUID, selected bool) (*Snapshot, error) {
	snapshot, err := s.Get(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	if snapshot.IsEmpty() {
		return nil, pkgerrors.New(pkgerrors.CodeStateConflict, "cannot select insurance on an empty cart")
	}
	snapshot.InsuranceSelected = selected
	if err := s.repo.Save(ctx, snapshot); err != nil {
		return nil, err
	}
	return snapshot, nil
}

// Clear empties the cart and discards the reservation window. User-driven
// clears release every seat hold first; release failures are logged and never
// block the clear.
func (s *service) Clear(ctx context.Context, sessionID uuid.UUID, reason ClearReason) error {
	if sessionID == uuid.Nil {
		return pkgerrors.New(pkgerrors.CodeValidation, "cart session id is required")
	}

	if reason == ClearReasonUser {
		snapshot, err := s.repo.Load(ctx, sessionID)
		if err != nil {
			return err
		}
		if snapshot != nil {
			if relErr := s.releaser.ReleaseAll(ctx, snapshot.SeatHolds()); relErr != nil {
				s.logg.Warn(s.logg.WithCartSession(ctx, sessionID.String()), "some seat releases failed during cart clear")
			}
		}
	}

	s.ledger.Clear(sessionID)
	return s.repo.Delete(ctx, sessionID)
}

func (s *service) removeAt(ctx context.Context, snapshot *Snapshot, index int) (*Snapshot, error) {
	removed := snapshot.Lines[index]
	snapshot.Lines = append(snapshot.Lines[:index], snapshot.Lines[index+1:]...)

	if h, ok := removed.SeatHold(); ok {
		// Best effort: the backend sweep is the backstop for failed releases.
		_ = s.releaser.ReleaseOne(ctx, h)
	}

	if snapshot.IsEmpty() {
		s.ledger.Clear(snapshot.SessionID)
		if err := s.repo.Delete(ctx, snapshot.SessionID); err != nil {
			return nil, err
		}
		return &Snapshot{SessionID: snapshot.SessionID}, nil
	}

	if err := s.repo.Save(ctx, snapshot); err != nil {
		return nil, err
	}
	return snapshot, nil
}

func checkSeatOverlap(existing []Line, incoming Line) error {
	if len(incoming.SeatIDs) == 0 {
		return nil
	}
	taken := map[string]struct{}{}
	for _, line := range existing {
		if line.SeatingContextID != incoming.SeatingContextID {
			continue
		}
		for _, seat := range line.SeatIDs {
			taken[seat] = struct{}{}
		}
	}
	for _, seat := range incoming.SeatIDs {
		if _, ok := taken[seat]; ok {
			return pkgerrors.New(pkgerrors.CodeConflict, "seat already held in this cart")
		}
	}
	return nil
}
