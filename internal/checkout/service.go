package checkout

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/stagepass/stagepass-backend/internal/cart"
	"github.com/stagepass/stagepass-backend/internal/commerce"
	"github.com/stagepass/stagepass-backend/internal/pricing"
	"github.com/stagepass/stagepass-backend/internal/promo"
	"github.com/stagepass/stagepass-backend/pkg/config"
	"github.com/stagepass/stagepass-backend/pkg/db/models"
	pkgerrors "github.com/stagepass/stagepass-backend/pkg/errors"
	"github.com/stagepass/stagepass-backend/pkg/logger"
	"github.com/stagepass/stagepass-backend/pkg/metrics"
	"github.com/stagepass/stagepass-backend/pkg/money"
)

type cartStore interface {
	Get(ctx context.Context, sessionID uuid.UUID) (*cart.Snapshot, error)
	Clear(ctx context.Context, sessionID uuid.UUID, reason cart.ClearReason) error
}

type promoResolver interface {
	Active(ctx context.Context, sessionID uuid.UUID) (*promo.Applied, error)
	Discard(ctx context.Context, sessionID uuid.UUID) error
}

type orderSubmitter interface {
	SubmitOrder(ctx context.Context, submission commerce.OrderSubmission) (*commerce.OrderConfirmation, error)
}

type snapshotWriter interface {
	Create(ctx context.Context, snapshot *models.OrderSnapshot) (*models.OrderSnapshot, error)
}

// Service drives the checkout flow: recompute totals from the stored cart,
// submit to the commerce API, verify the confirmed total, then consume the
// cart. The confirmed totals are snapshotted for audit.
type Service interface {
	Submit(ctx context.Context, sessionID uuid.UUID, req SubmitRequest) (*Result, error)
}

// ServiceParams wire the checkout service.
type ServiceParams struct {
	Carts     cartStore
	Promos    promoResolver
	Commerce  orderSubmitter
	Snapshots snapshotWriter
	Calc      pricing.Calculator
	Insurance config.InsuranceConfig
	Logger    *logger.Logger
	Metrics   *metrics.EngineMetrics
	Now       func() time.Time
}

type service struct {
	carts     cartStore
	promos    promoResolver
	commerce  orderSubmitter
	snapshots snapshotWriter
	calc      pricing.Calculator
	insurance config.InsuranceConfig
	logg      *logger.Logger
	metrics   *metrics.EngineMetrics
	now       func() time.Time
}

// NewService builds the checkout service.
func NewService(params ServiceParams) (Service, error) {
	if params.Carts == nil {
		return nil, fmt.Errorf("cart store required")
	}
	if params.Promos == nil {
		return nil, fmt.Errorf("promo resolver required")
	}
	if params.Commerce == nil {
		return nil, fmt.Errorf("commerce client required")
	}
	if params.Logger == nil {
		return nil, fmt.Errorf("logger required")
	}
	now := params.Now
	if now == nil {
		now = time.Now
	}
	return &service{
		carts:     params.Carts,
		promos:    params.Promos,
		commerce:  params.Commerce,
		snapshots: params.Snapshots,
		calc:      params.Calc,
		insurance: params.Insurance,
		logg:      params.Logger,
		metrics:   params.Metrics,
		now:       now,
	}, nil
}

// Submit runs the full checkout. A total mismatch between the local
// computation and the commerce confirmation aborts before payment and leaves
// the cart intact so the buyer can retry.
func (s *service) Submit(ctx context.Context, sessionID uuid.UUID, req SubmitRequest) (*Result, error) {
	if sessionID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "cart session id is required")
	}
	if err := validateSubmit(req); err != nil {
		return nil, err
	}

	logCtx := s.logg.WithCartSession(ctx, sessionID.String())

	snapshot, err := s.carts.Get(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	if snapshot.IsEmpty() {
		return nil, pkgerrors.New(pkgerrors.CodeStateConflict, "cannot check out an empty cart")
	}
	// The expiry clock may not have fired yet; never submit past the deadline.
	if snapshot.Window != nil && !s.now().Before(snapshot.Window.Deadline) {
		return nil, pkgerrors.New(pkgerrors.CodeStateConflict, "reservation window has expired")
	}

	applied, err := s.promos.Active(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	var promotion *promo.Descriptor
	var promoCode string
	if applied != nil {
		promotion = &applied.Descriptor
		promoCode = applied.Descriptor.Code
	}

	insurance := s.insuranceSelection(snapshot)
	totals := s.calc.ComputeTotals(snapshot.Lines, promotion, insurance).Rounded()

	submission := commerce.OrderSubmission{
		CartSessionID: sessionID,
		Customer:      req.Customer,
		Lines:         orderLines(snapshot.Lines),
		PaymentMethod: req.PaymentMethod,
		PromoCode:     promoCode,
		ClientTotal:   totals.Total,
	}
	if insurance != nil {
		submission.Insurance = &commerce.InsuranceSelection{
			Selected: true,
			Amount:   totals.InsuranceAmount,
		}
	}

	confirmation, err := s.commerce.SubmitOrder(ctx, submission)
	if err != nil {
		return nil, err
	}

	if !confirmation.Total.Equal(totals.Total) {
		s.metrics.IncIntegrityFailure()
		s.metrics.IncCheckout("integrity_failure")
		failCtx := s.logg.WithFields(logCtx, map[string]any{
			"local_total":     totals.Total.String(),
			"confirmed_total": confirmation.Total.String(),
			"order_ref":       confirmation.OrderID,
		})
		s.logg.Error(failCtx, "confirmed total disagrees with local computation", nil)
		return nil, pkgerrors.New(pkgerrors.CodeIntegrity, "confirmed total mismatch")
	}

	s.persistSnapshot(logCtx, sessionID, req, totals, promoCode, confirmation)

	// The order now owns the inventory; clearing must not release holds.
	if err := s.carts.Clear(ctx, sessionID, cart.ClearReasonCheckout); err != nil {
		s.logg.Error(logCtx, "cart clear after checkout failed", err)
	}
	if err := s.promos.Discard(ctx, sessionID); err != nil {
		s.logg.Error(logCtx, "promo discard after checkout failed", err)
	}

	s.metrics.IncCheckout("success")
	s.logg.Info(s.logg.WithFields(logCtx, map[string]any{"order_ref": confirmation.OrderID}), "checkout confirmed")

	return &Result{
		OrderRef:        confirmation.OrderID,
		PaymentRequired: confirmation.PaymentRequired,
		PaymentURL:      confirmation.PaymentURL,
		Totals:          totals,
	}, nil
}

func (s *service) insuranceSelection(snapshot *cart.Snapshot) *pricing.Insurance {
	if !s.insurance.Enabled || !snapshot.InsuranceSelected {
		return nil
	}
	return &pricing.Insurance{
		PriceKind:  s.insurance.PriceKind,
		PriceValue: s.insurance.Price(),
		Selected:   true,
	}
}

// persistSnapshot records the confirmed totals. Failure is logged only; the
// order already exists upstream and the buyer must not be blocked.
func (s *service) persistSnapshot(ctx context.Context, sessionID uuid.UUID, req SubmitRequest, totals pricing.Totals, promoCode string, confirmation *commerce.OrderConfirmation) {
	if s.snapshots == nil {
		return
	}

	record := &models.OrderSnapshot{
		ID:                   uuid.New(),
		OrderRef:             confirmation.OrderID,
		CartSessionID:        sessionID,
		CustomerEmail:        req.Customer.Email,
		BaseSubtotalCents:    money.ToCents(totals.BaseSubtotal),
		TotalCommissionCents: money.ToCents(totals.TotalCommission),
		DiscountCents:        money.ToCents(totals.DiscountAmount),
		InsuranceCents:       money.ToCents(totals.InsuranceAmount),
		TotalCents:           money.ToCents(totals.Total),
		LoyaltyPoints:        totals.LoyaltyPoints,
		PaymentRequired:      confirmation.PaymentRequired,
	}
	if promoCode != "" {
		record.PromoCode = &promoCode
	}
	if confirmation.PaymentURL != "" {
		url := confirmation.PaymentURL
		record.PaymentURL = &url
	}

	if _, err := s.snapshots.Create(ctx, record); err != nil {
		s.logg.Error(ctx, "order snapshot persist failed", err)
	}
}

func validateSubmit(req SubmitRequest) error {
	if strings.TrimSpace(req.Customer.FirstName) == "" || strings.TrimSpace(req.Customer.LastName) == "" {
		return pkgerrors.New(pkgerrors.CodeValidation, "customer name is required")
	}
	if strings.TrimSpace(req.Customer.Email) == "" {
		return pkgerrors.New(pkgerrors.CodeValidation, "customer email is required")
	}
	if strings.TrimSpace(req.PaymentMethod) == "" {
		return pkgerrors.New(pkgerrors.CodeValidation, "payment method is required")
	}
	return nil
}

func orderLines(lines []cart.Line) []commerce.OrderLine {
	out := make([]commerce.OrderLine, 0, len(lines))
	for _, line := range lines {
		out = append(out, commerce.OrderLine{
			EventID:          line.EventID,
			TicketTypeID:     line.TicketTypeID,
			Quantity:         line.Quantity,
			UnitBasePrice:    line.UnitBasePrice,
			SeatIDs:          line.SeatIDs,
			SeatingContextID: line.SeatingContextID,
		})
	}
	return out
}
