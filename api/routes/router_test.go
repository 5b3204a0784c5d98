package routes

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/google/uuid"

	cartcontrollers "github.com/stagepass/stagepass-backend/api/controllers/cart"
	cartsvc "github.com/stagepass/stagepass-backend/internal/cart"
	checkoutsvc "github.com/stagepass/stagepass-backend/internal/checkout"
	"github.com/stagepass/stagepass-backend/internal/hold"
	"github.com/stagepass/stagepass-backend/internal/pricing"
	"github.com/stagepass/stagepass-backend/internal/promo"
	"github.com/stagepass/stagepass-backend/pkg/config"
	"github.com/stagepass/stagepass-backend/pkg/logger"
)

type noopCartService struct{}

func (noopCartService) Get(_ context.Context, sessionID uuid.UUID) (*cartsvc.Snapshot, error) {
	return &cartsvc.Snapshot{SessionID: sessionID}, nil
}

func (noopCartService) AddLine(_ context.Context, sessionID uuid.UUID, line cartsvc.Line) (*cartsvc.Snapshot, error) {
	return &cartsvc.Snapshot{SessionID: sessionID, Lines: []cartsvc.Line{line}}, nil
}

func (noopCartService) UpdateQuantity(_ context.Context, sessionID uuid.UUID, _, _ int) (*cartsvc.Snapshot, error) {
	return &cartsvc.Snapshot{SessionID: sessionID}, nil
}

func (noopCartService) RemoveLine(_ context.Context, sessionID uuid.UUID, _ int) (*cartsvc.Snapshot, error) {
	return &cartsvc.Snapshot{SessionID: sessionID}, nil
}

func (noopCartService) SetInsurance(_ context.Context, sessionID uuid.UUID, _ bool) (*cartsvc.Snapshot, error) {
	return &cartsvc.Snapshot{SessionID: sessionID}, nil
}

func (noopCartService) Clear(context.Context, uuid.UUID, cartsvc.ClearReason) error {
	return nil
}

type noopCheckout struct{}

func (noopCheckout) Submit(context.Context, uuid.UUID, checkoutsvc.SubmitRequest) (*checkoutsvc.Result, error) {
	return &checkoutsvc.Result{OrderRef: "ORD-1"}, nil
}

type noopResolver struct{}

func (noopResolver) Apply(context.Context, uuid.UUID, string) (*promo.Applied, error) {
	return &promo.Applied{}, nil
}

func (noopResolver) Active(context.Context, uuid.UUID) (*promo.Applied, error) {
	return nil, nil
}

func (noopResolver) Discard(context.Context, uuid.UUID) error {
	return nil
}

type noopHolds struct{}

func (noopHolds) Phase(uuid.UUID) hold.Phase { return hold.PhaseNone }

func (noopHolds) Remaining(uuid.UUID) (time.Duration, bool) { return 0, false }

func testRouter(t *testing.T) http.Handler {
	t.Helper()
	logg := logger.New(logger.Options{ServiceName: "router-test", Output: io.Discard})
	resolver := noopResolver{}
	return NewRouter(RouterParams{
		Config:          &config.Config{App: config.AppConfig{Env: "development"}},
		Logger:          logg,
		CartService:     noopCartService{},
		CheckoutService: noopCheckout{},
		PromoResolver:   resolver,
		CartRenderer: cartcontrollers.Renderer{
			Promos: resolver,
			Calc:   pricing.NewCalculator(pricing.DefaultPointsPerCurrencyUnit),
			Holds:  noopHolds{},
		},
	})
}

func TestHealthLive(t *testing.T) {
	t.Parallel()

	rec := httptest.NewRecorder()
	testRouter(t).ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/health/live", nil))
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
}

func TestMetricsExposed(t *testing.T) {
	t.Parallel()

	rec := httptest.NewRecorder()
	testRouter(t).ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
}

func TestCartRequiresSessionHeader(t *testing.T) {
	t.Parallel()

	rec := httptest.NewRecorder()
	testRouter(t).ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/v1/cart", nil))
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("status = %d", rec.Code)
	}
}

func TestCartRoutesWired(t *testing.T) {
	t.Parallel()

	req := httptest.NewRequest(http.MethodGet, "/api/v1/cart", nil)
	req.Header.Set("X-Cart-Session", uuid.NewString())
	rec := httptest.NewRecorder()
	testRouter(t).ServeHTTP(rec, req)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d body=%s", rec.Code, rec.Body.String())
	}
}

func TestInsuranceOfferPublic(t *testing.T) {
	t.Parallel()

	rec := httptest.NewRecorder()
	testRouter(t).ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/v1/insurance", nil))
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
}
