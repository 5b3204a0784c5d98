package cart

import (
	"context"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/stagepass/stagepass-backend/api/middleware"
	"github.com/stagepass/stagepass-backend/api/responses"
	"github.com/stagepass/stagepass-backend/api/validators"
	cartsvc "github.com/stagepass/stagepass-backend/internal/cart"
	"github.com/stagepass/stagepass-backend/internal/hold"
	"github.com/stagepass/stagepass-backend/internal/pricing"
	"github.com/stagepass/stagepass-backend/internal/promo"
	"github.com/stagepass/stagepass-backend/pkg/config"
	pkgerrors "github.com/stagepass/stagepass-backend/pkg/errors"
	"github.com/stagepass/stagepass-backend/pkg/logger"
)

type holdPhases interface {
	Phase(sessionID uuid.UUID) hold.Phase
	Remaining(sessionID uuid.UUID) (time.Duration, bool)
}

// Renderer assembles the cart view: stored snapshot plus recomputed totals
// and countdown. Every cart handler responds with the same rendering so the
// two surfaces (cart page, checkout summary) can never drift.
type Renderer struct {
	Promos    promo.Resolver
	Calc      pricing.Calculator
	Insurance config.InsuranceConfig
	Holds     holdPhases
}

func (rd Renderer) render(ctx context.Context, snapshot *cartsvc.Snapshot) (View, error) {
	applied, err := rd.Promos.Active(ctx, snapshot.SessionID)
	if err != nil {
		return View{}, err
	}

	var promotion *promo.Descriptor
	if applied != nil {
		promotion = &applied.Descriptor
	}

	var insurance *pricing.Insurance
	if rd.Insurance.Enabled && snapshot.InsuranceSelected {
		insurance = &pricing.Insurance{
			PriceKind:  rd.Insurance.PriceKind,
			PriceValue: rd.Insurance.Price(),
			Selected:   true,
		}
	}

	totals := rd.Calc.ComputeTotals(snapshot.Lines, promotion, insurance).Rounded()

	var countdown *CountdownView
	if remaining, ok := rd.Holds.Remaining(snapshot.SessionID); ok && snapshot.Window != nil {
		countdown = &CountdownView{
			Deadline:         snapshot.Window.Deadline,
			RemainingSeconds: int64(remaining / time.Second),
			Phase:            string(rd.Holds.Phase(snapshot.SessionID)),
		}
	}

	return newView(snapshot, applied, countdown, totals), nil
}

func (rd Renderer) respond(w http.ResponseWriter, r *http.Request, logg *logger.Logger, status int, snapshot *cartsvc.Snapshot) {
	view, err := rd.render(r.Context(), snapshot)
	if err != nil {
		responses.WriteError(r.Context(), logg, w, err)
		return
	}
	responses.WriteSuccessStatus(w, status, view)
}

// Fetch returns the cart with recomputed totals and countdown state.
func Fetch(svc cartsvc.Service, renderer Renderer, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		sessionID := middleware.SessionFromContext(r.Context())
		snapshot, err := svc.Get(r.Context(), sessionID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		renderer.respond(w, r, logg, http.StatusOK, snapshot)
	}
}

// AddLine inserts a confirmed ticket selection into the cart.
func AddLine(svc cartsvc.Service, renderer Renderer, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		sessionID := middleware.SessionFromContext(r.Context())

		var payload AddLineRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		snapshot, err := svc.AddLine(r.Context(), sessionID, payload.toLine())
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		renderer.respond(w, r, logg, http.StatusCreated, snapshot)
	}
}

// UpdateQuantity applies a quantity delta to one cart line.
func UpdateQuantity(svc cartsvc.Service, renderer Renderer, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		sessionID := middleware.SessionFromContext(r.Context())

		index, err := lineIndex(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var payload UpdateQuantityRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		snapshot, err := svc.UpdateQuantity(r.Context(), sessionID, index, payload.Delta)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		renderer.respond(w, r, logg, http.StatusOK, snapshot)
	}
}

// RemoveLine drops one cart line.
func RemoveLine(svc cartsvc.Service, renderer Renderer, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		sessionID := middleware.SessionFromContext(r.Context())

		index, err := lineIndex(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		snapshot, err := svc.RemoveLine(r.Context(), sessionID, index)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		renderer.respond(w, r, logg, http.StatusOK, snapshot)
	}
}

// SetInsurance records the buyer's insurance choice.
func SetInsurance(svc cartsvc.Service, renderer Renderer, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		sessionID := middleware.SessionFromContext(r.Context())

		var payload InsuranceRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		snapshot, err := svc.SetInsurance(r.Context(), sessionID, *payload.Selected)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		renderer.respond(w, r, logg, http.StatusOK, snapshot)
	}
}

// Clear empties the cart on user request, releasing any seat holds.
func Clear(svc cartsvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		sessionID := middleware.SessionFromContext(r.Context())

		if err := svc.Clear(r.Context(), sessionID, cartsvc.ClearReasonUser); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, map[string]string{"status": "cleared"})
	}
}

func lineIndex(r *http.Request) (int, error) {
	raw := chi.URLParam(r, "index")
	index, err := strconv.Atoi(raw)
	if err != nil || index < 0 {
		return 0, pkgerrors.New(pkgerrors.CodeValidation, "line index must be a non-negative integer")
	}
	return index, nil
}
