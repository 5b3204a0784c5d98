package controllers

import (
	"net/http"
	"time"

	"github.com/stagepass/stagepass-backend/api/middleware"
	"github.com/stagepass/stagepass-backend/api/responses"
	"github.com/stagepass/stagepass-backend/api/validators"
	"github.com/stagepass/stagepass-backend/internal/promo"
	"github.com/stagepass/stagepass-backend/pkg/logger"
)

type applyPromoRequest struct {
	Code string `json:"code" validate:"required,max=64"`
}

type promoResponse struct {
	Code      string `json:"code"`
	Kind      string `json:"kind"`
	Value     string `json:"value"`
	AppliedAt string `json:"appliedAt"`
	Locked    bool   `json:"locked"`
}

// ApplyPromo validates a promo code and attaches it to the session. A new
// code replaces the previous one.
func ApplyPromo(resolver promo.Resolver, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		sessionID := middleware.SessionFromContext(r.Context())

		var payload applyPromoRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		applied, err := resolver.Apply(r.Context(), sessionID, payload.Code)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, promoResponse{
			Code:      applied.Descriptor.Code,
			Kind:      string(applied.Descriptor.Kind),
			Value:     applied.Descriptor.Value.String(),
			AppliedAt: applied.AppliedAt.Format(time.RFC3339),
			Locked:    true,
		})
	}
}

// RemovePromo drops the session's applied promotion.
func RemovePromo(resolver promo.Resolver, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		sessionID := middleware.SessionFromContext(r.Context())

		if err := resolver.Discard(r.Context(), sessionID); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, map[string]string{"status": "removed"})
	}
}
