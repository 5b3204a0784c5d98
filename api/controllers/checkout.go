package controllers

import (
	"net/http"

	"github.com/stagepass/stagepass-backend/api/middleware"
	"github.com/stagepass/stagepass-backend/api/responses"
	"github.com/stagepass/stagepass-backend/api/validators"
	checkoutsvc "github.com/stagepass/stagepass-backend/internal/checkout"
	"github.com/stagepass/stagepass-backend/internal/commerce"
	"github.com/stagepass/stagepass-backend/pkg/logger"
)

type checkoutRequest struct {
	FirstName     string `json:"firstName" validate:"required,max=100"`
	LastName      string `json:"lastName" validate:"required,max=100"`
	Email         string `json:"email" validate:"required,email"`
	Phone         string `json:"phone,omitempty" validate:"max=32"`
	PaymentMethod string `json:"paymentMethod" validate:"required,max=64"`
}

// SubmitCheckout runs the checkout flow for the session's cart.
func SubmitCheckout(svc checkoutsvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		sessionID := middleware.SessionFromContext(r.Context())

		var payload checkoutRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		result, err := svc.Submit(r.Context(), sessionID, checkoutsvc.SubmitRequest{
			Customer: commerce.Customer{
				FirstName: payload.FirstName,
				LastName:  payload.LastName,
				Email:     payload.Email,
				Phone:     payload.Phone,
			},
			PaymentMethod: payload.PaymentMethod,
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccessStatus(w, http.StatusCreated, result)
	}
}
