package middleware

import (
	"context"
	"net/http"

	"github.com/google/uuid"

	"github.com/stagepass/stagepass-backend/api/responses"
	pkgerrors "github.com/stagepass/stagepass-backend/pkg/errors"
	"github.com/stagepass/stagepass-backend/pkg/logger"
)

// SessionHeader carries the buyer's cart session id. The engine is
// session-scoped: every cart, promo and checkout operation binds to this id.
const SessionHeader = "X-Cart-Session"

type sessionCtxKey struct{}

// CartSession requires a well-formed session id header and puts it on the
// request context.
func CartSession(logg *logger.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			raw := r.Header.Get(SessionHeader)
			if raw == "" {
				responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeValidation, "cart session header is required"))
				return
			}
			sessionID, err := uuid.Parse(raw)
			if err != nil || sessionID == uuid.Nil {
				responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeValidation, "cart session header must be a uuid"))
				return
			}

			ctx := context.WithValue(r.Context(), sessionCtxKey{}, sessionID)
			if logg != nil {
				ctx = logg.WithCartSession(ctx, sessionID.String())
			}
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// SessionFromContext returns the cart session id attached by CartSession.
func SessionFromContext(ctx context.Context) uuid.UUID {
	if sessionID, ok := ctx.Value(sessionCtxKey{}).(uuid.UUID); ok {
		return sessionID
	}
	return uuid.Nil
}
