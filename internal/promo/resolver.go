package promo

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/stagepass/stagepass-backend/internal/commerce"
	pkgerrors "github.com/stagepass/stagepass-backend/pkg/errors"
	"github.com/stagepass/stagepass-backend/pkg/logger"
)

type promoValidator interface {
	ValidatePromo(ctx context.Context, code string) (*commerce.PromoValidation, error)
}

// Resolver validates promo codes against the commerce API and keeps the
// session's single active promotion.
type Resolver interface {
	Apply(ctx context.Context, sessionID uuid.UUID, code string) (*Applied, error)
	Active(ctx context.Context, sessionID uuid.UUID) (*Applied, error)
	Discard(ctx context.Context, sessionID uuid.UUID) error
}

type resolver struct {
	validator promoValidator
	store     Store
	logg      *logger.Logger
	now       func() time.Time
}

// NewResolver builds a promotion resolver.
func NewResolver(validator promoValidator, store Store, logg *logger.Logger) (Resolver, error) {
	if validator == nil {
		return nil, fmt.Errorf("promo validator required")
	}
	if store == nil {
		return nil, fmt.Errorf("promo store required")
	}
	if logg == nil {
		return nil, fmt.Errorf("logger required")
	}
	return &resolver{
		validator: validator,
		store:     store,
		logg:      logg,
		now:       time.Now,
	}, nil
}

// Apply normalizes and validates a promo code. Empty input is rejected locally
// without a network call. A valid code replaces any previously applied
// promotion; promotions never stack.
func (r *resolver) Apply(ctx context.Context, sessionID uuid.UUID, code string) (*Applied, error) {
	if sessionID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "cart session id is required")
	}
	normalized := strings.ToUpper(strings.TrimSpace(code))
	if normalized == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "promo code is required")
	}

	validation, err := r.validator.ValidatePromo(ctx, normalized)
	if err != nil {
		return nil, err
	}
	if !validation.Valid {
		message := strings.TrimSpace(validation.Message)
		if message == "" {
			message = "invalid or expired code"
		}
		return nil, pkgerrors.New(pkgerrors.CodeValidation, message)
	}

	kind := DiscountKind(validation.Type)
	if !kind.IsValid() {
		return nil, pkgerrors.New(pkgerrors.CodeDependency, "promo validation returned unknown discount type")
	}
	if validation.Value.IsNegative() {
		return nil, pkgerrors.New(pkgerrors.CodeDependency, "promo validation returned negative value")
	}

	applied := Applied{
		Descriptor: Descriptor{
			Code:  normalized,
			Kind:  kind,
			Value: validation.Value,
		},
		AppliedAt: r.now().UTC(),
	}
	if err := r.store.Save(ctx, sessionID, applied); err != nil {
		return nil, err
	}

	logCtx := r.logg.WithFields(ctx, map[string]any{"promo_code": normalized, "discount_kind": string(kind)})
	r.logg.Info(logCtx, "promotion applied")
	return &applied, nil
}

// Active returns the promotion currently applied to the session, if any.
func (r *resolver) Active(ctx context.Context, sessionID uuid.UUID) (*Applied, error) {
	if sessionID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "cart session id is required")
	}
	return r.store.Get(ctx, sessionID)
}

// Discard drops the session's promotion, if any.
func (r *resolver) Discard(ctx context.Context, sessionID uuid.UUID) error {
	if sessionID == uuid.Nil {
		return pkgerrors.New(pkgerrors.CodeValidation, "cart session id is required")
	}
	return r.store.Clear(ctx, sessionID)
}
