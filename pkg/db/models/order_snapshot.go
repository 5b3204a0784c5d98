package models

import (
	"time"

	"github.com/google/uuid"
)

// OrderSnapshot records the totals an order was confirmed at, one row per
// successful checkout. Amounts are stored in cents; the snapshot is the audit
// trail for later total disputes.
type OrderSnapshot struct {
	ID                   uuid.UUID `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	OrderRef             string    `gorm:"column:order_ref;uniqueIndex;not null"`
	CartSessionID        uuid.UUID `gorm:"column:cart_session_id;type:uuid;not null;index"`
	CustomerEmail        string    `gorm:"column:customer_email;not null"`
	BaseSubtotalCents    int64     `gorm:"column:base_subtotal_cents;not null"`
	TotalCommissionCents int64     `gorm:"column:total_commission_cents;not null"`
	DiscountCents        int64     `gorm:"column:discount_cents;not null"`
	InsuranceCents       int64     `gorm:"column:insurance_cents;not null"`
	TotalCents           int64     `gorm:"column:total_cents;not null"`
	LoyaltyPoints        int64     `gorm:"column:loyalty_points;not null"`
	PromoCode            *string   `gorm:"column:promo_code"`
	PaymentRequired      bool      `gorm:"column:payment_required;not null"`
	PaymentURL           *string   `gorm:"column:payment_url"`
	CreatedAt            time.Time `gorm:"column:created_at;autoCreateTime"`
}
