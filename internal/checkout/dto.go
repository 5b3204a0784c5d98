package checkout

import (
	"github.com/stagepass/stagepass-backend/internal/commerce"
	"github.com/stagepass/stagepass-backend/internal/pricing"
)

// SubmitRequest carries the buyer's checkout form.
type SubmitRequest struct {
	Customer      commerce.Customer
	PaymentMethod string
}

// Result is the confirmed order handed back to the buyer after the commerce
// API accepted the submission and the totals matched.
type Result struct {
	OrderRef        string         `json:"orderRef"`
	PaymentRequired bool           `json:"paymentRequired"`
	PaymentURL      string         `json:"paymentUrl,omitempty"`
	Totals          pricing.Totals `json:"totals"`
}
