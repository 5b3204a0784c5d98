package controllers

import (
	"net/http"

	"github.com/stagepass/stagepass-backend/api/responses"
	"github.com/stagepass/stagepass-backend/pkg/config"
)

type insuranceOffer struct {
	Enabled     bool   `json:"enabled"`
	Label       string `json:"label,omitempty"`
	Description string `json:"description,omitempty"`
	PriceKind   string `json:"priceKind,omitempty"`
	PriceValue  string `json:"priceValue,omitempty"`
	PreChecked  bool   `json:"preChecked,omitempty"`
	TermsURL    string `json:"termsUrl,omitempty"`
}

// InsuranceOffer exposes the deployment's ticket-insurance offer so the cart
// surface can render the checkbox without hardcoding the price.
func InsuranceOffer(cfg config.InsuranceConfig) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if !cfg.Enabled {
			responses.WriteSuccess(w, insuranceOffer{Enabled: false})
			return
		}
		responses.WriteSuccess(w, insuranceOffer{
			Enabled:     true,
			Label:       cfg.Label,
			Description: cfg.Description,
			PriceKind:   cfg.PriceKind,
			PriceValue:  cfg.Price().String(),
			PreChecked:  cfg.PreChecked,
			TermsURL:    cfg.TermsURL,
		})
	}
}
