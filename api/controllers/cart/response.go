package cart

import (
	"time"

	cartsvc "github.com/stagepass/stagepass-backend/internal/cart"
	"github.com/stagepass/stagepass-backend/internal/pricing"
	"github.com/stagepass/stagepass-backend/internal/promo"
)

// CountdownView is the hold window as rendered to the buyer.
type CountdownView struct {
	Deadline         time.Time `json:"deadline"`
	RemainingSeconds int64     `json:"remainingSeconds"`
	Phase            string    `json:"phase"`
}

// PromoView is the applied promotion as rendered to the buyer. Locked tells
// the surfaces to disable the promo input while this code is active; removing
// the promotion re-enables it.
type PromoView struct {
	Code   string `json:"code"`
	Kind   string `json:"kind"`
	Value  string `json:"value"`
	Locked bool   `json:"locked"`
}

// View is the cart page payload: the stored lines plus everything derived on
// read. Totals are never persisted; this is the single rendering of them.
type View struct {
	SessionID         string         `json:"sessionId"`
	Lines             []cartsvc.Line `json:"lines"`
	InsuranceSelected bool           `json:"insuranceSelected"`
	Promo             *PromoView     `json:"promo,omitempty"`
	Countdown         *CountdownView `json:"countdown,omitempty"`
	Totals            pricing.Totals `json:"totals"`
}

func newView(snapshot *cartsvc.Snapshot, applied *promo.Applied, countdown *CountdownView, totals pricing.Totals) View {
	view := View{
		SessionID:         snapshot.SessionID.String(),
		Lines:             snapshot.Lines,
		InsuranceSelected: snapshot.InsuranceSelected,
		Countdown:         countdown,
		Totals:            totals,
	}
	if view.Lines == nil {
		view.Lines = []cartsvc.Line{}
	}
	if applied != nil {
		view.Promo = &PromoView{
			Code:   applied.Descriptor.Code,
			Kind:   string(applied.Descriptor.Kind),
			Value:  applied.Descriptor.Value.String(),
			Locked: true,
		}
	}
	return view
}
