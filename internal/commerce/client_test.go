package commerce

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stagepass/stagepass-backend/pkg/config"
	pkgerrors "github.com/stagepass/stagepass-backend/pkg/errors"
	"github.com/stagepass/stagepass-backend/pkg/logger"
)

func newTestClient(t *testing.T, baseURL string) *Client {
	t.Helper()
	client, err := New(
		config.CommerceConfig{BaseURL: baseURL, Timeout: 5 * time.Second},
		logger.New(logger.Options{ServiceName: "commerce-test", Output: io.Discard}),
	)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	return client
}

func TestReleaseSeatsSendsDelete(t *testing.T) {
	t.Parallel()

	var gotMethod, gotPath string
	var gotPayload seatReleasePayload
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotMethod = r.Method
		gotPath = r.URL.Path
		if err := json.NewDecoder(r.Body).Decode(&gotPayload); err != nil {
			t.Errorf("decode payload: %v", err)
		}
		w.WriteHeader(http.StatusNoContent)
	}))
	defer server.Close()

	client := newTestClient(t, server.URL)
	err := client.ReleaseSeats(context.Background(), "venue-a", []string{"A1", "A2"})
	if err != nil {
		t.Fatalf("ReleaseSeats: %v", err)
	}
	if gotMethod != http.MethodDelete || gotPath != "/cart/seats" {
		t.Fatalf("request = %s %s", gotMethod, gotPath)
	}
	if gotPayload.SeatingContextID != "venue-a" || len(gotPayload.SeatIDs) != 2 {
		t.Fatalf("payload = %+v", gotPayload)
	}
}

func TestReleaseSeatsValidatesInput(t *testing.T) {
	t.Parallel()

	client := newTestClient(t, "http://commerce.invalid")
	err := client.ReleaseSeats(context.Background(), "", []string{"A1"})
	coded := pkgerrors.As(err)
	if coded == nil || coded.Code() != pkgerrors.CodeValidation {
		t.Fatalf("error = %v, want %s", err, pkgerrors.CodeValidation)
	}
}

func TestValidatePromoDecodesVerdict(t *testing.T) {
	t.Parallel()

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost || r.URL.Path != "/cart/promo" {
			t.Errorf("request = %s %s", r.Method, r.URL.Path)
		}
		json.NewEncoder(w).Encode(PromoValidation{
			Valid: true,
			Type:  "percentage",
			Value: decimal.NewFromInt(10),
		})
	}))
	defer server.Close()

	client := newTestClient(t, server.URL)
	validation, err := client.ValidatePromo(context.Background(), "LAUNCH10")
	if err != nil {
		t.Fatalf("ValidatePromo: %v", err)
	}
	if !validation.Valid || validation.Type != "percentage" {
		t.Fatalf("validation = %+v", validation)
	}
}

func TestSubmitOrderReturnsConfirmation(t *testing.T) {
	t.Parallel()

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/checkout" {
			t.Errorf("path = %s", r.URL.Path)
		}
		var submission OrderSubmission
		if err := json.NewDecoder(r.Body).Decode(&submission); err != nil {
			t.Errorf("decode submission: %v", err)
		}
		json.NewEncoder(w).Encode(OrderConfirmation{
			OrderID:         "ORD-9001",
			PaymentRequired: true,
			PaymentURL:      "https://pay.example.com/ORD-9001",
			Total:           submission.ClientTotal,
		})
	}))
	defer server.Close()

	client := newTestClient(t, server.URL)
	confirmation, err := client.SubmitOrder(context.Background(), OrderSubmission{
		CartSessionID: uuid.New(),
		Lines:         []OrderLine{{EventID: uuid.New(), TicketTypeID: uuid.New(), Quantity: 1, UnitBasePrice: decimal.NewFromInt(80)}},
		PaymentMethod: "card",
		ClientTotal:   decimal.NewFromInt(80),
	})
	if err != nil {
		t.Fatalf("SubmitOrder: %v", err)
	}
	if confirmation.OrderID != "ORD-9001" || !confirmation.Total.Equal(decimal.NewFromInt(80)) {
		t.Fatalf("confirmation = %+v", confirmation)
	}
}

func TestErrorResponsesSurfaceServiceMessage(t *testing.T) {
	t.Parallel()

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
		json.NewEncoder(w).Encode(map[string]string{"message": "inventory backend offline"})
	}))
	defer server.Close()

	client := newTestClient(t, server.URL)
	err := client.ReleaseSeats(context.Background(), "venue-a", []string{"A1"})
	coded := pkgerrors.As(err)
	if coded == nil || coded.Code() != pkgerrors.CodeDependency {
		t.Fatalf("error = %v, want %s", err, pkgerrors.CodeDependency)
	}
	if coded.Message() != "inventory backend offline" {
		t.Fatalf("message = %q", coded.Message())
	}
}
