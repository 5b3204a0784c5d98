package commerce

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"

	"github.com/stagepass/stagepass-backend/pkg/config"
	pkgerrors "github.com/stagepass/stagepass-backend/pkg/errors"
	"github.com/stagepass/stagepass-backend/pkg/logger"
)

// Client talks to the remote commerce API. The engine consumes three
// capabilities and never re-implements them: seat hold release, promo
// validation and checkout submission.
type Client struct {
	baseURL    *url.URL
	httpClient *http.Client
	logg       *logger.Logger
}

// New builds a commerce client from configuration.
func New(cfg config.CommerceConfig, logg *logger.Logger) (*Client, error) {
	if strings.TrimSpace(cfg.BaseURL) == "" {
		return nil, fmt.Errorf("commerce base url required")
	}
	base, err := url.Parse(cfg.BaseURL)
	if err != nil {
		return nil, fmt.Errorf("parsing commerce base url: %w", err)
	}
	if logg == nil {
		return nil, fmt.Errorf("logger required")
	}
	return &Client{
		baseURL:    base,
		httpClient: &http.Client{Timeout: cfg.Timeout},
		logg:       logg,
	}, nil
}

type seatReleasePayload struct {
	SeatingContextID string   `json:"seatingContextId"`
	SeatIDs          []string `json:"seatIds"`
}

// ReleaseSeats asks the inventory service to drop the hold on the given seats.
// The endpoint is idempotent; repeating a release for the same ids is safe.
func (c *Client) ReleaseSeats(ctx context.Context, seatingContextID string, seatIDs []string) error {
	if seatingContextID == "" || len(seatIDs) == 0 {
		return pkgerrors.New(pkgerrors.CodeValidation, "seating context and seat ids are required")
	}
	payload := seatReleasePayload{SeatingContextID: seatingContextID, SeatIDs: seatIDs}
	return c.do(ctx, http.MethodDelete, "/cart/seats", payload, nil)
}

type promoPayload struct {
	Code string `json:"code"`
}

// ValidatePromo submits a normalized promo code for validation.
func (c *Client) ValidatePromo(ctx context.Context, code string) (*PromoValidation, error) {
	if code == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "promo code is required")
	}
	var result PromoValidation
	if err := c.do(ctx, http.MethodPost, "/cart/promo", promoPayload{Code: code}, &result); err != nil {
		return nil, err
	}
	return &result, nil
}

// SubmitOrder posts the order for fulfilment and returns the collaborator's
// confirmation, including its authoritative total.
func (c *Client) SubmitOrder(ctx context.Context, submission OrderSubmission) (*OrderConfirmation, error) {
	if len(submission.Lines) == 0 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "order submission requires at least one line")
	}
	var result OrderConfirmation
	if err := c.do(ctx, http.MethodPost, "/checkout", submission, &result); err != nil {
		return nil, err
	}
	return &result, nil
}

type errorEnvelope struct {
	Message string `json:"message"`
	Error   string `json:"error"`
}

func (c *Client) do(ctx context.Context, method, path string, body any, dest any) error {
	var reader io.Reader
	if body != nil {
		encoded, err := json.Marshal(body)
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "encode commerce request")
		}
		reader = bytes.NewReader(encoded)
	}

	endpoint := c.baseURL.JoinPath(path).String()
	req, err := http.NewRequestWithContext(ctx, method, endpoint, reader)
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "build commerce request")
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, fmt.Sprintf("%s %s", method, path))
	}
	defer func() {
		io.Copy(io.Discard, resp.Body)
		resp.Body.Close()
	}()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return c.errorFromResponse(resp, method, path)
	}

	if dest == nil {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(dest); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "decode commerce response")
	}
	return nil
}

func (c *Client) errorFromResponse(resp *http.Response, method, path string) error {
	var envelope errorEnvelope
	message := ""
	if err := json.NewDecoder(resp.Body).Decode(&envelope); err == nil {
		if envelope.Message != "" {
			message = envelope.Message
		} else if envelope.Error != "" {
			message = envelope.Error
		}
	}
	if message == "" {
		message = fmt.Sprintf("%s %s returned status %d", method, path, resp.StatusCode)
	}
	return pkgerrors.New(pkgerrors.CodeDependency, message).
		WithDetails(map[string]any{"status": resp.StatusCode})
}
