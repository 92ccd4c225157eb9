package mercadopago

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"
)

const defaultBaseURL = "https://api.mercadopago.com"

// requestTimeout bounds every call to MercadoPago so a slow enrichment fetch
// cannot hold a webhook request open indefinitely.
const requestTimeout = 10 * time.Second

// AutoRecurring describes the recurrence terms of a preapproval.
type AutoRecurring struct {
	Frequency         int     `json:"frequency"`
	FrequencyType     string  `json:"frequency_type"`
	TransactionAmount float64 `json:"transaction_amount"`
	CurrencyID        string  `json:"currency_id"`
}

// Preapproval is MercadoPago's authoritative subscription record.
type Preapproval struct {
	ID                string         `json:"id"`
	Status            string         `json:"status"`
	Reason            string         `json:"reason"`
	PayerEmail        string         `json:"payer_email"`
	ExternalReference string         `json:"external_reference"`
	BackURL           string         `json:"back_url"`
	InitPoint         string         `json:"init_point"`
	CollectorID       int64          `json:"collector_id"`
	ApplicationID     int64          `json:"application_id"`
	AutoRecurring     *AutoRecurring `json:"auto_recurring"`
}

// PreapprovalRequest is the body of POST /preapproval.
type PreapprovalRequest struct {
	Reason            string         `json:"reason"`
	BackURL           string         `json:"back_url"`
	PayerEmail        string         `json:"payer_email"`
	ExternalReference string         `json:"external_reference"`
	Status            string         `json:"status,omitempty"`
	AutoRecurring     *AutoRecurring `json:"auto_recurring"`
}

// Payment is MercadoPago's record of a single charge.
type Payment struct {
	ID                int64   `json:"id"`
	Status            string  `json:"status"`
	TransactionAmount float64 `json:"transaction_amount"`
	CurrencyID        string  `json:"currency_id"`
	PaymentMethodID   string  `json:"payment_method_id"`
	PaymentTypeID     string  `json:"payment_type_id"`
	ExternalReference string  `json:"external_reference"`
}

// Client is a bearer-token client for the MercadoPago REST API. Construct it
// once and pass it to the handlers that need it.
type Client struct {
	accessToken string
	baseURL     string
	httpClient  *http.Client
}

func NewClient(accessToken string) *Client {
	return &Client{
		accessToken: accessToken,
		baseURL:     defaultBaseURL,
		httpClient:  &http.Client{Timeout: requestTimeout},
	}
}

// NewClientWithBaseURL targets a non-default API host (used by tests).
func NewClientWithBaseURL(accessToken, baseURL string) *Client {
	c := NewClient(accessToken)
	c.baseURL = baseURL
	return c
}

// GetPreapproval fetches a preapproval by id, used to enrich webhook events
// that arrive without payer or reference fields.
func (c *Client) GetPreapproval(ctx context.Context, id string) (*Preapproval, error) {
	var preapproval Preapproval
	if err := c.do(ctx, http.MethodGet, "/preapproval/"+id, nil, &preapproval); err != nil {
		return nil, err
	}
	return &preapproval, nil
}

// CreatePreapproval starts the checkout flow; the returned InitPoint is the
// URL the payer is sent to.
func (c *Client) CreatePreapproval(ctx context.Context, req PreapprovalRequest) (*Preapproval, error) {
	var preapproval Preapproval
	if err := c.do(ctx, http.MethodPost, "/preapproval", req, &preapproval); err != nil {
		return nil, err
	}
	return &preapproval, nil
}

// CancelPreapproval asks MercadoPago to stop a recurring subscription.
func (c *Client) CancelPreapproval(ctx context.Context, id string) (*Preapproval, error) {
	body := map[string]string{"status": "cancelled"}
	var preapproval Preapproval
	if err := c.do(ctx, http.MethodPut, "/preapproval/"+id, body, &preapproval); err != nil {
		return nil, err
	}
	return &preapproval, nil
}

// GetPayment fetches a payment by id.
func (c *Client) GetPayment(ctx context.Context, id string) (*Payment, error) {
	var payment Payment
	if err := c.do(ctx, http.MethodGet, "/v1/payments/"+id, nil, &payment); err != nil {
		return nil, err
	}
	return &payment, nil
}

func (c *Client) do(ctx context.Context, method, path string, body interface{}, out interface{}) error {
	var reader io.Reader
	if body != nil {
		encoded, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("encoding request body: %w", err)
		}
		reader = bytes.NewReader(encoded)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return fmt.Errorf("building request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+c.accessToken)
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("calling mercadopago: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		detail, _ := io.ReadAll(io.LimitReader(resp.Body, 2048))
		return fmt.Errorf("mercadopago %s %s: status %d: %s", method, path, resp.StatusCode, string(detail))
	}

	if out == nil {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decoding mercadopago response: %w", err)
	}
	return nil
}
