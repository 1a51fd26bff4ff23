package payment

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/sony/gobreaker"

	"github.com/Skotchmaster/storefront/pkg/breaker"
)

var ErrUnavailable = errors.New("payment gateway unavailable")

type IntentionRequest struct {
	OrderID  uuid.UUID       `json:"order_id"`
	Amount   decimal.Decimal `json:"amount"`
	Currency string          `json:"currency"`
}

type Intention struct {
	Reference   string `json:"reference"`
	CheckoutURL string `json:"checkout_url"`
}

type Client struct {
	baseURL    string
	apiKey     string
	returnURL  string
	httpClient *http.Client
	cb         *gobreaker.CircuitBreaker
}

func NewClient(baseURL, apiKey, returnURL string) *Client {
	return &Client{
		baseURL:   strings.TrimRight(baseURL, "/"),
		apiKey:    apiKey,
		returnURL: returnURL,
		httpClient: &http.Client{
			Timeout: 5 * time.Second,
			Transport: &http.Transport{
				Proxy: http.ProxyFromEnvironment,
				DialContext: (&net.Dialer{
					Timeout:   3 * time.Second,
					KeepAlive: 60 * time.Second,
				}).DialContext,
				MaxIdleConns:        50,
				MaxIdleConnsPerHost: 10,
				IdleConnTimeout:     90 * time.Second,
				TLSHandshakeTimeout: 5 * time.Second,
			},
		},
		cb: breaker.New("payment-gateway", 30*time.Second),
	}
}

type intentionBody struct {
	OrderID   uuid.UUID `json:"order_id"`
	Amount    string    `json:"amount"`
	Currency  string    `json:"currency"`
	ReturnURL string    `json:"return_url,omitempty"`
}

// CreateIntention asks the gateway for a checkout session keyed by order id.
// Every failure, including an open breaker, wraps ErrUnavailable.
func (c *Client) CreateIntention(ctx context.Context, req IntentionRequest) (*Intention, error) {
	res, err := breaker.ExecuteWithBreaker(c.cb, func() (*Intention, error) {
		return c.createIntention(ctx, req)
	})
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrUnavailable, err)
	}
	return res, nil
}

func (c *Client) createIntention(ctx context.Context, req IntentionRequest) (*Intention, error) {
	body, err := json.Marshal(intentionBody{
		OrderID:   req.OrderID,
		Amount:    req.Amount.StringFixed(2),
		Currency:  req.Currency,
		ReturnURL: c.returnURL,
	})
	if err != nil {
		return nil, fmt.Errorf("marshal intention: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/intentions", bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")
	if c.apiKey != "" {
		httpReq.Header.Set("Authorization", "Bearer "+c.apiKey)
	}
	httpReq.Header.Set("Idempotency-Key", req.OrderID.String())

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("do request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK && resp.StatusCode != http.StatusCreated {
		return nil, fmt.Errorf("gateway responded with status: %d", resp.StatusCode)
	}

	var out Intention
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return nil, fmt.Errorf("decode response: %w", err)
	}
	if out.CheckoutURL == "" {
		return nil, errors.New("gateway returned empty checkout_url")
	}
	return &out, nil
}
