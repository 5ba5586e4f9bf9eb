// Package carrier provides the client for the external carrier aggregator
// that executes number ports. The aggregator's wire protocol to the losing
// carrier is opaque to us; this client only submits port orders.
package carrier

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/sony/gobreaker/v2"

	"github.com/numport/numport/internal/porting"
)

// Predefined client errors.
var (
	// ErrCircuitOpen is returned when the aggregator circuit breaker is open.
	ErrCircuitOpen = errors.New("carrier gateway circuit breaker is open")

	// ErrRejected is returned when the aggregator refuses a port order.
	ErrRejected = errors.New("carrier gateway rejected port order")
)

// ClientConfig holds configuration for the carrier gateway client.
type ClientConfig struct {
	// BaseURL is the aggregator API base URL.
	BaseURL string

	// APIKey authenticates against the aggregator.
	APIKey string

	// Timeout is the per-request timeout (default 10s).
	Timeout time.Duration

	// MaxRetries is the maximum retry attempts on transient failures
	// (default 3).
	MaxRetries uint64
}

// Client submits port orders to the carrier aggregator. Transient failures
// (network errors, 5xx) are retried with exponential backoff; sustained
// failure opens a circuit breaker so a degraded aggregator does not stall
// approval handling.
type Client struct {
	baseURL    string
	apiKey     string
	httpClient *http.Client
	breaker    *gobreaker.CircuitBreaker[*http.Response]
	maxRetries uint64
}

// NewClient creates a new carrier gateway client.
func NewClient(cfg ClientConfig) *Client {
	timeout := cfg.Timeout
	if timeout == 0 {
		timeout = 10 * time.Second
	}
	maxRetries := cfg.MaxRetries
	if maxRetries == 0 {
		maxRetries = 3
	}

	breaker := gobreaker.NewCircuitBreaker[*http.Response](gobreaker.Settings{
		Name:    "carrier-gateway",
		Timeout: 30 * time.Second,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= 5
		},
	})

	return &Client{
		baseURL:    strings.TrimSuffix(cfg.BaseURL, "/"),
		apiKey:     cfg.APIKey,
		httpClient: &http.Client{Timeout: timeout},
		breaker:    breaker,
		maxRetries: maxRetries,
	}
}

// portOrder is the aggregator's port submission payload.
type portOrder struct {
	PhoneNumber    string `json:"phone_number"`
	LosingCarrier  string `json:"losing_carrier"`
	AccountNumber  string `json:"account_number"`
	PIN            string `json:"pin"`
	AuthorizedName string `json:"authorized_name"`
	Street         string `json:"street"`
	City           string `json:"city"`
	State          string `json:"state"`
	ZipCode        string `json:"zip_code"`
	Country        string `json:"country"`
	Reference      string `json:"reference"`
}

// InitiatePort submits the port order for an approved request.
func (c *Client) InitiatePort(ctx context.Context, req *porting.Request) error {
	order := portOrder{
		PhoneNumber:    req.PhoneNumber,
		LosingCarrier:  req.CurrentCarrier,
		AccountNumber:  req.AccountNumber,
		PIN:            req.PIN,
		AuthorizedName: req.AuthorizedName,
		Street:         req.BillingAddress.Street,
		City:           req.BillingAddress.City,
		State:          req.BillingAddress.State,
		ZipCode:        req.BillingAddress.ZipCode,
		Country:        req.BillingAddress.Country,
		Reference:      req.ID,
	}

	body, err := json.Marshal(order)
	if err != nil {
		return fmt.Errorf("encoding port order: %w", err)
	}

	bo := backoff.NewExponentialBackOff()
	bo.InitialInterval = 200 * time.Millisecond
	bo.MaxInterval = 5 * time.Second
	bo.MaxElapsedTime = 0

	operation := func() error {
		resp, err := c.breaker.Execute(func() (*http.Response, error) {
			httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost,
				c.baseURL+"/v1/ports", bytes.NewReader(body))
			if err != nil {
				return nil, err
			}
			httpReq.Header.Set("Content-Type", "application/json")
			httpReq.Header.Set("Authorization", "Bearer "+c.apiKey)

			resp, err := c.httpClient.Do(httpReq)
			if err != nil {
				return nil, err
			}
			defer resp.Body.Close()

			// 5xx counts as a breaker failure and is retryable.
			if resp.StatusCode >= 500 {
				return nil, fmt.Errorf("carrier gateway returned %d", resp.StatusCode)
			}
			return resp, nil
		})
		if err != nil {
			if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
				return backoff.Permanent(ErrCircuitOpen)
			}
			return err
		}

		// 4xx means the order itself is bad; retrying will not help.
		if resp.StatusCode >= 400 {
			return backoff.Permanent(fmt.Errorf("%w: status %d", ErrRejected, resp.StatusCode))
		}
		return nil
	}

	retries := backoff.WithMaxRetries(bo, c.maxRetries)
	return backoff.Retry(operation, backoff.WithContext(retries, ctx))
}

// State returns the circuit breaker state, for health reporting.
func (c *Client) State() gobreaker.State {
	return c.breaker.State()
}

// Ensure Client implements the engine's gateway interface.
var _ porting.CarrierGateway = (*Client)(nil)
