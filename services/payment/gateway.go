package main

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/lodgio/lodgio-platform/shared/models"
	"github.com/lodgio/lodgio-platform/shared/utils"
)

// GatewayClient talks to the external payment gateway. Calls go through a
// circuit breaker so a gateway outage fails fast instead of tying up
// request handlers.
type GatewayClient struct {
	endpoint   string
	httpClient *http.Client
	breaker    *utils.CircuitBreaker
}

// NewGatewayClient creates a payment gateway client
func NewGatewayClient(endpoint string) *GatewayClient {
	return &GatewayClient{
		endpoint: endpoint,
		httpClient: &http.Client{
			Timeout: 30 * time.Second,
		},
		breaker: utils.NewCircuitBreaker("payment-gateway", 5, 30*time.Second),
	}
}

// captureRequest is the gateway wire format for a capture
type captureRequest struct {
	PaymentID   string `json:"payment_id"`
	TenantID    string `json:"tenant_id"`
	AmountCents int64  `json:"amount_cents"`
	Currency    string `json:"currency"`
}

// captureResponse is the gateway wire format for a capture result
type captureResponse struct {
	Reference string `json:"reference"`
	Status    string `json:"status"`
}

// Capture charges the guest's card for the given payment and returns the
// gateway reference.
func (g *GatewayClient) Capture(payment *models.Payment) (string, error) {
	var ref string
	err := g.breaker.Call(func() error {
		var callErr error
		ref, callErr = g.post("/capture", payment)
		return callErr
	})
	return ref, err
}

// Refund returns a captured amount to the guest
func (g *GatewayClient) Refund(payment *models.Payment) (string, error) {
	var ref string
	err := g.breaker.Call(func() error {
		var callErr error
		ref, callErr = g.post("/refund", payment)
		return callErr
	})
	return ref, err
}

// post sends one gateway call and decodes the reference
func (g *GatewayClient) post(path string, payment *models.Payment) (string, error) {
	body, err := json.Marshal(captureRequest{
		PaymentID:   payment.ID.String(),
		TenantID:    payment.TenantID.String(),
		AmountCents: payment.AmountCents,
		Currency:    payment.Currency,
	})
	if err != nil {
		return "", fmt.Errorf("failed to marshal gateway request: %w", err)
	}

	req, err := http.NewRequest(http.MethodPost, g.endpoint+path, bytes.NewBuffer(body))
	if err != nil {
		return "", fmt.Errorf("failed to create gateway request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("X-Tenant-ID", payment.TenantID.String())

	resp, err := g.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("gateway request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return "", fmt.Errorf("gateway returned status %d", resp.StatusCode)
	}

	var result captureResponse
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return "", fmt.Errorf("failed to decode gateway response: %w", err)
	}

	return result.Reference, nil
}
