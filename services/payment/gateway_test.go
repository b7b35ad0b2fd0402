package main

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/google/uuid"

	"github.com/lodgio/lodgio-platform/shared/models"
	"github.com/lodgio/lodgio-platform/shared/utils"
)

func pendingPayment() *models.Payment {
	return &models.Payment{
		ID:          uuid.New(),
		TenantID:    uuid.New(),
		AmountCents: 12500,
		Currency:    "USD",
		Status:      models.PaymentStatusPending,
	}
}

func TestGatewayClient_Capture(t *testing.T) {
	var gotPath string
	var gotBody captureRequest
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		if err := json.NewDecoder(r.Body).Decode(&gotBody); err != nil {
			t.Errorf("decoding request: %v", err)
		}
		json.NewEncoder(w).Encode(captureResponse{Reference: "ch_123", Status: "succeeded"})
	}))
	defer server.Close()

	client := NewGatewayClient(server.URL)
	payment := pendingPayment()

	ref, err := client.Capture(payment)
	if err != nil {
		t.Fatalf("Capture: %v", err)
	}
	if ref != "ch_123" {
		t.Errorf("reference = %q, want ch_123", ref)
	}
	if gotPath != "/capture" {
		t.Errorf("path = %q, want /capture", gotPath)
	}
	if gotBody.AmountCents != payment.AmountCents || gotBody.TenantID != payment.TenantID.String() {
		t.Errorf("request body = %+v, want payment fields", gotBody)
	}
}

func TestGatewayClient_CaptureErrorStatus(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer server.Close()

	client := NewGatewayClient(server.URL)
	if _, err := client.Capture(pendingPayment()); err == nil {
		t.Fatal("capture against failing gateway must error")
	}
}

func TestGatewayClient_BreakerOpensOnRepeatedFailure(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer server.Close()

	client := NewGatewayClient(server.URL)
	payment := pendingPayment()

	for i := 0; i < 5; i++ {
		if _, err := client.Capture(payment); err == nil {
			t.Fatalf("call %d should fail", i)
		}
	}

	if client.breaker.GetState() != utils.StateOpen {
		t.Fatalf("breaker state = %s, want open after repeated failures", client.breaker.GetState())
	}

	// Subsequent calls fail fast without reaching the gateway.
	if _, err := client.Capture(payment); err != utils.ErrCircuitOpen {
		t.Errorf("want ErrCircuitOpen, got %v", err)
	}
}
