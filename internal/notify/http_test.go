package notify

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"
)

func TestSendOrderConfirmation_OK(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			t.Fatalf("method = %s, want POST", r.Method)
		}
		if r.URL.Path != "/api/notifications/order-confirmation" {
			t.Fatalf("path = %s, want /api/notifications/order-confirmation", r.URL.Path)
		}

		var msg OrderConfirmation
		if err := json.NewDecoder(r.Body).Decode(&msg); err != nil {
			t.Fatalf("decode: %v", err)
		}
		if msg.OrderNumber != "79927398713" {
			t.Fatalf("order number = %q", msg.OrderNumber)
		}

		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(Result{Success: true})
	}))
	defer ts.Close()

	gw := NewHTTPGateway(ts.URL + "/")

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()

	res, err := gw.SendOrderConfirmation(ctx, OrderConfirmation{OrderNumber: "79927398713"})
	if err != nil {
		t.Fatalf("SendOrderConfirmation error: %v", err)
	}
	if !res.Success {
		t.Fatalf("expected success, got %+v", res)
	}
}

func TestSendOrderConfirmation_EmptyBody(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusAccepted)
	}))
	defer ts.Close()

	res, err := NewHTTPGateway(ts.URL).SendOrderConfirmation(context.Background(), OrderConfirmation{})
	if err != nil {
		t.Fatalf("SendOrderConfirmation error: %v", err)
	}
	if !res.Success {
		t.Fatalf("expected success for empty 202 response")
	}
}

func TestSendOrderConfirmation_Rejected(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_ = json.NewEncoder(w).Encode(Result{Success: false, Error: "mailbox unavailable"})
	}))
	defer ts.Close()

	res, err := NewHTTPGateway(ts.URL).SendOrderConfirmation(context.Background(), OrderConfirmation{})
	if err != nil {
		t.Fatalf("SendOrderConfirmation error: %v", err)
	}
	if res.Success || res.Error != "mailbox unavailable" {
		t.Fatalf("unexpected result: %+v", res)
	}
}

func TestSendOrderConfirmation_TooManyRequests(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Retry-After", "5")
		w.WriteHeader(http.StatusTooManyRequests)
	}))
	defer ts.Close()

	res, err := NewHTTPGateway(ts.URL).SendOrderConfirmation(context.Background(), OrderConfirmation{})
	if err != nil {
		t.Fatalf("SendOrderConfirmation error: %v", err)
	}
	if res.Success || !strings.Contains(res.Error, "5") {
		t.Fatalf("unexpected result: %+v", res)
	}
}

func TestSendOrderConfirmation_ServerError(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer ts.Close()

	_, err := NewHTTPGateway(ts.URL).SendOrderConfirmation(context.Background(), OrderConfirmation{})
	if err == nil {
		t.Fatalf("expected error for 500 response")
	}
}

func TestSendOrderConfirmation_NotConfigured(t *testing.T) {
	var gw *HTTPGateway
	if _, err := gw.SendOrderConfirmation(context.Background(), OrderConfirmation{}); err == nil {
		t.Fatalf("expected error for nil gateway")
	}
	if _, err := NewHTTPGateway("").SendOrderConfirmation(context.Background(), OrderConfirmation{}); err == nil {
		t.Fatalf("expected error for empty address")
	}
}

func TestNewHTTPGatewayAddsScheme(t *testing.T) {
	gw := NewHTTPGateway("mailer:8080/")
	if gw.baseURL != "http://mailer:8080" {
		t.Fatalf("baseURL = %q", gw.baseURL)
	}
}
