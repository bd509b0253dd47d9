package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"go.uber.org/zap/zaptest"

	"github.com/mmeshcher/order-fulfillment/internal/metrics"
	"github.com/mmeshcher/order-fulfillment/internal/middleware"
	"github.com/mmeshcher/order-fulfillment/internal/model"
	"github.com/mmeshcher/order-fulfillment/internal/service"
)

// stubService реализует только нужные тесту методы, остальные вызовут панику.
type stubService struct {
	Service

	createOrder  func(in service.OrderInput) (*model.Order, error)
	getOrder     func(id string) (*model.Order, error)
	applyStatus  func(id string, upd service.StatusUpdate) (*service.TransitionResult, error)
	bulkStatus   func(ids []string, upd service.StatusUpdate) ([]service.BulkResult, error)
	listOrders   func(f model.OrderFilter) (*model.OrderPage, error)
	exportOrders func(f model.OrderFilter) ([]model.ExportRow, error)
	getInventory func(productID string) (*model.InventoryRecord, error)
	restock      func(in service.RestockInput) (*model.StockHistoryEntry, error)
	adjustStock  func(in service.AdjustInput) (*model.StockHistoryEntry, error)
	resend       func(id string) (*service.NotificationOutcome, error)
	addNote      func(orderID, text string, isPrivate bool, actor string) (*model.Note, error)
	deleteOrder  func(id string) error
}

func (s *stubService) CreateOrder(ctx context.Context, in service.OrderInput) (*model.Order, error) {
	return s.createOrder(in)
}

func (s *stubService) GetOrder(ctx context.Context, id string) (*model.Order, error) {
	return s.getOrder(id)
}

func (s *stubService) ApplyStatus(ctx context.Context, id string, upd service.StatusUpdate) (*service.TransitionResult, error) {
	return s.applyStatus(id, upd)
}

func (s *stubService) BulkUpdateStatus(ctx context.Context, ids []string, upd service.StatusUpdate) ([]service.BulkResult, error) {
	return s.bulkStatus(ids, upd)
}

func (s *stubService) ListOrders(ctx context.Context, f model.OrderFilter) (*model.OrderPage, error) {
	return s.listOrders(f)
}

func (s *stubService) ExportOrders(ctx context.Context, f model.OrderFilter) ([]model.ExportRow, error) {
	return s.exportOrders(f)
}

func (s *stubService) GetInventory(ctx context.Context, productID string) (*model.InventoryRecord, error) {
	return s.getInventory(productID)
}

func (s *stubService) Restock(ctx context.Context, in service.RestockInput) (*model.StockHistoryEntry, error) {
	return s.restock(in)
}

func (s *stubService) AdjustStock(ctx context.Context, in service.AdjustInput) (*model.StockHistoryEntry, error) {
	return s.adjustStock(in)
}

func (s *stubService) ResendConfirmation(ctx context.Context, id string) (*service.NotificationOutcome, error) {
	return s.resend(id)
}

func (s *stubService) AddNote(ctx context.Context, orderID, text string, isPrivate bool, actor string) (*model.Note, error) {
	return s.addNote(orderID, text, isPrivate, actor)
}

func (s *stubService) DeleteOrder(ctx context.Context, id string) error {
	return s.deleteOrder(id)
}

func newTestRouter(t *testing.T, svc Service, auth *middleware.AuthMiddleware) (http.Handler, *metrics.Metrics) {
	t.Helper()

	m := metrics.New()
	h := NewHandler(svc, zaptest.NewLogger(t), auth, m)
	return h.SetupRouter(), m
}

func do(t *testing.T, h http.Handler, method, target, body string, headers ...string) *http.Response {
	t.Helper()

	var reader io.Reader
	if body != "" {
		reader = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, target, reader)
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	for i := 0; i+1 < len(headers); i += 2 {
		req.Header.Set(headers[i], headers[i+1])
	}

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec.Result()
}

func readBody(t *testing.T, res *http.Response) string {
	t.Helper()
	defer res.Body.Close()

	b, err := io.ReadAll(res.Body)
	if err != nil {
		t.Fatalf("read body: %v", err)
	}
	return string(b)
}

func TestCreateOrder(t *testing.T) {
	var got service.OrderInput
	svc := &stubService{
		createOrder: func(in service.OrderInput) (*model.Order, error) {
			got = in
			return &model.Order{ID: "o-1", OrderNumber: "79927398713", OrderStatus: model.OrderStatusPending}, nil
		},
	}
	auth := middleware.NewAuthMiddleware("test-secret")
	r, _ := newTestRouter(t, svc, auth)

	body := `{"items":[{"productId":"P1","sku":"SKU-1","quantity":2,"unitPrice":5}],
		"pricing":{"subtotal":10,"totalPrice":10},
		"customerInfo":{"name":"Jane Roe","email":"jane@example.com"}}`
	res := do(t, r, http.MethodPost, "/api/orders", body, "Authorization", "Bearer "+auth.IssueToken("op-1"))

	if res.StatusCode != http.StatusCreated {
		t.Fatalf("status = %d, want %d", res.StatusCode, http.StatusCreated)
	}
	if ct := res.Header.Get("Content-Type"); ct != "application/json" {
		t.Fatalf("content-type = %q, want application/json", ct)
	}

	var order model.Order
	if err := json.NewDecoder(res.Body).Decode(&order); err != nil {
		t.Fatalf("decode: %v", err)
	}
	res.Body.Close()

	if order.ID != "o-1" {
		t.Fatalf("order id = %q, want o-1", order.ID)
	}
	if got.Actor != "op-1" {
		t.Fatalf("actor = %q, want op-1", got.Actor)
	}
	if len(got.Items) != 1 || got.Items[0].Quantity != 2 {
		t.Fatalf("items = %+v", got.Items)
	}
}

func TestCreateOrder_BadJSON(t *testing.T) {
	r, _ := newTestRouter(t, &stubService{}, nil)

	res := do(t, r, http.MethodPost, "/api/orders", `{"items":`)
	res.Body.Close()

	if res.StatusCode != http.StatusBadRequest {
		t.Fatalf("status = %d, want %d", res.StatusCode, http.StatusBadRequest)
	}
}

func TestErrorMapping(t *testing.T) {
	tests := []struct {
		name       string
		err        error
		wantStatus int
		wantBody   string
	}{
		{name: "not found", err: fmt.Errorf("%w: order x", model.ErrNotFound), wantStatus: http.StatusNotFound, wantBody: "order x"},
		{name: "validation", err: fmt.Errorf("%w: bad", model.ErrValidation), wantStatus: http.StatusBadRequest, wantBody: "bad"},
		{name: "invalid transition", err: model.ErrInvalidTransition, wantStatus: http.StatusConflict},
		{name: "insufficient stock", err: model.ErrInsufficientStock, wantStatus: http.StatusConflict},
		{name: "insufficient reservation", err: model.ErrInsufficientReservation, wantStatus: http.StatusConflict},
		{name: "conflict", err: model.ErrConflict, wantStatus: http.StatusConflict},
		{name: "persistence", err: fmt.Errorf("%w: connection reset", model.ErrPersistence), wantStatus: http.StatusInternalServerError, wantBody: "Internal Server Error"},
		{name: "unknown", err: errors.New("boom"), wantStatus: http.StatusInternalServerError},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc := &stubService{
				getOrder: func(id string) (*model.Order, error) { return nil, tt.err },
			}
			r, _ := newTestRouter(t, svc, nil)

			res := do(t, r, http.MethodGet, "/api/orders/o-1", "")
			body := readBody(t, res)

			if res.StatusCode != tt.wantStatus {
				t.Fatalf("status = %d, want %d", res.StatusCode, tt.wantStatus)
			}
			if !strings.Contains(body, tt.wantBody) {
				t.Fatalf("body %q does not contain %q", body, tt.wantBody)
			}
			if tt.wantStatus == http.StatusInternalServerError && strings.Contains(body, "connection reset") {
				t.Fatalf("internal error leaked: %q", body)
			}
		})
	}
}

func TestStatusRoutes(t *testing.T) {
	tests := []struct {
		name       string
		method     string
		target     string
		body       string
		wantStatus model.OrderStatus
		check      func(t *testing.T, upd service.StatusUpdate)
	}{
		{
			name:       "generic status",
			method:     http.MethodPatch,
			target:     "/api/orders/o-1/status",
			body:       `{"status":"confirmed","notes":"paid by card"}`,
			wantStatus: model.OrderStatusConfirmed,
			check: func(t *testing.T, upd service.StatusUpdate) {
				if upd.Notes != "paid by card" {
					t.Fatalf("notes = %q", upd.Notes)
				}
			},
		},
		{
			name:       "mark shipped without body",
			method:     http.MethodPatch,
			target:     "/api/orders/o-1/mark-shipped",
			wantStatus: model.OrderStatusShipped,
		},
		{
			name:       "mark shipped with tracking",
			method:     http.MethodPatch,
			target:     "/api/orders/o-1/mark-shipped",
			body:       `{"trackingNumber":"TRK-1","shippingProvider":"DHL","status":"refunded"}`,
			wantStatus: model.OrderStatusShipped,
			check: func(t *testing.T, upd service.StatusUpdate) {
				if upd.TrackingNumber != "TRK-1" || upd.ShippingProvider != "DHL" {
					t.Fatalf("shipping = %q/%q", upd.TrackingNumber, upd.ShippingProvider)
				}
			},
		},
		{
			name:       "mark delivered",
			method:     http.MethodPatch,
			target:     "/api/orders/o-1/mark-delivered",
			wantStatus: model.OrderStatusDelivered,
		},
		{
			name:       "fulfill",
			method:     http.MethodPatch,
			target:     "/api/orders/o-1/fulfill",
			wantStatus: model.OrderStatusDelivered,
		},
		{
			name:       "cancel with reason",
			method:     http.MethodPatch,
			target:     "/api/orders/o-1/cancel",
			body:       `{"reason":"customer request"}`,
			wantStatus: model.OrderStatusCanceled,
			check: func(t *testing.T, upd service.StatusUpdate) {
				if upd.Reason != "customer request" {
					t.Fatalf("reason = %q", upd.Reason)
				}
			},
		},
		{
			name:       "refund",
			method:     http.MethodPost,
			target:     "/api/orders/o-1/refund",
			body:       `{"amount":12.5,"reason":"damaged"}`,
			wantStatus: model.OrderStatusRefunded,
			check: func(t *testing.T, upd service.StatusUpdate) {
				if upd.RefundAmount != 12.5 || upd.Reason != "damaged" {
					t.Fatalf("refund = %v/%q", upd.RefundAmount, upd.Reason)
				}
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var (
				gotID  string
				gotUpd service.StatusUpdate
			)
			svc := &stubService{
				applyStatus: func(id string, upd service.StatusUpdate) (*service.TransitionResult, error) {
					gotID, gotUpd = id, upd
					return &service.TransitionResult{Order: &model.Order{ID: id, OrderStatus: upd.Status}}, nil
				},
			}
			r, _ := newTestRouter(t, svc, nil)

			res := do(t, r, tt.method, tt.target, tt.body)
			res.Body.Close()

			if res.StatusCode != http.StatusOK {
				t.Fatalf("status = %d, want %d", res.StatusCode, http.StatusOK)
			}
			if gotID != "o-1" {
				t.Fatalf("order id = %q, want o-1", gotID)
			}
			if gotUpd.Status != tt.wantStatus {
				t.Fatalf("status = %q, want %q", gotUpd.Status, tt.wantStatus)
			}
			if gotUpd.Actor != "" {
				t.Fatalf("actor = %q, want empty without auth", gotUpd.Actor)
			}
			if tt.check != nil {
				tt.check(t, gotUpd)
			}
		})
	}
}

func TestUpdateStatus_NotificationWarning(t *testing.T) {
	svc := &stubService{
		applyStatus: func(id string, upd service.StatusUpdate) (*service.TransitionResult, error) {
			return &service.TransitionResult{
				Order:          &model.Order{ID: id, OrderStatus: model.OrderStatusConfirmed},
				PreviousStatus: model.OrderStatusPending,
				Notification:   &service.NotificationOutcome{Attempted: true, Error: "gateway timeout"},
				Warnings:       []string{"confirmation notification failed: gateway timeout"},
			}, nil
		},
	}
	r, _ := newTestRouter(t, svc, nil)

	res := do(t, r, http.MethodPatch, "/api/orders/o-1/status", `{"status":"confirmed"}`)
	if res.StatusCode != http.StatusOK {
		t.Fatalf("status = %d, want %d", res.StatusCode, http.StatusOK)
	}

	var got service.TransitionResult
	if err := json.NewDecoder(res.Body).Decode(&got); err != nil {
		t.Fatalf("decode: %v", err)
	}
	res.Body.Close()

	if got.Notification == nil || got.Notification.Success {
		t.Fatalf("notification = %+v, want failed outcome", got.Notification)
	}
	if len(got.Warnings) != 1 {
		t.Fatalf("warnings = %v", got.Warnings)
	}
}

func TestBulkUpdateStatus(t *testing.T) {
	svc := &stubService{
		bulkStatus: func(ids []string, upd service.StatusUpdate) ([]service.BulkResult, error) {
			if upd.Status != model.OrderStatusProcessing {
				t.Fatalf("status = %q", upd.Status)
			}
			return []service.BulkResult{
				{OrderID: ids[0], Success: true, Status: upd.Status},
				{OrderID: ids[1], Error: "invalid transition"},
			}, nil
		},
	}
	r, _ := newTestRouter(t, svc, nil)

	res := do(t, r, http.MethodPost, "/api/orders/bulk/status", `{"orderIds":["a","b"],"status":"processing"}`)
	body := readBody(t, res)

	if res.StatusCode != http.StatusOK {
		t.Fatalf("status = %d, want %d", res.StatusCode, http.StatusOK)
	}
	if !strings.Contains(body, `"orderId":"b"`) || !strings.Contains(body, `"success":false`) {
		t.Fatalf("unexpected body %q", body)
	}
}

func TestListOrders_QueryParsing(t *testing.T) {
	var got model.OrderFilter
	svc := &stubService{
		listOrders: func(f model.OrderFilter) (*model.OrderPage, error) {
			got = f
			return &model.OrderPage{Orders: []model.Order{}, Pagination: model.Pagination{Page: f.Page, Limit: f.Limit}}, nil
		},
	}
	r, _ := newTestRouter(t, svc, nil)

	res := do(t, r, http.MethodGet,
		"/api/orders?status=shipped&paymentStatus=paid&search=jane&page=2&limit=5&sortBy=totalPrice&sortOrder=asc&startDate=2026-01-01&endDate=2026-01-31", "")
	res.Body.Close()

	if res.StatusCode != http.StatusOK {
		t.Fatalf("status = %d, want %d", res.StatusCode, http.StatusOK)
	}
	if got.Status != model.OrderStatusShipped || got.PaymentStatus != model.PaymentStatusPaid {
		t.Fatalf("status filter = %q/%q", got.Status, got.PaymentStatus)
	}
	if got.Search != "jane" || got.Page != 2 || got.Limit != 5 || got.SortBy != "totalPrice" || got.SortOrder != "asc" {
		t.Fatalf("filter = %+v", got)
	}
	if got.StartDate == nil || !got.StartDate.Equal(time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)) {
		t.Fatalf("start date = %v", got.StartDate)
	}
	wantEnd := time.Date(2026, 2, 1, 0, 0, 0, 0, time.UTC).Add(-time.Nanosecond)
	if got.EndDate == nil || !got.EndDate.Equal(wantEnd) {
		t.Fatalf("end date = %v, want %v", got.EndDate, wantEnd)
	}

	for _, target := range []string{"/api/orders?page=two", "/api/orders?startDate=yesterday"} {
		res := do(t, r, http.MethodGet, target, "")
		res.Body.Close()
		if res.StatusCode != http.StatusBadRequest {
			t.Fatalf("%s: status = %d, want %d", target, res.StatusCode, http.StatusBadRequest)
		}
	}
}

func TestExportOrders(t *testing.T) {
	created := time.Date(2026, 3, 4, 5, 6, 7, 0, time.UTC)
	svc := &stubService{
		exportOrders: func(f model.OrderFilter) ([]model.ExportRow, error) {
			return []model.ExportRow{{
				OrderNumber:   "79927398713",
				CustomerName:  "Jane Roe",
				CustomerEmail: "jane@example.com",
				TotalAmount:   42,
				OrderStatus:   model.OrderStatusDelivered,
				PaymentStatus: model.PaymentStatusPaid,
				CreatedAt:     created,
				ItemCount:     3,
			}}, nil
		},
	}
	r, _ := newTestRouter(t, svc, nil)

	res := do(t, r, http.MethodGet, "/api/orders/export?format=csv", "")
	body := readBody(t, res)

	if res.StatusCode != http.StatusOK {
		t.Fatalf("status = %d, want %d", res.StatusCode, http.StatusOK)
	}
	if ct := res.Header.Get("Content-Type"); ct != "text/csv" {
		t.Fatalf("content-type = %q, want text/csv", ct)
	}
	want := "79927398713,Jane Roe,jane@example.com,42.00,delivered,paid,2026-03-04T05:06:07Z,3"
	if !strings.Contains(body, want) {
		t.Fatalf("body %q does not contain %q", body, want)
	}

	res = do(t, r, http.MethodGet, "/api/orders/export", "")
	body = readBody(t, res)
	if ct := res.Header.Get("Content-Type"); ct != "application/json" {
		t.Fatalf("content-type = %q, want application/json", ct)
	}
	if !strings.Contains(body, `"itemCount":3`) {
		t.Fatalf("unexpected json export %q", body)
	}

	res = do(t, r, http.MethodGet, "/api/orders/export?format=xml", "")
	res.Body.Close()
	if res.StatusCode != http.StatusBadRequest {
		t.Fatalf("status = %d, want %d", res.StatusCode, http.StatusBadRequest)
	}
}

func TestInventoryRoutes(t *testing.T) {
	var gotRestock service.RestockInput
	svc := &stubService{
		getInventory: func(productID string) (*model.InventoryRecord, error) {
			return &model.InventoryRecord{ProductID: productID, CurrentStock: 10, ReservedStock: 4}, nil
		},
		restock: func(in service.RestockInput) (*model.StockHistoryEntry, error) {
			gotRestock = in
			return &model.StockHistoryEntry{ID: 1, ProductID: in.ProductID, Stock: model.StockSnapshot{PreviousStock: 10, NewStock: 15}}, nil
		},
	}
	r, _ := newTestRouter(t, svc, nil)

	res := do(t, r, http.MethodGet, "/api/inventory/P1", "")
	body := readBody(t, res)
	if res.StatusCode != http.StatusOK {
		t.Fatalf("status = %d, want %d", res.StatusCode, http.StatusOK)
	}
	if !strings.Contains(body, `"availableStock":6`) {
		t.Fatalf("body %q lacks available stock", body)
	}

	res = do(t, r, http.MethodPost, "/api/inventory/P1/restock", `{"sku":"SKU-1","quantity":5,"reference":"PO-7"}`)
	res.Body.Close()
	if res.StatusCode != http.StatusCreated {
		t.Fatalf("status = %d, want %d", res.StatusCode, http.StatusCreated)
	}
	if gotRestock != (service.RestockInput{ProductID: "P1", SKU: "SKU-1", Quantity: 5, Reference: "PO-7"}) {
		t.Fatalf("restock input = %+v", gotRestock)
	}
}

func TestAdjustStock(t *testing.T) {
	var got service.AdjustInput
	svc := &stubService{
		adjustStock: func(in service.AdjustInput) (*model.StockHistoryEntry, error) {
			got = in
			if in.Delta < -10 {
				return nil, fmt.Errorf("%w: adjust product %s", model.ErrInsufficientStock, in.ProductID)
			}
			return &model.StockHistoryEntry{ID: 2, ProductID: in.ProductID, Stock: model.StockSnapshot{PreviousStock: 10, NewStock: 8}}, nil
		},
	}
	r, _ := newTestRouter(t, svc, nil)

	res := do(t, r, http.MethodPost, "/api/inventory/P1/adjust", `{"delta":-2,"reason":"damage","reference":"INV-3"}`)
	res.Body.Close()
	if res.StatusCode != http.StatusCreated {
		t.Fatalf("status = %d, want %d", res.StatusCode, http.StatusCreated)
	}
	want := service.AdjustInput{ProductID: "P1", Delta: -2, Reason: model.ReasonDamage, Reference: "INV-3"}
	if got != want {
		t.Fatalf("adjust input = %+v, want %+v", got, want)
	}

	res = do(t, r, http.MethodPost, "/api/inventory/P1/adjust", `{"delta":-50}`)
	res.Body.Close()
	if res.StatusCode != http.StatusConflict {
		t.Fatalf("status = %d, want %d", res.StatusCode, http.StatusConflict)
	}

	res = do(t, r, http.MethodPost, "/api/inventory/P1/adjust", `{"delta":`)
	res.Body.Close()
	if res.StatusCode != http.StatusBadRequest {
		t.Fatalf("status = %d, want %d", res.StatusCode, http.StatusBadRequest)
	}
}

func TestSendConfirmation(t *testing.T) {
	tests := []struct {
		name       string
		outcome    *service.NotificationOutcome
		err        error
		wantStatus int
	}{
		{name: "sent", outcome: &service.NotificationOutcome{Attempted: true, Success: true}, wantStatus: http.StatusOK},
		{name: "gateway failed", outcome: &service.NotificationOutcome{Attempted: true, Error: "timeout"}, wantStatus: http.StatusBadGateway},
		{name: "not confirmed", err: fmt.Errorf("%w: order is pending", model.ErrConflict), wantStatus: http.StatusConflict},
		{name: "malformed id", err: fmt.Errorf("%w: malformed order id", model.ErrValidation), wantStatus: http.StatusBadRequest},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var gotID string
			svc := &stubService{
				resend: func(id string) (*service.NotificationOutcome, error) {
					gotID = id
					return tt.outcome, tt.err
				},
			}
			r, _ := newTestRouter(t, svc, nil)

			res := do(t, r, http.MethodPost, "/api/orders/o-1/send-confirmation", "")
			res.Body.Close()
			if res.StatusCode != tt.wantStatus {
				t.Fatalf("status = %d, want %d", res.StatusCode, tt.wantStatus)
			}
			if gotID != "o-1" {
				t.Fatalf("order id = %q", gotID)
			}
		})
	}
}

func TestAuthRequired(t *testing.T) {
	auth := middleware.NewAuthMiddleware("test-secret")
	svc := &stubService{
		addNote: func(orderID, text string, isPrivate bool, actor string) (*model.Note, error) {
			return &model.Note{ID: "n-1", Text: text, IsPrivate: isPrivate, CreatedBy: actor}, nil
		},
	}
	r, _ := newTestRouter(t, svc, auth)

	res := do(t, r, http.MethodPost, "/api/orders/o-1/notes", `{"note":"call first"}`)
	res.Body.Close()
	if res.StatusCode != http.StatusUnauthorized {
		t.Fatalf("status = %d, want %d", res.StatusCode, http.StatusUnauthorized)
	}

	res = do(t, r, http.MethodPost, "/api/orders/o-1/notes", `{"note":"call first","isPrivate":true}`,
		"Authorization", "Bearer "+auth.IssueToken("op-9"))
	body := readBody(t, res)
	if res.StatusCode != http.StatusCreated {
		t.Fatalf("status = %d, want %d", res.StatusCode, http.StatusCreated)
	}
	if !strings.Contains(body, `"createdBy":"op-9"`) {
		t.Fatalf("body %q lacks operator", body)
	}

	res = do(t, r, http.MethodGet, "/metrics", "")
	res.Body.Close()
	if res.StatusCode != http.StatusOK {
		t.Fatalf("metrics status = %d, want %d", res.StatusCode, http.StatusOK)
	}
}

func TestRequestMetricsUseRoutePattern(t *testing.T) {
	svc := &stubService{
		deleteOrder: func(id string) error { return nil },
	}
	r, _ := newTestRouter(t, svc, nil)

	res := do(t, r, http.MethodDelete, "/api/orders/o-42", "")
	res.Body.Close()
	if res.StatusCode != http.StatusNoContent {
		t.Fatalf("status = %d, want %d", res.StatusCode, http.StatusNoContent)
	}

	body := readBody(t, do(t, r, http.MethodGet, "/metrics", ""))
	want := `fulfillment_http_request_duration_seconds_count{method="DELETE",route="/api/orders/{id}`
	if !strings.Contains(body, want) {
		t.Fatalf("metrics output lacks %q", want)
	}
	if strings.Contains(body, "o-42") {
		t.Fatalf("metrics output contains raw order id")
	}
}

func TestNotFoundAndMethodNotAllowed(t *testing.T) {
	r, _ := newTestRouter(t, &stubService{}, nil)

	res := do(t, r, http.MethodGet, "/api/unknown", "")
	res.Body.Close()
	if res.StatusCode != http.StatusNotFound {
		t.Fatalf("status = %d, want %d", res.StatusCode, http.StatusNotFound)
	}

	res = do(t, r, http.MethodPatch, "/api/orders/o-1/tracking", "")
	res.Body.Close()
	if res.StatusCode != http.StatusMethodNotAllowed {
		t.Fatalf("status = %d, want %d", res.StatusCode, http.StatusMethodNotAllowed)
	}
}

func TestGzipResponse(t *testing.T) {
	svc := &stubService{
		getOrder: func(id string) (*model.Order, error) {
			return &model.Order{ID: id, OrderStatus: model.OrderStatusPending}, nil
		},
	}
	r, _ := newTestRouter(t, svc, nil)

	res := do(t, r, http.MethodGet, "/api/orders/o-1", "", "Accept-Encoding", "gzip")
	defer res.Body.Close()

	if ce := res.Header.Get("Content-Encoding"); ce != "gzip" {
		t.Fatalf("content-encoding = %q, want gzip", ce)
	}
	if _, err := io.Copy(&bytes.Buffer{}, res.Body); err != nil {
		t.Fatalf("read body: %v", err)
	}
}
