// Package handler содержит HTTP-обработчики API сервиса обработки заказов.
package handler

import (
	"context"
	"encoding/json"
	"net/http"

	"go.uber.org/zap"

	"github.com/mmeshcher/order-fulfillment/internal/metrics"
	"github.com/mmeshcher/order-fulfillment/internal/middleware"
	"github.com/mmeshcher/order-fulfillment/internal/model"
	"github.com/mmeshcher/order-fulfillment/internal/service"
)

// Service определяет контракт бизнес-логики, используемой HTTP-обработчиками.
type Service interface {
	CreateOrder(ctx context.Context, in service.OrderInput) (*model.Order, error)
	GetOrder(ctx context.Context, id string) (*model.Order, error)
	UpdateOrder(ctx context.Context, id string, upd service.OrderUpdate) (*model.Order, error)
	DeleteOrder(ctx context.Context, id string) error
	MarkPaid(ctx context.Context, id string) (*model.Order, error)
	BulkDelete(ctx context.Context, orderIDs []string) ([]service.BulkResult, error)

	ApplyStatus(ctx context.Context, orderID string, upd service.StatusUpdate) (*service.TransitionResult, error)
	BulkUpdateStatus(ctx context.Context, orderIDs []string, upd service.StatusUpdate) ([]service.BulkResult, error)
	ResendConfirmation(ctx context.Context, orderID string) (*service.NotificationOutcome, error)

	ListNotes(ctx context.Context, orderID string, includePrivate bool) ([]model.Note, error)
	AddNote(ctx context.Context, orderID, text string, isPrivate bool, actor string) (*model.Note, error)
	UpdateNote(ctx context.Context, orderID, noteID, text string, isPrivate bool) (*model.Note, error)
	DeleteNote(ctx context.Context, orderID, noteID string) error

	Restock(ctx context.Context, in service.RestockInput) (*model.StockHistoryEntry, error)
	AdjustStock(ctx context.Context, in service.AdjustInput) (*model.StockHistoryEntry, error)
	GetInventory(ctx context.Context, productID string) (*model.InventoryRecord, error)
	StockHistory(ctx context.Context, productID string) ([]model.StockHistoryEntry, error)
	OrderStockHistory(ctx context.Context, orderID string) ([]model.StockHistoryEntry, error)
	SalesCount(ctx context.Context, productID string) (*model.ProductSales, error)

	ListOrders(ctx context.Context, f model.OrderFilter) (*model.OrderPage, error)
	Analytics(ctx context.Context, periodDays int) (*model.OrderAnalytics, error)
	ExportOrders(ctx context.Context, f model.OrderFilter) ([]model.ExportRow, error)
	Tracking(ctx context.Context, orderID string) (*model.TrackingSummary, error)
}

// Handler реализует HTTP-обработчики API сервиса обработки заказов.
type Handler struct {
	service        Service
	logger         *zap.Logger
	authMiddleware *middleware.AuthMiddleware
	metrics        *metrics.Metrics
}

// NewHandler создаёт новый экземпляр обработчика HTTP-запросов.
// Если auth равен nil, запросы не требуют токена и выполняются от имени system.
func NewHandler(s Service, logger *zap.Logger, auth *middleware.AuthMiddleware, m *metrics.Metrics) *Handler {
	return &Handler{
		service:        s,
		logger:         logger,
		authMiddleware: auth,
		metrics:        m,
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func decodeJSON(r *http.Request, v any) error {
	defer r.Body.Close()
	return json.NewDecoder(r.Body).Decode(v)
}

// actor возвращает оператора из контекста запроса. Пустая строка означает system.
func actor(r *http.Request) string {
	operator, _ := middleware.GetOperatorFromContext(r.Context())
	return operator
}

type bulkRequest struct {
	OrderIDs []string          `json:"orderIds"`
	Status   model.OrderStatus `json:"status,omitempty"`
	Notes    string            `json:"notes,omitempty"`
}

type bulkResponse struct {
	Results []service.BulkResult `json:"results"`
}
