package handler

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/mmeshcher/order-fulfillment/internal/model"
	"github.com/mmeshcher/order-fulfillment/internal/service"
)

type restockRequest struct {
	SKU       string `json:"sku"`
	Quantity  int64  `json:"quantity"`
	Reference string `json:"reference"`
}

type adjustRequest struct {
	SKU       string                  `json:"sku"`
	Delta     int64                   `json:"delta"`
	Reason    model.TransactionReason `json:"reason"`
	Reference string                  `json:"reference"`
}

type inventoryResponse struct {
	ProductID      string    `json:"productId"`
	CurrentStock   int64     `json:"currentStock"`
	ReservedStock  int64     `json:"reservedStock"`
	AvailableStock int64     `json:"availableStock"`
	UpdatedAt      time.Time `json:"updatedAt"`
}

func newInventoryResponse(rec *model.InventoryRecord) inventoryResponse {
	return inventoryResponse{
		ProductID:      rec.ProductID,
		CurrentStock:   rec.CurrentStock,
		ReservedStock:  rec.ReservedStock,
		AvailableStock: rec.Available(),
		UpdatedAt:      rec.UpdatedAt,
	}
}

// GetInventory возвращает складские счётчики товара.
func (h *Handler) GetInventory(w http.ResponseWriter, r *http.Request) {
	rec, err := h.service.GetInventory(r.Context(), chi.URLParam(r, "productId"))
	if err != nil {
		h.writeError(w, r, "get inventory", err)
		return
	}

	writeJSON(w, http.StatusOK, newInventoryResponse(rec))
}

// Restock оприходует поступление товара.
func (h *Handler) Restock(w http.ResponseWriter, r *http.Request) {
	var req restockRequest
	if err := decodeJSON(r, &req); err != nil {
		badRequest(w)
		return
	}

	entry, err := h.service.Restock(r.Context(), service.RestockInput{
		ProductID: chi.URLParam(r, "productId"),
		SKU:       req.SKU,
		Quantity:  req.Quantity,
		Reference: req.Reference,
	})
	if err != nil {
		h.writeError(w, r, "restock", err)
		return
	}

	writeJSON(w, http.StatusCreated, entry)
}

// AdjustStock корректирует остаток товара по результатам инвентаризации, списания или возврата.
func (h *Handler) AdjustStock(w http.ResponseWriter, r *http.Request) {
	var req adjustRequest
	if err := decodeJSON(r, &req); err != nil {
		badRequest(w)
		return
	}

	entry, err := h.service.AdjustStock(r.Context(), service.AdjustInput{
		ProductID: chi.URLParam(r, "productId"),
		SKU:       req.SKU,
		Delta:     req.Delta,
		Reason:    req.Reason,
		Reference: req.Reference,
	})
	if err != nil {
		h.writeError(w, r, "adjust stock", err)
		return
	}

	writeJSON(w, http.StatusCreated, entry)
}

// StockHistory возвращает журнал движений товара.
func (h *Handler) StockHistory(w http.ResponseWriter, r *http.Request) {
	entries, err := h.service.StockHistory(r.Context(), chi.URLParam(r, "productId"))
	if err != nil {
		h.writeError(w, r, "stock history", err)
		return
	}

	writeJSON(w, http.StatusOK, nonNil(entries))
}

// OrderStockHistory возвращает движения товара, порождённые заказом.
func (h *Handler) OrderStockHistory(w http.ResponseWriter, r *http.Request) {
	entries, err := h.service.OrderStockHistory(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		h.writeError(w, r, "order stock history", err)
		return
	}

	writeJSON(w, http.StatusOK, nonNil(entries))
}

// SalesCount возвращает счётчик продаж товара.
func (h *Handler) SalesCount(w http.ResponseWriter, r *http.Request) {
	sales, err := h.service.SalesCount(r.Context(), chi.URLParam(r, "productId"))
	if err != nil {
		h.writeError(w, r, "sales count", err)
		return
	}

	writeJSON(w, http.StatusOK, sales)
}

func nonNil[T any](s []T) []T {
	if s == nil {
		return []T{}
	}
	return s
}
