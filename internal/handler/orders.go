package handler

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/mmeshcher/order-fulfillment/internal/model"
	"github.com/mmeshcher/order-fulfillment/internal/service"
)

type createOrderRequest struct {
	OrderNumber     string              `json:"orderNumber"`
	Items           []model.OrderItem   `json:"items"`
	Pricing         model.Pricing       `json:"pricing"`
	CustomerInfo    model.CustomerInfo  `json:"customerInfo"`
	ShippingAddress model.Address       `json:"shippingAddress"`
	PaymentStatus   model.PaymentStatus `json:"paymentStatus"`
}

type updateOrderRequest struct {
	Items             []model.OrderItem   `json:"items"`
	Pricing           *model.Pricing      `json:"pricing"`
	CustomerInfo      *model.CustomerInfo `json:"customerInfo"`
	ShippingAddress   *model.Address      `json:"shippingAddress"`
	TrackingNumber    *string             `json:"trackingNumber"`
	ShippingProvider  *string             `json:"shippingProvider"`
	EstimatedDelivery *time.Time          `json:"estimatedDelivery"`
}

type noteRequest struct {
	Note      string `json:"note"`
	IsPrivate bool   `json:"isPrivate"`
}

// CreateOrder создаёт заказ в статусе pending.
func (h *Handler) CreateOrder(w http.ResponseWriter, r *http.Request) {
	var req createOrderRequest
	if err := decodeJSON(r, &req); err != nil {
		badRequest(w)
		return
	}

	order, err := h.service.CreateOrder(r.Context(), service.OrderInput{
		OrderNumber:     req.OrderNumber,
		Items:           req.Items,
		Pricing:         req.Pricing,
		CustomerInfo:    req.CustomerInfo,
		ShippingAddress: req.ShippingAddress,
		PaymentStatus:   req.PaymentStatus,
		Actor:           actor(r),
	})
	if err != nil {
		h.writeError(w, r, "create order", err)
		return
	}

	writeJSON(w, http.StatusCreated, order)
}

// GetOrder возвращает заказ по идентификатору.
func (h *Handler) GetOrder(w http.ResponseWriter, r *http.Request) {
	order, err := h.service.GetOrder(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		h.writeError(w, r, "get order", err)
		return
	}

	writeJSON(w, http.StatusOK, order)
}

// UpdateOrder изменяет данные заказа.
func (h *Handler) UpdateOrder(w http.ResponseWriter, r *http.Request) {
	var req updateOrderRequest
	if err := decodeJSON(r, &req); err != nil {
		badRequest(w)
		return
	}

	order, err := h.service.UpdateOrder(r.Context(), chi.URLParam(r, "id"), service.OrderUpdate{
		Items:             req.Items,
		Pricing:           req.Pricing,
		CustomerInfo:      req.CustomerInfo,
		ShippingAddress:   req.ShippingAddress,
		TrackingNumber:    req.TrackingNumber,
		ShippingProvider:  req.ShippingProvider,
		EstimatedDelivery: req.EstimatedDelivery,
	})
	if err != nil {
		h.writeError(w, r, "update order", err)
		return
	}

	writeJSON(w, http.StatusOK, order)
}

// DeleteOrder удаляет заказ без активного резерва.
func (h *Handler) DeleteOrder(w http.ResponseWriter, r *http.Request) {
	if err := h.service.DeleteOrder(r.Context(), chi.URLParam(r, "id")); err != nil {
		h.writeError(w, r, "delete order", err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// MarkPaid отмечает заказ оплаченным.
func (h *Handler) MarkPaid(w http.ResponseWriter, r *http.Request) {
	order, err := h.service.MarkPaid(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		h.writeError(w, r, "mark paid", err)
		return
	}

	writeJSON(w, http.StatusOK, order)
}

// BulkDelete удаляет несколько заказов.
func (h *Handler) BulkDelete(w http.ResponseWriter, r *http.Request) {
	var req bulkRequest
	if err := decodeJSON(r, &req); err != nil {
		badRequest(w)
		return
	}

	results, err := h.service.BulkDelete(r.Context(), req.OrderIDs)
	if err != nil {
		h.writeError(w, r, "bulk delete", err)
		return
	}

	writeJSON(w, http.StatusOK, bulkResponse{Results: results})
}

// ListNotes возвращает заметки заказа.
func (h *Handler) ListNotes(w http.ResponseWriter, r *http.Request) {
	includePrivate := r.URL.Query().Get("includePrivate") == "true"

	notes, err := h.service.ListNotes(r.Context(), chi.URLParam(r, "id"), includePrivate)
	if err != nil {
		h.writeError(w, r, "list notes", err)
		return
	}

	writeJSON(w, http.StatusOK, notes)
}

// AddNote добавляет заметку к заказу.
func (h *Handler) AddNote(w http.ResponseWriter, r *http.Request) {
	var req noteRequest
	if err := decodeJSON(r, &req); err != nil {
		badRequest(w)
		return
	}

	note, err := h.service.AddNote(r.Context(), chi.URLParam(r, "id"), req.Note, req.IsPrivate, actor(r))
	if err != nil {
		h.writeError(w, r, "add note", err)
		return
	}

	writeJSON(w, http.StatusCreated, note)
}

// UpdateNote изменяет заметку заказа.
func (h *Handler) UpdateNote(w http.ResponseWriter, r *http.Request) {
	var req noteRequest
	if err := decodeJSON(r, &req); err != nil {
		badRequest(w)
		return
	}

	note, err := h.service.UpdateNote(r.Context(), chi.URLParam(r, "id"), chi.URLParam(r, "noteId"), req.Note, req.IsPrivate)
	if err != nil {
		h.writeError(w, r, "update note", err)
		return
	}

	writeJSON(w, http.StatusOK, note)
}

// DeleteNote удаляет заметку заказа.
func (h *Handler) DeleteNote(w http.ResponseWriter, r *http.Request) {
	if err := h.service.DeleteNote(r.Context(), chi.URLParam(r, "id"), chi.URLParam(r, "noteId")); err != nil {
		h.writeError(w, r, "delete note", err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}
