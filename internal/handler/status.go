package handler

import (
	"errors"
	"io"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/mmeshcher/order-fulfillment/internal/model"
	"github.com/mmeshcher/order-fulfillment/internal/service"
)

type statusRequest struct {
	Status            model.OrderStatus `json:"status"`
	Notes             string            `json:"notes"`
	TrackingNumber    string            `json:"trackingNumber"`
	ShippingProvider  string            `json:"shippingProvider"`
	EstimatedDelivery *time.Time        `json:"estimatedDelivery"`
	RefundAmount      float64           `json:"refundAmount"`
	Reason            string            `json:"reason"`
}

type refundRequest struct {
	Amount float64 `json:"amount"`
	Reason string  `json:"reason"`
}

func (req statusRequest) update(r *http.Request) service.StatusUpdate {
	return service.StatusUpdate{
		Status:            req.Status,
		Notes:             req.Notes,
		TrackingNumber:    req.TrackingNumber,
		ShippingProvider:  req.ShippingProvider,
		EstimatedDelivery: req.EstimatedDelivery,
		RefundAmount:      req.RefundAmount,
		Reason:            req.Reason,
		Actor:             actor(r),
	}
}

// UpdateStatus переводит заказ в статус из тела запроса.
func (h *Handler) UpdateStatus(w http.ResponseWriter, r *http.Request) {
	var req statusRequest
	if err := decodeJSON(r, &req); err != nil {
		badRequest(w)
		return
	}

	h.applyStatus(w, r, req.update(r))
}

// transitionTo возвращает обработчик, переводящий заказ в фиксированный статус.
// Тело запроса необязательно и может содержать заметку, данные доставки или причину.
func (h *Handler) transitionTo(status model.OrderStatus) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req statusRequest
		if err := decodeJSON(r, &req); err != nil && !errors.Is(err, io.EOF) {
			badRequest(w)
			return
		}
		req.Status = status

		h.applyStatus(w, r, req.update(r))
	}
}

// Refund оформляет возврат по доставленному или отменённому заказу.
func (h *Handler) Refund(w http.ResponseWriter, r *http.Request) {
	var req refundRequest
	if err := decodeJSON(r, &req); err != nil {
		badRequest(w)
		return
	}

	h.applyStatus(w, r, service.StatusUpdate{
		Status:       model.OrderStatusRefunded,
		RefundAmount: req.Amount,
		Reason:       req.Reason,
		Actor:        actor(r),
	})
}

func (h *Handler) applyStatus(w http.ResponseWriter, r *http.Request, upd service.StatusUpdate) {
	res, err := h.service.ApplyStatus(r.Context(), chi.URLParam(r, "id"), upd)
	if err != nil {
		h.writeError(w, r, "apply status", err)
		return
	}

	writeJSON(w, http.StatusOK, res)
}

// SendConfirmation повторно отправляет клиенту подтверждение заказа.
func (h *Handler) SendConfirmation(w http.ResponseWriter, r *http.Request) {
	outcome, err := h.service.ResendConfirmation(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		h.writeError(w, r, "send confirmation", err)
		return
	}

	status := http.StatusOK
	if !outcome.Success {
		status = http.StatusBadGateway
	}
	writeJSON(w, status, outcome)
}

// BulkUpdateStatus переводит несколько заказов в один статус.
func (h *Handler) BulkUpdateStatus(w http.ResponseWriter, r *http.Request) {
	var req bulkRequest
	if err := decodeJSON(r, &req); err != nil {
		badRequest(w)
		return
	}

	results, err := h.service.BulkUpdateStatus(r.Context(), req.OrderIDs, service.StatusUpdate{
		Status: req.Status,
		Notes:  req.Notes,
		Actor:  actor(r),
	})
	if err != nil {
		h.writeError(w, r, "bulk update status", err)
		return
	}

	writeJSON(w, http.StatusOK, bulkResponse{Results: results})
}
