package handler

import (
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/mmeshcher/order-fulfillment/internal/model"
	"github.com/mmeshcher/order-fulfillment/internal/service"
)

// parseFilter читает параметры выборки заказов из строки запроса.
func parseFilter(q url.Values) (model.OrderFilter, error) {
	f := model.OrderFilter{
		Status:        model.OrderStatus(q.Get("status")),
		PaymentStatus: model.PaymentStatus(q.Get("paymentStatus")),
		Search:        q.Get("search"),
		SortBy:        q.Get("sortBy"),
		SortOrder:     q.Get("sortOrder"),
	}

	var err error
	if f.Page, err = parseInt(q, "page"); err != nil {
		return f, err
	}
	if f.Limit, err = parseInt(q, "limit"); err != nil {
		return f, err
	}
	if f.StartDate, err = parseTime(q, "startDate", false); err != nil {
		return f, err
	}
	if f.EndDate, err = parseTime(q, "endDate", true); err != nil {
		return f, err
	}

	return f, nil
}

func parseInt(q url.Values, key string) (int, error) {
	raw := q.Get(key)
	if raw == "" {
		return 0, nil
	}
	v, err := strconv.Atoi(raw)
	if err != nil {
		return 0, fmt.Errorf("%w: %s must be an integer", model.ErrValidation, key)
	}
	return v, nil
}

// parseTime принимает RFC 3339 или дату YYYY-MM-DD. Для конца периода дата
// без времени означает конец дня.
func parseTime(q url.Values, key string, endOfDay bool) (*time.Time, error) {
	raw := q.Get(key)
	if raw == "" {
		return nil, nil
	}

	if t, err := time.Parse(time.RFC3339, raw); err == nil {
		return &t, nil
	}

	t, err := time.Parse(time.DateOnly, raw)
	if err != nil {
		return nil, fmt.Errorf("%w: %s must be RFC 3339 or YYYY-MM-DD", model.ErrValidation, key)
	}
	if endOfDay {
		t = t.Add(24*time.Hour - time.Nanosecond)
	}
	return &t, nil
}

// ListOrders возвращает страницу заказов.
func (h *Handler) ListOrders(w http.ResponseWriter, r *http.Request) {
	f, err := parseFilter(r.URL.Query())
	if err != nil {
		h.writeError(w, r, "list orders", err)
		return
	}

	page, err := h.service.ListOrders(r.Context(), f)
	if err != nil {
		h.writeError(w, r, "list orders", err)
		return
	}

	writeJSON(w, http.StatusOK, page)
}

// Analytics возвращает сводку по заказам за период.
func (h *Handler) Analytics(w http.ResponseWriter, r *http.Request) {
	period, err := parseInt(r.URL.Query(), "period")
	if err != nil {
		h.writeError(w, r, "analytics", err)
		return
	}

	analytics, err := h.service.Analytics(r.Context(), period)
	if err != nil {
		h.writeError(w, r, "analytics", err)
		return
	}

	writeJSON(w, http.StatusOK, analytics)
}

// ExportOrders выгружает заказы в CSV или JSON.
func (h *Handler) ExportOrders(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()

	format := q.Get("format")
	if format == "" {
		format = "json"
	}
	if format != "json" && format != "csv" {
		h.writeError(w, r, "export orders", fmt.Errorf("%w: format must be csv or json", model.ErrValidation))
		return
	}

	f, err := parseFilter(q)
	if err != nil {
		h.writeError(w, r, "export orders", err)
		return
	}

	rows, err := h.service.ExportOrders(r.Context(), f)
	if err != nil {
		h.writeError(w, r, "export orders", err)
		return
	}

	if format == "json" {
		writeJSON(w, http.StatusOK, rows)
		return
	}

	w.Header().Set("Content-Type", "text/csv")
	w.Header().Set("Content-Disposition", `attachment; filename="orders.csv"`)
	w.WriteHeader(http.StatusOK)
	if err := service.WriteCSV(w, rows); err != nil {
		h.logger.Warn("write csv export failed", zap.Error(err))
	}
}

// Tracking возвращает сведения для отслеживания заказа.
func (h *Handler) Tracking(w http.ResponseWriter, r *http.Request) {
	summary, err := h.service.Tracking(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		h.writeError(w, r, "tracking", err)
		return
	}

	writeJSON(w, http.StatusOK, summary)
}
