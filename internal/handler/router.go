package handler

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"

	custommiddleware "github.com/mmeshcher/order-fulfillment/internal/middleware"
	"github.com/mmeshcher/order-fulfillment/internal/model"
)

// SetupRouter настраивает HTTP-маршруты и middleware сервиса обработки заказов.
func (h *Handler) SetupRouter() *chi.Mux {
	r := chi.NewRouter()

	r.Use(chimiddleware.Recoverer)
	r.Use(h.observeRequests)
	r.Use(custommiddleware.GzipMiddleware)
	r.Use(custommiddleware.Logger(h.logger))

	r.Method(http.MethodGet, "/metrics", h.metrics.Handler())

	r.Group(func(r chi.Router) {
		if h.authMiddleware != nil {
			r.Use(h.authMiddleware.Middleware)
		}

		r.Route("/api/orders", func(r chi.Router) {
			r.Get("/", h.ListOrders)
			r.Post("/", h.CreateOrder)

			r.Get("/analytics", h.Analytics)
			r.Get("/export", h.ExportOrders)
			r.Post("/bulk/status", h.BulkUpdateStatus)
			r.Post("/bulk/delete", h.BulkDelete)

			r.Route("/{id}", func(r chi.Router) {
				r.Get("/", h.GetOrder)
				r.Put("/", h.UpdateOrder)
				r.Delete("/", h.DeleteOrder)

				r.Patch("/status", h.UpdateStatus)
				r.Patch("/mark-paid", h.MarkPaid)
				r.Patch("/mark-shipped", h.transitionTo(model.OrderStatusShipped))
				r.Patch("/mark-delivered", h.transitionTo(model.OrderStatusDelivered))
				r.Patch("/fulfill", h.transitionTo(model.OrderStatusDelivered))
				r.Patch("/cancel", h.transitionTo(model.OrderStatusCanceled))
				r.Post("/refund", h.Refund)
				r.Post("/send-confirmation", h.SendConfirmation)

				r.Get("/tracking", h.Tracking)
				r.Get("/stock-history", h.OrderStockHistory)

				r.Get("/notes", h.ListNotes)
				r.Post("/notes", h.AddNote)
				r.Put("/notes/{noteId}", h.UpdateNote)
				r.Delete("/notes/{noteId}", h.DeleteNote)
			})
		})

		r.Route("/api/inventory/{productId}", func(r chi.Router) {
			r.Get("/", h.GetInventory)
			r.Post("/restock", h.Restock)
			r.Post("/adjust", h.AdjustStock)
			r.Get("/history", h.StockHistory)
		})

		r.Get("/api/products/{productId}/sales", h.SalesCount)
	})

	r.NotFound(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, http.StatusText(http.StatusNotFound), http.StatusNotFound)
	})

	r.MethodNotAllowed(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, http.StatusText(http.StatusMethodNotAllowed), http.StatusMethodNotAllowed)
	})

	return r
}

// observeRequests записывает длительность запросов в метрики по шаблону маршрута.
func (h *Handler) observeRequests(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := chimiddleware.NewWrapResponseWriter(w, r.ProtoMajor)

		next.ServeHTTP(ww, r)

		route := "unmatched"
		if rctx := chi.RouteContext(r.Context()); rctx != nil {
			if pattern := rctx.RoutePattern(); pattern != "" {
				route = pattern
			}
		}

		status := ww.Status()
		if status == 0 {
			status = http.StatusOK
		}

		h.metrics.ObserveRequest(r.Method, route, status, time.Since(start))
	})
}
