// Package metrics содержит Prometheus-метрики подсистемы исполнения заказов.
package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics хранит коллекторы сервиса. Методы безопасно вызывать у nil-значения.
type Metrics struct {
	registry            *prometheus.Registry
	transitions         *prometheus.CounterVec
	transitionFailures  *prometheus.CounterVec
	notificationFailure prometheus.Counter
	inventoryMovements  *prometheus.CounterVec
	requestLatency      *prometheus.HistogramVec
}

// New создаёт метрики в отдельном реестре вместе со стандартными метриками процесса.
func New() *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		transitions: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "fulfillment_order_transitions_total",
				Help: "Total number of applied order status transitions",
			},
			[]string{"from", "to"},
		),
		transitionFailures: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "fulfillment_order_transition_failures_total",
				Help: "Total number of rejected or failed order status transitions",
			},
			[]string{"to", "reason"},
		),
		notificationFailure: prometheus.NewCounter(
			prometheus.CounterOpts{
				Name: "fulfillment_notification_failures_total",
				Help: "Total number of failed order confirmation notifications",
			},
		),
		inventoryMovements: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "fulfillment_inventory_units_total",
				Help: "Total number of inventory units moved by operation",
			},
			[]string{"operation"},
		),
		requestLatency: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "fulfillment_http_request_duration_seconds",
				Help:    "Duration of HTTP requests in seconds",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"method", "route", "status"},
		),
	}

	m.registry.MustRegister(
		m.transitions,
		m.transitionFailures,
		m.notificationFailure,
		m.inventoryMovements,
		m.requestLatency,
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)

	return m
}

// Handler возвращает HTTP-обработчик для выдачи метрик.
func (m *Metrics) Handler() http.Handler {
	if m == nil {
		return http.NotFoundHandler()
	}
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

// TransitionApplied учитывает применённый переход статуса.
func (m *Metrics) TransitionApplied(from, to string) {
	if m == nil {
		return
	}
	m.transitions.WithLabelValues(from, to).Inc()
}

// TransitionFailed учитывает отклонённый или неудавшийся переход статуса.
func (m *Metrics) TransitionFailed(to, reason string) {
	if m == nil {
		return
	}
	m.transitionFailures.WithLabelValues(to, reason).Inc()
}

// NotificationFailed учитывает сбой отправки уведомления.
func (m *Metrics) NotificationFailed() {
	if m == nil {
		return
	}
	m.notificationFailure.Inc()
}

// InventoryMoved учитывает количество единиц товара, затронутых складской операцией.
func (m *Metrics) InventoryMoved(operation string, qty int64) {
	if m == nil || qty <= 0 {
		return
	}
	m.inventoryMovements.WithLabelValues(operation).Add(float64(qty))
}

// ObserveRequest учитывает длительность HTTP-запроса.
func (m *Metrics) ObserveRequest(method, route string, status int, d time.Duration) {
	if m == nil {
		return
	}
	m.requestLatency.WithLabelValues(method, route, strconv.Itoa(status)).Observe(d.Seconds())
}
