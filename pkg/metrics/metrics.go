package metrics

import (
	"strconv"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/prometheus/client_golang/prometheus"
)

// Metrics holds the HTTP and domain collectors of the service.
type Metrics struct {
	requests        *prometheus.CounterVec
	requestDuration *prometheus.HistogramVec
	statusCategory  *prometheus.CounterVec

	transactions  *prometheus.CounterVec
	stockRejected prometheus.Counter
	alertsSent    *prometheus.CounterVec
	alertsFailed  *prometheus.CounterVec
	logsCleared   prometheus.Counter
}

// New creates the collectors under the given prefix and registers them on reg.
func New(prefix string, reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		requests: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: prefix + "_http_requests_total",
				Help: "Total number of HTTP requests",
			},
			[]string{"method", "path", "status"},
		),
		requestDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    prefix + "_http_request_duration_seconds",
				Help:    "Duration of HTTP requests in seconds",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"method", "path", "status"},
		),
		statusCategory: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: prefix + "_http_status_category_total",
				Help: "Total number of responses by status category (2xx, 4xx, 5xx)",
			},
			[]string{"category"},
		),
		transactions: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: prefix + "_transactions_total",
				Help: "Committed sale operations by kind (create, update, delete)",
			},
			[]string{"operation"},
		),
		stockRejected: prometheus.NewCounter(
			prometheus.CounterOpts{
				Name: prefix + "_insufficient_stock_total",
				Help: "Sales rejected because a size did not have enough stock",
			},
		),
		alertsSent: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: prefix + "_stock_alerts_sent_total",
				Help: "Stock alerts delivered by the sweep",
			},
			[]string{"status"},
		),
		alertsFailed: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: prefix + "_stock_alerts_failed_total",
				Help: "Stock alerts the push provider refused",
			},
			[]string{"status"},
		),
		logsCleared: prometheus.NewCounter(
			prometheus.CounterOpts{
				Name: prefix + "_stock_alert_logs_cleared_total",
				Help: "Products whose alert logs were cleared after a restock",
			},
		),
	}

	reg.MustRegister(
		m.requests,
		m.requestDuration,
		m.statusCategory,
		m.transactions,
		m.stockRejected,
		m.alertsSent,
		m.alertsFailed,
		m.logsCleared,
	)
	return m
}

// Middleware records request count, duration and status category.
func (m *Metrics) Middleware() fiber.Handler {
	return func(c *fiber.Ctx) error {
		start := time.Now()

		err := c.Next()

		status := c.Response().StatusCode()
		if fe, ok := err.(*fiber.Error); ok {
			status = fe.Code
		}
		path := c.Route().Path
		statusStr := strconv.Itoa(status)

		m.requests.WithLabelValues(c.Method(), path, statusStr).Inc()
		m.requestDuration.WithLabelValues(c.Method(), path, statusStr).Observe(time.Since(start).Seconds())
		if category := statusCategory(status); category != "" {
			m.statusCategory.WithLabelValues(category).Inc()
		}

		return err
	}
}

func statusCategory(status int) string {
	switch {
	case status >= 200 && status < 300:
		return "2xx"
	case status >= 400 && status < 500:
		return "4xx"
	case status >= 500 && status < 600:
		return "5xx"
	}
	return ""
}

func (m *Metrics) RecordTransaction(operation string) {
	m.transactions.WithLabelValues(operation).Inc()
}

func (m *Metrics) RecordInsufficientStock() {
	m.stockRejected.Inc()
}

func (m *Metrics) RecordAlert(status string, delivered bool) {
	if delivered {
		m.alertsSent.WithLabelValues(status).Inc()
		return
	}
	m.alertsFailed.WithLabelValues(status).Inc()
}

func (m *Metrics) RecordLogsCleared(products int) {
	m.logsCleared.Add(float64(products))
}
