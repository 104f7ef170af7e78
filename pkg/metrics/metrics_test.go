package metrics

import (
	"net/http/httptest"
	"testing"

	"github.com/gofiber/fiber/v2"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMiddlewareCountsRequests(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := New("test", reg)

	app := fiber.New()
	app.Use(m.Middleware())
	app.Get("/ok", func(c *fiber.Ctx) error { return c.SendStatus(fiber.StatusOK) })
	app.Get("/missing", func(c *fiber.Ctx) error { return c.SendStatus(fiber.StatusNotFound) })

	for _, path := range []string{"/ok", "/ok", "/missing"} {
		resp, err := app.Test(httptest.NewRequest("GET", path, nil))
		require.NoError(t, err)
		resp.Body.Close()
	}

	assert.Equal(t, 2.0, testutil.ToFloat64(m.requests.WithLabelValues("GET", "/ok", "200")))
	assert.Equal(t, 2.0, testutil.ToFloat64(m.statusCategory.WithLabelValues("2xx")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.statusCategory.WithLabelValues("4xx")))
}

func TestDomainCounters(t *testing.T) {
	m := New("test", prometheus.NewRegistry())

	m.RecordTransaction("create")
	m.RecordInsufficientStock()
	m.RecordAlert("LOW_STOCK", true)
	m.RecordAlert("LOW_STOCK", false)
	m.RecordLogsCleared(3)

	assert.Equal(t, 1.0, testutil.ToFloat64(m.transactions.WithLabelValues("create")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.stockRejected))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.alertsSent.WithLabelValues("LOW_STOCK")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.alertsFailed.WithLabelValues("LOW_STOCK")))
	assert.Equal(t, 3.0, testutil.ToFloat64(m.logsCleared))
}
