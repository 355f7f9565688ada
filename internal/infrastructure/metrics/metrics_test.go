package metrics

import (
	"errors"
	"fmt"
	"io"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/jhoicas/ateco-api/internal/domain"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestObserveLookup_ClasificaResultado(t *testing.T) {
	r := New("test")

	r.ObserveLookup("sum_active_units", time.Millisecond, nil)
	r.ObserveLookup("sum_active_units", time.Millisecond, fmt.Errorf("x: %w", domain.ErrStoreUnavailable))
	r.ObserveLookup("get_by_code", time.Millisecond, domain.ErrNotFound)

	assert.Equal(t, 1.0, testutil.ToFloat64(r.lookupTotal.WithLabelValues("sum_active_units", "ok")))
	assert.Equal(t, 1.0, testutil.ToFloat64(r.lookupTotal.WithLabelValues("sum_active_units", "unavailable")))
	assert.Equal(t, 1.0, testutil.ToFloat64(r.lookupTotal.WithLabelValues("get_by_code", "not_found")))
}

func TestObserveTree_ErrorNoObservaDuracion(t *testing.T) {
	r := New("test")

	r.ObserveTree(0, time.Second, errors.New("boom"))
	r.ObserveTree(42, time.Second, nil)

	assert.Equal(t, 1.0, testutil.ToFloat64(r.treeTotal.WithLabelValues("error")))
	assert.Equal(t, 1.0, testutil.ToFloat64(r.treeTotal.WithLabelValues("ok")))
	assert.Equal(t, 1, testutil.CollectAndCount(r.treeNodes))
}

func TestMiddleware_UsaPatronDeRuta(t *testing.T) {
	r := New("test")
	app := fiber.New()
	app.Use(r.Middleware())
	app.Get("/api/ateco/:code", func(c *fiber.Ctx) error { return c.SendStatus(fiber.StatusOK) })
	app.Get("/metrics", r.Handler())

	resp, err := app.Test(httptest.NewRequest("GET", "/api/ateco/A.01", nil))
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusOK, resp.StatusCode)

	assert.Equal(t, 1.0, testutil.ToFloat64(r.requestTotal.WithLabelValues("GET", "/api/ateco/:code", "200")))

	resp, err = app.Test(httptest.NewRequest("GET", "/metrics", nil))
	require.NoError(t, err)
	body, _ := io.ReadAll(resp.Body)
	assert.True(t, strings.Contains(string(body), "ateco_http_requests_total"), "el endpoint debe exponer las métricas HTTP")
}
