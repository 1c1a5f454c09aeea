package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHTTPMetrics_Middleware(t *testing.T) {
	m := NewHTTPMetrics()

	router := gin.New()
	router.Use(m.Middleware())
	router.GET("/product", func(c *gin.Context) { c.Status(http.StatusOK) })
	router.GET("/orders/:id", func(c *gin.Context) { c.Status(http.StatusNotFound) })

	for _, path := range []string{"/product", "/product", "/orders/1", "/nope"} {
		router.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, path, nil))
	}

	assert.Equal(t, 2.0, testutil.ToFloat64(m.requestsTotal.WithLabelValues("GET", "/product", "200")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.requestsTotal.WithLabelValues("GET", "/orders/:id", "404")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.requestsTotal.WithLabelValues("GET", "unmatched", "404")))
	assert.Equal(t, 0.0, testutil.ToFloat64(m.requestsInFlight))
}

func TestHTTPMetrics_CheckoutSessions(t *testing.T) {
	m := NewHTTPMetrics()
	m.RecordCheckoutSession(CheckoutResultCreated)
	m.RecordCheckoutSession(CheckoutResultFailed)
	m.RecordCheckoutSession(CheckoutResultCreated)

	assert.Equal(t, 2.0, testutil.ToFloat64(m.checkoutSessions.WithLabelValues(CheckoutResultCreated)))

	var nilMetrics *HTTPMetrics
	assert.NotPanics(t, func() { nilMetrics.RecordCheckoutSession(CheckoutResultRejected) })
}

func TestHTTPMetrics_Handler(t *testing.T) {
	m := NewHTTPMetrics()
	m.RecordCheckoutSession(CheckoutResultCreated)

	rec := httptest.NewRecorder()
	m.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "storefront_checkout_sessions_total")
	assert.Contains(t, rec.Body.String(), "go_goroutines")
}
