package middleware

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/Nevi32/wofuo1/internal/pkg/common"
	"github.com/Nevi32/wofuo1/internal/pkg/logger"
	"github.com/Nevi32/wofuo1/internal/pkg/models"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/metric/metricdata"
)

type stubValidator struct{}

func (stubValidator) Validate(token string) (*models.Identity, error) {
	if token == "good" {
		return &models.Identity{Email: "clerk@wofuo.org"}, nil
	}
	return nil, errors.New("bad token")
}

func newTestEngine() *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.Use(TraceID())
	r.GET("/me", AuthRequired(stubValidator{}), func(c *gin.Context) {
		identity, ok := common.IdentityFromContext(c.Request.Context())
		if !ok {
			c.Status(http.StatusInternalServerError)
			return
		}
		c.JSON(http.StatusOK, gin.H{"email": identity.Email, "trace": logger.GetTraceID(c.Request.Context())})
	})
	return r
}

func TestAuthRequired(t *testing.T) {
	r := newTestEngine()

	tests := []struct {
		name   string
		header string
		status int
	}{
		{"missing header", "", http.StatusUnauthorized},
		{"wrong scheme", "Basic abc", http.StatusUnauthorized},
		{"invalid token", "Bearer nope", http.StatusUnauthorized},
		{"valid token", "Bearer good", http.StatusOK},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := httptest.NewRecorder()
			req := httptest.NewRequest(http.MethodGet, "/me", nil)
			if tt.header != "" {
				req.Header.Set("Authorization", tt.header)
			}
			r.ServeHTTP(w, req)
			assert.Equal(t, tt.status, w.Code)
			if tt.status == http.StatusOK {
				assert.Contains(t, w.Body.String(), `"email":"clerk@wofuo.org"`)
			}
		})
	}
}

func TestTraceID(t *testing.T) {
	r := newTestEngine()

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/me", nil)
	req.Header.Set("Authorization", "Bearer good")
	req.Header.Set(TraceHeader, "trace-123")
	r.ServeHTTP(w, req)
	assert.Equal(t, "trace-123", w.Header().Get(TraceHeader))
	assert.Contains(t, w.Body.String(), `"trace":"trace-123"`)

	w = httptest.NewRecorder()
	req = httptest.NewRequest(http.MethodGet, "/me", nil)
	r.ServeHTTP(w, req)
	assert.NotEmpty(t, w.Header().Get(TraceHeader))
}

func sumCounter(t *testing.T, rm metricdata.ResourceMetrics, name string) int64 {
	t.Helper()
	for _, scope := range rm.ScopeMetrics {
		for _, m := range scope.Metrics {
			if m.Name != name {
				continue
			}
			sum, ok := m.Data.(metricdata.Sum[int64])
			if !ok {
				t.Fatalf("%s is not an int64 sum", name)
			}
			var total int64
			for _, dp := range sum.DataPoints {
				total += dp.Value
			}
			return total
		}
	}
	return 0
}

func TestMetrics(t *testing.T) {
	gin.SetMode(gin.TestMode)
	reader := sdkmetric.NewManualReader()
	provider := sdkmetric.NewMeterProvider(sdkmetric.WithReader(reader))

	r := gin.New()
	r.Use(Metrics(provider.Meter("middleware-test")))
	r.GET("/me", AuthRequired(stubValidator{}), func(c *gin.Context) { c.Status(http.StatusOK) })

	for _, header := range []string{"Bearer good", "Bearer good", "Bearer nope"} {
		req := httptest.NewRequest(http.MethodGet, "/me", nil)
		req.Header.Set("Authorization", header)
		r.ServeHTTP(httptest.NewRecorder(), req)
	}

	var rm metricdata.ResourceMetrics
	require.NoError(t, reader.Collect(context.Background(), &rm))
	assert.Equal(t, int64(3), sumCounter(t, rm, "http.server.requests_total"))
	assert.Equal(t, int64(1), sumCounter(t, rm, "http.server.error_requests_total"))
}
