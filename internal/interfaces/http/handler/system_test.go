package handler

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSystemHandler_Root(t *testing.T) {
	router := newTestRouter()
	router.GET("/", NewSystemHandler().Root)

	rec := doJSON(router, http.MethodGet, "/", "")

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, LivenessMessage, rec.Body.String())
	assert.Contains(t, rec.Header().Get("Content-Type"), "text/plain")
}

func TestSystemHandler_Health(t *testing.T) {
	healthy := HealthCheck{Name: "database", Check: func(context.Context) error { return nil }}
	down := HealthCheck{Name: "redis", Check: func(context.Context) error { return errors.New("connection refused") }}

	tests := []struct {
		name       string
		checks     []HealthCheck
		wantStatus int
		want       HealthResponse
	}{
		{
			name:       "no dependencies",
			wantStatus: http.StatusOK,
			want:       HealthResponse{Status: "ok", Checks: map[string]string{}},
		},
		{
			name:       "all healthy",
			checks:     []HealthCheck{healthy},
			wantStatus: http.StatusOK,
			want:       HealthResponse{Status: "ok", Checks: map[string]string{"database": "ok"}},
		},
		{
			name:       "redis down",
			checks:     []HealthCheck{healthy, down},
			wantStatus: http.StatusServiceUnavailable,
			want: HealthResponse{
				Status: "unavailable",
				Checks: map[string]string{"database": "ok", "redis": "unavailable"},
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			router := newTestRouter()
			router.GET("/health", NewSystemHandler(tt.checks...).Health)

			rec := doJSON(router, http.MethodGet, "/health", "")

			assert.Equal(t, tt.wantStatus, rec.Code)
			var got HealthResponse
			require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &got))
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestSystemHandler_HealthHonorsDeadline(t *testing.T) {
	var deadlineSet bool
	h := NewSystemHandler(HealthCheck{Name: "database", Check: func(ctx context.Context) error {
		_, deadlineSet = ctx.Deadline()
		return nil
	}})

	router := newTestRouter()
	router.GET("/health", h.Health)
	doJSON(router, http.MethodGet, "/health", "")

	assert.True(t, deadlineSet)
}
