package health

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func up(context.Context) error   { return nil }
func down(context.Context) error { return errors.New("connection refused") }

func serveReady(t *testing.T, h *Handler) (int, Response) {
	t.Helper()
	rec := httptest.NewRecorder()
	h.ReadinessHandler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/health/ready", nil))

	var resp Response
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&resp))
	return rec.Code, resp
}

func TestLivenessHandler(t *testing.T) {
	h := NewHandler()
	h.RegisterCritical("postgres", down)

	rec := httptest.NewRecorder()
	h.LivenessHandler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/health/live", nil))

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "application/json", rec.Header().Get("Content-Type"))
}

func TestReadinessHandler(t *testing.T) {
	tests := []struct {
		name        string
		critical    map[string]Checker
		nonCritical map[string]Checker
		wantCode    int
		wantStatus  Status
	}{
		{"no checks", nil, nil, http.StatusOK, StatusUp},
		{"all up", map[string]Checker{"postgres": up}, map[string]Checker{"kafka": up}, http.StatusOK, StatusUp},
		{"critical down", map[string]Checker{"postgres": down}, map[string]Checker{"kafka": up}, http.StatusServiceUnavailable, StatusDown},
		{"non-critical down", map[string]Checker{"postgres": up}, map[string]Checker{"kafka": down}, http.StatusOK, StatusDegraded},
		{"both down", map[string]Checker{"postgres": down}, map[string]Checker{"kafka": down}, http.StatusServiceUnavailable, StatusDown},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := NewHandler()
			for n, c := range tt.critical {
				h.RegisterCritical(n, c)
			}
			for n, c := range tt.nonCritical {
				h.RegisterNonCritical(n, c)
			}

			code, resp := serveReady(t, h)
			assert.Equal(t, tt.wantCode, code)
			assert.Equal(t, tt.wantStatus, resp.Status)
			assert.Len(t, resp.Checks, len(tt.critical)+len(tt.nonCritical))
		})
	}
}

func TestReadinessHandler_ReportsErrors(t *testing.T) {
	h := NewHandler()
	h.Register("postgres", down)

	_, resp := serveReady(t, h)
	res := resp.Checks["postgres"]
	assert.Equal(t, StatusDown, res.Status)
	assert.True(t, res.Critical, "Register defaults to critical")
	assert.Equal(t, "connection refused", res.Error)
}

func TestRegister_Overwrites(t *testing.T) {
	h := NewHandler()
	h.RegisterCritical("s3", down)
	h.RegisterNonCritical("s3", up)

	resp := h.Check(context.Background())
	assert.Equal(t, StatusUp, resp.Status)
	assert.False(t, resp.Checks["s3"].Critical)
}

func TestCheck_PassesDeadline(t *testing.T) {
	h := NewHandler()
	h.RegisterCritical("postgres", func(ctx context.Context) error {
		if _, ok := ctx.Deadline(); !ok {
			return errors.New("no deadline")
		}
		return nil
	})

	assert.Equal(t, StatusUp, h.Check(context.Background()).Status)
}
