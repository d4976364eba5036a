package httputil

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	apperrors "github.com/utafrali/CompanyDirectory/pkg/errors"
	"github.com/utafrali/CompanyDirectory/pkg/logger"
	"github.com/utafrali/CompanyDirectory/pkg/validator"
)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func decode(t *testing.T, rec *httptest.ResponseRecorder) Response {
	t.Helper()
	var resp Response
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&resp))
	return resp
}

func TestWriteJSON(t *testing.T) {
	rec := httptest.NewRecorder()
	WriteJSON(rec, http.StatusCreated, Response{Data: map[string]string{"message": "Registered"}})

	assert.Equal(t, http.StatusCreated, rec.Code)
	assert.Equal(t, "application/json", rec.Header().Get("Content-Type"))

	var raw map[string]json.RawMessage
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&raw))
	assert.Contains(t, string(raw["data"]), "Registered")
	_, hasError := raw["error"]
	assert.False(t, hasError)
}

func TestWriteError(t *testing.T) {
	tests := []struct {
		name       string
		err        error
		wantStatus int
		wantCode   string
	}{
		{"app error", apperrors.NotFound("company", "abc"), http.StatusNotFound, "NOT_FOUND"},
		{"custom app error", apperrors.New(http.StatusBadRequest, "DUPLICATE_EMAIL", "Email already exists", apperrors.ErrAlreadyExists), http.StatusBadRequest, "DUPLICATE_EMAIL"},
		{"wrapped app error", fmt.Errorf("login: %w", apperrors.Unauthorized("nope")), http.StatusUnauthorized, "UNAUTHORIZED"},
		{"sentinel not found", apperrors.ErrNotFound, http.StatusNotFound, "NOT_FOUND"},
		{"sentinel exists", apperrors.ErrAlreadyExists, http.StatusConflict, "ALREADY_EXISTS"},
		{"sentinel invalid", apperrors.ErrInvalidInput, http.StatusBadRequest, "INVALID_INPUT"},
		{"sentinel unauthorized", apperrors.ErrUnauthorized, http.StatusUnauthorized, "UNAUTHENTICATED"},
		{"sentinel forbidden", apperrors.ErrForbidden, http.StatusForbidden, "FORBIDDEN"},
		{"sentinel unavailable", apperrors.ErrServiceUnavail, http.StatusServiceUnavailable, "SERVICE_UNAVAILABLE"},
		{"unknown", fmt.Errorf("something unexpected"), http.StatusInternalServerError, "INTERNAL_ERROR"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := httptest.NewRecorder()
			req := httptest.NewRequest(http.MethodGet, "/api/companies", nil)

			WriteError(rec, req, tt.err, discardLogger())

			assert.Equal(t, tt.wantStatus, rec.Code)
			resp := decode(t, rec)
			require.NotNil(t, resp.Error)
			assert.Equal(t, tt.wantCode, resp.Error.Code)
			assert.NotEmpty(t, resp.Error.Message)
		})
	}
}

func TestWriteError_InternalDoesNotLeakDetails(t *testing.T) {
	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/", nil)

	WriteError(rec, req, fmt.Errorf("pq: password authentication failed"), discardLogger())

	resp := decode(t, rec)
	assert.Equal(t, "an internal error occurred", resp.Error.Message)
}

func TestWriteError_RequestID(t *testing.T) {
	t.Run("present", func(t *testing.T) {
		rec := httptest.NewRecorder()
		ctx := logger.WithCorrelationID(context.Background(), "corr-123")
		req := httptest.NewRequest(http.MethodGet, "/", nil).WithContext(ctx)

		WriteError(rec, req, apperrors.Forbidden("not yours"), discardLogger())

		resp := decode(t, rec)
		assert.Equal(t, "corr-123", resp.Error.RequestID)
	})

	t.Run("absent", func(t *testing.T) {
		rec := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodGet, "/", nil)

		WriteError(rec, req, apperrors.ErrNotFound, discardLogger())

		var raw map[string]map[string]json.RawMessage
		require.NoError(t, json.NewDecoder(rec.Body).Decode(&raw))
		_, has := raw["error"]["request_id"]
		assert.False(t, has)
	})
}

func TestWriteValidationError(t *testing.T) {
	type input struct {
		Email string `json:"email" validate:"required,email"`
	}
	valErr := validator.Validate(input{Email: "not-an-email"})
	require.Error(t, valErr)

	rec := httptest.NewRecorder()
	WriteValidationError(rec, valErr)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	resp := decode(t, rec)
	assert.Equal(t, "VALIDATION_ERROR", resp.Error.Code)
	assert.Contains(t, resp.Error.Fields, "email")

	rec = httptest.NewRecorder()
	WriteValidationError(rec, fmt.Errorf("invalid request body"))
	resp = decode(t, rec)
	assert.Equal(t, "INVALID_INPUT", resp.Error.Code)
	assert.Equal(t, "invalid request body", resp.Error.Message)
}

func TestNewPaginatedResponse(t *testing.T) {
	tests := []struct {
		name      string
		total     int
		page      int
		perPage   int
		wantPages int
		wantNext  bool
	}{
		{"first of three", 25, 1, 10, 3, true},
		{"last page", 21, 3, 10, 3, false},
		{"exact division", 30, 2, 10, 3, true},
		{"empty", 0, 1, 20, 0, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			resp := NewPaginatedResponse[string](nil, tt.total, tt.page, tt.perPage)
			assert.Equal(t, tt.wantPages, resp.TotalPages)
			assert.Equal(t, tt.wantNext, resp.HasNext)
			assert.NotNil(t, resp.Data)
		})
	}
}

func TestParseUUID(t *testing.T) {
	rec := httptest.NewRecorder()
	id, ok := ParseUUID(rec, "550E8400-E29B-41D4-A716-446655440000")
	assert.True(t, ok)
	assert.Equal(t, "550e8400-e29b-41d4-a716-446655440000", id.String())

	for _, bad := range []string{"", "abc123", "not-a-uuid"} {
		rec := httptest.NewRecorder()
		_, ok := ParseUUID(rec, bad)
		assert.False(t, ok)
		assert.Equal(t, http.StatusBadRequest, rec.Code)
		assert.Equal(t, "INVALID_PARAMETER", decode(t, rec).Error.Code)
	}
}
