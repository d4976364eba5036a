package app

import (
	"context"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/utafrali/CompanyDirectory/internal/config"
	"github.com/utafrali/CompanyDirectory/internal/phoneid"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestCleanupStack_RunsInReverseOrder(t *testing.T) {
	var order []string
	var s cleanupStack
	s.push(func() { order = append(order, "tracer") })
	s.push(func() { order = append(order, "pool") })
	s.push(func() { order = append(order, "producer") })

	s.run()
	assert.Equal(t, []string{"producer", "pool", "tracer"}, order)

	var empty cleanupStack
	assert.NotPanics(t, empty.run)
}

func TestNewPhoneVerifier_SingleAttemptOnUpstreamFailure(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		w.WriteHeader(http.StatusServiceUnavailable)
	}))
	defer srv.Close()

	v := newPhoneVerifier(&config.Config{FirebaseAPIKey: "test-key", FirebaseBaseURL: srv.URL}, testLogger())

	_, err := v.Verify(context.Background(), "proof-token")
	require.ErrorIs(t, err, phoneid.ErrUnavailable)
	assert.Equal(t, int32(1), calls.Load())
}

func TestNewPhoneVerifier_DisabledWithoutKey(t *testing.T) {
	v := newPhoneVerifier(&config.Config{}, testLogger())
	assert.IsType(t, phoneid.Disabled{}, v)

	_, err := v.Verify(context.Background(), "proof-token")
	assert.ErrorIs(t, err, phoneid.ErrUnavailable)
}
