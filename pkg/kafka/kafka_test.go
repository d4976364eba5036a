package kafka

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"

	"github.com/segmentio/kafka-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel/propagation"
	"go.opentelemetry.io/otel/trace"
)

type recordingWriter struct {
	msgs   []kafka.Message
	err    error
	closed bool
}

func (w *recordingWriter) WriteMessages(_ context.Context, msgs ...kafka.Message) error {
	if w.err != nil {
		return w.err
	}
	w.msgs = append(w.msgs, msgs...)
	return nil
}

func (w *recordingWriter) Close() error {
	w.closed = true
	return nil
}

func header(msg kafka.Message, key string) string {
	return NewHeaderCarrier(&msg).Get(key)
}

func TestNewEvent(t *testing.T) {
	ev, err := NewEvent("user.registered", "user-1", "user", "company-directory", map[string]string{"email": "ada@example.com"})
	require.NoError(t, err)

	assert.NotEmpty(t, ev.EventID)
	assert.Equal(t, 1, ev.Version)
	assert.False(t, ev.Timestamp.IsZero())

	var payload map[string]string
	require.NoError(t, ev.UnmarshalData(&payload))
	assert.Equal(t, "ada@example.com", payload["email"])

	_, err = NewEvent("bad", "x", "x", "x", make(chan int))
	assert.Error(t, err)
}

func TestEvent_RoundTrip(t *testing.T) {
	ev, err := NewEvent("company.created", "c-1", "company", "company-directory", map[string]int{"n": 1})
	require.NoError(t, err)
	ev.WithCorrelationID("corr-1").WithMetadata("owner_id", "user-1")

	raw, err := ev.Marshal()
	require.NoError(t, err)

	back, err := UnmarshalEvent(raw)
	require.NoError(t, err)
	assert.Equal(t, ev.EventID, back.EventID)
	assert.Equal(t, "corr-1", back.CorrelationID)
	assert.Equal(t, "user-1", back.Metadata["owner_id"])

	_, err = UnmarshalEvent([]byte("{nope"))
	assert.Error(t, err)
}

func TestTopic(t *testing.T) {
	assert.Equal(t, "companydir.user.registered", Topic("user", "registered"))
	assert.Equal(t, "companydir.company.deleted", Topic("company", "deleted"))
}

func TestProducer_Publish(t *testing.T) {
	w := &recordingWriter{}
	p := NewProducerWithWriter(w, []string{"localhost:9092"}, slog.New(slog.NewTextHandler(io.Discard, nil)))

	ev, err := NewEvent("user.email_verified", "user-1", "user", "company-directory", struct{}{})
	require.NoError(t, err)
	ev.WithCorrelationID("corr-7")

	require.NoError(t, p.Publish(context.Background(), Topic("user", "email_verified"), ev))
	require.Len(t, w.msgs, 1)

	msg := w.msgs[0]
	assert.Equal(t, "companydir.user.email_verified", msg.Topic)
	assert.Equal(t, "user-1", string(msg.Key))
	assert.Equal(t, "user.email_verified", header(msg, "event_type"))
	assert.Equal(t, "corr-7", header(msg, "correlation_id"))

	require.NoError(t, p.Close())
	assert.True(t, w.closed)
}

func TestProducer_PublishError(t *testing.T) {
	w := &recordingWriter{err: errors.New("leader not available")}
	p := NewProducerWithWriter(w, nil, slog.New(slog.NewTextHandler(io.Discard, nil)))

	ev, err := NewEvent("company.updated", "c-1", "company", "company-directory", struct{}{})
	require.NoError(t, err)

	err = p.Publish(context.Background(), Topic("company", "updated"), ev)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "leader not available")
}

func TestMessage_InjectsTraceContext(t *testing.T) {
	traceID, _ := trace.TraceIDFromHex("4bf92f3577b34da6a3ce929d0e0e4736")
	spanID, _ := trace.SpanIDFromHex("00f067aa0ba902b7")
	ctx := trace.ContextWithSpanContext(context.Background(), trace.NewSpanContext(trace.SpanContextConfig{
		TraceID: traceID, SpanID: spanID, TraceFlags: trace.FlagsSampled,
	}))

	ev, err := NewEvent("user.registered", "u", "user", "svc", struct{}{})
	require.NoError(t, err)
	msg, err := Message(ctx, "t", ev)
	require.NoError(t, err)

	// Inject through an explicit propagator; the global one may be a no-op in tests.
	propagation.TraceContext{}.Inject(ctx, NewHeaderCarrier(&msg))
	assert.Contains(t, header(msg, "traceparent"), "4bf92f3577b34da6a3ce929d0e0e4736")

	extracted := propagation.TraceContext{}.Extract(context.Background(), NewHeaderCarrier(&msg))
	assert.Equal(t, traceID, trace.SpanContextFromContext(extracted).TraceID())
}

func TestHeaderCarrier(t *testing.T) {
	msg := kafka.Message{Headers: []kafka.Header{{Key: "existing", Value: []byte("v1")}}}
	c := NewHeaderCarrier(&msg)

	assert.Equal(t, "v1", c.Get("existing"))
	assert.Equal(t, "", c.Get("missing"))

	c.Set("existing", "v2")
	c.Set("new", "x")
	assert.Equal(t, "v2", c.Get("existing"))
	assert.ElementsMatch(t, []string{"existing", "new"}, c.Keys())
	assert.Len(t, msg.Headers, 2)
}

func TestPingBrokers_NoBrokers(t *testing.T) {
	assert.Error(t, PingBrokers(context.Background(), nil))
}
