package notify

import (
	"bytes"
	"context"
	"errors"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	pkgkafka "github.com/utafrali/CompanyDirectory/pkg/kafka"
)

type recordingWriter struct {
	topic string
	event *pkgkafka.Event
	err   error
}

func (w *recordingWriter) Publish(_ context.Context, topic string, ev *pkgkafka.Event) error {
	w.topic, w.event = topic, ev
	return w.err
}

func TestVerificationLink(t *testing.T) {
	tests := []struct {
		name  string
		base  string
		token string
		want  string
	}{
		{"plain", "http://localhost:5001/api/auth/verify-email", "abc.def.ghi", "http://localhost:5001/api/auth/verify-email?token=abc.def.ghi"},
		{"escapes", "https://app.example.com/verify", "a+b/c=", "https://app.example.com/verify?token=a%2Bb%2Fc%3D"},
		{"keeps query", "https://app.example.com/verify?lang=en", "t", "https://app.example.com/verify?lang=en&token=t"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := VerificationLink(tt.base, tt.token)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}

	_, err := VerificationLink("://bad", "t")
	assert.Error(t, err)
}

func TestLogSender_DoesNotLogBody(t *testing.T) {
	var buf bytes.Buffer
	s := NewLogSender(slog.New(slog.NewJSONHandler(&buf, nil)))

	email := VerificationEmail("ada@example.com", "http://x/verify?token=secret-token")
	require.NoError(t, s.Send(context.Background(), email))

	assert.Contains(t, buf.String(), "ada@example.com")
	assert.NotContains(t, buf.String(), "secret-token")
	assert.Equal(t, "log", s.Name())
}

func TestKafkaSender(t *testing.T) {
	w := &recordingWriter{}
	s := NewKafkaSender(w, "company-directory")

	require.NoError(t, s.Send(context.Background(), VerificationEmail("ada@example.com", "http://x?token=t")))
	assert.Equal(t, "companydir.notification.email_requested", w.topic)
	assert.Equal(t, "ada@example.com", w.event.AggregateID)

	var got Email
	require.NoError(t, w.event.UnmarshalData(&got))
	assert.Contains(t, got.Body, "http://x?token=t")

	w.err = errors.New("no leader")
	assert.Error(t, s.Send(context.Background(), VerificationEmail("a@b.c", "l")))
}
