package pubsub

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"wallet/config"
	"wallet/internal/domain/service"
)

func TestLocalHTTPPublisher_PublishAuthEvent(t *testing.T) {
	var received PushEnvelope
	var requestID string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		requestID = r.Header.Get("X-Request-Id")
		body, _ := io.ReadAll(r.Body)
		_ = json.Unmarshal(body, &received)
		w.WriteHeader(http.StatusNoContent)
	}))
	defer server.Close()

	publisher := NewLocalHTTPPublisher(server.URL, slog.New(slog.DiscardHandler))
	event := &service.AuthEvent{
		RequestID:  "req-1",
		EventID:    "evt-1",
		Type:       service.AuthEventLoginFailed,
		AccountID:  "acc-1",
		Reason:     "invalid_credentials",
		OccurredAt: time.Now().UTC(),
	}

	require.NoError(t, publisher.PublishAuthEvent(context.Background(), event))
	assert.Equal(t, "req-1", requestID)
	assert.Equal(t, "evt-1", received.Message.MessageID)
	assert.Equal(t, "login.failed", received.Message.Attributes["event_type"])
	assert.Equal(t, "acc-1", received.Attribute("account_id"))

	var decoded service.AuthEvent
	require.NoError(t, received.Decode(&decoded))
	assert.Equal(t, service.AuthEventLoginFailed, decoded.Type)
	assert.Equal(t, "invalid_credentials", decoded.Reason)
}

func TestLocalHTTPPublisher_RetriesServerErrors(t *testing.T) {
	var calls atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		if calls.Add(1) == 1 {
			w.WriteHeader(http.StatusServiceUnavailable)

			return
		}
		w.WriteHeader(http.StatusOK)
	}))
	defer server.Close()

	publisher := newLocalHTTPPublisher(server.URL, slog.New(slog.DiscardHandler), time.Millisecond)
	err := publisher.PublishAuthEvent(context.Background(), &service.AuthEvent{EventID: "e", Type: service.AuthEventRegistered})

	require.NoError(t, err)
	assert.Equal(t, int32(2), calls.Load())
}

func TestLocalHTTPPublisher_NonSuccessStatus(t *testing.T) {
	tests := []struct {
		name      string
		status    int
		wantCalls int32
	}{
		{"server error retried then given up", http.StatusInternalServerError, 3},
		{"client error not retried", http.StatusBadRequest, 1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var calls atomic.Int32
			server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
				calls.Add(1)
				w.WriteHeader(tt.status)
			}))
			defer server.Close()

			publisher := newLocalHTTPPublisher(server.URL, slog.New(slog.DiscardHandler), time.Millisecond)
			err := publisher.PublishAuthEvent(context.Background(), &service.AuthEvent{EventID: "e", Type: service.AuthEventRegistered})

			assert.Error(t, err)
			assert.Equal(t, tt.wantCalls, calls.Load())
		})
	}
}

func TestNewEventPublisher_SelectsProvider(t *testing.T) {
	logger := slog.New(slog.DiscardHandler)

	cfg := &config.Config{}
	publisher, err := NewEventPublisher(PublisherParams{Ctx: context.Background(), Config: cfg, Logger: logger})
	require.NoError(t, err)
	assert.IsType(t, &noopPublisher{}, publisher)
	assert.NoError(t, publisher.PublishAuthEvent(context.Background(), &service.AuthEvent{}))

	cfg.Audit = &config.AuditConfig{Provider: "local"}
	_, err = NewEventPublisher(PublisherParams{Ctx: context.Background(), Config: cfg, Logger: logger})
	assert.Error(t, err)

	cfg.Audit = &config.AuditConfig{Provider: "google", ProjectID: "p"}
	_, err = NewEventPublisher(PublisherParams{Ctx: context.Background(), Config: cfg, Logger: logger})
	assert.Error(t, err)

	cfg.Audit = &config.AuditConfig{Provider: "kafka"}
	_, err = NewEventPublisher(PublisherParams{Ctx: context.Background(), Config: cfg, Logger: logger})
	assert.Error(t, err)
}
