package pubsub

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"log/slog"
	"net/http"
	"time"

	"wallet/internal/domain/service"
	"wallet/internal/errors"

	"github.com/sethvargo/go-retry"
)

const (
	localPublishTimeout = 2 * time.Second
	localMaxRetries     = 2
	localRetryBase      = 100 * time.Millisecond
	localSubscription   = "projects/local/subscriptions/auth-audit-sub"
)

// localHTTPPublisher pushes events straight to the audit worker in the same
// envelope Google Pub/Sub push subscriptions use, so the worker runs unchanged
// in development. A 5xx answer is retried the way Pub/Sub would redeliver.
type localHTTPPublisher struct {
	endpoint   string
	httpClient *http.Client
	retryBase  time.Duration
	logger     *slog.Logger
}

// NewLocalHTTPPublisher creates a publisher posting to endpoint.
func NewLocalHTTPPublisher(endpoint string, logger *slog.Logger) service.EventPublisher {
	return newLocalHTTPPublisher(endpoint, logger, localRetryBase)
}

func newLocalHTTPPublisher(endpoint string, logger *slog.Logger, retryBase time.Duration) *localHTTPPublisher {
	return &localHTTPPublisher{
		endpoint:   endpoint,
		httpClient: &http.Client{Timeout: localPublishTimeout},
		retryBase:  retryBase,
		logger:     logger,
	}
}

// PublishAuthEvent posts event to the endpoint, retrying on 5xx and transport errors.
func (p *localHTTPPublisher) PublishAuthEvent(ctx context.Context, event *service.AuthEvent) error {
	body, err := encodePushMessage(event)
	if err != nil {
		return err
	}

	ctx, cancel := context.WithTimeout(ctx, localPublishTimeout)
	defer cancel()

	backoff := retry.WithMaxRetries(localMaxRetries, retry.NewExponential(p.retryBase))
	err = retry.Do(ctx, backoff, func(ctx context.Context) error {
		return p.post(ctx, body, event.RequestID)
	})
	if err != nil {
		return errors.Wrapf(err, "publish %s", event.Type)
	}

	p.logger.Debug("[LocalPubSub] Audit event published",
		slog.String("event_type", string(event.Type)),
		slog.String("event_id", event.EventID),
	)

	return nil
}

func (p *localHTTPPublisher) post(ctx context.Context, body []byte, requestID string) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, p.endpoint, bytes.NewReader(body))
	if err != nil {
		return errors.WithStack(err)
	}
	req.Header.Set("Content-Type", "application/json")
	if requestID != "" {
		req.Header.Set("X-Request-Id", requestID)
	}

	resp, err := p.httpClient.Do(req)
	if err != nil {
		return retry.RetryableError(errors.WithStack(err))
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode >= 500:
		return retry.RetryableError(errors.Errorf("audit endpoint returned %d", resp.StatusCode))
	case resp.StatusCode >= 300:
		return errors.Errorf("audit endpoint returned %d", resp.StatusCode)
	default:
		return nil
	}
}

func encodePushMessage(event *service.AuthEvent) ([]byte, error) {
	eventData, err := json.Marshal(event)
	if err != nil {
		return nil, errors.WithStack(err)
	}

	msg := PushEnvelope{Subscription: localSubscription}
	msg.Message.Data = base64.StdEncoding.EncodeToString(eventData)
	msg.Message.MessageID = event.EventID
	msg.Message.PublishTime = time.Now().UTC().Format(time.RFC3339)
	msg.Message.Attributes = eventAttributes(event)

	body, err := json.Marshal(msg)

	return body, errors.WithStack(err)
}

// Close is a no-op.
func (p *localHTTPPublisher) Close() error {
	return nil
}
