// Package handler serves Pub/Sub push deliveries of auth audit events.
package handler

import (
	"context"
	"log/slog"
	"net/http"

	"wallet/config"
	deliverycontext "wallet/internal/delivery/context"
	"wallet/internal/domain/constants"
	"wallet/internal/domain/service"
	"wallet/internal/errors"
	"wallet/internal/infra/audit"
	"wallet/internal/infra/pubsub"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	"go.uber.org/fx"
	"google.golang.org/api/idtoken"
)

// transientError marks a failure Pub/Sub should redeliver.
type transientError struct {
	err error
}

func (e *transientError) Error() string { return "transient: " + e.err.Error() }

func (e *transientError) Unwrap() error { return e.err }

func isTransient(err error) bool {
	var te *transientError

	return errors.As(err, &te)
}

// PushHandler archives auth events pushed by Pub/Sub
type PushHandler struct {
	verifyPushAuth bool
	validateToken  tokenValidator
	logger         *slog.Logger
	archive        service.AuditArchive
}

// PushHandlerParams holds dependencies for the PushHandler
type PushHandlerParams struct {
	fx.In

	Config  *config.Config
	Logger  *slog.Logger
	Archive service.AuditArchive
}

// NewPushHandler creates a new Pub/Sub push handler
func NewPushHandler(params PushHandlerParams) *PushHandler {
	// Only real Google pushes carry an OIDC token
	verifyPushAuth := params.Config.Audit != nil &&
		params.Config.Audit.Provider == constants.PubSubProviderGoogle &&
		params.Config.Env.Env != constants.EnvLocal

	return &PushHandler{
		verifyPushAuth: verifyPushAuth,
		validateToken:  idtoken.Validate,
		logger:         params.Logger,
		archive:        params.Archive,
	}
}

// HandlePush acks with 200 once the event is archived or can never be,
// and answers 503 so Pub/Sub redelivers after a transient failure.
func (h *PushHandler) HandlePush(c echo.Context) error {
	ctx := c.Request().Context()

	if h.verifyPushAuth {
		if err := authenticatePush(c.Request(), h.validateToken); err != nil {
			h.logger.Warn("[Worker] Rejected push request", slog.Any("error", err))

			return c.NoContent(http.StatusUnauthorized)
		}
	}

	var envelope pubsub.PushEnvelope
	if err := c.Bind(&envelope); err != nil {
		h.logger.Error("[Worker] Failed to parse push message", slog.Any("error", err))

		return c.NoContent(http.StatusBadRequest)
	}

	var event service.AuthEvent
	if err := envelope.Decode(&event); err != nil {
		h.logger.Error("[Worker] Failed to decode auth event",
			slog.String("message_id", envelope.Message.MessageID),
			slog.Any("error", err),
		)

		return c.NoContent(http.StatusBadRequest)
	}

	requestID := h.extractRequestID(ctx, &envelope, &event)
	reqLogger := h.logger.With(slog.String("request_id", requestID))
	ctx = deliverycontext.WithLogger(deliverycontext.WithRequestID(ctx, requestID), reqLogger)

	if err := h.archiveEvent(ctx, &event); err != nil {
		reqLogger.Error("[Worker] Failed to archive auth event",
			slog.String("event_id", event.EventID),
			slog.String("event_type", string(event.Type)),
			slog.Bool("transient", isTransient(err)),
			slog.Any("error", err),
		)
		if isTransient(err) {
			return c.NoContent(http.StatusServiceUnavailable)
		}

		return c.NoContent(http.StatusOK)
	}

	reqLogger.Info("[Worker] Auth event archived",
		slog.String("event_id", event.EventID),
		slog.String("event_type", string(event.Type)),
	)

	return c.NoContent(http.StatusOK)
}

// extractRequestID prefers the message attribute, then the event, then the
// X-Request-Id of the push itself, and mints one as a last resort.
func (h *PushHandler) extractRequestID(ctx context.Context, envelope *pubsub.PushEnvelope, event *service.AuthEvent) string {
	for _, id := range []string{
		envelope.Attribute(constants.AttrRequestID),
		event.RequestID,
		deliverycontext.GetRequestIDFromContext(ctx),
	} {
		if id != "" {
			return id
		}
	}

	return uuid.NewString()
}

func (h *PushHandler) archiveEvent(ctx context.Context, event *service.AuthEvent) error {
	if err := audit.Validate(event); err != nil {
		return err
	}

	if err := h.archive.Store(ctx, event); err != nil {
		return &transientError{err: err}
	}

	return nil
}
