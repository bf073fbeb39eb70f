// Package handler turns Pub/Sub push deliveries into job executions.
package handler

import (
	"context"
	"log/slog"
	"net/http"
	"strings"

	"tradepost/config"
	deliverycontext "tradepost/internal/delivery/context"
	"tradepost/internal/domain/constants"
	"tradepost/internal/domain/service"
	"tradepost/internal/infra/pubsub"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"
	"go.uber.org/fx"
	"google.golang.org/api/idtoken"
)

// TokenVerifier checks the OIDC token Google attaches to push requests.
type TokenVerifier func(req *http.Request) error

// PushHandler runs jobs delivered by a Pub/Sub push subscription.
type PushHandler struct {
	verify  TokenVerifier
	logger  *slog.Logger
	handler service.JobHandler
}

type PushHandlerParams struct {
	fx.In

	Config  *config.Config
	Logger  *slog.Logger
	Handler service.JobHandler
}

// NewPushHandler only verifies push tokens for the google provider outside development.
func NewPushHandler(params PushHandlerParams) *PushHandler {
	var verify TokenVerifier
	if params.Config.PubSub != nil &&
		params.Config.PubSub.Provider == constants.PubSubProviderGoogle &&
		params.Config.Env.Env != constants.EnvDevelop {
		verify = verifyPubSubToken
	}

	return NewPushHandlerWithVerifier(params.Handler, params.Logger, verify)
}

// NewPushHandlerWithVerifier accepts a nil verifier to skip authentication.
func NewPushHandlerWithVerifier(handler service.JobHandler, logger *slog.Logger, verify TokenVerifier) *PushHandler {
	return &PushHandler{
		verify:  verify,
		logger:  logger,
		handler: handler,
	}
}

// HandlePush answers 503 when the job should be redelivered and 2xx otherwise.
func (h *PushHandler) HandlePush(c echo.Context) error {
	ctx := c.Request().Context()
	logger := deliverycontext.GetLoggerOrDefault(ctx, h.logger)

	if h.verify != nil {
		if err := h.verify(c.Request()); err != nil {
			logger.Warn("[Worker] Invalid Pub/Sub token", slog.Any("error", err))

			return c.NoContent(http.StatusUnauthorized)
		}
	}

	var pushMsg pubsub.PushMessage
	if err := c.Bind(&pushMsg); err != nil {
		logger.Error("[Worker] Failed to parse push message", slog.Any("error", err))

		return c.NoContent(http.StatusBadRequest)
	}

	job, err := pushMsg.DecodeJob()
	if err != nil {
		logger.Error("[Worker] Dropping undecodable message", slog.Any("error", err))

		return c.NoContent(http.StatusBadRequest)
	}

	job.RequestID = h.extractRequestID(ctx, &pushMsg, job)
	reqLogger := h.logger.With(slog.String("request_id", job.RequestID))
	ctx = deliverycontext.WithRequestID(ctx, job.RequestID)
	ctx = deliverycontext.WithLogger(ctx, reqLogger)

	reqLogger.Info("[Worker] Processing job",
		slog.String("job_id", job.JobID),
		slog.String("type", job.Type),
	)

	if err := h.handler.HandleJob(ctx, job); err != nil {
		reqLogger.Error("[Worker] Job failed, requesting redelivery",
			slog.String("job_id", job.JobID),
			slog.Any("error", err),
		)

		return c.NoContent(http.StatusServiceUnavailable)
	}

	return c.NoContent(http.StatusNoContent)
}

// extractRequestID prefers message attributes, then the job body, then the inbound header.
func (h *PushHandler) extractRequestID(ctx context.Context, pushMsg *pubsub.PushMessage, job *service.Job) string {
	if requestID := pushMsg.Message.Attributes["request_id"]; requestID != "" {
		return requestID
	}
	if job.RequestID != "" {
		return job.RequestID
	}
	if requestID := deliverycontext.GetRequestIDFromContext(ctx); requestID != "" {
		return requestID
	}

	return uuid.New().String()
}

// verifyPubSubToken validates the push JWT against this endpoint's URL.
// See https://cloud.google.com/pubsub/docs/push#authenticating_standard_push_requests
func verifyPubSubToken(req *http.Request) error {
	token, found := strings.CutPrefix(req.Header.Get(echo.HeaderAuthorization), "Bearer ")
	if !found || token == "" {
		return errors.New("missing bearer token")
	}

	scheme := "https"
	if req.TLS == nil {
		scheme = "http"
	}
	audience := scheme + "://" + req.Host + req.URL.Path

	payload, err := idtoken.Validate(req.Context(), token, audience)
	if err != nil {
		return errors.Wrap(err, "failed to validate token")
	}

	if payload.Issuer != "accounts.google.com" && payload.Issuer != "https://accounts.google.com" {
		return errors.Errorf("invalid issuer: %s", payload.Issuer)
	}
	if emailVerified, ok := payload.Claims["email_verified"].(bool); ok && !emailVerified {
		return errors.New("email not verified")
	}

	return nil
}
