// Package notification delivers push messages to registered devices.
package notification

import (
	"context"
	"log/slog"

	"tradepost/config"
	"tradepost/internal/domain/service"

	firebase "firebase.google.com/go/v4"
	"firebase.google.com/go/v4/messaging"
	"github.com/pkg/errors"
	"google.golang.org/api/option"
)

// maxMulticastTokens is the Firebase limit per multicast request.
const maxMulticastTokens = 500

// multicastSender is the part of the messaging client the service needs.
type multicastSender interface {
	SendEachForMulticast(ctx context.Context, message *messaging.MulticastMessage) (*messaging.BatchResponse, error)
}

type firebaseService struct {
	client multicastSender
	logger *slog.Logger
}

// NewFirebaseService creates the push service. It returns nil when Firebase is not configured,
// which callers treat as push delivery being disabled.
func NewFirebaseService(ctx context.Context, cfg *config.Config, logger *slog.Logger) (service.PushService, error) {
	if cfg.Firebase == nil || cfg.Firebase.CredentialsPath == "" {
		logger.Info("Firebase not configured, push notifications disabled")

		return nil, nil
	}

	var appCfg *firebase.Config
	if cfg.Firebase.ProjectID != "" {
		appCfg = &firebase.Config{ProjectID: cfg.Firebase.ProjectID}
	}

	app, err := firebase.NewApp(ctx, appCfg, option.WithCredentialsFile(cfg.Firebase.CredentialsPath))
	if err != nil {
		return nil, errors.Wrap(err, "failed to initialize Firebase app")
	}

	client, err := app.Messaging(ctx)
	if err != nil {
		return nil, errors.Wrap(err, "failed to get messaging client")
	}

	return &firebaseService{client: client, logger: logger}, nil
}

// Push splits the tokens into multicast requests of at most 500 tokens. A transport
// error aborts the remaining batches and returns the partial report.
func (s *firebaseService) Push(ctx context.Context, msg *service.PushMessage) (*service.PushReport, error) {
	report := &service.PushReport{}
	notification := &messaging.Notification{Title: msg.Title, Body: msg.Body}

	for _, batch := range chunkTokens(msg.Tokens, maxMulticastTokens) {
		resp, err := s.client.SendEachForMulticast(ctx, &messaging.MulticastMessage{
			Tokens:       batch,
			Notification: notification,
			Data:         msg.Data,
		})
		if err != nil {
			return report, errors.Wrap(err, "failed to send multicast notification")
		}

		report.Sent += resp.SuccessCount
		report.Failed += resp.FailureCount
		report.Invalid = append(report.Invalid, collectInvalidTokens(batch, resp)...)
	}

	if report.Failed > 0 {
		s.logger.WarnContext(ctx, "Push partially failed",
			slog.Int("failed", report.Failed),
			slog.Int("invalid", len(report.Invalid)),
		)
	}

	return report, nil
}

func chunkTokens(tokens []string, size int) [][]string {
	var batches [][]string
	for start := 0; start < len(tokens); start += size {
		end := min(start+size, len(tokens))
		batches = append(batches, tokens[start:end])
	}

	return batches
}

// collectInvalidTokens returns tokens Firebase reported as invalid or unregistered
func collectInvalidTokens(tokens []string, response *messaging.BatchResponse) []string {
	var invalid []string
	for idx, sendResponse := range response.Responses {
		if sendResponse.Error == nil || idx >= len(tokens) {
			continue
		}
		if messaging.IsInvalidArgument(sendResponse.Error) || messaging.IsUnregistered(sendResponse.Error) {
			invalid = append(invalid, tokens[idx])
		}
	}

	return invalid
}
