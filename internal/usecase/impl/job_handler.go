package impl

import (
	"context"
	"log/slog"

	deliverycontext "tradepost/internal/delivery/context"
	"tradepost/internal/domain/constants"
	domainerrors "tradepost/internal/domain/errors"
	"tradepost/internal/domain/service"
	"tradepost/internal/usecase"

	"github.com/google/uuid"
	"github.com/pkg/errors"
)

type jobHandler struct {
	matcher usecase.WishlistMatcher
	logger  *slog.Logger
}

// NewJobHandler routes background jobs to the use case that runs them.
func NewJobHandler(matcher usecase.WishlistMatcher, logger *slog.Logger) service.JobHandler {
	return &jobHandler{matcher: matcher, logger: logger}
}

// HandleJob runs one job. Malformed jobs are dropped without an error so they are not redelivered.
func (h *jobHandler) HandleJob(ctx context.Context, job *service.Job) error {
	if job.RequestID != "" {
		ctx = deliverycontext.WithRequestID(ctx, job.RequestID)
	}
	logger := deliverycontext.GetLoggerOrDefault(ctx, h.logger).With(
		slog.String("jobID", job.JobID),
		slog.String("jobType", job.Type),
	)

	switch job.Type {
	case constants.JobTypeWishlistMatch:
		itemID, err := uuid.Parse(job.ItemID)
		if err != nil {
			logger.Warn("Dropping wishlist job with invalid item id", slog.String("itemID", job.ItemID))

			return nil
		}
		created, err := h.matcher.MatchItem(ctx, itemID)
		if errors.Is(err, domainerrors.ErrItemNotFound) {
			logger.Warn("Dropping wishlist job for missing item", slog.String("itemID", itemID.String()))

			return nil
		}
		if err != nil {
			return errors.Wrapf(err, "wishlist match for item %s", itemID)
		}
		logger.Debug("Wishlist job done", slog.Int("created", created))

		return nil
	default:
		logger.Warn("Dropping job of unknown type")

		return nil
	}
}
