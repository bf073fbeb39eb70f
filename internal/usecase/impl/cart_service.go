package impl

import (
	"context"
	"log/slog"

	deliverycontext "tradepost/internal/delivery/context"
	"tradepost/internal/domain/entity"
	domainerrors "tradepost/internal/domain/errors"
	"tradepost/internal/domain/repository"
	"tradepost/internal/domain/service"
	"tradepost/internal/usecase"

	"github.com/google/uuid"
	"github.com/pkg/errors"
	"go.uber.org/fx"
)

type cartService struct {
	cartRepo repository.CartRepository
	itemRepo repository.ItemRepository
	clock    service.Clock
	logger   *slog.Logger
}

// CartServiceParams holds dependencies for CartService, injected by Fx.
type CartServiceParams struct {
	fx.In

	CartRepo repository.CartRepository
	ItemRepo repository.ItemRepository
	Clock    service.Clock
	Logger   *slog.Logger
}

// NewCartService creates a new cart service instance
func NewCartService(params CartServiceParams) usecase.CartUsecase {
	return &cartService{
		cartRepo: params.CartRepo,
		itemRepo: params.ItemRepo,
		clock:    params.Clock,
		logger:   params.Logger,
	}
}

func (srv *cartService) log(ctx context.Context) *slog.Logger {
	return deliverycontext.GetLoggerOrDefault(ctx, srv.logger)
}

// AddItem puts a listed item in the cart. Adding it twice is a no-op.
func (srv *cartService) AddItem(ctx context.Context, userID, itemID uuid.UUID) (*entity.Cart, error) {
	item, err := srv.itemRepo.FindByID(ctx, itemID)
	if errors.Is(err, domainerrors.ErrItemNotFound) {
		return nil, domainerrors.NewItemNotAvailableError(itemID)
	}
	if err != nil {
		return nil, err
	}
	if !item.Listed() {
		return nil, domainerrors.NewItemNotAvailableError(itemID)
	}
	if item.UploaderID == userID {
		return nil, domainerrors.ErrOwnItem
	}

	added, err := srv.cartRepo.Add(ctx, &entity.CartItem{UserID: userID, ItemID: itemID, AddedAt: srv.clock.Now()})
	if err != nil {
		return nil, err
	}
	if added {
		srv.log(ctx).Debug("Item added to cart", slog.String("userID", userID.String()), slog.String("itemID", itemID.String()))
	}

	return srv.GetCart(ctx, userID)
}

func (srv *cartService) RemoveItem(ctx context.Context, userID, itemID uuid.UUID) (*entity.Cart, error) {
	if err := srv.cartRepo.Remove(ctx, userID, itemID); err != nil {
		return nil, err
	}

	return srv.GetCart(ctx, userID)
}

// GetCart returns the cart with the total of the items still listed.
// Rows whose item is gone from the marketplace are reported, not dropped.
func (srv *cartService) GetCart(ctx context.Context, userID uuid.UUID) (*entity.Cart, error) {
	items, err := srv.cartRepo.ListByUser(ctx, userID)
	if err != nil {
		return nil, err
	}

	cart := &entity.Cart{UserID: userID, Items: items}
	for _, ci := range items {
		if ci.Item == nil || !ci.Item.Listed() {
			cart.Unavailable = append(cart.Unavailable, ci.ItemID)

			continue
		}
		cart.Total += ci.Item.AppraisedValue
	}

	return cart, nil
}
