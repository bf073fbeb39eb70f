package postgres

import (
	"context"

	"tradepost/internal/domain/entity"
	domainerrors "tradepost/internal/domain/errors"
	"tradepost/internal/domain/repository"
	"tradepost/internal/infra/persistence/model"

	"github.com/google/uuid"
	"github.com/pkg/errors"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// orderRepository implements the repository.OrderRepository interface.
type orderRepository struct {
	db *gorm.DB
}

// NewOrderRepository is the constructor for orderRepository.
func NewOrderRepository(db *gorm.DB) repository.OrderRepository {
	return &orderRepository{db: db}
}

// Create inserts the order together with its item snapshots.
func (repo *orderRepository) Create(ctx context.Context, order *entity.Order) error {
	if order.ID == uuid.Nil {
		order.ID = uuid.New()
	}
	for _, oi := range order.Items {
		if oi.ID == uuid.Nil {
			oi.ID = uuid.New()
		}
		oi.OrderID = order.ID
	}
	orderM := fromOrderDomain(order)

	if err := repo.db.WithContext(ctx).Create(orderM).Error; err != nil {
		return domainerrors.NewDatabaseExecuteError(err, "failed to create order")
	}
	order.CreatedAt = orderM.CreatedAt
	order.UpdatedAt = orderM.UpdatedAt

	return nil
}

// FindByID loads an order with its items.
func (repo *orderRepository) FindByID(ctx context.Context, id uuid.UUID) (*entity.Order, error) {
	return repo.first(repo.db.WithContext(ctx), id)
}

// FindByIDForUpdate loads an order with its items and locks the order row.
func (repo *orderRepository) FindByIDForUpdate(ctx context.Context, id uuid.UUID) (*entity.Order, error) {
	return repo.first(repo.db.WithContext(ctx).Clauses(clause.Locking{Strength: "UPDATE"}), id)
}

func (repo *orderRepository) first(db *gorm.DB, id uuid.UUID) (*entity.Order, error) {
	var orderM model.OrderModel
	if err := db.Preload("Items").Where("id = ?", id).First(&orderM).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, domainerrors.ErrOrderNotFound
		}

		return nil, errors.Wrap(err, "failed to find order by ID")
	}

	return toOrderDomain(&orderM), nil
}

// ListByBuyer returns a buyer's orders newest first.
func (repo *orderRepository) ListByBuyer(ctx context.Context, buyerID uuid.UUID, limit, offset int) ([]*entity.Order, error) {
	var orderModels []*model.OrderModel
	if err := repo.db.WithContext(ctx).
		Preload("Items").
		Where("buyer_id = ?", buyerID).
		Order("created_at DESC").
		Limit(pageLimit(limit)).
		Offset(max(offset, 0)).
		Find(&orderModels).Error; err != nil {
		return nil, errors.Wrap(err, "failed to list orders")
	}

	orders := make([]*entity.Order, 0, len(orderModels))
	for _, orderM := range orderModels {
		orders = append(orders, toOrderDomain(orderM))
	}

	return orders, nil
}

// Update writes the status columns of an order.
func (repo *orderRepository) Update(ctx context.Context, order *entity.Order) error {
	result := repo.db.WithContext(ctx).
		Model(&model.OrderModel{}).
		Where("id = ?", order.ID).
		Updates(map[string]any{
			"status":              string(order.Status),
			"cancellation_reason": order.CancellationReason,
			"shipped_at":          order.ShippedAt,
			"delivered_at":        order.DeliveredAt,
			"completed_at":        order.CompletedAt,
			"cancelled_at":        order.CancelledAt,
		})
	if result.Error != nil {
		return errors.Wrap(result.Error, "failed to update order")
	}
	if result.RowsAffected == 0 {
		return domainerrors.ErrOrderNotFound
	}

	return nil
}

// --- Mapper Functions ---

func toOrderDomain(data *model.OrderModel) *entity.Order {
	if data == nil {
		return nil
	}

	items := make([]*entity.OrderItem, 0, len(data.Items))
	for i := range data.Items {
		oi := &data.Items[i]
		items = append(items, &entity.OrderItem{
			ID:         oi.ID,
			OrderID:    oi.OrderID,
			ItemID:     oi.ItemID,
			ItemNumber: oi.ItemNumber,
			Name:       oi.Name,
			Value:      oi.Value,
			Condition:  entity.Condition(oi.Condition),
			Category:   entity.Category(oi.Category),
			Quantity:   oi.Quantity,
		})
	}

	return &entity.Order{
		ID:      data.ID,
		BuyerID: data.BuyerID,
		Total:   data.Total,
		Delivery: entity.Delivery{
			Method:  entity.DeliveryMethod(data.DeliveryMethod),
			Address: data.DeliveryAddress,
			Station: data.PickupStation,
		},
		Status:             entity.OrderStatus(data.Status),
		CancellationReason: data.CancellationReason,
		CheckoutToken:      data.CheckoutToken,
		Items:              items,
		CreatedAt:          data.CreatedAt,
		UpdatedAt:          data.UpdatedAt,
		ShippedAt:          data.ShippedAt,
		DeliveredAt:        data.DeliveredAt,
		CompletedAt:        data.CompletedAt,
		CancelledAt:        data.CancelledAt,
	}
}

func fromOrderDomain(data *entity.Order) *model.OrderModel {
	if data == nil {
		return nil
	}

	items := make([]model.OrderItemModel, 0, len(data.Items))
	for _, oi := range data.Items {
		qty := oi.Quantity
		if qty <= 0 {
			qty = 1
		}
		items = append(items, model.OrderItemModel{
			ID:         oi.ID,
			OrderID:    oi.OrderID,
			ItemID:     oi.ItemID,
			ItemNumber: oi.ItemNumber,
			Name:       oi.Name,
			Value:      oi.Value,
			Condition:  string(oi.Condition),
			Category:   string(oi.Category),
			Quantity:   qty,
		})
	}

	return &model.OrderModel{
		ID:                 data.ID,
		BuyerID:            data.BuyerID,
		Total:              data.Total,
		DeliveryMethod:     string(data.Delivery.Method),
		DeliveryAddress:    data.Delivery.Address,
		PickupStation:      data.Delivery.Station,
		Status:             string(data.Status),
		CancellationReason: data.CancellationReason,
		CheckoutToken:      data.CheckoutToken,
		Items:              items,
		CreatedAt:          data.CreatedAt,
		UpdatedAt:          data.UpdatedAt,
		ShippedAt:          data.ShippedAt,
		DeliveredAt:        data.DeliveredAt,
		CompletedAt:        data.CompletedAt,
		CancelledAt:        data.CancelledAt,
	}
}
