package entity

import (
	"fmt"
	"slices"
	"strings"
	"time"

	"github.com/google/uuid"

	domainerrors "tradepost/internal/domain/errors"
)

// OrderStatus is the fulfilment state of an order.
type OrderStatus string

const (
	OrderStatusProcessing OrderStatus = "processing"
	OrderStatusShipped    OrderStatus = "shipped"
	OrderStatusDelivered  OrderStatus = "delivered"
	OrderStatusCompleted  OrderStatus = "completed"
	OrderStatusCancelled  OrderStatus = "cancelled"
)

// DeliveryMethod is how the buyer receives an order.
type DeliveryMethod string

const (
	DeliveryHome   DeliveryMethod = "home"
	DeliveryPickup DeliveryMethod = "pickup"
)

const (
	minDeliveryAddressLen = 5
	maxDeliveryAddressLen = 300
)

// PickupStations are the stations buyers may collect from.
var PickupStations = []string{
	"ST-01", "ST-02", "ST-03", "ST-04", "ST-05",
	"ST-06", "ST-07", "ST-08", "ST-09", "ST-10",
}

// Delivery carries the buyer's delivery choice.
type Delivery struct {
	Method  DeliveryMethod
	Address string
	Station string
}

// Normalize validates the delivery choice and drops the field the method does not use.
func (d Delivery) Normalize() (Delivery, error) {
	switch d.Method {
	case DeliveryHome:
		addr := strings.TrimSpace(d.Address)
		if len(addr) < minDeliveryAddressLen || len(addr) > maxDeliveryAddressLen {
			return Delivery{}, domainerrors.ErrInvalidDelivery.WithDetails("address must be 5..300 characters")
		}

		return Delivery{Method: DeliveryHome, Address: addr}, nil
	case DeliveryPickup:
		station := strings.ToUpper(strings.TrimSpace(d.Station))
		if !slices.Contains(PickupStations, station) {
			return Delivery{}, domainerrors.ErrInvalidDelivery.WithDetails("unknown pickup station " + d.Station)
		}

		return Delivery{Method: DeliveryPickup, Station: station}, nil
	default:
		return Delivery{}, domainerrors.ErrInvalidDelivery.WithDetails(fmt.Sprintf("unknown delivery method %q", d.Method))
	}
}

// Order is the result of one checkout.
type Order struct {
	ID                 uuid.UUID
	BuyerID            uuid.UUID
	Total              int64
	Delivery           Delivery
	Status             OrderStatus
	CancellationReason string
	CheckoutToken      string
	Items              []*OrderItem
	CreatedAt          time.Time
	UpdatedAt          time.Time
	ShippedAt          *time.Time
	DeliveredAt        *time.Time
	CompletedAt        *time.Time
	CancelledAt        *time.Time
}

// OrderItem snapshots an item as it was sold.
type OrderItem struct {
	ID         uuid.UUID
	OrderID    uuid.UUID
	ItemID     uuid.UUID
	ItemNumber string
	Name       string
	Value      int64
	Condition  Condition
	Category   Category
	Quantity   int
}

var orderForward = map[OrderStatus]OrderStatus{
	OrderStatusProcessing: OrderStatusShipped,
	OrderStatusShipped:    OrderStatusDelivered,
	OrderStatusDelivered:  OrderStatusCompleted,
}

// Transition moves the order forward one step or cancels it.
func (o *Order) Transition(to OrderStatus, reason string, now time.Time) error {
	if to == OrderStatusCancelled {
		if o.Status != OrderStatusProcessing && o.Status != OrderStatusShipped {
			return domainerrors.ErrInvalidOrderTransition.WithDetails(
				fmt.Sprintf("cannot cancel order in status %s", o.Status))
		}
		reason = strings.TrimSpace(reason)
		if reason == "" {
			return domainerrors.NewValidationError("reason", "required when cancelling")
		}
		o.Status = OrderStatusCancelled
		o.CancellationReason = reason
		o.CancelledAt = &now

		return nil
	}

	if next, ok := orderForward[o.Status]; !ok || next != to {
		return domainerrors.ErrInvalidOrderTransition.WithDetails(
			fmt.Sprintf("cannot move order from %s to %s", o.Status, to))
	}

	o.Status = to
	switch to {
	case OrderStatusShipped:
		o.ShippedAt = &now
	case OrderStatusDelivered:
		o.DeliveredAt = &now
	case OrderStatusCompleted:
		o.CompletedAt = &now
	}

	return nil
}
