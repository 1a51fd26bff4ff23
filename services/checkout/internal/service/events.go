package service

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/Skotchmaster/storefront/pkg/outbox"
	"github.com/Skotchmaster/storefront/services/checkout/internal/models"
	"github.com/Skotchmaster/storefront/services/checkout/internal/repo"
)

const (
	TopicOrderEvents     = "order_events"
	TopicInventoryEvents = "inventory_events"

	EventOrderCreated       = "order_created"
	EventOrderConfirmed     = "order_confirmed"
	EventOrderFailed        = "order_failed"
	EventOrderStatusChanged = "order_status_changed"
	EventStockRestocked     = "stock_restocked"

	aggregateOrder   = "order"
	aggregateProduct = "product"
)

type OrderEvent struct {
	OrderID       uuid.UUID            `json:"order_id"`
	UserID        uuid.UUID            `json:"user_id"`
	Status        models.OrderStatus   `json:"status"`
	PaymentStatus models.PaymentStatus `json:"payment_status"`
	Total         decimal.Decimal      `json:"total"`
	Currency      string               `json:"currency"`
	Reason        string               `json:"reason,omitempty"`
	Demand        map[uint]int         `json:"demand,omitempty"`
	At            time.Time            `json:"at"`
}

func orderEvent(o *models.Order, reason string) OrderEvent {
	return OrderEvent{
		OrderID:       o.ID,
		UserID:        o.UserID,
		Status:        o.Status,
		PaymentStatus: o.PaymentStatus,
		Total:         o.Total,
		Currency:      o.Currency,
		Reason:        reason,
		At:            time.Now().UTC(),
	}
}

// emit stores the event on tx. A nil outbox disables events.
func emit(ctx context.Context, tx *repo.GormRepo, ob outbox.Repository, aggType, aggID, eventType, topic string, payload any) error {
	if ob == nil {
		return nil
	}
	ev, err := outbox.NewEvent(aggType, aggID, eventType, topic, payload)
	if err != nil {
		return err
	}
	return ob.Save(ctx, tx.DB, ev)
}
