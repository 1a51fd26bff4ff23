package service

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"github.com/Skotchmaster/storefront/pkg/logging"
	"github.com/Skotchmaster/storefront/pkg/outbox"
	"github.com/Skotchmaster/storefront/services/checkout/internal/domain"
	"github.com/Skotchmaster/storefront/services/checkout/internal/models"
	"github.com/Skotchmaster/storefront/services/checkout/internal/repo"
	"github.com/Skotchmaster/storefront/services/checkout/internal/util"
)

type OrderService struct {
	Repo   *repo.GormRepo
	Outbox outbox.Repository
}

type OrderPage struct {
	Data []models.Order `json:"data"`
	Meta util.PageMeta  `json:"meta"`
}

func (s *OrderService) List(ctx context.Context, userID uuid.UUID, page, size int) (*OrderPage, error) {
	offset, limit := util.Calculate(page, size)
	orders, total, err := s.Repo.ListOrders(ctx, userID, limit, offset)
	if err != nil {
		return nil, err
	}
	if orders == nil {
		orders = []models.Order{}
	}
	return &OrderPage{Data: orders, Meta: util.Meta(page, offset, limit, total)}, nil
}

// Get hides orders of other users unless the caller is an admin.
func (s *OrderService) Get(ctx context.Context, id, userID uuid.UUID, isAdmin bool) (*models.Order, error) {
	o, err := s.Repo.GetOrder(ctx, id)
	if err != nil {
		return nil, err
	}
	if !isAdmin && o.UserID != userID {
		return nil, fmt.Errorf("order %s: %w", id, domain.ErrNotFound)
	}
	return o, nil
}

var allowedStatus = map[models.OrderStatus][]models.OrderStatus{
	models.OrderProcessing: {models.OrderCompleted, models.OrderCanceled},
}

var allowedPayment = map[models.PaymentStatus][]models.PaymentStatus{
	models.PaymentPaid: {models.PaymentRefunded},
}

func allowed[T comparable](rules map[T][]T, from, to T) bool {
	for _, t := range rules[from] {
		if t == to {
			return true
		}
	}
	return false
}

// UpdateStatus is the admin order-management transition. It never re-enters
// checkout, so stock is not returned on cancel.
func (s *OrderService) UpdateStatus(ctx context.Context, id uuid.UUID, to models.OrderStatus) (*models.Order, error) {
	var updated *models.Order
	err := s.Repo.Transaction(ctx, func(tx *repo.GormRepo) error {
		o, err := tx.GetOrder(ctx, id)
		if err != nil {
			return err
		}
		if !allowed(allowedStatus, o.Status, to) {
			return fmt.Errorf("order %s: %s -> %s: %w", id, o.Status, to, domain.ErrInvalidTransition)
		}
		changed, err := tx.UpdateOrderWhere(ctx, id, map[string]any{"status": o.Status}, map[string]any{"status": to})
		if err != nil {
			return err
		}
		if !changed {
			return fmt.Errorf("order %s changed concurrently: %w", id, domain.ErrInvalidTransition)
		}
		from := o.Status
		o.Status = to
		updated = o
		return emit(ctx, tx, s.Outbox, aggregateOrder, id.String(), EventOrderStatusChanged, TopicOrderEvents, orderEvent(o, "status:"+string(from)+"->"+string(to)))
	})
	if err != nil {
		return nil, err
	}
	logging.FromContext(ctx).Info("order_status_changed", "order_id", id.String(), "status", to)
	return updated, nil
}

func (s *OrderService) UpdatePaymentStatus(ctx context.Context, id uuid.UUID, to models.PaymentStatus) (*models.Order, error) {
	var updated *models.Order
	err := s.Repo.Transaction(ctx, func(tx *repo.GormRepo) error {
		o, err := tx.GetOrder(ctx, id)
		if err != nil {
			return err
		}
		if !allowed(allowedPayment, o.PaymentStatus, to) {
			return fmt.Errorf("order %s: payment %s -> %s: %w", id, o.PaymentStatus, to, domain.ErrInvalidTransition)
		}
		changed, err := tx.UpdateOrderWhere(ctx, id, map[string]any{"payment_status": o.PaymentStatus}, map[string]any{"payment_status": to})
		if err != nil {
			return err
		}
		if !changed {
			return fmt.Errorf("order %s changed concurrently: %w", id, domain.ErrInvalidTransition)
		}
		from := o.PaymentStatus
		o.PaymentStatus = to
		updated = o
		return emit(ctx, tx, s.Outbox, aggregateOrder, id.String(), EventOrderStatusChanged, TopicOrderEvents, orderEvent(o, "payment:"+string(from)+"->"+string(to)))
	})
	if err != nil {
		return nil, err
	}
	logging.FromContext(ctx).Info("order_payment_status_changed", "order_id", id.String(), "payment_status", to)
	return updated, nil
}
