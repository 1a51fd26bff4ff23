package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/Skotchmaster/storefront/pkg/logging"
	"github.com/Skotchmaster/storefront/pkg/outbox"
	"github.com/Skotchmaster/storefront/services/checkout/internal/domain"
	"github.com/Skotchmaster/storefront/services/checkout/internal/models"
	"github.com/Skotchmaster/storefront/services/checkout/internal/payment"
	"github.com/Skotchmaster/storefront/services/checkout/internal/repo"
)

type PaymentGateway interface {
	CreateIntention(ctx context.Context, req payment.IntentionRequest) (*payment.Intention, error)
}

type CheckoutInput struct {
	LocationID   *uint
	DiscountCode string
}

type Quote struct {
	UserID   uuid.UUID               `json:"user_id"`
	Currency string                  `json:"currency"`
	Lines    []QuoteLine             `json:"lines"`
	Rates    domain.Rates            `json:"rates"`
	Discount *domain.AppliedDiscount `json:"discount,omitempty"`
	Totals
}

type Started struct {
	Order       *models.Order `json:"order"`
	CheckoutURL string        `json:"checkout_url"`
	Reused      bool          `json:"reused"`
}

type Outcome string

const (
	OutcomeConfirmed         Outcome = "confirmed"
	OutcomeDuplicate         Outcome = "duplicate"
	OutcomeInsufficientStock Outcome = "insufficient_stock"
	OutcomeLatePayment       Outcome = "late_payment"
	OutcomeFailed            Outcome = "failed"
)

type TransitionResult struct {
	Order   *models.Order `json:"order"`
	Outcome Outcome       `json:"outcome"`
}

type PaymentOutcome string

const (
	PaymentOutcomePaid   PaymentOutcome = "paid"
	PaymentOutcomeFailed PaymentOutcome = "failed"
)

type Checkout struct {
	Repo        *repo.GormRepo
	Cart        *CartService
	Rates       *RateResolver
	Discounts   *DiscountValidator
	Stock       *StockManager
	Gateway     PaymentGateway
	Outbox      outbox.Repository
	Invalidator CatalogInvalidator
	Currency    string
	Now         func() time.Time
}

func (s *Checkout) now() time.Time {
	if s.Now != nil {
		return s.Now()
	}
	return time.Now().UTC()
}

func (s *Checkout) currency() string {
	if s.Currency == "" {
		return "USD"
	}
	return s.Currency
}

// Quote prices the user's cart against current catalog, rates and discount
// data, bypassing any catalog cache. It writes nothing.
func (s *Checkout) Quote(ctx context.Context, userID uuid.UUID, in CheckoutInput) (*Quote, error) {
	view, err := s.Cart.LiveView(ctx, userID)
	if err != nil {
		return nil, err
	}
	if len(view.Lines) == 0 {
		return nil, domain.ErrEmptyCart
	}

	lines := make([]QuoteLine, 0, len(view.Lines))
	for _, l := range view.Lines {
		if l.Unavailable {
			return nil, fmt.Errorf("cart item %s no longer exists: %w", l.ItemID, domain.ErrNotFound)
		}
		if l.Inactive {
			return nil, fmt.Errorf("%s %q is no longer available: %w", l.ItemType, l.Name, domain.ErrInactive)
		}
		lines = append(lines, QuoteLine{
			ItemType:   l.ItemType,
			ProductID:  l.ProductID,
			BundleID:   l.BundleID,
			Name:       l.Name,
			Quantity:   l.Quantity,
			UnitPrice:  l.UnitPrice,
			LineTotal:  l.LineTotal,
			Components: l.Components,
		})
	}

	rates, err := s.Rates.Resolve(ctx, in.LocationID)
	if err != nil {
		return nil, err
	}

	subtotal := Subtotal(lines)
	q := &Quote{
		UserID:   userID,
		Currency: s.currency(),
		Lines:    lines,
		Rates:    rates,
	}

	discountAmount := decimal.Zero
	if code := strings.TrimSpace(in.DiscountCode); code != "" {
		applied, err := s.Discounts.Validate(ctx, code, subtotal, userID)
		if err != nil {
			return nil, err
		}
		q.Discount = applied
		discountAmount = applied.Amount
	}

	q.Totals = CalculateTotals(subtotal, discountAmount, rates)
	return q, nil
}

// Begin turns a quote into a pending order. The payment intention is
// requested before anything is written, so a gateway failure leaves no order.
// A pending order that matches the quote is handed back as is; any other
// pending order of the user is canceled as superseded.
func (s *Checkout) Begin(ctx context.Context, userID uuid.UUID, in CheckoutInput) (*Started, error) {
	l := logging.FromContext(ctx).With("component", "checkout", "user_id", userID.String())

	q, err := s.Quote(ctx, userID, in)
	if err != nil {
		return nil, err
	}

	pending, err := s.Repo.ListPendingOrders(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("list pending orders: %w: %w", domain.ErrInternal, err)
	}
	for i := range pending {
		if MatchesQuote(&pending[i], q) {
			l.Info("order_reused", "order_id", pending[i].ID.String())
			return &Started{Order: &pending[i], CheckoutURL: pending[i].CheckoutURL, Reused: true}, nil
		}
	}

	orderID := uuid.New()
	intent, err := s.Gateway.CreateIntention(ctx, payment.IntentionRequest{
		OrderID:  orderID,
		Amount:   q.Total,
		Currency: q.Currency,
	})
	if err != nil {
		l.Warn("payment_intention_error", "order_id", orderID.String(), "error", err)
		return nil, fmt.Errorf("create payment intention: %w: %w", domain.ErrExternalDependency, err)
	}

	locationID := q.Rates.LocationID
	order := &models.Order{
		ID:               orderID,
		UserID:           userID,
		Status:           models.OrderPending,
		PaymentStatus:    models.PaymentUnpaid,
		Currency:         q.Currency,
		Subtotal:         q.Subtotal,
		DiscountAmount:   q.DiscountAmount,
		Tax:              q.Tax,
		Shipping:         q.Shipping,
		Total:            q.Total,
		TaxRate:          q.Rates.TaxRate,
		ShippingRate:     q.Rates.ShippingRate,
		LocationID:       &locationID,
		PaymentReference: intent.Reference,
		CheckoutURL:      intent.CheckoutURL,
		Metadata:         models.Metadata{},
		Items:            OrderItems(q.Lines),
	}
	if q.Discount != nil {
		codeID := q.Discount.CodeID
		order.DiscountCodeID = &codeID
		order.DiscountCode = q.Discount.Code
	}

	var superseded []string
	err = s.Repo.Transaction(ctx, func(tx *repo.GormRepo) error {
		for i := range pending {
			old := &pending[i]
			changed, err := tx.UpdateOrderWhere(ctx, old.ID,
				map[string]any{"status": models.OrderPending, "payment_status": models.PaymentUnpaid},
				map[string]any{"status": models.OrderCanceled, "metadata": old.Metadata.With(models.MetaFailureReason, models.ReasonSuperseded)})
			if err != nil {
				return err
			}
			if !changed {
				continue
			}
			old.Status = models.OrderCanceled
			superseded = append(superseded, old.ID.String())
			if err := emit(ctx, tx, s.Outbox, aggregateOrder, old.ID.String(), EventOrderFailed, TopicOrderEvents, orderEvent(old, models.ReasonSuperseded)); err != nil {
				return err
			}
		}
		if err := tx.CreateOrder(ctx, order); err != nil {
			return err
		}
		return emit(ctx, tx, s.Outbox, aggregateOrder, order.ID.String(), EventOrderCreated, TopicOrderEvents, orderEvent(order, ""))
	})
	if err != nil {
		l.Error("order_persist_error", "order_id", orderID.String(), "payment_reference", intent.Reference, "error", err)
		return nil, fmt.Errorf("persist order: %w: %w", domain.ErrInternal, err)
	}

	if len(superseded) > 0 {
		l.Info("orders_superseded", "order_ids", superseded, "by", order.ID.String())
	}
	l.Info("order_pending", "order_id", order.ID.String(), "total", order.Total.StringFixed(2))
	return &Started{Order: order, CheckoutURL: intent.CheckoutURL}, nil
}

// HandlePaymentCallback applies a gateway outcome. Duplicate deliveries are
// answered from the current order status.
func (s *Checkout) HandlePaymentCallback(ctx context.Context, orderID uuid.UUID, outcome PaymentOutcome, reference string) (*TransitionResult, error) {
	order, err := s.Repo.GetOrder(ctx, orderID)
	if err != nil {
		return nil, err
	}
	if reference != "" && order.PaymentReference != "" && reference != order.PaymentReference {
		return nil, fmt.Errorf("payment reference %q does not match order: %w", reference, domain.ErrValidation)
	}

	switch outcome {
	case PaymentOutcomePaid:
		return s.Confirm(ctx, orderID)
	case PaymentOutcomeFailed:
		return s.Fail(ctx, orderID, "payment_failed")
	default:
		return nil, fmt.Errorf("outcome must be paid or failed: %w", domain.ErrValidation)
	}
}

// Confirm moves a pending order to processing, decrementing stock and
// consuming discount usage exactly once. The status guard and every side
// effect share one transaction.
func (s *Checkout) Confirm(ctx context.Context, orderID uuid.UUID) (*TransitionResult, error) {
	l := logging.FromContext(ctx).With("component", "checkout", "order_id", orderID.String())

	var (
		outcome Outcome
		demand  Demand
	)
	err := s.Repo.Transaction(ctx, func(tx *repo.GormRepo) error {
		order, err := tx.GetOrder(ctx, orderID)
		if err != nil {
			return err
		}

		if order.Status == models.OrderCanceled && order.PaymentStatus == models.PaymentUnpaid {
			changed, err := tx.UpdateOrderWhere(ctx, orderID,
				map[string]any{"status": models.OrderCanceled, "payment_status": models.PaymentUnpaid},
				map[string]any{
					"payment_status": models.PaymentPaid,
					"metadata":       order.Metadata.With(models.MetaReconciliation, models.ReconcileLatePayment),
				})
			if err != nil {
				return err
			}
			if !changed {
				outcome = OutcomeDuplicate
				return nil
			}
			outcome = OutcomeLatePayment
			order.PaymentStatus = models.PaymentPaid
			return emit(ctx, tx, s.Outbox, aggregateOrder, orderID.String(), EventOrderStatusChanged, TopicOrderEvents, orderEvent(order, models.ReconcileLatePayment))
		}
		if order.Status != models.OrderPending || order.PaymentStatus != models.PaymentUnpaid {
			outcome = OutcomeDuplicate
			return nil
		}

		now := s.now()
		changed, err := tx.UpdateOrderWhere(ctx, orderID,
			map[string]any{"status": models.OrderPending, "payment_status": models.PaymentUnpaid},
			map[string]any{"status": models.OrderProcessing, "payment_status": models.PaymentPaid, "confirmed_at": now})
		if err != nil {
			return err
		}
		if !changed {
			outcome = OutcomeDuplicate
			return nil
		}
		order.Status = models.OrderProcessing
		order.PaymentStatus = models.PaymentPaid

		demand = DemandOf(order.Items)
		if err := s.Stock.Decrement(ctx, tx, demand); err != nil {
			var ise *domain.InsufficientStockError
			if !errors.As(err, &ise) {
				return err
			}
			meta := order.Metadata.
				With(models.MetaReconciliation, models.ReconcileInsufficientStock).
				With(models.MetaFailedProduct, fmt.Sprint(ise.ProductID)).
				With(models.MetaFailureReason, ise.Error())
			if _, err := tx.UpdateOrderWhere(ctx, orderID, nil, map[string]any{"status": models.OrderCanceled, "metadata": meta}); err != nil {
				return err
			}
			order.Status = models.OrderCanceled
			outcome = OutcomeInsufficientStock
			demand = nil
			l.Warn("order_failed", "reason", "insufficient_stock", "product_id", ise.ProductID, "requested", ise.Requested, "available", ise.Available)
			return emit(ctx, tx, s.Outbox, aggregateOrder, orderID.String(), EventOrderFailed, TopicOrderEvents, orderEvent(order, models.ReconcileInsufficientStock))
		}

		if order.DiscountCodeID != nil {
			ok, err := tx.IncrementDiscountUsage(ctx, *order.DiscountCodeID)
			if err != nil {
				return err
			}
			if !ok {
				l.Warn("discount_usage_limit_reached_at_confirmation", "discount_code", order.DiscountCode)
				meta := order.Metadata.With(models.MetaDiscountUsage, "limit_exceeded")
				if _, err := tx.UpdateOrderWhere(ctx, orderID, nil, map[string]any{"metadata": meta}); err != nil {
					return err
				}
			}
		}

		if err := tx.ClearCart(ctx, order.UserID); err != nil {
			return err
		}

		outcome = OutcomeConfirmed
		ev := orderEvent(order, "")
		ev.Demand = demand
		return emit(ctx, tx, s.Outbox, aggregateOrder, orderID.String(), EventOrderConfirmed, TopicOrderEvents, ev)
	})
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return nil, err
		}
		l.Error("order_confirm_error", "error", err)
		s.failAfterError(ctx, orderID, err)
		return nil, fmt.Errorf("confirm order %s: %w: %w", orderID, domain.ErrInternal, err)
	}

	if s.Invalidator != nil && len(demand) > 0 {
		s.Invalidator.InvalidateProducts(ctx, demand.ProductIDs()...)
	}

	switch outcome {
	case OutcomeDuplicate:
		l.Info("duplicate_confirmation")
	case OutcomeLatePayment:
		l.Warn("late_payment_recorded")
	case OutcomeConfirmed:
		l.Info("order_confirmed")
	}

	order, err := s.Repo.GetOrder(ctx, orderID)
	if err != nil {
		return nil, err
	}
	return &TransitionResult{Order: order, Outcome: outcome}, nil
}

// Fail cancels a pending order. Nothing was decremented yet and the cart
// stays as it was, so the buyer can retry.
func (s *Checkout) Fail(ctx context.Context, orderID uuid.UUID, reason string) (*TransitionResult, error) {
	l := logging.FromContext(ctx).With("component", "checkout", "order_id", orderID.String())

	var outcome Outcome
	err := s.Repo.Transaction(ctx, func(tx *repo.GormRepo) error {
		order, err := tx.GetOrder(ctx, orderID)
		if err != nil {
			return err
		}
		if order.Status == models.OrderCanceled {
			outcome = OutcomeDuplicate
			return nil
		}
		if order.Status != models.OrderPending {
			return fmt.Errorf("order %s is %s: %w", orderID, order.Status, domain.ErrInvalidTransition)
		}

		changed, err := tx.UpdateOrderWhere(ctx, orderID,
			map[string]any{"status": models.OrderPending},
			map[string]any{"status": models.OrderCanceled, "metadata": order.Metadata.With(models.MetaFailureReason, reason)})
		if err != nil {
			return err
		}
		if !changed {
			return fmt.Errorf("order %s changed concurrently: %w", orderID, domain.ErrInvalidTransition)
		}
		order.Status = models.OrderCanceled
		outcome = OutcomeFailed
		return emit(ctx, tx, s.Outbox, aggregateOrder, orderID.String(), EventOrderFailed, TopicOrderEvents, orderEvent(order, reason))
	})
	if err != nil {
		return nil, err
	}

	if outcome == OutcomeFailed {
		l.Warn("order_failed", "reason", reason)
	}
	order, err := s.Repo.GetOrder(ctx, orderID)
	if err != nil {
		return nil, err
	}
	return &TransitionResult{Order: order, Outcome: outcome}, nil
}

// failAfterError cancels a still-pending order after an unexpected
// persistence failure during confirmation.
func (s *Checkout) failAfterError(ctx context.Context, orderID uuid.UUID, cause error) {
	ctx = context.WithoutCancel(ctx)
	if _, err := s.Fail(ctx, orderID, "internal_error"); err != nil {
		logging.FromContext(ctx).Error("order_fail_after_error", "order_id", orderID.String(), "cause", cause, "error", err)
	}
}
