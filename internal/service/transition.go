package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/mmeshcher/order-fulfillment/internal/model"
	"github.com/mmeshcher/order-fulfillment/internal/notify"
	"github.com/mmeshcher/order-fulfillment/internal/repository"
)

const (
	notifyTimeout = 10 * time.Second
	maxBulkSize   = 100
)

// StatusUpdate описывает запрос на смену статуса заказа.
type StatusUpdate struct {
	Status            model.OrderStatus
	Notes             string
	TrackingNumber    string
	ShippingProvider  string
	EstimatedDelivery *time.Time
	RefundAmount      float64
	// Reason хранит причину отмены или возврата.
	Reason string
	Actor  string
}

// NotificationOutcome описывает результат отправки уведомления после перехода.
type NotificationOutcome struct {
	Attempted bool   `json:"attempted"`
	Success   bool   `json:"success"`
	Error     string `json:"error,omitempty"`
}

// TransitionResult содержит заказ после перехода и некритичные предупреждения.
type TransitionResult struct {
	Order          *model.Order         `json:"order"`
	PreviousStatus model.OrderStatus    `json:"previousStatus"`
	Notification   *NotificationOutcome `json:"notification,omitempty"`
	Warnings       []string             `json:"warnings,omitempty"`
}

// BulkResult описывает результат операции над одним заказом в пакетной операции.
type BulkResult struct {
	OrderID string            `json:"orderId"`
	Success bool              `json:"success"`
	Status  model.OrderStatus `json:"status,omitempty"`
	Error   string            `json:"error,omitempty"`
}

// ApplyStatus переводит заказ в новый статус. Блокировка заказа, складские операции,
// журнал движений, счётчик продаж и сохранение заказа выполняются в одной транзакции.
// Уведомление о подтверждении отправляется после фиксации, и его сбой не отменяет переход.
func (s *Service) ApplyStatus(ctx context.Context, orderID string, upd StatusUpdate) (*TransitionResult, error) {
	if !upd.Status.Valid() {
		return nil, fmt.Errorf("%w: unknown status %q", model.ErrValidation, upd.Status)
	}
	if upd.Status == model.OrderStatusRefunded && upd.RefundAmount <= 0 {
		return nil, fmt.Errorf("%w: refund amount must be positive", model.ErrValidation)
	}
	if err := checkOrderID(orderID); err != nil {
		return nil, err
	}

	actor := actorOrSystem(upd.Actor)

	var (
		order *model.Order
		prev  model.OrderStatus
		eff   effect
	)

	err := s.repo.RunInTx(ctx, func(ctx context.Context, tx repository.Tx) error {
		o, err := tx.LockOrder(ctx, orderID)
		if err != nil {
			return err
		}

		prev = o.OrderStatus
		e, ok := lookupTransition(prev, upd.Status)
		if !ok {
			return fmt.Errorf("%w: %s -> %s", model.ErrInvalidTransition, prev, upd.Status)
		}
		eff = e

		now := s.now()
		if err := s.applyEffects(ctx, tx, o, e, upd, actor, now); err != nil {
			return err
		}

		o.OrderStatus = upd.Status
		o.StatusHistory = append(o.StatusHistory, model.StatusChange{
			Status:    upd.Status,
			Notes:     upd.Notes,
			ChangedBy: actor,
			ChangedAt: now,
		})
		o.UpdatedAt = now

		if err := tx.SaveOrder(ctx, o); err != nil {
			return err
		}

		order = o
		return nil
	})
	if err != nil {
		return nil, s.transitionFailed(orderID, upd.Status, err)
	}

	s.transitionApplied(order, prev, eff)

	result := &TransitionResult{Order: order, PreviousStatus: prev}
	if eff&effectNotify != 0 {
		outcome := s.sendConfirmation(ctx, order)
		result.Notification = &outcome
		if !outcome.Success {
			result.Warnings = append(result.Warnings, "order confirmation notification failed: "+outcome.Error)
		}
	}

	return result, nil
}

// ResendConfirmation повторно отправляет уведомление о подтверждении уже подтверждённого заказа.
// Сбой шлюза возвращается в результате и не считается ошибкой операции.
func (s *Service) ResendConfirmation(ctx context.Context, orderID string) (*NotificationOutcome, error) {
	o, err := s.GetOrder(ctx, orderID)
	if err != nil {
		return nil, err
	}

	switch o.OrderStatus {
	case model.OrderStatusConfirmed, model.OrderStatusProcessing, model.OrderStatusShipped, model.OrderStatusDelivered:
	default:
		return nil, fmt.Errorf("%w: order %s is %s, confirmation is sent only for confirmed orders",
			model.ErrConflict, o.OrderNumber, o.OrderStatus)
	}

	outcome := s.sendConfirmation(ctx, o)
	if outcome.Success {
		s.logger.Info("order confirmation resent", zap.String("order", o.OrderNumber))
	}
	return &outcome, nil
}

func (s *Service) applyEffects(ctx context.Context, tx repository.Tx, o *model.Order, e effect, upd StatusUpdate, actor string, now time.Time) error {
	if e&effectReserve != 0 {
		for _, it := range o.Items {
			if _, err := tx.Reserve(ctx, it.ProductID, it.Quantity); err != nil {
				return fmt.Errorf("reserve %s: %w", it.ProductID, err)
			}
		}
	}

	if e&effectRelease != 0 {
		for _, it := range o.Items {
			if _, err := tx.Release(ctx, it.ProductID, it.Quantity); err != nil {
				return fmt.Errorf("release %s: %w", it.ProductID, err)
			}
		}
	}

	if e&effectShip != 0 {
		shippedAt := now
		o.Shipping.ShippedAt = &shippedAt
		if upd.TrackingNumber != "" {
			o.Shipping.TrackingNumber = upd.TrackingNumber
		}
		if upd.ShippingProvider != "" {
			o.Shipping.Provider = upd.ShippingProvider
		}
		if upd.EstimatedDelivery != nil {
			estimated := *upd.EstimatedDelivery
			o.Shipping.EstimatedDelivery = &estimated
		}
	}

	if e&effectDeliver != 0 {
		deliveredAt, fulfilledAt := now, now
		o.Shipping.DeliveredAt = &deliveredAt
		o.Fulfillment.DeliveredAt = &fulfilledAt

		for _, it := range o.Items {
			if err := s.fulfillItem(ctx, tx, o, it); err != nil {
				return err
			}
		}
	}

	if e&effectCancel != 0 {
		reason := upd.Reason
		if reason == "" {
			reason = "Order canceled"
		}
		o.Cancellation = &model.Cancellation{Reason: reason, CanceledAt: now, CanceledBy: actor}
	}

	if e&effectRefund != 0 {
		if o.PaymentStatus != model.PaymentStatusPaid {
			return fmt.Errorf("%w: order %s has payment status %s, only paid orders can be refunded",
				model.ErrConflict, o.OrderNumber, o.PaymentStatus)
		}
		if upd.RefundAmount > o.Pricing.TotalPrice {
			return fmt.Errorf("%w: refund amount %.2f exceeds order total %.2f",
				model.ErrValidation, upd.RefundAmount, o.Pricing.TotalPrice)
		}
		o.Refund = &model.Refund{Amount: upd.RefundAmount, Reason: upd.Reason, RefundedAt: now}
		o.PaymentStatus = model.PaymentStatusRefunded
	}

	return nil
}

// fulfillItem списывает позицию со склада, записывает движение со снимком остатка
// из того же изменения и увеличивает счётчик продаж.
func (s *Service) fulfillItem(ctx context.Context, tx repository.Tx, o *model.Order, it model.OrderItem) error {
	snap, err := tx.Fulfill(ctx, it.ProductID, it.Quantity)
	if err != nil {
		return fmt.Errorf("fulfill %s: %w", it.ProductID, err)
	}

	entry := &model.StockHistoryEntry{
		ProductID: it.ProductID,
		SKU:       it.SKU,
		Transaction: model.StockTransaction{
			Type:     model.TransactionOut,
			Reason:   model.ReasonSale,
			Quantity: it.Quantity,
		},
		Stock:           snap,
		Reference:       o.OrderNumber,
		RelatedDocument: &model.DocumentRef{Type: "order", ID: o.ID},
	}
	if err := tx.RecordStockMovement(ctx, entry); err != nil {
		return fmt.Errorf("record movement %s: %w", it.ProductID, err)
	}

	if err := tx.IncrementSalesCount(ctx, it.ProductID, it.Quantity); err != nil {
		return fmt.Errorf("increment sales %s: %w", it.ProductID, err)
	}

	return nil
}

func (s *Service) transitionApplied(o *model.Order, prev model.OrderStatus, e effect) {
	s.metrics.TransitionApplied(string(prev), string(o.OrderStatus))

	qty := o.ItemCount()
	if e&effectReserve != 0 {
		s.metrics.InventoryMoved("reserve", qty)
	}
	if e&effectRelease != 0 {
		s.metrics.InventoryMoved("release", qty)
	}
	if e&effectDeliver != 0 {
		s.metrics.InventoryMoved("fulfill", qty)
	}

	s.logger.Info("order status changed",
		zap.String("order", o.OrderNumber),
		zap.String("from", string(prev)),
		zap.String("to", string(o.OrderStatus)),
	)
}

func (s *Service) transitionFailed(orderID string, to model.OrderStatus, err error) error {
	reason := failureReason(err)
	s.metrics.TransitionFailed(string(to), reason)

	if reason == "persistence" {
		s.logger.Error("order status change failed",
			zap.Error(err), zap.String("orderID", orderID), zap.String("to", string(to)))
		if !errors.Is(err, model.ErrPersistence) {
			err = fmt.Errorf("%w: %w", model.ErrPersistence, err)
		}
	}

	return err
}

func failureReason(err error) string {
	switch {
	case errors.Is(err, model.ErrNotFound):
		return "not_found"
	case errors.Is(err, model.ErrValidation):
		return "validation"
	case errors.Is(err, model.ErrInvalidTransition):
		return "invalid_transition"
	case errors.Is(err, model.ErrInsufficientStock):
		return "insufficient_stock"
	case errors.Is(err, model.ErrInsufficientReservation):
		return "insufficient_reservation"
	case errors.Is(err, model.ErrConflict):
		return "conflict"
	default:
		return "persistence"
	}
}

// sendConfirmation отправляет уведомление о подтверждении. Ошибки, отказ шлюза и паника
// учитываются в результате и никогда не возвращаются вызывающему.
func (s *Service) sendConfirmation(ctx context.Context, o *model.Order) (outcome NotificationOutcome) {
	outcome.Attempted = true

	defer func() {
		if r := recover(); r != nil {
			outcome.Success = false
			outcome.Error = fmt.Sprintf("%v: gateway panic: %v", model.ErrNotification, r)
			s.notificationFailed(o, outcome.Error)
		}
	}()

	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), notifyTimeout)
	defer cancel()

	res, err := s.notifier.SendOrderConfirmation(ctx, confirmationFor(o, s.now()))
	if err != nil {
		outcome.Error = fmt.Errorf("%w: %w", model.ErrNotification, err).Error()
		s.notificationFailed(o, outcome.Error)
		return outcome
	}
	if !res.Success {
		outcome.Error = res.Error
		if outcome.Error == "" {
			outcome.Error = "gateway reported failure"
		}
		s.notificationFailed(o, outcome.Error)
		return outcome
	}

	outcome.Success = true
	return outcome
}

func (s *Service) notificationFailed(o *model.Order, reason string) {
	s.metrics.NotificationFailed()
	s.logger.Warn("order confirmation notification failed",
		zap.String("order", o.OrderNumber), zap.String("reason", reason))
}

func confirmationFor(o *model.Order, now time.Time) notify.OrderConfirmation {
	items := make([]notify.ConfirmationItem, 0, len(o.Items))
	for _, it := range o.Items {
		items = append(items, notify.ConfirmationItem{
			ProductID: it.ProductID,
			SKU:       it.SKU,
			Name:      it.Name,
			Quantity:  it.Quantity,
			UnitPrice: it.UnitPrice,
		})
	}

	return notify.OrderConfirmation{
		OrderID:       o.ID,
		OrderNumber:   o.OrderNumber,
		CustomerName:  o.CustomerInfo.Name,
		CustomerEmail: o.CustomerInfo.Email,
		Items:         items,
		TotalPrice:    o.Pricing.TotalPrice,
		ConfirmedAt:   now,
	}
}

// BulkUpdateStatus применяет переход к каждому заказу отдельно. Сбой одного заказа
// не влияет на остальные.
func (s *Service) BulkUpdateStatus(ctx context.Context, orderIDs []string, upd StatusUpdate) ([]BulkResult, error) {
	if err := checkBulk(orderIDs); err != nil {
		return nil, err
	}

	results := make([]BulkResult, 0, len(orderIDs))
	for _, id := range orderIDs {
		res, err := s.ApplyStatus(ctx, id, upd)
		if err != nil {
			results = append(results, BulkResult{OrderID: id, Error: err.Error()})
			continue
		}
		results = append(results, BulkResult{OrderID: id, Success: true, Status: res.Order.OrderStatus})
	}
	return results, nil
}

func checkBulk(orderIDs []string) error {
	if len(orderIDs) == 0 {
		return fmt.Errorf("%w: orderIds must not be empty", model.ErrValidation)
	}
	if len(orderIDs) > maxBulkSize {
		return fmt.Errorf("%w: at most %d orders per request", model.ErrValidation, maxBulkSize)
	}
	return nil
}
