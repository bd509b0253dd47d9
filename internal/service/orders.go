package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/mmeshcher/order-fulfillment/internal/model"
	"github.com/mmeshcher/order-fulfillment/internal/repository"
	"github.com/mmeshcher/order-fulfillment/internal/validation"
)

const orderNumberAttempts = 3

// OrderInput содержит данные для создания заказа.
type OrderInput struct {
	OrderNumber     string
	Items           []model.OrderItem
	Pricing         model.Pricing
	CustomerInfo    model.CustomerInfo
	ShippingAddress model.Address
	PaymentStatus   model.PaymentStatus
	Actor           string
}

// OrderUpdate содержит изменяемые поля заказа. Nil означает, что поле не меняется.
// Позиции, суммы и покупатель меняются только у заказа в статусе pending.
type OrderUpdate struct {
	Items             []model.OrderItem
	Pricing           *model.Pricing
	CustomerInfo      *model.CustomerInfo
	ShippingAddress   *model.Address
	TrackingNumber    *string
	ShippingProvider  *string
	EstimatedDelivery *time.Time
}

func (u OrderUpdate) touchesContents() bool {
	return u.Items != nil || u.Pricing != nil || u.CustomerInfo != nil
}

// CreateOrder создаёт заказ в статусе pending. Если номер не передан, он генерируется.
func (s *Service) CreateOrder(ctx context.Context, in OrderInput) (*model.Order, error) {
	now := s.now()
	actor := actorOrSystem(in.Actor)

	payment := in.PaymentStatus
	if payment == "" {
		payment = model.PaymentStatusUnpaid
	}
	if payment != model.PaymentStatusUnpaid && payment != model.PaymentStatusPaid {
		return nil, fmt.Errorf("%w: invalid payment status %q", model.ErrValidation, payment)
	}

	o := &model.Order{
		ID:              s.newID(),
		OrderNumber:     strings.TrimSpace(in.OrderNumber),
		Items:           in.Items,
		Pricing:         in.Pricing,
		CustomerInfo:    in.CustomerInfo,
		ShippingAddress: in.ShippingAddress,
		OrderStatus:     model.OrderStatusPending,
		PaymentStatus:   payment,
		Notes:           []model.Note{},
		StatusHistory: []model.StatusChange{
			{Status: model.OrderStatusPending, Notes: "Order created", ChangedBy: actor, ChangedAt: now},
		},
		Version:   1,
		CreatedAt: now,
		UpdatedAt: now,
	}

	if err := validation.ValidateOrder(o); err != nil {
		return nil, err
	}

	generated := o.OrderNumber == ""
	for attempt := 0; ; attempt++ {
		if generated {
			o.OrderNumber = validation.GenerateOrderNumber(now)
		}

		err := s.repo.CreateOrder(ctx, o)
		if err == nil {
			return o, nil
		}
		if !generated || !errors.Is(err, model.ErrConflict) || attempt+1 >= orderNumberAttempts {
			return nil, err
		}
	}
}

// GetOrder возвращает заказ по идентификатору.
func (s *Service) GetOrder(ctx context.Context, id string) (*model.Order, error) {
	if err := checkOrderID(id); err != nil {
		return nil, err
	}
	return s.repo.GetOrder(ctx, id)
}

// mutateOrder применяет fn к заблокированному заказу и сохраняет результат.
func (s *Service) mutateOrder(ctx context.Context, id string, fn func(o *model.Order, now time.Time) error) (*model.Order, error) {
	if err := checkOrderID(id); err != nil {
		return nil, err
	}

	var order *model.Order

	err := s.repo.RunInTx(ctx, func(ctx context.Context, tx repository.Tx) error {
		o, err := tx.LockOrder(ctx, id)
		if err != nil {
			return err
		}

		now := s.now()
		if err := fn(o, now); err != nil {
			return err
		}
		o.UpdatedAt = now

		if err := tx.SaveOrder(ctx, o); err != nil {
			return err
		}

		order = o
		return nil
	})
	if err != nil {
		if !model.IsDomainError(err) {
			return nil, fmt.Errorf("%w: %w", model.ErrPersistence, err)
		}
		return nil, err
	}

	return order, nil
}

// UpdateOrder изменяет данные заказа.
func (s *Service) UpdateOrder(ctx context.Context, id string, upd OrderUpdate) (*model.Order, error) {
	if upd.Items != nil {
		if err := validation.ValidateItems(upd.Items); err != nil {
			return nil, err
		}
	}
	if upd.Pricing != nil {
		if err := validation.ValidatePricing(*upd.Pricing); err != nil {
			return nil, err
		}
	}
	if upd.CustomerInfo != nil {
		if err := validation.ValidateCustomer(*upd.CustomerInfo); err != nil {
			return nil, err
		}
	}

	return s.mutateOrder(ctx, id, func(o *model.Order, now time.Time) error {
		if upd.touchesContents() && o.OrderStatus != model.OrderStatusPending {
			return fmt.Errorf("%w: items, pricing and customer can only change while order is pending, current status %s",
				model.ErrConflict, o.OrderStatus)
		}

		if upd.Items != nil {
			o.Items = upd.Items
		}
		if upd.Pricing != nil {
			o.Pricing = *upd.Pricing
		}
		if upd.CustomerInfo != nil {
			o.CustomerInfo = *upd.CustomerInfo
		}
		if upd.ShippingAddress != nil {
			o.ShippingAddress = *upd.ShippingAddress
		}
		if upd.TrackingNumber != nil {
			o.Shipping.TrackingNumber = *upd.TrackingNumber
		}
		if upd.ShippingProvider != nil {
			o.Shipping.Provider = *upd.ShippingProvider
		}
		if upd.EstimatedDelivery != nil {
			estimated := *upd.EstimatedDelivery
			o.Shipping.EstimatedDelivery = &estimated
		}
		return nil
	})
}

// MarkPaid отмечает заказ оплаченным. Статус заказа не меняется.
func (s *Service) MarkPaid(ctx context.Context, id string) (*model.Order, error) {
	return s.mutateOrder(ctx, id, func(o *model.Order, now time.Time) error {
		if o.PaymentStatus == model.PaymentStatusRefunded {
			return fmt.Errorf("%w: order %s is already refunded", model.ErrConflict, o.OrderNumber)
		}
		o.PaymentStatus = model.PaymentStatusPaid
		return nil
	})
}

// DeleteOrder удаляет заказ, если он не удерживает резерв на складе.
func (s *Service) DeleteOrder(ctx context.Context, id string) error {
	if err := checkOrderID(id); err != nil {
		return err
	}

	err := s.repo.RunInTx(ctx, func(ctx context.Context, tx repository.Tx) error {
		o, err := tx.LockOrder(ctx, id)
		if err != nil {
			return err
		}
		if o.OrderStatus.HoldsReservation() {
			return fmt.Errorf("%w: order %s holds a stock reservation in status %s, cancel it first",
				model.ErrConflict, o.OrderNumber, o.OrderStatus)
		}
		return tx.DeleteOrder(ctx, id)
	})
	if err != nil && !model.IsDomainError(err) {
		return fmt.Errorf("%w: %w", model.ErrPersistence, err)
	}
	return err
}

// BulkDelete удаляет заказы по одному. Сбой одного заказа не влияет на остальные.
func (s *Service) BulkDelete(ctx context.Context, orderIDs []string) ([]BulkResult, error) {
	if err := checkBulk(orderIDs); err != nil {
		return nil, err
	}

	results := make([]BulkResult, 0, len(orderIDs))
	for _, id := range orderIDs {
		if err := s.DeleteOrder(ctx, id); err != nil {
			results = append(results, BulkResult{OrderID: id, Error: err.Error()})
			continue
		}
		results = append(results, BulkResult{OrderID: id, Success: true})
	}
	return results, nil
}

// ListNotes возвращает заметки заказа. Приватные заметки возвращаются только при includePrivate.
func (s *Service) ListNotes(ctx context.Context, orderID string, includePrivate bool) ([]model.Note, error) {
	o, err := s.GetOrder(ctx, orderID)
	if err != nil {
		return nil, err
	}

	notes := make([]model.Note, 0, len(o.Notes))
	for _, n := range o.Notes {
		if n.IsPrivate && !includePrivate {
			continue
		}
		notes = append(notes, n)
	}
	return notes, nil
}

// AddNote добавляет заметку к заказу.
func (s *Service) AddNote(ctx context.Context, orderID, text string, isPrivate bool, actor string) (*model.Note, error) {
	text = strings.TrimSpace(text)
	if text == "" {
		return nil, fmt.Errorf("%w: note text is required", model.ErrValidation)
	}

	var note model.Note
	_, err := s.mutateOrder(ctx, orderID, func(o *model.Order, now time.Time) error {
		note = model.Note{
			ID:        s.newID(),
			Text:      text,
			IsPrivate: isPrivate,
			CreatedBy: actorOrSystem(actor),
			CreatedAt: now,
		}
		o.Notes = append(o.Notes, note)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &note, nil
}

// UpdateNote изменяет текст и видимость заметки.
func (s *Service) UpdateNote(ctx context.Context, orderID, noteID, text string, isPrivate bool) (*model.Note, error) {
	text = strings.TrimSpace(text)
	if text == "" {
		return nil, fmt.Errorf("%w: note text is required", model.ErrValidation)
	}

	var note model.Note
	_, err := s.mutateOrder(ctx, orderID, func(o *model.Order, now time.Time) error {
		i := noteIndex(o.Notes, noteID)
		if i < 0 {
			return fmt.Errorf("%w: note %s", model.ErrNotFound, noteID)
		}
		updatedAt := now
		o.Notes[i].Text = text
		o.Notes[i].IsPrivate = isPrivate
		o.Notes[i].UpdatedAt = &updatedAt
		note = o.Notes[i]
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &note, nil
}

// DeleteNote удаляет заметку заказа.
func (s *Service) DeleteNote(ctx context.Context, orderID, noteID string) error {
	_, err := s.mutateOrder(ctx, orderID, func(o *model.Order, now time.Time) error {
		i := noteIndex(o.Notes, noteID)
		if i < 0 {
			return fmt.Errorf("%w: note %s", model.ErrNotFound, noteID)
		}
		o.Notes = append(o.Notes[:i], o.Notes[i+1:]...)
		return nil
	})
	return err
}

func noteIndex(notes []model.Note, id string) int {
	for i, n := range notes {
		if n.ID == id {
			return i
		}
	}
	return -1
}
