// Package notify содержит адаптеры шлюза уведомлений о подтверждении заказа.
package notify

import (
	"context"
	"time"
)

// ConfirmationItem описывает позицию заказа в уведомлении.
type ConfirmationItem struct {
	ProductID string  `json:"productId"`
	SKU       string  `json:"sku"`
	Name      string  `json:"name,omitempty"`
	Quantity  int64   `json:"quantity"`
	UnitPrice float64 `json:"unitPrice"`
}

// OrderConfirmation содержит данные для уведомления покупателя о подтверждении заказа.
type OrderConfirmation struct {
	EventID       string             `json:"eventId"`
	OrderID       string             `json:"orderId"`
	OrderNumber   string             `json:"orderNumber"`
	CustomerName  string             `json:"customerName"`
	CustomerEmail string             `json:"customerEmail"`
	Items         []ConfirmationItem `json:"items"`
	TotalPrice    float64            `json:"totalPrice"`
	ConfirmedAt   time.Time          `json:"confirmedAt"`
}

// Result описывает ответ шлюза уведомлений.
type Result struct {
	Success bool   `json:"success"`
	Error   string `json:"error,omitempty"`
}

// Gateway отправляет уведомления о подтверждении заказа.
type Gateway interface {
	SendOrderConfirmation(ctx context.Context, msg OrderConfirmation) (Result, error)
}

// Disabled используется, когда шлюз уведомлений не настроен.
type Disabled struct{}

// SendOrderConfirmation ничего не отправляет и сообщает об успехе.
func (Disabled) SendOrderConfirmation(context.Context, OrderConfirmation) (Result, error) {
	return Result{Success: true}, nil
}
