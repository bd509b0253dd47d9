// Package model содержит доменные сущности подсистемы исполнения заказов.
package model

import "time"

// OrderStatus описывает этап жизненного цикла заказа.
type OrderStatus string

const (
	OrderStatusPending    OrderStatus = "pending"
	OrderStatusConfirmed  OrderStatus = "confirmed"
	OrderStatusProcessing OrderStatus = "processing"
	OrderStatusShipped    OrderStatus = "shipped"
	OrderStatusDelivered  OrderStatus = "delivered"
	OrderStatusCanceled   OrderStatus = "canceled"
	OrderStatusRefunded   OrderStatus = "refunded"
)

// OrderStatuses перечисляет все известные статусы заказа.
var OrderStatuses = []OrderStatus{
	OrderStatusPending,
	OrderStatusConfirmed,
	OrderStatusProcessing,
	OrderStatusShipped,
	OrderStatusDelivered,
	OrderStatusCanceled,
	OrderStatusRefunded,
}

// Valid сообщает, является ли значение известным статусом заказа.
func (s OrderStatus) Valid() bool {
	for _, v := range OrderStatuses {
		if s == v {
			return true
		}
	}
	return false
}

// HoldsReservation сообщает, удерживает ли заказ в этом статусе резерв на складе.
func (s OrderStatus) HoldsReservation() bool {
	return s == OrderStatusConfirmed || s == OrderStatusProcessing || s == OrderStatusShipped
}

// PaymentStatus описывает состояние оплаты заказа.
type PaymentStatus string

const (
	PaymentStatusUnpaid   PaymentStatus = "unpaid"
	PaymentStatusPaid     PaymentStatus = "paid"
	PaymentStatusRefunded PaymentStatus = "refunded"
)

// Valid сообщает, является ли значение известным статусом оплаты.
func (s PaymentStatus) Valid() bool {
	switch s {
	case PaymentStatusUnpaid, PaymentStatusPaid, PaymentStatusRefunded:
		return true
	}
	return false
}

// OrderItem описывает позицию заказа.
type OrderItem struct {
	ProductID string  `json:"productId"`
	SKU       string  `json:"sku"`
	Name      string  `json:"name,omitempty"`
	Quantity  int64   `json:"quantity"`
	UnitPrice float64 `json:"unitPrice"`
}

// Pricing содержит итоговые суммы заказа. Значения считаются уже рассчитанными.
type Pricing struct {
	Subtotal       float64 `json:"subtotal"`
	ShippingCost   float64 `json:"shippingCost"`
	TaxAmount      float64 `json:"taxAmount"`
	DiscountAmount float64 `json:"discountAmount"`
	TotalPrice     float64 `json:"totalPrice"`
}

// CustomerInfo содержит контактные данные покупателя.
type CustomerInfo struct {
	Name  string `json:"name"`
	Email string `json:"email"`
}

// Address описывает адрес доставки.
type Address struct {
	FullName   string `json:"fullName,omitempty"`
	Line1      string `json:"line1,omitempty"`
	Line2      string `json:"line2,omitempty"`
	City       string `json:"city,omitempty"`
	State      string `json:"state,omitempty"`
	PostalCode string `json:"postalCode,omitempty"`
	Country    string `json:"country,omitempty"`
	Phone      string `json:"phone,omitempty"`
}

// Shipping содержит данные об отправке заказа.
type Shipping struct {
	TrackingNumber    string     `json:"trackingNumber,omitempty"`
	Provider          string     `json:"provider,omitempty"`
	ShippedAt         *time.Time `json:"shippedAt,omitempty"`
	DeliveredAt       *time.Time `json:"deliveredAt,omitempty"`
	EstimatedDelivery *time.Time `json:"estimatedDelivery,omitempty"`
}

// Fulfillment фиксирует факт исполнения заказа.
type Fulfillment struct {
	DeliveredAt *time.Time `json:"deliveredAt,omitempty"`
}

// Refund описывает возврат средств по заказу.
type Refund struct {
	Amount     float64   `json:"amount"`
	Reason     string    `json:"reason"`
	RefundedAt time.Time `json:"refundedAt"`
}

// Cancellation описывает отмену заказа.
type Cancellation struct {
	Reason     string    `json:"reason"`
	CanceledAt time.Time `json:"canceledAt"`
	CanceledBy string    `json:"canceledBy"`
}

// Note описывает служебную заметку к заказу.
type Note struct {
	ID        string     `json:"id"`
	Text      string     `json:"note"`
	IsPrivate bool       `json:"isPrivate"`
	CreatedBy string     `json:"createdBy"`
	CreatedAt time.Time  `json:"createdAt"`
	UpdatedAt *time.Time `json:"updatedAt,omitempty"`
}

// StatusChange описывает запись истории статусов заказа.
type StatusChange struct {
	Status    OrderStatus `json:"status"`
	Notes     string      `json:"notes,omitempty"`
	ChangedBy string      `json:"changedBy"`
	ChangedAt time.Time   `json:"changedAt"`
}

// Order описывает заказ вместе с позициями, доставкой, оплатой и заметками.
type Order struct {
	ID              string         `json:"id"`
	OrderNumber     string         `json:"orderNumber"`
	Items           []OrderItem    `json:"items"`
	Pricing         Pricing        `json:"pricing"`
	CustomerInfo    CustomerInfo   `json:"customerInfo"`
	ShippingAddress Address        `json:"shippingAddress"`
	OrderStatus     OrderStatus    `json:"orderStatus"`
	PaymentStatus   PaymentStatus  `json:"paymentStatus"`
	Shipping        Shipping       `json:"shipping"`
	Fulfillment     Fulfillment    `json:"fulfillment"`
	Refund          *Refund        `json:"refund,omitempty"`
	Cancellation    *Cancellation  `json:"cancellation,omitempty"`
	Notes           []Note         `json:"notes"`
	StatusHistory   []StatusChange `json:"statusHistory"`
	Version         int64          `json:"version"`
	CreatedAt       time.Time      `json:"createdAt"`
	UpdatedAt       time.Time      `json:"updatedAt"`
}

// ItemCount возвращает суммарное количество единиц товара в заказе.
func (o *Order) ItemCount() int64 {
	var n int64
	for _, it := range o.Items {
		n += it.Quantity
	}
	return n
}

// Clone возвращает глубокую копию заказа.
func (o *Order) Clone() *Order {
	c := *o
	c.Items = cloneSlice(o.Items)
	c.Notes = cloneSlice(o.Notes)
	c.StatusHistory = cloneSlice(o.StatusHistory)
	c.Shipping.ShippedAt = cloneTime(o.Shipping.ShippedAt)
	c.Shipping.DeliveredAt = cloneTime(o.Shipping.DeliveredAt)
	c.Shipping.EstimatedDelivery = cloneTime(o.Shipping.EstimatedDelivery)
	c.Fulfillment.DeliveredAt = cloneTime(o.Fulfillment.DeliveredAt)
	for i := range c.Notes {
		c.Notes[i].UpdatedAt = cloneTime(o.Notes[i].UpdatedAt)
	}
	if o.Refund != nil {
		r := *o.Refund
		c.Refund = &r
	}
	if o.Cancellation != nil {
		cn := *o.Cancellation
		c.Cancellation = &cn
	}
	return &c
}

// cloneSlice копирует срез, сохраняя различие между nil и пустым.
func cloneSlice[T any](s []T) []T {
	if s == nil {
		return nil
	}
	return append(make([]T, 0, len(s)), s...)
}

func cloneTime(t *time.Time) *time.Time {
	if t == nil {
		return nil
	}
	v := *t
	return &v
}
