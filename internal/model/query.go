package model

import (
	"math"
	"time"
)

// OrderFilter задаёт условия выборки заказов.
type OrderFilter struct {
	Status        OrderStatus
	PaymentStatus PaymentStatus
	Search        string
	StartDate     *time.Time
	EndDate       *time.Time
	Page          int
	Limit         int
	SortBy        string
	SortOrder     string
}

// Offset возвращает смещение для текущей страницы.
func (f OrderFilter) Offset() int {
	if f.Page <= 1 || f.Limit <= 0 {
		return 0
	}
	if f.Page-1 > math.MaxInt/f.Limit {
		return math.MaxInt
	}
	return (f.Page - 1) * f.Limit
}

// Pagination описывает положение страницы в выборке.
type Pagination struct {
	Page  int `json:"page"`
	Limit int `json:"limit"`
	Total int `json:"total"`
	Pages int `json:"pages"`
}

// OrderPage содержит страницу заказов.
type OrderPage struct {
	Orders     []Order    `json:"orders"`
	Pagination Pagination `json:"pagination"`
}

// OrderBucket содержит агрегат заказов за день в разрезе статуса.
type OrderBucket struct {
	Day     time.Time
	Status  OrderStatus
	Count   int64
	Revenue float64
}

// StatusStats содержит количество и выручку по статусу.
type StatusStats struct {
	Count   int64   `json:"count"`
	Revenue float64 `json:"revenue"`
}

// DailyStats содержит количество и выручку за день.
type DailyStats struct {
	Date    string  `json:"date"`
	Count   int64   `json:"count"`
	Revenue float64 `json:"revenue"`
}

// OrderAnalytics содержит сводную аналитику по заказам за период.
type OrderAnalytics struct {
	PeriodDays        int                         `json:"periodDays"`
	TotalOrders       int64                       `json:"totalOrders"`
	TotalRevenue      float64                     `json:"totalRevenue"`
	AverageOrderValue float64                     `json:"averageOrderValue"`
	ByStatus          map[OrderStatus]StatusStats `json:"byStatus"`
	Daily             []DailyStats                `json:"daily"`
}

// TrackingSummary содержит сведения для отслеживания заказа.
type TrackingSummary struct {
	OrderNumber       string         `json:"orderNumber"`
	Status            OrderStatus    `json:"status"`
	TrackingNumber    string         `json:"trackingNumber,omitempty"`
	Provider          string         `json:"provider,omitempty"`
	EstimatedDelivery *time.Time     `json:"estimatedDelivery,omitempty"`
	StatusHistory     []StatusChange `json:"statusHistory"`
	// AllowedTransitions перечисляет статусы, в которые заказ можно перевести сейчас.
	AllowedTransitions []OrderStatus `json:"allowedTransitions"`
}

// ExportRow описывает строку выгрузки заказов.
type ExportRow struct {
	OrderNumber   string        `json:"orderNumber"`
	CustomerName  string        `json:"customerName"`
	CustomerEmail string        `json:"customerEmail"`
	TotalAmount   float64       `json:"totalAmount"`
	OrderStatus   OrderStatus   `json:"orderStatus"`
	PaymentStatus PaymentStatus `json:"paymentStatus"`
	CreatedAt     time.Time     `json:"createdAt"`
	ItemCount     int64         `json:"itemCount"`
}

// Поля сортировки списка заказов.
const (
	SortByCreatedAt   = "createdAt"
	SortByUpdatedAt   = "updatedAt"
	SortByTotalPrice  = "totalPrice"
	SortByOrderNumber = "orderNumber"
	SortByOrderStatus = "orderStatus"
)

// ValidSortField сообщает, поддерживается ли сортировка по полю.
func ValidSortField(field string) bool {
	switch field {
	case SortByCreatedAt, SortByUpdatedAt, SortByTotalPrice, SortByOrderNumber, SortByOrderStatus:
		return true
	}
	return false
}
