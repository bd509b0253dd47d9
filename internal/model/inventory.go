package model

import "time"

// InventoryRecord содержит складские счётчики товара.
type InventoryRecord struct {
	ProductID     string    `json:"productId"`
	CurrentStock  int64     `json:"currentStock"`
	ReservedStock int64     `json:"reservedStock"`
	UpdatedAt     time.Time `json:"updatedAt"`
}

// Available возвращает количество товара, доступное для продажи.
func (r InventoryRecord) Available() int64 {
	if r.CurrentStock <= r.ReservedStock {
		return 0
	}
	return r.CurrentStock - r.ReservedStock
}

// TransactionType описывает направление складского движения.
type TransactionType string

const (
	TransactionIn  TransactionType = "in"
	TransactionOut TransactionType = "out"
)

// TransactionReason описывает причину складского движения.
type TransactionReason string

const (
	ReasonSale       TransactionReason = "sale"
	ReasonPurchase   TransactionReason = "purchase"
	ReasonAdjustment TransactionReason = "adjustment"
	ReasonDamage     TransactionReason = "damage"
	ReasonReturn     TransactionReason = "return"
)

// StockTransaction описывает само движение товара.
type StockTransaction struct {
	Type     TransactionType   `json:"type"`
	Reason   TransactionReason `json:"reason"`
	Quantity int64             `json:"quantity"`
}

// StockSnapshot содержит остаток до и после движения.
type StockSnapshot struct {
	PreviousStock int64 `json:"previousStock"`
	NewStock      int64 `json:"newStock"`
}

// DocumentRef ссылается на документ, породивший движение.
type DocumentRef struct {
	Type string `json:"type"`
	ID   string `json:"id"`
}

// StockHistoryEntry описывает неизменяемую запись журнала складских движений.
type StockHistoryEntry struct {
	ID              int64            `json:"id"`
	ProductID       string           `json:"productId"`
	SKU             string           `json:"sku"`
	Transaction     StockTransaction `json:"transaction"`
	Stock           StockSnapshot    `json:"stock"`
	Reference       string           `json:"reference"`
	RelatedDocument *DocumentRef     `json:"relatedDocument,omitempty"`
	CreatedAt       time.Time        `json:"createdAt"`
}

// ProductSales содержит счётчик продаж товара.
type ProductSales struct {
	ProductID  string `json:"productId"`
	SalesCount int64  `json:"salesCount"`
}

// StockHistoryFilter задаёт условия выборки журнала движений.
type StockHistoryFilter struct {
	ProductID string
	Reference string
}
