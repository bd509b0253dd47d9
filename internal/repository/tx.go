package repository

import (
	"context"

	"github.com/mmeshcher/order-fulfillment/internal/model"
)

// Tx описывает единицу работы над заказом и складом. Все изменения, сделанные через Tx,
// фиксируются вместе или не фиксируются вовсе.
type Tx interface {
	// LockOrder загружает заказ и блокирует его до конца транзакции.
	LockOrder(ctx context.Context, id string) (*model.Order, error)
	// SaveOrder сохраняет заказ, если его версия не изменилась, и увеличивает версию.
	SaveOrder(ctx context.Context, o *model.Order) error
	DeleteOrder(ctx context.Context, id string) error

	// Reserve увеличивает резерв, если доступного остатка достаточно.
	Reserve(ctx context.Context, productID string, qty int64) (model.InventoryRecord, error)
	// Release уменьшает резерв, не допуская отрицательного значения.
	Release(ctx context.Context, productID string, qty int64) (model.InventoryRecord, error)
	// Fulfill одним изменением списывает остаток и резерв и возвращает снимок остатка.
	Fulfill(ctx context.Context, productID string, qty int64) (model.StockSnapshot, error)
	// Restock увеличивает остаток и возвращает снимок остатка.
	Restock(ctx context.Context, productID string, qty int64) (model.StockSnapshot, error)
	// Adjust изменяет остаток на delta в любую сторону, не опуская его ниже резерва.
	Adjust(ctx context.Context, productID string, delta int64) (model.StockSnapshot, error)

	RecordStockMovement(ctx context.Context, e *model.StockHistoryEntry) error
	IncrementSalesCount(ctx context.Context, productID string, qty int64) error
}

// TxFunc описывает функцию, выполняемую внутри транзакции.
type TxFunc func(ctx context.Context, tx Tx) error
