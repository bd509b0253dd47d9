package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/mmeshcher/order-fulfillment/internal/model"
)

// GetInventory возвращает складскую запись товара.
func (r *PostgresRepository) GetInventory(ctx context.Context, productID string) (*model.InventoryRecord, error) {
	var rec model.InventoryRecord
	err := r.withRetry(ctx, func() error {
		return r.pool.QueryRow(ctx,
			`SELECT product_id, current_stock, reserved_stock, updated_at FROM inventory WHERE product_id = $1`,
			productID,
		).Scan(&rec.ProductID, &rec.CurrentStock, &rec.ReservedStock, &rec.UpdatedAt)
	})
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, fmt.Errorf("%w: inventory for product %s", model.ErrNotFound, productID)
		}
		return nil, fmt.Errorf("get inventory: %w", err)
	}
	return &rec, nil
}

// ListStockHistory возвращает записи журнала движений в порядке их появления.
func (r *PostgresRepository) ListStockHistory(ctx context.Context, f model.StockHistoryFilter) ([]model.StockHistoryEntry, error) {
	var entries []model.StockHistoryEntry

	err := r.withRetry(ctx, func() error {
		rows, err := r.pool.Query(ctx,
			`SELECT id, product_id, sku, tx_type, tx_reason, quantity, previous_stock, new_stock,
			        reference, related_type, related_id, created_at
			 FROM stock_history
			 WHERE ($1 = '' OR product_id = $1) AND ($2 = '' OR reference = $2)
			 ORDER BY id`,
			f.ProductID, f.Reference,
		)
		if err != nil {
			return err
		}
		defer rows.Close()

		entries = entries[:0]
		for rows.Next() {
			var (
				e                      model.StockHistoryEntry
				txType, txReason       string
				relatedType, relatedID *string
			)
			if err := rows.Scan(
				&e.ID, &e.ProductID, &e.SKU, &txType, &txReason, &e.Transaction.Quantity,
				&e.Stock.PreviousStock, &e.Stock.NewStock,
				&e.Reference, &relatedType, &relatedID, &e.CreatedAt,
			); err != nil {
				return err
			}
			e.Transaction.Type = model.TransactionType(txType)
			e.Transaction.Reason = model.TransactionReason(txReason)
			if relatedType != nil && relatedID != nil {
				e.RelatedDocument = &model.DocumentRef{Type: *relatedType, ID: *relatedID}
			}
			entries = append(entries, e)
		}
		return rows.Err()
	})
	if err != nil {
		return nil, fmt.Errorf("list stock history: %w", err)
	}

	return entries, nil
}

// GetSalesCount возвращает счётчик продаж товара. Для товара без продаж возвращается ноль.
func (r *PostgresRepository) GetSalesCount(ctx context.Context, productID string) (int64, error) {
	var count int64
	err := r.withRetry(ctx, func() error {
		return r.pool.QueryRow(ctx, `SELECT sales_count FROM products WHERE id = $1`, productID).Scan(&count)
	})
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return 0, nil
		}
		return 0, fmt.Errorf("get sales count: %w", err)
	}
	return count, nil
}

// Reserve атомарно увеличивает резерв товара. Запись создаётся при первом обращении.
func (t *pgTx) Reserve(ctx context.Context, productID string, qty int64) (model.InventoryRecord, error) {
	if _, err := t.tx.Exec(ctx,
		`INSERT INTO inventory (product_id) VALUES ($1) ON CONFLICT (product_id) DO NOTHING`,
		productID,
	); err != nil {
		return model.InventoryRecord{}, fmt.Errorf("ensure inventory: %w", err)
	}

	rec, err := t.updateInventory(ctx,
		`UPDATE inventory SET reserved_stock = reserved_stock + $2, updated_at = now()
		 WHERE product_id = $1 AND current_stock - reserved_stock >= $2
		 RETURNING product_id, current_stock, reserved_stock, updated_at`,
		productID, qty,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return rec, fmt.Errorf("%w: product %s, requested %d", model.ErrInsufficientStock, productID, qty)
	}
	return rec, err
}

// Release атомарно уменьшает резерв товара.
func (t *pgTx) Release(ctx context.Context, productID string, qty int64) (model.InventoryRecord, error) {
	rec, err := t.updateInventory(ctx,
		`UPDATE inventory SET reserved_stock = reserved_stock - $2, updated_at = now()
		 WHERE product_id = $1 AND reserved_stock >= $2
		 RETURNING product_id, current_stock, reserved_stock, updated_at`,
		productID, qty,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return rec, fmt.Errorf("%w: release %d of product %s", model.ErrInsufficientReservation, qty, productID)
	}
	return rec, err
}

// Fulfill одним выражением списывает остаток и резерв. Снимок остатка берётся из того же выражения.
func (t *pgTx) Fulfill(ctx context.Context, productID string, qty int64) (model.StockSnapshot, error) {
	rec, err := t.updateInventory(ctx,
		`UPDATE inventory SET current_stock = current_stock - $2, reserved_stock = reserved_stock - $2, updated_at = now()
		 WHERE product_id = $1 AND reserved_stock >= $2 AND current_stock >= $2
		 RETURNING product_id, current_stock, reserved_stock, updated_at`,
		productID, qty,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return model.StockSnapshot{}, fmt.Errorf("%w: fulfill %d of product %s", model.ErrInsufficientReservation, qty, productID)
		}
		return model.StockSnapshot{}, err
	}
	return model.StockSnapshot{PreviousStock: rec.CurrentStock + qty, NewStock: rec.CurrentStock}, nil
}

// Restock атомарно увеличивает остаток товара.
func (t *pgTx) Restock(ctx context.Context, productID string, qty int64) (model.StockSnapshot, error) {
	var current int64
	err := t.tx.QueryRow(ctx,
		`INSERT INTO inventory (product_id, current_stock) VALUES ($1, $2)
		 ON CONFLICT (product_id) DO UPDATE
		 SET current_stock = inventory.current_stock + EXCLUDED.current_stock, updated_at = now()
		 RETURNING current_stock`,
		productID, qty,
	).Scan(&current)
	if err != nil {
		if isOutOfRange(err) {
			return model.StockSnapshot{}, fmt.Errorf("%w: restock of product %s overflows stock", model.ErrValidation, productID)
		}
		return model.StockSnapshot{}, fmt.Errorf("restock: %w", err)
	}
	return model.StockSnapshot{PreviousStock: current - qty, NewStock: current}, nil
}

// Adjust атомарно изменяет остаток на delta. Остаток не может опуститься ниже резерва.
func (t *pgTx) Adjust(ctx context.Context, productID string, delta int64) (model.StockSnapshot, error) {
	if _, err := t.tx.Exec(ctx,
		`INSERT INTO inventory (product_id) VALUES ($1) ON CONFLICT (product_id) DO NOTHING`,
		productID,
	); err != nil {
		return model.StockSnapshot{}, fmt.Errorf("ensure inventory: %w", err)
	}

	rec, err := t.updateInventory(ctx,
		`UPDATE inventory SET current_stock = current_stock + $2, updated_at = now()
		 WHERE product_id = $1 AND current_stock + $2 >= reserved_stock
		 RETURNING product_id, current_stock, reserved_stock, updated_at`,
		productID, delta,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return model.StockSnapshot{}, fmt.Errorf("%w: adjust product %s by %d", model.ErrInsufficientStock, productID, delta)
		}
		return model.StockSnapshot{}, err
	}
	return model.StockSnapshot{PreviousStock: rec.CurrentStock - delta, NewStock: rec.CurrentStock}, nil
}

func (t *pgTx) updateInventory(ctx context.Context, query string, productID string, qty int64) (model.InventoryRecord, error) {
	var rec model.InventoryRecord
	err := t.tx.QueryRow(ctx, query, productID, qty).
		Scan(&rec.ProductID, &rec.CurrentStock, &rec.ReservedStock, &rec.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return rec, err
		}
		if isCheckViolation(err) {
			return rec, fmt.Errorf("%w: product %s", model.ErrInsufficientReservation, productID)
		}
		if isOutOfRange(err) {
			return rec, fmt.Errorf("%w: stock of product %s overflows", model.ErrValidation, productID)
		}
		return rec, fmt.Errorf("update inventory: %w", err)
	}
	return rec, nil
}

// RecordStockMovement добавляет запись в журнал движений.
func (t *pgTx) RecordStockMovement(ctx context.Context, e *model.StockHistoryEntry) error {
	var relatedType, relatedID *string
	if e.RelatedDocument != nil {
		relatedType, relatedID = &e.RelatedDocument.Type, &e.RelatedDocument.ID
	}

	err := t.tx.QueryRow(ctx,
		`INSERT INTO stock_history
			(product_id, sku, tx_type, tx_reason, quantity, previous_stock, new_stock, reference, related_type, related_id)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
		 RETURNING id, created_at`,
		e.ProductID, e.SKU, string(e.Transaction.Type), string(e.Transaction.Reason), e.Transaction.Quantity,
		e.Stock.PreviousStock, e.Stock.NewStock, e.Reference, relatedType, relatedID,
	).Scan(&e.ID, &e.CreatedAt)
	if err != nil {
		return fmt.Errorf("record stock movement: %w", err)
	}
	return nil
}

// IncrementSalesCount атомарно увеличивает счётчик продаж товара.
func (t *pgTx) IncrementSalesCount(ctx context.Context, productID string, qty int64) error {
	_, err := t.tx.Exec(ctx,
		`INSERT INTO products (id, sales_count) VALUES ($1, $2)
		 ON CONFLICT (id) DO UPDATE SET sales_count = products.sales_count + EXCLUDED.sales_count`,
		productID, qty,
	)
	if err != nil {
		return fmt.Errorf("increment sales count: %w", err)
	}
	return nil
}
