package repository

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/mmeshcher/order-fulfillment/internal/model"
)

const orderColumns = `id, order_number, items,
	subtotal_cents, shipping_cents, tax_cents, discount_cents, total_cents,
	customer_name, customer_email, shipping_address,
	order_status, payment_status,
	tracking_number, shipping_provider, shipped_at, delivered_at, estimated_delivery, fulfilled_at,
	refund, cancellation, notes, status_history, version, created_at, updated_at`

var sortColumns = map[string]string{
	model.SortByCreatedAt:   "created_at",
	model.SortByUpdatedAt:   "updated_at",
	model.SortByTotalPrice:  "total_cents",
	model.SortByOrderNumber: "order_number",
	model.SortByOrderStatus: "order_status",
}

func scanOrder(row pgx.Row) (*model.Order, error) {
	var (
		o                                        model.Order
		subtotal, shipping, tax, discount, total int64
		orderStatus, paymentStatus               string
	)

	err := row.Scan(
		&o.ID, &o.OrderNumber, &o.Items,
		&subtotal, &shipping, &tax, &discount, &total,
		&o.CustomerInfo.Name, &o.CustomerInfo.Email, &o.ShippingAddress,
		&orderStatus, &paymentStatus,
		&o.Shipping.TrackingNumber, &o.Shipping.Provider, &o.Shipping.ShippedAt, &o.Shipping.DeliveredAt,
		&o.Shipping.EstimatedDelivery, &o.Fulfillment.DeliveredAt,
		&o.Refund, &o.Cancellation, &o.Notes, &o.StatusHistory, &o.Version, &o.CreatedAt, &o.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}

	o.Pricing = model.Pricing{
		Subtotal:       fromCents(subtotal),
		ShippingCost:   fromCents(shipping),
		TaxAmount:      fromCents(tax),
		DiscountAmount: fromCents(discount),
		TotalPrice:     fromCents(total),
	}
	o.OrderStatus = model.OrderStatus(orderStatus)
	o.PaymentStatus = model.PaymentStatus(paymentStatus)

	return &o, nil
}

// CreateOrder сохраняет новый заказ.
func (r *PostgresRepository) CreateOrder(ctx context.Context, o *model.Order) error {
	_, err := r.pool.Exec(ctx,
		`INSERT INTO orders (`+orderColumns+`)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17, $18, $19, $20, $21, $22, $23, $24, $25, $26)`,
		o.ID, o.OrderNumber, o.Items,
		toCents(o.Pricing.Subtotal), toCents(o.Pricing.ShippingCost), toCents(o.Pricing.TaxAmount),
		toCents(o.Pricing.DiscountAmount), toCents(o.Pricing.TotalPrice),
		o.CustomerInfo.Name, o.CustomerInfo.Email, o.ShippingAddress,
		string(o.OrderStatus), string(o.PaymentStatus),
		o.Shipping.TrackingNumber, o.Shipping.Provider, o.Shipping.ShippedAt, o.Shipping.DeliveredAt,
		o.Shipping.EstimatedDelivery, o.Fulfillment.DeliveredAt,
		o.Refund, o.Cancellation, o.Notes, o.StatusHistory, o.Version, o.CreatedAt, o.UpdatedAt,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return fmt.Errorf("%w: order number %s already exists", model.ErrConflict, o.OrderNumber)
		}
		return fmt.Errorf("create order: %w", err)
	}
	return nil
}

// GetOrder возвращает заказ по идентификатору.
func (r *PostgresRepository) GetOrder(ctx context.Context, id string) (*model.Order, error) {
	var o *model.Order
	err := r.withRetry(ctx, func() error {
		var err error
		o, err = scanOrder(r.pool.QueryRow(ctx, `SELECT `+orderColumns+` FROM orders WHERE id = $1`, id))
		return err
	})
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, fmt.Errorf("%w: order %s", model.ErrNotFound, id)
		}
		if isInvalidText(err) {
			return nil, fmt.Errorf("%w: malformed order id %q", model.ErrValidation, id)
		}
		return nil, fmt.Errorf("get order: %w", err)
	}
	return o, nil
}

func buildOrderWhere(f model.OrderFilter) (string, []any) {
	var (
		conds []string
		args  []any
	)

	add := func(cond string, arg any) {
		args = append(args, arg)
		conds = append(conds, fmt.Sprintf(cond, len(args)))
	}

	if f.Status != "" {
		add("order_status = $%d", string(f.Status))
	}
	if f.PaymentStatus != "" {
		add("payment_status = $%d", string(f.PaymentStatus))
	}
	if s := strings.TrimSpace(f.Search); s != "" {
		pattern := "%" + escapeLike(s) + "%"
		args = append(args, pattern)
		n := len(args)
		conds = append(conds, fmt.Sprintf(
			"(order_number ILIKE $%d OR customer_name ILIKE $%d OR customer_email ILIKE $%d)", n, n, n))
	}
	if f.StartDate != nil {
		add("created_at >= $%d", *f.StartDate)
	}
	if f.EndDate != nil {
		add("created_at <= $%d", *f.EndDate)
	}

	if len(conds) == 0 {
		return "", args
	}
	return " WHERE " + strings.Join(conds, " AND "), args
}

func escapeLike(s string) string {
	return strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`).Replace(s)
}

// ListOrders возвращает страницу заказов, удовлетворяющих фильтру, и общее их количество.
// Limit, равный нулю, снимает ограничение на размер страницы.
func (r *PostgresRepository) ListOrders(ctx context.Context, f model.OrderFilter) ([]model.Order, int, error) {
	where, args := buildOrderWhere(f)

	column, ok := sortColumns[f.SortBy]
	if !ok {
		column = "created_at"
	}
	direction := "DESC"
	if strings.EqualFold(f.SortOrder, "asc") {
		direction = "ASC"
	}

	query := `SELECT ` + orderColumns + ` FROM orders` + where +
		` ORDER BY ` + column + ` ` + direction + `, id ` + direction
	pageArgs := append([]any(nil), args...)
	if f.Limit > 0 {
		pageArgs = append(pageArgs, f.Limit, f.Offset())
		query += fmt.Sprintf(" LIMIT $%d OFFSET $%d", len(pageArgs)-1, len(pageArgs))
	}

	var (
		total  int
		orders []model.Order
	)

	err := r.withRetry(ctx, func() error {
		if err := r.pool.QueryRow(ctx, `SELECT count(*) FROM orders`+where, args...).Scan(&total); err != nil {
			return err
		}

		rows, err := r.pool.Query(ctx, query, pageArgs...)
		if err != nil {
			return err
		}
		defer rows.Close()

		orders = orders[:0]
		for rows.Next() {
			o, err := scanOrder(rows)
			if err != nil {
				return err
			}
			orders = append(orders, *o)
		}
		return rows.Err()
	})
	if err != nil {
		return nil, 0, fmt.Errorf("list orders: %w", err)
	}

	return orders, total, nil
}

// AggregateOrders возвращает количество и выручку заказов с момента since,
// сгруппированные по дню создания (UTC) и статусу.
func (r *PostgresRepository) AggregateOrders(ctx context.Context, since time.Time) ([]model.OrderBucket, error) {
	var buckets []model.OrderBucket

	err := r.withRetry(ctx, func() error {
		rows, err := r.pool.Query(ctx,
			`SELECT date_trunc('day', created_at AT TIME ZONE 'UTC') AS day, order_status, count(*), COALESCE(sum(total_cents), 0)
			 FROM orders
			 WHERE created_at >= $1
			 GROUP BY day, order_status
			 ORDER BY day, order_status`,
			since,
		)
		if err != nil {
			return err
		}
		defer rows.Close()

		buckets = buckets[:0]
		for rows.Next() {
			var (
				b       model.OrderBucket
				status  string
				revenue int64
			)
			if err := rows.Scan(&b.Day, &status, &b.Count, &revenue); err != nil {
				return err
			}
			b.Status = model.OrderStatus(status)
			b.Revenue = fromCents(revenue)
			buckets = append(buckets, b)
		}
		return rows.Err()
	})
	if err != nil {
		return nil, fmt.Errorf("aggregate orders: %w", err)
	}

	return buckets, nil
}

// LockOrder загружает заказ с блокировкой строки до конца транзакции.
func (t *pgTx) LockOrder(ctx context.Context, id string) (*model.Order, error) {
	o, err := scanOrder(t.tx.QueryRow(ctx, `SELECT `+orderColumns+` FROM orders WHERE id = $1 FOR UPDATE`, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, fmt.Errorf("%w: order %s", model.ErrNotFound, id)
		}
		if isInvalidText(err) {
			return nil, fmt.Errorf("%w: malformed order id %q", model.ErrValidation, id)
		}
		return nil, fmt.Errorf("lock order: %w", err)
	}
	return o, nil
}

// SaveOrder сохраняет изменённый заказ с проверкой версии.
func (t *pgTx) SaveOrder(ctx context.Context, o *model.Order) error {
	cmdTag, err := t.tx.Exec(ctx,
		`UPDATE orders SET
			items = $3,
			subtotal_cents = $4, shipping_cents = $5, tax_cents = $6, discount_cents = $7, total_cents = $8,
			customer_name = $9, customer_email = $10, shipping_address = $11,
			order_status = $12, payment_status = $13,
			tracking_number = $14, shipping_provider = $15, shipped_at = $16, delivered_at = $17,
			estimated_delivery = $18, fulfilled_at = $19,
			refund = $20, cancellation = $21, notes = $22, status_history = $23,
			updated_at = $24, version = version + 1
		 WHERE id = $1 AND version = $2`,
		o.ID, o.Version, o.Items,
		toCents(o.Pricing.Subtotal), toCents(o.Pricing.ShippingCost), toCents(o.Pricing.TaxAmount),
		toCents(o.Pricing.DiscountAmount), toCents(o.Pricing.TotalPrice),
		o.CustomerInfo.Name, o.CustomerInfo.Email, o.ShippingAddress,
		string(o.OrderStatus), string(o.PaymentStatus),
		o.Shipping.TrackingNumber, o.Shipping.Provider, o.Shipping.ShippedAt, o.Shipping.DeliveredAt,
		o.Shipping.EstimatedDelivery, o.Fulfillment.DeliveredAt,
		o.Refund, o.Cancellation, o.Notes, o.StatusHistory, o.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("save order: %w", err)
	}

	if cmdTag.RowsAffected() == 0 {
		return fmt.Errorf("%w: order %s was modified concurrently", model.ErrConflict, o.ID)
	}

	o.Version++
	return nil
}

// DeleteOrder удаляет заказ.
func (t *pgTx) DeleteOrder(ctx context.Context, id string) error {
	cmdTag, err := t.tx.Exec(ctx, `DELETE FROM orders WHERE id = $1`, id)
	if err != nil {
		if isInvalidText(err) {
			return fmt.Errorf("%w: malformed order id %q", model.ErrValidation, id)
		}
		return fmt.Errorf("delete order: %w", err)
	}
	if cmdTag.RowsAffected() == 0 {
		return fmt.Errorf("%w: order %s", model.ErrNotFound, id)
	}
	return nil
}
