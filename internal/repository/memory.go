package repository

import (
	"context"
	"fmt"
	"math"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/mmeshcher/order-fulfillment/internal/model"
)

// MemoryRepository хранит заказы и складские данные в памяти процесса.
// Транзакции выполняются последовательно: изменения копятся в транзакции
// и применяются к общему состоянию только при успешном завершении.
type MemoryRepository struct {
	mu        sync.RWMutex
	orders    map[string]*model.Order
	numbers   map[string]string
	inventory map[string]model.InventoryRecord
	history   []model.StockHistoryEntry
	sales     map[string]int64
	now       func() time.Time
}

// NewMemoryRepository создаёт пустой репозиторий в памяти.
func NewMemoryRepository() *MemoryRepository {
	return &MemoryRepository{
		orders:    make(map[string]*model.Order),
		numbers:   make(map[string]string),
		inventory: make(map[string]model.InventoryRecord),
		sales:     make(map[string]int64),
		now:       time.Now,
	}
}

// Close ничего не делает и нужен для совместимости с PostgresRepository.
func (r *MemoryRepository) Close() error {
	return nil
}

// RunInTx выполняет fn под эксклюзивной блокировкой и применяет изменения, если fn завершилась без ошибки.
func (r *MemoryRepository) RunInTx(ctx context.Context, fn TxFunc) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	tx := &memTx{
		repo:      r,
		orders:    make(map[string]*model.Order),
		deleted:   make(map[string]bool),
		inventory: make(map[string]model.InventoryRecord),
		sales:     make(map[string]int64),
	}

	if err := fn(ctx, tx); err != nil {
		return err
	}
	if err := ctx.Err(); err != nil {
		return fmt.Errorf("commit tx: %w", err)
	}

	tx.commit()
	return nil
}

// CreateOrder сохраняет новый заказ.
func (r *MemoryRepository) CreateOrder(ctx context.Context, o *model.Order) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.numbers[o.OrderNumber]; ok {
		return fmt.Errorf("%w: order number %s already exists", model.ErrConflict, o.OrderNumber)
	}
	if _, ok := r.orders[o.ID]; ok {
		return fmt.Errorf("%w: order %s already exists", model.ErrConflict, o.ID)
	}

	r.orders[o.ID] = o.Clone()
	r.numbers[o.OrderNumber] = o.ID
	return nil
}

// GetOrder возвращает копию заказа по идентификатору.
func (r *MemoryRepository) GetOrder(ctx context.Context, id string) (*model.Order, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	o, ok := r.orders[id]
	if !ok {
		return nil, fmt.Errorf("%w: order %s", model.ErrNotFound, id)
	}
	return o.Clone(), nil
}

// ListOrders возвращает страницу заказов, удовлетворяющих фильтру, и общее их количество.
func (r *MemoryRepository) ListOrders(ctx context.Context, f model.OrderFilter) ([]model.Order, int, error) {
	r.mu.RLock()
	matched := make([]*model.Order, 0, len(r.orders))
	for _, o := range r.orders {
		if matchesFilter(o, f) {
			matched = append(matched, o.Clone())
		}
	}
	r.mu.RUnlock()

	less := orderLess(f.SortBy)
	desc := !strings.EqualFold(f.SortOrder, "asc")
	sort.SliceStable(matched, func(i, j int) bool {
		a, b := matched[i], matched[j]
		if desc {
			a, b = b, a
		}
		if less(a, b) {
			return true
		}
		if less(b, a) {
			return false
		}
		return a.ID < b.ID
	})

	total := len(matched)
	if f.Limit > 0 {
		start := min(f.Offset(), total)
		end := min(start+f.Limit, total)
		matched = matched[start:end]
	}

	orders := make([]model.Order, 0, len(matched))
	for _, o := range matched {
		orders = append(orders, *o)
	}
	return orders, total, nil
}

func matchesFilter(o *model.Order, f model.OrderFilter) bool {
	if f.Status != "" && o.OrderStatus != f.Status {
		return false
	}
	if f.PaymentStatus != "" && o.PaymentStatus != f.PaymentStatus {
		return false
	}
	if f.StartDate != nil && o.CreatedAt.Before(*f.StartDate) {
		return false
	}
	if f.EndDate != nil && o.CreatedAt.After(*f.EndDate) {
		return false
	}
	if s := strings.ToLower(strings.TrimSpace(f.Search)); s != "" {
		if !strings.Contains(strings.ToLower(o.OrderNumber), s) &&
			!strings.Contains(strings.ToLower(o.CustomerInfo.Name), s) &&
			!strings.Contains(strings.ToLower(o.CustomerInfo.Email), s) {
			return false
		}
	}
	return true
}

func orderLess(field string) func(a, b *model.Order) bool {
	switch field {
	case model.SortByUpdatedAt:
		return func(a, b *model.Order) bool { return a.UpdatedAt.Before(b.UpdatedAt) }
	case model.SortByTotalPrice:
		return func(a, b *model.Order) bool { return a.Pricing.TotalPrice < b.Pricing.TotalPrice }
	case model.SortByOrderNumber:
		return func(a, b *model.Order) bool { return a.OrderNumber < b.OrderNumber }
	case model.SortByOrderStatus:
		return func(a, b *model.Order) bool { return a.OrderStatus < b.OrderStatus }
	default:
		return func(a, b *model.Order) bool { return a.CreatedAt.Before(b.CreatedAt) }
	}
}

// AggregateOrders возвращает количество и выручку заказов с момента since по дням (UTC) и статусам.
func (r *MemoryRepository) AggregateOrders(ctx context.Context, since time.Time) ([]model.OrderBucket, error) {
	type key struct {
		day    time.Time
		status model.OrderStatus
	}

	r.mu.RLock()
	groups := make(map[key]*model.OrderBucket)
	for _, o := range r.orders {
		if o.CreatedAt.Before(since) {
			continue
		}
		day := o.CreatedAt.UTC().Truncate(24 * time.Hour)
		k := key{day: day, status: o.OrderStatus}
		b, ok := groups[k]
		if !ok {
			b = &model.OrderBucket{Day: day, Status: o.OrderStatus}
			groups[k] = b
		}
		b.Count++
		b.Revenue += o.Pricing.TotalPrice
	}
	r.mu.RUnlock()

	buckets := make([]model.OrderBucket, 0, len(groups))
	for _, b := range groups {
		buckets = append(buckets, *b)
	}
	sort.Slice(buckets, func(i, j int) bool {
		if !buckets[i].Day.Equal(buckets[j].Day) {
			return buckets[i].Day.Before(buckets[j].Day)
		}
		return buckets[i].Status < buckets[j].Status
	})
	return buckets, nil
}

// GetInventory возвращает складскую запись товара.
func (r *MemoryRepository) GetInventory(ctx context.Context, productID string) (*model.InventoryRecord, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	rec, ok := r.inventory[productID]
	if !ok {
		return nil, fmt.Errorf("%w: inventory for product %s", model.ErrNotFound, productID)
	}
	return &rec, nil
}

// ListStockHistory возвращает записи журнала движений в порядке их появления.
func (r *MemoryRepository) ListStockHistory(ctx context.Context, f model.StockHistoryFilter) ([]model.StockHistoryEntry, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var entries []model.StockHistoryEntry
	for _, e := range r.history {
		if f.ProductID != "" && e.ProductID != f.ProductID {
			continue
		}
		if f.Reference != "" && e.Reference != f.Reference {
			continue
		}
		entries = append(entries, e)
	}
	return entries, nil
}

// GetSalesCount возвращает счётчик продаж товара.
func (r *MemoryRepository) GetSalesCount(ctx context.Context, productID string) (int64, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	return r.sales[productID], nil
}

type memTx struct {
	repo      *MemoryRepository
	orders    map[string]*model.Order
	deleted   map[string]bool
	inventory map[string]model.InventoryRecord
	history   []model.StockHistoryEntry
	sales     map[string]int64
}

func (t *memTx) order(id string) (*model.Order, bool) {
	if t.deleted[id] {
		return nil, false
	}
	if o, ok := t.orders[id]; ok {
		return o, true
	}
	o, ok := t.repo.orders[id]
	return o, ok
}

func (t *memTx) record(productID string) model.InventoryRecord {
	if rec, ok := t.inventory[productID]; ok {
		return rec
	}
	if rec, ok := t.repo.inventory[productID]; ok {
		return rec
	}
	return model.InventoryRecord{ProductID: productID}
}

func (t *memTx) LockOrder(ctx context.Context, id string) (*model.Order, error) {
	o, ok := t.order(id)
	if !ok {
		return nil, fmt.Errorf("%w: order %s", model.ErrNotFound, id)
	}
	return o.Clone(), nil
}

func (t *memTx) SaveOrder(ctx context.Context, o *model.Order) error {
	current, ok := t.order(o.ID)
	if !ok {
		return fmt.Errorf("%w: order %s", model.ErrNotFound, o.ID)
	}
	if current.Version != o.Version {
		return fmt.Errorf("%w: order %s was modified concurrently", model.ErrConflict, o.ID)
	}

	o.Version++
	t.orders[o.ID] = o.Clone()
	return nil
}

func (t *memTx) DeleteOrder(ctx context.Context, id string) error {
	if _, ok := t.order(id); !ok {
		return fmt.Errorf("%w: order %s", model.ErrNotFound, id)
	}
	delete(t.orders, id)
	t.deleted[id] = true
	return nil
}

func (t *memTx) Reserve(ctx context.Context, productID string, qty int64) (model.InventoryRecord, error) {
	rec := t.record(productID)
	if rec.CurrentStock-rec.ReservedStock < qty {
		return rec, fmt.Errorf("%w: product %s, requested %d", model.ErrInsufficientStock, productID, qty)
	}

	rec.ReservedStock += qty
	rec.UpdatedAt = t.repo.now()
	t.inventory[productID] = rec
	return rec, nil
}

func (t *memTx) Release(ctx context.Context, productID string, qty int64) (model.InventoryRecord, error) {
	rec := t.record(productID)
	if rec.ReservedStock < qty {
		return rec, fmt.Errorf("%w: release %d of product %s", model.ErrInsufficientReservation, qty, productID)
	}

	rec.ReservedStock -= qty
	rec.UpdatedAt = t.repo.now()
	t.inventory[productID] = rec
	return rec, nil
}

func (t *memTx) Fulfill(ctx context.Context, productID string, qty int64) (model.StockSnapshot, error) {
	rec := t.record(productID)
	if rec.ReservedStock < qty || rec.CurrentStock < qty {
		return model.StockSnapshot{}, fmt.Errorf("%w: fulfill %d of product %s", model.ErrInsufficientReservation, qty, productID)
	}

	snap := model.StockSnapshot{PreviousStock: rec.CurrentStock}
	rec.CurrentStock -= qty
	rec.ReservedStock -= qty
	rec.UpdatedAt = t.repo.now()
	snap.NewStock = rec.CurrentStock
	t.inventory[productID] = rec
	return snap, nil
}

func (t *memTx) Restock(ctx context.Context, productID string, qty int64) (model.StockSnapshot, error) {
	rec := t.record(productID)

	if qty > math.MaxInt64-rec.CurrentStock {
		return model.StockSnapshot{}, fmt.Errorf("%w: restock of product %s overflows stock", model.ErrValidation, productID)
	}

	snap := model.StockSnapshot{PreviousStock: rec.CurrentStock}
	rec.CurrentStock += qty
	rec.UpdatedAt = t.repo.now()
	snap.NewStock = rec.CurrentStock
	t.inventory[productID] = rec
	return snap, nil
}

func (t *memTx) Adjust(ctx context.Context, productID string, delta int64) (model.StockSnapshot, error) {
	rec := t.record(productID)
	if delta > 0 && delta > math.MaxInt64-rec.CurrentStock {
		return model.StockSnapshot{}, fmt.Errorf("%w: stock of product %s overflows", model.ErrValidation, productID)
	}
	if rec.CurrentStock+delta < rec.ReservedStock {
		return model.StockSnapshot{}, fmt.Errorf("%w: adjust product %s by %d", model.ErrInsufficientStock, productID, delta)
	}

	snap := model.StockSnapshot{PreviousStock: rec.CurrentStock}
	rec.CurrentStock += delta
	rec.UpdatedAt = t.repo.now()
	snap.NewStock = rec.CurrentStock
	t.inventory[productID] = rec
	return snap, nil
}

func (t *memTx) RecordStockMovement(ctx context.Context, e *model.StockHistoryEntry) error {
	e.ID = int64(len(t.repo.history) + len(t.history) + 1)
	e.CreatedAt = t.repo.now()
	t.history = append(t.history, *e)
	return nil
}

func (t *memTx) IncrementSalesCount(ctx context.Context, productID string, qty int64) error {
	t.sales[productID] += qty
	return nil
}

func (t *memTx) commit() {
	r := t.repo
	for id := range t.deleted {
		if o, ok := r.orders[id]; ok {
			delete(r.numbers, o.OrderNumber)
			delete(r.orders, id)
		}
	}
	for id, o := range t.orders {
		r.orders[id] = o
	}
	for id, rec := range t.inventory {
		r.inventory[id] = rec
	}
	r.history = append(r.history, t.history...)
	for id, n := range t.sales {
		r.sales[id] += n
	}
}
