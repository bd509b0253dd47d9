package service

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"
	"go.uber.org/zap/zaptest"

	"github.com/mmeshcher/order-fulfillment/internal/metrics"
	"github.com/mmeshcher/order-fulfillment/internal/model"
	"github.com/mmeshcher/order-fulfillment/internal/notify"
	"github.com/mmeshcher/order-fulfillment/internal/repository"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

type stubNotifier struct {
	mu     sync.Mutex
	calls  []notify.OrderConfirmation
	result notify.Result
	err    error
	panics bool
}

func (n *stubNotifier) SendOrderConfirmation(ctx context.Context, msg notify.OrderConfirmation) (notify.Result, error) {
	n.mu.Lock()
	defer n.mu.Unlock()

	n.calls = append(n.calls, msg)
	if n.panics {
		panic("smtp connection lost")
	}
	if n.err != nil {
		return notify.Result{}, n.err
	}
	return n.result, nil
}

func (n *stubNotifier) callCount() int {
	n.mu.Lock()
	defer n.mu.Unlock()
	return len(n.calls)
}

type testEnv struct {
	svc      *Service
	repo     *repository.MemoryRepository
	notifier *stubNotifier
	metrics  *metrics.Metrics
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()

	repo := repository.NewMemoryRepository()
	notifier := &stubNotifier{result: notify.Result{Success: true}}
	m := metrics.New()

	svc := NewService(repo, notifier, m, zaptest.NewLogger(t))

	var (
		mu    sync.Mutex
		clock = time.Date(2026, 6, 1, 9, 0, 0, 0, time.UTC)
	)
	svc.now = func() time.Time {
		mu.Lock()
		defer mu.Unlock()
		clock = clock.Add(time.Minute)
		return clock
	}

	return &testEnv{svc: svc, repo: repo, notifier: notifier, metrics: m}
}

func item(productID string, qty int64) model.OrderItem {
	return model.OrderItem{ProductID: productID, SKU: "SKU-" + productID, Quantity: qty, UnitPrice: 10}
}

func (e *testEnv) createOrder(t require.TestingT, items ...model.OrderItem) *model.Order {
	o, err := e.svc.CreateOrder(context.Background(), OrderInput{
		Items:        items,
		Pricing:      model.Pricing{Subtotal: 30, TotalPrice: 30},
		CustomerInfo: model.CustomerInfo{Name: "Jane Roe", Email: "jane@example.com"},
	})
	require.NoError(t, err)
	return o
}

func (e *testEnv) restock(t require.TestingT, productID string, qty int64) {
	_, err := e.svc.Restock(context.Background(), RestockInput{ProductID: productID, SKU: "SKU-" + productID, Quantity: qty})
	require.NoError(t, err)
}

func (e *testEnv) inventory(t require.TestingT, productID string) model.InventoryRecord {
	rec, err := e.repo.GetInventory(context.Background(), productID)
	require.NoError(t, err)
	return *rec
}

func (e *testEnv) apply(t require.TestingT, orderID string, status model.OrderStatus) *TransitionResult {
	res, err := e.svc.ApplyStatus(context.Background(), orderID, StatusUpdate{Status: status})
	require.NoError(t, err, fmt.Sprintf("transition to %s", status))
	return res
}

// setStatus меняет статус заказа напрямую, минуя складские операции.
func (e *testEnv) setStatus(t require.TestingT, orderID string, status model.OrderStatus) {
	err := e.repo.RunInTx(context.Background(), func(ctx context.Context, tx repository.Tx) error {
		o, err := tx.LockOrder(ctx, orderID)
		if err != nil {
			return err
		}
		o.OrderStatus = status
		return tx.SaveOrder(ctx, o)
	})
	require.NoError(t, err)
}
