// Package service реализует бизнес-логику исполнения заказов: переходы статусов,
// складской учёт, работу с заказами и отчёты.
package service

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/mmeshcher/order-fulfillment/internal/metrics"
	"github.com/mmeshcher/order-fulfillment/internal/model"
	"github.com/mmeshcher/order-fulfillment/internal/notify"
	"github.com/mmeshcher/order-fulfillment/internal/repository"
)

// ActorSystem записывается автором изменений, когда оператор не известен.
const ActorSystem = "system"

// Repository описывает контракт доступа к данным, используемый сервисом.
type Repository interface {
	Close() error
	RunInTx(ctx context.Context, fn repository.TxFunc) error
	CreateOrder(ctx context.Context, o *model.Order) error
	GetOrder(ctx context.Context, id string) (*model.Order, error)
	ListOrders(ctx context.Context, f model.OrderFilter) ([]model.Order, int, error)
	AggregateOrders(ctx context.Context, since time.Time) ([]model.OrderBucket, error)
	GetInventory(ctx context.Context, productID string) (*model.InventoryRecord, error)
	ListStockHistory(ctx context.Context, f model.StockHistoryFilter) ([]model.StockHistoryEntry, error)
	GetSalesCount(ctx context.Context, productID string) (int64, error)
}

// Service содержит бизнес-логику исполнения заказов.
type Service struct {
	repo     Repository
	notifier notify.Gateway
	metrics  *metrics.Metrics
	logger   *zap.Logger
	now      func() time.Time
	newID    func() string
}

// NewService создаёт новый сервис. Если шлюз уведомлений не передан, уведомления не отправляются.
func NewService(repo Repository, notifier notify.Gateway, m *metrics.Metrics, logger *zap.Logger) *Service {
	if notifier == nil {
		notifier = notify.Disabled{}
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	return &Service{
		repo:     repo,
		notifier: notifier,
		metrics:  m,
		logger:   logger,
		now:      func() time.Time { return time.Now().UTC() },
		newID:    uuid.NewString,
	}
}

// Close закрывает ресурсы сервиса.
func (s *Service) Close() error {
	if s.repo != nil {
		return s.repo.Close()
	}
	return nil
}

// checkOrderID отклоняет идентификаторы заказов, не являющиеся UUID.
func checkOrderID(id string) error {
	if _, err := uuid.Parse(id); err != nil {
		return fmt.Errorf("%w: malformed order id %q", model.ErrValidation, id)
	}
	return nil
}

func actorOrSystem(actor string) string {
	if actor == "" {
		return ActorSystem
	}
	return actor
}
