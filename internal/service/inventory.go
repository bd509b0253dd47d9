package service

import (
	"context"
	"fmt"
	"math"
	"strings"

	"go.uber.org/zap"

	"github.com/mmeshcher/order-fulfillment/internal/model"
	"github.com/mmeshcher/order-fulfillment/internal/repository"
)

// RestockInput описывает поступление товара на склад.
type RestockInput struct {
	ProductID string
	SKU       string
	Quantity  int64
	Reference string
}

// Restock увеличивает остаток товара и записывает поступление в журнал движений.
func (s *Service) Restock(ctx context.Context, in RestockInput) (*model.StockHistoryEntry, error) {
	if strings.TrimSpace(in.ProductID) == "" {
		return nil, fmt.Errorf("%w: productId is required", model.ErrValidation)
	}
	if in.Quantity <= 0 {
		return nil, fmt.Errorf("%w: quantity must be positive", model.ErrValidation)
	}

	var entry *model.StockHistoryEntry
	err := s.repo.RunInTx(ctx, func(ctx context.Context, tx repository.Tx) error {
		snap, err := tx.Restock(ctx, in.ProductID, in.Quantity)
		if err != nil {
			return err
		}

		entry = &model.StockHistoryEntry{
			ProductID: in.ProductID,
			SKU:       in.SKU,
			Transaction: model.StockTransaction{
				Type:     model.TransactionIn,
				Reason:   model.ReasonPurchase,
				Quantity: in.Quantity,
			},
			Stock:     snap,
			Reference: in.Reference,
		}
		return tx.RecordStockMovement(ctx, entry)
	})
	if err != nil {
		if model.IsDomainError(err) {
			return nil, err
		}
		s.logger.Error("restock failed", zap.Error(err), zap.String("product", in.ProductID))
		return nil, fmt.Errorf("%w: %w", model.ErrPersistence, err)
	}

	s.metrics.InventoryMoved("restock", in.Quantity)
	return entry, nil
}

// AdjustInput описывает ручную корректировку остатка: инвентаризацию, списание брака или возврат.
type AdjustInput struct {
	ProductID string
	SKU       string
	Delta     int64
	Reason    model.TransactionReason
	Reference string
}

// AdjustStock изменяет остаток на Delta и записывает корректировку в журнал движений.
// Списание брака уменьшает остаток, возврат увеличивает, инвентаризация допускает оба направления.
func (s *Service) AdjustStock(ctx context.Context, in AdjustInput) (*model.StockHistoryEntry, error) {
	if strings.TrimSpace(in.ProductID) == "" {
		return nil, fmt.Errorf("%w: productId is required", model.ErrValidation)
	}
	if in.Delta == 0 || in.Delta == math.MinInt64 {
		return nil, fmt.Errorf("%w: delta must be a non-zero quantity", model.ErrValidation)
	}
	if in.Reason == "" {
		in.Reason = model.ReasonAdjustment
	}
	switch {
	case in.Reason == model.ReasonAdjustment:
	case in.Reason == model.ReasonDamage && in.Delta < 0:
	case in.Reason == model.ReasonReturn && in.Delta > 0:
	default:
		return nil, fmt.Errorf("%w: reason %q does not allow delta %d", model.ErrValidation, in.Reason, in.Delta)
	}

	txType, qty := model.TransactionIn, in.Delta
	if in.Delta < 0 {
		txType, qty = model.TransactionOut, -in.Delta
	}

	var entry *model.StockHistoryEntry
	err := s.repo.RunInTx(ctx, func(ctx context.Context, tx repository.Tx) error {
		snap, err := tx.Adjust(ctx, in.ProductID, in.Delta)
		if err != nil {
			return err
		}

		entry = &model.StockHistoryEntry{
			ProductID: in.ProductID,
			SKU:       in.SKU,
			Transaction: model.StockTransaction{
				Type:     txType,
				Reason:   in.Reason,
				Quantity: qty,
			},
			Stock:     snap,
			Reference: in.Reference,
		}
		return tx.RecordStockMovement(ctx, entry)
	})
	if err != nil {
		if model.IsDomainError(err) {
			return nil, err
		}
		s.logger.Error("stock adjustment failed", zap.Error(err), zap.String("product", in.ProductID))
		return nil, fmt.Errorf("%w: %w", model.ErrPersistence, err)
	}

	s.logger.Info("stock adjusted",
		zap.String("product", in.ProductID),
		zap.Int64("delta", in.Delta),
		zap.String("reason", string(in.Reason)),
	)
	s.metrics.InventoryMoved("adjust", qty)
	return entry, nil
}

// GetInventory возвращает складские счётчики товара.
func (s *Service) GetInventory(ctx context.Context, productID string) (*model.InventoryRecord, error) {
	return s.repo.GetInventory(ctx, productID)
}

// StockHistory возвращает журнал движений товара.
func (s *Service) StockHistory(ctx context.Context, productID string) ([]model.StockHistoryEntry, error) {
	return s.repo.ListStockHistory(ctx, model.StockHistoryFilter{ProductID: productID})
}

// OrderStockHistory возвращает движения, порождённые заказом.
func (s *Service) OrderStockHistory(ctx context.Context, orderID string) ([]model.StockHistoryEntry, error) {
	o, err := s.GetOrder(ctx, orderID)
	if err != nil {
		return nil, err
	}
	return s.repo.ListStockHistory(ctx, model.StockHistoryFilter{Reference: o.OrderNumber})
}

// SalesCount возвращает счётчик продаж товара.
func (s *Service) SalesCount(ctx context.Context, productID string) (*model.ProductSales, error) {
	n, err := s.repo.GetSalesCount(ctx, productID)
	if err != nil {
		return nil, err
	}
	return &model.ProductSales{ProductID: productID, SalesCount: n}, nil
}
