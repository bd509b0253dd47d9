package service

import (
	"context"
	"fmt"
	"math"
	"strings"
	"time"

	"github.com/mmeshcher/order-fulfillment/internal/model"
)

const (
	defaultPageLimit       = 20
	maxPageLimit           = 100
	defaultAnalyticsPeriod = 30
	maxAnalyticsPeriod     = 365
	exportLimit            = 10000
)

func normalizeFilter(f model.OrderFilter) (model.OrderFilter, error) {
	if f.Status != "" && !f.Status.Valid() {
		return f, fmt.Errorf("%w: unknown status %q", model.ErrValidation, f.Status)
	}
	if f.PaymentStatus != "" && !f.PaymentStatus.Valid() {
		return f, fmt.Errorf("%w: unknown payment status %q", model.ErrValidation, f.PaymentStatus)
	}
	if f.StartDate != nil && f.EndDate != nil && f.StartDate.After(*f.EndDate) {
		return f, fmt.Errorf("%w: startDate is after endDate", model.ErrValidation)
	}

	if f.SortBy == "" {
		f.SortBy = model.SortByCreatedAt
	}
	if !model.ValidSortField(f.SortBy) {
		return f, fmt.Errorf("%w: unsupported sortBy %q", model.ErrValidation, f.SortBy)
	}

	f.SortOrder = strings.ToLower(f.SortOrder)
	if f.SortOrder == "" {
		f.SortOrder = "desc"
	}
	if f.SortOrder != "asc" && f.SortOrder != "desc" {
		return f, fmt.Errorf("%w: sortOrder must be asc or desc", model.ErrValidation)
	}

	if f.Page < 1 {
		f.Page = 1
	}
	if f.Limit <= 0 {
		f.Limit = defaultPageLimit
	}
	if f.Limit > maxPageLimit {
		f.Limit = maxPageLimit
	}
	if f.Page-1 > math.MaxInt/f.Limit {
		return f, fmt.Errorf("%w: page %d is out of range", model.ErrValidation, f.Page)
	}

	return f, nil
}

// ListOrders возвращает страницу заказов по фильтру.
func (s *Service) ListOrders(ctx context.Context, f model.OrderFilter) (*model.OrderPage, error) {
	f, err := normalizeFilter(f)
	if err != nil {
		return nil, err
	}

	orders, total, err := s.repo.ListOrders(ctx, f)
	if err != nil {
		return nil, err
	}
	if orders == nil {
		orders = []model.Order{}
	}

	return &model.OrderPage{
		Orders: orders,
		Pagination: model.Pagination{
			Page:  f.Page,
			Limit: f.Limit,
			Total: total,
			Pages: (total + f.Limit - 1) / f.Limit,
		},
	}, nil
}

// Analytics возвращает количество и выручку заказов за последние periodDays дней.
func (s *Service) Analytics(ctx context.Context, periodDays int) (*model.OrderAnalytics, error) {
	if periodDays == 0 {
		periodDays = defaultAnalyticsPeriod
	}
	if periodDays < 0 || periodDays > maxAnalyticsPeriod {
		return nil, fmt.Errorf("%w: period must be between 1 and %d days", model.ErrValidation, maxAnalyticsPeriod)
	}

	since := s.now().AddDate(0, 0, -periodDays)
	buckets, err := s.repo.AggregateOrders(ctx, since)
	if err != nil {
		return nil, err
	}

	a := &model.OrderAnalytics{
		PeriodDays: periodDays,
		ByStatus:   make(map[model.OrderStatus]model.StatusStats),
		Daily:      []model.DailyStats{},
	}

	daily := make(map[string]int)
	for _, b := range buckets {
		a.TotalOrders += b.Count
		a.TotalRevenue += b.Revenue

		st := a.ByStatus[b.Status]
		st.Count += b.Count
		st.Revenue = roundMoney(st.Revenue + b.Revenue)
		a.ByStatus[b.Status] = st

		day := b.Day.Format(time.DateOnly)
		i, ok := daily[day]
		if !ok {
			i = len(a.Daily)
			daily[day] = i
			a.Daily = append(a.Daily, model.DailyStats{Date: day})
		}
		a.Daily[i].Count += b.Count
		a.Daily[i].Revenue = roundMoney(a.Daily[i].Revenue + b.Revenue)
	}

	a.TotalRevenue = roundMoney(a.TotalRevenue)
	if a.TotalOrders > 0 {
		a.AverageOrderValue = roundMoney(a.TotalRevenue / float64(a.TotalOrders))
	}

	return a, nil
}

func roundMoney(v float64) float64 {
	return math.Round(v*100) / 100
}

// ExportOrders возвращает строки выгрузки заказов по фильтру без постраничного деления.
func (s *Service) ExportOrders(ctx context.Context, f model.OrderFilter) ([]model.ExportRow, error) {
	f, err := normalizeFilter(f)
	if err != nil {
		return nil, err
	}
	f.Page, f.Limit = 1, exportLimit

	orders, _, err := s.repo.ListOrders(ctx, f)
	if err != nil {
		return nil, err
	}

	rows := make([]model.ExportRow, 0, len(orders))
	for i := range orders {
		o := &orders[i]
		rows = append(rows, model.ExportRow{
			OrderNumber:   o.OrderNumber,
			CustomerName:  o.CustomerInfo.Name,
			CustomerEmail: o.CustomerInfo.Email,
			TotalAmount:   o.Pricing.TotalPrice,
			OrderStatus:   o.OrderStatus,
			PaymentStatus: o.PaymentStatus,
			CreatedAt:     o.CreatedAt,
			ItemCount:     o.ItemCount(),
		})
	}
	return rows, nil
}

// Tracking возвращает сведения для отслеживания заказа.
func (s *Service) Tracking(ctx context.Context, orderID string) (*model.TrackingSummary, error) {
	o, err := s.GetOrder(ctx, orderID)
	if err != nil {
		return nil, err
	}

	history := o.StatusHistory
	if history == nil {
		history = []model.StatusChange{}
	}

	return &model.TrackingSummary{
		OrderNumber:        o.OrderNumber,
		Status:             o.OrderStatus,
		TrackingNumber:     o.Shipping.TrackingNumber,
		Provider:           o.Shipping.Provider,
		EstimatedDelivery:  o.Shipping.EstimatedDelivery,
		StatusHistory:      history,
		AllowedTransitions: AllowedTransitions(o.OrderStatus),
	}, nil
}
