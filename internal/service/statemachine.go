package service

import "github.com/mmeshcher/order-fulfillment/internal/model"

type effect uint8

const (
	effectReserve effect = 1 << iota
	effectRelease
	effectShip
	effectDeliver
	effectCancel
	effectRefund
	effectNotify
)

type edge struct {
	from model.OrderStatus
	to   model.OrderStatus
}

// transitions перечисляет все допустимые переходы и их побочные эффекты.
// Переход, которого нет в таблице, отклоняется.
var transitions = map[edge]effect{
	{model.OrderStatusPending, model.OrderStatusConfirmed}: effectReserve | effectNotify,
	{model.OrderStatusPending, model.OrderStatusCanceled}:  effectCancel,

	{model.OrderStatusConfirmed, model.OrderStatusProcessing}: 0,
	{model.OrderStatusConfirmed, model.OrderStatusShipped}:    effectShip,
	{model.OrderStatusConfirmed, model.OrderStatusDelivered}:  effectDeliver,
	{model.OrderStatusConfirmed, model.OrderStatusCanceled}:   effectRelease | effectCancel,

	{model.OrderStatusProcessing, model.OrderStatusShipped}:   effectShip,
	{model.OrderStatusProcessing, model.OrderStatusDelivered}: effectDeliver,
	{model.OrderStatusProcessing, model.OrderStatusCanceled}:  effectRelease | effectCancel,

	{model.OrderStatusShipped, model.OrderStatusDelivered}: effectDeliver,

	{model.OrderStatusDelivered, model.OrderStatusRefunded}: effectRefund,
	{model.OrderStatusCanceled, model.OrderStatusRefunded}:  effectRefund,
}

func lookupTransition(from, to model.OrderStatus) (effect, bool) {
	e, ok := transitions[edge{from: from, to: to}]
	return e, ok
}

// AllowedTransitions возвращает статусы, в которые можно перевести заказ из статуса from.
func AllowedTransitions(from model.OrderStatus) []model.OrderStatus {
	out := []model.OrderStatus{}
	for _, to := range model.OrderStatuses {
		if _, ok := lookupTransition(from, to); ok {
			out = append(out, to)
		}
	}
	return out
}
