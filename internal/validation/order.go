package validation

import (
	"fmt"
	"net/mail"
	"strings"

	"github.com/mmeshcher/order-fulfillment/internal/model"
)

// ValidateItems проверяет позиции заказа.
func ValidateItems(items []model.OrderItem) error {
	if len(items) == 0 {
		return fmt.Errorf("%w: order must contain at least one item", model.ErrValidation)
	}

	for i, it := range items {
		if strings.TrimSpace(it.ProductID) == "" {
			return fmt.Errorf("%w: item %d: productId is required", model.ErrValidation, i)
		}
		if it.Quantity <= 0 {
			return fmt.Errorf("%w: item %d: quantity must be positive", model.ErrValidation, i)
		}
		if it.UnitPrice < 0 {
			return fmt.Errorf("%w: item %d: unitPrice must not be negative", model.ErrValidation, i)
		}
	}

	return nil
}

// ValidatePricing проверяет, что суммы заказа неотрицательны.
func ValidatePricing(p model.Pricing) error {
	if p.Subtotal < 0 || p.ShippingCost < 0 || p.TaxAmount < 0 || p.DiscountAmount < 0 || p.TotalPrice < 0 {
		return fmt.Errorf("%w: pricing amounts must not be negative", model.ErrValidation)
	}
	return nil
}

// ValidateCustomer проверяет контактные данные покупателя.
func ValidateCustomer(c model.CustomerInfo) error {
	if strings.TrimSpace(c.Name) == "" {
		return fmt.Errorf("%w: customer name is required", model.ErrValidation)
	}
	if _, err := mail.ParseAddress(c.Email); err != nil {
		return fmt.Errorf("%w: invalid customer email %q", model.ErrValidation, c.Email)
	}
	return nil
}

// ValidateOrder проверяет обязательные поля нового заказа.
func ValidateOrder(o *model.Order) error {
	if o.OrderNumber != "" && !IsValidOrderNumber(o.OrderNumber) {
		return fmt.Errorf("%w: invalid order number %q", model.ErrValidation, o.OrderNumber)
	}
	if err := ValidateItems(o.Items); err != nil {
		return err
	}
	if err := ValidatePricing(o.Pricing); err != nil {
		return err
	}
	return ValidateCustomer(o.CustomerInfo)
}
