// Package calculations prices checkouts without taxes or discounts.
package calculations

import (
	"context"
	"fmt"

	"github.com/utafrali/checkout-core/internal/checkout/domain"
	"github.com/utafrali/checkout-core/pkg/money"
)

// IsShippingRequired reports whether any line needs to be shipped.
func IsShippingRequired(lines []domain.CheckoutLineInfo) bool {
	for _, line := range lines {
		if line.ProductType.IsShippingRequired {
			return true
		}
	}
	return false
}

// Currency returns the checkout currency, falling back to the channel's.
func Currency(info *domain.CheckoutInfo) string {
	if info.Checkout != nil && info.Checkout.Currency != "" {
		return info.Checkout.Currency
	}
	return info.Channel.CurrencyCode
}

// BaseShippingPrice computes the undiscounted, untaxed shipping price using
// the strategy selected by the delivery method classification.
func BaseShippingPrice(info *domain.CheckoutInfo, lines []domain.CheckoutLineInfo) money.Money {
	switch info.DeliveryMethodInfo.Strategy() {
	case domain.StrategyClickAndCollectShippingPrice:
		return money.Zero(Currency(info))
	default:
		return baseShippingPrice(info, lines)
	}
}

func baseShippingPrice(info *domain.CheckoutInfo, lines []domain.CheckoutLineInfo) money.Money {
	currency := Currency(info)
	if info.DeliveryMethodInfo.ShippingMethod() == nil || !IsShippingRequired(lines) {
		return money.Zero(currency)
	}
	if info.ShippingMethodChannelListing == nil {
		return money.Zero(currency)
	}
	return info.ShippingMethodChannelListing.Price
}

// Subtotal sums the channel price times quantity of every line.
func Subtotal(lines []domain.CheckoutLineInfo, currency string) (money.Money, error) {
	total := money.Zero(currency)
	for _, line := range lines {
		var err error
		total, err = total.Add(line.ChannelListing.Price.Mul(line.Line.Quantity))
		if err != nil {
			return money.Money{}, fmt.Errorf("line %s: %w", line.Line.ID, err)
		}
	}
	return total, nil
}

// Calculator is the default subtotal calculator. It does not apply discounts.
type Calculator struct{}

// NewCalculator creates a new Calculator.
func NewCalculator() *Calculator {
	return &Calculator{}
}

// CalculateCheckoutSubtotal returns the undiscounted subtotal of lines.
func (c *Calculator) CalculateCheckoutSubtotal(
	_ context.Context,
	info *domain.CheckoutInfo,
	lines []domain.CheckoutLineInfo,
	_ *domain.Address,
	_ []domain.DiscountInfo,
) (money.Money, error) {
	subtotal, err := Subtotal(lines, Currency(info))
	if err != nil {
		return money.Money{}, fmt.Errorf("calculate subtotal: %w", err)
	}
	return subtotal, nil
}
