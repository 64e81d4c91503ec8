package calculations

import (
	"context"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/utafrali/checkout-core/internal/checkout/domain"
	"github.com/utafrali/checkout-core/pkg/money"
)

func usd(amount string) money.Money {
	return money.New(decimal.RequireFromString(amount), "USD")
}

func line(id string, price string, qty int, shippable bool) domain.CheckoutLineInfo {
	return domain.CheckoutLineInfo{
		Line:           domain.CheckoutLine{ID: id, Quantity: qty},
		ChannelListing: domain.VariantChannelListing{Price: usd(price)},
		ProductType:    domain.ProductType{IsShippingRequired: shippable},
	}
}

func classified(t *testing.T, method domain.DeliveryMethod) domain.DeliveryMethodInfo {
	t.Helper()
	info, err := domain.ClassifyDeliveryMethod(method, nil)
	require.NoError(t, err)
	return info
}

// ============================================================================
// BaseShippingPrice Tests
// ============================================================================

func TestBaseShippingPrice_ShippingMethodListing(t *testing.T) {
	listing := &domain.ShippingMethodChannelListing{Price: usd("7.50")}
	info := &domain.CheckoutInfo{
		Checkout:                     &domain.Checkout{Currency: "USD"},
		DeliveryMethodInfo:           classified(t, &domain.ShippingMethod{ID: "sm-1"}),
		ShippingMethodChannelListing: listing,
	}

	price := BaseShippingPrice(info, []domain.CheckoutLineInfo{line("l1", "10", 1, true)})
	assert.True(t, price.Equal(usd("7.50")))
}

func TestBaseShippingPrice_NotShippable(t *testing.T) {
	info := &domain.CheckoutInfo{
		Checkout:                     &domain.Checkout{Currency: "USD"},
		DeliveryMethodInfo:           classified(t, &domain.ShippingMethod{ID: "sm-1"}),
		ShippingMethodChannelListing: &domain.ShippingMethodChannelListing{Price: usd("7.50")},
	}

	price := BaseShippingPrice(info, []domain.CheckoutLineInfo{line("l1", "10", 1, false)})
	assert.True(t, price.IsZero())
	assert.Equal(t, "USD", price.Currency)
}

func TestBaseShippingPrice_NoMethod(t *testing.T) {
	info := &domain.CheckoutInfo{
		Channel:            domain.Channel{CurrencyCode: "EUR"},
		DeliveryMethodInfo: classified(t, nil),
	}

	price := BaseShippingPrice(info, []domain.CheckoutLineInfo{line("l1", "10", 1, true)})
	assert.True(t, price.IsZero())
	assert.Equal(t, "EUR", price.Currency)
}

func TestBaseShippingPrice_MissingListing(t *testing.T) {
	info := &domain.CheckoutInfo{
		Checkout:           &domain.Checkout{Currency: "USD"},
		DeliveryMethodInfo: classified(t, &domain.ShippingMethod{ID: "sm-1"}),
	}

	assert.True(t, BaseShippingPrice(info, []domain.CheckoutLineInfo{line("l1", "10", 1, true)}).IsZero())
}

func TestBaseShippingPrice_ClickAndCollectIsFree(t *testing.T) {
	info := &domain.CheckoutInfo{
		Checkout:                     &domain.Checkout{Currency: "USD"},
		DeliveryMethodInfo:           classified(t, &domain.Warehouse{ID: "wh-1", ClickAndCollectOption: domain.ClickAndCollectLocalStock}),
		ShippingMethodChannelListing: &domain.ShippingMethodChannelListing{Price: usd("7.50")},
	}

	price := BaseShippingPrice(info, []domain.CheckoutLineInfo{line("l1", "10", 1, true)})
	assert.True(t, price.IsZero())
}

// ============================================================================
// Subtotal Tests
// ============================================================================

func TestSubtotal(t *testing.T) {
	lines := []domain.CheckoutLineInfo{
		line("l1", "10.25", 2, true),
		line("l2", "3.10", 3, false),
	}

	total, err := Subtotal(lines, "USD")
	require.NoError(t, err)
	assert.True(t, total.Equal(usd("29.80")), total.String())
}

func TestSubtotal_Empty(t *testing.T) {
	total, err := Subtotal(nil, "usd")
	require.NoError(t, err)
	assert.True(t, total.IsZero())
	assert.Equal(t, "USD", total.Currency)
}

func TestSubtotal_CurrencyMismatch(t *testing.T) {
	lines := []domain.CheckoutLineInfo{line("l1", "10", 1, true)}
	lines[0].ChannelListing.Price = money.New(decimal.NewFromInt(10), "EUR")

	_, err := Subtotal(lines, "USD")
	require.Error(t, err)
	assert.ErrorIs(t, err, money.ErrCurrencyMismatch)
}

func TestCalculator_CalculateCheckoutSubtotal(t *testing.T) {
	info := &domain.CheckoutInfo{Checkout: &domain.Checkout{Currency: "USD"}}
	lines := []domain.CheckoutLineInfo{line("l1", "5", 4, true)}

	total, err := NewCalculator().CalculateCheckoutSubtotal(context.Background(), info, lines, nil, nil)
	require.NoError(t, err)
	assert.True(t, total.Equal(usd("20")))
}

func TestIsShippingRequired(t *testing.T) {
	assert.False(t, IsShippingRequired(nil))
	assert.False(t, IsShippingRequired([]domain.CheckoutLineInfo{line("l1", "1", 1, false)}))
	assert.True(t, IsShippingRequired([]domain.CheckoutLineInfo{line("l1", "1", 1, false), line("l2", "1", 1, true)}))
}
