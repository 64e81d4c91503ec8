package service

import (
	"context"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/utafrali/checkout-core/internal/checkout/domain"
	"github.com/utafrali/checkout-core/pkg/money"
)

const (
	testChannelID  = "channel-1"
	otherChannelID = "channel-2"
)

func listing(id, channelID, price string) domain.VariantChannelListing {
	return domain.VariantChannelListing{
		ID:        id,
		ChannelID: channelID,
		Price:     money.New(decimal.RequireFromString(price), "USD"),
	}
}

func checkoutLine(id, variantID string, qty int, listings ...domain.VariantChannelListing) domain.CheckoutLine {
	return domain.CheckoutLine{
		ID:       id,
		Quantity: qty,
		Variant: domain.ProductVariant{
			ID:              variantID,
			ChannelListings: listings,
			Product: domain.Product{
				ID:          "product-" + variantID,
				ProductType: domain.ProductType{ID: "type-1", IsShippingRequired: true},
				Collections: []domain.Collection{{ID: "summer"}},
			},
		},
	}
}

func TestFetchCheckoutLines_PreservesOrder(t *testing.T) {
	checkout := &domain.Checkout{
		ID:        "checkout-1",
		ChannelID: testChannelID,
		Lines: []domain.CheckoutLine{
			checkoutLine("line-1", "v1", 1, listing("l1", testChannelID, "10")),
			checkoutLine("line-2", "v2", 2, listing("l2", testChannelID, "5")),
		},
	}

	lines := FetchCheckoutLines(context.Background(), checkout)
	require.Len(t, lines, 2)
	assert.Equal(t, "line-1", lines[0].Line.ID)
	assert.Equal(t, "line-2", lines[1].Line.ID)
	assert.Equal(t, "l2", lines[1].ChannelListing.ID)
	assert.Equal(t, "product-v2", lines[1].Product.ID)
	assert.Equal(t, "type-1", lines[1].ProductType.ID)
	assert.Equal(t, []domain.Collection{{ID: "summer"}}, lines[1].Collections)
}

func TestFetchCheckoutLines_SkipsLineWithoutChannelListing(t *testing.T) {
	checkout := &domain.Checkout{
		ID:        "checkout-1",
		ChannelID: testChannelID,
		Lines: []domain.CheckoutLine{
			checkoutLine("line-1", "v1", 1, listing("l1", testChannelID, "10")),
			checkoutLine("line-2", "v2", 1, listing("l2", otherChannelID, "10")),
			checkoutLine("line-3", "v3", 1),
			checkoutLine("line-4", "v4", 1, listing("l4", testChannelID, "1")),
		},
	}

	var lines []domain.CheckoutLineInfo
	require.NotPanics(t, func() {
		lines = FetchCheckoutLines(context.Background(), checkout)
	})
	require.Len(t, lines, 2)
	assert.Equal(t, "line-1", lines[0].Line.ID)
	assert.Equal(t, "line-4", lines[1].Line.ID)
}

func TestFetchCheckoutLines_LastMatchingListingWins(t *testing.T) {
	checkout := &domain.Checkout{
		ChannelID: testChannelID,
		Lines: []domain.CheckoutLine{
			checkoutLine("line-1", "v1", 1,
				listing("first", testChannelID, "10"),
				listing("other", otherChannelID, "11"),
				listing("last", testChannelID, "12"),
			),
		},
	}

	lines := FetchCheckoutLines(context.Background(), checkout)
	require.Len(t, lines, 1)
	assert.Equal(t, "last", lines[0].ChannelListing.ID)
}

func TestFetchCheckoutLines_NoLines(t *testing.T) {
	lines := FetchCheckoutLines(context.Background(), &domain.Checkout{ChannelID: testChannelID})
	assert.NotNil(t, lines)
	assert.Empty(t, lines)
}
