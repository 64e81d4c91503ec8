package repository

import (
	"context"

	"github.com/utafrali/checkout-core/internal/checkout/domain"
	"github.com/utafrali/checkout-core/pkg/money"
)

// CheckoutRepository loads checkout aggregates.
type CheckoutRepository interface {
	// GetByID loads a checkout with its lines, variants, variant channel
	// listings, products, product types and collections.
	GetByID(ctx context.Context, id string) (*domain.Checkout, error)
}

// ShippingListingRepository looks up shipping method channel listings.
type ShippingListingRepository interface {
	// FirstShippingListing returns the first listing of the shipping method in
	// the channel, or nil when there is none.
	FirstShippingListing(ctx context.Context, shippingMethodID, channelID string) (*domain.ShippingMethodChannelListing, error)
}

// ShippingMethodRepository finds the shipping methods a checkout may use.
type ShippingMethodRepository interface {
	// EligibleShippingMethods returns the methods available in the channel
	// for countryCode whose order price bounds admit subtotal.
	EligibleShippingMethods(ctx context.Context, channelID, countryCode string, subtotal money.Money) ([]domain.ShippingMethod, error)
}

// WarehouseRepository finds collection points.
type WarehouseRepository interface {
	// CollectionPoints returns the click-and-collect warehouses able to
	// fulfil every requested quantity.
	CollectionPoints(ctx context.Context, channelID string, quantities map[string]int) ([]domain.Warehouse, error)
}
