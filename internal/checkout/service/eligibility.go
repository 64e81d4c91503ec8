package service

import (
	"context"
	"fmt"

	"github.com/utafrali/checkout-core/internal/checkout/calculations"
	"github.com/utafrali/checkout-core/internal/checkout/domain"
	"github.com/utafrali/checkout-core/internal/checkout/repository"
	"github.com/utafrali/checkout-core/pkg/money"
)

// ShippingMethods resolves eligible shipping methods from the shipping zone
// configuration stored in the repository.
type ShippingMethods struct {
	repo repository.ShippingMethodRepository
}

// NewShippingMethods creates a ShippingMethodResolver backed by repo.
func NewShippingMethods(repo repository.ShippingMethodRepository) *ShippingMethods {
	return &ShippingMethods{repo: repo}
}

// EligibleShippingMethods returns nil when nothing needs shipping or the
// country is unknown.
func (s *ShippingMethods) EligibleShippingMethods(
	ctx context.Context,
	info *domain.CheckoutInfo,
	lines []domain.CheckoutLineInfo,
	subtotal money.Money,
	countryCode string,
) ([]domain.ShippingMethod, error) {
	if !calculations.IsShippingRequired(lines) || countryCode == "" {
		return nil, nil
	}

	methods, err := s.repo.EligibleShippingMethods(ctx, info.Channel.ID, countryCode, subtotal)
	if err != nil {
		return nil, fmt.Errorf("list eligible shipping methods: %w", err)
	}
	return methods, nil
}

// CollectionPoints resolves click-and-collect warehouses with enough stock
// for every line.
type CollectionPoints struct {
	repo repository.WarehouseRepository
}

// NewCollectionPoints creates a CollectionPointResolver backed by repo.
func NewCollectionPoints(repo repository.WarehouseRepository) *CollectionPoints {
	return &CollectionPoints{repo: repo}
}

// EligibleCollectionPoints returns nil when nothing needs shipping.
func (c *CollectionPoints) EligibleCollectionPoints(ctx context.Context, lines []domain.CheckoutLineInfo) ([]domain.Warehouse, error) {
	if !calculations.IsShippingRequired(lines) {
		return nil, nil
	}

	quantities := make(map[string]int, len(lines))
	for _, line := range lines {
		quantities[line.Variant.ID] += line.Line.Quantity
	}

	points, err := c.repo.CollectionPoints(ctx, lines[0].ChannelListing.ChannelID, quantities)
	if err != nil {
		return nil, fmt.Errorf("list collection points: %w", err)
	}
	return points, nil
}
