package service

import (
	"context"

	"github.com/stretchr/testify/mock"

	"github.com/utafrali/checkout-core/internal/checkout/domain"
	"github.com/utafrali/checkout-core/pkg/money"
)

// --- Mock Checkout Repository ---

type mockCheckoutRepository struct {
	mock.Mock
}

func (m *mockCheckoutRepository) GetByID(ctx context.Context, id string) (*domain.Checkout, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Checkout), args.Error(1)
}

// --- Mock Subtotal Calculator ---

type mockCalculator struct {
	mock.Mock
}

func (m *mockCalculator) CalculateCheckoutSubtotal(
	ctx context.Context,
	info *domain.CheckoutInfo,
	lines []domain.CheckoutLineInfo,
	address *domain.Address,
	discounts []domain.DiscountInfo,
) (money.Money, error) {
	args := m.Called(ctx, info, lines, address, discounts)
	return args.Get(0).(money.Money), args.Error(1)
}

// --- Mock Shipping Method Resolver ---

type mockShippingMethods struct {
	mock.Mock
}

func (m *mockShippingMethods) EligibleShippingMethods(
	ctx context.Context,
	info *domain.CheckoutInfo,
	lines []domain.CheckoutLineInfo,
	subtotal money.Money,
	countryCode string,
) ([]domain.ShippingMethod, error) {
	args := m.Called(ctx, info, lines, subtotal, countryCode)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.ShippingMethod), args.Error(1)
}

// --- Mock Collection Point Resolver ---

type mockCollectionPoints struct {
	mock.Mock
}

func (m *mockCollectionPoints) EligibleCollectionPoints(ctx context.Context, lines []domain.CheckoutLineInfo) ([]domain.Warehouse, error) {
	args := m.Called(ctx, lines)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.Warehouse), args.Error(1)
}

// --- Mock Shipping Listing Store ---

type mockListingStore struct {
	mock.Mock
}

func (m *mockListingStore) FirstShippingListing(ctx context.Context, shippingMethodID, channelID string) (*domain.ShippingMethodChannelListing, error) {
	args := m.Called(ctx, shippingMethodID, channelID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.ShippingMethodChannelListing), args.Error(1)
}

// --- Mock Repositories ---

type mockShippingMethodRepository struct {
	mock.Mock
}

func (m *mockShippingMethodRepository) EligibleShippingMethods(ctx context.Context, channelID, countryCode string, subtotal money.Money) ([]domain.ShippingMethod, error) {
	args := m.Called(ctx, channelID, countryCode, subtotal)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.ShippingMethod), args.Error(1)
}

type mockWarehouseRepository struct {
	mock.Mock
}

func (m *mockWarehouseRepository) CollectionPoints(ctx context.Context, channelID string, quantities map[string]int) ([]domain.Warehouse, error) {
	args := m.Called(ctx, channelID, quantities)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.Warehouse), args.Error(1)
}
