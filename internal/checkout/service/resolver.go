package service

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/utafrali/checkout-core/internal/checkout/domain"
	"github.com/utafrali/checkout-core/internal/checkout/repository"
	apperrors "github.com/utafrali/checkout-core/pkg/errors"
	"github.com/utafrali/checkout-core/pkg/logger"
	"github.com/utafrali/checkout-core/pkg/money"
)

// SubtotalCalculator prices the lines of a checkout.
type SubtotalCalculator interface {
	CalculateCheckoutSubtotal(
		ctx context.Context,
		info *domain.CheckoutInfo,
		lines []domain.CheckoutLineInfo,
		address *domain.Address,
		discounts []domain.DiscountInfo,
	) (money.Money, error)
}

// ShippingMethodResolver returns the shipping methods a checkout may use.
// A nil result means none.
type ShippingMethodResolver interface {
	EligibleShippingMethods(
		ctx context.Context,
		info *domain.CheckoutInfo,
		lines []domain.CheckoutLineInfo,
		subtotal money.Money,
		countryCode string,
	) ([]domain.ShippingMethod, error)
}

// CollectionPointResolver returns the warehouses able to serve a pickup of
// lines. A nil result means none.
type CollectionPointResolver interface {
	EligibleCollectionPoints(ctx context.Context, lines []domain.CheckoutLineInfo) ([]domain.Warehouse, error)
}

// ShippingListingStore looks up the channel listing of a shipping method.
type ShippingListingStore interface {
	FirstShippingListing(ctx context.Context, shippingMethodID, channelID string) (*domain.ShippingMethodChannelListing, error)
}

// Resolver builds and updates CheckoutInfo snapshots.
type Resolver struct {
	checkouts        repository.CheckoutRepository
	calculator       SubtotalCalculator
	shippingMethods  ShippingMethodResolver
	collectionPoints CollectionPointResolver
	listings         ShippingListingStore
	logger           *slog.Logger
}

// NewResolver creates a new checkout info resolver.
func NewResolver(
	checkouts repository.CheckoutRepository,
	calculator SubtotalCalculator,
	shippingMethods ShippingMethodResolver,
	collectionPoints CollectionPointResolver,
	listings ShippingListingStore,
	logger *slog.Logger,
) *Resolver {
	return &Resolver{
		checkouts:        checkouts,
		calculator:       calculator,
		shippingMethods:  shippingMethods,
		collectionPoints: collectionPoints,
		listings:         listings,
		logger:           logger,
	}
}

// Load reads a checkout by ID, resolves its lines and builds its CheckoutInfo.
func (r *Resolver) Load(ctx context.Context, checkoutID string, discounts []domain.DiscountInfo) (*domain.CheckoutInfo, []domain.CheckoutLineInfo, error) {
	ctx = logger.WithCheckoutID(ctx, checkoutID)

	checkout, err := r.checkouts.GetByID(ctx, checkoutID)
	if err != nil {
		r.logFailure(ctx, "failed to load checkout", err)
		return nil, nil, fmt.Errorf("load checkout: %w", err)
	}

	lines := FetchCheckoutLines(logger.NewContext(ctx, r.logger), checkout)
	info, err := r.Fetch(ctx, checkout, lines, discounts)
	if err != nil {
		r.logFailure(ctx, "failed to fetch checkout info", err)
		return nil, nil, err
	}
	return info, lines, nil
}

// Fetch builds the CheckoutInfo of checkout. The delivery method is
// classified before the valid shipping methods and pickup points are
// computed.
func (r *Resolver) Fetch(ctx context.Context, checkout *domain.Checkout, lines []domain.CheckoutLineInfo, discounts []domain.DiscountInfo) (*domain.CheckoutInfo, error) {
	channel := checkout.Channel
	if channel.ID == "" {
		channel.ID = checkout.ChannelID
	}

	var listing *domain.ShippingMethodChannelListing
	if checkout.ShippingMethod != nil {
		var err error
		listing, err = r.listings.FirstShippingListing(ctx, checkout.ShippingMethod.ID, channel.ID)
		if err != nil {
			return nil, fmt.Errorf("fetch shipping method listing: %w", err)
		}
	}

	var method domain.DeliveryMethod = domain.NoDeliveryMethod{}
	switch {
	case checkout.CollectionPoint != nil:
		method = checkout.CollectionPoint
	case checkout.ShippingMethod != nil:
		method = checkout.ShippingMethod
	}

	deliveryInfo, err := domain.ClassifyDeliveryMethod(method, checkout.ShippingAddress)
	if err != nil {
		r.logFailure(logger.WithCheckoutID(ctx, checkout.ID), "failed to classify delivery method", err)
		return nil, fmt.Errorf("fetch checkout info: %w", err)
	}

	info := &domain.CheckoutInfo{
		Checkout:                     checkout,
		User:                         checkout.User,
		Channel:                      channel,
		BillingAddress:               checkout.BillingAddress,
		ShippingAddress:              checkout.ShippingAddress,
		ShippingMethod:               checkout.ShippingMethod,
		DeliveryMethodInfo:           deliveryInfo,
		ShippingMethodChannelListing: listing,
		ValidShippingMethods:         []domain.ShippingMethod{},
		ValidPickUpPoints:            []domain.Warehouse{},
	}

	info.ValidShippingMethods, err = r.validShippingMethods(ctx, info, info.ShippingAddress, lines, discounts)
	if err != nil {
		return nil, err
	}
	info.ValidPickUpPoints, err = r.validPickUpPoints(ctx, lines)
	if err != nil {
		return nil, err
	}

	r.log(ctx).DebugContext(ctx, "checkout info fetched",
		slog.String("checkout_id", checkout.ID),
		slog.String("strategy", deliveryInfo.Strategy().String()),
		slog.Int("valid_shipping_methods", len(info.ValidShippingMethods)),
		slog.Int("valid_pick_up_points", len(info.ValidPickUpPoints)),
	)

	return info, nil
}

// UpdateShippingAddress sets the shipping address, recomputes the valid
// shipping methods and reclassifies the current delivery method against the
// new address. On error info is left unchanged.
func (r *Resolver) UpdateShippingAddress(ctx context.Context, info *domain.CheckoutInfo, address *domain.Address, lines []domain.CheckoutLineInfo, discounts []domain.DiscountInfo) error {
	previous := info.ShippingAddress
	info.ShippingAddress = address

	valid, err := r.validShippingMethods(ctx, info, address, lines, discounts)
	if err != nil {
		info.ShippingAddress = previous
		return err
	}

	deliveryInfo, err := domain.ClassifyDeliveryMethod(info.DeliveryMethodInfo.DeliveryMethod(), address)
	if err != nil {
		info.ShippingAddress = previous
		return fmt.Errorf("update shipping address: %w", err)
	}

	info.ValidShippingMethods = valid
	info.DeliveryMethodInfo = deliveryInfo
	return nil
}

// UpdateShippingMethod sets the shipping method and refreshes its channel
// listing. A nil method clears both.
func (r *Resolver) UpdateShippingMethod(ctx context.Context, info *domain.CheckoutInfo, method *domain.ShippingMethod) error {
	var listing *domain.ShippingMethodChannelListing
	if method != nil {
		var err error
		listing, err = r.listings.FirstShippingListing(ctx, method.ID, info.Channel.ID)
		if err != nil {
			return fmt.Errorf("update shipping method: %w", err)
		}
	}

	info.ShippingMethod = method
	info.ShippingMethodChannelListing = listing
	return nil
}

// UpdateDeliveryMethod reclassifies the checkout with method against the
// current shipping address. Unless the new method is a collection point, the
// shipping method channel listing is refreshed, or cleared when method is
// none.
func (r *Resolver) UpdateDeliveryMethod(ctx context.Context, info *domain.CheckoutInfo, method domain.DeliveryMethod) error {
	deliveryInfo, err := domain.ClassifyDeliveryMethod(method, info.ShippingAddress)
	if err != nil {
		return fmt.Errorf("update delivery method: %w", err)
	}

	if deliveryInfo.IsClickAndCollect() {
		info.DeliveryMethodInfo = deliveryInfo
		return nil
	}

	var listing *domain.ShippingMethodChannelListing
	if shippingMethod := deliveryInfo.ShippingMethod(); shippingMethod != nil {
		listing, err = r.listings.FirstShippingListing(ctx, shippingMethod.ID, info.Channel.ID)
		if err != nil {
			return fmt.Errorf("update delivery method: %w", err)
		}
	}

	info.DeliveryMethodInfo = deliveryInfo
	info.ShippingMethodChannelListing = listing
	return nil
}

// validShippingMethods prices the checkout at info's shipping address and
// asks the shipping resolver for the methods available in address's country.
func (r *Resolver) validShippingMethods(ctx context.Context, info *domain.CheckoutInfo, address *domain.Address, lines []domain.CheckoutLineInfo, discounts []domain.DiscountInfo) ([]domain.ShippingMethod, error) {
	countryCode := ""
	if address != nil {
		countryCode = address.Country
	}

	subtotal, err := r.calculator.CalculateCheckoutSubtotal(ctx, info, lines, info.ShippingAddress, discounts)
	if err != nil {
		return nil, fmt.Errorf("calculate checkout subtotal: %w", err)
	}

	methods, err := r.shippingMethods.EligibleShippingMethods(ctx, info, lines, subtotal, countryCode)
	if err != nil {
		return nil, fmt.Errorf("resolve valid shipping methods: %w", err)
	}

	valid := make([]domain.ShippingMethod, 0, len(methods))
	return append(valid, methods...), nil
}

func (r *Resolver) validPickUpPoints(ctx context.Context, lines []domain.CheckoutLineInfo) ([]domain.Warehouse, error) {
	points, err := r.collectionPoints.EligibleCollectionPoints(ctx, lines)
	if err != nil {
		return nil, fmt.Errorf("resolve valid pick up points: %w", err)
	}

	valid := make([]domain.Warehouse, 0, len(points))
	return append(valid, points...), nil
}

func (r *Resolver) log(ctx context.Context) *slog.Logger {
	return logger.WithContext(ctx, r.logger)
}

// logFailure logs err at error level when its message must not reach an end
// user, and at warn level otherwise.
func (r *Resolver) logFailure(ctx context.Context, msg string, err error) {
	level := slog.LevelWarn
	if !apperrors.IsUserFacing(err) {
		level = slog.LevelError
	}
	r.log(ctx).Log(ctx, level, msg,
		slog.Int("status", apperrors.HTTPStatus(err)),
		slog.String("error", err.Error()),
	)
}
