package service

import (
	"context"
	"log/slog"

	"github.com/utafrali/checkout-core/internal/checkout/domain"
	"github.com/utafrali/checkout-core/pkg/logger"
)

// FetchCheckoutLines resolves every line of checkout against the checkout's
// channel, preserving line order.
//
// Lines whose variant has no listing in the channel are left out of the
// result. This is a known gap in catalog data rather than an error.
func FetchCheckoutLines(ctx context.Context, checkout *domain.Checkout) []domain.CheckoutLineInfo {
	lines := make([]domain.CheckoutLineInfo, 0, len(checkout.Lines))
	for _, line := range checkout.Lines {
		listing, ok := variantChannelListing(line.Variant, checkout.ChannelID)
		if !ok {
			logger.WithContext(ctx, logger.FromContext(ctx)).DebugContext(ctx, "skipping checkout line without channel listing",
				slog.String("checkout_id", checkout.ID),
				slog.String("line_id", line.ID),
				slog.String("variant_id", line.Variant.ID),
				slog.String("channel_id", checkout.ChannelID),
			)
			continue
		}
		lines = append(lines, domain.CheckoutLineInfo{
			Line:           line,
			Variant:        line.Variant,
			ChannelListing: listing,
			Product:        line.Variant.Product,
			ProductType:    line.Variant.Product.ProductType,
			Collections:    line.Variant.Product.Collections,
		})
	}
	return lines
}

// variantChannelListing scans all listings; the last one for the channel wins.
func variantChannelListing(variant domain.ProductVariant, channelID string) (domain.VariantChannelListing, bool) {
	var (
		found   domain.VariantChannelListing
		matched bool
	)
	for _, listing := range variant.ChannelListings {
		if listing.ChannelID == channelID {
			found = listing
			matched = true
		}
	}
	return found, matched
}
