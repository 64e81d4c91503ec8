package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/shopspring/decimal"

	"github.com/utafrali/checkout-core/internal/checkout/domain"
	"github.com/utafrali/checkout-core/pkg/database"
	apperrors "github.com/utafrali/checkout-core/pkg/errors"
	"github.com/utafrali/checkout-core/pkg/money"
)

const (
	selectCheckoutSQL = `
		SELECT c.id, c.channel_id, ch.slug, ch.name, ch.currency_code, ch.default_country,
			c.user_id, u.email, c.email, c.country, c.currency,
			c.billing_address, c.shipping_address,
			sm.id, sm.name, sm.type, sm.shipping_zone_id,
			w.id, w.name, w.email, w.address, w.click_and_collect_option, w.is_private,
			c.created_at, c.updated_at
		FROM checkouts c
		JOIN channels ch ON ch.id = c.channel_id
		LEFT JOIN users u ON u.id = c.user_id
		LEFT JOIN shipping_methods sm ON sm.id = c.shipping_method_id
		LEFT JOIN warehouses w ON w.id = c.collection_point_id
		WHERE c.id = $1`

	selectCheckoutLinesSQL = `
		SELECT l.id, l.quantity, l.created_at,
			v.id, v.sku, v.name, v.track_inventory,
			p.id, p.name, p.slug,
			pt.id, pt.name, pt.is_shipping_required
		FROM checkout_lines l
		JOIN product_variants v ON v.id = l.variant_id
		JOIN products p ON p.id = v.product_id
		JOIN product_types pt ON pt.id = p.product_type_id
		WHERE l.checkout_id = $1
		ORDER BY l.created_at, l.id`

	selectVariantListingsSQL = `
		SELECT id, variant_id, channel_id, price_amount, currency
		FROM variant_channel_listings
		WHERE variant_id = ANY($1)
		ORDER BY id`

	selectProductCollectionsSQL = `
		SELECT cp.product_id, col.id, col.name, col.slug
		FROM collection_products cp
		JOIN collections col ON col.id = cp.collection_id
		WHERE cp.product_id = ANY($1)
		ORDER BY col.name, col.id`
)

// CheckoutRepository implements repository.CheckoutRepository using PostgreSQL.
type CheckoutRepository struct {
	pool database.DBTX
}

// NewCheckoutRepository creates a new PostgreSQL-backed checkout repository.
func NewCheckoutRepository(pool database.DBTX) *CheckoutRepository {
	return &CheckoutRepository{pool: pool}
}

// GetByID loads a checkout aggregate in four queries: the checkout row, its
// lines with variant, product and product type, the variants' channel
// listings, and the products' collections.
func (r *CheckoutRepository) GetByID(ctx context.Context, id string) (*domain.Checkout, error) {
	checkout, err := r.getCheckout(ctx, id)
	if err != nil {
		return nil, err
	}

	if checkout.Lines, err = r.listLines(ctx, id); err != nil {
		return nil, err
	}
	if len(checkout.Lines) == 0 {
		return checkout, nil
	}

	variantIDs := make([]string, 0, len(checkout.Lines))
	productIDs := make([]string, 0, len(checkout.Lines))
	seenVariants := make(map[string]bool, len(checkout.Lines))
	seenProducts := make(map[string]bool, len(checkout.Lines))
	for _, line := range checkout.Lines {
		if !seenVariants[line.Variant.ID] {
			seenVariants[line.Variant.ID] = true
			variantIDs = append(variantIDs, line.Variant.ID)
		}
		if !seenProducts[line.Variant.ProductID] {
			seenProducts[line.Variant.ProductID] = true
			productIDs = append(productIDs, line.Variant.ProductID)
		}
	}

	listings, err := r.listVariantListings(ctx, variantIDs)
	if err != nil {
		return nil, err
	}
	collections, err := r.listProductCollections(ctx, productIDs)
	if err != nil {
		return nil, err
	}

	for i := range checkout.Lines {
		variant := &checkout.Lines[i].Variant
		variant.ChannelListings = listings[variant.ID]
		variant.Product.Collections = collections[variant.ProductID]
	}

	return checkout, nil
}

func (r *CheckoutRepository) getCheckout(ctx context.Context, id string) (_ *domain.Checkout, err error) {
	ctx, end := database.TraceQuery(ctx, "GetCheckout", selectCheckoutSQL)
	defer func() { end(err) }()

	var (
		c                                      domain.Checkout
		userID, userEmail                      *string
		smID, smName, smType, smZoneID         *string
		whID, whName, whEmail, whCollectOption *string
		whAddress                              *domain.Address
		whPrivate                              *bool
	)
	err = r.pool.QueryRow(ctx, selectCheckoutSQL, id).Scan(
		&c.ID,
		&c.ChannelID,
		&c.Channel.Slug,
		&c.Channel.Name,
		&c.Channel.CurrencyCode,
		&c.Channel.DefaultCountry,
		&userID,
		&userEmail,
		&c.Email,
		&c.Country,
		&c.Currency,
		&c.BillingAddress,
		&c.ShippingAddress,
		&smID,
		&smName,
		&smType,
		&smZoneID,
		&whID,
		&whName,
		&whEmail,
		&whAddress,
		&whCollectOption,
		&whPrivate,
		&c.CreatedAt,
		&c.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.NotFound("checkout", id)
		}
		return nil, fmt.Errorf("get checkout by id: %w", err)
	}

	c.Channel.ID = c.ChannelID
	if userID != nil {
		c.User = &domain.User{ID: *userID, Email: deref(userEmail)}
	}
	if smID != nil {
		c.ShippingMethod = &domain.ShippingMethod{
			ID:             *smID,
			Name:           deref(smName),
			Type:           deref(smType),
			ShippingZoneID: deref(smZoneID),
		}
	}
	if whID != nil {
		c.CollectionPoint = &domain.Warehouse{
			ID:                    *whID,
			Name:                  deref(whName),
			Email:                 deref(whEmail),
			ClickAndCollectOption: domain.ClickAndCollectOption(deref(whCollectOption)),
			IsPrivate:             whPrivate != nil && *whPrivate,
		}
		if whAddress != nil {
			c.CollectionPoint.Address = *whAddress
		}
	}

	return &c, nil
}

func (r *CheckoutRepository) listLines(ctx context.Context, checkoutID string) (_ []domain.CheckoutLine, err error) {
	ctx, end := database.TraceQuery(ctx, "ListCheckoutLines", selectCheckoutLinesSQL)
	defer func() { end(err) }()

	rows, err := r.pool.Query(ctx, selectCheckoutLinesSQL, checkoutID)
	if err != nil {
		return nil, fmt.Errorf("list checkout lines: %w", err)
	}
	defer rows.Close()

	lines := []domain.CheckoutLine{}
	for rows.Next() {
		line := domain.CheckoutLine{CheckoutID: checkoutID}
		v := &line.Variant
		if err := rows.Scan(
			&line.ID,
			&line.Quantity,
			&line.CreatedAt,
			&v.ID,
			&v.SKU,
			&v.Name,
			&v.TrackInventory,
			&v.Product.ID,
			&v.Product.Name,
			&v.Product.Slug,
			&v.Product.ProductType.ID,
			&v.Product.ProductType.Name,
			&v.Product.ProductType.IsShippingRequired,
		); err != nil {
			return nil, fmt.Errorf("scan checkout line row: %w", err)
		}
		v.ProductID = v.Product.ID
		lines = append(lines, line)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate checkout line rows: %w", err)
	}

	return lines, nil
}

func (r *CheckoutRepository) listVariantListings(ctx context.Context, variantIDs []string) (_ map[string][]domain.VariantChannelListing, err error) {
	ctx, end := database.TraceQuery(ctx, "ListVariantChannelListings", selectVariantListingsSQL)
	defer func() { end(err) }()

	rows, err := r.pool.Query(ctx, selectVariantListingsSQL, variantIDs)
	if err != nil {
		return nil, fmt.Errorf("list variant channel listings: %w", err)
	}
	defer rows.Close()

	listings := make(map[string][]domain.VariantChannelListing, len(variantIDs))
	for rows.Next() {
		var (
			l        domain.VariantChannelListing
			amount   decimal.Decimal
			currency string
		)
		if err := rows.Scan(&l.ID, &l.VariantID, &l.ChannelID, &amount, &currency); err != nil {
			return nil, fmt.Errorf("scan variant channel listing row: %w", err)
		}
		l.Price = money.New(amount, currency)
		listings[l.VariantID] = append(listings[l.VariantID], l)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate variant channel listing rows: %w", err)
	}

	return listings, nil
}

func (r *CheckoutRepository) listProductCollections(ctx context.Context, productIDs []string) (_ map[string][]domain.Collection, err error) {
	ctx, end := database.TraceQuery(ctx, "ListProductCollections", selectProductCollectionsSQL)
	defer func() { end(err) }()

	rows, err := r.pool.Query(ctx, selectProductCollectionsSQL, productIDs)
	if err != nil {
		return nil, fmt.Errorf("list product collections: %w", err)
	}
	defer rows.Close()

	collections := make(map[string][]domain.Collection, len(productIDs))
	for rows.Next() {
		var (
			productID string
			c         domain.Collection
		)
		if err := rows.Scan(&productID, &c.ID, &c.Name, &c.Slug); err != nil {
			return nil, fmt.Errorf("scan product collection row: %w", err)
		}
		collections[productID] = append(collections[productID], c)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate product collection rows: %w", err)
	}

	return collections, nil
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}
