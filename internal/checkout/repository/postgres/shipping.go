package postgres

import (
	"context"
	"errors"
	"fmt"
	"sort"

	"github.com/jackc/pgx/v5"
	"github.com/shopspring/decimal"

	"github.com/utafrali/checkout-core/internal/checkout/domain"
	"github.com/utafrali/checkout-core/pkg/database"
	"github.com/utafrali/checkout-core/pkg/money"
)

const (
	selectFirstShippingListingSQL = `
		SELECT id, shipping_method_id, channel_id, price_amount, currency,
			minimum_order_price_amount, maximum_order_price_amount
		FROM shipping_method_channel_listings
		WHERE shipping_method_id = $1 AND channel_id = $2
		ORDER BY id
		LIMIT 1`

	selectEligibleShippingMethodsSQL = `
		SELECT sm.id, sm.name, sm.type, sm.shipping_zone_id
		FROM shipping_methods sm
		JOIN shipping_zones z ON z.id = sm.shipping_zone_id
		JOIN shipping_zone_channels zc ON zc.shipping_zone_id = z.id AND zc.channel_id = $1
		JOIN shipping_method_channel_listings l ON l.shipping_method_id = sm.id AND l.channel_id = $1
		WHERE $2 = ANY(z.countries)
			AND l.currency = $3
			AND (l.minimum_order_price_amount IS NULL OR l.minimum_order_price_amount <= $4)
			AND (l.maximum_order_price_amount IS NULL OR l.maximum_order_price_amount >= $4)
		ORDER BY l.price_amount, sm.name, sm.id`

	selectCollectionPointsSQL = `
		WITH requested AS (
			SELECT r.variant_id, r.quantity
			FROM unnest($2::uuid[], $3::int[]) AS r(variant_id, quantity)
		)
		SELECT w.id, w.name, w.email, w.address, w.click_and_collect_option, w.is_private
		FROM warehouses w
		JOIN channel_warehouses cw ON cw.warehouse_id = w.id AND cw.channel_id = $1
		WHERE (
			w.click_and_collect_option = 'local' AND NOT EXISTS (
				SELECT 1
				FROM requested r
				LEFT JOIN stocks s ON s.warehouse_id = w.id AND s.product_variant_id = r.variant_id
				WHERE COALESCE(s.quantity - s.quantity_allocated, 0) < r.quantity
			)
		) OR (
			w.click_and_collect_option = 'all' AND NOT EXISTS (
				SELECT 1
				FROM requested r
				WHERE (
					SELECT COALESCE(SUM(s.quantity - s.quantity_allocated), 0)
					FROM stocks s
					JOIN channel_warehouses scw ON scw.warehouse_id = s.warehouse_id AND scw.channel_id = $1
					WHERE s.product_variant_id = r.variant_id
				) < r.quantity
			)
		)
		ORDER BY w.name, w.id`
)

// ShippingRepository implements the shipping listing, shipping method and
// warehouse repositories using PostgreSQL.
type ShippingRepository struct {
	pool database.DBTX
}

// NewShippingRepository creates a new PostgreSQL-backed shipping repository.
func NewShippingRepository(pool database.DBTX) *ShippingRepository {
	return &ShippingRepository{pool: pool}
}

// FirstShippingListing returns the first channel listing of the shipping
// method, or nil when the method is not listed in the channel.
func (r *ShippingRepository) FirstShippingListing(ctx context.Context, shippingMethodID, channelID string) (_ *domain.ShippingMethodChannelListing, err error) {
	ctx, end := database.TraceQuery(ctx, "FirstShippingListing", selectFirstShippingListingSQL)
	defer func() { end(err) }()

	var (
		l                domain.ShippingMethodChannelListing
		amount           decimal.Decimal
		currency         string
		minimum, maximum *decimal.Decimal
	)
	err = r.pool.QueryRow(ctx, selectFirstShippingListingSQL, shippingMethodID, channelID).Scan(
		&l.ID,
		&l.ShippingMethodID,
		&l.ChannelID,
		&amount,
		&currency,
		&minimum,
		&maximum,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("get shipping method channel listing: %w", err)
	}

	l.Price = money.New(amount, currency)
	if minimum != nil {
		m := money.New(*minimum, currency)
		l.MinimumOrderPrice = &m
	}
	if maximum != nil {
		m := money.New(*maximum, currency)
		l.MaximumOrderPrice = &m
	}
	return &l, nil
}

// EligibleShippingMethods returns the shipping methods of zones covering
// countryCode that are listed in the channel with order price bounds
// admitting subtotal, cheapest first.
func (r *ShippingRepository) EligibleShippingMethods(ctx context.Context, channelID, countryCode string, subtotal money.Money) (_ []domain.ShippingMethod, err error) {
	ctx, end := database.TraceQuery(ctx, "EligibleShippingMethods", selectEligibleShippingMethodsSQL)
	defer func() { end(err) }()

	rows, err := r.pool.Query(ctx, selectEligibleShippingMethodsSQL, channelID, countryCode, subtotal.Currency, subtotal.Amount)
	if err != nil {
		return nil, fmt.Errorf("list eligible shipping methods: %w", err)
	}
	defer rows.Close()

	var methods []domain.ShippingMethod
	for rows.Next() {
		var m domain.ShippingMethod
		if err := rows.Scan(&m.ID, &m.Name, &m.Type, &m.ShippingZoneID); err != nil {
			return nil, fmt.Errorf("scan shipping method row: %w", err)
		}
		methods = append(methods, m)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate shipping method rows: %w", err)
	}

	return methods, nil
}

// CollectionPoints returns the channel's click-and-collect warehouses with
// enough available stock for every requested variant quantity. Local
// warehouses must hold the stock themselves; the others may draw on every
// warehouse of the channel.
func (r *ShippingRepository) CollectionPoints(ctx context.Context, channelID string, quantities map[string]int) (_ []domain.Warehouse, err error) {
	ctx, end := database.TraceQuery(ctx, "CollectionPoints", selectCollectionPointsSQL)
	defer func() { end(err) }()

	variantIDs := make([]string, 0, len(quantities))
	for id := range quantities {
		variantIDs = append(variantIDs, id)
	}
	sort.Strings(variantIDs)
	amounts := make([]int32, len(variantIDs))
	for i, id := range variantIDs {
		amounts[i] = int32(quantities[id]) // #nosec G115 -- line quantities fit in int32
	}

	rows, err := r.pool.Query(ctx, selectCollectionPointsSQL, channelID, variantIDs, amounts)
	if err != nil {
		return nil, fmt.Errorf("list collection points: %w", err)
	}
	defer rows.Close()

	var warehouses []domain.Warehouse
	for rows.Next() {
		var (
			w       domain.Warehouse
			email   *string
			address *domain.Address
			option  string
		)
		if err := rows.Scan(&w.ID, &w.Name, &email, &address, &option, &w.IsPrivate); err != nil {
			return nil, fmt.Errorf("scan warehouse row: %w", err)
		}
		w.Email = deref(email)
		w.ClickAndCollectOption = domain.ClickAndCollectOption(option)
		if address != nil {
			w.Address = *address
		}
		warehouses = append(warehouses, w)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate warehouse rows: %w", err)
	}

	return warehouses, nil
}
