package domain

import (
	"time"

	"github.com/utafrali/checkout-core/pkg/money"
)

// Address represents a shipping or billing address.
type Address struct {
	ID             string `json:"id,omitempty"`
	FirstName      string `json:"first_name"`
	LastName       string `json:"last_name"`
	CompanyName    string `json:"company_name,omitempty"`
	StreetAddress1 string `json:"street_address_1"`
	StreetAddress2 string `json:"street_address_2,omitempty"`
	City           string `json:"city"`
	CountryArea    string `json:"country_area,omitempty"`
	PostalCode     string `json:"postal_code"`
	Country        string `json:"country"`
	Phone          string `json:"phone,omitempty"`
}

// User is an authenticated customer.
type User struct {
	ID    string `json:"id"`
	Email string `json:"email"`
}

// Channel is a sales context with its own currency and availability rules.
type Channel struct {
	ID             string `json:"id"`
	Slug           string `json:"slug"`
	Name           string `json:"name"`
	CurrencyCode   string `json:"currency_code"`
	DefaultCountry string `json:"default_country"`
}

// Checkout is an in-progress checkout together with its lines.
type Checkout struct {
	ID              string          `json:"id"`
	ChannelID       string          `json:"channel_id"`
	Channel         Channel         `json:"channel"`
	User            *User           `json:"user,omitempty"`
	Email           string          `json:"email,omitempty"`
	Country         string          `json:"country"`
	Currency        string          `json:"currency"`
	BillingAddress  *Address        `json:"billing_address,omitempty"`
	ShippingAddress *Address        `json:"shipping_address,omitempty"`
	ShippingMethod  *ShippingMethod `json:"shipping_method,omitempty"`
	CollectionPoint *Warehouse      `json:"collection_point,omitempty"`
	Lines           []CheckoutLine  `json:"lines"`
	CreatedAt       time.Time       `json:"created_at"`
	UpdatedAt       time.Time       `json:"updated_at"`
}

// CheckoutLine is a single line of a checkout.
type CheckoutLine struct {
	ID         string         `json:"id"`
	CheckoutID string         `json:"checkout_id"`
	Quantity   int            `json:"quantity"`
	Variant    ProductVariant `json:"variant"`
	CreatedAt  time.Time      `json:"created_at"`
}

// ProductVariant is the purchasable unit a line refers to.
type ProductVariant struct {
	ID              string                  `json:"id"`
	ProductID       string                  `json:"product_id"`
	SKU             string                  `json:"sku"`
	Name            string                  `json:"name"`
	TrackInventory  bool                    `json:"track_inventory"`
	ChannelListings []VariantChannelListing `json:"channel_listings"`
	Product         Product                 `json:"product"`
}

// VariantChannelListing attaches a channel-specific price to a variant.
type VariantChannelListing struct {
	ID        string      `json:"id"`
	VariantID string      `json:"variant_id"`
	ChannelID string      `json:"channel_id"`
	Price     money.Money `json:"price"`
}

// Product is the parent of a variant.
type Product struct {
	ID          string       `json:"id"`
	Name        string       `json:"name"`
	Slug        string       `json:"slug"`
	ProductType ProductType  `json:"product_type"`
	Collections []Collection `json:"collections"`
}

// ProductType groups products that share shipping behaviour.
type ProductType struct {
	ID                 string `json:"id"`
	Name               string `json:"name"`
	IsShippingRequired bool   `json:"is_shipping_required"`
}

// Collection is a merchandising group of products.
type Collection struct {
	ID   string `json:"id"`
	Name string `json:"name"`
	Slug string `json:"slug"`
}

// CheckoutLineInfo is a line resolved against the checkout's channel.
type CheckoutLineInfo struct {
	Line           CheckoutLine          `json:"line"`
	Variant        ProductVariant        `json:"variant"`
	ChannelListing VariantChannelListing `json:"channel_listing"`
	Product        Product               `json:"product"`
	ProductType    ProductType           `json:"product_type"`
	Collections    []Collection          `json:"collections"`
}

// DiscountInfo is an active discount handed through to the subtotal
// calculator. The resolver never inspects it.
type DiscountInfo struct {
	ID         string   `json:"id"`
	Name       string   `json:"name"`
	Type       string   `json:"type"`
	Value      string   `json:"value"`
	ProductIDs []string `json:"product_ids,omitempty"`
}
