package domain

import (
	"fmt"

	apperrors "github.com/utafrali/checkout-core/pkg/errors"
	"github.com/utafrali/checkout-core/pkg/money"
)

// ErrUnsupportedDeliveryMethod is returned when a delivery method is neither
// absent, a shipping method, nor a warehouse. It is a caller bug and maps to
// an internal error.
var ErrUnsupportedDeliveryMethod = apperrors.DataConsistency("unsupported delivery method type")

// Shipping method types.
const (
	ShippingMethodTypePrice  = "price"
	ShippingMethodTypeWeight = "weight"
)

// ShippingMethod is a shipped delivery option.
type ShippingMethod struct {
	ID             string `json:"id"`
	Name           string `json:"name"`
	Type           string `json:"type"`
	ShippingZoneID string `json:"shipping_zone_id"`
}

// ShippingMethodChannelListing is the price rule of a shipping method in a channel.
type ShippingMethodChannelListing struct {
	ID                string       `json:"id"`
	ShippingMethodID  string       `json:"shipping_method_id"`
	ChannelID         string       `json:"channel_id"`
	Price             money.Money  `json:"price"`
	MinimumOrderPrice *money.Money `json:"minimum_order_price,omitempty"`
	MaximumOrderPrice *money.Money `json:"maximum_order_price,omitempty"`
}

// ClickAndCollectOption controls whether and how a warehouse serves pickups.
type ClickAndCollectOption string

// Click-and-collect options.
const (
	ClickAndCollectDisabled      ClickAndCollectOption = "disabled"
	ClickAndCollectLocalStock    ClickAndCollectOption = "local"
	ClickAndCollectAllWarehouses ClickAndCollectOption = "all"
)

// Warehouse is a stock location that may act as a collection point.
type Warehouse struct {
	ID                    string                `json:"id"`
	Name                  string                `json:"name"`
	Email                 string                `json:"email,omitempty"`
	Address               Address               `json:"address"`
	ClickAndCollectOption ClickAndCollectOption `json:"click_and_collect_option"`
	IsPrivate             bool                  `json:"is_private"`
}

// DeliveryMethod is one of NoDeliveryMethod, *ShippingMethod or *Warehouse.
type DeliveryMethod interface {
	deliveryMethod()
}

// NoDeliveryMethod marks a checkout without a chosen delivery method.
type NoDeliveryMethod struct{}

func (NoDeliveryMethod) deliveryMethod() {}
func (*ShippingMethod) deliveryMethod()  {}
func (*Warehouse) deliveryMethod()       {}

// ShippingPriceStrategy selects how the shipping price of a checkout is computed.
type ShippingPriceStrategy int

// Shipping price strategies.
const (
	StrategyBaseShippingPrice ShippingPriceStrategy = iota + 1
	StrategyClickAndCollectShippingPrice
)

func (s ShippingPriceStrategy) String() string {
	switch s {
	case StrategyBaseShippingPrice:
		return "base_shipping_price"
	case StrategyClickAndCollectShippingPrice:
		return "click_and_collect_shipping_price"
	default:
		return fmt.Sprintf("ShippingPriceStrategy(%d)", int(s))
	}
}

// WarehouseFilter scopes stock queries. The zero value matches every warehouse.
type WarehouseFilter struct {
	WarehouseID string
}

// IsEmpty reports whether the filter matches every warehouse.
func (f WarehouseFilter) IsEmpty() bool {
	return f.WarehouseID == ""
}

// DeliveryMethodInfo is the classification of a checkout's delivery method.
// Values are built by ClassifyDeliveryMethod and are read-only.
type DeliveryMethodInfo struct {
	method          DeliveryMethod
	shippingAddress *Address
	clickAndCollect bool
	local           bool
	strategy        ShippingPriceStrategy
}

// ClassifyDeliveryMethod dispatches on the delivery method variant. A nil
// method, or a nil shipping method or warehouse pointer, is treated as none.
func ClassifyDeliveryMethod(method DeliveryMethod, shippingAddress *Address) (DeliveryMethodInfo, error) {
	switch m := method.(type) {
	case nil, NoDeliveryMethod:
		return shippedInfo(NoDeliveryMethod{}, shippingAddress), nil
	case *ShippingMethod:
		if m == nil {
			return shippedInfo(NoDeliveryMethod{}, shippingAddress), nil
		}
		return shippedInfo(m, shippingAddress), nil
	case *Warehouse:
		if m == nil {
			return shippedInfo(NoDeliveryMethod{}, shippingAddress), nil
		}
		return DeliveryMethodInfo{
			method:          m,
			shippingAddress: &m.Address,
			clickAndCollect: true,
			local:           m.ClickAndCollectOption == ClickAndCollectLocalStock,
			strategy:        StrategyClickAndCollectShippingPrice,
		}, nil
	default:
		return DeliveryMethodInfo{}, fmt.Errorf("classify %T: %w", method, ErrUnsupportedDeliveryMethod)
	}
}

func shippedInfo(method DeliveryMethod, shippingAddress *Address) DeliveryMethodInfo {
	return DeliveryMethodInfo{
		method:          method,
		shippingAddress: shippingAddress,
		strategy:        StrategyBaseShippingPrice,
	}
}

// DeliveryMethod returns the classified method; never nil.
func (d DeliveryMethodInfo) DeliveryMethod() DeliveryMethod {
	if d.method == nil {
		return NoDeliveryMethod{}
	}
	return d.method
}

// ShippingMethod returns the shipping method, or nil on the other paths.
func (d DeliveryMethodInfo) ShippingMethod() *ShippingMethod {
	m, _ := d.method.(*ShippingMethod)
	return m
}

// Warehouse returns the collection point, or nil on the other paths.
func (d DeliveryMethodInfo) Warehouse() *Warehouse {
	w, _ := d.method.(*Warehouse)
	return w
}

// ShippingAddress is the address used for pricing and tax: the warehouse's
// own address for click-and-collect, otherwise the checkout's.
func (d DeliveryMethodInfo) ShippingAddress() *Address { return d.shippingAddress }

// IsClickAndCollect reports whether the method is a pickup warehouse.
func (d DeliveryMethodInfo) IsClickAndCollect() bool { return d.clickAndCollect }

// IsLocalCollectionPoint reports whether stock is reserved at the pickup
// warehouse only.
func (d DeliveryMethodInfo) IsLocalCollectionPoint() bool { return d.local }

// Strategy returns the shipping price strategy for the active path.
func (d DeliveryMethodInfo) Strategy() ShippingPriceStrategy {
	if d.strategy == 0 {
		return StrategyBaseShippingPrice
	}
	return d.strategy
}

// WarehouseFilterLookup scopes stock lookups to the collection point when it
// is a local one.
func (d DeliveryMethodInfo) WarehouseFilterLookup() WarehouseFilter {
	if w := d.Warehouse(); d.local && w != nil {
		return WarehouseFilter{WarehouseID: w.ID}
	}
	return WarehouseFilter{}
}
