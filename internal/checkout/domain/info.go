package domain

// CheckoutInfo is the resolved snapshot of a checkout used while pricing and
// completing it.
//
// A CheckoutInfo is owned by the request that built it. The resolver's update
// operations mutate it in place, so it must not be shared across goroutines.
type CheckoutInfo struct {
	Checkout                     *Checkout
	User                         *User
	Channel                      Channel
	BillingAddress               *Address
	ShippingAddress              *Address
	ShippingMethod               *ShippingMethod
	DeliveryMethodInfo           DeliveryMethodInfo
	ValidShippingMethods         []ShippingMethod
	ValidPickUpPoints            []Warehouse
	ShippingMethodChannelListing *ShippingMethodChannelListing
}

// ValidDeliveryMethods returns the valid shipping methods followed by the
// valid pickup points.
func (c *CheckoutInfo) ValidDeliveryMethods() []DeliveryMethod {
	methods := make([]DeliveryMethod, 0, len(c.ValidShippingMethods)+len(c.ValidPickUpPoints))
	for i := range c.ValidShippingMethods {
		methods = append(methods, &c.ValidShippingMethods[i])
	}
	for i := range c.ValidPickUpPoints {
		methods = append(methods, &c.ValidPickUpPoints[i])
	}
	return methods
}

// Country resolves the checkout country from the shipping address, then the
// billing address, then the checkout default.
func (c *CheckoutInfo) Country() string {
	address := c.ShippingAddress
	if address == nil {
		address = c.BillingAddress
	}
	if address == nil || address.Country == "" {
		if c.Checkout == nil {
			return ""
		}
		return c.Checkout.Country
	}
	return address.Country
}

// CustomerEmail returns the authenticated user's email, falling back to the
// guest email stored on the checkout.
func (c *CheckoutInfo) CustomerEmail() string {
	if c.User != nil && c.User.Email != "" {
		return c.User.Email
	}
	if c.Checkout == nil {
		return ""
	}
	return c.Checkout.Email
}
