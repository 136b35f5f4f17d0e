package model

import "time"

type CheckoutStep string

const (
	StepShipping       CheckoutStep = "SHIPPING"
	StepShippingMethod CheckoutStep = "SHIPPING_METHOD"
	StepPayment        CheckoutStep = "PAYMENT"
	StepCompleted      CheckoutStep = "COMPLETED"
)

type CheckoutStatus string

const (
	StatusActive    CheckoutStatus = "ACTIVE"
	StatusCompleted CheckoutStatus = "COMPLETED"
	StatusExpired   CheckoutStatus = "EXPIRED"
	StatusAbandoned CheckoutStatus = "ABANDONED"
)

type PaymentMethodType string

const (
	PaymentMethodCard           PaymentMethodType = "CARD"
	PaymentMethodBankTransfer   PaymentMethodType = "BANK_TRANSFER"
	PaymentMethodCashOnDelivery PaymentMethodType = "CASH_ON_DELIVERY"
)

// CartLine is one snapshotted cart entry. Prices are copied at session
// creation so catalog edits do not move a checkout under the buyer.
type CartLine struct {
	ProductID       uint   `json:"productId"`
	SKU             string `json:"sku"`
	Name            string `json:"name"`
	ImageURL        string `json:"imageUrl"`
	Quantity        int32  `json:"quantity"`
	UnitPrice       int64  `json:"unitPrice"`
	DiscountedPrice int64  `json:"discountedPrice"`
	HasVariant      bool   `json:"hasVariant"`
}

// EffectivePrice is the discounted price when one is set, otherwise the
// list price.
func (l CartLine) EffectivePrice() int64 {
	if l.DiscountedPrice > 0 {
		return l.DiscountedPrice
	}
	return l.UnitPrice
}

type CartSnapshot struct {
	Lines     []CartLine `json:"lines"`
	Subtotal  int64      `json:"subtotal"`
	ItemCount int32      `json:"itemCount"`
}

type Address struct {
	FullName   string `json:"fullName"`
	Line1      string `json:"line1"`
	Line2      string `json:"line2,omitempty"`
	City       string `json:"city"`
	PostalCode string `json:"postalCode"`
	Country    string `json:"country"`
	Phone      string `json:"phone,omitempty"`
	Email      string `json:"email"`
}

type Pricing struct {
	Subtotal     int64 `json:"subtotal"`
	ShippingCost int64 `json:"shippingCost"`
	Discount     int64 `json:"discount"`
	Tax          int64 `json:"tax"`
	Total        int64 `json:"total"`
}

// CheckoutSession is the ephemeral checkout aggregate. It lives only in
// the TTL store and is deleted the moment a durable order exists.
type CheckoutSession struct {
	Token             string            `json:"token"`
	Step              CheckoutStep      `json:"step"`
	Status            CheckoutStatus    `json:"status"`
	CartSnapshot      CartSnapshot      `json:"cartSnapshot"`
	ShippingAddress   *Address          `json:"shippingAddress,omitempty"`
	BillingAddress    *Address          `json:"billingAddress,omitempty"`
	ShippingMethodID  uint              `json:"shippingMethodId,omitempty"`
	Pricing           Pricing           `json:"pricing"`
	PaymentMethodType PaymentMethodType `json:"paymentMethodType,omitempty"`
	OrderNumber       string            `json:"orderNumber,omitempty"`
	ExpiresAt         time.Time         `json:"expiresAt"`
	CreatedAt         time.Time         `json:"createdAt"`
	UpdatedAt         time.Time         `json:"updatedAt"`
	// TTL is seconds remaining, refreshed from the store on every read.
	TTL int `json:"ttl"`
}

// AddressUpdate is the typed patch applied when the SHIPPING step
// completes.
type AddressUpdate struct {
	Shipping Address
	Billing  Address
}

// ShippingMethodUpdate is the typed patch applied when a shipping method
// is selected.
type ShippingMethodUpdate struct {
	MethodID uint
	Pricing  Pricing
}

// CompletionUpdate is the typed patch applied at completion time.
type CompletionUpdate struct {
	PaymentMethodType PaymentMethodType
	OrderNumber       string
}
