package dto

import "storefront-checkout/internal/model"

type Item struct {
	SKU      string `json:"sku"`
	Quantity int32  `json:"quantity"`
}

type CreateSessionRequest struct {
	Items []*Item `json:"items"`
}

type CreateSessionResponse struct {
	Token     string `json:"token"`
	ExpiresAt string `json:"expiresAt"`
}

type AddressRequest struct {
	Shipping       model.Address  `json:"shipping"`
	Billing        *model.Address `json:"billing,omitempty"`
	SameAsShipping bool           `json:"sameAsShipping"`
}

type ShippingMethodRequest struct {
	ShippingMethodID uint `json:"shippingMethodId"`
}

type CompleteRequest struct {
	PaymentMethodType string `json:"paymentMethodType"`
}

type CompleteResponse struct {
	OrderID                   uint   `json:"orderId"`
	OrderNumber               string `json:"orderNumber"`
	PaymentIntentClientSecret string `json:"paymentIntentClientSecret"`
	OrderAccessToken          string `json:"orderAccessToken"`
}

type ShippingMethodResponse struct {
	ID             uint   `json:"id"`
	Name           string `json:"name"`
	Price          int64  `json:"price"`
	MinOrderAmount int64  `json:"minOrderAmount,omitempty"`
}
