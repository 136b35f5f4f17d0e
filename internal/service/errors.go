package service

import "errors"

var (
	ErrEmptyCart                 = errors.New("cart is empty, nothing to check out")
	ErrInvalidQuantity           = errors.New("item quantity must be positive")
	ErrInvalidToken              = errors.New("malformed checkout token")
	ErrProductNotFound           = errors.New("some products not found or inactive")
	ErrSessionExpired            = errors.New("checkout session expired, start over")
	ErrAlreadyCompleted          = errors.New("checkout session already completed")
	ErrShippingAddressRequired   = errors.New("shipping address must be set first")
	ErrShippingMethodRequired    = errors.New("shipping method must be selected first")
	ErrShippingMethodNotFound    = errors.New("shipping method not found or inactive")
	ErrPaymentMethodNotSupported = errors.New("payment method type not supported")
	ErrWebhookVerification       = errors.New("webhook signature verification failed")
)
