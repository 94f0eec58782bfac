package checkout

import "errors"

var (
	ErrEmptyCart          = errors.New("cart is empty, nothing to checkout")
	ErrPaymentUnavailable = errors.New("online payment is unavailable, try again or pay on delivery")
)
