package domain

import "errors"

var (
	ErrIdentityUnavailable = errors.New("identity unavailable")
	ErrNotSignedIn         = errors.New("no signed-in identity")
	ErrStoreWriteFailed    = errors.New("cart store write failed")
	ErrStoreReadFailed     = errors.New("cart store read failed")
	ErrCatalogUnavailable  = errors.New("catalog unavailable")
	ErrLineNotFound        = errors.New("cart line not found")
	ErrInvalidQuantity     = errors.New("quantity must be positive")
	ErrCurrencyMismatch    = errors.New("cart lines are priced in different currencies")
	ErrTimeout             = errors.New("cart operation timed out")
)
