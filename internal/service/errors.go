package service

import "errors"

var (
	ErrNoLines            = errors.New("at least one order line is required")
	ErrMissingProductName = errors.New("product name is required")
	ErrProductUnresolved  = errors.New("could not create or find product")
	ErrProductNotFound    = errors.New("product not found")
)

// IsValidation reports whether err was caused by bad caller input.
func IsValidation(err error) bool {
	return errors.Is(err, ErrNoLines) || errors.Is(err, ErrMissingProductName)
}
