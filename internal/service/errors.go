package service

import (
	"github.com/dukerupert/folio/internal/domain"
)

// Session errors
var (
	ErrLoginRequired = domain.Errorf(domain.EUNAUTHORIZED, "", "Please log in to continue")
	ErrStaleSession  = domain.Errorf(domain.ECONFLICT, "", "Your session changed while the cart was updating")
)

// Checkout errors
var (
	ErrEmptyCart       = domain.Errorf(domain.EINVALID, "", "Your cart is empty")
	ErrAddressRequired = domain.Errorf(domain.EINVALID, "", "Please select or add a delivery address")
	ErrAddressNotFound = domain.Errorf(domain.ENOTFOUND, "", "Address not found")
)
