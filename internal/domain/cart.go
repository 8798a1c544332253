package domain

import (
	"github.com/shopspring/decimal"
)

// =============================================================================
// CART DOMAIN ERRORS
// =============================================================================

var (
	ErrInvalidQuantity = &Error{Code: EINVALID, Message: "Quantity must be at least 1"}
	ErrInvalidBookID   = &Error{Code: EINVALID, Message: "Book ID must be a positive integer"}
	ErrMalformedCart   = &Error{Code: EINTERNAL, Message: "Cart payload was not a list of items"}
)

// =============================================================================
// CART DOMAIN TYPES
// =============================================================================

// CartStatus is the lifecycle state of the canonical cart.
type CartStatus string

const (
	CartUninitialized CartStatus = "uninitialized"
	CartLoading       CartStatus = "loading"
	CartReady         CartStatus = "ready"
)

// CartLine pairs a book with a quantity. Book references a catalog id but
// is not enforced; the book may be missing from the catalog.
//
// Price is the unit price. Lines read from the local store carry none and
// are priced from the catalog.
type CartLine struct {
	Book     int             `json:"book"`
	Quantity int             `json:"quantity"`
	Price    decimal.Decimal `json:"price"`
}

// Subtotal returns quantity * unit price.
func (l CartLine) Subtotal() decimal.Decimal {
	return l.Price.Mul(decimal.NewFromInt(int64(l.Quantity)))
}

// Cart is a snapshot of the canonical cart state.
type Cart struct {
	Status        CartStatus      `json:"status"`
	Items         []CartLine      `json:"items"`
	TotalQuantity int             `json:"total_quantity"`
	TotalPrice    decimal.Decimal `json:"total_price"`
	Err           string          `json:"error,omitempty"`
}

// Line returns the line for a book, if present.
func (c Cart) Line(bookID int) (CartLine, bool) {
	for _, l := range c.Items {
		if l.Book == bookID {
			return l, true
		}
	}
	return CartLine{}, false
}

// Totals recomputes quantity and price over lines from scratch.
func Totals(lines []CartLine) (int, decimal.Decimal) {
	qty := 0
	price := decimal.Zero
	for _, l := range lines {
		qty += l.Quantity
		price = price.Add(l.Subtotal())
	}
	return qty, price
}

// RemoteCart is the cart payload returned by GET /api/cart/.
// Items is kept raw so a non-list payload can be detected and normalized.
type RemoteCart struct {
	Items         RawItems        `json:"items"`
	TotalPrice    decimal.Decimal `json:"total_price"`
	TotalQuantity int             `json:"total_quantity"`
	IsOrdered     bool            `json:"is_ordered"`
}
