package domain

import "github.com/shopspring/decimal"

// Order is a server cart that has been marked as ordered.
type Order struct {
	ID            int             `json:"id"`
	Items         []CartLine      `json:"items"`
	TotalPrice    decimal.Decimal `json:"total_price"`
	TotalQuantity int             `json:"total_quantity"`
	IsOrdered     bool            `json:"is_ordered"`
}

// Confirmation is the outcome of the simulated checkout. Redirect is the
// route the UI navigates to.
type Confirmation struct {
	Redirect string  `json:"redirect"`
	Address  Address `json:"address"`
	Cart     Cart    `json:"cart"`
}
