package domain

import (
	"github.com/shopspring/decimal"
)

// =============================================================================
// CATALOG DOMAIN TYPES
// =============================================================================

// Book is a catalog record as served by GET /api/book/.
// Records are read-only on the client; they are loaded once and may be
// refreshed individually by id.
type Book struct {
	ID          int              `json:"id"`
	Name        string           `json:"name"`
	Author      string           `json:"author"`
	Price       decimal.Decimal  `json:"price"`
	OldPrice    *decimal.Decimal `json:"old_price,omitempty"`
	Rating      float64          `json:"rating"`
	ReviewCount int              `json:"review_count"`
	ImageRef    string           `json:"image"`
	Description string           `json:"description"`
	Stock       int              `json:"stock"`
	PublishDate string           `json:"publish_date,omitempty"`
}

// OnSale reports whether the book carries a previous price above the current one.
func (b Book) OnSale() bool {
	return b.OldPrice != nil && b.OldPrice.GreaterThan(b.Price)
}
