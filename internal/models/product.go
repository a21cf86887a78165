package models

import (
	"strings"
	"time"

	"orderhub/internal/common"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// PriceScale matches the NUMERIC(12,2) price columns.
const PriceScale = 2

var maxPrice = decimal.New(1, 10)

// Product is catalog data owned by the product subsystem. The order write
// path reads Sku and Price and never mutates it.
type Product struct {
	ID          uuid.UUID       `json:"id" db:"id"`
	Sku         string          `json:"sku" db:"sku"`
	Name        string          `json:"name" db:"name"`
	Description *string         `json:"description,omitempty" db:"description"`
	Category    string          `json:"category" db:"category"`
	Price       decimal.Decimal `json:"price" db:"price"`
	IsActive    bool            `json:"isActive" db:"is_active"`
	CreatedAt   time.Time       `json:"createdAt" db:"created_at"`
	UpdatedAt   time.Time       `json:"updatedAt" db:"updated_at"`
}

// Validate checks the catalog invariants of a product.
func (p *Product) Validate() error {
	if len(strings.TrimSpace(p.Name)) < 2 {
		return common.NewValidationError("name", "must be at least 2 characters")
	}
	if strings.TrimSpace(p.Sku) == "" {
		return common.NewValidationError("sku", "is required")
	}
	if !p.Price.IsPositive() {
		return common.NewValidationError("price", "must be a positive number")
	}
	if !p.Price.Equal(p.Price.Round(PriceScale)) {
		return common.NewValidationError("price", "must have at most 2 decimal places")
	}
	if p.Price.GreaterThanOrEqual(maxPrice) {
		return common.NewValidationError("price", "must be less than 10000000000")
	}
	return nil
}
