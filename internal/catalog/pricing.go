package catalog

import (
	"github.com/shopspring/decimal"

	"github.com/fitplay-hq/fitplay-backend/pkg/db/models"
)

var hundred = decimal.NewFromInt(100)

// DiscountedPrice applies the product-level percentage discount to a variant
// MRP. The discount amount is floored so the customer never pays fractional
// credits, and the result never goes below zero.
func DiscountedPrice(mrp int64, discountPercent *int) int64 {
	if discountPercent == nil || *discountPercent <= 0 {
		if mrp < 0 {
			return 0
		}
		return mrp
	}
	base := decimal.NewFromInt(mrp)
	pct := decimal.NewFromInt(int64(*discountPercent))
	discount := base.Mul(pct).Div(hundred).Floor()
	price := base.Sub(discount)
	if price.IsNegative() {
		return 0
	}
	return price.IntPart()
}

// VariantPrice resolves the effective unit price of a variant under its product.
func VariantPrice(product *models.Product, variant *models.Variant) int64 {
	if product == nil || variant == nil {
		return 0
	}
	return DiscountedPrice(variant.MRP, product.DiscountPercent)
}

// LineTotal is the charge for quantity units at the discounted unit price.
func LineTotal(unitPrice int64, quantity int) int64 {
	if quantity <= 0 {
		return 0
	}
	return decimal.NewFromInt(unitPrice).Mul(decimal.NewFromInt(int64(quantity))).IntPart()
}
