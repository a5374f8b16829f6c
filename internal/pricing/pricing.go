// Package pricing holds the money arithmetic shared by catalogue discounts
// and order vouchers. Amounts are whole currency units.
package pricing

import (
	"storefront/internal/model"

	"github.com/shopspring/decimal"
)

var hundred = decimal.NewFromInt(100)

// SalePrice applies a percentage discount to price and rounds to the nearest
// unit. The result is always within [0, price].
func SalePrice(price int64, percentage float64) int64 {
	if percentage <= 0 || price <= 0 {
		return price
	}
	if percentage >= 100 {
		return 0
	}

	factor := hundred.Sub(decimal.NewFromFloat(percentage)).Div(hundred)
	sale := decimal.NewFromInt(price).Mul(factor).Round(0).IntPart()

	return clamp(sale, 0, price)
}

// VoucherDiscount returns the amount a voucher takes off an order total.
// Percentage vouchers are capped at MaxDiscount when set, and every discount
// is capped at the order total.
func VoucherDiscount(v *model.Voucher, total int64) int64 {
	if v == nil || total <= 0 {
		return 0
	}

	var discount decimal.Decimal
	switch v.DiscountType {
	case model.VoucherPercentage:
		discount = decimal.NewFromInt(total).
			Mul(decimal.NewFromInt(v.DiscountValue)).
			Div(hundred)
		if v.MaxDiscount != nil {
			discount = decimal.Min(discount, decimal.NewFromInt(*v.MaxDiscount))
		}
	case model.VoucherFixed:
		discount = decimal.NewFromInt(v.DiscountValue)
	default:
		return 0
	}

	discount = decimal.Min(discount, decimal.NewFromInt(total))

	return clamp(discount.Round(0).IntPart(), 0, total)
}

func clamp(v, lo, hi int64) int64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
