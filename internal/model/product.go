package model

import "time"

// Product represents an item in the catalogue. Price is in whole currency units.
type Product struct {
	ID         string        `json:"id" db:"id"`
	Name       string        `json:"name" db:"name"`
	Price      int64         `json:"price" db:"price"`
	BrandID    string        `json:"brandId" db:"brand_id"`
	CategoryID string        `json:"categoryId" db:"category_id"`
	SellCount  int           `json:"sellCount" db:"sell_count"`
	Sizes      []ProductSize `json:"sizes"`
	CreatedAt  time.Time     `json:"createdAt" db:"created_at"`
}

// ProductSize holds the stock for one size of a product.
type ProductSize struct {
	Size     string `json:"size" db:"size"`
	Quantity int    `json:"quantity" db:"quantity"`
}

// Size returns the stock record for size, if the product has it.
func (p *Product) Size(size string) (ProductSize, bool) {
	for _, s := range p.Sizes {
		if s.Size == size {
			return s, true
		}
	}
	return ProductSize{}, false
}

// AppliedDiscount is the discount summary attached to catalogue responses.
type AppliedDiscount struct {
	ID         string     `json:"id"`
	Name       string     `json:"name"`
	Percentage float64    `json:"percentage"`
	EndDate    *time.Time `json:"endDate,omitempty"`
}

// ProductView is a product as returned to clients, with its resolved sale price.
type ProductView struct {
	Product
	Discount  *AppliedDiscount `json:"discount"`
	SalePrice int64            `json:"salePrice"`
}
