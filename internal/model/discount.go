package model

import (
	"encoding/json"
	"slices"
	"time"

	"github.com/google/uuid"
)

// DiscountKind selects what a discount rule targets.
type DiscountKind string

const (
	DiscountProduct     DiscountKind = "PRODUCT"
	DiscountBrand       DiscountKind = "BRAND"
	DiscountCategory    DiscountKind = "CATEGORY"
	DiscountProductList DiscountKind = "PRODUCT_LIST"
	DiscountGlobal      DiscountKind = "GLOBAL"
)

// DefaultPriority returns the priority assigned to a rule of this kind when
// none is given. Lower wins.
func (k DiscountKind) DefaultPriority() int {
	switch k {
	case DiscountProduct:
		return 1
	case DiscountProductList:
		return 2
	case DiscountBrand:
		return 3
	case DiscountCategory:
		return 4
	default:
		return 5
	}
}

// Valid reports whether k is one of the known kinds.
func (k DiscountKind) Valid() bool {
	switch k {
	case DiscountProduct, DiscountBrand, DiscountCategory, DiscountProductList, DiscountGlobal:
		return true
	}
	return false
}

// DiscountTarget is what a discount rule applies to. The zero value is not a
// valid target; build one with the Target* constructors or NewDiscountTarget.
type DiscountTarget struct {
	kind DiscountKind
	ref  string
	refs []string
}

// TargetProduct targets a single product.
func TargetProduct(productID string) DiscountTarget {
	return DiscountTarget{kind: DiscountProduct, ref: productID}
}

// TargetBrand targets every product of a brand.
func TargetBrand(brandID string) DiscountTarget {
	return DiscountTarget{kind: DiscountBrand, ref: brandID}
}

// TargetCategory targets every product of a category.
func TargetCategory(categoryID string) DiscountTarget {
	return DiscountTarget{kind: DiscountCategory, ref: categoryID}
}

// TargetProductList targets an explicit list of products.
func TargetProductList(productIDs []string) DiscountTarget {
	return DiscountTarget{kind: DiscountProductList, refs: slices.Clone(productIDs)}
}

// TargetGlobal targets every product.
func TargetGlobal() DiscountTarget {
	return DiscountTarget{kind: DiscountGlobal}
}

// NewDiscountTarget builds a target from its persisted or submitted parts.
// Only the part matching kind is kept; a missing part is a validation error.
func NewDiscountTarget(kind DiscountKind, ref string, refs []string) (DiscountTarget, error) {
	switch kind {
	case DiscountProduct:
		if ref == "" {
			return DiscountTarget{}, NewValidationError("a product is required for a PRODUCT discount")
		}
		return TargetProduct(ref), nil
	case DiscountBrand:
		if ref == "" {
			return DiscountTarget{}, NewValidationError("a brand is required for a BRAND discount")
		}
		return TargetBrand(ref), nil
	case DiscountCategory:
		if ref == "" {
			return DiscountTarget{}, NewValidationError("a category is required for a CATEGORY discount")
		}
		return TargetCategory(ref), nil
	case DiscountProductList:
		if len(refs) == 0 {
			return DiscountTarget{}, NewValidationError("at least one product is required for a PRODUCT_LIST discount")
		}
		for _, id := range refs {
			if id == "" {
				return DiscountTarget{}, NewValidationError("product list contains an empty product id")
			}
		}
		return TargetProductList(refs), nil
	case DiscountGlobal:
		return TargetGlobal(), nil
	default:
		return DiscountTarget{}, NewValidationError("unknown discount type %q", kind)
	}
}

// Kind returns the target kind.
func (t DiscountTarget) Kind() DiscountKind { return t.kind }

// Ref returns the single referenced id for PRODUCT, BRAND and CATEGORY targets.
func (t DiscountTarget) Ref() string { return t.ref }

// Refs returns the product ids of a PRODUCT_LIST target.
func (t DiscountTarget) Refs() []string { return slices.Clone(t.refs) }

// Matches reports whether the target covers p.
func (t DiscountTarget) Matches(p *Product) bool {
	switch t.kind {
	case DiscountProduct:
		return t.ref == p.ID
	case DiscountBrand:
		return p.BrandID != "" && t.ref == p.BrandID
	case DiscountCategory:
		return p.CategoryID != "" && t.ref == p.CategoryID
	case DiscountProductList:
		return slices.Contains(t.refs, p.ID)
	case DiscountGlobal:
		return true
	}
	return false
}

type discountTargetJSON struct {
	DiscountType DiscountKind `json:"discountType"`
	Product      string       `json:"product,omitempty"`
	Brand        string       `json:"brand,omitempty"`
	Category     string       `json:"category,omitempty"`
	Products     []string     `json:"products,omitempty"`
}

// MarshalJSON emits the target with only the field matching its kind.
func (t DiscountTarget) MarshalJSON() ([]byte, error) {
	out := discountTargetJSON{DiscountType: t.kind}
	switch t.kind {
	case DiscountProduct:
		out.Product = t.ref
	case DiscountBrand:
		out.Brand = t.ref
	case DiscountCategory:
		out.Category = t.ref
	case DiscountProductList:
		out.Products = t.refs
	}
	return json.Marshal(out)
}

// DiscountRule is a percentage discount applied to catalogue prices.
type DiscountRule struct {
	ID          uuid.UUID      `json:"id"`
	Name        string         `json:"name"`
	Description string         `json:"description"`
	Terms       string         `json:"terms"`
	Target      DiscountTarget `json:"target"`
	Percentage  float64        `json:"percentage"`
	Priority    int            `json:"priority"`
	StartDate   time.Time      `json:"startDate"`
	EndDate     *time.Time     `json:"endDate,omitempty"`
	IsActive    bool           `json:"isActive"`
	CreatedAt   time.Time      `json:"createdAt"`
	UpdatedAt   time.Time      `json:"updatedAt"`
}

// ActiveAt reports whether the rule is enabled and inside its window at now.
func (d *DiscountRule) ActiveAt(now time.Time) bool {
	if !d.IsActive || d.StartDate.After(now) {
		return false
	}
	return d.EndDate == nil || !d.EndDate.Before(now)
}

// Summary returns the catalogue representation of the rule.
func (d *DiscountRule) Summary() *AppliedDiscount {
	return &AppliedDiscount{
		ID:         d.ID.String(),
		Name:       d.Name,
		Percentage: d.Percentage,
		EndDate:    d.EndDate,
	}
}

// DiscountRequest is the admin payload for creating or updating a discount rule.
type DiscountRequest struct {
	Name         string       `json:"name" validate:"required,max=200"`
	Description  string       `json:"description"`
	Terms        string       `json:"terms"`
	DiscountType DiscountKind `json:"discountType" validate:"required"`
	Product      string       `json:"product,omitempty"`
	Brand        string       `json:"brand,omitempty"`
	Category     string       `json:"category,omitempty"`
	Products     []string     `json:"products,omitempty"`
	Percentage   float64      `json:"percentage" validate:"gte=0,lte=100"`
	Priority     *int         `json:"priority,omitempty" validate:"omitempty,gte=0"`
	StartDate    time.Time    `json:"startDate" validate:"required"`
	EndDate      *time.Time   `json:"endDate,omitempty"`
	IsActive     *bool        `json:"isActive,omitempty"`
}

// TargetRef returns the single reference that belongs to the request's kind.
func (r *DiscountRequest) TargetRef() string {
	switch r.DiscountType {
	case DiscountProduct:
		return r.Product
	case DiscountBrand:
		return r.Brand
	case DiscountCategory:
		return r.Category
	}
	return ""
}
