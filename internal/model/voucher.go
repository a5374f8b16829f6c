package model

import (
	"strings"
	"time"

	"github.com/google/uuid"
)

// VoucherType is how a voucher's value is interpreted.
type VoucherType string

const (
	VoucherPercentage VoucherType = "percentage"
	VoucherFixed      VoucherType = "fixed"
)

// Voucher is an order-level discount code.
type Voucher struct {
	ID                   uuid.UUID      `json:"id"`
	Code                 string         `json:"code"`
	Description          string         `json:"description"`
	DiscountType         VoucherType    `json:"discountType"`
	DiscountValue        int64          `json:"discountValue"`
	MaxDiscount          *int64         `json:"maxDiscount,omitempty"`
	MinOrderValue        int64          `json:"minOrderValue"`
	StartDate            time.Time      `json:"startDate"`
	ExpiryDate           time.Time      `json:"expiryDate"`
	UsageLimit           *int           `json:"usageLimit,omitempty"`
	UsedCount            int            `json:"usedCount"`
	IsActive             bool           `json:"isActive"`
	ApplicableProducts   []string       `json:"applicableProducts"`
	ApplicableCategories []string       `json:"applicableCategories"`
	UsedBy               []VoucherUsage `json:"usedBy,omitempty"`
	CreatedAt            time.Time      `json:"createdAt"`
	UpdatedAt            time.Time      `json:"updatedAt"`
}

// VoucherUsage records one redemption of a voucher.
type VoucherUsage struct {
	UserID     string    `json:"user"`
	OrderID    uuid.UUID `json:"orderId"`
	UsedAt     time.Time `json:"usedAt"`
	OrderValue int64     `json:"orderValue"`
}

// NormalizeVoucherCode returns the canonical form of a voucher code.
func NormalizeVoucherCode(code string) string {
	return strings.ToUpper(strings.TrimSpace(code))
}

// VoucherRequest is the admin payload for creating or updating a voucher.
// It is also the record format of voucher import files.
type VoucherRequest struct {
	Code                 string      `json:"code" validate:"required,max=50"`
	Description          string      `json:"description"`
	DiscountType         VoucherType `json:"discountType" validate:"required,oneof=percentage fixed"`
	DiscountValue        int64       `json:"discountValue" validate:"gt=0"`
	MaxDiscount          *int64      `json:"maxDiscount,omitempty" validate:"omitempty,gt=0"`
	MinOrderValue        int64       `json:"minOrderValue" validate:"gte=0"`
	StartDate            time.Time   `json:"startDate" validate:"required"`
	ExpiryDate           time.Time   `json:"expiryDate" validate:"required"`
	UsageLimit           *int        `json:"usageLimit,omitempty" validate:"omitempty,gt=0"`
	IsActive             *bool       `json:"isActive,omitempty"`
	ApplicableProducts   []string    `json:"applicableProducts,omitempty"`
	ApplicableCategories []string    `json:"applicableCategories,omitempty"`
}

// SnapshotProduct is a product as seen by voucher validation.
type SnapshotProduct struct {
	ID         string `json:"id" validate:"required"`
	CategoryID string `json:"category,omitempty"`
}

// OrderSnapshot is the candidate order a voucher is checked against.
type OrderSnapshot struct {
	TotalAmount int64             `json:"totalAmount" validate:"gte=0"`
	Products    []SnapshotProduct `json:"products" validate:"dive"`
}

// VoucherValidationRequest is the payload of the voucher check endpoint.
type VoucherValidationRequest struct {
	Code string `json:"code" validate:"required"`
	OrderSnapshot
}

// VoucherQuote is the outcome of a successful voucher validation.
type VoucherQuote struct {
	Voucher     *Voucher `json:"voucher"`
	Discount    int64    `json:"discount"`
	FinalAmount int64    `json:"finalAmount"`
}
