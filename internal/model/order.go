package model

import (
	"time"

	"github.com/google/uuid"
)

// OrderStatus is the lifecycle state of an order.
type OrderStatus string

const (
	StatusPending    OrderStatus = "pending"
	StatusProcessing OrderStatus = "processing"
	StatusDelivered  OrderStatus = "delivered"
	StatusCancel     OrderStatus = "cancel"
)

// Valid reports whether s is a known status.
func (s OrderStatus) Valid() bool {
	switch s {
	case StatusPending, StatusProcessing, StatusDelivered, StatusCancel:
		return true
	}
	return false
}

// Terminal reports whether no further transition can leave s.
func (s OrderStatus) Terminal() bool {
	return s == StatusDelivered || s == StatusCancel
}

// PaymentMethod is how the customer pays.
type PaymentMethod string

const (
	PaymentCOD   PaymentMethod = "cod"
	PaymentVNPay PaymentMethod = "vnpay"
)

// Order represents a customer order.
type Order struct {
	ID                uuid.UUID     `json:"id" db:"id"`
	Number            int64         `json:"number,string" db:"number"`
	UserID            string        `json:"userId" db:"user_id"`
	Email             string        `json:"email" db:"email"`
	Items             []OrderItem   `json:"items"`
	RecipientName     string        `json:"recipientName" db:"recipient_name"`
	Phone             string        `json:"phone" db:"phone"`
	Address           string        `json:"address" db:"address"`
	TotalAmount       int64         `json:"totalAmount" db:"total_amount"`
	Voucher           *OrderVoucher `json:"voucher,omitempty"`
	FinalAmount       int64         `json:"finalAmount" db:"final_amount"`
	PaymentMethod     PaymentMethod `json:"paymentMethod" db:"payment_method"`
	Status            OrderStatus   `json:"status" db:"status"`
	StatusHistory     []StatusEntry `json:"statusHistory"`
	EstimatedDelivery time.Time     `json:"estimatedDelivery" db:"estimated_delivery"`
	CreatedAt         time.Time     `json:"createdAt" db:"created_at"`
	UpdatedAt         time.Time     `json:"updatedAt" db:"updated_at"`
}

// OrderVoucher is the voucher snapshot kept on an order.
type OrderVoucher struct {
	VoucherID uuid.UUID `json:"voucherId" db:"voucher_id"`
	Code      string    `json:"code" db:"voucher_code"`
	Discount  int64     `json:"discount" db:"voucher_discount"`
}

// OrderItem represents a line item in an order, with pricing frozen at placement.
type OrderItem struct {
	ID        uuid.UUID `json:"-" db:"id"`
	OrderID   uuid.UUID `json:"-" db:"order_id"`
	ProductID string    `json:"productId" db:"product_id"`
	Name      string    `json:"name" db:"name"`
	Size      string    `json:"size" db:"size"`
	Quantity  int       `json:"quantity" db:"quantity"`
	UnitPrice int64     `json:"unitPrice" db:"unit_price"`
}

// StatusEntry is one element of an order's append-only status log.
type StatusEntry struct {
	Status    OrderStatus `json:"status" db:"status"`
	Note      string      `json:"note" db:"note"`
	Timestamp time.Time   `json:"timestamp" db:"created_at"`
}

// OrderRequest represents the checkout payload.
type OrderRequest struct {
	Items         []OrderItemRequest `json:"cart" validate:"required,min=1,dive"`
	Address       string             `json:"address" validate:"required"`
	Phone         string             `json:"phone" validate:"required,max=20"`
	RecipientName string             `json:"recipientName" validate:"required"`
	PaymentMethod PaymentMethod      `json:"paymentMethod" validate:"required,oneof=cod vnpay"`
	TotalAmount   *int64             `json:"totalAmount,omitempty"`
	VoucherCode   *string            `json:"voucherCode,omitempty"`
}

// OrderItemRequest represents a single cart line.
type OrderItemRequest struct {
	ProductID string `json:"productId" validate:"required"`
	Size      string `json:"size" validate:"required"`
	Quantity  int    `json:"quantity" validate:"gt=0,lte=100000"`
}

// StatusUpdateRequest is the admin payload for moving an order to a new status.
type StatusUpdateRequest struct {
	Status OrderStatus `json:"status" validate:"required"`
	Note   string      `json:"note"`
}

// CancelRequest is the customer payload for cancelling an order.
type CancelRequest struct {
	Note string `json:"note"`
}

// OrderFilter narrows admin order listings.
type OrderFilter struct {
	Status OrderStatus
	Limit  int
	Offset int
}
