package model

import (
	"time"

	"github.com/google/uuid"
)

// EventType names an order notification.
type EventType string

const (
	EventOrderPlaced     EventType = "order.placed"
	EventOrderProcessing EventType = "order.processing"
	EventOrderDelivered  EventType = "order.delivered"
	EventOrderCancelled  EventType = "order.cancelled"
)

// OrderEvent is the payload handed to the notification dispatcher.
type OrderEvent struct {
	Type          EventType        `json:"type"`
	OrderID       uuid.UUID        `json:"orderId"`
	OrderNumber   int64            `json:"orderNumber,string"`
	Email         string           `json:"email"`
	RecipientName string           `json:"recipientName"`
	Items         []OrderEventItem `json:"items"`
	TotalAmount   int64            `json:"totalAmount"`
	Discount      int64            `json:"discount"`
	FinalAmount   int64            `json:"finalAmount"`
	Phone         string           `json:"phone"`
	Address       string           `json:"address"`
	PaymentMethod PaymentMethod    `json:"paymentMethod"`
	Status        OrderStatus      `json:"status"`
	Note          string           `json:"note,omitempty"`
	OccurredAt    time.Time        `json:"occurredAt"`
}

// OrderEventItem is a line item as described in a notification.
type OrderEventItem struct {
	Name     string `json:"name"`
	Quantity int    `json:"quantity"`
	Size     string `json:"size"`
}

// NewOrderEvent builds the notification payload for order.
func NewOrderEvent(eventType EventType, order *Order, note string, at time.Time) OrderEvent {
	items := make([]OrderEventItem, len(order.Items))
	for i, item := range order.Items {
		items[i] = OrderEventItem{Name: item.Name, Quantity: item.Quantity, Size: item.Size}
	}

	var discount int64
	if order.Voucher != nil {
		discount = order.Voucher.Discount
	}

	return OrderEvent{
		Type:          eventType,
		OrderID:       order.ID,
		OrderNumber:   order.Number,
		Email:         order.Email,
		RecipientName: order.RecipientName,
		Items:         items,
		TotalAmount:   order.TotalAmount,
		Discount:      discount,
		FinalAmount:   order.FinalAmount,
		Phone:         order.Phone,
		Address:       order.Address,
		PaymentMethod: order.PaymentMethod,
		Status:        order.Status,
		Note:          note,
		OccurredAt:    at,
	}
}
