// Package orderflow holds the order status transition tables.
package orderflow

import "storefront/internal/model"

// Transition describes one allowed status change and its side effects.
type Transition struct {
	From          model.OrderStatus
	To            model.OrderStatus
	RestoresStock bool
	Note          string
	Event         model.EventType
}

type edge struct {
	from model.OrderStatus
	to   model.OrderStatus
}

var admin = map[edge]Transition{
	{model.StatusPending, model.StatusProcessing}: {
		From:  model.StatusPending,
		To:    model.StatusProcessing,
		Note:  DefaultNote(model.StatusProcessing),
		Event: model.EventOrderProcessing,
	},
	{model.StatusPending, model.StatusCancel}: {
		From:          model.StatusPending,
		To:            model.StatusCancel,
		RestoresStock: true,
		Note:          DefaultNote(model.StatusCancel),
		Event:         model.EventOrderCancelled,
	},
	{model.StatusProcessing, model.StatusDelivered}: {
		From:  model.StatusProcessing,
		To:    model.StatusDelivered,
		Note:  DefaultNote(model.StatusDelivered),
		Event: model.EventOrderDelivered,
	},
}

// processingCancel is off the default admin table and enabled through
// Rules.AdminCancelProcessing.
var processingCancel = Transition{
	From:          model.StatusProcessing,
	To:            model.StatusCancel,
	RestoresStock: true,
	Note:          DefaultNote(model.StatusCancel),
	Event:         model.EventOrderCancelled,
}

// Customers may only cancel orders that have not started processing.
var selfService = map[edge]bool{
	{model.StatusPending, model.StatusCancel}: true,
}

// Rules selects the optional edges of the transition table.
type Rules struct {
	// AdminCancelProcessing lets admins cancel an order that is already processing.
	AdminCancelProcessing bool
}

// Lookup returns the admin transition from -> to.
func (r Rules) Lookup(from, to model.OrderStatus) (Transition, error) {
	if !to.Valid() {
		return Transition{}, model.NewValidationError("invalid order status %q", to)
	}

	if r.AdminCancelProcessing && from == processingCancel.From && to == processingCancel.To {
		return processingCancel, nil
	}

	t, ok := admin[edge{from, to}]
	if !ok {
		return Transition{}, model.NewIllegalTransitionError(from, to)
	}
	return t, nil
}

// LookupSelfService returns the transition a customer may make on their own
// order. Any other change is forbidden.
func (r Rules) LookupSelfService(from, to model.OrderStatus) (Transition, error) {
	if !selfService[edge{from, to}] {
		return Transition{}, model.ErrForbidden
	}
	return r.Lookup(from, to)
}

// Lookup returns the admin transition from -> to using the default rules.
func Lookup(from, to model.OrderStatus) (Transition, error) {
	return Rules{}.Lookup(from, to)
}

// LookupSelfService is Rules.LookupSelfService with the default rules.
func LookupSelfService(from, to model.OrderStatus) (Transition, error) {
	return Rules{}.LookupSelfService(from, to)
}

// DefaultNote is the history note used when a caller gives none.
func DefaultNote(status model.OrderStatus) string {
	switch status {
	case model.StatusPending:
		return "Order placed"
	case model.StatusProcessing:
		return "Order is being processed"
	case model.StatusDelivered:
		return "Order delivered"
	case model.StatusCancel:
		return "Order cancelled"
	}
	return ""
}
