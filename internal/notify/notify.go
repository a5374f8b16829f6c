// Package notify hands order events to downstream delivery.
package notify

import (
	"context"

	"storefront/internal/model"

	"github.com/rs/zerolog"
)

// Notifier dispatches an order event.
type Notifier interface {
	Notify(ctx context.Context, event model.OrderEvent) error
}

// LogNotifier writes events to the log. It is used when no broker is configured.
type LogNotifier struct {
	logger zerolog.Logger
}

// NewLogNotifier creates a notifier that only logs.
func NewLogNotifier(logger zerolog.Logger) *LogNotifier {
	return &LogNotifier{logger: logger.With().Str("component", "log-notifier").Logger()}
}

func (n *LogNotifier) Notify(ctx context.Context, event model.OrderEvent) error {
	n.logger.Info().
		Str("event", string(event.Type)).
		Str("order_id", event.OrderID.String()).
		Int64("order_number", event.OrderNumber).
		Str("email", event.Email).
		Str("status", string(event.Status)).
		Int64("final_amount", event.FinalAmount).
		Msg("order event")
	return nil
}
