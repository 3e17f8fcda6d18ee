package notify

import (
	"context"

	"github.com/barals/TheBusBookingCompany/internal/kafka"
	"go.uber.org/zap"
)

// Notifier tells customers about changes to their bookings. Delivery is a log
// line for now; the event carries everything a mail or push sender needs.
type Notifier struct {
	logger *zap.Logger
}

func NewNotifier(logger *zap.Logger) *Notifier {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Notifier{logger: logger}
}

func (n *Notifier) Notify(ctx context.Context, event kafka.InventoryEvent) error {
	switch event.Type {
	case kafka.EventSeatsReserved:
		n.logger.Info("notify customer about reservation",
			zap.Int64("customer_id", event.CustomerID),
			zap.Int64("booking_id", event.BookingID),
			zap.Int64("vehicle_id", event.VehicleID),
			zap.Int("seats", event.Seats),
		)
	case kafka.EventSeatsReleased:
		n.logger.Info("notify customer about cancellation",
			zap.Int64("booking_id", event.BookingID),
			zap.Int64("cancellation_id", event.CancellationID),
			zap.Int("seats", event.Seats),
		)
	default:
		n.logger.Debug("no customer notification for event", zap.String("type", string(event.Type)))
	}
	return nil
}
