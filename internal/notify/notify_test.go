package notify

import (
	"context"
	"testing"

	"github.com/barals/TheBusBookingCompany/internal/kafka"
	"github.com/stretchr/testify/assert"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"
)

func TestNotifier_Notify(t *testing.T) {
	core, logs := observer.New(zap.DebugLevel)
	n := NewNotifier(zap.New(core))

	assert.NoError(t, n.Notify(context.Background(), kafka.InventoryEvent{Type: kafka.EventSeatsReserved, BookingID: 1, CustomerID: 3, Seats: 2}))
	assert.NoError(t, n.Notify(context.Background(), kafka.InventoryEvent{Type: kafka.EventSeatsReleased, BookingID: 1, CancellationID: 5, Seats: 1}))
	assert.NoError(t, n.Notify(context.Background(), kafka.InventoryEvent{Type: kafka.EventCapacityAdjusted}))

	assert.Equal(t, 1, logs.FilterMessage("notify customer about reservation").Len())
	assert.Equal(t, 1, logs.FilterMessage("notify customer about cancellation").Len())
	assert.Equal(t, 1, logs.FilterMessage("no customer notification for event").Len())
}
