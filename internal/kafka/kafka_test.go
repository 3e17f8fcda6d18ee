package kafka

import (
	"context"
	"encoding/json"
	"testing"

	"github.com/barals/TheBusBookingCompany/internal/domain"
	"github.com/segmentio/kafka-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel/propagation"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/trace"
)

func TestHeaderCarrier_RoundTripsTraceContext(t *testing.T) {
	tp := sdktrace.NewTracerProvider()
	ctx, span := tp.Tracer("test").Start(context.Background(), "publish")
	defer span.End()

	prop := propagation.TraceContext{}
	headers := HeaderCarrier{}
	prop.Inject(ctx, &headers)
	require.Contains(t, headers.Keys(), "traceparent")

	got := trace.SpanContextFromContext(prop.Extract(context.Background(), &headers))
	assert.Equal(t, span.SpanContext().TraceID(), got.TraceID())
}

func TestHeaderCarrier_SetOverwrites(t *testing.T) {
	c := HeaderCarrier{}
	c.Set("a", "1")
	c.Set("a", "2")
	assert.Len(t, c, 1)
	assert.Equal(t, "2", c.Get("a"))
	assert.Equal(t, "", c.Get("missing"))
}

func TestInventoryEvents(t *testing.T) {
	rec := &domain.CapacityRecord{VehicleID: 7, Capacity: 40, AvailableSeats: 36}
	reserved := NewReservedEvent(&domain.Booking{ID: 1, VehicleID: 7, CustomerID: 3, SeatsReserved: 4}, rec)
	assert.Equal(t, EventSeatsReserved, reserved.Type)
	assert.Equal(t, "7", reserved.Key())
	assert.Equal(t, 36, reserved.AvailableSeats)

	released := NewReleasedEvent(&domain.Cancellation{ID: 2, BookingID: 1, VehicleID: 7, SeatsCanceled: 2}, rec)
	assert.Equal(t, EventSeatsReleased, released.Type)
	assert.Equal(t, int64(2), released.CancellationID)

	payload, err := json.Marshal(released)
	require.NoError(t, err)
	decoded, err := DecodeInventoryEvent(kafka.Message{Value: payload})
	require.NoError(t, err)
	assert.Equal(t, released.ID, decoded.ID)
	assert.Equal(t, released.Seats, decoded.Seats)
}

func TestProducer_CheckConnection_NoBrokers(t *testing.T) {
	p := NewProducer(nil, nil)
	defer p.Close()
	assert.Error(t, p.CheckConnection(context.Background()))
}
