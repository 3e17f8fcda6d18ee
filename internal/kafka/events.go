package kafka

import (
	"encoding/json"
	"strconv"
	"time"

	"github.com/barals/TheBusBookingCompany/internal/domain"
	"github.com/google/uuid"
	"github.com/segmentio/kafka-go"
)

type EventType string

const (
	EventSeatsReserved    EventType = "seats_reserved"
	EventSeatsReleased    EventType = "seats_released"
	EventCapacityAdjusted EventType = "capacity_adjusted"
)

// InventoryEvent is published after every committed ledger change.
type InventoryEvent struct {
	ID             uuid.UUID `json:"id"`
	Type           EventType `json:"type"`
	VehicleID      int64     `json:"vehicle_id"`
	BookingID      int64     `json:"booking_id,omitempty"`
	CancellationID int64     `json:"cancellation_id,omitempty"`
	CustomerID     int64     `json:"customer_id,omitempty"`
	Seats          int       `json:"seats"`
	AvailableSeats int       `json:"available_seats"`
	OccurredAt     time.Time `json:"occurred_at"`
}

func NewReservedEvent(b *domain.Booking, rec *domain.CapacityRecord) InventoryEvent {
	return InventoryEvent{
		ID:             uuid.New(),
		Type:           EventSeatsReserved,
		VehicleID:      b.VehicleID,
		BookingID:      b.ID,
		CustomerID:     b.CustomerID,
		Seats:          b.SeatsReserved,
		AvailableSeats: rec.AvailableSeats,
		OccurredAt:     time.Now().UTC(),
	}
}

func NewReleasedEvent(c *domain.Cancellation, rec *domain.CapacityRecord) InventoryEvent {
	return InventoryEvent{
		ID:             uuid.New(),
		Type:           EventSeatsReleased,
		VehicleID:      c.VehicleID,
		BookingID:      c.BookingID,
		CancellationID: c.ID,
		Seats:          c.SeatsCanceled,
		AvailableSeats: rec.AvailableSeats,
		OccurredAt:     time.Now().UTC(),
	}
}

func NewAdjustedEvent(rec *domain.CapacityRecord) InventoryEvent {
	return InventoryEvent{
		ID:             uuid.New(),
		Type:           EventCapacityAdjusted,
		VehicleID:      rec.VehicleID,
		AvailableSeats: rec.AvailableSeats,
		OccurredAt:     time.Now().UTC(),
	}
}

func (e InventoryEvent) Key() string {
	return strconv.FormatInt(e.VehicleID, 10)
}

func DecodeInventoryEvent(msg kafka.Message) (InventoryEvent, error) {
	var e InventoryEvent
	err := json.Unmarshal(msg.Value, &e)
	return e, err
}
