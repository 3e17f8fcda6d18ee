package domain

import "time"

type Booking struct {
	ID                   int64
	CustomerID           int64
	VehicleID            int64
	SeatsReserved        int
	SeatsCanceled        int
	OriginStationID      *int64
	DestinationStationID *int64
	CreatedAt            time.Time
}

// SeatsOutstanding is what is still cancellable on the booking.
func (b Booking) SeatsOutstanding() int {
	return b.SeatsReserved - b.SeatsCanceled
}
