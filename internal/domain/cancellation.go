package domain

import "time"

type Cancellation struct {
	ID            int64
	BookingID     int64
	VehicleID     int64
	SeatsCanceled int
	CreatedAt     time.Time
}
