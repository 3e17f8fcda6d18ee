package domain

import (
	"fmt"
	"time"
)

// CapacityRecord is the ledger entry holding the current free seats of one vehicle.
type CapacityRecord struct {
	VehicleID      int64
	Capacity       int
	AvailableSeats int
	CreatedAt      time.Time
	UpdatedAt      time.Time
}

// Validate reports a capacity violation when AvailableSeats left [0, Capacity].
func (r CapacityRecord) Validate() error {
	if r.AvailableSeats < 0 || r.AvailableSeats > r.Capacity {
		return NewError(KindCapacityViolation, "capacity.validate",
			fmt.Sprintf("vehicle %d has %d available seats outside [0, %d]", r.VehicleID, r.AvailableSeats, r.Capacity))
	}
	return nil
}

func (r CapacityRecord) BookedSeats() int {
	return r.Capacity - r.AvailableSeats
}
