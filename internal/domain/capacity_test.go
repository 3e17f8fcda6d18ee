package domain

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestCapacityRecord_Validate(t *testing.T) {
	for _, tt := range []struct {
		name      string
		available int
		violation bool
	}{
		{name: "empty", available: 0},
		{name: "full", available: 40},
		{name: "partial", available: 15},
		{name: "negative", available: -1, violation: true},
		{name: "above capacity", available: 41, violation: true},
	} {
		t.Run(tt.name, func(t *testing.T) {
			err := CapacityRecord{VehicleID: 1, Capacity: 40, AvailableSeats: tt.available}.Validate()
			if tt.violation {
				assert.True(t, errors.Is(err, ErrCapacityViolation))
				return
			}
			assert.NoError(t, err)
		})
	}
}

func TestCapacityRecord_BookedSeats(t *testing.T) {
	assert.Equal(t, 25, CapacityRecord{Capacity: 40, AvailableSeats: 15}.BookedSeats())
}

func TestBooking_SeatsOutstanding(t *testing.T) {
	assert.Equal(t, 6, Booking{SeatsReserved: 10, SeatsCanceled: 4}.SeatsOutstanding())
}
