package booking

import (
	"context"
	"fmt"

	"github.com/barals/TheBusBookingCompany/internal/domain"
	"github.com/barals/TheBusBookingCompany/internal/repository"
	"github.com/barals/TheBusBookingCompany/internal/service/ledger"
)

type ReserveInput struct {
	CustomerID           int64  `json:"customer_id"`
	Seats                int    `json:"seats"`
	OriginStationID      *int64 `json:"origin_station_id,omitempty"`
	DestinationStationID *int64 `json:"destination_station_id,omitempty"`
}

func (in ReserveInput) Validate() error {
	if in.Seats <= 0 {
		return domain.InvalidArgument("booking.reserve", "seats", "must be positive")
	}
	if in.CustomerID <= 0 {
		return domain.InvalidArgument("booking.reserve", "customer_id", "must be positive")
	}
	return nil
}

// ReservationEngine decrements availability and records the booking.
// The caller supplies repositories bound to one transaction and holds the vehicle lock.
type ReservationEngine interface {
	Reserve(ctx context.Context, repos repository.Repositories, vehicle *domain.Vehicle, input ReserveInput) (*domain.Booking, *domain.CapacityRecord, error)
}

type Engine struct{}

func NewEngine() *Engine {
	return &Engine{}
}

func (e *Engine) Reserve(ctx context.Context, repos repository.Repositories, vehicle *domain.Vehicle, input ReserveInput) (*domain.Booking, *domain.CapacityRecord, error) {
	if err := input.Validate(); err != nil {
		return nil, nil, err
	}

	l := ledger.New(repos.Capacity)
	rec, err := l.GetOrInit(ctx, vehicle)
	if err != nil {
		return nil, nil, err
	}
	if input.Seats > rec.AvailableSeats {
		return nil, nil, domain.NewError(domain.KindInsufficientCapacity, "booking.reserve",
			fmt.Sprintf("vehicle %d has %d seats available, %d requested", vehicle.ID, rec.AvailableSeats, input.Seats))
	}

	rec, err = l.ApplyDelta(ctx, vehicle.ID, -input.Seats, 0, vehicle.Capacity)
	if err != nil {
		return nil, nil, err
	}

	booking := &domain.Booking{
		CustomerID:           input.CustomerID,
		VehicleID:            vehicle.ID,
		SeatsReserved:        input.Seats,
		OriginStationID:      input.OriginStationID,
		DestinationStationID: input.DestinationStationID,
	}
	if err := repos.Bookings.Create(ctx, booking); err != nil {
		return nil, nil, err
	}
	return booking, rec, nil
}

var _ ReservationEngine = (*Engine)(nil)
