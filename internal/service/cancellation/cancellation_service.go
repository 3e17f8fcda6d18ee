package cancellation

import (
	"context"
	"fmt"

	"github.com/barals/TheBusBookingCompany/internal/domain"
	"github.com/barals/TheBusBookingCompany/internal/repository"
	"github.com/barals/TheBusBookingCompany/internal/service/ledger"
)

type CancelInput struct {
	BookingID int64 `json:"booking_id"`
	Seats     int   `json:"seats"`
}

func (in CancelInput) Validate() error {
	if in.Seats <= 0 {
		return domain.InvalidArgument("cancellation.cancel", "seats", "must be positive")
	}
	if in.BookingID <= 0 {
		return domain.InvalidArgument("cancellation.cancel", "booking_id", "must be positive")
	}
	return nil
}

// ReleaseEngine restores seats of a booking. Like the reservation side it runs
// on repositories bound to the caller's transaction, under the vehicle lock.
type ReleaseEngine interface {
	Cancel(ctx context.Context, repos repository.Repositories, vehicle *domain.Vehicle, input CancelInput) (*domain.Cancellation, *domain.CapacityRecord, error)
}

type Engine struct{}

func NewEngine() *Engine {
	return &Engine{}
}

func (e *Engine) Cancel(ctx context.Context, repos repository.Repositories, vehicle *domain.Vehicle, input CancelInput) (*domain.Cancellation, *domain.CapacityRecord, error) {
	if err := input.Validate(); err != nil {
		return nil, nil, err
	}

	// Re-read inside the transaction so seats canceled by an earlier commit are counted.
	booking, err := repos.Bookings.GetForUpdate(ctx, input.BookingID)
	if err != nil {
		return nil, nil, err
	}
	if booking.VehicleID != vehicle.ID {
		return nil, nil, domain.InvalidArgument("cancellation.cancel", "booking_id",
			fmt.Sprintf("booking %d belongs to vehicle %d, not %d", booking.ID, booking.VehicleID, vehicle.ID))
	}
	if input.Seats > booking.SeatsOutstanding() {
		return nil, nil, domain.NewError(domain.KindOverCancellation, "cancellation.cancel",
			fmt.Sprintf("booking %d has %d of %d seats outstanding, %d requested",
				booking.ID, booking.SeatsOutstanding(), booking.SeatsReserved, input.Seats))
	}

	l := ledger.New(repos.Capacity)
	if _, err := l.GetOrInit(ctx, vehicle); err != nil {
		return nil, nil, err
	}
	rec, err := l.ApplyDelta(ctx, vehicle.ID, input.Seats, 0, vehicle.Capacity)
	if err != nil {
		return nil, nil, err
	}

	c := &domain.Cancellation{
		BookingID:     booking.ID,
		VehicleID:     vehicle.ID,
		SeatsCanceled: input.Seats,
	}
	if err := repos.Cancellations.Create(ctx, c); err != nil {
		return nil, nil, err
	}
	return c, rec, nil
}

var _ ReleaseEngine = (*Engine)(nil)
