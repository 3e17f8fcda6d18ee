package cancellation

import (
	"context"
	"testing"

	"github.com/barals/TheBusBookingCompany/internal/domain"
	"github.com/barals/TheBusBookingCompany/internal/repository"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var bus = domain.Vehicle{Number: "BUS-1", RouteNumber: "12", Capacity: 40}

// setup seeds a vehicle with one booking and runs the engine against the in-memory store.
func setup(t *testing.T, reserved, available int) (*repository.MemoryStore, *domain.Vehicle, *domain.Booking) {
	t.Helper()
	ctx := context.Background()
	store := repository.NewMemoryStore()
	repos := store.Repositories()

	v := bus
	require.NoError(t, repos.Vehicles.Create(ctx, &v))
	require.NoError(t, repos.Capacity.EnsureInitialized(ctx, v.ID, v.Capacity))
	_, err := repos.Capacity.Update(ctx, v.ID, available)
	require.NoError(t, err)

	b := &domain.Booking{CustomerID: 1, VehicleID: v.ID, SeatsReserved: reserved}
	require.NoError(t, repos.Bookings.Create(ctx, b))
	return store, &v, b
}

func cancel(store *repository.MemoryStore, v *domain.Vehicle, in CancelInput) (*domain.Cancellation, *domain.CapacityRecord, error) {
	var (
		c   *domain.Cancellation
		rec *domain.CapacityRecord
	)
	err := store.WithinTx(context.Background(), func(ctx context.Context, repos repository.Repositories) error {
		var err error
		c, rec, err = NewEngine().Cancel(ctx, repos, v, in)
		return err
	})
	return c, rec, err
}

func TestEngine_Cancel_Success(t *testing.T) {
	store, v, b := setup(t, 10, 30)

	c, rec, err := cancel(store, v, CancelInput{BookingID: b.ID, Seats: 4})

	require.NoError(t, err)
	assert.Equal(t, b.ID, c.BookingID)
	assert.Equal(t, 4, c.SeatsCanceled)
	assert.Equal(t, 34, rec.AvailableSeats)
}

func TestEngine_Cancel_CumulativeCap(t *testing.T) {
	store, v, b := setup(t, 10, 30)

	_, _, err := cancel(store, v, CancelInput{BookingID: b.ID, Seats: 4})
	require.NoError(t, err)

	_, _, err = cancel(store, v, CancelInput{BookingID: b.ID, Seats: 7})
	assert.ErrorIs(t, err, domain.ErrOverCancellation)

	rec, err := store.Repositories().Capacity.Get(context.Background(), v.ID)
	require.NoError(t, err)
	assert.Equal(t, 34, rec.AvailableSeats)

	_, rec, err = cancel(store, v, CancelInput{BookingID: b.ID, Seats: 6})
	require.NoError(t, err)
	assert.Equal(t, 40, rec.AvailableSeats)
}

func TestEngine_Cancel_RestorationClamped(t *testing.T) {
	store, v, b := setup(t, 10, 38)

	_, rec, err := cancel(store, v, CancelInput{BookingID: b.ID, Seats: 10})

	require.NoError(t, err)
	assert.Equal(t, 40, rec.AvailableSeats)
}

func TestEngine_Cancel_UnknownBooking(t *testing.T) {
	store, v, _ := setup(t, 10, 30)

	_, _, err := cancel(store, v, CancelInput{BookingID: 999, Seats: 1})

	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestEngine_Cancel_WrongVehicle(t *testing.T) {
	store, _, b := setup(t, 10, 30)
	other := &domain.Vehicle{ID: 777, Capacity: 20}

	_, _, err := cancel(store, other, CancelInput{BookingID: b.ID, Seats: 1})

	assert.ErrorIs(t, err, domain.ErrInvalidArgument)
}

func TestEngine_Cancel_InvalidSeats(t *testing.T) {
	store, v, b := setup(t, 10, 30)

	for _, seats := range []int{0, -3} {
		_, _, err := cancel(store, v, CancelInput{BookingID: b.ID, Seats: seats})
		assert.ErrorIs(t, err, domain.ErrInvalidArgument)
	}

	list, err := store.Repositories().Cancellations.List(context.Background(), b.ID)
	require.NoError(t, err)
	assert.Empty(t, list)
}
