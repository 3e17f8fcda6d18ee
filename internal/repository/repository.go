package repository

import (
	"context"

	"github.com/barals/TheBusBookingCompany/internal/domain"
)

type VehicleRepository interface {
	List(ctx context.Context) ([]domain.Vehicle, error)
	GetByID(ctx context.Context, id int64) (*domain.Vehicle, error)
	Create(ctx context.Context, vehicle *domain.Vehicle) error
}

type CapacityRepository interface {
	// EnsureInitialized inserts a row seeded at full capacity unless one already exists.
	EnsureInitialized(ctx context.Context, vehicleID int64, capacity int) error
	// GetForUpdate reads the row and holds it exclusively until the transaction ends.
	GetForUpdate(ctx context.Context, vehicleID int64) (*domain.CapacityRecord, error)
	Get(ctx context.Context, vehicleID int64) (*domain.CapacityRecord, error)
	Update(ctx context.Context, vehicleID int64, availableSeats int) (*domain.CapacityRecord, error)
	List(ctx context.Context) ([]domain.CapacityRecord, error)
}

// BookingFilter narrows List; zero fields match everything.
type BookingFilter struct {
	VehicleID  int64
	CustomerID int64
}

// SeatTotals sums every booking and cancellation ever recorded for a vehicle.
type SeatTotals struct {
	Reserved int
	Canceled int
}

type BookingRepository interface {
	Create(ctx context.Context, booking *domain.Booking) error
	GetByID(ctx context.Context, id int64) (*domain.Booking, error)
	GetForUpdate(ctx context.Context, id int64) (*domain.Booking, error)
	List(ctx context.Context, filter BookingFilter) ([]domain.Booking, error)
	SeatTotals(ctx context.Context, vehicleID int64) (SeatTotals, error)
}

type CancellationRepository interface {
	Create(ctx context.Context, cancellation *domain.Cancellation) error
	GetByID(ctx context.Context, id int64) (*domain.Cancellation, error)
	// List returns cancellations of one booking, or all of them when bookingID is 0.
	List(ctx context.Context, bookingID int64) ([]domain.Cancellation, error)
}

// Repositories is a set of repositories bound to the same connection or transaction.
type Repositories struct {
	Vehicles      VehicleRepository
	Capacity      CapacityRepository
	Bookings      BookingRepository
	Cancellations CancellationRepository
}

type TxFunc func(ctx context.Context, repos Repositories) error

// Store is the persistence collaborator. WithinTx commits only when fn returns nil
// and the context is still alive; otherwise nothing fn wrote becomes visible.
type Store interface {
	Repositories() Repositories
	WithinTx(ctx context.Context, fn TxFunc) error
	Close() error
}
