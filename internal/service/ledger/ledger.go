package ledger

import (
	"context"
	"fmt"

	"github.com/barals/TheBusBookingCompany/internal/domain"
	"github.com/barals/TheBusBookingCompany/internal/repository"
)

// Ledger owns the per-vehicle available seat counter. All methods must run
// inside a transaction that holds the vehicle row via GetForUpdate.
type Ledger struct {
	capacity repository.CapacityRepository
}

func New(capacity repository.CapacityRepository) *Ledger {
	return &Ledger{capacity: capacity}
}

// GetOrInit returns the locked capacity record of the vehicle, creating it at
// full capacity on first use. Concurrent first uses create exactly one row.
func (l *Ledger) GetOrInit(ctx context.Context, vehicle *domain.Vehicle) (*domain.CapacityRecord, error) {
	if err := l.capacity.EnsureInitialized(ctx, vehicle.ID, vehicle.Capacity); err != nil {
		return nil, err
	}
	rec, err := l.capacity.GetForUpdate(ctx, vehicle.ID)
	if err != nil {
		return nil, err
	}
	if err := rec.Validate(); err != nil {
		return nil, err
	}
	return rec, nil
}

// Read returns the record without locking; NOT_FOUND when the vehicle was never touched.
func (l *Ledger) Read(ctx context.Context, vehicleID int64) (*domain.CapacityRecord, error) {
	return l.capacity.Get(ctx, vehicleID)
}

// ApplyDelta moves AvailableSeats by delta, see Clamp for the bounds rule.
func (l *Ledger) ApplyDelta(ctx context.Context, vehicleID int64, delta, lower, upper int) (*domain.CapacityRecord, error) {
	rec, err := l.capacity.GetForUpdate(ctx, vehicleID)
	if err != nil {
		return nil, err
	}
	next, err := Clamp(vehicleID, rec.AvailableSeats, delta, lower, upper)
	if err != nil {
		return nil, err
	}
	return l.capacity.Update(ctx, vehicleID, next)
}

// Clamp computes current+delta. A result above upper is clamped to upper;
// a result below lower is a capacity violation and nothing may be written.
func Clamp(vehicleID int64, current, delta, lower, upper int) (int, error) {
	next := current + delta
	if next < lower {
		return 0, domain.NewError(domain.KindCapacityViolation, "ledger.apply_delta",
			fmt.Sprintf("vehicle %d: %d%+d falls below %d", vehicleID, current, delta, lower))
	}
	if next > upper {
		next = upper
	}
	return next, nil
}
