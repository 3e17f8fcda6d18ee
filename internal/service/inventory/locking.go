package inventory

import (
	"context"
	"errors"
	"time"

	"github.com/barals/TheBusBookingCompany/internal/domain"
	"go.uber.org/zap"
)

// withVehicleLock runs fn while holding the vehicle lock. The wait is bounded
// by lockWait and fn by lockHold, which stays below the lock TTL so a slow
// transaction rolls back before another instance can take the vehicle.
func (s *Service) withVehicleLock(ctx context.Context, op string, vehicleID int64, fn func(context.Context) error) error {
	start := time.Now()
	lockCtx, cancel := context.WithTimeout(ctx, s.lockWait)
	unlock, err := s.locker.Lock(lockCtx, vehicleID)
	cancel()
	s.metrics.ObserveLockWait(op, time.Since(start))
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return ctxErr
		}
		return domain.ContentionTimeout("inventory."+op, vehicleID, s.lockWait, err)
	}
	defer unlock()

	if s.lockHold <= 0 {
		return fn(ctx)
	}
	holdCtx, cancelHold := context.WithTimeout(ctx, s.lockHold)
	defer cancelHold()
	err = fn(holdCtx)
	if err != nil && ctx.Err() == nil && errors.Is(holdCtx.Err(), context.DeadlineExceeded) {
		return domain.LockHoldExpired("inventory."+op, vehicleID, s.lockHold, err)
	}
	return err
}

// committed publishes a just committed ledger value to the cache and metrics.
// It runs before the lock is released so a slower writer cannot overwrite a
// newer value with an older one.
func (s *Service) committed(ctx context.Context, rec *domain.CapacityRecord) {
	if rec == nil {
		return
	}
	s.metrics.SetAvailable(rec.VehicleID, rec.AvailableSeats)
	if s.cache == nil {
		return
	}
	if err := s.cache.SetAvailability(ctx, rec.VehicleID, rec.AvailableSeats); err != nil {
		s.logger.Warn("failed to cache availability", zap.Int64("vehicle_id", rec.VehicleID), zap.Error(err))
		if err := s.cache.InvalidateAvailability(context.WithoutCancel(ctx), rec.VehicleID); err != nil {
			s.logger.Error("stale availability left in cache", zap.Int64("vehicle_id", rec.VehicleID), zap.Error(err))
		}
	}
}
