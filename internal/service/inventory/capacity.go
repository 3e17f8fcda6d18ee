package inventory

import (
	"context"
	"fmt"

	"github.com/barals/TheBusBookingCompany/internal/domain"
	"github.com/barals/TheBusBookingCompany/internal/kafka"
	"github.com/barals/TheBusBookingCompany/internal/repository"
	"github.com/barals/TheBusBookingCompany/internal/service/ledger"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"
)

// GetCapacity returns the ledger row; NOT_FOUND until the vehicle is first booked or initialized.
func (s *Service) GetCapacity(ctx context.Context, vehicleID int64) (*domain.CapacityRecord, error) {
	if _, err := s.vehicles.GetByID(ctx, vehicleID); err != nil {
		return nil, s.normalize("get_capacity", err)
	}
	rec, err := ledger.New(s.store.Repositories().Capacity).Read(ctx, vehicleID)
	return rec, s.normalize("get_capacity", err)
}

// InitCapacity creates the ledger row at full capacity; an existing row is returned unchanged.
func (s *Service) InitCapacity(ctx context.Context, vehicleID int64) (rec *domain.CapacityRecord, err error) {
	ctx, span := s.tracer.Start(ctx, "inventory.InitCapacity", trace.WithAttributes(attribute.Int64("vehicle.id", vehicleID)))
	defer func() { s.finish(span, "init_capacity", err) }()

	vehicle, err := s.vehicles.GetByID(ctx, vehicleID)
	if err != nil {
		return nil, s.normalize("init_capacity", err)
	}

	err = s.withVehicleLock(ctx, "init_capacity", vehicle.ID, func(ctx context.Context) error {
		err := s.store.WithinTx(ctx, func(ctx context.Context, repos repository.Repositories) error {
			var err error
			rec, err = ledger.New(repos.Capacity).GetOrInit(ctx, vehicle)
			return err
		})
		if err != nil {
			return err
		}
		s.committed(ctx, rec)
		return nil
	})
	if err != nil {
		return nil, s.normalize("init_capacity", err)
	}
	return rec, nil
}

// AdjustCapacity is an operator override that sets the available seats directly.
func (s *Service) AdjustCapacity(ctx context.Context, vehicleID int64, availableSeats int) (rec *domain.CapacityRecord, err error) {
	ctx, span := s.tracer.Start(ctx, "inventory.AdjustCapacity", trace.WithAttributes(
		attribute.Int64("vehicle.id", vehicleID),
		attribute.Int("available_seats", availableSeats),
	))
	defer func() { s.finish(span, "adjust_capacity", err) }()

	vehicle, err := s.vehicles.GetByID(ctx, vehicleID)
	if err != nil {
		return nil, s.normalize("adjust_capacity", err)
	}
	if availableSeats < 0 || availableSeats > vehicle.Capacity {
		return nil, domain.InvalidArgument("inventory.adjust_capacity", "available_seats",
			fmt.Sprintf("must be within [0, %d]", vehicle.Capacity))
	}

	err = s.withVehicleLock(ctx, "adjust_capacity", vehicle.ID, func(ctx context.Context) error {
		err := s.store.WithinTx(ctx, func(ctx context.Context, repos repository.Repositories) error {
			l := ledger.New(repos.Capacity)
			current, err := l.GetOrInit(ctx, vehicle)
			if err != nil {
				return err
			}
			rec, err = l.ApplyDelta(ctx, vehicle.ID, availableSeats-current.AvailableSeats, 0, vehicle.Capacity)
			return err
		})
		if err != nil {
			return err
		}
		s.committed(ctx, rec)
		return nil
	})
	if err != nil {
		return nil, s.normalize("adjust_capacity", err)
	}

	s.logger.Info("capacity adjusted", zap.Int64("vehicle_id", vehicle.ID), zap.Int("available_seats", rec.AvailableSeats))
	s.publish(ctx, kafka.NewAdjustedEvent(rec))
	return rec, nil
}

// AuditLedger compares every ledger row with the bookings and cancellations of
// its vehicle. Each vehicle is checked under its lock so in-flight operations
// are never half counted. Vehicles that are busy past the lock wait are skipped.
func (s *Service) AuditLedger(ctx context.Context) (findings []AuditFinding, err error) {
	ctx, span := s.tracer.Start(ctx, "inventory.AuditLedger")
	defer func() { s.finish(span, "audit_ledger", err) }()

	records, err := s.store.Repositories().Capacity.List(ctx)
	if err != nil {
		return nil, s.normalize("audit_ledger", err)
	}

	findings = make([]AuditFinding, 0)
	for _, r := range records {
		var finding *AuditFinding
		err := s.withVehicleLock(ctx, "audit_ledger", r.VehicleID, func(ctx context.Context) error {
			var err error
			finding, err = s.auditVehicle(ctx, r.VehicleID)
			return err
		})
		if err != nil {
			if domain.IsRetryable(err) {
				s.logger.Warn("audit skipped busy vehicle", zap.Int64("vehicle_id", r.VehicleID))
				continue
			}
			return nil, s.normalize("audit_ledger", err)
		}
		if finding == nil {
			continue
		}

		fields := []zap.Field{
			zap.Int64("vehicle_id", finding.VehicleID),
			zap.Int("capacity", finding.Capacity),
			zap.Int("available_seats", finding.AvailableSeats),
			zap.Int("expected", finding.Expected),
		}
		if finding.Violation {
			s.logger.Error("capacity invariant violated", fields...)
		} else {
			s.logger.Warn("ledger drift", fields...)
		}
		findings = append(findings, *finding)
	}

	span.SetAttributes(attribute.Int("audit.vehicles", len(records)), attribute.Int("audit.findings", len(findings)))
	return findings, nil
}

func (s *Service) auditVehicle(ctx context.Context, vehicleID int64) (*AuditFinding, error) {
	repos := s.store.Repositories()
	rec, err := repos.Capacity.Get(ctx, vehicleID)
	if err != nil {
		return nil, err
	}
	totals, err := repos.Bookings.SeatTotals(ctx, vehicleID)
	if err != nil {
		return nil, err
	}

	expected := rec.Capacity - (totals.Reserved - totals.Canceled)
	violation := rec.Validate() != nil
	if !violation && expected == rec.AvailableSeats {
		return nil, nil
	}
	return &AuditFinding{
		VehicleID:      vehicleID,
		Capacity:       rec.Capacity,
		AvailableSeats: rec.AvailableSeats,
		Expected:       expected,
		Violation:      violation,
	}, nil
}

// RefreshAvailability reloads the cached availability from the ledger. The
// worker calls it for every inventory event so other instances' caches converge.
func (s *Service) RefreshAvailability(ctx context.Context, vehicleID int64) error {
	if s.cache == nil {
		return nil
	}
	err := s.withVehicleLock(ctx, "refresh_availability", vehicleID, func(ctx context.Context) error {
		rec, err := s.store.Repositories().Capacity.Get(ctx, vehicleID)
		if err != nil {
			if domain.IsNotFound(err) {
				return nil
			}
			return err
		}
		s.committed(ctx, rec)
		return nil
	})
	return s.normalize("refresh_availability", err)
}
