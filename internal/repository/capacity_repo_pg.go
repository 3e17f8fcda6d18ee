package repository

import (
	"context"
	"fmt"

	"github.com/barals/TheBusBookingCompany/internal/domain"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/pkg/errors"
)

const capacityColumns = `vehicle_id, capacity, available_seats, created_at, updated_at`

// pgCheckViolation is SQLSTATE check_violation, raised by the available_seats bounds constraint.
const pgCheckViolation = "23514"

type PGCapacityRepository struct {
	db DBTX
}

func NewCapacityRepository(db DBTX) CapacityRepository {
	return &PGCapacityRepository{db: db}
}

func (r *PGCapacityRepository) EnsureInitialized(ctx context.Context, vehicleID int64, capacity int) error {
	_, err := r.db.Exec(ctx, `INSERT INTO vehicle_capacity (vehicle_id, capacity, available_seats) VALUES ($1, $2, $2) ON CONFLICT (vehicle_id) DO NOTHING`,
		vehicleID, capacity)
	return errors.Wrapf(err, "init capacity of vehicle %d", vehicleID)
}

func (r *PGCapacityRepository) GetForUpdate(ctx context.Context, vehicleID int64) (*domain.CapacityRecord, error) {
	return r.get(ctx, `SELECT `+capacityColumns+` FROM vehicle_capacity WHERE vehicle_id=$1 FOR UPDATE`, vehicleID)
}

func (r *PGCapacityRepository) Get(ctx context.Context, vehicleID int64) (*domain.CapacityRecord, error) {
	return r.get(ctx, `SELECT `+capacityColumns+` FROM vehicle_capacity WHERE vehicle_id=$1`, vehicleID)
}

func (r *PGCapacityRepository) get(ctx context.Context, query string, vehicleID int64) (*domain.CapacityRecord, error) {
	rec, err := scanCapacity(r.db.QueryRow(ctx, query, vehicleID))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.NotFound("capacity.get", "capacity record of vehicle", vehicleID)
		}
		return nil, errors.Wrapf(err, "get capacity of vehicle %d", vehicleID)
	}
	return rec, nil
}

func (r *PGCapacityRepository) Update(ctx context.Context, vehicleID int64, availableSeats int) (*domain.CapacityRecord, error) {
	row := r.db.QueryRow(ctx, `UPDATE vehicle_capacity SET available_seats=$2, updated_at=now() WHERE vehicle_id=$1 RETURNING `+capacityColumns,
		vehicleID, availableSeats)
	rec, err := scanCapacity(row)
	if err != nil {
		var pgErr *pgconn.PgError
		switch {
		case errors.Is(err, pgx.ErrNoRows):
			return nil, domain.NotFound("capacity.update", "capacity record of vehicle", vehicleID)
		case errors.As(err, &pgErr) && pgErr.Code == pgCheckViolation:
			return nil, &domain.Error{
				Kind: domain.KindCapacityViolation,
				Op:   "capacity.update",
				Msg:  fmt.Sprintf("vehicle %d rejected available seats %d", vehicleID, availableSeats),
				Err:  err,
			}
		}
		return nil, errors.Wrapf(err, "update capacity of vehicle %d", vehicleID)
	}
	return rec, nil
}

func (r *PGCapacityRepository) List(ctx context.Context) ([]domain.CapacityRecord, error) {
	rows, err := r.db.Query(ctx, `SELECT `+capacityColumns+` FROM vehicle_capacity ORDER BY vehicle_id`)
	if err != nil {
		return nil, errors.Wrap(err, "list capacity")
	}
	defer rows.Close()

	records := make([]domain.CapacityRecord, 0)
	for rows.Next() {
		rec, err := scanCapacity(rows)
		if err != nil {
			return nil, errors.Wrap(err, "scan capacity")
		}
		records = append(records, *rec)
	}
	return records, errors.Wrap(rows.Err(), "list capacity")
}

func scanCapacity(row pgx.Row) (*domain.CapacityRecord, error) {
	var rec domain.CapacityRecord
	if err := row.Scan(&rec.VehicleID, &rec.Capacity, &rec.AvailableSeats, &rec.CreatedAt, &rec.UpdatedAt); err != nil {
		return nil, err
	}
	return &rec, nil
}

var _ CapacityRepository = (*PGCapacityRepository)(nil)
