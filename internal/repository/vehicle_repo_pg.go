package repository

import (
	"context"

	"github.com/barals/TheBusBookingCompany/internal/domain"
	"github.com/jackc/pgx/v5"
	"github.com/pkg/errors"
)

type PGVehicleRepository struct {
	db DBTX
}

func NewVehicleRepository(db DBTX) VehicleRepository {
	return &PGVehicleRepository{db: db}
}

func (r *PGVehicleRepository) List(ctx context.Context) ([]domain.Vehicle, error) {
	rows, err := r.db.Query(ctx, `SELECT id, number, route_number, capacity, created_at, updated_at FROM vehicles ORDER BY id`)
	if err != nil {
		return nil, errors.Wrap(err, "list vehicles")
	}
	defer rows.Close()

	vehicles := make([]domain.Vehicle, 0)
	for rows.Next() {
		var v domain.Vehicle
		if err := rows.Scan(&v.ID, &v.Number, &v.RouteNumber, &v.Capacity, &v.CreatedAt, &v.UpdatedAt); err != nil {
			return nil, errors.Wrap(err, "scan vehicle")
		}
		vehicles = append(vehicles, v)
	}
	return vehicles, errors.Wrap(rows.Err(), "list vehicles")
}

func (r *PGVehicleRepository) GetByID(ctx context.Context, id int64) (*domain.Vehicle, error) {
	row := r.db.QueryRow(ctx, `SELECT id, number, route_number, capacity, created_at, updated_at FROM vehicles WHERE id=$1`, id)
	var v domain.Vehicle
	if err := row.Scan(&v.ID, &v.Number, &v.RouteNumber, &v.Capacity, &v.CreatedAt, &v.UpdatedAt); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.NotFound("vehicles.get", "vehicle", id)
		}
		return nil, errors.Wrapf(err, "get vehicle %d", id)
	}
	return &v, nil
}

func (r *PGVehicleRepository) Create(ctx context.Context, vehicle *domain.Vehicle) error {
	err := r.db.QueryRow(ctx, `INSERT INTO vehicles (number, route_number, capacity) VALUES ($1, $2, $3) RETURNING id, created_at, updated_at`,
		vehicle.Number, vehicle.RouteNumber, vehicle.Capacity).
		Scan(&vehicle.ID, &vehicle.CreatedAt, &vehicle.UpdatedAt)
	return errors.Wrap(err, "insert vehicle")
}

var _ VehicleRepository = (*PGVehicleRepository)(nil)
