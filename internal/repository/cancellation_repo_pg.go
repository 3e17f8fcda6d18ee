package repository

import (
	"context"

	"github.com/barals/TheBusBookingCompany/internal/domain"
	"github.com/jackc/pgx/v5"
	"github.com/pkg/errors"
)

const cancellationColumns = `id, booking_id, vehicle_id, seats_canceled, created_at`

type PGCancellationRepository struct {
	db DBTX
}

func NewCancellationRepository(db DBTX) CancellationRepository {
	return &PGCancellationRepository{db: db}
}

func (r *PGCancellationRepository) Create(ctx context.Context, c *domain.Cancellation) error {
	err := r.db.QueryRow(ctx, `INSERT INTO cancellations (booking_id, vehicle_id, seats_canceled) VALUES ($1, $2, $3) RETURNING id, created_at`,
		c.BookingID, c.VehicleID, c.SeatsCanceled).
		Scan(&c.ID, &c.CreatedAt)
	return errors.Wrap(err, "insert cancellation")
}

func (r *PGCancellationRepository) GetByID(ctx context.Context, id int64) (*domain.Cancellation, error) {
	var c domain.Cancellation
	err := r.db.QueryRow(ctx, `SELECT `+cancellationColumns+` FROM cancellations WHERE id=$1`, id).
		Scan(&c.ID, &c.BookingID, &c.VehicleID, &c.SeatsCanceled, &c.CreatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.NotFound("cancellations.get", "cancellation", id)
		}
		return nil, errors.Wrapf(err, "get cancellation %d", id)
	}
	return &c, nil
}

func (r *PGCancellationRepository) List(ctx context.Context, bookingID int64) ([]domain.Cancellation, error) {
	rows, err := r.db.Query(ctx, `SELECT `+cancellationColumns+` FROM cancellations WHERE ($1::bigint = 0 OR booking_id = $1) ORDER BY id`, bookingID)
	if err != nil {
		return nil, errors.Wrap(err, "list cancellations")
	}
	defer rows.Close()

	out := make([]domain.Cancellation, 0)
	for rows.Next() {
		var c domain.Cancellation
		if err := rows.Scan(&c.ID, &c.BookingID, &c.VehicleID, &c.SeatsCanceled, &c.CreatedAt); err != nil {
			return nil, errors.Wrap(err, "scan cancellation")
		}
		out = append(out, c)
	}
	return out, errors.Wrap(rows.Err(), "list cancellations")
}

var _ CancellationRepository = (*PGCancellationRepository)(nil)
