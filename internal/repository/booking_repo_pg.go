package repository

import (
	"context"

	"github.com/barals/TheBusBookingCompany/internal/domain"
	"github.com/jackc/pgx/v5"
	"github.com/pkg/errors"
)

const bookingSelect = `SELECT b.id, b.customer_id, b.vehicle_id, b.seats_reserved,
	COALESCE((SELECT SUM(c.seats_canceled) FROM cancellations c WHERE c.booking_id = b.id), 0),
	b.origin_station_id, b.destination_station_id, b.created_at
	FROM bookings b`

type PGBookingRepository struct {
	db DBTX
}

func NewBookingRepository(db DBTX) BookingRepository {
	return &PGBookingRepository{db: db}
}

func (r *PGBookingRepository) Create(ctx context.Context, booking *domain.Booking) error {
	err := r.db.QueryRow(ctx, `INSERT INTO bookings (customer_id, vehicle_id, seats_reserved, origin_station_id, destination_station_id)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING id, created_at`,
		booking.CustomerID, booking.VehicleID, booking.SeatsReserved, booking.OriginStationID, booking.DestinationStationID).
		Scan(&booking.ID, &booking.CreatedAt)
	return errors.Wrap(err, "insert booking")
}

func (r *PGBookingRepository) GetByID(ctx context.Context, id int64) (*domain.Booking, error) {
	return r.get(ctx, bookingSelect+` WHERE b.id=$1`, id)
}

// GetForUpdate locks the booking row first and sums its cancellations in a
// second statement. Under READ COMMITTED that statement takes a fresh snapshot,
// so a waiter sees cancellations committed by the previous lock holder.
func (r *PGBookingRepository) GetForUpdate(ctx context.Context, id int64) (*domain.Booking, error) {
	var locked int64
	err := r.db.QueryRow(ctx, `SELECT id FROM bookings WHERE id=$1 FOR UPDATE`, id).Scan(&locked)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.NotFound("bookings.get", "booking", id)
		}
		return nil, errors.Wrapf(err, "lock booking %d", id)
	}
	return r.GetByID(ctx, id)
}

func (r *PGBookingRepository) get(ctx context.Context, query string, id int64) (*domain.Booking, error) {
	b, err := scanBooking(r.db.QueryRow(ctx, query, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.NotFound("bookings.get", "booking", id)
		}
		return nil, errors.Wrapf(err, "get booking %d", id)
	}
	return b, nil
}

func (r *PGBookingRepository) List(ctx context.Context, filter BookingFilter) ([]domain.Booking, error) {
	rows, err := r.db.Query(ctx, bookingSelect+`
		WHERE ($1::bigint = 0 OR b.vehicle_id = $1) AND ($2::bigint = 0 OR b.customer_id = $2)
		ORDER BY b.id`, filter.VehicleID, filter.CustomerID)
	if err != nil {
		return nil, errors.Wrap(err, "list bookings")
	}
	defer rows.Close()

	bookings := make([]domain.Booking, 0)
	for rows.Next() {
		b, err := scanBooking(rows)
		if err != nil {
			return nil, errors.Wrap(err, "scan booking")
		}
		bookings = append(bookings, *b)
	}
	return bookings, errors.Wrap(rows.Err(), "list bookings")
}

func (r *PGBookingRepository) SeatTotals(ctx context.Context, vehicleID int64) (SeatTotals, error) {
	var totals SeatTotals
	err := r.db.QueryRow(ctx, `SELECT
		COALESCE((SELECT SUM(seats_reserved) FROM bookings WHERE vehicle_id=$1), 0),
		COALESCE((SELECT SUM(seats_canceled) FROM cancellations WHERE vehicle_id=$1), 0)`, vehicleID).
		Scan(&totals.Reserved, &totals.Canceled)
	return totals, errors.Wrapf(err, "seat totals of vehicle %d", vehicleID)
}

func scanBooking(row pgx.Row) (*domain.Booking, error) {
	var b domain.Booking
	if err := row.Scan(&b.ID, &b.CustomerID, &b.VehicleID, &b.SeatsReserved, &b.SeatsCanceled,
		&b.OriginStationID, &b.DestinationStationID, &b.CreatedAt); err != nil {
		return nil, err
	}
	return &b, nil
}

var _ BookingRepository = (*PGBookingRepository)(nil)
