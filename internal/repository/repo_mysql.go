package repository

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/barals/TheBusBookingCompany/internal/domain"
	"github.com/go-sql-driver/mysql"
	"github.com/pkg/errors"
)

// mysqlCheckViolation is ER_CHECK_CONSTRAINT_VIOLATED.
const mysqlCheckViolation = 3819

// rowScanner is satisfied by *sql.Row and *sql.Rows.
type rowScanner interface {
	Scan(dest ...any) error
}

type MySQLVehicleRepository struct {
	db sqlExecutor
}

func (r *MySQLVehicleRepository) List(ctx context.Context) ([]domain.Vehicle, error) {
	rows, err := r.db.QueryContext(ctx, `SELECT id, number, route_number, capacity, created_at, updated_at FROM vehicles ORDER BY id`)
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

func (r *MySQLVehicleRepository) GetByID(ctx context.Context, id int64) (*domain.Vehicle, error) {
	var v domain.Vehicle
	err := r.db.QueryRowContext(ctx, `SELECT id, number, route_number, capacity, created_at, updated_at FROM vehicles WHERE id=?`, id).
		Scan(&v.ID, &v.Number, &v.RouteNumber, &v.Capacity, &v.CreatedAt, &v.UpdatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.NotFound("vehicles.get", "vehicle", id)
		}
		return nil, errors.Wrapf(err, "get vehicle %d", id)
	}
	return &v, nil
}

func (r *MySQLVehicleRepository) Create(ctx context.Context, vehicle *domain.Vehicle) error {
	now := time.Now().UTC()
	res, err := r.db.ExecContext(ctx, `INSERT INTO vehicles (number, route_number, capacity, created_at, updated_at) VALUES (?, ?, ?, ?, ?)`,
		vehicle.Number, vehicle.RouteNumber, vehicle.Capacity, now, now)
	if err != nil {
		return errors.Wrap(err, "insert vehicle")
	}
	id, err := res.LastInsertId()
	if err != nil {
		return errors.Wrap(err, "insert vehicle")
	}
	vehicle.ID, vehicle.CreatedAt, vehicle.UpdatedAt = id, now, now
	return nil
}

type MySQLCapacityRepository struct {
	db sqlExecutor
}

func (r *MySQLCapacityRepository) EnsureInitialized(ctx context.Context, vehicleID int64, capacity int) error {
	now := time.Now().UTC()
	_, err := r.db.ExecContext(ctx, `INSERT IGNORE INTO vehicle_capacity (vehicle_id, capacity, available_seats, created_at, updated_at) VALUES (?, ?, ?, ?, ?)`,
		vehicleID, capacity, capacity, now, now)
	return errors.Wrapf(err, "init capacity of vehicle %d", vehicleID)
}

func (r *MySQLCapacityRepository) GetForUpdate(ctx context.Context, vehicleID int64) (*domain.CapacityRecord, error) {
	return r.get(ctx, `SELECT `+capacityColumns+` FROM vehicle_capacity WHERE vehicle_id=? FOR UPDATE`, vehicleID)
}

func (r *MySQLCapacityRepository) Get(ctx context.Context, vehicleID int64) (*domain.CapacityRecord, error) {
	return r.get(ctx, `SELECT `+capacityColumns+` FROM vehicle_capacity WHERE vehicle_id=?`, vehicleID)
}

func (r *MySQLCapacityRepository) get(ctx context.Context, query string, vehicleID int64) (*domain.CapacityRecord, error) {
	rec, err := scanMySQLCapacity(r.db.QueryRowContext(ctx, query, vehicleID))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.NotFound("capacity.get", "capacity record of vehicle", vehicleID)
		}
		return nil, errors.Wrapf(err, "get capacity of vehicle %d", vehicleID)
	}
	return rec, nil
}

func (r *MySQLCapacityRepository) Update(ctx context.Context, vehicleID int64, availableSeats int) (*domain.CapacityRecord, error) {
	_, err := r.db.ExecContext(ctx, `UPDATE vehicle_capacity SET available_seats=?, updated_at=? WHERE vehicle_id=?`,
		availableSeats, time.Now().UTC(), vehicleID)
	if err != nil {
		var myErr *mysql.MySQLError
		if errors.As(err, &myErr) && myErr.Number == mysqlCheckViolation {
			return nil, &domain.Error{
				Kind: domain.KindCapacityViolation,
				Op:   "capacity.update",
				Msg:  fmt.Sprintf("vehicle %d rejected available seats %d", vehicleID, availableSeats),
				Err:  err,
			}
		}
		return nil, errors.Wrapf(err, "update capacity of vehicle %d", vehicleID)
	}
	// RowsAffected is 0 for an unchanged value, so existence is checked by reading back.
	return r.get(ctx, `SELECT `+capacityColumns+` FROM vehicle_capacity WHERE vehicle_id=?`, vehicleID)
}

func (r *MySQLCapacityRepository) List(ctx context.Context) ([]domain.CapacityRecord, error) {
	rows, err := r.db.QueryContext(ctx, `SELECT `+capacityColumns+` FROM vehicle_capacity ORDER BY vehicle_id`)
	if err != nil {
		return nil, errors.Wrap(err, "list capacity")
	}
	defer rows.Close()

	records := make([]domain.CapacityRecord, 0)
	for rows.Next() {
		rec, err := scanMySQLCapacity(rows)
		if err != nil {
			return nil, errors.Wrap(err, "scan capacity")
		}
		records = append(records, *rec)
	}
	return records, errors.Wrap(rows.Err(), "list capacity")
}

func scanMySQLCapacity(row rowScanner) (*domain.CapacityRecord, error) {
	var rec domain.CapacityRecord
	if err := row.Scan(&rec.VehicleID, &rec.Capacity, &rec.AvailableSeats, &rec.CreatedAt, &rec.UpdatedAt); err != nil {
		return nil, err
	}
	return &rec, nil
}

type MySQLBookingRepository struct {
	db sqlExecutor
}

func (r *MySQLBookingRepository) Create(ctx context.Context, booking *domain.Booking) error {
	now := time.Now().UTC()
	res, err := r.db.ExecContext(ctx, `INSERT INTO bookings (customer_id, vehicle_id, seats_reserved, origin_station_id, destination_station_id, created_at)
		VALUES (?, ?, ?, ?, ?, ?)`,
		booking.CustomerID, booking.VehicleID, booking.SeatsReserved, booking.OriginStationID, booking.DestinationStationID, now)
	if err != nil {
		return errors.Wrap(err, "insert booking")
	}
	id, err := res.LastInsertId()
	if err != nil {
		return errors.Wrap(err, "insert booking")
	}
	booking.ID, booking.CreatedAt = id, now
	return nil
}

func (r *MySQLBookingRepository) GetByID(ctx context.Context, id int64) (*domain.Booking, error) {
	return r.get(ctx, bookingSelect+` WHERE b.id=?`, id)
}

// GetForUpdate locks the row before summing cancellations so the sum is read
// after the previous holder committed.
func (r *MySQLBookingRepository) GetForUpdate(ctx context.Context, id int64) (*domain.Booking, error) {
	var locked int64
	err := r.db.QueryRowContext(ctx, `SELECT id FROM bookings WHERE id=? FOR UPDATE`, id).Scan(&locked)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.NotFound("bookings.get", "booking", id)
		}
		return nil, errors.Wrapf(err, "lock booking %d", id)
	}
	return r.GetByID(ctx, id)
}

func (r *MySQLBookingRepository) get(ctx context.Context, query string, id int64) (*domain.Booking, error) {
	b, err := scanMySQLBooking(r.db.QueryRowContext(ctx, query, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.NotFound("bookings.get", "booking", id)
		}
		return nil, errors.Wrapf(err, "get booking %d", id)
	}
	return b, nil
}

func (r *MySQLBookingRepository) List(ctx context.Context, filter BookingFilter) ([]domain.Booking, error) {
	rows, err := r.db.QueryContext(ctx, bookingSelect+`
		WHERE (? = 0 OR b.vehicle_id = ?) AND (? = 0 OR b.customer_id = ?)
		ORDER BY b.id`, filter.VehicleID, filter.VehicleID, filter.CustomerID, filter.CustomerID)
	if err != nil {
		return nil, errors.Wrap(err, "list bookings")
	}
	defer rows.Close()

	bookings := make([]domain.Booking, 0)
	for rows.Next() {
		b, err := scanMySQLBooking(rows)
		if err != nil {
			return nil, errors.Wrap(err, "scan booking")
		}
		bookings = append(bookings, *b)
	}
	return bookings, errors.Wrap(rows.Err(), "list bookings")
}

func (r *MySQLBookingRepository) SeatTotals(ctx context.Context, vehicleID int64) (SeatTotals, error) {
	var totals SeatTotals
	err := r.db.QueryRowContext(ctx, `SELECT
		COALESCE((SELECT SUM(seats_reserved) FROM bookings WHERE vehicle_id=?), 0),
		COALESCE((SELECT SUM(seats_canceled) FROM cancellations WHERE vehicle_id=?), 0)`, vehicleID, vehicleID).
		Scan(&totals.Reserved, &totals.Canceled)
	return totals, errors.Wrapf(err, "seat totals of vehicle %d", vehicleID)
}

func scanMySQLBooking(row rowScanner) (*domain.Booking, error) {
	var b domain.Booking
	if err := row.Scan(&b.ID, &b.CustomerID, &b.VehicleID, &b.SeatsReserved, &b.SeatsCanceled,
		&b.OriginStationID, &b.DestinationStationID, &b.CreatedAt); err != nil {
		return nil, err
	}
	return &b, nil
}

type MySQLCancellationRepository struct {
	db sqlExecutor
}

func (r *MySQLCancellationRepository) Create(ctx context.Context, c *domain.Cancellation) error {
	now := time.Now().UTC()
	res, err := r.db.ExecContext(ctx, `INSERT INTO cancellations (booking_id, vehicle_id, seats_canceled, created_at) VALUES (?, ?, ?, ?)`,
		c.BookingID, c.VehicleID, c.SeatsCanceled, now)
	if err != nil {
		return errors.Wrap(err, "insert cancellation")
	}
	id, err := res.LastInsertId()
	if err != nil {
		return errors.Wrap(err, "insert cancellation")
	}
	c.ID, c.CreatedAt = id, now
	return nil
}

func (r *MySQLCancellationRepository) GetByID(ctx context.Context, id int64) (*domain.Cancellation, error) {
	var c domain.Cancellation
	err := r.db.QueryRowContext(ctx, `SELECT `+cancellationColumns+` FROM cancellations WHERE id=?`, id).
		Scan(&c.ID, &c.BookingID, &c.VehicleID, &c.SeatsCanceled, &c.CreatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.NotFound("cancellations.get", "cancellation", id)
		}
		return nil, errors.Wrapf(err, "get cancellation %d", id)
	}
	return &c, nil
}

func (r *MySQLCancellationRepository) List(ctx context.Context, bookingID int64) ([]domain.Cancellation, error) {
	rows, err := r.db.QueryContext(ctx, `SELECT `+cancellationColumns+` FROM cancellations WHERE (? = 0 OR booking_id = ?) ORDER BY id`, bookingID, bookingID)
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

var (
	_ VehicleRepository      = (*MySQLVehicleRepository)(nil)
	_ CapacityRepository     = (*MySQLCapacityRepository)(nil)
	_ BookingRepository      = (*MySQLBookingRepository)(nil)
	_ CancellationRepository = (*MySQLCancellationRepository)(nil)
)
