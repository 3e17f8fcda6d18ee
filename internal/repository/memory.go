package repository

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/barals/TheBusBookingCompany/internal/domain"
	"github.com/pkg/errors"
)

type rowKey struct {
	table string
	id    int64
}

// rowLatch is dropped from the store once no transaction holds or waits on it.
type rowLatch struct {
	ch   chan struct{}
	refs int
}

// MemoryStore keeps everything in process memory. Transactions stage their writes
// and hold row locks taken by GetForUpdate until commit or rollback, which gives
// the same isolation the SQL stores get from SELECT ... FOR UPDATE.
type MemoryStore struct {
	mu            sync.Mutex
	vehicles      map[int64]domain.Vehicle
	capacity      map[int64]domain.CapacityRecord
	bookings      map[int64]domain.Booking
	cancellations map[int64]domain.Cancellation
	rowLocks      map[rowKey]*rowLatch
	lastID        map[string]int64
	now           func() time.Time
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		vehicles:      make(map[int64]domain.Vehicle),
		capacity:      make(map[int64]domain.CapacityRecord),
		bookings:      make(map[int64]domain.Booking),
		cancellations: make(map[int64]domain.Cancellation),
		rowLocks:      make(map[rowKey]*rowLatch),
		lastID:        make(map[string]int64),
		now:           func() time.Time { return time.Now().UTC() },
	}
}

func (s *MemoryStore) Repositories() Repositories {
	return (&memTx{store: s}).repositories()
}

func (s *MemoryStore) WithinTx(ctx context.Context, fn TxFunc) error {
	tx := &memTx{
		store:    s,
		held:     make(map[rowKey]*rowLatch),
		capacity: make(map[int64]domain.CapacityRecord),
	}
	defer tx.release()

	if err := fn(ctx, tx.repositories()); err != nil {
		return err
	}
	if err := ctx.Err(); err != nil {
		return errors.Wrap(err, "commit tx")
	}
	tx.commit()
	return nil
}

func (s *MemoryStore) Close() error { return nil }

// nextID must be called with mu held.
func (s *MemoryStore) nextID(table string) int64 {
	s.lastID[table]++
	return s.lastID[table]
}

func (s *MemoryStore) acquireLatch(key rowKey) *rowLatch {
	s.mu.Lock()
	defer s.mu.Unlock()
	l, ok := s.rowLocks[key]
	if !ok {
		l = &rowLatch{ch: make(chan struct{}, 1)}
		s.rowLocks[key] = l
	}
	l.refs++
	return l
}

func (s *MemoryStore) dropLatch(key rowKey, l *rowLatch) {
	s.mu.Lock()
	defer s.mu.Unlock()
	l.refs--
	if l.refs == 0 {
		delete(s.rowLocks, key)
	}
}

// seatsCanceled must be called with mu held.
func (s *MemoryStore) seatsCanceled(bookingID int64, staged []domain.Cancellation) int {
	total := 0
	for _, c := range s.cancellations {
		if c.BookingID == bookingID {
			total += c.SeatsCanceled
		}
	}
	for _, c := range staged {
		if c.BookingID == bookingID {
			total += c.SeatsCanceled
		}
	}
	return total
}

// memTx is a unit of work; a nil held map means autocommit.
type memTx struct {
	store         *MemoryStore
	held          map[rowKey]*rowLatch
	capacity      map[int64]domain.CapacityRecord
	bookings      []domain.Booking
	cancellations []domain.Cancellation
}

func (tx *memTx) autocommit() bool { return tx.held == nil }

func (tx *memTx) repositories() Repositories {
	return Repositories{
		Vehicles:      &memVehicleRepository{store: tx.store},
		Capacity:      &memCapacityRepository{tx: tx},
		Bookings:      &memBookingRepository{tx: tx},
		Cancellations: &memCancellationRepository{tx: tx},
	}
}

func (tx *memTx) lock(ctx context.Context, key rowKey) error {
	if tx.autocommit() {
		return nil
	}
	if _, ok := tx.held[key]; ok {
		return nil
	}
	l := tx.store.acquireLatch(key)
	select {
	case l.ch <- struct{}{}:
		tx.held[key] = l
		return nil
	case <-ctx.Done():
		tx.store.dropLatch(key, l)
		return errors.Wrapf(ctx.Err(), "lock %s row %d", key.table, key.id)
	}
}

func (tx *memTx) release() {
	for key, l := range tx.held {
		<-l.ch
		tx.store.dropLatch(key, l)
	}
	tx.held = nil
}

func (tx *memTx) commit() {
	s := tx.store
	s.mu.Lock()
	defer s.mu.Unlock()
	for id, rec := range tx.capacity {
		s.capacity[id] = rec
	}
	for _, b := range tx.bookings {
		s.bookings[b.ID] = b
	}
	for _, c := range tx.cancellations {
		s.cancellations[c.ID] = c
	}
}

// capacityRecord must be called with mu held.
func (tx *memTx) capacityRecord(vehicleID int64) (domain.CapacityRecord, bool) {
	if rec, ok := tx.capacity[vehicleID]; ok {
		return rec, true
	}
	rec, ok := tx.store.capacity[vehicleID]
	return rec, ok
}

// booking must be called with mu held.
func (tx *memTx) booking(id int64) (domain.Booking, bool) {
	b, ok := tx.store.bookings[id]
	if !ok {
		for _, staged := range tx.bookings {
			if staged.ID == id {
				b, ok = staged, true
				break
			}
		}
	}
	if ok {
		b.SeatsCanceled = tx.store.seatsCanceled(id, tx.cancellations)
	}
	return b, ok
}

type memVehicleRepository struct {
	store *MemoryStore
}

func (r *memVehicleRepository) List(ctx context.Context) ([]domain.Vehicle, error) {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	out := make([]domain.Vehicle, 0, len(r.store.vehicles))
	for _, v := range r.store.vehicles {
		out = append(out, v)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (r *memVehicleRepository) GetByID(ctx context.Context, id int64) (*domain.Vehicle, error) {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	v, ok := r.store.vehicles[id]
	if !ok {
		return nil, domain.NotFound("vehicles.get", "vehicle", id)
	}
	return &v, nil
}

func (r *memVehicleRepository) Create(ctx context.Context, vehicle *domain.Vehicle) error {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	for _, v := range r.store.vehicles {
		if v.Number == vehicle.Number {
			return errors.Errorf("insert vehicle: number %q already exists", vehicle.Number)
		}
	}
	vehicle.ID = r.store.nextID("vehicles")
	vehicle.CreatedAt = r.store.now()
	vehicle.UpdatedAt = vehicle.CreatedAt
	r.store.vehicles[vehicle.ID] = *vehicle
	return nil
}

type memCapacityRepository struct {
	tx *memTx
}

// EnsureInitialized writes straight to committed state, like an insert that
// another transaction can see as soon as the unique key is taken.
func (r *memCapacityRepository) EnsureInitialized(ctx context.Context, vehicleID int64, capacity int) error {
	s := r.tx.store
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.capacity[vehicleID]; ok {
		return nil
	}
	now := s.now()
	s.capacity[vehicleID] = domain.CapacityRecord{
		VehicleID:      vehicleID,
		Capacity:       capacity,
		AvailableSeats: capacity,
		CreatedAt:      now,
		UpdatedAt:      now,
	}
	return nil
}

func (r *memCapacityRepository) GetForUpdate(ctx context.Context, vehicleID int64) (*domain.CapacityRecord, error) {
	if err := r.tx.lock(ctx, rowKey{table: "vehicle_capacity", id: vehicleID}); err != nil {
		return nil, err
	}
	return r.Get(ctx, vehicleID)
}

func (r *memCapacityRepository) Get(ctx context.Context, vehicleID int64) (*domain.CapacityRecord, error) {
	r.tx.store.mu.Lock()
	defer r.tx.store.mu.Unlock()
	rec, ok := r.tx.capacityRecord(vehicleID)
	if !ok {
		return nil, domain.NotFound("capacity.get", "capacity record of vehicle", vehicleID)
	}
	return &rec, nil
}

func (r *memCapacityRepository) Update(ctx context.Context, vehicleID int64, availableSeats int) (*domain.CapacityRecord, error) {
	s := r.tx.store
	s.mu.Lock()
	defer s.mu.Unlock()
	rec, ok := r.tx.capacityRecord(vehicleID)
	if !ok {
		return nil, domain.NotFound("capacity.update", "capacity record of vehicle", vehicleID)
	}
	if availableSeats < 0 || availableSeats > rec.Capacity {
		return nil, domain.NewError(domain.KindCapacityViolation, "capacity.update",
			fmt.Sprintf("vehicle %d rejected available seats %d", vehicleID, availableSeats))
	}
	rec.AvailableSeats = availableSeats
	rec.UpdatedAt = s.now()
	if r.tx.autocommit() {
		s.capacity[vehicleID] = rec
	} else {
		r.tx.capacity[vehicleID] = rec
	}
	return &rec, nil
}

func (r *memCapacityRepository) List(ctx context.Context) ([]domain.CapacityRecord, error) {
	s := r.tx.store
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]domain.CapacityRecord, 0, len(s.capacity))
	for id := range s.capacity {
		rec, _ := r.tx.capacityRecord(id)
		out = append(out, rec)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].VehicleID < out[j].VehicleID })
	return out, nil
}

type memBookingRepository struct {
	tx *memTx
}

func (r *memBookingRepository) Create(ctx context.Context, booking *domain.Booking) error {
	s := r.tx.store
	s.mu.Lock()
	defer s.mu.Unlock()
	booking.ID = s.nextID("bookings")
	booking.CreatedAt = s.now()
	b := *booking
	b.SeatsCanceled = 0
	if r.tx.autocommit() {
		s.bookings[b.ID] = b
	} else {
		r.tx.bookings = append(r.tx.bookings, b)
	}
	return nil
}

func (r *memBookingRepository) GetByID(ctx context.Context, id int64) (*domain.Booking, error) {
	r.tx.store.mu.Lock()
	defer r.tx.store.mu.Unlock()
	b, ok := r.tx.booking(id)
	if !ok {
		return nil, domain.NotFound("bookings.get", "booking", id)
	}
	return &b, nil
}

func (r *memBookingRepository) GetForUpdate(ctx context.Context, id int64) (*domain.Booking, error) {
	if err := r.tx.lock(ctx, rowKey{table: "bookings", id: id}); err != nil {
		return nil, err
	}
	return r.GetByID(ctx, id)
}

func (r *memBookingRepository) List(ctx context.Context, filter BookingFilter) ([]domain.Booking, error) {
	s := r.tx.store
	s.mu.Lock()
	defer s.mu.Unlock()
	ids := make([]int64, 0, len(s.bookings)+len(r.tx.bookings))
	for id := range s.bookings {
		ids = append(ids, id)
	}
	for _, b := range r.tx.bookings {
		ids = append(ids, b.ID)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })

	out := make([]domain.Booking, 0, len(ids))
	for _, id := range ids {
		b, _ := r.tx.booking(id)
		if filter.VehicleID != 0 && b.VehicleID != filter.VehicleID {
			continue
		}
		if filter.CustomerID != 0 && b.CustomerID != filter.CustomerID {
			continue
		}
		out = append(out, b)
	}
	return out, nil
}

func (r *memBookingRepository) SeatTotals(ctx context.Context, vehicleID int64) (SeatTotals, error) {
	s := r.tx.store
	s.mu.Lock()
	defer s.mu.Unlock()
	var totals SeatTotals
	for _, b := range s.bookings {
		if b.VehicleID == vehicleID {
			totals.Reserved += b.SeatsReserved
		}
	}
	for _, b := range r.tx.bookings {
		if b.VehicleID == vehicleID {
			totals.Reserved += b.SeatsReserved
		}
	}
	for _, c := range s.cancellations {
		if c.VehicleID == vehicleID {
			totals.Canceled += c.SeatsCanceled
		}
	}
	for _, c := range r.tx.cancellations {
		if c.VehicleID == vehicleID {
			totals.Canceled += c.SeatsCanceled
		}
	}
	return totals, nil
}

type memCancellationRepository struct {
	tx *memTx
}

func (r *memCancellationRepository) Create(ctx context.Context, c *domain.Cancellation) error {
	s := r.tx.store
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := r.tx.booking(c.BookingID); !ok {
		return errors.Errorf("insert cancellation: booking %d does not exist", c.BookingID)
	}
	c.ID = s.nextID("cancellations")
	c.CreatedAt = s.now()
	if r.tx.autocommit() {
		s.cancellations[c.ID] = *c
	} else {
		r.tx.cancellations = append(r.tx.cancellations, *c)
	}
	return nil
}

func (r *memCancellationRepository) GetByID(ctx context.Context, id int64) (*domain.Cancellation, error) {
	s := r.tx.store
	s.mu.Lock()
	defer s.mu.Unlock()
	if c, ok := s.cancellations[id]; ok {
		return &c, nil
	}
	for _, c := range r.tx.cancellations {
		if c.ID == id {
			return &c, nil
		}
	}
	return nil, domain.NotFound("cancellations.get", "cancellation", id)
}

func (r *memCancellationRepository) List(ctx context.Context, bookingID int64) ([]domain.Cancellation, error) {
	s := r.tx.store
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]domain.Cancellation, 0)
	for _, c := range s.cancellations {
		if bookingID == 0 || c.BookingID == bookingID {
			out = append(out, c)
		}
	}
	for _, c := range r.tx.cancellations {
		if bookingID == 0 || c.BookingID == bookingID {
			out = append(out, c)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

var _ Store = (*MemoryStore)(nil)
