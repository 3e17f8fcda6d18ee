package inventory

import (
	"context"
	"errors"
	"time"

	"github.com/barals/TheBusBookingCompany/internal/domain"
	"github.com/barals/TheBusBookingCompany/internal/kafka"
	"github.com/barals/TheBusBookingCompany/internal/lock"
	"github.com/barals/TheBusBookingCompany/internal/metrics"
	"github.com/barals/TheBusBookingCompany/internal/repository"
	"github.com/barals/TheBusBookingCompany/internal/service/booking"
	"github.com/barals/TheBusBookingCompany/internal/service/cancellation"
	"github.com/barals/TheBusBookingCompany/internal/service/ledger"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"
)

const defaultLockWait = 2 * time.Second

type InventoryUseCase interface {
	Reserve(ctx context.Context, req ReserveRequest) (*domain.Booking, error)
	Cancel(ctx context.Context, req CancelRequest) (*domain.Cancellation, error)
	Availability(ctx context.Context, vehicleID int64) (int, error)

	GetBooking(ctx context.Context, id int64) (*domain.Booking, error)
	ListBookings(ctx context.Context, filter repository.BookingFilter) ([]domain.Booking, error)
	GetCancellation(ctx context.Context, id int64) (*domain.Cancellation, error)
	ListCancellations(ctx context.Context, bookingID int64) ([]domain.Cancellation, error)

	GetCapacity(ctx context.Context, vehicleID int64) (*domain.CapacityRecord, error)
	InitCapacity(ctx context.Context, vehicleID int64) (*domain.CapacityRecord, error)
	AdjustCapacity(ctx context.Context, vehicleID int64, availableSeats int) (*domain.CapacityRecord, error)
	AuditLedger(ctx context.Context) ([]AuditFinding, error)
	RefreshAvailability(ctx context.Context, vehicleID int64) error
}

type VehicleLookup interface {
	GetByID(ctx context.Context, id int64) (*domain.Vehicle, error)
}

// AvailabilityCache holds the last committed availability per vehicle.
type AvailabilityCache interface {
	GetAvailability(ctx context.Context, vehicleID int64) (int, bool, error)
	SetAvailability(ctx context.Context, vehicleID int64, seats int) error
	InvalidateAvailability(ctx context.Context, vehicleID int64) error
}

type Producer interface {
	Publish(ctx context.Context, topic, key string, value interface{}) error
}

type ReserveRequest struct {
	CustomerID           int64  `json:"customer_id"`
	VehicleID            int64  `json:"vehicle_id"`
	Seats                int    `json:"seats"`
	OriginStationID      *int64 `json:"origin_station_id,omitempty"`
	DestinationStationID *int64 `json:"destination_station_id,omitempty"`
}

type CancelRequest struct {
	BookingID int64 `json:"booking_id"`
	Seats     int   `json:"seats"`
}

// AuditFinding describes a vehicle whose ledger does not match its bookings.
// Violation means the counter left [0, capacity]; Expected is capacity minus
// seats still outstanding, which differs from AvailableSeats after a manual
// adjustment or a lost write.
type AuditFinding struct {
	VehicleID      int64 `json:"vehicle_id"`
	Capacity       int   `json:"capacity"`
	AvailableSeats int   `json:"available_seats"`
	Expected       int   `json:"expected"`
	Violation      bool  `json:"violation"`
}

type Option func(*Service)

func WithCache(cache AvailabilityCache) Option {
	return func(s *Service) { s.cache = cache }
}

func WithProducer(producer Producer, topic string) Option {
	return func(s *Service) {
		s.producer = producer
		s.topic = topic
	}
}

func WithLogger(logger *zap.Logger) Option {
	return func(s *Service) { s.logger = logger }
}

func WithMetrics(m *metrics.Metrics) Option {
	return func(s *Service) { s.metrics = m }
}

func WithTracer(tracer trace.Tracer) Option {
	return func(s *Service) { s.tracer = tracer }
}

// WithLockWait bounds how long a request waits for its vehicle before failing with CONTENTION_TIMEOUT.
func WithLockWait(d time.Duration) Option {
	return func(s *Service) {
		if d > 0 {
			s.lockWait = d
		}
	}
}

// WithLockHold bounds how long a mutation may run once its vehicle is locked.
// Set it below the lock TTL of backends whose locks expire.
func WithLockHold(d time.Duration) Option {
	return func(s *Service) {
		if d > 0 {
			s.lockHold = d
		}
	}
}

// Service is the only entry point that mutates seat inventory. Every mutation
// holds the vehicle lock for its whole transaction, so mutations of one vehicle
// are linearizable while different vehicles proceed in parallel.
type Service struct {
	store        repository.Store
	vehicles     VehicleLookup
	locker       lock.Locker
	booking      booking.ReservationEngine
	cancellation cancellation.ReleaseEngine

	cache    AvailabilityCache
	producer Producer
	topic    string
	logger   *zap.Logger
	metrics  *metrics.Metrics
	tracer   trace.Tracer
	lockWait time.Duration
	lockHold time.Duration
}

func NewService(store repository.Store, vehicles VehicleLookup, locker lock.Locker, opts ...Option) *Service {
	s := &Service{
		store:        store,
		vehicles:     vehicles,
		locker:       locker,
		booking:      booking.NewEngine(),
		cancellation: cancellation.NewEngine(),
		logger:       zap.NewNop(),
		tracer:       otel.Tracer("inventory"),
		lockWait:     defaultLockWait,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func (s *Service) Reserve(ctx context.Context, req ReserveRequest) (b *domain.Booking, err error) {
	ctx, span := s.tracer.Start(ctx, "inventory.Reserve", trace.WithAttributes(
		attribute.Int64("vehicle.id", req.VehicleID),
		attribute.Int64("customer.id", req.CustomerID),
		attribute.Int("seats", req.Seats),
	))
	defer func() { s.finish(span, "reserve", err) }()

	if req.VehicleID <= 0 {
		return nil, domain.InvalidArgument("inventory.reserve", "vehicle_id", "must be positive")
	}
	input := booking.ReserveInput{
		CustomerID:           req.CustomerID,
		Seats:                req.Seats,
		OriginStationID:      req.OriginStationID,
		DestinationStationID: req.DestinationStationID,
	}
	if err := input.Validate(); err != nil {
		return nil, err
	}

	vehicle, err := s.vehicles.GetByID(ctx, req.VehicleID)
	if err != nil {
		return nil, s.normalize("reserve", err)
	}

	var rec *domain.CapacityRecord
	err = s.withVehicleLock(ctx, "reserve", vehicle.ID, func(ctx context.Context) error {
		err := s.store.WithinTx(ctx, func(ctx context.Context, repos repository.Repositories) error {
			var err error
			b, rec, err = s.booking.Reserve(ctx, repos, vehicle, input)
			return err
		})
		if err != nil {
			return err
		}
		s.committed(ctx, rec)
		return nil
	})
	if err != nil {
		return nil, s.normalize("reserve", err)
	}

	span.SetAttributes(attribute.Int64("booking.id", b.ID), attribute.Int("available_seats", rec.AvailableSeats))
	s.publish(ctx, kafka.NewReservedEvent(b, rec))
	return b, nil
}

func (s *Service) Cancel(ctx context.Context, req CancelRequest) (c *domain.Cancellation, err error) {
	ctx, span := s.tracer.Start(ctx, "inventory.Cancel", trace.WithAttributes(
		attribute.Int64("booking.id", req.BookingID),
		attribute.Int("seats", req.Seats),
	))
	defer func() { s.finish(span, "cancel", err) }()

	input := cancellation.CancelInput{BookingID: req.BookingID, Seats: req.Seats}
	if err := input.Validate(); err != nil {
		return nil, err
	}

	// Only the vehicle id is taken from this read; the engine re-reads the booking under the lock.
	current, err := s.store.Repositories().Bookings.GetByID(ctx, req.BookingID)
	if err != nil {
		return nil, s.normalize("cancel", err)
	}
	vehicle, err := s.vehicles.GetByID(ctx, current.VehicleID)
	if err != nil {
		return nil, s.normalize("cancel", err)
	}
	span.SetAttributes(attribute.Int64("vehicle.id", vehicle.ID))

	var rec *domain.CapacityRecord
	err = s.withVehicleLock(ctx, "cancel", vehicle.ID, func(ctx context.Context) error {
		err := s.store.WithinTx(ctx, func(ctx context.Context, repos repository.Repositories) error {
			var err error
			c, rec, err = s.cancellation.Cancel(ctx, repos, vehicle, input)
			return err
		})
		if err != nil {
			return err
		}
		s.committed(ctx, rec)
		return nil
	})
	if err != nil {
		return nil, s.normalize("cancel", err)
	}

	span.SetAttributes(attribute.Int64("cancellation.id", c.ID), attribute.Int("available_seats", rec.AvailableSeats))
	s.publish(ctx, kafka.NewReleasedEvent(c, rec))
	return c, nil
}

// Availability is a snapshot read and never waits for the vehicle lock. A
// vehicle that was never booked reports its full capacity.
func (s *Service) Availability(ctx context.Context, vehicleID int64) (seats int, err error) {
	ctx, span := s.tracer.Start(ctx, "inventory.Availability", trace.WithAttributes(attribute.Int64("vehicle.id", vehicleID)))
	defer func() { s.finish(span, "availability", err) }()

	if vehicleID <= 0 {
		return 0, domain.InvalidArgument("inventory.availability", "vehicle_id", "must be positive")
	}

	if s.cache != nil {
		seats, ok, err := s.cache.GetAvailability(ctx, vehicleID)
		if err != nil {
			s.logger.Warn("availability cache read failed", zap.Int64("vehicle_id", vehicleID), zap.Error(err))
		} else if ok {
			span.SetAttributes(attribute.Bool("cache.hit", true))
			return seats, nil
		}
	}

	rec, err := ledger.New(s.store.Repositories().Capacity).Read(ctx, vehicleID)
	if err == nil {
		return rec.AvailableSeats, nil
	}
	if !domain.IsNotFound(err) {
		return 0, s.normalize("availability", err)
	}

	vehicle, err := s.vehicles.GetByID(ctx, vehicleID)
	if err != nil {
		return 0, s.normalize("availability", err)
	}
	return vehicle.Capacity, nil
}

func (s *Service) GetBooking(ctx context.Context, id int64) (*domain.Booking, error) {
	b, err := s.store.Repositories().Bookings.GetByID(ctx, id)
	return b, s.normalize("get_booking", err)
}

func (s *Service) ListBookings(ctx context.Context, filter repository.BookingFilter) ([]domain.Booking, error) {
	if filter.VehicleID != 0 {
		if _, err := s.vehicles.GetByID(ctx, filter.VehicleID); err != nil {
			return nil, s.normalize("list_bookings", err)
		}
	}
	bookings, err := s.store.Repositories().Bookings.List(ctx, filter)
	return bookings, s.normalize("list_bookings", err)
}

func (s *Service) GetCancellation(ctx context.Context, id int64) (*domain.Cancellation, error) {
	c, err := s.store.Repositories().Cancellations.GetByID(ctx, id)
	return c, s.normalize("get_cancellation", err)
}

func (s *Service) ListCancellations(ctx context.Context, bookingID int64) ([]domain.Cancellation, error) {
	repos := s.store.Repositories()
	if bookingID != 0 {
		if _, err := repos.Bookings.GetByID(ctx, bookingID); err != nil {
			return nil, s.normalize("list_cancellations", err)
		}
	}
	list, err := repos.Cancellations.List(ctx, bookingID)
	return list, s.normalize("list_cancellations", err)
}

func (s *Service) publish(ctx context.Context, event kafka.InventoryEvent) {
	if s.producer == nil || s.topic == "" {
		return
	}
	// the change is committed, a caller hanging up must not drop the event
	if err := s.producer.Publish(context.WithoutCancel(ctx), s.topic, event.Key(), event); err != nil {
		s.logger.Warn("failed to publish inventory event",
			zap.String("type", string(event.Type)),
			zap.Int64("vehicle_id", event.VehicleID),
			zap.Error(err),
		)
	}
}

// normalize leaves domain and context errors alone and reports anything else
// as a persistence failure.
func (s *Service) normalize(op string, err error) error {
	if err == nil {
		return nil
	}
	if domain.KindOf(err) != "" {
		return err
	}
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return err
	}
	return domain.Wrap(domain.KindPersistenceFailure, "inventory."+op, err)
}

func (s *Service) finish(span trace.Span, op string, err error) {
	defer span.End()

	outcome := "ok"
	if err != nil {
		outcome = string(domain.KindOf(err))
		if outcome == "" {
			outcome = "CANCELED"
		}
		span.RecordError(err)
		span.SetStatus(codes.Error, outcome)
		span.SetAttributes(attribute.String("error.kind", outcome))
	}
	s.metrics.ObserveOperation(op, outcome)

	switch domain.KindOf(err) {
	case domain.KindCapacityViolation, domain.KindPersistenceFailure:
		s.logger.Error("inventory operation failed", zap.String("op", op), zap.Error(err))
	case domain.KindContentionTimeout:
		s.logger.Warn("vehicle lock contention", zap.String("op", op), zap.Error(err))
	}
}

var _ InventoryUseCase = (*Service)(nil)
