package vehicles

import (
	"context"
	"strconv"
	"strings"

	"github.com/barals/TheBusBookingCompany/internal/domain"
	"github.com/barals/TheBusBookingCompany/internal/repository"
	"go.uber.org/zap"
	"golang.org/x/sync/singleflight"
)

type VehicleUseCase interface {
	List(ctx context.Context) ([]domain.Vehicle, error)
	GetByID(ctx context.Context, id int64) (*domain.Vehicle, error)
	Create(ctx context.Context, input CreateVehicleInput) (*domain.Vehicle, error)
}

type VehicleCache interface {
	GetVehicles(ctx context.Context) ([]domain.Vehicle, error)
	SetVehicles(ctx context.Context, vehicles []domain.Vehicle) error
	GetVehicle(ctx context.Context, id int64) (*domain.Vehicle, error)
	SetVehicle(ctx context.Context, vehicle *domain.Vehicle) error
	InvalidateVehicles(ctx context.Context) error
}

type CreateVehicleInput struct {
	Number      string `json:"number"`
	RouteNumber string `json:"route_number"`
	Capacity    int    `json:"capacity"`
}

func (in CreateVehicleInput) Validate() error {
	if strings.TrimSpace(in.Number) == "" {
		return domain.InvalidArgument("vehicles.create", "number", "is required")
	}
	if strings.TrimSpace(in.RouteNumber) == "" {
		return domain.InvalidArgument("vehicles.create", "route_number", "is required")
	}
	if in.Capacity <= 0 {
		return domain.InvalidArgument("vehicles.create", "capacity", "must be positive")
	}
	return nil
}

type VehicleService struct {
	repo   repository.VehicleRepository
	cache  VehicleCache
	group  singleflight.Group
	logger *zap.Logger
}

// cache may be nil.
func NewVehicleService(repo repository.VehicleRepository, cache VehicleCache, logger *zap.Logger) *VehicleService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &VehicleService{repo: repo, cache: cache, logger: logger}
}

func (s *VehicleService) List(ctx context.Context) ([]domain.Vehicle, error) {
	if s.cache != nil {
		if cached, err := s.cache.GetVehicles(ctx); err == nil && cached != nil {
			return cached, nil
		}
	}

	vehicles, err := s.repo.List(ctx)
	if err != nil {
		return nil, err
	}
	if s.cache != nil {
		if err := s.cache.SetVehicles(ctx, vehicles); err != nil {
			s.logger.Warn("failed to cache vehicles", zap.Error(err))
		}
	}
	return vehicles, nil
}

// GetByID is on the hot path of every reservation; concurrent lookups of the
// same vehicle share one repository call.
func (s *VehicleService) GetByID(ctx context.Context, id int64) (*domain.Vehicle, error) {
	if s.cache != nil {
		if cached, err := s.cache.GetVehicle(ctx, id); err == nil && cached != nil {
			return cached, nil
		}
	}

	v, err, _ := s.group.Do(strconv.FormatInt(id, 10), func() (interface{}, error) {
		vehicle, err := s.repo.GetByID(ctx, id)
		if err != nil {
			return nil, err
		}
		if s.cache != nil {
			if err := s.cache.SetVehicle(ctx, vehicle); err != nil {
				s.logger.Warn("failed to cache vehicle", zap.Int64("vehicle_id", id), zap.Error(err))
			}
		}
		return vehicle, nil
	})
	if err != nil {
		return nil, err
	}
	vehicle := *v.(*domain.Vehicle)
	return &vehicle, nil
}

func (s *VehicleService) Create(ctx context.Context, input CreateVehicleInput) (*domain.Vehicle, error) {
	if err := input.Validate(); err != nil {
		return nil, err
	}
	vehicle := &domain.Vehicle{
		Number:      strings.TrimSpace(input.Number),
		RouteNumber: strings.TrimSpace(input.RouteNumber),
		Capacity:    input.Capacity,
	}
	if err := s.repo.Create(ctx, vehicle); err != nil {
		return nil, err
	}
	if s.cache != nil {
		if err := s.cache.InvalidateVehicles(ctx); err != nil {
			s.logger.Warn("failed to invalidate vehicles cache", zap.Error(err))
		}
	}
	return vehicle, nil
}

var _ VehicleUseCase = (*VehicleService)(nil)
