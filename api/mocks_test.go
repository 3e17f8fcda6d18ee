package api

import (
	"context"

	"github.com/barals/TheBusBookingCompany/internal/domain"
	"github.com/barals/TheBusBookingCompany/internal/repository"
	"github.com/barals/TheBusBookingCompany/internal/service/inventory"
	"github.com/barals/TheBusBookingCompany/internal/service/vehicles"
	"github.com/stretchr/testify/mock"
)

// MockInventoryUseCase is a mock implementation of inventory.InventoryUseCase
type MockInventoryUseCase struct {
	mock.Mock
}

func (m *MockInventoryUseCase) Reserve(ctx context.Context, req inventory.ReserveRequest) (*domain.Booking, error) {
	args := m.Called(ctx, req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Booking), args.Error(1)
}

func (m *MockInventoryUseCase) Cancel(ctx context.Context, req inventory.CancelRequest) (*domain.Cancellation, error) {
	args := m.Called(ctx, req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Cancellation), args.Error(1)
}

func (m *MockInventoryUseCase) Availability(ctx context.Context, vehicleID int64) (int, error) {
	args := m.Called(ctx, vehicleID)
	return args.Int(0), args.Error(1)
}

func (m *MockInventoryUseCase) GetBooking(ctx context.Context, id int64) (*domain.Booking, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Booking), args.Error(1)
}

func (m *MockInventoryUseCase) ListBookings(ctx context.Context, filter repository.BookingFilter) ([]domain.Booking, error) {
	args := m.Called(ctx, filter)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.Booking), args.Error(1)
}

func (m *MockInventoryUseCase) GetCancellation(ctx context.Context, id int64) (*domain.Cancellation, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Cancellation), args.Error(1)
}

func (m *MockInventoryUseCase) ListCancellations(ctx context.Context, bookingID int64) ([]domain.Cancellation, error) {
	args := m.Called(ctx, bookingID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.Cancellation), args.Error(1)
}

func (m *MockInventoryUseCase) GetCapacity(ctx context.Context, vehicleID int64) (*domain.CapacityRecord, error) {
	args := m.Called(ctx, vehicleID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.CapacityRecord), args.Error(1)
}

func (m *MockInventoryUseCase) InitCapacity(ctx context.Context, vehicleID int64) (*domain.CapacityRecord, error) {
	args := m.Called(ctx, vehicleID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.CapacityRecord), args.Error(1)
}

func (m *MockInventoryUseCase) AdjustCapacity(ctx context.Context, vehicleID int64, availableSeats int) (*domain.CapacityRecord, error) {
	args := m.Called(ctx, vehicleID, availableSeats)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.CapacityRecord), args.Error(1)
}

func (m *MockInventoryUseCase) AuditLedger(ctx context.Context) ([]inventory.AuditFinding, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]inventory.AuditFinding), args.Error(1)
}

func (m *MockInventoryUseCase) RefreshAvailability(ctx context.Context, vehicleID int64) error {
	args := m.Called(ctx, vehicleID)
	return args.Error(0)
}

// MockVehicleUseCase is a mock implementation of vehicles.VehicleUseCase
type MockVehicleUseCase struct {
	mock.Mock
}

func (m *MockVehicleUseCase) List(ctx context.Context) ([]domain.Vehicle, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.Vehicle), args.Error(1)
}

func (m *MockVehicleUseCase) GetByID(ctx context.Context, id int64) (*domain.Vehicle, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Vehicle), args.Error(1)
}

func (m *MockVehicleUseCase) Create(ctx context.Context, input vehicles.CreateVehicleInput) (*domain.Vehicle, error) {
	args := m.Called(ctx, input)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Vehicle), args.Error(1)
}
