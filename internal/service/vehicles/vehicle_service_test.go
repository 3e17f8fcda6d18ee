package vehicles

import (
	"context"
	"errors"
	"testing"

	"github.com/barals/TheBusBookingCompany/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

type MockVehicleRepository struct {
	mock.Mock
}

func (m *MockVehicleRepository) List(ctx context.Context) ([]domain.Vehicle, error) {
	args := m.Called(ctx)
	return args.Get(0).([]domain.Vehicle), args.Error(1)
}

func (m *MockVehicleRepository) GetByID(ctx context.Context, id int64) (*domain.Vehicle, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Vehicle), args.Error(1)
}

func (m *MockVehicleRepository) Create(ctx context.Context, vehicle *domain.Vehicle) error {
	args := m.Called(ctx, vehicle)
	return args.Error(0)
}

type MockCache struct {
	mock.Mock
}

func (m *MockCache) GetVehicles(ctx context.Context) ([]domain.Vehicle, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.Vehicle), args.Error(1)
}

func (m *MockCache) SetVehicles(ctx context.Context, vehicles []domain.Vehicle) error {
	args := m.Called(ctx, vehicles)
	return args.Error(0)
}

func (m *MockCache) GetVehicle(ctx context.Context, id int64) (*domain.Vehicle, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Vehicle), args.Error(1)
}

func (m *MockCache) SetVehicle(ctx context.Context, vehicle *domain.Vehicle) error {
	args := m.Called(ctx, vehicle)
	return args.Error(0)
}

func (m *MockCache) InvalidateVehicles(ctx context.Context) error {
	args := m.Called(ctx)
	return args.Error(0)
}

func TestVehicleService_List_CacheMiss(t *testing.T) {
	mockRepo := &MockVehicleRepository{}
	mockCache := &MockCache{}
	service := NewVehicleService(mockRepo, mockCache, nil)
	ctx := context.Background()

	vehicles := []domain.Vehicle{{ID: 1, Number: "BUS-1", RouteNumber: "12", Capacity: 40}}

	mockCache.On("GetVehicles", ctx).Return(nil, nil).Once()
	mockRepo.On("List", ctx).Return(vehicles, nil).Once()
	mockCache.On("SetVehicles", ctx, vehicles).Return(nil).Once()

	result, err := service.List(ctx)

	require.NoError(t, err)
	assert.Equal(t, vehicles, result)
	mockRepo.AssertExpectations(t)
	mockCache.AssertExpectations(t)
}

func TestVehicleService_List_CacheHit(t *testing.T) {
	mockRepo := &MockVehicleRepository{}
	mockCache := &MockCache{}
	service := NewVehicleService(mockRepo, mockCache, nil)
	ctx := context.Background()

	vehicles := []domain.Vehicle{{ID: 1, Number: "BUS-1", Capacity: 40}}
	mockCache.On("GetVehicles", ctx).Return(vehicles, nil).Once()

	result, err := service.List(ctx)

	require.NoError(t, err)
	assert.Equal(t, vehicles, result)
	mockRepo.AssertNotCalled(t, "List", mock.Anything)
}

func TestVehicleService_List_NoCache(t *testing.T) {
	mockRepo := &MockVehicleRepository{}
	service := NewVehicleService(mockRepo, nil, nil)
	ctx := context.Background()

	mockRepo.On("List", ctx).Return([]domain.Vehicle{}, errors.New("db down")).Once()

	_, err := service.List(ctx)
	assert.EqualError(t, err, "db down")
}

func TestVehicleService_GetByID(t *testing.T) {
	mockRepo := &MockVehicleRepository{}
	mockCache := &MockCache{}
	service := NewVehicleService(mockRepo, mockCache, nil)
	ctx := context.Background()

	vehicle := &domain.Vehicle{ID: 7, Number: "BUS-7", Capacity: 40}
	mockCache.On("GetVehicle", ctx, int64(7)).Return(nil, nil).Once()
	mockRepo.On("GetByID", ctx, int64(7)).Return(vehicle, nil).Once()
	mockCache.On("SetVehicle", ctx, vehicle).Return(errors.New("redis down")).Once()

	result, err := service.GetByID(ctx, 7)

	require.NoError(t, err)
	assert.Equal(t, 40, result.Capacity)
	mockCache.AssertExpectations(t)
}

func TestVehicleService_GetByID_NotFound(t *testing.T) {
	mockRepo := &MockVehicleRepository{}
	service := NewVehicleService(mockRepo, nil, nil)
	ctx := context.Background()

	mockRepo.On("GetByID", ctx, int64(9)).Return(nil, domain.NotFound("vehicles.get", "vehicle", 9)).Once()

	_, err := service.GetByID(ctx, 9)
	assert.True(t, domain.IsNotFound(err))
}

func TestVehicleService_Create(t *testing.T) {
	mockRepo := &MockVehicleRepository{}
	mockCache := &MockCache{}
	service := NewVehicleService(mockRepo, mockCache, nil)
	ctx := context.Background()

	mockRepo.On("Create", ctx, mock.MatchedBy(func(v *domain.Vehicle) bool {
		return v.Number == "BUS-3" && v.Capacity == 50
	})).Run(func(args mock.Arguments) {
		args.Get(1).(*domain.Vehicle).ID = 3
	}).Return(nil).Once()
	mockCache.On("InvalidateVehicles", ctx).Return(nil).Once()

	v, err := service.Create(ctx, CreateVehicleInput{Number: " BUS-3 ", RouteNumber: "7", Capacity: 50})

	require.NoError(t, err)
	assert.Equal(t, int64(3), v.ID)
	mockCache.AssertExpectations(t)
}

func TestVehicleService_Create_Invalid(t *testing.T) {
	testCases := []struct {
		name  string
		input CreateVehicleInput
	}{
		{name: "missing number", input: CreateVehicleInput{RouteNumber: "7", Capacity: 10}},
		{name: "missing route", input: CreateVehicleInput{Number: "B", Capacity: 10}},
		{name: "zero capacity", input: CreateVehicleInput{Number: "B", RouteNumber: "7"}},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			service := NewVehicleService(&MockVehicleRepository{}, nil, nil)
			_, err := service.Create(context.Background(), tc.input)
			assert.ErrorIs(t, err, domain.ErrInvalidArgument)
		})
	}
}
