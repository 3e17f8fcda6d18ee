package ledger

import (
	"context"
	"testing"

	"github.com/barals/TheBusBookingCompany/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

type MockCapacityRepository struct {
	mock.Mock
}

func (m *MockCapacityRepository) EnsureInitialized(ctx context.Context, vehicleID int64, capacity int) error {
	args := m.Called(ctx, vehicleID, capacity)
	return args.Error(0)
}

func (m *MockCapacityRepository) GetForUpdate(ctx context.Context, vehicleID int64) (*domain.CapacityRecord, error) {
	args := m.Called(ctx, vehicleID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.CapacityRecord), args.Error(1)
}

func (m *MockCapacityRepository) Get(ctx context.Context, vehicleID int64) (*domain.CapacityRecord, error) {
	args := m.Called(ctx, vehicleID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.CapacityRecord), args.Error(1)
}

func (m *MockCapacityRepository) Update(ctx context.Context, vehicleID int64, availableSeats int) (*domain.CapacityRecord, error) {
	args := m.Called(ctx, vehicleID, availableSeats)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.CapacityRecord), args.Error(1)
}

func (m *MockCapacityRepository) List(ctx context.Context) ([]domain.CapacityRecord, error) {
	args := m.Called(ctx)
	return args.Get(0).([]domain.CapacityRecord), args.Error(1)
}

func TestClamp(t *testing.T) {
	testCases := []struct {
		name      string
		current   int
		delta     int
		expected  int
		violation bool
	}{
		{name: "reserve within bounds", current: 40, delta: -4, expected: 36},
		{name: "reserve to zero", current: 4, delta: -4, expected: 0},
		{name: "release within bounds", current: 30, delta: 5, expected: 35},
		{name: "release clamped at capacity", current: 38, delta: 5, expected: 40},
		{name: "zero delta", current: 12, delta: 0, expected: 12},
		{name: "underflow", current: 3, delta: -4, violation: true},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			got, err := Clamp(1, tc.current, tc.delta, 0, 40)
			if tc.violation {
				assert.Equal(t, domain.KindCapacityViolation, domain.KindOf(err))
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tc.expected, got)
		})
	}
}

func TestLedger_GetOrInit(t *testing.T) {
	repo := &MockCapacityRepository{}
	l := New(repo)
	ctx := context.Background()
	vehicle := &domain.Vehicle{ID: 7, Capacity: 40}

	repo.On("EnsureInitialized", ctx, int64(7), 40).Return(nil).Once()
	repo.On("GetForUpdate", ctx, int64(7)).Return(&domain.CapacityRecord{VehicleID: 7, Capacity: 40, AvailableSeats: 40}, nil).Once()

	rec, err := l.GetOrInit(ctx, vehicle)

	require.NoError(t, err)
	assert.Equal(t, 40, rec.AvailableSeats)
	repo.AssertExpectations(t)
}

func TestLedger_GetOrInit_CorruptRecord(t *testing.T) {
	repo := &MockCapacityRepository{}
	l := New(repo)
	ctx := context.Background()

	repo.On("EnsureInitialized", ctx, int64(7), 40).Return(nil).Once()
	repo.On("GetForUpdate", ctx, int64(7)).Return(&domain.CapacityRecord{VehicleID: 7, Capacity: 40, AvailableSeats: -2}, nil).Once()

	_, err := l.GetOrInit(ctx, &domain.Vehicle{ID: 7, Capacity: 40})

	assert.ErrorIs(t, err, domain.ErrCapacityViolation)
}

func TestLedger_ApplyDelta(t *testing.T) {
	repo := &MockCapacityRepository{}
	l := New(repo)
	ctx := context.Background()

	repo.On("GetForUpdate", ctx, int64(7)).Return(&domain.CapacityRecord{VehicleID: 7, Capacity: 40, AvailableSeats: 38}, nil).Once()
	repo.On("Update", ctx, int64(7), 40).Return(&domain.CapacityRecord{VehicleID: 7, Capacity: 40, AvailableSeats: 40}, nil).Once()

	rec, err := l.ApplyDelta(ctx, 7, 5, 0, 40)

	require.NoError(t, err)
	assert.Equal(t, 40, rec.AvailableSeats)
	repo.AssertExpectations(t)
}

func TestLedger_ApplyDelta_UnderflowWritesNothing(t *testing.T) {
	repo := &MockCapacityRepository{}
	l := New(repo)
	ctx := context.Background()

	repo.On("GetForUpdate", ctx, int64(7)).Return(&domain.CapacityRecord{VehicleID: 7, Capacity: 40, AvailableSeats: 2}, nil).Once()

	_, err := l.ApplyDelta(ctx, 7, -3, 0, 40)

	assert.Equal(t, domain.KindCapacityViolation, domain.KindOf(err))
	repo.AssertNotCalled(t, "Update", mock.Anything, mock.Anything, mock.Anything)
}
