package main

import (
	"context"
	"encoding/json"
	"errors"
	"testing"

	"github.com/barals/TheBusBookingCompany/internal/domain"
	"github.com/barals/TheBusBookingCompany/internal/kafka"
	"github.com/barals/TheBusBookingCompany/internal/notify"
	"github.com/barals/TheBusBookingCompany/internal/service/inventory"
	kafkaGo "github.com/segmentio/kafka-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"
)

type mockRefresher struct {
	inventory.InventoryUseCase
	mock.Mock
}

func (m *mockRefresher) RefreshAvailability(ctx context.Context, vehicleID int64) error {
	return m.Called(ctx, vehicleID).Error(0)
}

func TestHandleEvent(t *testing.T) {
	core, logs := observer.New(zap.InfoLevel)
	logger := zap.New(core)
	svc := &mockRefresher{}
	svc.On("RefreshAvailability", mock.Anything, int64(3)).Return(nil)

	event := kafka.NewReservedEvent(
		&domain.Booking{ID: 9, CustomerID: 4, VehicleID: 3, SeatsReserved: 2},
		&domain.CapacityRecord{VehicleID: 3, Capacity: 10, AvailableSeats: 8},
	)
	value, err := json.Marshal(event)
	require.NoError(t, err)

	err = handleEvent(context.Background(), logger, svc, notify.NewNotifier(logger), kafkaGo.Message{Value: value})
	require.NoError(t, err)

	svc.AssertExpectations(t)
	assert.Equal(t, 1, logs.FilterMessage("notify customer about reservation").Len())
}

func TestHandleEvent_BadPayload(t *testing.T) {
	core, logs := observer.New(zap.InfoLevel)
	logger := zap.New(core)
	svc := &mockRefresher{}

	err := handleEvent(context.Background(), logger, svc, notify.NewNotifier(logger), kafkaGo.Message{Value: []byte("{")})
	require.NoError(t, err)

	svc.AssertNotCalled(t, "RefreshAvailability", mock.Anything, mock.Anything)
	assert.Equal(t, 1, logs.FilterMessage("skip undecodable inventory event").Len())
}

func TestHandleEvent_RefreshFailureStillNotifies(t *testing.T) {
	core, logs := observer.New(zap.InfoLevel)
	logger := zap.New(core)
	svc := &mockRefresher{}
	svc.On("RefreshAvailability", mock.Anything, int64(3)).Return(errors.New("redis down"))

	value, _ := json.Marshal(kafka.InventoryEvent{Type: kafka.EventSeatsReleased, VehicleID: 3, BookingID: 9, Seats: 1})
	err := handleEvent(context.Background(), logger, svc, notify.NewNotifier(logger), kafkaGo.Message{Value: value})
	require.NoError(t, err)

	assert.Equal(t, 1, logs.FilterMessage("refresh availability failed").Len())
	assert.Equal(t, 1, logs.FilterMessage("notify customer about cancellation").Len())
}
