package inventory_service_api

import (
	"context"
	"encoding/json"
	"net"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/barals/TheBusBookingCompany/internal/domain"
	"github.com/barals/TheBusBookingCompany/internal/service/inventory"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"google.golang.org/grpc"
	"google.golang.org/grpc/credentials/insecure"
	"google.golang.org/grpc/test/bufconn"
)

func newGatewayFixture(t *testing.T, svc inventory.InventoryUseCase) http.Handler {
	t.Helper()

	lis := bufconn.Listen(1 << 20)
	srv := grpc.NewServer()
	RegisterInventoryServiceServer(srv, NewServer(svc))
	go func() { _ = srv.Serve(lis) }()
	t.Cleanup(srv.Stop)

	conn, err := grpc.NewClient("passthrough:///bufnet",
		grpc.WithContextDialer(func(ctx context.Context, _ string) (net.Conn, error) {
			return lis.DialContext(ctx)
		}),
		grpc.WithTransportCredentials(insecure.NewCredentials()),
	)
	require.NoError(t, err)
	t.Cleanup(func() { _ = conn.Close() })

	mux, err := NewGateway(NewInventoryServiceClient(conn))
	require.NoError(t, err)
	return mux
}

func TestGateway_Reserve(t *testing.T) {
	svc := &MockInventoryUseCase{}
	handler := newGatewayFixture(t, svc)

	svc.On("Reserve", mock.Anything, inventory.ReserveRequest{CustomerID: 2, VehicleID: 1, Seats: 4}).
		Return(&domain.Booking{ID: 5, CustomerID: 2, VehicleID: 1, SeatsReserved: 4}, nil)

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/v1/reservations",
		strings.NewReader(`{"customer_id": 2, "vehicle_id": 1, "seats": 4}`))
	req.Header.Set("Content-Type", "application/json")
	handler.ServeHTTP(w, req)

	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	var body map[string]interface{}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	assert.Equal(t, float64(5), body["id"])
	assert.Equal(t, float64(4), body["seats_reserved"])
	svc.AssertExpectations(t)
}

func TestGateway_Cancel_OverCancellation(t *testing.T) {
	svc := &MockInventoryUseCase{}
	handler := newGatewayFixture(t, svc)

	svc.On("Cancel", mock.Anything, inventory.CancelRequest{BookingID: 5, Seats: 9}).
		Return(nil, domain.NewError(domain.KindOverCancellation, "cancellation.cancel", "booking 5 has 4 seats outstanding"))

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/v1/cancellations", strings.NewReader(`{"booking_id": 5, "seats": 9}`))
	req.Header.Set("Content-Type", "application/json")
	handler.ServeHTTP(w, req)

	assert.Equal(t, http.StatusConflict, w.Code)
	var body errorBody
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	assert.Equal(t, string(domain.KindOverCancellation), body.Code)
	assert.Contains(t, body.Error, "4 seats outstanding")
}

func TestGateway_Availability(t *testing.T) {
	svc := &MockInventoryUseCase{}
	handler := newGatewayFixture(t, svc)

	svc.On("Availability", mock.Anything, int64(3)).Return(40, nil)

	w := httptest.NewRecorder()
	handler.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/v1/vehicles/3/availability", nil))

	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	var body map[string]interface{}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	assert.Equal(t, float64(40), body["available_seats"])
}

func TestGateway_Availability_Errors(t *testing.T) {
	svc := &MockInventoryUseCase{}
	handler := newGatewayFixture(t, svc)

	svc.On("Availability", mock.Anything, int64(8)).Return(0, domain.ContentionTimeout("inventory.availability", 8, 0, nil))
	svc.On("Availability", mock.Anything, int64(9)).Return(0, domain.NotFound("vehicles.get", "vehicle", 9))

	w := httptest.NewRecorder()
	handler.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/v1/vehicles/abc/availability", nil))
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = httptest.NewRecorder()
	handler.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/v1/vehicles/8/availability", nil))
	assert.Equal(t, http.StatusServiceUnavailable, w.Code)
	assert.Equal(t, "1", w.Header().Get("Retry-After"))

	w = httptest.NewRecorder()
	handler.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/v1/vehicles/9/availability", nil))
	assert.Equal(t, http.StatusNotFound, w.Code)
}
