package inventory_service_api

import (
	"context"
	"encoding/json"
	"time"

	"github.com/barals/TheBusBookingCompany/internal/domain"
	"github.com/barals/TheBusBookingCompany/internal/service/inventory"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
	"google.golang.org/protobuf/encoding/protojson"
	"google.golang.org/protobuf/types/known/structpb"
)

// Server exposes the inventory operations over gRPC.
type Server struct {
	inventory inventory.InventoryUseCase
	UnimplementedInventoryServiceServer
}

func NewServer(inventory inventory.InventoryUseCase) *Server {
	return &Server{inventory: inventory}
}

type availabilityRequest struct {
	VehicleID int64 `json:"vehicle_id"`
}

func (s *Server) Reserve(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error) {
	var in inventory.ReserveRequest
	if err := decode(req, &in); err != nil {
		return nil, err
	}

	b, err := s.inventory.Reserve(ctx, in)
	if err != nil {
		return nil, toStatus(err)
	}
	return encode(bookingFields(b))
}

func (s *Server) Cancel(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error) {
	var in inventory.CancelRequest
	if err := decode(req, &in); err != nil {
		return nil, err
	}

	c, err := s.inventory.Cancel(ctx, in)
	if err != nil {
		return nil, toStatus(err)
	}
	return encode(cancellationFields(c))
}

func (s *Server) Availability(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error) {
	var in availabilityRequest
	if err := decode(req, &in); err != nil {
		return nil, err
	}

	seats, err := s.inventory.Availability(ctx, in.VehicleID)
	if err != nil {
		return nil, toStatus(err)
	}
	return encode(map[string]interface{}{
		"vehicle_id":      in.VehicleID,
		"available_seats": seats,
	})
}

// decode goes through JSON so numeric fields reject fractions and overflow.
func decode(req *structpb.Struct, dst interface{}) error {
	raw, err := protojson.Marshal(req)
	if err != nil {
		return status.Errorf(codes.InvalidArgument, "malformed request: %v", err)
	}
	if err := json.Unmarshal(raw, dst); err != nil {
		return status.Errorf(codes.InvalidArgument, "malformed request: %v", err)
	}
	return nil
}

func encode(fields map[string]interface{}) (*structpb.Struct, error) {
	out, err := structpb.NewStruct(fields)
	if err != nil {
		return nil, status.Errorf(codes.Internal, "encode response: %v", err)
	}
	return out, nil
}

func bookingFields(b *domain.Booking) map[string]interface{} {
	return map[string]interface{}{
		"id":                     b.ID,
		"customer_id":            b.CustomerID,
		"vehicle_id":             b.VehicleID,
		"seats_reserved":         b.SeatsReserved,
		"seats_canceled":         b.SeatsCanceled,
		"origin_station_id":      optionalID(b.OriginStationID),
		"destination_station_id": optionalID(b.DestinationStationID),
		"created_at":             b.CreatedAt.UTC().Format(time.RFC3339Nano),
	}
}

func cancellationFields(c *domain.Cancellation) map[string]interface{} {
	return map[string]interface{}{
		"id":             c.ID,
		"booking_id":     c.BookingID,
		"vehicle_id":     c.VehicleID,
		"seats_canceled": c.SeatsCanceled,
		"created_at":     c.CreatedAt.UTC().Format(time.RFC3339Nano),
	}
}

func optionalID(id *int64) interface{} {
	if id == nil {
		return nil
	}
	return *id
}
