package inventory_service_api

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"strconv"

	"github.com/barals/TheBusBookingCompany/internal/domain"
	"github.com/grpc-ecosystem/grpc-gateway/v2/runtime"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
	"google.golang.org/protobuf/types/known/structpb"
)

var httpStatusByKind = map[domain.Kind]int{
	domain.KindNotFound:             http.StatusNotFound,
	domain.KindInvalidArgument:      http.StatusBadRequest,
	domain.KindInsufficientCapacity: http.StatusConflict,
	domain.KindOverCancellation:     http.StatusConflict,
	domain.KindCapacityViolation:    http.StatusInternalServerError,
	domain.KindContentionTimeout:    http.StatusServiceUnavailable,
	domain.KindPersistenceFailure:   http.StatusInternalServerError,
}

type gateway struct {
	mux    *runtime.ServeMux
	client InventoryServiceClient
}

// NewGateway serves the JSON/HTTP face of the gRPC service:
//
//	POST /v1/reservations
//	POST /v1/cancellations
//	GET  /v1/vehicles/{vehicle_id}/availability
func NewGateway(client InventoryServiceClient, opts ...runtime.ServeMuxOption) (*runtime.ServeMux, error) {
	opts = append([]runtime.ServeMuxOption{runtime.WithErrorHandler(errorHandler)}, opts...)
	g := &gateway{mux: runtime.NewServeMux(opts...), client: client}

	routes := []struct {
		method  string
		pattern string
		handler runtime.HandlerFunc
	}{
		{http.MethodPost, "/v1/reservations", g.reserve},
		{http.MethodPost, "/v1/cancellations", g.cancel},
		{http.MethodGet, "/v1/vehicles/{vehicle_id}/availability", g.availability},
	}
	for _, r := range routes {
		if err := g.mux.HandlePath(r.method, r.pattern, r.handler); err != nil {
			return nil, err
		}
	}
	return g.mux, nil
}

func (g *gateway) reserve(w http.ResponseWriter, r *http.Request, _ map[string]string) {
	g.forwardBody(w, r, InventoryService_Reserve_FullMethodName, "/v1/reservations", g.client.Reserve)
}

func (g *gateway) cancel(w http.ResponseWriter, r *http.Request, _ map[string]string) {
	g.forwardBody(w, r, InventoryService_Cancel_FullMethodName, "/v1/cancellations", g.client.Cancel)
}

func (g *gateway) availability(w http.ResponseWriter, r *http.Request, params map[string]string) {
	_, outbound := runtime.MarshalerForRequest(g.mux, r)

	vehicleID, err := strconv.ParseInt(params["vehicle_id"], 10, 64)
	if err != nil {
		runtime.HTTPError(r.Context(), g.mux, outbound, w, r,
			status.Errorf(codes.InvalidArgument, "vehicle_id: %v", err))
		return
	}

	ctx, err := runtime.AnnotateContext(r.Context(), g.mux, r, InventoryService_Availability_FullMethodName,
		runtime.WithHTTPPathPattern("/v1/vehicles/{vehicle_id}/availability"))
	if err != nil {
		runtime.HTTPError(r.Context(), g.mux, outbound, w, r, err)
		return
	}

	in, err := structpb.NewStruct(map[string]interface{}{"vehicle_id": vehicleID})
	if err != nil {
		runtime.HTTPError(ctx, g.mux, outbound, w, r, err)
		return
	}
	resp, err := g.client.Availability(ctx, in)
	if err != nil {
		runtime.HTTPError(ctx, g.mux, outbound, w, r, err)
		return
	}
	runtime.ForwardResponseMessage(ctx, g.mux, outbound, w, r, resp)
}

type unaryCall func(ctx context.Context, in *structpb.Struct, opts ...grpc.CallOption) (*structpb.Struct, error)

func (g *gateway) forwardBody(w http.ResponseWriter, r *http.Request, method, pattern string, call unaryCall) {
	inbound, outbound := runtime.MarshalerForRequest(g.mux, r)

	ctx, err := runtime.AnnotateContext(r.Context(), g.mux, r, method, runtime.WithHTTPPathPattern(pattern))
	if err != nil {
		runtime.HTTPError(r.Context(), g.mux, outbound, w, r, err)
		return
	}

	body, err := io.ReadAll(r.Body)
	if err != nil {
		runtime.HTTPError(ctx, g.mux, outbound, w, r, status.Errorf(codes.InvalidArgument, "read body: %v", err))
		return
	}
	in := &structpb.Struct{}
	if len(body) > 0 {
		if err := inbound.Unmarshal(body, in); err != nil {
			runtime.HTTPError(ctx, g.mux, outbound, w, r, status.Errorf(codes.InvalidArgument, "malformed body: %v", err))
			return
		}
	}

	resp, err := call(ctx, in)
	if err != nil {
		runtime.HTTPError(ctx, g.mux, outbound, w, r, err)
		return
	}
	runtime.ForwardResponseMessage(ctx, g.mux, outbound, w, r, resp)
}

type errorBody struct {
	Code  string `json:"code"`
	Error string `json:"error"`
}

// errorHandler renders domain failures with the same status codes and body
// as the REST API; anything else falls back to the gateway default.
func errorHandler(ctx context.Context, mux *runtime.ServeMux, m runtime.Marshaler, w http.ResponseWriter, r *http.Request, err error) {
	kind, ok := KindFromStatus(err)
	code, known := httpStatusByKind[kind]
	if !ok || !known {
		runtime.DefaultHTTPErrorHandler(ctx, mux, m, w, r, err)
		return
	}

	st, _ := status.FromError(err)
	w.Header().Set("Content-Type", "application/json")
	if kind == domain.KindContentionTimeout {
		w.Header().Set("Retry-After", "1")
	}
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(errorBody{Code: string(kind), Error: st.Message()})
}
