package api

import (
	"net/http"
	"time"

	"github.com/barals/TheBusBookingCompany/internal/domain"
	"github.com/barals/TheBusBookingCompany/internal/repository"
	"github.com/barals/TheBusBookingCompany/internal/service/inventory"
	"github.com/gin-gonic/gin"
)

type BookingHandler struct {
	service inventory.InventoryUseCase
}

type createBookingRequest struct {
	CustomerID           int64  `json:"customer_id"`
	VehicleID            int64  `json:"vehicle_id"`
	Seats                int    `json:"seats"`
	OriginStationID      *int64 `json:"origin_station_id"`
	DestinationStationID *int64 `json:"destination_station_id"`
}

type cancelBookingRequest struct {
	Seats int `json:"seats"`
}

type bookingResponse struct {
	ID                   int64  `json:"id"`
	CustomerID           int64  `json:"customer_id"`
	VehicleID            int64  `json:"vehicle_id"`
	SeatsReserved        int    `json:"seats_reserved"`
	SeatsCanceled        int    `json:"seats_canceled"`
	OriginStationID      *int64 `json:"origin_station_id,omitempty"`
	DestinationStationID *int64 `json:"destination_station_id,omitempty"`
	CreatedAt            string `json:"created_at"`
}

func NewBookingHandler(service inventory.InventoryUseCase) *BookingHandler {
	return &BookingHandler{service: service}
}

func (h *BookingHandler) Register(router *gin.RouterGroup) {
	router.POST("", h.create)
	router.GET("", h.list)
	router.GET("/:id", h.get)
	router.POST("/:id/cancellations", h.cancel)
	router.GET("/:id/cancellations", h.cancellations)
}

func (h *BookingHandler) create(c *gin.Context) {
	var req createBookingRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err.Error())
		return
	}

	booking, err := h.service.Reserve(c.Request.Context(), inventory.ReserveRequest{
		CustomerID:           req.CustomerID,
		VehicleID:            req.VehicleID,
		Seats:                req.Seats,
		OriginStationID:      req.OriginStationID,
		DestinationStationID: req.DestinationStationID,
	})
	if err != nil {
		writeError(c, err)
		return
	}

	c.JSON(http.StatusCreated, toBookingResponse(booking))
}

func (h *BookingHandler) list(c *gin.Context) {
	vehicleID, ok := queryID(c, "vehicle_id")
	if !ok {
		return
	}
	customerID, ok := queryID(c, "customer_id")
	if !ok {
		return
	}

	list, err := h.service.ListBookings(c.Request.Context(), repository.BookingFilter{
		VehicleID:  vehicleID,
		CustomerID: customerID,
	})
	if err != nil {
		writeError(c, err)
		return
	}
	resp := make([]bookingResponse, 0, len(list))
	for i := range list {
		resp = append(resp, toBookingResponse(&list[i]))
	}
	c.JSON(http.StatusOK, resp)
}

func (h *BookingHandler) get(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	booking, err := h.service.GetBooking(c.Request.Context(), id)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, toBookingResponse(booking))
}

func (h *BookingHandler) cancel(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	var req cancelBookingRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err.Error())
		return
	}

	cancellation, err := h.service.Cancel(c.Request.Context(), inventory.CancelRequest{BookingID: id, Seats: req.Seats})
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusCreated, toCancellationResponse(cancellation))
}

func (h *BookingHandler) cancellations(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	list, err := h.service.ListCancellations(c.Request.Context(), id)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, toCancellationResponses(list))
}

func toBookingResponse(b *domain.Booking) bookingResponse {
	return bookingResponse{
		ID:                   b.ID,
		CustomerID:           b.CustomerID,
		VehicleID:            b.VehicleID,
		SeatsReserved:        b.SeatsReserved,
		SeatsCanceled:        b.SeatsCanceled,
		OriginStationID:      b.OriginStationID,
		DestinationStationID: b.DestinationStationID,
		CreatedAt:            b.CreatedAt.Format(time.RFC3339),
	}
}
