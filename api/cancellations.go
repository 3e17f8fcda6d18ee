package api

import (
	"net/http"
	"time"

	"github.com/barals/TheBusBookingCompany/internal/domain"
	"github.com/barals/TheBusBookingCompany/internal/service/inventory"
	"github.com/gin-gonic/gin"
)

type CancellationHandler struct {
	service inventory.InventoryUseCase
}

type cancellationResponse struct {
	ID            int64  `json:"id"`
	BookingID     int64  `json:"booking_id"`
	VehicleID     int64  `json:"vehicle_id"`
	SeatsCanceled int    `json:"seats_canceled"`
	CreatedAt     string `json:"created_at"`
}

func NewCancellationHandler(service inventory.InventoryUseCase) *CancellationHandler {
	return &CancellationHandler{service: service}
}

func (h *CancellationHandler) Register(router *gin.RouterGroup) {
	router.GET("", h.list)
	router.GET("/:id", h.get)
}

func (h *CancellationHandler) list(c *gin.Context) {
	bookingID, ok := queryID(c, "booking_id")
	if !ok {
		return
	}
	list, err := h.service.ListCancellations(c.Request.Context(), bookingID)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, toCancellationResponses(list))
}

func (h *CancellationHandler) get(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	cancellation, err := h.service.GetCancellation(c.Request.Context(), id)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, toCancellationResponse(cancellation))
}

func toCancellationResponse(c *domain.Cancellation) cancellationResponse {
	return cancellationResponse{
		ID:            c.ID,
		BookingID:     c.BookingID,
		VehicleID:     c.VehicleID,
		SeatsCanceled: c.SeatsCanceled,
		CreatedAt:     c.CreatedAt.Format(time.RFC3339),
	}
}

func toCancellationResponses(list []domain.Cancellation) []cancellationResponse {
	resp := make([]cancellationResponse, 0, len(list))
	for i := range list {
		resp = append(resp, toCancellationResponse(&list[i]))
	}
	return resp
}
