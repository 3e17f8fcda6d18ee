package api

import (
	"net/http"
	"time"

	"github.com/barals/TheBusBookingCompany/internal/domain"
	"github.com/barals/TheBusBookingCompany/internal/service/inventory"
	"github.com/gin-gonic/gin"
)

// CapacityHandler serves the per-vehicle ledger routes; it shares the
// /vehicles group with VehicleHandler.
type CapacityHandler struct {
	service inventory.InventoryUseCase
}

type adjustCapacityRequest struct {
	AvailableSeats *int `json:"available_seats"`
}

type capacityResponse struct {
	VehicleID      int64  `json:"vehicle_id"`
	Capacity       int    `json:"capacity"`
	AvailableSeats int    `json:"available_seats"`
	BookedSeats    int    `json:"booked_seats"`
	UpdatedAt      string `json:"updated_at"`
}

type availabilityResponse struct {
	VehicleID      int64 `json:"vehicle_id"`
	AvailableSeats int   `json:"available_seats"`
}

func NewCapacityHandler(service inventory.InventoryUseCase) *CapacityHandler {
	return &CapacityHandler{service: service}
}

func (h *CapacityHandler) Register(router *gin.RouterGroup) {
	router.GET("/:id/availability", h.availability)
	router.GET("/:id/capacity", h.get)
	router.POST("/:id/capacity", h.initialize)
	router.PATCH("/:id/capacity", h.adjust)
}

// RegisterAdmin mounts operator-only routes.
func (h *CapacityHandler) RegisterAdmin(router *gin.RouterGroup) {
	router.GET("/audit", h.audit)
}

func (h *CapacityHandler) availability(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	seats, err := h.service.Availability(c.Request.Context(), id)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, availabilityResponse{VehicleID: id, AvailableSeats: seats})
}

func (h *CapacityHandler) get(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	rec, err := h.service.GetCapacity(c.Request.Context(), id)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, toCapacityResponse(rec))
}

func (h *CapacityHandler) initialize(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	rec, err := h.service.InitCapacity(c.Request.Context(), id)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, toCapacityResponse(rec))
}

func (h *CapacityHandler) adjust(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	var req adjustCapacityRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err.Error())
		return
	}
	if req.AvailableSeats == nil {
		badRequest(c, "available_seats is required")
		return
	}

	rec, err := h.service.AdjustCapacity(c.Request.Context(), id, *req.AvailableSeats)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, toCapacityResponse(rec))
}

func (h *CapacityHandler) audit(c *gin.Context) {
	findings, err := h.service.AuditLedger(c.Request.Context())
	if err != nil {
		writeError(c, err)
		return
	}
	if findings == nil {
		findings = []inventory.AuditFinding{}
	}
	c.JSON(http.StatusOK, findings)
}

func toCapacityResponse(rec *domain.CapacityRecord) capacityResponse {
	return capacityResponse{
		VehicleID:      rec.VehicleID,
		Capacity:       rec.Capacity,
		AvailableSeats: rec.AvailableSeats,
		BookedSeats:    rec.BookedSeats(),
		UpdatedAt:      rec.UpdatedAt.Format(time.RFC3339),
	}
}
