package api

import (
	"net/http"
	"strconv"
	"time"

	"github.com/barals/TheBusBookingCompany/internal/domain"
	"github.com/barals/TheBusBookingCompany/internal/service/vehicles"
	"github.com/gin-gonic/gin"
)

type VehicleHandler struct {
	service vehicles.VehicleUseCase
}

type vehicleResponse struct {
	ID          int64  `json:"id"`
	Number      string `json:"number"`
	RouteNumber string `json:"route_number"`
	Capacity    int    `json:"capacity"`
	CreatedAt   string `json:"created_at"`
}

func NewVehicleHandler(service vehicles.VehicleUseCase) *VehicleHandler {
	return &VehicleHandler{service: service}
}

func (h *VehicleHandler) Register(router *gin.RouterGroup) {
	router.GET("", h.list)
	router.POST("", h.create)
	router.GET("/:id", h.get)
}

func (h *VehicleHandler) list(c *gin.Context) {
	list, err := h.service.List(c.Request.Context())
	if err != nil {
		writeError(c, err)
		return
	}
	resp := make([]vehicleResponse, 0, len(list))
	for i := range list {
		resp = append(resp, toVehicleResponse(&list[i]))
	}
	c.JSON(http.StatusOK, resp)
}

func (h *VehicleHandler) get(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	vehicle, err := h.service.GetByID(c.Request.Context(), id)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, toVehicleResponse(vehicle))
}

func (h *VehicleHandler) create(c *gin.Context) {
	var req vehicles.CreateVehicleInput
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err.Error())
		return
	}

	vehicle, err := h.service.Create(c.Request.Context(), req)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusCreated, toVehicleResponse(vehicle))
}

func toVehicleResponse(v *domain.Vehicle) vehicleResponse {
	return vehicleResponse{
		ID:          v.ID,
		Number:      v.Number,
		RouteNumber: v.RouteNumber,
		Capacity:    v.Capacity,
		CreatedAt:   v.CreatedAt.Format(time.RFC3339),
	}
}

func pathID(c *gin.Context, name string) (int64, bool) {
	id, err := strconv.ParseInt(c.Param(name), 10, 64)
	if err != nil || id <= 0 {
		badRequest(c, "invalid "+name)
		return 0, false
	}
	return id, true
}

func queryID(c *gin.Context, name string) (int64, bool) {
	raw := c.Query(name)
	if raw == "" {
		return 0, true
	}
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || id <= 0 {
		badRequest(c, "invalid "+name)
		return 0, false
	}
	return id, true
}
