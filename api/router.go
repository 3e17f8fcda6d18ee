package api

import (
	"net/http"
	"time"

	"github.com/barals/TheBusBookingCompany/internal/service/inventory"
	"github.com/barals/TheBusBookingCompany/internal/service/vehicles"
	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

const requestIDHeader = "X-Request-ID"

type RouterConfig struct {
	AllowedOrigins []string
	Logger         *zap.Logger
}

// NewRouter mounts the REST API under /api.
func NewRouter(cfg RouterConfig, vehicleSvc vehicles.VehicleUseCase, inventorySvc inventory.InventoryUseCase) *gin.Engine {
	logger := cfg.Logger
	if logger == nil {
		logger = zap.NewNop()
	}

	r := gin.New()
	r.Use(requestID(), requestLogger(logger), gin.Recovery(), corsMiddleware(cfg.AllowedOrigins))

	r.NoRoute(func(c *gin.Context) {
		c.JSON(http.StatusNotFound, errorResponse{Code: "NOT_FOUND", Error: "route not found"})
	})

	v1 := r.Group("/api/v1")
	{
		vehicleGroup := v1.Group("/vehicles")
		NewVehicleHandler(vehicleSvc).Register(vehicleGroup)
		capacity := NewCapacityHandler(inventorySvc)
		capacity.Register(vehicleGroup)
		capacity.RegisterAdmin(v1.Group("/admin"))

		NewBookingHandler(inventorySvc).Register(v1.Group("/bookings"))
		NewCancellationHandler(inventorySvc).Register(v1.Group("/cancellations"))
	}
	return r
}

func corsMiddleware(origins []string) gin.HandlerFunc {
	cfg := cors.Config{
		AllowMethods:     []string{"GET", "POST", "PATCH", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Content-Type", "Accept", requestIDHeader},
		ExposeHeaders:    []string{requestIDHeader, "Retry-After"},
		AllowCredentials: len(origins) > 0,
		MaxAge:           12 * time.Hour,
	}
	if len(origins) == 0 {
		cfg.AllowAllOrigins = true
	} else {
		cfg.AllowOrigins = origins
	}
	return cors.New(cfg)
}

func requestID() gin.HandlerFunc {
	return func(c *gin.Context) {
		rid := c.GetHeader(requestIDHeader)
		if rid == "" {
			rid = uuid.NewString()
		}
		c.Set("request_id", rid)
		c.Header(requestIDHeader, rid)
		c.Next()
	}
}

func requestLogger(logger *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		fields := []zap.Field{
			zap.String("request_id", c.GetString("request_id")),
			zap.String("method", c.Request.Method),
			zap.String("path", c.FullPath()),
			zap.Int("status", c.Writer.Status()),
			zap.Duration("latency", time.Since(start)),
			zap.String("ip", c.ClientIP()),
		}
		if len(c.Errors) > 0 {
			fields = append(fields, zap.String("error", c.Errors.Last().Error()))
		}

		switch status := c.Writer.Status(); {
		case status >= http.StatusInternalServerError:
			logger.Error("http request", fields...)
		case status >= http.StatusBadRequest:
			logger.Warn("http request", fields...)
		default:
			logger.Debug("http request", fields...)
		}
	}
}
