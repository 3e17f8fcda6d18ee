package api

import (
	"context"
	"errors"
	"net/http"

	"github.com/barals/TheBusBookingCompany/internal/domain"
	"github.com/gin-gonic/gin"
)

// statusClientClosedRequest is the nginx convention for a caller that hung up.
const statusClientClosedRequest = 499

type errorResponse struct {
	Code  string `json:"code"`
	Error string `json:"error"`
}

func statusFor(err error) int {
	switch domain.KindOf(err) {
	case domain.KindNotFound:
		return http.StatusNotFound
	case domain.KindInvalidArgument:
		return http.StatusBadRequest
	case domain.KindInsufficientCapacity, domain.KindOverCancellation:
		return http.StatusConflict
	case domain.KindContentionTimeout:
		return http.StatusServiceUnavailable
	case domain.KindCapacityViolation, domain.KindPersistenceFailure:
		return http.StatusInternalServerError
	}
	switch {
	case errors.Is(err, context.DeadlineExceeded):
		return http.StatusGatewayTimeout
	case errors.Is(err, context.Canceled):
		return statusClientClosedRequest
	}
	return http.StatusInternalServerError
}

func writeError(c *gin.Context, err error) {
	code := string(domain.KindOf(err))
	if code == "" {
		code = "INTERNAL"
	}
	if domain.IsRetryable(err) {
		c.Header("Retry-After", "1")
	}
	_ = c.Error(err)
	c.JSON(statusFor(err), errorResponse{Code: code, Error: err.Error()})
}

func badRequest(c *gin.Context, msg string) {
	c.JSON(http.StatusBadRequest, errorResponse{Code: string(domain.KindInvalidArgument), Error: msg})
}
