package observability

import (
	"context"
	"testing"

	"github.com/barals/TheBusBookingCompany/config"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel"
)

func TestNewLogger(t *testing.T) {
	logger, err := NewLogger(config.TelemetryConfig{ServiceName: "bus-inventory", LogLevel: "debug"})
	require.NoError(t, err)
	assert.True(t, logger.Core().Enabled(-1))
}

func TestNewLogger_BadLevel(t *testing.T) {
	_, err := NewLogger(config.TelemetryConfig{LogLevel: "loud"})
	assert.Error(t, err)
}

func TestSetup_WithoutEndpoint(t *testing.T) {
	shutdown, err := Setup(context.Background(), config.TelemetryConfig{ServiceName: "bus-inventory"})
	require.NoError(t, err)
	assert.Contains(t, otel.GetTextMapPropagator().Fields(), "traceparent")
	assert.NoError(t, shutdown(context.Background()))
}
