package observability

import (
	"os"

	"github.com/barals/TheBusBookingCompany/config"
	"go.opentelemetry.io/contrib/bridges/otelzap"
	"go.opentelemetry.io/otel/log/global"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// NewLogger builds a JSON stdout logger. With an OTLP endpoint configured the
// core is teed into the otel log bridge, so Setup must run first.
func NewLogger(cfg config.TelemetryConfig) (*zap.Logger, error) {
	level, err := zapcore.ParseLevel(cfg.LogLevel)
	if err != nil {
		return nil, err
	}

	encoderConfig := zap.NewProductionEncoderConfig()
	encoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder
	core := zapcore.NewCore(
		zapcore.NewJSONEncoder(encoderConfig),
		zapcore.Lock(os.Stdout),
		level,
	)

	if cfg.OTLPEndpoint != "" {
		otelCore := otelzap.NewCore(cfg.ServiceName, otelzap.WithLoggerProvider(global.GetLoggerProvider()))
		core = zapcore.NewTee(core, otelCore)
	}

	return zap.New(core,
		zap.AddCaller(),
		zap.AddStacktrace(zapcore.ErrorLevel),
		zap.Fields(zap.String("service.name", cfg.ServiceName)),
	), nil
}
