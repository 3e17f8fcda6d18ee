package bootstrap

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"strings"
	"time"

	"github.com/barals/TheBusBookingCompany/api"
	"github.com/barals/TheBusBookingCompany/config"
	inventoryapi "github.com/barals/TheBusBookingCompany/internal/api/inventory_service_api"
	"github.com/barals/TheBusBookingCompany/internal/service/inventory"
	"github.com/barals/TheBusBookingCompany/internal/service/vehicles"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	httpSwagger "github.com/swaggo/http-swagger"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
	"google.golang.org/grpc"
	"google.golang.org/grpc/credentials/insecure"
	"google.golang.org/grpc/status"
)

const shutdownTimeout = 5 * time.Second

// HealthCheck reports whether a dependency is reachable.
type HealthCheck func(ctx context.Context) error

type Deps struct {
	Vehicles  vehicles.VehicleUseCase
	Inventory inventory.InventoryUseCase
	Registry  *prometheus.Registry
	Logger    *zap.Logger
	Checks    map[string]HealthCheck
}

type Servers struct {
	grpcServer *grpc.Server
	httpServer *http.Server
	gatewayCC  *grpc.ClientConn
}

// Run starts gRPC and HTTP (gateway, REST, metrics, swagger) servers and blocks until ctx is canceled or a server fails.
func Run(ctx context.Context, cfg *config.Config, deps Deps) error {
	if deps.Logger == nil {
		deps.Logger = zap.NewNop()
	}
	s, err := newServers(cfg, deps)
	if err != nil {
		return err
	}
	defer s.gatewayCC.Close()

	lis, err := net.Listen("tcp", cfg.GRPC.Address)
	if err != nil {
		return fmt.Errorf("listen gRPC %s: %w", cfg.GRPC.Address, err)
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		deps.Logger.Info("grpc server started", zap.String("address", cfg.GRPC.Address))
		return s.grpcServer.Serve(lis)
	})
	g.Go(func() error {
		deps.Logger.Info("http server started", zap.String("address", cfg.HTTP.Address))
		if err := s.httpServer.ListenAndServe(); !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		s.grpcServer.GracefulStop()
		if err := s.httpServer.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("shutdown http server: %w", err)
		}
		deps.Logger.Info("servers stopped")
		return nil
	})
	return g.Wait()
}

func newServers(cfg *config.Config, deps Deps) (*Servers, error) {
	grpcSrv := grpc.NewServer(grpc.ChainUnaryInterceptor(loggingInterceptor(deps.Logger)))
	inventoryapi.RegisterInventoryServiceServer(grpcSrv, inventoryapi.NewServer(deps.Inventory))

	cc, err := grpc.NewClient(dialTarget(cfg.GRPC.Address), grpc.WithTransportCredentials(insecure.NewCredentials()))
	if err != nil {
		return nil, fmt.Errorf("dial gRPC for gateway: %w", err)
	}
	gateway, err := inventoryapi.NewGateway(inventoryapi.NewInventoryServiceClient(cc))
	if err != nil {
		cc.Close()
		return nil, fmt.Errorf("register inventory gateway: %w", err)
	}

	router := api.NewRouter(api.RouterConfig{
		AllowedOrigins: cfg.HTTP.AllowedOrigins,
		Logger:         deps.Logger,
	}, deps.Vehicles, deps.Inventory)

	return &Servers{
		grpcServer: grpcSrv,
		httpServer: &http.Server{
			Addr:              cfg.HTTP.Address,
			Handler:           newHTTPHandler(cfg.HTTP, deps, gateway, router),
			ReadHeaderTimeout: 10 * time.Second,
		},
		gatewayCC: cc,
	}, nil
}

func newHTTPHandler(cfg config.HTTPConfig, deps Deps, gateway, router http.Handler) http.Handler {
	handler := http.NewServeMux()
	handler.Handle("/v1/", gateway)
	handler.Handle("/api/", router)
	handler.HandleFunc("/healthz", healthHandler(deps.Checks))

	if deps.Registry != nil {
		handler.Handle("/metrics", promhttp.HandlerFor(deps.Registry, promhttp.HandlerOpts{Registry: deps.Registry}))
	}

	if cfg.SwaggerDir != "" {
		fs := http.FileServer(http.Dir(cfg.SwaggerDir))
		handler.Handle("/swagger/", http.StripPrefix("/swagger/", fs))
		handler.Handle("/docs/", httpSwagger.Handler(httpSwagger.URL("/swagger/inventory.swagger.json")))
	}
	return handler
}

func healthHandler(checks map[string]HealthCheck) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
		defer cancel()

		var failures []string
		for name, check := range checks {
			if err := check(ctx); err != nil {
				failures = append(failures, fmt.Sprintf("%s: %v", name, err))
			}
		}

		w.Header().Set("Content-Type", "text/plain; charset=utf-8")
		if len(failures) > 0 {
			w.WriteHeader(http.StatusServiceUnavailable)
			fmt.Fprintln(w, strings.Join(failures, "\n"))
			return
		}
		fmt.Fprintln(w, "ok")
	}
}

func loggingInterceptor(logger *zap.Logger) grpc.UnaryServerInterceptor {
	return func(ctx context.Context, req interface{}, info *grpc.UnaryServerInfo, handler grpc.UnaryHandler) (interface{}, error) {
		start := time.Now()
		resp, err := handler(ctx, req)

		fields := []zap.Field{
			zap.String("method", info.FullMethod),
			zap.String("code", status.Code(err).String()),
			zap.Duration("latency", time.Since(start)),
		}
		if err != nil {
			logger.Warn("grpc request failed", append(fields, zap.Error(err))...)
		} else {
			logger.Debug("grpc request", fields...)
		}
		return resp, err
	}
}

// dialTarget turns a listen address such as ":9090" into something the
// gateway can dial.
func dialTarget(addr string) string {
	host, port, err := net.SplitHostPort(addr)
	if err != nil {
		return addr
	}
	if host == "" || host == "0.0.0.0" || host == "::" {
		host = "127.0.0.1"
	}
	return net.JoinHostPort(host, port)
}
