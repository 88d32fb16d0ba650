package bootstrap

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"time"

	"github.com/Domenick1991/airadmin/api"
	"github.com/Domenick1991/airadmin/config"
	airportsapi "github.com/Domenick1991/airadmin/internal/api/airports_service_api"
	usersapi "github.com/Domenick1991/airadmin/internal/api/users_service_api"
	"github.com/Domenick1991/airadmin/internal/metrics"
	"github.com/Domenick1991/airadmin/internal/service/airports"
	"github.com/Domenick1991/airadmin/internal/service/users"
	"github.com/gin-gonic/gin"
	"github.com/grpc-ecosystem/grpc-gateway/v2/runtime"
	httpSwagger "github.com/swaggo/http-swagger"
	"go.uber.org/zap"
	"google.golang.org/grpc"
	"google.golang.org/grpc/credentials/insecure"
	"google.golang.org/grpc/health"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"
	"google.golang.org/grpc/reflection"
	"google.golang.org/protobuf/encoding/protojson"
)

const (
	shutdownTimeout     = 5 * time.Second
	healthCheckInterval = 15 * time.Second
)

// Check probes one backing service. A failing check marks the process
// NOT_SERVING on the gRPC health service.
type Check func(ctx context.Context) error

// Services is everything the servers need from the application layer.
type Services struct {
	Airports airports.AirportUseCase
	Users    users.UserUseCase
	Sessions api.SessionStore
	Audit    api.AuditLog
	Checks   map[string]Check
}

type Servers struct {
	grpcServer  *grpc.Server
	health      *health.Server
	gatewayConn *grpc.ClientConn
	gateway     *http.Server
	admin       *http.Server
}

// Run starts the gRPC health server, the JSON gateway and the admin web UI
// and blocks until ctx is canceled or a server fails.
func Run(ctx context.Context, cfg *config.Config, svc Services, logger *zap.Logger) error {
	metrics.Init()

	s, err := newServers(cfg, svc, logger)
	if err != nil {
		return err
	}

	errCh := make(chan error, 3)

	lis, err := net.Listen("tcp", cfg.GRPC.Address)
	if err != nil {
		return fmt.Errorf("listen gRPC %s: %w", cfg.GRPC.Address, err)
	}
	go func() { errCh <- s.grpcServer.Serve(lis) }()
	go func() { errCh <- serveHTTP(s.gateway) }()
	go func() { errCh <- serveHTTP(s.admin) }()

	watchCtx, stopWatch := context.WithCancel(ctx)
	defer stopWatch()
	go watchHealth(watchCtx, s.health, svc.Checks, logger)

	logger.Info("servers started",
		zap.String("grpc", cfg.GRPC.Address),
		zap.String("gateway", cfg.HTTP.GatewayAddress),
		zap.String("admin", cfg.HTTP.Address))

	select {
	case err := <-errCh:
		_ = s.stop(context.Background())
		return err
	case <-ctx.Done():
		logger.Info("shutting down servers")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		return s.stop(shutdownCtx)
	}
}

func serveHTTP(srv *http.Server) error {
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return fmt.Errorf("serve %s: %w", srv.Addr, err)
	}
	return nil
}

func (s *Servers) stop(ctx context.Context) error {
	s.health.Shutdown()

	var errs []error
	if err := s.admin.Shutdown(ctx); err != nil {
		errs = append(errs, fmt.Errorf("shutdown admin server: %w", err))
	}
	if err := s.gateway.Shutdown(ctx); err != nil {
		errs = append(errs, fmt.Errorf("shutdown gateway server: %w", err))
	}
	if err := s.gatewayConn.Close(); err != nil {
		errs = append(errs, fmt.Errorf("close gateway connection: %w", err))
	}
	s.grpcServer.GracefulStop()
	return errors.Join(errs...)
}

func newServers(cfg *config.Config, svc Services, logger *zap.Logger) (*Servers, error) {
	grpcSrv := grpc.NewServer()
	healthSrv := health.NewServer()
	healthpb.RegisterHealthServer(grpcSrv, healthSrv)
	reflection.Register(grpcSrv)

	conn, err := grpc.NewClient(cfg.GRPC.Address, grpc.WithTransportCredentials(insecure.NewCredentials()))
	if err != nil {
		return nil, fmt.Errorf("dial gRPC %s: %w", cfg.GRPC.Address, err)
	}

	gateway, err := newGatewayHandler(cfg, svc, healthpb.NewHealthClient(conn))
	if err != nil {
		_ = conn.Close()
		return nil, err
	}

	admin, err := newAdminHandler(cfg, svc, logger)
	if err != nil {
		_ = conn.Close()
		return nil, err
	}

	return &Servers{
		grpcServer:  grpcSrv,
		health:      healthSrv,
		gatewayConn: conn,
		gateway: &http.Server{
			Addr:              cfg.HTTP.GatewayAddress,
			Handler:           gateway,
			ReadHeaderTimeout: 10 * time.Second,
		},
		admin: &http.Server{
			Addr:              cfg.HTTP.Address,
			Handler:           admin,
			ReadHeaderTimeout: 10 * time.Second,
		},
	}, nil
}

// newGatewayHandler serves the JSON API, /healthz, /metrics and, when a
// swagger directory is configured, the API docs.
func newGatewayHandler(cfg *config.Config, svc Services, healthClient healthpb.HealthClient) (http.Handler, error) {
	mux := runtime.NewServeMux(
		runtime.WithHealthzEndpoint(healthClient),
		runtime.WithMarshalerOption(runtime.MIMEWildcard, &runtime.JSONPb{
			MarshalOptions: protojson.MarshalOptions{
				UseProtoNames:   true,
				EmitUnpopulated: true,
			},
			UnmarshalOptions: protojson.UnmarshalOptions{DiscardUnknown: true},
		}),
	)
	if err := airportsapi.NewServer(svc.Airports).Register(mux); err != nil {
		return nil, fmt.Errorf("register airports gateway: %w", err)
	}
	if err := usersapi.NewServer(svc.Users).Register(mux); err != nil {
		return nil, fmt.Errorf("register users gateway: %w", err)
	}

	handler := http.NewServeMux()
	handler.Handle("/", mux)
	handler.Handle("/metrics", metrics.Handler())

	if cfg.HTTP.SwaggerDir != "" {
		fs := http.FileServer(http.Dir(cfg.HTTP.SwaggerDir))
		handler.Handle("/swagger/", http.StripPrefix("/swagger/", fs))
		handler.Handle("/docs/", httpSwagger.Handler(httpSwagger.URL("/swagger/admin.swagger.json")))
	}
	return handler, nil
}

func newAdminHandler(cfg *config.Config, svc Services, logger *zap.Logger) (http.Handler, error) {
	r := gin.New()
	r.Use(gin.Recovery(), api.RequestLogger(logger), metrics.GinMiddleware())

	opts := []api.Option{api.WithLogger(logger)}
	if svc.Audit != nil {
		opts = append(opts, api.WithAuditLog(svc.Audit))
	}
	h := api.NewHandler(svc.Airports, svc.Users, svc.Sessions, cfg.Admin, opts...)
	if err := h.Register(r); err != nil {
		return nil, fmt.Errorf("register admin routes: %w", err)
	}
	return r, nil
}

// watchHealth runs every check on an interval and publishes the combined
// result as the server-wide health status.
func watchHealth(ctx context.Context, srv *health.Server, checks map[string]Check, logger *zap.Logger) {
	ticker := time.NewTicker(healthCheckInterval)
	defer ticker.Stop()

	last := healthpb.HealthCheckResponse_UNKNOWN
	for {
		status := runChecks(ctx, checks, logger)
		if status != last {
			logger.Info("health status changed", zap.String("status", status.String()))
			last = status
		}
		srv.SetServingStatus("", status)

		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
		}
	}
}

func runChecks(ctx context.Context, checks map[string]Check, logger *zap.Logger) healthpb.HealthCheckResponse_ServingStatus {
	status := healthpb.HealthCheckResponse_SERVING
	for name, check := range checks {
		checkCtx, cancel := context.WithTimeout(ctx, healthCheckInterval/3)
		err := check(checkCtx)
		cancel()
		if err != nil {
			logger.Warn("health check failed", zap.String("check", name), zap.Error(err))
			status = healthpb.HealthCheckResponse_NOT_SERVING
		}
	}
	return status
}
