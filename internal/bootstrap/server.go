package bootstrap

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"path/filepath"
	"strings"
	"time"

	"github.com/Domenick1991/flightbooking/api"
	"github.com/Domenick1991/flightbooking/config"
	bookingsapi "github.com/Domenick1991/flightbooking/internal/api/bookings_service_api"
	flightsapi "github.com/Domenick1991/flightbooking/internal/api/flights_service_api"
	"github.com/Domenick1991/flightbooking/internal/service/booking"
	"github.com/Domenick1991/flightbooking/internal/service/flights"
	"github.com/grpc-ecosystem/grpc-gateway/v2/runtime"
	"github.com/rs/cors"
	httpSwagger "github.com/swaggo/http-swagger"
	"go.uber.org/zap"
	"google.golang.org/grpc"
	"google.golang.org/grpc/credentials/insecure"
	"google.golang.org/grpc/health"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"
	"google.golang.org/grpc/reflection"
)

const shutdownTimeout = 5 * time.Second

type Servers struct {
	grpcServer *grpc.Server
	httpServer *http.Server
	health     *health.Server
	healthConn *grpc.ClientConn
}

// Run starts the gRPC server and the HTTP server (REST API, healthz and
// swagger) and blocks until ctx is cancelled or a server fails.
func Run(ctx context.Context, cfg *config.Config, log *zap.Logger, flightSvc flights.FlightUseCase, bookingSvc booking.BookingUseCase) error {
	s, err := newServers(cfg, log, flightSvc, bookingSvc)
	if err != nil {
		return err
	}
	defer s.healthConn.Close()

	errCh := make(chan error, 2)

	lis, err := net.Listen("tcp", cfg.GRPC.Address)
	if err != nil {
		return fmt.Errorf("listen gRPC %s: %w", cfg.GRPC.Address, err)
	}
	go func() { errCh <- s.grpcServer.Serve(lis) }()

	go func() {
		if err := s.httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	log.Info("servers started",
		zap.String("grpc", cfg.GRPC.Address),
		zap.String("http", cfg.HTTP.Address))

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
		log.Info("shutting down servers")
		s.health.Shutdown()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		s.grpcServer.GracefulStop()
		if err := s.httpServer.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("shutdown http server: %w", err)
		}
		return nil
	}
}

func newServers(cfg *config.Config, log *zap.Logger, flightSvc flights.FlightUseCase, bookingSvc booking.BookingUseCase) (*Servers, error) {
	loc := cfg.Booking.Location()

	grpcSrv := grpc.NewServer(grpc.ChainUnaryInterceptor(unaryLogger(log)))
	bookingsapi.RegisterBookingsServiceServer(grpcSrv, bookingsapi.NewServer(bookingSvc, log, loc))
	flightsapi.RegisterFlightsServiceServer(grpcSrv, flightsapi.NewServer(flightSvc, log))

	healthSrv := health.NewServer()
	for _, name := range []string{"", bookingsapi.ServiceName, flightsapi.ServiceName} {
		healthSrv.SetServingStatus(name, healthpb.HealthCheckResponse_SERVING)
	}
	healthpb.RegisterHealthServer(grpcSrv, healthSrv)
	reflection.Register(grpcSrv)

	conn, err := grpc.NewClient(dialTarget(cfg.GRPC.Address), grpc.WithTransportCredentials(insecure.NewCredentials()))
	if err != nil {
		return nil, fmt.Errorf("dial gRPC for healthz: %w", err)
	}
	gateway := runtime.NewServeMux(runtime.WithHealthzEndpoint(healthpb.NewHealthClient(conn)))

	router := api.NewRouter(log,
		api.NewBookingHandler(bookingSvc, log,
			api.WithLocation(loc),
			api.WithTestData(cfg.Booking.EnableTestData)),
		api.NewFlightHandler(flightSvc, log),
	)

	handler := http.NewServeMux()
	handler.Handle("/api/", router)
	handler.Handle("/healthz", gateway)

	if cfg.HTTP.SwaggerDir != "" {
		docPath := filepath.Join(cfg.HTTP.SwaggerDir, "openapi.json")
		handler.HandleFunc("/swagger/doc.json", func(w http.ResponseWriter, r *http.Request) {
			http.ServeFile(w, r, docPath)
		})
		handler.Handle("/swagger/", httpSwagger.Handler(httpSwagger.URL("/swagger/doc.json")))
	}

	origins := cfg.HTTP.AllowedOrigins
	if len(origins) == 0 {
		origins = []string{"*"}
	}
	corsHandler := cors.New(cors.Options{
		AllowedOrigins: origins,
		AllowedMethods: []string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodOptions},
		AllowedHeaders: []string{"Content-Type", api.RequestIDHeader, "traceparent"},
		ExposedHeaders: []string{api.RequestIDHeader, api.TraceIDHeader},
	})

	httpSrv := &http.Server{
		Addr:              cfg.HTTP.Address,
		Handler:           corsHandler.Handler(handler),
		ReadHeaderTimeout: 10 * time.Second,
	}

	return &Servers{
		grpcServer: grpcSrv,
		httpServer: httpSrv,
		health:     healthSrv,
		healthConn: conn,
	}, nil
}

// dialTarget turns a listen address such as ":9090" into something dialable.
func dialTarget(addr string) string {
	if strings.HasPrefix(addr, ":") {
		return "localhost" + addr
	}
	return addr
}

func unaryLogger(log *zap.Logger) grpc.UnaryServerInterceptor {
	return func(ctx context.Context, req any, info *grpc.UnaryServerInfo, handler grpc.UnaryHandler) (any, error) {
		start := time.Now()
		resp, err := handler(ctx, req)
		fields := []zap.Field{
			zap.String("method", info.FullMethod),
			zap.Duration("latency", time.Since(start)),
		}
		if err != nil {
			log.Warn("rpc completed with error", append(fields, zap.Error(err))...)
		} else {
			log.Info("rpc completed", fields...)
		}
		return resp, err
	}
}
