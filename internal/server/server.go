package server

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"car-park/internal/config"
	"car-park/internal/logging"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

type Server struct {
	httpServer *http.Server
	handler    *Handler
}

func NewServer(cfg *config.Config, carPark CarPark) *Server {
	handler := NewHandler(carPark, cfg.Telemetry.ServiceName)

	httpServer := &http.Server{
		Addr:         ":" + cfg.App.Port,
		Handler:      NewRouter(handler, carPark, cfg.Telemetry.ServiceName),
		ReadTimeout:  cfg.HTTP.ReadTimeout,
		WriteTimeout: cfg.HTTP.WriteTimeout,
		IdleTimeout:  cfg.HTTP.IdleTimeout,
	}

	return &Server{
		httpServer: httpServer,
		handler:    handler,
	}
}

func NewRouter(handler *Handler, carPark CarPark, serviceName string) http.Handler {
	r := chi.NewRouter()

	r.Use(RecoveryMiddleware)
	r.Use(RequestIDMiddleware)
	r.Use(TracingMiddleware(serviceName))
	r.Use(LoggingMiddleware)
	r.Use(CORSMiddleware)

	r.Get("/health", handler.HealthCheck)
	r.Method(http.MethodGet, "/metrics", promhttp.HandlerFor(newMetricsRegistry(carPark), promhttp.HandlerOpts{}))

	r.Route("/parking", func(r chi.Router) {
		r.Get("/", handler.GetStatus)
		r.Post("/", handler.ParkVehicle)
		r.Post("/bill", handler.GenerateBill)
		r.Get("/spaces", handler.ListSpaces)
		r.Get("/vehicles/{vehicleReg}", handler.FindVehicle)
	})

	return r
}

// Start blocks until the server stops. A clean Shutdown returns nil.
func (s *Server) Start() error {
	logging.Logger().Info().Str("addr", s.httpServer.Addr).Msg("starting HTTP server")
	if err := s.httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

func (s *Server) Shutdown(ctx context.Context) error {
	logging.Logger().Info().Msg("shutting down HTTP server")
	return s.httpServer.Shutdown(ctx)
}

func (s *Server) GetAddress() string {
	return fmt.Sprintf("http://localhost%s", s.httpServer.Addr)
}
