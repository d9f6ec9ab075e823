package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"car-park/internal/config"
	"car-park/internal/logging"
	"car-park/internal/parking"
	"car-park/internal/server"
	"car-park/internal/shell"
	"car-park/internal/telemetry"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

const (
	modeCLI    = "cli"
	modeServer = "server"
	modeBoth   = "both"
)

type app struct {
	cfg       *config.Config
	telemetry *telemetry.Provider
	carPark   *parking.InstrumentedEngine
}

func newRootCmd() *cobra.Command {
	var mode string
	v := viper.New()

	cmd := &cobra.Command{
		Use:   "car-park",
		Short: "Car park space allocation and billing",
		Long: `Runs a fixed-capacity car park that assigns the lowest free space on
entry and bills vehicles per minute on exit.

In cli mode commands are read from stdin, in server mode the HTTP API is
served, and both runs the two against the same car park.`,
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, _ []string) error {
			switch mode {
			case modeCLI, modeServer, modeBoth:
			default:
				return fmt.Errorf("invalid mode %q: must be cli, server, or both", mode)
			}

			cfg, err := config.LoadFrom(v)
			if err != nil {
				return fmt.Errorf("failed to load configuration: %w", err)
			}

			// stdout belongs to the shell whenever it is running.
			logOut := os.Stdout
			if mode != modeServer {
				logOut = os.Stderr
			}
			logging.InitWithWriter(cfg.Log.Level, cfg.Log.Format, logOut)

			return run(cmd.Context(), mode, cfg)
		},
	}

	flags := cmd.Flags()
	flags.StringVarP(&mode, "mode", "m", modeCLI, "Mode to run: cli, server, or both")
	flags.StringP("port", "p", "8080", "Port for HTTP server")
	flags.IntP("spaces", "s", 50, "Total number of parking spaces")
	flags.String("log-level", "info", "Log level: debug, info, warn, error")

	_ = v.BindPFlag("app.port", flags.Lookup("port"))
	_ = v.BindPFlag("parking.total_spaces", flags.Lookup("spaces"))
	_ = v.BindPFlag("log.level", flags.Lookup("log-level"))

	return cmd
}

func run(ctx context.Context, mode string, cfg *config.Config) error {
	ctx, stop := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	tp, err := telemetry.NewProvider(ctx, telemetry.Options{
		ServiceName:    cfg.Telemetry.ServiceName,
		Endpoint:       cfg.Telemetry.Endpoint,
		Environment:    cfg.App.Environment,
		ExportInterval: cfg.Telemetry.ExportInterval,
		Disabled:       !cfg.Telemetry.Enabled,
	})
	if err != nil {
		return fmt.Errorf("failed to initialize telemetry: %w", err)
	}
	defer shutdownTelemetry(tp)

	engine := parking.NewEngine(parking.NewRegistry(cfg.Parking.TotalSpaces))
	carPark, err := parking.NewInstrumentedEngine(engine, tp.Tracer(), tp.Meter())
	if err != nil {
		return fmt.Errorf("failed to instrument car park: %w", err)
	}

	logging.Logger().Info().
		Str("mode", mode).
		Int("total_spaces", cfg.Parking.TotalSpaces).
		Bool("telemetry", cfg.Telemetry.Enabled).
		Msg("car park starting")

	a := &app{cfg: cfg, telemetry: tp, carPark: carPark}
	switch mode {
	case modeServer:
		return a.runServer(ctx)
	case modeBoth:
		return a.runBoth(ctx)
	default:
		a.runCLI(ctx)
		return nil
	}
}

func (a *app) runCLI(ctx context.Context) {
	sh := shell.New(a.carPark, a.telemetry.Tracer(), os.Stdin, os.Stdout)
	sh.Run(ctx)
}

func (a *app) runServer(ctx context.Context) error {
	srv := server.NewServer(a.cfg, a.carPark)

	serverDone := make(chan error, 1)
	go func() {
		serverDone <- srv.Start()
	}()

	select {
	case err := <-serverDone:
		return err
	case <-ctx.Done():
		logging.Logger().Info().Msg("received shutdown signal")
	}

	return a.shutdownServer(srv)
}

func (a *app) runBoth(ctx context.Context) error {
	srv := server.NewServer(a.cfg, a.carPark)

	serverDone := make(chan error, 1)
	go func() {
		logging.Logger().Info().Str("addr", srv.GetAddress()).Msg("starting HTTP server alongside shell")
		serverDone <- srv.Start()
	}()

	cliDone := make(chan struct{})
	go func() {
		a.runCLI(ctx)
		close(cliDone)
	}()

	select {
	case err := <-serverDone:
		if err != nil {
			return err
		}
	case <-cliDone:
		logging.Logger().Info().Msg("shell exited")
	case <-ctx.Done():
		logging.Logger().Info().Msg("received shutdown signal")
	}

	return a.shutdownServer(srv)
}

func (a *app) shutdownServer(srv *server.Server) error {
	ctx, cancel := context.WithTimeout(context.Background(), a.cfg.HTTP.ShutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		return fmt.Errorf("server shutdown: %w", err)
	}
	return nil
}

func shutdownTelemetry(tp *telemetry.Provider) {
	logging.Logger().Info().Msg("shutting down telemetry")
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := tp.Shutdown(ctx); err != nil {
		logging.Logger().Error().Err(err).Msg("error shutting down telemetry")
	}
}
