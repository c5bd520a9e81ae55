package server

import (
	"context"
	"errors"
	"os"
	"os/signal"
	"syscall"

	"github.com/prometheus/client_golang/prometheus"

	"SegPull/internal/domain/repository"
	"SegPull/internal/service/ibisworld"
	"SegPull/internal/usecase"
	"SegPull/pkg/config"
	xhttp "SegPull/pkg/http"
	applogger "SegPull/pkg/logger"
)

// App encapsulates the application lifecycle: the commands use its client
// and exporter, Serve runs the HTTP API.
type App struct {
	cfg         *config.Config
	log         *applogger.Logger
	registry    *prometheus.Registry
	client      *ibisworld.Client
	exporter    *usecase.SegmentExporter
	httpHandler xhttp.Handler
	sinks       []repository.RecordSink
	httpServer  *xhttp.Server
}

// New creates a new App instance with all dependencies.
func New(
	cfg *config.Config,
	log *applogger.Logger,
	registry *prometheus.Registry,
	client *ibisworld.Client,
	exporter *usecase.SegmentExporter,
	httpHandler xhttp.Handler,
	sinks []repository.RecordSink,
) *App {
	return &App{
		cfg:         cfg,
		log:         log,
		registry:    registry,
		client:      client,
		exporter:    exporter,
		httpHandler: httpHandler,
		sinks:       sinks,
	}
}

func (a *App) Config() *config.Config { return a.cfg }

func (a *App) Logger() *applogger.Logger { return a.log }

func (a *App) Client() *ibisworld.Client { return a.client }

func (a *App) Exporter() *usecase.SegmentExporter { return a.exporter }

// Serve runs the HTTP API until ctx is done or SIGINT/SIGTERM arrives.
func (a *App) Serve(ctx context.Context) error {
	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	opts := []xhttp.ServerOption{
		xhttp.WithPort(a.cfg.Server.Port),
		xhttp.WithTimeouts(a.cfg.Server.ReadTimeout, a.cfg.Server.WriteTimeout, a.cfg.Server.ShutdownTimeout),
		xhttp.WithSlowThreshold(a.cfg.Server.SlowThreshold),
		xhttp.WithLogger(a.log),
	}
	if a.cfg.Metrics.Enabled {
		opts = append(opts, xhttp.WithRegistry(a.registry))
	} else {
		opts = append(opts, xhttp.WithRegistry(prometheus.NewRegistry()))
	}
	a.httpServer = xhttp.NewServer(a.httpHandler, opts...)

	if err := a.httpServer.Start(); err != nil {
		return err
	}
	a.log.Info("api started", applogger.Int("port", a.cfg.Server.Port))

	<-ctx.Done()
	a.log.Info("shutdown signal received")
	return a.httpServer.Stop(context.Background())
}

// Close releases the record sinks. The cache store is released by the
// injector's cleanup.
func (a *App) Close() error {
	var errs []error
	for _, s := range a.sinks {
		if err := s.Close(); err != nil {
			a.log.Warn("sink close error", applogger.String("sink", s.Name()), applogger.Error(err))
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}
