package server

import (
	"context"
	"errors"
	"os"
	"os/signal"
	"syscall"

	domrepo "CandlePull/internal/domain/repository"
	"CandlePull/internal/usecase"
	pkgcache "CandlePull/pkg/cache"
	"CandlePull/pkg/config"
	xhttp "CandlePull/pkg/http"
	pkgkafka "CandlePull/pkg/kafka"
	applogger "CandlePull/pkg/logger"
)

// App encapsulates the entire application lifecycle.
type App struct {
	cfg         *config.Config
	log         *applogger.Logger
	httpHandler xhttp.Handler
	httpServer  *xhttp.Server
	scheduler   *usecase.Scheduler
	consumer    *pkgkafka.Consumer
	jobs        pkgkafka.MessageHandler
	writer      domrepo.CandleWriter
	publisher   domrepo.CandlePublisher
	cache       *pkgcache.RedisCache
}

// New creates a new App instance with all dependencies. consumer and jobs may
// be nil when Kafka is disabled.
func New(
	cfg *config.Config,
	log *applogger.Logger,
	handler xhttp.Handler,
	scheduler *usecase.Scheduler,
	consumer *pkgkafka.Consumer,
	jobs pkgkafka.MessageHandler,
	writer domrepo.CandleWriter,
	publisher domrepo.CandlePublisher,
	cache *pkgcache.RedisCache,
) *App {
	if log == nil {
		log = applogger.Nop()
	}
	return &App{
		cfg:         cfg,
		log:         log,
		httpHandler: handler,
		scheduler:   scheduler,
		consumer:    consumer,
		jobs:        jobs,
		writer:      writer,
		publisher:   publisher,
		cache:       cache,
	}
}

// Run starts the application and blocks until interrupted.
func (a *App) Run() error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	return a.RunContext(ctx)
}

// RunContext starts every component and blocks until ctx is done.
func (a *App) RunContext(ctx context.Context) error {
	a.httpServer = xhttp.NewServer(a.httpHandler, a.log,
		xhttp.WithPort(a.cfg.Server.Port),
		xhttp.WithTimeouts(a.cfg.Server.ReadTimeout, a.cfg.Server.WriteTimeout, a.cfg.Server.ShutdownTimeout),
	)

	if a.scheduler != nil && a.cfg.Scheduler.Enabled {
		a.scheduler.Start(ctx)
	}

	if a.consumer != nil && a.jobs != nil {
		a.consumer.RegisterHandler(a.jobs)
		if err := a.consumer.Start(); err != nil {
			a.log.Error("kafka consumer error", applogger.Error(err))
		} else {
			a.log.Info("kafka consumer started", applogger.String("topic", a.jobs.Topic()))
		}
	}

	if err := a.httpServer.Start(); err != nil {
		a.log.Error("http server start error", applogger.Error(err))
		return errors.Join(err, a.shutdown())
	}
	a.log.Info("candlepull started",
		applogger.String("env", a.cfg.Environment),
		applogger.String("storage", a.cfg.Storage.Type),
		applogger.Int("port", a.cfg.Server.Port),
	)

	<-ctx.Done()
	a.log.Info("shutdown signal received")
	return a.shutdown()
}

// shutdown gracefully stops all services.
func (a *App) shutdown() error {
	ctx, cancel := context.WithTimeout(context.Background(), a.cfg.Server.ShutdownTimeout)
	defer cancel()

	if a.httpServer != nil {
		if err := a.httpServer.Stop(ctx); err != nil {
			a.log.Error("http shutdown error", applogger.Error(err))
		}
	}

	if a.scheduler != nil {
		a.scheduler.Stop()
	}

	if a.consumer != nil {
		if err := a.consumer.Stop(ctx); err != nil {
			a.log.Warn("kafka consumer stop error", applogger.Error(err))
		}
	}

	// flush aggregated error logs before the producer goes away
	a.log.RemoveCollector()

	if a.publisher != nil {
		if err := a.publisher.Close(); err != nil {
			a.log.Warn("candle publisher close error", applogger.Error(err))
		}
	}
	if a.writer != nil {
		if err := a.writer.Close(); err != nil {
			a.log.Warn("candle writer close error", applogger.Error(err))
		}
	}
	if a.cache != nil {
		if err := a.cache.Close(); err != nil {
			a.log.Warn("redis close error", applogger.Error(err))
		}
	}

	a.log.Info("shutdown complete")
	return nil
}
