package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"runtime"
	"syscall"

	"github.com/julienschmidt/httprouter"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

type AppProvider interface {
	Run() error
	Serve() func() error
	Stop(context.Context, context.Context) func() error
}

type App struct {
	logger         *zap.Logger
	config         *Config
	server         *http.Server
	redisClient    *redis.Client
	journal        JournalStorage
	cleanups       []func()
	queueConsumers []func(context.Context) error
}

// NewApp provides an instance of App.
//
//nolint:funlen
func NewApp() (AppProvider, error) {
	config, err := LoadAndInitConfigs(GitCommit, GitTag, BuildTime)
	if err != nil {
		return nil, fmt.Errorf("failed to setup app configuration: %s", err)
	}

	clock := NewClock(config.IsProduction)
	tickClock := NewTickClock(clock)
	var cleanups []func()

	// Setup the logging module. Logs are saved into files only when a folder is set.
	var logWriter *RSyncWrite
	if config.LogFolder != "" {
		if err = os.MkdirAll(config.LogFolder, 0o700); err != nil {
			return nil, fmt.Errorf("failed to create logging folder: %s", err)
		}
		logWriter = NewRSyncWriter(config, clock)
		cleanups = append(cleanups, func() {
			if cerr := logWriter.Close(); cerr != nil {
				fmt.Println("error during closing of log file: ", cerr)
			}
		})
	}
	logger, flusher := SetupLogging(config, logWriter, tickClock)
	cleanups = append([]func(){func() { _ = flusher() }}, cleanups...)

	app := &App{logger: logger, config: config, cleanups: cleanups}

	// Setup the connection to redis server only if a component needs it.
	if config.UsesRedis() {
		app.redisClient, err = GetRedisClient(config)
		if err != nil {
			app.Clean()
			return nil, fmt.Errorf("failed to connect to redis server: %s", err)
		}
	}

	// Setup the catalog events queue and its journal consumer.
	var queue Queuer
	if config.Journal.Enabled {
		if config.Journal.Queue == "redis" {
			queue = NewRedisQueue(app.redisClient, config.Redis.ReadTimeout)
		} else {
			queue = NewMemoryQueue(config.Journal.QueueCapacity)
		}

		if err = os.MkdirAll(filepath.Dir(config.Journal.FilePath), 0o700); err != nil {
			app.Clean()
			return nil, fmt.Errorf("failed to create journal folder: %s", err)
		}
		boltDBClient, err := GetBoltDBClient(config)
		if err != nil {
			app.Clean()
			return nil, fmt.Errorf("failed to connect to boltDB server: %s", err)
		}
		app.journal = NewBoltJournalStorage(logger, &config.Journal, boltDBClient)
		journalConsumer := NewJournalConsumer(logger, queue, app.journal)
		app.queueConsumers = append(app.queueConsumers, func(ctx context.Context) error {
			return journalConsumer.Consume(ctx, CatalogQueues...)
		})
	}

	// Setup the catalog repository and services.
	storage := NewMemoryBookStorage(logger, SeedBooks(clock.Now().UTC()))
	bookService := NewBookService(logger, clock, storage, queue)

	promMetrics := NewPromMetrics(func() CatalogSummary {
		summary, _ := bookService.Summary(context.Background())
		return summary
	})
	opts := []APIOption{WithPromMetrics(promMetrics)}
	if app.journal != nil {
		opts = append(opts, WithJournal(app.journal))
	}

	if !config.RateLimit.Disabled {
		if config.RateLimit.Backend == "redis" {
			opts = append(opts, WithRateLimiter(NewRedisRateLimiter(app.redisClient, clock, config.RateLimit.Window, config.RateLimit.Max)))
		} else {
			limiter := NewMemoryRateLimiter(clock, config.RateLimit.Window, config.RateLimit.Max)
			opts = append(opts, WithRateLimiter(limiter))
			app.queueConsumers = append(app.queueConsumers, func(ctx context.Context) error {
				return limiter.RunSweeper(ctx, logger, tickClock, config.RateLimit.SweepInterval)
			})
		}
	}

	apiService := NewAPIHandler(
		logger,
		config,
		&Statistics{
			version:   config.GitTag,
			container: IsAppRunningInDocker(),
			started:   clock.Now(),
			runtime:   runtime.Version(),
			platform:  runtime.GOOS + "/" + runtime.GOARCH,
		},
		clock,
		NewIDsHandler(),
		bookService,
		opts...,
	)

	// Build the map of middlewares stacks.
	middlewaresPublic, middlewaresOps := apiService.MiddlewaresStacks()

	// Configure the endpoints with their handlers and middlewares.
	router := apiService.SetupRoutes(httprouter.New(),
		&MiddlewareMap{
			public: middlewaresPublic.Chain,
			ops:    middlewaresOps.Chain,
		},
	)
	// Wrap the router with the default http timeout handler.
	routerWithTimeout := http.TimeoutHandler(
		router,
		config.Server.RequestTimeout,
		`{"error":"Request timeout"}`)

	// Build the api server definition.
	app.server = &http.Server{
		Addr:           fmt.Sprintf("%s:%s", config.Server.Host, config.Server.Port),
		Handler:        routerWithTimeout,
		ReadTimeout:    config.Server.ReadTimeout,
		WriteTimeout:   config.Server.WriteTimeout,
		MaxHeaderBytes: 1 << 20, // Max headers size : 1MB
	}

	return app, nil
}

// Run starts the api web server and a goroutine which is responsible to stop it.
func (app *App) Run() error {
	defer app.Clean()
	nCtx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	g, gCtx := errgroup.WithContext(nCtx)

	g.Go(app.ConsumeQueues(gCtx))
	g.Go(app.Serve())
	g.Go(app.Stop(nCtx, gCtx))

	err := g.Wait()
	app.logger.Info("api server stopped",
		zap.String("app.host", app.config.Server.Host),
		zap.String("app.port", app.config.Server.Port),
		zap.Error(err),
	)
	return err
}

// Clean calls all registered cleanups functions.
func (app *App) Clean() {
	for _, f := range app.cleanups {
		f()
	}
}

// Serve starts the api web server. It returned error
// will be caught by the errorgroup.
func (app *App) Serve() func() error {
	return func() error {
		app.logger.Info("api server starting",
			zap.String("app.host", app.config.Server.Host),
			zap.String("app.port", app.config.Server.Port),
			zap.String("app.env", app.config.Environment),
		)
		err := app.server.ListenAndServe()
		if errors.Is(err, http.ErrServerClosed) {
			err = nil
		}
		return err
	}
}

// Stop listens for the group context and stops the server. It states the reason
// of its call. Without shutdown timeout the server is closed immediately, else a
// graceful shutdown is attempted and followed by a brutal one if it did not complete.
// We explicitly return `nil` to allow the errorgroup catches only the `Serve` result.
func (app *App) Stop(nCtx, gCtx context.Context) func() error {
	return func() error {
		<-gCtx.Done()

		if nCtx.Err() != nil {
			app.logger.Info("api server stopping. reason: requested to stop")
		} else {
			app.logger.Info("api server stopping. reason: errored at running")
		}

		if app.config.Server.ShutdownTimeout <= 0 {
			app.logger.Info("api server closing without draining", zap.Error(app.server.Close()))
		} else {
			sCtx, cancel := context.WithTimeout(context.Background(), app.config.Server.ShutdownTimeout)
			defer cancel()
			err := app.server.Shutdown(sCtx)
			switch {
			case err == nil, errors.Is(err, http.ErrServerClosed):
				app.logger.Info("api server graceful shutdown succeeded")
			case errors.Is(err, context.DeadlineExceeded):
				app.logger.Info("api server graceful shutdown timed out")
			default:
				app.logger.Info("api server graceful shutdown failed", zap.Error(err))
			}

			if err != nil && !errors.Is(err, http.ErrServerClosed) {
				app.logger.Info("api server going to force shutdown", zap.Error(app.server.Close()))
			}
		}

		if app.redisClient != nil {
			if err := app.redisClient.Close(); err != nil {
				app.logger.Error("failed to close redis client", zap.Error(err))
			}
		}
		return nil
	}
}

// ConsumeQueues runs all queue consumers and background workers into
// separate controlled goroutines. The journal is closed once they are done.
func (app *App) ConsumeQueues(gCtx context.Context) func() error {
	return func() error {
		workers, wCtx := errgroup.WithContext(gCtx)
		for _, consume := range app.queueConsumers {
			consume := consume
			workers.Go(func() error {
				return consume(wCtx)
			})
		}
		err := workers.Wait()
		if app.journal != nil {
			if cerr := app.journal.Close(); cerr != nil {
				app.logger.Error("failed to close journal storage", zap.Error(cerr))
			}
		}
		return err
	}
}
