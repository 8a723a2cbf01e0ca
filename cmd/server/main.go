// cmd/server/main.go
package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	_ "macmon/docs"
	"macmon/internal/config"
	"macmon/internal/engine"
	"macmon/internal/enumerate"
	"macmon/internal/enumerate/usb"
	"macmon/internal/handler"
	"macmon/internal/probe/esp"
	"macmon/internal/routes"
	"macmon/internal/utils"
)

// Application represents the main application
type Application struct {
	config *config.Config
	logger *zap.Logger
	server *http.Server

	enumerator enumerate.PortEnumerator
	resolver   *usb.Resolver
	engine     *engine.Engine
	eventBus   *handler.EventBus
	settings   *config.SettingsStore
}

// @title MAC Monitor Service API
// @version 1.0.0
// @description Serial device discovery and MAC address monitoring service for ESP-family devices
// @termsOfService http://swagger.io/terms/

// @contact.name MAC Monitor API Support

// @license.name MIT
// @license.url https://opensource.org/licenses/MIT

// @host localhost:8086
// @BasePath /
func main() {
	app, err := NewApplication()
	if err != nil {
		fmt.Printf("Failed to initialize application: %v\n", err)
		os.Exit(1)
	}

	if err := app.Start(); err != nil {
		app.logger.Fatal("Failed to start application", zap.Error(err))
	}
}

// NewApplication creates a new application instance
func NewApplication() (*Application, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("failed to load configuration: %w", err)
	}

	logger, err := utils.NewLogger(&cfg.Logging)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize logger: %w", err)
	}

	serviceLogger := utils.NewServiceLogger(logger, "macmon")
	serviceLogger.LogServiceStart(cfg.App.Version)

	app := &Application{
		config: cfg,
		logger: logger,
	}

	if err := app.initializeSettings(); err != nil {
		return nil, fmt.Errorf("failed to initialize settings: %w", err)
	}

	if err := app.initializeEngine(); err != nil {
		return nil, fmt.Errorf("failed to initialize engine: %w", err)
	}

	if err := app.initializeServer(); err != nil {
		return nil, fmt.Errorf("failed to initialize server: %w", err)
	}

	return app, nil
}

// initializeSettings sets up the persisted user settings store
func (app *Application) initializeSettings() error {
	store, err := config.NewSettingsStore("")
	if err != nil {
		return err
	}
	app.settings = store

	app.logger.Info("Settings store initialized", zap.String("path", store.Path()))
	return nil
}

// initializeEngine wires the discovery engine and its collaborators
func (app *Application) initializeEngine() error {
	app.enumerator = enumerate.NewSerialEnumerator(app.logger)
	app.resolver = usb.NewResolver(app.logger)
	app.eventBus = handler.NewEventBus(app.logger)

	prober := esp.New(&app.config.Probe, app.logger)

	app.engine = engine.New(
		app.config.Monitor,
		app.enumerator,
		prober,
		engine.NewResultLog(),
		handler.NewEngineNotifier(app.eventBus),
		app.logger,
	)

	if app.config.Monitor.AutoStart {
		app.engine.StartMonitoring()
	}

	app.logger.Info("Discovery engine initialized",
		zap.Duration("tick_interval", app.config.Monitor.TickInterval),
		zap.Int("workers", app.config.Monitor.Workers),
		zap.Bool("auto_start", app.config.Monitor.AutoStart),
	)
	return nil
}

// initializeServer sets up HTTP server and routes
func (app *Application) initializeServer() error {
	routerManager := routes.NewRouter(
		app.config,
		app.logger,
		app.engine,
		app.enumerator,
		app.resolver,
		app.settings,
		app.eventBus,
	)

	router := routerManager.SetupRouter()

	app.server = &http.Server{
		Addr:         app.config.GetServerAddr(),
		Handler:      router,
		ReadTimeout:  app.config.Server.ReadTimeout,
		WriteTimeout: app.config.Server.WriteTimeout,
		IdleTimeout:  app.config.Server.IdleTimeout,
	}

	app.logger.Info("HTTP server initialized",
		zap.String("address", app.config.GetServerAddr()),
	)
	return nil
}

// Start runs the HTTP server and the discovery engine until a shutdown
// signal arrives, then shuts down gracefully.
func (app *Application) Start() error {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	group, groupCtx := errgroup.WithContext(ctx)

	group.Go(func() error {
		return app.engine.Run(groupCtx)
	})

	group.Go(func() error {
		app.logger.Info("Starting HTTP server", zap.String("address", app.server.Addr))
		if err := app.server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})

	group.Go(func() error {
		<-groupCtx.Done()
		app.shutdown()
		return nil
	})

	if err := group.Wait(); err != nil && !errors.Is(err, context.Canceled) {
		return err
	}

	app.logger.Info("Application shutdown completed")
	return nil
}

// shutdown performs graceful shutdown
func (app *Application) shutdown() {
	serviceLogger := utils.NewServiceLogger(app.logger, "macmon")
	serviceLogger.LogServiceStop("shutdown signal received")

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := app.server.Shutdown(ctx); err != nil {
		app.logger.Error("HTTP server shutdown error", zap.Error(err))
	} else {
		app.logger.Info("HTTP server stopped")
	}

	if err := utils.CloseLogger(app.logger); err != nil {
		fmt.Printf("Logger close error: %v\n", err)
	}
}
