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

	"printer-bridge/internal/callback"
	"printer-bridge/internal/config"
	"printer-bridge/internal/database"
	"printer-bridge/internal/discovery"
	"printer-bridge/internal/discovery/bluetooth"
	"printer-bridge/internal/discovery/lan"
	"printer-bridge/internal/discovery/usb"
	"printer-bridge/internal/document"
	"printer-bridge/internal/driver"
	"printer-bridge/internal/driver/escpos"
	"printer-bridge/internal/handler"
	"printer-bridge/internal/protocol"
	"printer-bridge/internal/repository"
	"printer-bridge/internal/routes"
	"printer-bridge/internal/service"
	"printer-bridge/internal/session"
	"printer-bridge/internal/utils"
)

const journalCleanupInterval = time.Hour

// Application represents the main application
type Application struct {
	config   *config.Config
	logger   *zap.Logger
	server   *http.Server
	database *database.DB

	// Push events
	callbacks *callback.Registry
	events    *callback.Dispatcher

	// Printers
	driverRegistry *driver.Registry
	sessions       *session.Registry
	controller     *session.Controller
	discovery      *discovery.Manager

	// Services
	journal *service.Journal
	service *service.PrinterService

	router *routes.Router

	background context.Context
	stop       context.CancelFunc
}

// @title Printer Bridge API
// @version 1.0.0
// @description Printer connection manager for receipt printers over LAN, USB and Bluetooth

// @license.name MIT
// @license.url https://opensource.org/licenses/MIT

// @host localhost:8085
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

	serviceLogger := utils.NewServiceLogger(logger, "printer-bridge")
	serviceLogger.LogServiceStart(cfg.App.Version, cfg)

	background, stop := context.WithCancel(context.Background())
	app := &Application{
		config:     cfg,
		logger:     logger,
		background: background,
		stop:       stop,
	}

	if err := app.initializeJournal(); err != nil {
		return nil, fmt.Errorf("failed to initialize journal: %w", err)
	}

	if err := app.initializePrinters(); err != nil {
		return nil, fmt.Errorf("failed to initialize printers: %w", err)
	}

	app.initializeDiscovery()
	app.initializeServices()
	app.initializeServer()

	return app, nil
}

// initializeJournal opens the operation journal: PostgreSQL when enabled,
// otherwise an in-memory ring
func (app *Application) initializeJournal() error {
	var repo repository.OperationRepository

	if app.config.Database.Enabled {
		db, err := database.NewConnection(&app.config.Database, app.config.GetDatabaseDSN(), app.logger)
		if err != nil {
			return fmt.Errorf("failed to create database connection: %w", err)
		}
		app.database = db

		if app.config.Database.AutoMigrate {
			migrator := database.NewMigrator(db, app.logger)
			if err := migrator.Up(); err != nil {
				return fmt.Errorf("failed to run database migrations: %w", err)
			}
		}
		repo = repository.NewOperationRepository(db, app.logger)
		app.logger.Info("Database journal initialized")
	} else {
		repo = repository.NewMemoryRepository(app.config.Database.MemoryEntries)
		app.logger.Info("In-memory journal initialized",
			zap.Int("capacity", app.config.Database.MemoryEntries),
		)
	}

	app.journal = service.NewJournal(repo, app.config.Database.Retention, app.logger)
	return nil
}

// initializePrinters sets up push events, transports, drivers and sessions
func (app *Application) initializePrinters() error {
	cfg := app.config.Printer

	app.callbacks = callback.NewRegistry()
	app.events = callback.NewDispatcher(app.callbacks, cfg.EventBufferSize, app.logger)

	transports, err := protocol.NewFactory(app.config.Transport, app.config.Discovery.USB.VendorIDs, app.logger)
	if err != nil {
		return fmt.Errorf("failed to create transport factory: %w", err)
	}

	app.driverRegistry = driver.NewRegistry(app.logger)
	driver.RegisterDefaultDrivers(app.driverRegistry, transports, escpos.Options{
		DotsPerMM:           cfg.DotsPerMM,
		PaperWidthMM:        cfg.DefaultPaperWidthMM,
		StatusTimeout:       cfg.StatusTimeout,
		MonitorPollInterval: cfg.MonitorPollInterval,
		InputPollInterval:   cfg.InputPollInterval,
	}, app.logger)

	app.sessions = session.NewRegistry(app.driverRegistry.NewPrinter, app.callbacks, app.logger)
	app.controller = session.NewController(app.events, app.callbacks, session.ControllerOptions{
		PersistentAttempts: cfg.PersistentAttempts,
		CloseTimeout:       cfg.ShutdownCloseTimeout,
		ReconnectTimeout:   cfg.OperationTimeout,
	}, app.logger)

	app.logger.Info("Printer drivers initialized",
		zap.Int("interfaces", len(app.driverRegistry.ListInterfaces())),
	)
	return nil
}

// initializeDiscovery registers a scanner per interface kind
func (app *Application) initializeDiscovery() {
	cfg := app.config.Discovery

	app.discovery = discovery.NewManager(app.events, discovery.Options{
		DefaultTimeout:      cfg.DefaultTimeout,
		MaxTimeout:          cfg.MaxTimeout,
		ResultCap:           cfg.ResultBufferCap,
		BluetoothPermission: discovery.BluetoothPermission(cfg.Bluetooth.PermissionPaths),
	}, app.logger)

	var describer lan.Describer
	if cfg.LAN.SNMPEnabled {
		describer = lan.NewSNMPDescriber(lan.SNMPConfig{
			Community: cfg.LAN.SNMPCommunity,
			Port:      cfg.LAN.SNMPPort,
			Timeout:   cfg.LAN.SNMPTimeout,
		})
	}

	app.discovery.RegisterScanner(lan.NewScanner(lan.Config{
		ServiceTypes: cfg.LAN.ServiceTypes,
		Domain:       cfg.LAN.Domain,
	}, describer, app.logger))
	app.discovery.RegisterScanner(usb.NewScanner(usb.Config{
		VendorIDs: cfg.USB.VendorIDs,
		Debug:     app.config.IsDebugEnabled(),
	}, app.logger))
	app.discovery.RegisterScanner(bluetooth.NewScanner(bluetooth.Config{
		PortPatterns: cfg.Bluetooth.PortPatterns,
	}, app.logger))
}

// initializeServices creates the printer service and its task pool
func (app *Application) initializeServices() {
	cfg := app.config.Printer

	dispatcher := service.NewDispatcher(cfg.WorkerPoolSize, cfg.OperationTimeout, app.journal, app.logger)
	app.service = service.NewPrinterService(
		app.sessions,
		app.controller,
		app.discovery,
		document.NewBuilder(cfg.MaxAddDepth),
		app.callbacks,
		dispatcher,
		cfg.StatusTimeout,
		app.logger,
	)

	app.logger.Info("Services initialized successfully",
		zap.Int("workers", cfg.WorkerPoolSize),
	)
}

// initializeServer sets up HTTP server and routes
func (app *Application) initializeServer() {
	// A nil *database.DB must not reach the handler as a non-nil interface
	var db handler.Pinger
	if app.database != nil {
		db = app.database
	}

	app.router = routes.NewRouter(app.config, app.logger, routes.Dependencies{
		DB:        db,
		Service:   app.service,
		Journal:   app.journal,
		Callbacks: app.callbacks,
		Events:    app.events,
	})

	app.server = &http.Server{
		Addr:         app.config.GetServerAddr(),
		Handler:      app.router.SetupRouter(),
		ReadTimeout:  app.config.Server.ReadTimeout,
		WriteTimeout: app.config.Server.WriteTimeout,
		IdleTimeout:  app.config.Server.IdleTimeout,
	}

	app.logger.Info("HTTP server initialized",
		zap.String("address", app.config.GetServerAddr()),
		zap.Bool("tls_enabled", app.config.Server.TLS.Enabled),
	)
}

// startBackgroundServices starts event delivery and journal cleanup
func (app *Application) startBackgroundServices() {
	go app.events.Start(app.background)
	go app.journal.RunCleanup(app.background, journalCleanupInterval)

	app.logger.Info("Background services started")
}

// waitForShutdown waits for shutdown signal and performs graceful shutdown
func (app *Application) waitForShutdown() {
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	sig := <-quit
	app.logger.Info("Received shutdown signal", zap.String("signal", sig.String()))

	app.shutdown()
}

// shutdown stops accepting requests, closes every printer session and then
// flushes pending events
func (app *Application) shutdown() {
	serviceLogger := utils.NewServiceLogger(app.logger, "printer-bridge")
	serviceLogger.LogServiceStop("shutdown signal received")

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := app.server.Shutdown(ctx); err != nil {
		app.logger.Error("HTTP server shutdown error", zap.Error(err))
	} else {
		app.logger.Info("HTTP server stopped")
	}

	if err := app.service.Shutdown(ctx); err != nil {
		app.logger.Error("Printer service shutdown error", zap.Error(err))
	} else {
		app.logger.Info("Printer sessions closed")
	}

	app.stop()
	select {
	case <-app.events.Done():
	case <-ctx.Done():
		app.logger.Warn("Event delivery did not drain before shutdown deadline")
	}
	app.router.WebSocket().CloseAll()

	if app.database != nil {
		if err := app.database.Close(); err != nil {
			app.logger.Error("Database close error", zap.Error(err))
		} else {
			app.logger.Info("Database connection closed")
		}
	}

	app.logger.Info("Application shutdown completed")

	if err := utils.CloseLogger(app.logger); err != nil {
		fmt.Printf("Logger close error: %v\n", err)
	}
}

// Start serves HTTP until a shutdown signal arrives
func (app *Application) Start() error {
	app.startBackgroundServices()

	go func() {
		app.logger.Info("Starting HTTP server",
			zap.String("address", app.server.Addr),
		)

		var err error
		if app.config.Server.TLS.Enabled {
			err = app.server.ListenAndServeTLS(
				app.config.Server.TLS.CertFile,
				app.config.Server.TLS.KeyFile,
			)
		} else {
			err = app.server.ListenAndServe()
		}

		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			app.logger.Fatal("Failed to start HTTP server", zap.Error(err))
		}
	}()

	app.waitForShutdown()

	return nil
}
