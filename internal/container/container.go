// Package container manages application dependencies and lifecycle.
// Components are initialized in dependency order and torn down in reverse.
package container

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"

	"go.uber.org/zap"

	"github.com/agencyops/worker-lifecycle/internal/application/dispatcher"
	"github.com/agencyops/worker-lifecycle/internal/application/port"
	"github.com/agencyops/worker-lifecycle/internal/application/service"
	"github.com/agencyops/worker-lifecycle/internal/config"
	"github.com/agencyops/worker-lifecycle/internal/domain/lifecycle"
	"github.com/agencyops/worker-lifecycle/internal/infrastructure/persistence/repository"
	"github.com/agencyops/worker-lifecycle/internal/infrastructure/worker"
	"github.com/agencyops/worker-lifecycle/pkg/database"
)

// Container wires the database, repositories, dispatcher and services
type Container struct {
	config *config.Config
	logger *zap.Logger

	db            *database.DB
	workerRepo    port.WorkerRepository
	historyRepo   port.StateHistoryRepository
	clearanceRepo *repository.ClearanceRepository
	txManager     *repository.TxManager

	dispatcher    dispatcher.Dispatcher
	workerService service.WorkerService
	workers       *worker.Manager

	mu     sync.Mutex
	ready  atomic.Bool
	closed atomic.Bool
}

// ComponentHealth represents health of a single component
type ComponentHealth struct {
	Healthy bool   `json:"healthy"`
	Message string `json:"message,omitempty"`
}

// HealthStatus represents the health of all components
type HealthStatus struct {
	Overall    bool                       `json:"overall"`
	Components map[string]ComponentHealth `json:"components"`
}

// New creates a container from configuration. Call Start to initialize.
func New(cfg *config.Config, logger *zap.Logger) (*Container, error) {
	if cfg == nil {
		return nil, fmt.Errorf("config is required")
	}
	if logger == nil {
		return nil, fmt.Errorf("logger is required")
	}

	return &Container{
		config: cfg,
		logger: logger,
	}, nil
}

// Start initializes all components:
// 1. Database and migrations
// 2. Repositories and transaction manager
// 3. Event dispatcher
// 4. Worker service
// 5. Background workers
func (c *Container) Start(ctx context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.closed.Load() {
		return fmt.Errorf("container has been closed")
	}
	if c.ready.Load() {
		return fmt.Errorf("container already started")
	}

	c.logger.Info("Starting container initialization")

	if err := c.initDatabase(); err != nil {
		return fmt.Errorf("failed to initialize database: %w", err)
	}
	c.logger.Info("Database initialized")

	c.initRepositories()
	c.logger.Info("Repositories initialized")

	c.dispatcher = dispatcher.NewDispatcher(
		dispatcher.WithLogger(&zapLoggerAdapter{logger: c.logger}),
	)
	c.logger.Info("Event dispatcher initialized")

	c.workerService = service.NewWorkerService(
		c.workerRepo,
		c.historyRepo,
		c.clearanceRepo,
		c.txManager,
		lifecycle.NewValidator(),
		c.dispatcher,
		&zapLoggerAdapter{logger: c.logger},
	)
	c.logger.Info("Worker service initialized")

	c.workers = worker.NewManager(c.logger)
	c.workers.Register(worker.NewClearanceMonitor(
		c.clearanceRepo,
		c.dispatcher,
		worker.ClearanceMonitorConfig{
			PollInterval:  c.config.Monitor.PollInterval,
			WarningWindow: c.config.Monitor.WarningWindow,
		},
		c.logger,
	))
	if err := c.workers.StartAll(ctx); err != nil {
		return fmt.Errorf("failed to start workers: %w", err)
	}
	c.logger.Info("Background workers started")

	c.ready.Store(true)
	c.logger.Info("Container started")
	return nil
}

// Close shuts down components in reverse initialization order
func (c *Container) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.closed.Load() {
		return fmt.Errorf("container already closed")
	}

	c.logger.Info("Closing container")

	var errs []error

	if c.workers != nil {
		if err := c.workers.StopAll(); err != nil {
			c.logger.Error("Failed to stop workers", zap.Error(err))
			errs = append(errs, fmt.Errorf("stop workers: %w", err))
		}
	}

	if c.dispatcher != nil {
		if err := c.dispatcher.Close(); err != nil {
			c.logger.Error("Failed to close dispatcher", zap.Error(err))
			errs = append(errs, fmt.Errorf("close dispatcher: %w", err))
		}
	}

	if c.db != nil {
		if err := c.db.Close(); err != nil {
			c.logger.Error("Failed to close database", zap.Error(err))
			errs = append(errs, fmt.Errorf("close database: %w", err))
		}
	}

	c.closed.Store(true)
	c.ready.Store(false)

	if len(errs) > 0 {
		return fmt.Errorf("container closed with %d errors", len(errs))
	}

	c.logger.Info("Container closed")
	return nil
}

// Ready returns true when all components are initialized
func (c *Container) Ready() bool {
	return c.ready.Load()
}

// Health returns health status of all components
func (c *Container) Health() *HealthStatus {
	status := &HealthStatus{
		Overall:    true,
		Components: make(map[string]ComponentHealth),
	}

	if c.db != nil {
		if err := c.db.Ping(); err != nil {
			status.Components["database"] = ComponentHealth{
				Healthy: false,
				Message: fmt.Sprintf("ping failed: %v", err),
			}
			status.Overall = false
		} else {
			status.Components["database"] = ComponentHealth{Healthy: true}
		}
	} else {
		status.Components["database"] = ComponentHealth{Healthy: false, Message: "not initialized"}
		status.Overall = false
	}

	if c.dispatcher != nil {
		status.Components["dispatcher"] = ComponentHealth{Healthy: true}
	} else {
		status.Components["dispatcher"] = ComponentHealth{Healthy: false, Message: "not initialized"}
		status.Overall = false
	}

	if c.workers != nil {
		status.Components["workers"] = ComponentHealth{
			Healthy: c.workers.IsRunning(),
			Message: fmt.Sprintf("worker count: %d", c.workers.Count()),
		}
		if !c.workers.IsRunning() {
			status.Overall = false
		}
	} else {
		status.Components["workers"] = ComponentHealth{Healthy: false, Message: "not initialized"}
		status.Overall = false
	}

	return status
}

func (c *Container) initDatabase() error {
	db, err := database.New(database.Config{
		Path:            c.config.Database.Path,
		MaxOpenConns:    c.config.Database.MaxOpenConns,
		MaxIdleConns:    c.config.Database.MaxIdleConns,
		ConnMaxLifetime: c.config.Database.ConnMaxLifetime,
	}, c.logger)
	if err != nil {
		return err
	}

	migrator := database.NewMigrator(db, c.logger)
	if err := migrator.RunMigrations(c.config.Database.MigrationsDir); err != nil {
		db.Close()
		return fmt.Errorf("run migrations: %w", err)
	}

	c.db = db
	return nil
}

func (c *Container) initRepositories() {
	c.workerRepo = repository.NewWorkerRepository(c.db.DB, c.logger)
	c.historyRepo = repository.NewStateHistoryRepository(c.db.DB, c.logger)
	c.clearanceRepo = repository.NewClearanceRepository(c.db.DB, c.logger)
	c.txManager = repository.NewTxManager(c.db.DB, c.logger)
}

// WorkerService returns the worker lifecycle service
func (c *Container) WorkerService() service.WorkerService {
	return c.workerService
}

// Dispatcher returns the event dispatcher
func (c *Container) Dispatcher() dispatcher.Dispatcher {
	return c.dispatcher
}

// Logger returns the container's logger
func (c *Container) Logger() *zap.Logger {
	return c.logger
}

// ServiceLogger returns a logger adapted to the keys-and-values interfaces
// used by the application and HTTP layers
func (c *Container) ServiceLogger() service.Logger {
	return &zapLoggerAdapter{logger: c.logger}
}

// zapLoggerAdapter adapts zap.Logger to the keys-and-values logger interfaces
// used by the application and interface layers
type zapLoggerAdapter struct {
	logger *zap.Logger
}

func (a *zapLoggerAdapter) Info(msg string, keysAndValues ...interface{}) {
	a.logger.Info(msg, convertToZapFields(keysAndValues...)...)
}

func (a *zapLoggerAdapter) Error(msg string, keysAndValues ...interface{}) {
	a.logger.Error(msg, convertToZapFields(keysAndValues...)...)
}

func convertToZapFields(keysAndValues ...interface{}) []zap.Field {
	fields := make([]zap.Field, 0, len(keysAndValues)/2)
	for i := 0; i+1 < len(keysAndValues); i += 2 {
		key, ok := keysAndValues[i].(string)
		if !ok {
			continue
		}
		fields = append(fields, zap.Any(key, keysAndValues[i+1]))
	}
	return fields
}
