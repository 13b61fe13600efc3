package worker

import (
	"context"
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/agencyops/worker-lifecycle/internal/application/dispatcher"
	"github.com/agencyops/worker-lifecycle/internal/application/port"
	"github.com/agencyops/worker-lifecycle/internal/domain/event"
)

// ClearanceMonitor periodically scans for clearances whose medical or visa
// validity ends soon and publishes a worker.clearance_expiring event for each.
// Agents act on the events before the expired fact starts blocking transitions.
type ClearanceMonitor struct {
	clearances port.ClearanceRepository
	events     dispatcher.Dispatcher
	logger     *zap.Logger

	pollInterval  time.Duration
	warningWindow time.Duration

	mu        sync.Mutex
	isRunning bool
	ctx       context.Context
	cancel    context.CancelFunc
}

// ClearanceMonitorConfig holds monitor timing configuration
type ClearanceMonitorConfig struct {
	PollInterval  time.Duration
	WarningWindow time.Duration
}

// NewClearanceMonitor creates a new clearance monitor
func NewClearanceMonitor(
	clearances port.ClearanceRepository,
	events dispatcher.Dispatcher,
	cfg ClearanceMonitorConfig,
	logger *zap.Logger,
) *ClearanceMonitor {
	if cfg.PollInterval <= 0 {
		cfg.PollInterval = time.Hour
	}
	if cfg.WarningWindow <= 0 {
		cfg.WarningWindow = 30 * 24 * time.Hour
	}

	return &ClearanceMonitor{
		clearances:    clearances,
		events:        events,
		logger:        logger,
		pollInterval:  cfg.PollInterval,
		warningWindow: cfg.WarningWindow,
	}
}

// Start starts the monitor loop
func (m *ClearanceMonitor) Start(ctx context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.isRunning {
		return fmt.Errorf("clearance monitor is already running")
	}

	m.ctx, m.cancel = context.WithCancel(ctx)
	m.isRunning = true

	m.logger.Info("ClearanceMonitor started",
		zap.Duration("poll_interval", m.pollInterval),
		zap.Duration("warning_window", m.warningWindow))

	go m.loop()

	return nil
}

// Stop stops the monitor loop
func (m *ClearanceMonitor) Stop() error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if !m.isRunning {
		return nil
	}

	m.isRunning = false
	if m.cancel != nil {
		m.cancel()
	}

	m.logger.Info("ClearanceMonitor stopped")
	return nil
}

// Name returns the worker name for identification
func (m *ClearanceMonitor) Name() string {
	return "ClearanceMonitor"
}

func (m *ClearanceMonitor) loop() {
	ticker := time.NewTicker(m.pollInterval)
	defer ticker.Stop()

	// Scan immediately on start
	m.scan()

	for {
		select {
		case <-m.ctx.Done():
			return
		case <-ticker.C:
			m.scan()
		}
	}
}

// scan finds clearances expiring inside the warning window and publishes one
// event per affected worker
func (m *ClearanceMonitor) scan() {
	ctx, cancel := context.WithTimeout(m.ctx, 10*time.Second)
	defer cancel()

	clearances, err := m.clearances.ExpiringWithin(ctx, m.warningWindow)
	if err != nil {
		m.logger.Error("Failed to scan expiring clearances", zap.Error(err))
		return
	}

	if len(clearances) == 0 {
		return
	}

	published := 0
	for _, clearance := range clearances {
		payload := map[string]interface{}{
			"warning_window": m.warningWindow.String(),
		}
		if clearance.MedicalValidUntil != nil {
			payload["medical_valid_until"] = clearance.MedicalValidUntil.Format(time.RFC3339)
		}
		if clearance.VisaValidUntil != nil {
			payload["visa_valid_until"] = clearance.VisaValidUntil.Format(time.RFC3339)
		}

		evt := event.NewEvent(event.TypeClearanceExpiring, clearance.WorkerID, payload)
		if err := m.events.Dispatch(ctx, evt); err != nil {
			m.logger.Error("Failed to dispatch clearance expiry event",
				zap.String("worker_id", clearance.WorkerID.String()),
				zap.Error(err))
			continue
		}
		published++
	}

	m.logger.Info("Clearance scan completed",
		zap.Int("expiring", len(clearances)),
		zap.Int("published", published))
}
