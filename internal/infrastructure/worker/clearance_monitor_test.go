package worker

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/agencyops/worker-lifecycle/internal/application/dispatcher"
	"github.com/agencyops/worker-lifecycle/internal/application/port"
	"github.com/agencyops/worker-lifecycle/internal/domain/entity"
	"github.com/agencyops/worker-lifecycle/internal/domain/event"
)

type fakeClearanceRepo struct {
	expiring []*entity.WorkerClearance
	err      error
}

func (f *fakeClearanceRepo) Upsert(ctx context.Context, clearance *entity.WorkerClearance) error {
	return nil
}

func (f *fakeClearanceRepo) GetByWorkerID(ctx context.Context, workerID uuid.UUID) (*entity.WorkerClearance, error) {
	return nil, port.ErrNotFound
}

func (f *fakeClearanceRepo) ExpiringWithin(ctx context.Context, window time.Duration) ([]*entity.WorkerClearance, error) {
	return f.expiring, f.err
}

func TestClearanceMonitorPublishesExpiryEvents(t *testing.T) {
	soon := time.Now().Add(48 * time.Hour)
	repo := &fakeClearanceRepo{
		expiring: []*entity.WorkerClearance{
			{WorkerID: uuid.New(), MedicalValidUntil: &soon},
			{WorkerID: uuid.New(), VisaValidUntil: &soon},
		},
	}

	disp := dispatcher.NewDispatcher()
	received := make(chan *event.Event, 4)
	disp.Subscribe(event.TypeClearanceExpiring, func(ctx context.Context, evt *event.Event) error {
		received <- evt
		return nil
	})

	monitor := NewClearanceMonitor(repo, disp, ClearanceMonitorConfig{
		PollInterval:  time.Hour,
		WarningWindow: 30 * 24 * time.Hour,
	}, zap.NewNop())

	require.NoError(t, monitor.Start(context.Background()))
	defer monitor.Stop()

	for i := 0; i < 2; i++ {
		select {
		case evt := <-received:
			assert.Equal(t, event.TypeClearanceExpiring, evt.Type)
		case <-time.After(2 * time.Second):
			t.Fatalf("expected 2 expiry events, got %d", i)
		}
	}
}

func TestClearanceMonitorStartTwice(t *testing.T) {
	monitor := NewClearanceMonitor(&fakeClearanceRepo{}, dispatcher.NewDispatcher(), ClearanceMonitorConfig{
		PollInterval: time.Hour,
	}, zap.NewNop())

	require.NoError(t, monitor.Start(context.Background()))
	defer monitor.Stop()

	assert.Error(t, monitor.Start(context.Background()))
}

func TestClearanceMonitorNoExpiringClearances(t *testing.T) {
	disp := dispatcher.NewDispatcher()
	received := make(chan *event.Event, 1)
	disp.Subscribe(event.TypeClearanceExpiring, func(ctx context.Context, evt *event.Event) error {
		received <- evt
		return nil
	})

	monitor := NewClearanceMonitor(&fakeClearanceRepo{}, disp, ClearanceMonitorConfig{
		PollInterval: time.Hour,
	}, zap.NewNop())

	require.NoError(t, monitor.Start(context.Background()))
	defer monitor.Stop()

	select {
	case <-received:
		t.Fatal("no expiry event expected")
	case <-time.After(100 * time.Millisecond):
	}
}

func TestManagerStartStop(t *testing.T) {
	manager := NewManager(zap.NewNop())
	monitor := NewClearanceMonitor(&fakeClearanceRepo{}, dispatcher.NewDispatcher(), ClearanceMonitorConfig{
		PollInterval: time.Hour,
	}, zap.NewNop())

	manager.Register(monitor)
	assert.Equal(t, 1, manager.Count())

	require.NoError(t, manager.StartAll(context.Background()))
	assert.True(t, manager.IsRunning())

	assert.Error(t, manager.StartAll(context.Background()))

	require.NoError(t, manager.StopAll())
	assert.False(t, manager.IsRunning())

	// Stopping again is a no-op
	require.NoError(t, manager.StopAll())
}
