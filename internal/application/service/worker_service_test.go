package service

import (
	"context"
	"errors"
	"testing"

	"github.com/google/uuid"

	"github.com/agencyops/worker-lifecycle/internal/application/dispatcher"
	"github.com/agencyops/worker-lifecycle/internal/application/port"
	"github.com/agencyops/worker-lifecycle/internal/domain/entity"
	"github.com/agencyops/worker-lifecycle/internal/domain/event"
	"github.com/agencyops/worker-lifecycle/internal/domain/lifecycle"
)

// Mock repositories

type mockWorkerRepo struct {
	createFunc           func(ctx context.Context, worker *entity.Worker) error
	getByIDFunc          func(ctx context.Context, id uuid.UUID) (*entity.Worker, error)
	existsByPassportFunc func(ctx context.Context, passport string) (bool, error)
	updateStateFunc      func(ctx context.Context, id uuid.UUID, expected, next lifecycle.WorkerState, updatedBy string) error
	updated              []lifecycle.WorkerState
}

func (m *mockWorkerRepo) Create(ctx context.Context, worker *entity.Worker) error {
	if m.createFunc != nil {
		return m.createFunc(ctx, worker)
	}
	return nil
}

func (m *mockWorkerRepo) GetByID(ctx context.Context, id uuid.UUID) (*entity.Worker, error) {
	if m.getByIDFunc != nil {
		return m.getByIDFunc(ctx, id)
	}
	return &entity.Worker{ID: id, CurrentState: lifecycle.StateNewArrival}, nil
}

func (m *mockWorkerRepo) ExistsByPassport(ctx context.Context, passport string) (bool, error) {
	if m.existsByPassportFunc != nil {
		return m.existsByPassportFunc(ctx, passport)
	}
	return false, nil
}

func (m *mockWorkerRepo) UpdateState(ctx context.Context, id uuid.UUID, expected, next lifecycle.WorkerState, updatedBy string) error {
	m.updated = append(m.updated, next)
	if m.updateStateFunc != nil {
		return m.updateStateFunc(ctx, id, expected, next, updatedBy)
	}
	return nil
}

func (m *mockWorkerRepo) List(ctx context.Context, limit, offset int) ([]*entity.Worker, error) {
	return []*entity.Worker{}, nil
}

type mockHistoryRepo struct {
	createFunc func(ctx context.Context, record *entity.WorkerStateHistory) error
	records    []*entity.WorkerStateHistory
}

func (m *mockHistoryRepo) Create(ctx context.Context, record *entity.WorkerStateHistory) error {
	if m.createFunc != nil {
		return m.createFunc(ctx, record)
	}
	m.records = append(m.records, record)
	return nil
}

func (m *mockHistoryRepo) GetByWorkerID(ctx context.Context, workerID uuid.UUID, limit, offset int) ([]*entity.WorkerStateHistory, error) {
	return m.records, nil
}

func (m *mockHistoryRepo) CountByWorkerID(ctx context.Context, workerID uuid.UUID) (int64, error) {
	return int64(len(m.records)), nil
}

type mockFactSource struct {
	facts port.WorkerFacts
	err   error
}

func (m *mockFactSource) Facts(ctx context.Context, workerID uuid.UUID) (port.WorkerFacts, error) {
	return m.facts, m.err
}

type mockTxManager struct{}

func (m *mockTxManager) WithTransaction(ctx context.Context, fn func(ctx context.Context) error) error {
	return fn(ctx)
}

type mockDispatcher struct {
	events []*event.Event
}

func (m *mockDispatcher) Subscribe(eventType event.Type, handler dispatcher.Handler)                  {}
func (m *mockDispatcher) SubscribeNamed(eventType event.Type, name string, h dispatcher.Handler)      {}
func (m *mockDispatcher) DispatchAsync(ctx context.Context, evt *event.Event)                         {}
func (m *mockDispatcher) Close() error                                                                { return nil }

func (m *mockDispatcher) Dispatch(ctx context.Context, evt *event.Event) error {
	m.events = append(m.events, evt)
	return nil
}

func (m *mockDispatcher) typesSeen() []event.Type {
	var types []event.Type
	for _, e := range m.events {
		types = append(types, e.Type)
	}
	return types
}

type mockLogger struct{}

func (m *mockLogger) Info(msg string, keysAndValues ...interface{})  {}
func (m *mockLogger) Error(msg string, keysAndValues ...interface{}) {}

type fixture struct {
	workerRepo  *mockWorkerRepo
	historyRepo *mockHistoryRepo
	factSource  *mockFactSource
	events      *mockDispatcher
	svc         WorkerService
}

func newFixture() *fixture {
	f := &fixture{
		workerRepo:  &mockWorkerRepo{},
		historyRepo: &mockHistoryRepo{},
		factSource:  &mockFactSource{},
		events:      &mockDispatcher{},
	}
	f.svc = NewWorkerService(
		f.workerRepo,
		f.historyRepo,
		f.factSource,
		&mockTxManager{},
		lifecycle.NewValidator(),
		f.events,
		&mockLogger{},
	)
	return f
}

func workerIn(state lifecycle.WorkerState) func(ctx context.Context, id uuid.UUID) (*entity.Worker, error) {
	return func(ctx context.Context, id uuid.UUID) (*entity.Worker, error) {
		return &entity.Worker{ID: id, CurrentState: state, PassportNumber: "P123"}, nil
	}
}

func TestWorkerService_Create(t *testing.T) {
	t.Run("registers worker in NEW_ARRIVAL", func(t *testing.T) {
		f := newFixture()

		worker, err := f.svc.Create(context.Background(), CreateWorkerRequest{
			PassportNumber: "P123",
			FullName:       "Maria Santos",
			Nationality:    "PH",
			CreatedBy:      "user-1",
		})
		if err != nil {
			t.Fatalf("Create() error = %v", err)
		}
		if worker.CurrentState != lifecycle.StateNewArrival {
			t.Errorf("CurrentState = %v, want NEW_ARRIVAL", worker.CurrentState)
		}
		if len(f.historyRepo.records) != 1 {
			t.Fatalf("history records = %d, want 1", len(f.historyRepo.records))
		}
		if f.historyRepo.records[0].ToState != lifecycle.StateNewArrival {
			t.Errorf("history ToState = %v", f.historyRepo.records[0].ToState)
		}
		if len(f.events.events) != 1 || f.events.events[0].Type != event.TypeWorkerCreated {
			t.Errorf("events = %v, want [worker.created]", f.events.typesSeen())
		}
	})

	t.Run("rejects duplicate passport", func(t *testing.T) {
		f := newFixture()
		f.workerRepo.existsByPassportFunc = func(ctx context.Context, passport string) (bool, error) {
			return true, nil
		}

		_, err := f.svc.Create(context.Background(), CreateWorkerRequest{PassportNumber: "P123"})
		if !errors.Is(err, ErrDuplicatePassport) {
			t.Errorf("Create() error = %v, want ErrDuplicatePassport", err)
		}
		if len(f.historyRepo.records) != 0 || len(f.events.events) != 0 {
			t.Error("nothing should be written for a rejected create")
		}
	})
}

func TestWorkerService_ChangeState(t *testing.T) {
	t.Run("applies valid transition with default reason", func(t *testing.T) {
		f := newFixture()
		f.workerRepo.getByIDFunc = workerIn(lifecycle.StateNewArrival)

		worker, err := f.svc.ChangeState(context.Background(), uuid.New(), ChangeStateRequest{
			TargetState: lifecycle.StateInTraining,
			ChangedBy:   "user-1",
		})
		if err != nil {
			t.Fatalf("ChangeState() error = %v", err)
		}
		if worker.CurrentState != lifecycle.StateInTraining {
			t.Errorf("CurrentState = %v, want IN_TRAINING", worker.CurrentState)
		}
		if len(f.historyRepo.records) != 1 {
			t.Fatalf("history records = %d, want 1", len(f.historyRepo.records))
		}
		rec := f.historyRepo.records[0]
		if rec.Reason != "Worker started training" {
			t.Errorf("Reason = %q, want default catalog reason", rec.Reason)
		}
		if rec.FromState != lifecycle.StateNewArrival || rec.ToState != lifecycle.StateInTraining {
			t.Errorf("history = %s -> %s", rec.FromState, rec.ToState)
		}
	})

	t.Run("caller reason overrides default", func(t *testing.T) {
		f := newFixture()
		f.workerRepo.getByIDFunc = workerIn(lifecycle.StateNewArrival)

		_, err := f.svc.ChangeState(context.Background(), uuid.New(), ChangeStateRequest{
			TargetState: lifecycle.StateInTraining,
			Reason:      "Enrolled in hospitality course",
			ChangedBy:   "user-1",
		})
		if err != nil {
			t.Fatalf("ChangeState() error = %v", err)
		}
		if f.historyRepo.records[0].Reason != "Enrolled in hospitality course" {
			t.Errorf("Reason = %q", f.historyRepo.records[0].Reason)
		}
	})

	t.Run("rejects illegal transition without mutating", func(t *testing.T) {
		f := newFixture()
		f.workerRepo.getByIDFunc = workerIn(lifecycle.StateNewArrival)

		_, err := f.svc.ChangeState(context.Background(), uuid.New(), ChangeStateRequest{
			TargetState: lifecycle.StateActive,
		})

		var terr *lifecycle.TransitionError
		if !errors.As(err, &terr) || terr.Code != lifecycle.CodeInvalidTransition {
			t.Fatalf("ChangeState() error = %v, want INVALID_TRANSITION", err)
		}
		if len(f.workerRepo.updated) != 0 || len(f.historyRepo.records) != 0 || len(f.events.events) != 0 {
			t.Error("failed validation must not mutate or publish")
		}
	})

	t.Run("precondition failure surfaces reason", func(t *testing.T) {
		f := newFixture()
		f.workerRepo.getByIDFunc = workerIn(lifecycle.StateInTraining)
		f.factSource.facts = port.WorkerFacts{HasValidMedical: false}

		_, err := f.svc.ChangeState(context.Background(), uuid.New(), ChangeStateRequest{
			TargetState: lifecycle.StateReadyForMarket,
		})

		var terr *lifecycle.TransitionError
		if !errors.As(err, &terr) || terr.Code != lifecycle.CodePreconditionFailed {
			t.Fatalf("ChangeState() error = %v, want PRECONDITION_FAILED", err)
		}
		if terr.Message != "Valid medical clearance required" {
			t.Errorf("Message = %q", terr.Message)
		}
	})

	t.Run("absconded publishes special event", func(t *testing.T) {
		f := newFixture()
		f.workerRepo.getByIDFunc = workerIn(lifecycle.StateActive)

		_, err := f.svc.ChangeState(context.Background(), uuid.New(), ChangeStateRequest{
			TargetState: lifecycle.StateAbsconded,
			ChangedBy:   "user-1",
		})
		if err != nil {
			t.Fatalf("ChangeState() error = %v", err)
		}

		types := f.events.typesSeen()
		if len(types) != 2 || types[0] != event.TypeWorkerStateChanged || types[1] != event.TypeWorkerAbsconded {
			t.Errorf("events = %v, want [worker.state_changed worker.absconded]", types)
		}
	})

	t.Run("stale state update propagates", func(t *testing.T) {
		f := newFixture()
		f.workerRepo.getByIDFunc = workerIn(lifecycle.StateNewArrival)
		f.workerRepo.updateStateFunc = func(ctx context.Context, id uuid.UUID, expected, next lifecycle.WorkerState, updatedBy string) error {
			return port.ErrStaleState
		}

		_, err := f.svc.ChangeState(context.Background(), uuid.New(), ChangeStateRequest{
			TargetState: lifecycle.StateInTraining,
		})
		if !errors.Is(err, port.ErrStaleState) {
			t.Errorf("ChangeState() error = %v, want ErrStaleState", err)
		}
		if len(f.events.events) != 0 {
			t.Error("no event should be published when the commit fails")
		}
	})
}

func TestWorkerService_Hire(t *testing.T) {
	contractID := uuid.New()

	t.Run("hires booked worker when all checks pass", func(t *testing.T) {
		f := newFixture()
		f.workerRepo.getByIDFunc = workerIn(lifecycle.StateBooked)
		f.factSource.facts = port.WorkerFacts{
			HasValidMedical:    true,
			HasValidVisa:       true,
			HasActiveInsurance: true,
			IsClientVerified:   true,
		}

		worker, err := f.svc.Hire(context.Background(), uuid.New(), HireRequest{
			ContractID: &contractID,
			ChangedBy:  "user-1",
		})
		if err != nil {
			t.Fatalf("Hire() error = %v", err)
		}
		if worker.CurrentState != lifecycle.StateHired {
			t.Errorf("CurrentState = %v, want HIRED", worker.CurrentState)
		}
		if f.historyRepo.records[0].Reason != "Contract signed, ready for deployment" {
			t.Errorf("Reason = %q", f.historyRepo.records[0].Reason)
		}

		types := f.events.typesSeen()
		if len(types) != 2 || types[1] != event.TypeWorkerHired {
			t.Errorf("events = %v, want state_changed then hired", types)
		}
	})

	t.Run("accumulates every failing check", func(t *testing.T) {
		f := newFixture()
		f.workerRepo.getByIDFunc = workerIn(lifecycle.StateBooked)

		_, err := f.svc.Hire(context.Background(), uuid.New(), HireRequest{})

		var terr *lifecycle.TransitionError
		if !errors.As(err, &terr) || terr.Code != lifecycle.CodePreconditionsNotMet {
			t.Fatalf("Hire() error = %v, want PRECONDITIONS_NOT_MET", err)
		}
		want := "Valid medical clearance required; Valid visa required; Active insurance required; Client must be verified; Contract ID required"
		if terr.Message != want {
			t.Errorf("Message = %q, want %q", terr.Message, want)
		}
	})

	t.Run("rejects origin other than BOOKED", func(t *testing.T) {
		f := newFixture()
		f.workerRepo.getByIDFunc = workerIn(lifecycle.StateReadyForMarket)

		_, err := f.svc.Hire(context.Background(), uuid.New(), HireRequest{ContractID: &contractID})

		var terr *lifecycle.TransitionError
		if !errors.As(err, &terr) || terr.Code != lifecycle.CodeInvalidTransition {
			t.Fatalf("Hire() error = %v, want INVALID_TRANSITION", err)
		}
	})
}

func TestWorkerService_ValidTargetStates(t *testing.T) {
	f := newFixture()
	f.workerRepo.getByIDFunc = workerIn(lifecycle.StateRepatriated)

	states, err := f.svc.ValidTargetStates(context.Background(), uuid.New())
	if err != nil {
		t.Fatalf("ValidTargetStates() error = %v", err)
	}

	want := []lifecycle.WorkerState{lifecycle.StateAbsconded, lifecycle.StateDeported, lifecycle.StateDeceased}
	if len(states) != len(want) {
		t.Fatalf("states = %v, want %v", states, want)
	}
	for i := range want {
		if states[i] != want[i] {
			t.Errorf("states[%d] = %v, want %v", i, states[i], want[i])
		}
	}
}

func TestWorkerService_StateHistory(t *testing.T) {
	f := newFixture()
	f.workerRepo.getByIDFunc = workerIn(lifecycle.StateActive)
	f.historyRepo.records = []*entity.WorkerStateHistory{
		{FromState: lifecycle.StateOnProbation, ToState: lifecycle.StateActive, Reason: "Probation passed"},
	}

	records, total, err := f.svc.StateHistory(context.Background(), uuid.New(), 20, 0)
	if err != nil {
		t.Fatalf("StateHistory() error = %v", err)
	}
	if total != 1 || len(records) != 1 {
		t.Errorf("records = %d, total = %d, want 1/1", len(records), total)
	}

	t.Run("missing worker", func(t *testing.T) {
		f := newFixture()
		f.workerRepo.getByIDFunc = func(ctx context.Context, id uuid.UUID) (*entity.Worker, error) {
			return nil, port.ErrNotFound
		}

		_, _, err := f.svc.StateHistory(context.Background(), uuid.New(), 20, 0)
		if !errors.Is(err, port.ErrNotFound) {
			t.Errorf("StateHistory() error = %v, want ErrNotFound", err)
		}
	})
}
