package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/agencyops/worker-lifecycle/internal/application/dispatcher"
	"github.com/agencyops/worker-lifecycle/internal/application/port"
	"github.com/agencyops/worker-lifecycle/internal/domain/entity"
	"github.com/agencyops/worker-lifecycle/internal/domain/event"
	"github.com/agencyops/worker-lifecycle/internal/domain/lifecycle"
)

// Logger interface for minimal logging dependency
type Logger interface {
	Info(msg string, keysAndValues ...interface{})
	Error(msg string, keysAndValues ...interface{})
}

// ErrDuplicatePassport is returned when a worker with the same passport
// number is already registered
var ErrDuplicatePassport = errors.New("worker with this passport number already exists")

// CreateWorkerRequest carries the fields needed to register a worker
type CreateWorkerRequest struct {
	PassportNumber string
	FullName       string
	Nationality    string
	CreatedBy      string
}

// ChangeStateRequest is one transition attempt against a worker
type ChangeStateRequest struct {
	TargetState lifecycle.WorkerState

	// Reason overrides the rule's default audit reason when set
	Reason          string
	RelatedEntityID *uuid.UUID
	ChangedBy       string
}

// HireRequest deploys a booked worker under a signed contract
type HireRequest struct {
	ContractID *uuid.UUID
	ChangedBy  string
}

// WorkerService manages workers and their lifecycle transitions
type WorkerService interface {
	Create(ctx context.Context, req CreateWorkerRequest) (*entity.Worker, error)
	Get(ctx context.Context, id uuid.UUID) (*entity.Worker, error)
	List(ctx context.Context, limit, offset int) ([]*entity.Worker, error)
	ChangeState(ctx context.Context, id uuid.UUID, req ChangeStateRequest) (*entity.Worker, error)
	Hire(ctx context.Context, id uuid.UUID, req HireRequest) (*entity.Worker, error)
	ValidTargetStates(ctx context.Context, id uuid.UUID) ([]lifecycle.WorkerState, error)
	StateHistory(ctx context.Context, id uuid.UUID, limit, offset int) ([]*entity.WorkerStateHistory, int64, error)
}

type workerServiceImpl struct {
	workerRepo  port.WorkerRepository
	historyRepo port.StateHistoryRepository
	factSource  port.FactSource
	txManager   port.TransactionManager
	validator   *lifecycle.Validator
	events      dispatcher.Dispatcher
	logger      Logger
}

// NewWorkerService creates a new WorkerService
func NewWorkerService(
	workerRepo port.WorkerRepository,
	historyRepo port.StateHistoryRepository,
	factSource port.FactSource,
	txManager port.TransactionManager,
	validator *lifecycle.Validator,
	events dispatcher.Dispatcher,
	logger Logger,
) WorkerService {
	return &workerServiceImpl{
		workerRepo:  workerRepo,
		historyRepo: historyRepo,
		factSource:  factSource,
		txManager:   txManager,
		validator:   validator,
		events:      events,
		logger:      logger,
	}
}

// Create registers a new worker. Every worker starts in NEW_ARRIVAL.
func (s *workerServiceImpl) Create(ctx context.Context, req CreateWorkerRequest) (*entity.Worker, error) {
	exists, err := s.workerRepo.ExistsByPassport(ctx, req.PassportNumber)
	if err != nil {
		s.logger.Error("Failed to check passport uniqueness", "error", err)
		return nil, err
	}
	if exists {
		return nil, ErrDuplicatePassport
	}

	now := time.Now()
	worker := &entity.Worker{
		ID:             uuid.New(),
		PassportNumber: req.PassportNumber,
		FullName:       req.FullName,
		Nationality:    req.Nationality,
		CurrentState:   lifecycle.StateNewArrival,
		CreatedBy:      req.CreatedBy,
		CreatedAt:      now,
		UpdatedAt:      now,
	}

	err = s.txManager.WithTransaction(ctx, func(txCtx context.Context) error {
		if err := s.workerRepo.Create(txCtx, worker); err != nil {
			return fmt.Errorf("create worker: %w", err)
		}

		record := &entity.WorkerStateHistory{
			WorkerID:   worker.ID,
			FromState:  "",
			ToState:    lifecycle.StateNewArrival,
			Reason:     "Worker registered",
			ChangedBy:  req.CreatedBy,
			OccurredAt: now,
		}
		if err := s.historyRepo.Create(txCtx, record); err != nil {
			return fmt.Errorf("create history: %w", err)
		}

		return nil
	})
	if err != nil {
		s.logger.Error("Failed to create worker", "error", err, "passport", req.PassportNumber)
		return nil, err
	}

	s.publish(ctx, event.NewEvent(event.TypeWorkerCreated, worker.ID, map[string]interface{}{
		"full_name":   worker.FullName,
		"nationality": worker.Nationality,
		"created_by":  req.CreatedBy,
	}))

	s.logger.Info("Worker created", "worker_id", worker.ID, "state", worker.CurrentState)
	return worker, nil
}

// Get retrieves a worker by ID
func (s *workerServiceImpl) Get(ctx context.Context, id uuid.UUID) (*entity.Worker, error) {
	return s.workerRepo.GetByID(ctx, id)
}

// List retrieves workers with pagination
func (s *workerServiceImpl) List(ctx context.Context, limit, offset int) ([]*entity.Worker, error) {
	return s.workerRepo.List(ctx, limit, offset)
}

// ChangeState attempts to move a worker to the target state. The transition is
// validated against a fresh fact snapshot; on success the new state and an
// audit record are applied in a single transaction guarded by the worker's
// current state, and domain events are published after commit. Nothing is
// mutated on failure.
func (s *workerServiceImpl) ChangeState(ctx context.Context, id uuid.UUID, req ChangeStateRequest) (*entity.Worker, error) {
	worker, err := s.workerRepo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	tctx, err := s.buildContext(ctx, worker, req.TargetState, req.RelatedEntityID)
	if err != nil {
		return nil, err
	}

	rule, err := s.validator.ValidateTransition(worker.CurrentState, req.TargetState, tctx)
	if err != nil {
		s.logger.Info("Transition rejected",
			"worker_id", id,
			"from", worker.CurrentState,
			"to", req.TargetState,
			"error", err,
		)
		return nil, err
	}

	reason := req.Reason
	if reason == "" {
		reason = rule.DefaultReason
	}

	return s.apply(ctx, worker, req.TargetState, reason, req.RelatedEntityID, req.ChangedBy)
}

// Hire executes Booked -> Hired with the full deployment check set. It is
// stricter than the generic catalog rule for the same pair: medical, visa,
// insurance, client verification and the contract id must all hold, and every
// failing check is reported at once.
func (s *workerServiceImpl) Hire(ctx context.Context, id uuid.UUID, req HireRequest) (*entity.Worker, error) {
	worker, err := s.workerRepo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	if worker.CurrentState != lifecycle.StateBooked {
		return nil, &lifecycle.TransitionError{
			From:    worker.CurrentState,
			To:      lifecycle.StateHired,
			Code:    lifecycle.CodeInvalidTransition,
			Message: fmt.Sprintf("Invalid transition from %s to %s", worker.CurrentState, lifecycle.StateHired),
		}
	}

	tctx, err := s.buildContext(ctx, worker, lifecycle.StateHired, req.ContractID)
	if err != nil {
		return nil, err
	}

	rule, err := s.validator.ValidateBookedToHired(tctx)
	if err != nil {
		s.logger.Info("Hire rejected", "worker_id", id, "error", err)
		return nil, err
	}

	updated, err := s.apply(ctx, worker, lifecycle.StateHired, rule.DefaultReason, req.ContractID, req.ChangedBy)
	if err != nil {
		return nil, err
	}

	s.publish(ctx, event.NewEvent(event.TypeWorkerHired, worker.ID, map[string]interface{}{
		"contract_id": contractIDString(req.ContractID),
		"changed_by":  req.ChangedBy,
	}))

	return updated, nil
}

// ValidTargetStates lists the states the worker can move to from its current
// state, feeding the "what can I do next" UI affordance
func (s *workerServiceImpl) ValidTargetStates(ctx context.Context, id uuid.UUID) ([]lifecycle.WorkerState, error) {
	worker, err := s.workerRepo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	return lifecycle.ValidTargetStates(worker.CurrentState), nil
}

// StateHistory returns the worker's transition audit trail with the total count
func (s *workerServiceImpl) StateHistory(ctx context.Context, id uuid.UUID, limit, offset int) ([]*entity.WorkerStateHistory, int64, error) {
	if _, err := s.workerRepo.GetByID(ctx, id); err != nil {
		return nil, 0, err
	}

	records, err := s.historyRepo.GetByWorkerID(ctx, id, limit, offset)
	if err != nil {
		return nil, 0, err
	}
	total, err := s.historyRepo.CountByWorkerID(ctx, id)
	if err != nil {
		return nil, 0, err
	}
	return records, total, nil
}

// buildContext assembles a fresh TransitionContext from the fact source
func (s *workerServiceImpl) buildContext(ctx context.Context, worker *entity.Worker, target lifecycle.WorkerState, relatedEntityID *uuid.UUID) (lifecycle.TransitionContext, error) {
	facts, err := s.factSource.Facts(ctx, worker.ID)
	if err != nil {
		s.logger.Error("Failed to resolve worker facts", "error", err, "worker_id", worker.ID)
		return lifecycle.TransitionContext{}, err
	}

	return lifecycle.TransitionContext{
		WorkerID:           worker.ID,
		Current:            worker.CurrentState,
		Target:             target,
		RelatedEntityID:    relatedEntityID,
		HasValidMedical:    facts.HasValidMedical,
		HasValidVisa:       facts.HasValidVisa,
		HasActiveInsurance: facts.HasActiveInsurance,
		IsClientVerified:   facts.IsClientVerified,
	}, nil
}

// apply commits a validated transition: state update with optimistic guard
// plus the audit record, atomically, then events
func (s *workerServiceImpl) apply(ctx context.Context, worker *entity.Worker, target lifecycle.WorkerState, reason string, relatedEntityID *uuid.UUID, changedBy string) (*entity.Worker, error) {
	fromState := worker.CurrentState
	now := time.Now()

	err := s.txManager.WithTransaction(ctx, func(txCtx context.Context) error {
		if err := s.workerRepo.UpdateState(txCtx, worker.ID, fromState, target, changedBy); err != nil {
			return fmt.Errorf("update state: %w", err)
		}

		record := &entity.WorkerStateHistory{
			WorkerID:        worker.ID,
			FromState:       fromState,
			ToState:         target,
			Reason:          reason,
			RelatedEntityID: relatedEntityID,
			ChangedBy:       changedBy,
			OccurredAt:      now,
		}
		if err := s.historyRepo.Create(txCtx, record); err != nil {
			return fmt.Errorf("create history: %w", err)
		}

		return nil
	})
	if err != nil {
		s.logger.Error("Failed to apply transition",
			"error", err,
			"worker_id", worker.ID,
			"from", fromState,
			"to", target,
		)
		return nil, err
	}

	worker.CurrentState = target
	worker.UpdatedBy = changedBy
	worker.UpdatedAt = now

	s.publish(ctx, event.NewEvent(event.TypeWorkerStateChanged, worker.ID, map[string]interface{}{
		"from":       fromState.String(),
		"to":         target.String(),
		"reason":     reason,
		"changed_by": changedBy,
	}))

	if target == lifecycle.StateAbsconded {
		s.publish(ctx, event.NewEvent(event.TypeWorkerAbsconded, worker.ID, map[string]interface{}{
			"reported_by": changedBy,
		}))
	}

	s.logger.Info("Worker transitioned",
		"worker_id", worker.ID,
		"from", fromState,
		"to", target,
		"reason", reason,
	)
	return worker, nil
}

// publish dispatches an event without failing the committed operation
func (s *workerServiceImpl) publish(ctx context.Context, evt *event.Event) {
	if err := s.events.Dispatch(ctx, evt); err != nil {
		s.logger.Error("Failed to dispatch event", "error", err, "event_type", evt.Type)
	}
}

func contractIDString(id *uuid.UUID) string {
	if id == nil {
		return ""
	}
	return id.String()
}
