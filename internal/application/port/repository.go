package port

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/agencyops/worker-lifecycle/internal/domain/entity"
	"github.com/agencyops/worker-lifecycle/internal/domain/lifecycle"
)

// WorkerRepository defines persistence operations for Worker
type WorkerRepository interface {
	Create(ctx context.Context, worker *entity.Worker) error
	GetByID(ctx context.Context, id uuid.UUID) (*entity.Worker, error)
	ExistsByPassport(ctx context.Context, passportNumber string) (bool, error)

	// UpdateState moves a worker from expectedState to newState. It must fail
	// with ErrStaleState when the stored state no longer matches
	// expectedState, so two concurrent transitions cannot both succeed from
	// the same stale origin.
	UpdateState(ctx context.Context, id uuid.UUID, expectedState, newState lifecycle.WorkerState, updatedBy string) error

	List(ctx context.Context, limit, offset int) ([]*entity.Worker, error)
}

// StateHistoryRepository defines persistence operations for the append-only
// transition audit trail. Records are immutable: create and read only.
type StateHistoryRepository interface {
	Create(ctx context.Context, record *entity.WorkerStateHistory) error
	GetByWorkerID(ctx context.Context, workerID uuid.UUID, limit, offset int) ([]*entity.WorkerStateHistory, error)
	CountByWorkerID(ctx context.Context, workerID uuid.UUID) (int64, error)
}

// FactSource resolves the up-to-date boolean facts a transition context needs.
// The lifecycle core never fetches facts itself; the service queries this
// immediately before each validation attempt.
type FactSource interface {
	Facts(ctx context.Context, workerID uuid.UUID) (WorkerFacts, error)
}

// WorkerFacts is the resolved snapshot handed to the transition context
type WorkerFacts struct {
	HasValidMedical    bool
	HasValidVisa       bool
	HasActiveInsurance bool
	IsClientVerified   bool
}

// ClearanceRepository maintains the clearance records FactSource reads from
type ClearanceRepository interface {
	Upsert(ctx context.Context, clearance *entity.WorkerClearance) error
	GetByWorkerID(ctx context.Context, workerID uuid.UUID) (*entity.WorkerClearance, error)

	// ExpiringWithin lists clearances whose medical or visa validity ends
	// inside the window starting now. Already expired records are excluded.
	ExpiringWithin(ctx context.Context, window time.Duration) ([]*entity.WorkerClearance, error)
}

// TransactionManager handles database transactions
type TransactionManager interface {
	WithTransaction(ctx context.Context, fn func(ctx context.Context) error) error
}
