package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/agencyops/worker-lifecycle/internal/application/port"
	"github.com/agencyops/worker-lifecycle/internal/domain/entity"
	"github.com/agencyops/worker-lifecycle/internal/domain/lifecycle"
)

// WorkerRepository implements port.WorkerRepository
type WorkerRepository struct {
	db     *sql.DB
	logger *zap.Logger
}

// NewWorkerRepository creates a new worker repository
func NewWorkerRepository(db *sql.DB, logger *zap.Logger) port.WorkerRepository {
	return &WorkerRepository{
		db:     db,
		logger: logger,
	}
}

// Create inserts a new worker record
func (r *WorkerRepository) Create(ctx context.Context, worker *entity.Worker) error {
	query := `
		INSERT INTO workers (
			id, passport_number, full_name, nationality, current_state,
			created_by, created_at, updated_by, updated_at
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
	`

	_, err := getExecutor(ctx, r.db).ExecContext(ctx, query,
		worker.ID.String(),
		worker.PassportNumber,
		worker.FullName,
		worker.Nationality,
		worker.CurrentState.String(),
		worker.CreatedBy,
		worker.CreatedAt,
		worker.UpdatedBy,
		worker.UpdatedAt,
	)
	if err != nil {
		r.logger.Error("Failed to create worker", zap.Error(err))
		return fmt.Errorf("failed to create worker: %w", err)
	}

	return nil
}

// GetByID retrieves a worker by ID
func (r *WorkerRepository) GetByID(ctx context.Context, id uuid.UUID) (*entity.Worker, error) {
	query := `
		SELECT id, passport_number, full_name, nationality, current_state,
			created_by, created_at, updated_by, updated_at
		FROM workers
		WHERE id = ?
	`

	row := getExecutor(ctx, r.db).QueryRowContext(ctx, query, id.String())
	worker, err := scanWorker(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, port.ErrNotFound
		}
		r.logger.Error("Failed to get worker", zap.String("worker_id", id.String()), zap.Error(err))
		return nil, fmt.Errorf("failed to get worker: %w", err)
	}

	return worker, nil
}

// ExistsByPassport reports whether a worker with the passport number exists
func (r *WorkerRepository) ExistsByPassport(ctx context.Context, passportNumber string) (bool, error) {
	query := `SELECT COUNT(1) FROM workers WHERE passport_number = ?`

	var count int
	if err := getExecutor(ctx, r.db).QueryRowContext(ctx, query, passportNumber).Scan(&count); err != nil {
		r.logger.Error("Failed to check passport", zap.Error(err))
		return false, fmt.Errorf("failed to check passport: %w", err)
	}
	return count > 0, nil
}

// UpdateState moves the worker to newState, guarded by the expected current
// state. When the guard misses the worker was either removed or concurrently
// transitioned, and the caller must re-read and retry.
func (r *WorkerRepository) UpdateState(ctx context.Context, id uuid.UUID, expectedState, newState lifecycle.WorkerState, updatedBy string) error {
	query := `
		UPDATE workers
		SET current_state = ?, updated_by = ?, updated_at = CURRENT_TIMESTAMP
		WHERE id = ? AND current_state = ?
	`

	result, err := getExecutor(ctx, r.db).ExecContext(ctx, query,
		newState.String(),
		updatedBy,
		id.String(),
		expectedState.String(),
	)
	if err != nil {
		r.logger.Error("Failed to update worker state", zap.Error(err))
		return fmt.Errorf("failed to update worker state: %w", err)
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get affected rows: %w", err)
	}
	if affected == 0 {
		return port.ErrStaleState
	}

	return nil
}

// List retrieves workers ordered by creation time
func (r *WorkerRepository) List(ctx context.Context, limit, offset int) ([]*entity.Worker, error) {
	query := `
		SELECT id, passport_number, full_name, nationality, current_state,
			created_by, created_at, updated_by, updated_at
		FROM workers
		ORDER BY created_at DESC
		LIMIT ? OFFSET ?
	`

	rows, err := getExecutor(ctx, r.db).QueryContext(ctx, query, limit, offset)
	if err != nil {
		r.logger.Error("Failed to list workers", zap.Error(err))
		return nil, fmt.Errorf("failed to list workers: %w", err)
	}
	defer rows.Close()

	var workers []*entity.Worker
	for rows.Next() {
		worker, err := scanWorker(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan worker: %w", err)
		}
		workers = append(workers, worker)
	}

	return workers, rows.Err()
}

type rowScanner interface {
	Scan(dest ...interface{}) error
}

func scanWorker(row rowScanner) (*entity.Worker, error) {
	var worker entity.Worker
	var id, state string

	err := row.Scan(
		&id,
		&worker.PassportNumber,
		&worker.FullName,
		&worker.Nationality,
		&state,
		&worker.CreatedBy,
		&worker.CreatedAt,
		&worker.UpdatedBy,
		&worker.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}

	worker.ID, err = uuid.Parse(id)
	if err != nil {
		return nil, fmt.Errorf("invalid worker id %q: %w", id, err)
	}
	worker.CurrentState = lifecycle.WorkerState(state)

	return &worker, nil
}

// Verify interface compliance
var _ port.WorkerRepository = (*WorkerRepository)(nil)
