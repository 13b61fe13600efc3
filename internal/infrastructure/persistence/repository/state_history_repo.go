package repository

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/agencyops/worker-lifecycle/internal/application/port"
	"github.com/agencyops/worker-lifecycle/internal/domain/entity"
	"github.com/agencyops/worker-lifecycle/internal/domain/lifecycle"
)

// StateHistoryRepository implements port.StateHistoryRepository. The table is
// append-only: no update or delete statements exist here by design of the
// audit contract.
type StateHistoryRepository struct {
	db     *sql.DB
	logger *zap.Logger
}

// NewStateHistoryRepository creates a new state history repository
func NewStateHistoryRepository(db *sql.DB, logger *zap.Logger) port.StateHistoryRepository {
	return &StateHistoryRepository{
		db:     db,
		logger: logger,
	}
}

// Create appends a transition record
func (r *StateHistoryRepository) Create(ctx context.Context, record *entity.WorkerStateHistory) error {
	query := `
		INSERT INTO worker_state_history (
			worker_id, from_state, to_state, reason, related_entity_id,
			changed_by, occurred_at
		) VALUES (?, ?, ?, ?, ?, ?, ?)
	`

	var relatedID interface{}
	if record.RelatedEntityID != nil {
		relatedID = record.RelatedEntityID.String()
	}

	result, err := getExecutor(ctx, r.db).ExecContext(ctx, query,
		record.WorkerID.String(),
		record.FromState.String(),
		record.ToState.String(),
		record.Reason,
		relatedID,
		record.ChangedBy,
		record.OccurredAt,
	)
	if err != nil {
		r.logger.Error("Failed to create history record", zap.Error(err))
		return fmt.Errorf("failed to create history: %w", err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return fmt.Errorf("failed to get last insert id: %w", err)
	}

	record.ID = id
	return nil
}

// GetByWorkerID retrieves transition records for a worker, newest first
func (r *StateHistoryRepository) GetByWorkerID(ctx context.Context, workerID uuid.UUID, limit, offset int) ([]*entity.WorkerStateHistory, error) {
	query := `
		SELECT id, worker_id, from_state, to_state, reason, related_entity_id,
			changed_by, occurred_at
		FROM worker_state_history
		WHERE worker_id = ?
		ORDER BY occurred_at DESC, id DESC
		LIMIT ? OFFSET ?
	`

	rows, err := getExecutor(ctx, r.db).QueryContext(ctx, query, workerID.String(), limit, offset)
	if err != nil {
		r.logger.Error("Failed to get state history", zap.String("worker_id", workerID.String()), zap.Error(err))
		return nil, fmt.Errorf("failed to get history: %w", err)
	}
	defer rows.Close()

	var records []*entity.WorkerStateHistory
	for rows.Next() {
		var record entity.WorkerStateHistory
		var wid, fromState, toState string
		var relatedID sql.NullString

		err := rows.Scan(
			&record.ID,
			&wid,
			&fromState,
			&toState,
			&record.Reason,
			&relatedID,
			&record.ChangedBy,
			&record.OccurredAt,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan history record: %w", err)
		}

		record.WorkerID, err = uuid.Parse(wid)
		if err != nil {
			return nil, fmt.Errorf("invalid worker id %q: %w", wid, err)
		}
		record.FromState = lifecycle.WorkerState(fromState)
		record.ToState = lifecycle.WorkerState(toState)

		if relatedID.Valid {
			parsed, err := uuid.Parse(relatedID.String)
			if err != nil {
				return nil, fmt.Errorf("invalid related entity id %q: %w", relatedID.String, err)
			}
			record.RelatedEntityID = &parsed
		}

		records = append(records, &record)
	}

	return records, rows.Err()
}

// CountByWorkerID returns the total number of transition records for a worker
func (r *StateHistoryRepository) CountByWorkerID(ctx context.Context, workerID uuid.UUID) (int64, error) {
	query := `SELECT COUNT(1) FROM worker_state_history WHERE worker_id = ?`

	var count int64
	if err := getExecutor(ctx, r.db).QueryRowContext(ctx, query, workerID.String()).Scan(&count); err != nil {
		r.logger.Error("Failed to count state history", zap.Error(err))
		return 0, fmt.Errorf("failed to count history: %w", err)
	}
	return count, nil
}

// Verify interface compliance
var _ port.StateHistoryRepository = (*StateHistoryRepository)(nil)
