package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/agencyops/worker-lifecycle/internal/application/port"
	"github.com/agencyops/worker-lifecycle/internal/domain/entity"
)

// ClearanceRepository stores the externally maintained clearance facts and
// doubles as the fact source consulted before each transition validation: a
// worker with no clearance row has no valid facts at all.
type ClearanceRepository struct {
	db     *sql.DB
	logger *zap.Logger
	now    func() time.Time
}

// NewClearanceRepository creates a new clearance repository
func NewClearanceRepository(db *sql.DB, logger *zap.Logger) *ClearanceRepository {
	return &ClearanceRepository{
		db:     db,
		logger: logger,
		now:    time.Now,
	}
}

// Upsert writes the clearance record for a worker
func (r *ClearanceRepository) Upsert(ctx context.Context, clearance *entity.WorkerClearance) error {
	query := `
		INSERT INTO worker_clearances (
			worker_id, medical_valid_until, visa_valid_until,
			insurance_active, client_verified, updated_at
		) VALUES (?, ?, ?, ?, ?, ?)
		ON CONFLICT(worker_id) DO UPDATE SET
			medical_valid_until = excluded.medical_valid_until,
			visa_valid_until = excluded.visa_valid_until,
			insurance_active = excluded.insurance_active,
			client_verified = excluded.client_verified,
			updated_at = excluded.updated_at
	`

	clearance.UpdatedAt = r.now()
	_, err := getExecutor(ctx, r.db).ExecContext(ctx, query,
		clearance.WorkerID.String(),
		clearance.MedicalValidUntil,
		clearance.VisaValidUntil,
		clearance.InsuranceActive,
		clearance.ClientVerified,
		clearance.UpdatedAt,
	)
	if err != nil {
		r.logger.Error("Failed to upsert clearance", zap.Error(err))
		return fmt.Errorf("failed to upsert clearance: %w", err)
	}
	return nil
}

// GetByWorkerID retrieves the clearance record for a worker
func (r *ClearanceRepository) GetByWorkerID(ctx context.Context, workerID uuid.UUID) (*entity.WorkerClearance, error) {
	query := `
		SELECT worker_id, medical_valid_until, visa_valid_until,
			insurance_active, client_verified, updated_at
		FROM worker_clearances
		WHERE worker_id = ?
	`

	var clearance entity.WorkerClearance
	var id string
	err := getExecutor(ctx, r.db).QueryRowContext(ctx, query, workerID.String()).Scan(
		&id,
		&clearance.MedicalValidUntil,
		&clearance.VisaValidUntil,
		&clearance.InsuranceActive,
		&clearance.ClientVerified,
		&clearance.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, port.ErrNotFound
		}
		r.logger.Error("Failed to get clearance", zap.Error(err))
		return nil, fmt.Errorf("failed to get clearance: %w", err)
	}

	clearance.WorkerID, err = uuid.Parse(id)
	if err != nil {
		return nil, fmt.Errorf("invalid worker id %q: %w", id, err)
	}
	return &clearance, nil
}

// ExpiringWithin lists clearances whose medical or visa validity ends inside
// the window starting now
func (r *ClearanceRepository) ExpiringWithin(ctx context.Context, window time.Duration) ([]*entity.WorkerClearance, error) {
	query := `
		SELECT worker_id, medical_valid_until, visa_valid_until,
			insurance_active, client_verified, updated_at
		FROM worker_clearances
		WHERE (medical_valid_until > ? AND medical_valid_until <= ?)
		   OR (visa_valid_until > ? AND visa_valid_until <= ?)
		ORDER BY worker_id
	`

	now := r.now()
	deadline := now.Add(window)

	rows, err := getExecutor(ctx, r.db).QueryContext(ctx, query, now, deadline, now, deadline)
	if err != nil {
		r.logger.Error("Failed to list expiring clearances", zap.Error(err))
		return nil, fmt.Errorf("failed to list expiring clearances: %w", err)
	}
	defer rows.Close()

	var clearances []*entity.WorkerClearance
	for rows.Next() {
		var clearance entity.WorkerClearance
		var id string
		if err := rows.Scan(
			&id,
			&clearance.MedicalValidUntil,
			&clearance.VisaValidUntil,
			&clearance.InsuranceActive,
			&clearance.ClientVerified,
			&clearance.UpdatedAt,
		); err != nil {
			return nil, fmt.Errorf("failed to scan clearance: %w", err)
		}
		clearance.WorkerID, err = uuid.Parse(id)
		if err != nil {
			return nil, fmt.Errorf("invalid worker id %q: %w", id, err)
		}
		clearances = append(clearances, &clearance)
	}
	return clearances, rows.Err()
}

// Facts resolves the boolean transition facts from the clearance record.
// Expiry-based facts compare against the current time, so the snapshot is
// always as fresh as the stored record.
func (r *ClearanceRepository) Facts(ctx context.Context, workerID uuid.UUID) (port.WorkerFacts, error) {
	clearance, err := r.GetByWorkerID(ctx, workerID)
	if err != nil {
		if errors.Is(err, port.ErrNotFound) {
			// No clearance record means no facts hold.
			return port.WorkerFacts{}, nil
		}
		return port.WorkerFacts{}, err
	}

	now := r.now()
	return port.WorkerFacts{
		HasValidMedical:    clearance.MedicalValidUntil != nil && clearance.MedicalValidUntil.After(now),
		HasValidVisa:       clearance.VisaValidUntil != nil && clearance.VisaValidUntil.After(now),
		HasActiveInsurance: clearance.InsuranceActive,
		IsClientVerified:   clearance.ClientVerified,
	}, nil
}

// Verify interface compliance
var (
	_ port.ClearanceRepository = (*ClearanceRepository)(nil)
	_ port.FactSource          = (*ClearanceRepository)(nil)
)
