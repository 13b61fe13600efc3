package entity

import (
	"time"

	"github.com/google/uuid"

	"github.com/agencyops/worker-lifecycle/internal/domain/lifecycle"
)

// Worker represents a person tracked through the recruitment/employment lifecycle
type Worker struct {
	ID             uuid.UUID             `json:"id"`
	PassportNumber string                `json:"passport_number"`
	FullName       string                `json:"full_name"`
	Nationality    string                `json:"nationality"`
	CurrentState   lifecycle.WorkerState `json:"current_state"`
	CreatedBy      string                `json:"created_by"`
	CreatedAt      time.Time             `json:"created_at"`
	UpdatedBy      string                `json:"updated_by,omitempty"`
	UpdatedAt      time.Time             `json:"updated_at"`
}

// WorkerStateHistory is one immutable, append-only record of an executed
// transition. Rows are never updated or deleted.
type WorkerStateHistory struct {
	ID              int64                 `json:"id"`
	WorkerID        uuid.UUID             `json:"worker_id"`
	FromState       lifecycle.WorkerState `json:"from_state"`
	ToState         lifecycle.WorkerState `json:"to_state"`
	Reason          string                `json:"reason"`
	RelatedEntityID *uuid.UUID            `json:"related_entity_id,omitempty"`
	ChangedBy       string                `json:"changed_by"`
	OccurredAt      time.Time             `json:"occurred_at"`
}

// WorkerClearance holds the externally maintained facts consulted when a
// transition is validated: medical and visa expiry, insurance cover and
// client verification.
type WorkerClearance struct {
	WorkerID          uuid.UUID  `json:"worker_id"`
	MedicalValidUntil *time.Time `json:"medical_valid_until,omitempty"`
	VisaValidUntil    *time.Time `json:"visa_valid_until,omitempty"`
	InsuranceActive   bool       `json:"insurance_active"`
	ClientVerified    bool       `json:"client_verified"`
	UpdatedAt         time.Time  `json:"updated_at"`
}
