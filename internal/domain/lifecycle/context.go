package lifecycle

import "github.com/google/uuid"

// TransitionContext is a point-in-time snapshot of the facts a precondition may
// consult. It is built fresh by the caller for exactly one validation attempt
// and never shared across calls.
type TransitionContext struct {
	WorkerID uuid.UUID
	Current  WorkerState
	Target   WorkerState

	// RelatedEntityID is the client or contract the transition refers to,
	// depending on which precondition gates it.
	RelatedEntityID *uuid.UUID

	HasValidMedical    bool
	HasValidVisa       bool
	HasActiveInsurance bool
	IsClientVerified   bool
}
