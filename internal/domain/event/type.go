package event

// Type identifies the type of domain event
type Type string

const (
	TypeWorkerCreated      Type = "worker.created"
	TypeWorkerStateChanged Type = "worker.state_changed"
	TypeWorkerHired        Type = "worker.hired"
	TypeWorkerAbsconded    Type = "worker.absconded"
	TypeClearanceExpiring  Type = "worker.clearance_expiring"
)

// String returns the string representation of the event type
func (t Type) String() string {
	return string(t)
}

// IsValid checks if the event type is one of the defined constants
func (t Type) IsValid() bool {
	switch t {
	case TypeWorkerCreated,
		TypeWorkerStateChanged,
		TypeWorkerHired,
		TypeWorkerAbsconded,
		TypeClearanceExpiring:
		return true
	default:
		return false
	}
}
