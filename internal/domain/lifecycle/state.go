package lifecycle

import (
	"fmt"
	"strings"
)

// WorkerState represents a stage in the worker recruitment/employment lifecycle
type WorkerState string

const (
	// Intake / preparation
	StateNewArrival       WorkerState = "NEW_ARRIVAL"
	StateInTraining       WorkerState = "IN_TRAINING"
	StateUnderMedicalTest WorkerState = "UNDER_MEDICAL_TEST"
	StateReadyForMarket   WorkerState = "READY_FOR_MARKET"

	// Commercial
	StateBooked       WorkerState = "BOOKED"
	StateHired        WorkerState = "HIRED"
	StateAwaitingVisa WorkerState = "AWAITING_VISA"

	// Employment
	StateOnProbation        WorkerState = "ON_PROBATION"
	StateInProbationReview  WorkerState = "IN_PROBATION_REVIEW"
	StateActive             WorkerState = "ACTIVE"
	StateRenewed            WorkerState = "RENEWED"
	StateTransferred        WorkerState = "TRANSFERRED"
	StatePendingReplacement WorkerState = "PENDING_REPLACEMENT"
	StatePregnant           WorkerState = "PREGNANT"

	// Exit
	StateMedicallyUnfit WorkerState = "MEDICALLY_UNFIT"
	StateTerminated     WorkerState = "TERMINATED"
	StateAbsconded      WorkerState = "ABSCONDED"
	StateDeported       WorkerState = "DEPORTED"
	StateRepatriated    WorkerState = "REPATRIATED"
	StateDeceased       WorkerState = "DECEASED"
)

var validStates = map[WorkerState]bool{
	StateNewArrival:         true,
	StateInTraining:         true,
	StateUnderMedicalTest:   true,
	StateReadyForMarket:     true,
	StateBooked:             true,
	StateHired:              true,
	StateAwaitingVisa:       true,
	StateOnProbation:        true,
	StateInProbationReview:  true,
	StateActive:             true,
	StateRenewed:            true,
	StateTransferred:        true,
	StatePendingReplacement: true,
	StatePregnant:           true,
	StateMedicallyUnfit:     true,
	StateTerminated:         true,
	StateAbsconded:          true,
	StateDeported:           true,
	StateRepatriated:        true,
	StateDeceased:           true,
}

// emergencyTargets are reachable from any other state without preconditions.
// Declaration order is the order emergency targets are reported in.
var emergencyTargets = []WorkerState{
	StateAbsconded,
	StateDeported,
	StateDeceased,
}

var terminalStates = map[WorkerState]bool{
	StateAbsconded:   true,
	StateDeported:    true,
	StateRepatriated: true,
	StateDeceased:    true,
}

// String returns the string representation of the state
func (s WorkerState) String() string {
	return string(s)
}

// IsValid returns true if the state is one of the 20 lifecycle states
func (s WorkerState) IsValid() bool {
	return validStates[s]
}

// IsTerminal returns true if no ordinary transition may originate from the state.
// Emergency transitions are still permitted out of terminal states.
func (s WorkerState) IsTerminal() bool {
	return terminalStates[s]
}

// IsEmergencyTarget returns true if the state can be reached from any other
// state without preconditions
func (s WorkerState) IsEmergencyTarget() bool {
	for _, t := range emergencyTargets {
		if s == t {
			return true
		}
	}
	return false
}

// ParseState parses a case-insensitive state name
func ParseState(raw string) (WorkerState, error) {
	s := WorkerState(strings.ToUpper(strings.TrimSpace(raw)))
	if !s.IsValid() {
		return "", fmt.Errorf("unknown worker state: %q", raw)
	}
	return s, nil
}
