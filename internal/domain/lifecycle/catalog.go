package lifecycle

import "fmt"

// TransitionRule pairs the precondition gating a transition with the default
// audit reason recorded when no caller-supplied reason overrides it.
type TransitionRule struct {
	Precondition  Precondition
	DefaultReason string
}

type transitionKey struct {
	From WorkerState
	To   WorkerState
}

type catalogEntry struct {
	From WorkerState
	To   WorkerState
	Rule TransitionRule
}

// catalog declares every ordinary legal transition. It is built once at package
// init and never mutated; concurrent reads need no locking. The slice keeps
// declaration order so target-state listings stay stable for the UI, the map
// indexes it for lookup.
var catalog = []catalogEntry{
	// NewArrival
	{StateNewArrival, StateInTraining, TransitionRule{RequireNone, "Worker started training"}},
	{StateNewArrival, StateUnderMedicalTest, TransitionRule{RequireNone, "Sent for medical"}},

	// InTraining
	{StateInTraining, StateReadyForMarket, TransitionRule{RequireMedicalClearance, "Training completed"}},
	{StateInTraining, StateUnderMedicalTest, TransitionRule{RequireNone, "Sent for medical"}},

	// UnderMedicalTest
	{StateUnderMedicalTest, StateReadyForMarket, TransitionRule{RequireMedicalClearance, "Medical cleared"}},
	{StateUnderMedicalTest, StateInTraining, TransitionRule{RequireNone, "Back to training"}},
	{StateUnderMedicalTest, StateMedicallyUnfit, TransitionRule{RequireNone, "Medical failed"}},

	// ReadyForMarket
	{StateReadyForMarket, StateBooked, TransitionRule{RequireClientID, "Client booked worker"}},
	{StateReadyForMarket, StateUnderMedicalTest, TransitionRule{RequireNone, "Routine medical check"}},

	// Booked
	{StateBooked, StateHired, TransitionRule{RequireContractID, "Contract signed"}},
	{StateBooked, StateReadyForMarket, TransitionRule{RequireNone, "Booking cancelled"}},

	// Hired
	{StateHired, StateAwaitingVisa, TransitionRule{RequireNone, "Awaiting visa"}},
	{StateHired, StateOnProbation, TransitionRule{RequireNone, "Deployed to client"}},

	// AwaitingVisa
	{StateAwaitingVisa, StateOnProbation, TransitionRule{RequireNone, "Visa obtained, deployed"}},
	{StateAwaitingVisa, StateTerminated, TransitionRule{RequireNone, "Visa rejected"}},

	// OnProbation
	{StateOnProbation, StateActive, TransitionRule{RequireNone, "Probation passed"}},
	{StateOnProbation, StateInProbationReview, TransitionRule{RequireNone, "Probation issue"}},
	{StateOnProbation, StatePendingReplacement, TransitionRule{RequireNone, "Client wants replacement"}},
	{StateOnProbation, StateTerminated, TransitionRule{RequireNone, "Probation failed"}},

	// InProbationReview
	{StateInProbationReview, StateOnProbation, TransitionRule{RequireNone, "Issue resolved"}},
	{StateInProbationReview, StateTerminated, TransitionRule{RequireNone, "Review failed"}},
	{StateInProbationReview, StatePendingReplacement, TransitionRule{RequireNone, "Replacement requested"}},

	// Active
	{StateActive, StateRenewed, TransitionRule{RequireContractID, "Contract renewed"}},
	{StateActive, StateTransferred, TransitionRule{RequireContractID, "Transferred to new employer"}},
	{StateActive, StateTerminated, TransitionRule{RequireNone, "Contract terminated"}},
	{StateActive, StatePendingReplacement, TransitionRule{RequireNone, "Replacement requested"}},
	{StateActive, StatePregnant, TransitionRule{RequireNone, "Worker is pregnant"}},
	{StateActive, StateUnderMedicalTest, TransitionRule{RequireNone, "Medical check required"}},

	// Renewed
	{StateRenewed, StateActive, TransitionRule{RequireNone, "Renewal active"}},
	{StateRenewed, StateTerminated, TransitionRule{RequireNone, "Renewal cancelled"}},

	// Transferred
	{StateTransferred, StateOnProbation, TransitionRule{RequireNone, "New probation period"}},
	{StateTransferred, StateActive, TransitionRule{RequireNone, "Direct active with new employer"}},

	// PendingReplacement
	{StatePendingReplacement, StateReadyForMarket, TransitionRule{RequireNone, "Available again"}},
	{StatePendingReplacement, StateBooked, TransitionRule{RequireClientID, "Replacement booked"}},
	{StatePendingReplacement, StateTerminated, TransitionRule{RequireNone, "Not replaced, terminated"}},

	// Pregnant
	{StatePregnant, StateActive, TransitionRule{RequireNone, "Returned to work"}},
	{StatePregnant, StateRepatriated, TransitionRule{RequireNone, "Sent home"}},
	{StatePregnant, StateTerminated, TransitionRule{RequireNone, "Contract ended"}},

	// MedicallyUnfit
	{StateMedicallyUnfit, StateRepatriated, TransitionRule{RequireNone, "Sent home"}},
	{StateMedicallyUnfit, StateTerminated, TransitionRule{RequireNone, "Contract ended"}},

	// Terminated
	{StateTerminated, StateReadyForMarket, TransitionRule{RequireNone, "Re-available"}},
	{StateTerminated, StateRepatriated, TransitionRule{RequireNone, "Sent home"}},

	// Absconded, Deported, Repatriated and Deceased are terminal: nothing
	// ordinary leads out of them. Emergency transitions are handled separately.
}

var catalogIndex = buildIndex()

func buildIndex() map[transitionKey]TransitionRule {
	index := make(map[transitionKey]TransitionRule, len(catalog))
	for _, e := range catalog {
		key := transitionKey{e.From, e.To}
		if _, dup := index[key]; dup {
			panic(fmt.Sprintf("duplicate transition %s -> %s", e.From, e.To))
		}
		index[key] = e.Rule
	}
	return index
}

// IsValidTransition reports whether from -> to is a legal transition.
// A state is never a transition into itself, emergency targets are reachable
// from anywhere, and terminal states have no ordinary outbound transitions.
func IsValidTransition(from, to WorkerState) bool {
	if from == to {
		return false
	}
	if to.IsEmergencyTarget() {
		return true
	}
	if from.IsTerminal() {
		return false
	}
	_, ok := catalogIndex[transitionKey{from, to}]
	return ok
}

// TransitionRuleFor returns the rule governing from -> to, or false when no
// such transition exists. Emergency targets get a synthesized no-precondition
// rule regardless of catalog contents or the terminal status of from; a worker
// in any state may still be escalated to another emergency state.
func TransitionRuleFor(from, to WorkerState) (TransitionRule, bool) {
	if to.IsEmergencyTarget() {
		return TransitionRule{RequireNone, fmt.Sprintf("Emergency: %s", to)}, true
	}
	rule, ok := catalogIndex[transitionKey{from, to}]
	return rule, ok
}

// ValidTargetStates lists every state reachable from the given state: the
// emergency targets other than the state itself, then the catalog targets in
// declaration order. Terminal states yield only the emergency targets.
func ValidTargetStates(from WorkerState) []WorkerState {
	var targets []WorkerState
	for _, t := range emergencyTargets {
		if t != from {
			targets = append(targets, t)
		}
	}

	if from.IsTerminal() {
		return targets
	}

	for _, e := range catalog {
		if e.From == from {
			targets = append(targets, e.To)
		}
	}
	return targets
}
