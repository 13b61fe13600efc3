package lifecycle

import "fmt"

// Failure codes form a closed taxonomy; callers map them to HTTP statuses.
const (
	CodeInvalidTransition   = "INVALID_TRANSITION"
	CodeNoRuleFound         = "NO_RULE_FOUND"
	CodePreconditionFailed  = "PRECONDITION_FAILED"
	CodePreconditionsNotMet = "PRECONDITIONS_NOT_MET"
)

// TransitionError is a data-carrying rejection of a transition attempt. It is
// returned as an ordinary error value, never raised through a panic.
type TransitionError struct {
	From    WorkerState
	To      WorkerState
	Code    string
	Message string
}

// Error returns the human-readable rejection message
func (e *TransitionError) Error() string {
	return e.Message
}

func invalidTransition(from, to WorkerState) *TransitionError {
	return &TransitionError{
		From:    from,
		To:      to,
		Code:    CodeInvalidTransition,
		Message: fmt.Sprintf("Invalid transition from %s to %s", from, to),
	}
}

func noRuleFound(from, to WorkerState) *TransitionError {
	return &TransitionError{
		From:    from,
		To:      to,
		Code:    CodeNoRuleFound,
		Message: fmt.Sprintf("No rule found for transition %s -> %s", from, to),
	}
}

func preconditionFailed(from, to WorkerState, reason string) *TransitionError {
	if reason == "" {
		reason = "Precondition failed"
	}
	return &TransitionError{
		From:    from,
		To:      to,
		Code:    CodePreconditionFailed,
		Message: reason,
	}
}

func preconditionsNotMet(from, to WorkerState, message string) *TransitionError {
	return &TransitionError{
		From:    from,
		To:      to,
		Code:    CodePreconditionsNotMet,
		Message: message,
	}
}
