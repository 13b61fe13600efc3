package lifecycle

import "strings"

// Validator judges transition attempts against the catalog and the caller's
// context snapshot. Validation is pure: no I/O, no retained state, safe for
// unsynchronized concurrent use.
type Validator struct{}

// NewValidator creates a transition validator
func NewValidator() *Validator {
	return &Validator{}
}

// ValidateTransition checks that from -> to is legal and that the governing
// rule's precondition holds. On success it returns the matched rule; on
// failure a *TransitionError carrying one of the closed failure codes.
func (v *Validator) ValidateTransition(from, to WorkerState, ctx TransitionContext) (TransitionRule, error) {
	if !IsValidTransition(from, to) {
		return TransitionRule{}, invalidTransition(from, to)
	}

	// Defensive: IsValidTransition and the catalog agree for every
	// non-emergency target, so a miss here signals a data-integrity problem.
	rule, ok := TransitionRuleFor(from, to)
	if !ok {
		return TransitionRule{}, noRuleFound(from, to)
	}

	if valid, reason := rule.Precondition(ctx); !valid {
		return TransitionRule{}, preconditionFailed(from, to, reason)
	}

	return rule, nil
}

// ValidateBookedToHired validates the Booked -> Hired transition with the full
// set of deployment checks, accumulating every failing reason instead of
// stopping at the first. It is stricter than, and independent of, the generic
// catalog rule for the same pair, which only requires a contract id.
func (v *Validator) ValidateBookedToHired(ctx TransitionContext) (TransitionRule, error) {
	var errs []string

	if !ctx.HasValidMedical {
		errs = append(errs, "Valid medical clearance required")
	}
	if !ctx.HasValidVisa {
		errs = append(errs, "Valid visa required")
	}
	if !ctx.HasActiveInsurance {
		errs = append(errs, "Active insurance required")
	}
	if !ctx.IsClientVerified {
		errs = append(errs, "Client must be verified")
	}
	if ctx.RelatedEntityID == nil {
		errs = append(errs, "Contract ID required")
	}

	if len(errs) > 0 {
		return TransitionRule{}, preconditionsNotMet(StateBooked, StateHired, strings.Join(errs, "; "))
	}

	return TransitionRule{RequireNone, "Contract signed, ready for deployment"}, nil
}
