package lifecycle

// Precondition evaluates whether a transition is currently allowed given the
// caller-supplied context. It returns false plus a human-readable reason on
// failure. Preconditions are pure and stateless; the same named precondition
// may back multiple catalog entries.
type Precondition func(ctx TransitionContext) (bool, string)

// RequireNone always passes
var RequireNone Precondition = func(TransitionContext) (bool, string) {
	return true, ""
}

// RequireMedicalClearance passes when the worker holds a valid medical clearance
var RequireMedicalClearance Precondition = func(ctx TransitionContext) (bool, string) {
	if ctx.HasValidMedical {
		return true, ""
	}
	return false, "Valid medical clearance required"
}

// RequireClientID passes when the transition carries a related entity id.
// RequireClientID and RequireContractID test the same field; the distinct names
// document caller intent and produce distinct failure messages, so they are
// kept separate on purpose.
var RequireClientID Precondition = func(ctx TransitionContext) (bool, string) {
	if ctx.RelatedEntityID != nil {
		return true, ""
	}
	return false, "Client ID required"
}

// RequireContractID passes when the transition carries a related entity id
var RequireContractID Precondition = func(ctx TransitionContext) (bool, string) {
	if ctx.RelatedEntityID != nil {
		return true, ""
	}
	return false, "Contract ID required"
}
