package lifecycle

import (
	"errors"
	"testing"

	"github.com/google/uuid"
)

func relatedID() *uuid.UUID {
	id := uuid.New()
	return &id
}

func asTransitionError(t *testing.T, err error) *TransitionError {
	t.Helper()
	var terr *TransitionError
	if !errors.As(err, &terr) {
		t.Fatalf("error %v is not a *TransitionError", err)
	}
	return terr
}

func TestValidator_ValidateTransition_InvalidPair(t *testing.T) {
	v := NewValidator()

	_, err := v.ValidateTransition(StateNewArrival, StateActive, TransitionContext{})
	terr := asTransitionError(t, err)

	if terr.Code != CodeInvalidTransition {
		t.Errorf("Code = %s, want %s", terr.Code, CodeInvalidTransition)
	}
	if terr.Message != "Invalid transition from NEW_ARRIVAL to ACTIVE" {
		t.Errorf("Message = %q", terr.Message)
	}
	if terr.From != StateNewArrival || terr.To != StateActive {
		t.Errorf("error carries %s -> %s, want NEW_ARRIVAL -> ACTIVE", terr.From, terr.To)
	}
}

func TestValidator_ValidateTransition_MedicalPrecondition(t *testing.T) {
	v := NewValidator()

	tests := []struct {
		name       string
		hasMedical bool
		wantErr    bool
	}{
		{"clearance present", true, false},
		{"clearance missing", false, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ctx := TransitionContext{
				Current:         StateInTraining,
				Target:          StateReadyForMarket,
				HasValidMedical: tt.hasMedical,
			}

			rule, err := v.ValidateTransition(StateInTraining, StateReadyForMarket, ctx)
			if !tt.wantErr {
				if err != nil {
					t.Fatalf("ValidateTransition() error = %v", err)
				}
				if rule.DefaultReason != "Training completed" {
					t.Errorf("DefaultReason = %q, want %q", rule.DefaultReason, "Training completed")
				}
				return
			}

			terr := asTransitionError(t, err)
			if terr.Code != CodePreconditionFailed {
				t.Errorf("Code = %s, want %s", terr.Code, CodePreconditionFailed)
			}
			if terr.Message != "Valid medical clearance required" {
				t.Errorf("Message = %q", terr.Message)
			}
		})
	}
}

func TestValidator_ValidateTransition_ClientIDPrecondition(t *testing.T) {
	v := NewValidator()

	_, err := v.ValidateTransition(StateReadyForMarket, StateBooked, TransitionContext{})
	terr := asTransitionError(t, err)
	if terr.Code != CodePreconditionFailed {
		t.Errorf("Code = %s, want %s", terr.Code, CodePreconditionFailed)
	}
	if terr.Message != "Client ID required" {
		t.Errorf("Message = %q, want %q", terr.Message, "Client ID required")
	}

	rule, err := v.ValidateTransition(StateReadyForMarket, StateBooked, TransitionContext{RelatedEntityID: relatedID()})
	if err != nil {
		t.Fatalf("ValidateTransition() error = %v", err)
	}
	if rule.DefaultReason != "Client booked worker" {
		t.Errorf("DefaultReason = %q", rule.DefaultReason)
	}
}

func TestValidator_ValidateTransition_ContractIDPrecondition(t *testing.T) {
	v := NewValidator()

	_, err := v.ValidateTransition(StateBooked, StateHired, TransitionContext{})
	terr := asTransitionError(t, err)
	if terr.Message != "Contract ID required" {
		t.Errorf("Message = %q, want %q", terr.Message, "Contract ID required")
	}
}

func TestValidator_ValidateTransition_EmergencyIgnoresContext(t *testing.T) {
	v := NewValidator()

	for _, from := range allStates() {
		for _, to := range emergencyTargets {
			if from == to {
				continue
			}
			rule, err := v.ValidateTransition(from, to, TransitionContext{})
			if err != nil {
				t.Errorf("ValidateTransition(%s, %s) error = %v", from, to, err)
				continue
			}
			if valid, _ := rule.Precondition(TransitionContext{}); !valid {
				t.Errorf("emergency rule for %s -> %s carries a precondition", from, to)
			}
		}
	}
}

func TestValidator_ValidateTransition_Idempotent(t *testing.T) {
	v := NewValidator()
	ctx := TransitionContext{Current: StateInTraining, Target: StateReadyForMarket}

	_, err1 := v.ValidateTransition(StateInTraining, StateReadyForMarket, ctx)
	_, err2 := v.ValidateTransition(StateInTraining, StateReadyForMarket, ctx)

	t1 := asTransitionError(t, err1)
	t2 := asTransitionError(t, err2)
	if t1.Code != t2.Code || t1.Message != t2.Message {
		t.Errorf("repeated validation differs: %v vs %v", t1, t2)
	}
}

func TestValidator_ValidateBookedToHired_AllChecksPass(t *testing.T) {
	v := NewValidator()

	ctx := TransitionContext{
		Current:            StateBooked,
		Target:             StateHired,
		RelatedEntityID:    relatedID(),
		HasValidMedical:    true,
		HasValidVisa:       true,
		HasActiveInsurance: true,
		IsClientVerified:   true,
	}

	rule, err := v.ValidateBookedToHired(ctx)
	if err != nil {
		t.Fatalf("ValidateBookedToHired() error = %v", err)
	}
	if rule.DefaultReason != "Contract signed, ready for deployment" {
		t.Errorf("DefaultReason = %q", rule.DefaultReason)
	}
}

func TestValidator_ValidateBookedToHired_AccumulatesAllFailures(t *testing.T) {
	v := NewValidator()

	_, err := v.ValidateBookedToHired(TransitionContext{})
	terr := asTransitionError(t, err)

	if terr.Code != CodePreconditionsNotMet {
		t.Errorf("Code = %s, want %s", terr.Code, CodePreconditionsNotMet)
	}

	want := "Valid medical clearance required; " +
		"Valid visa required; " +
		"Active insurance required; " +
		"Client must be verified; " +
		"Contract ID required"
	if terr.Message != want {
		t.Errorf("Message = %q, want %q", terr.Message, want)
	}
}

func TestValidator_ValidateBookedToHired_SingleFailure(t *testing.T) {
	v := NewValidator()

	ctx := TransitionContext{
		RelatedEntityID:    relatedID(),
		HasValidMedical:    true,
		HasValidVisa:       false,
		HasActiveInsurance: true,
		IsClientVerified:   true,
	}

	_, err := v.ValidateBookedToHired(ctx)
	terr := asTransitionError(t, err)
	if terr.Message != "Valid visa required" {
		t.Errorf("Message = %q, want %q", terr.Message, "Valid visa required")
	}
}
