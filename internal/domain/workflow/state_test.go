package workflow

import "testing"

func TestState_IsTerminal(t *testing.T) {
	tests := []struct {
		state    State
		expected bool
	}{
		{StateDraft, false},
		{StatePendingRequesterSig, false},
		{StatePendingHead, false},
		{StatePendingParentHead, false},
		{StatePendingAdmin, false},
		{StatePendingComptroller, false},
		{StatePendingHR, false},
		{StatePendingVP, false},
		{StatePendingPresident, false},
		{StatePendingExec, false},
		{StateApproved, true},
		{StateRejected, true},
		{StateCancelled, true},
		{StateCompleted, true},
	}

	for _, tt := range tests {
		t.Run(string(tt.state), func(t *testing.T) {
			if got := tt.state.IsTerminal(); got != tt.expected {
				t.Errorf("State.IsTerminal() = %v, want %v", got, tt.expected)
			}
		})
	}
}

func TestState_IsValid(t *testing.T) {
	tests := []struct {
		name     string
		state    State
		expected bool
	}{
		{"draft", StateDraft, true},
		{"completed", StateCompleted, true},
		{"invalid state", State("shipped"), false},
		{"empty state", State(""), false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.state.IsValid(); got != tt.expected {
				t.Errorf("State.IsValid() = %v, want %v", got, tt.expected)
			}
		})
	}
}

func TestState_String(t *testing.T) {
	if got := StatePendingRequesterSig.String(); got != "pending_requester_signature" {
		t.Errorf("State.String() = %v, want %v", got, "pending_requester_signature")
	}
}

func TestAction_IsValid(t *testing.T) {
	tests := []struct {
		action   Action
		expected bool
	}{
		{ActionSubmit, true},
		{ActionApprove, true},
		{ActionReject, true},
		{ActionReturn, true},
		{ActionCancel, true},
		{ActionAutoSkip, true},
		{ActionComplete, true},
		{Action("escalate"), false},
		{Action(""), false},
	}

	for _, tt := range tests {
		t.Run(string(tt.action), func(t *testing.T) {
			if got := tt.action.IsValid(); got != tt.expected {
				t.Errorf("Action.IsValid() = %v, want %v", got, tt.expected)
			}
		})
	}
}

func TestAction_String(t *testing.T) {
	if got := ActionAutoSkip.String(); got != "auto-skip" {
		t.Errorf("Action.String() = %v, want %v", got, "auto-skip")
	}
}
