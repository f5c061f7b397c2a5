package workflow

import (
	"testing"

	"github.com/httplouis/TraveLink-sub009/internal/domain/entity"
)

func TestBuildTravelStateMachine_SubmitRouting(t *testing.T) {
	tests := []struct {
		name  string
		facts Facts
		want  State
	}{
		{
			name:  "self-filed request goes straight to head review",
			facts: Facts{},
			want:  StatePendingHead,
		},
		{
			name:  "representative filing requires the requester's signature first",
			facts: Facts{NeedsRequesterSignature: true},
			want:  StatePendingRequesterSig,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			machine := BuildTravelStateMachine(StateDraft)
			if err := machine.Fire(tt.facts, ActionSubmit); err != nil {
				t.Fatalf("Fire(submit) error = %v", err)
			}
			if machine.State() != tt.want {
				t.Errorf("State() = %v, want %v", machine.State(), tt.want)
			}
		})
	}
}

func TestBuildTravelStateMachine_HeadSelfApprovalSkips(t *testing.T) {
	tests := []struct {
		name  string
		facts Facts
		want  State
	}{
		{
			name:  "requester heads the department, skip forward",
			facts: Facts{RequesterIsHead: true},
			want:  StatePendingAdmin,
		},
		{
			name:  "escalation policy routes to the parent unit's head",
			facts: Facts{RequesterIsHead: true, EscalateHeadToParent: true},
			want:  StatePendingParentHead,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			machine := BuildTravelStateMachine(StatePendingHead)
			if err := machine.Fire(tt.facts, ActionAutoSkip); err != nil {
				t.Fatalf("Fire(auto-skip) error = %v", err)
			}
			if machine.State() != tt.want {
				t.Errorf("State() = %v, want %v", machine.State(), tt.want)
			}
		})
	}
}

func TestBuildTravelStateMachine_NoSkipForRegularRequester(t *testing.T) {
	machine := BuildTravelStateMachine(StatePendingHead)
	if machine.CanFire(Facts{}, ActionAutoSkip) {
		t.Error("auto-skip must not fire when the requester is not the head")
	}
}

func TestBuildTravelStateMachine_ComptrollerSkip(t *testing.T) {
	machine := BuildTravelStateMachine(StatePendingComptroller)
	if err := machine.Fire(Facts{RequiresBudgetReview: false}, ActionAutoSkip); err != nil {
		t.Fatalf("Fire(auto-skip) error = %v", err)
	}
	if machine.State() != StatePendingHR {
		t.Errorf("State() = %v, want %v", machine.State(), StatePendingHR)
	}

	withBudget := BuildTravelStateMachine(StatePendingComptroller)
	if withBudget.CanFire(Facts{RequiresBudgetReview: true}, ActionAutoSkip) {
		t.Error("auto-skip must not fire when budget review is required")
	}
}

func TestBuildTravelStateMachine_TierRouting(t *testing.T) {
	tests := []struct {
		name  string
		facts Facts
		want  State
	}{
		{
			name:  "default tier is VP",
			facts: Facts{TotalBudget: 10000, PresidentBudgetThreshold: 50000},
			want:  StatePendingVP,
		},
		{
			name:  "budget over threshold routes to president",
			facts: Facts{TotalBudget: 60000, PresidentBudgetThreshold: 50000},
			want:  StatePendingPresident,
		},
		{
			name:  "budget exactly at threshold stays with VP",
			facts: Facts{TotalBudget: 50000, PresidentBudgetThreshold: 50000},
			want:  StatePendingVP,
		},
		{
			name:  "international travel routes to president",
			facts: Facts{TotalBudget: 1000, PresidentBudgetThreshold: 50000, IsInternational: true},
			want:  StatePendingPresident,
		},
		{
			name:  "VP requester routes to president",
			facts: Facts{RequesterIsVP: true, PresidentBudgetThreshold: 50000},
			want:  StatePendingPresident,
		},
		{
			name:  "president requester routes to president tier",
			facts: Facts{RequesterIsPresident: true, PresidentBudgetThreshold: 50000},
			want:  StatePendingPresident,
		},
		{
			name:  "executive requester routes to executive tier",
			facts: Facts{RequesterIsExecutive: true, PresidentBudgetThreshold: 50000},
			want:  StatePendingExec,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			machine := BuildTravelStateMachine(StatePendingHR)
			if err := machine.Fire(tt.facts, ActionApprove); err != nil {
				t.Fatalf("Fire(approve) error = %v", err)
			}
			if machine.State() != tt.want {
				t.Errorf("State() = %v, want %v", machine.State(), tt.want)
			}
		})
	}
}

func TestBuildTravelStateMachine_PresidentSelfApproval(t *testing.T) {
	machine := BuildTravelStateMachine(StatePendingPresident)
	if err := machine.Fire(Facts{RequesterIsPresident: true}, ActionAutoSkip); err != nil {
		t.Fatalf("Fire(auto-skip) error = %v", err)
	}
	if machine.State() != StateApproved {
		t.Errorf("State() = %v, want %v", machine.State(), StateApproved)
	}

	// A VP requester waiting on the president does not auto-approve
	vpCase := BuildTravelStateMachine(StatePendingPresident)
	if vpCase.CanFire(Facts{RequesterIsVP: true}, ActionAutoSkip) {
		t.Error("auto-skip at president tier must only fire for president requesters")
	}
}

func TestBuildTravelStateMachine_RejectReturnCancelEverywhere(t *testing.T) {
	pendingStates := []State{
		StatePendingRequesterSig,
		StatePendingHead,
		StatePendingParentHead,
		StatePendingAdmin,
		StatePendingComptroller,
		StatePendingHR,
		StatePendingVP,
		StatePendingPresident,
		StatePendingExec,
	}

	for _, state := range pendingStates {
		t.Run(string(state), func(t *testing.T) {
			for action, want := range map[Action]State{
				ActionReject: StateRejected,
				ActionReturn: StateDraft,
				ActionCancel: StateCancelled,
			} {
				machine := BuildTravelStateMachine(state)
				if err := machine.Fire(Facts{}, action); err != nil {
					t.Fatalf("Fire(%s) from %s error = %v", action, state, err)
				}
				if machine.State() != want {
					t.Errorf("Fire(%s) from %s = %v, want %v", action, state, machine.State(), want)
				}
			}
		})
	}
}

func TestBuildTravelStateMachine_ApprovedOnlyCompletes(t *testing.T) {
	machine := BuildTravelStateMachine(StateApproved)

	for _, action := range []Action{ActionApprove, ActionReject, ActionReturn, ActionCancel} {
		if machine.CanFire(Facts{}, action) {
			t.Errorf("approved must not accept %s", action)
		}
	}

	if err := machine.Fire(Facts{}, ActionComplete); err != nil {
		t.Fatalf("Fire(complete) error = %v", err)
	}
	if machine.State() != StateCompleted {
		t.Errorf("State() = %v, want %v", machine.State(), StateCompleted)
	}
}

func TestSkipRuleID(t *testing.T) {
	tests := []struct {
		from State
		to   State
		want string
	}{
		{StatePendingHead, StatePendingAdmin, SkipRequesterIsHead},
		{StatePendingHead, StatePendingParentHead, SkipRequesterIsHeadEscalate},
		{StatePendingComptroller, StatePendingHR, SkipNoBudgetReview},
		{StatePendingPresident, StateApproved, SkipRequesterIsPresident},
		{StatePendingAdmin, StatePendingComptroller, ""},
	}

	for _, tt := range tests {
		if got := SkipRuleID(tt.from, tt.to); got != tt.want {
			t.Errorf("SkipRuleID(%s, %s) = %q, want %q", tt.from, tt.to, got, tt.want)
		}
	}
}

func TestRequiredRole(t *testing.T) {
	tests := []struct {
		state  State
		role   entity.Role
		wantOK bool
	}{
		{StatePendingHead, entity.RoleHead, true},
		{StatePendingParentHead, entity.RoleHead, true},
		{StatePendingAdmin, entity.RoleAdmin, true},
		{StatePendingComptroller, entity.RoleComptroller, true},
		{StatePendingHR, entity.RoleHR, true},
		{StatePendingVP, entity.RoleVP, true},
		{StatePendingPresident, entity.RolePresident, true},
		{StatePendingExec, entity.RoleExecutive, true},
		{StatePendingRequesterSig, "", false},
		{StateDraft, "", false},
		{StateApproved, "", false},
	}

	for _, tt := range tests {
		t.Run(string(tt.state), func(t *testing.T) {
			role, ok := RequiredRole(tt.state)
			if ok != tt.wantOK {
				t.Fatalf("RequiredRole(%s) ok = %v, want %v", tt.state, ok, tt.wantOK)
			}
			if ok && role != tt.role {
				t.Errorf("RequiredRole(%s) = %v, want %v", tt.state, role, tt.role)
			}
		})
	}
}
