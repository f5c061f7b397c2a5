package workflow

import "github.com/httplouis/TraveLink-sub009/internal/domain/entity"

// Smart-skip rule identifiers, recorded on auto-skip history events
const (
	SkipRequesterIsHead         = "requester-is-head"
	SkipRequesterIsHeadEscalate = "requester-is-head-escalate"
	SkipNoBudgetReview          = "no-budget-review"
	SkipRequesterIsPresident    = "requester-is-president"
)

// skipRuleIDs maps an auto-skip edge to its rule identifier
var skipRuleIDs = map[State]map[State]string{
	StatePendingHead: {
		StatePendingAdmin:      SkipRequesterIsHead,
		StatePendingParentHead: SkipRequesterIsHeadEscalate,
	},
	StatePendingComptroller: {
		StatePendingHR: SkipNoBudgetReview,
	},
	StatePendingPresident: {
		StateApproved: SkipRequesterIsPresident,
	},
}

// SkipRuleID returns the rule identifier for an auto-skip edge
func SkipRuleID(from, to State) string {
	return skipRuleIDs[from][to]
}

// requiredRoles maps each pending state to the role whose holders may act
// on it. pending_requester_signature is absent: only the requester themself
// may sign, which is an identity check, not a role check.
var requiredRoles = map[State]entity.Role{
	StatePendingHead:        entity.RoleHead,
	StatePendingParentHead:  entity.RoleHead,
	StatePendingAdmin:       entity.RoleAdmin,
	StatePendingComptroller: entity.RoleComptroller,
	StatePendingHR:          entity.RoleHR,
	StatePendingVP:          entity.RoleVP,
	StatePendingPresident:   entity.RolePresident,
	StatePendingExec:        entity.RoleExecutive,
}

// RequiredRole returns the role required to act on a request in the given
// state. ok is false for states that need no role holder (draft, signature,
// terminal states).
func RequiredRole(state State) (entity.Role, bool) {
	role, ok := requiredRoles[state]
	return role, ok
}

// BuildTravelStateMachine creates a state machine configured for the travel
// authorization workflow. Guarded transitions are tried in registration
// order, so tier-routing precedence is encoded by ordering.
func BuildTravelStateMachine(initialState State) StateMachine {
	builder := NewBuilder()

	builder.Configure(StateDraft).
		PermitIf(ActionSubmit, StatePendingRequesterSig, func(f Facts) bool { return f.NeedsRequesterSignature }).
		Permit(ActionSubmit, StatePendingHead).
		Permit(ActionCancel, StateCancelled)

	builder.Configure(StatePendingRequesterSig).
		Permit(ActionApprove, StatePendingHead).
		Permit(ActionReject, StateRejected).
		Permit(ActionReturn, StateDraft).
		Permit(ActionCancel, StateCancelled)

	// Self-approval handling: when the requester heads the department the
	// engine either skips the stage or escalates to the parent unit's head,
	// depending on organizational policy.
	builder.Configure(StatePendingHead).
		PermitIf(ActionAutoSkip, StatePendingParentHead, func(f Facts) bool {
			return f.RequesterIsHead && f.EscalateHeadToParent
		}).
		PermitIf(ActionAutoSkip, StatePendingAdmin, func(f Facts) bool {
			return f.RequesterIsHead && !f.EscalateHeadToParent
		}).
		Permit(ActionApprove, StatePendingAdmin).
		Permit(ActionReject, StateRejected).
		Permit(ActionReturn, StateDraft).
		Permit(ActionCancel, StateCancelled)

	builder.Configure(StatePendingParentHead).
		Permit(ActionApprove, StatePendingAdmin).
		Permit(ActionReject, StateRejected).
		Permit(ActionReturn, StateDraft).
		Permit(ActionCancel, StateCancelled)

	builder.Configure(StatePendingAdmin).
		Permit(ActionApprove, StatePendingComptroller).
		Permit(ActionReject, StateRejected).
		Permit(ActionReturn, StateDraft).
		Permit(ActionCancel, StateCancelled)

	// Comptroller review only applies when a cost line is non-zero
	builder.Configure(StatePendingComptroller).
		PermitIf(ActionAutoSkip, StatePendingHR, func(f Facts) bool { return !f.RequiresBudgetReview }).
		Permit(ActionApprove, StatePendingHR).
		Permit(ActionReject, StateRejected).
		Permit(ActionReturn, StateDraft).
		Permit(ActionCancel, StateCancelled)

	// Tier routing: president requesters route through pending_president and
	// auto-approve there; VP requesters always need the president; executive
	// requesters go to the executive tier; everyone else routes by budget
	// threshold and international flag.
	builder.Configure(StatePendingHR).
		PermitIf(ActionApprove, StatePendingPresident, func(f Facts) bool { return f.RequesterIsPresident }).
		PermitIf(ActionApprove, StatePendingPresident, func(f Facts) bool { return f.RequesterIsVP }).
		PermitIf(ActionApprove, StatePendingExec, func(f Facts) bool { return f.RequesterIsExecutive }).
		PermitIf(ActionApprove, StatePendingPresident, func(f Facts) bool { return f.OverThreshold() || f.IsInternational }).
		Permit(ActionApprove, StatePendingVP).
		Permit(ActionReject, StateRejected).
		Permit(ActionReturn, StateDraft).
		Permit(ActionCancel, StateCancelled)

	builder.Configure(StatePendingVP).
		Permit(ActionApprove, StateApproved).
		Permit(ActionReject, StateRejected).
		Permit(ActionReturn, StateDraft).
		Permit(ActionCancel, StateCancelled)

	builder.Configure(StatePendingExec).
		Permit(ActionApprove, StateApproved).
		Permit(ActionReject, StateRejected).
		Permit(ActionReturn, StateDraft).
		Permit(ActionCancel, StateCancelled)

	builder.Configure(StatePendingPresident).
		PermitIf(ActionAutoSkip, StateApproved, func(f Facts) bool { return f.RequesterIsPresident }).
		Permit(ActionApprove, StateApproved).
		Permit(ActionReject, StateRejected).
		Permit(ActionReturn, StateDraft).
		Permit(ActionCancel, StateCancelled)

	// approved only accepts the scheduled-completion transition; the engine
	// restricts it to the completion collaborator
	builder.Configure(StateApproved).
		Permit(ActionComplete, StateCompleted)

	// rejected, cancelled and completed are terminal - no outgoing transitions

	return builder.Build(initialState)
}
