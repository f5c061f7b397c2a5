package workflow

// Facts is the snapshot of request attributes the rule table evaluates.
// It is computed once per transition attempt, at stage entry; later changes
// to the underlying request have no retroactive effect on routing.
type Facts struct {
	NeedsRequesterSignature bool
	RequiresBudgetReview    bool
	TotalBudget             float64
	IsInternational         bool

	// Requester capabilities, resolved against the request's department
	RequesterIsHead      bool
	RequesterIsVP        bool
	RequesterIsPresident bool
	RequesterIsExecutive bool

	// Organizational policy
	EscalateHeadToParent     bool
	PresidentBudgetThreshold float64
}

// OverThreshold reports whether the budget requires president-level sign-off
func (f Facts) OverThreshold() bool {
	return f.TotalBudget > f.PresidentBudgetThreshold
}

// StateMachine tracks the current state of a request and validates transitions
type StateMachine interface {
	// State returns the current state
	State() State

	// CanFire returns true if the action has a transition whose guard
	// accepts the given facts in the current state
	CanFire(facts Facts, action Action) bool

	// Fire attempts to execute the action, transitioning to the first
	// destination whose guard accepts the facts
	Fire(facts Facts, action Action) error

	// PermittedActions returns all actions configured for the current state
	PermittedActions() []Action
}
