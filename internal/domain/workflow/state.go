package workflow

// State represents a routing state in the travel-request approval lifecycle
type State string

const (
	StateDraft               State = "draft"
	StatePendingRequesterSig State = "pending_requester_signature"
	StatePendingHead         State = "pending_head"
	StatePendingParentHead   State = "pending_parent_head"
	StatePendingAdmin        State = "pending_admin"
	StatePendingComptroller  State = "pending_comptroller"
	StatePendingHR           State = "pending_hr"
	StatePendingVP           State = "pending_vp"
	StatePendingPresident    State = "pending_president"
	StatePendingExec         State = "pending_exec"
	StateApproved            State = "approved"
	StateRejected            State = "rejected"
	StateCancelled           State = "cancelled"
	StateCompleted           State = "completed"
)

var validStates = map[State]bool{
	StateDraft:               true,
	StatePendingRequesterSig: true,
	StatePendingHead:         true,
	StatePendingParentHead:   true,
	StatePendingAdmin:        true,
	StatePendingComptroller:  true,
	StatePendingHR:           true,
	StatePendingVP:           true,
	StatePendingPresident:    true,
	StatePendingExec:         true,
	StateApproved:            true,
	StateRejected:            true,
	StateCancelled:           true,
	StateCompleted:           true,
}

// terminalStates are states no approver action can move a request out of.
// approved still accepts the completion transition, but only from the
// scheduled-completion collaborator, never from a human approver.
var terminalStates = map[State]bool{
	StateApproved:  true,
	StateRejected:  true,
	StateCancelled: true,
	StateCompleted: true,
}

// IsTerminal returns true if the state accepts no further approver actions
func (s State) IsTerminal() bool {
	return terminalStates[s]
}

// IsValid returns true if the state is a valid workflow state
func (s State) IsValid() bool {
	return validStates[s]
}

// String returns the string representation of the state
func (s State) String() string {
	return string(s)
}
