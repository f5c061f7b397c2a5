package workflow

// Action represents an event that can cause a state transition
type Action string

const (
	ActionSubmit   Action = "submit"
	ActionApprove  Action = "approve"
	ActionReject   Action = "reject"
	ActionReturn   Action = "return"
	ActionCancel   Action = "cancel"
	ActionAutoSkip Action = "auto-skip"
	ActionComplete Action = "complete"
)

var validActions = map[Action]bool{
	ActionSubmit:   true,
	ActionApprove:  true,
	ActionReject:   true,
	ActionReturn:   true,
	ActionCancel:   true,
	ActionAutoSkip: true,
	ActionComplete: true,
}

// IsValid returns true if the action is one of the defined constants
func (a Action) IsValid() bool {
	return validActions[a]
}

// String returns the string representation of the action
func (a Action) String() string {
	return string(a)
}
