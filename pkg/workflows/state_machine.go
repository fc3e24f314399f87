package workflows

// Status is the moderation state of a congregation.
type Status string

const (
	StatusPending  Status = "pending"
	StatusVerified Status = "verified"
	StatusRejected Status = "rejected"
)

// Action is a moderation decision applied to a congregation.
type Action string

const (
	ActionApprove Action = "approve"
	ActionReject  Action = "reject"
)

// StateMachine enforces congregation status transitions
type StateMachine struct {
	targets map[Action]Status
	allowed map[Action][]Status
}

// NewStateMachine creates a new state machine with allowed transitions.
// Re-applying a decision is allowed (approve on verified, reject on rejected);
// there is no transition back to pending.
func NewStateMachine() *StateMachine {
	return &StateMachine{
		targets: map[Action]Status{
			ActionApprove: StatusVerified,
			ActionReject:  StatusRejected,
		},
		allowed: map[Action][]Status{
			ActionApprove: {StatusPending, StatusRejected, StatusVerified},
			ActionReject:  {StatusPending, StatusVerified, StatusRejected},
		},
	}
}

// CanApply checks if an action may be applied from the given status
func (sm *StateMachine) CanApply(action Action, from Status) bool {
	allowed, exists := sm.allowed[action]
	if !exists {
		return false
	}
	for _, s := range allowed {
		if s == from {
			return true
		}
	}
	return false
}

// Target returns the status an action transitions to
func (sm *StateMachine) Target(action Action) (Status, bool) {
	target, exists := sm.targets[action]
	return target, exists
}

// ValidStatus reports whether s is one of the known statuses
func ValidStatus(s Status) bool {
	switch s {
	case StatusPending, StatusVerified, StatusRejected:
		return true
	}
	return false
}
