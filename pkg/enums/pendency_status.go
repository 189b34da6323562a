package enums

import "fmt"

// PendencyStatus tracks a catalog registration request.
type PendencyStatus string

const (
	PendencyStatusPending    PendencyStatus = "pending"
	PendencyStatusInProgress PendencyStatus = "in_progress"
	PendencyStatusAnswered   PendencyStatus = "answered"
	PendencyStatusCompleted  PendencyStatus = "completed"
	PendencyStatusRejected   PendencyStatus = "rejected"
)

var validPendencyStatuses = []PendencyStatus{
	PendencyStatusPending,
	PendencyStatusInProgress,
	PendencyStatusAnswered,
	PendencyStatusCompleted,
	PendencyStatusRejected,
}

// PendencyStatuses returns every status in lifecycle order.
func PendencyStatuses() []PendencyStatus {
	out := make([]PendencyStatus, len(validPendencyStatuses))
	copy(out, validPendencyStatuses)
	return out
}

// String implements fmt.Stringer.
func (s PendencyStatus) String() string {
	return string(s)
}

// IsValid reports whether the value is a known PendencyStatus.
func (s PendencyStatus) IsValid() bool {
	for _, candidate := range validPendencyStatuses {
		if candidate == s {
			return true
		}
	}
	return false
}

func (s PendencyStatus) IsTerminal() bool {
	return s == PendencyStatusCompleted || s == PendencyStatusRejected
}

// HasCatalogCode reports whether a pendency in this status carries a catalog code.
func (s PendencyStatus) HasCatalogCode() bool {
	return s == PendencyStatusAnswered || s == PendencyStatusCompleted
}

// ParsePendencyStatus converts raw input into a PendencyStatus.
func ParsePendencyStatus(value string) (PendencyStatus, error) {
	for _, candidate := range validPendencyStatuses {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid pendency status %q", value)
}

// PendencyAction names a guarded operation on a registration pendency.
type PendencyAction string

const (
	PendencyActionStart    PendencyAction = "start"
	PendencyActionAnswer   PendencyAction = "answer"
	PendencyActionComplete PendencyAction = "complete"
	PendencyActionReject   PendencyAction = "reject"
	PendencyActionDelete   PendencyAction = "delete"
)

var validPendencyActions = []PendencyAction{
	PendencyActionStart,
	PendencyActionAnswer,
	PendencyActionComplete,
	PendencyActionReject,
	PendencyActionDelete,
}

// PendencyActions returns every guarded pendency action.
func PendencyActions() []PendencyAction {
	out := make([]PendencyAction, len(validPendencyActions))
	copy(out, validPendencyActions)
	return out
}

func (a PendencyAction) String() string {
	return string(a)
}

func (a PendencyAction) IsValid() bool {
	for _, candidate := range validPendencyActions {
		if candidate == a {
			return true
		}
	}
	return false
}
