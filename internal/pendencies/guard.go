package pendencies

import (
	"github.com/angelmondragon/repairops-backend/pkg/enums"
	pkgerrors "github.com/angelmondragon/repairops-backend/pkg/errors"
)

var sourceStatuses = map[enums.PendencyAction][]enums.PendencyStatus{
	enums.PendencyActionStart:    {enums.PendencyStatusPending},
	enums.PendencyActionAnswer:   {enums.PendencyStatusPending, enums.PendencyStatusInProgress},
	enums.PendencyActionComplete: {enums.PendencyStatusAnswered},
	enums.PendencyActionReject:   {enums.PendencyStatusPending, enums.PendencyStatusInProgress},
	enums.PendencyActionDelete: {
		enums.PendencyStatusPending,
		enums.PendencyStatusInProgress,
		enums.PendencyStatusAnswered,
	},
}

// CanTransition reports whether action is legal from status.
func CanTransition(status enums.PendencyStatus, action enums.PendencyAction) bool {
	for _, candidate := range sourceStatuses[action] {
		if candidate == status {
			return true
		}
	}
	return false
}

// TargetStatus returns the status a legal action leaves the pendency in.
// Delete has no target.
func TargetStatus(action enums.PendencyAction) enums.PendencyStatus {
	switch action {
	case enums.PendencyActionStart:
		return enums.PendencyStatusInProgress
	case enums.PendencyActionAnswer:
		return enums.PendencyStatusAnswered
	case enums.PendencyActionComplete:
		return enums.PendencyStatusCompleted
	case enums.PendencyActionReject:
		return enums.PendencyStatusRejected
	default:
		return ""
	}
}

// CanPerform decides whether an actor may take action on a pendency in status.
// Procurement resolves; once a resolver has started the work, only that
// resolver (or an admin) may answer or reject it.
func CanPerform(status enums.PendencyStatus, action enums.PendencyAction, role enums.ActorRole, isRequester, isResolver, hasResolver bool) bool {
	if !status.IsValid() || !CanTransition(status, action) {
		return false
	}
	if role.IsAdmin() {
		return true
	}

	resolverClass := role.IsBuyerClass()
	switch action {
	case enums.PendencyActionStart:
		return resolverClass
	case enums.PendencyActionAnswer, enums.PendencyActionReject, enums.PendencyActionComplete:
		if !resolverClass {
			return false
		}
		return !hasResolver || isResolver
	case enums.PendencyActionDelete:
		return isRequester
	default:
		return false
	}
}

// Authorize is CanPerform as a typed error.
func Authorize(status enums.PendencyStatus, action enums.PendencyAction, role enums.ActorRole, isRequester, isResolver, hasResolver bool) error {
	if CanPerform(status, action, role, isRequester, isResolver, hasResolver) {
		return nil
	}
	return pkgerrors.Newf(pkgerrors.CodeForbidden, "%s not permitted for role %s", action, role).
		WithDetails(map[string]any{"action": action, "status": status})
}

func invalidTransition(status enums.PendencyStatus, action enums.PendencyAction) error {
	return pkgerrors.Newf(pkgerrors.CodeInvalidTransition, "cannot %s a pendency in status %s", action, status).
		WithDetails(map[string]any{"action": action, "status": status})
}
