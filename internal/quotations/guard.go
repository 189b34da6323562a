package quotations

import (
	"github.com/angelmondragon/repairops-backend/pkg/enums"
	pkgerrors "github.com/angelmondragon/repairops-backend/pkg/errors"
)

// sourceStatuses lists, per action, the statuses it may start from.
var sourceStatuses = map[enums.QuotationAction][]enums.QuotationStatus{
	enums.QuotationActionClaim:    {enums.QuotationStatusNew, enums.QuotationStatusQuoting},
	enums.QuotationActionQuote:    {enums.QuotationStatusQuoting},
	enums.QuotationActionApprove:  {enums.QuotationStatusQuoted},
	enums.QuotationActionPurchase: {enums.QuotationStatusApprovedForPurchase},
	enums.QuotationActionCancel: {
		enums.QuotationStatusNew,
		enums.QuotationStatusQuoting,
		enums.QuotationStatusQuoted,
		enums.QuotationStatusApprovedForPurchase,
	},
	enums.QuotationActionEdit:   {enums.QuotationStatusNew, enums.QuotationStatusQuoting},
	enums.QuotationActionDelete: {enums.QuotationStatusNew},
}

// CanTransition reports whether action is legal from status, independent of
// who asks.
func CanTransition(status enums.QuotationStatus, action enums.QuotationAction) bool {
	for _, candidate := range sourceStatuses[action] {
		if candidate == status {
			return true
		}
	}
	return false
}

// TargetStatus returns the status a legal action leaves the quotation in.
func TargetStatus(status enums.QuotationStatus, action enums.QuotationAction) enums.QuotationStatus {
	switch action {
	case enums.QuotationActionClaim:
		return enums.QuotationStatusQuoting
	case enums.QuotationActionQuote:
		return enums.QuotationStatusQuoted
	case enums.QuotationActionApprove:
		return enums.QuotationStatusApprovedForPurchase
	case enums.QuotationActionPurchase:
		return enums.QuotationStatusPurchased
	case enums.QuotationActionCancel:
		return enums.QuotationStatusCancelled
	default:
		return status
	}
}

// CanPerform decides whether an actor may take action on a quotation in
// status. Admins pass every check on non-terminal quotations; nobody acts on
// terminal ones.
func CanPerform(status enums.QuotationStatus, action enums.QuotationAction, role enums.ActorRole, isRequester, isBuyer bool) bool {
	if !status.IsValid() || status.IsTerminal() {
		return false
	}
	if role.IsAdmin() {
		return action.IsValid()
	}
	if !CanTransition(status, action) {
		return false
	}

	buyerClass := role.IsBuyerClass()
	switch action {
	case enums.QuotationActionClaim, enums.QuotationActionPurchase:
		return buyerClass
	case enums.QuotationActionQuote:
		return buyerClass && isBuyer
	case enums.QuotationActionApprove:
		return isRequester
	case enums.QuotationActionCancel:
		return isRequester || buyerClass
	case enums.QuotationActionEdit:
		if isRequester {
			return true
		}
		return buyerClass && status == enums.QuotationStatusQuoting
	case enums.QuotationActionDelete:
		return isRequester
	default:
		return false
	}
}

// Authorize is CanPerform as a typed error.
func Authorize(status enums.QuotationStatus, action enums.QuotationAction, role enums.ActorRole, isRequester, isBuyer bool) error {
	if CanPerform(status, action, role, isRequester, isBuyer) {
		return nil
	}
	return pkgerrors.Newf(pkgerrors.CodeForbidden, "%s not permitted for role %s", action, role).
		WithDetails(map[string]any{"action": action, "status": status})
}

func invalidTransition(status enums.QuotationStatus, action enums.QuotationAction) error {
	return pkgerrors.Newf(pkgerrors.CodeInvalidTransition, "cannot %s a quotation in status %s", action, status).
		WithDetails(map[string]any{"action": action, "status": status})
}
