package enums

import "fmt"

// QuotationAction names a guarded operation on a quotation.
type QuotationAction string

const (
	QuotationActionClaim    QuotationAction = "claim"
	QuotationActionQuote    QuotationAction = "quote"
	QuotationActionApprove  QuotationAction = "approve"
	QuotationActionPurchase QuotationAction = "purchase"
	QuotationActionCancel   QuotationAction = "cancel"
	QuotationActionEdit     QuotationAction = "edit"
	QuotationActionDelete   QuotationAction = "delete"
)

var validQuotationActions = []QuotationAction{
	QuotationActionClaim,
	QuotationActionQuote,
	QuotationActionApprove,
	QuotationActionPurchase,
	QuotationActionCancel,
	QuotationActionEdit,
	QuotationActionDelete,
}

// QuotationActions returns every guarded action.
func QuotationActions() []QuotationAction {
	out := make([]QuotationAction, len(validQuotationActions))
	copy(out, validQuotationActions)
	return out
}

// String implements fmt.Stringer.
func (a QuotationAction) String() string {
	return string(a)
}

// IsValid reports whether the value is a known QuotationAction.
func (a QuotationAction) IsValid() bool {
	for _, candidate := range validQuotationActions {
		if candidate == a {
			return true
		}
	}
	return false
}

// ParseQuotationAction converts raw input into a QuotationAction.
func ParseQuotationAction(value string) (QuotationAction, error) {
	for _, candidate := range validQuotationActions {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid quotation action %q", value)
}
