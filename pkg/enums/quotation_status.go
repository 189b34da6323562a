package enums

import "fmt"

// QuotationStatus tracks the lifecycle of a quotation request.
type QuotationStatus string

const (
	QuotationStatusNew                 QuotationStatus = "new"
	QuotationStatusQuoting             QuotationStatus = "quoting"
	QuotationStatusQuoted              QuotationStatus = "quoted"
	QuotationStatusApprovedForPurchase QuotationStatus = "approved_for_purchase"
	QuotationStatusPurchased           QuotationStatus = "purchased"
	QuotationStatusCancelled           QuotationStatus = "cancelled"
)

var validQuotationStatuses = []QuotationStatus{
	QuotationStatusNew,
	QuotationStatusQuoting,
	QuotationStatusQuoted,
	QuotationStatusApprovedForPurchase,
	QuotationStatusPurchased,
	QuotationStatusCancelled,
}

// QuotationStatuses returns every status in lifecycle order.
func QuotationStatuses() []QuotationStatus {
	out := make([]QuotationStatus, len(validQuotationStatuses))
	copy(out, validQuotationStatuses)
	return out
}

// String implements fmt.Stringer.
func (s QuotationStatus) String() string {
	return string(s)
}

// IsValid reports whether the value is a known QuotationStatus.
func (s QuotationStatus) IsValid() bool {
	for _, candidate := range validQuotationStatuses {
		if candidate == s {
			return true
		}
	}
	return false
}

// IsTerminal reports whether the quotation accepts no further action.
func (s QuotationStatus) IsTerminal() bool {
	return s == QuotationStatusPurchased || s == QuotationStatusCancelled
}

// ParseQuotationStatus converts raw input into a QuotationStatus.
func ParseQuotationStatus(value string) (QuotationStatus, error) {
	for _, candidate := range validQuotationStatuses {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid quotation status %q", value)
}
