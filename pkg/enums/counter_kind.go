package enums

import "fmt"

// CounterKind identifies an independent display-number sequence.
type CounterKind string

const (
	CounterKindQuotation            CounterKind = "quotation"
	CounterKindRegistrationPendency CounterKind = "registration_pendency"
)

var validCounterKinds = []CounterKind{
	CounterKindQuotation,
	CounterKindRegistrationPendency,
}

func (k CounterKind) String() string {
	return string(k)
}

// IsValid reports whether the value is a known CounterKind.
func (k CounterKind) IsValid() bool {
	for _, candidate := range validCounterKinds {
		if candidate == k {
			return true
		}
	}
	return false
}

// ParseCounterKind converts raw input into a CounterKind.
func ParseCounterKind(value string) (CounterKind, error) {
	for _, candidate := range validCounterKinds {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid counter kind %q", value)
}
