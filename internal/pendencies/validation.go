package pendencies

import (
	"errors"
	"fmt"
	"strings"

	pkgerrors "github.com/angelmondragon/repairops-backend/pkg/errors"
	"go.uber.org/multierr"
)

var (
	errPartCodeRequired    = errors.New("part_code is required")
	errDescriptionRequired = errors.New("description is required")
)

// ValidatePart checks the fields every pendency needs.
func ValidatePart(part PartInput) error {
	var err error
	if strings.TrimSpace(part.PartCode) == "" {
		err = multierr.Append(err, errPartCodeRequired)
	}
	if strings.TrimSpace(part.Description) == "" {
		err = multierr.Append(err, errDescriptionRequired)
	}
	return err
}

// ValidateParts rejects the whole request when any part is invalid. Details
// are keyed by part index.
func ValidateParts(parts []PartInput) error {
	details := map[string][]string{}
	for idx, part := range parts {
		if err := ValidatePart(part); err != nil {
			msgs := make([]string, 0, 2)
			for _, e := range multierr.Errors(err) {
				msgs = append(msgs, e.Error())
			}
			details[fmt.Sprintf("parts[%d]", idx)] = msgs
		}
	}
	if len(details) == 0 {
		return nil
	}
	return pkgerrors.New(pkgerrors.CodeValidation, "one or more parts are invalid").WithDetails(details)
}
