package quotations

import (
	"errors"
	"fmt"
	"strings"

	"github.com/angelmondragon/repairops-backend/pkg/db/models"
	pkgerrors "github.com/angelmondragon/repairops-backend/pkg/errors"
	"github.com/shopspring/decimal"
	"go.uber.org/multierr"
)

var (
	errPartCodeRequired    = errors.New("part_code is required")
	errDescriptionRequired = errors.New("description is required")
	errQuantityPositive    = errors.New("quantity must be greater than zero")
	errUnitPriceNegative   = errors.New("unit_price cannot be negative")
	errUnitPriceRequired   = errors.New("unit_price must be greater than zero")
	errCatalogCodeRequired = errors.New("catalog_code is required for items that need registration")
)

// ValidateItem applies the structural item rules. Every problem found is
// returned, combined.
func ValidateItem(item ItemInput) error {
	var err error
	if strings.TrimSpace(item.PartCode) == "" {
		err = multierr.Append(err, errPartCodeRequired)
	}
	if strings.TrimSpace(item.Description) == "" {
		err = multierr.Append(err, errDescriptionRequired)
	}
	if item.Quantity <= 0 {
		err = multierr.Append(err, errQuantityPositive)
	}
	if item.UnitPrice != nil && item.UnitPrice.IsNegative() {
		err = multierr.Append(err, errUnitPriceNegative)
	}
	return err
}

// ValidateItems checks every input and reports all failures as one validation
// error whose details are keyed by input index.
func ValidateItems(items []ItemInput) error {
	details := map[string][]string{}
	for idx, item := range items {
		if err := ValidateItem(item); err != nil {
			details[fmt.Sprintf("items[%d]", idx)] = messages(err)
		}
	}
	if len(details) == 0 {
		return nil
	}
	return pkgerrors.New(pkgerrors.CodeValidation, "one or more items are invalid").WithDetails(details)
}

// ValidateForQuote checks that every item is priced, and that items flagged
// for registration carry a catalog code. Details are keyed by item position.
func ValidateForQuote(items []models.QuotationItem) error {
	details := map[string][]string{}
	for _, item := range items {
		var err error
		if !item.UnitPrice.Valid || !item.UnitPrice.Decimal.IsPositive() {
			err = multierr.Append(err, errUnitPriceRequired)
		}
		if item.NeedsRegistration && (item.CatalogCode == nil || strings.TrimSpace(*item.CatalogCode) == "") {
			err = multierr.Append(err, errCatalogCodeRequired)
		}
		if err != nil {
			details[fmt.Sprintf("items[%d]", item.Position)] = messages(err)
		}
	}
	if len(details) == 0 {
		return nil
	}
	return pkgerrors.New(pkgerrors.CodeValidation, "quotation is not ready to be quoted").WithDetails(details)
}

// LineTotal is quantity times unit price, zero while unpriced.
func LineTotal(item models.QuotationItem) decimal.Decimal {
	if !item.UnitPrice.Valid {
		return decimal.Zero
	}
	return item.UnitPrice.Decimal.Mul(decimal.NewFromInt(int64(item.Quantity)))
}

// Total sums the line totals of items.
func Total(items []models.QuotationItem) decimal.Decimal {
	total := decimal.Zero
	for _, item := range items {
		total = total.Add(LineTotal(item))
	}
	return total
}

func messages(err error) []string {
	errs := multierr.Errors(err)
	out := make([]string, 0, len(errs))
	for _, e := range errs {
		out = append(out, e.Error())
	}
	return out
}
