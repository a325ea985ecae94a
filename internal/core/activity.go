package core

import (
	"fmt"
	"time"
	"unicode"
	"unicode/utf8"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Kind classifies an activity as money coming in or going out.
type Kind string

const (
	KindRevenue Kind = "REVENUE"
	KindExpense Kind = "EXPENSE"
)

// Valid reports whether k is one of the two known kinds.
func (k Kind) Valid() bool {
	return k == KindRevenue || k == KindExpense
}

const (
	descriptionMinLen = 3
	descriptionMaxLen = 255
)

var (
	minValue = decimal.New(1, -2)        // 0.01
	maxValue = decimal.New(99999999, -2) // 999999.99
)

// Rule identifies which validation rule an activity violated.
type Rule string

const (
	RuleDescriptionBlank    Rule = "description_blank"
	RuleDescriptionTooShort Rule = "description_too_short"
	RuleDescriptionTooLong  Rule = "description_too_long"
	RuleDescriptionCharset  Rule = "description_charset"
	RuleKindInvalid         Rule = "kind_invalid"
	RuleValueTooSmall       Rule = "value_too_small"
	RuleValueTooLarge       Rule = "value_too_large"
	RuleValuePrecision      Rule = "value_precision"
	RuleCategoryRequired    Rule = "category_required"
	RuleCategoryUnknown     Rule = "category_unknown"
	RuleCategoryMismatch    Rule = "category_mismatch"
	RuleDateInFuture        Rule = "date_in_future"
)

// ValidationError reports a violated activity rule. It is always recoverable
// by the caller correcting the input.
type ValidationError struct {
	Rule    Rule
	Message string
}

func (e *ValidationError) Error() string {
	return e.Message
}

func validationErr(rule Rule, format string, args ...any) *ValidationError {
	return &ValidationError{Rule: rule, Message: fmt.Sprintf(format, args...)}
}

// Activity is one recorded financial event. It is immutable after creation;
// mutation happens only through Replace, which produces a fully re-validated
// copy with the same identity and owner.
//
// Date carries calendar-day precision. Storage persists a plain date, so any
// time of day set on it is dropped on the round trip and reads come back at
// midnight UTC.
type Activity struct {
	ID          string
	Date        time.Time
	Description string
	Value       decimal.Decimal
	Kind        Kind
	Category    Category
	OwnerID     string
}

// ValidateActivity applies the activity rules in precedence order: blank
// description, description length and charset, kind, value bounds and
// precision, category presence, kind/category consistency. The first failing
// rule wins and is reported as a *ValidationError.
func ValidateActivity(catalog Catalog, description string, value decimal.Decimal, kind Kind, category Category) error {
	if isBlank(description) {
		return validationErr(RuleDescriptionBlank, "activity description should not be blank")
	}
	if utf8.RuneCountInString(description) < descriptionMinLen {
		return validationErr(RuleDescriptionTooShort, "activity description should have at least %d characters", descriptionMinLen)
	}
	if utf8.RuneCountInString(description) > descriptionMaxLen {
		return validationErr(RuleDescriptionTooLong, "activity description should have at most %d characters", descriptionMaxLen)
	}
	if !descriptionCharsetOK(description) {
		return validationErr(RuleDescriptionCharset, "activity description may only contain letters, digits, punctuation and whitespace")
	}
	if !kind.Valid() {
		return validationErr(RuleKindInvalid, "activity kind should be either %s or %s", KindRevenue, KindExpense)
	}
	if value.LessThan(minValue) {
		return validationErr(RuleValueTooSmall, "activity value should be greater than zero")
	}
	if value.GreaterThan(maxValue) {
		return validationErr(RuleValueTooLarge, "activity value should not exceed %s", maxValue)
	}
	if !value.Equal(value.Round(2)) {
		return validationErr(RuleValuePrecision, "activity value should have at most 2 decimal places")
	}
	if category == "" {
		return validationErr(RuleCategoryRequired, "activity category is required")
	}
	if !catalog.Contains(category) {
		return validationErr(RuleCategoryUnknown, "unknown activity category %q", category)
	}
	if kind == KindRevenue && catalog.IsExpense(category) {
		return validationErr(RuleCategoryMismatch, "revenue activities cannot have expense categories")
	}
	if kind == KindExpense && catalog.IsRevenue(category) {
		return validationErr(RuleCategoryMismatch, "expense activities cannot have revenue categories")
	}
	return nil
}

// NewActivity validates the fields and constructs an activity with a fresh ID.
// now is the construction instant; dates after it are rejected.
func NewActivity(catalog Catalog, now, date time.Time, description string, value decimal.Decimal, kind Kind, category Category, ownerID string) (Activity, error) {
	if err := ValidateActivity(catalog, description, value, kind, category); err != nil {
		return Activity{}, err
	}
	if date.After(now) {
		return Activity{}, validationErr(RuleDateInFuture, "activity date must not be in the future")
	}
	return Activity{
		ID:          uuid.NewString(),
		Date:        date,
		Description: description,
		Value:       value,
		Kind:        kind,
		Category:    category,
		OwnerID:     ownerID,
	}, nil
}

// Replace returns a copy of the activity with every mutable field replaced.
// ID and OwnerID are retained; the result is validated from scratch.
func (a Activity) Replace(catalog Catalog, now, date time.Time, description string, value decimal.Decimal, kind Kind, category Category) (Activity, error) {
	if err := ValidateActivity(catalog, description, value, kind, category); err != nil {
		return Activity{}, err
	}
	if date.After(now) {
		return Activity{}, validationErr(RuleDateInFuture, "activity date must not be in the future")
	}
	a.Date = date
	a.Description = description
	a.Value = value
	a.Kind = kind
	a.Category = category
	return a, nil
}

func isBlank(s string) bool {
	for _, r := range s {
		if !unicode.IsSpace(r) {
			return false
		}
	}
	return true
}

func descriptionCharsetOK(s string) bool {
	for _, r := range s {
		if unicode.IsLetter(r) || unicode.IsDigit(r) || unicode.IsPunct(r) || unicode.IsSpace(r) {
			continue
		}
		return false
	}
	return true
}
