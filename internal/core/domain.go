package core

import (
	"errors"
	"fmt"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/google/uuid"
)

const (
	Daily   Frequency = "daily"
	Weekly  Frequency = "weekly"
	Monthly Frequency = "monthly"
	Yearly  Frequency = "yearly"
)

const (
	Income  Kind = "income"
	Expense Kind = "expense"
)

// ProjectedIDPrefix marks synthetic occurrence ids. Stored ids are UUIDs and
// never carry it.
const ProjectedIDPrefix = "proj:"

// SpaceChars lists every character strings.TrimSpace removes, for stores that
// must trim category labels the same way.
const SpaceChars = "\t\n\v\f\r \u0085\u00a0\u1680" +
	"\u2000\u2001\u2002\u2003\u2004\u2005\u2006\u2007\u2008\u2009\u200a" +
	"\u2028\u2029\u202f\u205f\u3000"

// MaxDescriptionLength is the description limit in characters.
const MaxDescriptionLength = 200

// UncategorizedLabel is the bucket name used for transactions with no category.
const UncategorizedLabel = "Uncategorized"

// SuggestedCategories are offered by clients. Storage accepts any label.
var SuggestedCategories = []string{
	"Food",
	"Transport",
	"Housing",
	"Utilities",
	"Health",
	"Entertainment",
	"Shopping",
	"Education",
	"Travel",
	"Salary",
	"Other",
}

type (
	Frequency string

	Kind string

	Date struct {
		time.Time
	}

	Transaction struct {
		ID          string
		Owner       string
		Kind        Kind
		Category    string
		Amount      Money
		Date        Date // zero means unset (legacy rows)
		Description string
		IsRecurring bool
		Frequency   Frequency
		CreatedAt   time.Time
		UpdatedAt   time.Time

		// TemplateID is set only on projected occurrences.
		TemplateID string
	}
)

var (
	ErrValidation = errors.New("validation failed")
	ErrNotFound   = errors.New("not found")

	ErrInvalidOwner       = fmt.Errorf("%w: invalid owner reference", ErrValidation)
	ErrInvalidKind        = fmt.Errorf("%w: kind must be income or expense", ErrValidation)
	ErrInvalidAmount      = fmt.Errorf("%w: invalid amount", ErrValidation)
	ErrInvalidDate        = fmt.Errorf("%w: invalid date", ErrValidation)
	ErrInvalidFrequency   = fmt.Errorf("%w: invalid recurrence frequency", ErrValidation)
	ErrDescriptionTooLong = fmt.Errorf("%w: description too long (max 200 characters)", ErrValidation)
	ErrProjectedReadOnly  = fmt.Errorf("%w: projected occurrences are read-only", ErrValidation)
)

// IsValid reports whether f is one of the supported frequencies.
func (f Frequency) IsValid() bool {
	switch f {
	case Daily, Weekly, Monthly, Yearly:
		return true
	default:
		return false
	}
}

func (k Kind) IsValid() bool {
	return k == Income || k == Expense
}

// ParseKind accepts a kind in any case.
func ParseKind(s string) (Kind, error) {
	k := Kind(strings.ToLower(strings.TrimSpace(s)))
	if !k.IsValid() {
		return "", ErrInvalidKind
	}
	return k, nil
}

// ParseFrequency accepts a frequency in any case. Empty input yields "".
func ParseFrequency(s string) (Frequency, error) {
	s = strings.ToLower(strings.TrimSpace(s))
	if s == "" {
		return "", nil
	}
	f := Frequency(s)
	if !f.IsValid() {
		return "", ErrInvalidFrequency
	}
	return f, nil
}

// ValidateOwner checks that owner is a well-formed store identifier.
func ValidateOwner(owner string) error {
	if strings.TrimSpace(owner) == "" {
		return ErrInvalidOwner
	}
	if _, err := uuid.Parse(owner); err != nil {
		return ErrInvalidOwner
	}
	return nil
}

// IsProjectedID reports whether id belongs to a synthetic occurrence.
func IsProjectedID(id string) bool {
	return strings.HasPrefix(id, ProjectedIDPrefix)
}

// ProjectedID builds the synthetic id for a template occurrence on date d.
func ProjectedID(templateID string, d Date) string {
	return ProjectedIDPrefix + templateID + "_" + d.String()
}

// IsProjected reports whether t was synthesized by the projector.
func (t Transaction) IsProjected() bool {
	return t.TemplateID != ""
}

// CategoryLabel returns the grouping label for t.
func (t Transaction) CategoryLabel() string {
	c := strings.TrimSpace(t.Category)
	if c == "" {
		return UncategorizedLabel
	}
	return c
}

// Validate checks a transaction before it is written.
func (t Transaction) Validate() error {
	if err := ValidateOwner(t.Owner); err != nil {
		return err
	}
	if !t.Kind.IsValid() {
		return ErrInvalidKind
	}
	if err := t.Amount.Validate(); err != nil {
		return err
	}
	if t.Date.IsZero() {
		return fmt.Errorf("%w: date is required", ErrInvalidDate)
	}
	if err := t.Date.Validate(); err != nil {
		return err
	}
	if utf8.RuneCountInString(t.Description) > MaxDescriptionLength {
		return ErrDescriptionTooLong
	}
	if t.IsRecurring != (t.Frequency != "") {
		return fmt.Errorf("%w: frequency is required if and only if the transaction recurs", ErrInvalidFrequency)
	}
	if t.IsRecurring && !t.Frequency.IsValid() {
		return ErrInvalidFrequency
	}
	if t.IsProjected() || IsProjectedID(t.ID) {
		return ErrProjectedReadOnly
	}
	return nil
}
