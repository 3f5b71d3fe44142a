package core

import (
	"errors"
	"fmt"
	"strings"
	"unicode/utf8"
)

// MaxDescriptionLength bounds a description, counted in characters after trimming.
const MaxDescriptionLength = 500

// FieldError describes one violated field constraint.
type FieldError struct {
	Field  string `json:"field"`
	Reason string `json:"reason"`
}

// ValidationError carries every violation found in a candidate, not just the first.
type ValidationError struct {
	Details []FieldError
}

func (e *ValidationError) Error() string {
	parts := make([]string, len(e.Details))
	for i, d := range e.Details {
		parts[i] = d.Field + ": " + d.Reason
	}
	return "validation failed: " + strings.Join(parts, "; ")
}

// Add records a violation.
func (e *ValidationError) Add(field, reason string) {
	e.Details = append(e.Details, FieldError{Field: field, Reason: reason})
}

// Err returns e when it holds violations and nil otherwise.
func (e *ValidationError) Err() error {
	if e == nil || len(e.Details) == 0 {
		return nil
	}
	return e
}

// ExpenseInput is an unvalidated candidate as received at the boundary.
type ExpenseInput struct {
	Amount      string
	Category    string
	Description string
	Date        string
}

// Validate checks every field and reports all violations at once.
func (in ExpenseInput) Validate() error {
	_, err := in.Fields()
	return err
}

// Fields validates the candidate and converts it to its stored form.
// The description is trimmed.
func (in ExpenseInput) Fields() (ExpenseFields, error) {
	var (
		verr   ValidationError
		fields ExpenseFields
	)

	if strings.TrimSpace(in.Amount) == "" {
		verr.Add("amount", "amount is required")
	} else if cents, err := ParseAmount(in.Amount); err != nil {
		verr.Add("amount", err.Error())
	} else {
		fields.Amount = Money{Cents: cents}
	}

	if strings.TrimSpace(in.Category) == "" {
		verr.Add("category", "category is required")
	} else if c, err := ParseCategory(in.Category); err != nil {
		verr.Add("category", fmt.Sprintf("category must be one of %s", categoryList()))
	} else {
		fields.Category = c
	}

	desc := strings.TrimSpace(in.Description)
	if err := validateDescription(desc); err != nil {
		verr.Add("description", err.Error())
	} else {
		fields.Description = desc
	}

	if strings.TrimSpace(in.Date) == "" {
		verr.Add("date", "date is required")
	} else if d, err := ParseDate(strings.TrimSpace(in.Date)); err != nil {
		verr.Add("date", err.Error())
	} else {
		fields.Date = d
	}

	if err := verr.Err(); err != nil {
		return ExpenseFields{}, err
	}
	return fields, nil
}

var (
	ErrEmptyDescription   = errors.New("description is required")
	ErrDescriptionTooLong = fmt.Errorf("description must be at most %d characters", MaxDescriptionLength)
)

func validateDescription(desc string) error {
	desc = strings.TrimSpace(desc)
	if desc == "" {
		return ErrEmptyDescription
	}
	if utf8.RuneCountInString(desc) > MaxDescriptionLength {
		return ErrDescriptionTooLong
	}
	return nil
}

func categoryList() string {
	names := make([]string, len(categories))
	for i, c := range categories {
		names[i] = string(c)
	}
	return strings.Join(names, ", ")
}
