package core

import (
	"errors"
	"time"
)

// DateLayout is the wire and storage form of a Date.
const DateLayout = "2006-01-02"

// MonthLayout is the key used to bucket dates by calendar month.
const MonthLayout = "2006-01"

type (
	// Date is a calendar date without a time component, always in UTC.
	Date struct {
		time.Time
	}

	Money struct {
		Cents int64
	}

	// ExpenseFields holds the replaceable part of an expense.
	ExpenseFields struct {
		Amount      Money
		Category    Category
		Description string
		Date        Date
	}

	Expense struct {
		ID string
		ExpenseFields
		CreatedAt      time.Time
		IdempotencyKey string
	}
)

var (
	ErrNotFound        = errors.New("expense not found")
	ErrInvalidAmount   = errors.New("amount must be a decimal number")
	ErrAmountPrecision = errors.New("amount must have at most 2 decimal places")
	ErrAmountRange     = errors.New("amount must be greater than 0")
	ErrInvalidDate     = errors.New("date must be a valid calendar date in YYYY-MM-DD format")
)

// NewDate creates a new Date from year, month, day
func NewDate(year, month, day int) Date {
	return Date{Time: time.Date(year, time.Month(month), day, 0, 0, 0, 0, time.UTC)}
}

// ParseDate parses a strict YYYY-MM-DD date. Impossible dates such as
// 2024-02-30 are rejected.
func ParseDate(s string) (Date, error) {
	if len(s) != len(DateLayout) {
		return Date{}, ErrInvalidDate
	}
	t, err := time.Parse(DateLayout, s)
	if err != nil {
		return Date{}, ErrInvalidDate
	}
	return Date{Time: t}, nil
}

// String returns the date in YYYY-MM-DD form.
func (d Date) String() string {
	return d.Format(DateLayout)
}

// MonthKey returns the YYYY-MM bucket of the date.
func (d Date) MonthKey() string {
	return d.Format(MonthLayout)
}

// MarshalJSON encodes the date as a "YYYY-MM-DD" string.
func (d Date) MarshalJSON() ([]byte, error) {
	return []byte(`"` + d.String() + `"`), nil
}

// Validate rejects the zero date.
func (d Date) Validate() error {
	if d.IsZero() {
		return ErrInvalidDate
	}
	return nil
}

// Validate checks already converted fields and returns the first violation.
func (f ExpenseFields) Validate() error {
	if err := f.Amount.Validate(); err != nil {
		return err
	}
	if !f.Category.Valid() {
		return ErrInvalidCategory
	}
	if err := validateDescription(f.Description); err != nil {
		return err
	}
	return f.Date.Validate()
}
