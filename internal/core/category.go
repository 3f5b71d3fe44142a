package core

import (
	"errors"
	"slices"
)

// Category is one of a fixed set of expense categories.
type Category string

const (
	Food          Category = "Food"
	Transport     Category = "Transport"
	Shopping      Category = "Shopping"
	Entertainment Category = "Entertainment"
	Bills         Category = "Bills"
	Healthcare    Category = "Healthcare"
	Education     Category = "Education"
	Other         Category = "Other"
)

var ErrInvalidCategory = errors.New("category is not one of the supported categories")

var categories = [...]Category{
	Food, Transport, Shopping, Entertainment, Bills, Healthcare, Education, Other,
}

// Categories returns the supported categories in display order.
func Categories() []Category {
	return slices.Clone(categories[:])
}

// Valid reports whether c is a supported category. Matching is exact.
func (c Category) Valid() bool {
	return categoryIndex(c) >= 0
}

func (c Category) String() string {
	return string(c)
}

// ParseCategory returns the category named s.
func ParseCategory(s string) (Category, error) {
	c := Category(s)
	if !c.Valid() {
		return "", ErrInvalidCategory
	}
	return c, nil
}

func categoryIndex(c Category) int {
	for i, v := range categories {
		if v == c {
			return i
		}
	}
	return -1
}
