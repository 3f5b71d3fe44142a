package core

import (
	"errors"
	"slices"
	"strings"
)

// SortOrder selects the date ordering of a listing.
type SortOrder string

const (
	SortDateDesc SortOrder = "date_desc"
	SortDateAsc  SortOrder = "date_asc"
)

const (
	DefaultPageSize = 10
	MaxPageSize     = 100
)

var ErrInvalidSort = errors.New("sort must be date_desc or date_asc")

// ParseSortOrder maps a query value to a SortOrder. Empty means date_desc.
func ParseSortOrder(s string) (SortOrder, error) {
	switch SortOrder(strings.TrimSpace(s)) {
	case "", SortDateDesc:
		return SortDateDesc, nil
	case SortDateAsc:
		return SortDateAsc, nil
	default:
		return "", ErrInvalidSort
	}
}

// Query describes one page of a filtered, sorted listing.
// An empty Category selects every record. Page is 1-indexed.
type Query struct {
	Category Category
	Sort     SortOrder
	Page     int
	PageSize int
}

// Page is the result of a Query. PageTotal and PageCategories summarise the
// returned Items only, not the whole filtered set.
type Page struct {
	Items          []Expense
	Total          int
	Page           int
	PageSize       int
	TotalPages     int
	PageTotal      Money
	PageCategories []CategoryTotal
}

// compareExpenses orders by (date, created_at, id) ascending.
func compareExpenses(a, b Expense) int {
	if c := a.Date.Compare(b.Date.Time); c != 0 {
		return c
	}
	if c := a.CreatedAt.Compare(b.CreatedAt); c != 0 {
		return c
	}
	return strings.Compare(a.ID, b.ID)
}

// SortExpenses filters items by category (when set) and sorts them by date.
// Descending order is the exact reverse of ascending order; ties on date are
// broken by creation time and then by ID. The input slice is not modified.
func SortExpenses(items []Expense, category Category, order SortOrder) []Expense {
	out := make([]Expense, 0, len(items))
	for _, e := range items {
		if category != "" && e.Category != category {
			continue
		}
		out = append(out, e)
	}
	if order == SortDateAsc {
		slices.SortFunc(out, compareExpenses)
	} else {
		slices.SortFunc(out, func(a, b Expense) int { return compareExpenses(b, a) })
	}
	return out
}

// Paginate applies q to items. A page beyond the last one yields no items and
// still reports Total and TotalPages.
func Paginate(items []Expense, q Query) Page {
	if q.PageSize < 1 {
		q.PageSize = DefaultPageSize
	}
	if q.Page < 1 {
		q.Page = 1
	}

	sorted := SortExpenses(items, q.Category, q.Sort)
	total := len(sorted)
	p := Page{
		Items:      []Expense{},
		Total:      total,
		Page:       q.Page,
		PageSize:   q.PageSize,
		TotalPages: (total + q.PageSize - 1) / q.PageSize,
	}

	if q.Page <= p.TotalPages {
		start := (q.Page - 1) * q.PageSize
		end := min(start+q.PageSize, total)
		p.Items = sorted[start:end]
	}

	for _, e := range p.Items {
		p.PageTotal = p.PageTotal.Add(e.Amount)
	}
	p.PageCategories = CategoryTotals(p.Items)
	return p
}
