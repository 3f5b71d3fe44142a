package core

import (
	"slices"
	"strings"
)

// MonthlyTotal is the sum of all expenses dated within one calendar month.
type MonthlyTotal struct {
	Month string // YYYY-MM
	Total Money
	Count int
}

// CategoryTotal is the sum of all expenses in one category.
type CategoryTotal struct {
	Category Category
	Total    Money
	Count    int
}

// Stats summarises the whole record set.
type Stats struct {
	Monthly    []MonthlyTotal
	Categories []CategoryTotal
	Total      Money
	Count      int
}

// MonthlyTotals buckets items by calendar month, one entry per month with at
// least one record, ordered chronologically.
func MonthlyTotals(items []Expense) []MonthlyTotal {
	byMonth := make(map[string]*MonthlyTotal)
	for _, e := range items {
		key := e.Date.MonthKey()
		mt, ok := byMonth[key]
		if !ok {
			mt = &MonthlyTotal{Month: key}
			byMonth[key] = mt
		}
		mt.Total = mt.Total.Add(e.Amount)
		mt.Count++
	}

	out := make([]MonthlyTotal, 0, len(byMonth))
	for _, mt := range byMonth {
		out = append(out, *mt)
	}
	// YYYY-MM keys sort chronologically as strings.
	slices.SortFunc(out, func(a, b MonthlyTotal) int { return strings.Compare(a.Month, b.Month) })
	return out
}

// CategoryTotals sums items per category, one entry per category with at
// least one record. Entries follow the fixed category order.
func CategoryTotals(items []Expense) []CategoryTotal {
	var sums [len(categories)]CategoryTotal
	var extra []CategoryTotal
	for _, e := range items {
		i := categoryIndex(e.Category)
		if i < 0 {
			// Records read from storage are always valid; keep unknown
			// categories visible rather than dropping their amounts.
			extra = addToCategory(extra, e)
			continue
		}
		sums[i].Category = e.Category
		sums[i].Total = sums[i].Total.Add(e.Amount)
		sums[i].Count++
	}

	out := make([]CategoryTotal, 0, len(categories))
	for _, ct := range sums {
		if ct.Count > 0 {
			out = append(out, ct)
		}
	}
	return append(out, extra...)
}

func addToCategory(list []CategoryTotal, e Expense) []CategoryTotal {
	for i := range list {
		if list[i].Category == e.Category {
			list[i].Total = list[i].Total.Add(e.Amount)
			list[i].Count++
			return list
		}
	}
	return append(list, CategoryTotal{Category: e.Category, Total: e.Amount, Count: 1})
}

// Aggregate computes the month and category breakdowns over every item given.
func Aggregate(items []Expense) Stats {
	s := Stats{
		Monthly:    MonthlyTotals(items),
		Categories: CategoryTotals(items),
		Count:      len(items),
	}
	for _, e := range items {
		s.Total = s.Total.Add(e.Amount)
	}
	return s
}
