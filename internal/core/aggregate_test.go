package core

import (
	"strconv"
	"testing"
	"time"
)

func TestAggregateExample(t *testing.T) {
	now := time.Now()
	items := []Expense{
		expense("1", "2024-01-10", Food, 10050, now),
		expense("2", "2024-01-15", Transport, 5000, now),
		expense("3", "2024-02-01", Food, 2000, now),
	}

	monthly := MonthlyTotals(items)
	want := []MonthlyTotal{
		{Month: "2024-01", Total: Money{Cents: 15050}, Count: 2},
		{Month: "2024-02", Total: Money{Cents: 2000}, Count: 1},
	}
	if len(monthly) != len(want) {
		t.Fatalf("monthly = %+v", monthly)
	}
	for i := range want {
		if monthly[i] != want[i] {
			t.Fatalf("monthly[%d] = %+v, want %+v", i, monthly[i], want[i])
		}
	}
	if monthly[0].Total.String() != "150.50" {
		t.Fatalf("expected 150.50, got %s", monthly[0].Total)
	}

	cats := CategoryTotals(items)
	var food *CategoryTotal
	for i := range cats {
		if cats[i].Category == Food {
			food = &cats[i]
		}
	}
	if food == nil || food.Total.Cents != 12050 || food.Count != 2 {
		t.Fatalf("food total = %+v", food)
	}
	if len(cats) != 2 {
		t.Fatalf("expected only categories with records, got %+v", cats)
	}
}

func TestMonthlyTotalsChronological(t *testing.T) {
	now := time.Now()
	items := []Expense{
		expense("1", "2025-01-02", Other, 1, now),
		expense("2", "2023-12-31", Other, 1, now),
		expense("3", "2024-06-30", Other, 1, now),
	}
	monthly := MonthlyTotals(items)
	got := []string{monthly[0].Month, monthly[1].Month, monthly[2].Month}
	if got[0] != "2023-12" || got[1] != "2024-06" || got[2] != "2025-01" {
		t.Fatalf("unexpected order %v", got)
	}
}

func TestAggregate(t *testing.T) {
	s := Aggregate(fixture())
	if s.Count != 5 || s.Total.Cents != 18050 {
		t.Fatalf("unexpected totals: %+v", s)
	}
	if empty := Aggregate(nil); len(empty.Monthly) != 0 || len(empty.Categories) != 0 || empty.Count != 0 {
		t.Fatalf("unexpected empty stats: %+v", empty)
	}
}

func TestAggregateLargestAmountsStayExact(t *testing.T) {
	maxAmount := ExpenseInput{Amount: "999999999.99", Category: "Food", Description: "x", Date: "2024-01-10"}
	fields, err := maxAmount.Fields()
	if err != nil {
		t.Fatalf("largest amount rejected: %v", err)
	}
	if fields.Amount.Cents != MaxAmountCents {
		t.Fatalf("cents = %d, want %d", fields.Amount.Cents, MaxAmountCents)
	}

	over := maxAmount
	over.Amount = "92233720368547758.07"
	if _, err := over.Fields(); err == nil {
		t.Fatal("amount near the int64 limit must be rejected")
	}

	const n = 1000
	base := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	items := make([]Expense, n)
	for i := range items {
		items[i] = expense(strconv.Itoa(i), "2024-01-10", Food, MaxAmountCents, base)
	}
	want := Money{Cents: MaxAmountCents * n}

	stats := Aggregate(items)
	if stats.Total != want || stats.Count != n {
		t.Fatalf("total = %s (count %d), want %s", stats.Total, stats.Count, want)
	}
	if len(stats.Monthly) != 1 || stats.Monthly[0].Total != want {
		t.Fatalf("monthly = %+v", stats.Monthly)
	}
	if len(stats.Categories) != 1 || stats.Categories[0].Total != want {
		t.Fatalf("categories = %+v", stats.Categories)
	}
	if want.String() != "999999999990.00" {
		t.Fatalf("formatted total = %s", want)
	}

	page := Paginate(items, Query{Sort: SortDateAsc, Page: 1, PageSize: n})
	if page.PageTotal != want {
		t.Fatalf("page total = %s, want %s", page.PageTotal, want)
	}
}
