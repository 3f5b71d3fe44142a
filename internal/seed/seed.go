// Package seed fills a store with plausible demo expenses.
package seed

import (
	"context"
	"fmt"
	"time"

	"github.com/brianvoe/gofakeit/v6"

	"spendlog/internal/core"
)

// Creator is the slice of the expense service the seeder needs.
type Creator interface {
	Create(ctx context.Context, in core.ExpenseInput, key string) (core.Expense, bool, error)
}

type Options struct {
	Count     int
	Months    int    // spread dates over this many months before Now
	KeyPrefix string // keys are "<prefix>-<n>", so reruns replay instead of duplicating
	Seed      int64  // zero picks a time based seed
	Now       time.Time
}

// Result counts what a run did.
type Result struct {
	Created  int
	Replayed int
}

// Generator produces random but valid expense inputs.
type Generator struct {
	faker *gofakeit.Faker
	start time.Time
	end   time.Time
}

func NewGenerator(seed int64, months int, now time.Time) *Generator {
	if seed == 0 {
		seed = time.Now().UnixNano()
	}
	if months < 1 {
		months = 1
	}
	end := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.UTC)
	return &Generator{
		faker: gofakeit.New(seed),
		start: end.AddDate(0, -months, 0),
		end:   end,
	}
}

func (g *Generator) Next() core.ExpenseInput {
	cats := core.Categories()
	cat := cats[g.faker.Number(0, len(cats)-1)]
	return core.ExpenseInput{
		Amount:      fmt.Sprintf("%.2f", g.faker.Price(1, 250)),
		Category:    string(cat),
		Description: g.description(cat),
		Date:        g.faker.DateRange(g.start, g.end).UTC().Format(core.DateLayout),
	}
}

func (g *Generator) description(c core.Category) string {
	f := g.faker
	switch c {
	case core.Food:
		return f.RandomString([]string{"Lunch at ", "Dinner at ", "Groceries from "}) + f.Company()
	case core.Transport:
		return f.RandomString([]string{"Train ticket", "Bus pass", "Taxi ride", "Fuel"})
	case core.Shopping:
		return "Bought " + f.Word() + " from " + f.Company()
	case core.Entertainment:
		return f.RandomString([]string{"Cinema", "Concert", "Streaming subscription", "Museum"})
	case core.Bills:
		return f.RandomString([]string{"Electricity", "Water", "Internet", "Phone"}) + " bill"
	case core.Healthcare:
		return f.RandomString([]string{"Pharmacy", "Dentist", "GP visit"})
	case core.Education:
		return f.RandomString([]string{"Online course", "Books", "Workshop"})
	default:
		return f.Sentence(4)
	}
}

// Run creates opts.Count expenses through c.
func Run(ctx context.Context, c Creator, opts Options) (Result, error) {
	if opts.KeyPrefix == "" {
		opts.KeyPrefix = "seed"
	}
	if opts.Now.IsZero() {
		opts.Now = time.Now()
	}

	g := NewGenerator(opts.Seed, opts.Months, opts.Now)
	var res Result
	for i := 1; i <= opts.Count; i++ {
		if err := ctx.Err(); err != nil {
			return res, err
		}
		_, created, err := c.Create(ctx, g.Next(), fmt.Sprintf("%s-%d", opts.KeyPrefix, i))
		if err != nil {
			return res, fmt.Errorf("seed expense %d: %w", i, err)
		}
		if created {
			res.Created++
		} else {
			res.Replayed++
		}
	}
	return res, nil
}
