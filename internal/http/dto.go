package http

import (
	"time"

	"spendlog/internal/core"
)

// expenseJSON is the wire form of a record. Money marshals as a two-decimal
// number and Date as YYYY-MM-DD.
type expenseJSON struct {
	ID          string     `json:"id"`
	Amount      core.Money `json:"amount"`
	Category    string     `json:"category"`
	Description string     `json:"description"`
	Date        core.Date  `json:"date"`
	CreatedAt   time.Time  `json:"created_at"`
}

func toExpenseJSON(e core.Expense) expenseJSON {
	return expenseJSON{
		ID:          e.ID,
		Amount:      e.Amount,
		Category:    string(e.Category),
		Description: e.Description,
		Date:        e.Date,
		CreatedAt:   e.CreatedAt,
	}
}

type categoryTotalJSON struct {
	Category string     `json:"category"`
	Total    core.Money `json:"total"`
	Count    int        `json:"count"`
}

type monthlyTotalJSON struct {
	Month string     `json:"month"`
	Total core.Money `json:"total"`
	Count int        `json:"count"`
}

type pageSummaryJSON struct {
	Total      core.Money          `json:"total"`
	Categories []categoryTotalJSON `json:"categories"`
}

type pageJSON struct {
	Data       []expenseJSON   `json:"data"`
	Total      int             `json:"total"`
	Page       int             `json:"page"`
	Limit      int             `json:"limit"`
	TotalPages int             `json:"totalPages"`
	Summary    pageSummaryJSON `json:"summary"`
}

type statsJSON struct {
	Monthly    []monthlyTotalJSON  `json:"monthly"`
	Categories []categoryTotalJSON `json:"categories"`
	Total      core.Money          `json:"total"`
	Count      int                 `json:"count"`
}

func toCategoryTotalsJSON(in []core.CategoryTotal) []categoryTotalJSON {
	out := make([]categoryTotalJSON, len(in))
	for i, c := range in {
		out[i] = categoryTotalJSON{Category: string(c.Category), Total: c.Total, Count: c.Count}
	}
	return out
}

func toPageJSON(p core.Page) pageJSON {
	data := make([]expenseJSON, len(p.Items))
	for i, e := range p.Items {
		data[i] = toExpenseJSON(e)
	}
	return pageJSON{
		Data:       data,
		Total:      p.Total,
		Page:       p.Page,
		Limit:      p.PageSize,
		TotalPages: p.TotalPages,
		Summary: pageSummaryJSON{
			Total:      p.PageTotal,
			Categories: toCategoryTotalsJSON(p.PageCategories),
		},
	}
}

func toStatsJSON(s core.Stats) statsJSON {
	monthly := make([]monthlyTotalJSON, len(s.Monthly))
	for i, m := range s.Monthly {
		monthly[i] = monthlyTotalJSON{Month: m.Month, Total: m.Total, Count: m.Count}
	}
	return statsJSON{
		Monthly:    monthly,
		Categories: toCategoryTotalsJSON(s.Categories),
		Total:      s.Total,
		Count:      s.Count,
	}
}
