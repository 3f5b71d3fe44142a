package http

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"

	"spendlog/internal/core"
	"spendlog/internal/export"
)

func TestRequestBodyParser(t *testing.T) {
	tests := []struct {
		name        string
		body        string
		contentType string
		wantErr     bool
		want        core.ExpenseInput
	}{
		{
			name:        "json with numeric amount keeps its text",
			body:        `{"amount": 100.50, "category": "Food", "description": " Dinner ", "date": "2024-01-10"}`,
			contentType: "application/json",
			want:        core.ExpenseInput{Amount: "100.50", Category: "Food", Description: "Dinner", Date: "2024-01-10"},
		},
		{
			name: "json with string amount",
			body: `{"amount": "10.555", "category": "Bills"}`,
			want: core.ExpenseInput{Amount: "10.555", Category: "Bills"},
		},
		{
			name:        "form encoded",
			body:        "amount=12.00&category=Transport&description=Bus&date=2024-02-01",
			contentType: "application/x-www-form-urlencoded",
			want:        core.ExpenseInput{Amount: "12.00", Category: "Transport", Description: "Bus", Date: "2024-02-01"},
		},
		{
			name: "control characters are stripped",
			body: "{\"description\": \"a\\u0000b\"}",
			want: core.ExpenseInput{Description: "ab"},
		},
		{
			name:    "malformed json",
			body:    `{"amount": `,
			wantErr: true,
		},
		{
			name:    "json array is not an object",
			body:    `[1, 2]`,
			wantErr: true,
		},
		{
			name: "empty body",
			body: "",
			want: core.ExpenseInput{},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodPost, "/expenses", strings.NewReader(tt.body))
			if tt.contentType != "" {
				req.Header.Set("Content-Type", tt.contentType)
			}
			p := NewRequestBodyParser(httptest.NewRecorder(), req)
			err := p.Parse()
			if (err != nil) != tt.wantErr {
				t.Fatalf("Parse() error = %v, wantErr %v", err, tt.wantErr)
			}
			if tt.wantErr {
				return
			}
			if got := p.ExpenseInput(); got != tt.want {
				t.Errorf("ExpenseInput() = %+v, want %+v", got, tt.want)
			}
		})
	}
}

func TestRequestBodyParserTooLarge(t *testing.T) {
	body := `{"description": "` + strings.Repeat("x", maxBodyBytes) + `"}`
	req := httptest.NewRequest(http.MethodPost, "/expenses", strings.NewReader(body))
	err := NewRequestBodyParser(httptest.NewRecorder(), req).Parse()

	var maxErr *http.MaxBytesError
	if !errors.As(err, &maxErr) {
		t.Fatalf("expected MaxBytesError, got %v", err)
	}
}

func TestIdempotencyKeyPrefersHeader(t *testing.T) {
	req := httptest.NewRequest(http.MethodPost, "/expenses", strings.NewReader(`{"idempotency_key": "body-key"}`))
	p := NewRequestBodyParser(httptest.NewRecorder(), req)
	if err := p.Parse(); err != nil {
		t.Fatal(err)
	}
	if got := idempotencyKey(req, p); got != "body-key" {
		t.Errorf("idempotencyKey() = %q, want body-key", got)
	}

	req.Header.Set(HeaderIdempotencyKey, " header-key ")
	if got := idempotencyKey(req, p); got != "header-key" {
		t.Errorf("idempotencyKey() = %q, want header-key", got)
	}
}

func TestParseListQuery(t *testing.T) {
	tests := []struct {
		name       string
		query      string
		want       core.Query
		wantFields []string
	}{
		{
			name:  "defaults",
			query: "",
			want:  core.Query{Sort: core.SortDateDesc, Page: 1, PageSize: 10},
		},
		{
			name:  "all parameters",
			query: "category=Food&sort=date_asc&page=3&limit=25",
			want:  core.Query{Category: core.Food, Sort: core.SortDateAsc, Page: 3, PageSize: 25},
		},
		{
			name:  "limit at maximum",
			query: "limit=100",
			want:  core.Query{Sort: core.SortDateDesc, Page: 1, PageSize: 100},
		},
		{
			name:       "every parameter invalid",
			query:      "category=Rent&sort=amount&page=0&limit=101",
			wantFields: []string{"category", "sort", "page", "limit"},
		},
		{
			name:       "non numeric page",
			query:      "page=two",
			wantFields: []string{"page"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			values, _ := url.ParseQuery(tt.query)
			got, err := ParseListQuery(values, 10, 100)

			if len(tt.wantFields) == 0 {
				if err != nil {
					t.Fatalf("unexpected error %v", err)
				}
				if got != tt.want {
					t.Errorf("ParseListQuery() = %+v, want %+v", got, tt.want)
				}
				return
			}

			var verr *core.ValidationError
			if !errors.As(err, &verr) {
				t.Fatalf("expected ValidationError, got %v", err)
			}
			if len(verr.Details) != len(tt.wantFields) {
				t.Fatalf("got %d violations (%v), want %d", len(verr.Details), verr.Details, len(tt.wantFields))
			}
			for i, f := range tt.wantFields {
				if verr.Details[i].Field != f {
					t.Errorf("violation %d field = %q, want %q", i, verr.Details[i].Field, f)
				}
			}
		})
	}
}

func TestParseExportQuery(t *testing.T) {
	values, _ := url.ParseQuery("category=Bills&sort=date_asc&format=xlsx")
	got, err := ParseExportQuery(values)
	if err != nil {
		t.Fatal(err)
	}
	if got.Category != core.Bills || got.Sort != core.SortDateAsc || got.Format != export.FormatXLSX {
		t.Errorf("unexpected params %+v", got)
	}

	values, _ = url.ParseQuery("format=pdf")
	if _, err := ParseExportQuery(values); err == nil {
		t.Error("expected error for unsupported format")
	}
}
