package http

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"spendlog/internal/core"
	"spendlog/internal/export"
)

// maxBodyBytes caps request bodies; a single record is far smaller.
const maxBodyBytes = 64 << 10

// HeaderIdempotencyKey carries the client's retry token on creates.
const HeaderIdempotencyKey = "Idempotency-Key"

var errBodyNotObject = errors.New("request body must be a JSON object")

// RequestBodyParser reads a JSON or form-encoded body once and exposes its
// fields as strings.
type RequestBodyParser struct {
	body        []byte
	contentType string
	jsonData    map[string]any
	formData    url.Values
	parsed      bool
	err         error
}

func NewRequestBodyParser(w http.ResponseWriter, r *http.Request) *RequestBodyParser {
	p := &RequestBodyParser{
		contentType: r.Header.Get("Content-Type"),
	}
	p.body, p.err = io.ReadAll(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	return p
}

// Parse decodes the body as JSON when it looks like JSON or is declared as
// such, and as a form otherwise. Numbers keep their literal text.
func (p *RequestBodyParser) Parse() error {
	if p.parsed {
		return p.err
	}
	p.parsed = true

	if p.err != nil {
		return p.err
	}

	trimmed := bytes.TrimSpace(p.body)
	if len(trimmed) == 0 {
		p.formData = url.Values{}
		return nil
	}

	if p.IsJSON() || trimmed[0] == '{' || trimmed[0] == '[' {
		dec := json.NewDecoder(bytes.NewReader(trimmed))
		dec.UseNumber()
		var v any
		if err := dec.Decode(&v); err != nil {
			p.err = fmt.Errorf("invalid JSON body: %w", err)
			return p.err
		}
		obj, ok := v.(map[string]any)
		if !ok {
			p.err = errBodyNotObject
			return p.err
		}
		p.jsonData = obj
		return nil
	}

	p.formData, p.err = url.ParseQuery(string(trimmed))
	return p.err
}

// Get returns the trimmed value for key, or "" when absent.
func (p *RequestBodyParser) Get(key string) string {
	if p.jsonData != nil {
		if val, ok := p.jsonData[key]; ok {
			return strings.TrimSpace(sanitizeInput(stringValue(val)))
		}
		return ""
	}
	if p.formData != nil {
		return strings.TrimSpace(sanitizeInput(p.formData.Get(key)))
	}
	return ""
}

// IsJSON reports whether the declared content type is JSON.
func (p *RequestBodyParser) IsJSON() bool {
	return strings.HasPrefix(strings.ToLower(p.contentType), "application/json")
}

// ExpenseInput collects the record fields of the body.
func (p *RequestBodyParser) ExpenseInput() core.ExpenseInput {
	return core.ExpenseInput{
		Amount:      p.Get("amount"),
		Category:    p.Get("category"),
		Description: p.Get("description"),
		Date:        p.Get("date"),
	}
}

func stringValue(v any) string {
	switch val := v.(type) {
	case string:
		return val
	case json.Number:
		return val.String()
	case bool:
		return strconv.FormatBool(val)
	default:
		return ""
	}
}

// idempotencyKey prefers the header over the idempotency_key body field.
func idempotencyKey(r *http.Request, p *RequestBodyParser) string {
	if key := strings.TrimSpace(r.Header.Get(HeaderIdempotencyKey)); key != "" {
		return key
	}
	return p.Get("idempotency_key")
}

// ParseListQuery validates category, sort, page and limit. Missing values
// take their defaults; anything else invalid is reported per parameter.
func ParseListQuery(q url.Values, defaultLimit, maxLimit int) (core.Query, error) {
	var verr core.ValidationError
	query := core.Query{Page: 1, PageSize: defaultLimit}

	query.Category, query.Sort = parseFilter(q, &verr)

	if v := strings.TrimSpace(q.Get("page")); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 1 {
			verr.Add("page", "page must be a positive integer")
		} else {
			query.Page = n
		}
	}
	if v := strings.TrimSpace(q.Get("limit")); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 1 || n > maxLimit {
			verr.Add("limit", fmt.Sprintf("limit must be an integer between 1 and %d", maxLimit))
		} else {
			query.PageSize = n
		}
	}

	if err := verr.Err(); err != nil {
		return core.Query{}, err
	}
	return query, nil
}

// ExportParams holds the validated query of GET /expenses/export.
type ExportParams struct {
	Category core.Category
	Sort     core.SortOrder
	Format   export.Format
}

func ParseExportQuery(q url.Values) (ExportParams, error) {
	var verr core.ValidationError
	var p ExportParams

	p.Category, p.Sort = parseFilter(q, &verr)
	f, err := export.ParseFormat(q.Get("format"))
	if err != nil {
		verr.Add("format", err.Error())
	}
	p.Format = f

	if err := verr.Err(); err != nil {
		return ExportParams{}, err
	}
	return p, nil
}

func parseFilter(q url.Values, verr *core.ValidationError) (core.Category, core.SortOrder) {
	var category core.Category
	if v := strings.TrimSpace(q.Get("category")); v != "" {
		c, err := core.ParseCategory(v)
		if err != nil {
			verr.Add("category", err.Error())
		}
		category = c
	}
	order, err := core.ParseSortOrder(q.Get("sort"))
	if err != nil {
		verr.Add("sort", err.Error())
	}
	return category, order
}
