package http

import (
	"bytes"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"sync/atomic"
	"time"

	"spendlog/internal/core"
	"spendlog/internal/export"
	applog "spendlog/internal/log"
)

// handleCreateExpense stores a new record. A repeated Idempotency-Key
// answers 200 with the record created first.
func (s *Server) handleCreateExpense(w http.ResponseWriter, r *http.Request) {
	p := NewRequestBodyParser(w, r)
	if err := p.Parse(); err != nil {
		writeBodyError(w, err)
		return
	}

	e, created, err := s.svc.Create(r.Context(), p.ExpenseInput(), idempotencyKey(r, p))
	if err != nil {
		s.writeServiceError(w, r, applog.OpCreate, err)
		return
	}

	if !created {
		atomic.AddInt64(&s.appMetrics.replayed, 1)
		NewResponse().JSON(toExpenseJSON(e)).Write(w)
		return
	}
	atomic.AddInt64(&s.appMetrics.created, 1)
	NewResponse().
		Status(http.StatusCreated).
		Header("Location", "/expenses/"+e.ID).
		JSON(toExpenseJSON(e)).
		Write(w)
}

func (s *Server) handleListExpenses(w http.ResponseWriter, r *http.Request) {
	q, err := ParseListQuery(r.URL.Query(), s.defaultPageSize, s.maxPageSize)
	if err != nil {
		writeQueryError(w, err)
		return
	}

	page, err := s.svc.List(r.Context(), q)
	if err != nil {
		s.writeServiceError(w, r, applog.OpList, err)
		return
	}
	NewResponse().JSON(toPageJSON(page)).Write(w)
}

func (s *Server) handleGetExpense(w http.ResponseWriter, r *http.Request) {
	e, err := s.svc.Get(r.Context(), r.PathValue("id"))
	if err != nil {
		s.writeServiceError(w, r, applog.OpRead, err)
		return
	}
	NewResponse().JSON(toExpenseJSON(e)).Write(w)
}

// handleUpdateExpense replaces every mutable field of the record.
func (s *Server) handleUpdateExpense(w http.ResponseWriter, r *http.Request) {
	p := NewRequestBodyParser(w, r)
	if err := p.Parse(); err != nil {
		writeBodyError(w, err)
		return
	}

	e, err := s.svc.Update(r.Context(), r.PathValue("id"), p.ExpenseInput())
	if err != nil {
		s.writeServiceError(w, r, applog.OpUpdate, err)
		return
	}
	atomic.AddInt64(&s.appMetrics.updated, 1)
	NewResponse().JSON(toExpenseJSON(e)).Write(w)
}

func (s *Server) handleDeleteExpense(w http.ResponseWriter, r *http.Request) {
	if err := s.svc.Delete(r.Context(), r.PathValue("id")); err != nil {
		s.writeServiceError(w, r, applog.OpDelete, err)
		return
	}
	atomic.AddInt64(&s.appMetrics.deleted, 1)
	NewResponse().Status(http.StatusNoContent).Write(w)
}

// handleExportExpenses streams every matching record as a CSV or XLSX
// attachment. The file is rendered in memory first so a failure can still
// be reported with a proper status.
func (s *Server) handleExportExpenses(w http.ResponseWriter, r *http.Request) {
	params, err := ParseExportQuery(r.URL.Query())
	if err != nil {
		writeQueryError(w, err)
		return
	}

	items, err := s.svc.Export(r.Context(), params.Category, params.Sort)
	if err != nil {
		s.writeServiceError(w, r, applog.OpExport, err)
		return
	}

	var buf bytes.Buffer
	if err := export.Write(&buf, params.Format, items); err != nil {
		s.writeServiceError(w, r, applog.OpExport, fmt.Errorf("render %s export: %w", params.Format, err))
		return
	}

	filename := fmt.Sprintf("expenses-%s.%s", time.Now().UTC().Format("20060102"), params.Format)
	w.Header().Set("Content-Type", params.Format.ContentType())
	w.Header().Set("Content-Disposition", `attachment; filename="`+filename+`"`)
	w.Header().Set("Content-Length", strconv.Itoa(buf.Len()))
	w.WriteHeader(http.StatusOK)
	_, _ = buf.WriteTo(w)

	applog.FromContext(r.Context()).InfoContext(r.Context(), "Expenses exported",
		applog.FieldOperation, applog.OpExport,
		"format", string(params.Format),
		"count", len(items))
}

func writeQueryError(w http.ResponseWriter, err error) {
	var verr *core.ValidationError
	if errors.As(err, &verr) {
		BadRequestError("invalid query parameters", verr.Details...).Write(w)
		return
	}
	BadRequestError("invalid query parameters").Write(w)
}
