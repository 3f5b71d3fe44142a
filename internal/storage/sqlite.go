package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"spendlog/internal/core"

	_ "modernc.org/sqlite"
)

const expenseColumns = `id, amount_minor, category, description, date, created_at, idempotency_key`

type SQLiteStore struct {
	db *sql.DB

	// onKeyConflict runs between a conflicting insert and the key lookup.
	onKeyConflict func()
}

// SQLiteDSN builds the connection string for a database file, enabling WAL
// and a busy timeout on every pooled connection.
func SQLiteDSN(dbPath string) string {
	return "file:" + dbPath + "?_pragma=busy_timeout(5000)&_pragma=journal_mode(WAL)&_pragma=foreign_keys(1)"
}

func NewSQLiteStore(ctx context.Context, dbPath string) (*SQLiteStore, error) {
	if err := os.MkdirAll(filepath.Dir(dbPath), 0755); err != nil {
		return nil, fmt.Errorf("create db directory: %w", err)
	}

	dsn := SQLiteDSN(dbPath)
	if err := RunSQLiteMigrations(dsn); err != nil {
		return nil, fmt.Errorf("run migrations: %w", err)
	}

	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("open sqlite database: %w", err)
	}
	// SQLite has a single writer.
	db.SetMaxOpenConns(1)

	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}

	slog.InfoContext(ctx, "SQLite store ready", "path", dbPath)
	return &SQLiteStore{db: db}, nil
}

func (s *SQLiteStore) Close() error {
	if s.db != nil {
		return s.db.Close()
	}
	return nil
}

func (s *SQLiteStore) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

func (s *SQLiteStore) Create(ctx context.Context, f core.ExpenseFields, key string) (core.Expense, bool, error) {
	// A keyed record may be deleted between the conflicting insert and the
	// lookup; the key is then free again, so the insert is retried once.
	for range maxCreateAttempts {
		row := s.db.QueryRowContext(ctx, `
			INSERT INTO expenses (`+expenseColumns+`)
			VALUES (?, ?, ?, ?, ?, ?, ?)
			ON CONFLICT (idempotency_key) DO NOTHING
			RETURNING `+expenseColumns,
			newID(), f.Amount.Cents, string(f.Category), f.Description, f.Date.String(),
			now().UnixMicro(), nullableKey(key),
		)
		e, err := scanSQLiteExpense(row)
		if err == nil {
			slog.DebugContext(ctx, "Expense inserted", "id", e.ID, "amount_cents", e.Amount.Cents)
			return e, true, nil
		}
		if !errors.Is(err, sql.ErrNoRows) || key == "" {
			return core.Expense{}, false, fmt.Errorf("insert expense: %w", err)
		}
		if s.onKeyConflict != nil {
			s.onKeyConflict()
		}

		// The key is taken: return the stored record untouched.
		row = s.db.QueryRowContext(ctx,
			`SELECT `+expenseColumns+` FROM expenses WHERE idempotency_key = ?`, key)
		e, err = scanSQLiteExpense(row)
		if err == nil {
			return e, false, nil
		}
		if !errors.Is(err, sql.ErrNoRows) {
			return core.Expense{}, false, fmt.Errorf("get expense by idempotency key: %w", err)
		}
	}
	return core.Expense{}, false, errKeyContended(key)
}

func (s *SQLiteStore) Get(ctx context.Context, id string) (core.Expense, error) {
	row := s.db.QueryRowContext(ctx, `SELECT `+expenseColumns+` FROM expenses WHERE id = ?`, id)
	e, err := scanSQLiteExpense(row)
	if errors.Is(err, sql.ErrNoRows) {
		return core.Expense{}, notFound(id)
	}
	if err != nil {
		return core.Expense{}, fmt.Errorf("get expense by id: %w", err)
	}
	return e, nil
}

func (s *SQLiteStore) Update(ctx context.Context, id string, f core.ExpenseFields) (core.Expense, error) {
	row := s.db.QueryRowContext(ctx, `
		UPDATE expenses
		SET amount_minor = ?, category = ?, description = ?, date = ?
		WHERE id = ?
		RETURNING `+expenseColumns,
		f.Amount.Cents, string(f.Category), f.Description, f.Date.String(), id,
	)
	e, err := scanSQLiteExpense(row)
	if errors.Is(err, sql.ErrNoRows) {
		return core.Expense{}, notFound(id)
	}
	if err != nil {
		return core.Expense{}, fmt.Errorf("update expense: %w", err)
	}
	return e, nil
}

func (s *SQLiteStore) Delete(ctx context.Context, id string) error {
	res, err := s.db.ExecContext(ctx, `DELETE FROM expenses WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("delete expense: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("delete expense: %w", err)
	}
	if n == 0 {
		return notFound(id)
	}
	return nil
}

func (s *SQLiteStore) List(ctx context.Context, f Filter) ([]core.Expense, error) {
	query := `SELECT ` + expenseColumns + ` FROM expenses`
	var args []any
	if f.Category != "" {
		query += ` WHERE category = ?`
		args = append(args, string(f.Category))
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list expenses: %w", err)
	}
	defer rows.Close()

	out := []core.Expense{}
	for rows.Next() {
		e, err := scanSQLiteExpense(rows)
		if err != nil {
			return nil, fmt.Errorf("scan expense: %w", err)
		}
		out = append(out, e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list expenses: %w", err)
	}
	return out, nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanSQLiteExpense(r rowScanner) (core.Expense, error) {
	var (
		e         core.Expense
		category  string
		date      string
		createdAt int64
		key       sql.NullString
	)
	if err := r.Scan(&e.ID, &e.Amount.Cents, &category, &e.Description, &date, &createdAt, &key); err != nil {
		return core.Expense{}, err
	}
	d, err := core.ParseDate(date)
	if err != nil {
		return core.Expense{}, fmt.Errorf("stored date %q: %w", date, err)
	}
	e.Category = core.Category(category)
	e.Date = d
	e.CreatedAt = time.UnixMicro(createdAt).UTC()
	e.IdempotencyKey = key.String
	return e, nil
}

func nullableKey(key string) sql.NullString {
	return sql.NullString{String: key, Valid: key != ""}
}
