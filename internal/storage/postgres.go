package storage

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"spendlog/internal/core"
)

// PostgresStore is the backend to use when more than one server process
// shares the data.
type PostgresStore struct {
	pool *pgxpool.Pool
}

func NewPostgresStore(ctx context.Context, databaseURL string) (*PostgresStore, error) {
	pool, err := pgxpool.New(ctx, databaseURL)
	if err != nil {
		return nil, fmt.Errorf("create postgres pool: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}
	if err := RunPostgresMigrations(pool); err != nil {
		pool.Close()
		return nil, fmt.Errorf("run migrations: %w", err)
	}

	slog.InfoContext(ctx, "PostgreSQL store ready")
	return &PostgresStore{pool: pool}, nil
}

func (s *PostgresStore) Close() error {
	s.pool.Close()
	return nil
}

func (s *PostgresStore) Ping(ctx context.Context) error {
	return s.pool.Ping(ctx)
}

func (s *PostgresStore) Create(ctx context.Context, f core.ExpenseFields, key string) (core.Expense, bool, error) {
	for range maxCreateAttempts {
		row := s.pool.QueryRow(ctx, `
			INSERT INTO expenses (`+expenseColumns+`)
			VALUES ($1, $2, $3, $4, $5, $6, $7)
			ON CONFLICT (idempotency_key) DO NOTHING
			RETURNING `+expenseColumns,
			newID(), f.Amount.Cents, string(f.Category), f.Description, f.Date.Time,
			now(), nullableKeyPtr(key),
		)
		e, err := scanPostgresExpense(row)
		if err == nil {
			slog.DebugContext(ctx, "Expense inserted", "id", e.ID, "amount_cents", e.Amount.Cents)
			return e, true, nil
		}
		if !errors.Is(err, pgx.ErrNoRows) || key == "" {
			return core.Expense{}, false, fmt.Errorf("insert expense: %w", err)
		}

		row = s.pool.QueryRow(ctx,
			`SELECT `+expenseColumns+` FROM expenses WHERE idempotency_key = $1`, key)
		e, err = scanPostgresExpense(row)
		if err == nil {
			return e, false, nil
		}
		if !errors.Is(err, pgx.ErrNoRows) {
			return core.Expense{}, false, fmt.Errorf("get expense by idempotency key: %w", err)
		}
	}
	return core.Expense{}, false, errKeyContended(key)
}

func (s *PostgresStore) Get(ctx context.Context, id string) (core.Expense, error) {
	if uuid.Validate(id) != nil {
		return core.Expense{}, notFound(id)
	}
	row := s.pool.QueryRow(ctx, `SELECT `+expenseColumns+` FROM expenses WHERE id = $1`, id)
	e, err := scanPostgresExpense(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return core.Expense{}, notFound(id)
	}
	if err != nil {
		return core.Expense{}, fmt.Errorf("get expense by id: %w", err)
	}
	return e, nil
}

func (s *PostgresStore) Update(ctx context.Context, id string, f core.ExpenseFields) (core.Expense, error) {
	if uuid.Validate(id) != nil {
		return core.Expense{}, notFound(id)
	}
	row := s.pool.QueryRow(ctx, `
		UPDATE expenses
		SET amount_minor = $1, category = $2, description = $3, date = $4
		WHERE id = $5
		RETURNING `+expenseColumns,
		f.Amount.Cents, string(f.Category), f.Description, f.Date.Time, id,
	)
	e, err := scanPostgresExpense(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return core.Expense{}, notFound(id)
	}
	if err != nil {
		return core.Expense{}, fmt.Errorf("update expense: %w", err)
	}
	return e, nil
}

func (s *PostgresStore) Delete(ctx context.Context, id string) error {
	if uuid.Validate(id) != nil {
		return notFound(id)
	}
	tag, err := s.pool.Exec(ctx, `DELETE FROM expenses WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete expense: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return notFound(id)
	}
	return nil
}

func (s *PostgresStore) List(ctx context.Context, f Filter) ([]core.Expense, error) {
	query := `SELECT ` + expenseColumns + ` FROM expenses`
	var args []any
	if f.Category != "" {
		query += ` WHERE category = $1`
		args = append(args, string(f.Category))
	}

	rows, err := s.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list expenses: %w", err)
	}
	defer rows.Close()

	out := []core.Expense{}
	for rows.Next() {
		e, err := scanPostgresExpense(rows)
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

func scanPostgresExpense(r rowScanner) (core.Expense, error) {
	var (
		e         core.Expense
		id        uuid.UUID
		category  string
		date      time.Time
		createdAt time.Time
		key       *string
	)
	if err := r.Scan(&id, &e.Amount.Cents, &category, &e.Description, &date, &createdAt, &key); err != nil {
		return core.Expense{}, err
	}
	e.ID = id.String()
	e.Category = core.Category(category)
	e.Date = core.NewDate(date.Year(), int(date.Month()), date.Day())
	e.CreatedAt = createdAt.UTC()
	if key != nil {
		e.IdempotencyKey = *key
	}
	return e, nil
}

func nullableKeyPtr(key string) *string {
	if key == "" {
		return nil
	}
	return &key
}
