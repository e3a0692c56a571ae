package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"spendings/internal/core"
	"spendings/internal/repository"

	_ "modernc.org/sqlite"
)

var _ repository.SpendingRepository = (*SQLiteRepository)(nil)

type SQLiteRepository struct {
	db  *sql.DB
	now func() time.Time
}

func NewSQLiteRepository(dbPath string) (*SQLiteRepository, error) {
	inMemory := isInMemory(dbPath)
	if !inMemory {
		if err := os.MkdirAll(filepath.Dir(dbPath), 0755); err != nil {
			return nil, fmt.Errorf("create db directory: %w", err)
		}
	}

	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open sqlite database: %w", err)
	}
	// Every connection to :memory: gets its own empty database.
	if inMemory {
		db.SetMaxOpenConns(1)
	}

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}

	if err := RunMigrations(db); err != nil {
		db.Close()
		return nil, fmt.Errorf("run migrations: %w", err)
	}

	return &SQLiteRepository{db: db, now: time.Now}, nil
}

func isInMemory(dbPath string) bool {
	return dbPath == ":memory:" || strings.Contains(dbPath, "mode=memory")
}

func (r *SQLiteRepository) Close() error {
	if r.db != nil {
		return r.db.Close()
	}
	return nil
}

const spendingColumns = `id, user_id, count, type, model, created_at`

type rowScanner interface {
	Scan(dest ...any) error
}

func scanSpending(row rowScanner) (core.Spending, error) {
	var (
		s     core.Spending
		count string
	)
	if err := row.Scan(&s.ID, &s.UserID, &count, &s.Type, &s.Model, &s.CreatedAt); err != nil {
		return core.Spending{}, err
	}
	amount, err := core.ParseAmount(count)
	if err != nil {
		return core.Spending{}, fmt.Errorf("parse count %q: %w", count, err)
	}
	s.Count = amount
	return s, nil
}

// whereClause turns the set filters into a WHERE clause. Zero values are
// treated as unset, matching how filters travel in the query string.
func whereClause(f core.Filters) (string, []any) {
	var (
		conds []string
		args  []any
	)
	if f.UserID != nil && *f.UserID != 0 {
		conds = append(conds, "user_id = ?")
		args = append(args, *f.UserID)
	}
	if f.Type != nil && *f.Type != "" {
		conds = append(conds, "type = ?")
		args = append(args, *f.Type)
	}
	if f.Model != nil && *f.Model != "" {
		conds = append(conds, "model = ?")
		args = append(args, *f.Model)
	}
	if f.StartDate != nil && *f.StartDate != "" {
		conds = append(conds, "substr(created_at, 1, 10) >= ?")
		args = append(args, *f.StartDate)
	}
	if f.EndDate != nil && *f.EndDate != "" {
		conds = append(conds, "substr(created_at, 1, 10) <= ?")
		args = append(args, *f.EndDate)
	}
	if len(conds) == 0 {
		return "", nil
	}
	return " WHERE " + strings.Join(conds, " AND "), args
}

// ListSpendings implements repository.SpendingReader
func (r *SQLiteRepository) ListSpendings(ctx context.Context, filters core.Filters, limit, offset int) ([]core.Spending, int, error) {
	where, args := whereClause(filters)

	var total int
	if err := r.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM spendings`+where, args...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("count spendings: %w", err)
	}

	if limit <= 0 {
		limit = -1
	}
	if offset < 0 {
		offset = 0
	}
	rows, err := r.db.QueryContext(ctx,
		`SELECT `+spendingColumns+` FROM spendings`+where+` ORDER BY id LIMIT ? OFFSET ?`,
		append(args, limit, offset)...)
	if err != nil {
		return nil, 0, fmt.Errorf("list spendings: %w", err)
	}
	defer rows.Close()

	items := []core.Spending{}
	for rows.Next() {
		s, err := scanSpending(rows)
		if err != nil {
			return nil, 0, fmt.Errorf("scan spending: %w", err)
		}
		items = append(items, s)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, fmt.Errorf("iterate spendings: %w", err)
	}

	return items, total, nil
}

// GetSpending implements repository.SpendingReader
func (r *SQLiteRepository) GetSpending(ctx context.Context, id int64) (core.Spending, error) {
	return r.getSpending(ctx, r.db, id)
}

type querier interface {
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

func (r *SQLiteRepository) getSpending(ctx context.Context, q querier, id int64) (core.Spending, error) {
	s, err := scanSpending(q.QueryRowContext(ctx, `SELECT `+spendingColumns+` FROM spendings WHERE id = ?`, id))
	if errors.Is(err, sql.ErrNoRows) {
		return core.Spending{}, repository.ErrNotFound
	}
	if err != nil {
		return core.Spending{}, fmt.Errorf("get spending by id: %w", err)
	}
	return s, nil
}

// CreateSpending implements repository.SpendingWriter
func (r *SQLiteRepository) CreateSpending(ctx context.Context, n core.NewSpending) (core.Spending, error) {
	if err := n.Validate(); err != nil {
		return core.Spending{}, err
	}

	createdAt := core.Timestamp(r.now())
	res, err := r.db.ExecContext(ctx,
		`INSERT INTO spendings (user_id, count, type, model, created_at) VALUES (?, ?, ?, ?, ?)`,
		n.UserID, n.Count.String(), n.Type, n.Model, createdAt)
	if err != nil {
		return core.Spending{}, fmt.Errorf("create spending: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return core.Spending{}, fmt.Errorf("read spending id: %w", err)
	}

	slog.InfoContext(ctx, "Spending saved to SQLite",
		"id", id,
		"user_id", n.UserID,
		"count", n.Count.String(),
		"type", n.Type)

	return core.Spending{
		ID:        id,
		UserID:    n.UserID,
		Count:     n.Count,
		Type:      n.Type,
		Model:     n.Model,
		CreatedAt: createdAt,
	}, nil
}

// UpdateSpending implements repository.SpendingWriter
func (r *SQLiteRepository) UpdateSpending(ctx context.Context, id int64, u core.SpendingUpdate) (core.Spending, error) {
	if err := u.Validate(); err != nil {
		return core.Spending{}, err
	}

	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return core.Spending{}, fmt.Errorf("begin update: %w", err)
	}
	defer tx.Rollback()

	current, err := r.getSpending(ctx, tx, id)
	if err != nil {
		return core.Spending{}, err
	}
	next := u.Apply(current)

	if _, err := tx.ExecContext(ctx,
		`UPDATE spendings SET user_id = ?, count = ?, type = ?, model = ? WHERE id = ?`,
		next.UserID, next.Count.String(), next.Type, next.Model, id); err != nil {
		return core.Spending{}, fmt.Errorf("update spending: %w", err)
	}
	if err := tx.Commit(); err != nil {
		return core.Spending{}, fmt.Errorf("commit update: %w", err)
	}

	slog.InfoContext(ctx, "Spending updated in SQLite", "id", id)
	return next, nil
}

// DeleteSpending implements repository.SpendingWriter
func (r *SQLiteRepository) DeleteSpending(ctx context.Context, id int64) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM spendings WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("delete spending: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("delete spending: %w", err)
	}
	if n == 0 {
		return repository.ErrNotFound
	}

	slog.InfoContext(ctx, "Spending deleted from SQLite", "id", id)
	return nil
}
