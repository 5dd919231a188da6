package tasks

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/dmitrijs2005/lifevault/internal/client/models"
	"github.com/dmitrijs2005/lifevault/internal/common"
	"github.com/dmitrijs2005/lifevault/internal/dbx"
	"github.com/dmitrijs2005/lifevault/internal/timex"
)

const columns = `id, title, completed, due_date, created_at`

// SQLiteRepository implements Repository using a DBTX (either *sql.DB or *sql.Tx).
type SQLiteRepository struct {
	db dbx.DBTX
}

func NewSQLiteRepository(db dbx.DBTX) *SQLiteRepository {
	return &SQLiteRepository{db: db}
}

func nullableID(id int64) any {
	if id == 0 {
		return nil
	}
	return id
}

func (r *SQLiteRepository) Add(ctx context.Context, t *models.Task) error {
	t.ID = 0
	return r.Insert(ctx, t)
}

func (r *SQLiteRepository) Insert(ctx context.Context, t *models.Task) error {
	res, err := r.db.ExecContext(ctx,
		`INSERT INTO tasks (`+columns+`) VALUES (?, ?, ?, ?, ?)`,
		nullableID(t.ID), t.Title, t.Completed, timex.ToMillis(t.DueDate), timex.ToMillis(t.CreatedAt))
	if err != nil {
		return dbx.StorageError("insert task", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return dbx.StorageError("insert task", err)
	}
	t.ID = id
	return nil
}

func (r *SQLiteRepository) BulkInsert(ctx context.Context, items []models.Task) (int, error) {
	for i := range items {
		if err := r.Insert(ctx, &items[i]); err != nil {
			return i, err
		}
	}
	return len(items), nil
}

func (r *SQLiteRepository) Update(ctx context.Context, t *models.Task) error {
	res, err := r.db.ExecContext(ctx,
		`UPDATE tasks SET title = ?, completed = ?, due_date = ? WHERE id = ?`,
		t.Title, t.Completed, timex.ToMillis(t.DueDate), t.ID)
	if err != nil {
		return dbx.StorageError("update task", err)
	}
	return expectOne(res, t.ID)
}

func (r *SQLiteRepository) Delete(ctx context.Context, id int64) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM tasks WHERE id = ?`, id)
	if err != nil {
		return dbx.StorageError("delete task", err)
	}
	return expectOne(res, id)
}

func expectOne(res sql.Result, id int64) error {
	n, err := res.RowsAffected()
	if err != nil {
		return dbx.StorageError("rows affected", err)
	}
	if n == 0 {
		return fmt.Errorf("task %d: %w", id, common.ErrNotFound)
	}
	return nil
}

type scanner interface {
	Scan(dest ...any) error
}

func scanTask(s scanner) (models.Task, error) {
	var (
		t              models.Task
		due, createdAt int64
	)
	if err := s.Scan(&t.ID, &t.Title, &t.Completed, &due, &createdAt); err != nil {
		return t, err
	}
	t.DueDate = timex.FromMillis(due)
	t.CreatedAt = timex.FromMillis(createdAt)
	return t, nil
}

func (r *SQLiteRepository) Get(ctx context.Context, id int64) (*models.Task, error) {
	row := r.db.QueryRowContext(ctx, `SELECT `+columns+` FROM tasks WHERE id = ?`, id)
	t, err := scanTask(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("task %d: %w", id, common.ErrNotFound)
	}
	if err != nil {
		return nil, dbx.StorageError("get task", err)
	}
	return &t, nil
}

func (r *SQLiteRepository) query(ctx context.Context, query string, args ...any) ([]models.Task, error) {
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, dbx.StorageError("select tasks", err)
	}
	defer rows.Close()

	result := make([]models.Task, 0)
	for rows.Next() {
		t, err := scanTask(rows)
		if err != nil {
			return nil, dbx.StorageError("scan task", err)
		}
		result = append(result, t)
	}
	if err := rows.Err(); err != nil {
		return nil, dbx.StorageError("iterate tasks", err)
	}
	return result, nil
}

func (r *SQLiteRepository) List(ctx context.Context) ([]models.Task, error) {
	return r.query(ctx, `SELECT `+columns+` FROM tasks ORDER BY id`)
}

// ListDueBetween returns tasks with from <= due date < to, earliest first.
func (r *SQLiteRepository) ListDueBetween(ctx context.Context, from, to time.Time) ([]models.Task, error) {
	return r.query(ctx,
		`SELECT `+columns+` FROM tasks WHERE due_date >= ? AND due_date < ? ORDER BY due_date, id`,
		timex.ToMillis(from), timex.ToMillis(to))
}

func (r *SQLiteRepository) Count(ctx context.Context) (int, error) {
	var n int
	if err := r.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM tasks`).Scan(&n); err != nil {
		return 0, dbx.StorageError("count tasks", err)
	}
	return n, nil
}

func (r *SQLiteRepository) Clear(ctx context.Context) error {
	if _, err := r.db.ExecContext(ctx, `DELETE FROM tasks`); err != nil {
		return dbx.StorageError("clear tasks", err)
	}
	return nil
}
