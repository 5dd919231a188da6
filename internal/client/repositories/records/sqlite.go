package records

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

const (
	fullColumns    = `id, title, mime_type, encrypted, created_at, file_data`
	summaryColumns = `id, title, mime_type, encrypted, created_at`
)

type SQLiteRepository struct {
	db dbx.DBTX
}

func NewSQLiteRepository(db dbx.DBTX) *SQLiteRepository {
	return &SQLiteRepository{db: db}
}

func (r *SQLiteRepository) Add(ctx context.Context, rec *models.FileRecord) error {
	rec.ID = 0
	return r.Insert(ctx, rec)
}

func (r *SQLiteRepository) Insert(ctx context.Context, rec *models.FileRecord) error {
	var id any
	if rec.ID != 0 {
		id = rec.ID
	}
	data := rec.Data
	if data == nil {
		data = []byte{}
	}
	res, err := r.db.ExecContext(ctx,
		`INSERT INTO records (`+fullColumns+`) VALUES (?, ?, ?, ?, ?, ?)`,
		id, rec.Title, rec.MimeType, rec.Encrypted, timex.ToMillis(rec.CreatedAt), data)
	if err != nil {
		return dbx.StorageError("insert record", err)
	}
	newID, err := res.LastInsertId()
	if err != nil {
		return dbx.StorageError("insert record", err)
	}
	rec.ID = newID
	return nil
}

func (r *SQLiteRepository) BulkInsert(ctx context.Context, items []models.FileRecord) (int, error) {
	for i := range items {
		if err := r.Insert(ctx, &items[i]); err != nil {
			return i, err
		}
	}
	return len(items), nil
}

func (r *SQLiteRepository) Update(ctx context.Context, rec *models.FileRecord) error {
	res, err := r.db.ExecContext(ctx, `UPDATE records SET title = ? WHERE id = ?`, rec.Title, rec.ID)
	if err != nil {
		return dbx.StorageError("update record", err)
	}
	return expectOne(res, rec.ID)
}

func (r *SQLiteRepository) Delete(ctx context.Context, id int64) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM records WHERE id = ?`, id)
	if err != nil {
		return dbx.StorageError("delete record", err)
	}
	return expectOne(res, id)
}

func expectOne(res sql.Result, id int64) error {
	n, err := res.RowsAffected()
	if err != nil {
		return dbx.StorageError("rows affected", err)
	}
	if n == 0 {
		return fmt.Errorf("record %d: %w", id, common.ErrNotFound)
	}
	return nil
}

type scanner interface {
	Scan(dest ...any) error
}

func scan(s scanner, withData bool) (models.FileRecord, error) {
	var (
		rec       models.FileRecord
		createdAt int64
	)
	dest := []any{&rec.ID, &rec.Title, &rec.MimeType, &rec.Encrypted, &createdAt}
	if withData {
		dest = append(dest, &rec.Data)
	}
	if err := s.Scan(dest...); err != nil {
		return rec, err
	}
	rec.CreatedAt = timex.FromMillis(createdAt)
	return rec, nil
}

func (r *SQLiteRepository) Get(ctx context.Context, id int64) (*models.FileRecord, error) {
	rec, err := scan(r.db.QueryRowContext(ctx, `SELECT `+fullColumns+` FROM records WHERE id = ?`, id), true)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("record %d: %w", id, common.ErrNotFound)
	}
	if err != nil {
		return nil, dbx.StorageError("get record", err)
	}
	return &rec, nil
}

func (r *SQLiteRepository) query(ctx context.Context, withData bool, query string, args ...any) ([]models.FileRecord, error) {
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, dbx.StorageError("select records", err)
	}
	defer rows.Close()

	result := make([]models.FileRecord, 0)
	for rows.Next() {
		rec, err := scan(rows, withData)
		if err != nil {
			return nil, dbx.StorageError("scan record", err)
		}
		result = append(result, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, dbx.StorageError("iterate records", err)
	}
	return result, nil
}

func (r *SQLiteRepository) List(ctx context.Context) ([]models.FileRecord, error) {
	return r.query(ctx, true, `SELECT `+fullColumns+` FROM records ORDER BY id`)
}

func (r *SQLiteRepository) ListSummaries(ctx context.Context) ([]models.FileRecord, error) {
	return r.query(ctx, false, `SELECT `+summaryColumns+` FROM records ORDER BY created_at DESC, id DESC`)
}

// ListCreatedBetween returns summaries created in [from, to), newest first.
func (r *SQLiteRepository) ListCreatedBetween(ctx context.Context, from, to time.Time) ([]models.FileRecord, error) {
	return r.query(ctx, false,
		`SELECT `+summaryColumns+` FROM records WHERE created_at >= ? AND created_at < ? ORDER BY created_at DESC, id DESC`,
		timex.ToMillis(from), timex.ToMillis(to))
}

func (r *SQLiteRepository) Count(ctx context.Context) (int, error) {
	var n int
	if err := r.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM records`).Scan(&n); err != nil {
		return 0, dbx.StorageError("count records", err)
	}
	return n, nil
}

func (r *SQLiteRepository) Clear(ctx context.Context) error {
	if _, err := r.db.ExecContext(ctx, `DELETE FROM records`); err != nil {
		return dbx.StorageError("clear records", err)
	}
	return nil
}
