package transactions

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

const columns = `id, kind, amount, category, notes, date, created_at`

type SQLiteRepository struct {
	db dbx.DBTX
}

func NewSQLiteRepository(db dbx.DBTX) *SQLiteRepository {
	return &SQLiteRepository{db: db}
}

func (r *SQLiteRepository) Add(ctx context.Context, tx *models.Transaction) error {
	tx.ID = 0
	return r.Insert(ctx, tx)
}

func (r *SQLiteRepository) Insert(ctx context.Context, tx *models.Transaction) error {
	var id any
	if tx.ID != 0 {
		id = tx.ID
	}
	res, err := r.db.ExecContext(ctx,
		`INSERT INTO transactions (`+columns+`) VALUES (?, ?, ?, ?, ?, ?, ?)`,
		id, string(tx.Kind), tx.Amount, tx.Category, tx.Notes,
		timex.ToMillis(tx.Date), timex.ToMillis(tx.CreatedAt))
	if err != nil {
		return dbx.StorageError("insert transaction", err)
	}
	newID, err := res.LastInsertId()
	if err != nil {
		return dbx.StorageError("insert transaction", err)
	}
	tx.ID = newID
	return nil
}

func (r *SQLiteRepository) BulkInsert(ctx context.Context, items []models.Transaction) (int, error) {
	for i := range items {
		if err := r.Insert(ctx, &items[i]); err != nil {
			return i, err
		}
	}
	return len(items), nil
}

func (r *SQLiteRepository) Update(ctx context.Context, tx *models.Transaction) error {
	res, err := r.db.ExecContext(ctx,
		`UPDATE transactions SET kind = ?, amount = ?, category = ?, notes = ?, date = ? WHERE id = ?`,
		string(tx.Kind), tx.Amount, tx.Category, tx.Notes, timex.ToMillis(tx.Date), tx.ID)
	if err != nil {
		return dbx.StorageError("update transaction", err)
	}
	return expectOne(res, tx.ID)
}

func (r *SQLiteRepository) Delete(ctx context.Context, id int64) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM transactions WHERE id = ?`, id)
	if err != nil {
		return dbx.StorageError("delete transaction", err)
	}
	return expectOne(res, id)
}

func expectOne(res sql.Result, id int64) error {
	n, err := res.RowsAffected()
	if err != nil {
		return dbx.StorageError("rows affected", err)
	}
	if n == 0 {
		return fmt.Errorf("transaction %d: %w", id, common.ErrNotFound)
	}
	return nil
}

func scan(s interface{ Scan(dest ...any) error }) (models.Transaction, error) {
	var (
		tx              models.Transaction
		kind            string
		date, createdAt int64
	)
	err := s.Scan(&tx.ID, &kind, &tx.Amount, &tx.Category, &tx.Notes, &date, &createdAt)
	if err != nil {
		return tx, err
	}
	tx.Kind = models.TransactionKind(kind)
	tx.Date = timex.FromMillis(date)
	tx.CreatedAt = timex.FromMillis(createdAt)
	return tx, nil
}

func (r *SQLiteRepository) Get(ctx context.Context, id int64) (*models.Transaction, error) {
	tx, err := scan(r.db.QueryRowContext(ctx, `SELECT `+columns+` FROM transactions WHERE id = ?`, id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("transaction %d: %w", id, common.ErrNotFound)
	}
	if err != nil {
		return nil, dbx.StorageError("get transaction", err)
	}
	return &tx, nil
}

func (r *SQLiteRepository) query(ctx context.Context, query string, args ...any) ([]models.Transaction, error) {
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, dbx.StorageError("select transactions", err)
	}
	defer rows.Close()

	result := make([]models.Transaction, 0)
	for rows.Next() {
		tx, err := scan(rows)
		if err != nil {
			return nil, dbx.StorageError("scan transaction", err)
		}
		result = append(result, tx)
	}
	if err := rows.Err(); err != nil {
		return nil, dbx.StorageError("iterate transactions", err)
	}
	return result, nil
}

func (r *SQLiteRepository) List(ctx context.Context) ([]models.Transaction, error) {
	return r.query(ctx, `SELECT `+columns+` FROM transactions ORDER BY id`)
}

// ListBetween returns transactions dated from <= date < to, newest first.
func (r *SQLiteRepository) ListBetween(ctx context.Context, from, to time.Time) ([]models.Transaction, error) {
	return r.query(ctx,
		`SELECT `+columns+` FROM transactions WHERE date >= ? AND date < ? ORDER BY date DESC, id DESC`,
		timex.ToMillis(from), timex.ToMillis(to))
}

func (r *SQLiteRepository) ListByKind(ctx context.Context, kind models.TransactionKind) ([]models.Transaction, error) {
	return r.query(ctx,
		`SELECT `+columns+` FROM transactions WHERE kind = ? ORDER BY date DESC, id DESC`, string(kind))
}

func (r *SQLiteRepository) Count(ctx context.Context) (int, error) {
	var n int
	if err := r.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM transactions`).Scan(&n); err != nil {
		return 0, dbx.StorageError("count transactions", err)
	}
	return n, nil
}

func (r *SQLiteRepository) Clear(ctx context.Context) error {
	if _, err := r.db.ExecContext(ctx, `DELETE FROM transactions`); err != nil {
		return dbx.StorageError("clear transactions", err)
	}
	return nil
}
