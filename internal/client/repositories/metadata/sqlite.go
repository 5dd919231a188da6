package metadata

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/dmitrijs2005/lifevault/internal/dbx"
)

type SQLiteRepository struct {
	db dbx.DBTX
}

func NewSQLiteRepository(db dbx.DBTX) *SQLiteRepository {
	return &SQLiteRepository{db: db}
}

func (r *SQLiteRepository) Get(ctx context.Context, key string) ([]byte, error) {
	var value []byte
	err := r.db.QueryRowContext(ctx, `SELECT value FROM metadata WHERE key = ?`, key).Scan(&value)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, dbx.StorageError(fmt.Sprintf("get metadata[%s]", key), err)
	}
	return value, nil
}

func (r *SQLiteRepository) Set(ctx context.Context, key string, value []byte) error {
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO metadata (key, value) VALUES (?, ?)
		ON CONFLICT(key) DO UPDATE SET value = excluded.value
	`, key, value)
	if err != nil {
		return dbx.StorageError(fmt.Sprintf("set metadata[%s]", key), err)
	}
	return nil
}

func (r *SQLiteRepository) Delete(ctx context.Context, key string) error {
	_, err := r.db.ExecContext(ctx, `DELETE FROM metadata WHERE key = ?`, key)
	if err != nil {
		return dbx.StorageError(fmt.Sprintf("delete metadata[%s]", key), err)
	}
	return nil
}

// prefixBounds turns a prefix into a half-open key range [lo, hi) so the
// primary key index can serve the scan.
func prefixBounds(prefix string) (string, string) {
	return prefix, prefix + "\U0010FFFF"
}

func (r *SQLiteRepository) DeletePrefix(ctx context.Context, prefix string) error {
	lo, hi := prefixBounds(prefix)
	_, err := r.db.ExecContext(ctx, `DELETE FROM metadata WHERE key >= ? AND key < ?`, lo, hi)
	if err != nil {
		return dbx.StorageError(fmt.Sprintf("delete metadata[%s*]", prefix), err)
	}
	return nil
}

func (r *SQLiteRepository) Clear(ctx context.Context) error {
	_, err := r.db.ExecContext(ctx, `DELETE FROM metadata`)
	if err != nil {
		return dbx.StorageError("clear metadata", err)
	}
	return nil
}

func (r *SQLiteRepository) List(ctx context.Context, prefix string) (map[string][]byte, error) {
	lo, hi := prefixBounds(prefix)
	rows, err := r.db.QueryContext(ctx, `SELECT key, value FROM metadata WHERE key >= ? AND key < ?`, lo, hi)
	if err != nil {
		return nil, dbx.StorageError("list metadata", err)
	}
	defer rows.Close()

	result := make(map[string][]byte)
	for rows.Next() {
		var key string
		var value []byte
		if err := rows.Scan(&key, &value); err != nil {
			return nil, dbx.StorageError("scan metadata row", err)
		}
		if strings.HasPrefix(key, prefix) {
			result[key] = value
		}
	}

	if err := rows.Err(); err != nil {
		return nil, dbx.StorageError("iterate metadata rows", err)
	}

	return result, nil
}
