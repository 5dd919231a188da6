package metadata

import (
	"context"
	"database/sql"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	_ "modernc.org/sqlite"
)

func setupDB(t *testing.T) *sql.DB {
	t.Helper()
	db, err := sql.Open("sqlite", ":memory:")
	require.NoError(t, err)
	db.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = db.Close() })

	_, err = db.Exec(`
CREATE TABLE metadata (
  key   TEXT PRIMARY KEY,
  value BLOB NOT NULL
);`)
	require.NoError(t, err)
	return db
}

func TestSetAndGet(t *testing.T) {
	r := NewSQLiteRepository(setupDB(t))
	ctx := context.Background()

	require.NoError(t, r.Set(ctx, "life-os-pin-hash", []byte("abc123")))

	v, err := r.Get(ctx, "life-os-pin-hash")
	require.NoError(t, err)
	require.Equal(t, []byte("abc123"), v)
}

func TestGet_Absent_ReturnsNilNil(t *testing.T) {
	r := NewSQLiteRepository(setupDB(t))

	v, err := r.Get(context.Background(), "absent")
	require.NoError(t, err)
	require.Nil(t, v)
}

func TestSet_Upserts(t *testing.T) {
	r := NewSQLiteRepository(setupDB(t))
	ctx := context.Background()

	require.NoError(t, r.Set(ctx, "life-os-currency", []byte("NGN")))
	require.NoError(t, r.Set(ctx, "life-os-currency", []byte("USD")))

	v, err := r.Get(ctx, "life-os-currency")
	require.NoError(t, err)
	require.Equal(t, []byte("USD"), v)
}

func TestDelete_IsIdempotent(t *testing.T) {
	r := NewSQLiteRepository(setupDB(t))
	ctx := context.Background()

	require.NoError(t, r.Set(ctx, "x", []byte{0x01}))
	require.NoError(t, r.Delete(ctx, "x"))

	v, err := r.Get(ctx, "x")
	require.NoError(t, err)
	require.Nil(t, v)

	require.NoError(t, r.Delete(ctx, "x"))
}

func TestListAndDeletePrefix(t *testing.T) {
	r := NewSQLiteRepository(setupDB(t))
	ctx := context.Background()

	require.NoError(t, r.Set(ctx, "reminder-1", []byte("2024-01-01T09:00:00Z")))
	require.NoError(t, r.Set(ctx, "reminder-12", []byte("2024-01-02T09:00:00Z")))
	require.NoError(t, r.Set(ctx, "life-os-pin-hash", []byte("h")))
	require.NoError(t, r.Set(ctx, "reminder", []byte("not a reminder key")))

	reminders, err := r.List(ctx, "reminder-")
	require.NoError(t, err)
	assert.Len(t, reminders, 2)
	assert.Equal(t, []byte("2024-01-02T09:00:00Z"), reminders["reminder-12"])

	all, err := r.List(ctx, "")
	require.NoError(t, err)
	assert.Len(t, all, 4)

	require.NoError(t, r.DeletePrefix(ctx, "reminder-"))
	left, err := r.List(ctx, "")
	require.NoError(t, err)
	assert.Len(t, left, 2)
	assert.Contains(t, left, "life-os-pin-hash")
	assert.Contains(t, left, "reminder")
}

func TestClear_RemovesAllKeys(t *testing.T) {
	r := NewSQLiteRepository(setupDB(t))
	ctx := context.Background()

	require.NoError(t, r.Set(ctx, "a", []byte{1}))
	require.NoError(t, r.Set(ctx, "b", []byte{2}))
	require.NoError(t, r.Clear(ctx))

	m, err := r.List(ctx, "")
	require.NoError(t, err)
	assert.Empty(t, m)
}
