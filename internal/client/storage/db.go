package storage

import (
	"context"
	"database/sql"
	"fmt"
	"sync"

	"github.com/dmitrijs2005/lifevault/internal/client/migrations"
	"github.com/dmitrijs2005/lifevault/internal/client/models"
	"github.com/dmitrijs2005/lifevault/internal/client/repositories/contacts"
	"github.com/dmitrijs2005/lifevault/internal/client/repositories/metadata"
	"github.com/dmitrijs2005/lifevault/internal/client/repositories/records"
	"github.com/dmitrijs2005/lifevault/internal/client/repositories/tasks"
	"github.com/dmitrijs2005/lifevault/internal/client/repositories/transactions"
	"github.com/dmitrijs2005/lifevault/internal/dbx"
	"github.com/dmitrijs2005/lifevault/internal/logging"
	"github.com/pressly/goose/v3"

	_ "modernc.org/sqlite"
)

// goose keeps its base FS and dialect in package globals.
var gooseMu sync.Mutex

type gooseLogger struct {
	log logging.Logger
}

func (g gooseLogger) Printf(format string, v ...any) {
	g.log.Debug(context.Background(), fmt.Sprintf(format, v...))
}

func (g gooseLogger) Fatalf(format string, v ...any) {
	panic(fmt.Sprintf(format, v...))
}

// RunMigrations brings the schema up to the newest embedded version.
// Running it on an up-to-date database is a no-op.
func RunMigrations(ctx context.Context, db *sql.DB, log logging.Logger) error {
	gooseMu.Lock()
	defer gooseMu.Unlock()

	goose.SetBaseFS(migrations.Migrations)
	goose.SetLogger(gooseLogger{log: log})

	if err := goose.SetDialect("sqlite3"); err != nil {
		return fmt.Errorf("failed to set goose dialect: %w", err)
	}

	if err := goose.UpContext(ctx, db, "."); err != nil {
		return dbx.StorageError("migrate", err)
	}
	return nil
}

// Store bundles the repositories of the four collections and the metadata
// key-value table.
type Store struct {
	db *sql.DB

	Metadata     metadata.Repository
	Tasks        tasks.Repository
	Transactions transactions.Repository
	Contacts     contacts.Repository
	Records      records.Repository
}

func newStore(db *sql.DB, h dbx.DBTX) *Store {
	return &Store{
		db:           db,
		Metadata:     metadata.NewSQLiteRepository(h),
		Tasks:        tasks.NewSQLiteRepository(h),
		Transactions: transactions.NewSQLiteRepository(h),
		Contacts:     contacts.NewSQLiteRepository(h),
		Records:      records.NewSQLiteRepository(h),
	}
}

// Open opens (creating if needed) the database at path and migrates it.
func Open(ctx context.Context, path string, log logging.Logger) (*Store, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, dbx.StorageError("open database", err)
	}

	// One connection serializes writers and keeps :memory: databases whole.
	db.SetMaxOpenConns(1)

	if _, err := db.ExecContext(ctx, `PRAGMA foreign_keys = ON`); err != nil {
		_ = db.Close()
		return nil, dbx.StorageError("enable foreign keys", err)
	}

	if err := RunMigrations(ctx, db, log); err != nil {
		_ = db.Close()
		return nil, err
	}

	return newStore(db, db), nil
}

func (s *Store) DB() *sql.DB {
	return s.db
}

func (s *Store) Close() error {
	return s.db.Close()
}

// WithTx runs fn with a Store whose repositories share one transaction.
func (s *Store) WithTx(ctx context.Context, fn func(ctx context.Context, tx *Store) error) error {
	return dbx.WithTx(ctx, s.db, nil, func(ctx context.Context, tx dbx.DBTX) error {
		return fn(ctx, newStore(s.db, tx))
	})
}

// SchemaVersion reports the applied migration version.
func (s *Store) SchemaVersion(ctx context.Context) (int64, error) {
	gooseMu.Lock()
	defer gooseMu.Unlock()

	if err := goose.SetDialect("sqlite3"); err != nil {
		return 0, err
	}
	v, err := goose.GetDBVersionContext(ctx, s.db)
	if err != nil {
		return 0, dbx.StorageError("schema version", err)
	}
	return v, nil
}

// Counts returns the number of records in each collection.
func (s *Store) Counts(ctx context.Context) (models.Counts, error) {
	var (
		c   models.Counts
		err error
	)
	if c.Tasks, err = s.Tasks.Count(ctx); err != nil {
		return c, err
	}
	if c.Transactions, err = s.Transactions.Count(ctx); err != nil {
		return c, err
	}
	if c.Contacts, err = s.Contacts.Count(ctx); err != nil {
		return c, err
	}
	if c.Records, err = s.Records.Count(ctx); err != nil {
		return c, err
	}
	return c, nil
}

// ClearCollections empties the four collections in one transaction. The
// metadata table is left alone.
func (s *Store) ClearCollections(ctx context.Context) error {
	return s.WithTx(ctx, func(ctx context.Context, tx *Store) error {
		return tx.clearCollections(ctx)
	})
}

func (s *Store) clearCollections(ctx context.Context) error {
	for _, clear := range []func(context.Context) error{
		s.Tasks.Clear,
		s.Transactions.Clear,
		s.Contacts.Clear,
		s.Records.Clear,
	} {
		if err := clear(ctx); err != nil {
			return err
		}
	}
	return nil
}

// ClearAll empties the collections and the metadata keys with the given
// prefixes or exact names, in one transaction.
func (s *Store) ClearAll(ctx context.Context, metadataKeys []string, metadataPrefixes []string) error {
	return s.WithTx(ctx, func(ctx context.Context, tx *Store) error {
		if err := tx.clearCollections(ctx); err != nil {
			return err
		}
		for _, k := range metadataKeys {
			if err := tx.Metadata.Delete(ctx, k); err != nil {
				return err
			}
		}
		for _, p := range metadataPrefixes {
			if err := tx.Metadata.DeletePrefix(ctx, p); err != nil {
				return err
			}
		}
		return nil
	})
}
