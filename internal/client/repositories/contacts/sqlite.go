package contacts

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/dmitrijs2005/lifevault/internal/client/models"
	"github.com/dmitrijs2005/lifevault/internal/client/validation"
	"github.com/dmitrijs2005/lifevault/internal/common"
	"github.com/dmitrijs2005/lifevault/internal/dbx"
	"github.com/dmitrijs2005/lifevault/internal/timex"
)

const columns = `id, name, phone, role, notes, created_at`

type SQLiteRepository struct {
	db dbx.DBTX
}

func NewSQLiteRepository(db dbx.DBTX) *SQLiteRepository {
	return &SQLiteRepository{db: db}
}

func (r *SQLiteRepository) Add(ctx context.Context, c *models.Contact) error {
	c.ID = 0
	return r.Insert(ctx, c)
}

func (r *SQLiteRepository) Insert(ctx context.Context, c *models.Contact) error {
	var id any
	if c.ID != 0 {
		id = c.ID
	}
	res, err := r.db.ExecContext(ctx,
		`INSERT INTO contacts (`+columns+`, phone_digits) VALUES (?, ?, ?, ?, ?, ?, ?)`,
		id, c.Name, c.Phone, c.Role, c.Notes, timex.ToMillis(c.CreatedAt), validation.NormalizePhone(c.Phone))
	if err != nil {
		return dbx.StorageError("insert contact", err)
	}
	newID, err := res.LastInsertId()
	if err != nil {
		return dbx.StorageError("insert contact", err)
	}
	c.ID = newID
	return nil
}

func (r *SQLiteRepository) BulkInsert(ctx context.Context, items []models.Contact) (int, error) {
	for i := range items {
		if err := r.Insert(ctx, &items[i]); err != nil {
			return i, err
		}
	}
	return len(items), nil
}

func (r *SQLiteRepository) Update(ctx context.Context, c *models.Contact) error {
	res, err := r.db.ExecContext(ctx,
		`UPDATE contacts SET name = ?, phone = ?, phone_digits = ?, role = ?, notes = ? WHERE id = ?`,
		c.Name, c.Phone, validation.NormalizePhone(c.Phone), c.Role, c.Notes, c.ID)
	if err != nil {
		return dbx.StorageError("update contact", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return dbx.StorageError("update contact", err)
	}
	if n == 0 {
		return fmt.Errorf("contact %d: %w", c.ID, common.ErrNotFound)
	}
	return nil
}

func (r *SQLiteRepository) Delete(ctx context.Context, id int64) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM contacts WHERE id = ?`, id)
	if err != nil {
		return dbx.StorageError("delete contact", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return dbx.StorageError("delete contact", err)
	}
	if n == 0 {
		return fmt.Errorf("contact %d: %w", id, common.ErrNotFound)
	}
	return nil
}

func scan(s interface{ Scan(dest ...any) error }) (models.Contact, error) {
	var (
		c         models.Contact
		createdAt int64
	)
	if err := s.Scan(&c.ID, &c.Name, &c.Phone, &c.Role, &c.Notes, &createdAt); err != nil {
		return c, err
	}
	c.CreatedAt = timex.FromMillis(createdAt)
	return c, nil
}

func (r *SQLiteRepository) Get(ctx context.Context, id int64) (*models.Contact, error) {
	c, err := scan(r.db.QueryRowContext(ctx, `SELECT `+columns+` FROM contacts WHERE id = ?`, id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("contact %d: %w", id, common.ErrNotFound)
	}
	if err != nil {
		return nil, dbx.StorageError("get contact", err)
	}
	return &c, nil
}

func (r *SQLiteRepository) query(ctx context.Context, query string, args ...any) ([]models.Contact, error) {
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, dbx.StorageError("select contacts", err)
	}
	defer rows.Close()

	result := make([]models.Contact, 0)
	for rows.Next() {
		c, err := scan(rows)
		if err != nil {
			return nil, dbx.StorageError("scan contact", err)
		}
		result = append(result, c)
	}
	if err := rows.Err(); err != nil {
		return nil, dbx.StorageError("iterate contacts", err)
	}
	return result, nil
}

func (r *SQLiteRepository) List(ctx context.Context) ([]models.Contact, error) {
	return r.query(ctx, `SELECT `+columns+` FROM contacts ORDER BY id`)
}

var likeEscaper = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)

func (r *SQLiteRepository) FindByName(ctx context.Context, prefix string) ([]models.Contact, error) {
	return r.query(ctx,
		`SELECT `+columns+` FROM contacts WHERE name LIKE ? ESCAPE '\' ORDER BY name, id`,
		likeEscaper.Replace(prefix)+"%")
}

func (r *SQLiteRepository) FindByPhone(ctx context.Context, phone string) ([]models.Contact, error) {
	digits := validation.NormalizePhone(phone)
	if digits == "" {
		return []models.Contact{}, nil
	}
	return r.query(ctx, `SELECT `+columns+` FROM contacts WHERE phone_digits = ? ORDER BY id`, digits)
}

func (r *SQLiteRepository) Count(ctx context.Context) (int, error) {
	var n int
	if err := r.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM contacts`).Scan(&n); err != nil {
		return 0, dbx.StorageError("count contacts", err)
	}
	return n, nil
}

func (r *SQLiteRepository) Clear(ctx context.Context) error {
	if _, err := r.db.ExecContext(ctx, `DELETE FROM contacts`); err != nil {
		return dbx.StorageError("clear contacts", err)
	}
	return nil
}
