// Package transactions persists models.Transaction rows.
package transactions

import (
	"context"
	"time"

	"github.com/dmitrijs2005/lifevault/internal/client/models"
)

// Repository is the storage contract for money transactions. It mirrors
// the tasks repository, with date and kind indexes.
type Repository interface {
	Add(ctx context.Context, tx *models.Transaction) error
	Insert(ctx context.Context, tx *models.Transaction) error
	BulkInsert(ctx context.Context, items []models.Transaction) (int, error)
	Update(ctx context.Context, tx *models.Transaction) error
	Delete(ctx context.Context, id int64) error
	Get(ctx context.Context, id int64) (*models.Transaction, error)
	List(ctx context.Context) ([]models.Transaction, error)
	ListBetween(ctx context.Context, from, to time.Time) ([]models.Transaction, error)
	ListByKind(ctx context.Context, kind models.TransactionKind) ([]models.Transaction, error)
	Count(ctx context.Context) (int, error)
	Clear(ctx context.Context) error
}
