// Package tasks persists models.Task rows in the tasks table.
package tasks

import (
	"context"
	"time"

	"github.com/dmitrijs2005/lifevault/internal/client/models"
)

// Repository is the storage contract for tasks. List returns rows in id
// order; Get, Update and Delete report common.ErrNotFound for unknown ids.
type Repository interface {
	// Add stores t under a new id and writes the id back into t.
	Add(ctx context.Context, t *models.Task) error
	// Insert stores t under t.ID when it is non-zero, else under a new id.
	Insert(ctx context.Context, t *models.Task) error
	BulkInsert(ctx context.Context, items []models.Task) (int, error)
	Update(ctx context.Context, t *models.Task) error
	Delete(ctx context.Context, id int64) error
	Get(ctx context.Context, id int64) (*models.Task, error)
	List(ctx context.Context) ([]models.Task, error)
	ListDueBetween(ctx context.Context, from, to time.Time) ([]models.Task, error)
	Count(ctx context.Context) (int, error)
	Clear(ctx context.Context) error
}
