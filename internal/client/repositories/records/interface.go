// Package records persists models.FileRecord rows with their binary
// payloads.
package records

import (
	"context"
	"time"

	"github.com/dmitrijs2005/lifevault/internal/client/models"
)

type Repository interface {
	Add(ctx context.Context, rec *models.FileRecord) error
	Insert(ctx context.Context, rec *models.FileRecord) error
	BulkInsert(ctx context.Context, items []models.FileRecord) (int, error)
	// Update changes the title only; payloads are immutable.
	Update(ctx context.Context, rec *models.FileRecord) error
	Delete(ctx context.Context, id int64) error
	Get(ctx context.Context, id int64) (*models.FileRecord, error)
	// List returns every record including its payload.
	List(ctx context.Context) ([]models.FileRecord, error)
	// ListSummaries is List without payloads, newest first.
	ListSummaries(ctx context.Context) ([]models.FileRecord, error)
	ListCreatedBetween(ctx context.Context, from, to time.Time) ([]models.FileRecord, error)
	Count(ctx context.Context) (int, error)
	Clear(ctx context.Context) error
}
