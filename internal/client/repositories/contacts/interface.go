// Package contacts persists models.Contact rows. Alongside the phone as
// typed, each row keeps its digits-only form for duplicate lookups.
package contacts

import (
	"context"

	"github.com/dmitrijs2005/lifevault/internal/client/models"
)

type Repository interface {
	Add(ctx context.Context, c *models.Contact) error
	Insert(ctx context.Context, c *models.Contact) error
	BulkInsert(ctx context.Context, items []models.Contact) (int, error)
	Update(ctx context.Context, c *models.Contact) error
	Delete(ctx context.Context, id int64) error
	Get(ctx context.Context, id int64) (*models.Contact, error)
	List(ctx context.Context) ([]models.Contact, error)
	// FindByName returns contacts whose name starts with prefix, by name.
	FindByName(ctx context.Context, prefix string) ([]models.Contact, error)
	// FindByPhone matches on digits only, so "0803-000-0000" finds "08030000000".
	FindByPhone(ctx context.Context, phone string) ([]models.Contact, error)
	Count(ctx context.Context) (int, error)
	Clear(ctx context.Context) error
}
