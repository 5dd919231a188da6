package services

import (
	"context"
	"fmt"

	"github.com/dmitrijs2005/lifevault/internal/client/models"
	"github.com/dmitrijs2005/lifevault/internal/client/storage"
	"github.com/dmitrijs2005/lifevault/internal/client/validation"
	"github.com/dmitrijs2005/lifevault/internal/common"
)

// SettingsService reads and writes user preferences kept in the metadata
// table.
type SettingsService struct {
	store *storage.Store
}

func NewSettingsService(store *storage.Store) *SettingsService {
	return &SettingsService{store: store}
}

// Currency returns the chosen currency, or the default when none is
// stored or the stored code is unknown.
func (s *SettingsService) Currency(ctx context.Context) (models.Currency, error) {
	v, err := s.store.Metadata.Get(ctx, common.CurrencyKey)
	if err != nil {
		return models.DefaultCurrency, fmt.Errorf("read currency: %w", err)
	}
	if c, ok := models.LookupCurrency(string(v)); ok {
		return c, nil
	}
	return models.DefaultCurrency, nil
}

func (s *SettingsService) SetCurrency(ctx context.Context, code string) (models.Currency, error) {
	c, err := validation.ValidateCurrency(code)
	if err != nil {
		return models.Currency{}, err
	}
	if err := s.store.Metadata.Set(ctx, common.CurrencyKey, []byte(c.Code)); err != nil {
		return models.Currency{}, fmt.Errorf("save currency: %w", err)
	}
	return c, nil
}
