package services

import (
	"context"
	"testing"

	"github.com/dmitrijs2005/lifevault/internal/common"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSettings_Currency(t *testing.T) {
	ctx := context.Background()
	store := openStore(t)
	s := NewSettingsService(store)

	c, err := s.Currency(ctx)
	require.NoError(t, err)
	assert.Equal(t, "NGN", c.Code)

	c, err = s.SetCurrency(ctx, "gbp")
	require.NoError(t, err)
	assert.Equal(t, "£", c.Symbol)

	c, err = s.Currency(ctx)
	require.NoError(t, err)
	assert.Equal(t, "GBP", c.Code)

	_, err = s.SetCurrency(ctx, "DOGE")
	require.ErrorIs(t, err, common.ErrValidation)

	// An unknown stored code falls back to the default.
	require.NoError(t, store.Metadata.Set(ctx, common.CurrencyKey, []byte("???")))
	c, err = s.Currency(ctx)
	require.NoError(t, err)
	assert.Equal(t, "NGN", c.Code)
}
