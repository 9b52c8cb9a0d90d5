package configurator

import (
	"testing"

	"github.com/stretchr/testify/require"

	"configurator-backend/internal/domain"
)

// loadCatalog возвращает свежую копию встроенного каталога.
func loadCatalog(t *testing.T, product string) *domain.Catalog {
	t.Helper()
	products, err := domain.DefaultProducts()
	require.NoError(t, err)
	c, ok := products.Get(product)
	require.True(t, ok, "product %s not embedded", product)
	return c
}

func newGardenRoom(t *testing.T) *Session {
	t.Helper()
	return NewSession(loadCatalog(t, "gardenroom"))
}
