package handlers

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"configurator-backend/internal/domain"
)

func TestSessionRegistry_Sweep(t *testing.T) {
	products, err := domain.DefaultProducts()
	require.NoError(t, err)
	c, _ := products.Get("gardenroom")

	now := time.Date(2026, 5, 1, 12, 0, 0, 0, time.UTC)
	reg := NewSessionRegistry(30*time.Minute, time.Hour)
	reg.now = func() time.Time { return now }

	idle := reg.Create(c)
	busy := reg.Create(c)
	idle.postcode.Trigger(func() { t.Error("debounced lookup of a swept session ran") })

	now = now.Add(20 * time.Minute)
	_, ok := reg.Get(busy.id)
	require.True(t, ok)

	now = now.Add(15 * time.Minute)
	assert.Equal(t, 1, reg.Sweep())
	assert.Equal(t, 1, reg.Len())
	assert.False(t, idle.postcode.Pending())

	_, ok = reg.Get(idle.id)
	assert.False(t, ok)
	_, ok = reg.Get(busy.id)
	assert.True(t, ok)
}

func TestSessionRegistry_DefaultTTL(t *testing.T) {
	reg := NewSessionRegistry(0, 0)
	assert.Equal(t, 2*time.Hour, reg.ttl)
}
