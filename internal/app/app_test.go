package app

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"jukebox/internal/backend/backendtest"
	"jukebox/internal/library"
	"jukebox/internal/provider"
)

func TestNew(t *testing.T) {
	store := library.NewMemoryStore()
	reg := provider.NewRegistry()
	fake := backendtest.New()

	a, err := New(store, reg, fake)
	require.NoError(t, err)
	assert.Same(t, store, a.Library)
	assert.Same(t, reg, a.Providers)
	assert.Zero(t, a.Providers.Len(), "an empty registry is accepted")
	assert.Same(t, a.Player.Queue(), a.Queue)
	assert.False(t, a.Started().IsZero())
	assert.GreaterOrEqual(t, a.Uptime().Nanoseconds(), int64(0))

	require.NoError(t, a.Close())
	assert.True(t, fake.Closed())
}

func TestNewRejectsNilCollaborators(t *testing.T) {
	store := library.NewMemoryStore()
	reg := provider.NewRegistry()
	fake := backendtest.New()

	tests := []struct {
		name  string
		store library.Store
		reg   *provider.Registry
		fake  *backendtest.Fake
	}{
		{name: "store", reg: reg, fake: fake},
		{name: "registry", store: store, fake: fake},
		{name: "backend", store: store, reg: reg},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var err error
			if tt.fake == nil {
				_, err = New(tt.store, tt.reg, nil)
			} else {
				_, err = New(tt.store, tt.reg, tt.fake)
			}
			assert.True(t, errors.Is(err, ErrNilCollaborator), "got %v", err)
		})
	}
}
