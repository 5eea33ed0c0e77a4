package main

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/khoahotran/devconnector/internal/config"
	"github.com/khoahotran/devconnector/pkg/logger"
)

func TestNewProfileRepo(t *testing.T) {
	tests := []struct {
		name   string
		driver string
	}{
		{name: "memory store is refused", driver: config.StoreDriverMemory},
		{name: "unknown driver is refused", driver: "sqlite"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var cfg config.Config
			cfg.Store.Driver = tt.driver

			repo, closeStore, err := newProfileRepo(context.Background(), cfg, logger.NewNopLogger(), nil)
			require.Error(t, err)
			assert.Nil(t, repo)
			assert.Nil(t, closeStore)
		})
	}

	t.Run("postgres store", func(t *testing.T) {
		var cfg config.Config
		cfg.Store.Driver = config.StoreDriverPostgres

		repo, closeStore, err := newProfileRepo(context.Background(), cfg, logger.NewNopLogger(), nil)
		require.NoError(t, err)
		assert.NotNil(t, repo)
		closeStore()
	})
}
