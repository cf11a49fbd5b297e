package app

import (
	"context"
	"fmt"

	"github.com/R3E-Network/storefront/internal/app/storage"
	"github.com/R3E-Network/storefront/internal/app/storage/redisstore"
	"github.com/R3E-Network/storefront/internal/app/storage/sqlite"
	"github.com/R3E-Network/storefront/internal/config"
)

// OpenStore opens the token store selected by cfg.
func OpenStore(ctx context.Context, cfg config.StorageConfig) (storage.Store, error) {
	switch cfg.Backend {
	case config.StoreMemory:
		return storage.NewMemory(), nil
	case config.StoreSQLite:
		store, err := sqlite.Open(ctx, cfg.Path)
		if err != nil {
			return nil, err
		}
		return store, nil
	case config.StoreRedis:
		store, err := redisstore.Open(ctx, cfg.RedisURL, cfg.KeyPrefix)
		if err != nil {
			return nil, err
		}
		return store, nil
	default:
		return nil, fmt.Errorf("unknown store backend %q", cfg.Backend)
	}
}
