package main

import (
	"context"
	"log/slog"
	"strings"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/valkey-io/valkey-go"

	"github.com/openbites/bitefinder/internal/domain/places"
	"github.com/openbites/bitefinder/internal/domain/recommend"
	"github.com/openbites/bitefinder/internal/domain/venue"
	"github.com/openbites/bitefinder/internal/infra/config"
	"github.com/openbites/bitefinder/internal/infra/placecache"
	"github.com/openbites/bitefinder/internal/infra/placesapi/google"
	"github.com/openbites/bitefinder/internal/infra/venuerepo"
)

// venueStorage bundles the three persistence contracts every backing store
// implements together.
type venueStorage interface {
	venue.Repository
	venue.DishRepository
	venue.DismissalRepository
}

func provideRecommendConfig(cfg *config.Config) recommend.Config {
	return recommend.Config{
		Region:          cfg.ServiceArea.Region(),
		BatchSize:       cfg.Search.BatchSize,
		QueueOversample: cfg.Search.QueueOversample,
		PreviewCount:    cfg.Search.PreviewCount,
	}
}

func providePlacesConfig(cfg *config.Config) places.Config {
	return places.Config{
		Hours:   places.TTLs{Persistent: cfg.Cache.Hours.Persistent, Local: cfg.Cache.Hours.Local},
		Details: places.TTLs{Persistent: cfg.Cache.Details.Persistent, Local: cfg.Cache.Details.Local},
		Photo:   places.TTLs{Persistent: cfg.Cache.Photo.Persistent, Local: cfg.Cache.Photo.Local},
	}
}

func provideRegistryClient(cfg *config.Config) (*google.Client, error) {
	return google.NewClient(cfg.Registry.APIKey, cfg.Registry.BaseURL)
}

func provideLocalStore() places.LocalStore {
	return placecache.NewMemoryStore()
}

func providePersistentStore(cfg *config.Config, logger *slog.Logger) places.PersistentStore {
	if cfg.Valkey.Enabled {
		opt, err := buildValkeyOptions(cfg)
		if err != nil {
			logger.Error("invalid valkey configuration, falling back to memory store", "error", err)
			return placecache.NewMemoryPersistentStore()
		}
		client, err := valkey.NewClient(opt)
		if err != nil {
			logger.Error("failed to create valkey client, falling back to memory store", "error", err)
			return placecache.NewMemoryPersistentStore()
		}
		ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()
		if err := client.Do(ctx, client.B().Ping().Build()).Error(); err != nil {
			logger.Error("valkey ping failed, falling back to memory store", "error", err)
		} else {
			logger.Info("valkey place cache enabled", "addr", cfg.Valkey.Addr)
			return placecache.NewValkeyStore(client, "placecache")
		}
	}
	return placecache.NewMemoryPersistentStore()
}

func buildValkeyOptions(cfg *config.Config) (valkey.ClientOption, error) {
	var (
		opt valkey.ClientOption
		err error
	)
	if strings.Contains(cfg.Valkey.Addr, "://") {
		opt, err = valkey.ParseURL(cfg.Valkey.Addr)
	} else {
		opt = valkey.ClientOption{InitAddress: []string{cfg.Valkey.Addr}}
	}
	if err != nil {
		return valkey.ClientOption{}, err
	}
	return opt, nil
}

func provideVenueStorage(cfg *config.Config, logger *slog.Logger) venueStorage {
	fallback := venuerepo.NewMemoryRepository()
	dsn := strings.TrimSpace(cfg.Postgres.DSN)
	if dsn == "" {
		logger.Info("postgres dsn not set, using memory venue store")
		return fallback
	}
	poolConfig, err := pgxpool.ParseConfig(dsn)
	if err != nil {
		logger.Error("invalid postgres dsn, using memory venue store", "error", err)
		return fallback
	}
	if cfg.Postgres.MaxConns > 0 {
		poolConfig.MaxConns = cfg.Postgres.MaxConns
	}
	if cfg.Postgres.MinConns > 0 {
		poolConfig.MinConns = cfg.Postgres.MinConns
	}
	pool, err := pgxpool.NewWithConfig(context.Background(), poolConfig)
	if err != nil {
		logger.Error("failed to initialize postgres pool, using memory venue store", "error", err)
		return fallback
	}
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := pool.Ping(ctx); err != nil {
		logger.Error("postgres ping failed, using memory venue store", "error", err)
		pool.Close()
		return fallback
	}
	logger.Info("postgres venue store enabled")
	return venuerepo.NewPostgresRepository(pool)
}

func provideVenueRepository(s venueStorage) venue.Repository {
	return s
}

func provideDishRepository(s venueStorage) venue.DishRepository {
	return s
}

func provideDismissalRepository(s venueStorage) venue.DismissalRepository {
	return s
}
