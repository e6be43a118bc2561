package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"

	"github.com/openbites/bitefinder/internal/domain/geo"
)

// Config aggregates runtime configuration used across the service.
type Config struct {
	HTTP        HTTPConfig        `yaml:"http"`
	ServiceArea ServiceAreaConfig `yaml:"serviceArea"`
	Search      SearchConfig      `yaml:"search"`
	Cache       CacheConfig       `yaml:"cache"`
	Registry    RegistryConfig    `yaml:"registry"`
	Valkey      ValkeyConfig      `yaml:"valkey"`
	Postgres    PostgresConfig    `yaml:"postgres"`
}

// HTTPConfig controls server level behavior.
type HTTPConfig struct {
	Address      string        `yaml:"address" validate:"required"`
	ReadTimeout  time.Duration `yaml:"readTimeout" validate:"gt=0"`
	WriteTimeout time.Duration `yaml:"writeTimeout" validate:"gt=0"`
}

// ServiceAreaConfig bounds the region where recommendations are served.
type ServiceAreaConfig struct {
	North float64 `yaml:"north" validate:"gte=-90,lte=90"`
	South float64 `yaml:"south" validate:"gte=-90,lte=90,ltefield=North"`
	East  float64 `yaml:"east" validate:"gte=-180,lte=180"`
	West  float64 `yaml:"west" validate:"gte=-180,lte=180"`
}

// Region converts the section into the domain type.
func (s ServiceAreaConfig) Region() geo.Region {
	return geo.Region{North: s.North, South: s.South, East: s.East, West: s.West}
}

// SearchConfig tunes the recommendation selector.
type SearchConfig struct {
	BatchSize       int `yaml:"batchSize" validate:"gt=0"`
	QueueOversample int `yaml:"queueOversample" validate:"gt=0"`
	PreviewCount    int `yaml:"previewCount" validate:"gt=0"`
}

// CacheConfig carries per-kind TTLs for the place cache tiers.
type CacheConfig struct {
	Hours   TTLConfig `yaml:"hours"`
	Details TTLConfig `yaml:"details"`
	Photo   TTLConfig `yaml:"photo"`
}

// TTLConfig pairs the persistent-tier and local-tier lifetimes for one kind.
type TTLConfig struct {
	Persistent time.Duration `yaml:"persistent" validate:"gt=0"`
	Local      time.Duration `yaml:"local" validate:"gt=0"`
}

// RegistryConfig contains Places web service settings.
type RegistryConfig struct {
	APIKey  string `yaml:"apiKey"`
	BaseURL string `yaml:"baseUrl"`
}

// ValkeyConfig contains connection information for the persistent cache tier.
type ValkeyConfig struct {
	Enabled bool   `yaml:"enabled"`
	Addr    string `yaml:"addr" validate:"required_if=Enabled true"`
}

// PostgresConfig contains DSN and pooling settings.
type PostgresConfig struct {
	DSN      string `yaml:"dsn"`
	MaxConns int32  `yaml:"maxConns" validate:"gte=0"`
	MinConns int32  `yaml:"minConns" validate:"gte=0"`
}

// Load reads configuration from an optional .env file, a YAML file, and
// environment variables, in increasing priority.
func Load() (*Config, error) {
	_ = godotenv.Load()

	cfg := defaultConfig()

	if path := os.Getenv("CONFIG_PATH"); path != "" {
		if err := hydrateFromFile(cfg, path); err != nil {
			return nil, err
		}
	} else if _, err := os.Stat("configs/config.yaml"); err == nil {
		if err := hydrateFromFile(cfg, "configs/config.yaml"); err != nil {
			return nil, err
		}
	}

	applyEnvOverrides(cfg)

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	return cfg, nil
}

func hydrateFromFile(cfg *Config, path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read config file: %w", err)
	}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return fmt.Errorf("parse config file: %w", err)
	}
	return nil
}

func applyEnvOverrides(cfg *Config) {
	if v := os.Getenv("HTTP_ADDRESS"); v != "" {
		cfg.HTTP.Address = v
	}
	if v := os.Getenv("SERVICE_AREA_NORTH"); v != "" {
		if parsed, err := strconv.ParseFloat(v, 64); err == nil {
			cfg.ServiceArea.North = parsed
		}
	}
	if v := os.Getenv("SERVICE_AREA_SOUTH"); v != "" {
		if parsed, err := strconv.ParseFloat(v, 64); err == nil {
			cfg.ServiceArea.South = parsed
		}
	}
	if v := os.Getenv("SERVICE_AREA_EAST"); v != "" {
		if parsed, err := strconv.ParseFloat(v, 64); err == nil {
			cfg.ServiceArea.East = parsed
		}
	}
	if v := os.Getenv("SERVICE_AREA_WEST"); v != "" {
		if parsed, err := strconv.ParseFloat(v, 64); err == nil {
			cfg.ServiceArea.West = parsed
		}
	}
	if v := os.Getenv("SEARCH_BATCH_SIZE"); v != "" {
		if parsed, err := strconv.Atoi(v); err == nil {
			cfg.Search.BatchSize = parsed
		}
	}
	if v := os.Getenv("SEARCH_QUEUE_OVERSAMPLE"); v != "" {
		if parsed, err := strconv.Atoi(v); err == nil {
			cfg.Search.QueueOversample = parsed
		}
	}
	if v := os.Getenv("SEARCH_PREVIEW_COUNT"); v != "" {
		if parsed, err := strconv.Atoi(v); err == nil {
			cfg.Search.PreviewCount = parsed
		}
	}
	overrideTTL("CACHE_HOURS", &cfg.Cache.Hours)
	overrideTTL("CACHE_DETAILS", &cfg.Cache.Details)
	overrideTTL("CACHE_PHOTO", &cfg.Cache.Photo)
	if v := os.Getenv("REGISTRY_API_KEY"); v != "" {
		cfg.Registry.APIKey = v
	}
	if v := os.Getenv("REGISTRY_BASE_URL"); v != "" {
		cfg.Registry.BaseURL = v
	}
	if v := os.Getenv("VALKEY_ENABLED"); v != "" {
		cfg.Valkey.Enabled = v == "1" || strings.EqualFold(v, "true")
	}
	if v := os.Getenv("VALKEY_ADDR"); v != "" {
		cfg.Valkey.Addr = v
	}
	if v := os.Getenv("POSTGRES_DSN"); v != "" {
		cfg.Postgres.DSN = v
	}
	if v := os.Getenv("POSTGRES_MAX_CONNS"); v != "" {
		if parsed, err := strconv.Atoi(v); err == nil {
			cfg.Postgres.MaxConns = int32(parsed)
		}
	}
	if v := os.Getenv("POSTGRES_MIN_CONNS"); v != "" {
		if parsed, err := strconv.Atoi(v); err == nil {
			cfg.Postgres.MinConns = int32(parsed)
		}
	}
}

func overrideTTL(prefix string, ttl *TTLConfig) {
	if v := os.Getenv(prefix + "_PERSISTENT_TTL"); v != "" {
		if parsed, err := time.ParseDuration(v); err == nil {
			ttl.Persistent = parsed
		}
	}
	if v := os.Getenv(prefix + "_LOCAL_TTL"); v != "" {
		if parsed, err := time.ParseDuration(v); err == nil {
			ttl.Local = parsed
		}
	}
}

func defaultConfig() *Config {
	return &Config{
		HTTP: HTTPConfig{
			Address:      ":8080",
			ReadTimeout:  5 * time.Second,
			WriteTimeout: 10 * time.Second,
		},
		// San Francisco Bay Area by default.
		ServiceArea: ServiceAreaConfig{
			North: 38.15,
			South: 37.15,
			East:  -121.60,
			West:  -122.75,
		},
		Search: SearchConfig{
			BatchSize:       10,
			QueueOversample: 2,
			PreviewCount:    6,
		},
		Cache: CacheConfig{
			Hours:   TTLConfig{Persistent: 24 * time.Hour, Local: 10 * time.Minute},
			Details: TTLConfig{Persistent: 7 * 24 * time.Hour, Local: 30 * time.Minute},
			Photo:   TTLConfig{Persistent: 7 * 24 * time.Hour, Local: time.Hour},
		},
		Registry: RegistryConfig{
			BaseURL: "https://maps.googleapis.com/maps/api/place",
		},
		Valkey: ValkeyConfig{
			Enabled: false,
			Addr:    "",
		},
		Postgres: PostgresConfig{
			DSN:      "",
			MaxConns: 4,
			MinConns: 0,
		},
	}
}

var validate = validator.New()

// Validate ensures the configuration is safe to use.
func (c *Config) Validate() error {
	if err := validate.Struct(c); err != nil {
		return err
	}
	if c.ServiceArea.West >= c.ServiceArea.East {
		return fmt.Errorf("serviceArea.west must be less than serviceArea.east")
	}
	return nil
}
