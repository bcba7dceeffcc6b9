package config

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/ilyakaznacheev/cleanenv"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/openshelf/bookshare/pkg/bookshare"
	repomemory "github.com/openshelf/bookshare/pkg/bookshare/repo/memory"
	repopg "github.com/openshelf/bookshare/pkg/bookshare/repo/postgres"
	storagememory "github.com/openshelf/bookshare/pkg/bookshare/storage/memory"
	storages3 "github.com/openshelf/bookshare/pkg/bookshare/storage/s3"
)

// Config is the process-wide server configuration, read from the
// environment once at startup.
type Config struct {
	Port        string `env:"PORT" env-default:"3200"`
	Environment string `env:"ENVIRONMENT" env-default:"development"`

	// JWTSecret verifies the bearer credentials issued by the identity
	// provider.
	JWTSecret string `env:"JWT_SECRET"`

	// CORSOrigins is a comma-separated list of allowed origins.
	CORSOrigins string `env:"CORS_ALLOWED_ORIGINS" env-default:"http://localhost:2200,http://localhost:3000"`

	Database DatabaseConfig
	Storage  StorageConfig
}

// DatabaseConfig selects and configures the book/user record store.
type DatabaseConfig struct {
	Driver string `env:"DATABASE_DRIVER" env-default:"memory"` // "memory" or "postgres"
	URL    string `env:"DATABASE_URL"`
}

// StorageConfig selects and configures the blob store.
type StorageConfig struct {
	Backend string `env:"STORAGE_BACKEND" env-default:"memory"` // "memory" or "s3"
	S3      S3Config
}

// S3Config configures the S3/MinIO blob store.
type S3Config struct {
	Endpoint        string `env:"AWS_S3_ENDPOINT"`
	AccessKeyID     string `env:"AWS_ACCESS_KEY_ID"`
	SecretAccessKey string `env:"AWS_SECRET_ACCESS_KEY"`
	Bucket          string `env:"AWS_S3_BUCKET"`
	Region          string `env:"AWS_S3_REGION" env-default:"us-east-1"`
	UsePathStyle    bool   `env:"AWS_S3_USE_PATH_STYLE" env-default:"true"`
	PublicBaseURL   string `env:"AWS_S3_PUBLIC_BASE_URL"`
	CreateBucket    bool   `env:"AWS_S3_CREATE_BUCKET" env-default:"false"`
}

// Load reads configuration from the environment and validates it.
func Load() (*Config, error) {
	var cfg Config
	if err := cleanenv.ReadEnv(&cfg); err != nil {
		return nil, fmt.Errorf("failed to read configuration: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate validates the server configuration
func (c *Config) Validate() error {
	if c.Port == "" {
		return errors.New("port is required")
	}
	if c.JWTSecret == "" {
		return errors.New("JWT_SECRET is required")
	}
	if c.Database.Driver != "memory" && c.Database.Driver != "postgres" {
		return errors.New("DATABASE_DRIVER must be 'memory' or 'postgres'")
	}
	if c.Database.Driver == "postgres" && c.Database.URL == "" {
		return errors.New("DATABASE_URL is required when using postgres")
	}
	if c.Storage.Backend != "memory" && c.Storage.Backend != "s3" {
		return errors.New("STORAGE_BACKEND must be 'memory' or 's3'")
	}
	if c.Storage.Backend == "s3" && c.Storage.S3.Bucket == "" {
		return errors.New("AWS_S3_BUCKET is required when using s3")
	}
	return nil
}

// AllowedOrigins returns the parsed CORS origin list.
func (c *Config) AllowedOrigins() []string {
	var origins []string
	for _, origin := range strings.Split(c.CORSOrigins, ",") {
		if origin = strings.TrimSpace(origin); origin != "" {
			origins = append(origins, origin)
		}
	}
	return origins
}

// BuildRepository creates the record store selected by the
// configuration. The returned closer releases the underlying pool and
// is a no-op for the memory repository.
func (c *Config) BuildRepository(ctx context.Context) (bookshare.Repository, func(), error) {
	switch c.Database.Driver {
	case "postgres":
		pool, err := pgxpool.New(ctx, c.Database.URL)
		if err != nil {
			return nil, nil, fmt.Errorf("failed to create connection pool: %w", err)
		}
		if err := pool.Ping(ctx); err != nil {
			pool.Close()
			return nil, nil, fmt.Errorf("failed to ping database: %w", err)
		}
		return repopg.NewWithPool(pool), pool.Close, nil
	default:
		return repomemory.New(), func() {}, nil
	}
}

// BuildBlobStore creates the blob store selected by the configuration.
func (c *Config) BuildBlobStore() (bookshare.BlobStore, error) {
	switch c.Storage.Backend {
	case "s3":
		return storages3.New(storages3.Config{
			Region:                 c.Storage.S3.Region,
			Bucket:                 c.Storage.S3.Bucket,
			AccessKeyID:            c.Storage.S3.AccessKeyID,
			SecretAccessKey:        c.Storage.S3.SecretAccessKey,
			Endpoint:               c.Storage.S3.Endpoint,
			UsePathStyle:           c.Storage.S3.UsePathStyle,
			PublicBaseURL:          c.Storage.S3.PublicBaseURL,
			CreateBucketIfNotExist: c.Storage.S3.CreateBucket,
		})
	default:
		return storagememory.New(), nil
	}
}

// BuildService wires the repository and blob store into a service
// instance. The returned closer tears down the repository.
func (c *Config) BuildService(ctx context.Context, logger *slog.Logger) (bookshare.Service, func(), error) {
	repo, closeRepo, err := c.BuildRepository(ctx)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to build repository: %w", err)
	}

	store, err := c.BuildBlobStore()
	if err != nil {
		closeRepo()
		return nil, nil, fmt.Errorf("failed to build blob store: %w", err)
	}

	svc, err := bookshare.New(
		bookshare.WithRepository(repo),
		bookshare.WithBlobStore(store),
		bookshare.WithLogger(logger),
	)
	if err != nil {
		closeRepo()
		return nil, nil, err
	}

	return svc, closeRepo, nil
}
