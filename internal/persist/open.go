package persist

import (
	"context"
	"fmt"
	"log/slog"
)

// Options selects and configures a backend
type Options struct {
	Backend  string
	Dir      string
	Redis    RedisConfig
	Postgres PostgresConfig
}

// Open creates the backend named by opts.Backend
func Open(ctx context.Context, opts Options) (Persister, error) {
	var (
		p   Persister
		err error
	)

	switch opts.Backend {
	case "", "file":
		p, err = NewFileStore(opts.Dir)
	case "memory":
		p = NewMemoryStore()
	case "redis":
		p, err = NewRedisStore(ctx, opts.Redis)
	case "postgres":
		p, err = NewPostgresStore(ctx, opts.Postgres)
	default:
		return nil, fmt.Errorf("unknown persist backend: %q", opts.Backend)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to open %s backend: %w", opts.Backend, err)
	}

	slog.Debug("persist backend opened", "backend", opts.Backend)
	return p, nil
}
