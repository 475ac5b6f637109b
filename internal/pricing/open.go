package pricing

import (
	"context"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"
)

// Options selects and configures a price store backend.
type Options struct {
	Backend       string // "file" (default), "redis", "postgres"
	FilePath      string
	RedisAddr     string
	RedisPassword string
	RedisDB       int
	DBDSN         string
}

// Open builds the configured backend. The file backend is the default: the
// price record is the only cross-run state and a small JSON file covers it.
func Open(ctx context.Context, opts Options) (Store, error) {
	switch strings.ToLower(strings.TrimSpace(opts.Backend)) {
	case "", "file":
		if opts.FilePath == "" {
			return nil, fmt.Errorf("price store: file path not configured")
		}
		return NewFileStore(opts.FilePath), nil

	case "redis":
		if opts.RedisAddr == "" {
			return nil, fmt.Errorf("price store: REDIS_ADDR not configured")
		}
		rdb := redis.NewClient(&redis.Options{
			Addr:     opts.RedisAddr,
			Password: opts.RedisPassword,
			DB:       opts.RedisDB,
		})
		if err := rdb.Ping(ctx).Err(); err != nil {
			return nil, fmt.Errorf("price store: redis ping: %w", err)
		}
		return NewRedisStore(rdb, ""), nil

	case "postgres":
		if opts.DBDSN == "" {
			return nil, fmt.Errorf("price store: DB_DSN not configured")
		}
		db, err := pgxpool.New(ctx, opts.DBDSN)
		if err != nil {
			return nil, fmt.Errorf("price store: db connect: %w", err)
		}
		if err := db.Ping(ctx); err != nil {
			return nil, fmt.Errorf("price store: db ping: %w", err)
		}
		return NewPostgresStore(db), nil

	default:
		return nil, fmt.Errorf("price store: unknown backend %q", opts.Backend)
	}
}
