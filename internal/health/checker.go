package health

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"
)

// Deps probes the service's concrete dependencies.
type Deps struct {
	Pool  *pgxpool.Pool
	Redis *redis.Client
}

// PingDB checks Postgres connectivity within the timeout.
func (d Deps) PingDB(ctx context.Context, timeout time.Duration) error {
	if d.Pool == nil {
		return errors.New("database not configured")
	}
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()
	return d.Pool.Ping(ctx)
}

// PingRedis checks Redis connectivity within the timeout.
func (d Deps) PingRedis(ctx context.Context, timeout time.Duration) error {
	if d.Redis == nil {
		return errors.New("redis not configured")
	}
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()
	return d.Redis.Ping(ctx).Err()
}
