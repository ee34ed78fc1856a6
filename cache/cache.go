// Package cache
package cache

import (
	"context"
	"errors"
	"time"

	"github.com/go-redis/redis/v8"
	"go.uber.org/zap"

	"github.com/bountyboard/bounty-backend/types"
)

type Adapter string

const (
	RedisAdapter Adapter = "redis"
)

const DefaultExpiredTime = 30 * time.Second

var ErrCacheMiss = errors.New("cache miss")

type Config struct {
	Adapter  Adapter
	URL      string
	DB       int
	Password string

	IsFlush bool

	DefaultExpiredTime time.Duration

	Logger *zap.Logger
}

type Client interface {
	Bounties(ctx context.Context) ([]*types.Bounty, error)
	UpdateBounties(ctx context.Context, bounties []*types.Bounty) error
	BountyDetails(ctx context.Context, id uint64) (*types.Bounty, error)
	UpdateBountyDetails(ctx context.Context, bounty *types.Bounty) error
	Invalidate(ctx context.Context) error

	ServerStatus(ctx context.Context) (*types.ServerStatus, error)
	UpdateServerStatus(ctx context.Context, serverStatus *types.ServerStatus) error

	Close() error
}

func New(cfg Config) (Client, error) {
	switch cfg.Adapter {
	case RedisAdapter:
		return newRedis(cfg)
	}
	return nil, errors.New("invalid cache config")
}

func newRedis(cfg Config) (*Redis, error) {
	redisClient := redis.NewClient(&redis.Options{
		Addr:     cfg.URL,
		DB:       cfg.DB,
		Password: cfg.Password,
	})

	if _, err := redisClient.Ping(context.Background()).Result(); err != nil {
		return nil, err
	}
	if cfg.IsFlush {
		msg, err := redisClient.FlushDB(context.Background()).Result()
		if err != nil || msg != "OK" {
			return nil, err
		}
	}
	if cfg.DefaultExpiredTime <= 0 {
		cfg.DefaultExpiredTime = DefaultExpiredTime
	}
	if cfg.Logger == nil {
		cfg.Logger = zap.NewNop()
	}

	logger := cfg.Logger.With(zap.String("cache", "redis"))
	client := &Redis{
		client: redisClient,
		logger: logger,
	}
	client.cfg = cfg
	return client, nil
}
