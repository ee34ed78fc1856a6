// Package cache
package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/go-redis/redis/v8"
	"go.uber.org/zap"

	"github.com/bountyboard/bounty-backend/types"
)

const (
	KeyBounties      = "#bounties"
	KeyBountyDetails = "#bounty#%d"
	KeyBountyPattern = "#bounty#*"

	KeyServerStatus = "#server#status"
)

type Redis struct {
	cfg    Config
	client *redis.Client

	logger *zap.Logger
}

func (c *Redis) Bounties(ctx context.Context) ([]*types.Bounty, error) {
	var bounties []*types.Bounty
	if err := c.get(ctx, KeyBounties, &bounties); err != nil {
		return nil, err
	}
	return bounties, nil
}

func (c *Redis) UpdateBounties(ctx context.Context, bounties []*types.Bounty) error {
	return c.set(ctx, KeyBounties, bounties)
}

func (c *Redis) BountyDetails(ctx context.Context, id uint64) (*types.Bounty, error) {
	var bounty *types.Bounty
	if err := c.get(ctx, fmt.Sprintf(KeyBountyDetails, id), &bounty); err != nil {
		return nil, err
	}
	if bounty == nil {
		return nil, ErrCacheMiss
	}
	return bounty, nil
}

func (c *Redis) UpdateBountyDetails(ctx context.Context, bounty *types.Bounty) error {
	return c.set(ctx, fmt.Sprintf(KeyBountyDetails, bounty.ID), bounty)
}

// Invalidate removes the bounty list and every cached bounty detail.
func (c *Redis) Invalidate(ctx context.Context) error {
	lgr := c.logger.With(zap.String("method", "Invalidate"))
	keys := []string{KeyBounties}
	iter := c.client.Scan(ctx, 0, KeyBountyPattern, 100).Iterator()
	for iter.Next(ctx) {
		keys = append(keys, iter.Val())
	}
	if err := iter.Err(); err != nil {
		lgr.Warn("Cannot scan bounty keys", zap.Error(err))
		return err
	}
	if err := c.client.Del(ctx, keys...).Err(); err != nil {
		return err
	}
	lgr.Debug("Cache invalidated", zap.Int("keys", len(keys)))
	return nil
}

func (c *Redis) UpdateServerStatus(ctx context.Context, serverStatus *types.ServerStatus) error {
	data, err := json.Marshal(serverStatus)
	if err != nil {
		return err
	}
	return c.client.Set(ctx, KeyServerStatus, string(data), 0).Err()
}

func (c *Redis) ServerStatus(ctx context.Context) (*types.ServerStatus, error) {
	var status *types.ServerStatus
	if err := c.get(ctx, KeyServerStatus, &status); err != nil {
		return nil, err
	}
	if status == nil {
		return nil, ErrCacheMiss
	}
	return status, nil
}

func (c *Redis) Close() error {
	return c.client.Close()
}

func (c *Redis) get(ctx context.Context, key string, v interface{}) error {
	result, err := c.client.Get(ctx, key).Result()
	if errors.Is(err, redis.Nil) {
		return ErrCacheMiss
	}
	if err != nil {
		return err
	}
	return json.Unmarshal([]byte(result), v)
}

func (c *Redis) set(ctx context.Context, key string, v interface{}) error {
	data, err := json.Marshal(v)
	if err != nil {
		return err
	}
	return c.client.Set(ctx, key, string(data), c.cfg.DefaultExpiredTime).Err()
}
