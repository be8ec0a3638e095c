package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/actuallystonmai/users-service/internal/domain"
	"github.com/redis/go-redis/v9"
)

const (
	defaultTTL     = 5 * time.Minute
	keyPrefix      = "users:"
	listKey        = keyPrefix + "all"
	listVersionKey = keyPrefix + "version:all"
)

// errStale aborts a fill whose version was bumped by an invalidation.
var errStale = errors.New("cache entry is stale")

type Cache struct {
	client *redis.Client
	ttl    time.Duration
}

// NewCache returns a cache whose entries expire after ttl (defaultTTL when
// ttl is not positive).
func NewCache(client *redis.Client, ttl time.Duration) *Cache {
	if ttl <= 0 {
		ttl = defaultTTL
	}
	return &Cache{client: client, ttl: ttl}
}

func buildKey(id int64) string {
	return fmt.Sprintf("%sid:%d", keyPrefix, id)
}

func versionKey(id int64) string {
	return fmt.Sprintf("%sversion:id:%d", keyPrefix, id)
}

// Get a single user. found is false on a cache miss.
func (c *Cache) GetUser(ctx context.Context, id int64) (*domain.User, bool, error) {
	var user domain.User
	found, err := c.get(ctx, buildKey(id), &user)
	if !found || err != nil {
		return nil, found, err
	}
	return &user, true, nil
}

// UserVersion is read before loading a user from the store and handed back
// to SetUser.
func (c *Cache) UserVersion(ctx context.Context, id int64) (int64, error) {
	return c.version(ctx, versionKey(id))
}

// SetUser stores user unless it was invalidated after version was read.
func (c *Cache) SetUser(ctx context.Context, user *domain.User, version int64) error {
	return c.set(ctx, buildKey(user.ID), versionKey(user.ID), version, user)
}

// Get the full user list. found is false on a cache miss.
func (c *Cache) GetList(ctx context.Context) ([]domain.User, bool, error) {
	var users []domain.User
	found, err := c.get(ctx, listKey, &users)
	if !found || err != nil {
		return nil, found, err
	}
	return users, true, nil
}

func (c *Cache) ListVersion(ctx context.Context) (int64, error) {
	return c.version(ctx, listVersionKey)
}

// SetList stores users unless any write happened after version was read.
func (c *Cache) SetList(ctx context.Context, users []domain.User, version int64) error {
	return c.set(ctx, listKey, listVersionKey, version, users)
}

// Invalidate drops the cached user and the cached list and bumps their
// versions so in-flight fills read before the write are discarded: used on
// every write
func (c *Cache) Invalidate(ctx context.Context, id int64) error {
	_, err := c.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.Incr(ctx, versionKey(id))
		pipe.Incr(ctx, listVersionKey)
		pipe.Del(ctx, buildKey(id), listKey)
		return nil
	})
	if err != nil {
		return fmt.Errorf("cache invalidate user %d: %w", id, err)
	}
	return nil
}

// Clear every users:* key: used at startup so a fresh store never serves
// entries cached by a previous process
func (c *Cache) Clear(ctx context.Context) error {
	iter := c.client.Scan(ctx, 0, keyPrefix+"*", 100).Iterator()
	for iter.Next(ctx) {
		if err := c.client.Del(ctx, iter.Val()).Err(); err != nil {
			return fmt.Errorf("cache delete %s: %w", iter.Val(), err)
		}
	}
	return iter.Err()
}

// Ping connectivity
func (c *Cache) Ping(ctx context.Context) error {
	return c.client.Ping(ctx).Err()
}

func (c *Cache) get(ctx context.Context, key string, dst any) (bool, error) {
	val, err := c.client.Get(ctx, key).Bytes()
	if errors.Is(err, redis.Nil) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("cache get %s: %w", key, err)
	}

	if err := json.Unmarshal(val, dst); err != nil {
		return false, fmt.Errorf("failed to unmarshal %s: %w", key, err)
	}
	return true, nil
}

func (c *Cache) version(ctx context.Context, key string) (int64, error) {
	v, err := c.client.Get(ctx, key).Int64()
	if errors.Is(err, redis.Nil) {
		return 0, nil
	}
	if err != nil {
		return 0, fmt.Errorf("cache get %s: %w", key, err)
	}
	return v, nil
}

// set writes key only while verKey still holds version. A fill that lost
// the race to an invalidation is dropped silently.
func (c *Cache) set(ctx context.Context, key, verKey string, version int64, v any) error {
	val, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("failed to marshal %s: %w", key, err)
	}

	err = c.client.Watch(ctx, func(tx *redis.Tx) error {
		current, err := c.versionTx(ctx, tx, verKey)
		if err != nil {
			return err
		}
		if current != version {
			return errStale
		}
		_, err = tx.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
			pipe.Set(ctx, key, val, c.ttl)
			return nil
		})
		return err
	}, verKey)

	if errors.Is(err, errStale) || errors.Is(err, redis.TxFailedErr) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("cache set %s: %w", key, err)
	}
	return nil
}

func (c *Cache) versionTx(ctx context.Context, tx *redis.Tx, key string) (int64, error) {
	v, err := tx.Get(ctx, key).Int64()
	if errors.Is(err, redis.Nil) {
		return 0, nil
	}
	return v, err
}
