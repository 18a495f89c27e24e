package analytics

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

const (
	cacheVersionPrefix = "analytics:version"
	// BumpChannel carries "<tenant>:<version>" whenever a tenant's records change.
	BumpChannel = "analytics.bump"
)

// Cache wraps Redis based caching with per-tenant versioning.
type Cache struct {
	client *redis.Client
	ttl    time.Duration
	logger *slog.Logger
}

// NewCache instantiates the cache helper.
func NewCache(client *redis.Client, ttl time.Duration) *Cache {
	return &Cache{client: client, ttl: ttl, logger: slog.Default()}
}

func versionKey(tenantID uuid.UUID) string {
	return cacheVersionPrefix + ":" + tenantID.String()
}

// Version returns the tenant's record-set version, initialising when missing.
func (c *Cache) Version(ctx context.Context, tenantID uuid.UUID) (int64, error) {
	if c == nil || c.client == nil {
		return 0, nil
	}
	key := versionKey(tenantID)
	ver, err := c.client.Get(ctx, key).Int64()
	if errors.Is(err, redis.Nil) {
		// SetNX keeps a concurrent Bump from being overwritten.
		if err := c.client.SetNX(ctx, key, 1, 0).Err(); err != nil {
			return 0, err
		}
		return c.client.Get(ctx, key).Int64()
	}
	if err != nil {
		return 0, err
	}
	if ver <= 0 {
		ver = 1
		if err := c.client.Set(ctx, key, ver, 0).Err(); err != nil {
			return 0, err
		}
	}
	return ver, nil
}

// BuildKey composes the cache key with the tenant's current version.
func (c *Cache) BuildKey(ctx context.Context, tenantID uuid.UUID, parts ...string) (string, error) {
	joined := strings.Join(append([]string{"analytics", tenantID.String()}, parts...), ":")
	if c == nil || c.client == nil {
		return joined, nil
	}
	ver, err := c.Version(ctx, tenantID)
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("%s:v%d", joined, ver), nil
}

// FetchJSON loads a cached value or populates it using the loader. Redis
// errors are logged and the loader's value is returned uncached; only loader
// errors reach the caller.
func (c *Cache) FetchJSON(ctx context.Context, key string, dest interface{}, loader func(context.Context) (interface{}, error)) error {
	if loader == nil {
		return errors.New("cache: loader required")
	}
	if c == nil || c.client == nil {
		_, err := loadInto(ctx, loader, dest)
		return err
	}
	payload, err := c.client.Get(ctx, key).Bytes()
	switch {
	case err == nil:
		return json.Unmarshal(payload, dest)
	case !errors.Is(err, redis.Nil):
		c.logger.Warn("analytics cache read", slog.String("key", key), slog.Any("error", err))
		_, err := loadInto(ctx, loader, dest)
		return err
	}
	raw, err := loadInto(ctx, loader, dest)
	if err != nil {
		return err
	}
	if err := c.client.Set(ctx, key, raw, c.ttl).Err(); err != nil {
		c.logger.Warn("analytics cache write", slog.String("key", key), slog.Any("error", err))
	}
	return nil
}

// loadInto runs loader and decodes its JSON form into dest, returning the
// encoded bytes for caching.
func loadInto(ctx context.Context, loader func(context.Context) (interface{}, error), dest interface{}) ([]byte, error) {
	value, err := loader(ctx)
	if err != nil {
		return nil, err
	}
	raw, err := json.Marshal(value)
	if err != nil {
		return nil, err
	}
	return raw, json.Unmarshal(raw, dest)
}

// Bump invalidates every cached entry of the tenant by incrementing its
// version and publishing the new value.
func (c *Cache) Bump(ctx context.Context, tenantID uuid.UUID) (int64, error) {
	if c == nil || c.client == nil {
		return 0, nil
	}
	ver, err := c.client.Incr(ctx, versionKey(tenantID)).Result()
	if err != nil {
		return 0, err
	}
	payload := tenantID.String() + ":" + strconv.FormatInt(ver, 10)
	return ver, c.client.Publish(ctx, BumpChannel, payload).Err()
}

// ParseBump decodes a BumpChannel payload.
func ParseBump(payload string) (uuid.UUID, int64, error) {
	tenant, ver, ok := strings.Cut(payload, ":")
	if !ok {
		return uuid.Nil, 0, fmt.Errorf("analytics: malformed bump %q", payload)
	}
	id, err := uuid.Parse(tenant)
	if err != nil {
		return uuid.Nil, 0, fmt.Errorf("analytics: malformed bump tenant: %w", err)
	}
	n, err := strconv.ParseInt(ver, 10, 64)
	if err != nil {
		return uuid.Nil, 0, fmt.Errorf("analytics: malformed bump version: %w", err)
	}
	return id, n, nil
}

// ListenForInvalidation subscribes to bump notifications and calls onBump for
// each one. Subscribers on a replica keep their version in step with the
// publisher; onBump may be nil.
func (c *Cache) ListenForInvalidation(ctx context.Context, onBump func(tenantID uuid.UUID, version int64)) error {
	if c == nil || c.client == nil {
		return nil
	}
	pubsub := c.client.Subscribe(ctx, BumpChannel)
	if _, err := pubsub.Receive(ctx); err != nil {
		_ = pubsub.Close()
		return err
	}
	go func() {
		defer func() { _ = pubsub.Close() }()
		ch := pubsub.Channel()
		for {
			select {
			case <-ctx.Done():
				return
			case msg, ok := <-ch:
				if !ok {
					return
				}
				tenantID, ver, err := ParseBump(msg.Payload)
				if err != nil {
					continue
				}
				key := versionKey(tenantID)
				current, err := c.client.Get(ctx, key).Int64()
				if err != nil || current < ver {
					_ = c.client.Set(ctx, key, ver, 0).Err()
				}
				if onBump != nil {
					onBump(tenantID, ver)
				}
			}
		}
	}()
	return nil
}
