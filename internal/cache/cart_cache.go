package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"math/rand"
	"time"

	"github.com/ikkim/storefront-backend/internal/app/model"
	"github.com/redis/go-redis/v9"
)

const (
	defaultCartTTL = 5 * time.Minute

	// outlives any cart entry; an expired counter reads as 0 and only
	// causes a skipped fill
	versionTTL = 24 * time.Hour
)

// cachedLine is the cached part of a cart line. Product data is not cached;
// callers join current prices on every read.
type cachedLine struct {
	ID        uint      `json:"id"`
	ProductID uint      `json:"product_id"`
	Quantity  int       `json:"quantity"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// CartCache stores a user's cart lines in Redis under cart:<userID>, next to
// a write counter at cart:<userID>:version. Writers bump the counter through
// Invalidate; Set only stores lines loaded under the current counter value.
type CartCache struct {
	client  *redis.Client
	baseTTL time.Duration
}

func NewCartCache(client *redis.Client) *CartCache {
	return &CartCache{
		client:  client,
		baseTTL: defaultCartTTL,
	}
}

func (c *CartCache) Get(ctx context.Context, userID uint) ([]model.CartItem, error) {
	data, err := c.client.Get(ctx, cacheKey(userID)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, ErrCacheMiss
	}
	if err != nil {
		return nil, fmt.Errorf("redis get failed: %w", err)
	}

	var lines []cachedLine
	if err := json.Unmarshal(data, &lines); err != nil {
		return nil, fmt.Errorf("unmarshal cart failed: %w", err)
	}

	items := make([]model.CartItem, 0, len(lines))
	for _, l := range lines {
		items = append(items, model.CartItem{
			ID:        l.ID,
			UserID:    userID,
			ProductID: l.ProductID,
			Quantity:  l.Quantity,
			CreatedAt: l.CreatedAt,
			UpdatedAt: l.UpdatedAt,
		})
	}
	return items, nil
}

// Version returns the user's write counter. Read it before loading the
// lines that will be passed to Set.
func (c *CartCache) Version(ctx context.Context, userID uint) (int64, error) {
	v, err := c.client.Get(ctx, versionKey(userID)).Int64()
	if errors.Is(err, redis.Nil) {
		return 0, nil
	}
	if err != nil {
		return 0, fmt.Errorf("redis get version failed: %w", err)
	}
	return v, nil
}

// Set stores items if the write counter still equals version, and returns
// ErrStaleVersion otherwise.
func (c *CartCache) Set(ctx context.Context, userID uint, version int64, items []model.CartItem) error {
	lines := make([]cachedLine, 0, len(items))
	for _, item := range items {
		lines = append(lines, cachedLine{
			ID:        item.ID,
			ProductID: item.ProductID,
			Quantity:  item.Quantity,
			CreatedAt: item.CreatedAt,
			UpdatedAt: item.UpdatedAt,
		})
	}
	data, err := json.Marshal(lines)
	if err != nil {
		return fmt.Errorf("marshal cart failed: %w", err)
	}

	vkey := versionKey(userID)
	err = c.client.Watch(ctx, func(tx *redis.Tx) error {
		current, err := tx.Get(ctx, vkey).Int64()
		if err != nil && !errors.Is(err, redis.Nil) {
			return err
		}
		if current != version {
			return ErrStaleVersion
		}
		_, err = tx.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
			pipe.Set(ctx, cacheKey(userID), data, c.ttl())
			return nil
		})
		return err
	}, vkey)

	switch {
	case err == nil:
		return nil
	case errors.Is(err, ErrStaleVersion), errors.Is(err, redis.TxFailedErr):
		return ErrStaleVersion
	default:
		return fmt.Errorf("redis set failed: %w", err)
	}
}

// Invalidate bumps the write counter and drops the cached lines in one
// transaction. Call it after every committed cart write.
func (c *CartCache) Invalidate(ctx context.Context, userID uint) error {
	vkey := versionKey(userID)
	_, err := c.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.Incr(ctx, vkey)
		pipe.Expire(ctx, vkey, versionTTL)
		pipe.Del(ctx, cacheKey(userID))
		return nil
	})
	if err != nil {
		return fmt.Errorf("redis invalidate failed: %w", err)
	}
	return nil
}

// ttl spreads expiries by +/-10% so carts cached together do not expire together.
func (c *CartCache) ttl() time.Duration {
	spread := int64(c.baseTTL / 5)
	if spread <= 0 {
		return c.baseTTL
	}
	return c.baseTTL - c.baseTTL/10 + time.Duration(rand.Int63n(spread))
}

func cacheKey(userID uint) string {
	return fmt.Sprintf("cart:%d", userID)
}

func versionKey(userID uint) string {
	return fmt.Sprintf("cart:%d:version", userID)
}
