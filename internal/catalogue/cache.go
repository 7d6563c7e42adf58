package catalogue

import (
	"context"
	"encoding/json"
	"fmt"
	"math/rand"
	"sort"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
	"golang.org/x/sync/singleflight"
)

// Cache is a read-through Redis cache in front of another Finder. Concurrent
// misses for the same ids share one upstream call, which is detached from any
// single caller's cancellation. Ids the upstream does not return are cached as
// absent for a shorter time. Redis failures are logged and the upstream is
// asked directly.
type Cache struct {
	next    Finder
	client  redis.UniversalClient
	baseTTL time.Duration
	sfg     singleflight.Group
	logger  *zap.Logger
}

// absentMarker is stored for ids the catalogue did not return.
const absentMarker = "absent"

func NewCache(next Finder, client redis.UniversalClient, baseTTL time.Duration, logger *zap.Logger) *Cache {
	if logger == nil {
		logger = zap.NewNop()
	}
	if baseTTL <= 0 {
		baseTTL = 5 * time.Minute
	}
	return &Cache{next: next, client: client, baseTTL: baseTTL, logger: logger}
}

func (c *Cache) FindAllByID(ctx context.Context, ids []string) ([]Item, error) {
	ids = dedupe(ids)
	if len(ids) == 0 {
		return []Item{}, nil
	}

	found, missing := c.lookup(ctx, ids)
	if len(missing) > 0 {
		sort.Strings(missing)
		fetchCtx := context.WithoutCancel(ctx)
		ch := c.sfg.DoChan(strings.Join(missing, ","), func() (interface{}, error) {
			items, err := c.next.FindAllByID(fetchCtx, missing)
			if err != nil {
				return nil, err
			}
			c.store(fetchCtx, missing, items)
			return items, nil
		})

		var res singleflight.Result
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case res = <-ch:
		}
		if res.Err != nil {
			return nil, res.Err
		}
		for _, item := range res.Val.([]Item) {
			found[item.ID] = item
		}
	}

	out := make([]Item, 0, len(found))
	for _, id := range ids {
		if item, ok := found[id]; ok {
			out = append(out, item)
		}
	}
	return out, nil
}

func (c *Cache) lookup(ctx context.Context, ids []string) (map[string]Item, []string) {
	found := make(map[string]Item, len(ids))
	keys := make([]string, len(ids))
	for i, id := range ids {
		keys[i] = cacheKey(id)
	}

	values, err := c.client.MGet(ctx, keys...).Result()
	if err != nil {
		c.logger.Warn("catalogue cache read failed", zap.Error(err))
		return found, ids
	}

	var missing []string
	for i, v := range values {
		raw, ok := v.(string)
		if !ok {
			missing = append(missing, ids[i])
			continue
		}
		if raw == absentMarker {
			continue
		}
		var item Item
		if err := json.Unmarshal([]byte(raw), &item); err != nil {
			c.logger.Warn("discarding corrupt cache entry", zap.String("item", ids[i]), zap.Error(err))
			missing = append(missing, ids[i])
			continue
		}
		found[ids[i]] = item
	}
	return found, missing
}

func (c *Cache) store(ctx context.Context, asked []string, items []Item) {
	pipe := c.client.Pipeline()
	returned := make(map[string]struct{}, len(items))
	for _, item := range items {
		returned[item.ID] = struct{}{}
		data, err := json.Marshal(item)
		if err != nil {
			c.logger.Warn("marshal catalogue item", zap.String("item", item.ID), zap.Error(err))
			continue
		}
		pipe.Set(ctx, cacheKey(item.ID), data, c.ttl())
	}
	for _, id := range asked {
		if _, ok := returned[id]; !ok {
			pipe.Set(ctx, cacheKey(id), absentMarker, c.absentTTL())
		}
	}
	if pipe.Len() == 0 {
		return
	}
	if _, err := pipe.Exec(ctx); err != nil {
		c.logger.Warn("catalogue cache write failed", zap.Error(err))
	}
}

func (c *Cache) ttl() time.Duration {
	jitter := time.Duration(rand.Int63n(int64(c.baseTTL)/5 + 1))
	return c.baseTTL + jitter
}

// absentTTL keeps unknown ids out of the upstream briefly, so newly published
// items show up quickly.
func (c *Cache) absentTTL() time.Duration {
	ttl := c.baseTTL / 10
	if ttl < time.Second {
		ttl = time.Second
	}
	return ttl
}

func cacheKey(itemID string) string {
	return fmt.Sprintf("catalogue:item:%s", itemID)
}
