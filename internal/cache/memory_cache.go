package cache

import (
	"context"
	"encoding/json"
	"time"

	"github.com/dgraph-io/ristretto/v2"
)

// MemoryCache is an in-process Cache for single-instance deployments.
type MemoryCache struct {
	c *ristretto.Cache[string, []byte]
}

// NewMemoryCache bounds the cache by the total size of stored values.
func NewMemoryCache(maxCostBytes int64) (*MemoryCache, error) {
	if maxCostBytes <= 0 {
		maxCostBytes = 32 << 20
	}
	c, err := ristretto.NewCache(&ristretto.Config[string, []byte]{
		NumCounters: maxCostBytes / 100 * 10,
		MaxCost:     maxCostBytes,
		BufferItems: 64,
	})
	if err != nil {
		return nil, err
	}
	return &MemoryCache{c: c}, nil
}

func (m *MemoryCache) GetJSON(_ context.Context, key string, dst any) (bool, error) {
	b, ok := m.c.Get(key)
	if !ok {
		return false, nil
	}
	if err := json.Unmarshal(b, dst); err != nil {
		m.c.Del(key)
		return false, nil
	}
	return true, nil
}

func (m *MemoryCache) SetJSON(_ context.Context, key string, val any, ttl time.Duration) error {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	b, err := json.Marshal(val)
	if err != nil {
		return err
	}
	m.c.SetWithTTL(key, b, int64(len(b)), ttl)
	// writes are buffered; make them visible to the next read
	m.c.Wait()
	return nil
}

func (m *MemoryCache) Del(_ context.Context, keys ...string) error {
	for _, k := range keys {
		m.c.Del(k)
	}
	return nil
}

func (m *MemoryCache) Close() { m.c.Close() }
