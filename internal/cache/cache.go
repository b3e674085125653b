package cache

import (
	"context"
	"time"
)

// Cache stores JSON-encoded values. A corrupt or missing entry is a miss,
// never an error.
type Cache interface {
	GetJSON(ctx context.Context, key string, dst any) (hit bool, err error)
	SetJSON(ctx context.Context, key string, val any, ttl time.Duration) error
	Del(ctx context.Context, keys ...string) error
}

func ProductsKey(companyID string) string { return "company:" + companyID + ":products" }
func CompanyKey(companyID string) string  { return "company:" + companyID + ":record" }
func ProfileKey(companyID string) string  { return "company:" + companyID + ":learning" }
