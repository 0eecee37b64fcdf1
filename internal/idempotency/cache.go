// Package idempotency is the optional fast-path lookup for idempotency
// keys. The transactional check inside the ledger store is the correctness
// guarantee; this cache only saves a database round trip on hot retries
// (gateway callbacks redelivered in bursts). Misses and Redis errors fall
// through to the store.
package idempotency

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/portalops/ledger-backend/internal/models"
	"github.com/redis/go-redis/v9"
)

type Cache struct {
	rdb *redis.Client
	ttl time.Duration
}

func New(rdb *redis.Client, ttl time.Duration) *Cache {
	return &Cache{rdb: rdb, ttl: ttl}
}

func key(clientID, idemKey string) string {
	return fmt.Sprintf("idem:%s:%s", clientID, idemKey)
}

// Lookup returns the committed entry for the key, if cached.
func (c *Cache) Lookup(ctx context.Context, clientID, idemKey string) (models.LedgerEntry, bool) {
	if c == nil || c.rdb == nil {
		return models.LedgerEntry{}, false
	}
	raw, err := c.rdb.Get(ctx, key(clientID, idemKey)).Bytes()
	if err != nil {
		if err != redis.Nil {
			slog.Debug("idempotency cache get", "err", err)
		}
		return models.LedgerEntry{}, false
	}
	var e models.LedgerEntry
	if err := json.Unmarshal(raw, &e); err != nil {
		return models.LedgerEntry{}, false
	}
	return e, true
}

// Store records a committed entry under its idempotency key.
func (c *Cache) Store(ctx context.Context, clientID, idemKey string, e models.LedgerEntry) {
	if c == nil || c.rdb == nil {
		return
	}
	raw, err := json.Marshal(e)
	if err != nil {
		return
	}
	if err := c.rdb.Set(ctx, key(clientID, idemKey), raw, c.ttl).Err(); err != nil {
		slog.Debug("idempotency cache set", "err", err)
	}
}
