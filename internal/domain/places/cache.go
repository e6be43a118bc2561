package places

import (
	"context"
	"encoding/json"
	"log/slog"
	"time"
)

// LocalStore is the fast per-process tier. Lookups never suspend.
type LocalStore interface {
	Get(key string) (payload []byte, writtenAt time.Time, ok bool)
	Set(key string, payload []byte)
	Delete(keys ...string)
	DeletePrefix(prefix string)
	Clear()
}

// PersistentEntry is the envelope stored in the shared tier. ExpiresAt lives
// inside the payload so a stale-but-present entry can still seed the local
// tier before a refetch.
type PersistentEntry struct {
	Data      json.RawMessage `json:"data"`
	CreatedAt time.Time       `json:"createdAt"`
	ExpiresAt time.Time       `json:"expiresAt"`
}

// PersistentStore is the shared durable tier. Writes are last-write-wins
// upserts keyed by the cache key.
type PersistentStore interface {
	Get(ctx context.Context, key string) (PersistentEntry, bool, error)
	Set(ctx context.Context, key string, entry PersistentEntry) error
}

// Cache is a read-through cache over a local ephemeral tier and a shared
// persistent tier with independent TTLs. It is TTL-agnostic itself; callers
// supply the pair per kind.
type Cache struct {
	local  LocalStore
	shared PersistentStore
	logger *slog.Logger
	now    func() time.Time
}

// NewCache wires the two tiers.
func NewCache(local LocalStore, shared PersistentStore, logger *slog.Logger) *Cache {
	return &Cache{
		local:  local,
		shared: shared,
		logger: logger.With("component", "places.cache"),
		now:    time.Now,
	}
}

// Lookup runs the two-tier read-through protocol: a fresh local hit returns
// without I/O; a persistent hit always reseeds the local tier and returns if
// still fresh; otherwise fetch runs and its result lands in both tiers. Fetch
// errors propagate to the caller untouched.
func Lookup[T any](ctx context.Context, c *Cache, key Key, ttls TTLs, fetch func(ctx context.Context) (T, error)) (T, error) {
	k := key.String()
	now := c.now()

	if payload, writtenAt, ok := c.local.Get(k); ok && now.Sub(writtenAt) <= ttls.Local {
		var out T
		if err := json.Unmarshal(payload, &out); err == nil {
			return out, nil
		}
		// Undecodable local entry: drop it and fall through.
		c.local.Delete(k)
	}

	entry, found, err := c.shared.Get(ctx, k)
	if err != nil {
		c.logger.Warn("persistent tier read failed", "key", k, "error", err)
		found = false
	}
	if found {
		c.local.Set(k, entry.Data)
		if entry.ExpiresAt.After(now) {
			var out T
			if err := json.Unmarshal(entry.Data, &out); err == nil {
				return out, nil
			}
		}
	}

	value, err := fetch(ctx)
	if err != nil {
		var zero T
		return zero, err
	}

	payload, err := json.Marshal(value)
	if err != nil {
		c.logger.Warn("cache encode failed, returning uncached value", "key", k, "error", err)
		return value, nil
	}
	c.local.Set(k, payload)
	if err := c.shared.Set(ctx, k, PersistentEntry{
		Data:      payload,
		CreatedAt: now,
		ExpiresAt: now.Add(ttls.Persistent),
	}); err != nil {
		c.logger.Warn("persistent tier write failed", "key", k, "error", err)
	}
	return value, nil
}

// InvalidateLocal removes local-tier entries for the kind and external id,
// plus any suffixed variants named. The persistent tier is left to expire.
func (c *Cache) InvalidateLocal(kind Kind, externalID string, suffixes ...string) {
	keys := []string{Key{Kind: kind, ExternalID: externalID}.String()}
	for _, s := range suffixes {
		keys = append(keys, Key{Kind: kind, ExternalID: externalID, Suffix: s}.String())
	}
	c.local.Delete(keys...)
}

// InvalidateLocalAll removes every local-tier entry tied to the external id
// across all kinds, including suffixed variants.
func (c *Cache) InvalidateLocalAll(externalID string) {
	for _, kind := range []Kind{KindHours, KindDetails, KindPhoto} {
		base := Key{Kind: kind, ExternalID: externalID}.String()
		c.local.Delete(base)
		c.local.DeletePrefix(base + ":")
	}
}

// ClearAllLocal empties the local tier.
func (c *Cache) ClearAllLocal() {
	c.local.Clear()
}
