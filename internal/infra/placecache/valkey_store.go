package placecache

import (
	"context"
	"encoding/json"
	"time"

	"github.com/valkey-io/valkey-go"

	"github.com/openbites/bitefinder/internal/domain/places"
)

// expiryGrace keeps stale entries readable past their logical expiry so a
// stale-but-present read can still seed the local tier.
const expiryGrace = 7 * 24 * time.Hour

// ValkeyStore is the shared persistent cache tier.
type ValkeyStore struct {
	client valkey.Client
	prefix string
	now    func() time.Time
}

// NewValkeyStore constructs the persistent tier backed by Valkey.
func NewValkeyStore(client valkey.Client, prefix string) *ValkeyStore {
	if prefix == "" {
		prefix = "placecache"
	}
	return &ValkeyStore{client: client, prefix: prefix, now: time.Now}
}

// Get implements places.PersistentStore. Logical expiry lives inside the
// stored envelope; a missing key is a plain miss.
func (s *ValkeyStore) Get(ctx context.Context, key string) (places.PersistentEntry, bool, error) {
	cmd := s.client.B().Get().Key(s.namespaced(key)).Build()
	payload, err := s.client.Do(ctx, cmd).ToString()
	if err != nil {
		if valkey.IsValkeyNil(err) {
			return places.PersistentEntry{}, false, nil
		}
		return places.PersistentEntry{}, false, err
	}
	var entry places.PersistentEntry
	if err := json.Unmarshal([]byte(payload), &entry); err != nil {
		return places.PersistentEntry{}, false, err
	}
	return entry, true, nil
}

// Set upserts the envelope. Server-side TTL is the logical expiry plus grace
// so the keyspace stays bounded without losing stale reads.
func (s *ValkeyStore) Set(ctx context.Context, key string, entry places.PersistentEntry) error {
	payload, err := json.Marshal(entry)
	if err != nil {
		return err
	}
	ttl := entry.ExpiresAt.Add(expiryGrace).Sub(s.now())
	if ttl < time.Second {
		ttl = time.Second
	}
	cmd := s.client.B().Set().Key(s.namespaced(key)).Value(string(payload)).Ex(ttl).Build()
	return s.client.Do(ctx, cmd).Error()
}

func (s *ValkeyStore) namespaced(key string) string {
	return s.prefix + ":" + key
}

var _ places.PersistentStore = (*ValkeyStore)(nil)
