// Package pending provides short-lived keyed storage: the
// pending-confirmation store for unconfirmed candidates and the inbound-event
// dedup that suppresses duplicate webhook deliveries.
package pending

import (
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"github.com/brenocwb02/contasbot/internal/domain"
)

// Cache is the keyed expiring cache collaborator. Entries disappear silently
// after their TTL.
type Cache interface {
	Put(key string, value []byte, ttl time.Duration)
	Get(key string) ([]byte, bool)
	Remove(key string)
}

// MemoryCache is an in-process Cache with lazy expiry: expired entries are
// dropped on read and swept opportunistically on write.
type MemoryCache struct {
	mu      sync.Mutex
	entries map[string]memoryEntry
	now     func() time.Time // injectable clock for tests
}

type memoryEntry struct {
	value     []byte
	expiresAt time.Time
}

// NewMemoryCache creates an empty cache.
func NewMemoryCache() *MemoryCache {
	return &MemoryCache{
		entries: make(map[string]memoryEntry),
		now:     time.Now,
	}
}

// Put stores a value under key for ttl.
func (c *MemoryCache) Put(key string, value []byte, ttl time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()

	now := c.now()
	c.entries[key] = memoryEntry{value: value, expiresAt: now.Add(ttl)}

	// Opportunistic sweep keeps the map from growing unbounded between reads.
	for k, e := range c.entries {
		if now.After(e.expiresAt) {
			delete(c.entries, k)
		}
	}
}

// Get returns the value under key, or false when absent or expired.
func (c *MemoryCache) Get(key string) ([]byte, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	entry, ok := c.entries[key]
	if !ok {
		return nil, false
	}
	if c.now().After(entry.expiresAt) {
		delete(c.entries, key)
		return nil, false
	}
	return entry.value, true
}

// Remove deletes the entry under key, if any.
func (c *MemoryCache) Remove(key string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.entries, key)
}

// DefaultCandidateTTL is how long an unconfirmed candidate survives before it
// expires silently.
const DefaultCandidateTTL = 15 * time.Minute

// Store keeps unconfirmed candidates keyed by (chatID, transaction id).
// Consume removes the entry on first use so a retried confirm or cancel
// callback finds nothing and becomes a no-op.
type Store struct {
	cache Cache
	ttl   time.Duration
}

// NewStore creates a candidate store over the given cache. A zero ttl uses
// DefaultCandidateTTL.
func NewStore(cache Cache, ttl time.Duration) *Store {
	if ttl <= 0 {
		ttl = DefaultCandidateTTL
	}
	return &Store{cache: cache, ttl: ttl}
}

func candidateKey(chatID int64, id string) string {
	return fmt.Sprintf("pending:%d:%s", chatID, id)
}

// Put stores a candidate awaiting confirmation.
func (s *Store) Put(chatID int64, id string, candidate *domain.Candidate) error {
	data, err := json.Marshal(candidate)
	if err != nil {
		return fmt.Errorf("failed to encode pending candidate %s: %w", id, err)
	}
	s.cache.Put(candidateKey(chatID, id), data, s.ttl)
	return nil
}

// Get returns the candidate without consuming it.
func (s *Store) Get(chatID int64, id string) (*domain.Candidate, bool) {
	data, ok := s.cache.Get(candidateKey(chatID, id))
	if !ok {
		return nil, false
	}
	var candidate domain.Candidate
	if err := json.Unmarshal(data, &candidate); err != nil {
		// A corrupt entry is unrecoverable; treat as expired.
		s.cache.Remove(candidateKey(chatID, id))
		return nil, false
	}
	return &candidate, true
}

// Consume returns the candidate and removes it in the same step. The second
// call for the same id returns false, which callers report as "expired or
// already processed".
func (s *Store) Consume(chatID int64, id string) (*domain.Candidate, bool) {
	candidate, ok := s.Get(chatID, id)
	if !ok {
		return nil, false
	}
	s.cache.Remove(candidateKey(chatID, id))
	return candidate, true
}

// Remove discards a candidate (cancel path).
func (s *Store) Remove(chatID int64, id string) {
	s.cache.Remove(candidateKey(chatID, id))
}

// DefaultDedupTTL is the window within which an exact duplicate inbound event
// id is suppressed.
const DefaultDedupTTL = 60 * time.Second

// Deduper suppresses redelivered inbound events by id.
type Deduper struct {
	cache Cache
	ttl   time.Duration
}

// NewDeduper creates a deduper over the given cache. A zero ttl uses
// DefaultDedupTTL.
func NewDeduper(cache Cache, ttl time.Duration) *Deduper {
	if ttl <= 0 {
		ttl = DefaultDedupTTL
	}
	return &Deduper{cache: cache, ttl: ttl}
}

// Seen records the event id and reports whether it was already recorded
// within the TTL window.
func (d *Deduper) Seen(eventID int64) bool {
	key := fmt.Sprintf("dedup:%d", eventID)
	if _, ok := d.cache.Get(key); ok {
		return true
	}
	d.cache.Put(key, []byte{1}, d.ttl)
	return false
}
