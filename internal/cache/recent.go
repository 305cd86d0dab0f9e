package cache

import (
	"hash/fnv"
	"sync"
	"time"

	"wagate/internal/models"
)

// RecentMessageCache keeps a bounded, TTL'd ordered log of the last N
// normalized turns per conversation. It is a performance optimization for
// building AI context, not a correctness dependency: a miss means the AI
// call proceeds with less context, never an error.
type RecentMessageCache struct {
	shards []*recentShard
	maxLen int
	ttl    time.Duration
	now    func() time.Time
}

type recentShard struct {
	mu      sync.Mutex
	entries map[string]*recentEntry
}

type recentEntry struct {
	messages  []models.RecentMessage
	expiresAt time.Time
}

func NewRecentMessageCache(maxLen int, ttl time.Duration, shardCount int) *RecentMessageCache {
	if shardCount <= 0 {
		shardCount = 1
	}
	shards := make([]*recentShard, shardCount)
	for i := range shards {
		shards[i] = &recentShard{entries: make(map[string]*recentEntry)}
	}
	return &RecentMessageCache{
		shards: shards,
		maxLen: maxLen,
		ttl:    ttl,
		now:    time.Now,
	}
}

func (c *RecentMessageCache) shard(key string) *recentShard {
	h := fnv.New32a()
	h.Write([]byte(key))
	return c.shards[int(h.Sum32())%len(c.shards)]
}

// Append pushes one turn to the tail for key, trims from the head when the
// bound is exceeded, and refreshes the entry TTL.
func (c *RecentMessageCache) Append(key, role, content string) {
	s := c.shard(key)
	s.mu.Lock()
	defer s.mu.Unlock()

	now := c.now()
	entry, ok := s.entries[key]
	if !ok || now.After(entry.expiresAt) {
		entry = &recentEntry{}
		s.entries[key] = entry
	}

	entry.messages = append(entry.messages, models.RecentMessage{Role: role, Content: content})
	if len(entry.messages) > c.maxLen {
		entry.messages = entry.messages[len(entry.messages)-c.maxLen:]
	}
	entry.expiresAt = now.Add(c.ttl)
}

// GetLast returns up to n most recent turns for key, oldest first. A miss
// or an expired entry yields an empty slice.
func (c *RecentMessageCache) GetLast(key string, n int) []models.RecentMessage {
	s := c.shard(key)
	s.mu.Lock()
	defer s.mu.Unlock()

	entry, ok := s.entries[key]
	if !ok {
		return nil
	}
	if c.now().After(entry.expiresAt) {
		delete(s.entries, key)
		return nil
	}

	msgs := entry.messages
	if n < len(msgs) {
		msgs = msgs[len(msgs)-n:]
	}
	out := make([]models.RecentMessage, len(msgs))
	copy(out, msgs)
	return out
}

// Sweep drops expired entries and returns how many were removed.
func (c *RecentMessageCache) Sweep() int {
	now := c.now()
	removed := 0
	for _, s := range c.shards {
		s.mu.Lock()
		for key, entry := range s.entries {
			if now.After(entry.expiresAt) {
				delete(s.entries, key)
				removed++
			}
		}
		s.mu.Unlock()
	}
	return removed
}
