package cache

import (
	"hash/fnv"
	"sync"
	"time"
)

// DedupCache is a short-lived set of recently seen provider message IDs,
// used to drop webhook re-deliveries. Entries are sharded by ID so that
// concurrent deliveries for different conversations never contend on a
// single lock. Expired entries are dropped lazily on read and in bulk by
// Sweep.
type DedupCache struct {
	shards []*dedupShard
	ttl    time.Duration
	now    func() time.Time
}

type dedupShard struct {
	mu   sync.Mutex
	seen map[string]time.Time
}

func NewDedupCache(ttl time.Duration, shardCount int) *DedupCache {
	if shardCount <= 0 {
		shardCount = 1
	}
	shards := make([]*dedupShard, shardCount)
	for i := range shards {
		shards[i] = &dedupShard{seen: make(map[string]time.Time)}
	}
	return &DedupCache{
		shards: shards,
		ttl:    ttl,
		now:    time.Now,
	}
}

func (c *DedupCache) shard(id string) *dedupShard {
	h := fnv.New32a()
	h.Write([]byte(id))
	return c.shards[int(h.Sum32())%len(c.shards)]
}

// SeenRecently reports whether id was marked within the TTL window.
func (c *DedupCache) SeenRecently(id string) bool {
	s := c.shard(id)
	s.mu.Lock()
	defer s.mu.Unlock()

	firstSeen, ok := s.seen[id]
	if !ok {
		return false
	}
	if c.now().Sub(firstSeen) > c.ttl {
		delete(s.seen, id)
		return false
	}
	return true
}

// MarkSeen records id with the current timestamp. Re-marking an already
// seen id does not extend its window; the first delivery wins.
func (c *DedupCache) MarkSeen(id string) {
	s := c.shard(id)
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.seen[id]; !ok {
		s.seen[id] = c.now()
	}
}

// CheckAndMark atomically checks and marks id, returning true if id was
// already seen within the TTL. This is the dedup gate: two concurrent
// deliveries of the same id cannot both observe "unseen".
func (c *DedupCache) CheckAndMark(id string) bool {
	s := c.shard(id)
	s.mu.Lock()
	defer s.mu.Unlock()

	if firstSeen, ok := s.seen[id]; ok {
		if c.now().Sub(firstSeen) <= c.ttl {
			return true
		}
	}
	s.seen[id] = c.now()
	return false
}

// Forget removes id so a redelivery can pass the gate again. Used when
// processing after the gate fails before any side effect happened.
func (c *DedupCache) Forget(id string) {
	s := c.shard(id)
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.seen, id)
}

// Sweep removes all expired entries and returns how many were dropped.
func (c *DedupCache) Sweep() int {
	now := c.now()
	removed := 0
	for _, s := range c.shards {
		s.mu.Lock()
		for id, firstSeen := range s.seen {
			if now.Sub(firstSeen) > c.ttl {
				delete(s.seen, id)
				removed++
			}
		}
		s.mu.Unlock()
	}
	return removed
}

// Len returns the number of live entries, counting expired ones that have
// not been swept yet.
func (c *DedupCache) Len() int {
	n := 0
	for _, s := range c.shards {
		s.mu.Lock()
		n += len(s.seen)
		s.mu.Unlock()
	}
	return n
}
