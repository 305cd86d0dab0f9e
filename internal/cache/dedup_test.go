package cache

import (
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestDedupCache_SeenRecently(t *testing.T) {
	c := NewDedupCache(5*time.Minute, 4)

	assert.False(t, c.SeenRecently("msg1"))

	c.MarkSeen("msg1")
	assert.True(t, c.SeenRecently("msg1"))
	assert.False(t, c.SeenRecently("msg2"))
}

func TestDedupCache_CheckAndMark(t *testing.T) {
	c := NewDedupCache(5*time.Minute, 4)

	assert.False(t, c.CheckAndMark("msg1"))
	assert.True(t, c.CheckAndMark("msg1"))
	assert.False(t, c.CheckAndMark("msg2"))
}

func TestDedupCache_Expiry(t *testing.T) {
	c := NewDedupCache(5*time.Minute, 4)

	now := time.Now()
	c.now = func() time.Time { return now }
	c.MarkSeen("msg1")

	// Still inside the window
	c.now = func() time.Time { return now.Add(4 * time.Minute) }
	assert.True(t, c.SeenRecently("msg1"))

	// Outside the window the entry lazily expires
	c.now = func() time.Time { return now.Add(6 * time.Minute) }
	assert.False(t, c.SeenRecently("msg1"))
	assert.Equal(t, 0, c.Len())
}

func TestDedupCache_MarkSeenDoesNotExtendWindow(t *testing.T) {
	c := NewDedupCache(5*time.Minute, 4)

	now := time.Now()
	c.now = func() time.Time { return now }
	c.MarkSeen("msg1")

	c.now = func() time.Time { return now.Add(4 * time.Minute) }
	c.MarkSeen("msg1")

	c.now = func() time.Time { return now.Add(6 * time.Minute) }
	assert.False(t, c.SeenRecently("msg1"))
}

func TestDedupCache_Sweep(t *testing.T) {
	c := NewDedupCache(5*time.Minute, 4)

	now := time.Now()
	c.now = func() time.Time { return now }
	for i := 0; i < 10; i++ {
		c.MarkSeen(fmt.Sprintf("old-%d", i))
	}

	c.now = func() time.Time { return now.Add(6 * time.Minute) }
	c.MarkSeen("fresh")

	removed := c.Sweep()
	assert.Equal(t, 10, removed)
	assert.Equal(t, 1, c.Len())
	assert.True(t, c.SeenRecently("fresh"))
}

func TestDedupCache_ConcurrentCheckAndMark(t *testing.T) {
	c := NewDedupCache(5*time.Minute, 16)

	const workers = 50
	var wg sync.WaitGroup
	duplicates := make(chan bool, workers)

	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			duplicates <- c.CheckAndMark("same-id")
		}()
	}
	wg.Wait()
	close(duplicates)

	fresh := 0
	for dup := range duplicates {
		if !dup {
			fresh++
		}
	}
	assert.Equal(t, 1, fresh, "exactly one delivery should pass the dedup gate")
}
