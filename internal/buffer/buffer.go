package buffer

import (
	"context"
	"strings"
	"sync"
	"time"

	"github.com/sirupsen/logrus"
)

// DispatchContext is the snapshot of everything the flush handler needs to
// run an AI turn for a conversation. It is captured at the last append so a
// flush always carries the freshest identity and credentials.
type DispatchContext struct {
	TenantID       string
	ConversationID string
	ContactID      *string
	Phone          string
	CountryCode    string
	NationalNumber string
	FirstName      string
	ProviderAPIKey string
	BusinessNumber string
}

// FlushFunc receives the combined text of one buffered burst. Errors are
// terminal for that flush attempt; the buffer never retries.
type FlushFunc func(ctx context.Context, dc DispatchContext, combinedText string)

type entry struct {
	texts []string
	dc    DispatchContext
	timer *time.Timer
	gen   uint64
}

// ConversationBuffer accumulates normalized message texts per conversation
// and flushes them as one batched turn after a debounce quiet period, or
// immediately once the batch size cap is reached.
//
// Per key there is at most one live entry and one active timer. The entry is
// removed from the map before its flush handler runs, so messages arriving
// during an in-flight flush start a fresh entry instead of racing the old
// one.
type ConversationBuffer struct {
	mu       sync.Mutex
	entries  map[string]*entry
	debounce time.Duration
	maxBatch int
	flush    FlushFunc
	logger   *logrus.Logger
	seq      uint64
	wg       sync.WaitGroup
	closed   bool
}

func NewConversationBuffer(debounce time.Duration, maxBatch int, flush FlushFunc, logger *logrus.Logger) *ConversationBuffer {
	if maxBatch <= 0 {
		maxBatch = 1
	}
	return &ConversationBuffer{
		entries:  make(map[string]*entry),
		debounce: debounce,
		maxBatch: maxBatch,
		flush:    flush,
		logger:   logger,
	}
}

// Key builds the buffer key for a (tenant, conversation) pair.
func Key(tenantID, conversationID string) string {
	return tenantID + "/" + conversationID
}

// Append adds text to the pending batch for key, resetting the debounce
// timer. When the append fills the batch to maxBatch, the timer is cancelled
// and the flush runs immediately.
func (b *ConversationBuffer) Append(key, text string, dc DispatchContext) {
	b.mu.Lock()

	if b.closed {
		b.mu.Unlock()
		b.logger.WithField("key", key).Warn("Buffer is shut down, dropping message")
		return
	}

	e, ok := b.entries[key]
	if !ok {
		e = &entry{}
		b.entries[key] = e
	}

	e.texts = append(e.texts, text)
	e.dc = dc

	if len(e.texts) >= b.maxBatch {
		if e.timer != nil {
			e.timer.Stop()
		}
		b.seq++
		e.gen = b.seq
		b.takeAndFlushLocked(key, e)
		return
	}

	// A fresh generation on every reschedule: a timer that already fired and
	// is waiting on the mutex sees a stale generation and discards itself,
	// so no flush can land between two in-quick-succession appends. The
	// sequence is process-wide, which also fences timers left over from a
	// previous entry under the same key.
	if e.timer != nil {
		e.timer.Stop()
	}
	b.seq++
	e.gen = b.seq
	gen := e.gen
	e.timer = time.AfterFunc(b.debounce, func() {
		b.onTimer(key, gen)
	})
	b.mu.Unlock()
}

// onTimer fires on debounce expiry. The generation check discards stale
// timers whose entry was already flushed by the size trigger and replaced
// by a newer one under the same key.
func (b *ConversationBuffer) onTimer(key string, gen uint64) {
	b.mu.Lock()
	e, ok := b.entries[key]
	if !ok || e.gen != gen {
		b.mu.Unlock()
		return
	}
	b.takeAndFlushLocked(key, e)
}

// takeAndFlushLocked removes the entry from the live map and hands its
// batch to the flush handler on a new goroutine. Called with b.mu held;
// releases it.
func (b *ConversationBuffer) takeAndFlushLocked(key string, e *entry) {
	delete(b.entries, key)
	texts := e.texts
	dc := e.dc
	b.wg.Add(1)
	b.mu.Unlock()

	go func() {
		defer b.wg.Done()
		defer func() {
			if r := recover(); r != nil {
				b.logger.WithFields(logrus.Fields{
					"key":   key,
					"panic": r,
				}).Error("Recovered from panic during buffer flush")
			}
		}()

		if len(texts) == 0 {
			return
		}

		combined := strings.Join(texts, "\n")
		b.logger.WithFields(logrus.Fields{
			"key":      key,
			"messages": len(texts),
		}).Debug("Flushing conversation buffer")

		b.flush(context.Background(), dc, combined)
	}()
}

// PendingKeys returns the number of conversations currently accumulating.
func (b *ConversationBuffer) PendingKeys() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return len(b.entries)
}

// Shutdown cancels all pending timers, flushes nothing further, and waits
// for in-flight flushes to finish or ctx to expire.
func (b *ConversationBuffer) Shutdown(ctx context.Context) error {
	b.mu.Lock()
	b.closed = true
	for key, e := range b.entries {
		if e.timer != nil {
			e.timer.Stop()
		}
		delete(b.entries, key)
	}
	b.mu.Unlock()

	done := make(chan struct{})
	go func() {
		b.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
