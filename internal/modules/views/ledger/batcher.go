package ledger

import (
	"context"
	"sync"
	"time"

	"github.com/fadl200/suaqiraq-sub000/internal/modules/views/domain"
	"github.com/gaborage/go-bricks/logger"
	"github.com/jonboulle/clockwork"
)

// BatchTracker applies queued visits in one write.
type BatchTracker interface {
	TrackBatch(ctx context.Context, visits []domain.Visit) []domain.TrackResult
}

type visitKey struct {
	productID string
	visitorID string
}

// Batcher collects visits and hands them to the ledger once no new visit has
// arrived for the debounce delay. Duplicate (product, visitor) pairs are
// queued once.
type Batcher struct {
	mu      sync.Mutex
	tracker BatchTracker
	clock   clockwork.Clock
	delay   time.Duration
	logger  logger.Logger

	pending []domain.Visit
	queued  map[visitKey]struct{}
	timer   clockwork.Timer
	closed  bool
}

func NewBatcher(tracker BatchTracker, clock clockwork.Clock, delay time.Duration, log logger.Logger) *Batcher {
	return &Batcher{
		tracker: tracker,
		clock:   clock,
		delay:   delay,
		logger:  log,
		queued:  map[visitKey]struct{}{},
	}
}

// QueueView adds the visit and restarts the debounce timer.
// It reports false when the visit was already queued or the batcher is closed.
func (b *Batcher) QueueView(v domain.Visit) bool {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.closed {
		return false
	}

	key := visitKey{productID: v.ProductID, visitorID: v.VisitorID}
	_, dup := b.queued[key]
	if !dup {
		b.queued[key] = struct{}{}
		b.pending = append(b.pending, v)
	}

	if b.timer != nil {
		b.timer.Stop()
	}
	b.timer = b.clock.AfterFunc(b.delay, b.onTimer)
	return !dup
}

func (b *Batcher) onTimer() {
	b.mu.Lock()
	b.timer = nil
	b.mu.Unlock()
	b.Flush(context.Background())
}

// Pending returns the number of queued visits.
func (b *Batcher) Pending() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return len(b.pending)
}

// Flush tracks every queued visit now and returns how many were recorded.
func (b *Batcher) Flush(ctx context.Context) int {
	b.mu.Lock()
	if b.timer != nil {
		b.timer.Stop()
		b.timer = nil
	}
	batch := b.pending
	b.pending = nil
	b.queued = map[visitKey]struct{}{}
	b.mu.Unlock()

	if len(batch) == 0 {
		return 0
	}

	recorded := 0
	for _, r := range b.tracker.TrackBatch(ctx, batch) {
		if r.Recorded {
			recorded++
		}
	}
	b.logger.Debug().
		Int("queued", len(batch)).
		Int("recorded", recorded).
		Msg("Flushed queued views")
	return recorded
}

// Close stops the timer and flushes what is left. Later QueueView calls are ignored.
func (b *Batcher) Close(ctx context.Context) int {
	b.mu.Lock()
	b.closed = true
	b.mu.Unlock()
	return b.Flush(ctx)
}
