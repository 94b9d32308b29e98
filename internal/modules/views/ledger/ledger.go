// Package ledger counts product views per visitor with a cooldown window and
// keeps running totals and daily buckets in the key-value store.
package ledger

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/fadl200/suaqiraq-sub000/internal/modules/shared/kvstore"
	"github.com/fadl200/suaqiraq-sub000/internal/modules/views/domain"
	"github.com/gaborage/go-bricks/logger"
	"github.com/google/uuid"
	"github.com/jonboulle/clockwork"
)

const (
	RecordsKey = "view_records"
	CountsKey  = "view_counts"
	DailyKey   = "view_daily"
)

// Config bounds the ledger.
type Config struct {
	Cooldown   time.Duration
	HistoryMax int
	DailyDays  int
}

// DefaultConfig is a 24 hour cooldown, 1000 retained records and a year of daily buckets.
var DefaultConfig = Config{
	Cooldown:   24 * time.Hour,
	HistoryMax: 1000,
	DailyDays:  365,
}

type dailyBuckets map[string]map[string]int64

type state struct {
	records []domain.ViewRecord
	counts  map[string]domain.ViewCounter
	daily   dailyBuckets
}

// Ledger is safe for concurrent use. Every mutation loads, changes and saves
// the whole ledger under one lock.
type Ledger struct {
	mu     sync.Mutex
	store  kvstore.Store
	clock  clockwork.Clock
	cfg    Config
	logger logger.Logger
}

func New(store kvstore.Store, clock clockwork.Clock, cfg Config, log logger.Logger) *Ledger {
	return &Ledger{
		store:  store,
		clock:  clock,
		cfg:    cfg,
		logger: log,
	}
}

// TrackView counts the visit unless the same visitor viewed the product within
// the cooldown. Storage failures are logged and reported as {false, 0}.
func (l *Ledger) TrackView(ctx context.Context, v domain.Visit) domain.TrackResult {
	return l.TrackBatch(ctx, []domain.Visit{v})[0]
}

// TrackBatch applies several visits with a single load and save.
func (l *Ledger) TrackBatch(ctx context.Context, visits []domain.Visit) []domain.TrackResult {
	results := make([]domain.TrackResult, len(visits))
	if len(visits) == 0 {
		return results
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	st, err := l.load(ctx)
	if err != nil {
		l.logger.Warn().Err(err).Int("visits", len(visits)).Msg("View ledger unavailable, visits not tracked")
		return results
	}

	now := l.clock.Now()
	changed := false
	for i, v := range visits {
		results[i] = l.apply(st, v, now)
		changed = changed || results[i].Recorded
	}
	if !changed {
		return results
	}

	l.pruneDaily(st.daily, now)
	if err := l.save(ctx, st); err != nil {
		l.logger.Warn().Err(err).Int("visits", len(visits)).Msg("View ledger not persisted")
		return make([]domain.TrackResult, len(visits))
	}
	return results
}

func (l *Ledger) apply(st *state, v domain.Visit, now time.Time) domain.TrackResult {
	counter := st.counts[v.ProductID]
	if l.viewedWithin(st.records, v.ProductID, v.VisitorID, now) {
		return domain.TrackResult{Recorded: false, ViewCount: counter.TotalViews}
	}

	st.records = append(st.records, domain.ViewRecord{
		ID:        uuid.New().String(),
		ProductID: v.ProductID,
		ViewerID:  v.VisitorID,
		ViewedAt:  now,
		SessionID: v.SessionID,
	})
	if over := len(st.records) - l.cfg.HistoryMax; over > 0 {
		st.records = append([]domain.ViewRecord(nil), st.records[over:]...)
	}

	counter.ProductID = v.ProductID
	counter.TotalViews++
	if !counter.LastUpdated.IsZero() && domain.SameDay(counter.LastUpdated, now) {
		counter.TodayViews++
	} else {
		counter.TodayViews = 1
	}
	counter.LastUpdated = now
	st.counts[v.ProductID] = counter

	day := now.Format(time.DateOnly)
	if st.daily[day] == nil {
		st.daily[day] = map[string]int64{}
	}
	st.daily[day][v.ProductID]++

	return domain.TrackResult{Recorded: true, ViewCount: counter.TotalViews}
}

// viewedWithin checks the most recent record for the pair. Records are
// appended in time order, so the last match is the newest.
func (l *Ledger) viewedWithin(records []domain.ViewRecord, productID, visitorID string, now time.Time) bool {
	for i := len(records) - 1; i >= 0; i-- {
		r := records[i]
		if r.ProductID == productID && r.ViewerID == visitorID {
			return now.Sub(r.ViewedAt) < l.cfg.Cooldown
		}
	}
	return false
}

func (l *Ledger) pruneDaily(daily dailyBuckets, now time.Time) {
	oldest := now.AddDate(0, 0, -(l.cfg.DailyDays - 1)).Format(time.DateOnly)
	for day := range daily {
		if day < oldest {
			delete(daily, day)
		}
	}
}

// WasViewedByVisitor reports whether the visitor's last view of the product is
// still inside the cooldown. It never mutates the ledger.
func (l *Ledger) WasViewedByVisitor(ctx context.Context, productID, visitorID string) bool {
	l.mu.Lock()
	defer l.mu.Unlock()

	var records []domain.ViewRecord
	if _, err := kvstore.GetJSON(ctx, l.store, RecordsKey, &records); err != nil {
		return false
	}
	return l.viewedWithin(records, productID, visitorID, l.clock.Now())
}

// Counter returns the product's totals. TodayViews is zero when the last
// counted view happened on an earlier day.
func (l *Ledger) Counter(ctx context.Context, productID string) domain.ViewCounter {
	l.mu.Lock()
	defer l.mu.Unlock()

	counts := map[string]domain.ViewCounter{}
	if _, err := kvstore.GetJSON(ctx, l.store, CountsKey, &counts); err != nil {
		l.logger.Debug().Err(err).Str("productId", productID).Msg("View counts unavailable")
	}

	c, ok := counts[productID]
	if !ok {
		return domain.ViewCounter{ProductID: productID}
	}
	if !domain.SameDay(c.LastUpdated, l.clock.Now()) {
		c.TodayViews = 0
	}
	return c
}

// Daily returns the per-product counts of the retained days, oldest first.
func (l *Ledger) Daily(ctx context.Context) ([]domain.DailyViews, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	daily := dailyBuckets{}
	if _, err := kvstore.GetJSON(ctx, l.store, DailyKey, &daily); err != nil {
		return nil, err
	}

	var out []domain.DailyViews
	for day, products := range daily {
		for productID, views := range products {
			out = append(out, domain.DailyViews{Day: day, ProductID: productID, Views: views})
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Day != out[j].Day {
			return out[i].Day < out[j].Day
		}
		return out[i].ProductID < out[j].ProductID
	})
	return out, nil
}

// ProductHistory returns the product's views for each of the last days days,
// oldest first, with zero for days without views.
func (l *Ledger) ProductHistory(ctx context.Context, productID string, days int) []domain.DailyViews {
	l.mu.Lock()
	defer l.mu.Unlock()

	if days <= 0 || days > l.cfg.DailyDays {
		days = l.cfg.DailyDays
	}

	daily := dailyBuckets{}
	if _, err := kvstore.GetJSON(ctx, l.store, DailyKey, &daily); err != nil {
		l.logger.Debug().Err(err).Str("productId", productID).Msg("Daily views unavailable")
	}

	now := l.clock.Now()
	out := make([]domain.DailyViews, days)
	for i := range days {
		day := now.AddDate(0, 0, i-days+1).Format(time.DateOnly)
		out[i] = domain.DailyViews{Day: day, ProductID: productID, Views: daily[day][productID]}
	}
	return out
}

func (l *Ledger) load(ctx context.Context) (*state, error) {
	st := &state{}
	found, err := kvstore.GetJSON(ctx, l.store, RecordsKey, &st.records)
	if err != nil {
		return nil, err
	}
	if !found {
		st.records = nil
	}

	// Absent or corrupt documents start over empty.
	if found, err = kvstore.GetJSON(ctx, l.store, CountsKey, &st.counts); err != nil {
		return nil, err
	}
	if !found || st.counts == nil {
		st.counts = map[string]domain.ViewCounter{}
	}

	if found, err = kvstore.GetJSON(ctx, l.store, DailyKey, &st.daily); err != nil {
		return nil, err
	}
	if !found || st.daily == nil {
		st.daily = dailyBuckets{}
	}
	return st, nil
}

// save writes the records last, so a failed write can let a repeat visit count
// again but never leaves a visit deduplicated without being counted.
func (l *Ledger) save(ctx context.Context, st *state) error {
	if err := kvstore.SetJSON(ctx, l.store, CountsKey, st.counts); err != nil {
		return err
	}
	if err := kvstore.SetJSON(ctx, l.store, DailyKey, st.daily); err != nil {
		return err
	}
	return kvstore.SetJSON(ctx, l.store, RecordsKey, st.records)
}
