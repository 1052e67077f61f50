// Package store holds the authoritative in-memory collections that the poll
// and push channels both feed. All mutation funnels through the Engine so
// conflicting writes resolve by per-record last-write-wins on timestamps,
// regardless of which channel delivered them.
package store

import (
	"log"
	"sync"
	"time"

	"github.com/go-playground/validator/v10"

	"tradedeck/internal/lifecycle"
	"tradedeck/internal/metrics"
	"tradedeck/internal/models"
)

type entry struct {
	rec       models.Record
	lastWrite time.Time
}

// ChangeFunc is invoked after every committed upsert so views can re-render.
type ChangeFunc func(kind models.Kind, rec models.Record)

// Engine owns one id-keyed collection per entity kind plus the latest
// account summary. Each upsert is a single synchronous operation under one
// lock, so the poll and push goroutines may interleave freely at
// whole-record granularity.
type Engine struct {
	mu          sync.RWMutex
	collections map[models.Kind]map[string]*entry
	lastSync    map[models.Kind]time.Time
	account     *models.AccountSummary
	accountAsOf time.Time

	subMu       sync.RWMutex
	subscribers []ChangeFunc

	validate *validator.Validate
}

// NewEngine creates an Engine with empty collections for every known kind.
func NewEngine() *Engine {
	collections := make(map[models.Kind]map[string]*entry, len(models.Kinds))
	for _, kind := range models.Kinds {
		collections[kind] = make(map[string]*entry)
	}
	return &Engine{
		collections: collections,
		lastSync:    make(map[models.Kind]time.Time, len(models.Kinds)),
		validate:    validator.New(),
	}
}

// Subscribe registers a change listener. Listeners run outside the engine
// lock and must not block for long.
func (e *Engine) Subscribe(fn ChangeFunc) {
	e.subMu.Lock()
	e.subscribers = append(e.subscribers, fn)
	e.subMu.Unlock()
}

func (e *Engine) notify(kind models.Kind, recs []models.Record) {
	if len(recs) == 0 {
		return
	}
	e.subMu.RLock()
	subs := e.subscribers
	e.subMu.RUnlock()
	for _, fn := range subs {
		for _, rec := range recs {
			fn(kind, rec)
		}
	}
}

// ApplySnapshot merges a full-collection fetch delivered by the poll channel.
// Each record upserts by last-write-wins: an entry already updated by a more
// recent push event is left alone, so a slow poll round-trip never clobbers
// a fresher incremental. Records absent from the snapshot are retained; the
// engine never evicts except through Reset.
func (e *Engine) ApplySnapshot(kind models.Kind, records []models.Record, asOf time.Time) {
	var committed []models.Record

	e.mu.Lock()
	for _, rec := range records {
		if err := e.validateRecord(rec); err != nil {
			log.Printf("store: dropping malformed %s record %q from snapshot: %v", kind, rec.Key(), err)
			metrics.MalformedRecordsDropped.WithLabelValues(string(kind)).Inc()
			continue
		}
		if e.applyLocked(kind, rec, asOf) {
			committed = append(committed, rec)
		}
	}
	if asOf.After(e.lastSync[kind]) {
		e.lastSync[kind] = asOf
	}
	metrics.RecordsInStore.WithLabelValues(string(kind)).Set(float64(len(e.collections[kind])))
	e.mu.Unlock()

	metrics.SnapshotsApplied.WithLabelValues(string(kind)).Inc()
	e.notify(kind, committed)
}

// ApplyIncremental merges a single record delivered by the push channel,
// discarding it as stale when a newer write already exists.
func (e *Engine) ApplyIncremental(kind models.Kind, rec models.Record, asOf time.Time) {
	if err := e.validateRecord(rec); err != nil {
		log.Printf("store: dropping malformed %s event %q: %v", kind, rec.Key(), err)
		metrics.MalformedRecordsDropped.WithLabelValues(string(kind)).Inc()
		return
	}

	e.mu.Lock()
	committed := e.applyLocked(kind, rec, asOf)
	metrics.RecordsInStore.WithLabelValues(string(kind)).Set(float64(len(e.collections[kind])))
	e.mu.Unlock()

	if committed {
		metrics.IncrementalsApplied.WithLabelValues(string(kind)).Inc()
		e.notify(kind, []models.Record{rec})
	}
}

// applyLocked commits a record unless a strictly newer write exists. Equal
// timestamps resolve by arrival order: the later arrival wins, whichever
// channel it came from. Caller must hold e.mu.
func (e *Engine) applyLocked(kind models.Kind, rec models.Record, asOf time.Time) bool {
	col := e.collections[kind]
	cur, exists := col[rec.Key()]
	if exists && cur.lastWrite.After(asOf) {
		metrics.StaleRecordsDropped.WithLabelValues(string(kind)).Inc()
		return false
	}

	if exists {
		from, to := cur.rec.CanonicalStatus(), rec.CanonicalStatus()
		if from != to && !lifecycle.ValidTransition(kind, from, to) {
			// The backend is authoritative, so the write is committed anyway;
			// the anomaly is only surfaced for observability.
			log.Printf("store: unexpected %s transition for %q: %s -> %s", kind, rec.Key(), from, to)
			metrics.LifecycleAnomalies.WithLabelValues(string(kind)).Inc()
		}
	}

	col[rec.Key()] = &entry{rec: rec, lastWrite: asOf}
	return true
}

// SetAccount stores the latest account summary, last-write-wins.
func (e *Engine) SetAccount(summary *models.AccountSummary, asOf time.Time) {
	if summary == nil {
		return
	}
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.account != nil && e.accountAsOf.After(asOf) {
		return
	}
	e.account = summary
	e.accountAsOf = asOf
}

// Account returns the latest account summary, or nil when none has arrived.
func (e *Engine) Account() (*models.AccountSummary, time.Time) {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.account, e.accountAsOf
}

// Records returns a copy of the collection for readers. The records
// themselves are treated as immutable once committed: adapters always
// allocate fresh structs, so sharing them here is safe.
func (e *Engine) Records(kind models.Kind) []models.Record {
	e.mu.RLock()
	defer e.mu.RUnlock()
	col := e.collections[kind]
	out := make([]models.Record, 0, len(col))
	for _, ent := range col {
		out = append(out, ent.rec)
	}
	return out
}

// Len reports the number of records held for a kind.
func (e *Engine) Len(kind models.Kind) int {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return len(e.collections[kind])
}

// LastSyncedAt reports the timestamp of the newest applied snapshot, feeding
// the stale-data indicator.
func (e *Engine) LastSyncedAt(kind models.Kind) time.Time {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.lastSync[kind]
}

// Reset clears one collection. Used on view teardown; this is the only path
// that evicts records.
func (e *Engine) Reset(kind models.Kind) {
	e.mu.Lock()
	e.collections[kind] = make(map[string]*entry)
	delete(e.lastSync, kind)
	metrics.RecordsInStore.WithLabelValues(string(kind)).Set(0)
	e.mu.Unlock()
}

// ResetAll clears every collection and the account summary.
func (e *Engine) ResetAll() {
	for _, kind := range models.Kinds {
		e.Reset(kind)
	}
	e.mu.Lock()
	e.account = nil
	e.accountAsOf = time.Time{}
	e.mu.Unlock()
}
