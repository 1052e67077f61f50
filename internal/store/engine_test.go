package store

import (
	"sync"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"tradedeck/internal/lifecycle"
	"tradedeck/internal/models"
)

// ---------------------------------------------------------------------------
// Helpers
// ---------------------------------------------------------------------------

var baseTime = time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)

func at(offset int) time.Time {
	return baseTime.Add(time.Duration(offset) * time.Second)
}

func newSignal(id, rawStatus string) *models.Signal {
	return &models.Signal{
		ID:        id,
		Symbol:    "AAPL",
		Action:    "BUY",
		RawStatus: rawStatus,
		Status:    lifecycle.Normalize(models.KindSignal, rawStatus),
		CreatedAt: baseTime,
	}
}

func newOrder(id string, requested, filled int64, avgFill string) *models.Order {
	o := &models.Order{
		ID:           id,
		Symbol:       "AAPL",
		Side:         "buy",
		Type:         "limit",
		RequestedQty: decimal.NewFromInt(requested),
		FilledQty:    decimal.NewFromInt(filled),
		RawStatus:    "accepted",
		Status:       models.StatusAccepted,
		SubmittedAt:  baseTime,
	}
	if avgFill != "" {
		price, err := decimal.NewFromString(avgFill)
		if err != nil {
			panic(err)
		}
		o.AvgFillPrice = &price
	}
	return o
}

func newOpenTrade(id string) *models.Trade {
	return &models.Trade{
		ID:         id,
		Symbol:     "AAPL",
		Action:     "BUY",
		Quantity:   decimal.NewFromInt(10),
		EntryPrice: decimal.NewFromFloat(185.50),
		RawStatus:  "open",
		Status:     models.StatusOpen,
		OpenedAt:   baseTime,
	}
}

func newClosedTrade(id string) *models.Trade {
	t := newOpenTrade(id)
	exit := decimal.NewFromFloat(190.00)
	pnl := decimal.NewFromFloat(45.00)
	closedAt := baseTime.Add(time.Hour)
	t.RawStatus = "closed"
	t.Status = models.StatusClosed
	t.ExitPrice = &exit
	t.RealizedPnL = &pnl
	t.ClosedAt = &closedAt
	return t
}

func signalStatus(t *testing.T, e *Engine, id string) models.Status {
	t.Helper()
	for _, rec := range e.Records(models.KindSignal) {
		if rec.Key() == id {
			return rec.CanonicalStatus()
		}
	}
	t.Fatalf("signal %s not found", id)
	return ""
}

// ---------------------------------------------------------------------------
// Snapshot / incremental merge semantics
// ---------------------------------------------------------------------------

func TestEngine_ApplySnapshot_PopulatesCollection(t *testing.T) {
	e := NewEngine()

	e.ApplySnapshot(models.KindSignal, []models.Record{
		newSignal("sig-1", "pending"),
		newSignal("sig-2", "executed"),
	}, at(0))

	assert.Equal(t, 2, e.Len(models.KindSignal))
	assert.Equal(t, models.StatusPending, signalStatus(t, e, "sig-1"))
	assert.Equal(t, models.StatusFilled, signalStatus(t, e, "sig-2"))
	assert.Equal(t, at(0), e.LastSyncedAt(models.KindSignal))
}

func TestEngine_LateSnapshotDoesNotClobberFresherIncremental(t *testing.T) {
	e := NewEngine()

	// Snapshot at t=100 delivers pending.
	e.ApplySnapshot(models.KindSignal, []models.Record{newSignal("sig-1", "pending")}, at(100))
	// Push event at t=105 says executed.
	e.ApplyIncremental(models.KindSignal, newSignal("sig-1", "executed"), at(105))
	require.Equal(t, models.StatusFilled, signalStatus(t, e, "sig-1"))

	// A slow poll round-trip re-delivering the old state must not win.
	e.ApplySnapshot(models.KindSignal, []models.Record{newSignal("sig-1", "pending")}, at(100))
	assert.Equal(t, models.StatusFilled, signalStatus(t, e, "sig-1"))
}

func TestEngine_ApplyIncremental_StaleEventDiscarded(t *testing.T) {
	e := NewEngine()

	e.ApplyIncremental(models.KindSignal, newSignal("sig-1", "executed"), at(105))
	e.ApplyIncremental(models.KindSignal, newSignal("sig-1", "pending"), at(100))

	assert.Equal(t, models.StatusFilled, signalStatus(t, e, "sig-1"))
	assert.Equal(t, 1, e.Len(models.KindSignal))
}

func TestEngine_ApplyIncremental_Idempotent(t *testing.T) {
	e := NewEngine()
	event := newSignal("sig-1", "approved")

	e.ApplyIncremental(models.KindSignal, event, at(50))
	e.ApplyIncremental(models.KindSignal, event, at(50))

	assert.Equal(t, 1, e.Len(models.KindSignal))
	assert.Equal(t, models.StatusAccepted, signalStatus(t, e, "sig-1"))
}

func TestEngine_FinalStateIndependentOfArrivalOrder(t *testing.T) {
	// Confluence: with distinct timestamps, the record with the maximum
	// asOf wins no matter which channel delivered it, or in what order.
	updates := []struct {
		raw  string
		asOf time.Time
	}{
		{"pending", at(10)},
		{"approved", at(20)},
		{"executed", at(30)},
	}

	forward := NewEngine()
	for _, u := range updates {
		forward.ApplyIncremental(models.KindSignal, newSignal("sig-1", u.raw), u.asOf)
	}

	reversed := NewEngine()
	for i := len(updates) - 1; i >= 0; i-- {
		u := updates[i]
		reversed.ApplyIncremental(models.KindSignal, newSignal("sig-1", u.raw), u.asOf)
	}

	mixed := NewEngine()
	mixed.ApplySnapshot(models.KindSignal, []models.Record{newSignal("sig-1", "approved")}, at(20))
	mixed.ApplyIncremental(models.KindSignal, newSignal("sig-1", "executed"), at(30))
	mixed.ApplySnapshot(models.KindSignal, []models.Record{newSignal("sig-1", "pending")}, at(10))

	for name, e := range map[string]*Engine{"forward": forward, "reversed": reversed, "mixed": mixed} {
		assert.Equal(t, models.StatusFilled, signalStatus(t, e, "sig-1"), name)
	}
}

func TestEngine_EqualTimestampsLaterArrivalWins(t *testing.T) {
	// Channel-agnostic tie-break: identical timestamps resolve by arrival
	// order, regardless of which channel delivered the record.
	e := NewEngine()
	e.ApplySnapshot(models.KindSignal, []models.Record{newSignal("sig-1", "pending")}, at(100))
	e.ApplyIncremental(models.KindSignal, newSignal("sig-1", "approved"), at(100))

	assert.Equal(t, models.StatusAccepted, signalStatus(t, e, "sig-1"))
}

func TestEngine_SnapshotRetainsRecordsAbsentFromIt(t *testing.T) {
	// The engine never age-evicts: only Reset removes records.
	e := NewEngine()
	e.ApplySnapshot(models.KindSignal, []models.Record{newSignal("sig-1", "pending")}, at(0))
	e.ApplySnapshot(models.KindSignal, []models.Record{newSignal("sig-2", "pending")}, at(10))

	assert.Equal(t, 2, e.Len(models.KindSignal))
}

// ---------------------------------------------------------------------------
// Validation
// ---------------------------------------------------------------------------

func TestEngine_MalformedSignalDropped(t *testing.T) {
	e := NewEngine()

	missingSymbol := newSignal("sig-1", "pending")
	missingSymbol.Symbol = ""
	badAction := newSignal("sig-2", "pending")
	badAction.Action = "HOLD"

	e.ApplySnapshot(models.KindSignal, []models.Record{
		missingSymbol,
		badAction,
		newSignal("sig-3", "pending"),
	}, at(0))

	// The bad records are dropped; the good one still lands.
	assert.Equal(t, 1, e.Len(models.KindSignal))
	assert.Equal(t, models.StatusPending, signalStatus(t, e, "sig-3"))
}

func TestEngine_OrderOverfillRejected(t *testing.T) {
	e := NewEngine()

	e.ApplyIncremental(models.KindOrder, newOrder("A", 100, 40, "150.10"), at(0))
	e.ApplyIncremental(models.KindOrder, newOrder("A", 100, 100, "150.25"), at(10))

	// An update exceeding the requested quantity must not be silently
	// accepted: it is dropped and the last good state survives.
	e.ApplyIncremental(models.KindOrder, newOrder("A", 100, 120, "150.25"), at(20))

	records := e.Records(models.KindOrder)
	require.Len(t, records, 1)
	order := records[0].(*models.Order)
	assert.True(t, order.FilledQty.Equal(decimal.NewFromInt(100)))
	require.NotNil(t, order.AvgFillPrice)
	assert.True(t, order.AvgFillPrice.Equal(decimal.RequireFromString("150.25")))
}

func TestEngine_OrderFillPriceInvariant(t *testing.T) {
	e := NewEngine()

	// Filled without a fill price, and a fill price without fills: both malformed.
	e.ApplyIncremental(models.KindOrder, newOrder("B", 100, 40, ""), at(0))
	e.ApplyIncremental(models.KindOrder, newOrder("C", 100, 0, "10.00"), at(0))

	assert.Equal(t, 0, e.Len(models.KindOrder))
}

func TestEngine_TradePartialCloseRejected(t *testing.T) {
	e := NewEngine()

	e.ApplyIncremental(models.KindTrade, newOpenTrade("T1"), at(0))

	// Closing requires exit price, close time, and realized P&L together.
	partial := newOpenTrade("T1")
	closedAt := baseTime.Add(time.Hour)
	partial.RawStatus = "closed"
	partial.Status = models.StatusClosed
	partial.ClosedAt = &closedAt
	e.ApplyIncremental(models.KindTrade, partial, at(10))

	records := e.Records(models.KindTrade)
	require.Len(t, records, 1)
	assert.Equal(t, models.StatusOpen, records[0].CanonicalStatus())

	// The fully-populated close goes through.
	e.ApplyIncremental(models.KindTrade, newClosedTrade("T1"), at(20))
	records = e.Records(models.KindTrade)
	require.Len(t, records, 1)
	assert.Equal(t, models.StatusClosed, records[0].CanonicalStatus())
}

// ---------------------------------------------------------------------------
// Lifecycle anomalies
// ---------------------------------------------------------------------------

func TestEngine_IllegalTransitionCommittedAnyway(t *testing.T) {
	// The backend is authoritative: a closed trade reverting to open is
	// flagged for observability but the write still lands, so the client
	// never silently diverges from the backend's view.
	e := NewEngine()

	e.ApplyIncremental(models.KindTrade, newClosedTrade("T1"), at(0))
	e.ApplyIncremental(models.KindTrade, newOpenTrade("T1"), at(10))

	records := e.Records(models.KindTrade)
	require.Len(t, records, 1)
	assert.Equal(t, models.StatusOpen, records[0].CanonicalStatus())
}

// ---------------------------------------------------------------------------
// Notifications, reset, account
// ---------------------------------------------------------------------------

func TestEngine_SubscribersNotifiedOnCommit(t *testing.T) {
	e := NewEngine()

	var mu sync.Mutex
	var seen []string
	e.Subscribe(func(kind models.Kind, rec models.Record) {
		mu.Lock()
		seen = append(seen, string(kind)+"/"+rec.Key())
		mu.Unlock()
	})

	e.ApplySnapshot(models.KindSignal, []models.Record{
		newSignal("sig-1", "pending"),
		newSignal("sig-2", "pending"),
	}, at(0))
	e.ApplyIncremental(models.KindSignal, newSignal("sig-1", "approved"), at(10))

	// A stale event commits nothing, so it must not notify.
	e.ApplyIncremental(models.KindSignal, newSignal("sig-1", "pending"), at(5))

	mu.Lock()
	defer mu.Unlock()
	assert.ElementsMatch(t, []string{"signals/sig-1", "signals/sig-2", "signals/sig-1"}, seen)
}

func TestEngine_Reset(t *testing.T) {
	e := NewEngine()
	e.ApplySnapshot(models.KindSignal, []models.Record{newSignal("sig-1", "pending")}, at(0))
	e.ApplySnapshot(models.KindOrder, []models.Record{newOrder("A", 100, 0, "")}, at(0))

	e.Reset(models.KindSignal)

	assert.Equal(t, 0, e.Len(models.KindSignal))
	assert.True(t, e.LastSyncedAt(models.KindSignal).IsZero())
	assert.Equal(t, 1, e.Len(models.KindOrder), "other collections untouched")
}

func TestEngine_SetAccount_LastWriteWins(t *testing.T) {
	e := NewEngine()

	e.SetAccount(&models.AccountSummary{Cash: decimal.NewFromInt(1000)}, at(10))
	e.SetAccount(&models.AccountSummary{Cash: decimal.NewFromInt(500)}, at(5))

	summary, asOf := e.Account()
	require.NotNil(t, summary)
	assert.True(t, summary.Cash.Equal(decimal.NewFromInt(1000)))
	assert.Equal(t, at(10), asOf)
}

func TestEngine_ConcurrentUpserts(t *testing.T) {
	// Poll and push goroutines interleave through the same engine; every
	// record must land exactly once with the freshest status.
	e := NewEngine()

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(2)
		go func(i int) {
			defer wg.Done()
			e.ApplySnapshot(models.KindSignal, []models.Record{newSignal("sig-1", "pending")}, at(i))
		}(i)
		go func(i int) {
			defer wg.Done()
			e.ApplyIncremental(models.KindSignal, newSignal("sig-1", "executed"), at(100+i))
		}(i)
	}
	wg.Wait()

	assert.Equal(t, 1, e.Len(models.KindSignal))
	assert.Equal(t, models.StatusFilled, signalStatus(t, e, "sig-1"))
}
