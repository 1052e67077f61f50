// Package query derives the paged view model the dashboard renders: a pure
// filter/sort/paginate transformation over a reconciled collection.
package query

import (
	"sort"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"tradedeck/internal/models"
)

// Sort keys accepted by Run. Anything else falls back to SortByTime.
const (
	SortByTime   = "time"
	SortBySymbol = "symbol"
	SortByStatus = "status"
	SortByAmount = "amount"
	SortByID     = "id"
)

// Params describe one query. Multi-valued filters are OR within the field
// and AND across fields; an empty list places no restriction on that field.
type Params struct {
	Search     string
	Statuses   []models.Status
	Directions []string
	Strategies []string

	// Window restricts records to the last Window of time, measured against
	// the `now` passed to Run so relative ranges re-evaluate on every call.
	// Zero means no restriction.
	Window time.Duration

	MinAmount *decimal.Decimal
	MaxAmount *decimal.Decimal

	SortKey   string
	SortOrder string // "asc" or "desc"

	Page     int // 1-indexed
	PageSize int
}

// Result is the paged view model consumed by presentation.
type Result struct {
	Items      []models.Record `json:"items"`
	TotalCount int             `json:"total_count"`
}

const (
	defaultPageSize = 25
	maxPageSize     = 200
)

// Run applies search, filters, sorting, and pagination. It never mutates the
// input slice and never errors: a page beyond the end simply yields no items
// with the correct total count.
func Run(records []models.Record, p Params, now time.Time) Result {
	matched := make([]models.Record, 0, len(records))
	for _, rec := range records {
		if matches(rec, p, now) {
			matched = append(matched, rec)
		}
	}

	sortRecords(matched, p.SortKey, p.SortOrder == "desc")

	page := p.Page
	if page < 1 {
		page = 1
	}
	size := p.PageSize
	if size < 1 {
		size = defaultPageSize
	}
	if size > maxPageSize {
		size = maxPageSize
	}

	start := (page - 1) * size
	if start >= len(matched) {
		return Result{Items: []models.Record{}, TotalCount: len(matched)}
	}
	end := start + size
	if end > len(matched) {
		end = len(matched)
	}
	return Result{Items: matched[start:end], TotalCount: len(matched)}
}

func matches(rec models.Record, p Params, now time.Time) bool {
	if p.Search != "" && !matchesSearch(rec, p.Search) {
		return false
	}
	if len(p.Statuses) > 0 && !containsStatus(p.Statuses, rec.CanonicalStatus()) {
		return false
	}
	if len(p.Directions) > 0 && !containsFold(p.Directions, rec.Direction()) {
		return false
	}
	if len(p.Strategies) > 0 && !containsFold(p.Strategies, rec.StrategyRef()) {
		return false
	}
	if p.Window > 0 && rec.EventTime().Before(now.Add(-p.Window)) {
		return false
	}
	if p.MinAmount != nil && rec.Amount().LessThan(*p.MinAmount) {
		return false
	}
	if p.MaxAmount != nil && rec.Amount().GreaterThan(*p.MaxAmount) {
		return false
	}
	return true
}

func matchesSearch(rec models.Record, search string) bool {
	needle := strings.ToLower(search)
	for _, field := range rec.SearchFields() {
		if strings.Contains(strings.ToLower(field), needle) {
			return true
		}
	}
	return false
}

func containsStatus(statuses []models.Status, status models.Status) bool {
	for _, s := range statuses {
		if s == status {
			return true
		}
	}
	return false
}

func containsFold(values []string, value string) bool {
	for _, v := range values {
		if strings.EqualFold(v, value) {
			return true
		}
	}
	return false
}

// sortRecords sorts in place, stable, with id ascending as the tie-break so
// pagination is deterministic across repeated calls on an unchanged
// collection. Descending order inverts the primary key only, never the
// tie-break.
func sortRecords(records []models.Record, key string, desc bool) {
	sort.SliceStable(records, func(i, j int) bool {
		c := compareRecords(records[i], records[j], key)
		if desc {
			c = -c
		}
		if c != 0 {
			return c < 0
		}
		return records[i].Key() < records[j].Key()
	})
}

func compareRecords(a, b models.Record, key string) int {
	switch key {
	case SortBySymbol:
		return strings.Compare(a.Instrument(), b.Instrument())
	case SortByStatus:
		return strings.Compare(string(a.CanonicalStatus()), string(b.CanonicalStatus()))
	case SortByAmount:
		return a.Amount().Cmp(b.Amount())
	case SortByID:
		return strings.Compare(a.Key(), b.Key())
	default:
		return a.EventTime().Compare(b.EventTime())
	}
}
