package query

import (
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"tradedeck/internal/models"
)

// Relative date ranges offered by the dashboard. The window is re-evaluated
// against the current time on every query, never cached.
var rangePresets = map[string]time.Duration{
	"1h":  time.Hour,
	"4h":  4 * time.Hour,
	"24h": 24 * time.Hour,
	"7d":  7 * 24 * time.Hour,
	"30d": 30 * 24 * time.Hour,
	"90d": 90 * 24 * time.Hour,
}

var sortKeys = map[string]bool{
	SortByTime:   true,
	SortBySymbol: true,
	SortByStatus: true,
	SortByAmount: true,
	SortByID:     true,
}

// ParamsFromQuery parses the dashboard's query string. Unrecognized or
// malformed values fall back to defaults rather than erroring: a bad filter
// never breaks the view.
func ParamsFromQuery(values url.Values) Params {
	p := Params{
		Search:     strings.TrimSpace(values.Get("search")),
		Directions: splitCSV(values.Get("side")),
		Strategies: splitCSV(values.Get("strategy")),
		SortKey:    SortByTime,
		SortOrder:  "desc",
		Page:       1,
		PageSize:   defaultPageSize,
	}

	for _, s := range splitCSV(values.Get("status")) {
		p.Statuses = append(p.Statuses, models.Status(strings.ToLower(s)))
	}

	if rng := strings.ToLower(values.Get("range")); rng != "" && rng != "all" {
		if window, ok := rangePresets[rng]; ok {
			p.Window = window
		} else if window, err := time.ParseDuration(rng); err == nil && window > 0 {
			p.Window = window
		}
	}

	if raw := values.Get("min_amount"); raw != "" {
		if amt, err := decimal.NewFromString(raw); err == nil {
			p.MinAmount = &amt
		}
	}
	if raw := values.Get("max_amount"); raw != "" {
		if amt, err := decimal.NewFromString(raw); err == nil {
			p.MaxAmount = &amt
		}
	}

	if key := strings.ToLower(values.Get("sort")); sortKeys[key] {
		p.SortKey = key
	}
	if order := strings.ToLower(values.Get("order")); order == "asc" || order == "desc" {
		p.SortOrder = order
	}

	if page, err := strconv.Atoi(values.Get("page")); err == nil && page > 0 {
		p.Page = page
	}
	if size, err := strconv.Atoi(values.Get("page_size")); err == nil && size > 0 {
		p.PageSize = size
	}

	return p
}

func splitCSV(raw string) []string {
	if raw == "" {
		return nil
	}
	parts := strings.Split(raw, ",")
	result := make([]string, 0, len(parts))
	for _, p := range parts {
		if trimmed := strings.TrimSpace(p); trimmed != "" {
			result = append(result, trimmed)
		}
	}
	return result
}
