package api

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/gorilla/mux"

	"tradedeck/internal/backend"
	"tradedeck/internal/models"
	"tradedeck/internal/query"
	"tradedeck/internal/store"
)

// Handler holds dependencies for HTTP handlers
type Handler struct {
	engine    *store.Engine
	client    *backend.Client
	session   *backend.Session
	intervals map[models.Kind]time.Duration
}

// NewHandler creates a new Handler. intervals are the per-resource poll
// intervals, used to derive the stale-data indicator.
func NewHandler(engine *store.Engine, client *backend.Client, session *backend.Session, intervals map[models.Kind]time.Duration) *Handler {
	return &Handler{
		engine:    engine,
		client:    client,
		session:   session,
		intervals: intervals,
	}
}

type listResponse struct {
	Items      []models.Record `json:"items"`
	TotalCount int             `json:"total_count"`
	Page       int             `json:"page"`
	PageSize   int             `json:"page_size"`
	Stale      bool            `json:"stale"`
}

// ListSignals handles GET /api/v1/signals
func (h *Handler) ListSignals(w http.ResponseWriter, r *http.Request) {
	h.listCollection(w, r, models.KindSignal)
}

// ListOrders handles GET /api/v1/orders
func (h *Handler) ListOrders(w http.ResponseWriter, r *http.Request) {
	h.listCollection(w, r, models.KindOrder)
}

// ListTrades handles GET /api/v1/trades
func (h *Handler) ListTrades(w http.ResponseWriter, r *http.Request) {
	h.listCollection(w, r, models.KindTrade)
}

func (h *Handler) listCollection(w http.ResponseWriter, r *http.Request, kind models.Kind) {
	params := query.ParamsFromQuery(r.URL.Query())
	result := query.Run(h.engine.Records(kind), params, time.Now())

	respondJSON(w, http.StatusOK, listResponse{
		Items:      result.Items,
		TotalCount: result.TotalCount,
		Page:       params.Page,
		PageSize:   params.PageSize,
		Stale:      h.stale(kind),
	})
}

// GetAccount handles GET /api/v1/account
func (h *Handler) GetAccount(w http.ResponseWriter, r *http.Request) {
	summary, asOf := h.engine.Account()
	if summary == nil {
		http.Error(w, "account summary not yet available", http.StatusNotFound)
		return
	}
	respondJSON(w, http.StatusOK, map[string]interface{}{
		"account": summary,
		"as_of":   asOf.UTC().Format(time.RFC3339),
		"stale":   !h.session.Valid(),
	})
}

// ApproveSignal handles POST /api/v1/signals/{id}/approve. The command is
// fire-and-forget: its effect shows up via a later pull or push record.
func (h *Handler) ApproveSignal(w http.ResponseWriter, r *http.Request) {
	h.command(w, r, h.client.ApproveSignal)
}

// RejectSignal handles POST /api/v1/signals/{id}/reject
func (h *Handler) RejectSignal(w http.ResponseWriter, r *http.Request) {
	h.command(w, r, h.client.RejectSignal)
}

// CancelOrder handles POST /api/v1/orders/{id}/cancel
func (h *Handler) CancelOrder(w http.ResponseWriter, r *http.Request) {
	h.command(w, r, h.client.CancelOrder)
}

func (h *Handler) command(w http.ResponseWriter, r *http.Request, send func(ctx context.Context, id string) error) {
	id := mux.Vars(r)["id"]
	if id == "" {
		http.Error(w, "id is required", http.StatusBadRequest)
		return
	}

	if err := send(r.Context(), id); err != nil {
		if errors.Is(err, backend.ErrUnauthorized) {
			h.session.Invalidate(err)
			http.Error(w, "backend rejected credentials", http.StatusUnauthorized)
			return
		}
		http.Error(w, err.Error(), http.StatusBadGateway)
		return
	}

	respondJSON(w, http.StatusAccepted, map[string]string{"status": "accepted", "id": id})
}

// HealthCheck handles GET /health
func (h *Handler) HealthCheck(w http.ResponseWriter, r *http.Request) {
	health := map[string]interface{}{
		"status":    "healthy",
		"timestamp": time.Now().UTC().Format(time.RFC3339),
		"session":   "valid",
		"resources": map[string]interface{}{},
	}

	if !h.session.Valid() {
		health["status"] = "degraded"
		health["session"] = "invalid"
		if at, reason := h.session.Reason(); reason != nil {
			health["session_error"] = reason.Error()
			health["session_invalidated_at"] = at.UTC().Format(time.RFC3339)
		}
	}

	resources := health["resources"].(map[string]interface{})
	for _, kind := range models.Kinds {
		entry := map[string]interface{}{
			"records": h.engine.Len(kind),
			"stale":   h.stale(kind),
		}
		if last := h.engine.LastSyncedAt(kind); !last.IsZero() {
			entry["last_synced_at"] = last.UTC().Format(time.RFC3339)
		}
		if entry["stale"].(bool) {
			health["status"] = "degraded"
		}
		resources[string(kind)] = entry
	}

	respondJSON(w, http.StatusOK, health)
}

// stale reports whether a resource's view can no longer be trusted: the
// session is invalid, or the last successful snapshot is older than twice
// the poll interval.
func (h *Handler) stale(kind models.Kind) bool {
	if !h.session.Valid() {
		return true
	}
	last := h.engine.LastSyncedAt(kind)
	if last.IsZero() {
		return true
	}
	interval, ok := h.intervals[kind]
	if !ok || interval <= 0 {
		return false
	}
	return time.Since(last) > 2*interval
}

func respondJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}
