// Package backend adapts the bot backend's pull and push channels into the
// reconciliation engine's upsert API.
package backend

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/sony/gobreaker"

	"tradedeck/internal/models"
)

// ErrUnauthorized marks an expired or invalid token. It is the one fatal,
// non-retried condition: callers escalate it as a session invalidation
// instead of retrying locally.
var ErrUnauthorized = errors.New("backend: unauthorized")

// Paths for the full-collection pull endpoints, per kind.
var collectionPaths = map[models.Kind]string{
	models.KindSignal: "/api/v1/signals",
	models.KindOrder:  "/api/v1/orders",
	models.KindTrade:  "/api/v1/trades",
}

// Client is the HTTP client for the bot backend. A circuit breaker wraps
// every call so a flapping backend fails fast between poll ticks instead of
// tying up fetches.
type Client struct {
	baseURL    string
	session    *Session
	httpClient *http.Client
	breaker    *gobreaker.CircuitBreaker
}

// NewClient creates a backend client authenticating via the session's token.
func NewClient(baseURL string, session *Session, timeout time.Duration) *Client {
	if timeout <= 0 {
		timeout = 15 * time.Second
	}
	return &Client{
		baseURL:    baseURL,
		session:    session,
		httpClient: &http.Client{Timeout: timeout},
		breaker: gobreaker.NewCircuitBreaker(gobreaker.Settings{
			Name:    "backend",
			Timeout: 30 * time.Second,
			ReadyToTrip: func(counts gobreaker.Counts) bool {
				return counts.ConsecutiveFailures >= 5
			},
		}),
	}
}

// FetchCollection pulls the complete current collection for a resource and
// returns it with canonical statuses populated.
func (c *Client) FetchCollection(ctx context.Context, kind models.Kind) ([]models.Record, error) {
	path, ok := collectionPaths[kind]
	if !ok {
		return nil, fmt.Errorf("unknown resource kind: %s", kind)
	}

	body, err := c.get(ctx, path)
	if err != nil {
		return nil, err
	}
	records, err := DecodeRecords(kind, body)
	if err != nil {
		return nil, fmt.Errorf("failed to decode %s snapshot: %w", kind, err)
	}
	return records, nil
}

// FetchAccount pulls the latest account summary.
func (c *Client) FetchAccount(ctx context.Context) (*models.AccountSummary, error) {
	body, err := c.get(ctx, "/api/v1/account")
	if err != nil {
		return nil, err
	}
	summary, err := DecodeAccount(body)
	if err != nil {
		return nil, fmt.Errorf("failed to decode account summary: %w", err)
	}
	return summary, nil
}

// ApproveSignal asks the backend to approve a pending signal. The effect is
// only observed through a later pull or push record, never applied locally.
func (c *Client) ApproveSignal(ctx context.Context, id string) error {
	return c.post(ctx, "/api/v1/signals/"+id+"/approve")
}

// RejectSignal asks the backend to reject a pending signal.
func (c *Client) RejectSignal(ctx context.Context, id string) error {
	return c.post(ctx, "/api/v1/signals/"+id+"/reject")
}

// CancelOrder asks the backend to cancel an order.
func (c *Client) CancelOrder(ctx context.Context, id string) error {
	return c.post(ctx, "/api/v1/orders/"+id+"/cancel")
}

func (c *Client) get(ctx context.Context, path string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+path, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	resp, err := c.do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response body: %w", err)
	}
	return body, nil
}

func (c *Client) post(ctx context.Context, path string) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, nil)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("X-Request-ID", uuid.NewString())

	resp, err := c.do(req)
	if err != nil {
		return err
	}
	resp.Body.Close()
	return nil
}

// do executes a request through the circuit breaker, tagging authorization
// failures with ErrUnauthorized and treating any other non-2xx as a
// transport error.
func (c *Client) do(req *http.Request) (*http.Response, error) {
	req.Header.Set("Authorization", "Bearer "+c.session.Token())
	req.Header.Set("Accept", "application/json")

	result, err := c.breaker.Execute(func() (interface{}, error) {
		resp, err := c.httpClient.Do(req)
		if err != nil {
			return nil, err
		}
		switch {
		case resp.StatusCode == http.StatusUnauthorized || resp.StatusCode == http.StatusForbidden:
			resp.Body.Close()
			return nil, ErrUnauthorized
		case resp.StatusCode < 200 || resp.StatusCode > 299:
			resp.Body.Close()
			return nil, fmt.Errorf("backend returned status %d for %s", resp.StatusCode, req.URL.Path)
		}
		return resp, nil
	})
	if err != nil {
		return nil, err
	}
	return result.(*http.Response), nil
}
