package backend

import (
	"context"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"tradedeck/internal/models"
)

func newTestClient(t *testing.T, handler http.HandlerFunc) (*Client, *Session) {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	session := NewSession("test-token")
	return NewClient(srv.URL, session, 5*time.Second), session
}

func TestClient_FetchCollection_SendsBearerAndNormalizes(t *testing.T) {
	client, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/v1/signals", r.URL.Path)
		assert.Equal(t, "Bearer test-token", r.Header.Get("Authorization"))
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`[
			{"id":"sig-1","symbol":"AAPL","action":"BUY","status":"PENDING","created_at":"2025-06-01T12:00:00Z"},
			{"id":"sig-2","symbol":"TSLA","action":"SELL","status":"executed","created_at":"2025-06-01T12:01:00Z"}
		]`))
	})

	records, err := client.FetchCollection(context.Background(), models.KindSignal)
	require.NoError(t, err)
	require.Len(t, records, 2)
	assert.Equal(t, models.StatusPending, records[0].CanonicalStatus())
	assert.Equal(t, models.StatusFilled, records[1].CanonicalStatus())
}

func TestClient_FetchCollection_UnknownKind(t *testing.T) {
	client, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		t.Fatal("no request expected")
	})

	_, err := client.FetchCollection(context.Background(), models.Kind("positions"))
	assert.Error(t, err)
}

func TestClient_UnauthorizedMapsToSentinel(t *testing.T) {
	for _, code := range []int{http.StatusUnauthorized, http.StatusForbidden} {
		client, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(code)
		})

		_, err := client.FetchCollection(context.Background(), models.KindOrder)
		assert.ErrorIs(t, err, ErrUnauthorized, "status %d", code)
	}
}

func TestClient_ServerErrorIsNotUnauthorized(t *testing.T) {
	client, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	})

	_, err := client.FetchCollection(context.Background(), models.KindTrade)
	require.Error(t, err)
	assert.NotErrorIs(t, err, ErrUnauthorized)
}

func TestClient_FetchAccount(t *testing.T) {
	client, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/v1/account", r.URL.Path)
		w.Write([]byte(`{"balance":"10000.50","equity":"10100.00","buying_power":"20000","cash":"5000","currency":"USD"}`))
	})

	summary, err := client.FetchAccount(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "USD", summary.Currency)
	assert.Equal(t, "10000.5", summary.Balance.String())
}

func TestClient_ApproveSignal_PostsWithRequestID(t *testing.T) {
	var gotMethod, gotPath, gotRequestID string
	client, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		gotMethod = r.Method
		gotPath = r.URL.Path
		gotRequestID = r.Header.Get("X-Request-ID")
		w.WriteHeader(http.StatusAccepted)
	})

	require.NoError(t, client.ApproveSignal(context.Background(), "sig-1"))
	assert.Equal(t, http.MethodPost, gotMethod)
	assert.Equal(t, "/api/v1/signals/sig-1/approve", gotPath)
	assert.NotEmpty(t, gotRequestID)
}

func TestClient_CancelOrder_Path(t *testing.T) {
	var gotPath string
	client, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		w.WriteHeader(http.StatusOK)
	})

	require.NoError(t, client.CancelOrder(context.Background(), "ord-9"))
	assert.Equal(t, "/api/v1/orders/ord-9/cancel", gotPath)
}

func TestClient_BreakerOpensAfterConsecutiveFailures(t *testing.T) {
	var hits atomic.Int64
	client, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
		w.WriteHeader(http.StatusBadGateway)
	})

	for i := 0; i < 5; i++ {
		_, err := client.FetchCollection(context.Background(), models.KindSignal)
		require.Error(t, err)
	}
	require.EqualValues(t, 5, hits.Load())

	// The breaker is now open: the next call fails fast without a request.
	_, err := client.FetchCollection(context.Background(), models.KindSignal)
	require.Error(t, err)
	assert.EqualValues(t, 5, hits.Load())
}
