package backend

import (
	"context"
	"encoding/json"
	"log"
	"net/http"
	"time"

	"github.com/gorilla/websocket"
	"github.com/jpillora/backoff"

	"tradedeck/internal/metrics"
	"tradedeck/internal/models"
)

// Handler receives one decoded push envelope: its event kind, raw payload,
// and receipt timestamp.
type Handler func(event string, payload json.RawMessage, asOf time.Time)

// Stream is the WebSocket push adapter. It maintains a single logical
// connection, reconnecting with jittered exponential backoff on loss. The
// push channel is an optimization, not the source of truth: state missed
// while disconnected is repaired by the next poll snapshot.
type Stream struct {
	url     string
	session *Session
	handle  Handler
	dialer  *websocket.Dialer
}

// NewStream creates a push adapter for the given WebSocket endpoint.
func NewStream(url string, session *Session, handle Handler) *Stream {
	return &Stream{
		url:     url,
		session: session,
		handle:  handle,
		dialer:  websocket.DefaultDialer,
	}
}

// Run maintains the connection until ctx is cancelled.
func (s *Stream) Run(ctx context.Context) {
	retry := &backoff.Backoff{
		Min:    time.Second,
		Max:    30 * time.Second,
		Jitter: true,
	}

	for ctx.Err() == nil {
		if !s.session.Valid() {
			sleepCtx(ctx, time.Second)
			continue
		}

		header := http.Header{}
		header.Set("Authorization", "Bearer "+s.session.Token())

		conn, resp, err := s.dialer.DialContext(ctx, s.url, header)
		if err != nil {
			if resp != nil && (resp.StatusCode == http.StatusUnauthorized || resp.StatusCode == http.StatusForbidden) {
				s.session.Invalidate(ErrUnauthorized)
				continue
			}
			if ctx.Err() != nil {
				return
			}
			wait := retry.Duration()
			log.Printf("stream: connect failed, retrying in %s: %v", wait.Round(time.Millisecond), err)
			metrics.StreamReconnects.Inc()
			sleepCtx(ctx, wait)
			continue
		}

		log.Printf("stream: connected to %s", s.url)
		retry.Reset()
		s.readLoop(ctx, conn)
		conn.Close()

		if ctx.Err() == nil {
			metrics.StreamReconnects.Inc()
			sleepCtx(ctx, retry.Duration())
		}
	}
}

// readLoop consumes frames until the connection drops or ctx is cancelled.
func (s *Stream) readLoop(ctx context.Context, conn *websocket.Conn) {
	done := make(chan struct{})
	defer close(done)
	go func() {
		select {
		case <-ctx.Done():
			conn.Close()
		case <-done:
		}
	}()

	for {
		_, data, err := conn.ReadMessage()
		if err != nil {
			if ctx.Err() == nil {
				log.Printf("stream: connection lost: %v", err)
			}
			return
		}
		s.dispatchFrame(data)
	}
}

// dispatchFrame decodes one envelope. A malformed frame is logged and
// dropped; it never kills the connection.
func (s *Stream) dispatchFrame(data []byte) {
	var env models.Envelope
	if err := json.Unmarshal(data, &env); err != nil {
		log.Printf("stream: dropping malformed frame: %v", err)
		return
	}
	s.handle(env.Event, env.Payload, time.Now())
}

func sleepCtx(ctx context.Context, d time.Duration) {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
	case <-timer.C:
	}
}
