package backend

import (
	"context"
	"errors"
	"log"
	"time"

	"tradedeck/internal/metrics"
)

// PollFunc performs one full fetch-and-apply cycle for a resource. It must
// honor ctx cancellation and discard its result rather than apply it when
// the context is done.
type PollFunc func(ctx context.Context) error

// Poller issues a recurring full-snapshot fetch on a fixed interval. Fetches
// never overlap: a tick that fires while the previous fetch is still in
// flight is dropped, never backfilled. Transient failures are retried on the
// next scheduled tick; authorization failures invalidate the session and
// pause polling until it resumes.
type Poller struct {
	resource string
	interval time.Duration
	session  *Session
	poll     PollFunc
}

// NewPoller creates a poller for one resource.
func NewPoller(resource string, interval time.Duration, session *Session, poll PollFunc) *Poller {
	return &Poller{
		resource: resource,
		interval: interval,
		session:  session,
		poll:     poll,
	}
}

// Run polls until ctx is cancelled. The first fetch fires immediately so the
// dashboard paints without waiting a full interval.
func (p *Poller) Run(ctx context.Context) {
	p.tick(ctx)

	ticker := time.NewTicker(p.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			p.tick(ctx)
			// The fetch runs synchronously in this loop, so a slow fetch can
			// leave one tick buffered in the channel. Drop it: that tick's
			// deadline passed while we were still in flight.
			select {
			case <-ticker.C:
				metrics.PollTicksSkipped.WithLabelValues(p.resource).Inc()
			default:
			}
		}
	}
}

func (p *Poller) tick(ctx context.Context) {
	if !p.session.Valid() {
		return
	}

	err := p.poll(ctx)
	switch {
	case err == nil:
	case errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded):
		// Teardown race: the result was already discarded by the PollFunc.
	case errors.Is(err, ErrUnauthorized):
		p.session.Invalidate(err)
	default:
		log.Printf("poller %s: fetch failed, retrying next tick: %v", p.resource, err)
		metrics.PollFailures.WithLabelValues(p.resource).Inc()
	}
}
