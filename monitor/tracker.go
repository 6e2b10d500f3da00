package monitor

import (
	"context"
	"errors"
	"fmt"
)

// ErrTooManyFailures is returned by Tick once the lifecycle source has failed
// the configured number of consecutive polls. The monitor treats it as
// terminal; recovery requires an external restart.
var ErrTooManyFailures = errors.New("lifecycle source failing repeatedly")

// Tracker polls the broadcast source and classifies each snapshot into
// lifecycle transitions relative to the previously tracked broadcast.
type Tracker struct {
	source      BroadcastSource
	limit       int64
	maxFailures int

	failures int
	current  *LivestreamInfo
}

// NewTracker returns a tracker that fetches up to limit broadcasts per poll
// and escalates to ErrTooManyFailures after maxFailures consecutive fetch
// errors.
func NewTracker(source BroadcastSource, limit int64, maxFailures int) *Tracker {
	if limit <= 0 {
		limit = 5
	}
	if maxFailures <= 0 {
		maxFailures = 3
	}
	return &Tracker{source: source, limit: limit, maxFailures: maxFailures}
}

// Current returns a copy of the tracked broadcast, if any.
func (t *Tracker) Current() (LivestreamInfo, bool) {
	if t.current == nil {
		return LivestreamInfo{}, false
	}
	return *t.current, true
}

// Failures returns the consecutive fetch failure count.
func (t *Tracker) Failures() int { return t.failures }

// Tick fetches one snapshot and returns the transitions it implies, in emit
// order. A fetch failure below the ceiling returns the classified error and
// no events; state is kept and the next tick simply retries. At the ceiling
// the returned error wraps ErrTooManyFailures.
func (t *Tracker) Tick(ctx context.Context) ([]Event, error) {
	items, err := t.source.ListBroadcasts(ctx, t.limit)
	if err != nil {
		t.failures++
		if t.failures >= t.maxFailures {
			return nil, fmt.Errorf("%w (%d consecutive): %w", ErrTooManyFailures, t.failures, err)
		}
		return nil, err
	}
	t.failures = 0

	// First non-ended record wins. The API does not define an order for
	// multiple concurrent broadcasts; in practice a channel has at most one.
	var candidate *LivestreamInfo
	for i := range items {
		if items[i].Status != StatusEnded {
			c := items[i]
			candidate = &c
			break
		}
	}

	prev := t.current
	t.current = candidate

	switch {
	case prev == nil && candidate == nil:
		return nil, nil
	case prev == nil:
		return []Event{{Kind: EventStart, Livestream: *candidate}}, nil
	case candidate == nil:
		return []Event{{Kind: EventEnd, Livestream: *prev}}, nil
	case prev.ID != candidate.ID:
		// Identity changed within one tick: the old stream ended and a new
		// one started.
		return []Event{
			{Kind: EventEnd, Livestream: *prev},
			{Kind: EventStart, Livestream: *candidate},
		}, nil
	case prev.Status != candidate.Status:
		return []Event{{Kind: EventStatusChange, Livestream: *candidate}}, nil
	default:
		return nil, nil
	}
}
