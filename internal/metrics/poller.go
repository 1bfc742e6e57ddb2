// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package metrics

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/time/rate"

	"github.com/jeranaias/divecoach/internal/model"
)

// DefaultInterval is how often the statistics are refreshed.
const DefaultInterval = 30 * time.Second

// ErrThrottled is returned by Refresh when called again too soon.
var ErrThrottled = errors.New("metrics: refresh throttled")

// Snapshot is the poller's view of the statistics.
type Snapshot struct {
	// Stats is the last successful fetch, nil until one succeeds.
	Stats *model.Stats
	// Err is the error of the most recent fetch, nil if it succeeded.
	Err       error
	UpdatedAt time.Time
	Loading   bool
}

// PollerOptions configures a Poller.
type PollerOptions struct {
	Interval time.Duration
	// MinRefresh is the minimum gap between manual refreshes.
	MinRefresh time.Duration
	// OnUpdate runs after every fetch, on the fetching goroutine.
	OnUpdate func(Snapshot)
	Clock    func() time.Time
	Logger   zerolog.Logger
}

// Poller refreshes a Source on an interval and on demand.
type Poller struct {
	src      Source
	interval time.Duration
	limiter  *rate.Limiter
	onUpdate func(Snapshot)
	now      func() time.Time
	logger   zerolog.Logger

	mu   sync.Mutex
	snap Snapshot

	fetchMu sync.Mutex
}

// NewPoller creates a poller; nothing is fetched until Run or Refresh.
func NewPoller(src Source, opts PollerOptions) *Poller {
	if opts.Interval <= 0 {
		opts.Interval = DefaultInterval
	}
	if opts.MinRefresh <= 0 {
		opts.MinRefresh = 2 * time.Second
	}
	if opts.Clock == nil {
		opts.Clock = time.Now
	}
	return &Poller{
		src:      src,
		interval: opts.Interval,
		limiter:  rate.NewLimiter(rate.Every(opts.MinRefresh), 1),
		onUpdate: opts.OnUpdate,
		now:      opts.Clock,
		logger:   opts.Logger.With().Str("component", "metrics").Str("source", src.Name()).Logger(),
	}
}

// Source returns the polled source.
func (p *Poller) Source() Source { return p.src }

// Snapshot returns the latest state.
func (p *Poller) Snapshot() Snapshot {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.snap
}

// Run fetches immediately and then on every interval until ctx is done.
func (p *Poller) Run(ctx context.Context) {
	p.fetch(ctx)

	ticker := time.NewTicker(p.interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			p.fetch(ctx)
		}
	}
}

// Refresh fetches now unless the previous manual refresh was too recent,
// in which case it returns the current snapshot and ErrThrottled.
func (p *Poller) Refresh(ctx context.Context) (Snapshot, error) {
	if !p.limiter.Allow() {
		return p.Snapshot(), ErrThrottled
	}
	snap := p.fetch(ctx)
	return snap, snap.Err
}

// fetch runs one fetch. Overlapping calls are serialized.
func (p *Poller) fetch(ctx context.Context) Snapshot {
	p.fetchMu.Lock()
	defer p.fetchMu.Unlock()

	p.mu.Lock()
	p.snap.Loading = true
	p.mu.Unlock()

	stats, err := p.src.Fetch(ctx)

	p.mu.Lock()
	p.snap.Loading = false
	p.snap.Err = err
	if err == nil {
		p.snap.Stats = stats
		p.snap.UpdatedAt = p.now()
	}
	snap := p.snap
	p.mu.Unlock()

	if err != nil {
		p.logger.Debug().Err(err).Msg("stats fetch failed, keeping last snapshot")
	}
	if p.onUpdate != nil {
		p.onUpdate(snap)
	}
	return snap
}
