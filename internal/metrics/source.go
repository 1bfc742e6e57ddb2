// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package metrics

import (
	"context"
	"fmt"
	"math/rand/v2"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/jeranaias/divecoach/internal/model"
)

// =============================================================================
// SOURCE INTERFACE
// =============================================================================

// Source produces statistics snapshots. Every implementation honours the
// statistics endpoint contract: either group of a snapshot may be nil.
type Source interface {
	Name() string
	Fetch(ctx context.Context) (*model.Stats, error)
}

// Source names accepted by NewSource.
const (
	SourceMerged = "merged"
	SourceRemote = "remote"
	SourceLocal  = "local"
	SourceMock   = "mock"
)

// SourceNames lists the valid source names.
var SourceNames = []string{SourceMerged, SourceRemote, SourceLocal, SourceMock}

// StatsFetcher is the statistics half of the API client.
type StatsFetcher interface {
	FetchStats(ctx context.Context) (*model.Stats, error)
}

// Deps are the collaborators NewSource wires sources from.
type Deps struct {
	Sessions func() []model.ChatSession
	Remote   StatsFetcher
	Location *time.Location
	Logger   zerolog.Logger
}

// NewSource builds the named source.
func NewSource(name string, deps Deps) (Source, error) {
	local := &Local{Sessions: deps.Sessions, Location: deps.Location}
	remote := &Remote{Client: deps.Remote}

	switch name {
	case SourceMerged, "":
		return &Merged{Core: local, Retrieval: remote, Logger: deps.Logger}, nil
	case SourceRemote:
		return remote, nil
	case SourceLocal:
		return local, nil
	case SourceMock:
		return NewMock(nil), nil
	default:
		return nil, fmt.Errorf("unknown stats source %q", name)
	}
}

// =============================================================================
// LOCAL
// =============================================================================

// Local computes core metrics from the session store. It never has
// retrieval statistics.
type Local struct {
	Sessions func() []model.ChatSession
	Location *time.Location
}

func (l *Local) Name() string { return SourceLocal }

// Fetch computes a snapshot from the current sessions.
func (l *Local) Fetch(ctx context.Context) (*model.Stats, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	var sessions []model.ChatSession
	if l.Sessions != nil {
		sessions = l.Sessions()
	}
	m := Compute(sessions, l.Location)
	return &model.Stats{Core: &m}, nil
}

// =============================================================================
// REMOTE
// =============================================================================

// Remote fetches snapshots from the backend's statistics endpoint.
type Remote struct {
	Client StatsFetcher
}

func (r *Remote) Name() string { return SourceRemote }

// Fetch calls the backend.
func (r *Remote) Fetch(ctx context.Context) (*model.Stats, error) {
	if r.Client == nil {
		return nil, fmt.Errorf("remote stats: no client configured")
	}
	return r.Client.FetchStats(ctx)
}

// =============================================================================
// MOCK
// =============================================================================

// Mock generates plausible random core metrics for demos and offline use.
type Mock struct {
	mu  sync.Mutex
	rnd *rand.Rand
	now func() time.Time
}

// NewMock creates a mock source. A nil rnd uses a randomly seeded generator.
func NewMock(rnd *rand.Rand) *Mock {
	if rnd == nil {
		rnd = rand.New(rand.NewPCG(rand.Uint64(), rand.Uint64()))
	}
	return &Mock{rnd: rnd, now: time.Now}
}

func (m *Mock) Name() string { return SourceMock }

// Fetch returns a fresh random snapshot.
func (m *Mock) Fetch(ctx context.Context) (*model.Stats, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	m.mu.Lock()
	defer m.mu.Unlock()

	r := m.rnd
	core := model.Metrics{
		TotalMessages:      r.IntN(500) + 100,
		TotalSessions:      r.IntN(50) + 10,
		AvgWordCount:       float64(r.IntN(200) + 50),
		AvgResponseLength:  float64(r.IntN(200) + 50),
		AvgSessionDuration: float64(r.IntN(290)+10) / 10,
		MostActiveHour:     r.IntN(24),
		MostActiveDay:      time.Weekday(r.IntN(7)).String(),
	}
	core.AvgMessagesPerSession = float64(core.TotalMessages) / float64(core.TotalSessions)

	today := m.now()
	for i := 6; i >= 0; i-- {
		core.MessagesOverTime = append(core.MessagesOverTime, model.DailyCount{
			Date:  today.AddDate(0, 0, -i).Format("2006-01-02"),
			Count: r.IntN(core.TotalMessages/7 + 1),
		})
	}
	return &model.Stats{Core: &core}, nil
}

// =============================================================================
// MERGED
// =============================================================================

// Merged takes core metrics from one source and retrieval statistics from
// another. A retrieval failure is logged and leaves Retrieval nil; only a
// core failure fails the fetch.
type Merged struct {
	Core      Source
	Retrieval Source
	Logger    zerolog.Logger
}

func (m *Merged) Name() string { return SourceMerged }

// Fetch queries both sources concurrently.
func (m *Merged) Fetch(ctx context.Context) (*model.Stats, error) {
	var (
		wg      sync.WaitGroup
		retr    *model.Stats
		retrErr error
	)
	wg.Add(1)
	go func() {
		defer wg.Done()
		retr, retrErr = m.Retrieval.Fetch(ctx)
	}()

	core, err := m.Core.Fetch(ctx)
	wg.Wait()
	if err != nil {
		return nil, fmt.Errorf("%s stats: %w", m.Core.Name(), err)
	}

	out := &model.Stats{Core: core.Core}
	if retrErr != nil {
		m.Logger.Debug().Err(retrErr).Str("source", m.Retrieval.Name()).Msg("retrieval stats unavailable")
	} else if retr != nil {
		out.Retrieval = retr.Retrieval
	}
	return out, nil
}
