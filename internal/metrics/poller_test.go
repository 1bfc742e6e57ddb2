// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package metrics

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jeranaias/divecoach/internal/model"
)

type countingSource struct {
	calls atomic.Int32
	fail  atomic.Bool
}

func (c *countingSource) Name() string { return "counting" }

func (c *countingSource) Fetch(ctx context.Context) (*model.Stats, error) {
	n := c.calls.Add(1)
	if c.fail.Load() {
		return nil, errors.New("backend down")
	}
	return &model.Stats{Core: &model.Metrics{TotalMessages: int(n)}}, nil
}

func TestPoller_RefreshThrottled(t *testing.T) {
	src := &countingSource{}
	p := NewPoller(src, PollerOptions{MinRefresh: time.Hour})

	snap, err := p.Refresh(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, snap.Stats.Core.TotalMessages)

	snap, err = p.Refresh(context.Background())
	assert.ErrorIs(t, err, ErrThrottled)
	assert.Equal(t, 1, snap.Stats.Core.TotalMessages)
	assert.EqualValues(t, 1, src.calls.Load())
}

func TestPoller_FailureKeepsLastGood(t *testing.T) {
	src := &countingSource{}
	p := NewPoller(src, PollerOptions{MinRefresh: time.Nanosecond})

	_, err := p.Refresh(context.Background())
	require.NoError(t, err)
	first := p.Snapshot()

	src.fail.Store(true)
	time.Sleep(time.Millisecond)
	_, err = p.Refresh(context.Background())
	require.Error(t, err)

	snap := p.Snapshot()
	assert.Error(t, snap.Err)
	assert.Equal(t, first.Stats, snap.Stats)
	assert.Equal(t, first.UpdatedAt, snap.UpdatedAt)
	assert.False(t, snap.Loading)
}

func TestPoller_RunFetchesImmediatelyAndOnInterval(t *testing.T) {
	src := &countingSource{}
	updates := make(chan Snapshot, 16)
	p := NewPoller(src, PollerOptions{
		Interval: 20 * time.Millisecond,
		OnUpdate: func(s Snapshot) { updates <- s },
	})

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		p.Run(ctx)
		close(done)
	}()

	for i := 0; i < 3; i++ {
		select {
		case <-updates:
		case <-time.After(2 * time.Second):
			t.Fatal("poller did not update")
		}
	}
	cancel()
	<-done
	assert.GreaterOrEqual(t, src.calls.Load(), int32(3))
}
