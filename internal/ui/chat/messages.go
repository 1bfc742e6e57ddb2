// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package chat

import (
	"context"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/jeranaias/divecoach/internal/metrics"
	"github.com/jeranaias/divecoach/internal/preset"
	"github.com/jeranaias/divecoach/internal/stream"
)

// streamTickInterval caps partial-reply redraws at about 30 frames a second.
const streamTickInterval = 33 * time.Millisecond

// healthTimeout bounds a single health probe.
const healthTimeout = 5 * time.Second

// =============================================================================
// EXTERNAL MESSAGES
// =============================================================================

// PresetsChangedMsg is sent by the preset file watcher after a re-import.
type PresetsChangedMsg struct {
	Categories []preset.Category
	Err        error
}

// StatsMsg carries a metrics snapshot, from the poller or a manual refresh.
type StatsMsg struct {
	Snapshot metrics.Snapshot
	Err      error
}

// =============================================================================
// INTERNAL MESSAGES
// =============================================================================

// replyDoneMsg is returned by sendCmd once the controller has committed the
// assistant message.
type replyDoneMsg struct {
	result stream.Result
	err    error
}

// streamTickMsg triggers a redraw of the partial reply.
type streamTickMsg struct {
	Time time.Time
}

// healthMsg carries the result of one probe.
type healthMsg struct {
	ok bool
}

// healthTickMsg schedules the next probe.
type healthTickMsg struct{}

// =============================================================================
// COMMANDS
// =============================================================================

// sendCmd runs one exchange on the command goroutine.
func sendCmd(ctrl *stream.Controller, text string) tea.Cmd {
	return func() tea.Msg {
		res, err := ctrl.Send(context.Background(), text)
		return replyDoneMsg{result: res, err: err}
	}
}

func streamTickCmd() tea.Cmd {
	return tea.Tick(streamTickInterval, func(t time.Time) tea.Msg {
		return streamTickMsg{Time: t}
	})
}

func healthCmd(h HealthChecker) tea.Cmd {
	if h == nil {
		return nil
	}
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), healthTimeout)
		defer cancel()
		return healthMsg{ok: h.Healthy(ctx)}
	}
}

func healthTickCmd(interval time.Duration) tea.Cmd {
	if interval <= 0 {
		return nil
	}
	return tea.Tick(interval, func(time.Time) tea.Msg {
		return healthTickMsg{}
	})
}

// refreshStatsCmd asks the poller for a fresh snapshot. A throttled refresh
// still returns the current snapshot.
func refreshStatsCmd(p *metrics.Poller) tea.Cmd {
	if p == nil {
		return nil
	}
	return func() tea.Msg {
		snap, err := p.Refresh(context.Background())
		return StatsMsg{Snapshot: snap, Err: err}
	}
}
