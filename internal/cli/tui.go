// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package cli

import (
	"context"
	"fmt"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"

	"github.com/jeranaias/divecoach/internal/metrics"
	"github.com/jeranaias/divecoach/internal/preset"
	"github.com/jeranaias/divecoach/internal/ui/chat"
)

// healthInterval is how often the TUI re-probes the backend.
const healthInterval = 30 * time.Second

// runTUI runs the full-screen chat until the user quits. Logs go to the
// log file so they do not tear the screen.
func runTUI(cmd *cobra.Command, e *env) error {
	a, err := e.openApp(openOptions{LogToFile: true})
	if err != nil {
		return err
	}
	defer a.close()

	ctx, cancel := context.WithCancel(cmd.Context())
	defer cancel()

	// p is assigned before any goroutine that sends to it starts.
	var p *tea.Program

	var poller *metrics.Poller
	if src, err := a.statsSource(""); err != nil {
		a.logger.Warn().Err(err).Msg("metrics disabled")
	} else {
		poller = metrics.NewPoller(src, metrics.PollerOptions{
			Interval:   a.cfg.Stats.RefreshInterval(),
			MinRefresh: a.cfg.Stats.MinRefresh(),
			OnUpdate: func(snap metrics.Snapshot) {
				p.Send(chat.StatsMsg{Snapshot: snap})
			},
			Logger: a.logger,
		})
	}

	m := chat.New(chat.Deps{
		Sessions:   a.sessions,
		Controller: a.controller(nil),
		Presets:    a.presets,
		Themes:     a.themes,
		Poller:     poller,
		Health:     a.client,
	}, chat.Options{
		BackendURL:     a.client.BaseURL(),
		Version:        e.buildInfo().Version,
		Markdown:       a.cfg.UI.Markdown,
		HealthInterval: healthInterval,
		Logger:         a.logger,
	})

	var opts []tea.ProgramOption
	if a.cfg.UI.AltScreen {
		opts = append(opts, tea.WithAltScreen())
	}
	opts = append(opts, tea.WithContext(ctx))
	p = tea.NewProgram(m, opts...)

	if poller != nil && a.cfg.Stats.RefreshInterval() > 0 {
		go poller.Run(ctx)
	}
	if path := a.cfg.UI.PresetsFile; path != "" {
		err := a.presets.Watch(ctx, path, func(cats []preset.Category, err error) {
			p.Send(chat.PresetsChangedMsg{Categories: cats, Err: err})
		})
		if err != nil {
			a.logger.Warn().Err(err).Str("path", path).Msg("preset file not watched")
		}
	}

	a.logger.Info().Str("backend", a.client.BaseURL()).Int("sessions", a.sessions.Len()).Msg("tui started")
	if _, err := p.Run(); err != nil && ctx.Err() == nil {
		return fmt.Errorf("tui: %w", err)
	}
	return nil
}
