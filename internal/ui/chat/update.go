// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package chat

import (
	"errors"
	"strings"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/jeranaias/divecoach/internal/kvstore"
	"github.com/jeranaias/divecoach/internal/metrics"
	"github.com/jeranaias/divecoach/internal/stream"
	"github.com/jeranaias/divecoach/internal/ui/components"
	"github.com/jeranaias/divecoach/internal/ui/styles"
)

// persistenceNotice is shown while sessions cannot be written.
const persistenceNotice = "Changes may not be saved"

// =============================================================================
// UPDATE
// =============================================================================

// Update handles all incoming messages and returns the updated model.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmds []tea.Cmd

	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.layout()

	case tea.KeyMsg:
		next, cmd := m.handleKey(msg)
		next.sync()
		return next, cmd

	case streamTickMsg:
		if !m.streaming {
			return m, nil
		}
		m.partial = m.deps.Controller.Partial()
		cmds = append(cmds, streamTickCmd())

	case replyDoneMsg:
		m = m.handleReplyDone(msg)
		if m.quitting {
			return m, tea.Quit
		}

	case healthMsg:
		if msg.ok {
			m.health = components.StatusReady
		} else {
			m.health = components.StatusOffline
		}
		cmds = append(cmds, healthTickCmd(m.opts.HealthInterval))

	case healthTickMsg:
		cmds = append(cmds, healthCmd(m.deps.Health))

	case StatsMsg:
		m.dash.SetSnapshot(msg.Snapshot)
		if errors.Is(msg.Err, metrics.ErrThrottled) {
			m.flash = "Refresh throttled, try again in a moment"
		}

	case PresetsChangedMsg:
		m.handlePresetsChanged(msg)

	case spinner.TickMsg:
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		cmds = append(cmds, cmd)
		if !m.showsPartial() {
			return m, tea.Batch(cmds...)
		}

	default:
		var cmd tea.Cmd
		m.input, cmd = m.input.Update(msg)
		cmds = append(cmds, cmd)
	}

	m.sync()
	return m, tea.Batch(cmds...)
}

// =============================================================================
// KEYS
// =============================================================================

func (m Model) handleKey(msg tea.KeyMsg) (Model, tea.Cmd) {
	if !key.Matches(msg, m.keys.Clear) {
		m.confirmClear = false
	}

	switch {
	case key.Matches(msg, m.keys.Quit):
		if m.deps.Controller.Busy() {
			m.deps.Controller.Cancel()
			m.quitting = true
			return m, nil
		}
		return m, tea.Quit

	case key.Matches(msg, m.keys.Cancel):
		if m.mode != viewChat {
			m.mode = viewChat
			return m, nil
		}
		if m.deps.Controller.Cancel() {
			m.flash = "Cancelling..."
		}
		return m, nil

	case key.Matches(msg, m.keys.NewSession):
		created := m.deps.Sessions.CreateSession()
		m.deps.Sessions.Select(created.ID)
		m.mode = viewChat
		m.flash = ""
		m.rollSuggestion()
		return m, nil

	case key.Matches(msg, m.keys.PrevSession):
		m.moveSelection(-1)
		return m, nil

	case key.Matches(msg, m.keys.NextSession):
		m.moveSelection(1)
		return m, nil

	case key.Matches(msg, m.keys.Presets):
		if m.mode == viewPresets {
			m.mode = viewChat
		} else {
			m.picker.SetCategories(m.deps.Presets.All())
			m.mode = viewPresets
		}
		return m, nil

	case key.Matches(msg, m.keys.Metrics):
		m.mode = viewMetrics
		if m.ready {
			m.viewport.GotoTop()
		}
		return m, refreshStatsCmd(m.deps.Poller)

	case key.Matches(msg, m.keys.Theme):
		mode := m.deps.Themes.Cycle()
		m.theme = styles.NewTheme(mode)
		m.applyTheme()
		m.flash = "Theme: " + mode.String()
		return m, nil

	case key.Matches(msg, m.keys.Another):
		m.rollSuggestion()
		return m, nil

	case key.Matches(msg, m.keys.Clear):
		return m.handleClear(), nil

	case key.Matches(msg, m.keys.PageUp):
		m.viewport.ViewUp()
		return m, nil

	case key.Matches(msg, m.keys.PageDown):
		m.viewport.ViewDown()
		return m, nil
	}

	if m.mode == viewPresets {
		return m.handlePresetKey(msg)
	}
	if m.mode == viewMetrics {
		var cmd tea.Cmd
		m.viewport, cmd = m.viewport.Update(msg)
		return m, cmd
	}

	if key.Matches(msg, m.keys.Submit) {
		return m.submitInput()
	}

	// The input is disabled while a reply streams.
	if m.streaming {
		return m, nil
	}
	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	return m, cmd
}

func (m Model) handlePresetKey(msg tea.KeyMsg) (Model, tea.Cmd) {
	switch {
	case key.Matches(msg, m.keys.Up):
		m.picker.MoveUp()
	case key.Matches(msg, m.keys.Down):
		m.picker.MoveDown()
	case key.Matches(msg, m.keys.Submit):
		p, ok := m.picker.Selected()
		if !ok {
			return m, nil
		}
		m.mode = viewChat
		return m.submit(p.Text)
	}
	return m, nil
}

// submitInput sends the typed text, or the suggested topic when the input
// is empty on the welcome screen.
func (m Model) submitInput() (Model, tea.Cmd) {
	text := m.input.Value()
	if strings.TrimSpace(text) == "" && m.showsWelcome() {
		if p, ok := m.welcome.Prompt(); ok {
			text = p.Text
		}
	}
	return m.submit(text)
}

// submit starts one exchange. Blank input and a busy controller are
// ignored here; the controller rejects them too.
func (m Model) submit(text string) (Model, tea.Cmd) {
	if strings.TrimSpace(text) == "" || m.streaming || m.deps.Controller.Busy() {
		return m, nil
	}
	m.input.Reset()
	m.streaming = true
	m.partial = ""
	m.flash = ""
	m.logger.Debug().Int("chars", len(text)).Msg("message submitted")
	return m, tea.Batch(sendCmd(m.deps.Controller, text), streamTickCmd())
}

func (m Model) handleClear() Model {
	if m.streaming {
		m.flash = "Wait for the reply to finish"
		return m
	}
	if !m.confirmClear {
		m.confirmClear = true
		m.flash = "Press ctrl+x again to delete all conversations"
		return m
	}
	m.confirmClear = false
	m.deps.Sessions.ClearHistory()
	m.deps.Sessions.Select("")
	m.flash = "History cleared"
	m.rollSuggestion()
	return m
}

// moveSelection selects the neighbouring session; the list is newest first.
func (m *Model) moveSelection(delta int) {
	sessions := m.deps.Sessions.Sessions()
	if len(sessions) == 0 {
		return
	}
	idx := -1
	selected := m.deps.Sessions.SelectedID()
	for i, s := range sessions {
		if s.ID == selected {
			idx = i
			break
		}
	}
	next := idx + delta
	if idx < 0 {
		next = 0
	}
	if next < 0 || next >= len(sessions) {
		return
	}
	m.deps.Sessions.Select(sessions[next].ID)
	m.mode = viewChat
	if m.ready {
		m.viewport.GotoBottom()
	}
}

// =============================================================================
// REPLIES AND EXTERNAL EVENTS
// =============================================================================

func (m Model) handleReplyDone(msg replyDoneMsg) Model {
	m.streaming = false
	m.partial = ""

	switch {
	case errors.Is(msg.err, stream.ErrBusy):
		m.flash = "A reply is already streaming"
	case msg.err != nil:
		m.flash = msg.err.Error()
	case msg.result.Outcome == stream.OutcomeCancelled:
		m.flash = "Reply cancelled"
	case msg.result.Outcome == stream.OutcomeFailed:
		m.logger.Warn().Err(msg.result.Err).Str("session_id", msg.result.SessionID).Msg("reply failed")
	}
	return m
}

func (m *Model) handlePresetsChanged(msg PresetsChangedMsg) {
	if msg.Err != nil {
		m.flash = "Preset file not imported: " + msg.Err.Error()
		return
	}
	m.picker.SetCategories(m.deps.Presets.All())
	if cur, ok := m.welcome.Prompt(); !ok || !m.hasPreset(cur.ID) {
		m.rollSuggestion()
	}
	m.flash = "Presets reloaded"
}

func (m Model) hasPreset(id string) bool {
	_, ok := m.deps.Presets.Find(id)
	return ok
}

// =============================================================================
// STATUS
// =============================================================================

// notice combines the persistence warning with the last transient message.
func (m Model) notice() string {
	var parts []string
	if !m.deps.Sessions.LastWrite().Durable() || m.deps.Sessions.LoadResult().Kind == kvstore.KindUnavailable {
		parts = append(parts, persistenceNotice)
	}
	if m.flash != "" {
		parts = append(parts, m.flash)
	}
	return strings.Join(parts, " · ")
}

func (m Model) shortcuts() []components.Shortcut {
	bindings := m.keys.ShortHelp()
	switch {
	case m.streaming:
		bindings = m.keys.StreamingHelp()
	case m.mode != viewChat:
		back := key.NewBinding(key.WithKeys("esc"), key.WithHelp("esc", "back"))
		bindings = []key.Binding{back, m.keys.Submit, m.keys.Metrics, m.keys.Quit}
	}
	out := make([]components.Shortcut, 0, len(bindings))
	for _, b := range bindings {
		h := b.Help()
		out = append(out, components.Shortcut{Key: h.Key, Desc: h.Desc})
	}
	return out
}
