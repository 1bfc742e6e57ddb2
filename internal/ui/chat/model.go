// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package chat

import (
	"context"
	"time"

	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textinput"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/rs/zerolog"

	"github.com/jeranaias/divecoach/internal/metrics"
	"github.com/jeranaias/divecoach/internal/preset"
	"github.com/jeranaias/divecoach/internal/session"
	"github.com/jeranaias/divecoach/internal/stream"
	"github.com/jeranaias/divecoach/internal/theme"
	"github.com/jeranaias/divecoach/internal/ui/components"
	"github.com/jeranaias/divecoach/internal/ui/styles"
)

// Layout rows outside the message viewport.
const (
	headerHeight = 2
	inputHeight  = 2
	statusHeight = 1
)

// =============================================================================
// DEPENDENCIES
// =============================================================================

// HealthChecker reports backend reachability. *coachapi.Client implements
// it.
type HealthChecker interface {
	Healthy(ctx context.Context) bool
}

// Deps are the stores and services the TUI drives.
type Deps struct {
	Sessions   *session.Store
	Controller *stream.Controller
	Presets    *preset.Store
	Themes     *theme.Store
	// Poller is optional; without it the metrics view stays empty.
	Poller *metrics.Poller
	// Health is optional; without it the status stays "Connecting...".
	Health HealthChecker
}

// Options tunes the TUI.
type Options struct {
	BackendURL string
	Version    string
	// Markdown renders assistant replies with glamour.
	Markdown       bool
	HealthInterval time.Duration
	// Rand picks the suggested topic; nil means uniform random.
	Rand   func(n int) int
	Logger zerolog.Logger
}

// =============================================================================
// MODEL
// =============================================================================

// viewMode is the content shown in the main column.
type viewMode int

const (
	viewChat viewMode = iota
	viewPresets
	viewMetrics
)

// Model is the Bubble Tea model of the chat screen.
type Model struct {
	deps   Deps
	opts   Options
	theme  *styles.Theme
	keys   KeyMap
	logger zerolog.Logger

	width  int
	height int
	ready  bool

	input    textinput.Model
	viewport viewport.Model
	spinner  spinner.Model

	sidebar components.Sidebar
	status  components.StatusBar
	welcome components.Welcome
	picker  components.PresetPicker
	dash    components.Dashboard

	mode viewMode

	// streaming is set from submit until the reply is committed.
	streaming bool
	partial   string
	// quitting waits for an in-flight reply to be committed before exit.
	quitting bool

	health       components.Status
	confirmClear bool
	flash        string

	md *markdownRenderer
}

// New creates the chat model.
func New(deps Deps, opts Options) Model {
	t := styles.NewTheme(deps.Themes.Get())

	input := textinput.New()
	input.Placeholder = "Ask about diving principles, safety or training..."
	input.Prompt = "> "
	input.CharLimit = 4000
	input.Focus()

	sp := spinner.New(spinner.WithSpinner(spinner.Dot))

	m := Model{
		deps:    deps,
		opts:    opts,
		theme:   t,
		keys:    DefaultKeyMap(),
		logger:  opts.Logger.With().Str("component", "tui").Logger(),
		input:   input,
		spinner: sp,
		sidebar: components.NewSidebar(t),
		status:  components.NewStatusBar(t),
		welcome: components.NewWelcome(t),
		picker:  components.NewPresetPicker(t),
		dash:    components.NewDashboard(t),
		health:  components.StatusChecking,
		md:      &markdownRenderer{},
	}
	m.status.SetBackend(opts.BackendURL)
	if deps.Poller != nil {
		m.dash.SetSource(deps.Poller.Source().Name())
		m.dash.SetSnapshot(deps.Poller.Snapshot())
	}
	m.picker.SetCategories(deps.Presets.All())
	m.rollSuggestion()
	m.applyTheme()
	return m
}

// Init starts the cursor blink, the spinner and the first health probe.
func (m Model) Init() tea.Cmd {
	return tea.Batch(
		textinput.Blink,
		m.spinner.Tick,
		healthCmd(m.deps.Health),
	)
}

// =============================================================================
// STATE HELPERS
// =============================================================================

// rollSuggestion picks a new random topic for the welcome screen.
func (m *Model) rollSuggestion() {
	p, ok := m.deps.Presets.Random(m.opts.Rand)
	m.welcome.SetPrompt(p, ok)
}

// applyTheme pushes the current theme into every component.
func (m *Model) applyTheme() {
	m.theme.SetSize(m.width, m.height)
	m.sidebar.SetTheme(m.theme)
	m.status.SetTheme(m.theme)
	m.welcome.SetTheme(m.theme)
	m.picker.SetTheme(m.theme)
	m.dash.SetTheme(m.theme)
	m.input.PromptStyle = m.theme.InputPrompt
	m.input.PlaceholderStyle = m.theme.Muted
}

// layout sizes the components after a resize.
func (m *Model) layout() {
	m.theme.SetSize(m.width, m.height)

	main := m.mainWidth()
	vpHeight := m.height - headerHeight - inputHeight - statusHeight
	if vpHeight < 1 {
		vpHeight = 1
	}

	if !m.ready {
		m.viewport = viewport.New(main, vpHeight)
		m.ready = true
	} else {
		m.viewport.Width = main
		m.viewport.Height = vpHeight
	}

	m.input.Width = main - 4
	m.sidebar.SetSize(m.theme.SidebarWidth(), m.height-statusHeight)
	m.status.SetWidth(m.width)
	m.welcome.SetWidth(main)
	m.picker.SetSize(main, vpHeight)
	m.dash.SetWidth(main)
}

func (m Model) mainWidth() int {
	w := m.width
	if m.theme.ShowSidebar() {
		w -= m.theme.SidebarWidth()
	}
	if w < 20 {
		w = 20
	}
	return w
}

// showsPartial reports whether the in-flight reply belongs to the session
// on screen.
func (m Model) showsPartial() bool {
	return m.streaming && m.deps.Controller.TargetID() != "" &&
		m.deps.Controller.TargetID() == m.deps.Sessions.SelectedID()
}

// sync copies store state into the components and re-renders the viewport.
func (m *Model) sync() {
	m.sidebar.SetSessions(m.deps.Sessions.Sessions(), m.deps.Sessions.SelectedID())
	m.status.SetNotice(m.notice())
	switch {
	case m.streaming:
		m.status.SetStatus(components.StatusStreaming)
	default:
		m.status.SetStatus(m.health)
	}
	m.status.SetShortcuts(m.shortcuts())

	if !m.ready {
		return
	}
	atBottom := m.viewport.AtBottom()
	switch m.mode {
	case viewMetrics:
		m.viewport.SetContent(m.dash.View())
	default:
		m.viewport.SetContent(m.renderConversation())
		if atBottom || m.streaming {
			m.viewport.GotoBottom()
		}
	}
}
