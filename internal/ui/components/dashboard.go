// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package components

import (
	"fmt"
	"math"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"

	"github.com/jeranaias/divecoach/internal/metrics"
	"github.com/jeranaias/divecoach/internal/model"
	"github.com/jeranaias/divecoach/internal/ui/styles"
	"github.com/jeranaias/divecoach/internal/util"
)

// chartDays is how many days of messages-over-time are drawn.
const chartDays = 7

// =============================================================================
// METRICS DASHBOARD
// =============================================================================

// Dashboard displays usage metrics and retrieval statistics from a poller
// snapshot. Either group may be missing and is then left out.
type Dashboard struct {
	theme  *styles.Theme
	snap   metrics.Snapshot
	source string
	width  int
}

// NewDashboard creates a dashboard with no data.
func NewDashboard(theme *styles.Theme) Dashboard {
	return Dashboard{theme: theme}
}

func (d *Dashboard) SetTheme(theme *styles.Theme) { d.theme = theme }
func (d *Dashboard) SetWidth(width int) { d.width = width }
func (d *Dashboard) SetSource(name string) { d.source = name }

// SetSnapshot replaces the rendered data.
func (d *Dashboard) SetSnapshot(snap metrics.Snapshot) { d.snap = snap }

// =============================================================================
// RENDERING
// =============================================================================

// View renders the dashboard.
func (d Dashboard) View() string {
	var b strings.Builder

	title := "Metrics"
	if d.source != "" {
		title += " (" + d.source + ")"
	}
	b.WriteString(d.theme.PanelTitle.Render(title))
	if !d.snap.UpdatedAt.IsZero() {
		b.WriteString("  " + d.theme.Muted.Render("updated "+d.snap.UpdatedAt.Format(time.Kitchen)))
	}
	b.WriteString("\n\n")

	stats := d.snap.Stats
	if stats == nil {
		if d.snap.Err != nil {
			b.WriteString(d.theme.StatusDown.Render("Could not load metrics: " + d.snap.Err.Error()))
		} else {
			b.WriteString(d.theme.Muted.Render("Loading metrics..."))
		}
		return b.String()
	}
	if d.snap.Err != nil {
		b.WriteString(d.theme.Notice.Render("Last refresh failed: "+d.snap.Err.Error()) + "\n\n")
	}

	if stats.Core != nil {
		b.WriteString(d.renderCore(*stats.Core))
	}
	if stats.Retrieval != nil {
		if stats.Core != nil {
			b.WriteString("\n\n")
		}
		b.WriteString(d.renderRetrieval(*stats.Retrieval))
	}
	if stats.Core == nil && stats.Retrieval == nil {
		b.WriteString(d.theme.Muted.Render("No metrics available yet"))
	}
	b.WriteString("\n\n" + d.theme.Muted.Render("ctrl+s refresh  esc back"))
	return b.String()
}

func (d Dashboard) renderCore(m model.Metrics) string {
	var b strings.Builder
	b.WriteString(d.renderCards([]card{
		{"Total Messages", metrics.FormatCount(m.TotalMessages)},
		{"Total Sessions", metrics.FormatCount(m.TotalSessions)},
		{"Avg Messages/Session", metrics.FormatDecimal(m.AvgMessagesPerSession, 1)},
		{"Avg Word Count", metrics.FormatDecimal(m.AvgWordCount, 1)},
	}))
	b.WriteString("\n\n")

	b.WriteString(d.renderRows([]card{
		{"Most Active Day", orDash(m.MostActiveDay)},
		{"Most Active Hour", metrics.FormatHour(m.MostActiveHour)},
		{"Avg Session Duration", metrics.FormatMinutes(m.AvgSessionDuration)},
	}))
	b.WriteString("\n\n")

	b.WriteString(d.theme.PanelTitle.Render("Messages Over Time") + "\n")
	series := m.MessagesOverTime
	if len(series) > chartDays {
		series = series[len(series)-chartDays:]
	}
	if len(series) == 0 {
		b.WriteString(d.theme.Muted.Render("No messages yet") + "\n")
	}
	peak := 0
	for _, p := range series {
		peak = maxInt(peak, p.Count)
	}
	for _, p := range series {
		b.WriteString(fmt.Sprintf("%s %s %s\n",
			d.theme.StatsLabel.Render(p.Date),
			d.theme.RenderBar(d.barWidth(), float64(p.Count), float64(peak)),
			metrics.FormatCount(p.Count)))
	}
	b.WriteString("\n")

	b.WriteString(d.theme.PanelTitle.Render("Content Statistics") + "\n")
	b.WriteString(d.renderRows([]card{
		{"Avg Word Count", metrics.FormatDecimal(m.AvgWordCount, 1) + " words"},
		{"Avg Response Length", metrics.FormatDecimal(m.AvgResponseLength, 1) + " words"},
	}))
	return b.String()
}

func (d Dashboard) renderRetrieval(r model.RetrievalStats) string {
	var b strings.Builder
	b.WriteString(d.renderCards([]card{
		{"Documents in Store", metrics.FormatCount(r.VectorStore.NumDocuments)},
		{"Total Queries", metrics.FormatCount(r.TotalQueries)},
		{"Avg Relevance Score", fmt.Sprintf("%d%%", int(math.Round(r.AvgRelevanceScore*100)))},
		{"Avg Docs/Query", metrics.FormatDecimal(r.AvgDocumentsPerQuery, 1)},
	}))
	b.WriteString("\n\n")

	usage := r.SimilarityMethodUsage
	total := usage.Cosine + usage.Euclidean
	b.WriteString(d.theme.PanelTitle.Render("Similarity Method Usage") + "\n")
	b.WriteString(d.renderRows([]card{
		{"cosine", metrics.FormatCount(usage.Cosine) + " (" + metrics.FormatPercent(usage.Cosine, total) + ")"},
		{"euclidean", metrics.FormatCount(usage.Euclidean) + " (" + metrics.FormatPercent(usage.Euclidean, total) + ")"},
	}))
	b.WriteString("\n\n")

	b.WriteString(d.theme.PanelTitle.Render("Most Retrieved Sources") + "\n")
	if len(r.TopSources) == 0 {
		b.WriteString(d.theme.Muted.Render("No source data available yet") + "\n")
	}
	peak := 0
	for _, s := range r.TopSources {
		peak = maxInt(peak, s.Count)
	}
	for _, s := range r.TopSources {
		name := util.PadWidth(util.TruncateWidth(s.Source, 24), 24)
		b.WriteString(fmt.Sprintf("%s %s %s\n",
			d.theme.StatsLabel.Render(name),
			d.theme.RenderBar(d.barWidth()-14, float64(s.Count), float64(peak)),
			metrics.FormatCount(s.Count)))
	}
	b.WriteString("\n")

	dim := "n/a"
	if r.VectorStore.EmbeddingDimension != nil {
		dim = metrics.FormatCount(*r.VectorStore.EmbeddingDimension)
	}
	b.WriteString(d.theme.PanelTitle.Render("Vector Store Information") + "\n")
	b.WriteString(d.renderRows([]card{
		{"Documents", metrics.FormatCount(r.VectorStore.NumDocuments)},
		{"Embedding Dimension", dim},
		{"Total Size", metrics.FormatDecimal(r.VectorStore.TotalSizeMB, 2) + " MB"},
	}))
	return b.String()
}

// card is a label and its formatted value.
type card struct {
	label string
	value string
}

// renderCards lays metric cards side by side, or stacked when narrow.
func (d Dashboard) renderCards(cards []card) string {
	cardWidth := 22
	rendered := make([]string, len(cards))
	for i, c := range cards {
		body := d.theme.StatsValue[i%len(d.theme.StatsValue)].Render(c.value) + "\n" + d.theme.StatsLabel.Render(c.label)
		rendered[i] = d.theme.Panel.Width(cardWidth).Render(body)
	}
	if d.width > 0 && d.width < len(cards)*(cardWidth+2) {
		return lipgloss.JoinVertical(lipgloss.Left, rendered...)
	}
	return lipgloss.JoinHorizontal(lipgloss.Top, rendered...)
}

func (d Dashboard) renderRows(rows []card) string {
	lines := make([]string, len(rows))
	for i, r := range rows {
		lines[i] = d.theme.StatsLabel.Render(util.PadWidth(r.label, 22)) + " " + r.value
	}
	return strings.Join(lines, "\n")
}

func (d Dashboard) barWidth() int {
	if d.width <= 0 {
		return 30
	}
	return maxInt(minInt(d.width-24, 40), 20)
}

func orDash(s string) string {
	if s == "" {
		return "-"
	}
	return s
}
