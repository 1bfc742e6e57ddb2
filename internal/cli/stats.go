// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/jeranaias/divecoach/internal/metrics"
	"github.com/jeranaias/divecoach/internal/model"
)

func newStatsCmd(e *env) *cobra.Command {
	var (
		source   string
		watch    bool
		jsonOut  bool
		interval time.Duration
	)
	cmd := &cobra.Command{
		Use:   "stats",
		Short: "Show usage and retrieval statistics",
		Long: `Show usage statistics computed from your conversations and the
retrieval statistics reported by the backend.

Sources: ` + strings.Join(metrics.SourceNames, ", ") + `. merged (the default) takes usage from
local conversations and retrieval data from the backend.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := e.openApp(openOptions{})
			if err != nil {
				return err
			}
			defer a.close()

			src, err := a.statsSource(source)
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			show := func(snap metrics.Snapshot) {
				if jsonOut {
					_ = writeStatsJSON(out, snap)
					return
				}
				printStats(out, src.Name(), snap)
			}

			if interval <= 0 {
				interval = a.cfg.Stats.RefreshInterval()
			}
			if watch {
				poller := metrics.NewPoller(src, metrics.PollerOptions{
					Interval: interval,
					OnUpdate: show,
					Logger:   a.logger,
				})
				poller.Run(cmd.Context())
				return nil
			}

			poller := metrics.NewPoller(src, metrics.PollerOptions{Logger: a.logger})
			snap, err := poller.Refresh(cmd.Context())
			if snap.Stats == nil && err != nil {
				return fmt.Errorf("stats: %w", err)
			}
			show(snap)
			return nil
		},
	}
	cmd.Flags().StringVarP(&source, "source", "s", "", "Stats source (default from config)")
	cmd.Flags().BoolVarP(&watch, "watch", "w", false, "Keep refreshing until interrupted")
	cmd.Flags().DurationVar(&interval, "interval", 0, "Refresh interval with --watch (default from config)")
	cmd.Flags().BoolVar(&jsonOut, "json", false, "Print the statistics object as JSON")
	return cmd
}

func writeStatsJSON(w io.Writer, snap metrics.Snapshot) error {
	if snap.Stats == nil {
		_, err := fmt.Fprintln(w, "{}")
		return err
	}
	data, err := json.Marshal(snap.Stats)
	if err != nil {
		return err
	}
	_, err = fmt.Fprintln(w, string(data))
	return err
}

// =============================================================================
// TEXT OUTPUT
// =============================================================================

func printStats(w io.Writer, source string, snap metrics.Snapshot) {
	fmt.Fprintln(w, titleStyle.Render("Metrics")+" "+mutedStyle.Render("("+source+")"))
	if !snap.UpdatedAt.IsZero() {
		fmt.Fprintln(w, mutedStyle.Render("updated "+snap.UpdatedAt.Local().Format("15:04:05")))
	}
	if snap.Err != nil {
		fmt.Fprintln(w, warningStyle.Render("[!] last refresh failed: "+snap.Err.Error()))
	}
	if snap.Stats == nil {
		return
	}
	if c := snap.Stats.Core; c != nil {
		printCore(w, c)
	}
	if r := snap.Stats.Retrieval; r != nil {
		printRetrieval(w, r)
	}
	fmt.Fprintln(w)
}

func printCore(w io.Writer, c *model.Metrics) {
	fmt.Fprintln(w)
	fmt.Fprintln(w, sectionStyle.Render("Usage"))
	fmt.Fprintln(w, separator(40))
	fmt.Fprintln(w, field("Total Messages", metrics.FormatCount(c.TotalMessages)))
	fmt.Fprintln(w, field("Total Sessions", metrics.FormatCount(c.TotalSessions)))
	fmt.Fprintln(w, field("Avg Messages/Session", metrics.FormatDecimal(c.AvgMessagesPerSession, 1)))
	fmt.Fprintln(w, field("Avg Session Duration", metrics.FormatMinutes(c.AvgSessionDuration)))
	fmt.Fprintln(w, field("Avg Word Count", metrics.FormatDecimal(c.AvgWordCount, 1)))
	fmt.Fprintln(w, field("Avg Response Length", metrics.FormatDecimal(c.AvgResponseLength, 1)+" words"))
	day := c.MostActiveDay
	if day == "" {
		day = "n/a"
	}
	fmt.Fprintln(w, field("Most Active Day", day))
	fmt.Fprintln(w, field("Most Active Hour", metrics.FormatHour(c.MostActiveHour)))

	if len(c.MessagesOverTime) > 0 {
		fmt.Fprintln(w)
		fmt.Fprintln(w, sectionStyle.Render("Messages Over Time"))
		days := c.MessagesOverTime
		if len(days) > 7 {
			days = days[len(days)-7:]
		}
		top := 0
		for _, d := range days {
			if d.Count > top {
				top = d.Count
			}
		}
		for _, d := range days {
			fmt.Fprintf(w, "  %s  %s %s\n", d.Date, bar(d.Count, top, 30), metrics.FormatCount(d.Count))
		}
	}
}

func printRetrieval(w io.Writer, r *model.RetrievalStats) {
	fmt.Fprintln(w)
	fmt.Fprintln(w, sectionStyle.Render("Retrieval"))
	fmt.Fprintln(w, separator(40))
	fmt.Fprintln(w, field("Documents in Store", metrics.FormatCount(r.VectorStore.NumDocuments)))
	fmt.Fprintln(w, field("Total Queries", metrics.FormatCount(r.TotalQueries)))
	fmt.Fprintln(w, field("Avg Relevance Score", fmt.Sprintf("%.0f%%", r.AvgRelevanceScore*100)))
	fmt.Fprintln(w, field("Avg Docs/Query", metrics.FormatDecimal(r.AvgDocumentsPerQuery, 1)))

	dim := "n/a"
	if r.VectorStore.EmbeddingDimension != nil {
		dim = metrics.FormatCount(*r.VectorStore.EmbeddingDimension)
	}
	fmt.Fprintln(w, field("Embedding Dimension", dim))
	fmt.Fprintln(w, field("Store Size", fmt.Sprintf("%.2f MB", r.VectorStore.TotalSizeMB)))

	u := r.SimilarityMethodUsage
	total := u.Cosine + u.Euclidean
	fmt.Fprintln(w, field("Cosine", metrics.FormatCount(u.Cosine)+" ("+metrics.FormatPercent(u.Cosine, total)+")"))
	fmt.Fprintln(w, field("Euclidean", metrics.FormatCount(u.Euclidean)+" ("+metrics.FormatPercent(u.Euclidean, total)+")"))

	fmt.Fprintln(w)
	fmt.Fprintln(w, sectionStyle.Render("Most Retrieved Sources"))
	if len(r.TopSources) == 0 {
		fmt.Fprintln(w, mutedStyle.Render("  No source data available yet"))
		return
	}
	top := r.TopSources[0].Count
	for _, s := range r.TopSources {
		if s.Count > top {
			top = s.Count
		}
	}
	for _, s := range r.TopSources {
		fmt.Fprintf(w, "  %-28s %s %s\n", s.Source, bar(s.Count, top, 20), metrics.FormatCount(s.Count))
	}
}

// bar draws n as a proportion of top in width cells.
func bar(n, top, width int) string {
	if top <= 0 || n <= 0 {
		return strings.Repeat("·", width)
	}
	filled := n * width / top
	if filled == 0 {
		filled = 1
	}
	return successStyle.Render(strings.Repeat("█", filled)) + mutedStyle.Render(strings.Repeat("·", width-filled))
}
