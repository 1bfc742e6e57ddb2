// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package cli

import (
	"bufio"
	"fmt"
	"io"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/jeranaias/divecoach/internal/export"
	"github.com/jeranaias/divecoach/internal/model"
	"github.com/jeranaias/divecoach/internal/util"
)

func newSessionsCmd(e *env) *cobra.Command {
	cmd := &cobra.Command{
		Use:     "sessions",
		Aliases: []string{"session"},
		Short:   "List, show, export and clear conversations",
	}
	cmd.AddCommand(
		newSessionsListCmd(e),
		newSessionsShowCmd(e),
		newSessionsNewCmd(e),
		newSessionsClearCmd(e),
		newSessionsExportCmd(e),
	)
	return cmd
}

// =============================================================================
// LIST / SHOW
// =============================================================================

func newSessionsListCmd(e *env) *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List conversations, newest first",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := e.openApp(openOptions{})
			if err != nil {
				return err
			}
			defer a.close()
			printSessionList(cmd.OutOrStdout(), a.sessions.Sessions(), a.sessions.SelectedID())
			return nil
		},
	}
}

// printSessionList writes one row per session; selected is marked with *.
func printSessionList(w io.Writer, sessions []model.ChatSession, selected string) {
	if len(sessions) == 0 {
		fmt.Fprintln(w, mutedStyle.Render("No conversations yet"))
		return
	}
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "\tID\tTITLE\tMESSAGES\tUPDATED")
	for _, s := range sessions {
		mark := " "
		if s.ID == selected {
			mark = "*"
		}
		fmt.Fprintf(tw, "%s\t%s\t%s\t%d\t%s\n",
			mark,
			s.ID,
			util.TruncateWidth(s.Title(), 40),
			len(s.Messages),
			s.Updated().Local().Format("2006-01-02 15:04"),
		)
	}
	tw.Flush()
}

func newSessionsShowCmd(e *env) *cobra.Command {
	return &cobra.Command{
		Use:   "show [id]",
		Short: "Print a conversation (default: --session)",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := e.openApp(openOptions{})
			if err != nil {
				return err
			}
			defer a.close()

			id := a.sessions.SelectedID()
			if len(args) == 1 {
				id = args[0]
			}
			if id == "" {
				return fmt.Errorf("no session given; pass an id or --session")
			}
			s := a.sessions.ResolveCurrent(id)
			if s == nil {
				return fmt.Errorf("session %q not found", id)
			}
			printSession(cmd.OutOrStdout(), *s)
			return nil
		},
	}
}

func printSession(w io.Writer, s model.ChatSession) {
	fmt.Fprintln(w, titleStyle.Render(s.Title()))
	fmt.Fprintln(w, mutedStyle.Render(fmt.Sprintf("%s · created %s · %d messages",
		s.ID, s.Created().Local().Format("2006-01-02 15:04"), len(s.Messages))))
	fmt.Fprintln(w)
	for _, m := range s.Messages {
		fmt.Fprintf(w, "%s %s\n", sectionStyle.Render(m.Role.DisplayName()), mutedStyle.Render(m.Time().Local().Format("15:04")))
		fmt.Fprintln(w, m.Content)
		fmt.Fprintln(w)
	}
}

// =============================================================================
// NEW / CLEAR
// =============================================================================

func newSessionsNewCmd(e *env) *cobra.Command {
	return &cobra.Command{
		Use:   "new",
		Short: "Create an empty conversation and print its id",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := e.openApp(openOptions{})
			if err != nil {
				return err
			}
			defer a.close()
			s := a.sessions.CreateSession()
			fmt.Fprintln(cmd.OutOrStdout(), s.ID)
			if w := a.persistenceWarning(); w != "" {
				fmt.Fprintln(cmd.ErrOrStderr(), warningStyle.Render("[!] "+w))
			}
			return nil
		},
	}
}

func newSessionsClearCmd(e *env) *cobra.Command {
	var yes bool
	cmd := &cobra.Command{
		Use:   "clear",
		Short: "Delete every conversation",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := e.openApp(openOptions{})
			if err != nil {
				return err
			}
			defer a.close()

			n := a.sessions.Len()
			if n == 0 {
				fmt.Fprintln(cmd.OutOrStdout(), mutedStyle.Render("No conversations to delete"))
				return nil
			}
			if !yes {
				ok, err := confirm(cmd.InOrStdin(), cmd.OutOrStdout(), fmt.Sprintf("Delete %d conversations?", n))
				if err != nil {
					return err
				}
				if !ok {
					fmt.Fprintln(cmd.OutOrStdout(), "Cancelled.")
					return nil
				}
			}
			a.sessions.ClearHistory()
			fmt.Fprintln(cmd.OutOrStdout(), successStyle.Render(fmt.Sprintf("Deleted %d conversations", n)))
			return nil
		},
	}
	cmd.Flags().BoolVarP(&yes, "yes", "y", false, "Do not ask for confirmation")
	return cmd
}

// confirm asks a yes/no question on in; anything but y or yes is no.
func confirm(in io.Reader, out io.Writer, question string) (bool, error) {
	fmt.Fprintf(out, "%s [y/N]: ", question)
	line, err := bufio.NewReader(in).ReadString('\n')
	if err != nil && line == "" {
		if err == io.EOF {
			return false, fmt.Errorf("confirmation required; use --yes")
		}
		return false, fmt.Errorf("failed to read confirmation: %w", err)
	}
	answer := strings.ToLower(strings.TrimSpace(line))
	return answer == "y" || answer == "yes", nil
}

// =============================================================================
// EXPORT
// =============================================================================

func newSessionsExportCmd(e *env) *cobra.Command {
	var (
		format     string
		outDir     string
		stdout     bool
		timestamps bool
	)
	cmd := &cobra.Command{
		Use:   "export [id...]",
		Short: "Export conversations as markdown, json or yaml",
		Long: `Export conversations to a file in --out (default: current directory).

With no ids every conversation is exported; with --session only that one.`,
		Example: `  divecoach sessions export --format json
  divecoach sessions export 3f2c... --format md --stdout`,
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := e.openApp(openOptions{})
			if err != nil {
				return err
			}
			defer a.close()

			ids := args
			if len(ids) == 0 && a.sessions.SelectedID() != "" {
				ids = []string{a.sessions.SelectedID()}
			}
			sessions, err := pickSessions(a.sessions.Sessions(), ids)
			if err != nil {
				return err
			}

			opts := export.DefaultOptions()
			opts.OutputDir = outDir
			opts.IncludeTimestamps = timestamps
			exporter, err := export.NewExporter(format, opts)
			if err != nil {
				return err
			}

			if stdout {
				return exporter.Export(sessions, cmd.OutOrStdout())
			}
			path, err := export.ExportToFile(sessions, exporter, opts)
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), successStyle.Render("Exported")+" "+path)
			return nil
		},
	}
	cmd.Flags().StringVarP(&format, "format", "f", "markdown", "Output format: "+strings.Join(export.Formats, ", "))
	cmd.Flags().StringVarP(&outDir, "out", "o", ".", "Output directory")
	cmd.Flags().BoolVar(&stdout, "stdout", false, "Write to stdout instead of a file")
	cmd.Flags().BoolVar(&timestamps, "timestamps", true, "Include message timestamps")
	return cmd
}

// pickSessions returns the sessions named by ids, in store order, or all
// of them when ids is empty.
func pickSessions(all []model.ChatSession, ids []string) ([]model.ChatSession, error) {
	if len(ids) == 0 {
		if len(all) == 0 {
			return nil, fmt.Errorf("no conversations to export")
		}
		return all, nil
	}
	want := make(map[string]bool, len(ids))
	for _, id := range ids {
		want[id] = true
	}
	var out []model.ChatSession
	for _, s := range all {
		if want[s.ID] {
			out = append(out, s)
			delete(want, s.ID)
		}
	}
	for _, id := range ids {
		if want[id] {
			return nil, fmt.Errorf("session %q not found", id)
		}
	}
	return out, nil
}
