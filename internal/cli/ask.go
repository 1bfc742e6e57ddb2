// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package cli

import (
	"fmt"
	"io"
	"strings"

	"github.com/charmbracelet/glamour"
	"github.com/spf13/cobra"

	"github.com/jeranaias/divecoach/internal/stream"
)

// renderMarkdown renders content for the terminal, returning it unchanged
// if glamour fails.
func renderMarkdown(content string, width int) string {
	r, err := glamour.NewTermRenderer(
		glamour.WithAutoStyle(),
		glamour.WithWordWrap(width),
	)
	if err != nil {
		return content
	}
	out, err := r.Render(content)
	if err != nil {
		return content
	}
	return out
}

func newAskCmd(e *env) *cobra.Command {
	var raw bool
	cmd := &cobra.Command{
		Use:   "ask <message>",
		Short: "Ask the coach one question",
		Long: `Ask one question and print the reply.

The exchange is stored like any other conversation; combine with
--session to continue one. On a terminal the reply is rendered as
markdown once it is complete; otherwise it streams as plain text.`,
		Example: `  divecoach ask "How do I equalize my ears?"
  echo "Explain buoyancy" | divecoach ask -`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			text := strings.Join(args, " ")
			if text == "-" {
				data, err := io.ReadAll(cmd.InOrStdin())
				if err != nil {
					return fmt.Errorf("read stdin: %w", err)
				}
				text = string(data)
			}

			a, err := e.openApp(openOptions{})
			if err != nil {
				return err
			}
			defer a.close()

			out := cmd.OutOrStdout()
			pretty := !raw && a.cfg.UI.Markdown && isTerminalWriter(out)
			var observer stream.Observer
			if !pretty {
				observer = func(u stream.Update) {
					if u.Chunk != "" {
						fmt.Fprint(out, u.Chunk)
					}
				}
			}

			res, err := a.controller(observer).Send(cmd.Context(), text)
			if err != nil {
				return err
			}

			switch {
			case res.Outcome == stream.OutcomeFailed:
				return res.Err
			case pretty:
				fmt.Fprint(out, renderMarkdown(res.Reply.Content, a.cfg.UI.WordWrap))
			default:
				if res.Outcome == stream.OutcomeCancelled {
					fmt.Fprint(out, "\n\n"+stream.CancelledMarker)
				}
				fmt.Fprintln(out)
			}
			if w := a.persistenceWarning(); w != "" {
				fmt.Fprintln(cmd.ErrOrStderr(), warningStyle.Render("[!] "+w))
			}
			return nil
		},
	}
	cmd.Flags().BoolVar(&raw, "raw", false, "Stream plain text even on a terminal")
	return cmd
}
