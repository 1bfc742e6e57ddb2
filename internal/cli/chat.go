// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"

	"github.com/peterh/liner"
	"github.com/spf13/cobra"

	"github.com/jeranaias/divecoach/internal/stream"
	"github.com/jeranaias/divecoach/internal/util"
)

// =============================================================================
// INPUT HISTORY
// =============================================================================

// lineReader reads one line of input. *liner.State implements it.
type lineReader interface {
	Prompt(prompt string) (string, error)
}

// ChatCLI provides input history and line editing for the chat REPL.
type ChatCLI struct {
	line        *liner.State
	historyFile string
}

// NewChatCLI creates a ChatCLI and loads historyFile if it exists.
func NewChatCLI(historyFile string) *ChatCLI {
	line := liner.NewLiner()
	line.SetCtrlCAborts(true)

	c := &ChatCLI{line: line, historyFile: historyFile}
	c.LoadHistory()
	return c
}

// LoadHistory loads input history from file.
func (c *ChatCLI) LoadHistory() {
	if f, err := os.Open(c.historyFile); err == nil {
		_, _ = c.line.ReadHistory(f)
		f.Close()
	}
}

// Prompt reads a line with history navigation. Non-blank input is added
// to the history.
func (c *ChatCLI) Prompt(prompt string) (string, error) {
	input, err := c.line.Prompt(prompt)
	if err != nil {
		return "", err
	}
	if strings.TrimSpace(input) != "" {
		c.line.AppendHistory(input)
	}
	return input, nil
}

// SaveHistory writes the history file with owner-only permissions.
func (c *ChatCLI) SaveHistory() {
	if err := os.MkdirAll(filepath.Dir(c.historyFile), 0o700); err != nil {
		return
	}
	f, err := os.OpenFile(c.historyFile, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0o600)
	if err != nil {
		return
	}
	defer f.Close()
	_, _ = c.line.WriteHistory(f)
}

// Close saves history and restores the terminal.
func (c *ChatCLI) Close() {
	c.SaveHistory()
	c.line.Close()
}

// =============================================================================
// COMMAND
// =============================================================================

func newChatCmd(e *env) *cobra.Command {
	return &cobra.Command{
		Use:   "chat",
		Short: "Line-based chat with input history",
		Long: `Chat with the coach one line at a time. Replies stream to stdout.

Commands inside the chat:
  /new          start a new conversation
  /list         list conversations
  /use <id>     continue a conversation
  /help         show this help
  /exit         leave (also ctrl+d)`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := e.openApp(openOptions{})
			if err != nil {
				return err
			}
			defer a.close()

			out := cmd.OutOrStdout()
			ctrl := a.controller(func(u stream.Update) {
				if u.Chunk != "" {
					fmt.Fprint(out, u.Chunk)
				}
			})

			if !a.client.Healthy(cmd.Context()) {
				fmt.Fprintln(cmd.ErrOrStderr(), warningStyle.Render(
					fmt.Sprintf("[!] Backend at %s is not reachable; replies will fail until it is.", a.client.BaseURL())))
			}

			input := NewChatCLI(a.cfg.HistoryFile())
			defer input.Close()

			// ctrl+c while a reply streams cancels it; at the prompt liner
			// reports it as ErrPromptAborted.
			sigs := make(chan os.Signal, 1)
			signal.Notify(sigs, os.Interrupt, syscall.SIGTERM)
			defer signal.Stop(sigs)
			go func() {
				for range sigs {
					if ctrl.Cancel() {
						fmt.Fprintln(cmd.ErrOrStderr(), "\n"+warningStyle.Render("[Cancelled]"))
					}
				}
			}()

			fmt.Fprintln(out, titleStyle.Render("Diving Coach")+" "+mutedStyle.Render("(/help for commands, ctrl+d to exit)"))
			return (&repl{app: a, ctrl: ctrl, in: input, out: out}).run(cmd.Context())
		},
	}
}

// =============================================================================
// REPL
// =============================================================================

// repl is the read-send-print loop behind `divecoach chat`.
type repl struct {
	app  *app
	ctrl *stream.Controller
	in   lineReader
	out  io.Writer
}

func (r *repl) run(ctx context.Context) error {
	for {
		line, err := r.in.Prompt(promptStyle.Render("coach> "))
		if err != nil {
			// ctrl+c at the prompt, ctrl+d or a closed stdin all end the chat.
			if !errors.Is(err, liner.ErrPromptAborted) && !errors.Is(err, io.EOF) {
				r.app.logger.Debug().Err(err).Msg("prompt ended")
			}
			fmt.Fprintln(r.out)
			r.summary()
			return nil
		}

		line = strings.TrimSpace(line)
		switch {
		case line == "":
			continue
		case strings.EqualFold(line, "exit"), strings.EqualFold(line, "quit"):
			r.summary()
			return nil
		case strings.HasPrefix(line, "/"):
			if !r.command(line) {
				r.summary()
				return nil
			}
			continue
		}

		r.send(ctx, line)
	}
}

// send streams one reply; the observer prints chunks as they arrive.
func (r *repl) send(ctx context.Context, text string) {
	res, err := r.ctrl.Send(ctx, text)
	if err != nil {
		fmt.Fprintln(r.out, errorStyle.Render("[Error] "+err.Error()))
		return
	}
	switch res.Outcome {
	case stream.OutcomeFailed:
		fmt.Fprintln(r.out, errorStyle.Render(res.Reply.Content))
	case stream.OutcomeCancelled:
		fmt.Fprintln(r.out, "\n"+mutedStyle.Render(stream.CancelledMarker))
	default:
		fmt.Fprintln(r.out)
	}
	if w := r.app.persistenceWarning(); w != "" {
		fmt.Fprintln(r.out, warningStyle.Render("[!] "+w))
	}
	fmt.Fprintln(r.out)
}

// command runs a slash command and reports whether the loop continues.
func (r *repl) command(line string) bool {
	fields := strings.Fields(line)
	switch strings.ToLower(fields[0]) {
	case "/exit", "/quit", "/q":
		return false
	case "/new":
		s := r.app.sessions.CreateSession()
		r.app.sessions.Select(s.ID)
		fmt.Fprintln(r.out, successStyle.Render("New conversation ")+mutedStyle.Render(s.ID))
	case "/list":
		printSessionList(r.out, r.app.sessions.Sessions(), r.app.sessions.SelectedID())
	case "/use":
		if len(fields) < 2 {
			fmt.Fprintln(r.out, errorStyle.Render("usage: /use <session-id>"))
			break
		}
		r.app.sessions.Select(fields[1])
		if s := r.app.sessions.Current(); s != nil {
			fmt.Fprintln(r.out, "Continuing "+valueStyle.Render(s.Title()))
		} else {
			fmt.Fprintln(r.out, mutedStyle.Render("No conversation with that id; the next message starts a new one."))
		}
	case "/help":
		fmt.Fprintln(r.out, "/new  /list  /use <id>  /help  /exit")
	default:
		fmt.Fprintln(r.out, errorStyle.Render("unknown command "+fields[0]+" (try /help)"))
	}
	return true
}

func (r *repl) summary() {
	cur := r.app.sessions.Current()
	if cur == nil {
		return
	}
	fmt.Fprintf(r.out, "%s %s (%s)\n",
		mutedStyle.Render("Conversation saved:"),
		util.TruncateRunes(cur.Title(), 48),
		cur.ID)
}
