// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package cli

import (
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/jeranaias/divecoach/internal/logging"
	"github.com/jeranaias/divecoach/internal/server"
)

func newServeCmd(e *env) *cobra.Command {
	var (
		addr  string
		delay time.Duration
	)
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the bundled mock coaching backend",
		Long: `Run a local backend that speaks the same HTTP contracts as the real one:

  POST /api/chat       streams a coaching reply from the built-in notes
  GET  /api/rag-stats  retrieval statistics of the queries served so far
  GET  /api/health     liveness
  GET  /metrics        Prometheus metrics`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg := e.cfg
			if addr == "" {
				addr = cfg.Server.Addr
			}
			if !cmd.Flags().Changed("chunk-delay") {
				delay = cfg.Server.ChunkDelay()
			}

			logger := logging.New(logging.Options{Level: cfg.Log.Level, Format: cfg.Log.Format, Output: cmd.ErrOrStderr()})
			srv, err := server.New(server.Options{Addr: addr, ChunkDelay: delay, Logger: logger})
			if err != nil {
				return err
			}

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			fmt.Fprintln(cmd.OutOrStdout(), successStyle.Render("Mock backend listening on "+srv.Addr())+" "+mutedStyle.Render("(ctrl+c to stop)"))
			return srv.ListenAndServe(ctx)
		},
	}
	cmd.Flags().StringVar(&addr, "addr", "", "Listen address (default from config, :8000)")
	cmd.Flags().DurationVar(&delay, "chunk-delay", 0, "Pause between streamed words")
	return cmd
}
