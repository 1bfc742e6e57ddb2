// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package cli

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/jeranaias/divecoach/internal/config"
)

// BuildInfo is stamped into the binary by the linker.
type BuildInfo struct {
	Version   string
	GitCommit string
	BuildDate string
}

func (b BuildInfo) String() string {
	return fmt.Sprintf("%s (commit: %s, built: %s)", b.Version, b.GitCommit, b.BuildDate)
}

// env carries what subcommands share: parsed global flags, the loaded
// config and the build info.
type env struct {
	flags globalFlags
	cfg   *config.Config
	info  BuildInfo

	// open overrides openApp in tests.
	open func(cfg *config.Config, flags *globalFlags, opts openOptions) (*app, error)
}

func (e *env) openApp(opts openOptions) (*app, error) {
	if e.open != nil {
		return e.open(e.cfg, &e.flags, opts)
	}
	return openApp(e.cfg, &e.flags, opts)
}

// NewRootCmd builds the divecoach command tree.
func NewRootCmd(info BuildInfo) *cobra.Command {
	return newRootCmd(&env{info: info})
}

func newRootCmd(e *env) *cobra.Command {
	root := &cobra.Command{
		Use:   "divecoach",
		Short: "Chat with the Diving Coach from your terminal",
		Long: `divecoach is a terminal client for the Diving Coach assistant.

It keeps your conversations locally, streams replies from the coaching
backend and shows usage statistics for your sessions.

Quick Start:
  divecoach                         # Open the chat screen
  divecoach ask "What is a safety stop?"
  divecoach chat                    # Line-based chat with history
  divecoach serve                   # Run the bundled mock backend

Educational only. Not a replacement for professional instruction.`,
		Version:       e.buildInfo().String(),
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			applyColorProfile()
			cfg, err := loadConfig(&e.flags)
			if err != nil {
				return err
			}
			e.cfg = cfg
			config.SetGlobal(cfg)
			return nil
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			if !IsStdoutTTY() {
				return fmt.Errorf("stdout is not a terminal; use `divecoach ask` or `divecoach chat`")
			}
			return runTUI(cmd, e)
		},
	}

	root.PersistentFlags().StringVar(&e.flags.configPath, "config", "", "Config file (default ~/.divecoach/config.toml)")
	root.PersistentFlags().StringVar(&e.flags.sessionID, "session", "", "Existing session id to continue (unknown ids start a new session)")
	root.PersistentFlags().StringVar(&e.flags.logLevel, "log-level", "", "Log level: trace, debug, info, warn, error")
	root.SetVersionTemplate(`{{printf "%s\n" .Version}}`)

	root.AddCommand(
		newChatCmd(e),
		newAskCmd(e),
		newSessionsCmd(e),
		newStatsCmd(e),
		newPresetsCmd(e),
		newThemeCmd(e),
		newHealthCmd(e),
		newServeCmd(e),
		newVersionCmd(e),
	)
	return root
}

func (e *env) buildInfo() BuildInfo {
	b := e.info
	if b.Version == "" {
		b.Version = "dev"
	}
	if b.GitCommit == "" {
		b.GitCommit = "unknown"
	}
	if b.BuildDate == "" {
		b.BuildDate = "unknown"
	}
	return b
}

// Execute runs the command tree and exits non-zero on error.
func Execute(info BuildInfo) {
	if err := NewRootCmd(info).Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
