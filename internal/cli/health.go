// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package cli

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"
)

func newHealthCmd(e *env) *cobra.Command {
	return &cobra.Command{
		Use:   "health",
		Short: "Check that the coaching backend is reachable",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := e.openApp(openOptions{})
			if err != nil {
				return err
			}
			defer a.close()

			start := time.Now()
			if err := a.client.CheckHealth(cmd.Context()); err != nil {
				fmt.Fprintln(cmd.OutOrStdout(), errorStyle.Render("[FAIL]")+" "+a.client.BaseURL())
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%s %s %s\n",
				successStyle.Render("[OK]"),
				a.client.BaseURL(),
				mutedStyle.Render(time.Since(start).Round(time.Millisecond).String()))
			return nil
		},
	}
}
