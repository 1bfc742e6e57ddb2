// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package cli

import (
	"fmt"
	"runtime"

	"github.com/spf13/cobra"
)

func newVersionCmd(e *env) *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print version information",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			b := e.buildInfo()
			out := cmd.OutOrStdout()
			fmt.Fprintln(out, field("Version", b.Version))
			fmt.Fprintln(out, field("Commit", b.GitCommit))
			fmt.Fprintln(out, field("Built", b.BuildDate))
			fmt.Fprintln(out, field("Go", runtime.Version()+" "+runtime.GOOS+"/"+runtime.GOARCH))
			return nil
		},
	}
}
