// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package cli

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/jeranaias/divecoach/internal/theme"
)

func newThemeCmd(e *env) *cobra.Command {
	names := make([]string, len(theme.Modes))
	for i, m := range theme.Modes {
		names[i] = m.String()
	}

	return &cobra.Command{
		Use:       "theme [" + strings.Join(names, "|") + "|next]",
		Short:     "Show or change the colour theme",
		Args:      cobra.MaximumNArgs(1),
		ValidArgs: append(names, "next"),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := e.openApp(openOptions{})
			if err != nil {
				return err
			}
			defer a.close()

			out := cmd.OutOrStdout()
			if len(args) == 0 {
				fmt.Fprintln(out, a.themes.Get())
				return nil
			}

			if strings.EqualFold(args[0], "next") {
				fmt.Fprintln(out, a.themes.Cycle())
				return nil
			}
			m, err := theme.Parse(args[0])
			if err != nil {
				return err
			}
			res, err := a.themes.Set(m)
			if err != nil {
				return err
			}
			if !res.Durable() {
				fmt.Fprintln(cmd.ErrOrStderr(), warningStyle.Render("[!] theme not saved: "+res.String()))
			}
			fmt.Fprintln(out, m)
			return nil
		},
	}
}
