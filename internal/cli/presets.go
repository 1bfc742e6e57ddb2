// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package cli

import (
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/jeranaias/divecoach/internal/preset"
)

func newPresetsCmd(e *env) *cobra.Command {
	cmd := &cobra.Command{
		Use:     "presets",
		Aliases: []string{"topics"},
		Short:   "Manage the suggested topics",
	}

	list := &cobra.Command{
		Use:   "list",
		Short: "List every topic with its id",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := e.openApp(openOptions{})
			if err != nil {
				return err
			}
			defer a.close()
			origin := "built-in"
			if a.presets.IsCustom() {
				origin = "custom"
			}
			printPresets(cmd.OutOrStdout(), a.presets.All(), origin)
			return nil
		},
	}

	reset := &cobra.Command{
		Use:   "reset",
		Short: "Restore the built-in topics",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := e.openApp(openOptions{})
			if err != nil {
				return err
			}
			defer a.close()
			if res := a.presets.ResetToDefault(); !res.Durable() {
				return fmt.Errorf("presets reset in memory only: %s", res)
			}
			fmt.Fprintln(cmd.OutOrStdout(), successStyle.Render("Topics reset to the built-in set"))
			return nil
		},
	}

	imp := &cobra.Command{
		Use:   "import <file>",
		Short: "Replace the topics with a YAML or JSON file",
		Long: `Replace the topics with the categories in a YAML or JSON file:

  - name: Safety
    emoji: "🛟"
    prompts:
      - id: safety-stop
        text: Why do we make a safety stop?`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := e.openApp(openOptions{})
			if err != nil {
				return err
			}
			defer a.close()
			cats, err := a.presets.Import(args[0])
			if err != nil {
				return err
			}
			n := 0
			for _, c := range cats {
				n += len(c.Prompts)
			}
			fmt.Fprintln(cmd.OutOrStdout(), successStyle.Render(fmt.Sprintf("Imported %d topics in %d categories", n, len(cats))))
			return nil
		},
	}

	cmd.AddCommand(list, reset, imp)
	return cmd
}

func printPresets(w io.Writer, cats []preset.Category, origin string) {
	fmt.Fprintln(w, titleStyle.Render("Topics")+" "+mutedStyle.Render("("+origin+")"))
	for _, c := range cats {
		fmt.Fprintln(w)
		fmt.Fprintln(w, sectionStyle.Render(c.Emoji+" "+c.Name))
		for _, p := range c.Prompts {
			fmt.Fprintf(w, "  %s  %s\n", mutedStyle.Render(p.ID), p.Text)
		}
	}
}
