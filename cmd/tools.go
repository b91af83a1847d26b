package main

import (
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"prompt_maker_server/internal/catalog"
)

var toolsCmd = &cobra.Command{
	Use:   "tools",
	Short: "List the prompt tools and their questions",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		printTools(cmd.OutOrStdout(), catalog.Default())
		return nil
	},
}

func printTools(w io.Writer, c *catalog.Catalog) {
	for i, t := range c.List() {
		if i > 0 {
			fmt.Fprintln(w)
		}
		fmt.Fprintf(w, "%s  %s\n", t.ID, t.Name)
		fmt.Fprintf(w, "    %s\n", t.Description)
		for _, f := range t.Fields {
			fmt.Fprintf(w, "    - %-12s %s (%s)\n", f.ID, f.Label, f.Kind)
		}
	}
}
