package cmd

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"github.com/mabhi256/bpmx/internal/catalog"
	"github.com/mabhi256/bpmx/utils"
)

var (
	findID   string
	findType string
)

var catalogCmd = &cobra.Command{
	Use:   "catalog",
	Short: "Query the SQLite catalog of extraction runs",
}

var catalogRunsCmd = &cobra.Command{
	Use:   "runs [catalog-db]",
	Short: "List recorded extraction runs",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		store, err := openCatalog(args[0])
		if err != nil {
			return err
		}
		defer store.Close()

		runs, err := store.Runs(cmd.Context())
		if err != nil {
			return err
		}

		out := cmd.OutOrStdout()
		if len(runs) == 0 {
			fmt.Fprintln(out, utils.MutedStyle.Render("No runs recorded."))
			return nil
		}
		fmt.Fprintf(out, "%-5s %-14s %-10s %-6s %s\n", "RUN", "CATEGORY", "COMPONENTS", "ERRORS", "SOURCE")
		fmt.Fprintln(out, strings.Repeat("─", 65))
		for _, r := range runs {
			category := r.Category
			if r.FilterID != "" {
				category += "/" + r.FilterID
			}
			fmt.Fprintf(out, "%-5d %-14s %-10d %-6d %s\n", r.ID, utils.TruncateString(category, 14), r.Components, r.Failures, r.Source)
		}
		return nil
	},
}

var catalogShowCmd = &cobra.Command{
	Use:   "show [catalog-db] [run-id]",
	Short: "List the components of one run",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		runID, err := strconv.ParseInt(args[1], 10, 64)
		if err != nil {
			return fmt.Errorf("invalid run id %q", args[1])
		}

		store, err := openCatalog(args[0])
		if err != nil {
			return err
		}
		defer store.Close()

		components, err := store.Components(cmd.Context(), runID)
		if err != nil {
			return err
		}
		printComponents(cmd, components)
		return nil
	},
}

var catalogFindCmd = &cobra.Command{
	Use:   "find [catalog-db]",
	Short: "Find components by id or category across runs",
	Args:  cobra.ExactArgs(1),
	PreRunE: func(cmd *cobra.Command, args []string) error {
		if (findID == "") == (findType == "") {
			return fmt.Errorf("exactly one of --id or --type is required")
		}
		return nil
	},
	RunE: func(cmd *cobra.Command, args []string) error {
		store, err := openCatalog(args[0])
		if err != nil {
			return err
		}
		defer store.Close()

		var components []catalog.Component
		if findID != "" {
			components, err = store.FindByID(cmd.Context(), findID)
		} else {
			components, err = store.FindByType(cmd.Context(), findType)
		}
		if err != nil {
			return err
		}
		printComponents(cmd, components)
		return nil
	},
}

func openCatalog(path string) (*catalog.Store, error) {
	if err := checkFile(path); err != nil {
		return nil, err
	}
	store, err := catalog.Open(path)
	if err != nil {
		return nil, fmt.Errorf("catalog %s: %w", path, err)
	}
	return store, nil
}

func printComponents(cmd *cobra.Command, components []catalog.Component) {
	out := cmd.OutOrStdout()
	if len(components) == 0 {
		fmt.Fprintln(out, utils.MutedStyle.Render("No components found."))
		return
	}
	for _, c := range components {
		name := c.ID
		if name == "" {
			name = fmt.Sprintf("#%d", c.Index)
		}
		fmt.Fprintf(out, "run %-4d %-14s %-28s %8s  %s\n",
			c.RunID, c.Type, utils.TruncateString(name, 28), utils.ByteSize(c.Bytes), c.Path)
	}
}

func init() {
	rootCmd.AddCommand(catalogCmd)

	catalogCmd.AddCommand(catalogRunsCmd)
	catalogCmd.AddCommand(catalogShowCmd)
	catalogCmd.AddCommand(catalogFindCmd)

	catalogFindCmd.Flags().StringVar(&findID, "id", "", "Component id")
	catalogFindCmd.Flags().StringVar(&findType, "type", "", "Component category")
}
