package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/mabhi256/bpmx/internal/catalog"
	"github.com/mabhi256/bpmx/internal/config"
	"github.com/mabhi256/bpmx/internal/extract"
	"github.com/mabhi256/bpmx/internal/output"
	"github.com/mabhi256/bpmx/internal/report"
	"github.com/mabhi256/bpmx/utils"
)

// anyCategory captures any element with the requested id.
const anyCategory = "*"

var (
	extractOut    string
	catalogPath   string
	extractDepths []int
)

var extractCmd = &cobra.Command{
	Use:   "extract [bpmn-file] [category] [id]",
	Short: "Extract components of a category as standalone XML",
	Long: `Extract captures every element whose tag belongs to the category (optionally
only the one with the given id) and writes it as a standalone XML fragment with
a JSON sidecar, followed by an inventory.json index.

Use "*" as the category to capture whichever element carries the id. --depth
limits captures to elements opened at the given nesting depths (0 = root).

If the document turns out to be malformed, everything written by the run is
removed again.`,
	Args:              cobra.RangeArgs(2, 3),
	ValidArgsFunction: completeExtractArgs,
	PreRunE: func(cmd *cobra.Command, args []string) error {
		return checkFile(args[0])
	},
	RunE: func(cmd *cobra.Command, args []string) error {
		var id string
		if len(args) == 3 {
			id = args[2]
		}
		category, predicate, err := selectComponents(args[1], id)
		if err != nil {
			return err
		}
		if len(extractDepths) > 0 {
			predicate = extract.AtDepth(predicate, extractDepths...)
		}

		outDir := extractOut
		if outDir == "" {
			outDir = cfg.Output.Dir
		}
		sink := output.NewDirSink(outDir)

		opts := cfg.ScanOptions()
		opts.Predicate = predicate
		if category != anyCategory {
			opts.Category = category
		}
		opts.Sink = sink
		opts.Logger = logger

		logger.Debug("extracting", "file", args[0], "category", category, "id", id, "depths", extractDepths)
		res, err := extract.ScanFile(cmd.Context(), args[0], opts)
		if err != nil {
			return rollback(sink, err)
		}

		inv := output.NewInventory(res, category, id)
		if _, err := output.WriteInventory(sink, inv); err != nil {
			return rollback(sink, err)
		}
		if err := sink.Commit(); err != nil {
			logger.Warn("previous output not cleaned up", "dir", outDir, "err", err)
		}
		for _, f := range inv.Errors {
			logger.Warn("component not extracted", "kind", f.Kind, "type", f.Type, "id", f.ID, "err", f.Message)
		}

		// the artifacts are complete at this point, a catalog problem does
		// not fail the run
		if catalogPath != "" {
			if err := recordRun(cmd, inv, outDir); err != nil {
				logger.Warn("run not recorded", "catalog", catalogPath, "err", err)
			}
		}

		report.PrintExtraction(cmd.OutOrStdout(), inv, outDir)
		return nil
	},
}

// selectComponents resolves the category argument to the capture predicate.
func selectComponents(category, id string) (string, extract.Predicate, error) {
	if category == anyCategory {
		if id == "" {
			return "", nil, fmt.Errorf("category %q requires an id", anyCategory)
		}
		return anyCategory, extract.MatchID(id), nil
	}
	name, tags, err := cfg.CategoryTags(category)
	if err != nil {
		return "", nil, err
	}
	return name, extract.MatchTags(tags, id), nil
}

// rollback removes the run's artifacts and returns the error that caused it.
func rollback(sink *output.DirSink, cause error) error {
	if err := sink.Rollback(); err != nil {
		logger.Error("failed to remove partial output", "dir", sink.Root(), "err", err)
	}
	return cause
}

func recordRun(cmd *cobra.Command, inv output.Inventory, outDir string) error {
	store, err := catalog.Open(catalogPath)
	if err != nil {
		return fmt.Errorf("catalog %s: %w", catalogPath, err)
	}
	defer store.Close()

	runID, err := store.RecordRun(cmd.Context(), inv, outDir)
	if err != nil {
		return fmt.Errorf("catalog %s: %w", catalogPath, err)
	}
	logger.Info("recorded run", "catalog", catalogPath, "run", runID, "components", len(inv.Components))
	return nil
}

func completeExtractArgs(cmd *cobra.Command, args []string, toComplete string) ([]string, cobra.ShellCompDirective) {
	switch len(args) {
	case 0:
		return utils.CompleteFilesByExtension(utils.XMLExtensions)(cmd, args, toComplete)
	case 1:
		return append(currentConfig().CategoryNames(), anyCategory), cobra.ShellCompDirectiveNoFileComp
	default:
		return nil, cobra.ShellCompDirectiveNoFileComp
	}
}

func init() {
	rootCmd.AddCommand(extractCmd)

	extractCmd.Flags().StringVar(&extractOut, "out", "", "Output directory (default "+config.DefaultOutputDir+")")
	extractCmd.Flags().StringVar(&catalogPath, "catalog", "", "Record the run in this SQLite catalog")
	extractCmd.Flags().IntSliceVar(&extractDepths, "depth", nil, "Only capture elements at these depths")
}
