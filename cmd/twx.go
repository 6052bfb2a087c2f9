package cmd

import (
	"fmt"
	"os"
	"path/filepath"
	"slices"

	"github.com/spf13/cobra"

	"github.com/mabhi256/bpmx/internal/config"
	"github.com/mabhi256/bpmx/internal/output"
	"github.com/mabhi256/bpmx/internal/report"
	"github.com/mabhi256/bpmx/internal/twx"
	"github.com/mabhi256/bpmx/utils"
)

const summaryFile = "twx-analysis.json"

var twxFormats = []string{"cli", "json"}

var (
	twxOut     string
	twxFormat  string
	twxReport  string
	twxWorkers int
)

var twxCmd = &cobra.Command{
	Use:   "twx",
	Short: "Work with TWX export archives",
}

var twxExtractCmd = &cobra.Command{
	Use:               "extract [archive]",
	Short:             "Unpack a TWX archive into category folders",
	Args:              cobra.ExactArgs(1),
	ValidArgsFunction: utils.CompleteFilesByExtension(utils.ArchiveExtensions),
	PreRunE: func(cmd *cobra.Command, args []string) error {
		return checkFile(args[0])
	},
	RunE: func(cmd *cobra.Command, args []string) error {
		outDir := twxOut
		if outDir == "" {
			outDir = cfg.Output.Dir
		}

		m, err := twx.Unpack(cmd.Context(), args[0], outDir, nil)
		if err != nil {
			return err
		}
		logger.Debug("unpacked archive", "archive", args[0], "files", len(m.Entries))

		report.PrintManifest(cmd.OutOrStdout(), m, outDir)
		return nil
	},
}

var twxAnalyzeCmd = &cobra.Command{
	Use:               "analyze [directory|archive]",
	Short:             "Analyze every XML file of an unpacked export or archive",
	Args:              cobra.ExactArgs(1),
	ValidArgsFunction: utils.CompleteFilesByExtension(utils.ArchiveExtensions),
	PreRunE: func(cmd *cobra.Command, args []string) error {
		if !slices.Contains(twxFormats, twxFormat) {
			return fmt.Errorf("invalid output format: %s. Valid options: %v", twxFormat, twxFormats)
		}
		if _, err := os.Stat(args[0]); os.IsNotExist(err) {
			return fmt.Errorf("path does not exist: %s", args[0])
		}
		return nil
	},
	RunE: func(cmd *cobra.Command, args []string) error {
		opts := twx.AnalyzeOptions{
			Scan:    cfg.ScanOptions(),
			Scoring: cfg.Scoring,
			Workers: twxWorkers,
		}
		opts.Scan.Logger = logger

		summary, err := analyzeExport(cmd, args[0], opts)
		if err != nil {
			return err
		}
		for _, r := range summary.Results {
			if r.Error != "" {
				logger.Warn("file not analysed", "file", r.Path, "err", r.Error)
			}
		}

		out := cmd.OutOrStdout()
		if twxFormat == "json" {
			path := twxReport
			if path == "" {
				path = filepath.Join(cfg.Output.Dir, summaryFile)
			}
			if err := output.WriteJSON(path, summary); err != nil {
				return err
			}
			fmt.Fprintf(out, "📄 Summary written to %s\n", path)
			return nil
		}
		report.PrintSummary(out, summary)
		return nil
	},
}

func analyzeExport(cmd *cobra.Command, path string, opts twx.AnalyzeOptions) (*twx.Summary, error) {
	info, err := os.Stat(path)
	if err != nil {
		return nil, err
	}
	if info.IsDir() {
		return twx.AnalyzeDir(cmd.Context(), path, opts)
	}
	if !utils.HasExtension(path, utils.ArchiveExtensions) {
		return nil, fmt.Errorf("%s is neither a directory nor a TWX archive", path)
	}
	return twx.AnalyzeArchive(cmd.Context(), path, opts)
}

func init() {
	rootCmd.AddCommand(twxCmd)

	twxCmd.AddCommand(twxExtractCmd)
	twxCmd.AddCommand(twxAnalyzeCmd)

	twxExtractCmd.Flags().StringVar(&twxOut, "out", "", "Output directory (default "+config.DefaultOutputDir+")")

	twxAnalyzeCmd.Flags().StringVarP(&twxFormat, "output", "o", "cli", "Output format")
	twxAnalyzeCmd.Flags().StringVar(&twxReport, "report", "", "Summary path for json output")
	twxAnalyzeCmd.Flags().IntVar(&twxWorkers, "workers", 0, "Files scanned at once (default one per CPU)")

	twxAnalyzeCmd.RegisterFlagCompletionFunc("output", func(cmd *cobra.Command, args []string, toComplete string) ([]string, cobra.ShellCompDirective) {
		return twxFormats, cobra.ShellCompDirectiveNoFileComp
	})
}
