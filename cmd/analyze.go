package cmd

import (
	"fmt"
	"os"
	"path/filepath"
	"slices"

	"github.com/spf13/cobra"

	"github.com/mabhi256/bpmx/internal/analysis"
	"github.com/mabhi256/bpmx/internal/extract"
	"github.com/mabhi256/bpmx/internal/html"
	"github.com/mabhi256/bpmx/internal/output"
	"github.com/mabhi256/bpmx/internal/report"
	"github.com/mabhi256/bpmx/internal/tui"
	"github.com/mabhi256/bpmx/utils"
)

var analyzeFormats = []string{"cli", "cli-more", "json", "html", "tui"}

var (
	analyzeFormat string
	reportPath    string
)

var analyzeCmd = &cobra.Command{
	Use:               "analyze [bpmn-file]",
	Short:             "Analyze document structure and conversion complexity",
	Args:              cobra.ExactArgs(1),
	ValidArgsFunction: utils.CompleteFilesByExtension(utils.XMLExtensions),
	PreRunE: func(cmd *cobra.Command, args []string) error {
		if !slices.Contains(analyzeFormats, analyzeFormat) {
			return fmt.Errorf("invalid output format: %s. Valid options: %v", analyzeFormat, analyzeFormats)
		}
		return checkFile(args[0])
	},
	RunE: func(cmd *cobra.Command, args []string) error {
		opts := cfg.ScanOptions()
		opts.Logger = logger

		logger.Debug("scanning", "file", args[0])
		res, err := extract.ScanFile(cmd.Context(), args[0], opts)
		if err != nil {
			return err
		}

		r := analysis.Build(res, cfg.Scoring)
		logger.Debug("scan complete", "events", r.Events, "elements", r.TotalElements, "score", r.Score)

		out := cmd.OutOrStdout()
		switch analyzeFormat {
		case "json":
			path := reportPath
			if path == "" {
				path = filepath.Join(cfg.Output.Dir, output.ReportFile)
			}
			if err := output.WriteJSON(path, r); err != nil {
				return err
			}
			fmt.Fprintf(out, "📄 Analysis report written to %s\n", path)
		case "html":
			path, err := html.GenerateHTMLReport(r, reportPath)
			if err != nil {
				return err
			}
			fmt.Fprintf(out, "🌐 HTML report written to %s\n", path)
		case "tui":
			return tui.StartTUI(r)
		default:
			report.Print(out, r, analyzeFormat)
		}
		return nil
	},
}

// checkFile rejects missing paths and directories before a scan starts.
func checkFile(path string) error {
	info, err := os.Stat(path)
	if os.IsNotExist(err) {
		return fmt.Errorf("file does not exist: %s", path)
	}
	if err != nil {
		return err
	}
	if info.IsDir() {
		return fmt.Errorf("%s is a directory", path)
	}
	return nil
}

func init() {
	rootCmd.AddCommand(analyzeCmd)

	analyzeCmd.Flags().StringVarP(&analyzeFormat, "output", "o", "cli", "Output format")
	analyzeCmd.Flags().StringVar(&reportPath, "report", "", "Report path for json and html output")

	analyzeCmd.RegisterFlagCompletionFunc("output", func(cmd *cobra.Command, args []string, toComplete string) ([]string, cobra.ShellCompDirective) {
		return analyzeFormats, cobra.ShellCompDirectiveNoFileComp
	})
}
