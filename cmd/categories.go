package cmd

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/mabhi256/bpmx/internal/config"
	"github.com/mabhi256/bpmx/utils"
)

var categoriesCmd = &cobra.Command{
	Use:   "categories",
	Short: "List the configured component categories",
	Args:  cobra.NoArgs,
	Run: func(cmd *cobra.Command, args []string) {
		out := cmd.OutOrStdout()
		fmt.Fprintln(out, "🗂️  Component categories")
		fmt.Fprintln(out, strings.Repeat("─", 50))
		for _, name := range cfg.CategoryNames() {
			fmt.Fprintf(out, "%s %s\n",
				utils.SectionStyle.Render(fmt.Sprintf("%-16s", name)),
				strings.Join(cfg.Categories[name], ", "))
		}
		fmt.Fprintf(out, "\nTask-like: %s and any element ending in \"Task\"\n", strings.Join(cfg.TaskElements, ", "))
	},
}

// currentConfig returns the loaded configuration, falling back to defaults
// during shell completion where setup does not run.
func currentConfig() *config.Config {
	if cfg != nil {
		return cfg
	}
	c, err := config.Load(configPath)
	if err != nil {
		return config.Default()
	}
	return c
}

func init() {
	rootCmd.AddCommand(categoriesCmd)
}
