package cmd

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"path/filepath"
	"runtime"
	"syscall"

	"github.com/charmbracelet/log"
	"github.com/spf13/cobra"

	"github.com/mabhi256/bpmx/internal/config"
	"github.com/mabhi256/bpmx/internal/logging"
)

var (
	configPath string
	verbose    bool

	cfg    *config.Config
	logger *log.Logger
)

var rootCmd = &cobra.Command{
	Use:   "bpmx",
	Short: "Streaming analysis and component extraction for BPM XML",
	Long: `bpmx scans large IBM BPM / BAW BPMN documents and TWX exports in a single
streaming pass. It reports structure and conversion complexity, and extracts
coach views, tasks and other components as standalone XML fragments.`,
	SilenceUsage:  true,
	SilenceErrors: true,

	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		switch cmd.Name() {
		case "install", "version", "help", "completion", cobra.ShellCompRequestCmd:
			return nil
		}

		if _, ok := completionTarget(cmd.Root()); ok && !completionsExist(cmd.Root()) {
			errOut := cmd.ErrOrStderr()
			if err := installCompletions(cmd.Root()); err == nil {
				fmt.Fprintln(errOut, "✅ Shell completions installed, restart your shell to enable them")
			} else {
				fmt.Fprintln(errOut, "⚠️  Could not install shell completions. Run 'bpmx install' to try again.")
			}
		}

		return setup(cmd)
	},
}

// setup loads the configuration and builds the logger shared by all
// commands.
func setup(cmd *cobra.Command) error {
	var err error
	cfg, err = config.Load(configPath)
	if err != nil {
		return err
	}

	level := cfg.LogLevel
	if verbose {
		level = "debug"
	}
	logger, err = logging.New(cmd.ErrOrStderr(), level)
	return err
}

var installCmd = &cobra.Command{
	Use:   "install",
	Short: "Install shell completions",
	RunE: func(cmd *cobra.Command, args []string) error {
		if completionsExist(cmd.Root()) {
			fmt.Fprintln(cmd.OutOrStdout(), "✅ Already configured!")
			return nil
		}
		if err := installCompletions(cmd.Root()); err != nil {
			return err
		}
		fmt.Fprintln(cmd.OutOrStdout(), "✅ Done! Restart your shell to enable tab completion.")
		return nil
	},
}

func Execute() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := rootCmd.ExecuteContext(ctx); err != nil {
		fmt.Fprintln(os.Stderr, "❌", err)
		stop()
		os.Exit(1)
	}
}

type completion struct {
	path string
	gen  func(io.Writer) error
}

// completionTarget returns where the completion script for the current
// shell lives and how to generate it.
func completionTarget(root *cobra.Command) (completion, bool) {
	home, _ := os.UserHomeDir()

	shell := filepath.Base(os.Getenv("SHELL"))
	if runtime.GOOS == "windows" {
		shell = "powershell"
	}

	switch shell {
	case "bash":
		return completion{filepath.Join(home, ".local/share/bash-completion/completions/bpmx"), root.GenBashCompletion}, true
	case "zsh":
		return completion{filepath.Join(home, ".zsh/completions/_bpmx"), root.GenZshCompletion}, true
	case "fish":
		return completion{filepath.Join(home, ".config/fish/completions/bpmx.fish"),
			func(w io.Writer) error { return root.GenFishCompletion(w, true) }}, true
	case "powershell":
		return completion{filepath.Join(home, "bpmx_completion.ps1"), root.GenPowerShellCompletionWithDesc}, true
	}
	return completion{}, false
}

func completionsExist(root *cobra.Command) bool {
	target, ok := completionTarget(root)
	if !ok {
		return false
	}
	_, err := os.Stat(target.path)
	return err == nil
}

func installCompletions(root *cobra.Command) error {
	target, ok := completionTarget(root)
	if !ok {
		return fmt.Errorf("shell completion not supported for %q", os.Getenv("SHELL"))
	}
	if err := os.MkdirAll(filepath.Dir(target.path), 0755); err != nil {
		return err
	}

	file, err := os.Create(target.path)
	if err != nil {
		return err
	}
	defer file.Close()
	return target.gen(file)
}

func init() {
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "", "Configuration file (default "+config.DefaultFile+")")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Enable debug logging")

	rootCmd.AddCommand(installCmd)
}
