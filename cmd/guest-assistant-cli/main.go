// Package main provides the guest assistant CLI entrypoint.
package main

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/dreamstate/guest-assistant/internal/assistant"
	"github.com/dreamstate/guest-assistant/internal/config"
	"github.com/dreamstate/guest-assistant/internal/observability"
)

var (
	// Global flags
	cfgFile    string
	outputJSON bool
	verbose    bool
	noColor    bool

	cfg    *config.Config
	logger *observability.Logger
	ui     *UI
)

var rootCmd = &cobra.Command{
	Use:   "guest-assistant-cli",
	Short: "Ask and debug guest questions against the property table",
	Long: `guest-assistant-cli answers guest questions the same way the chat API does
and exposes each stage on its own for debugging:

- ask:       full pipeline (extract, classify, look up, reply)
- batch:     answer a file of questions, one per line
- classify:  which field a question maps to (no network)
- match:     which row a property name resolves to
- aggregate: run a dataset-wide question
- headers:   show how each field maps onto the sheet's columns
- history:   recent audited questions

All commands support --json for automation.`,
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		var err error
		cfg, err = config.Load(cfgFile)
		if err != nil {
			return fmt.Errorf("load config: %w", err)
		}

		level := "warn"
		if verbose {
			level = "debug"
		}
		logFormat := "console"
		if outputJSON {
			logFormat = "json"
		}

		logger = observability.NewLogger(observability.LogConfig{
			Level:       level,
			Format:      logFormat,
			Output:      os.Stderr,
			ServiceName: "guest-assistant-cli",
		})
		ui = NewUI(outputJSON, noColor)
		return nil
	},
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&cfgFile, "config", "c", "", "config file path (default: uses env vars)")
	rootCmd.PersistentFlags().BoolVar(&outputJSON, "json", false, "output in JSON format")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "enable debug logging")
	rootCmd.PersistentFlags().BoolVar(&noColor, "no-color", false, "disable colored output")

	rootCmd.AddCommand(newAskCmd())
	rootCmd.AddCommand(newBatchCmd())
	rootCmd.AddCommand(newClassifyCmd())
	rootCmd.AddCommand(newMatchCmd())
	rootCmd.AddCommand(newAggregateCmd())
	rootCmd.AddCommand(newHeadersCmd())
	rootCmd.AddCommand(newHistoryCmd())
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		if ui == nil {
			// flag or config errors happen before the UI exists
			fmt.Fprintln(os.Stderr, "Error:", err)
		} else {
			ui.Error("%v", err)
		}
		os.Exit(1)
	}
}

// withRuntime builds the assistant runtime for one command invocation.
func withRuntime(timeout time.Duration, fn func(ctx context.Context, rt *assistant.Runtime) error) error {
	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()

	rt, err := assistant.NewRuntime(ctx, cfg, logger)
	if err != nil {
		return fmt.Errorf("initialize assistant: %w", err)
	}
	defer rt.Close()

	return fn(ctx, rt)
}
