// Package main provides reportctl, an offline companion to the report
// server: it renders progress charts from series files and builds student
// reports straight from a sheet source.
package main

import (
	"fmt"
	"io"
	"os"

	"github.com/joho/godotenv"
	"github.com/okian/reportcard/pkg/logger"
	"github.com/spf13/cobra"
)

// newRootCmd builds the command tree writing results to out and log
// records to errOut.
func newRootCmd(out, errOut io.Writer) *cobra.Command {
	var (
		logLevel  string
		logFormat string
	)

	root := &cobra.Command{
		Use:           "reportctl",
		Short:         "Student progress report tools",
		Long:          "reportctl renders progress charts to PNG files and prints student progress reports built from published sheets or workbooks.",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(_ *cobra.Command, _ []string) error {
			if err := logger.InitWith(errOut, logger.Format(logFormat)); err != nil {
				return fmt.Errorf("init logging: %w", err)
			}
			if err := logger.SetLevelString(logLevel); err != nil {
				return fmt.Errorf("init logging: %w", err)
			}
			return nil
		},
	}
	root.SetOut(out)
	root.SetErr(errOut)
	root.PersistentFlags().StringVar(&logLevel, "log-level", "info", "Log level (debug, info, warn, error)")
	root.PersistentFlags().StringVar(&logFormat, "log-format", "text", "Log format (text, json)")

	root.AddCommand(newRenderCmd(), newReportCmd(), newStudentsCmd())
	return root
}

func main() {
	// Load .env file if it exists
	_ = godotenv.Load()

	if err := newRootCmd(os.Stdout, os.Stderr).Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
