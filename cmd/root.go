package cmd

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/hashicorp/go-hclog"
	"github.com/spf13/cobra"
)

// NewRootCmd builds the santool command tree
func NewRootCmd() *cobra.Command {
	var logLevel string

	rootCmd := &cobra.Command{
		Use:   "santool",
		Short: "santool drives the san compiler, VM and sanusb flasher",
		Long: `santool is a front-end for the san toolchain.

Configure where the tools live, compile .san sources to bytecode and flash
payloads to a device through the sanusb project.`,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			level := hclog.LevelFromString(logLevel)
			if level == hclog.NoLevel {
				return fmt.Errorf("invalid log level %q (expected trace, debug, info, warn or error)", logLevel)
			}
			logger := hclog.New(&hclog.LoggerOptions{
				Name:   "santool",
				Output: cmd.ErrOrStderr(),
				Level:  level,
			})
			cmd.SetContext(hclog.WithContext(cmd.Context(), logger))
			return nil
		},
	}

	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "warn", "Log level (trace|debug|info|warn|error)")

	rootCmd.AddCommand(newConfigCmd())
	rootCmd.AddCommand(newCompileCmd())
	rootCmd.AddCommand(newFlashCmd())
	rootCmd.AddCommand(newDownloadCmd())
	rootCmd.AddCommand(newVersionCmd())
	setVersion(rootCmd)

	return rootCmd
}

// Execute runs santool and exits non-zero on any error
func Execute() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	err := NewRootCmd().ExecuteContext(ctx)
	stop()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

// silenceUsage is called first in every RunE. Cobra validates required flags
// after the pre-run hooks, so usage is only silenced once a command is running.
func silenceUsage(cmd *cobra.Command) {
	cmd.SilenceUsage = true
}

// loggerFor returns the logger installed by the root command
func loggerFor(cmd *cobra.Command) hclog.Logger {
	return hclog.FromContext(cmd.Context())
}
