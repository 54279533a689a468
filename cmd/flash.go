package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"santool/config"
	"santool/toolchain"
)

func newFlashCmd() *cobra.Command {
	var (
		req    toolchain.FlashRequest
		runner string
	)

	flashCmd := &cobra.Command{
		Use:   "flash",
		Short: "Flash a payload to a device through the sanusb project",
		Long: `Copy the device config and a payload into the sanusb project, then run the
project and print its output until it exits.

The payload is the bytecode given with --bytecode-path, or the result of
compiling --source-path when no bytecode is given.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			silenceUsage(cmd)

			store, err := config.DefaultStore()
			if err != nil {
				return err
			}
			cfg, err := store.Load()
			if err != nil {
				return err
			}

			flasher, err := toolchain.NewFlasher(cfg)
			if err != nil {
				return err
			}
			flasher.Runner = runner
			flasher.Stdout = cmd.OutOrStdout()
			flasher.Stderr = cmd.ErrOrStderr()
			flasher.Logger = loggerFor(cmd)

			out := cmd.OutOrStdout()
			return flasher.Flash(cmd.Context(), req, func(line string) {
				fmt.Fprintln(out, line)
			})
		},
	}

	flashCmd.Flags().StringVarP(&req.SourcePath, "source-path", "s", "", "Path to a .san source file to compile and flash")
	flashCmd.Flags().StringVarP(&req.BytecodePath, "bytecode-path", "b", "", "Path to precompiled bytecode to flash")
	flashCmd.Flags().StringVarP(&req.ConfigPath, "config-path", "c", "", "Path to the device config copied into the sanusb project")
	flashCmd.Flags().StringVar(&runner, "runner", toolchain.DefaultRunner, "Command that builds and runs the sanusb project")
	_ = flashCmd.MarkFlagRequired("config-path")

	return flashCmd
}
