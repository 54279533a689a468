package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
)

// Version is set at build time via ldflags
var Version = "dev"

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print the version",
		Args:  cobra.NoArgs,
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Fprintln(cmd.OutOrStdout(), Version)
		},
	}
}

func setVersion(rootCmd *cobra.Command) {
	rootCmd.Version = Version
	rootCmd.SetVersionTemplate("{{.Version}}\n")
	rootCmd.Long = fmt.Sprintf(`santool %s

A front-end for the san toolchain.

Get started:
  santool download                       Fetch the compiler, VM and sanusb project
  santool config --compiler-path <path>  Point santool at an existing compiler
  santool compile --source-path prog.san Compile a program to bytecode
  santool flash -s prog.san -c dev.cfg   Compile and flash a program`, Version)
}
