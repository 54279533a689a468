package cmd

import (
	"github.com/spf13/cobra"

	"santool/config"
	"santool/toolchain"
)

func newCompileCmd() *cobra.Command {
	var req toolchain.CompileRequest

	compileCmd := &cobra.Command{
		Use:   "compile",
		Short: "Compile a .san source file",
		Long: `Run the configured san compiler on a source file. The output defaults to
the source path with a trailing "b" (prog.san -> prog.sanb).`,
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

			compiler, err := toolchain.NewCompiler(cfg)
			if err != nil {
				return err
			}
			compiler.Stdout = cmd.OutOrStdout()
			compiler.Stderr = cmd.ErrOrStderr()
			compiler.Logger = loggerFor(cmd)

			out, err := compiler.Compile(cmd.Context(), req)
			if err != nil {
				return err
			}
			loggerFor(cmd).Info("compiled", "source", req.SourcePath, "output", out)
			return nil
		},
	}

	compileCmd.Flags().StringVarP(&req.SourcePath, "source-path", "s", "", "Path to the .san source file")
	compileCmd.Flags().StringVarP(&req.OutputPath, "output-path", "o", "", "Path of the compiled bytecode")
	_ = compileCmd.MarkFlagRequired("source-path")

	return compileCmd
}
