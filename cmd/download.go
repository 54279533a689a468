package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"santool/config"
	"santool/fetch"
)

func newDownloadCmd() *cobra.Command {
	var (
		sources = fetch.DefaultSources()
		git     string
		retries int
	)

	downloadCmd := &cobra.Command{
		Use:   "download",
		Short: "Download the san toolchain and configure santool to use it",
		Long: `Download the san compiler and VM release binaries and clone the san
repository (with submodules) next to the santool executable, then point
the config at them. A failed binary download is reported as a warning and
does not stop the remaining steps.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			silenceUsage(cmd)

			logger := loggerFor(cmd)

			base, err := config.HomeDir()
			if err != nil {
				return err
			}
			store, err := config.DefaultStore()
			if err != nil {
				return err
			}

			fetcher := fetch.New(base, store, logger, retries)
			fetcher.Sources = sources
			fetcher.Git = git
			fetcher.Stderr = cmd.ErrOrStderr()

			res, err := fetcher.Fetch(cmd.Context())
			if res != nil {
				for _, w := range res.Warnings {
					logger.Warn("download failed, continuing", "error", w)
				}
			}
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "Compiler: %s\n", res.CompilerPath)
			fmt.Fprintf(out, "VM:       %s\n", res.VMPath)
			fmt.Fprintf(out, "Sources:  %s\n", res.RepoPath)
			fmt.Fprintf(out, "Config updated: %s\n", store.Path)
			if len(res.Warnings) > 0 {
				fmt.Fprintf(out, "%d download(s) failed, see warnings above\n", len(res.Warnings))
			}
			return nil
		},
	}

	downloadCmd.Flags().StringVar(&sources.CompilerURL, "compiler-url", sources.CompilerURL, "URL of the compiler release binary")
	downloadCmd.Flags().StringVar(&sources.VMURL, "vm-url", sources.VMURL, "URL of the VM release binary")
	downloadCmd.Flags().StringVar(&sources.RepoURL, "repo-url", sources.RepoURL, "URL of the san git repository")
	downloadCmd.Flags().StringVar(&git, "git", "git", "git executable used to clone the repository")
	downloadCmd.Flags().IntVar(&retries, "retries", 2, "Retries for transient download failures")

	return downloadCmd
}
