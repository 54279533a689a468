package cmd

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/glamour"
	"github.com/spf13/cobra"

	"santool/config"
)

func newConfigCmd() *cobra.Command {
	var (
		compilerPath string
		vmPath       string
		sanusbPath   string
		infraPath    string
		show         bool
	)

	configCmd := &cobra.Command{
		Use:   "config",
		Short: "Set the paths to the external tools",
		Long: `Store the paths to the san compiler, VM, sanusb project and infra in
santool.hcl next to the santool executable ($SANTOOL_HOME overrides the
location). Only the flags given are changed; other stored paths are kept.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			silenceUsage(cmd)

			flags := cmd.Flags()
			var update config.ToolConfig
			if flags.Changed("compiler-path") {
				update.CompilerPath = config.String(compilerPath)
			}
			if flags.Changed("vm-path") {
				update.VMPath = config.String(vmPath)
			}
			if flags.Changed("sanusb-path") {
				update.SanUSBPath = config.String(sanusbPath)
			}
			if flags.Changed("infra-path") {
				update.InfraPath = config.String(infraPath)
			}

			store, err := config.DefaultStore()
			if err != nil {
				return err
			}
			cfg, err := store.Update(update)
			if err != nil {
				return err
			}
			loggerFor(cmd).Debug("config saved", "path", store.Path)

			if show {
				fmt.Fprint(cmd.OutOrStdout(), renderMarkdown(configMarkdown(store.Path, cfg)))
			}
			return nil
		},
	}

	configCmd.Flags().StringVarP(&compilerPath, "compiler-path", "c", "", "Path to the san compiler")
	configCmd.Flags().StringVarP(&vmPath, "vm-path", "v", "", "Path to the san virtual machine")
	configCmd.Flags().StringVarP(&sanusbPath, "sanusb-path", "s", "", "Path to the sanusb flashing project")
	configCmd.Flags().StringVarP(&infraPath, "infra-path", "i", "", "Path to the infra directory")
	configCmd.Flags().BoolVar(&show, "show", false, "Print the resulting config")

	return configCmd
}

// configMarkdown renders cfg as a markdown table
func configMarkdown(path string, cfg config.ToolConfig) string {
	var b strings.Builder
	fmt.Fprintf(&b, "# santool config\n\n`%s`\n\n", path)
	b.WriteString("| Key | Value |\n|---|---|\n")
	for _, f := range cfg.Fields() {
		value := "_unset_"
		if f.Value != nil {
			value = "`" + *f.Value + "`"
		}
		fmt.Fprintf(&b, "| %s | %s |\n", f.Name, value)
	}
	return b.String()
}

func renderMarkdown(md string) string {
	renderer, err := glamour.NewTermRenderer(
		glamour.WithAutoStyle(),
		glamour.WithWordWrap(100),
	)
	if err != nil {
		return md
	}
	out, err := renderer.Render(md)
	if err != nil {
		return md
	}
	return out
}
