package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/querydoctor/querydoctor/pkg/config"
)

var initConfigCmd = &cobra.Command{
	Use:   "init-config [path]",
	Short: "Write a starter configuration file",
	Long: `Write a commented querydoctor.yaml with every setting at its default.
Pass a path to write somewhere else. Existing files are never overwritten.`,
	Args: cobra.MaximumNArgs(1),
	RunE: runInitConfig,
}

func runInitConfig(cmd *cobra.Command, args []string) error {
	path := ""
	if len(args) == 1 {
		path = args[0]
	}

	if err := config.WriteDefault(path); err != nil {
		return err
	}

	if path == "" {
		path = config.DefaultConfigFile
	}
	fmt.Fprintf(cmd.OutOrStdout(), "Wrote %s\n", path)
	return nil
}
