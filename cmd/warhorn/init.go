package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/HendryAvila/warhorn/internal/config"
)

func newInitCmd(f *flags) *cobra.Command {
	return &cobra.Command{
		Use:   "init [PATH]",
		Short: "Write the default sound config",
		Long: `Write the built-in sound configuration as commented YAML to PATH
(default: --config, else ~/.warhorn/sound-config.yaml). An existing
file is never overwritten.`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			path := f.configPath
			if path == "" {
				path = config.DefaultPath()
			}
			if len(args) == 1 {
				path = args[0]
			}
			if err := config.WriteDefaultConfig(path); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Wrote %s\n", path)
			return nil
		},
	}
}
