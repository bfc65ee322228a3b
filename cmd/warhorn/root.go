package main

import (
	"fmt"
	"strings"

	"github.com/mark3labs/mcp-go/server"
	"github.com/spf13/cobra"

	"github.com/HendryAvila/warhorn/internal/catalog"
	warhorn "github.com/HendryAvila/warhorn/internal/server"
)

// serveFunc is a package-level var to allow test injection.
var serveFunc = server.ServeStdio

// flags shared by serve and doctor.
type flags struct {
	agent        string
	configPath   string
	universePath string
	soundsDir    string
	dataDir      string
	noHistory    bool
}

func (f *flags) options() warhorn.Options {
	return warhorn.Options{
		Agent:          f.agent,
		ConfigPath:     f.configPath,
		UniversePath:   f.universePath,
		SoundsDir:      f.soundsDir,
		DataDir:        f.dataDir,
		DisableHistory: f.noHistory,
	}
}

func newRootCmd() *cobra.Command {
	f := &flags{}

	root := &cobra.Command{
		Use:   "warhorn",
		Short: "Audio notification MCP server for coding agents",
		Long: `Warhorn plays persona-specific notification sounds for coding agents.
Run it as an MCP stdio server and call play_sound with an event such as
task_completed. Without a subcommand it behaves like "warhorn serve".`,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServe(f)
		},
	}

	pf := root.PersistentFlags()
	pf.StringVar(&f.agent, "agent", catalog.DefaultAgent,
		"agent identity ("+strings.Join(catalog.Agents(), "|")+")")
	pf.StringVar(&f.configPath, "config", "", "sound config file (default ~/.warhorn/sound-config.yaml)")
	pf.StringVar(&f.universePath, "universe-config", "", "universe config file (default ~/.warhorn/stng-mcp-config.yaml)")
	pf.StringVar(&f.soundsDir, "sounds-dir", "", "directory holding the .mp3 files (default ~/.warhorn/sounds)")
	pf.StringVar(&f.dataDir, "data-dir", "", "directory for the play journal (default ~/.warhorn)")
	pf.BoolVar(&f.noHistory, "no-history", false, "do not record plays in the journal")

	root.AddCommand(
		&cobra.Command{
			Use:   "serve",
			Short: "Start the MCP server (stdio transport)",
			Args:  cobra.NoArgs,
			RunE: func(cmd *cobra.Command, args []string) error {
				return runServe(f)
			},
		},
		newInitCmd(f),
		newDoctorCmd(f),
		newVersionCmd(),
	)
	return root
}

func runServe(f *flags) error {
	s, cleanup, err := warhorn.New(f.options())
	if err != nil {
		return fmt.Errorf("creating server: %w", err)
	}
	defer cleanup()

	return serveFunc(s)
}

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print the version",
		Args:  cobra.NoArgs,
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Fprintf(cmd.OutOrStdout(), "warhorn v%s\n", warhorn.Version)
		},
	}
}
