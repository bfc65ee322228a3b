package main

import (
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/HendryAvila/warhorn/internal/assets"
	"github.com/HendryAvila/warhorn/internal/catalog"
	"github.com/HendryAvila/warhorn/internal/config"
	"github.com/HendryAvila/warhorn/internal/history"
	"github.com/HendryAvila/warhorn/internal/sink"
	"github.com/HendryAvila/warhorn/internal/universe"
)

// player is the part of *sink.CommandPlayer doctor reports on.
type player interface {
	Available() bool
	Name() string
}

// detectPlayer is a package-level var to allow test injection.
var detectPlayer = func() player { return sink.NewCommandPlayer() }

func newDoctorCmd(f *flags) *cobra.Command {
	return &cobra.Command{
		Use:   "doctor",
		Short: "Check the audio player, config files and sound assets",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runDoctor(cmd.OutOrStdout(), f)
		},
	}
}

// doctor accumulates the report and counts problems.
type doctor struct {
	out      io.Writer
	problems int
}

func (d *doctor) ok(format string, args ...any) {
	fmt.Fprintf(d.out, "  ok    "+format+"\n", args...)
}

func (d *doctor) fail(format string, args ...any) {
	d.problems++
	fmt.Fprintf(d.out, "  FAIL  "+format+"\n", args...)
}

func runDoctor(out io.Writer, f *flags) error {
	opts := f.options().WithDefaults()
	d := &doctor{out: out}

	fmt.Fprintln(out, "Warhorn doctor")

	cfg := config.Default()
	switch _, err := os.Stat(opts.ConfigPath); {
	case errors.Is(err, os.ErrNotExist):
		d.ok("config %s not found, using built-in defaults", opts.ConfigPath)
	default:
		loaded, err := config.Load(opts.ConfigPath)
		if err != nil {
			d.fail("config: %v", err)
		} else {
			cfg = loaded
			d.ok("config %s", opts.ConfigPath)
		}
	}

	if catalog.IsKnownAgent(opts.Agent) {
		d.ok("agent %s plays as %s", opts.Agent, cfg.PersonaFor(opts.Agent))
	} else {
		d.fail("unknown agent %q, use one of %s", opts.Agent, strings.Join(catalog.Agents(), ", "))
	}

	uni := universe.Empty()
	switch _, err := os.Stat(opts.UniversePath); {
	case errors.Is(err, os.ErrNotExist):
		d.ok("universe config %s not found, default universe only", opts.UniversePath)
	default:
		loaded, err := universe.Load(opts.UniversePath)
		if err != nil {
			d.fail("universe config: %v", err)
		} else {
			uni = loaded
			d.ok("universe config %s (default universe %s)", opts.UniversePath, uni.Default())
		}
	}

	if p := detectPlayer(); p.Available() {
		d.ok("audio player %s", p.Name())
	} else {
		d.fail("no audio player found")
	}

	referenced := append(cfg.AllSounds(), uni.Sounds()...)
	missing := assets.New(opts.SoundsDir).Missing(dedupe(referenced))
	if len(missing) == 0 {
		d.ok("all %d sounds present in %s", len(dedupe(referenced)), opts.SoundsDir)
	} else {
		d.fail("%d sounds missing from %s:", len(missing), opts.SoundsDir)
		for _, s := range missing {
			fmt.Fprintf(out, "          %s\n", assets.FileName(s))
		}
	}

	if opts.DisableHistory {
		d.ok("play journal disabled")
	} else if store, err := history.New(history.Config{DataDir: opts.DataDir}); err != nil {
		d.fail("play journal: %v", err)
	} else {
		_ = store.Close()
		d.ok("play journal in %s", opts.DataDir)
	}

	if d.problems > 0 {
		return fmt.Errorf("%d problem(s) found", d.problems)
	}
	fmt.Fprintln(out, "No problems found.")
	return nil
}

func dedupe(sounds []string) []string {
	seen := make(map[string]bool, len(sounds))
	out := make([]string, 0, len(sounds))
	for _, s := range sounds {
		if !seen[s] {
			seen[s] = true
			out = append(out, s)
		}
	}
	return out
}
