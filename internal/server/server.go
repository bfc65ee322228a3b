// Package server wires all MCP components and creates the server instance.
//
// This is the composition root: it creates the concrete sinks, stores and
// configuration sources and injects them into the dispatcher, tools,
// prompts and resources. No decision logic lives here, only wiring.
package server

import (
	"fmt"
	"log"

	"github.com/mark3labs/mcp-go/server"

	"github.com/HendryAvila/warhorn/internal/assets"
	"github.com/HendryAvila/warhorn/internal/catalog"
	"github.com/HendryAvila/warhorn/internal/config"
	"github.com/HendryAvila/warhorn/internal/dispatch"
	"github.com/HendryAvila/warhorn/internal/history"
	"github.com/HendryAvila/warhorn/internal/prompts"
	"github.com/HendryAvila/warhorn/internal/resources"
	"github.com/HendryAvila/warhorn/internal/sink"
	"github.com/HendryAvila/warhorn/internal/tools"
	"github.com/HendryAvila/warhorn/internal/universe"
)

// Version is set at build time via ldflags.
var Version = "dev"

// Options selects the process identity and where inputs live. Zero values
// fall back to the defaults under ~/.warhorn.
type Options struct {
	Agent          string
	ConfigPath     string
	UniversePath   string
	SoundsDir      string
	DataDir        string
	DisableHistory bool

	// Audio and Notifier override the OS sinks.
	Audio    sink.AudioSink
	Notifier sink.NotificationSink
}

// WithDefaults returns o with every empty field set to its default.
func (o Options) WithDefaults() Options {
	if o.Agent == "" {
		o.Agent = catalog.DefaultAgent
	}
	if o.ConfigPath == "" {
		o.ConfigPath = config.DefaultPath()
	}
	if o.UniversePath == "" {
		o.UniversePath = universe.DefaultPath()
	}
	if o.SoundsDir == "" {
		o.SoundsDir = assets.DefaultRoot()
	}
	if o.DataDir == "" {
		o.DataDir = history.DefaultDataDir()
	}
	return o
}

// New creates and configures the MCP server with all tools, prompts, and
// resources registered.
//
// The returned cleanup function stops the config watcher and closes the
// journal database. It is always non-nil and safe to call even if optional
// subsystems failed to initialize.
func New(opts Options) (*server.MCPServer, func(), error) {
	opts = opts.WithDefaults()
	if !catalog.IsKnownAgent(opts.Agent) {
		return nil, noop, fmt.Errorf("unknown agent %q", opts.Agent)
	}

	// --- Create shared dependencies ---

	provider := config.NewProvider(opts.ConfigPath)
	if err := provider.Watch(); err != nil {
		log.Printf("WARNING: config hot reload disabled: %v", err)
	}
	cleanups := []func(){func() {
		if err := provider.Close(); err != nil {
			log.Printf("WARNING: config watcher close: %v", err)
		}
	}}

	audio := opts.Audio
	if audio == nil {
		player := sink.NewCommandPlayer()
		if !player.Available() {
			log.Printf("WARNING: no audio player found, sounds will fail to play")
		}
		audio = player
	}
	notifier := opts.Notifier
	if notifier == nil {
		notifier = sink.NewDesktopNotifier()
	}

	sounds := assets.New(opts.SoundsDir)
	provider.OnReload(sounds.Forget)

	dispatchOpts := dispatch.Options{
		Config:       provider,
		Universe:     universe.LoadOrEmpty(opts.UniversePath),
		Assets:       sounds,
		Audio:        audio,
		Notifier:     notifier,
		DefaultAgent: opts.Agent,
	}

	// --- Play journal ---
	//
	// The journal is an optional subsystem: if it fails to initialize,
	// play_sound keeps working. We log a warning and skip sound_history.

	var journal *history.Store
	if !opts.DisableHistory {
		store, err := history.New(history.Config{DataDir: opts.DataDir})
		if err != nil {
			log.Printf("WARNING: play journal disabled: %v", err)
		} else {
			journal = store
			dispatchOpts.Journal = store
			cleanups = append(cleanups, func() {
				if err := store.Close(); err != nil {
					log.Printf("WARNING: play journal close: %v", err)
				}
			})
		}
	}

	dispatcher := dispatch.New(dispatchOpts)

	// --- Create the MCP server ---

	s := server.NewMCPServer(
		"warhorn",
		Version,
		server.WithToolCapabilities(true),
		server.WithResourceCapabilities(false, true),
		server.WithPromptCapabilities(true),
		server.WithRecovery(),
		server.WithInstructions(serverInstructions()),
	)

	// --- Register tools ---

	playTool := tools.NewPlaySoundTool(dispatcher)
	s.AddTool(playTool.Definition(), playTool.Handle)

	notifyTool := tools.NewShowNotificationTool(dispatcher)
	s.AddTool(notifyTool.Definition(), notifyTool.Handle)

	if journal != nil {
		historyTool := tools.NewSoundHistoryTool(journal)
		s.AddTool(historyTool.Definition(), historyTool.Handle)
	}

	// --- Register prompts ---

	etiquettePrompt := prompts.NewEtiquettePrompt(opts.Agent)
	s.AddPrompt(etiquettePrompt.Definition(), etiquettePrompt.Handle)

	statusPrompt := prompts.NewStatusPrompt(dispatcher)
	s.AddPrompt(statusPrompt.Definition(), statusPrompt.Handle)

	// --- Register resources ---

	paths := resources.Paths{
		Config:         opts.ConfigPath,
		UniverseConfig: opts.UniversePath,
		Sounds:         opts.SoundsDir,
	}
	if journal != nil {
		paths.Data = opts.DataDir
	}
	resourceHandler := resources.NewHandler(dispatcher, paths)
	s.AddResource(resourceHandler.StatusResource(), resourceHandler.HandleStatus)

	cleanup := func() {
		for i := len(cleanups) - 1; i >= 0; i-- {
			cleanups[i]()
		}
	}
	return s, cleanup, nil
}

// noop is the cleanup returned when New fails.
func noop() {}

// serverInstructions tells the host model how to use warhorn.
func serverInstructions() string {
	return `You have access to Warhorn, an audio notification server.

Call play_sound at meaningful milestones so the user hears progress
without watching the screen:
- task_acknowledged when you start on a request
- task_completed when you finish
- build_failed, tests_failed or task_failed when something breaks
- waiting_for_input when you need the user

Prefer events over explicit sounds: the event picks the category and the
agent's persona picks the sound. Rate limits and cooldowns are normal
outcomes, do not retry a throttled or cooldown result. Never set force
unless the user asks.

Use show_notification for text-only updates. Read warhorn://status to see
the active persona and rate-limit windows.`
}
