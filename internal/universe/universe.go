// Package universe loads the optional secondary sound theme and resolves
// event mappings and "persona.useCase" references against it.
//
// The file is independent of the main sound config:
//
//	default_universe: warcraft
//	event_mapping:
//	  hook_blocked_action:
//	    universe: stng
//	    sounds: [worf.security_alert]
//	universes:
//	  stng:
//	    enabled: true
//	    agent_personas: {claude-code: data}
//	    curated_sounds:
//	      data: {task_completed: STNG-data-fascinating.mp3}
package universe

import (
	"errors"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/HendryAvila/warhorn/internal/catalog"
)

// Auto is the mapping universe that defers to the default universe.
const Auto = "auto"

// DefaultPersona is the secondary-universe persona for unmapped agents.
const DefaultPersona = "picard"

// useCases maps categories to the curated use case a persona sound is
// looked up under.
var useCases = map[string]string{
	catalog.CategoryCompletion:     "task_completed",
	catalog.CategoryAcknowledgment: "task_acknowledged",
	catalog.CategoryGreeting:       "greeting",
	catalog.CategoryAttention:      "question",
}

// Rand is the subset of *rand.Rand (math/rand/v2) used for selection.
type Rand interface {
	IntN(n int) int
}

// Config is the secondary-universe configuration file.
type Config struct {
	DefaultUniverse string                  `yaml:"default_universe"`
	EventMapping    map[string]EventMapping `yaml:"event_mapping"`
	Universes       Universes               `yaml:"universes"`
}

// EventMapping routes one event to a universe and a list of sound refs.
type EventMapping struct {
	Universe string   `yaml:"universe"`
	Sounds   []string `yaml:"sounds"`
}

// Universes holds per-universe tables. Only the STNG theme carries any.
type Universes struct {
	STNG Theme `yaml:"stng"`
}

// Theme is a secondary universe: agent personas plus curated sounds keyed
// by persona and use case.
type Theme struct {
	// Enabled is nil when the file does not say; only an explicit false
	// turns the theme off.
	Enabled       *bool                        `yaml:"enabled"`
	AgentPersonas map[string]string            `yaml:"agent_personas"`
	CuratedSounds map[string]map[string]string `yaml:"curated_sounds"`
}

// DefaultPath returns ~/.warhorn/stng-mcp-config.yaml.
func DefaultPath() string {
	home, _ := os.UserHomeDir()
	return filepath.Join(home, ".warhorn", "stng-mcp-config.yaml")
}

// Empty returns a configuration with no mappings: every request stays in
// the default universe.
func Empty() *Config {
	return &Config{DefaultUniverse: catalog.UniverseWarcraft}
}

// Load reads and parses the universe file at path.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading universe config %s: %w", path, err)
	}
	return Parse(data)
}

// Parse decodes a universe file. An empty document yields Empty().
func Parse(data []byte) (*Config, error) {
	cfg := Empty()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parsing universe config: %w", err)
	}
	if cfg.DefaultUniverse == "" || cfg.DefaultUniverse == Auto {
		cfg.DefaultUniverse = catalog.UniverseWarcraft
	}
	return cfg, nil
}

// LoadOrEmpty never fails: a missing file yields Empty() silently, a
// broken one is logged and yields Empty().
func LoadOrEmpty(path string) *Config {
	if path == "" {
		return Empty()
	}
	cfg, err := Load(path)
	if err != nil {
		if !errors.Is(err, os.ErrNotExist) {
			log.Printf("WARNING: ignoring universe config: %v", err)
		}
		return Empty()
	}
	return cfg
}

// Enabled reports whether the secondary theme may be used.
func (c *Config) Enabled() bool {
	if c == nil {
		return false
	}
	return c.Universes.STNG.Enabled == nil || *c.Universes.STNG.Enabled
}

// Default returns the default universe name. A disabled theme is never
// the default.
func (c *Config) Default() string {
	if c == nil || c.DefaultUniverse == "" || !c.Enabled() {
		return catalog.UniverseWarcraft
	}
	return c.DefaultUniverse
}

// Select picks the universe for event and, when the event is mapped, one
// of its sounds at random. An empty sound means the request falls through
// to persona and pool selection in the returned universe.
func (c *Config) Select(event string, rng Rand) (universe, sound string) {
	universe = c.Default()
	if c == nil || event == "" {
		return universe, ""
	}

	mapping, ok := c.EventMapping[event]
	if !ok {
		return universe, ""
	}
	target := mapping.Universe
	if target == "" || target == Auto {
		target = universe
	}
	if target == catalog.UniverseSTNG && !c.Enabled() {
		return universe, ""
	}
	if len(mapping.Sounds) == 0 {
		return universe, ""
	}

	ref := mapping.Sounds[rng.IntN(len(mapping.Sounds))]
	resolved, ok := c.ResolveRef(ref)
	if !ok {
		return universe, ""
	}
	return target, resolved
}

// ResolveRef turns a sound reference into a sound id. Plain ids pass
// through; "persona.useCase" refs are looked up in the curated table.
// A trailing ".mp3" is dropped either way.
func (c *Config) ResolveRef(ref string) (string, bool) {
	ref = strings.TrimSuffix(strings.TrimSpace(ref), ".mp3")
	if ref == "" {
		return "", false
	}

	persona, useCase, isRef := strings.Cut(ref, ".")
	if !isRef {
		return ref, true
	}
	if c == nil {
		return "", false
	}
	file, ok := c.Universes.STNG.CuratedSounds[persona][useCase]
	if !ok || file == "" {
		return "", false
	}
	return strings.TrimSuffix(file, ".mp3"), true
}

// PersonaFor returns the secondary-universe persona of an agent.
func (c *Config) PersonaFor(agent string) string {
	if c != nil {
		if p, ok := c.Universes.STNG.AgentPersonas[agent]; ok && p != "" {
			return p
		}
	}
	return DefaultPersona
}

// PersonaSound returns the curated sound of the agent's secondary-universe
// persona for a category. Agents without an explicit persona mapping and
// categories without a use case have none.
func (c *Config) PersonaSound(agent, category string) (string, bool) {
	if c == nil || !c.Enabled() {
		return "", false
	}
	persona, ok := c.Universes.STNG.AgentPersonas[agent]
	if !ok || persona == "" {
		return "", false
	}
	useCase, ok := useCases[category]
	if !ok {
		return "", false
	}
	file, ok := c.Universes.STNG.CuratedSounds[persona][useCase]
	if !ok || file == "" {
		return "", false
	}
	return strings.TrimSuffix(file, ".mp3"), true
}

// Sounds returns every sound id the file can produce, sorted.
func (c *Config) Sounds() []string {
	if c == nil {
		return nil
	}
	seen := map[string]bool{}
	for _, table := range c.Universes.STNG.CuratedSounds {
		for _, file := range table {
			if file != "" {
				seen[strings.TrimSuffix(file, ".mp3")] = true
			}
		}
	}
	for _, m := range c.EventMapping {
		for _, ref := range m.Sounds {
			if id, ok := c.ResolveRef(ref); ok {
				seen[id] = true
			}
		}
	}
	out := make([]string, 0, len(seen))
	for s := range seen {
		out = append(out, s)
	}
	sort.Strings(out)
	return out
}
