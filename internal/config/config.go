// Package config provides the typed warhorn configuration: settings,
// category pools and persona sound tables, with their defaults.
//
// Every field has a defined default. Partial files fall back field by
// field, and a configuration that cannot be read or does not validate is
// replaced by Default() as a whole. The decision engine never sees a
// half-valid configuration.
package config

import (
	"fmt"
	"log"
	"sort"
	"time"

	"github.com/HendryAvila/warhorn/internal/catalog"
)

// Rotation is the strategy used to pick the next sound from a category pool.
type Rotation string

// Rotation strategies. An empty Rotation behaves like RotationRandom.
const (
	RotationSequential Rotation = "sequential"
	RotationRandom     Rotation = "random"
)

// Persona identifiers of the default universe.
const (
	PersonaPeasant  = "peasant"
	PersonaRifleman = "rifleman"
	PersonaPeon     = "peon"
)

// Tier defaults shared with the throttle engine.
const (
	DefaultMaxSoundsPerMinute = 5
	DefaultCooldownMS         = 500
)

// Config holds all configuration options for warhorn.
type Config struct {
	Settings       Settings                       `mapstructure:"settings" yaml:"settings" json:"settings"`
	Categories     map[string]Category            `mapstructure:"categories" yaml:"categories" json:"categories"`
	DefaultPersona string                         `mapstructure:"default_persona" yaml:"default_persona" json:"default_persona"`
	Agents         map[string]string              `mapstructure:"agents" yaml:"agents" json:"agents"`
	Personas       map[string]map[string][]string `mapstructure:"personas" yaml:"personas" json:"personas"`
}

// Settings holds the global playback and throttling options.
type Settings struct {
	Enabled                 bool            `mapstructure:"enabled" yaml:"enabled" json:"enabled"`
	Volume                  float64         `mapstructure:"volume" yaml:"volume" json:"volume"`
	SoundCooldownMS         int             `mapstructure:"sound_cooldown_ms" yaml:"sound_cooldown_ms" json:"sound_cooldown_ms"`
	MaxSoundsPerMinute      int             `mapstructure:"max_sounds_per_minute" yaml:"max_sounds_per_minute" json:"max_sounds_per_minute"`
	FallbackToNotifications bool            `mapstructure:"fallback_to_notifications" yaml:"fallback_to_notifications" json:"fallback_to_notifications"`
	EasterEggProbability    float64         `mapstructure:"easter_egg_probability" yaml:"easter_egg_probability" json:"easter_egg_probability"`
	OSNotifications         OSNotifications `mapstructure:"os_notifications" yaml:"os_notifications" json:"os_notifications"`
}

// OSNotifications controls category-driven desktop notifications.
type OSNotifications struct {
	Enabled bool   `mapstructure:"enabled" yaml:"enabled" json:"enabled"`
	Style   string `mapstructure:"style" yaml:"style" json:"style"`
}

// Category is a named bucket of sounds sharing rotation and notification policy.
type Category struct {
	Pool           []string `mapstructure:"pool" yaml:"pool" json:"pool"`
	Rotation       Rotation `mapstructure:"rotation" yaml:"rotation" json:"rotation"`
	OSNotification bool     `mapstructure:"os_notification" yaml:"os_notification" json:"os_notification"`
	Intensity      string   `mapstructure:"intensity" yaml:"intensity" json:"intensity"`
	Enabled        bool     `mapstructure:"enabled" yaml:"enabled" json:"enabled"`
	// Probability overrides Settings.EasterEggProbability when set.
	Probability *float64 `mapstructure:"probability" yaml:"probability,omitempty" json:"probability,omitempty"`
}

// Cooldown returns the per-sound cooldown as a duration.
func (s Settings) Cooldown() time.Duration {
	return time.Duration(s.SoundCooldownMS) * time.Millisecond
}

// MaxPerMinute returns the default-tier limit, falling back to the tier
// default when the setting is not positive.
func (s Settings) MaxPerMinute() int {
	if s.MaxSoundsPerMinute <= 0 {
		return DefaultMaxSoundsPerMinute
	}
	return s.MaxSoundsPerMinute
}

// Category returns the configuration for a category id.
// Unknown categories report ok=false and an enabled, empty category.
func (c *Config) Category(id string) (Category, bool) {
	cat, ok := c.Categories[id]
	if !ok {
		return Category{Enabled: true}, false
	}
	return cat, true
}

// EasterEggProbability returns the probability gate for a category:
// the category's own probability when present, the global setting otherwise.
func (c *Config) EasterEggProbability(category string) float64 {
	if cat, ok := c.Categories[category]; ok && cat.Probability != nil {
		return *cat.Probability
	}
	return c.Settings.EasterEggProbability
}

// PersonaFor maps an agent to its persona in the default universe.
func (c *Config) PersonaFor(agent string) string {
	if p, ok := c.Agents[agent]; ok && p != "" {
		return p
	}
	return c.DefaultPersona
}

// PersonaSounds returns the persona's pool for a category (may be empty).
func (c *Config) PersonaSounds(persona, category string) []string {
	return c.Personas[persona][category]
}

// CategoryIDs returns the configured category ids, sorted.
func (c *Config) CategoryIDs() []string {
	ids := make([]string, 0, len(c.Categories))
	for id := range c.Categories {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

// AllSounds returns every sound id referenced by category pools and persona
// tables, deduplicated and sorted.
func (c *Config) AllSounds() []string {
	seen := map[string]bool{}
	for _, cat := range c.Categories {
		for _, s := range cat.Pool {
			seen[s] = true
		}
	}
	for _, table := range c.Personas {
		for _, pool := range table {
			for _, s := range pool {
				seen[s] = true
			}
		}
	}
	sounds := make([]string, 0, len(seen))
	for s := range seen {
		sounds = append(sounds, s)
	}
	sort.Strings(sounds)
	return sounds
}

// Validate checks the configuration for errors.
func (c *Config) Validate() error {
	s := c.Settings
	if s.Volume < 0 || s.Volume > 1 {
		return fmt.Errorf("settings.volume: %v is outside [0,1]", s.Volume)
	}
	if s.SoundCooldownMS < 0 {
		return fmt.Errorf("settings.sound_cooldown_ms: must not be negative")
	}
	if s.MaxSoundsPerMinute < 0 {
		return fmt.Errorf("settings.max_sounds_per_minute: must not be negative")
	}
	if s.EasterEggProbability < 0 || s.EasterEggProbability > 1 {
		return fmt.Errorf("settings.easter_egg_probability: %v is outside [0,1]", s.EasterEggProbability)
	}

	for _, id := range c.CategoryIDs() {
		cat := c.Categories[id]
		switch cat.Rotation {
		case "", RotationSequential, RotationRandom:
		default:
			return fmt.Errorf("category %s: unknown rotation %q", id, cat.Rotation)
		}
		if cat.Probability != nil && (*cat.Probability < 0 || *cat.Probability > 1) {
			return fmt.Errorf("category %s: probability %v is outside [0,1]", id, *cat.Probability)
		}
	}

	if c.DefaultPersona == "" {
		return fmt.Errorf("default_persona is required")
	}
	for agent, persona := range c.Agents {
		if _, ok := c.Personas[persona]; !ok {
			return fmt.Errorf("agent %s: persona %q has no sound table", agent, persona)
		}
	}
	return validatePersonaIsolation(c.Personas)
}

// validatePersonaIsolation rejects sound ids shared between personas.
func validatePersonaIsolation(personas map[string]map[string][]string) error {
	owner := map[string]string{}
	names := make([]string, 0, len(personas))
	for name := range personas {
		names = append(names, name)
	}
	sort.Strings(names)

	for _, name := range names {
		for _, pool := range personas[name] {
			for _, sound := range pool {
				if prev, ok := owner[sound]; ok && prev != name {
					return fmt.Errorf("persona %s: sound %q already belongs to persona %s", name, sound, prev)
				}
				owner[sound] = name
			}
		}
	}
	return nil
}

// repairPersonaIsolation resets every persona that references a sound owned
// by another persona to its default table. A sound is owned by the persona
// whose default table lists it, otherwise by the first persona (in name
// order) that uses it. Personas without a default table are dropped.
func repairPersonaIsolation(c *Config) {
	defaults := DefaultPersonas()
	owner := map[string]string{}
	for name, table := range defaults {
		for _, pool := range table {
			for _, sound := range pool {
				owner[sound] = name
			}
		}
	}

	names := make([]string, 0, len(c.Personas))
	for name := range c.Personas {
		names = append(names, name)
	}
	sort.Strings(names)
	for _, name := range names {
		for _, pool := range c.Personas[name] {
			for _, sound := range pool {
				if _, ok := owner[sound]; !ok {
					owner[sound] = name
				}
			}
		}
	}

	for _, name := range names {
		if !borrowsSounds(name, c.Personas[name], owner) {
			continue
		}
		if table, ok := defaults[name]; ok {
			log.Printf("WARNING: persona %s uses another persona's sounds, using its default table", name)
			c.Personas[name] = table
			continue
		}
		log.Printf("WARNING: persona %s uses another persona's sounds, dropping it", name)
		delete(c.Personas, name)
	}
}

func borrowsSounds(name string, table map[string][]string, owner map[string]string) bool {
	for _, pool := range table {
		for _, sound := range pool {
			if owner[sound] != name {
				return true
			}
		}
	}
	return false
}

// Default returns the built-in configuration.
func Default() *Config {
	egg := 0.05
	return &Config{
		Settings: Settings{
			Enabled:                 true,
			Volume:                  0.7,
			SoundCooldownMS:         DefaultCooldownMS,
			MaxSoundsPerMinute:      DefaultMaxSoundsPerMinute,
			FallbackToNotifications: true,
			EasterEggProbability:    0.05,
			OSNotifications: OSNotifications{
				Enabled: true,
				Style:   "banner",
			},
		},
		Categories: map[string]Category{
			catalog.CategoryCompletion: {
				Pool: []string{
					"peasant-job-done", "peasant-jobs-done-exact", "peasant-off-i-go",
					"STNG-picard-make-it-so", "STFC-acknowledged",
					"STFC-cochrane-thanks", "STFC-crew-aye-sir",
				},
				Rotation:       RotationSequential,
				OSNotification: true,
				Intensity:      "low",
				Enabled:        true,
			},
			catalog.CategoryAcknowledgment: {
				Pool: []string{
					"peasant-yes-me-lord", "peasant-ready-to-work", "peasant-ready-to-serve",
					"STFC-acknowledged", "STFC-crew-aye-sir", "STFC-chochrane-engage-intense",
				},
				Rotation:  RotationSequential,
				Intensity: "low",
				Enabled:   true,
			},
			catalog.CategoryAttention: {
				Pool: []string{
					"peasant-what-is-it", "peasant-more-work",
					"STFC-crusher-crusher-to-bridge",
					"STFC-data-captain-l-believe-l-am-feeling-anxiety",
				},
				Rotation:       RotationSequential,
				OSNotification: true,
				Intensity:      "medium",
				Enabled:        true,
			},
			catalog.CategoryWarning: {
				Pool: []string{
					"peon-we-need-more-gold", "you_must_construct_additional_pylons",
					"STFC-borg-collective-resistance-is-futile",
				},
				Rotation:       RotationRandom,
				OSNotification: true,
				Intensity:      "medium",
				Enabled:        true,
			},
			catalog.CategoryRefusal: {
				Pool:           []string{"peon-me-not-that-kind", "rifleman-no", "peasant-dont-want-to-do-this"},
				Rotation:       RotationRandom,
				OSNotification: true,
				Intensity:      "high",
				Enabled:        true,
			},
			catalog.CategoryEasterEgg: {
				Pool:        []string{"peon-leave-me-alone", "peasant-im-not-listening", "you_must_construct_additional_pylons"},
				Rotation:    RotationRandom,
				Intensity:   "high",
				Enabled:     true,
				Probability: &egg,
			},
			catalog.CategoryGreeting: {
				Pool: []string{
					"peasant-ready-to-work", "peasant-ready-to-serve",
					"STNG-picard-make-it-so", "STFC-acknowledged",
				},
				Rotation:  RotationSequential,
				Intensity: "low",
				Enabled:   true,
			},
		},
		DefaultPersona: PersonaPeasant,
		Agents: map[string]string{
			catalog.AgentCursor: PersonaPeasant,
			catalog.AgentClaude: PersonaRifleman,
			catalog.AgentGemini: PersonaPeon,
		},
		Personas: DefaultPersonas(),
	}
}

// DefaultPersonas returns the built-in persona sound tables. Each persona
// only references its own sounds.
func DefaultPersonas() map[string]map[string][]string {
	return map[string]map[string][]string{
		PersonaPeasant: {
			catalog.CategoryCompletion:     {"peasant-job-done", "peasant-jobs-done-exact", "peasant-off-i-go"},
			catalog.CategoryAcknowledgment: {"peasant-yes-me-lord", "peasant-ready-to-work", "peasant-ready-to-serve"},
			catalog.CategoryAttention:      {"peasant-what-is-it", "peasant-more-work"},
			catalog.CategoryWarning:        {"peasant-more-work", "you_must_construct_additional_pylons"},
			catalog.CategoryRefusal:        {"peasant-dont-want-to-do-this"},
			catalog.CategoryGreeting:       {"peasant-ready-to-work", "peasant-ready-to-serve"},
			catalog.CategoryEasterEgg:      {"peasant-im-not-listening"},
		},
		PersonaRifleman: {
			catalog.CategoryCompletion:     {"rifleman-brilliant", "rifleman-thank-you", "rifleman-my-pleasure"},
			catalog.CategoryAcknowledgment: {"rifleman-aye-sir", "rifleman-aye", "rifleman-yes", "rifleman-ill-take-care-of-it"},
			catalog.CategoryAttention:      {"rifleman-hello", "rifleman-how-are-ya", "rifleman-howre-ya"},
			catalog.CategoryWarning:        {"rifleman-help-me"},
			catalog.CategoryRefusal:        {"rifleman-no"},
			catalog.CategoryGreeting:       {"rifleman-greetings", "rifleman-hello"},
			// The rifleman has no easter eggs of its own.
			catalog.CategoryEasterEgg: {},
		},
		PersonaPeon: {
			catalog.CategoryCompletion:     {"peon-zug-zug", "peon-double"},
			catalog.CategoryAcknowledgment: {"peon-zug-zug", "peon-work-work"},
			catalog.CategoryAttention:      {"peon-something-need-doing"},
			catalog.CategoryWarning:        {"peon-we-need-more-gold"},
			catalog.CategoryRefusal:        {"peon-me-not-that-kind"},
			catalog.CategoryGreeting:       {"peon-work-work", "peon-zug-zug"},
			catalog.CategoryEasterEgg:      {"peon-leave-me-alone", "peon-what-exhasperated"},
		},
	}
}
