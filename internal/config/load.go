package config

import (
	"errors"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"
)

// EnvPrefix is the prefix for environment overrides, e.g.
// WARHORN_SETTINGS_VOLUME=0.3 overrides settings.volume.
const EnvPrefix = "WARHORN"

// DefaultPath returns ~/.warhorn/sound-config.yaml.
func DefaultPath() string {
	home, _ := os.UserHomeDir()
	return filepath.Join(home, ".warhorn", "sound-config.yaml")
}

// Load reads the YAML file at path on top of the defaults and validates
// the result. An empty path loads defaults plus environment overrides.
func Load(path string) (*Config, error) {
	v := newViper()

	if path != "" {
		v.SetConfigFile(path)
		v.SetConfigType("yaml")
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("reading config %s: %w", path, err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("decoding config: %w", err)
	}

	// Categories that only exist in the file get the same implicit
	// defaults a built-in category would have.
	defaults := Default()
	for id, cat := range cfg.Categories {
		if _, builtin := defaults.Categories[id]; builtin {
			continue
		}
		if !v.IsSet("categories." + id + ".enabled") {
			cat.Enabled = true
			cfg.Categories[id] = cat
		}
	}

	repairPersonaIsolation(&cfg)

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("validating config: %w", err)
	}
	return &cfg, nil
}

// LoadOrDefault never fails: a missing file silently yields the defaults,
// an unreadable or invalid one is logged and replaced by the defaults.
func LoadOrDefault(path string) *Config {
	if path != "" {
		if _, err := os.Stat(path); errors.Is(err, os.ErrNotExist) {
			path = ""
		}
	}

	cfg, err := Load(path)
	if err != nil {
		log.Printf("WARNING: using default sound config: %v", err)
		return Default()
	}
	return cfg
}

// newViper returns a viper instance with every leaf of Default() registered
// as a default, so partial files fall back field by field.
func newViper() *viper.Viper {
	v := viper.New()
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	d := Default()
	v.SetDefault("settings.enabled", d.Settings.Enabled)
	v.SetDefault("settings.volume", d.Settings.Volume)
	v.SetDefault("settings.sound_cooldown_ms", d.Settings.SoundCooldownMS)
	v.SetDefault("settings.max_sounds_per_minute", d.Settings.MaxSoundsPerMinute)
	v.SetDefault("settings.fallback_to_notifications", d.Settings.FallbackToNotifications)
	v.SetDefault("settings.easter_egg_probability", d.Settings.EasterEggProbability)
	v.SetDefault("settings.os_notifications.enabled", d.Settings.OSNotifications.Enabled)
	v.SetDefault("settings.os_notifications.style", d.Settings.OSNotifications.Style)

	for id, cat := range d.Categories {
		key := "categories." + id
		v.SetDefault(key+".pool", cat.Pool)
		v.SetDefault(key+".rotation", string(cat.Rotation))
		v.SetDefault(key+".os_notification", cat.OSNotification)
		v.SetDefault(key+".intensity", cat.Intensity)
		v.SetDefault(key+".enabled", cat.Enabled)
		if cat.Probability != nil {
			v.SetDefault(key+".probability", *cat.Probability)
		}
	}

	v.SetDefault("default_persona", d.DefaultPersona)
	for agent, persona := range d.Agents {
		v.SetDefault("agents."+agent, persona)
	}
	for persona, table := range d.Personas {
		for category, pool := range table {
			v.SetDefault("personas."+persona+"."+category, pool)
		}
	}
	return v
}

// DefaultConfigTemplate returns the default config as commented YAML.
func DefaultConfigTemplate() (string, error) {
	data, err := yaml.Marshal(Default())
	if err != nil {
		return "", fmt.Errorf("marshaling default config: %w", err)
	}

	header := `# Warhorn sound configuration
#
# Every key is optional: missing keys fall back to the built-in defaults.
# Environment variables override file values, e.g.
#   WARHORN_SETTINGS_ENABLED=false
#   WARHORN_SETTINGS_MAX_SOUNDS_PER_MINUTE=10
#
# rotation: sequential cycles through the pool in order,
#           random avoids repeating the previous sound.
# Sound ids are file names (".mp3" optional) inside the sounds directory.

`
	return header + string(data), nil
}

// WriteDefaultConfig writes DefaultConfigTemplate to path, creating parent
// directories. It refuses to overwrite an existing file.
func WriteDefaultConfig(path string) error {
	if _, err := os.Stat(path); err == nil {
		return fmt.Errorf("config file already exists: %s", path)
	}

	content, err := DefaultConfigTemplate()
	if err != nil {
		return err
	}

	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("creating directory %s: %w", dir, err)
	}
	return os.WriteFile(path, []byte(content), 0o644)
}
