// Package tracker holds the runtime rotation and cooldown state of the
// dispatcher. State lives for the process lifetime and only changes when a
// sound actually plays.
//
// Two last-sound namespaces are kept apart on purpose: the persona
// namespace is keyed by (agent, category) and drives persona selection,
// the pool namespace is keyed by category and drives pool rotation.
package tracker

import (
	"time"
)

// Window is the length of the sliding throttle windows.
const Window = 60 * time.Second

// Play describes one successful playback.
type Play struct {
	Sound    string
	Agent    string
	Category string
	// Hook marks plays of hook events; they also count in the hook window.
	Hook bool
	// FromPool marks sounds picked by category pool rotation.
	FromPool bool
	At       time.Time
}

type personaKey struct {
	agent    string
	category string
}

// Tracker is the rotation and cooldown state. It is not safe for
// concurrent use; the dispatcher serialises access.
type Tracker struct {
	lastPlayedAt   map[string]time.Time
	lastForPersona map[personaKey]string
	lastForPool    map[string]string
	defaultWindow  []time.Time
	hookWindow     []time.Time
}

// New returns an empty Tracker.
func New() *Tracker {
	return &Tracker{
		lastPlayedAt:   make(map[string]time.Time),
		lastForPersona: make(map[personaKey]string),
		lastForPool:    make(map[string]string),
	}
}

// InCooldown reports whether sound played less than cooldown ago.
func (t *Tracker) InCooldown(sound string, cooldown time.Duration, now time.Time) bool {
	last, ok := t.lastPlayedAt[sound]
	if !ok {
		return false
	}
	return now.Sub(last) < cooldown
}

// RecordPlay applies a successful playback to every namespace it touches.
func (t *Tracker) RecordPlay(p Play) {
	t.lastPlayedAt[p.Sound] = p.At
	t.defaultWindow = append(t.defaultWindow, p.At)
	if p.Hook {
		t.hookWindow = append(t.hookWindow, p.At)
	}
	if p.Category == "" {
		return
	}
	t.lastForPersona[personaKey{p.Agent, p.Category}] = p.Sound
	if p.FromPool {
		t.lastForPool[p.Category] = p.Sound
	}
}

// LastForPersona returns the previous sound for (agent, category).
func (t *Tracker) LastForPersona(agent, category string) string {
	return t.lastForPersona[personaKey{agent, category}]
}

// LastForPool returns the previous pool-rotation sound for category.
func (t *Tracker) LastForPool(category string) string {
	return t.lastForPool[category]
}

// DefaultWindow prunes and counts default-tier plays in the last minute.
func (t *Tracker) DefaultWindow(now time.Time) int {
	t.defaultWindow = prune(t.defaultWindow, now)
	return len(t.defaultWindow)
}

// HookWindow prunes and counts hook-tier plays in the last minute.
func (t *Tracker) HookWindow(now time.Time) int {
	t.hookWindow = prune(t.hookWindow, now)
	return len(t.hookWindow)
}

// prune drops timestamps at least Window old. Timestamps are appended in
// order, so the survivors are a suffix.
func prune(window []time.Time, now time.Time) []time.Time {
	i := 0
	for i < len(window) && now.Sub(window[i]) >= Window {
		i++
	}
	if i == 0 {
		return window
	}
	return append(window[:0], window[i:]...)
}

// Snapshot is a read-only view of the tracker for status reporting.
type Snapshot struct {
	DefaultWindow int               `json:"default_window"`
	HookWindow    int               `json:"hook_window"`
	SoundsPlayed  int               `json:"distinct_sounds_played"`
	LastForPool   map[string]string `json:"last_for_pool,omitempty"`
	LastPlayed    string            `json:"last_played,omitempty"`
	LastPlayedAt  *time.Time        `json:"last_played_at,omitempty"`
}

// Snapshot prunes the windows and returns a copy of the state.
func (t *Tracker) Snapshot(now time.Time) Snapshot {
	s := Snapshot{
		DefaultWindow: t.DefaultWindow(now),
		HookWindow:    t.HookWindow(now),
		SoundsPlayed:  len(t.lastPlayedAt),
	}
	if len(t.lastForPool) > 0 {
		s.LastForPool = make(map[string]string, len(t.lastForPool))
		for k, v := range t.lastForPool {
			s.LastForPool[k] = v
		}
	}
	for sound, at := range t.lastPlayedAt {
		if s.LastPlayedAt == nil || at.After(*s.LastPlayedAt) {
			s.LastPlayed = sound
			s.LastPlayedAt = &at
		}
	}
	return s
}
