// Package throttle implements the rate-limit tiers and the easter-egg
// probability gate.
package throttle

import (
	"time"

	"github.com/HendryAvila/warhorn/internal/catalog"
	"github.com/HendryAvila/warhorn/internal/config"
)

// HookMaxPerMinute is the fixed limit of the hook tier.
const HookMaxPerMinute = 3

// Tier names the rate-limit bucket an event falls into.
type Tier string

const (
	TierSecurityCritical Tier = "security_critical"
	TierHook             Tier = "hook"
	TierDefault          Tier = "default"
)

// Windows is the part of the tracker the throttle reads.
type Windows interface {
	DefaultWindow(now time.Time) int
	HookWindow(now time.Time) int
}

// Rand is the subset of *rand.Rand (math/rand/v2) used by the gate.
type Rand interface {
	Float64() float64
}

// TierFor returns the tier of event. Events outside the hook and
// security tables, and empty events, are default tier.
func TierFor(event string) Tier {
	switch {
	case catalog.IsSecurityCritical(event):
		return TierSecurityCritical
	case catalog.IsHookEvent(event):
		return TierHook
	default:
		return TierDefault
	}
}

// ShouldThrottle reports whether a play for event must be rate limited.
// Security-critical events are never throttled; hook events are bounded
// by the hook window; everything else by the default window.
func ShouldThrottle(event string, settings config.Settings, w Windows, now time.Time) bool {
	switch TierFor(event) {
	case TierSecurityCritical:
		return false
	case TierHook:
		return w.HookWindow(now) >= HookMaxPerMinute
	default:
		return w.DefaultWindow(now) >= settings.MaxPerMinute()
	}
}

// EasterEggPasses draws a value in [0,1) and passes when it does not exceed
// probability. A probability of zero never passes, one always does.
func EasterEggPasses(probability float64, rng Rand) bool {
	if probability <= 0 {
		return false
	}
	return rng.Float64() <= probability
}
