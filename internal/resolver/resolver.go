// Package resolver turns a play request into a concrete sound id.
//
// Precedence, first match wins:
//
//  1. an explicit sound, used verbatim
//  2. the secondary universe's event mapping
//  3. the category (from the request, else from the event table)
//  4. the disabled gates (global, then category)
//  5. the easter-egg probability gate
//  6. the secondary universe persona's curated sound
//  7. the agent persona's pool (default persona when empty)
//  8. the category pool, filtered to existing assets, by rotation
//
// Resolve never mutates state. The dispatcher records successful plays in
// the tracker, which feeds the rotation memory back in through History.
package resolver

import (
	"github.com/HendryAvila/warhorn/internal/catalog"
	"github.com/HendryAvila/warhorn/internal/config"
	"github.com/HendryAvila/warhorn/internal/throttle"
	"github.com/HendryAvila/warhorn/internal/universe"
)

// Outcome classifies a resolution.
type Outcome string

const (
	// OutcomeResolved means a category and/or sound was found. Sound may
	// still be empty when every pool came up dry.
	OutcomeResolved   Outcome = "resolved"
	OutcomeSkipped    Outcome = "skipped"
	OutcomeDisabled   Outcome = "disabled"
	OutcomeNoCategory Outcome = "no-category"
)

// Source records which precedence step produced the sound.
type Source string

const (
	SourceNone            Source = ""
	SourceExplicit        Source = "explicit"
	SourceUniverse        Source = "universe"
	SourceUniversePersona Source = "universe-persona"
	SourcePersona         Source = "persona"
	SourcePool            Source = "pool"
)

// Request is the input of Resolve. Agent must already be defaulted.
type Request struct {
	Event    string
	Category string
	Sound    string
	Agent    string
}

// Resolution is the result of Resolve.
type Resolution struct {
	Outcome  Outcome
	Universe string
	Category string
	Persona  string
	Sound    string
	Source   Source
}

// History is the rotation memory the resolver reads.
type History interface {
	LastForPersona(agent, category string) string
	LastForPool(category string) string
}

// Assets filters sound ids to the ones that exist.
type Assets interface {
	Filter(sounds []string) []string
}

// Rand is the subset of *rand.Rand (math/rand/v2) the resolver draws from.
type Rand interface {
	IntN(n int) int
	Float64() float64
}

// Resolver resolves requests against one configuration snapshot.
type Resolver struct {
	Config   *config.Config
	Universe *universe.Config
	History  History
	Assets   Assets
	Rand     Rand
}

// Resolve applies the precedence chain to req.
func (r *Resolver) Resolve(req Request) Resolution {
	cfg := r.Config
	res := Resolution{Universe: r.Universe.Default()}

	switch {
	case req.Sound != "":
		res.Sound, res.Source = req.Sound, SourceExplicit
	case req.Event != "":
		universeName, sound := r.Universe.Select(req.Event, r.Rand)
		res.Universe = universeName
		if sound != "" {
			res.Sound, res.Source = sound, SourceUniverse
		}
	}

	res.Category = req.Category
	if res.Category == "" && req.Event != "" {
		res.Category, _ = catalog.CategoryForEvent(req.Event)
	}
	res.Persona = r.personaFor(req.Agent, res.Universe)

	if res.Category == "" && res.Sound == "" {
		res.Outcome = OutcomeNoCategory
		return res
	}

	if !cfg.Settings.Enabled {
		res.Outcome = OutcomeDisabled
		return res
	}

	var category config.Category
	if res.Category != "" {
		category, _ = cfg.Category(res.Category)
		if !category.Enabled {
			res.Outcome = OutcomeDisabled
			return res
		}
	}

	if res.Category == catalog.CategoryEasterEgg &&
		!throttle.EasterEggPasses(cfg.EasterEggProbability(res.Category), r.Rand) {
		res.Outcome = OutcomeSkipped
		return res
	}

	res.Outcome = OutcomeResolved
	if res.Sound != "" {
		return res
	}

	if res.Universe == catalog.UniverseSTNG {
		if sound, ok := r.Universe.PersonaSound(req.Agent, res.Category); ok {
			res.Sound, res.Source = sound, SourceUniversePersona
			return res
		}
	}

	if sound := r.personaSound(req.Agent, res.Category); sound != "" {
		res.Sound, res.Source = sound, SourcePersona
		return res
	}

	if sound := r.poolSound(res.Category, category); sound != "" {
		res.Sound, res.Source = sound, SourcePool
	}
	return res
}

func (r *Resolver) personaFor(agent, universeName string) string {
	if universeName == catalog.UniverseSTNG {
		return r.Universe.PersonaFor(agent)
	}
	return r.Config.PersonaFor(agent)
}

// personaSound picks from the agent persona's pool, avoiding the previous
// sound for (agent, category). An empty pool falls back to the default
// persona's pool.
func (r *Resolver) personaSound(agent, category string) string {
	pool := r.Config.PersonaSounds(r.Config.PersonaFor(agent), category)
	if len(pool) == 0 {
		pool = r.Config.PersonaSounds(r.Config.DefaultPersona, category)
	}
	if len(pool) == 0 {
		return ""
	}
	return pickAvoiding(pool, r.History.LastForPersona(agent, category), r.Rand)
}

// poolSound rotates through the category pool restricted to existing assets.
func (r *Resolver) poolSound(id string, category config.Category) string {
	pool := r.Assets.Filter(category.Pool)
	if len(pool) == 0 {
		return ""
	}
	last := r.History.LastForPool(id)
	if category.Rotation == config.RotationSequential {
		return nextInSequence(pool, last)
	}
	return pickAvoiding(pool, last, r.Rand)
}

// nextInSequence returns the entry after last, wrapping around. When last
// is empty or gone from the pool it starts over at the first entry.
func nextInSequence(pool []string, last string) string {
	for i, s := range pool {
		if s == last {
			return pool[(i+1)%len(pool)]
		}
	}
	return pool[0]
}

// pickAvoiding picks uniformly from pool without last. If that leaves
// nothing, the exclusion is dropped.
func pickAvoiding(pool []string, last string, rng Rand) string {
	candidates := pool
	if last != "" {
		candidates = make([]string, 0, len(pool))
		for _, s := range pool {
			if s != last {
				candidates = append(candidates, s)
			}
		}
		if len(candidates) == 0 {
			candidates = pool
		}
	}
	return candidates[rng.IntN(len(candidates))]
}
