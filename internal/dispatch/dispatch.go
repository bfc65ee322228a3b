// Package dispatch composes resolution, throttling and side effects into a
// single play_sound decision.
//
// Each request walks a small state machine:
//
//	resolve ─┬─> done (error | disabled | skipped)
//	         └─> gate ─┬─> done (throttled | error)
//	                   └─> cooldown ─┬─> done (cooldown)
//	                                 └─> play ──> done (success | error)
//
// Tracker state only changes on success.
package dispatch

import (
	"fmt"
	"log"
	"math/rand/v2"
	"strings"
	"sync"
	"time"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"github.com/HendryAvila/warhorn/internal/catalog"
	"github.com/HendryAvila/warhorn/internal/config"
	"github.com/HendryAvila/warhorn/internal/history"
	"github.com/HendryAvila/warhorn/internal/resolver"
	"github.com/HendryAvila/warhorn/internal/sink"
	"github.com/HendryAvila/warhorn/internal/throttle"
	"github.com/HendryAvila/warhorn/internal/tracker"
	"github.com/HendryAvila/warhorn/internal/universe"
)

// DefaultNotificationTitle is used by ShowNotification when no title is given.
const DefaultNotificationTitle = "Warhorn"

// Status is the terminal outcome of a request.
type Status string

const (
	StatusSuccess   Status = "success"
	StatusDisabled  Status = "disabled"
	StatusSkipped   Status = "skipped"
	StatusThrottled Status = "throttled"
	StatusCooldown  Status = "cooldown"
	StatusError     Status = "error"
)

// Request is a play_sound call.
type Request struct {
	Event    string
	Category string
	Agent    string
	Sound    string
	Message  string
	Force    bool
}

// Result is the structured outcome returned to callers.
type Result struct {
	Status   Status `json:"status"`
	Sound    string `json:"sound,omitempty"`
	Category string `json:"category,omitempty"`
	Agent    string `json:"agent,omitempty"`
	Universe string `json:"universe,omitempty"`
	Persona  string `json:"persona,omitempty"`
	Message  string `json:"message"`
}

// ConfigSource hands out the configuration snapshot for a request.
type ConfigSource interface {
	Current() *config.Config
}

// Assets locates sound files and filters pools to existing ones.
type Assets interface {
	resolver.Assets
	Path(sound string) string
}

// Journal records outcomes. It is best effort.
type Journal interface {
	Record(e history.Entry) (history.Entry, error)
}

// Options configures a Dispatcher. Config, Assets, Audio and Notifier are
// required; the rest have defaults.
type Options struct {
	Config       ConfigSource
	Universe     *universe.Config
	Assets       Assets
	Audio        sink.AudioSink
	Notifier     sink.NotificationSink
	Journal      Journal
	DefaultAgent string
	Rand         resolver.Rand
	Clock        func() time.Time
}

// Dispatcher owns the tracker and serialises requests.
type Dispatcher struct {
	mu      sync.Mutex
	opts    Options
	tracker *tracker.Tracker
}

// globalRand draws from the math/rand/v2 top-level source.
type globalRand struct{}

func (globalRand) IntN(n int) int   { return rand.IntN(n) }
func (globalRand) Float64() float64 { return rand.Float64() }

// New returns a Dispatcher with an empty tracker.
func New(opts Options) *Dispatcher {
	if opts.DefaultAgent == "" {
		opts.DefaultAgent = catalog.DefaultAgent
	}
	if opts.Universe == nil {
		opts.Universe = universe.Empty()
	}
	if opts.Rand == nil {
		opts.Rand = globalRand{}
	}
	if opts.Clock == nil {
		opts.Clock = time.Now
	}
	return &Dispatcher{opts: opts, tracker: tracker.New()}
}

// DefaultAgent returns the agent used when a request names none.
func (d *Dispatcher) DefaultAgent() string {
	return d.opts.DefaultAgent
}

// ─── State machine ───────────────────────────────────────────────────────────

type state int

const (
	stateResolve state = iota
	stateGate
	stateCooldown
	statePlay
	stateDone
)

// attempt carries one request through the states.
type attempt struct {
	req      Request
	cfg      *config.Config
	category config.Category
	now      time.Time
	res      resolver.Resolution
	result   Result
}

// finish sets the terminal result, filling context from the resolution.
func (a *attempt) finish(status Status, message string) state {
	a.result = Result{
		Status:   status,
		Category: a.res.Category,
		Agent:    a.req.Agent,
		Universe: a.res.Universe,
		Persona:  a.res.Persona,
		Message:  message,
	}
	if status == StatusSuccess || status == StatusCooldown || (status == StatusError && a.res.Sound != "") {
		a.result.Sound = a.res.Sound
	}
	return stateDone
}

// Play runs a play_sound request to a terminal outcome.
func (d *Dispatcher) Play(req Request) Result {
	d.mu.Lock()
	defer d.mu.Unlock()

	if req.Agent == "" {
		req.Agent = d.opts.DefaultAgent
	}
	a := &attempt{req: req, cfg: d.opts.Config.Current(), now: d.opts.Clock()}

	for st := stateResolve; st != stateDone; {
		switch st {
		case stateResolve:
			st = d.resolve(a)
		case stateGate:
			st = d.gate(a)
		case stateCooldown:
			st = d.cooldown(a)
		case statePlay:
			st = d.play(a)
		}
	}

	d.record(a)
	return a.result
}

func (d *Dispatcher) resolve(a *attempt) state {
	r := resolver.Resolver{
		Config:   a.cfg,
		Universe: d.opts.Universe,
		History:  d.tracker,
		Assets:   d.opts.Assets,
		Rand:     d.opts.Rand,
	}
	a.res = r.Resolve(resolver.Request{
		Event:    a.req.Event,
		Category: a.req.Category,
		Sound:    a.req.Sound,
		Agent:    a.req.Agent,
	})
	a.category, _ = a.cfg.Category(a.res.Category)

	switch a.res.Outcome {
	case resolver.OutcomeNoCategory:
		return a.finish(StatusError, "No category or sound specified")
	case resolver.OutcomeDisabled:
		if !a.cfg.Settings.Enabled {
			return a.finish(StatusDisabled, "Audio notifications are disabled")
		}
		return a.finish(StatusDisabled, fmt.Sprintf("Category '%s' is disabled", a.res.Category))
	case resolver.OutcomeSkipped:
		return a.finish(StatusSkipped, "Easter egg probability check failed")
	}
	return stateGate
}

func (d *Dispatcher) gate(a *attempt) state {
	if !a.req.Force && throttle.ShouldThrottle(a.req.Event, a.cfg.Settings, d.tracker, a.now) {
		if a.cfg.Settings.FallbackToNotifications && a.req.Message != "" {
			d.notify(agentDisplayName(a.req.Agent), a.req.Message)
			return a.finish(StatusThrottled, "Rate limited, showed silent notification")
		}
		return a.finish(StatusThrottled, "Rate limited")
	}
	if a.res.Sound == "" {
		return a.finish(StatusError, "No sound available")
	}
	return stateCooldown
}

func (d *Dispatcher) cooldown(a *attempt) state {
	if !a.req.Force && d.tracker.InCooldown(a.res.Sound, a.cfg.Settings.Cooldown(), a.now) {
		return a.finish(StatusCooldown, fmt.Sprintf("Sound '%s' is in cooldown", a.res.Sound))
	}
	return statePlay
}

func (d *Dispatcher) play(a *attempt) state {
	path := d.opts.Assets.Path(a.res.Sound)
	if err := d.opts.Audio.Play(path, a.cfg.Settings.Volume); err != nil {
		log.Printf("WARNING: playing %s: %v", path, err)
		return a.finish(StatusError, fmt.Sprintf("Failed to play '%s'", a.res.Sound))
	}

	d.tracker.RecordPlay(tracker.Play{
		Sound:    a.res.Sound,
		Agent:    a.req.Agent,
		Category: a.res.Category,
		Hook:     catalog.IsHookEvent(a.req.Event),
		FromPool: a.res.Source == resolver.SourcePool,
		At:       a.now,
	})

	name := agentDisplayName(a.req.Agent)
	if catalog.IsCriticalNotification(a.req.Event) {
		msg := a.req.Message
		if msg == "" {
			msg = titleCase(strings.ReplaceAll(a.req.Event, "hook_", ""))
		}
		d.notify("Security: "+name, msg)
	}
	if a.cfg.Settings.OSNotifications.Enabled && a.category.OSNotification {
		msg := a.req.Message
		if msg == "" {
			msg = titleCase(a.res.Category) + " event"
		}
		d.notify(fmt.Sprintf("%s (%s)", name, titleCase(a.res.Persona)), msg)
	}

	return a.finish(StatusSuccess, fmt.Sprintf("Played '%s' for %s (%s/%s)",
		a.res.Sound, a.req.Agent, a.res.Universe, a.res.Persona))
}

// notify raises a silent notification; failures are logged only.
func (d *Dispatcher) notify(title, message string) {
	if err := d.opts.Notifier.Notify(title, message, false); err != nil {
		log.Printf("WARNING: notification %q: %v", title, err)
	}
}

// record appends the outcome to the journal, if any.
func (d *Dispatcher) record(a *attempt) {
	if d.opts.Journal == nil {
		return
	}
	_, err := d.opts.Journal.Record(history.Entry{
		CreatedAt: a.now,
		Status:    string(a.result.Status),
		Event:     a.req.Event,
		Category:  a.result.Category,
		Agent:     a.req.Agent,
		Persona:   a.result.Persona,
		Universe:  a.result.Universe,
		Sound:     a.res.Sound,
		Source:    string(a.res.Source),
		Tier:      string(throttle.TierFor(a.req.Event)),
		Forced:    a.req.Force,
		Message:   a.result.Message,
	})
	if err != nil {
		log.Printf("WARNING: journal: %v", err)
	}
}

// ─── Notifications ───────────────────────────────────────────────────────────

// ShowNotification raises a desktop notification directly.
func (d *Dispatcher) ShowNotification(title, message string) Result {
	if title == "" {
		title = DefaultNotificationTitle
	}
	if err := d.opts.Notifier.Notify(title, message, false); err != nil {
		log.Printf("WARNING: notification %q: %v", title, err)
		return Result{Status: StatusError, Message: "Failed to show notification"}
	}
	return Result{Status: StatusSuccess, Message: fmt.Sprintf("Notification shown: %s", title)}
}

// ─── Status ──────────────────────────────────────────────────────────────────

// Report describes the dispatcher for the status resource.
type Report struct {
	Agent            string           `json:"agent"`
	Persona          string           `json:"persona"`
	DefaultUniverse  string           `json:"default_universe"`
	Enabled          bool             `json:"enabled"`
	Volume           float64          `json:"volume"`
	CooldownMS       int              `json:"sound_cooldown_ms"`
	MaxPerMinute     int              `json:"max_sounds_per_minute"`
	HookMaxPerMinute int              `json:"hook_max_per_minute"`
	Tracker          tracker.Snapshot `json:"tracker"`
}

// Report returns the current state.
func (d *Dispatcher) Report() Report {
	d.mu.Lock()
	defer d.mu.Unlock()

	cfg := d.opts.Config.Current()
	return Report{
		Agent:            d.opts.DefaultAgent,
		Persona:          cfg.PersonaFor(d.opts.DefaultAgent),
		DefaultUniverse:  d.opts.Universe.Default(),
		Enabled:          cfg.Settings.Enabled,
		Volume:           cfg.Settings.Volume,
		CooldownMS:       cfg.Settings.SoundCooldownMS,
		MaxPerMinute:     cfg.Settings.MaxPerMinute(),
		HookMaxPerMinute: throttle.HookMaxPerMinute,
		Tracker:          d.tracker.Snapshot(d.opts.Clock()),
	}
}

// ─── Helpers ─────────────────────────────────────────────────────────────────

// titleCase turns "easter_egg" or "blocked_action" into "Easter Egg" or
// "Blocked Action".
func titleCase(s string) string {
	return cases.Title(language.English).String(strings.ReplaceAll(s, "_", " "))
}

// agentDisplayName turns "claude-code" into "Claude Code".
func agentDisplayName(agent string) string {
	return cases.Title(language.English).String(strings.ReplaceAll(agent, "-", " "))
}
