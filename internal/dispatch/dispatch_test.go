package dispatch

import (
	"errors"
	"fmt"
	"math/rand/v2"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/HendryAvila/warhorn/internal/catalog"
	"github.com/HendryAvila/warhorn/internal/config"
	"github.com/HendryAvila/warhorn/internal/history"
	"github.com/HendryAvila/warhorn/internal/throttle"
	"github.com/HendryAvila/warhorn/internal/universe"
)

// ─── Fakes ───────────────────────────────────────────────────────────────────

type fakeAudio struct {
	mu    sync.Mutex
	paths []string
	fail  map[string]bool
}

func (f *fakeAudio) Play(path string, _ float64) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.fail[path] {
		return errors.New("player exited")
	}
	f.paths = append(f.paths, path)
	return nil
}

type notification struct {
	title, message string
}

type fakeNotifier struct {
	mu    sync.Mutex
	shown []notification
	err   error
}

func (f *fakeNotifier) Notify(title, message string, withSound bool) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if withSound {
		return errors.New("dispatcher notifications must be silent")
	}
	f.shown = append(f.shown, notification{title, message})
	return f.err
}

func (f *fakeNotifier) titles() []string {
	var out []string
	for _, n := range f.shown {
		out = append(out, n.title)
	}
	return out
}

// fakeAssets treats every sound as present.
type fakeAssets struct{}

func (fakeAssets) Filter(sounds []string) []string { return sounds }
func (fakeAssets) Path(sound string) string        { return "/sounds/" + sound + ".mp3" }

type fakeJournal struct {
	entries []history.Entry
	err     error
}

func (f *fakeJournal) Record(e history.Entry) (history.Entry, error) {
	if f.err != nil {
		return history.Entry{}, f.err
	}
	f.entries = append(f.entries, e)
	return e, nil
}

// fakeClock advances only when told to.
type fakeClock struct {
	now time.Time
}

func (c *fakeClock) Now() time.Time          { return c.now }
func (c *fakeClock) Advance(d time.Duration) { c.now = c.now.Add(d) }

type harness struct {
	d        *Dispatcher
	audio    *fakeAudio
	notifier *fakeNotifier
	journal  *fakeJournal
	clock    *fakeClock
}

func newHarness(t *testing.T, cfg *config.Config) *harness {
	t.Helper()
	h := &harness{
		audio:    &fakeAudio{},
		notifier: &fakeNotifier{},
		journal:  &fakeJournal{},
		clock:    &fakeClock{now: time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)},
	}
	h.d = New(Options{
		Config:   config.NewStaticProvider(cfg),
		Assets:   fakeAssets{},
		Audio:    h.audio,
		Notifier: h.notifier,
		Journal:  h.journal,
		Rand:     rand.New(rand.NewPCG(3, 4)),
		Clock:    h.clock.Now,
	})
	return h
}

func probability(cfg *config.Config, p float64) *config.Config {
	cat := cfg.Categories[catalog.CategoryEasterEgg]
	cat.Probability = &p
	cfg.Categories[catalog.CategoryEasterEgg] = cat
	return cfg
}

// ─── End to end ──────────────────────────────────────────────────────────────

func TestPlay_TaskCompletedForClaude(t *testing.T) {
	h := newHarness(t, config.Default())

	res := h.d.Play(Request{Event: "task_completed", Agent: catalog.AgentClaude})

	require.Equal(t, StatusSuccess, res.Status, res.Message)
	assert.Equal(t, catalog.CategoryCompletion, res.Category)
	assert.Equal(t, config.PersonaRifleman, res.Persona)
	assert.Equal(t, catalog.UniverseWarcraft, res.Universe)
	assert.Equal(t, catalog.AgentClaude, res.Agent)
	assert.Contains(t, config.DefaultPersonas()[config.PersonaRifleman][catalog.CategoryCompletion], res.Sound)
	assert.Equal(t, fmt.Sprintf("Played '%s' for claude-code (warcraft/rifleman)", res.Sound), res.Message)
	assert.Equal(t, []string{"/sounds/" + res.Sound + ".mp3"}, h.audio.paths)

	require.Len(t, h.notifier.shown, 1, "completion raises its category notification")
	assert.Equal(t, notification{"Claude Code (Rifleman)", "Completion event"}, h.notifier.shown[0])
}

func TestPlay_SecurityEventsNeverThrottled(t *testing.T) {
	h := newHarness(t, config.Default())

	successes := 0
	for i := 0; i < 10; i++ {
		res := h.d.Play(Request{Event: "hook_blocked_action"})
		require.NotEqual(t, StatusThrottled, res.Status, "call %d", i)
		if res.Status == StatusSuccess {
			successes++
		}
		h.clock.Advance(300 * time.Millisecond)
	}
	assert.Equal(t, 10, successes)

	security := 0
	for _, n := range h.notifier.shown {
		if n.title == "Security: Cursor Agent" {
			security++
			assert.Equal(t, "Blocked Action", n.message)
		}
	}
	assert.Equal(t, successes, security, "every successful play raises a security notification")
}

// ─── Cooldown ────────────────────────────────────────────────────────────────

func TestPlay_Cooldown(t *testing.T) {
	h := newHarness(t, config.Default())
	req := Request{Event: "task_completed", Sound: "peasant-job-done"}

	require.Equal(t, StatusSuccess, h.d.Play(req).Status)

	h.clock.Advance(200 * time.Millisecond)
	res := h.d.Play(req)
	assert.Equal(t, StatusCooldown, res.Status)
	assert.Equal(t, "peasant-job-done", res.Sound)
	assert.Equal(t, "Sound 'peasant-job-done' is in cooldown", res.Message)

	h.clock.Advance(300 * time.Millisecond)
	assert.Equal(t, StatusSuccess, h.d.Play(req).Status, "replay allowed once the window passed")
}

func TestPlay_CooldownIsPerSound(t *testing.T) {
	h := newHarness(t, config.Default())

	require.Equal(t, StatusSuccess, h.d.Play(Request{Category: catalog.CategoryCompletion, Sound: "peasant-job-done"}).Status)
	assert.Equal(t, StatusSuccess, h.d.Play(Request{Category: catalog.CategoryCompletion, Sound: "peasant-off-i-go"}).Status)
}

// ─── Throttle ────────────────────────────────────────────────────────────────

func TestPlay_DefaultTierThrottle(t *testing.T) {
	h := newHarness(t, config.Default())

	for i := 0; i < 5; i++ {
		res := h.d.Play(Request{Event: "task_completed", Agent: catalog.AgentClaude})
		require.Equal(t, StatusSuccess, res.Status, "call %d: %s", i, res.Message)
		h.clock.Advance(time.Second)
	}

	res := h.d.Play(Request{Event: "task_completed", Agent: catalog.AgentClaude})
	assert.Equal(t, StatusThrottled, res.Status)
	assert.Equal(t, "Rate limited", res.Message)

	res = h.d.Play(Request{Event: "hook_injection_detected", Agent: catalog.AgentClaude})
	assert.Equal(t, StatusSuccess, res.Status, "security-critical events bypass the throttle")

	h.clock.Advance(time.Minute)
	assert.Equal(t, StatusSuccess, h.d.Play(Request{Event: "task_completed", Agent: catalog.AgentClaude}).Status)
}

func TestPlay_HookTierThrottle(t *testing.T) {
	h := newHarness(t, config.Default())

	for i := 0; i < throttle.HookMaxPerMinute; i++ {
		require.Equal(t, StatusSuccess, h.d.Play(Request{Event: "hook_tool_approved"}).Status)
		h.clock.Advance(time.Second)
	}
	assert.Equal(t, StatusThrottled, h.d.Play(Request{Event: "hook_tool_approved"}).Status)
	assert.Equal(t, StatusSuccess, h.d.Play(Request{Event: "task_completed"}).Status,
		"the default tier still has room")
}

func TestPlay_ThrottleFallbackNotification(t *testing.T) {
	cfg := config.Default()
	cfg.Settings.MaxSoundsPerMinute = 1
	cfg.Settings.OSNotifications.Enabled = false
	h := newHarness(t, cfg)

	require.Equal(t, StatusSuccess, h.d.Play(Request{Event: "build_success", Agent: catalog.AgentGemini}).Status)
	h.clock.Advance(time.Second)

	res := h.d.Play(Request{Event: "build_success", Agent: catalog.AgentGemini, Message: "build green"})
	assert.Equal(t, StatusThrottled, res.Status)
	assert.Equal(t, "Rate limited, showed silent notification", res.Message)
	assert.Equal(t, []notification{{"Gemini Cli", "build green"}}, h.notifier.shown)

	res = h.d.Play(Request{Event: "build_success", Agent: catalog.AgentGemini})
	assert.Equal(t, StatusThrottled, res.Status)
	assert.Len(t, h.notifier.shown, 1, "no message, no fallback notification")
}

func TestPlay_ThrottleWithoutFallback(t *testing.T) {
	cfg := config.Default()
	cfg.Settings.MaxSoundsPerMinute = 1
	cfg.Settings.FallbackToNotifications = false
	cfg.Settings.OSNotifications.Enabled = false
	h := newHarness(t, cfg)

	require.Equal(t, StatusSuccess, h.d.Play(Request{Event: "build_success"}).Status)
	res := h.d.Play(Request{Event: "build_success", Message: "hello"})
	assert.Equal(t, StatusThrottled, res.Status)
	assert.Empty(t, h.notifier.shown)
}

// ─── Force ───────────────────────────────────────────────────────────────────

func TestPlay_ForceBypassesCooldownAndThrottle(t *testing.T) {
	cfg := config.Default()
	cfg.Settings.MaxSoundsPerMinute = 1
	h := newHarness(t, cfg)
	req := Request{Event: "task_completed", Sound: "peasant-job-done"}

	require.Equal(t, StatusSuccess, h.d.Play(req).Status)
	require.Equal(t, StatusThrottled, h.d.Play(req).Status)

	req.Force = true
	for i := 0; i < 3; i++ {
		assert.Equal(t, StatusSuccess, h.d.Play(req).Status, "forced call %d", i)
	}
}

func TestPlay_ForceDoesNotBypassGates(t *testing.T) {
	t.Run("disabled category", func(t *testing.T) {
		cfg := config.Default()
		cat := cfg.Categories[catalog.CategoryWarning]
		cat.Enabled = false
		cfg.Categories[catalog.CategoryWarning] = cat
		h := newHarness(t, cfg)

		res := h.d.Play(Request{Event: "build_failed", Force: true})
		assert.Equal(t, StatusDisabled, res.Status)
		assert.Equal(t, "Category 'warning' is disabled", res.Message)
		assert.Empty(t, h.audio.paths)
	})

	t.Run("zero probability easter egg", func(t *testing.T) {
		h := newHarness(t, probability(config.Default(), 0))
		for i := 0; i < 20; i++ {
			res := h.d.Play(Request{Category: catalog.CategoryEasterEgg, Force: true})
			require.Equal(t, StatusSkipped, res.Status)
		}
		assert.Empty(t, h.audio.paths)
	})
}

// ─── Gates and errors ────────────────────────────────────────────────────────

func TestPlay_EasterEggAlwaysPlaysAtProbabilityOne(t *testing.T) {
	h := newHarness(t, probability(config.Default(), 1))
	for i := 0; i < 5; i++ {
		res := h.d.Play(Request{Event: "repeated_invalid_request", Agent: catalog.AgentGemini})
		require.Equal(t, StatusSuccess, res.Status, res.Message)
		h.clock.Advance(time.Second)
	}
}

func TestPlay_GloballyDisabled(t *testing.T) {
	cfg := config.Default()
	cfg.Settings.Enabled = false
	h := newHarness(t, cfg)

	res := h.d.Play(Request{Event: "task_completed"})
	assert.Equal(t, StatusDisabled, res.Status)
	assert.Equal(t, "Audio notifications are disabled", res.Message)
}

func TestPlay_NoCategoryOrSound(t *testing.T) {
	h := newHarness(t, config.Default())

	res := h.d.Play(Request{Event: "something_unmapped"})
	assert.Equal(t, StatusError, res.Status)
	assert.Equal(t, "No category or sound specified", res.Message)
}

func TestPlay_NoSoundAvailable(t *testing.T) {
	cfg := config.Default()
	cfg.Categories["deploy"] = config.Category{Enabled: true}
	h := newHarness(t, cfg)

	res := h.d.Play(Request{Category: "deploy"})
	assert.Equal(t, StatusError, res.Status)
	assert.Equal(t, "No sound available", res.Message)
}

func TestPlay_PlaybackFailureLeavesStateUntouched(t *testing.T) {
	h := newHarness(t, config.Default())
	h.audio.fail = map[string]bool{"/sounds/broken.mp3": true}

	res := h.d.Play(Request{Category: catalog.CategoryWarning, Sound: "broken"})
	assert.Equal(t, StatusError, res.Status)
	assert.Equal(t, "Failed to play 'broken'", res.Message)
	assert.Equal(t, "broken", res.Sound)
	assert.Empty(t, h.notifier.shown)

	report := h.d.Report()
	assert.Equal(t, 0, report.Tracker.DefaultWindow)
	assert.Equal(t, 0, report.Tracker.SoundsPlayed)

	h.audio.fail = nil
	assert.Equal(t, StatusSuccess, h.d.Play(Request{Category: catalog.CategoryWarning, Sound: "broken"}).Status,
		"a failed attempt does not start a cooldown")
}

func TestPlay_NotificationFailureDoesNotFailPlay(t *testing.T) {
	h := newHarness(t, config.Default())
	h.notifier.err = errors.New("no notification daemon")

	res := h.d.Play(Request{Event: "hook_blocked_action"})
	assert.Equal(t, StatusSuccess, res.Status)
	assert.NotEmpty(t, h.notifier.shown)
}

func TestPlay_CategoryNotificationRespectsSettings(t *testing.T) {
	cfg := config.Default()
	cfg.Settings.OSNotifications.Enabled = false
	h := newHarness(t, cfg)

	require.Equal(t, StatusSuccess, h.d.Play(Request{Event: "task_completed"}).Status)
	assert.Empty(t, h.notifier.shown)

	require.Equal(t, StatusSuccess, h.d.Play(Request{Event: "hook_secret_blocked", Message: "AWS key in diff"}).Status)
	assert.Equal(t, []notification{{"Security: Cursor Agent", "AWS key in diff"}}, h.notifier.shown,
		"security notifications ignore the category settings")
}

func TestPlay_AcknowledgmentHasNoNotification(t *testing.T) {
	h := newHarness(t, config.Default())
	require.Equal(t, StatusSuccess, h.d.Play(Request{Event: "task_acknowledged"}).Status)
	assert.Empty(t, h.notifier.titles())
}

// ─── Rotation through the dispatcher ─────────────────────────────────────────

func TestPlay_PoolRotationIsSequential(t *testing.T) {
	cfg := config.Default()
	cfg.Categories["deploy"] = config.Category{
		Pool:     []string{"horn-1", "horn-2", "horn-3"},
		Rotation: config.RotationSequential,
		Enabled:  true,
	}
	cfg.Settings.MaxSoundsPerMinute = 100
	h := newHarness(t, cfg)

	var got []string
	for i := 0; i < 6; i++ {
		res := h.d.Play(Request{Category: "deploy"})
		require.Equal(t, StatusSuccess, res.Status)
		got = append(got, res.Sound)
		h.clock.Advance(time.Second)
	}
	assert.Equal(t, []string{"horn-1", "horn-2", "horn-3", "horn-1", "horn-2", "horn-3"}, got)
}

func TestPlay_UniverseMapping(t *testing.T) {
	uni, err := universe.Parse([]byte(`
event_mapping:
  hook_blocked_action:
    universe: stng
    sounds: [worf.security_alert]
universes:
  stng:
    agent_personas: {claude-code: data}
    curated_sounds:
      worf: {security_alert: STNG-worf-intruder-alert.mp3}
`))
	require.NoError(t, err)

	h := newHarness(t, config.Default())
	h.d.opts.Universe = uni

	res := h.d.Play(Request{Event: "hook_blocked_action", Agent: catalog.AgentClaude})
	require.Equal(t, StatusSuccess, res.Status)
	assert.Equal(t, "STNG-worf-intruder-alert", res.Sound)
	assert.Equal(t, catalog.UniverseSTNG, res.Universe)
	assert.Equal(t, "data", res.Persona)
	assert.Equal(t, "Played 'STNG-worf-intruder-alert' for claude-code (stng/data)", res.Message)
}

// ─── Journal ─────────────────────────────────────────────────────────────────

func TestPlay_JournalsEveryOutcome(t *testing.T) {
	h := newHarness(t, config.Default())

	h.d.Play(Request{Event: "hook_blocked_action", Force: true})
	h.d.Play(Request{Event: "nothing"})

	require.Len(t, h.journal.entries, 2)
	first := h.journal.entries[0]
	assert.Equal(t, "success", first.Status)
	assert.Equal(t, "hook_blocked_action", first.Event)
	assert.Equal(t, "security_critical", first.Tier)
	assert.Equal(t, "persona", first.Source)
	assert.True(t, first.Forced)
	assert.Equal(t, catalog.DefaultAgent, first.Agent)
	assert.Equal(t, h.clock.now, first.CreatedAt)

	assert.Equal(t, "error", h.journal.entries[1].Status)
}

func TestPlay_JournalFailureIsSwallowed(t *testing.T) {
	h := newHarness(t, config.Default())
	h.journal.err = errors.New("disk full")

	assert.Equal(t, StatusSuccess, h.d.Play(Request{Event: "task_completed"}).Status)
}

// ─── Misc ────────────────────────────────────────────────────────────────────

func TestPlay_DefaultAgent(t *testing.T) {
	h := newHarness(t, config.Default())
	h.d.opts.DefaultAgent = catalog.AgentGemini

	res := h.d.Play(Request{Event: "task_started"})
	assert.Equal(t, catalog.AgentGemini, res.Agent)
	assert.Equal(t, config.PersonaPeon, res.Persona)
}

func TestPlay_ConcurrentCallsAreSerialised(t *testing.T) {
	cfg := config.Default()
	cfg.Settings.MaxSoundsPerMinute = 1000
	h := newHarness(t, cfg)

	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			h.d.Play(Request{Event: "task_completed", Force: true})
		}()
	}
	wg.Wait()

	assert.Equal(t, 20, h.d.Report().Tracker.DefaultWindow)
}

func TestShowNotification(t *testing.T) {
	h := newHarness(t, config.Default())

	res := h.d.ShowNotification("", "hello")
	assert.Equal(t, StatusSuccess, res.Status)
	assert.Equal(t, []notification{{DefaultNotificationTitle, "hello"}}, h.notifier.shown)

	res = h.d.ShowNotification("Deploy", "done")
	assert.Equal(t, StatusSuccess, res.Status)
	assert.Equal(t, "Deploy", h.notifier.shown[1].title)

	h.notifier.err = errors.New("no daemon")
	assert.Equal(t, StatusError, h.d.ShowNotification("x", "y").Status)
}

func TestReport(t *testing.T) {
	h := newHarness(t, config.Default())
	h.d.Play(Request{Event: "hook_tool_approved"})

	r := h.d.Report()
	assert.Equal(t, catalog.DefaultAgent, r.Agent)
	assert.Equal(t, config.PersonaPeasant, r.Persona)
	assert.Equal(t, catalog.UniverseWarcraft, r.DefaultUniverse)
	assert.True(t, r.Enabled)
	assert.Equal(t, 5, r.MaxPerMinute)
	assert.Equal(t, throttle.HookMaxPerMinute, r.HookMaxPerMinute)
	assert.Equal(t, 1, r.Tracker.DefaultWindow)
	assert.Equal(t, 1, r.Tracker.HookWindow)
}

func TestHelpers(t *testing.T) {
	assert.Equal(t, "Claude Code", agentDisplayName("claude-code"))
	assert.Equal(t, "Gemini Cli", agentDisplayName("gemini-cli"))
	assert.Equal(t, "Easter Egg", titleCase("easter_egg"))
	assert.Equal(t, "Blocked Action", titleCase(strings.TrimPrefix("hook_blocked_action", "hook_")))
}
