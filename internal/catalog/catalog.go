// Package catalog holds the static lookup tables shared by every part of
// warhorn: the event → category map, the event tiers and the known agents.
//
// These tables are code, not configuration. Callers may rely on them being
// identical for the whole process lifetime.
package catalog

import (
	"sort"
	"strings"
)

// Category identifiers.
const (
	CategoryCompletion     = "completion"
	CategoryAcknowledgment = "acknowledgment"
	CategoryAttention      = "attention"
	CategoryWarning        = "warning"
	CategoryRefusal        = "refusal"
	CategoryEasterEgg      = "easter_egg"
	CategoryGreeting       = "greeting"
)

// Agent identifiers accepted by --agent and the play_sound "agent" argument.
const (
	AgentCursor = "cursor-agent"
	AgentClaude = "claude-code"
	AgentGemini = "gemini-cli"

	// DefaultAgent is used when neither the flag nor the request names one.
	DefaultAgent = AgentCursor
)

// Universe identifiers.
const (
	UniverseWarcraft = "warcraft"
	UniverseSTNG     = "stng"
)

// hookPrefix marks events that belong to the stricter hook throttle tier.
const hookPrefix = "hook_"

// eventCategories maps every known event to exactly one category.
var eventCategories = map[string]string{
	// Completion
	"task_completed":            CategoryCompletion,
	"git_push_success":          CategoryCompletion,
	"git_mr_created":            CategoryCompletion,
	"build_success":             CategoryCompletion,
	"tests_passed":              CategoryCompletion,
	"deployment_complete":       CategoryCompletion,
	"diagnostic_complete":       CategoryCompletion,
	"security_audit_complete":   CategoryCompletion,
	"task_completed_analytical": CategoryCompletion,

	// Acknowledgment
	"task_acknowledged":       CategoryAcknowledgment,
	"git_commit_success":      CategoryAcknowledgment,
	"subagent_spawned":        CategoryAcknowledgment,
	"handoff_created":         CategoryAcknowledgment,
	"handoff_received":        CategoryAcknowledgment,
	"message_sent":            CategoryAcknowledgment,
	"message_received":        CategoryAcknowledgment,
	"adr_approved":            CategoryAcknowledgment,
	"plan_approved":           CategoryAcknowledgment,
	"permission_granted":      CategoryAcknowledgment,
	"task_started":            CategoryAcknowledgment,
	"task_started_analytical": CategoryAcknowledgment,
	"diagnostic_started":      CategoryAcknowledgment,
	"deployment_started":      CategoryAcknowledgment,

	// Attention
	"waiting_for_input":    CategoryAttention,
	"permission_requested": CategoryAttention,
	"git_conflicts":        CategoryAttention,
	"ready_for_next":       CategoryAttention,
	"insight_discovered":   CategoryAttention,
	"file_scan":            CategoryAttention,
	"git_push_production":  CategoryAttention,

	// Warning
	"task_failed":      CategoryWarning,
	"build_failed":     CategoryWarning,
	"tests_failed":     CategoryWarning,
	"quota_exceeded":   CategoryWarning,
	"secrets_detected": CategoryWarning,

	// Refusal
	"unsafe_action_blocked": CategoryRefusal,
	"security_warning":      CategoryRefusal,

	// Greeting
	"session_start": CategoryGreeting,

	// Easter eggs
	"repeated_invalid_request": CategoryEasterEgg,
	"excessive_rapid_requests": CategoryEasterEgg,

	// Hook lifecycle
	"hook_blocked_action":            CategoryWarning,
	"hook_injection_detected":        CategoryWarning,
	"hook_secret_blocked":            CategoryWarning,
	"hook_tool_approved":             CategoryAcknowledgment,
	"hook_tool_denied":               CategoryWarning,
	"hook_session_started":           CategoryGreeting,
	"hook_session_ended":             CategoryCompletion,
	"hook_session_governance_passed": CategoryCompletion,
	"hook_subagent_spawned":          CategoryAcknowledgment,
	"hook_subagent_completed":        CategoryAcknowledgment,
	"hook_precompact_injected":       CategoryAcknowledgment,
	"hook_prompt_clean":              CategoryAcknowledgment,
	"hook_prompt_suspicious":         CategoryAttention,
	"hook_changelog_verified":        CategoryCompletion,
	"hook_changelog_missing":         CategoryAttention,
	"hook_tool_failure_logged":       CategoryAttention,
	"hook_teammate_idle":             CategoryAttention,
	"hook_op_read_blocked":           CategoryWarning,
}

// securityCriticalEvents are never throttled.
var securityCriticalEvents = map[string]bool{
	"hook_blocked_action":     true,
	"hook_injection_detected": true,
	"hook_secret_blocked":     true,
	"hook_op_read_blocked":    true,
}

// criticalNotificationEvents always raise a desktop notification on a
// successful play, in addition to any category notification.
var criticalNotificationEvents = map[string]bool{
	"hook_blocked_action":      true,
	"hook_injection_detected":  true,
	"hook_secret_blocked":      true,
	"hook_tool_denied":         true,
	"hook_op_read_blocked":     true,
	"hook_changelog_missing":   true,
	"hook_tool_failure_logged": true,
	"hook_prompt_suspicious":   true,
}

// CategoryForEvent returns the category an event maps to.
func CategoryForEvent(event string) (string, bool) {
	c, ok := eventCategories[event]
	return c, ok
}

// IsHookEvent reports whether event belongs to the hook throttle tier.
// Only events present in the event table qualify.
func IsHookEvent(event string) bool {
	_, known := eventCategories[event]
	return known && strings.HasPrefix(event, hookPrefix)
}

// IsSecurityCritical reports whether event bypasses all throttling.
func IsSecurityCritical(event string) bool {
	return securityCriticalEvents[event]
}

// IsCriticalNotification reports whether event always notifies on success.
func IsCriticalNotification(event string) bool {
	return criticalNotificationEvents[event]
}

// Events returns every known event key, sorted.
func Events() []string {
	events := make([]string, 0, len(eventCategories))
	for e := range eventCategories {
		events = append(events, e)
	}
	sort.Strings(events)
	return events
}

// Categories returns the built-in category identifiers in display order.
func Categories() []string {
	return []string{
		CategoryCompletion,
		CategoryAcknowledgment,
		CategoryAttention,
		CategoryWarning,
		CategoryRefusal,
		CategoryEasterEgg,
		CategoryGreeting,
	}
}

// Agents returns the known agent identifiers.
func Agents() []string {
	return []string{AgentCursor, AgentClaude, AgentGemini}
}

// IsKnownAgent reports whether agent is one of Agents().
func IsKnownAgent(agent string) bool {
	for _, a := range Agents() {
		if a == agent {
			return true
		}
	}
	return false
}
