package tools

import (
	"context"
	"fmt"
	"strings"

	"github.com/mark3labs/mcp-go/mcp"

	"github.com/HendryAvila/warhorn/internal/catalog"
	"github.com/HendryAvila/warhorn/internal/dispatch"
)

// PlaySoundTool handles the play_sound MCP tool.
type PlaySoundTool struct {
	dispatcher Dispatcher
}

// NewPlaySoundTool creates a PlaySoundTool backed by the dispatcher.
func NewPlaySoundTool(d Dispatcher) *PlaySoundTool {
	return &PlaySoundTool{dispatcher: d}
}

// Definition returns the MCP tool definition for registration.
func (t *PlaySoundTool) Definition() mcp.Tool {
	return mcp.NewTool("play_sound",
		mcp.WithDescription(
			"Play a notification sound for an agent event. Give an `event` "+
				"(e.g. task_completed, build_failed, hook_blocked_action) or a "+
				"`category`; the sound is picked from the agent persona's pool. "+
				"Rate limits and per-sound cooldowns apply unless `force` is set. "+
				"Returns JSON with a `status` of success, disabled, skipped, "+
				"throttled, cooldown or error.",
		),
		mcp.WithString("event",
			mcp.Description("Event key, e.g. task_completed. Maps to a category."),
			mcp.Enum(catalog.Events()...),
		),
		mcp.WithString("category",
			mcp.Description("Category to play from (completion, acknowledgment, attention, warning, refusal, easter_egg, greeting). Overrides the event's category."),
			mcp.Enum(catalog.Categories()...),
		),
		mcp.WithString("agent",
			mcp.Description("Agent identity that selects the persona. Defaults to the server's --agent."),
			mcp.Enum(catalog.Agents()...),
		),
		mcp.WithString("sound",
			mcp.Description("Explicit sound id to play instead of picking one."),
		),
		mcp.WithString("message",
			mcp.Description("Text for the desktop notification, if one is raised."),
		),
		mcp.WithBoolean("force",
			mcp.Description("Bypass cooldown and rate limits. Disabled categories still stay silent."),
		),
	)
}

// Handle processes the play_sound tool call.
func (t *PlaySoundTool) Handle(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	agent := strings.TrimSpace(req.GetString("agent", ""))
	if agent != "" && !catalog.IsKnownAgent(agent) {
		return mcp.NewToolResultError(fmt.Sprintf(
			"Unknown agent %q. Use one of: %s", agent, strings.Join(catalog.Agents(), ", "))), nil
	}

	result := t.dispatcher.Play(dispatch.Request{
		Event:    strings.TrimSpace(req.GetString("event", "")),
		Category: strings.TrimSpace(req.GetString("category", "")),
		Agent:    agent,
		Sound:    strings.TrimSpace(req.GetString("sound", "")),
		Message:  req.GetString("message", ""),
		Force:    boolArg(req, "force", false),
	})
	return jsonResult(result)
}
