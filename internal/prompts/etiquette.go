// Package prompts implements the MCP prompts of warhorn.
//
// Prompts are user-triggered workflows, like slash commands, that tell the
// host model how to use the tools.
package prompts

import (
	"context"
	"fmt"
	"strings"

	"github.com/mark3labs/mcp-go/mcp"

	"github.com/HendryAvila/warhorn/internal/catalog"
)

// EtiquettePrompt handles the sound-etiquette MCP prompt.
// It teaches the model when to call play_sound and when to stay quiet.
type EtiquettePrompt struct {
	defaultAgent string
}

// NewEtiquettePrompt creates an EtiquettePrompt for the server's agent.
func NewEtiquettePrompt(defaultAgent string) *EtiquettePrompt {
	return &EtiquettePrompt{defaultAgent: defaultAgent}
}

// Definition returns the MCP prompt definition for registration.
func (p *EtiquettePrompt) Definition() mcp.Prompt {
	return mcp.NewPrompt("sound-etiquette",
		mcp.WithPromptDescription(
			"How and when to announce work with play_sound: which events to "+
				"use, when a sound is welcome and when to stay silent.",
		),
		mcp.WithArgument("agent",
			mcp.ArgumentDescription(
				"Agent identity to play as: "+strings.Join(catalog.Agents(), ", ")+". Default: the server's agent.",
			),
		),
	)
}

// Handle processes the sound-etiquette prompt request.
func (p *EtiquettePrompt) Handle(ctx context.Context, req mcp.GetPromptRequest) (*mcp.GetPromptResult, error) {
	agent := p.defaultAgent
	if args := req.Params.Arguments; args != nil {
		if a, ok := args["agent"]; ok && a != "" {
			agent = a
		}
	}

	return &mcp.GetPromptResult{
		Description: fmt.Sprintf("Sound etiquette for %s", agent),
		Messages: []mcp.PromptMessage{
			{
				Role: mcp.RoleUser,
				Content: mcp.NewTextContent(fmt.Sprintf(
					"While you work, announce milestones with the `play_sound` tool as agent '%s'.\n\n"+
						"Rules:\n"+
						"1. Call it at real milestones only: `task_acknowledged` when you start, "+
						"`task_completed` when you finish, `build_failed` or `tests_failed` when something breaks, "+
						"`waiting_for_input` when you need me\n"+
						"2. Pass `event`, never a raw `sound`, so my persona and rate limits apply\n"+
						"3. Add a short `message` when I might be away from the screen; it becomes the notification text\n"+
						"4. Never use `force` unless I ask for it\n"+
						"5. A `throttled`, `cooldown`, `skipped` or `disabled` status is normal; do not retry\n"+
						"6. Use `show_notification` for text-only updates that do not deserve a sound",
					agent,
				)),
			},
		},
	}, nil
}
