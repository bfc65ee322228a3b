package prompts

import (
	"context"
	"fmt"
	"strings"

	"github.com/mark3labs/mcp-go/mcp"

	"github.com/HendryAvila/warhorn/internal/catalog"
	"github.com/HendryAvila/warhorn/internal/dispatch"
)

// Reporter produces the dispatcher state the status prompt quotes.
type Reporter interface {
	Report() dispatch.Report
}

// StatusPrompt handles the sound-status MCP prompt.
// It hands the model the live settings and asks it to audit one agent's
// recent sounds against them.
type StatusPrompt struct {
	reporter Reporter
}

// NewStatusPrompt creates a StatusPrompt reading state from reporter.
func NewStatusPrompt(reporter Reporter) *StatusPrompt {
	return &StatusPrompt{reporter: reporter}
}

// Definition returns the MCP prompt definition for registration.
func (p *StatusPrompt) Definition() mcp.Prompt {
	return mcp.NewPrompt("sound-status",
		mcp.WithPromptDescription(
			"Audit an agent's recent sounds against warhorn's volume, cooldown "+
				"and rate limits.",
		),
		mcp.WithArgument("agent",
			mcp.ArgumentDescription(
				"Agent whose sounds to audit: "+strings.Join(catalog.Agents(), ", ")+". Default: the server's agent.",
			),
		),
	)
}

// Handle processes the sound-status prompt request.
func (p *StatusPrompt) Handle(ctx context.Context, req mcp.GetPromptRequest) (*mcp.GetPromptResult, error) {
	report := p.reporter.Report()

	agent := report.Agent
	if a := strings.TrimSpace(req.Params.Arguments["agent"]); a != "" {
		if !catalog.IsKnownAgent(a) {
			return nil, fmt.Errorf("unknown agent %q, use one of: %s", a, strings.Join(catalog.Agents(), ", "))
		}
		agent = a
	}

	state := "on"
	if !report.Enabled {
		state = "off"
	}

	var b strings.Builder
	fmt.Fprintf(&b, "Audit the notification sounds of agent '%s'.\n\n", agent)
	fmt.Fprintf(&b, "Current settings: sounds %s, volume %.2f, default universe %s, "+
		"%d ms cooldown per sound, at most %d sounds per minute and %d per minute from hooks.\n\n",
		state, report.Volume, report.DefaultUniverse, report.CooldownMS, report.MaxPerMinute, report.HookMaxPerMinute)
	b.WriteString("Read the `warhorn://status` resource for the live rate-limit windows and, if available, call `sound_history`.\n\n")
	b.WriteString("Then:\n")
	fmt.Fprintf(&b, "1. Tell me which persona '%s' plays as and list its last few sounds with their status\n", agent)
	b.WriteString("2. Show how close each rate-limit window is to its limit\n")
	b.WriteString("3. Point out anything that looks wrong, such as many errors or every request throttled")
	if agent != report.Agent {
		fmt.Fprintf(&b, "\n4. Remember this server plays as '%s' by default; '%s' only sounds when play_sound names it", report.Agent, agent)
	}

	return &mcp.GetPromptResult{
		Description: fmt.Sprintf("Sound status for %s", agent),
		Messages: []mcp.PromptMessage{
			{
				Role:    mcp.RoleUser,
				Content: mcp.NewTextContent(b.String()),
			},
		},
	}, nil
}
