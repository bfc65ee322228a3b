package prompts

import (
	"context"
	"strings"
	"testing"

	"github.com/mark3labs/mcp-go/mcp"

	"github.com/HendryAvila/warhorn/internal/dispatch"
)

func promptText(t *testing.T, result *mcp.GetPromptResult) string {
	t.Helper()
	if len(result.Messages) != 1 {
		t.Fatalf("got %d messages, want 1", len(result.Messages))
	}
	tc, ok := result.Messages[0].Content.(mcp.TextContent)
	if !ok {
		t.Fatalf("content is %T, want TextContent", result.Messages[0].Content)
	}
	return tc.Text
}

func TestEtiquettePrompt_Definition(t *testing.T) {
	def := NewEtiquettePrompt("cursor-agent").Definition()
	if def.Name != "sound-etiquette" {
		t.Errorf("name = %q, want sound-etiquette", def.Name)
	}
	if len(def.Arguments) != 1 || def.Arguments[0].Name != "agent" {
		t.Errorf("arguments = %+v, want [agent]", def.Arguments)
	}
}

func TestEtiquettePrompt_Handle_DefaultAgent(t *testing.T) {
	result, err := NewEtiquettePrompt("gemini-cli").Handle(context.Background(), mcp.GetPromptRequest{})
	if err != nil {
		t.Fatalf("Handle failed: %v", err)
	}
	text := promptText(t, result)
	if !strings.Contains(text, "as agent 'gemini-cli'") {
		t.Errorf("prompt should name the default agent, got %q", text)
	}
	if !strings.Contains(text, "play_sound") {
		t.Error("prompt should mention play_sound")
	}
}

func TestEtiquettePrompt_Handle_AgentArgument(t *testing.T) {
	req := mcp.GetPromptRequest{}
	req.Params.Arguments = map[string]string{"agent": "claude-code"}

	result, err := NewEtiquettePrompt("cursor-agent").Handle(context.Background(), req)
	if err != nil {
		t.Fatalf("Handle failed: %v", err)
	}
	if result.Description != "Sound etiquette for claude-code" {
		t.Errorf("description = %q", result.Description)
	}
}

type fixedReporter dispatch.Report

func (r fixedReporter) Report() dispatch.Report { return dispatch.Report(r) }

func newStatusPrompt() *StatusPrompt {
	return NewStatusPrompt(fixedReporter{
		Agent:            "claude-code",
		Persona:          "rifleman",
		DefaultUniverse:  "warcraft",
		Enabled:          true,
		Volume:           0.5,
		CooldownMS:       1500,
		MaxPerMinute:     12,
		HookMaxPerMinute: 6,
	})
}

func TestStatusPrompt_Definition(t *testing.T) {
	def := newStatusPrompt().Definition()
	if def.Name != "sound-status" {
		t.Errorf("name = %q, want sound-status", def.Name)
	}
	if len(def.Arguments) != 1 || def.Arguments[0].Name != "agent" {
		t.Errorf("arguments = %+v, want [agent]", def.Arguments)
	}
}

func TestStatusPrompt_Handle_DefaultAgent(t *testing.T) {
	result, err := newStatusPrompt().Handle(context.Background(), mcp.GetPromptRequest{})
	if err != nil {
		t.Fatalf("Handle failed: %v", err)
	}
	if result.Description != "Sound status for claude-code" {
		t.Errorf("description = %q", result.Description)
	}
	text := promptText(t, result)
	for _, want := range []string{
		"agent 'claude-code'",
		"sounds on, volume 0.50",
		"1500 ms cooldown",
		"at most 12 sounds per minute and 6 per minute from hooks",
		"warhorn://status",
	} {
		if !strings.Contains(text, want) {
			t.Errorf("prompt should contain %q, got %q", want, text)
		}
	}
	if strings.Contains(text, "by default") {
		t.Error("default agent needs no reminder")
	}
}

func TestStatusPrompt_Handle_AgentArgument(t *testing.T) {
	req := mcp.GetPromptRequest{}
	req.Params.Arguments = map[string]string{"agent": "gemini-cli"}

	result, err := newStatusPrompt().Handle(context.Background(), req)
	if err != nil {
		t.Fatalf("Handle failed: %v", err)
	}
	text := promptText(t, result)
	if !strings.Contains(text, "agent 'gemini-cli'") {
		t.Errorf("prompt should name the requested agent, got %q", text)
	}
	if !strings.Contains(text, "plays as 'claude-code' by default") {
		t.Errorf("prompt should mention the server's agent, got %q", text)
	}
}

func TestStatusPrompt_Handle_UnknownAgent(t *testing.T) {
	req := mcp.GetPromptRequest{}
	req.Params.Arguments = map[string]string{"agent": "copilot"}

	_, err := newStatusPrompt().Handle(context.Background(), req)
	if err == nil {
		t.Fatal("expected error for unknown agent")
	}
	if !strings.Contains(err.Error(), "claude-code") {
		t.Errorf("error should list the known agents, got %v", err)
	}
}
