package tools

import (
	"context"
	"fmt"
	"time"

	"github.com/mark3labs/mcp-go/mcp"

	"github.com/HendryAvila/warhorn/internal/history"
)

// timeNow is a package-level var to allow test injection.
var timeNow = time.Now

// SoundHistoryTool handles the sound_history MCP tool.
type SoundHistoryTool struct {
	journal Journal
}

// NewSoundHistoryTool creates a SoundHistoryTool reading from journal.
func NewSoundHistoryTool(journal Journal) *SoundHistoryTool {
	return &SoundHistoryTool{journal: journal}
}

// Definition returns the MCP tool definition for registration.
func (t *SoundHistoryTool) Definition() mcp.Tool {
	return mcp.NewTool("sound_history",
		mcp.WithDescription(
			"List the most recent play_sound outcomes, newest first, with "+
				"per-status counts for the last hour.",
		),
		mcp.WithNumber("limit",
			mcp.Description("Maximum number of entries to return. Default: 10."),
		),
	)
}

type soundHistory struct {
	Entries        []history.Entry `json:"entries"`
	CountsLastHour map[string]int  `json:"counts_last_hour"`
}

// Handle processes the sound_history tool call.
func (t *SoundHistoryTool) Handle(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	limit := intArg(req, "limit", history.DefaultRecentLimit)
	if limit <= 0 {
		limit = history.DefaultRecentLimit
	}

	entries, err := t.journal.Recent(limit)
	if err != nil {
		return nil, fmt.Errorf("reading history: %w", err)
	}
	counts, err := t.journal.CountsByStatus(timeNow().Add(-time.Hour))
	if err != nil {
		return nil, fmt.Errorf("counting history: %w", err)
	}
	if entries == nil {
		entries = []history.Entry{}
	}
	return jsonResult(soundHistory{Entries: entries, CountsLastHour: counts})
}
