// Package tools implements the MCP tool handlers of warhorn.
//
// Each tool is a struct holding its dependencies behind small interfaces,
// with a Definition for registration and a Handle compatible with mcp-go's
// CallToolRequest signature. One file per tool.
package tools

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/mark3labs/mcp-go/mcp"

	"github.com/HendryAvila/warhorn/internal/dispatch"
	"github.com/HendryAvila/warhorn/internal/history"
)

// Dispatcher is the part of *dispatch.Dispatcher the tools call.
type Dispatcher interface {
	Play(req dispatch.Request) dispatch.Result
	ShowNotification(title, message string) dispatch.Result
}

// Journal is the read side of the play journal.
type Journal interface {
	Recent(limit int) ([]history.Entry, error)
	CountsByStatus(since time.Time) (map[string]int, error)
}

// jsonResult renders v as an indented JSON text result.
func jsonResult(v any) (*mcp.CallToolResult, error) {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("encoding result: %w", err)
	}
	return mcp.NewToolResultText(string(data)), nil
}

// intArg extracts a numeric argument from a tool request. JSON numbers
// arrive as float64.
func intArg(req mcp.CallToolRequest, key string, defaultVal int) int {
	v, ok := req.GetArguments()[key].(float64)
	if !ok {
		return defaultVal
	}
	return int(v)
}

// boolArg extracts a boolean argument from a tool request.
func boolArg(req mcp.CallToolRequest, key string, defaultVal bool) bool {
	v, ok := req.GetArguments()[key].(bool)
	if !ok {
		return defaultVal
	}
	return v
}
