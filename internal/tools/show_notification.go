package tools

import (
	"context"

	"github.com/mark3labs/mcp-go/mcp"

	"github.com/HendryAvila/warhorn/internal/dispatch"
)

// ShowNotificationTool handles the show_notification MCP tool.
// It bypasses sound resolution and throttling entirely.
type ShowNotificationTool struct {
	dispatcher Dispatcher
}

// NewShowNotificationTool creates a ShowNotificationTool.
func NewShowNotificationTool(d Dispatcher) *ShowNotificationTool {
	return &ShowNotificationTool{dispatcher: d}
}

// Definition returns the MCP tool definition for registration.
func (t *ShowNotificationTool) Definition() mcp.Tool {
	return mcp.NewTool("show_notification",
		mcp.WithDescription("Show a silent desktop notification without playing a sound."),
		mcp.WithString("title",
			mcp.Description("Notification title."),
			mcp.DefaultString(dispatch.DefaultNotificationTitle),
		),
		mcp.WithString("message",
			mcp.Required(),
			mcp.Description("Notification body."),
		),
	)
}

// Handle processes the show_notification tool call.
func (t *ShowNotificationTool) Handle(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	message := req.GetString("message", "")
	if message == "" {
		return mcp.NewToolResultError("'message' is required"), nil
	}
	return jsonResult(t.dispatcher.ShowNotification(req.GetString("title", ""), message))
}
