// Package resources implements the MCP resources of warhorn.
//
// Resources are read-only views the host can pull for context. They use
// warhorn:// URIs.
package resources

import (
	"context"
	"fmt"

	"github.com/mark3labs/mcp-go/mcp"

	"github.com/HendryAvila/warhorn/internal/dispatch"
)

// StatusURI addresses the dispatcher status resource.
const StatusURI = "warhorn://status"

// Reporter produces the dispatcher state.
type Reporter interface {
	Report() dispatch.Report
}

// Paths records where the running server reads its inputs from.
type Paths struct {
	Config         string `json:"config_path"`
	UniverseConfig string `json:"universe_config_path"`
	Sounds         string `json:"sounds_dir"`
	// Data is empty when the play journal is disabled.
	Data string `json:"data_dir,omitempty"`
}

// Handler serves the warhorn resources.
type Handler struct {
	reporter Reporter
	paths    Paths
}

// NewHandler creates a resource Handler.
func NewHandler(reporter Reporter, paths Paths) *Handler {
	return &Handler{reporter: reporter, paths: paths}
}

// StatusResource returns the MCP resource definition for the status view.
func (h *Handler) StatusResource() mcp.Resource {
	return mcp.NewResource(
		StatusURI,
		"Warhorn Status",
		mcp.WithResourceDescription("Default agent and persona, playback settings, file locations and rate-limit windows"),
		mcp.WithMIMEType("application/json"),
	)
}

type status struct {
	dispatch.Report
	Paths Paths `json:"paths"`
}

// HandleStatus returns the current status as JSON.
func (h *Handler) HandleStatus(ctx context.Context, req mcp.ReadResourceRequest) ([]mcp.ResourceContents, error) {
	contents, err := jsonResource(req.Params.URI, status{Report: h.reporter.Report(), Paths: h.paths})
	if err != nil {
		return nil, fmt.Errorf("marshaling status: %w", err)
	}
	return contents, nil
}
