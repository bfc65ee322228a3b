// Warhorn: audio notification MCP server for coding agents.
//
// Agents call play_sound with an event such as task_completed; warhorn
// picks a persona-specific sound, applies rate limits and cooldowns, and
// plays it through the OS audio player.
//
// Usage:
//
//	warhorn serve --agent claude-code   # Start MCP server (stdio transport)
//	warhorn init                        # Write the default sound config
//	warhorn doctor                      # Check player, config and sound files
//	warhorn version
package main

import (
	"fmt"
	"os"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
