// Package mcp exposes the assistant over the Model Context Protocol so
// other agents can drive it through stdio.
package mcp

import (
	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"
)

// Tool definitions

var runToolDef = mcp.NewTool("assistant_run",
	mcp.WithDescription("Execute a natural-language command: file operations inside the sandbox, web search, clipboard, and app control. Returns per-step results."),
	mcp.WithString("command", mcp.Required(),
		mcp.Description("The command text, e.g. 'create meeting_notes.txt in AB2'"),
	),
)

var memoryToolDef = mcp.NewTool("assistant_memory",
	mcp.WithDescription("Show the session memory slots (last created/read/moved file, folder, app, URL), or clear them."),
	mcp.WithBoolean("clear",
		mcp.Description("Clear all memory slots instead of showing them"),
	),
)

var historyToolDef = mcp.NewTool("assistant_history",
	mcp.WithDescription("List the most recent dispatched steps from the action log."),
	mcp.WithNumber("limit",
		mcp.Description("Maximum entries to return (default 20)"),
	),
)

// toolEntry pairs a tool definition with a handler factory.
type toolEntry struct {
	def     mcp.Tool
	handler func(*Handlers) server.ToolHandlerFunc
}

// toolRegistry maps tool names to their definitions and handler factories.
var toolRegistry = map[string]toolEntry{
	"assistant_run": {
		def:     runToolDef,
		handler: func(h *Handlers) server.ToolHandlerFunc { return h.HandleRun },
	},
	"assistant_memory": {
		def:     memoryToolDef,
		handler: func(h *Handlers) server.ToolHandlerFunc { return h.HandleMemory },
	},
	"assistant_history": {
		def:     historyToolDef,
		handler: func(h *Handlers) server.ToolHandlerFunc { return h.HandleHistory },
	},
}

// AllToolNames returns a list of all registered tool names.
func AllToolNames() []string {
	names := make([]string, 0, len(toolRegistry))
	for name := range toolRegistry {
		names = append(names, name)
	}
	return names
}

// NewServer creates an MCP server with the assistant tools registered.
func NewServer(h *Handlers, version string) *server.MCPServer {
	s := server.NewMCPServer(
		"autobox",
		version,
		server.WithToolCapabilities(true),
	)

	for _, entry := range toolRegistry {
		s.AddTool(entry.def, entry.handler(h))
	}
	return s
}

// Run starts the MCP server using stdio transport.
func Run(h *Handlers, version string) error {
	return server.ServeStdio(NewServer(h, version))
}
