package mcp

import (
	"context"
	"database/sql"
	"encoding/json"

	"github.com/mark3labs/mcp-go/mcp"

	"autobox/internal/dispatch"
	"autobox/internal/errors"
	"autobox/internal/history"
	"autobox/internal/intent"
	"autobox/internal/memory"
)

// Handlers holds dependencies for MCP tool handlers.
type Handlers struct {
	acquirer   *intent.Acquirer
	dispatcher *dispatch.Dispatcher
	store      *memory.Store
	db         *sql.DB
}

// NewHandlers creates a new Handlers instance. db may be nil when the
// action log is unavailable; assistant_history then reports an error.
func NewHandlers(acquirer *intent.Acquirer, dispatcher *dispatch.Dispatcher, store *memory.Store, db *sql.DB) *Handlers {
	return &Handlers{acquirer: acquirer, dispatcher: dispatcher, store: store, db: db}
}

// Request types for each tool

// RunRequest represents the arguments for assistant_run.
type RunRequest struct {
	Command string `json:"command"`
}

// MemoryRequest represents the arguments for assistant_memory.
type MemoryRequest struct {
	Clear bool `json:"clear,omitempty"`
}

// HistoryRequest represents the arguments for assistant_history.
type HistoryRequest struct {
	Limit int `json:"limit,omitempty"`
}

// Handler implementations

// HandleRun handles the assistant_run tool call: one natural-language
// command through acquisition and dispatch, returning the per-step result.
func (h *Handlers) HandleRun(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	input, err := decode[RunRequest](req)
	if err != nil {
		return errorResult(errors.NewInvalidRequest(err.Error())), nil
	}
	if input.Command == "" {
		return errorResult(errors.NewInvalidRequest("command is required")), nil
	}

	in := h.acquirer.Acquire(ctx, input.Command)
	result := h.dispatcher.Execute(ctx, in, input.Command)
	return successResult(result)
}

// HandleMemory handles the assistant_memory tool call: returns the session
// memory, or clears it when clear is set.
func (h *Handlers) HandleMemory(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	input, err := decode[MemoryRequest](req)
	if err != nil {
		return errorResult(errors.NewInvalidRequest(err.Error())), nil
	}

	if input.Clear {
		if err := h.store.Clear(); err != nil {
			return errorResult(errors.NewInternal(err)), nil
		}
		return successResult(map[string]any{"cleared": true})
	}

	return successResult(h.store.Load())
}

// HandleHistory handles the assistant_history tool call.
func (h *Handlers) HandleHistory(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	input, err := decode[HistoryRequest](req)
	if err != nil {
		return errorResult(errors.NewInvalidRequest(err.Error())), nil
	}
	if h.db == nil {
		return errorResult(errors.NewInternal(nil)), nil
	}

	entries, err := history.Recent(h.db, input.Limit)
	if err != nil {
		return errorResult(errors.NewInternal(err)), nil
	}
	total, err := history.Count(h.db)
	if err != nil {
		return errorResult(errors.NewInternal(err)), nil
	}

	return successResult(map[string]any{
		"entries": entries,
		"total":   total,
	})
}

// Result helpers

// errorResult creates an MCP error result from any error.
// Uses IsError: true so MCP clients recognize failures properly.
// Internal error details are not exposed to avoid leaking paths.
func errorResult(err error) *mcp.CallToolResult {
	var payload map[string]any

	if aErr, ok := err.(*errors.Error); ok {
		errorObj := map[string]any{
			"code":    aErr.Code,
			"message": aErr.Message,
		}
		if aErr.Code != errors.ErrInternal && aErr.Details != nil {
			errorObj["details"] = aErr.Details
		}
		payload = map[string]any{"error": errorObj}
	} else {
		payload = map[string]any{
			"error": map[string]any{
				"code":    "INTERNAL",
				"message": "an internal error occurred",
			},
		}
	}

	content, _ := json.Marshal(payload)
	return &mcp.CallToolResult{
		Content: []mcp.Content{mcp.TextContent{Type: "text", Text: string(content)}},
		IsError: true,
	}
}

// successResult creates an MCP success result from any data.
func successResult(data any) (*mcp.CallToolResult, error) {
	return mcp.NewToolResultJSON(data)
}
