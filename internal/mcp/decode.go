package mcp

import (
	"encoding/json"
	"fmt"

	"github.com/mark3labs/mcp-go/mcp"
)

// decode round-trips the request's argument map through JSON into the
// handler's typed request struct, so handlers never type-assert loose
// map values. Extra fields from chatty clients are ignored.
func decode[T any](req mcp.CallToolRequest) (T, error) {
	var out T

	raw, err := json.Marshal(req.GetArguments())
	if err != nil {
		return out, fmt.Errorf("encode arguments: %w", err)
	}
	if err := json.Unmarshal(raw, &out); err != nil {
		return out, fmt.Errorf("decode arguments: %w", err)
	}
	return out, nil
}
