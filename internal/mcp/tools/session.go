package tools

import (
	"context"

	sdkmcp "github.com/modelcontextprotocol/go-sdk/mcp"
)

// SessionInput is the input for ga_session.
type SessionInput struct {
	Action string `json:"action,omitempty" jsonschema:"start or end to flag the next tracked hit, none to clear the flag; omit to read it"`
}

// SessionOutput is the output for ga_session.
type SessionOutput struct {
	Session string `json:"session"`
}

// ToolSession reads or sets the session flag for the next tracked hit.
func ToolSession(d *Deps) func(ctx context.Context, req *sdkmcp.CallToolRequest, input SessionInput) (*sdkmcp.CallToolResult, SessionOutput, error) {
	return func(ctx context.Context, req *sdkmcp.CallToolRequest, input SessionInput) (*sdkmcp.CallToolResult, SessionOutput, error) {
		switch input.Action {
		case "":
		case "start":
			d.Tracker.StartSession()
		case "end":
			d.Tracker.EndSession()
		case "none":
			d.Tracker.ClearSession()
		default:
			return nil, SessionOutput{}, ErrInvalidInput("action must be 'start', 'end' or 'none'")
		}
		return nil, SessionOutput{Session: d.Tracker.Session().String()}, nil
	}
}
