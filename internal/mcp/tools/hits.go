package tools

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"strings"
	"time"

	sdkmcp "github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/usestring/gatrack/internal/hitlog"
	"github.com/usestring/gatrack/pkg/hit"
	"github.com/usestring/gatrack/pkg/tracker"
)

// ValidateHitInput is the input for ga_validate_hit.
type ValidateHitInput struct {
	HitType string  `json:"hit_type" jsonschema:"Hit type: pageview, appview, event, transaction, item, social, exception or timing"`
	Params  []Param `json:"params,omitempty" jsonschema:"Hit parameters in the order they should be sent"`
}

// ValidateHitOutput is the output for ga_validate_hit.
type ValidateHitOutput struct {
	Valid     bool   `json:"valid"`
	HitType   string `json:"hit_type,omitempty"`
	ErrorCode string `json:"error_code,omitempty"`
	Error     string `json:"error,omitempty"`
	Key       string `json:"key,omitempty"`
}

// ToolValidateHit checks a hit against the parameter catalog.
func ToolValidateHit(d *Deps) func(ctx context.Context, req *sdkmcp.CallToolRequest, input ValidateHitInput) (*sdkmcp.CallToolResult, ValidateHitOutput, error) {
	return func(ctx context.Context, req *sdkmcp.CallToolRequest, input ValidateHitInput) (*sdkmcp.CallToolResult, ValidateHitOutput, error) {
		h, err := toHit(input.HitType, input.Params)
		if err == nil {
			err = h.Validate()
		}

		var coded *CodedError
		if errors.As(err, &coded) {
			return nil, ValidateHitOutput{}, err
		}

		output := ValidateHitOutput{Valid: err == nil}
		if h != nil {
			output.HitType = h.Type.String()
		}
		if err != nil {
			output.ErrorCode = tracker.CodeOf(err).String()
			output.Error = err.Error()
			var validationErr *hit.ValidationError
			if errors.As(err, &validationErr) {
				output.Key = validationErr.Key
			}
		}
		return nil, output, nil
	}
}

// BuildRequestInput is the input for ga_build_request.
type BuildRequestInput struct {
	HitType string  `json:"hit_type" jsonschema:"Hit type: pageview, appview, event, transaction, item, social, exception or timing"`
	Params  []Param `json:"params,omitempty" jsonschema:"Hit parameters in the order they should be sent"`
}

// BuildRequestOutput is the output for ga_build_request.
type BuildRequestOutput struct {
	Method  string            `json:"method"`
	URL     string            `json:"url"`
	Headers map[string]string `json:"headers,omitempty"`
	Body    string            `json:"body,omitempty"`
	Size    int               `json:"size"`
	Limit   int               `json:"limit"`
	Warning string            `json:"warning,omitempty"`
	Session string            `json:"session"`
	Params  []Param           `json:"params,omitzero"`
}

// ToolBuildRequest builds the wire request for a hit without sending it. The
// pending session flag is shown but not consumed.
func ToolBuildRequest(d *Deps) func(ctx context.Context, req *sdkmcp.CallToolRequest, input BuildRequestInput) (*sdkmcp.CallToolResult, BuildRequestOutput, error) {
	return func(ctx context.Context, req *sdkmcp.CallToolRequest, input BuildRequestInput) (*sdkmcp.CallToolResult, BuildRequestOutput, error) {
		h, err := toHit(input.HitType, input.Params)
		if err != nil {
			return nil, BuildRequestOutput{}, WrapTrackerError(err)
		}

		session := d.Tracker.Session()
		r, err := d.Tracker.Prepare(h)
		if err != nil {
			return nil, BuildRequestOutput{}, WrapTrackerError(err)
		}

		output := BuildRequestOutput{
			Method:  r.Method,
			URL:     r.URL,
			Headers: make(map[string]string, len(r.Header)),
			Body:    string(r.Body),
			Size:    r.Size,
			Limit:   tracker.MaxPostBodyBytes,
			Session: session.String(),
			Params:  decodePayload(r.Payload),
		}
		if r.Method == http.MethodGet {
			output.Limit = tracker.MaxGetURLBytes
		}
		for k, v := range r.Header {
			output.Headers[k] = strings.Join(v, ", ")
		}
		if r.Warning != nil {
			output.Warning = r.Warning.Error()
		}
		return nil, output, nil
	}
}

// TrackHitInput is the input for ga_track_hit.
type TrackHitInput struct {
	HitType   string  `json:"hit_type" jsonschema:"Hit type: pageview, appview, event, transaction, item, social, exception or timing"`
	Params    []Param `json:"params,omitempty" jsonschema:"Hit parameters in the order they should be sent"`
	Wait      bool    `json:"wait,omitempty" jsonschema:"Wait for the collector to answer before returning (default: false)"`
	TimeoutMs int     `json:"timeout_ms,omitempty" jsonschema:"How long to wait when wait is set (default: HTTP client timeout)"`
}

// TrackHitOutput is the output for ga_track_hit.
type TrackHitOutput struct {
	ID         string `json:"id,omitempty"`
	Method     string `json:"method"`
	URL        string `json:"url"`
	Size       int    `json:"size"`
	Warning    string `json:"warning,omitempty"`
	Status     string `json:"status"`
	StatusCode int    `json:"status_code,omitempty"`
	Error      string `json:"error,omitempty"`
	ErrorCode  string `json:"error_code,omitempty"`
}

// ToolTrackHit validates, builds and sends a hit.
func ToolTrackHit(d *Deps) func(ctx context.Context, req *sdkmcp.CallToolRequest, input TrackHitInput) (*sdkmcp.CallToolResult, TrackHitOutput, error) {
	return func(ctx context.Context, req *sdkmcp.CallToolRequest, input TrackHitInput) (*sdkmcp.CallToolResult, TrackHitOutput, error) {
		if input.TimeoutMs < 0 {
			return nil, TrackHitOutput{}, ErrInvalidInput("timeout_ms must not be negative")
		}

		h, err := toHit(input.HitType, input.Params)
		if err != nil {
			return nil, TrackHitOutput{}, WrapTrackerError(err)
		}

		// Delivery outlives the tool call.
		r, err := d.Tracker.Track(context.WithoutCancel(ctx), h)
		if err != nil {
			return nil, TrackHitOutput{}, WrapTrackerError(err)
		}

		output := TrackHitOutput{
			Method: r.Method,
			URL:    r.URL,
			Size:   r.Size,
			Status: string(hitlog.StatusPending),
		}
		if r.Warning != nil {
			output.Warning = r.Warning.Error()
		}

		if input.Wait {
			timeout := time.Duration(input.TimeoutMs) * time.Millisecond
			if timeout == 0 {
				timeout = d.Config.HTTPClientTimeout
			}
			waitCtx, cancel := context.WithTimeout(ctx, timeout)
			defer cancel()
			if err := d.Tracker.Wait(waitCtx); err != nil {
				slog.Debug("hit still in flight", slog.String("error", err.Error()))
			}
		}

		id, ok := d.HitLog.IDOf(r)
		if !ok {
			return nil, output, nil
		}
		output.ID = id
		if rec, ok := d.HitLog.Get(id); ok {
			output.Status = string(rec.Status)
			output.StatusCode = rec.StatusCode
			output.Error = rec.Error
			output.ErrorCode = rec.ErrorCode
		}
		return nil, output, nil
	}
}
