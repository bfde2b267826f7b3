package tools

import (
	"context"
	"time"

	sdkmcp "github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/usestring/gatrack/internal/hitlog"
	"github.com/usestring/gatrack/pkg/hit"
)

// maxRecentLimit caps ga_recent_hits results.
const maxRecentLimit = 500

// RecentHitsInput is the input for ga_recent_hits.
type RecentHitsInput struct {
	HitType     string `json:"hit_type,omitempty" jsonschema:"Only hits of this type"`
	Status      string `json:"status,omitempty" jsonschema:"Only hits in this state: pending, delivered or failed"`
	Limit       int    `json:"limit,omitempty" jsonschema:"Max hits (or jq values) to return (default: 20, max: 500)"`
	Expression  string `json:"expression,omitempty" jsonschema:"Optional jq expression evaluated against each hit record, e.g. select(.status == \"failed\") | .error"`
	Deduplicate bool   `json:"deduplicate,omitempty" jsonschema:"Remove duplicate jq values (default: false)"`
}

// HitRecord is a logged hit as returned by ga_recent_hits.
type HitRecord struct {
	ID          string  `json:"id"`
	HitType     string  `json:"hit_type"`
	Params      []Param `json:"params,omitzero"`
	Method      string  `json:"method"`
	Size        int     `json:"size"`
	Warning     string  `json:"warning,omitempty"`
	Status      string  `json:"status"`
	StatusCode  int     `json:"status_code,omitempty"`
	Error       string  `json:"error,omitempty"`
	ErrorCode   string  `json:"error_code,omitempty"`
	SubmittedAt string  `json:"submitted_at"`
	CompletedAt string  `json:"completed_at,omitempty"`
}

// RecentHitsOutput is the output for ga_recent_hits. Hits is set without an
// expression, Values with one.
type RecentHitsOutput struct {
	Hits    []HitRecord   `json:"hits,omitzero"`
	Values  []any         `json:"values,omitzero"`
	Errors  []string      `json:"errors,omitempty"`
	Matched int           `json:"matched"`
	Stats   *hitlog.Stats `json:"stats,omitempty"`
}

func toHitRecord(rec *hitlog.Record) HitRecord {
	out := HitRecord{
		ID:          rec.ID,
		HitType:     rec.HitType,
		Params:      make([]Param, len(rec.Params)),
		Method:      rec.Method,
		Size:        rec.Size,
		Warning:     rec.Warning,
		Status:      string(rec.Status),
		StatusCode:  rec.StatusCode,
		Error:       rec.Error,
		ErrorCode:   rec.ErrorCode,
		SubmittedAt: rec.SubmittedAt.Format(time.RFC3339Nano),
	}
	for i, p := range rec.Params {
		out.Params[i] = Param{Key: p.Key, Value: p.Value}
	}
	if rec.CompletedAt != nil {
		out.CompletedAt = rec.CompletedAt.Format(time.RFC3339Nano)
	}
	return out
}

// ToolRecentHits lists logged hits, newest first, optionally through jq.
func ToolRecentHits(d *Deps) func(ctx context.Context, req *sdkmcp.CallToolRequest, input RecentHitsInput) (*sdkmcp.CallToolResult, RecentHitsOutput, error) {
	return func(ctx context.Context, req *sdkmcp.CallToolRequest, input RecentHitsInput) (*sdkmcp.CallToolResult, RecentHitsOutput, error) {
		filter := hitlog.Filter{HitType: input.HitType, Status: hitlog.Status(input.Status)}
		if input.HitType != "" {
			if _, err := hit.ParseHitType(input.HitType); err != nil {
				return nil, RecentHitsOutput{}, ErrInvalidInput(err.Error())
			}
		}
		switch filter.Status {
		case "", hitlog.StatusPending, hitlog.StatusDelivered, hitlog.StatusFailed:
		default:
			return nil, RecentHitsOutput{}, ErrInvalidInput("status must be 'pending', 'delivered' or 'failed'")
		}

		limit := input.Limit
		if limit <= 0 {
			limit = d.Config.DefaultRecentLimit
		}
		if limit > maxRecentLimit {
			limit = maxRecentLimit
		}

		stats := d.HitLog.Stats()
		output := RecentHitsOutput{Stats: &stats}

		if input.Expression == "" {
			records := d.HitLog.Recent(filter, limit)
			output.Hits = make([]HitRecord, len(records))
			for i, rec := range records {
				output.Hits[i] = toHitRecord(rec)
			}
			output.Matched = len(records)
			return nil, output, nil
		}

		if err := d.Query.ValidateExpression(input.Expression); err != nil {
			return nil, RecentHitsOutput{}, ErrInvalidInput(err.Error())
		}

		records := d.HitLog.Recent(filter, 0)
		inputs := make([]any, 0, len(records))
		labels := make([]string, 0, len(records))
		for _, rec := range records {
			m, err := rec.Map()
			if err != nil {
				output.Errors = append(output.Errors, rec.ID+": "+err.Error())
				continue
			}
			inputs = append(inputs, m)
			labels = append(labels, rec.ID)
		}

		result, err := d.Query.Run(inputs, labels, input.Expression, input.Deduplicate, limit)
		if err != nil {
			return nil, RecentHitsOutput{}, ErrInvalidInput(err.Error())
		}
		output.Values = result.Values
		output.Errors = append(output.Errors, result.Errors...)
		output.Matched = len(result.MatchedIndices)
		return nil, output, nil
	}
}
