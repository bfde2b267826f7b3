package tools

import (
	"context"
	"log/slog"
	"net/url"
	"strings"

	"github.com/google/uuid"
	sdkmcp "github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/usestring/gatrack/pkg/tracker"
)

// ConfigurationOutput describes the tracker configuration.
type ConfigurationOutput struct {
	TrackingID    string   `json:"tracking_id"`
	ClientID      string   `json:"client_id"`
	Endpoint      string   `json:"endpoint"`
	Secure        bool     `json:"secure"`
	UserAgent     string   `json:"user_agent"`
	RequestMethod string   `json:"request_method"`
	CacheBusting  bool     `json:"cache_busting"`
	AnonymizeIP   bool     `json:"anonymize_ip"`
	Session       string   `json:"session"`
	Pending       int      `json:"pending"`
	Rejected      []string `json:"rejected,omitempty"`
}

func describeConfiguration(t *tracker.Tracker) ConfigurationOutput {
	cfg := t.Configuration()
	return ConfigurationOutput{
		TrackingID:    cfg.TrackingID(),
		ClientID:      cfg.ClientID().String(),
		Endpoint:      cfg.Endpoint(),
		Secure:        cfg.IsSecure(),
		UserAgent:     cfg.UserAgent(),
		RequestMethod: cfg.RequestMethod(),
		CacheBusting:  cfg.CacheBusting(),
		AnonymizeIP:   cfg.AnonymizeIP(),
		Session:       t.Session().String(),
		Pending:       t.Pending(),
	}
}

// GetConfigurationInput is the input for ga_get_configuration.
type GetConfigurationInput struct{}

// ToolGetConfiguration reports the tracker configuration.
func ToolGetConfiguration(d *Deps) func(ctx context.Context, req *sdkmcp.CallToolRequest, input GetConfigurationInput) (*sdkmcp.CallToolResult, ConfigurationOutput, error) {
	return func(ctx context.Context, req *sdkmcp.CallToolRequest, input GetConfigurationInput) (*sdkmcp.CallToolResult, ConfigurationOutput, error) {
		return nil, describeConfiguration(d.Tracker), nil
	}
}

// ConfigureInput is the input for ga_configure. Omitted fields are left
// unchanged.
type ConfigureInput struct {
	TrackingID    *string `json:"tracking_id,omitempty" jsonschema:"Property id such as UA-1234-1; an invalid id clears it"`
	ClientID      *string `json:"client_id,omitempty" jsonschema:"Version 4 UUID identifying the client"`
	Endpoint      *string `json:"endpoint,omitempty" jsonschema:"Absolute http or https collection URL"`
	UserAgent     *string `json:"user_agent,omitempty" jsonschema:"User-Agent header sent with hits"`
	RequestMethod *string `json:"request_method,omitempty" jsonschema:"POST or GET"`
	CacheBusting  *bool   `json:"cache_busting,omitempty" jsonschema:"Append a random z parameter to GET requests"`
	AnonymizeIP   *bool   `json:"anonymize_ip,omitempty" jsonschema:"Send aip=1 with every hit"`
}

// ToolConfigure updates the tracker configuration. Values the tracker refuses
// are listed in rejected.
func ToolConfigure(d *Deps) func(ctx context.Context, req *sdkmcp.CallToolRequest, input ConfigureInput) (*sdkmcp.CallToolResult, ConfigurationOutput, error) {
	return func(ctx context.Context, req *sdkmcp.CallToolRequest, input ConfigureInput) (*sdkmcp.CallToolResult, ConfigurationOutput, error) {
		var rejected []string

		d.Tracker.Configure(func(cfg *tracker.Configuration) {
			if v := input.TrackingID; v != nil {
				cfg.SetTrackingID(*v)
				if cfg.TrackingID() != *v {
					rejected = append(rejected, "tracking_id")
				}
			}
			if v := input.ClientID; v != nil {
				cfg.SetClientIDString(*v)
				if id, err := uuid.Parse(*v); err != nil || cfg.ClientID() != id {
					rejected = append(rejected, "client_id")
				}
			}
			if v := input.Endpoint; v != nil {
				cfg.SetEndpoint(*v)
				if u, err := url.Parse(*v); err != nil || cfg.Endpoint() != u.String() {
					rejected = append(rejected, "endpoint")
				}
			}
			if v := input.UserAgent; v != nil {
				cfg.SetUserAgent(*v)
				if cfg.UserAgent() != *v {
					rejected = append(rejected, "user_agent")
				}
			}
			if v := input.RequestMethod; v != nil {
				method := strings.ToUpper(*v)
				cfg.SetRequestMethod(method)
				if cfg.RequestMethod() != method {
					rejected = append(rejected, "request_method")
				}
			}
			if v := input.CacheBusting; v != nil {
				cfg.SetCacheBusting(*v)
			}
			if v := input.AnonymizeIP; v != nil {
				cfg.SetIPAnonymization(*v)
			}
		})

		output := describeConfiguration(d.Tracker)
		output.Rejected = rejected

		slog.Info("tracker configured",
			slog.String("tracking_id", output.TrackingID),
			slog.String("endpoint", output.Endpoint),
			slog.String("request_method", output.RequestMethod),
			slog.Any("rejected", rejected),
		)
		return nil, output, nil
	}
}
