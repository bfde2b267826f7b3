// Package tools contains MCP tool implementations for gatrack.
package tools

import (
	"net/url"
	"strings"

	"github.com/usestring/gatrack/pkg/hit"
)

// MIME type constant.
const MimeJSON = "application/json"

// Param is one wire key/value pair, in tool inputs and outputs.
type Param struct {
	Key   string `json:"key" jsonschema:"Wire parameter name, e.g. dp, ec, cd3"`
	Value string `json:"value" jsonschema:"Value in wire form: booleans are 1 or 0, currency like 9.99"`
}

// toHit builds a hit from tool input. Parameter order is kept.
func toHit(hitType string, params []Param) (*hit.Hit, error) {
	t, err := hit.ParseHitType(hitType)
	if err != nil {
		return nil, &hit.ValidationError{Kind: hit.ErrMissingHitType, Value: hitType}
	}

	h := hit.New(t)
	for _, p := range params {
		if p.Key == "" {
			return nil, ErrInvalidInput("parameter key must not be empty")
		}
		h.Add(hit.Parameter{Key: p.Key, Value: hit.Text(p.Value)})
	}
	return h, nil
}

// decodePayload splits an encoded payload back into its pairs, in wire order.
func decodePayload(payload string) []Param {
	out := make([]Param, 0, strings.Count(payload, "&")+1)
	for _, kv := range strings.Split(payload, "&") {
		if kv == "" {
			continue
		}
		k, v, _ := strings.Cut(kv, "=")
		if uk, err := url.QueryUnescape(k); err == nil {
			k = uk
		}
		if uv, err := url.QueryUnescape(v); err == nil {
			v = uv
		}
		out = append(out, Param{Key: k, Value: v})
	}
	return out
}
