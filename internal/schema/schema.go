// Package schema describes hits as JSON Schema documents and validates JSON
// hit objects against them.
//
// A JSON hit is a flat object of wire keys to string values, for example
//
//	{"t": "event", "ec": "video", "ea": "play", "ev": "42", "cd3": "premium"}
//
// The schema for each hit type is generated from the parameter catalog, so
// it carries the same kinds, byte limits and applicability rules as
// hit.Validate. Byte limits are expressed as maxLength, which JSON Schema
// counts in characters; hit.Validate remains authoritative for multi-byte
// values.
package schema

import (
	"fmt"

	"github.com/invopop/jsonschema"

	"github.com/usestring/gatrack/pkg/hit"
)

// Draft is the JSON Schema dialect of generated documents.
const Draft = "https://json-schema.org/draft/2020-12/schema"

// Value patterns for non-text kinds. They mirror hit's kind rules; integers
// that overflow 64 bits are caught by hit.Validate.
const (
	booleanPattern  = `^[01]$`
	integerPattern  = `^(0|-?[1-9][0-9]*)$`
	currencyPattern = `^-?[0-9]*\.[0-9]{2,6}$`
	slotPattern     = `([1-9]|[1-9][0-9]|1[0-9][0-9]|200)$`
)

// ForHitType builds the JSON Schema for hits of type t.
//
// Parameters allowed for t become typed properties. Catalog parameters not
// allowed for t are forbidden with {"not": {}}. Custom dimension and metric
// slots are pattern properties. Unknown keys are accepted.
func ForHitType(t hit.HitType) (*jsonschema.Schema, error) {
	if !t.IsSingle() {
		return nil, fmt.Errorf("hit type %s is not a single hit type", t)
	}

	s := &jsonschema.Schema{
		Version:           Draft,
		Title:             t.String() + " hit",
		Description:       fmt.Sprintf("Measurement protocol parameters for a %s hit, keyed by wire name.", t),
		Type:              "object",
		Properties:        jsonschema.NewProperties(),
		PatternProperties: make(map[string]*jsonschema.Schema),
		Required:          []string{hit.HitTypeParam.Key()},
	}

	for _, d := range hit.Descriptors() {
		switch {
		case d.Param == hit.HitTypeParam:
			s.Properties.Set(d.Key, &jsonschema.Schema{
				Type:        "string",
				Const:       t.String(),
				Description: "Hit type.",
			})
		case d.Indexed():
			s.PatternProperties["^"+d.Key+slotPattern] = valueSchema(d)
		case d.Allowed.Contains(t):
			s.Properties.Set(d.Key, valueSchema(d))
		default:
			s.Properties.Set(d.Key, &jsonschema.Schema{
				Not:         &jsonschema.Schema{},
				Description: fmt.Sprintf("Not allowed for %s hits.", t),
			})
		}
	}

	for _, p := range hit.RequiredFor(t) {
		s.Required = append(s.Required, p.Key())
	}
	return s, nil
}

// Envelope is the schema every JSON hit must satisfy before its hit type is
// known: an object whose t is one of the hit type literals.
func Envelope() *jsonschema.Schema {
	names := hit.HitTypeNames()
	enum := make([]any, len(names))
	for i, n := range names {
		enum[i] = n
	}

	props := jsonschema.NewProperties()
	props.Set(hit.HitTypeParam.Key(), &jsonschema.Schema{Type: "string", Enum: enum})
	return &jsonschema.Schema{
		Version:    Draft,
		Title:      "hit",
		Type:       "object",
		Properties: props,
		Required:   []string{hit.HitTypeParam.Key()},
	}
}

func valueSchema(d hit.Descriptor) *jsonschema.Schema {
	s := &jsonschema.Schema{
		Type:        "string",
		Description: fmt.Sprintf("%s (%s)", d.Key, d.Kind),
	}
	switch d.Kind {
	case hit.KindBoolean:
		s.Pattern = booleanPattern
	case hit.KindInteger:
		s.Pattern = integerPattern
	case hit.KindCurrency:
		s.Pattern = currencyPattern
	}
	if d.MaxLength > 0 {
		n := uint64(d.MaxLength)
		s.MaxLength = &n
	}
	return s
}
