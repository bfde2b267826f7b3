package schema

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"strings"

	"github.com/santhosh-tekuri/jsonschema/v6"
	"golang.org/x/text/language"
	"golang.org/x/text/message"

	"github.com/usestring/gatrack/pkg/hit"
)

// Result is the outcome of validating one JSON hit.
type Result struct {
	Valid   bool     `json:"valid"`
	HitType string   `json:"hit_type,omitempty"`
	Errors  []string `json:"errors,omitempty"`
}

// Validator validates JSON hits against compiled per-hit-type schemas.
// It is safe for concurrent use.
type Validator struct {
	envelope *jsonschema.Schema
	byType   map[hit.HitType]*jsonschema.Schema
}

// NewValidator compiles the envelope schema and one schema per hit type.
func NewValidator() (*Validator, error) {
	v := &Validator{byType: make(map[hit.HitType]*jsonschema.Schema)}

	env, err := compile("hit.json", Envelope())
	if err != nil {
		return nil, err
	}
	v.envelope = env

	for _, t := range hit.AllTypes.Types() {
		doc, err := ForHitType(t)
		if err != nil {
			return nil, err
		}
		compiled, err := compile(t.String()+".json", doc)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", t, err)
		}
		v.byType[t] = compiled
	}
	return v, nil
}

// compile marshals an invopop schema and compiles it with the validator's
// compiler.
func compile(name string, s any) (*jsonschema.Schema, error) {
	raw, err := json.Marshal(s)
	if err != nil {
		return nil, fmt.Errorf("marshaling schema: %w", err)
	}
	doc, err := jsonschema.UnmarshalJSON(bytes.NewReader(raw))
	if err != nil {
		return nil, fmt.Errorf("unmarshaling schema: %w", err)
	}

	compiler := jsonschema.NewCompiler()
	if err := compiler.AddResource(name, doc); err != nil {
		return nil, fmt.Errorf("adding schema resource: %w", err)
	}
	compiled, err := compiler.Compile(name)
	if err != nil {
		return nil, fmt.Errorf("compiling schema: %w", err)
	}
	return compiled, nil
}

// Validate checks a JSON hit object. It first checks the envelope, then the
// schema of the hit type named by t, then the catalog rules (for byte limits
// and integer range). Number and boolean values are checked in their wire
// form.
func (v *Validator) Validate(data []byte) *Result {
	pairs, err := decodePairs(data)
	if err != nil {
		return &Result{Errors: []string{err.Error()}}
	}

	obj := make(map[string]any, len(pairs))
	for _, p := range pairs {
		obj[p.Key] = p.Value.String()
	}

	if err := v.envelope.Validate(obj); err != nil {
		return &Result{Errors: extractValidationErrors(err)}
	}

	ht, _ := hit.ParseHitType(obj[hit.HitTypeParam.Key()].(string))
	res := &Result{HitType: ht.String()}

	if err := v.byType[ht].Validate(obj); err != nil {
		res.Errors = extractValidationErrors(err)
		return res
	}

	h, err := fromPairs(pairs)
	if err == nil {
		err = h.Validate()
	}
	if err != nil {
		res.Errors = []string{err.Error()}
		return res
	}

	res.Valid = true
	return res
}

// Decode converts a JSON hit object to a Hit, keeping key order. Values may
// be strings, numbers or booleans (true and false become "1" and "0").
// The t key selects the hit type and is not kept as a parameter.
func Decode(data []byte) (*hit.Hit, error) {
	pairs, err := decodePairs(data)
	if err != nil {
		return nil, err
	}
	return fromPairs(pairs)
}

func fromPairs(pairs []hit.Parameter) (*hit.Hit, error) {
	var (
		ht     hit.HitType
		params []hit.Parameter
	)
	for _, p := range pairs {
		if p.Key != hit.HitTypeParam.Key() {
			params = append(params, p)
			continue
		}
		t, err := hit.ParseHitType(p.Value.String())
		if err != nil {
			return nil, &hit.ValidationError{Kind: hit.ErrMissingHitType, Key: p.Key, Value: p.Value.String()}
		}
		ht = t
	}
	if ht == 0 {
		return nil, &hit.ValidationError{Kind: hit.ErrMissingHitType}
	}
	return hit.New(ht, params...), nil
}

// decodePairs reads a flat JSON object into text parameters in document order.
func decodePairs(data []byte) ([]hit.Parameter, error) {
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()

	tok, err := dec.Token()
	if err != nil {
		return nil, fmt.Errorf("invalid JSON: %w", err)
	}
	if d, ok := tok.(json.Delim); !ok || d != '{' {
		return nil, errors.New("hit must be a JSON object")
	}

	var pairs []hit.Parameter
	for dec.More() {
		tok, err := dec.Token()
		if err != nil {
			return nil, fmt.Errorf("invalid JSON: %w", err)
		}
		key := tok.(string)

		var raw any
		if err := dec.Decode(&raw); err != nil {
			return nil, fmt.Errorf("invalid JSON value for %s: %w", key, err)
		}
		s, err := scalar(raw)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", key, err)
		}
		pairs = append(pairs, hit.Parameter{Key: key, Value: hit.Text(s)})
	}
	if _, err := dec.Token(); err != nil {
		return nil, fmt.Errorf("invalid JSON: %w", err)
	}
	if dec.More() {
		return nil, errors.New("invalid JSON: trailing data after hit object")
	}
	return pairs, nil
}

func scalar(v any) (string, error) {
	switch x := v.(type) {
	case string:
		return x, nil
	case json.Number:
		return x.String(), nil
	case bool:
		if x {
			return "1", nil
		}
		return "0", nil
	default:
		return "", fmt.Errorf("value must be a string, number or boolean, got %T", v)
	}
}

// extractValidationErrors extracts human-readable error messages from a validation error.
func extractValidationErrors(err error) []string {
	if err == nil {
		return nil
	}

	var validationErr *jsonschema.ValidationError
	if errors.As(err, &validationErr) {
		return extractDetailedErrors(validationErr)
	}

	return []string{err.Error()}
}

// printer is a default English printer for localized error messages.
var printer = message.NewPrinter(language.English)

// extractDetailedErrors flattens a ValidationError tree into sorted,
// deduplicated "path: message" lines.
func extractDetailedErrors(err *jsonschema.ValidationError) []string {
	errorsByPath := make(map[string][]string)
	collectErrors(err, errorsByPath)

	var result []string
	for path, msgs := range errorsByPath {
		seen := make(map[string]bool)
		for _, msg := range msgs {
			if seen[msg] {
				continue
			}
			seen[msg] = true
			if path != "" {
				result = append(result, fmt.Sprintf("%s: %s", path, msg))
			} else {
				result = append(result, msg)
			}
		}
	}
	sort.Strings(result)
	return result
}

// collectErrors recursively collects leaf errors (those without causes).
func collectErrors(err *jsonschema.ValidationError, errorsByPath map[string][]string) {
	instancePath := ""
	if len(err.InstanceLocation) > 0 {
		instancePath = "/" + strings.Join(err.InstanceLocation, "/")
	}

	if err.ErrorKind != nil && len(err.Causes) == 0 {
		errMsg := err.ErrorKind.LocalizedString(printer)
		if !strings.HasPrefix(errMsg, "$ref ") && !strings.HasPrefix(errMsg, "doesn't validate with") {
			errorsByPath[instancePath] = append(errorsByPath[instancePath], errMsg)
		}
	}

	for _, cause := range err.Causes {
		collectErrors(cause, errorsByPath)
	}
}
