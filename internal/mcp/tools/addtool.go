package tools

import (
	"encoding/json"
	"fmt"
	"reflect"
	"strings"

	"github.com/google/jsonschema-go/jsonschema"
	sdkmcp "github.com/modelcontextprotocol/go-sdk/mcp"
)

// AddTool registers a tool with the server and validates that the output type's
// zero value passes the SDK's inferred JSON schema. This catches nil slice and
// nil map bugs at startup rather than on the first call.
//
// Panics if the zero value of Out fails schema validation.
func AddTool[In, Out any](srv *sdkmcp.Server, t *sdkmcp.Tool, h sdkmcp.ToolHandlerFor[In, Out]) {
	CheckOutputSchema[Out](t.Name)
	sdkmcp.AddTool(srv, t, h)
}

// CheckOutputSchema validates that the zero value of T passes the JSON schema
// the MCP SDK would infer from it.
//
// json.Marshal writes nil slices and nil maps as null, while the SDK infers
// "type": "array" or "type": "object" from the Go type. Fields that can be
// nil need omitzero or omitempty (or a non-nil default).
//
// json.RawMessage fields are rejected outright: they marshal as embedded JSON
// but are inferred as []byte.
//
// Panics if validation fails. No-ops for the untyped "any" output or if schema
// inference itself fails (the SDK will report those separately).
func CheckOutputSchema[T any](toolName string) {
	rt := reflect.TypeFor[T]()
	if rt == reflect.TypeFor[any]() {
		return
	}
	elem := rt
	if elem.Kind() == reflect.Pointer {
		elem = elem.Elem()
	}

	if paths := findFields(elem, isRawMessage, nil, make(map[reflect.Type]bool)); len(paths) > 0 {
		panic(fmt.Sprintf(
			"AddTool %q: output type %s contains json.RawMessage at %s\n"+
				"  json.RawMessage marshals as embedded JSON but the schema generator infers []byte\n"+
				"  Fix: change the field type to any (or []any) and store decoded JSON in it",
			toolName, elem, strings.Join(paths, ", "),
		))
	}

	schema, err := jsonschema.ForType(elem, &jsonschema.ForOptions{})
	if err != nil {
		return // schema inference failed; SDK will report this in AddTool
	}
	resolved, err := schema.Resolve(&jsonschema.ResolveOptions{})
	if err != nil {
		return // resolution failed; SDK will report this in AddTool
	}

	data, err := json.Marshal(reflect.Zero(elem).Interface())
	if err != nil {
		return
	}
	var v map[string]any
	if err := json.Unmarshal(data, &v); err != nil {
		return
	}

	if err := resolved.Validate(&v); err != nil {
		msg := fmt.Sprintf(
			"AddTool %q: zero value of output type %s fails schema validation: %v\n  JSON: %s\n",
			toolName, elem, err, data,
		)
		if nilable := nilableFields(elem); len(nilable) > 0 {
			msg += "  Fields that marshal as null: " + strings.Join(nilable, ", ") + "\n"
		}
		msg += "  Fix: add `omitzero` or `omitempty` to nil-defaulting slice and map fields"
		panic(msg)
	}
}

var rawMessageType = reflect.TypeFor[json.RawMessage]()

func isRawMessage(t reflect.Type) bool { return t == rawMessageType }

// nilableFields lists the top-level slice and map fields of a struct type
// that have neither omitzero nor omitempty.
func nilableFields(t reflect.Type) []string {
	if t.Kind() != reflect.Struct {
		return nil
	}
	var out []string
	for i := range t.NumField() {
		f := t.Field(i)
		if !f.IsExported() {
			continue
		}
		if k := f.Type.Kind(); k != reflect.Slice && k != reflect.Map {
			continue
		}
		name, opts, _ := strings.Cut(f.Tag.Get("json"), ",")
		if name == "-" || strings.Contains(opts, "omitzero") || strings.Contains(opts, "omitempty") {
			continue
		}
		if name == "" {
			name = f.Name
		}
		out = append(out, name)
	}
	return out
}

// findFields recursively walks t and returns the paths of fields whose
// type satisfies match.
func findFields(t reflect.Type, match func(reflect.Type) bool, path []string, visited map[reflect.Type]bool) []string {
	for t.Kind() == reflect.Pointer {
		t = t.Elem()
	}

	// Direct match, e.g. the element of []json.RawMessage.
	if match(t) {
		return []string{strings.Join(path, ".")}
	}

	// Recursive types.
	if visited[t] {
		return nil
	}
	visited[t] = true
	defer delete(visited, t)

	var found []string

	switch t.Kind() {
	case reflect.Struct:
		for i := range t.NumField() {
			f := t.Field(i)
			if !f.IsExported() {
				continue
			}
			found = append(found, findFields(f.Type, match, append(path, f.Name), visited)...)
		}

	case reflect.Slice, reflect.Array:
		found = append(found, findFields(t.Elem(), match, append(path, "[]"), visited)...)

	case reflect.Map:
		found = append(found, findFields(t.Elem(), match, append(path, "[value]"), visited)...)
	}

	return found
}
