package hit

import (
	"strconv"
	"strings"

	"golang.org/x/text/language"
)

// Parameter is one key/value pair of a hit. Key is the wire name.
type Parameter struct {
	Key   string
	Value Value
}

// P builds a Parameter for a catalog param.
func P(p Param, v Value) Parameter {
	return Parameter{Key: p.Key(), Value: v}
}

// Dimension builds the custom dimension parameter for slot i (cd<i>).
func Dimension(i int, v string) Parameter {
	return Parameter{Key: CustomDimension.Key() + strconv.Itoa(i), Value: Text(v)}
}

// Metric builds the custom metric parameter for slot i (cm<i>).
func Metric(i int, v int64) Parameter {
	return Parameter{Key: CustomMetric.Key() + strconv.Itoa(i), Value: Int(v)}
}

// Language builds the user language parameter (ul) from a BCP 47 tag,
// canonicalized and lower-cased the way browsers report it (e.g. "en-us").
func Language(tag language.Tag) Parameter {
	return P(UserLanguage, Text(strings.ToLower(tag.String())))
}

// ParseLanguage parses s as a BCP 47 tag and returns the ul parameter.
func ParseLanguage(s string) (Parameter, error) {
	tag, err := language.Parse(s)
	if err != nil {
		return Parameter{}, err
	}
	return Language(tag), nil
}

// Hit is a single reportable event: a hit type plus its parameters.
// A Hit is built by the caller per event and is not safe for concurrent
// mutation.
type Hit struct {
	Type   HitType
	params []Parameter
}

// New returns an empty hit of type t carrying params.
func New(t HitType, params ...Parameter) *Hit {
	h := &Hit{Type: t}
	for _, p := range params {
		h.Add(p)
	}
	return h
}

// Add sets a parameter. A key that is already present keeps its position
// and takes the new value.
func (h *Hit) Add(p Parameter) *Hit {
	for i := range h.params {
		if h.params[i].Key == p.Key {
			h.params[i].Value = p.Value
			return h
		}
	}
	h.params = append(h.params, p)
	return h
}

// Set is shorthand for Add(P(p, v)).
func (h *Hit) Set(p Param, v Value) *Hit {
	return h.Add(P(p, v))
}

// Get returns the value stored under key.
func (h *Hit) Get(key string) (Value, bool) {
	for _, p := range h.params {
		if p.Key == key {
			return p.Value, true
		}
	}
	return Value{}, false
}

// Remove deletes key from the hit.
func (h *Hit) Remove(key string) {
	for i, p := range h.params {
		if p.Key == key {
			h.params = append(h.params[:i], h.params[i+1:]...)
			return
		}
	}
}

// Parameters returns a copy of the parameters in insertion order.
func (h *Hit) Parameters() []Parameter {
	out := make([]Parameter, len(h.params))
	copy(out, h.params)
	return out
}

// Len returns the number of parameters.
func (h *Hit) Len() int { return len(h.params) }

// SetExperiment attaches a content experiment id and variant (xid, xvar).
func (h *Hit) SetExperiment(id, variant string) *Hit {
	h.Set(ExperimentID, Text(id))
	h.Set(ExperimentVariant, Text(variant))
	return h
}

// ExperimentID returns the experiment id, or "" when unset.
func (h *Hit) ExperimentID() string {
	v, _ := h.Get(ExperimentID.Key())
	return v.String()
}

// ExperimentVariant returns the experiment variant, or "" when unset.
func (h *Hit) ExperimentVariant() string {
	v, _ := h.Get(ExperimentVariant.Key())
	return v.String()
}

// Clone returns a deep copy of h.
func (h *Hit) Clone() *Hit {
	return &Hit{Type: h.Type, params: h.Parameters()}
}

// Validate checks the hit against the catalog. See Validate.
func (h *Hit) Validate() error {
	return Validate(h.Type, h.params)
}
