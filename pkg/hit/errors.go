package hit

import (
	"errors"
	"fmt"
)

// Sentinel errors for each validation failure class. A *ValidationError
// matches exactly one of them with errors.Is.
var (
	ErrMissingHitType           = errors.New("missing hit type")
	ErrMissingRequiredParameter = errors.New("missing required parameter")
	ErrInvalidParameterType     = errors.New("invalid parameter type")
	ErrParameterTooLong         = errors.New("parameter too long")
	ErrParameterNotAllowed      = errors.New("parameter not allowed for hit type")
)

// ValidationError describes why a hit was rejected.
type ValidationError struct {
	Kind    error   // one of the Err* sentinels
	Key     string  // offending parameter, empty for ErrMissingHitType
	Value   string  // serialized value, when relevant
	HitType HitType // hit type being validated
	Limit   int     // max length for ErrParameterTooLong
}

func (e *ValidationError) Error() string {
	switch e.Kind {
	case ErrMissingHitType:
		if e.Value != "" {
			return fmt.Sprintf("%v: %q", e.Kind, e.Value)
		}
		return e.Kind.Error()
	case ErrMissingRequiredParameter:
		return fmt.Sprintf("%v %q for %s hit", e.Kind, e.Key, e.HitType)
	case ErrInvalidParameterType:
		d, _, _ := resolve(e.Key)
		return fmt.Sprintf("%v: %s=%q is not a valid %s", e.Kind, e.Key, e.Value, d.Kind)
	case ErrParameterTooLong:
		return fmt.Sprintf("%v: %s is %d bytes, limit %d", e.Kind, e.Key, len(e.Value), e.Limit)
	case ErrParameterNotAllowed:
		return fmt.Sprintf("%v: %s cannot be sent with %s hits", e.Kind, e.Key, e.HitType)
	default:
		return fmt.Sprintf("invalid hit: %s", e.Key)
	}
}

func (e *ValidationError) Unwrap() error {
	return e.Kind
}
