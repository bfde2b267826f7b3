package hit

// Validate decides whether params form a well-formed hit of type t.
//
// Keys unknown to the catalog are passed through unchecked. Known keys must
// serialize to their descriptor's kind, fit its byte limit and be allowed for
// t. Finally every hit-type specific required key must be present. The first
// failure is returned as a *ValidationError.
func Validate(t HitType, params []Parameter) error {
	if !t.IsSingle() {
		return &ValidationError{Kind: ErrMissingHitType}
	}

	present := make(map[string]bool, len(params))
	seenType := false
	for _, p := range params {
		present[p.Key] = true
		s := p.Value.String()

		if p.Key == HitTypeParam.Key() {
			// An explicit "t" must agree with t and appear once.
			pt, err := ParseHitType(s)
			if seenType || err != nil || pt != t {
				return &ValidationError{Kind: ErrMissingHitType, Key: p.Key, Value: s, HitType: t}
			}
			seenType = true
			continue
		}

		d, known, slotOK := resolve(p.Key)
		if !known {
			continue
		}
		if !slotOK || !conforms(d.Kind, s) {
			return &ValidationError{Kind: ErrInvalidParameterType, Key: p.Key, Value: s, HitType: t}
		}
		if d.MaxLength > 0 && len(s) > d.MaxLength {
			return &ValidationError{Kind: ErrParameterTooLong, Key: p.Key, Value: s, HitType: t, Limit: d.MaxLength}
		}
		if !d.Allowed.Contains(t) {
			return &ValidationError{Kind: ErrParameterNotAllowed, Key: p.Key, Value: s, HitType: t}
		}
	}

	for _, req := range requiredByHitType[t] {
		if !present[req.Key()] {
			return &ValidationError{Kind: ErrMissingRequiredParameter, Key: req.Key(), HitType: t}
		}
	}
	return nil
}
