package tracker

// Session is the session-control flag attached to the next built request.
type Session uint8

const (
	NoSession Session = iota
	StartSession
	EndSession
)

// Value returns the sc wire value, or "" for NoSession.
func (s Session) Value() string {
	switch s {
	case StartSession:
		return "start"
	case EndSession:
		return "end"
	default:
		return ""
	}
}

func (s Session) String() string {
	if v := s.Value(); v != "" {
		return v
	}
	return "none"
}

// ParseSession maps "start", "end" and "none" (or "") to a Session.
func ParseSession(s string) (Session, bool) {
	switch s {
	case "start":
		return StartSession, true
	case "end":
		return EndSession, true
	case "", "none":
		return NoSession, true
	}
	return NoSession, false
}
