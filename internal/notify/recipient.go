package notify

// Recipient is one entry in a notification list (§3, §6): a method
// (LOG, MAIL, or SMS), the address that method delivers to, and the
// minimum severity it wants to hear about.
type Recipient struct {
	Method      string
	Address     string
	MinSeverity string
}

// Filter selects which recipients of a list receive one notification
// call, per §4.6's three sendNotifications forms. Exactly one of
// Severity or Methods should be set; the zero Filter matches every
// recipient in the list unconditionally.
type Filter struct {
	// Severity, if non-empty, admits recipients whose MinSeverity is
	// at or below it on the §4.6 scale.
	Severity string
	// Methods, if non-empty, admits recipients whose Method is in the
	// set, ignoring severity entirely.
	Methods map[string]bool
}

// admits reports whether r should receive a notification under f.
func (f Filter) admits(r Recipient) bool {
	if len(f.Methods) > 0 {
		return f.Methods[r.Method]
	}
	if f.Severity != "" {
		return severityAtLeast(f.Severity, r.MinSeverity)
	}
	return true
}
