package rules

import "time"

// EventStatus is the runtime state of one stateful bucket (§3). It
// exists only for non-dynamic events (invariant 1); dynamic events
// never allocate one.
type EventStatus struct {
	LastValue        string
	LastHandledValue *string
	WarningTimer     *time.Timer
	ResetTimer       *time.Timer
	WarningFired     bool
}

// bucketKey computes the stateful bucket key of §3 invariant 2: the
// bare subject when no stateKey is declared, otherwise the
// already-interpolated stateKey joined to the subject.
func bucketKey(interpolatedStateKey, subject string) string {
	if interpolatedStateKey == "" {
		return subject
	}
	return interpolatedStateKey + "::" + subject
}

// armTimer stops any timer already referenced by *dst and starts a
// new one that calls fire after d. Safe to call with *dst == nil.
func armTimer(dst **time.Timer, d time.Duration, fire func()) {
	if *dst != nil {
		(*dst).Stop()
	}
	*dst = time.AfterFunc(d, fire)
}

// clearTimer stops and nils out *dst if set. Safe to call with
// *dst == nil.
func clearTimer(dst **time.Timer) {
	if *dst != nil {
		(*dst).Stop()
		*dst = nil
	}
}
