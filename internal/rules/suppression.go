package rules

import (
	"fmt"
	"time"
)

// ConditionState is the runtime state of §3, created on first
// evaluation of its (watcherId, eventSubject, conditionIndex,
// sourceKey) — invariant 3.
type ConditionState struct {
	PrevMatch        bool
	LastSentEpochSec int64
}

// suppressionKey computes the key of §4.4:
// "<watcherId>::<subject>::<conditionIndex>::<sourceKey>".
func suppressionKey(watcherID, subject string, conditionIndex int, sourceKey string) string {
	return fmt.Sprintf("%s::%s::%d::%s", watcherID, subject, conditionIndex, sourceKey)
}

// suppressionCore implements §4.4's edge + cooldown allow/deny
// decision. It holds no lock of its own: the owning Watcher's mutex
// must already be held by every caller (§5's serialization rule for
// per-watcher private state).
type suppressionCore struct {
	states map[string]*ConditionState
}

func newSuppressionCore() *suppressionCore {
	return &suppressionCore{states: make(map[string]*ConditionState)}
}

func (s *suppressionCore) get(key string) *ConditionState {
	st, ok := s.states[key]
	if !ok {
		st = &ConditionState{}
		s.states[key] = st
	}
	return st
}

// shouldNotify implements §4.4's shouldNotify(now) for a condition
// the caller has already confirmed matches this evaluation.
func (s *suppressionCore) shouldNotify(key, edge string, cooldownSec int, now time.Time) bool {
	st := s.get(key)

	allow := true
	if edge == "rising" {
		allow = !st.PrevMatch
	}
	st.PrevMatch = true

	if allow && cooldownSec > 0 && now.Unix()-st.LastSentEpochSec < int64(cooldownSec) {
		allow = false
	}
	if allow {
		st.LastSentEpochSec = now.Unix()
	}
	return allow
}

// markNotMatched implements §4.4's "mark not-matched" path: on a
// non-match for a rising-edge condition, prevMatch is cleared without
// touching lastSentAt, which is what arms the next rising edge.
func (s *suppressionCore) markNotMatched(key string) {
	s.get(key).PrevMatch = false
}
