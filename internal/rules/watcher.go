package rules

import (
	"context"
	"encoding/json"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/thornlake/wardenmq/internal/events"
	"github.com/thornlake/wardenmq/internal/exprlang"
	"github.com/thornlake/wardenmq/internal/store"
	"github.com/thornlake/wardenmq/internal/value"
)

// Watcher drives the pipeline of §4.2 for one WatchSpec. All mutable
// pipeline state (buckets, condition states, armed timers) is private
// to the Watcher and guarded by mu, which is held for the duration of
// every HandleMessage call and every timer callback — the per-watcher
// mutex serialization strategy permitted by §5 as an alternative to a
// single-threaded dispatcher.
type Watcher struct {
	spec       WatchSpec
	store      *store.Store
	dispatcher Dispatcher
	logger     *slog.Logger
	bus        *events.Bus
	now        func() time.Time
	limiter    *messageRateLimiter

	mu          sync.Mutex
	buckets     map[string]*EventStatus
	suppression *suppressionCore
}

// NewWatcher constructs a Watcher ready to handle delivered messages.
// Events that are neither dynamic nor stateKey-templated get their
// bucket allocated immediately, matching the legacy single-bucket
// lifecycle of §3; stateKey-templated buckets are created lazily on
// first matching payload, since the key isn't known until then.
func NewWatcher(spec WatchSpec, st *store.Store, dispatcher Dispatcher, bus *events.Bus, logger *slog.Logger) *Watcher {
	if logger == nil {
		logger = slog.Default()
	}
	w := &Watcher{
		spec:        spec,
		store:       st,
		dispatcher:  dispatcher,
		logger:      logger.With("watcher", spec.ID),
		bus:         bus,
		now:         time.Now,
		limiter:     newMessageRateLimiter(200, time.Second, logger.With("watcher", spec.ID)),
		buckets:     make(map[string]*EventStatus),
		suppression: newSuppressionCore(),
	}
	for _, event := range spec.Events {
		if !event.Dynamic && !spec.Dynamic && event.StateKey == "" {
			w.buckets[bucketKey("", event.Subject)] = newEventStatus(event.Default)
		}
	}
	return w
}

func newEventStatus(def any) *EventStatus {
	return &EventStatus{LastValue: value.Stringify(def)}
}

// RunRateLimiter drains the rate limiter's periodic reset loop until
// ctx is cancelled. The supervisor starts one goroutine per watcher
// for this.
func (w *Watcher) RunRateLimiter(ctx context.Context) {
	w.limiter.start(ctx)
}

// ID returns the watcher's configured id.
func (w *Watcher) ID() string { return w.spec.ID }

// Topic returns the watcher's configured MQTT topic, wildcards and all.
func (w *Watcher) Topic() string { return w.spec.Topic }

// HandleMessage runs §4.2's pipeline for one delivered (topic,
// payload) pair. It never panics and never returns an error: a decode
// failure or a malformed expression is logged and the message is
// otherwise dropped or treated as non-matching — the pipeline is
// total on well-typed and malformed input alike (testable property 1).
func (w *Watcher) HandleMessage(topic string, payload []byte) {
	if !w.limiter.allow() {
		return
	}

	var decoded any
	if err := json.Unmarshal(payload, &decoded); err != nil {
		w.logger.Debug("payload is not valid JSON, dropping", "topic", topic, "error", err)
		w.bus.Publish(events.Event{
			Timestamp: w.now(), Source: events.SourceWatcher, Kind: events.KindMessageDropped,
			Data: map[string]any{"watcher_id": w.spec.ID, "topic": topic},
		})
		return
	}

	w.mu.Lock()
	defer w.mu.Unlock()
	for i := range w.spec.Events {
		w.handleEvent(&w.spec.Events[i], decoded)
	}
}

// handleEvent runs §4.2 steps a-f for one EventSpec against one
// decoded payload. The caller holds w.mu.
func (w *Watcher) handleEvent(event *EventSpec, payload any) {
	raw := exprlang.Lookup(payload, event.Subject)
	if raw == nil {
		return
	}

	if len(event.ActiveHours) > 0 && !withinActiveHours(event.ActiveHours, w.now()) {
		return
	}

	if !w.dependenciesSatisfied(event.Dependencies) {
		return
	}

	ctx := exprlang.Context{Payload: payload, Value: raw, Store: w.store}
	currentValueString := value.Stringify(raw)

	dynamic := event.Dynamic || w.spec.Dynamic
	var bucket *EventStatus
	if !dynamic {
		key := bucketKey(w.interpolatedStateKey(event, ctx), event.Subject)
		bucket = w.buckets[key]
		if bucket == nil {
			bucket = newEventStatus(event.Default)
			w.buckets[key] = bucket
		}
		w.store.Update(w.spec.ID, event.Subject, currentValueString)
	}

	for i := range event.Conditions {
		w.evaluateCondition(event, &event.Conditions[i], i, ctx, currentValueString, bucket)
	}

	if bucket != nil {
		bucket.LastValue = currentValueString
	}
}

func (w *Watcher) interpolatedStateKey(event *EventSpec, ctx exprlang.Context) string {
	if event.StateKey == "" {
		return ""
	}
	return exprlang.Interpolate(event.StateKey, ctx)
}

// dependenciesSatisfied implements §4.2c: every dependency must name
// a well-formed "<watchId>.<subject>" path and its normalized store
// value must equal the declared normalized state.
func (w *Watcher) dependenciesSatisfied(deps []Dependency) bool {
	for _, dep := range deps {
		watcherID, subject, err := splitDependencyPath(dep.Path)
		if err != nil {
			w.logger.Warn("malformed dependency path", "path", dep.Path, "error", err)
			return false
		}
		stored, ok := w.store.Get(watcherID, subject)
		if !ok {
			return false
		}
		if !value.NormalizedEqual(stored, dep.State) {
			return false
		}
	}
	return true
}

// splitDependencyPath splits "watchId.subject" on its single dot.
// Exactly one dot is required (S4): zero dots, a leading/trailing
// dot, or extra dots all count as malformed, since a dependency
// targets one top-level subject rather than a nested payload path.
func splitDependencyPath(path string) (watcherID, subject string, err error) {
	idx := strings.IndexByte(path, '.')
	if idx <= 0 || idx == len(path)-1 || strings.IndexByte(path[idx+1:], '.') >= 0 {
		return "", "", &DependencyPathError{Path: path}
	}
	return path[:idx], path[idx+1:], nil
}

// evaluateCondition runs §4.2e's match/suppress/dispatch logic for
// one ConditionSpec. bucket is nil for dynamic events.
func (w *Watcher) evaluateCondition(event *EventSpec, cond *ConditionSpec, index int, ctx exprlang.Context, currentValueString string, bucket *EventStatus) {
	matched := matchCondition(*cond, ctx.Value, ctx, w.logger)
	key := sourceKey(*cond, event, ctx)
	suppKey := suppressionKey(w.spec.ID, event.Subject, index, key)

	if !matched {
		if cond.EffectiveEdge() == "rising" {
			w.suppression.markNotMatched(suppKey)
		}
		return
	}

	if cond.Log != "" {
		w.logger.Info(exprlang.Interpolate(cond.Log, ctx), "event_subject", event.Subject, "condition_index", index)
	}
	w.bus.Publish(events.Event{
		Timestamp: w.now(), Source: events.SourceWatcher, Kind: events.KindConditionMatched,
		Data: map[string]any{"watcher_id": w.spec.ID, "event_subject": event.Subject, "condition_index": index},
	})

	allowed := w.suppression.shouldNotify(suppKey, cond.EffectiveEdge(), cond.CooldownSec, w.now())
	if !allowed {
		w.bus.Publish(events.Event{
			Timestamp: w.now(), Source: events.SourceWatcher, Kind: events.KindConditionSuppressed,
			Data: map[string]any{"watcher_id": w.spec.ID, "event_subject": event.Subject, "condition_index": index, "reason": "edge_cooldown"},
		})
		return
	}

	dynamic := event.Dynamic || w.spec.Dynamic
	switch {
	case dynamic:
		w.send(cond, ctx)
	case cond.UserControlledSuppression():
		w.send(cond, ctx)
	default:
		w.evaluateLegacyStateful(event, cond, index, ctx, currentValueString, bucket)
	}
}

// evaluateLegacyStateful implements the legacy duplicate-suppression
// path of §4.2e/§4.5, engaged only when the condition has not opted
// into edge/cooldown control.
func (w *Watcher) evaluateLegacyStateful(event *EventSpec, cond *ConditionSpec, index int, ctx exprlang.Context, currentValueString string, bucket *EventStatus) {
	if bucket == nil {
		return
	}

	notify := bucket.LastValue != currentValueString
	if notify {
		w.send(cond, ctx)
		handled := currentValueString
		bucket.LastHandledValue = &handled
	} else {
		w.bus.Publish(events.Event{
			Timestamp: w.now(), Source: events.SourceWatcher, Kind: events.KindConditionSuppressed,
			Data: map[string]any{"watcher_id": w.spec.ID, "event_subject": event.Subject, "condition_index": index, "reason": "duplicate_value"},
		})
	}

	w.armWarningTimer(event, cond, currentValueString, ctx, bucket)
	w.armResetTimer(event, cond, bucket)
}

// armWarningTimer implements §4.5's warning half. It snapshots the
// interpolated warning message now, at arm time, so firing does not
// re-read payload state.
func (w *Watcher) armWarningTimer(event *EventSpec, cond *ConditionSpec, warningValue string, ctx exprlang.Context, bucket *EventStatus) {
	if cond.WarningThreshold <= 0 {
		clearTimer(&bucket.WarningTimer)
		bucket.WarningFired = false
		return
	}
	if bucket.WarningTimer != nil {
		return
	}

	warningMessage := exprlang.Interpolate(cond.WarningMessage, ctx)
	warningSeverity := cond.EffectiveWarningSeverity()
	listID := w.spec.ID

	armTimer(&bucket.WarningTimer, time.Duration(cond.WarningThreshold)*time.Second, func() {
		w.mu.Lock()
		defer w.mu.Unlock()
		if !bucket.WarningFired && bucket.LastValue == warningValue {
			w.dispatcher.Send(listID, warningMessage, warningSeverity)
		} else {
			w.logger.Debug("warning no longer valid", "event_subject", event.Subject, "warning_value", warningValue)
		}
		bucket.WarningFired = true
	})
}

// armResetTimer implements §4.5's reset half: unconditionally clear
// any armed reset timer, then rearm if reset > 0.
func (w *Watcher) armResetTimer(event *EventSpec, cond *ConditionSpec, bucket *EventStatus) {
	clearTimer(&bucket.ResetTimer)
	if cond.Reset <= 0 {
		return
	}
	defaultString := value.Stringify(event.Default)
	armTimer(&bucket.ResetTimer, time.Duration(cond.Reset)*time.Second, func() {
		w.mu.Lock()
		defer w.mu.Unlock()
		bucket.LastValue = defaultString
	})
}

// send interpolates cond.Message and hands it to the Dispatcher at
// cond.EffectiveSeverity, keyed by the watcher's own id as the
// notification list id (§4.6).
func (w *Watcher) send(cond *ConditionSpec, ctx exprlang.Context) {
	message := exprlang.Interpolate(cond.Message, ctx)
	w.dispatcher.Send(w.spec.ID, message, cond.EffectiveSeverity())
}
