package rules

import "github.com/thornlake/wardenmq/internal/exprlang"

// sourceKey computes the "<sourceKey>" component of §4.4's suppression
// key, in order of preference: the condition's own key template, then
// the event's stateKey template, then a "host:path" pair lifted from
// payload.tags, falling back to the bare subject.
func sourceKey(cond ConditionSpec, event *EventSpec, ctx exprlang.Context) string {
	if cond.Key != "" {
		return exprlang.Interpolate(cond.Key, ctx)
	}
	if event.StateKey != "" {
		return exprlang.Interpolate(event.StateKey, ctx)
	}
	host := exprlang.Lookup(ctx.Payload, "tags.host")
	path := exprlang.Lookup(ctx.Payload, "tags.path")
	if host != nil && path != nil {
		return exprlang.Interpolate("${tags.host}:${tags.path}", ctx)
	}
	return event.Subject
}
