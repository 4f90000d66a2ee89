package exprlang

import "strings"

// resolvePlaceholderChain resolves the full body of a ${...}
// placeholder: a SPEC followed by an optional colon-separated helper
// chain (§4.1).
func resolvePlaceholderChain(raw string, ctx Context) any {
	segments := splitTopLevel(raw, ':')
	if len(segments) == 0 {
		return nil
	}
	val := resolvePlaceholder(strings.TrimSpace(segments[0]), ctx)
	for _, seg := range segments[1:] {
		name, args := parseHelperCall(strings.TrimSpace(seg))
		val = applyHelper(name, val, args)
	}
	return val
}

// resolvePlaceholder resolves the SPEC portion of a placeholder:
// "store.<watcherId>.<subject>", the literal "value", or a dotted
// path into the current payload.
func resolvePlaceholder(spec string, ctx Context) any {
	switch {
	case spec == "value":
		return ctx.Value
	case strings.HasPrefix(spec, "store."):
		rest := strings.TrimPrefix(spec, "store.")
		parts := strings.SplitN(rest, ".", 2)
		if len(parts) != 2 || ctx.Store == nil {
			return nil
		}
		v, _ := ctx.Store.Get(parts[0], parts[1])
		return v
	default:
		return dottedLookup(ctx.Payload, spec)
	}
}

// Lookup performs the same dotted-path walk Interpolate and Evaluate
// use internally, exported so the watcher pipeline can extract an
// event's subject value from a decoded payload with identical
// semantics (§4.2a).
func Lookup(obj any, path string) any {
	return dottedLookup(obj, path)
}

// dottedLookup walks obj one path segment at a time. A missing
// segment, or descending into a non-object, yields nil (undefined),
// per §4.1's dotted-path lookup rule.
func dottedLookup(obj any, path string) any {
	if path == "" {
		return obj
	}
	cur := obj
	for _, seg := range strings.Split(path, ".") {
		m, ok := cur.(map[string]any)
		if !ok {
			return nil
		}
		v, present := m[seg]
		if !present {
			return nil
		}
		cur = v
	}
	return cur
}

// parseHelperCall splits a chain segment like "toFixed(1)" into its
// name and parsed argument list. A segment with no parens (e.g.
// "upper") has no arguments.
func parseHelperCall(seg string) (name string, args []any) {
	idx := strings.IndexByte(seg, '(')
	if idx < 0 {
		return seg, nil
	}
	if !strings.HasSuffix(seg, ")") {
		return seg[:idx], nil
	}
	name = seg[:idx]
	argsStr := seg[idx+1 : len(seg)-1]
	if strings.TrimSpace(argsStr) == "" {
		return name, nil
	}
	for _, a := range splitTopLevel(argsStr, ',') {
		args = append(args, parseArgValue(strings.TrimSpace(a)))
	}
	return name, args
}

// parseArgValue parses one helper-call argument per §4.1: a quoted
// string, true/false, a decimal number, or a bare word taken as a
// string literal. An empty argument means "missing", letting the
// helper fall back to its own default.
func parseArgValue(s string) any {
	if s == "" {
		return nil
	}
	if len(s) >= 2 && (s[0] == '"' || s[0] == '\'') && s[len(s)-1] == s[0] {
		return s[1 : len(s)-1]
	}
	switch strings.ToLower(s) {
	case "true":
		return true
	case "false":
		return false
	}
	if f, err := parseFloatLiteral(s); err == nil {
		return f
	}
	return s
}
