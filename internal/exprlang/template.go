package exprlang

import (
	"strings"

	"github.com/thornlake/wardenmq/internal/value"
)

// Interpolate scans tmpl for ${...} occurrences (nested braces
// counted by depth), resolves each placeholder's SPEC and helper
// chain, and substitutes the stringified result. Objects resolve to
// their canonical JSON text and null/undefined resolve to the empty
// string, both via value.Stringify (§4.1).
func Interpolate(tmpl string, ctx Context) string {
	r := []rune(tmpl)
	n := len(r)
	var b strings.Builder
	i := 0
	for i < n {
		if r[i] == '$' && i+1 < n && r[i+1] == '{' {
			start := i + 2
			depth := 1
			j := start
			for j < n && depth > 0 {
				switch r[j] {
				case '{':
					depth++
				case '}':
					depth--
				}
				if depth == 0 {
					break
				}
				j++
			}
			if depth != 0 {
				b.WriteString(string(r[i:]))
				return b.String()
			}
			val := resolvePlaceholderChain(string(r[start:j]), ctx)
			b.WriteString(value.Stringify(val))
			i = j + 1
			continue
		}
		b.WriteRune(r[i])
		i++
	}
	return b.String()
}
