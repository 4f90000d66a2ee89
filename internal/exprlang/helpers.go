package exprlang

import (
	"math"
	"strconv"
	"strings"
	"unicode/utf8"

	"github.com/thornlake/wardenmq/internal/value"
)

// helperTable is the contract table of §4.1. An unknown helper is a
// no-op that returns its input unchanged.
var helperTable = map[string]func(any, []any) any{
	"upper":    func(v any, a []any) any { return strings.ToUpper(value.Stringify(v)) },
	"lower":    func(v any, a []any) any { return strings.ToLower(value.Stringify(v)) },
	"trim":     func(v any, a []any) any { return strings.TrimSpace(value.Stringify(v)) },
	"len":      func(v any, a []any) any { return float64(utf8.RuneCountInString(value.Stringify(v))) },
	"sub":      hSub,
	"slice":    hSlice,
	"cat":      hCat,
	"padStart": hPadStart,
	"padEnd":   hPadEnd,
	"round":    hRound,
	"toFixed":  hToFixed,
	"bytes":    hBytes,
	"pct":      hPct,
}

func applyHelper(name string, val any, args []any) any {
	fn, ok := helperTable[name]
	if !ok {
		return val
	}
	return fn(val, args)
}

func hSub(val any, args []any) any {
	s := []rune(value.Stringify(val))
	start := argInt(args, 0, 0)
	if start < 0 {
		start = 0
	}
	if start > len(s) {
		start = len(s)
	}
	length := argInt(args, 1, len(s)-start)
	if length < 0 {
		length = 0
	}
	end := start + length
	if end > len(s) {
		end = len(s)
	}
	return string(s[start:end])
}

func hSlice(val any, args []any) any {
	s := []rune(value.Stringify(val))
	start := argInt(args, 0, 0)
	end := argInt(args, 1, len(s))
	if start < 0 {
		start = 0
	}
	if start > len(s) {
		start = len(s)
	}
	if end < start {
		end = start
	}
	if end > len(s) {
		end = len(s)
	}
	return string(s[start:end])
}

func hCat(val any, args []any) any {
	return value.Stringify(val) + argString(args, 0, "")
}

func hPadStart(val any, args []any) any {
	return padTo(value.Stringify(val), argInt(args, 0, 0), argString(args, 1, " "), true)
}

func hPadEnd(val any, args []any) any {
	return padTo(value.Stringify(val), argInt(args, 0, 0), argString(args, 1, " "), false)
}

func padTo(s string, n int, fill string, atStart bool) string {
	if fill == "" {
		fill = " "
	}
	need := n - utf8.RuneCountInString(s)
	if need <= 0 {
		return s
	}
	fillRunes := []rune(strings.Repeat(fill, need/utf8.RuneCountInString(fill)+1))
	pad := string(fillRunes[:need])
	if atStart {
		return pad + s
	}
	return s + pad
}

func hRound(val any, args []any) any {
	f, ok := toFloat(val)
	if !ok {
		return val
	}
	mul := math.Pow(10, float64(argInt(args, 0, 0)))
	return math.Round(f*mul) / mul
}

func hToFixed(val any, args []any) any {
	f, ok := toFloat(val)
	if !ok {
		return val
	}
	return strconv.FormatFloat(f, 'f', argInt(args, 0, 0), 64)
}

// hPct appends "%" to val. With an explicit dec argument it rounds
// first via hToFixed; with none, it leaves val exactly as formatted
// by an earlier helper in the chain (e.g. a preceding toFixed), so
// "toFixed(1):pct()" yields one decimal rather than pct's own default.
func hPct(val any, args []any) any {
	if argAt(args, 0) == nil {
		return value.Stringify(val) + "%"
	}
	s := hToFixed(val, args)
	str, ok := s.(string)
	if !ok {
		return val
	}
	return str + "%"
}

// hBytes renders a byte count in binary units (1024 steps), 0
// decimals once the magnitude is >= 10 or the value is integral,
// otherwise 1 decimal (§4.1).
func hBytes(val any, args []any) any {
	f, ok := toFloat(val)
	if !ok {
		return val
	}
	units := []string{"B", "KiB", "MiB", "GiB", "TiB", "PiB"}
	neg := f < 0
	if neg {
		f = -f
	}
	unit := 0
	for f >= 1024 && unit < len(units)-1 {
		f /= 1024
		unit++
	}
	dec := 1
	if f >= 10 || f == math.Trunc(f) {
		dec = 0
	}
	s := strconv.FormatFloat(f, 'f', dec, 64)
	if neg {
		s = "-" + s
	}
	return s + " " + units[unit]
}

func argAt(args []any, idx int) any {
	if idx < 0 || idx >= len(args) {
		return nil
	}
	return args[idx]
}

func argFloat(args []any, idx int, def float64) float64 {
	v := argAt(args, idx)
	if v == nil {
		return def
	}
	f, ok := toFloat(v)
	if !ok {
		return def
	}
	return f
}

func argInt(args []any, idx int, def int) int {
	return int(argFloat(args, idx, float64(def)))
}

func argString(args []any, idx int, def string) string {
	v := argAt(args, idx)
	if v == nil {
		return def
	}
	return value.Stringify(v)
}

func toFloat(v any) (float64, bool) {
	if f, ok := v.(float64); ok {
		return f, true
	}
	s := value.Stringify(v)
	if s == "" {
		return 0, false
	}
	f, err := strconv.ParseFloat(s, 64)
	return f, err == nil
}
