package vectorstore

import (
	"fmt"
	"strings"
)

// Filter is the metadata filter language from spec §4.5: plain keys are
// equality, and a handful of reserved operator keys compose. A nil or empty
// Filter matches everything.
//
//	{field: value}                  equality
//	{field: {$gte: n}}               range (also $lte)
//	{field: {$contains: substring}}  substring match
//	{$and: [f1, f2, ...]}            conjunction
type Filter map[string]any

// Match reports whether metadata satisfies f. An unmatched filter is not an
// error; the caller (Search) simply returns an empty result set.
func (f Filter) Match(metadata map[string]any) bool {
	if len(f) == 0 {
		return true
	}
	for key, want := range f {
		if key == "$and" {
			clauses, ok := want.([]any)
			if !ok {
				return false
			}
			for _, c := range clauses {
				sub, ok := c.(Filter)
				if !ok {
					if m, ok := c.(map[string]any); ok {
						sub = Filter(m)
					} else {
						return false
					}
				}
				if !sub.Match(metadata) {
					return false
				}
			}
			continue
		}
		if !matchField(metadata[key], want) {
			return false
		}
	}
	return true
}

func matchField(got any, want any) bool {
	switch w := want.(type) {
	case map[string]any:
		return matchOps(got, w)
	case Filter:
		return matchOps(got, map[string]any(w))
	default:
		return fmt.Sprint(got) == fmt.Sprint(want)
	}
}

func matchOps(got any, ops map[string]any) bool {
	for op, arg := range ops {
		switch op {
		case "$gte":
			if !compareNumeric(got, arg, func(a, b float64) bool { return a >= b }) {
				return false
			}
		case "$lte":
			if !compareNumeric(got, arg, func(a, b float64) bool { return a <= b }) {
				return false
			}
		case "$contains":
			sub, ok1 := arg.(string)
			gotStr, ok2 := got.(string)
			if !ok1 || !ok2 || !strings.Contains(gotStr, sub) {
				return false
			}
		default:
			return false
		}
	}
	return true
}

func compareNumeric(got, want any, cmp func(a, b float64) bool) bool {
	a, ok1 := toFloat(got)
	b, ok2 := toFloat(want)
	if !ok1 || !ok2 {
		return false
	}
	return cmp(a, b)
}

func toFloat(v any) (float64, bool) {
	switch n := v.(type) {
	case float64:
		return n, true
	case float32:
		return float64(n), true
	case int:
		return float64(n), true
	case int64:
		return float64(n), true
	default:
		return 0, false
	}
}
