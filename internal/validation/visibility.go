package validation

import (
	"encoding/json"
	"reflect"
	"regexp"
	"strconv"
	"strings"

	"github.com/tidwall/gjson"

	"github.com/RealZimboGuy/flowlint/internal/flow"
)

var (
	indexPlaceholder = regexp.MustCompile(`\[\$index\]`)
	bracketIndex     = regexp.MustCompile(`\[(\d+)\]`)
)

// scope is a set of input values that condition paths are resolved against.
// index is the current array item, or -1 outside of array items.
type scope struct {
	raw   []byte
	index int
}

func newScope(values map[string]any, index int) scope {
	raw, err := json.Marshal(values)
	if err != nil {
		raw = nil
	}
	return scope{raw: raw, index: index}
}

// scopes are searched in order; the first one holding the path wins.
type scopes []scope

func (sc scopes) resolve(key string) (any, bool) {
	for _, s := range sc {
		if v, ok := s.lookup(key); ok {
			return v, true
		}
	}
	return nil, false
}

func (s scope) lookup(key string) (any, bool) {
	if len(s.raw) == 0 {
		return nil, false
	}
	path := conditionPath(key, s.index)
	if path == "" {
		return nil, false
	}
	res := gjson.GetBytes(s.raw, path)
	if !res.Exists() {
		return nil, false
	}
	return res.Value(), true
}

// conditionPath turns "conditions[$index].type" into the gjson path
// "conditions.2.type". Paths using $index outside of an array item resolve
// to nothing.
func conditionPath(key string, index int) string {
	if indexPlaceholder.MatchString(key) {
		if index < 0 {
			return ""
		}
		key = indexPlaceholder.ReplaceAllString(key, "."+strconv.Itoa(index))
	}
	key = bracketIndex.ReplaceAllString(key, ".$1")
	return strings.TrimPrefix(key, ".")
}

// isVisible applies show (every condition must hold) and hide (any holding
// condition hides the parameter).
func isVisible(p flow.InputParam, sc scopes) bool {
	for key, want := range p.Show {
		ground, ok := sc.resolve(key)
		if !ok || !matches(ground, want) {
			return false
		}
	}
	for key, want := range p.Hide {
		if ground, ok := sc.resolve(key); ok && matches(ground, want) {
			return false
		}
	}
	return true
}

func isOptional(p flow.InputParam, sc scopes) bool {
	if p.Optional.Always {
		return true
	}
	if len(p.Optional.Conditions) == 0 {
		return false
	}
	for key, want := range p.Optional.Conditions {
		ground, ok := sc.resolve(key)
		if !ok || !matches(ground, want) {
			return false
		}
	}
	return true
}

func matches(ground, want any) bool {
	switch w := want.(type) {
	case []any:
		if list, ok := ground.([]any); ok {
			for _, g := range list {
				if containsScalar(w, g) {
					return true
				}
			}
			return false
		}
		return containsScalar(w, ground)
	case string:
		if list, ok := ground.([]any); ok {
			for _, g := range list {
				if matchesString(g, w) {
					return true
				}
			}
			return false
		}
		return matchesString(ground, w)
	case map[string]any:
		return reflect.DeepEqual(ground, w)
	case nil:
		return ground == nil
	default:
		g, gok := scalarKey(ground)
		e, eok := scalarKey(want)
		return gok && eok && g == e
	}
}

func matchesString(ground any, want string) bool {
	g, ok := scalarKey(ground)
	if !ok {
		return false
	}
	if g == want {
		return true
	}
	if looksLikePattern(want) {
		if re, err := regexp.Compile(want); err == nil {
			return re.MatchString(g)
		}
	}
	return false
}

func containsScalar(list []any, ground any) bool {
	g, ok := scalarKey(ground)
	if !ok {
		return false
	}
	for _, item := range list {
		if e, ok := scalarKey(item); ok && e == g {
			return true
		}
	}
	return false
}

// scalarKey normalizes strings, booleans and numbers so that "true" equals
// true and "1" equals 1.
func scalarKey(v any) (string, bool) {
	switch t := v.(type) {
	case string:
		return t, true
	case bool:
		return strconv.FormatBool(t), true
	case float64:
		return strconv.FormatFloat(t, 'f', -1, 64), true
	case int:
		return strconv.Itoa(t), true
	case int64:
		return strconv.FormatInt(t, 10), true
	default:
		return "", false
	}
}

// looksLikePattern keeps plain values such as "gpt-4.1" out of regex matching.
func looksLikePattern(s string) bool {
	return strings.ContainsAny(s, `^$*+?()[]{}|\`)
}

func isEmpty(v any) bool {
	switch t := v.(type) {
	case nil:
		return true
	case string:
		return strings.TrimSpace(t) == ""
	case []any:
		return len(t) == 0
	case map[string]any:
		return len(t) == 0
	default:
		return false
	}
}
