package routegen

import (
	"fmt"
	"regexp"
	"sort"
)

// DefaultParameterPattern matches brace-delimited placeholders like
// {thread_id}. The first capture group must be the parameter name; an
// alternative pattern can be supplied with Compiled.WithParameterPattern.
var DefaultParameterPattern = regexp.MustCompile(`\{([^{}/]+)\}`)

// Params carries the values substituted into a path template, keyed by
// placeholder name.
type Params map[string]any

// RequiredParams returns the parameter names appearing in template, using
// the default placeholder pattern. Duplicates collapse; order is sorted so
// error messages and generated code stay stable, but callers should treat
// the result as a set.
func RequiredParams(template string) []string {
	return requiredParams(DefaultParameterPattern, template)
}

func requiredParams(pattern *regexp.Regexp, template string) []string {
	seen := make(map[string]bool)
	var names []string
	for _, m := range pattern.FindAllStringSubmatch(template, -1) {
		name := m[1]
		if !seen[name] {
			seen[name] = true
			names = append(names, name)
		}
	}
	sort.Strings(names)
	return names
}

// Interpolate replaces every placeholder in template with the canonical
// string form of the corresponding value in params, using the default
// placeholder pattern.
//
// A placeholder with no corresponding value is an interpolation error naming
// the placeholder — never a silently unexpanded result. Values are not
// escaped; callers needing path encoding must pre-encode them.
func Interpolate(template string, params Params) (string, error) {
	return interpolate(DefaultParameterPattern, template, params)
}

func interpolate(pattern *regexp.Regexp, template string, params Params) (string, error) {
	var missing string
	out := pattern.ReplaceAllStringFunc(template, func(match string) string {
		name := pattern.FindStringSubmatch(match)[1]
		v, ok := params[name]
		if !ok {
			if missing == "" {
				missing = name
			}
			return match
		}
		return fmt.Sprintf("%v", v)
	})
	if missing != "" {
		return "", Errorf(CodeInterpolation, "no value for parameter %q", missing).
			WithDetail("parameter", missing)
	}
	return out, nil
}
