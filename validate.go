package routegen

import (
	"github.com/go-playground/validator/v10"
)

// RulesValidator builds a ParamValidator from per-key validation tags, e.g.
//
//	routegen.RulesValidator(map[string]string{
//		"thread_id": "required,numeric",
//		"slug":      "alphanum,max=64",
//	})
//
// Tags use go-playground/validator syntax. Parameters with no rule are
// accepted.
func RulesValidator(rules map[string]string) ParamValidator {
	v := validator.New()
	return func(key string, value any) bool {
		tag, ok := rules[key]
		if !ok || tag == "" {
			return true
		}
		return v.Var(value, tag) == nil
	}
}
