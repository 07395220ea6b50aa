package routegen

import (
	"fmt"
	"os"
)

// EnvFunc produces the environment captured when an attribute was declared.
// It runs at resolution time, not declaration time, so the environment can
// reflect the binding context as it exists when the schema is materialized.
type EnvFunc func() (map[string]any, error)

// ValueFunc produces an attribute's value given its captured environment.
type ValueFunc func(env map[string]any) (any, error)

// Attribute is a key paired with a deferred value: an environment producer
// and a value producer, neither evaluated until resolution. Two attributes
// with the same key compare by key only for override purposes; the deferred
// computations are never merged, only replaced.
type Attribute struct {
	Key   string
	Env   EnvFunc
	Value ValueFunc
}

// emptyEnv is the environment for attributes that capture nothing.
func emptyEnv() (map[string]any, error) {
	return nil, nil
}

// Static returns an attribute whose value is already known. The value is
// still delivered through the deferred machinery so that resolution treats
// every attribute uniformly.
func Static(key string, value any) Attribute {
	return Attribute{
		Key: key,
		Env: emptyEnv,
		Value: func(map[string]any) (any, error) {
			return value, nil
		},
	}
}

// Lazy returns an attribute computed by fn at each resolution. Use this for
// values that depend on mutable external state: fn re-runs on every
// materialization call and is never cached.
func Lazy(key string, fn func() (any, error)) Attribute {
	return Attribute{
		Key: key,
		Env: emptyEnv,
		Value: func(map[string]any) (any, error) {
			return fn()
		},
	}
}

// FromEnvVar returns an attribute that reads the named OS environment
// variable at resolution time. Resolution fails if the variable is unset.
func FromEnvVar(key, name string) Attribute {
	return Lazy(key, func() (any, error) {
		v, ok := os.LookupEnv(name)
		if !ok {
			return nil, fmt.Errorf("environment variable %s is not set", name)
		}
		return v, nil
	})
}

// Deferred returns an attribute from an explicit environment/value pair.
// env runs first at resolution time; its result is passed to value.
func Deferred(key string, env EnvFunc, value ValueFunc) Attribute {
	if env == nil {
		env = emptyEnv
	}
	return Attribute{Key: key, Env: env, Value: value}
}
