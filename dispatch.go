package routegen

import "context"

// Options carries per-call options passed through to the dispatch
// capability. The generated callables add one recognized key, "method",
// holding the endpoint's request method, unless the caller already set it.
type Options map[string]any

// Dispatcher is the externally supplied transport capability. The core
// never implements retries, timeouts, or serialization of this call; those
// are the dispatcher's responsibility. Whatever Endpoint returns — result
// or error — passes through the generated callables unchanged.
//
// A Dispatcher may additionally implement
//
//	ValidateParam(key string, value any) bool
//
// to act as the parameter validator. The optional method is picked up at
// configuration time by Compiled.WithDispatcher; an explicit
// Compiled.WithValidator takes precedence.
type Dispatcher interface {
	Endpoint(ctx context.Context, id string, attributes map[string]any, url string, params Params, options Options) (any, error)
}

// DispatcherFunc adapts a plain function to the Dispatcher interface.
type DispatcherFunc func(ctx context.Context, id string, attributes map[string]any, url string, params Params, options Options) (any, error)

func (f DispatcherFunc) Endpoint(ctx context.Context, id string, attributes map[string]any, url string, params Params, options Options) (any, error) {
	return f(ctx, id, attributes, url, params, options)
}

// ParamValidator checks one supplied parameter before dispatch. Returning
// false rejects the whole call with a validation error.
type ParamValidator func(key string, value any) bool

// paramValidator is the optional validation side of a Dispatcher.
type paramValidator interface {
	ValidateParam(key string, value any) bool
}

// AcceptAll is the default ParamValidator; it accepts every parameter.
func AcceptAll(string, any) bool { return true }
