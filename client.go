package routegen

import (
	"context"
	"regexp"
	"sort"
)

// CallFunc is one generated client callable. It validates parameters,
// interpolates the bound path template, and hands the call to the
// configured dispatcher, returning the dispatcher's result unchanged.
type CallFunc func(ctx context.Context, params Params, options Options) (any, error)

// Compiled is a schema flattened once and paired with call-time
// configuration. Flattening is pure, so the definition table is computed at
// Compile and reused; attribute resolution is deferred to Materialize so
// each materialization sees current external state.
//
// The WithX methods configure dispatch and are meant to be chained before
// the first Materialize call:
//
//	c, err := routegen.Compile(schema)
//	client, err := c.WithDispatcher(d).WithValidator(v).Materialize()
type Compiled struct {
	schema       *Schema
	defs         []EndpointDefinition
	dispatcher   Dispatcher
	validator    ParamValidator
	pattern      *regexp.Regexp
	interceptors []DispatchInterceptor
}

// Compile flattens the schema and checks endpoint-id uniqueness. The
// returned Compiled holds no resolved attribute values; call Materialize to
// evaluate them.
func Compile(schema *Schema) (*Compiled, error) {
	defs, err := Flatten(schema)
	if err != nil {
		return nil, err
	}
	return &Compiled{
		schema:  schema,
		defs:    defs,
		pattern: DefaultParameterPattern,
	}, nil
}

// WithDispatcher sets the dispatch capability. If the dispatcher also
// implements ValidateParam and no validator was set explicitly, it becomes
// the parameter validator as well.
// It returns the Compiled for chaining.
func (c *Compiled) WithDispatcher(d Dispatcher) *Compiled {
	c.dispatcher = d
	if pv, ok := d.(paramValidator); ok && c.validator == nil {
		c.validator = pv.ValidateParam
	}
	return c
}

// WithValidator sets the per-parameter validator, overriding any validator
// contributed by the dispatcher. The default accepts every parameter.
func (c *Compiled) WithValidator(v ParamValidator) *Compiled {
	c.validator = v
	return c
}

// WithParameterPattern overrides the placeholder syntax. The pattern's
// first capture group must hold the parameter name.
func (c *Compiled) WithParameterPattern(pattern *regexp.Regexp) *Compiled {
	c.pattern = pattern
	return c
}

// WithInterceptor adds a dispatch interceptor. Interceptors execute in the
// order added, after validation and interpolation succeed.
func (c *Compiled) WithInterceptor(i DispatchInterceptor) *Compiled {
	c.interceptors = append(c.interceptors, i)
	return c
}

// Definitions returns the cached flattened table. The slice is a copy; the
// definitions themselves share the schema's deferred attributes.
func (c *Compiled) Definitions() []EndpointDefinition {
	defs := make([]EndpointDefinition, len(c.defs))
	copy(defs, c.defs)
	return defs
}

// Materialize resolves every deferred attribute and generates the client.
// Resolution runs fresh on every call — values that read mutable external
// state reflect that state as of this call. Callers needing determinism
// within one operation should materialize once and use that client for the
// operation's duration.
func (c *Compiled) Materialize() (*Client, error) {
	if c.dispatcher == nil {
		return nil, NewError(CodeAuthoring, "no dispatcher configured")
	}
	resolved, err := ResolveAll(c.defs)
	if err != nil {
		return nil, err
	}

	validator := c.validator
	if validator == nil {
		validator = AcceptAll
	}
	chain := chainInterceptors(c.interceptors)

	client := &Client{
		calls:     make(map[string]CallFunc, len(resolved)),
		endpoints: make(map[string]ResolvedEndpoint, len(resolved)),
	}
	for _, ep := range resolved {
		client.endpoints[ep.ID] = ep
		client.calls[ep.ID] = c.generate(ep, validator, chain)
	}
	return client, nil
}

// generate builds the callable for one resolved endpoint.
func (c *Compiled) generate(ep ResolvedEndpoint, validator ParamValidator, chain DispatchInterceptor) CallFunc {
	pattern := c.pattern
	dispatcher := c.dispatcher
	required := requiredParams(pattern, ep.PathTemplate)

	return func(ctx context.Context, params Params, options Options) (any, error) {
		// Required parameters must be present before anything dispatches.
		for _, name := range required {
			if v, ok := params[name]; !ok || v == nil {
				return nil, Errorf(CodeValidation, "missing required parameter %q", name).
					WithDetails(map[string]any{"endpoint": ep.ID, "parameter": name})
			}
		}

		// Per-parameter validation, short-circuiting on the first failure.
		// Sorted key order keeps the reported parameter deterministic.
		keys := make([]string, 0, len(params))
		for k := range params {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		for _, k := range keys {
			if !validator(k, params[k]) {
				return nil, Errorf(CodeValidation, "parameter %q rejected by validator", k).
					WithDetails(map[string]any{"endpoint": ep.ID, "parameter": k})
			}
		}

		url, err := interpolate(pattern, ep.PathTemplate, params)
		if err != nil {
			return nil, err
		}

		opts := make(Options, len(options)+1)
		for k, v := range options {
			opts[k] = v
		}
		if _, ok := opts["method"]; !ok {
			opts["method"] = ep.Method
		}

		info := &CallInfo{
			ID:         ep.ID,
			URL:        url,
			Attributes: ep.Attributes,
			Params:     params,
			Options:    opts,
		}
		if chain != nil {
			return chain(ctx, info, func(ctx context.Context, info *CallInfo) (any, error) {
				return dispatcher.Endpoint(ctx, info.ID, info.Attributes, info.URL, info.Params, info.Options)
			})
		}
		return dispatcher.Endpoint(ctx, info.ID, info.Attributes, info.URL, info.Params, info.Options)
	}
}

// Client is one materialized client: a callable per endpoint id over a
// fully resolved endpoint table. Safe for concurrent use.
type Client struct {
	calls     map[string]CallFunc
	endpoints map[string]ResolvedEndpoint
}

// Call invokes the endpoint's generated callable.
func (c *Client) Call(ctx context.Context, id string, params Params, options Options) (any, error) {
	fn, ok := c.calls[id]
	if !ok {
		return nil, Errorf(CodeValidation, "unknown endpoint %q", id)
	}
	return fn(ctx, params, options)
}

// Func returns the callable for an endpoint id.
func (c *Client) Func(id string) (CallFunc, bool) {
	fn, ok := c.calls[id]
	return fn, ok
}

// Endpoint returns the resolved definition for an endpoint id.
func (c *Client) Endpoint(id string) (ResolvedEndpoint, bool) {
	ep, ok := c.endpoints[id]
	return ep, ok
}

// Endpoints returns all endpoint ids in sorted order.
func (c *Client) Endpoints() []string {
	ids := make([]string, 0, len(c.calls))
	for id := range c.calls {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}
