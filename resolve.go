package routegen

// ResolvedEndpoint is an EndpointDefinition with every deferred attribute
// evaluated. No deferred computations remain.
type ResolvedEndpoint struct {
	ID           string
	PathTemplate string
	Method       string
	Attributes   map[string]any
}

// Resolve evaluates every deferred attribute in def: the captured
// environment first, then the value within that environment. Resolution is
// deliberately uncached — deferred values may read mutable external state,
// and each materialization should see the current state, not the state at
// tree-build time.
//
// If either stage of any attribute fails, Resolve returns a resolution
// error tagged with the endpoint id and attribute key. No attribute key is
// invented or dropped: the resolved mapping has exactly the keys of
// def.Attributes.
func Resolve(def EndpointDefinition) (ResolvedEndpoint, error) {
	resolved := ResolvedEndpoint{
		ID:           def.ID,
		PathTemplate: def.PathTemplate,
		Method:       def.Method,
		Attributes:   make(map[string]any, len(def.Attributes)),
	}
	for key, attr := range def.Attributes {
		env := map[string]any(nil)
		if attr.Env != nil {
			var err error
			env, err = attr.Env()
			if err != nil {
				return ResolvedEndpoint{}, resolutionError(def.ID, key, "environment", err)
			}
		}
		if attr.Value == nil {
			return ResolvedEndpoint{}, Errorf(CodeResolution, "attribute %q on endpoint %q has no value function", key, def.ID).
				WithDetails(map[string]any{"endpoint": def.ID, "attribute": key})
		}
		v, err := attr.Value(env)
		if err != nil {
			return ResolvedEndpoint{}, resolutionError(def.ID, key, "value", err)
		}
		resolved.Attributes[key] = v
	}
	return resolved, nil
}

// ResolveAll resolves every definition, failing the whole call on the first
// resolution error rather than silently omitting a broken endpoint.
func ResolveAll(defs []EndpointDefinition) ([]ResolvedEndpoint, error) {
	resolved := make([]ResolvedEndpoint, 0, len(defs))
	for _, def := range defs {
		r, err := Resolve(def)
		if err != nil {
			return nil, err
		}
		resolved = append(resolved, r)
	}
	return resolved, nil
}

func resolutionError(id, key, stage string, err error) *Error {
	return Errorf(CodeResolution, "endpoint %q attribute %q: %s evaluation failed: %v", id, key, stage, err).
		WithDetails(map[string]any{"endpoint": id, "attribute": key, "stage": stage})
}
