package routegen

import (
	"net/http"
	"sort"
	"strings"
)

// EndpointDefinition is one flattened endpoint: the full path template, the
// request method, and every attribute visible at the endpoint after
// inheritance, still deferred. Produced by Flatten, consumed by Resolve.
type EndpointDefinition struct {
	ID           string
	PathTemplate string
	Method       string

	// Attributes maps keys to deferred values. Ancestor attributes are
	// visible unless shadowed by a same-keyed attribute closer to the leaf.
	Attributes map[string]Attribute
}

// Flatten walks the schema tree depth-first and emits one EndpointDefinition
// per endpoint leaf. Attributes merge with closest-to-leaf winning; paths
// join the base URL with every ancestor segment using single separators.
//
// Flattening is pure: the same schema always yields the same set of
// definitions, so the result may be computed once and cached (Compile does
// this). The relative order of endpoints from different branches is
// deterministic but unspecified; do not depend on it.
//
// A duplicate endpoint id anywhere in the tree is an authoring error: the
// generated client keys callables by id, and a silent replacement would drop
// an endpoint with no way to notice until a call goes to the wrong path.
func Flatten(schema *Schema) ([]EndpointDefinition, error) {
	if schema == nil || schema.Root == nil {
		return nil, NewError(CodeAuthoring, "schema has no root node")
	}
	var defs []EndpointDefinition
	seen := make(map[string]string) // id -> path, for duplicate reporting
	err := flattenNode(schema.Root, schema.BaseURL, nil, &defs, seen)
	if err != nil {
		return nil, err
	}
	return defs, nil
}

func flattenNode(n *SchemaNode, path string, inherited map[string]Attribute, defs *[]EndpointDefinition, seen map[string]string) error {
	merged := mergeAttributes(inherited, n.Attributes)

	if n.IsEndpoint() {
		if prev, dup := seen[n.EndpointID]; dup {
			return Errorf(CodeAuthoring, "duplicate endpoint id %q", n.EndpointID).
				WithDetails(map[string]any{"path": path, "previous_path": prev})
		}
		seen[n.EndpointID] = path

		method := n.Method
		if method == "" {
			method = http.MethodGet
		}
		*defs = append(*defs, EndpointDefinition{
			ID:           n.EndpointID,
			PathTemplate: path,
			Method:       method,
			Attributes:   merged,
		})
		// Children of an endpoint carry no routing semantics.
		return nil
	}

	// Sorted segment order keeps flattening deterministic across runs.
	segments := make([]string, 0, len(n.Children))
	for seg := range n.Children {
		segments = append(segments, seg)
	}
	sort.Strings(segments)

	for _, seg := range segments {
		if err := flattenNode(n.Children[seg], joinPath(path, seg), merged, defs, seen); err != nil {
			return err
		}
	}
	return nil
}

// mergeAttributes layers a node's own attributes over the inherited mapping.
// Node-local entries replace same-keyed inherited ones; within the node,
// declaration order decides (last write wins). The inherited map is never
// mutated so sibling branches stay independent.
func mergeAttributes(inherited map[string]Attribute, own []Attribute) map[string]Attribute {
	merged := make(map[string]Attribute, len(inherited)+len(own))
	for k, a := range inherited {
		merged[k] = a
	}
	for _, a := range own {
		merged[a.Key] = a
	}
	return merged
}

// joinPath joins path parts with exactly one separator between them,
// regardless of leading or trailing separators on the inputs.
func joinPath(parts ...string) string {
	var b strings.Builder
	for _, p := range parts {
		p = strings.Trim(p, "/")
		if p == "" {
			continue
		}
		if b.Len() > 0 {
			b.WriteString("/")
		}
		b.WriteString(p)
	}
	return b.String()
}
