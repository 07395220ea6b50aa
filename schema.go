package routegen

import "net/http"

// SchemaNode is one node in a schema tree: either a route segment (a pure
// grouping node) or an endpoint leaf. A node with EndpointID set is an
// endpoint; its children carry no routing semantics and are never traversed.
type SchemaNode struct {
	// Attributes in declaration order. Within one node, a later attribute
	// with the same key replaces an earlier one.
	Attributes []Attribute

	// Children maps path segments to child nodes.
	Children map[string]*SchemaNode

	// EndpointID names the generated callable. Empty for route nodes.
	EndpointID string

	// Method is the request method for endpoint nodes. Empty means GET.
	Method string
}

// IsEndpoint reports whether the node is an endpoint leaf.
func (n *SchemaNode) IsEndpoint() bool {
	return n.EndpointID != ""
}

// Schema is an immutable schema tree plus the base URL every endpoint path
// is joined onto. Build one with a Builder, LoadJSON, or by assembling nodes
// directly; once built it is safe to share across any number of readers.
type Schema struct {
	BaseURL string
	Root    *SchemaNode
}

// Builder assembles a Schema. It owns its own route stack, so independent
// builders never interfere; a single Builder is not safe for concurrent use
// and must finish (Build) before the resulting Schema is read.
//
// Example:
//
//	b := routegen.NewBuilder("https://svc.com")
//	b.Attr("api_key", "K")
//	b.Route("forum", func(b *routegen.Builder) {
//		b.Endpoint("{thread_id}", "view_thread")
//	})
//	schema, err := b.Build()
type Builder struct {
	baseURL string
	root    *SchemaNode
	stack   []*SchemaNode
	err     error
}

// NewBuilder starts a schema rooted at the given base URL.
func NewBuilder(baseURL string) *Builder {
	root := &SchemaNode{Children: make(map[string]*SchemaNode)}
	return &Builder{
		baseURL: baseURL,
		root:    root,
		stack:   []*SchemaNode{root},
	}
}

func (b *Builder) current() *SchemaNode {
	return b.stack[len(b.stack)-1]
}

func (b *Builder) fail(err *Error) {
	if b.err == nil {
		b.err = err
	}
}

// Attr declares a static attribute on the current node.
// It returns the builder for chaining.
func (b *Builder) Attr(key string, value any) *Builder {
	return b.AttrDeferred(key, Static(key, value))
}

// AttrFunc declares an attribute recomputed by fn at every materialization.
func (b *Builder) AttrFunc(key string, fn func() (any, error)) *Builder {
	return b.AttrDeferred(key, Lazy(key, fn))
}

// AttrEnvVar declares an attribute read from the named OS environment
// variable at each materialization.
func (b *Builder) AttrEnvVar(key, name string) *Builder {
	return b.AttrDeferred(key, FromEnvVar(key, name))
}

// AttrDeferred declares a fully deferred attribute on the current node.
// The key argument must match attr.Key; it is taken separately so call
// sites read like the other Attr variants.
func (b *Builder) AttrDeferred(key string, attr Attribute) *Builder {
	if b.err != nil {
		return b
	}
	if key == "" {
		b.fail(NewError(CodeAuthoring, "attribute key must not be empty"))
		return b
	}
	attr.Key = key
	cur := b.current()
	cur.Attributes = append(cur.Attributes, attr)
	return b
}

// Route adds a grouping node under the current node and runs fn with the
// builder pushed into it. Attributes declared inside fn are inherited by
// everything beneath the route.
func (b *Builder) Route(segment string, fn func(*Builder)) *Builder {
	if b.err != nil {
		return b
	}
	child, ok := b.child(segment)
	if !ok {
		return b
	}
	if child.IsEndpoint() {
		b.fail(Errorf(CodeAuthoring, "segment %q is already endpoint %q", segment, child.EndpointID))
		return b
	}
	b.stack = append(b.stack, child)
	if fn != nil {
		fn(b)
	}
	b.stack = b.stack[:len(b.stack)-1]
	return b
}

// Endpoint adds an endpoint leaf under the current node. The method
// defaults to GET; use EndpointMethod to override.
func (b *Builder) Endpoint(segment, id string) *Builder {
	return b.EndpointMethod(segment, id, http.MethodGet)
}

// EndpointMethod adds an endpoint leaf with an explicit request method.
func (b *Builder) EndpointMethod(segment, id, method string) *Builder {
	if b.err != nil {
		return b
	}
	if id == "" {
		b.fail(Errorf(CodeAuthoring, "endpoint at segment %q has no id", segment))
		return b
	}
	child, ok := b.child(segment)
	if !ok {
		return b
	}
	if child.IsEndpoint() {
		b.fail(Errorf(CodeAuthoring, "segment %q is already endpoint %q", segment, child.EndpointID))
		return b
	}
	if len(child.Children) > 0 {
		b.fail(Errorf(CodeAuthoring, "endpoint %q declared over existing routes at segment %q", id, segment))
		return b
	}
	child.EndpointID = id
	child.Method = method
	return b
}

func (b *Builder) child(segment string) (*SchemaNode, bool) {
	if segment == "" {
		b.fail(NewError(CodeAuthoring, "path segment must not be empty"))
		return nil, false
	}
	cur := b.current()
	if cur.IsEndpoint() {
		b.fail(Errorf(CodeAuthoring, "cannot add segment %q beneath endpoint %q", segment, cur.EndpointID))
		return nil, false
	}
	if cur.Children == nil {
		cur.Children = make(map[string]*SchemaNode)
	}
	child, ok := cur.Children[segment]
	if !ok {
		child = &SchemaNode{Children: make(map[string]*SchemaNode)}
		cur.Children[segment] = child
	}
	return child, true
}

// Build finalizes the schema. It returns the first authoring error
// encountered while building, if any.
func (b *Builder) Build() (*Schema, error) {
	if b.err != nil {
		return nil, b.err
	}
	return &Schema{BaseURL: b.baseURL, Root: b.root}, nil
}
