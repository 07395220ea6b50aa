package routegen

import (
	"encoding/json"
	"fmt"
	"io"
)

// LoadJSON reads a declarative schema tree, an authoring surface for hosts
// that prefer a file over the Builder API:
//
//	{
//	  "baseURL": "https://svc.com",
//	  "attributes": {
//	    "api_key": {"$env": "SVC_API_KEY"},
//	    "version": "v2"
//	  },
//	  "routes": {
//	    "forum": {
//	      "endpoints": {
//	        "{thread_id}": {"id": "view_thread"}
//	      }
//	    }
//	  }
//	}
//
// Plain attribute values load as static attributes. The {"$env": NAME} form
// loads as a deferred attribute that reads the named OS environment variable
// at each materialization. Endpoint methods default to GET.
func LoadJSON(r io.Reader) (*Schema, error) {
	var doc jsonDoc
	dec := json.NewDecoder(r)
	dec.DisallowUnknownFields()
	if err := dec.Decode(&doc); err != nil {
		return nil, Errorf(CodeAuthoring, "invalid schema document: %v", err)
	}
	if doc.BaseURL == "" {
		return nil, NewError(CodeAuthoring, "schema document has no baseURL")
	}
	root, err := doc.jsonNode.toNode("")
	if err != nil {
		return nil, err
	}
	return &Schema{BaseURL: doc.BaseURL, Root: root}, nil
}

type jsonDoc struct {
	BaseURL string `json:"baseURL"`
	jsonNode
}

type jsonNode struct {
	Attributes map[string]json.RawMessage `json:"attributes"`
	Routes     map[string]*jsonNode       `json:"routes"`
	Endpoints  map[string]jsonEndpoint    `json:"endpoints"`
}

type jsonEndpoint struct {
	ID     string `json:"id"`
	Method string `json:"method"`
}

func (jn *jsonNode) toNode(at string) (*SchemaNode, error) {
	node := &SchemaNode{Children: make(map[string]*SchemaNode)}

	for key, raw := range jn.Attributes {
		attr, err := loadAttribute(key, raw)
		if err != nil {
			return nil, Errorf(CodeAuthoring, "attribute %q at %q: %v", key, at, err)
		}
		node.Attributes = append(node.Attributes, attr)
	}

	for seg, child := range jn.Routes {
		if seg == "" {
			return nil, Errorf(CodeAuthoring, "empty route segment at %q", at)
		}
		cn, err := child.toNode(joinPath(at, seg))
		if err != nil {
			return nil, err
		}
		node.Children[seg] = cn
	}

	for seg, ep := range jn.Endpoints {
		if seg == "" {
			return nil, Errorf(CodeAuthoring, "empty endpoint segment at %q", at)
		}
		if _, exists := node.Children[seg]; exists {
			return nil, Errorf(CodeAuthoring, "segment %q at %q is both a route and an endpoint", seg, at)
		}
		if ep.ID == "" {
			return nil, Errorf(CodeAuthoring, "endpoint at segment %q under %q has no id", seg, at)
		}
		node.Children[seg] = &SchemaNode{
			EndpointID: ep.ID,
			Method:     ep.Method,
		}
	}

	return node, nil
}

// envRef is the {"$env": NAME} attribute form.
type envRef struct {
	Env *string `json:"$env"`
}

func loadAttribute(key string, raw json.RawMessage) (Attribute, error) {
	var ref envRef
	if err := json.Unmarshal(raw, &ref); err == nil && ref.Env != nil {
		if *ref.Env == "" {
			return Attribute{}, fmt.Errorf("$env name must not be empty")
		}
		return FromEnvVar(key, *ref.Env), nil
	}
	var value any
	if err := json.Unmarshal(raw, &value); err != nil {
		return Attribute{}, err
	}
	return Static(key, value), nil
}
