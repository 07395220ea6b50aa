// Package testutil provides helpers for testing code built on routegen:
// canned schemas and a dispatcher that records what it was called with.
package testutil

import (
	"context"
	"net/http"
	"sync"

	"github.com/broady/routegen"
)

// DispatchedCall records one invocation of RecordingDispatcher.Endpoint.
type DispatchedCall struct {
	ID         string
	URL        string
	Attributes map[string]any
	Params     routegen.Params
	Options    routegen.Options
}

// RecordingDispatcher is a routegen.Dispatcher that records every call and
// returns a fixed result. Safe for concurrent use.
type RecordingDispatcher struct {
	mu    sync.Mutex
	calls []DispatchedCall

	// Result and Err are returned from every Endpoint call.
	Result any
	Err    error

	// Reject lists parameter keys ValidateParam refuses. Leave nil to
	// accept everything.
	Reject map[string]bool
}

// Endpoint implements routegen.Dispatcher.
func (d *RecordingDispatcher) Endpoint(_ context.Context, id string, attributes map[string]any, url string, params routegen.Params, options routegen.Options) (any, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.calls = append(d.calls, DispatchedCall{
		ID:         id,
		URL:        url,
		Attributes: attributes,
		Params:     params,
		Options:    options,
	})
	return d.Result, d.Err
}

// ValidateParam implements the optional validator side of a dispatcher.
func (d *RecordingDispatcher) ValidateParam(key string, _ any) bool {
	return !d.Reject[key]
}

// Calls returns a copy of the recorded calls.
func (d *RecordingDispatcher) Calls() []DispatchedCall {
	d.mu.Lock()
	defer d.mu.Unlock()
	calls := make([]DispatchedCall, len(d.calls))
	copy(calls, d.calls)
	return calls
}

// LastCall returns the most recent call, or false if none were made.
func (d *RecordingDispatcher) LastCall() (DispatchedCall, bool) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if len(d.calls) == 0 {
		return DispatchedCall{}, false
	}
	return d.calls[len(d.calls)-1], true
}

// ForumSchema builds the canonical test schema: a forum service with an
// inherited api_key attribute, a plain thread endpoint, and an admin branch
// that overrides the key.
func ForumSchema() *routegen.Schema {
	b := routegen.NewBuilder("https://svc.com")
	b.Attr("api_key", "K")
	b.Route("forum", func(b *routegen.Builder) {
		b.Endpoint("{thread_id}", "view_thread")
		b.Route("admin", func(b *routegen.Builder) {
			b.Attr("api_key", "ADMIN")
			b.EndpointMethod("{thread_id}", "delete_thread", http.MethodDelete)
		})
	})
	schema, err := b.Build()
	if err != nil {
		panic(err)
	}
	return schema
}
