package routegen

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"regexp"
	"sync"
	"testing"
)

// recordingDispatcher is the in-package twin of testutil.RecordingDispatcher,
// kept local to avoid an import cycle.
type recordingDispatcher struct {
	mu     sync.Mutex
	calls  []string // interpolated urls
	last   map[string]any
	result any
	err    error
	reject map[string]bool
}

func (d *recordingDispatcher) Endpoint(_ context.Context, id string, attributes map[string]any, url string, params Params, options Options) (any, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.calls = append(d.calls, url)
	d.last = map[string]any{
		"id":         id,
		"attributes": attributes,
		"url":        url,
		"params":     params,
		"options":    options,
	}
	return d.result, d.err
}

func (d *recordingDispatcher) ValidateParam(key string, _ any) bool {
	return !d.reject[key]
}

func (d *recordingDispatcher) callCount() int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return len(d.calls)
}

func forumSchema(t *testing.T) *Schema {
	t.Helper()
	b := NewBuilder("https://svc.com")
	b.Attr("api_key", "K")
	b.Route("forum", func(b *Builder) {
		b.Endpoint("{thread_id}", "view_thread")
	})
	return mustBuild(t, b)
}

func TestEndToEndViewThread(t *testing.T) {
	d := &recordingDispatcher{result: "dispatched"}

	compiled, err := Compile(forumSchema(t))
	if err != nil {
		t.Fatalf("compile: %v", err)
	}
	client, err := compiled.WithDispatcher(d).Materialize()
	if err != nil {
		t.Fatalf("materialize: %v", err)
	}

	res, err := client.Call(context.Background(), "view_thread", Params{"thread_id": 7}, nil)
	if err != nil {
		t.Fatalf("call: %v", err)
	}
	if res != "dispatched" {
		t.Errorf("dispatch result must pass through unchanged, got %v", res)
	}
	if d.last["url"] != "https://svc.com/forum/7" {
		t.Errorf("expected interpolated url, got %v", d.last["url"])
	}
	if d.last["id"] != "view_thread" {
		t.Errorf("expected endpoint id, got %v", d.last["id"])
	}
	attrs := d.last["attributes"].(map[string]any)
	if attrs["api_key"] != "K" {
		t.Errorf("expected inherited api_key=K, got %v", attrs)
	}
	opts := d.last["options"].(Options)
	if opts["method"] != http.MethodGet {
		t.Errorf("expected method option from definition, got %v", opts["method"])
	}
}

func TestCallMissingParamNoDispatch(t *testing.T) {
	d := &recordingDispatcher{}

	compiled, err := Compile(forumSchema(t))
	if err != nil {
		t.Fatalf("compile: %v", err)
	}
	client, err := compiled.WithDispatcher(d).Materialize()
	if err != nil {
		t.Fatalf("materialize: %v", err)
	}

	_, err = client.Call(context.Background(), "view_thread", Params{}, nil)
	if err == nil {
		t.Fatal("expected validation error")
	}
	var e *Error
	if !errors.As(err, &e) || e.Code != CodeValidation {
		t.Fatalf("expected validation error, got %v", err)
	}
	if e.Details["parameter"] != "thread_id" {
		t.Errorf("error must name the missing parameter, got %v", e.Details)
	}
	if d.callCount() != 0 {
		t.Error("dispatch must not run when validation fails")
	}
}

func TestCallNilParamCountsAsAbsent(t *testing.T) {
	d := &recordingDispatcher{}
	client := materialize(t, forumSchema(t), d)

	if _, err := client.Call(context.Background(), "view_thread", Params{"thread_id": nil}, nil); err == nil {
		t.Fatal("expected validation error for nil parameter")
	}
	if d.callCount() != 0 {
		t.Error("dispatch must not run")
	}
}

func materialize(t *testing.T, schema *Schema, d Dispatcher) *Client {
	t.Helper()
	compiled, err := Compile(schema)
	if err != nil {
		t.Fatalf("compile: %v", err)
	}
	client, err := compiled.WithDispatcher(d).Materialize()
	if err != nil {
		t.Fatalf("materialize: %v", err)
	}
	return client
}

func TestValidatorRejectsNoDispatch(t *testing.T) {
	d := &recordingDispatcher{}

	compiled, err := Compile(forumSchema(t))
	if err != nil {
		t.Fatalf("compile: %v", err)
	}
	client, err := compiled.
		WithDispatcher(d).
		WithValidator(func(key string, value any) bool { return key != "thread_id" }).
		Materialize()
	if err != nil {
		t.Fatalf("materialize: %v", err)
	}

	_, err = client.Call(context.Background(), "view_thread", Params{"thread_id": 7}, nil)
	var e *Error
	if !errors.As(err, &e) || e.Code != CodeValidation {
		t.Fatalf("expected validation error, got %v", err)
	}
	if d.callCount() != 0 {
		t.Error("dispatch must not run when the validator rejects")
	}
}

func TestValidatorShortCircuits(t *testing.T) {
	var checked []string
	d := &recordingDispatcher{}
	b := NewBuilder("https://svc.com")
	b.Endpoint("{a}/{b}/{c}", "multi")
	schema := mustBuild(t, b)

	compiled, err := Compile(schema)
	if err != nil {
		t.Fatalf("compile: %v", err)
	}
	client, err := compiled.
		WithDispatcher(d).
		WithValidator(func(key string, value any) bool {
			checked = append(checked, key)
			return key != "b"
		}).
		Materialize()
	if err != nil {
		t.Fatalf("materialize: %v", err)
	}

	_, err = client.Call(context.Background(), "multi", Params{"a": 1, "b": 2, "c": 3}, nil)
	if err == nil {
		t.Fatal("expected validation error")
	}
	// Sorted key order: a passes, b fails, c is never checked.
	if len(checked) != 2 || checked[0] != "a" || checked[1] != "b" {
		t.Errorf("expected short-circuit after b, checked %v", checked)
	}
}

func TestDispatcherValidatorPickedUp(t *testing.T) {
	d := &recordingDispatcher{reject: map[string]bool{"thread_id": true}}
	client := materialize(t, forumSchema(t), d)

	if _, err := client.Call(context.Background(), "view_thread", Params{"thread_id": 7}, nil); err == nil {
		t.Fatal("expected the dispatcher's ValidateParam to reject")
	}
	if d.callCount() != 0 {
		t.Error("dispatch must not run")
	}
}

func TestExplicitValidatorBeatsDispatcher(t *testing.T) {
	d := &recordingDispatcher{reject: map[string]bool{"thread_id": true}}

	compiled, err := Compile(forumSchema(t))
	if err != nil {
		t.Fatalf("compile: %v", err)
	}
	client, err := compiled.
		WithValidator(AcceptAll).
		WithDispatcher(d).
		Materialize()
	if err != nil {
		t.Fatalf("materialize: %v", err)
	}

	if _, err := client.Call(context.Background(), "view_thread", Params{"thread_id": 7}, nil); err != nil {
		t.Fatalf("explicit validator must take precedence, got %v", err)
	}
}

func TestDispatchErrorPassesThrough(t *testing.T) {
	want := fmt.Errorf("transport exploded")
	d := &recordingDispatcher{err: want}
	client := materialize(t, forumSchema(t), d)

	_, err := client.Call(context.Background(), "view_thread", Params{"thread_id": 7}, nil)
	if !errors.Is(err, want) {
		t.Errorf("dispatch error must pass through unchanged, got %v", err)
	}
}

func TestUnknownEndpoint(t *testing.T) {
	client := materialize(t, forumSchema(t), &recordingDispatcher{})
	if _, err := client.Call(context.Background(), "nope", nil, nil); err == nil {
		t.Fatal("expected error for unknown endpoint")
	}
	if _, ok := client.Func("nope"); ok {
		t.Error("Func must report unknown endpoints")
	}
}

func TestMaterializeRequiresDispatcher(t *testing.T) {
	compiled, err := Compile(forumSchema(t))
	if err != nil {
		t.Fatalf("compile: %v", err)
	}
	if _, err := compiled.Materialize(); err == nil {
		t.Fatal("expected error without a dispatcher")
	}
}

func TestMaterializeResolvesFresh(t *testing.T) {
	t.Setenv("ROUTEGEN_TEST_KEY", "before")

	b := NewBuilder("https://svc.com")
	b.AttrEnvVar("api_key", "ROUTEGEN_TEST_KEY")
	b.Endpoint("x", "ep")

	d := &recordingDispatcher{}
	compiled, err := Compile(mustBuild(t, b))
	if err != nil {
		t.Fatalf("compile: %v", err)
	}
	compiled.WithDispatcher(d)

	first, err := compiled.Materialize()
	if err != nil {
		t.Fatalf("materialize: %v", err)
	}
	t.Setenv("ROUTEGEN_TEST_KEY", "after")
	second, err := compiled.Materialize()
	if err != nil {
		t.Fatalf("materialize: %v", err)
	}

	ep1, _ := first.Endpoint("ep")
	ep2, _ := second.Endpoint("ep")
	if ep1.Attributes["api_key"] != "before" || ep2.Attributes["api_key"] != "after" {
		t.Errorf("each materialization must see current external state, got %v then %v",
			ep1.Attributes["api_key"], ep2.Attributes["api_key"])
	}
}

func TestMaterializeResolutionFailureAborts(t *testing.T) {
	b := NewBuilder("https://svc.com")
	b.AttrEnvVar("api_key", "ROUTEGEN_TEST_DEFINITELY_UNSET")
	b.Endpoint("x", "ep")

	compiled, err := Compile(mustBuild(t, b))
	if err != nil {
		t.Fatalf("compile: %v", err)
	}
	_, err = compiled.WithDispatcher(&recordingDispatcher{}).Materialize()
	var e *Error
	if !errors.As(err, &e) || e.Code != CodeResolution {
		t.Fatalf("expected resolution error, got %v", err)
	}
}

func TestParameterPatternOverride(t *testing.T) {
	b := NewBuilder("https://svc.com")
	b.Route("forum", func(b *Builder) {
		b.Endpoint(":thread_id", "view_thread")
	})

	d := &recordingDispatcher{}
	compiled, err := Compile(mustBuild(t, b))
	if err != nil {
		t.Fatalf("compile: %v", err)
	}
	client, err := compiled.
		WithDispatcher(d).
		WithParameterPattern(regexp.MustCompile(`:([a-z_]+)`)).
		Materialize()
	if err != nil {
		t.Fatalf("materialize: %v", err)
	}

	if _, err := client.Call(context.Background(), "view_thread", Params{"thread_id": 7}, nil); err != nil {
		t.Fatalf("call: %v", err)
	}
	if d.last["url"] != "https://svc.com/forum/7" {
		t.Errorf("expected colon placeholder interpolated, got %v", d.last["url"])
	}
}

func TestInterceptorsRunInOrder(t *testing.T) {
	var order []string
	tag := func(name string) DispatchInterceptor {
		return func(ctx context.Context, info *CallInfo, handler DispatchHandler) (any, error) {
			order = append(order, name+"-before")
			res, err := handler(ctx, info)
			order = append(order, name+"-after")
			return res, err
		}
	}

	d := &recordingDispatcher{result: "ok"}
	compiled, err := Compile(forumSchema(t))
	if err != nil {
		t.Fatalf("compile: %v", err)
	}
	client, err := compiled.
		WithDispatcher(d).
		WithInterceptor(tag("outer")).
		WithInterceptor(tag("inner")).
		Materialize()
	if err != nil {
		t.Fatalf("materialize: %v", err)
	}

	if _, err := client.Call(context.Background(), "view_thread", Params{"thread_id": 7}, nil); err != nil {
		t.Fatalf("call: %v", err)
	}
	want := []string{"outer-before", "inner-before", "inner-after", "outer-after"}
	for i, w := range want {
		if i >= len(order) || order[i] != w {
			t.Fatalf("expected order %v, got %v", want, order)
		}
	}
}

func TestInterceptorShortCircuit(t *testing.T) {
	d := &recordingDispatcher{}
	compiled, err := Compile(forumSchema(t))
	if err != nil {
		t.Fatalf("compile: %v", err)
	}
	client, err := compiled.
		WithDispatcher(d).
		WithInterceptor(func(ctx context.Context, info *CallInfo, handler DispatchHandler) (any, error) {
			return "cached", nil
		}).
		Materialize()
	if err != nil {
		t.Fatalf("materialize: %v", err)
	}

	res, err := client.Call(context.Background(), "view_thread", Params{"thread_id": 7}, nil)
	if err != nil || res != "cached" {
		t.Fatalf("expected short-circuit result, got %v, %v", res, err)
	}
	if d.callCount() != 0 {
		t.Error("dispatcher must not run when an interceptor short-circuits")
	}
}

func TestClientEndpoints(t *testing.T) {
	b := NewBuilder("https://svc.com")
	b.Endpoint("b", "bee")
	b.Endpoint("a", "ay")
	client := materialize(t, mustBuild(t, b), &recordingDispatcher{})

	ids := client.Endpoints()
	if len(ids) != 2 || ids[0] != "ay" || ids[1] != "bee" {
		t.Errorf("expected sorted ids [ay bee], got %v", ids)
	}
}

func TestCompiledDefinitionsCached(t *testing.T) {
	compiled, err := Compile(forumSchema(t))
	if err != nil {
		t.Fatalf("compile: %v", err)
	}
	defs := compiled.Definitions()
	if len(defs) != 1 {
		t.Fatalf("expected 1 definition, got %d", len(defs))
	}
	defs[0].ID = "mutated"
	if compiled.Definitions()[0].ID != "view_thread" {
		t.Error("Definitions must return a copy")
	}
}
