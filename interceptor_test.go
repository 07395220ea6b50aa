package routegen

import (
	"bytes"
	"context"
	"fmt"
	"log/slog"
	"strings"
	"testing"
)

func TestLoggingInterceptor(t *testing.T) {
	var buf bytes.Buffer
	logger := slog.New(slog.NewTextHandler(&buf, nil))

	d := &recordingDispatcher{result: "ok"}
	compiled, err := Compile(forumSchema(t))
	if err != nil {
		t.Fatalf("compile: %v", err)
	}
	client, err := compiled.
		WithDispatcher(d).
		WithInterceptor(LoggingInterceptor(logger)).
		Materialize()
	if err != nil {
		t.Fatalf("materialize: %v", err)
	}

	if _, err := client.Call(context.Background(), "view_thread", Params{"thread_id": 7}, nil); err != nil {
		t.Fatalf("call: %v", err)
	}

	out := buf.String()
	if !strings.Contains(out, "dispatch started") || !strings.Contains(out, "dispatch completed") {
		t.Errorf("expected start and completion logs, got:\n%s", out)
	}
	if !strings.Contains(out, "endpoint=view_thread") {
		t.Errorf("expected endpoint id in logs, got:\n%s", out)
	}
	if !strings.Contains(out, "url=https://svc.com/forum/7") {
		t.Errorf("expected interpolated url in logs, got:\n%s", out)
	}
}

func TestLoggingInterceptorError(t *testing.T) {
	var buf bytes.Buffer
	logger := slog.New(slog.NewTextHandler(&buf, nil))

	d := &recordingDispatcher{err: fmt.Errorf("boom")}
	compiled, err := Compile(forumSchema(t))
	if err != nil {
		t.Fatalf("compile: %v", err)
	}
	client, err := compiled.
		WithDispatcher(d).
		WithInterceptor(LoggingInterceptor(logger)).
		Materialize()
	if err != nil {
		t.Fatalf("materialize: %v", err)
	}

	if _, err := client.Call(context.Background(), "view_thread", Params{"thread_id": 7}, nil); err == nil {
		t.Fatal("expected dispatch error")
	}
	if !strings.Contains(buf.String(), "dispatch failed") {
		t.Errorf("expected failure log, got:\n%s", buf.String())
	}
}

func TestChainInterceptorsEmpty(t *testing.T) {
	if chainInterceptors(nil) != nil {
		t.Error("expected nil chain for no interceptors")
	}
}
