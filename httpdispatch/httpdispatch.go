// Package httpdispatch provides a reference Dispatcher over net/http.
//
// The routegen core treats transport as an external capability; this package
// is the batteries-included implementation for hosts that just want HTTP.
// It owns nothing the core depends on — applications with their own
// transport stack can ignore it entirely.
package httpdispatch

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/google/uuid"
	"github.com/gorilla/schema"

	"github.com/broady/routegen"
)

// Option keys recognized in the per-call options mapping.
const (
	// OptionMethod is set by the generated callables from the endpoint
	// definition; callers may override it.
	OptionMethod = "method"

	// OptionQuery appends query parameters to the interpolated URL. The
	// value may be url.Values, map[string]string, or a struct with `schema`
	// tags (encoded with gorilla/schema).
	OptionQuery = "query"

	// OptionBody is JSON-encoded as the request body.
	OptionBody = "body"

	// OptionHeaders adds request headers; map[string]string.
	OptionHeaders = "headers"
)

// AttrHeaders is the endpoint attribute holding inherited request headers,
// map[string]string or map[string]any.
const AttrHeaders = "headers"

// Config holds dispatcher configuration, loadable from the process
// environment with LoadConfig.
type Config struct {
	Timeout         time.Duration `env:"ROUTEGEN_HTTP_TIMEOUT" envDefault:"30s"`
	UserAgent       string        `env:"ROUTEGEN_HTTP_USER_AGENT" envDefault:"routegen"`
	RequestIDHeader string        `env:"ROUTEGEN_HTTP_REQUEST_ID_HEADER" envDefault:"X-Request-Id"`
}

// LoadConfig reads Config from the process environment.
func LoadConfig() (Config, error) {
	var cfg Config
	if err := env.Parse(&cfg); err != nil {
		return Config{}, fmt.Errorf("httpdispatch: parse config: %w", err)
	}
	return cfg, nil
}

// Dispatcher implements routegen.Dispatcher over net/http.
type Dispatcher struct {
	cfg     Config
	client  *http.Client
	logger  *slog.Logger
	encoder *schema.Encoder
}

// New creates a Dispatcher with the given config.
func New(cfg Config) *Dispatcher {
	enc := schema.NewEncoder()
	return &Dispatcher{
		cfg:     cfg,
		client:  &http.Client{Timeout: cfg.Timeout},
		encoder: enc,
	}
}

// WithHTTPClient sets a custom *http.Client (connection pooling, proxies,
// instrumentation). It returns the dispatcher for chaining.
func (d *Dispatcher) WithHTTPClient(c *http.Client) *Dispatcher {
	d.client = c
	return d
}

// WithLogger sets a custom logger. If not set, slog.Default() is used.
func (d *Dispatcher) WithLogger(logger *slog.Logger) *Dispatcher {
	d.logger = logger
	return d
}

// Response is the result of a dispatched call.
type Response struct {
	Status int
	Header http.Header
	Body   []byte
}

// JSON decodes the response body into v.
func (r *Response) JSON(v any) error {
	return json.Unmarshal(r.Body, v)
}

// StatusError reports a non-2xx response.
type StatusError struct {
	Status int
	Body   []byte
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("unexpected status %d", e.Status)
}

// Endpoint implements routegen.Dispatcher.
func (d *Dispatcher) Endpoint(ctx context.Context, id string, attributes map[string]any, callURL string, params routegen.Params, options routegen.Options) (any, error) {
	method := http.MethodGet
	if m, ok := options[OptionMethod].(string); ok && m != "" {
		method = strings.ToUpper(m)
	}

	callURL, err := d.appendQuery(callURL, options[OptionQuery])
	if err != nil {
		return nil, err
	}

	var body io.Reader
	if b, ok := options[OptionBody]; ok {
		buf, err := json.Marshal(b)
		if err != nil {
			return nil, fmt.Errorf("httpdispatch: encode body for %s: %w", id, err)
		}
		body = bytes.NewReader(buf)
	}

	req, err := http.NewRequestWithContext(ctx, method, callURL, body)
	if err != nil {
		return nil, fmt.Errorf("httpdispatch: build request for %s: %w", id, err)
	}
	req.Header.Set("User-Agent", d.cfg.UserAgent)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	requestID := uuid.NewString()
	if d.cfg.RequestIDHeader != "" {
		req.Header.Set(d.cfg.RequestIDHeader, requestID)
	}

	setHeaders(req, attributes[AttrHeaders])
	setHeaders(req, options[OptionHeaders])

	logger := d.logger
	if logger == nil {
		logger = slog.Default()
	}
	start := time.Now()

	res, err := d.client.Do(req)
	if err != nil {
		logger.ErrorContext(ctx, "http dispatch failed",
			slog.String("endpoint", id),
			slog.String("request_id", requestID),
			slog.Any("error", err))
		return nil, err
	}
	defer res.Body.Close()

	data, err := io.ReadAll(res.Body)
	if err != nil {
		return nil, fmt.Errorf("httpdispatch: read response for %s: %w", id, err)
	}

	logger.InfoContext(ctx, "http dispatch",
		slog.String("endpoint", id),
		slog.String("method", method),
		slog.Int("status", res.StatusCode),
		slog.String("request_id", requestID),
		slog.Duration("duration", time.Since(start)))

	if res.StatusCode < 200 || res.StatusCode > 299 {
		return nil, &StatusError{Status: res.StatusCode, Body: data}
	}
	return &Response{Status: res.StatusCode, Header: res.Header, Body: data}, nil
}

// appendQuery merges the query option into the URL.
func (d *Dispatcher) appendQuery(callURL string, q any) (string, error) {
	if q == nil {
		return callURL, nil
	}
	u, err := url.Parse(callURL)
	if err != nil {
		return "", fmt.Errorf("httpdispatch: parse url: %w", err)
	}
	values := u.Query()
	switch qv := q.(type) {
	case url.Values:
		for k, vs := range qv {
			for _, v := range vs {
				values.Add(k, v)
			}
		}
	case map[string]string:
		for k, v := range qv {
			values.Add(k, v)
		}
	default:
		// Struct form, encoded via gorilla/schema tags.
		if err := d.encoder.Encode(q, values); err != nil {
			return "", fmt.Errorf("httpdispatch: encode query: %w", err)
		}
	}
	u.RawQuery = values.Encode()
	return u.String(), nil
}

func setHeaders(req *http.Request, h any) {
	switch hv := h.(type) {
	case map[string]string:
		for k, v := range hv {
			req.Header.Set(k, v)
		}
	case map[string]any:
		for k, v := range hv {
			req.Header.Set(k, fmt.Sprintf("%v", v))
		}
	}
}
