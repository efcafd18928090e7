package watch

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"os/exec"
	"strings"
	"time"
)

// DriftFunc is a registered Go callable a "function" endpoint test can
// invoke. Python's endpoint_config names a module and function to
// import at run time; Go has no equivalent dynamic import, so a
// function-type drift test instead names an entry a caller registered
// ahead of time in a Registry — the same dynamic-dispatch role,
// resolved at registration time instead of call time.
type DriftFunc func(args []any) (string, error)

// Registry resolves "function" endpoint tests to a DriftFunc by
// "module.function" key.
type Registry struct {
	funcs map[string]DriftFunc
}

// NewRegistry returns an empty registry.
func NewRegistry() *Registry {
	return &Registry{funcs: map[string]DriftFunc{}}
}

// Register binds module.function to fn.
func (r *Registry) Register(module, function string, fn DriftFunc) {
	r.funcs[module+"."+function] = fn
}

func (r *Registry) lookup(module, function string) (DriftFunc, bool) {
	fn, ok := r.funcs[module+"."+function]
	return fn, ok
}

const defaultEndpointTimeout = 30 * time.Second

// Executor runs a DriftTestSpec's endpoint and returns its canonical
// output as a string, the common currency every comparator operates on.
type Executor struct {
	registry   *Registry
	httpClient *http.Client
}

// NewExecutor builds an Executor. registry may be nil if no test uses
// endpoint_type: function.
func NewExecutor(registry *Registry) *Executor {
	if registry == nil {
		registry = NewRegistry()
	}
	return &Executor{registry: registry, httpClient: &http.Client{Timeout: defaultEndpointTimeout}}
}

// Execute dispatches spec to its endpoint type.
func (e *Executor) Execute(ctx context.Context, spec DriftTestSpec) (string, error) {
	switch spec.EndpointType {
	case EndpointCLI:
		return e.executeCLI(ctx, spec.EndpointConfig)
	case EndpointFunction:
		return e.executeFunction(spec.EndpointConfig)
	case EndpointHTTP:
		return e.executeHTTP(ctx, spec.EndpointConfig)
	default:
		return "", fmt.Errorf("nit/watch: unknown endpoint type %q", spec.EndpointType)
	}
}

func (e *Executor) executeCLI(ctx context.Context, cfg EndpointConfig) (string, error) {
	if len(cfg.Command) == 0 {
		return "", fmt.Errorf("nit/watch: cli endpoint has no command")
	}
	cmd := exec.CommandContext(ctx, cfg.Command[0], cfg.Command[1:]...)
	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr
	if err := cmd.Run(); err != nil {
		return "", fmt.Errorf("nit/watch: run %v: %w: %s", cfg.Command, err, stderr.String())
	}
	return strings.TrimRight(stdout.String(), "\n"), nil
}

func (e *Executor) executeFunction(cfg EndpointConfig) (string, error) {
	fn, ok := e.registry.lookup(cfg.Module, cfg.Function)
	if !ok {
		return "", fmt.Errorf("nit/watch: no function registered for %s.%s", cfg.Module, cfg.Function)
	}
	return fn(cfg.Args)
}

func (e *Executor) executeHTTP(ctx context.Context, cfg EndpointConfig) (string, error) {
	if cfg.URL == "" {
		return "", fmt.Errorf("nit/watch: http endpoint has no url")
	}
	method := cfg.Method
	if method == "" {
		method = http.MethodGet
	}

	var body io.Reader
	if cfg.Body != "" {
		body = strings.NewReader(cfg.Body)
	}

	req, err := http.NewRequestWithContext(ctx, method, cfg.URL, body)
	if err != nil {
		return "", fmt.Errorf("nit/watch: build request: %w", err)
	}
	for k, v := range cfg.Headers {
		req.Header.Set(k, v)
	}

	resp, err := e.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("nit/watch: http request: %w", err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("nit/watch: read response: %w", err)
	}
	if resp.StatusCode >= 400 {
		return "", fmt.Errorf("nit/watch: http status %d: %s", resp.StatusCode, string(data))
	}
	return strings.TrimRight(string(data), "\n"), nil
}
