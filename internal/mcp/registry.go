// Package mcp binds named tools and parametrized resources to handlers and
// routes free-text utterances onto them.
package mcp

import (
	"context"
	"fmt"
	"regexp"
	"sort"
	"strings"
	"sync"
)

// Args carries keyword-style parameters into a handler.
type Args map[string]any

func (a Args) String(key string) (string, error) {
	v, ok := a[key]
	if !ok {
		return "", fmt.Errorf("%w: %s", ErrMissingParam, key)
	}
	s, ok := v.(string)
	if !ok {
		return "", fmt.Errorf("%w: %s is %T", ErrParamType, key, v)
	}
	return s, nil
}

func (a Args) Strings(key string) ([]string, error) {
	v, ok := a[key]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrMissingParam, key)
	}
	switch s := v.(type) {
	case []string:
		return s, nil
	case string:
		return []string{s}, nil
	default:
		return nil, fmt.Errorf("%w: %s is %T", ErrParamType, key, v)
	}
}

type ToolHandler func(ctx context.Context, args Args) (string, error)

type ResourceHandler func(ctx context.Context, value string) (string, error)

type Tool struct {
	Name    string
	Params  []string
	handler ToolHandler
}

type Resource struct {
	Template string
	Scheme   string
	Variable string
	handler  ResourceHandler
}

// Registry is safe for concurrent use.
type Registry struct {
	mu        sync.RWMutex
	tools     map[string]*Tool
	resources map[string]*Resource // by full template
	patterns  map[string]*Resource // by scheme, templates with a variable only
}

func NewRegistry() *Registry {
	return &Registry{
		tools:     make(map[string]*Tool),
		resources: make(map[string]*Resource),
		patterns:  make(map[string]*Resource),
	}
}

// RegisterTool stores handler under name. Registering a name again
// replaces the previous entry.
func (r *Registry) RegisterTool(name string, params []string, handler ToolHandler) {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.tools[name] = &Tool{
		Name:    name,
		Params:  append([]string(nil), params...),
		handler: handler,
	}
}

var templateRe = regexp.MustCompile(`^([^:/]+)://[^{]*\{([A-Za-z_][A-Za-z0-9_]*)\}`)

// RegisterResource parses template as scheme://{variable}. Only the first
// placeholder counts. A template without one is kept as a plain resource
// reachable by its exact text.
func (r *Registry) RegisterResource(template string, handler ResourceHandler) {
	res := &Resource{Template: template, handler: handler}
	if m := templateRe.FindStringSubmatch(template); m != nil {
		res.Scheme = m[1]
		res.Variable = m[2]
	} else {
		res.Scheme = schemeOf(template)
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	r.resources[template] = res
	if res.Variable != "" {
		r.patterns[res.Scheme] = res
	}
}

// ExecuteTool never fails on an unknown name; the not-found message is the
// result. Args outside the tool's declared params are dropped.
func (r *Registry) ExecuteTool(ctx context.Context, name string, args Args) (string, error) {
	r.mu.RLock()
	t, ok := r.tools[name]
	r.mu.RUnlock()

	if !ok {
		return fmt.Sprintf("Tool '%s' not found.", name), nil
	}

	filtered := make(Args, len(t.Params))
	for _, p := range t.Params {
		if v, ok := args[p]; ok {
			filtered[p] = v
		}
	}

	out, err := t.handler(ctx, filtered)
	if err != nil {
		return "", fmt.Errorf("tool %s: %w", name, err)
	}
	return out, nil
}

// ExecuteResource resolves uri against full templates first, then against
// the pattern table by scheme.
func (r *Registry) ExecuteResource(ctx context.Context, uri string, args Args) (string, error) {
	r.mu.RLock()
	res, ok := r.resources[uri]
	if !ok {
		res, ok = r.patterns[schemeOf(uri)]
	}
	r.mu.RUnlock()

	if !ok {
		return fmt.Sprintf("Resource '%s' not found.", uri), nil
	}

	var value string
	if res.Variable != "" {
		v, err := args.String(res.Variable)
		if err != nil {
			return "", fmt.Errorf("resource %s: %w", res.Template, err)
		}
		value = v
	}

	out, err := res.handler(ctx, value)
	if err != nil {
		return "", fmt.Errorf("resource %s: %w", res.Template, err)
	}
	return out, nil
}

func (r *Registry) Tools() []Tool {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]Tool, 0, len(r.tools))
	for _, t := range r.tools {
		out = append(out, Tool{Name: t.Name, Params: append([]string(nil), t.Params...)})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out
}

func (r *Registry) Resources() []Resource {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]Resource, 0, len(r.resources))
	for _, res := range r.resources {
		out = append(out, Resource{Template: res.Template, Scheme: res.Scheme, Variable: res.Variable})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Template < out[j].Template })
	return out
}

func schemeOf(uri string) string {
	if i := strings.Index(uri, "://"); i >= 0 {
		return uri[:i]
	}
	return uri
}
