// Package tools holds the closed set of callables the agent may invoke.
package tools

import (
	"context"
	"fmt"
	"sort"

	"github.com/doeshing/shai-agent/internal/domain"
	"github.com/doeshing/shai-agent/internal/ports"
)

// Tool names the model is allowed to use.
const (
	ExecuteCommandName = "executeCommand"
	WeatherName        = "getWeatherInfo"
)

// ErrUnknownTool is returned by Invoke for names outside the registry.
var ErrUnknownTool = domain.ErrUnknownTool

// Handler runs a tool on its string input.
type Handler func(ctx context.Context, input string) (string, error)

// Tool is one registry entry.
type Tool struct {
	Name        string
	Description string
	Run         Handler
}

// Registry maps tool names to handlers. It is immutable after NewRegistry.
type Registry struct {
	tools map[string]Tool
}

// NewRegistry validates tools and freezes the set. Empty names, missing
// handlers and duplicates are construction errors.
func NewRegistry(tools ...Tool) (*Registry, error) {
	r := &Registry{tools: make(map[string]Tool, len(tools))}
	for _, tool := range tools {
		if tool.Name == "" {
			return nil, fmt.Errorf("tool name cannot be empty")
		}
		if tool.Run == nil {
			return nil, fmt.Errorf("tool %s has no handler", tool.Name)
		}
		if _, exists := r.tools[tool.Name]; exists {
			return nil, fmt.Errorf("tool %s registered twice", tool.Name)
		}
		r.tools[tool.Name] = tool
	}
	return r, nil
}

// Has reports whether name is registered.
func (r *Registry) Has(name string) bool {
	_, ok := r.tools[name]
	return ok
}

// Names returns the registered names in sorted order.
func (r *Registry) Names() []string {
	names := make([]string, 0, len(r.tools))
	for name := range r.tools {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Describe returns the registered tools sorted by name.
func (r *Registry) Describe() []Tool {
	out := make([]Tool, 0, len(r.tools))
	for _, name := range r.Names() {
		out = append(out, r.tools[name])
	}
	return out
}

// Invoke runs the named tool.
func (r *Registry) Invoke(ctx context.Context, name, input string) (string, error) {
	tool, ok := r.tools[name]
	if !ok {
		return "", fmt.Errorf("%w: %s", ErrUnknownTool, name)
	}
	return tool.Run(ctx, input)
}

var _ ports.ToolRegistry = (*Registry)(nil)
