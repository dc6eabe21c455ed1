package tools

import (
	"context"
	"fmt"
	"sort"
)

// Manager is the tool registry. Tools are registered at startup and invoked
// by name; registering a name twice replaces the earlier tool.
type Manager struct {
	tools map[string]Tool
}

// NewManager creates an empty tool registry.
func NewManager() *Manager {
	return &Manager{tools: make(map[string]Tool)}
}

// Register adds a tool to the registry.
func (m *Manager) Register(tool Tool) {
	m.tools[tool.Name()] = tool
}

// Get retrieves a tool by name.
func (m *Manager) Get(name string) (Tool, error) {
	tool, ok := m.tools[name]
	if !ok {
		return nil, fmt.Errorf("tool not found: %s", name)
	}
	return tool, nil
}

// List returns all registered tools sorted by name.
func (m *Manager) List() []Tool {
	ts := make([]Tool, 0, len(m.tools))
	for _, t := range m.tools {
		ts = append(ts, t)
	}
	sort.Slice(ts, func(i, j int) bool { return ts[i].Name() < ts[j].Name() })
	return ts
}

// Len returns the number of registered tools.
func (m *Manager) Len() int { return len(m.tools) }

// Execute looks a tool up and runs it. An unknown name or a tool failure is
// reported as an error; it never affects other tools.
func (m *Manager) Execute(ctx context.Context, name string, args map[string]string) (map[string]any, error) {
	tool, err := m.Get(name)
	if err != nil {
		return nil, err
	}
	return tool.Run(ctx, args)
}
