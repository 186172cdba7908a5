package tools

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/sashabaranov/go-openai"

	"github.com/comigor/econlux-go/internal/logger"
)

// DefaultTimeout bounds a single tool execution.
const DefaultTimeout = 30 * time.Second

// ToolManager is the fixed catalog of tools offered to the model. It is
// built once and read-only afterwards, so it is safe for concurrent use.
type ToolManager struct {
	tools   map[string]Tool
	order   []string
	timeout time.Duration
}

// NewToolManager creates a ToolManager holding tools in the given order.
func NewToolManager(tools ...Tool) (*ToolManager, error) {
	m := &ToolManager{tools: make(map[string]Tool, len(tools)), timeout: DefaultTimeout}
	for _, t := range tools {
		name := t.Name()
		if name == "" {
			return nil, fmt.Errorf("tool with empty name")
		}
		if _, dup := m.tools[name]; dup {
			return nil, fmt.Errorf("tool %q registered twice", name)
		}
		m.tools[name] = t
		m.order = append(m.order, name)
	}
	return m, nil
}

// WithTimeout sets the per-execution timeout; zero disables it.
func (m *ToolManager) WithTimeout(d time.Duration) *ToolManager {
	m.timeout = d
	return m
}

// List returns all registered tools in registration order.
func (m *ToolManager) List() []Tool {
	ts := make([]Tool, 0, len(m.order))
	for _, name := range m.order {
		ts = append(ts, m.tools[name])
	}
	return ts
}

// GetTool retrieves a tool by name
func (m *ToolManager) GetTool(name string) (Tool, error) {
	tool, ok := m.tools[name]
	if !ok {
		return nil, fmt.Errorf("tool not found: %s", name)
	}
	return tool, nil
}

// Definitions returns the catalog in the function-calling format.
func (m *ToolManager) Definitions() []openai.Tool {
	defs := make([]openai.Tool, 0, len(m.order))
	for _, t := range m.List() {
		defs = append(defs, Definition(t))
	}
	return defs
}

// Execute runs the named tool. An unknown name is not an error: it yields an
// ErrorResult for the model to read. Failures inside the tool, panics
// included, are returned as errors.
func (m *ToolManager) Execute(ctx context.Context, name string, args json.RawMessage) (result any, err error) {
	tool, ok := m.tools[name]
	if !ok {
		logger.L.Warn("unknown tool requested", "tool", name)
		return ErrorResult{Error: "Unknown tool: " + name}, nil
	}

	if m.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, m.timeout)
		defer cancel()
	}

	defer func() {
		if r := recover(); r != nil {
			result, err = nil, fmt.Errorf("tool %s panicked: %v", name, r)
		}
	}()

	start := time.Now()
	result, err = tool.Run(ctx, args)
	logger.L.Debug("tool executed", "tool", name, "duration", time.Since(start), "error", err)
	return result, err
}
