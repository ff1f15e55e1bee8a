package agent

import (
	"context"
	"encoding/json"
	"fmt"
)

// ToolHandler executes a function tool. args is the JSON arguments object
// supplied by the model; the returned string is submitted back as the tool
// output.
type ToolHandler func(ctx context.Context, args json.RawMessage) (string, error)

// FunctionTool is a named function the agent may call during a run.
type FunctionTool struct {
	Name        string
	Description string
	Parameters  json.RawMessage // JSON schema for the arguments object
	Handler     ToolHandler
}

// NoArgsSchema is the parameter schema for tools that take no arguments.
var NoArgsSchema = json.RawMessage(`{"type": "object", "properties": {}}`)

// ToolSet is a registry of function tools, keyed by name.
type ToolSet struct {
	tools map[string]FunctionTool
	order []string
}

// NewToolSet creates an empty tool set.
func NewToolSet() *ToolSet {
	return &ToolSet{tools: make(map[string]FunctionTool)}
}

// Add registers a tool. Registering a duplicate name is an error.
func (s *ToolSet) Add(tool FunctionTool) error {
	if tool.Name == "" {
		return fmt.Errorf("tool name is required")
	}
	if tool.Handler == nil {
		return fmt.Errorf("tool %s has no handler", tool.Name)
	}
	if _, exists := s.tools[tool.Name]; exists {
		return fmt.Errorf("tool %s already registered", tool.Name)
	}
	s.tools[tool.Name] = tool
	s.order = append(s.order, tool.Name)
	return nil
}

// Tools returns the registered tools in registration order.
func (s *ToolSet) Tools() []FunctionTool {
	tools := make([]FunctionTool, 0, len(s.order))
	for _, name := range s.order {
		tools = append(tools, s.tools[name])
	}
	return tools
}

// Dispatch runs the named tool with the given arguments.
func (s *ToolSet) Dispatch(ctx context.Context, name string, args json.RawMessage) (string, error) {
	tool, ok := s.tools[name]
	if !ok {
		return "", fmt.Errorf("unknown tool: %s", name)
	}
	output, err := tool.Handler(ctx, args)
	if err != nil {
		return "", fmt.Errorf("tool %s failed: %w", name, err)
	}
	return output, nil
}
