package tools

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"

	"github.com/sashabaranov/go-openai"
	"github.com/sashabaranov/go-openai/jsonschema"
)

// Tool is the interface for all tools
type Tool interface {
	Name() string
	Description() string
	Parameters() jsonschema.Definition
	Run(ctx context.Context, args json.RawMessage) (any, error)
}

// Validator is implemented by argument types that check themselves after decoding.
type Validator interface {
	Validate() error
}

// Sourced is implemented by results that cite the origin of their numbers.
type Sourced interface {
	SourceRef() (name, updatedAt string)
}

// ErrorResult is the payload handed back to the model when a tool cannot
// produce a result.
type ErrorResult struct {
	Error string `json:"error"`
}

// typedTool adapts a function over decoded arguments to the Tool interface.
type typedTool[A, R any] struct {
	name        string
	description string
	params      jsonschema.Definition
	fn          func(context.Context, A) (R, error)
}

// New builds a Tool whose raw JSON arguments are decoded into A and
// validated before fn runs.
func New[A, R any](name, description string, params jsonschema.Definition, fn func(context.Context, A) (R, error)) Tool {
	return &typedTool[A, R]{name: name, description: description, params: params, fn: fn}
}

func (t *typedTool[A, R]) Name() string                      { return t.name }
func (t *typedTool[A, R]) Description() string               { return t.description }
func (t *typedTool[A, R]) Parameters() jsonschema.Definition { return t.params }

func (t *typedTool[A, R]) Run(ctx context.Context, raw json.RawMessage) (any, error) {
	var args A
	if len(bytes.TrimSpace(raw)) > 0 {
		if err := json.Unmarshal(raw, &args); err != nil {
			return nil, fmt.Errorf("invalid arguments for %s: %w", t.name, err)
		}
	}
	if v, ok := any(&args).(Validator); ok {
		if err := v.Validate(); err != nil {
			return nil, fmt.Errorf("invalid arguments for %s: %w", t.name, err)
		}
	}
	return t.fn(ctx, args)
}

// Definition describes t in the function-calling format of the chat API.
func Definition(t Tool) openai.Tool {
	params := t.Parameters()
	return openai.Tool{
		Type: openai.ToolTypeFunction,
		Function: &openai.FunctionDefinition{
			Name:        t.Name(),
			Description: t.Description(),
			Parameters:  params,
		},
	}
}
