// Package tools defines the callable capabilities the agent can invoke on the
// model's behalf, plus the registry that owns them.
package tools

import (
	"context"
	"encoding/json"
)

// Tool is the interface all tools implement. Run is synchronous; failures are
// returned as errors and isolated per invocation.
type Tool interface {
	Name() string
	Description() string
	// Parameters returns a JSON schema describing the accepted arguments.
	Parameters() json.RawMessage
	Run(ctx context.Context, args map[string]string) (map[string]any, error)
}

var emptySchema = json.RawMessage(`{"type":"object","properties":{}}`)
