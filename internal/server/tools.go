package server

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"
)

// Arguments carries the parameters a tool invocation accepts.
type Arguments struct {
	WalletAddress string `json:"wallet_address"`
	Token         string `json:"token"`
}

// Tool is one invokable analytics operation.
type Tool struct {
	Name        string          `json:"name"`
	Description string          `json:"description"`
	InputSchema json.RawMessage `json:"input_schema"`

	handler func(ctx context.Context, args Arguments) (interface{}, error)
}

// Registry maps tool names to their implementations.
type Registry struct {
	tools map[string]Tool
}

// NewRegistry creates an empty Registry.
func NewRegistry() *Registry {
	return &Registry{tools: make(map[string]Tool)}
}

// Register adds a tool; a duplicate name replaces the previous entry.
func (r *Registry) Register(t Tool) {
	r.tools[t.Name] = t
}

// List returns all registered tools sorted by name.
func (r *Registry) List() []Tool {
	list := make([]Tool, 0, len(r.tools))
	for _, t := range r.tools {
		list = append(list, t)
	}
	sort.Slice(list, func(i, j int) bool { return list[i].Name < list[j].Name })
	return list
}

// Invoke dispatches to the named tool.
func (r *Registry) Invoke(ctx context.Context, name string, args Arguments) (interface{}, error) {
	t, ok := r.tools[name]
	if !ok {
		return nil, fmt.Errorf("unknown tool %q", name)
	}
	return t.handler(ctx, args)
}

var walletSchema = json.RawMessage(`{
	"type": "object",
	"properties": {
		"wallet_address": {"type": "string", "description": "Base58 wallet address"}
	},
	"required": ["wallet_address"]
}`)

var walletTokenSchema = json.RawMessage(`{
	"type": "object",
	"properties": {
		"wallet_address": {"type": "string", "description": "Base58 wallet address"},
		"token": {"type": "string", "description": "Base58 token mint"}
	},
	"required": ["wallet_address", "token"]
}`)

var tokenSchema = json.RawMessage(`{
	"type": "object",
	"properties": {
		"token": {"type": "string", "description": "Base58 token mint"}
	},
	"required": ["token"]
}`)
