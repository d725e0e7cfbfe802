package llm

import (
	"context"
	"encoding/json"
)

// Conversation roles in a provider-agnostic format.
const (
	RoleUser      = "user"
	RoleAssistant = "assistant"
	RoleTool      = "tool"
)

// Tool names form the fixed two-entry action schema every backend sees.
const (
	ToolExtractFields    = "extract_fields"
	ToolSearchDuplicates = "search_duplicates"
)

// Message is one conversation turn. Assistant turns may carry requested
// tool calls alongside text; tool turns carry the results fed back to the
// model on the next round.
type Message struct {
	Role        string
	Content     string
	ToolCalls   []ToolCall
	ToolResults []ToolResult
}

// ToolCall is one action the model asked the session to execute.
type ToolCall struct {
	ID        string          `json:"id"`
	Name      string          `json:"name"`
	Arguments json.RawMessage `json:"arguments"`
}

// ToolResult is the structured outcome of an executed tool call.
type ToolResult struct {
	CallID  string          `json:"call_id"`
	Name    string          `json:"name"`
	Content json.RawMessage `json:"content"`
}

// ToolSchema describes one available action to the backend.
type ToolSchema struct {
	Name        string
	Description string
	InputSchema map[string]interface{}
}

// Request is a single completion round: full ordered history, the action
// schema, and the session-conditioned system instruction. OnDelta, when
// set, receives ordered partial-text chunks as they stream in; chunks from
// one round are never interleaved with another.
type Request struct {
	System  string
	History []Message
	Tools   []ToolSchema
	OnDelta func(text string)
}

// Reply is what a round produced: optional text, zero or more tool calls,
// in the order the model requested them.
type Reply struct {
	Text      string
	ToolCalls []ToolCall
}

// Gateway is the single capability every backend implements. The live and
// mock variants are selected once at construction time; callers never
// branch on which one is active.
type Gateway interface {
	Complete(ctx context.Context, req Request) (Reply, error)
}
