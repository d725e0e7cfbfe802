package anthropic

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"radar-coach-be/pkg/llm"
)

const (
	apiURL     = "https://api.anthropic.com/v1/messages"
	apiVersion = "2023-06-01"

	defaultMaxTokens = 2048
)

// Provider is the live Anthropic Messages API backend with SSE streaming.
type Provider struct {
	apiKey    string
	model     string
	maxTokens int
	client    *http.Client
}

var _ llm.Gateway = &Provider{}

func NewProvider(apiKey, model string) *Provider {
	return &Provider{
		apiKey:    apiKey,
		model:     model,
		maxTokens: defaultMaxTokens,
		client: &http.Client{
			Timeout: 120 * time.Second,
		},
	}
}

// --- Request/Response structs (internal to this package) ---

type apiRequest struct {
	Model     string       `json:"model"`
	MaxTokens int          `json:"max_tokens"`
	System    string       `json:"system,omitempty"`
	Messages  []apiMessage `json:"messages"`
	Tools     []apiTool    `json:"tools,omitempty"`
	Stream    bool         `json:"stream"`
}

type apiMessage struct {
	Role    string         `json:"role"`
	Content []contentBlock `json:"content"`
}

type contentBlock struct {
	Type      string          `json:"type"`
	Text      string          `json:"text,omitempty"`
	ID        string          `json:"id,omitempty"`
	Name      string          `json:"name,omitempty"`
	Input     json.RawMessage `json:"input,omitempty"`
	ToolUseID string          `json:"tool_use_id,omitempty"`
	Content   string          `json:"content,omitempty"`
}

type apiTool struct {
	Name        string                 `json:"name"`
	Description string                 `json:"description,omitempty"`
	InputSchema map[string]interface{} `json:"input_schema"`
}

type streamEvent struct {
	Type         string `json:"type"`
	ContentBlock *struct {
		Type string `json:"type"`
		ID   string `json:"id"`
		Name string `json:"name"`
	} `json:"content_block"`
	Delta *struct {
		Type        string `json:"type"`
		Text        string `json:"text"`
		PartialJSON string `json:"partial_json"`
	} `json:"delta"`
	Error *struct {
		Type    string `json:"type"`
		Message string `json:"message"`
	} `json:"error"`
}

// Complete streams one round from the Messages API, forwarding text deltas
// to req.OnDelta as they arrive and accumulating any tool_use blocks.
func (p *Provider) Complete(ctx context.Context, req llm.Request) (llm.Reply, error) {
	payload := apiRequest{
		Model:     p.model,
		MaxTokens: p.maxTokens,
		System:    req.System,
		Messages:  mapHistory(req.History),
		Tools:     mapTools(req.Tools),
		Stream:    true,
	}
	body, err := json.Marshal(payload)
	if err != nil {
		return llm.Reply{}, fmt.Errorf("marshal request: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, apiURL, bytes.NewReader(body))
	if err != nil {
		return llm.Reply{}, fmt.Errorf("create request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("x-api-key", p.apiKey)
	httpReq.Header.Set("anthropic-version", apiVersion)

	resp, err := p.client.Do(httpReq)
	if err != nil {
		return llm.Reply{}, fmt.Errorf("anthropic request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		msg, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return llm.Reply{}, fmt.Errorf("anthropic API returned %d: %s", resp.StatusCode, strings.TrimSpace(string(msg)))
	}

	return readStream(resp.Body, req.OnDelta)
}

// readStream parses the SSE event stream into a Reply. Tool call argument
// JSON arrives in partial_json fragments that must be concatenated per
// block in arrival order.
func readStream(body io.Reader, onDelta func(string)) (llm.Reply, error) {
	var reply llm.Reply
	var text strings.Builder
	var inputs []*strings.Builder

	scanner := bufio.NewScanner(body)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	for scanner.Scan() {
		line := scanner.Text()
		if !strings.HasPrefix(line, "data:") {
			continue
		}
		data := strings.TrimSpace(strings.TrimPrefix(line, "data:"))
		if data == "" || data == "[DONE]" {
			continue
		}
		var ev streamEvent
		if err := json.Unmarshal([]byte(data), &ev); err != nil {
			continue
		}
		switch ev.Type {
		case "content_block_start":
			if ev.ContentBlock != nil && ev.ContentBlock.Type == "tool_use" {
				reply.ToolCalls = append(reply.ToolCalls, llm.ToolCall{
					ID:   ev.ContentBlock.ID,
					Name: ev.ContentBlock.Name,
				})
				inputs = append(inputs, &strings.Builder{})
			}
		case "content_block_delta":
			if ev.Delta == nil {
				continue
			}
			if ev.Delta.Text != "" {
				text.WriteString(ev.Delta.Text)
				if onDelta != nil {
					onDelta(ev.Delta.Text)
				}
			} else if ev.Delta.PartialJSON != "" && len(inputs) > 0 {
				inputs[len(inputs)-1].WriteString(ev.Delta.PartialJSON)
			}
		case "error":
			if ev.Error != nil {
				return llm.Reply{}, fmt.Errorf("anthropic stream error: %s", ev.Error.Message)
			}
		}
	}
	if err := scanner.Err(); err != nil {
		return llm.Reply{}, fmt.Errorf("reading anthropic stream: %w", err)
	}

	for i := range reply.ToolCalls {
		args := inputs[i].String()
		if args == "" {
			args = "{}"
		}
		if !json.Valid([]byte(args)) {
			return llm.Reply{}, fmt.Errorf("malformed tool arguments for %s", reply.ToolCalls[i].Name)
		}
		reply.ToolCalls[i].Arguments = json.RawMessage(args)
	}
	reply.Text = text.String()
	return reply, nil
}

// mapHistory converts provider-agnostic turns to the Messages API shape:
// tool results travel as user-role tool_result blocks, assistant tool
// requests as tool_use blocks.
func mapHistory(history []llm.Message) []apiMessage {
	out := make([]apiMessage, 0, len(history))
	for _, msg := range history {
		switch msg.Role {
		case llm.RoleTool:
			blocks := make([]contentBlock, 0, len(msg.ToolResults))
			for _, tr := range msg.ToolResults {
				blocks = append(blocks, contentBlock{
					Type:      "tool_result",
					ToolUseID: tr.CallID,
					Content:   string(tr.Content),
				})
			}
			out = append(out, apiMessage{Role: "user", Content: blocks})
		case llm.RoleAssistant:
			var blocks []contentBlock
			if msg.Content != "" {
				blocks = append(blocks, contentBlock{Type: "text", Text: msg.Content})
			}
			for _, tc := range msg.ToolCalls {
				blocks = append(blocks, contentBlock{
					Type:  "tool_use",
					ID:    tc.ID,
					Name:  tc.Name,
					Input: tc.Arguments,
				})
			}
			out = append(out, apiMessage{Role: "assistant", Content: blocks})
		default:
			out = append(out, apiMessage{
				Role:    "user",
				Content: []contentBlock{{Type: "text", Text: msg.Content}},
			})
		}
	}
	return out
}

func mapTools(tools []llm.ToolSchema) []apiTool {
	out := make([]apiTool, 0, len(tools))
	for _, t := range tools {
		out = append(out, apiTool{
			Name:        t.Name,
			Description: t.Description,
			InputSchema: t.InputSchema,
		})
	}
	return out
}
