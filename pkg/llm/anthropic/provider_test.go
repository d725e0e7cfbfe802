package anthropic

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"radar-coach-be/pkg/llm"
)

func TestReadStreamTextDeltas(t *testing.T) {
	stream := strings.Join([]string{
		`event: content_block_start`,
		`data: {"type":"content_block_start","content_block":{"type":"text"}}`,
		``,
		`data: {"type":"content_block_delta","delta":{"type":"text_delta","text":"Hello "}}`,
		``,
		`data: {"type":"content_block_delta","delta":{"type":"text_delta","text":"world"}}`,
		``,
		`data: {"type":"message_stop"}`,
		``,
	}, "\n")

	var chunks []string
	reply, err := readStream(strings.NewReader(stream), func(c string) {
		chunks = append(chunks, c)
	})
	require.NoError(t, err)

	assert.Equal(t, "Hello world", reply.Text)
	assert.Equal(t, []string{"Hello ", "world"}, chunks)
	assert.Empty(t, reply.ToolCalls)
}

func TestReadStreamAccumulatesToolArguments(t *testing.T) {
	stream := strings.Join([]string{
		`data: {"type":"content_block_start","content_block":{"type":"tool_use","id":"toolu_1","name":"extract_fields"}}`,
		`data: {"type":"content_block_delta","delta":{"type":"input_json_delta","partial_json":"{\"name\":"}}`,
		`data: {"type":"content_block_delta","delta":{"type":"input_json_delta","partial_json":"\"Dapr\"}"}}`,
		`data: {"type":"message_stop"}`,
	}, "\n")

	reply, err := readStream(strings.NewReader(stream), nil)
	require.NoError(t, err)

	require.Len(t, reply.ToolCalls, 1)
	call := reply.ToolCalls[0]
	assert.Equal(t, "toolu_1", call.ID)
	assert.Equal(t, llm.ToolExtractFields, call.Name)
	assert.JSONEq(t, `{"name":"Dapr"}`, string(call.Arguments))
}

func TestReadStreamEmptyToolInputDefaultsToObject(t *testing.T) {
	stream := `data: {"type":"content_block_start","content_block":{"type":"tool_use","id":"toolu_1","name":"search_duplicates"}}` + "\n"

	reply, err := readStream(strings.NewReader(stream), nil)
	require.NoError(t, err)
	require.Len(t, reply.ToolCalls, 1)
	assert.Equal(t, "{}", string(reply.ToolCalls[0].Arguments))
}

func TestReadStreamSurfacesAPIError(t *testing.T) {
	stream := `data: {"type":"error","error":{"type":"overloaded_error","message":"Overloaded"}}` + "\n"

	_, err := readStream(strings.NewReader(stream), nil)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "Overloaded")
}

func TestReadStreamRejectsTruncatedToolArguments(t *testing.T) {
	stream := strings.Join([]string{
		`data: {"type":"content_block_start","content_block":{"type":"tool_use","id":"toolu_1","name":"extract_fields"}}`,
		`data: {"type":"content_block_delta","delta":{"type":"input_json_delta","partial_json":"{\"name\":"}}`,
	}, "\n")

	_, err := readStream(strings.NewReader(stream), nil)
	assert.Error(t, err)
}

func TestMapHistoryRoles(t *testing.T) {
	history := []llm.Message{
		{Role: llm.RoleUser, Content: "hi"},
		{Role: llm.RoleAssistant, Content: "checking", ToolCalls: []llm.ToolCall{
			{ID: "toolu_1", Name: llm.ToolSearchDuplicates, Arguments: []byte(`{"query":"Dapr"}`)},
		}},
		{Role: llm.RoleTool, ToolResults: []llm.ToolResult{
			{CallID: "toolu_1", Name: llm.ToolSearchDuplicates, Content: []byte(`{"found":false}`)},
		}},
	}

	mapped := mapHistory(history)
	require.Len(t, mapped, 3)

	assert.Equal(t, "user", mapped[0].Role)
	assert.Equal(t, "text", mapped[0].Content[0].Type)

	assert.Equal(t, "assistant", mapped[1].Role)
	require.Len(t, mapped[1].Content, 2)
	assert.Equal(t, "text", mapped[1].Content[0].Type)
	assert.Equal(t, "tool_use", mapped[1].Content[1].Type)

	// tool results travel back as user-role tool_result blocks
	assert.Equal(t, "user", mapped[2].Role)
	assert.Equal(t, "tool_result", mapped[2].Content[0].Type)
	assert.Equal(t, "toolu_1", mapped[2].Content[0].ToolUseID)
}
