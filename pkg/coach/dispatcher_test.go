package coach

import (
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"radar-coach-be/pkg/llm"
	"radar-coach-be/pkg/radar/history"
)

type testLogger struct{}

func (testLogger) Debug(string, string, map[string]interface{}) {}
func (testLogger) Info(string, string, map[string]interface{})  {}
func (testLogger) Warn(string, string, map[string]interface{})  {}
func (testLogger) Error(string, string, map[string]interface{}) {}
func (testLogger) Sync() error                                  { return nil }

func testIndex(t *testing.T) *history.Index {
	t.Helper()
	dir := t.TempDir()
	csv := "name,ring,quadrant\n" +
		"Rust,adopt,languages-and-frameworks\n" +
		"Rust Analyzer,trial,tools\n" +
		"Rust Cargo,trial,tools\n" +
		"Rust Clippy,assess,tools\n" +
		"Rust Rover,assess,tools\n" +
		"Rust Belt,hold,techniques\n" +
		"Kubernetes,adopt,platforms\n"
	path := filepath.Join(dir, "Thoughtworks Technology Radar Volume 30 (Apr 2024).csv")
	require.NoError(t, os.WriteFile(path, []byte(csv), 0o644))

	idx, err := history.Load(dir, testLogger{})
	require.NoError(t, err)
	return idx
}

func runningSession(t *testing.T) (*Session, uint64) {
	t.Helper()
	sess := NewSession("s1")
	gen, err := sess.BeginTurn()
	require.NoError(t, err)
	return sess, gen
}

func execute(t *testing.T, d *Dispatcher, sess *Session, gen uint64, name, args string) map[string]interface{} {
	t.Helper()
	res, err := d.Execute(sess, gen, llm.ToolCall{
		ID:        "call_1",
		Name:      name,
		Arguments: json.RawMessage(args),
	})
	require.NoError(t, err)
	assert.Equal(t, "call_1", res.CallID)

	var payload map[string]interface{}
	require.NoError(t, json.Unmarshal(res.Content, &payload))
	return payload
}

func TestDispatcherExtractUpdatesDraft(t *testing.T) {
	d := NewDispatcher(testIndex(t))
	sess, gen := runningSession(t)

	payload := execute(t, d, sess, gen, llm.ToolExtractFields,
		`{"name": "Dapr", "ring": "Trial"}`)

	assert.Equal(t, "ok", payload["status"])
	assert.Equal(t, 15.0, payload["completeness"])
	assert.Equal(t, "Dapr", sess.DraftSnapshot().Name)
}

func TestDispatcherExtractReportsRejectedFields(t *testing.T) {
	d := NewDispatcher(testIndex(t))
	sess, gen := runningSession(t)

	payload := execute(t, d, sess, gen, llm.ToolExtractFields,
		`{"name": "Dapr", "sparkle": true}`)

	assert.Equal(t, "partial", payload["status"])
	assert.Equal(t, []interface{}{"sparkle"}, payload["rejected_fields"])
	// the valid part of the patch still lands
	assert.Equal(t, "Dapr", sess.DraftSnapshot().Name)
}

func TestDispatcherExtractAfterSubmitIsRejected(t *testing.T) {
	d := NewDispatcher(testIndex(t))
	sess, gen := runningSession(t)
	require.NoError(t, sess.MarkSubmitted(gen))

	payload := execute(t, d, sess, gen, llm.ToolExtractFields, `{"name": "Dapr"}`)

	assert.Equal(t, "rejected", payload["status"])
	assert.Empty(t, sess.DraftSnapshot().Name)
}

func TestDispatcherExtractStaleGenerationAborts(t *testing.T) {
	d := NewDispatcher(testIndex(t))
	sess, gen := runningSession(t)
	sess.Reset()

	_, err := d.Execute(sess, gen, llm.ToolCall{
		Name:      llm.ToolExtractFields,
		Arguments: json.RawMessage(`{"name": "Dapr"}`),
	})
	assert.ErrorIs(t, err, ErrStaleGeneration)
}

func TestDispatcherSearchCapsResults(t *testing.T) {
	d := NewDispatcher(testIndex(t))
	sess, gen := runningSession(t)

	payload := execute(t, d, sess, gen, llm.ToolSearchDuplicates, `{"query": "Rust"}`)

	assert.Equal(t, true, payload["found"])
	matches := payload["matches"].([]interface{})
	assert.Len(t, matches, maxSearchResults)

	first := matches[0].(map[string]interface{})
	assert.Equal(t, "Rust", first["name"])
	assert.Equal(t, 1.0, first["score"])
}

func TestDispatcherSearchRequiresQuery(t *testing.T) {
	d := NewDispatcher(testIndex(t))
	sess, gen := runningSession(t)

	payload := execute(t, d, sess, gen, llm.ToolSearchDuplicates, `{}`)
	assert.Contains(t, payload["error"], "non-empty query")
}

func TestDispatcherUnknownTool(t *testing.T) {
	d := NewDispatcher(testIndex(t))
	sess, gen := runningSession(t)

	payload := execute(t, d, sess, gen, "launch_rockets", `{}`)
	assert.Contains(t, payload["error"], "unknown tool")
}
