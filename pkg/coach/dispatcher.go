package coach

import (
	"encoding/json"
	"errors"
	"fmt"

	"radar-coach-be/pkg/llm"
	"radar-coach-be/pkg/radar"
	"radar-coach-be/pkg/radar/history"
	"radar-coach-be/pkg/radar/sanitize"
)

// maxSearchResults caps the duplicate matches returned to the model per
// search, regardless of how many historical blips qualify.
const maxSearchResults = 5

// Dispatcher executes the model's tool calls against session state and the
// reference index. Recoverable problems (unknown fields, frozen draft,
// malformed arguments) become tool results the model can read and react to;
// only a stale generation aborts the loop.
type Dispatcher struct {
	index *history.Index
}

func NewDispatcher(index *history.Index) *Dispatcher {
	return &Dispatcher{index: index}
}

// extractResult is the wire shape handed back for an extract_fields call.
type extractResult struct {
	Status         string                 `json:"status"`
	UpdatedFields  map[string]interface{} `json:"updated_fields,omitempty"`
	RejectedFields []string               `json:"rejected_fields,omitempty"`
	Completeness   float64                `json:"completeness"`
	Quality        float64                `json:"quality"`
	MissingFields  []string               `json:"missing_fields"`
	RingGaps       []string               `json:"ring_gaps"`
	Error          string                 `json:"error,omitempty"`
}

// searchResult is the wire shape handed back for a search_duplicates call.
type searchResult struct {
	Found   bool            `json:"found"`
	Matches []history.Match `json:"matches"`
}

// Execute runs one tool call. The returned error is non-nil only for
// ErrStaleGeneration, which the caller must treat as loop-fatal.
func (d *Dispatcher) Execute(sess *Session, gen uint64, call llm.ToolCall) (llm.ToolResult, error) {
	switch call.Name {
	case llm.ToolExtractFields:
		return d.extract(sess, gen, call)
	case llm.ToolSearchDuplicates:
		return d.search(call)
	default:
		return resultFor(call, map[string]string{
			"error": fmt.Sprintf("unknown tool: %s", call.Name),
		}), nil
	}
}

func (d *Dispatcher) extract(sess *Session, gen uint64, call llm.ToolCall) (llm.ToolResult, error) {
	patch, rejected, err := radar.ParsePatch(call.Arguments)
	if err != nil {
		return resultFor(call, extractResult{
			Status: "error",
			Error:  fmt.Sprintf("malformed arguments: %v", err),
		}), nil
	}

	updated, err := sess.ApplyPatch(gen, patch)
	if errors.Is(err, ErrStaleGeneration) {
		return llm.ToolResult{}, err
	}
	if errors.Is(err, ErrSubmitted) {
		return resultFor(call, extractResult{
			Status: "rejected",
			Error:  "the submission is already finalized; no further changes accepted",
		}), nil
	}

	draft := sess.DraftSnapshot()
	completeness, quality := radar.Scores(draft)
	res := extractResult{
		Status:         "ok",
		UpdatedFields:  updated,
		RejectedFields: rejected,
		Completeness:   completeness,
		Quality:        quality,
		MissingFields:  radar.MissingFields(draft),
		RingGaps:       radar.RingGaps(draft),
	}
	if len(rejected) > 0 {
		res.Status = "partial"
	}
	return resultFor(call, res), nil
}

func (d *Dispatcher) search(call llm.ToolCall) (llm.ToolResult, error) {
	var args struct {
		Query string `json:"query"`
	}
	if err := json.Unmarshal(call.Arguments, &args); err != nil || args.Query == "" {
		return resultFor(call, map[string]string{
			"error": "search_duplicates requires a non-empty query",
		}), nil
	}

	matches := d.index.Search(sanitize.Text(args.Query, 200))
	if len(matches) > maxSearchResults {
		matches = matches[:maxSearchResults]
	}
	return resultFor(call, searchResult{
		Found:   len(matches) > 0,
		Matches: matches,
	}), nil
}

func resultFor(call llm.ToolCall, payload interface{}) llm.ToolResult {
	content, err := json.Marshal(payload)
	if err != nil {
		content = []byte(`{"error":"internal: result encoding failed"}`)
	}
	return llm.ToolResult{
		CallID:  call.ID,
		Name:    call.Name,
		Content: content,
	}
}
