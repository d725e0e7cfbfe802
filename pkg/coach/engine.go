package coach

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"radar-coach-be/internal/pkg/logger"
	"radar-coach-be/pkg/coach/prompt"
	"radar-coach-be/pkg/llm"
	"radar-coach-be/pkg/radar"
	"radar-coach-be/pkg/radar/sanitize"
)

// roundLimitFallback is what the user sees when the model keeps chaining
// actions past the round cap without producing a closing reply.
const roundLimitFallback = "I captured what I could from that, but I wasn't " +
	"able to finish processing it. Could you rephrase or break it into " +
	"smaller pieces?"

// FaultRoundLimit is recorded on a turn that hit the action round cap.
const FaultRoundLimit = "round_limit"

// QualityUpdate is the post-turn snapshot pushed to the client: both
// scores, the full draft, and what is still missing.
type QualityUpdate struct {
	Completeness  float64
	Quality       float64
	Draft         *radar.BlipSubmission
	MissingFields []string
	RingGaps      []string
}

// TurnResult is the outcome of one completed tool-use loop.
type TurnResult struct {
	Reply     string
	Update    QualityUpdate
	Submitted bool
	Fault     string
}

// Engine drives the tool-use loop for a single turn: send the history to
// the gateway, execute any actions it requests, feed the results back, and
// repeat until the model answers in plain text or the round cap trips.
type Engine struct {
	gateway    llm.Gateway
	dispatcher *Dispatcher
	maxRounds  int
	log        logger.ILogger
}

func NewEngine(gateway llm.Gateway, dispatcher *Dispatcher, maxRounds int, log logger.ILogger) *Engine {
	if maxRounds <= 0 {
		maxRounds = 6
	}
	return &Engine{
		gateway:    gateway,
		dispatcher: dispatcher,
		maxRounds:  maxRounds,
		log:        log,
	}
}

// HandleTurn runs one user turn to completion. onChunk receives streamed
// reply text as it arrives; the final consolidated reply and quality
// snapshot come back in the TurnResult. A reset mid-turn surfaces as
// ErrStaleGeneration with the session left untouched.
func (e *Engine) HandleTurn(ctx context.Context, sess *Session, userText string, submit bool, onChunk func(string)) (*TurnResult, error) {
	gen, err := sess.BeginTurn()
	if err != nil {
		return nil, err
	}
	defer sess.EndTurn()

	if userText != "" {
		clean := sanitize.Message(userText)
		if sanitize.LooksLikeInjection(clean) {
			e.log.Warn("coach", "possible prompt injection in user message", map[string]interface{}{
				"session": sess.ID(),
			})
		}
		turn := llm.Message{Role: llm.RoleUser, Content: clean}
		if err := sess.AppendTurn(gen, turn); err != nil {
			return nil, err
		}
	}
	if submit {
		turn := llm.Message{Role: llm.RoleUser, Content: prompt.SubmitHint}
		if err := sess.AppendTurn(gen, turn); err != nil {
			return nil, err
		}
	}

	result := &TurnResult{}
	var lastText string

	streamed := false
	chunkTap := onChunk
	if onChunk != nil {
		chunkTap = func(chunk string) {
			streamed = true
			onChunk(chunk)
		}
	}

	for round := 0; ; round++ {
		if round >= e.maxRounds {
			e.log.Warn("coach", "tool round cap reached", map[string]interface{}{
				"session": sess.ID(),
				"rounds":  round,
			})
			result.Fault = FaultRoundLimit
			lastText = fallbackReply(lastText)
			// any streamed text already reached the client; re-emitting it
			// here would double it in the chunk stream
			if onChunk != nil && !streamed {
				onChunk(lastText)
			}
			break
		}

		history, err := sess.HistorySnapshot(gen)
		if err != nil {
			return nil, err
		}
		reply, err := e.complete(ctx, llm.Request{
			System:  prompt.Build(sess.DraftSnapshot()),
			History: history,
			Tools:   toolSchemas(),
			OnDelta: chunkTap,
		})
		if err != nil {
			return nil, fmt.Errorf("%w: %v", ErrGateway, err)
		}

		if reply.Text != "" {
			lastText = reply.Text
		}
		// a reply with neither text nor tool calls would map to an empty
		// assistant content block, which the live API rejects on replay
		if reply.Text == "" && len(reply.ToolCalls) == 0 {
			break
		}
		assistant := llm.Message{
			Role:      llm.RoleAssistant,
			Content:   reply.Text,
			ToolCalls: reply.ToolCalls,
		}
		if err := sess.AppendTurn(gen, assistant); err != nil {
			return nil, err
		}
		if len(reply.ToolCalls) == 0 {
			break
		}

		results := make([]llm.ToolResult, 0, len(reply.ToolCalls))
		for _, call := range reply.ToolCalls {
			res, err := e.dispatcher.Execute(sess, gen, call)
			if err != nil {
				return nil, err
			}
			results = append(results, res)
		}
		turn := llm.Message{Role: llm.RoleTool, ToolResults: results}
		if err := sess.AppendTurn(gen, turn); err != nil {
			return nil, err
		}
	}

	if submit {
		switch err := sess.MarkSubmitted(gen); {
		case err == nil:
			result.Submitted = true
		case errors.Is(err, ErrStaleGeneration):
			return nil, err
		// a repeat submit on a frozen session is not an error; the
		// transition already happened
		}
	}

	result.Reply = lastText
	result.Update = e.Snapshot(sess)
	return result, nil
}

// Snapshot computes the current quality picture without running a turn.
func (e *Engine) Snapshot(sess *Session) QualityUpdate {
	draft := sess.DraftSnapshot()
	completeness, quality := radar.Scores(draft)
	return QualityUpdate{
		Completeness:  completeness,
		Quality:       quality,
		Draft:         draft,
		MissingFields: radar.MissingFields(draft),
		RingGaps:      radar.RingGaps(draft),
	}
}

// complete calls the gateway with one automatic retry. Text a failed
// attempt already streamed is deduplicated against the retry so the client
// never sees the same prefix twice.
func (e *Engine) complete(ctx context.Context, req llm.Request) (llm.Reply, error) {
	var emitted strings.Builder
	userDelta := req.OnDelta
	if userDelta != nil {
		req.OnDelta = func(chunk string) {
			emitted.WriteString(chunk)
			userDelta(chunk)
		}
	}

	reply, err := e.gateway.Complete(ctx, req)
	if err == nil {
		return reply, nil
	}
	if ctx.Err() != nil {
		return llm.Reply{}, err
	}
	e.log.Warn("coach", "gateway call failed, retrying once", map[string]interface{}{
		"error": err.Error(),
	})

	if userDelta != nil {
		req.OnDelta = dedupDelta(emitted.String(), userDelta)
	}
	return e.gateway.Complete(ctx, req)
}

// dedupDelta suppresses the prefix a failed attempt already streamed. New
// text flows only once the retry has replayed that prefix verbatim; a retry
// that diverges from it is silenced entirely, since splicing two different
// replies into one chunk stream is worse than stopping short. The
// consolidated reply text stays authoritative either way.
func dedupDelta(prefix string, forward func(string)) func(string) {
	pos := 0
	diverged := false
	return func(chunk string) {
		if diverged {
			return
		}
		if pos < len(prefix) {
			n := len(prefix) - pos
			if len(chunk) < n {
				n = len(chunk)
			}
			if chunk[:n] != prefix[pos:pos+n] {
				diverged = true
				return
			}
			pos += n
			chunk = chunk[n:]
			if chunk == "" {
				return
			}
		}
		forward(chunk)
	}
}

func fallbackReply(partial string) string {
	if partial != "" {
		return partial
	}
	return roundLimitFallback
}
