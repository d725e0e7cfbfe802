// Package prompt builds the coaching instructions sent to the model
// gateway each round, conditioned on the draft's current gaps and the
// evidence bar of its target ring.
package prompt

import (
	"encoding/json"
	"fmt"
	"strings"

	"radar-coach-be/pkg/radar"
)

// Markers delimiting the machine-readable state block. The mock backend
// locates the draft snapshot between them, so they must stay in sync.
const (
	StateMarker  = "CURRENT BLIP STATE:"
	ScoresMarker = "QUALITY SCORES:"
)

// SubmitHint is appended as a user turn when the client requests
// submission, so the model closes out the conversation normally.
const SubmitHint = "[SYSTEM: The user has clicked the Submit button. Call the " +
	"extract_fields tool with all information gathered so far, then provide " +
	"a final summary of the submission including the quality score and " +
	"suggestions for future improvement.]"

const basePrompt = `You are a Technology Radar blip submission coach. Your role is to help
technologists submit high-quality blips for consideration in upcoming radar
editions.

BEHAVIOR:
- Be direct, concise, and knowledgeable about the radar process. Skip the
  praise and filler; acknowledge what you captured and move to the next gap.
- Never block submission. Users can submit at any time.
- Ask one or two focused follow-up questions at a time.
- After the user provides substantive information, ALWAYS call the
  extract_fields tool to update the current state.
- When you first learn the technology name, call the search_duplicates tool
  to check previous radar editions. If it has appeared before, tell the user
  which volume(s) and ring(s), and ask why they are resubmitting: the
  write-up needs a refresh, it is still important, or the ring should change.

THE FOUR QUADRANTS:
- Techniques: process elements, architectural patterns, ways of working.
- Tools: software applications and utilities that support development.
- Platforms: foundational systems developers build on top of.
- Languages & Frameworks: programming languages and their frameworks.
`

// ringGuidance keys the coaching pressure to the target ring's evidence
// bar: Adopt demands the most evidence, Assess the least.
var ringGuidance = map[radar.Ring]string{
	radar.RingAdopt: `TARGET RING: Adopt (strongest evidence needed)
- Push for at least 2 client engagements with production outcomes. Ask
  "Can you name the client and describe the outcome?" rather than vague
  requests for more detail.
- Require a clear rationale for why this should be a default choice.
- Require acknowledged limitations or caveats.`,
	radar.RingTrial: `TARGET RING: Trial (strong evidence)
- Push for at least 1 production deployment with measurable results.
- Ask why it is ready for broader use but not yet a default recommendation.
- Ask what alternatives the team considered.`,
	radar.RingAssess: `TARGET RING: Assess (moderate evidence)
- Focus on early signals of promise: POCs, internal experiments, trends.
- Ask what problems it could solve and why it is worth investigating now.`,
	radar.RingHold: `TARGET RING: Hold (caution evidence)
- Focus on specific problems encountered on real projects.
- Ask why teams should avoid starting new work with it.
- Ask what alternatives exist.`,
}

// Build renders the full system instruction for one gateway round.
func Build(b *radar.BlipSubmission) string {
	completeness, quality := radar.Scores(b)
	missing := radar.MissingFields(b)
	gaps := radar.RingGaps(b)

	var sb strings.Builder
	sb.WriteString(basePrompt)
	sb.WriteString("\n")
	if guidance, ok := ringGuidance[b.Ring]; ok {
		sb.WriteString(guidance)
	} else {
		sb.WriteString("TARGET RING: not chosen yet. Help the user pick a ring early;\n" +
			"the evidence you coach for depends on it.")
	}
	sb.WriteString("\n\n")
	sb.WriteString(StateMarker)
	sb.WriteString("\n")
	sb.WriteString(b.StateJSON())
	sb.WriteString("\n\n")
	sb.WriteString(ScoresMarker)
	fmt.Fprintf(&sb, "\n- Completeness: %.0f%%\n- Quality: %.0f%%\n", completeness, quality)
	fmt.Fprintf(&sb, "- Missing fields: %s\n", joinOrNone(missing))
	fmt.Fprintf(&sb, "- Ring-specific gaps: %s\n", joinOrNone(gaps))
	return sb.String()
}

func joinOrNone(items []string) string {
	if len(items) == 0 {
		return "None"
	}
	return strings.Join(items, ", ")
}

// ExtractState parses the draft snapshot back out of a built instruction.
// The mock backend uses it to stay behind the gateway contract while still
// coaching against the real draft.
func ExtractState(system string) (*radar.BlipSubmission, bool) {
	start := strings.Index(system, StateMarker)
	end := strings.Index(system, ScoresMarker)
	if start < 0 || end < 0 || end <= start {
		return nil, false
	}
	raw := strings.TrimSpace(system[start+len(StateMarker) : end])
	var b radar.BlipSubmission
	if err := json.Unmarshal([]byte(raw), &b); err != nil {
		return nil, false
	}
	return &b, true
}
