// Package mock is the dev-mode backend: no API key, no network. It drives
// the same tool-use protocol as the live backend by keyword-matching the
// latest user message, so the quality meter and duplicate detection behave
// exactly as they do in production.
package mock

import (
	"context"
	"encoding/json"
	"fmt"
	"regexp"
	"strings"
	"time"

	"radar-coach-be/pkg/coach/prompt"
	"radar-coach-be/pkg/llm"
	"radar-coach-be/pkg/radar"
)

type Provider struct {
	// Delay between streamed words, overridable in tests.
	ChunkDelay time.Duration
}

var _ llm.Gateway = &Provider{}

func NewProvider() *Provider {
	return &Provider{ChunkDelay: 20 * time.Millisecond}
}

var (
	ringPattern      = regexp.MustCompile(`(?i)\b(adopt|trial|assess|hold)\b`)
	quotedPattern    = regexp.MustCompile(`"([^"]+)"|'([^']+)'`)
	fillerPattern    = regexp.MustCompile(`(?i)^(i'?d? ?like to submit|i want to submit|let'?s do|how about|submit|what about|i'?m submitting)\s*`)
	submitterPattern = regexp.MustCompile(`(?i)(?:my name is|i'm|i am)\s+(\w+(?:\s+\w+)?)`)
	emailPattern     = regexp.MustCompile(`[\w.+-]+@[\w-]+\.[\w.]+`)
)

var quadrantKeywords = []struct {
	keyword string
	value   radar.Quadrant
}{
	{"languages & frameworks", radar.QuadrantLanguagesFrameworks},
	{"languages and frameworks", radar.QuadrantLanguagesFrameworks},
	{"languages-and-frameworks", radar.QuadrantLanguagesFrameworks},
	{"techniques", radar.QuadrantTechniques},
	{"platforms", radar.QuadrantPlatforms},
	{"frameworks", radar.QuadrantLanguagesFrameworks},
	{"languages", radar.QuadrantLanguagesFrameworks},
	{"tools", radar.QuadrantTools},
}

// Question markers let the mock recover which field its previous reply
// asked about, so a free-form answer can be assigned to it.
var pendingMarkers = []struct {
	marker string
	field  string
}{
	{"What technology or technique", "name"},
	{"Which ring would you recommend", "ring"},
	{"Which quadrant does this belong", "quadrant"},
	{"the most important part", "description"},
	{"client project", "client_references"},
	{"What alternatives", "alternatives_considered"},
	{"weaknesses or limitations", "weaknesses"},
	{"the right time", "why_now"},
	{"tell me your name", "submitter_name"},
	{"best way to reach you", "submitter_contact"},
}

// Complete plays one gateway round. On a fresh user message it answers
// with tool calls (duplicate lookup on a newly learned name, then a field
// extraction); once tool results come back it streams a coaching reply
// aimed at the next gap.
func (p *Provider) Complete(ctx context.Context, req llm.Request) (llm.Reply, error) {
	state, ok := prompt.ExtractState(req.System)
	if !ok {
		state = &radar.BlipSubmission{}
	}
	userText, isSubmit := latestUserTurn(req.History)

	if len(req.History) == 0 || req.History[len(req.History)-1].Role != llm.RoleTool {
		changes := p.extractChanges(userText, state, pendingField(req.History))
		if len(changes) > 0 {
			return toolCallReply(changes, state), nil
		}
	}

	text := p.coachingReply(req.History, state, userText, isSubmit)
	return p.stream(ctx, text, req.OnDelta)
}

func latestUserTurn(history []llm.Message) (string, bool) {
	submit := false
	for i := len(history) - 1; i >= 0; i-- {
		msg := history[i]
		if msg.Role != llm.RoleUser || msg.Content == "" {
			continue
		}
		if strings.HasPrefix(msg.Content, "[SYSTEM:") {
			submit = true
			continue
		}
		return msg.Content, submit
	}
	return "", submit
}

func pendingField(history []llm.Message) string {
	for i := len(history) - 1; i >= 0; i-- {
		msg := history[i]
		if msg.Role != llm.RoleAssistant || msg.Content == "" {
			continue
		}
		for _, pm := range pendingMarkers {
			if strings.Contains(msg.Content, pm.marker) {
				return pm.field
			}
		}
		return ""
	}
	return ""
}

// extractChanges is a rough keyword extraction from the user message —
// intentionally simple, just enough to drive the quality meter in dev mode.
func (p *Provider) extractChanges(text string, state *radar.BlipSubmission, pending string) map[string]interface{} {
	if strings.TrimSpace(text) == "" {
		return nil
	}
	lower := strings.ToLower(text)
	changes := make(map[string]interface{})

	if m := ringPattern.FindStringSubmatch(text); m != nil {
		if ring, ok := radar.ParseRing(m[1]); ok {
			changes["ring"] = string(ring)
		}
	}
	for _, qk := range quadrantKeywords {
		if strings.Contains(lower, qk.keyword) {
			changes["quadrant"] = string(qk.value)
			break
		}
	}

	if state.Name == "" {
		if m := quotedPattern.FindStringSubmatch(text); m != nil {
			name := m[1]
			if name == "" {
				name = m[2]
			}
			changes["name"] = name
		} else if stripped := strings.Trim(strings.TrimSpace(fillerPattern.ReplaceAllString(text, "")), ".,!?"); stripped != "" {
			changes["name"] = stripped
		}
	}

	if strings.Contains(lower, "client") || strings.Contains(lower, "production") || strings.Contains(lower, "project") {
		ref := truncateRunes(text, 120)
		refs := append([]string(nil), state.ClientReferences...)
		if !containsString(refs, ref) {
			changes["client_references"] = append(refs, ref)
		}
	}

	if len(text) > 80 && state.Description == "" {
		changes["description"] = text
	}

	if state.SubmitterName == "" {
		if m := submitterPattern.FindStringSubmatch(text); m != nil {
			changes["submitter_name"] = m[1]
		}
	}
	if m := emailPattern.FindString(text); m != "" {
		changes["submitter_contact"] = m
	}

	// Pending-question fallback: assign the raw answer to whatever field
	// the previous reply asked about. Enum fields are skipped since free
	// text is not a valid value for them.
	if pending != "" && pending != "ring" && pending != "quadrant" {
		if _, already := changes[pending]; !already && !state.Filled(pending) {
			switch pending {
			case "client_references", "alternatives_considered", "strengths", "weaknesses":
				changes[pending] = []string{strings.TrimSpace(text)}
			default:
				changes[pending] = strings.TrimSpace(text)
			}
		}
	}
	return changes
}

func toolCallReply(changes map[string]interface{}, state *radar.BlipSubmission) llm.Reply {
	var reply llm.Reply
	if name, ok := changes["name"].(string); ok && state.Name == "" {
		args, _ := json.Marshal(map[string]string{"query": name})
		reply.ToolCalls = append(reply.ToolCalls, llm.ToolCall{
			ID:        fmt.Sprintf("mock_search_%d", time.Now().UnixNano()),
			Name:      llm.ToolSearchDuplicates,
			Arguments: args,
		})
	}
	args, _ := json.Marshal(changes)
	reply.ToolCalls = append(reply.ToolCalls, llm.ToolCall{
		ID:        fmt.Sprintf("mock_extract_%d", time.Now().UnixNano()),
		Name:      llm.ToolExtractFields,
		Arguments: args,
	})
	return reply
}

func (p *Provider) coachingReply(history []llm.Message, state *radar.BlipSubmission, userText string, isSubmit bool) string {
	response := pickResponse(state, isSubmit)
	if dup := duplicateNotice(history, state); dup != "" {
		response = dup + response
	}
	return response
}

// duplicateNotice surfaces a search_duplicates result from the current
// round, mirroring the resubmission flow the live backend is prompted for.
func duplicateNotice(history []llm.Message, state *radar.BlipSubmission) string {
	for i := len(history) - 1; i >= 0; i-- {
		msg := history[i]
		if msg.Role == llm.RoleUser && msg.Content != "" {
			return ""
		}
		if msg.Role != llm.RoleTool {
			continue
		}
		for _, tr := range msg.ToolResults {
			if tr.Name != llm.ToolSearchDuplicates {
				continue
			}
			var result struct {
				Found   bool `json:"found"`
				Matches []struct {
					Name   string `json:"name"`
					Ring   string `json:"ring"`
					Volume string `json:"volume"`
				} `json:"matches"`
			}
			if err := json.Unmarshal(tr.Content, &result); err != nil || !result.Found {
				return ""
			}
			var vols []string
			for i, m := range result.Matches {
				if i == 3 {
					break
				}
				vols = append(vols, fmt.Sprintf("**%s** (%s ring)", m.Volume, m.Ring))
			}
			more := ""
			if extra := len(result.Matches) - 3; extra > 0 {
				more = fmt.Sprintf(" and %d more", extra)
			}
			return fmt.Sprintf(
				"I noticed **%s** has appeared in previous radar editions: %s%s.\n\n"+
					"Since this is a resubmission, could you tell me your reason?\n\n"+
					"1. **The write-up needs a refresh** — same ring, but the landscape has changed\n"+
					"2. **Still important, should appear again** — it remains highly relevant\n"+
					"3. **The ring should change** — you'd like to move it to a different ring\n"+
					"4. **Cancel this submission**\n\n",
				state.Name, strings.Join(vols, ", "), more)
		}
	}
	return ""
}

func pickResponse(b *radar.BlipSubmission, isSubmit bool) string {
	if isSubmit {
		c, q := radar.Scores(b)
		name := b.Name
		if name == "" {
			name = "Unnamed"
		}
		ring := string(b.Ring)
		if ring == "" {
			ring = "No ring"
		}
		quad := string(b.Quadrant)
		if quad == "" {
			quad = "No quadrant"
		}
		summary := fmt.Sprintf(
			"Thanks for your submission! Here's a summary:\n\n**%s** — %s / %s\n\n"+
				"Completeness: %.0f%%\nQuality: %.0f%%\n", name, ring, quad, c, q)
		if missing := radar.MissingFields(b); len(missing) > 0 {
			summary += fmt.Sprintf("\nStill missing: %s", strings.Join(missing, ", "))
		}
		if gaps := radar.RingGaps(b); len(gaps) > 0 {
			summary += fmt.Sprintf("\nRing-specific gaps: %s", strings.Join(gaps, ", "))
		}
		return summary
	}

	switch {
	case b.Name == "":
		return "Thanks for starting a submission! What technology or technique " +
			"would you like to submit? Please give me the name."
	case b.Ring == "":
		return fmt.Sprintf("Great — **%s** is an interesting choice. "+
			"Which ring would you recommend?\n\n"+
			"- **Adopt**: the industry should strongly consider this\n"+
			"- **Trial**: worth pursuing — it has worked in production\n"+
			"- **Assess**: worth exploring to understand how it will affect you\n"+
			"- **Hold**: proceed with caution", b.Name)
	case b.Quadrant == "":
		return fmt.Sprintf("Got it — %s for the **%s** ring. "+
			"Which quadrant does this belong in?\n\n"+
			"- **Techniques** (processes, architectural patterns)\n"+
			"- **Tools** (software applications and utilities)\n"+
			"- **Platforms** (cloud, infrastructure, runtime environments)\n"+
			"- **Languages & Frameworks**", b.Name, b.Ring)
	case b.Description == "":
		return fmt.Sprintf("Now for the most important part — the description. "+
			"For a **%s** recommendation, write at least a paragraph covering:\n\n"+
			"- What %s is and what problem it solves\n"+
			"- Your experience using it (client projects, outcomes)\n"+
			"- Why you're recommending this ring placement", b.Ring, b.Name)
	case len(b.ClientReferences) == 0:
		switch b.Ring {
		case radar.RingAdopt:
			return fmt.Sprintf("Can you describe client projects where %s was used? "+
				"For an Adopt recommendation, at least 2 client references "+
				"strengthen the case significantly.", b.Name)
		case radar.RingTrial:
			return fmt.Sprintf("Can you describe a client project where %s was used? "+
				"For a Trial recommendation, at least 1 client reference "+
				"helps support the placement.", b.Name)
		default:
			return fmt.Sprintf("Can you describe a client project where %s was used? "+
				"Concrete references strengthen any submission.", b.Name)
		}
	case len(b.AlternativesConsidered) == 0:
		return fmt.Sprintf("What alternatives to %s did you consider? "+
			"Knowing what you compared it against helps the review board "+
			"understand your recommendation.", b.Name)
	case len(b.Weaknesses) == 0:
		return fmt.Sprintf("What are the known weaknesses or limitations of %s? "+
			"Being upfront about drawbacks actually strengthens your submission.", b.Name)
	case b.WhyNow == "":
		return fmt.Sprintf("Why is now the right time to feature %s on the radar? "+
			"What's changed recently that makes it relevant?", b.Name)
	case b.SubmitterName == "":
		return "We're getting close! Before you submit, can you tell me your " +
			"name so the review board can follow up if needed?"
	case b.SubmitterContact == "":
		return "And what's the best way to reach you? (email or Slack handle)"
	}

	c, q := radar.Scores(b)
	return fmt.Sprintf("Your submission is looking solid! Completeness: %.0f%%, "+
		"Quality: %.0f%%.\n\nFeel free to add more detail to any section, or "+
		"submit when you're ready.", c, q)
}

// stream delivers the reply word by word through OnDelta for a realistic
// typing feel, then returns the full text.
func (p *Provider) stream(ctx context.Context, text string, onDelta func(string)) (llm.Reply, error) {
	if onDelta != nil {
		words := strings.Split(text, " ")
		for i, word := range words {
			select {
			case <-ctx.Done():
				return llm.Reply{}, ctx.Err()
			default:
			}
			chunk := word
			if i > 0 {
				chunk = " " + word
			}
			onDelta(chunk)
			if p.ChunkDelay > 0 {
				time.Sleep(p.ChunkDelay)
			}
		}
	}
	return llm.Reply{Text: text}, nil
}

func truncateRunes(s string, n int) string {
	runes := []rune(s)
	if len(runes) <= n {
		return s
	}
	return string(runes[:n])
}

func containsString(items []string, target string) bool {
	for _, item := range items {
		if item == target {
			return true
		}
	}
	return false
}
