package radar

import (
	"encoding/json"
	"fmt"
	"strings"

	"radar-coach-be/pkg/radar/sanitize"
)

// Quadrant is the technology category axis of a blip.
type Quadrant string

const (
	QuadrantTechniques          Quadrant = "Techniques"
	QuadrantTools               Quadrant = "Tools"
	QuadrantPlatforms           Quadrant = "Platforms"
	QuadrantLanguagesFrameworks Quadrant = "Languages & Frameworks"
)

// Ring is the adoption-confidence axis, ordered Hold < Assess < Trial < Adopt.
type Ring string

const (
	RingHold   Ring = "Hold"
	RingAssess Ring = "Assess"
	RingTrial  Ring = "Trial"
	RingAdopt  Ring = "Adopt"
)

// Rank returns the evidence-bar ordering of the ring (Hold lowest).
func (r Ring) Rank() int {
	switch r {
	case RingHold:
		return 1
	case RingAssess:
		return 2
	case RingTrial:
		return 3
	case RingAdopt:
		return 4
	}
	return 0
}

// ParseRing maps a user/model supplied string to a Ring, case-insensitively.
func ParseRing(s string) (Ring, bool) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "hold":
		return RingHold, true
	case "assess":
		return RingAssess, true
	case "trial":
		return RingTrial, true
	case "adopt":
		return RingAdopt, true
	}
	return "", false
}

// ParseQuadrant maps a string to a Quadrant. It tolerates the hyphenated
// lowercase forms used by the historical CSV volumes.
func ParseQuadrant(s string) (Quadrant, bool) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "techniques":
		return QuadrantTechniques, true
	case "tools":
		return QuadrantTools, true
	case "platforms":
		return QuadrantPlatforms, true
	case "languages & frameworks", "languages and frameworks", "languages-and-frameworks":
		return QuadrantLanguagesFrameworks, true
	}
	return "", false
}

// BlipSubmission is the structured record a conversation session builds up.
// Fields stay empty until the extraction tool fills them; mutation goes
// through Patch application only, never wholesale replacement.
type BlipSubmission struct {
	Name                   string   `json:"name,omitempty"`
	Quadrant               Quadrant `json:"quadrant,omitempty"`
	Ring                   Ring     `json:"ring,omitempty"`
	Description            string   `json:"description,omitempty"`
	WhyNow                 string   `json:"why_now,omitempty"`
	ClientReferences       []string `json:"client_references,omitempty"`
	AlternativesConsidered []string `json:"alternatives_considered,omitempty"`
	SubmitterName          string   `json:"submitter_name,omitempty"`
	SubmitterContact       string   `json:"submitter_contact,omitempty"`
	Strengths              []string `json:"strengths,omitempty"`
	Weaknesses             []string `json:"weaknesses,omitempty"`

	// Resubmission metadata (unweighted)
	IsResubmission        bool   `json:"is_resubmission,omitempty"`
	ResubmissionRationale string `json:"resubmission_rationale,omitempty"`
}

// Clone returns a deep copy safe to hand across goroutine boundaries.
func (b *BlipSubmission) Clone() *BlipSubmission {
	c := *b
	c.ClientReferences = append([]string(nil), b.ClientReferences...)
	c.AlternativesConsidered = append([]string(nil), b.AlternativesConsidered...)
	c.Strengths = append([]string(nil), b.Strengths...)
	c.Weaknesses = append([]string(nil), b.Weaknesses...)
	return &c
}

// StateJSON renders the filled fields for prompt injection.
func (b *BlipSubmission) StateJSON() string {
	data, err := json.MarshalIndent(b, "", "  ")
	if err != nil {
		return "{}"
	}
	return string(data)
}

type fieldKind int

const (
	kindText fieldKind = iota
	kindRing
	kindQuadrant
	kindList
	kindBool
)

type fieldSpec struct {
	name   string
	weight int
	kind   fieldKind
}

// fieldSpecs is the closed field enumeration. Weighted fields sum to 100;
// the two resubmission fields carry no weight.
var fieldSpecs = []fieldSpec{
	{"name", 10, kindText},
	{"quadrant", 5, kindQuadrant},
	{"ring", 5, kindRing},
	{"description", 25, kindText},
	{"why_now", 15, kindText},
	{"client_references", 10, kindList},
	{"alternatives_considered", 10, kindList},
	{"submitter_name", 5, kindText},
	{"submitter_contact", 5, kindText},
	{"strengths", 5, kindList},
	{"weaknesses", 5, kindList},
	{"is_resubmission", 0, kindBool},
	{"resubmission_rationale", 0, kindText},
}

func specFor(name string) (fieldSpec, bool) {
	for _, fs := range fieldSpecs {
		if fs.name == name {
			return fs, true
		}
	}
	return fieldSpec{}, false
}

// Patch is a validated field-update map. Unknown field names and malformed
// values never make it into a Patch; they come back as rejected names from
// ParsePatch instead.
type Patch struct {
	values      map[string]interface{}
	appendLists bool
}

// ParsePatch validates a raw extract_fields argument payload. The reserved
// "append" key switches sequence fields from replace-on-merge to
// append-on-merge for this patch. Null values are ignored (the extraction
// schema requires every key, so absent knowledge arrives as null). The
// returned rejected list carries the names that failed validation; only a
// structurally unreadable payload is an error.
func ParsePatch(args json.RawMessage) (*Patch, []string, error) {
	var raw map[string]json.RawMessage
	if len(args) > 0 {
		if err := json.Unmarshal(args, &raw); err != nil {
			return nil, nil, fmt.Errorf("malformed extract_fields payload: %w", err)
		}
	}

	patch := &Patch{values: make(map[string]interface{})}
	var rejected []string

	if flag, ok := raw["append"]; ok {
		_ = json.Unmarshal(flag, &patch.appendLists)
		delete(raw, "append")
	}

	for key, val := range raw {
		if string(val) == "null" {
			continue
		}
		fs, known := specFor(key)
		if !known {
			rejected = append(rejected, key)
			continue
		}
		value, ok := decodeFieldValue(fs, val)
		if !ok {
			rejected = append(rejected, key)
			continue
		}
		patch.values[key] = value
	}
	return patch, sortByFieldOrder(rejected), nil
}

func decodeFieldValue(fs fieldSpec, val json.RawMessage) (interface{}, bool) {
	switch fs.kind {
	case kindText:
		var s string
		if err := json.Unmarshal(val, &s); err != nil {
			return nil, false
		}
		return sanitize.Field(s), true
	case kindRing:
		var s string
		if err := json.Unmarshal(val, &s); err != nil {
			return nil, false
		}
		ring, ok := ParseRing(s)
		if !ok {
			return nil, false
		}
		return ring, true
	case kindQuadrant:
		var s string
		if err := json.Unmarshal(val, &s); err != nil {
			return nil, false
		}
		quad, ok := ParseQuadrant(s)
		if !ok {
			return nil, false
		}
		return quad, true
	case kindList:
		var items []string
		if err := json.Unmarshal(val, &items); err != nil {
			return nil, false
		}
		return sanitize.List(items), true
	case kindBool:
		var b bool
		if err := json.Unmarshal(val, &b); err != nil {
			return nil, false
		}
		return b, true
	}
	return nil, false
}

// IsEmpty reports whether the patch carries no valid field updates.
func (p *Patch) IsEmpty() bool { return len(p.values) == 0 }

// FieldNames returns the touched field names in canonical field order.
func (p *Patch) FieldNames() []string {
	names := make([]string, 0, len(p.values))
	for name := range p.values {
		names = append(names, name)
	}
	return sortByFieldOrder(names)
}

// Apply merges the patch into the submission, field by field. Sequence
// fields are replaced unless the patch was parsed with append=true, in
// which case new items extend the existing sequence. The echo map holds the
// post-merge value of every touched field.
func (b *BlipSubmission) Apply(p *Patch) map[string]interface{} {
	echo := make(map[string]interface{}, len(p.values))
	for name, value := range p.values {
		switch name {
		case "name":
			b.Name = value.(string)
		case "quadrant":
			b.Quadrant = value.(Quadrant)
		case "ring":
			b.Ring = value.(Ring)
		case "description":
			b.Description = value.(string)
		case "why_now":
			b.WhyNow = value.(string)
		case "client_references":
			b.ClientReferences = mergeList(b.ClientReferences, value.([]string), p.appendLists)
		case "alternatives_considered":
			b.AlternativesConsidered = mergeList(b.AlternativesConsidered, value.([]string), p.appendLists)
		case "strengths":
			b.Strengths = mergeList(b.Strengths, value.([]string), p.appendLists)
		case "weaknesses":
			b.Weaknesses = mergeList(b.Weaknesses, value.([]string), p.appendLists)
		case "submitter_name":
			b.SubmitterName = value.(string)
		case "submitter_contact":
			b.SubmitterContact = value.(string)
		case "is_resubmission":
			b.IsResubmission = value.(bool)
		case "resubmission_rationale":
			b.ResubmissionRationale = value.(string)
		}
		echo[name] = b.fieldValue(name)
	}
	return echo
}

func mergeList(existing, incoming []string, appendMode bool) []string {
	if !appendMode {
		return append([]string(nil), incoming...)
	}
	merged := append([]string(nil), existing...)
	for _, item := range incoming {
		if !containsString(merged, item) {
			merged = append(merged, item)
		}
	}
	return merged
}

func containsString(items []string, target string) bool {
	for _, item := range items {
		if item == target {
			return true
		}
	}
	return false
}

func (b *BlipSubmission) fieldValue(name string) interface{} {
	switch name {
	case "name":
		return b.Name
	case "quadrant":
		return b.Quadrant
	case "ring":
		return b.Ring
	case "description":
		return b.Description
	case "why_now":
		return b.WhyNow
	case "client_references":
		return append([]string(nil), b.ClientReferences...)
	case "alternatives_considered":
		return append([]string(nil), b.AlternativesConsidered...)
	case "strengths":
		return append([]string(nil), b.Strengths...)
	case "weaknesses":
		return append([]string(nil), b.Weaknesses...)
	case "submitter_name":
		return b.SubmitterName
	case "submitter_contact":
		return b.SubmitterContact
	case "is_resubmission":
		return b.IsResubmission
	case "resubmission_rationale":
		return b.ResubmissionRationale
	}
	return nil
}

// Filled reports whether the named field carries a meaningful value:
// a non-blank string, a non-empty sequence, or a set enum.
func (b *BlipSubmission) Filled(name string) bool {
	switch v := b.fieldValue(name).(type) {
	case string:
		return strings.TrimSpace(v) != ""
	case Ring:
		return v != ""
	case Quadrant:
		return v != ""
	case []string:
		return len(v) > 0
	case bool:
		return true
	}
	return false
}

func sortByFieldOrder(names []string) []string {
	if len(names) < 2 {
		return names
	}
	ordered := make([]string, 0, len(names))
	for _, fs := range fieldSpecs {
		if containsString(names, fs.name) {
			ordered = append(ordered, fs.name)
		}
	}
	// Unknown names (possible in rejected lists) keep their original order.
	for _, n := range names {
		if !containsString(ordered, n) {
			ordered = append(ordered, n)
		}
	}
	return ordered
}
