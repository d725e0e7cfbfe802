package coach

import "radar-coach-be/pkg/llm"

// toolSchemas declares the two actions the model may take. The field list
// mirrors the closed enumeration in pkg/radar; anything outside it is
// rejected at merge time anyway.
func toolSchemas() []llm.ToolSchema {
	return []llm.ToolSchema{
		{
			Name: llm.ToolExtractFields,
			Description: "Extract and save blip submission fields from the conversation. " +
				"Call this whenever the user provides substantive information. Only " +
				"include fields you learned something new about.",
			InputSchema: map[string]interface{}{
				"type": "object",
				"properties": map[string]interface{}{
					"name": map[string]interface{}{
						"type":        "string",
						"description": "The technology, technique, platform, or tool name",
					},
					"quadrant": map[string]interface{}{
						"type": "string",
						"enum": []string{"Techniques", "Tools", "Platforms", "Languages & Frameworks"},
					},
					"ring": map[string]interface{}{
						"type": "string",
						"enum": []string{"Adopt", "Trial", "Assess", "Hold"},
					},
					"description": map[string]interface{}{
						"type":        "string",
						"description": "What the technology is and why it matters",
					},
					"why_now": map[string]interface{}{
						"type":        "string",
						"description": "Why this is relevant for the upcoming edition",
					},
					"client_references": map[string]interface{}{
						"type":        "array",
						"items":       map[string]interface{}{"type": "string"},
						"description": "Client or project engagements where it was used",
					},
					"alternatives_considered": map[string]interface{}{
						"type":  "array",
						"items": map[string]interface{}{"type": "string"},
					},
					"submitter_name":    map[string]interface{}{"type": "string"},
					"submitter_contact": map[string]interface{}{"type": "string"},
					"strengths": map[string]interface{}{
						"type":  "array",
						"items": map[string]interface{}{"type": "string"},
					},
					"weaknesses": map[string]interface{}{
						"type":  "array",
						"items": map[string]interface{}{"type": "string"},
					},
					"is_resubmission": map[string]interface{}{"type": "boolean"},
					"resubmission_rationale": map[string]interface{}{
						"type":        "string",
						"description": "Why the blip deserves another look: refresh, still relevant, or ring change",
					},
					"append": map[string]interface{}{
						"type":        "boolean",
						"description": "When true, list fields extend the stored values instead of replacing them",
					},
				},
			},
		},
		{
			Name: llm.ToolSearchDuplicates,
			Description: "Search previous radar editions for blips with the same or a " +
				"similar name. Call this once you learn the technology name.",
			InputSchema: map[string]interface{}{
				"type": "object",
				"properties": map[string]interface{}{
					"query": map[string]interface{}{
						"type":        "string",
						"description": "The technology name to look up",
					},
				},
				"required": []string{"query"},
			},
		},
	}
}
