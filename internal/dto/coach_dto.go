package dto

import (
	"time"

	"github.com/google/uuid"

	"radar-coach-be/pkg/radar"
)

// ClientAction is the single inbound frame shape on the coaching channel.
// An empty action defaults to "message".
type ClientAction struct {
	Action  string `json:"action" validate:"omitempty,oneof=message submit reset"`
	Message string `json:"message" validate:"max=4000"`
}

const (
	ActionMessage = "message"
	ActionSubmit  = "submit"
	ActionReset   = "reset"
)

// Outbound event types on the coaching channel.
const (
	EventAssistantMessage   = "assistant_message"
	EventAssistantChunk     = "assistant_chunk"
	EventAssistantDone      = "assistant_done"
	EventQualityUpdate      = "quality_update"
	EventSubmissionComplete = "submission_complete"
	EventError              = "error"
)

type AssistantMessageEvent struct {
	Type    string `json:"type"`
	Content string `json:"content"`
}

type AssistantChunkEvent struct {
	Type    string `json:"type"`
	Content string `json:"content"`
}

type AssistantDoneEvent struct {
	Type string `json:"type"`
}

type QualityUpdateEvent struct {
	Type          string                `json:"type"`
	Completeness  float64               `json:"completeness"`
	Quality       float64               `json:"quality"`
	BlipState     *radar.BlipSubmission `json:"blip_state"`
	MissingFields []string              `json:"missing_fields"`
	RingGaps      []string              `json:"ring_gaps"`
}

type SubmissionCompleteEvent struct {
	Type         string                `json:"type"`
	SubmissionId uuid.UUID             `json:"submission_id"`
	Submission   *radar.BlipSubmission `json:"submission"`
	Completeness float64               `json:"completeness"`
	Quality      float64               `json:"quality"`
}

type ErrorEvent struct {
	Type    string `json:"type"`
	Message string `json:"message"`
}

// SubmissionResponse is the archive read model served over REST.
type SubmissionResponse struct {
	Id           uuid.UUID             `json:"id"`
	SessionId    string                `json:"session_id"`
	Blip         *radar.BlipSubmission `json:"blip"`
	Completeness float64               `json:"completeness"`
	Quality      float64               `json:"quality"`
	SubmittedAt  time.Time             `json:"submitted_at"`
}
