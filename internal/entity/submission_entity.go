package entity

import (
	"time"

	"github.com/google/uuid"

	"radar-coach-be/pkg/radar"
)

type Submission struct {
	Id           uuid.UUID
	SessionId    string
	Blip         radar.BlipSubmission
	Completeness float64
	Quality      float64
	SubmittedAt  time.Time
}
