package model

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
)

type Submission struct {
	Id           uuid.UUID      `gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	SessionId    string         `gorm:"type:text;not null;index"`
	Blip         datatypes.JSON `gorm:"not null"`
	Completeness float64        `gorm:"not null"`
	Quality      float64        `gorm:"not null"`
	SubmittedAt  time.Time      `gorm:"autoCreateTime;index"`
}

func (Submission) TableName() string {
	return "submissions"
}
