package contract

import (
	"context"

	"radar-coach-be/internal/entity"
)

// SubmissionRepository archives finalized submissions. Both the postgres
// and the JSON-file implementations satisfy it; the container picks one
// from configuration.
type SubmissionRepository interface {
	Save(ctx context.Context, submission *entity.Submission) error
	FindAll(ctx context.Context) ([]*entity.Submission, error)
}
