package implementation

import (
	"context"

	"radar-coach-be/internal/entity"
	"radar-coach-be/internal/mapper"
	"radar-coach-be/internal/model"
	"radar-coach-be/internal/repository/contract"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type SubmissionRepositoryImpl struct {
	db     *gorm.DB
	mapper *mapper.SubmissionMapper
}

func NewSubmissionRepository(db *gorm.DB) contract.SubmissionRepository {
	return &SubmissionRepositoryImpl{
		db:     db,
		mapper: mapper.NewSubmissionMapper(),
	}
}

func (r *SubmissionRepositoryImpl) Save(ctx context.Context, submission *entity.Submission) error {
	if submission.Id == uuid.Nil {
		submission.Id = uuid.New()
	}
	m, err := r.mapper.SubmissionToModel(submission)
	if err != nil {
		return err
	}
	if err := r.db.WithContext(ctx).Create(m).Error; err != nil {
		return err
	}
	submission.SubmittedAt = m.SubmittedAt
	return nil
}

func (r *SubmissionRepositoryImpl) FindAll(ctx context.Context) ([]*entity.Submission, error) {
	var models []*model.Submission
	if err := r.db.WithContext(ctx).Order("submitted_at DESC").Find(&models).Error; err != nil {
		return nil, err
	}

	out := make([]*entity.Submission, 0, len(models))
	for _, m := range models {
		e, err := r.mapper.SubmissionToEntity(m)
		if err != nil {
			return nil, err
		}
		out = append(out, e)
	}
	return out, nil
}
