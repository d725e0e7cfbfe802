package mapper

import (
	"encoding/json"

	"radar-coach-be/internal/entity"
	"radar-coach-be/internal/model"
	"radar-coach-be/pkg/radar"
)

type SubmissionMapper struct{}

func NewSubmissionMapper() *SubmissionMapper {
	return &SubmissionMapper{}
}

func (m *SubmissionMapper) SubmissionToEntity(s *model.Submission) (*entity.Submission, error) {
	if s == nil {
		return nil, nil
	}

	var blip radar.BlipSubmission
	if len(s.Blip) > 0 {
		if err := json.Unmarshal(s.Blip, &blip); err != nil {
			return nil, err
		}
	}

	return &entity.Submission{
		Id:           s.Id,
		SessionId:    s.SessionId,
		Blip:         blip,
		Completeness: s.Completeness,
		Quality:      s.Quality,
		SubmittedAt:  s.SubmittedAt,
	}, nil
}

func (m *SubmissionMapper) SubmissionToModel(s *entity.Submission) (*model.Submission, error) {
	if s == nil {
		return nil, nil
	}

	raw, err := json.Marshal(&s.Blip)
	if err != nil {
		return nil, err
	}

	return &model.Submission{
		Id:           s.Id,
		SessionId:    s.SessionId,
		Blip:         raw,
		Completeness: s.Completeness,
		Quality:      s.Quality,
		SubmittedAt:  s.SubmittedAt,
	}, nil
}
