package service

import (
	"context"
	"errors"
	"time"

	"radar-coach-be/internal/dto"
	"radar-coach-be/internal/entity"
	"radar-coach-be/internal/pkg/logger"
	"radar-coach-be/internal/repository/contract"
	"radar-coach-be/pkg/coach"
)

const devBanner = "[DEV MODE — using mock responses, no API key needed]\n\n"

const welcomeBody = "Welcome to the Technology Radar blip submission tool! " +
	"I'll help you craft a strong submission for the next radar edition.\n\n" +
	"To get started, tell me about the technology or technique you'd like " +
	"to submit. You can include as much or as little detail as you'd like — " +
	"I'll ask follow-up questions to help strengthen your submission.\n\n" +
	"You can click **Submit Blip** at any time to finalize your submission."

// Emitter is how the coach service pushes events to one connected client.
// The channel layer implements it over the live connection.
type Emitter interface {
	AssistantMessage(content string)
	AssistantChunk(content string)
	AssistantDone()
	QualityUpdate(update coach.QualityUpdate)
	SubmissionComplete(record *dto.SubmissionCompleteEvent)
	Error(message string)
}

// ICoachService defines the conversational coaching surface.
type ICoachService interface {
	Welcome(sessionID string, emit Emitter)
	HandleAction(ctx context.Context, sessionID string, action *dto.ClientAction, emit Emitter)
	EndSession(sessionID string)
	Submissions(ctx context.Context) ([]*dto.SubmissionResponse, error)
}

type coachService struct {
	manager        *coach.Manager
	engine         *coach.Engine
	submissionRepo contract.SubmissionRepository
	log            logger.ILogger
	devMode        bool
}

func NewCoachService(
	manager *coach.Manager,
	engine *coach.Engine,
	submissionRepo contract.SubmissionRepository,
	log logger.ILogger,
	devMode bool,
) ICoachService {
	return &coachService{
		manager:        manager,
		engine:         engine,
		submissionRepo: submissionRepo,
		log:            log,
		devMode:        devMode,
	}
}

func (s *coachService) welcomeMessage() string {
	if s.devMode {
		return devBanner + welcomeBody
	}
	return welcomeBody
}

// Welcome greets a newly connected client and pushes the current quality
// picture, which is non-zero when the client reconnects to a live session.
func (s *coachService) Welcome(sessionID string, emit Emitter) {
	sess := s.manager.Ensure(sessionID)
	emit.AssistantMessage(s.welcomeMessage())
	emit.QualityUpdate(s.engine.Snapshot(sess))
}

func (s *coachService) HandleAction(ctx context.Context, sessionID string, action *dto.ClientAction, emit Emitter) {
	kind := action.Action
	if kind == "" {
		kind = dto.ActionMessage
	}

	switch kind {
	case dto.ActionReset:
		sess := s.manager.Reset(sessionID)
		emit.AssistantMessage(s.welcomeMessage())
		emit.QualityUpdate(s.engine.Snapshot(sess))
	case dto.ActionSubmit:
		s.runTurn(ctx, sessionID, action.Message, true, emit)
	default:
		if action.Message == "" {
			return
		}
		s.runTurn(ctx, sessionID, action.Message, false, emit)
	}
}

func (s *coachService) runTurn(ctx context.Context, sessionID, userText string, submit bool, emit Emitter) {
	sess := s.manager.Ensure(sessionID)

	streamed := false
	onChunk := func(chunk string) {
		streamed = true
		emit.AssistantChunk(chunk)
	}

	result, err := s.engine.HandleTurn(ctx, sess, userText, submit, onChunk)
	if err != nil {
		s.reportTurnError(sessionID, err, emit)
		return
	}

	if !streamed && result.Reply != "" {
		emit.AssistantMessage(result.Reply)
	}
	emit.AssistantDone()
	emit.QualityUpdate(result.Update)

	if result.Submitted {
		s.archive(ctx, sessionID, result.Update, emit)
	}
}

func (s *coachService) reportTurnError(sessionID string, err error, emit Emitter) {
	switch {
	case errors.Is(err, coach.ErrSessionBusy):
		emit.Error("I'm still working on your previous message — one moment.")
	case errors.Is(err, coach.ErrStaleGeneration):
		// the reset handler already re-greeted the client; stale loop
		// output is dropped on purpose
		s.log.Info("coach_service", "discarded stale turn after reset", map[string]interface{}{
			"session": sessionID,
		})
	case errors.Is(err, coach.ErrGateway):
		s.log.Error("coach_service", "gateway unavailable", map[string]interface{}{
			"session": sessionID,
			"error":   err.Error(),
		})
		emit.Error("I'm having trouble reaching the model right now. Please try again.")
	default:
		s.log.Error("coach_service", "turn failed", map[string]interface{}{
			"session": sessionID,
			"error":   err.Error(),
		})
		emit.Error("Something went wrong processing that message. Please try again.")
	}
}

func (s *coachService) archive(ctx context.Context, sessionID string, update coach.QualityUpdate, emit Emitter) {
	record := &entity.Submission{
		SessionId:    sessionID,
		Blip:         *update.Draft,
		Completeness: update.Completeness,
		Quality:      update.Quality,
		SubmittedAt:  time.Now().UTC(),
	}
	if err := s.submissionRepo.Save(ctx, record); err != nil {
		// the submission is final either way; archiving is best effort
		s.log.Error("coach_service", "failed to archive submission", map[string]interface{}{
			"session": sessionID,
			"error":   err.Error(),
		})
	}

	s.log.Info("coach_service", "submission finalized", map[string]interface{}{
		"session": sessionID,
		"name":    update.Draft.Name,
		"quality": update.Quality,
	})
	emit.SubmissionComplete(&dto.SubmissionCompleteEvent{
		Type:         dto.EventSubmissionComplete,
		SubmissionId: record.Id,
		Submission:   update.Draft,
		Completeness: update.Completeness,
		Quality:      update.Quality,
	})
}

// EndSession drops the session when its connection closes. Draft state is
// process-lifetime only; a new connection with the same id starts fresh
// once the idle TTL has evicted it.
func (s *coachService) EndSession(sessionID string) {
	s.log.Info("coach_service", "session channel closed", map[string]interface{}{
		"session": sessionID,
	})
}

func (s *coachService) Submissions(ctx context.Context) ([]*dto.SubmissionResponse, error) {
	records, err := s.submissionRepo.FindAll(ctx)
	if err != nil {
		return nil, err
	}

	out := make([]*dto.SubmissionResponse, 0, len(records))
	for _, r := range records {
		blip := r.Blip
		out = append(out, &dto.SubmissionResponse{
			Id:           r.Id,
			SessionId:    r.SessionId,
			Blip:         &blip,
			Completeness: r.Completeness,
			Quality:      r.Quality,
			SubmittedAt:  r.SubmittedAt,
		})
	}
	return out, nil
}
