package bootstrap

import (
	"fmt"
	"time"

	"radar-coach-be/internal/config"
	"radar-coach-be/internal/controller"
	"radar-coach-be/internal/model"
	"radar-coach-be/internal/pkg/logger"
	"radar-coach-be/internal/repository/contract"
	"radar-coach-be/internal/repository/file"
	"radar-coach-be/internal/repository/implementation"
	"radar-coach-be/internal/service"
	"radar-coach-be/pkg/coach"
	"radar-coach-be/pkg/database"
	"radar-coach-be/pkg/llm/factory"
	"radar-coach-be/pkg/radar/history"
)

type Container struct {
	// Controllers
	SubmissionController controller.ISubmissionController

	// Services (exposed for the websocket route)
	CoachService service.ICoachService

	Logger logger.ILogger

	// ChannelLogger keeps the per-frame conversation logs out of the main
	// log file.
	ChannelLogger logger.ILogger

	HistoryCount int
}

func NewContainer(cfg *config.Config) (*Container, error) {
	// 1. Core facades
	sysLogger := logger.NewZapLogger(cfg.App.LogFilePath, cfg.App.Environment == "production")
	chanLogger := logger.NewIsolatedLogger(cfg.App.ChannelLogFilePath)

	// 2. Reference index. Zero loaded editions makes duplicate detection
	// silently useless, so that is startup-fatal rather than a warning.
	index, err := history.Load(cfg.Coach.HistoryDir, sysLogger)
	if err != nil {
		return nil, fmt.Errorf("load radar history: %w", err)
	}

	// 3. Model gateway, selected once
	gateway, err := factory.NewGateway(cfg.Ai.LLMProvider, cfg.Ai.AnthropicAPIKey, cfg.Ai.ModelName)
	if err != nil {
		return nil, fmt.Errorf("initialize LLM gateway: %w", err)
	}
	sysLogger.Info("bootstrap", "LLM gateway ready", map[string]interface{}{
		"provider": cfg.Ai.LLMProvider,
		"model":    cfg.Ai.ModelName,
	})

	// 4. Conversation engine
	dispatcher := coach.NewDispatcher(index)
	engine := coach.NewEngine(gateway, dispatcher, cfg.Coach.MaxToolRounds, sysLogger)
	manager := coach.NewManager(time.Duration(cfg.Coach.SessionTTLMinutes) * time.Minute)

	// 5. Submission archive: postgres when a DSN is configured, JSON file
	// otherwise
	var submissionRepo contract.SubmissionRepository
	if cfg.Database.Connection != "" {
		db, err := database.NewGormDBFromDSN(cfg.Database.Connection)
		if err != nil {
			return nil, fmt.Errorf("connect submission archive: %w", err)
		}
		if err := db.AutoMigrate(&model.Submission{}); err != nil {
			return nil, fmt.Errorf("migrate submission archive: %w", err)
		}
		submissionRepo = implementation.NewSubmissionRepository(db)
	} else {
		submissionRepo = file.NewSubmissionRepository(cfg.Coach.SubmissionsFile)
	}

	// 6. Services and controllers
	coachService := service.NewCoachService(
		manager,
		engine,
		submissionRepo,
		sysLogger,
		cfg.Ai.LLMProvider == "mock",
	)

	return &Container{
		SubmissionController: controller.NewSubmissionController(coachService),
		CoachService:         coachService,
		Logger:               sysLogger,
		ChannelLogger:        chanLogger,
		HistoryCount:         index.Count(),
	}, nil
}
