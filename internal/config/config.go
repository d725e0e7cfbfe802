package config

import (
	"log"
	"os"
	"strconv"

	"github.com/joho/godotenv"
)

type Config struct {
	App      AppConfig
	Database DatabaseConfig
	Ai       AIConfig
	Coach    CoachConfig
}

type AppConfig struct {
	Port               string
	Environment        string
	LogFilePath        string
	ChannelLogFilePath string
	CorsAllowedOrigins string
}

type DatabaseConfig struct {
	// Connection is the postgres DSN for the submission archive. Empty
	// selects the JSON-file archive instead.
	Connection string
}

type AIConfig struct {
	LLMProvider     string // "anthropic" or "mock"
	AnthropicAPIKey string
	ModelName       string
}

type CoachConfig struct {
	HistoryDir        string
	SubmissionsFile   string
	MaxToolRounds     int
	SessionTTLMinutes int
}

func Load() *Config {
	if err := godotenv.Load(); err != nil {
		log.Println("Note: .env file not found, usage system environment")
	}

	return &Config{
		App: AppConfig{
			Port:               getEnv("APP_PORT", "8000"),
			Environment:        getEnv("GO_ENV", "development"),
			LogFilePath:        getEnv("LOG_FILE_PATH", "logs/app.log"),
			ChannelLogFilePath: getEnv("CHANNEL_LOG_FILE_PATH", "logs/channel.log"),
			CorsAllowedOrigins: getEnv("CORS_ALLOWED_ORIGINS", "http://localhost:5173"),
		},
		Database: DatabaseConfig{
			Connection: getEnv("DB_CONNECTION_STRING", ""),
		},
		Ai: AIConfig{
			LLMProvider:     getEnv("LLM_PROVIDER", "mock"),
			AnthropicAPIKey: getEnv("ANTHROPIC_API_KEY", ""),
			ModelName:       getEnv("MODEL_NAME", "claude-sonnet-4-20250514"),
		},
		Coach: CoachConfig{
			HistoryDir:        getEnv("RADAR_HISTORY_DIR", "radar_history"),
			SubmissionsFile:   getEnv("SUBMISSIONS_FILE", "submissions.json"),
			MaxToolRounds:     getEnvAsInt("MAX_TOOL_ROUNDS", 6),
			SessionTTLMinutes: getEnvAsInt("SESSION_TTL_MINUTES", 60),
		},
	}
}

func getEnv(key, fallback string) string {
	if value, exists := os.LookupEnv(key); exists {
		return value
	}
	return fallback
}

func getEnvAsInt(key string, fallback int) int {
	strValue := getEnv(key, "")
	if value, err := strconv.Atoi(strValue); err == nil {
		return value
	}
	return fallback
}
