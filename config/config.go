package config

import (
	"os"
	"strconv"

	"github.com/joho/godotenv"
	"go.uber.org/zap"
)

// Config содержит настройки приложения
type Config struct {
	BotToken      string
	BotPassword   string // пароль волонтёра
	AdminPassword string // пароль администратора
	DatabasePath  string
	AIAPIURL      string
	AIAPIKey      string
	AIModel       string
	SessionTTL    int // часы неактивности до сброса диалога
	PageSize      int // размер страницы списка событий
}

// Load загружает конфигурацию из .env и переменных окружения
func Load(logger *zap.Logger) *Config {
	if err := godotenv.Load(); err != nil {
		logger.Warn("файл .env не загружен", zap.Error(err))
	}

	return &Config{
		BotToken:      getEnv("BOT_TOKEN", ""),
		BotPassword:   getEnv("BOT_PASSWORD", "volunteer"),
		AdminPassword: getEnv("ADMIN_PASSWORD", ""),
		DatabasePath:  getEnv("DATABASE_PATH", "./data/volunteer.db"),
		AIAPIURL:      getEnv("AI_API_URL", "https://api.openai.com/v1/chat/completions"),
		AIAPIKey:      getEnv("AI_API_KEY", ""),
		AIModel:       getEnv("AI_MODEL", "gpt-4o-mini"),
		SessionTTL:    getEnvInt("SESSION_TTL_HOURS", 24),
		PageSize:      getEnvInt("PAGE_SIZE", 2),
	}
}

// Получение переменной окружения с возможностью установки значения по умолчанию
func getEnv(key, defaultValue string) string {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	return value
}

// getEnvInt получение числового значения из переменной окружения
func getEnvInt(key string, defaultValue int) int {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		return defaultValue
	}

	value, err := strconv.Atoi(valueStr)
	if err != nil {
		return defaultValue
	}

	return value
}
