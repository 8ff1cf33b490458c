package main

import (
	"time"

	"github.com/robfig/cron/v3"
	"go.uber.org/zap"

	"github.com/volunteerhub/volunteer-bot/ai"
	"github.com/volunteerhub/volunteer-bot/bot"
	"github.com/volunteerhub/volunteer-bot/config"
	"github.com/volunteerhub/volunteer-bot/db"
)

func main() {
	logger, err := zap.NewProduction()
	if err != nil {
		panic(err)
	}
	defer logger.Sync()

	cfg := config.Load(logger)
	if cfg.BotToken == "" {
		logger.Fatal("не задан BOT_TOKEN")
	}

	database, err := db.NewDB(cfg.DatabasePath, logger)
	if err != nil {
		logger.Fatal("ошибка подключения к базе данных", zap.Error(err))
	}
	defer database.Close()

	if err := database.InitSchema(); err != nil {
		logger.Fatal("ошибка инициализации схемы", zap.Error(err))
	}

	assistant := ai.New(cfg.AIAPIURL, cfg.AIAPIKey, cfg.AIModel, logger)

	volunteerBot, err := bot.NewBot(cfg.BotToken, database, assistant, bot.Options{
		BotPassword:   cfg.BotPassword,
		AdminPassword: cfg.AdminPassword,
		PageSize:      cfg.PageSize,
		SessionTTL:    time.Duration(cfg.SessionTTL) * time.Hour,
	}, logger)
	if err != nil {
		logger.Fatal("ошибка создания бота", zap.Error(err))
	}

	// Периодические задачи: очистка устаревших диалогов и ночная сверка
	// счётчиков участников
	c := cron.New()
	if _, err := c.AddFunc("@hourly", func() {
		if removed := volunteerBot.Sessions().Sweep(); removed > 0 {
			logger.Info("очистка диалогов", zap.Int("removed", removed))
		}
	}); err != nil {
		logger.Fatal("ошибка планировщика", zap.Error(err))
	}
	if _, err := c.AddFunc("0 3 * * *", func() {
		fixed, err := database.AuditParticipantCounts()
		if err != nil {
			logger.Error("ошибка сверки счётчиков участников", zap.Error(err))
			return
		}
		if fixed > 0 {
			logger.Info("сверка счётчиков участников", zap.Int("fixed", fixed))
		}
	}); err != nil {
		logger.Fatal("ошибка планировщика", zap.Error(err))
	}
	c.Start()
	defer c.Stop()

	logger.Info("запуск бота")
	volunteerBot.Start()
}
