package db

import (
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	_ "github.com/mattn/go-sqlite3"
	"go.uber.org/zap"
)

// DB представляет экземпляр базы данных
type DB struct {
	*sql.DB
	logger *zap.Logger
}

// NewDB инициализирует соединение с базой данных
func NewDB(dbPath string, logger *zap.Logger) (*DB, error) {
	// Создаем директорию для БД, если она не существует
	dbDir := filepath.Dir(dbPath)
	if err := os.MkdirAll(dbDir, 0755); err != nil {
		return nil, fmt.Errorf("не удалось создать директорию для БД: %w", err)
	}

	database, err := sql.Open("sqlite3", dbPath)
	if err != nil {
		return nil, fmt.Errorf("не удалось открыть базу данных: %w", err)
	}

	if err := database.Ping(); err != nil {
		return nil, fmt.Errorf("не удалось подключиться к базе данных: %w", err)
	}

	return &DB{DB: database, logger: logger}, nil
}

// InitSchema инициализирует схему базы данных
func (db *DB) InitSchema() error {
	// Таблица пользователей. Многозначные поля хранятся как текст с
	// разделителем-запятой; разбор выполняется только на границе хранилища.
	_, err := db.Exec(`
	CREATE TABLE IF NOT EXISTS users (
		telegram_id INTEGER PRIMARY KEY,
		name TEXT,
		role TEXT NOT NULL DEFAULT 'user',
		score INTEGER NOT NULL DEFAULT 0,
		city TEXT DEFAULT '',
		tags TEXT DEFAULT '',
		registered_events TEXT DEFAULT '',
		redeemed_events TEXT DEFAULT '',
		created_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP
	)`)
	if err != nil {
		return fmt.Errorf("не удалось создать таблицу users: %w", err)
	}

	// Таблица событий
	_, err = db.Exec(`
	CREATE TABLE IF NOT EXISTS events (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		name TEXT NOT NULL,
		date TEXT NOT NULL,
		start_time TEXT NOT NULL,
		city TEXT NOT NULL,
		creator TEXT DEFAULT '',
		description TEXT DEFAULT '',
		participation_points INTEGER NOT NULL DEFAULT 5,
		participants_count INTEGER NOT NULL DEFAULT 0,
		tags TEXT DEFAULT '',
		code TEXT UNIQUE,
		owner TEXT NOT NULL DEFAULT 'admin',
		project_id INTEGER DEFAULT 0,
		created_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP
	)`)
	if err != nil {
		return fmt.Errorf("не удалось создать таблицу events: %w", err)
	}

	// Таблица отчётов: не более одного отчёта на событие
	_, err = db.Exec(`
	CREATE TABLE IF NOT EXISTS event_reports (
		event_id INTEGER PRIMARY KEY,
		report_date TEXT NOT NULL,
		actual_participants INTEGER NOT NULL DEFAULT 0,
		photos_links TEXT DEFAULT '',
		summary TEXT DEFAULT '',
		feedback TEXT DEFAULT '',
		created_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP
	)`)
	if err != nil {
		return fmt.Errorf("не удалось создать таблицу event_reports: %w", err)
	}

	// Таблица проектов
	_, err = db.Exec(`
	CREATE TABLE IF NOT EXISTS projects (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		name TEXT NOT NULL,
		description TEXT DEFAULT '',
		responsible TEXT DEFAULT '',
		created_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP
	)`)
	if err != nil {
		return fmt.Errorf("не удалось создать таблицу projects: %w", err)
	}

	db.logger.Info("схема базы данных инициализирована")
	return nil
}

// joinStrings собирает множество строк в текст с разделителем
func joinStrings(values []string) string {
	parts := make([]string, 0, len(values))
	for _, v := range values {
		v = strings.TrimSpace(v)
		if v != "" {
			parts = append(parts, v)
		}
	}
	return strings.Join(parts, ",")
}

// splitStrings разбирает текст с разделителем в множество строк
func splitStrings(text string) []string {
	if text == "" {
		return nil
	}
	parts := strings.Split(text, ",")
	values := make([]string, 0, len(parts))
	for _, p := range parts {
		p = strings.TrimSpace(p)
		if p != "" {
			values = append(values, p)
		}
	}
	return values
}

// joinIDs собирает множество идентификаторов в текст с разделителем
func joinIDs(ids []int64) string {
	parts := make([]string, 0, len(ids))
	for _, id := range ids {
		parts = append(parts, strconv.FormatInt(id, 10))
	}
	return strings.Join(parts, ",")
}

// splitIDs разбирает текст с разделителем в множество идентификаторов.
// Нечисловые и пустые элементы пропускаются.
func splitIDs(text string) []int64 {
	if text == "" {
		return nil
	}
	parts := strings.Split(text, ",")
	ids := make([]int64, 0, len(parts))
	for _, p := range parts {
		p = strings.TrimSpace(p)
		if p == "" {
			continue
		}
		id, err := strconv.ParseInt(p, 10, 64)
		if err != nil {
			continue
		}
		ids = append(ids, id)
	}
	return ids
}

// removeID удаляет идентификатор из множества
func removeID(ids []int64, target int64) []int64 {
	out := make([]int64, 0, len(ids))
	for _, id := range ids {
		if id != target {
			out = append(out, id)
		}
	}
	return out
}

// containsID проверяет принадлежность идентификатора множеству
func containsID(ids []int64, target int64) bool {
	for _, id := range ids {
		if id == target {
			return true
		}
	}
	return false
}
