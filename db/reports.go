package db

import (
	"database/sql"
	"fmt"

	"github.com/volunteerhub/volunteer-bot/apperr"
	"github.com/volunteerhub/volunteer-bot/models"
)

// CreateEventReport создает отчёт о событии.
// Повторный отчёт для того же события отклоняется.
func (db *DB) CreateEventReport(report *models.EventReport) error {
	existing, err := db.GetEventReport(report.EventID)
	if err != nil {
		return err
	}
	if existing != nil {
		return apperr.Conflict("Отчёт для этого события уже существует")
	}

	_, err = db.Exec(`
		INSERT INTO event_reports (event_id, report_date, actual_participants, photos_links, summary, feedback)
		VALUES (?, ?, ?, ?, ?, ?)`,
		report.EventID, report.ReportDate, report.ActualParticipants,
		joinStrings(report.PhotosLinks), report.Summary, report.Feedback,
	)
	if err != nil {
		return fmt.Errorf("ошибка при создании отчёта: %w", err)
	}
	return nil
}

// GetEventReport получает отчёт по ID события
func (db *DB) GetEventReport(eventID int64) (*models.EventReport, error) {
	report := &models.EventReport{}
	var photos string

	err := db.QueryRow(`
		SELECT event_id, report_date, actual_participants, photos_links, summary, feedback, created_at
		FROM event_reports WHERE event_id = ?`,
		eventID,
	).Scan(
		&report.EventID, &report.ReportDate, &report.ActualParticipants,
		&photos, &report.Summary, &report.Feedback, &report.CreatedAt,
	)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		return nil, fmt.Errorf("ошибка при получении отчёта: %w", err)
	}

	report.PhotosLinks = splitStrings(photos)
	return report, nil
}

// reportFieldColumns — поля отчёта, доступные для точечного обновления
var reportFieldColumns = map[string]string{
	"date":         "report_date",
	"participants": "actual_participants",
	"photos":       "photos_links",
	"summary":      "summary",
	"feedback":     "feedback",
}

// UpdateEventReportField обновляет одно поле отчёта
func (db *DB) UpdateEventReportField(eventID int64, field, value string) error {
	column, ok := reportFieldColumns[field]
	if !ok {
		return apperr.Validation("Неизвестное поле отчёта: %s", field)
	}

	result, err := db.Exec(
		"UPDATE event_reports SET "+column+" = ? WHERE event_id = ?",
		value, eventID,
	)
	if err != nil {
		return fmt.Errorf("ошибка при обновлении отчёта: %w", err)
	}
	if n, _ := result.RowsAffected(); n == 0 {
		return apperr.NotFound("Отчёт не найден")
	}
	return nil
}

// DeleteEventReport удаляет отчёт события
func (db *DB) DeleteEventReport(eventID int64) error {
	result, err := db.Exec("DELETE FROM event_reports WHERE event_id = ?", eventID)
	if err != nil {
		return fmt.Errorf("ошибка при удалении отчёта: %w", err)
	}
	if n, _ := result.RowsAffected(); n == 0 {
		return apperr.NotFound("Отчёт не найден")
	}
	return nil
}
