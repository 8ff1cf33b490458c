package db

import (
	"database/sql"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/volunteerhub/volunteer-bot/apperr"
	"github.com/volunteerhub/volunteer-bot/models"
)

const eventColumns = "id, name, date, start_time, city, creator, description, " +
	"participation_points, participants_count, tags, code, owner, project_id, created_at"

// scanEvent читает строку результата в модель события
func scanEvent(row interface{ Scan(...interface{}) error }) (*models.Event, error) {
	event := &models.Event{}
	var tags string
	var code sql.NullString

	err := row.Scan(
		&event.ID, &event.Name, &event.Date, &event.StartTime, &event.City,
		&event.Creator, &event.Description, &event.ParticipationPoints,
		&event.ParticipantsCount, &tags, &code, &event.Owner, &event.ProjectID,
		&event.CreatedAt,
	)
	if err != nil {
		return nil, err
	}

	event.Tags = splitStrings(tags)
	event.Code = code.String
	return event, nil
}

// AddEvent создает новое событие и возвращает его ID.
// Дубликат кода участия приводит к ошибке конфликта. Пустой код хранится
// как NULL: UNIQUE-ограничение не должно мешать нескольким событиям без кода.
func (db *DB) AddEvent(event *models.Event) (int64, error) {
	result, err := db.Exec(`
		INSERT INTO events (name, date, start_time, city, creator, description,
			participation_points, tags, code, owner, project_id)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, NULLIF(?, ''), ?, ?)`,
		event.Name, event.Date, event.StartTime, event.City, event.Creator,
		event.Description, event.ParticipationPoints, joinStrings(event.Tags),
		event.Code, event.Owner, event.ProjectID,
	)
	if err != nil {
		if strings.Contains(err.Error(), "UNIQUE constraint failed: events.code") {
			return 0, apperr.Conflict("Событие с кодом «%s» уже существует", event.Code)
		}
		return 0, fmt.Errorf("ошибка при создании события: %w", err)
	}

	eventID, err := result.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("ошибка при получении ID нового события: %w", err)
	}

	return eventID, nil
}

// GetEventByID получает событие по его ID
func (db *DB) GetEventByID(eventID int64) (*models.Event, error) {
	row := db.QueryRow("SELECT "+eventColumns+" FROM events WHERE id = ?", eventID)

	event, err := scanEvent(row)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		return nil, fmt.Errorf("ошибка при получении события: %w", err)
	}

	return event, nil
}

// GetEventByCode получает событие по коду участия
func (db *DB) GetEventByCode(code string) (*models.Event, error) {
	row := db.QueryRow("SELECT "+eventColumns+" FROM events WHERE code = ?", code)

	event, err := scanEvent(row)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		return nil, fmt.Errorf("ошибка при получении события по коду: %w", err)
	}

	return event, nil
}

// queryEvents выполняет запрос списка событий
func (db *DB) queryEvents(query string, args ...interface{}) ([]*models.Event, error) {
	rows, err := db.Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("ошибка при получении событий: %w", err)
	}
	defer rows.Close()

	events := []*models.Event{}
	for rows.Next() {
		event, err := scanEvent(rows)
		if err != nil {
			return nil, fmt.Errorf("ошибка при сканировании данных события: %w", err)
		}
		events = append(events, event)
	}

	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("ошибка при итерации по событиям: %w", err)
	}

	return events, nil
}

// GetAllEvents получает все события
func (db *DB) GetAllEvents() ([]*models.Event, error) {
	return db.queryEvents("SELECT " + eventColumns + " FROM events ORDER BY id")
}

// GetEvents получает страницу событий
func (db *DB) GetEvents(limit, offset int) ([]*models.Event, error) {
	return db.queryEvents(
		"SELECT "+eventColumns+" FROM events ORDER BY id LIMIT ? OFFSET ?",
		limit, offset,
	)
}

// CountEvents возвращает общее число событий
func (db *DB) CountEvents() (int, error) {
	var count int
	err := db.QueryRow("SELECT COUNT(*) FROM events").Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("ошибка при подсчёте событий: %w", err)
	}
	return count, nil
}

// GetEventsByCity получает страницу событий в указанном городе
func (db *DB) GetEventsByCity(city string, limit, offset int) ([]*models.Event, error) {
	return db.queryEvents(
		"SELECT "+eventColumns+" FROM events WHERE city = ? ORDER BY id LIMIT ? OFFSET ?",
		city, limit, offset,
	)
}

// CountEventsByCity возвращает число событий в указанном городе
func (db *DB) CountEventsByCity(city string) (int, error) {
	var count int
	err := db.QueryRow("SELECT COUNT(*) FROM events WHERE city = ?", city).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("ошибка при подсчёте событий по городу: %w", err)
	}
	return count, nil
}

// GetEventsByTag получает страницу событий с указанным тегом
func (db *DB) GetEventsByTag(tag string, limit, offset int) ([]*models.Event, error) {
	return db.queryEvents(
		"SELECT "+eventColumns+" FROM events WHERE tags LIKE '%' || ? || '%' ORDER BY id LIMIT ? OFFSET ?",
		tag, limit, offset,
	)
}

// CountEventsByTag возвращает число событий с указанным тегом
func (db *DB) CountEventsByTag(tag string) (int, error) {
	var count int
	err := db.QueryRow(
		"SELECT COUNT(*) FROM events WHERE tags LIKE '%' || ? || '%'", tag,
	).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("ошибка при подсчёте событий по тегу: %w", err)
	}
	return count, nil
}

// eventFieldColumns — поля события, доступные для точечного обновления
var eventFieldColumns = map[string]string{
	"name":        "name",
	"date":        "date",
	"time":        "start_time",
	"city":        "city",
	"creator":     "creator",
	"description": "description",
	"points":      "participation_points",
	"tags":        "tags",
	"code":        "code",
}

// UpdateEventField обновляет одно поле события
func (db *DB) UpdateEventField(eventID int64, field, value string) error {
	column, ok := eventFieldColumns[field]
	if !ok {
		return apperr.Validation("Неизвестное поле события: %s", field)
	}

	result, err := db.Exec(
		"UPDATE events SET "+column+" = ? WHERE id = ?",
		value, eventID,
	)
	if err != nil {
		if strings.Contains(err.Error(), "UNIQUE constraint failed: events.code") {
			return apperr.Conflict("Событие с кодом «%s» уже существует", value)
		}
		return fmt.Errorf("ошибка при обновлении события: %w", err)
	}
	if n, _ := result.RowsAffected(); n == 0 {
		return apperr.NotFound("Событие не найдено")
	}
	return nil
}

// DeleteEvent удаляет событие вместе с его отчётом и вычищает его ID из
// registered_events всех пользователей. Все шаги выполняются в одной
// транзакции, чтобы не оставить висящие ссылки.
func (db *DB) DeleteEvent(eventID int64) error {
	tx, err := db.Begin()
	if err != nil {
		return fmt.Errorf("ошибка при открытии транзакции: %w", err)
	}
	defer tx.Rollback()

	result, err := tx.Exec("DELETE FROM events WHERE id = ?", eventID)
	if err != nil {
		return fmt.Errorf("ошибка при удалении события: %w", err)
	}
	if n, _ := result.RowsAffected(); n == 0 {
		return apperr.NotFound("Событие не найдено")
	}

	if _, err := tx.Exec("DELETE FROM event_reports WHERE event_id = ?", eventID); err != nil {
		return fmt.Errorf("ошибка при удалении отчёта события: %w", err)
	}

	// Грубый предварительный отбор по LIKE, точная проверка — после разбора
	rows, err := tx.Query(
		"SELECT telegram_id, registered_events FROM users WHERE registered_events LIKE '%' || ? || '%'",
		eventID,
	)
	if err != nil {
		return fmt.Errorf("ошибка при поиске записанных пользователей: %w", err)
	}

	type patch struct {
		telegramID int64
		events     string
	}
	patches := []patch{}
	for rows.Next() {
		var telegramID int64
		var registered string
		if err := rows.Scan(&telegramID, &registered); err != nil {
			rows.Close()
			return fmt.Errorf("ошибка при сканировании записей пользователя: %w", err)
		}
		ids := splitIDs(registered)
		if !containsID(ids, eventID) {
			continue
		}
		patches = append(patches, patch{telegramID, joinIDs(removeID(ids, eventID))})
	}
	if err := rows.Err(); err != nil {
		rows.Close()
		return fmt.Errorf("ошибка при итерации по пользователям: %w", err)
	}
	rows.Close()

	for _, p := range patches {
		if _, err := tx.Exec(
			"UPDATE users SET registered_events = ? WHERE telegram_id = ?",
			p.events, p.telegramID,
		); err != nil {
			return fmt.Errorf("ошибка при очистке записей пользователя: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("ошибка при фиксации транзакции: %w", err)
	}
	return nil
}

// GetUsersForEvent получает пользователей, записанных на событие
func (db *DB) GetUsersForEvent(eventID int64) ([]*models.User, error) {
	rows, err := db.Query(
		"SELECT "+userColumns+" FROM users WHERE registered_events LIKE '%' || ? || '%'",
		eventID,
	)
	if err != nil {
		return nil, fmt.Errorf("ошибка при получении участников события: %w", err)
	}
	defer rows.Close()

	users := []*models.User{}
	for rows.Next() {
		user, err := scanUser(rows)
		if err != nil {
			return nil, fmt.Errorf("ошибка при сканировании данных пользователя: %w", err)
		}
		if user.IsRegistered(eventID) {
			users = append(users, user)
		}
	}

	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("ошибка при итерации по участникам: %w", err)
	}

	return users, nil
}

// RegisterUserForEvent записывает пользователя на событие. Добавление события
// в registered_events и инкремент счётчика участников выполняются в одной
// транзакции; повторная запись отклоняется без изменения счётчика.
func (db *DB) RegisterUserForEvent(telegramID, eventID int64) error {
	tx, err := db.Begin()
	if err != nil {
		return fmt.Errorf("ошибка при открытии транзакции: %w", err)
	}
	defer tx.Rollback()

	var registered string
	err = tx.QueryRow(
		"SELECT registered_events FROM users WHERE telegram_id = ?", telegramID,
	).Scan(&registered)
	if err != nil {
		if err == sql.ErrNoRows {
			return apperr.NotFound("Пользователь не найден")
		}
		return fmt.Errorf("ошибка при получении записей пользователя: %w", err)
	}

	ids := splitIDs(registered)
	if containsID(ids, eventID) {
		return apperr.Conflict("Вы уже записаны на это событие")
	}

	var exists int
	err = tx.QueryRow("SELECT COUNT(*) FROM events WHERE id = ?", eventID).Scan(&exists)
	if err != nil {
		return fmt.Errorf("ошибка при проверке события: %w", err)
	}
	if exists == 0 {
		return apperr.NotFound("Событие не найдено")
	}

	ids = append(ids, eventID)
	if _, err := tx.Exec(
		"UPDATE users SET registered_events = ? WHERE telegram_id = ?",
		joinIDs(ids), telegramID,
	); err != nil {
		return fmt.Errorf("ошибка при обновлении записей пользователя: %w", err)
	}

	if _, err := tx.Exec(
		"UPDATE events SET participants_count = participants_count + 1 WHERE id = ?",
		eventID,
	); err != nil {
		return fmt.Errorf("ошибка при обновлении счётчика участников: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("ошибка при фиксации транзакции: %w", err)
	}
	return nil
}

// UnregisterUserFromEvent отменяет запись пользователя на событие.
// Счётчик участников не опускается ниже нуля.
func (db *DB) UnregisterUserFromEvent(telegramID, eventID int64) error {
	tx, err := db.Begin()
	if err != nil {
		return fmt.Errorf("ошибка при открытии транзакции: %w", err)
	}
	defer tx.Rollback()

	var registered string
	err = tx.QueryRow(
		"SELECT registered_events FROM users WHERE telegram_id = ?", telegramID,
	).Scan(&registered)
	if err != nil {
		if err == sql.ErrNoRows {
			return apperr.NotFound("Пользователь не найден")
		}
		return fmt.Errorf("ошибка при получении записей пользователя: %w", err)
	}

	ids := splitIDs(registered)
	if !containsID(ids, eventID) {
		return apperr.Conflict("Вы не записаны на это событие")
	}

	if _, err := tx.Exec(
		"UPDATE users SET registered_events = ? WHERE telegram_id = ?",
		joinIDs(removeID(ids, eventID)), telegramID,
	); err != nil {
		return fmt.Errorf("ошибка при обновлении записей пользователя: %w", err)
	}

	if _, err := tx.Exec(
		"UPDATE events SET participants_count = CASE WHEN participants_count > 0 THEN participants_count - 1 ELSE 0 END WHERE id = ?",
		eventID,
	); err != nil {
		return fmt.Errorf("ошибка при обновлении счётчика участников: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("ошибка при фиксации транзакции: %w", err)
	}
	return nil
}

// RedeemEventCode начисляет пользователю баллы за участие в событии и
// отмечает событие использованным. Возвращает число начисленных баллов.
// Повторный ввод кода того же события отклоняется.
func (db *DB) RedeemEventCode(telegramID, eventID int64) (int, error) {
	tx, err := db.Begin()
	if err != nil {
		return 0, fmt.Errorf("ошибка при открытии транзакции: %w", err)
	}
	defer tx.Rollback()

	var registered, redeemed string
	err = tx.QueryRow(
		"SELECT registered_events, redeemed_events FROM users WHERE telegram_id = ?",
		telegramID,
	).Scan(&registered, &redeemed)
	if err != nil {
		if err == sql.ErrNoRows {
			return 0, apperr.NotFound("Пользователь не найден")
		}
		return 0, fmt.Errorf("ошибка при получении данных пользователя: %w", err)
	}

	if !containsID(splitIDs(registered), eventID) {
		return 0, apperr.Authorization("Код можно ввести только для события, на которое вы записаны")
	}
	redeemedIDs := splitIDs(redeemed)
	if containsID(redeemedIDs, eventID) {
		return 0, apperr.Conflict("Баллы за это событие уже начислены")
	}

	var points int
	err = tx.QueryRow(
		"SELECT participation_points FROM events WHERE id = ?", eventID,
	).Scan(&points)
	if err != nil {
		if err == sql.ErrNoRows {
			return 0, apperr.NotFound("Событие не найдено")
		}
		return 0, fmt.Errorf("ошибка при получении события: %w", err)
	}

	redeemedIDs = append(redeemedIDs, eventID)
	if _, err := tx.Exec(
		"UPDATE users SET redeemed_events = ?, score = score + ? WHERE telegram_id = ?",
		joinIDs(redeemedIDs), points, telegramID,
	); err != nil {
		return 0, fmt.Errorf("ошибка при начислении баллов: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("ошибка при фиксации транзакции: %w", err)
	}
	return points, nil
}

// AuditParticipantCounts пересчитывает participants_count по записям
// пользователей и исправляет расхождения. Возвращает число исправлений.
func (db *DB) AuditParticipantCounts() (int, error) {
	users, err := db.GetAllUsers()
	if err != nil {
		return 0, err
	}

	actual := map[int64]int{}
	for _, user := range users {
		for _, eventID := range user.RegisteredEvents {
			actual[eventID]++
		}
	}

	events, err := db.GetAllEvents()
	if err != nil {
		return 0, err
	}

	fixed := 0
	for _, event := range events {
		want := actual[event.ID]
		if event.ParticipantsCount == want {
			continue
		}
		if _, err := db.Exec(
			"UPDATE events SET participants_count = ? WHERE id = ?",
			want, event.ID,
		); err != nil {
			return fixed, fmt.Errorf("ошибка при исправлении счётчика события %d: %w", event.ID, err)
		}
		db.logger.Warn("исправлен счётчик участников",
			zap.Int64("event_id", event.ID),
			zap.Int("was", event.ParticipantsCount),
			zap.Int("now", want),
		)
		fixed++
	}

	return fixed, nil
}
