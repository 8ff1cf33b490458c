package db

import (
	"database/sql"
	"fmt"

	"github.com/volunteerhub/volunteer-bot/apperr"
	"github.com/volunteerhub/volunteer-bot/models"
)

const userColumns = "telegram_id, name, role, score, city, tags, registered_events, redeemed_events, created_at"

// scanUser читает строку результата в модель пользователя
func scanUser(row interface{ Scan(...interface{}) error }) (*models.User, error) {
	user := &models.User{}
	var tags, registered, redeemed string

	err := row.Scan(
		&user.TelegramID, &user.Name, (*string)(&user.Role), &user.Score,
		&user.City, &tags, &registered, &redeemed, &user.CreatedAt,
	)
	if err != nil {
		return nil, err
	}

	user.Tags = splitStrings(tags)
	user.RegisteredEvents = splitIDs(registered)
	user.RedeemedEvents = splitIDs(redeemed)
	return user, nil
}

// GetUser получает пользователя по его Telegram ID
func (db *DB) GetUser(telegramID int64) (*models.User, error) {
	row := db.QueryRow(
		"SELECT "+userColumns+" FROM users WHERE telegram_id = ?",
		telegramID,
	)

	user, err := scanUser(row)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		return nil, fmt.Errorf("ошибка при получении пользователя: %w", err)
	}

	return user, nil
}

// SaveUser создает пользователя или обновляет существующего
func (db *DB) SaveUser(user *models.User) error {
	_, err := db.Exec(`
		INSERT INTO users (telegram_id, name, role, score, city, tags, registered_events, redeemed_events)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(telegram_id) DO UPDATE SET
			name = excluded.name,
			role = excluded.role,
			score = excluded.score,
			city = excluded.city,
			tags = excluded.tags,
			registered_events = excluded.registered_events,
			redeemed_events = excluded.redeemed_events`,
		user.TelegramID, user.Name, string(user.Role), user.Score, user.City,
		joinStrings(user.Tags), joinIDs(user.RegisteredEvents), joinIDs(user.RedeemedEvents),
	)
	if err != nil {
		return fmt.Errorf("ошибка при сохранении пользователя: %w", err)
	}
	return nil
}

// UpdateUserRole обновляет роль пользователя
func (db *DB) UpdateUserRole(telegramID int64, role models.Role) error {
	result, err := db.Exec(
		"UPDATE users SET role = ? WHERE telegram_id = ?",
		string(role), telegramID,
	)
	if err != nil {
		return fmt.Errorf("ошибка при обновлении роли: %w", err)
	}
	if n, _ := result.RowsAffected(); n == 0 {
		return apperr.NotFound("Пользователь не найден")
	}
	return nil
}

// UpdateUserCity обновляет город пользователя
func (db *DB) UpdateUserCity(telegramID int64, city string) error {
	_, err := db.Exec(
		"UPDATE users SET city = ? WHERE telegram_id = ?",
		city, telegramID,
	)
	if err != nil {
		return fmt.Errorf("ошибка при обновлении города: %w", err)
	}
	return nil
}

// UpdateUserTags обновляет теги пользователя
func (db *DB) UpdateUserTags(telegramID int64, tags []string) error {
	_, err := db.Exec(
		"UPDATE users SET tags = ? WHERE telegram_id = ?",
		joinStrings(tags), telegramID,
	)
	if err != nil {
		return fmt.Errorf("ошибка при обновлении тегов: %w", err)
	}
	return nil
}

// DeleteUser удаляет пользователя
func (db *DB) DeleteUser(telegramID int64) error {
	result, err := db.Exec("DELETE FROM users WHERE telegram_id = ?", telegramID)
	if err != nil {
		return fmt.Errorf("ошибка при удалении пользователя: %w", err)
	}
	if n, _ := result.RowsAffected(); n == 0 {
		return apperr.NotFound("Пользователь не найден")
	}
	return nil
}

// FindUserByName находит пользователя по имени
func (db *DB) FindUserByName(name string) (*models.User, error) {
	row := db.QueryRow(
		"SELECT "+userColumns+" FROM users WHERE name = ? LIMIT 1",
		name,
	)

	user, err := scanUser(row)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		return nil, fmt.Errorf("ошибка при поиске пользователя: %w", err)
	}

	return user, nil
}

// GetAllUsers получает всех пользователей
func (db *DB) GetAllUsers() ([]*models.User, error) {
	rows, err := db.Query("SELECT " + userColumns + " FROM users ORDER BY telegram_id")
	if err != nil {
		return nil, fmt.Errorf("ошибка при получении пользователей: %w", err)
	}
	defer rows.Close()

	users := []*models.User{}
	for rows.Next() {
		user, err := scanUser(rows)
		if err != nil {
			return nil, fmt.Errorf("ошибка при сканировании данных пользователя: %w", err)
		}
		users = append(users, user)
	}

	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("ошибка при итерации по пользователям: %w", err)
	}

	return users, nil
}
