package bot

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/volunteerhub/volunteer-bot/apperr"
)

// validateDate проверяет дату в формате ДД.ММ.ГГГГ и возвращает её в
// нормализованном виде
func validateDate(dateStr string) (string, error) {
	parts := strings.Split(strings.TrimSpace(dateStr), ".")
	if len(parts) != 3 {
		return "", apperr.Validation("Неверный формат даты, используйте ДД.ММ.ГГГГ")
	}

	day, err := strconv.Atoi(parts[0])
	if err != nil || day < 1 || day > 31 {
		return "", apperr.Validation("Неверный день")
	}

	month, err := strconv.Atoi(parts[1])
	if err != nil || month < 1 || month > 12 {
		return "", apperr.Validation("Неверный месяц")
	}

	year, err := strconv.Atoi(parts[2])
	if err != nil || year < 1900 || year > 2100 {
		return "", apperr.Validation("Неверный год")
	}

	// Проверка на существующую дату
	date := time.Date(year, time.Month(month), day, 0, 0, 0, 0, time.UTC)
	if date.Day() != day || date.Month() != time.Month(month) || date.Year() != year {
		return "", apperr.Validation("Несуществующая дата")
	}

	return fmt.Sprintf("%02d.%02d.%04d", day, month, year), nil
}

// validateTime проверяет время в формате ЧЧ:ММ и возвращает его в
// нормализованном виде
func validateTime(timeStr string) (string, error) {
	parts := strings.Split(strings.TrimSpace(timeStr), ":")
	if len(parts) != 2 {
		return "", apperr.Validation("Неверный формат времени, используйте ЧЧ:ММ")
	}

	hour, err := strconv.Atoi(parts[0])
	if err != nil || hour < 0 || hour > 23 {
		return "", apperr.Validation("Неверный час (0-23)")
	}

	minute, err := strconv.Atoi(parts[1])
	if err != nil || minute < 0 || minute > 59 {
		return "", apperr.Validation("Неверная минута (0-59)")
	}

	return fmt.Sprintf("%02d:%02d", hour, minute), nil
}

// validatePoints проверяет число баллов
func validatePoints(text string) (int, error) {
	points, err := strconv.Atoi(strings.TrimSpace(text))
	if err != nil || points < 0 {
		return 0, apperr.Validation("Введите неотрицательное число баллов")
	}
	return points, nil
}

// parseID разбирает числовой идентификатор
func parseID(text string) (int64, error) {
	id, err := strconv.ParseInt(strings.TrimSpace(text), 10, 64)
	if err != nil {
		return 0, apperr.Validation("Ожидается числовой идентификатор")
	}
	return id, nil
}
