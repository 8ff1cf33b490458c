package bot

import (
	"bytes"
	"encoding/csv"
	"fmt"
	"io"
	"strings"

	"go.uber.org/zap"

	"github.com/volunteerhub/volunteer-bot/db"
	"github.com/volunteerhub/volunteer-bot/models"
)

// csvHeaders — формат обмена событиями. Порядок колонок фиксирован,
// экспорт и импорт используют один и тот же набор.
var csvHeaders = []string{"Название", "Дата", "Время", "Локация", "Организатор", "Описание", "Теги", "Код"}

// utf8BOM добавляется в начало экспорта, чтобы Excel корректно
// распознавал кириллицу
var utf8BOM = []byte{0xEF, 0xBB, 0xBF}

// importEventsCSV читает события из CSV и добавляет их в хранилище.
// Импорт построчный и щадящий: некорректные строки пропускаются с
// записью в журнал, возвращается число добавленных событий.
func importEventsCSV(store db.Store, r io.Reader, owner string, logger *zap.Logger) (int, error) {
	reader := csv.NewReader(r)
	reader.FieldsPerRecord = -1
	reader.LazyQuotes = true

	header, err := reader.Read()
	if err != nil {
		return 0, fmt.Errorf("ошибка чтения CSV: %w", err)
	}
	if len(header) > 0 {
		header[0] = strings.TrimPrefix(header[0], string(utf8BOM))
	}
	if len(header) < len(csvHeaders) || !strings.EqualFold(header[0], csvHeaders[0]) {
		return 0, fmt.Errorf("неверный формат CSV: ожидаются колонки %s", strings.Join(csvHeaders, ", "))
	}

	added := 0
	line := 1
	for {
		record, err := reader.Read()
		if err == io.EOF {
			break
		}
		line++
		if err != nil {
			logger.Warn("строка CSV пропущена", zap.Int("line", line), zap.Error(err))
			continue
		}
		if len(record) < len(csvHeaders) {
			logger.Warn("строка CSV пропущена: мало колонок", zap.Int("line", line))
			continue
		}

		event, err := eventFromRecord(record, owner)
		if err != nil {
			logger.Warn("строка CSV пропущена", zap.Int("line", line), zap.Error(err))
			continue
		}

		if _, err := store.AddEvent(event); err != nil {
			logger.Warn("событие из CSV не добавлено",
				zap.Int("line", line),
				zap.String("name", event.Name),
				zap.Error(err))
			continue
		}
		added++
	}

	return added, nil
}

// eventFromRecord собирает событие из строки CSV с проверкой полей
func eventFromRecord(record []string, owner string) (*models.Event, error) {
	name := strings.TrimSpace(record[0])
	if name == "" {
		return nil, fmt.Errorf("пустое название")
	}

	date, err := validateDate(strings.TrimSpace(record[1]))
	if err != nil {
		return nil, err
	}
	start, err := validateTime(strings.TrimSpace(record[2]))
	if err != nil {
		return nil, err
	}

	city := strings.TrimSpace(record[3])
	if !models.ValidCity(city) {
		return nil, fmt.Errorf("неизвестный город: %s", city)
	}

	tags := []string{}
	for _, tag := range strings.Split(record[6], ",") {
		if tag = strings.TrimSpace(tag); tag != "" {
			tags = append(tags, tag)
		}
	}

	return &models.Event{
		Name:                name,
		Date:                date,
		StartTime:           start,
		City:                city,
		Creator:             strings.TrimSpace(record[4]),
		Description:         strings.TrimSpace(record[5]),
		ParticipationPoints: models.DefaultParticipationPoints,
		Tags:                tags,
		Code:                strings.TrimSpace(record[7]),
		Owner:               owner,
	}, nil
}

// exportEventsCSV формирует CSV со всеми событиями. Файл начинается
// с BOM, порядок колонок совпадает с форматом импорта.
func exportEventsCSV(events []*models.Event) ([]byte, error) {
	var buf bytes.Buffer
	buf.Write(utf8BOM)

	writer := csv.NewWriter(&buf)
	if err := writer.Write(csvHeaders); err != nil {
		return nil, fmt.Errorf("ошибка записи CSV: %w", err)
	}

	for _, event := range events {
		record := []string{
			event.Name,
			event.Date,
			event.StartTime,
			event.City,
			event.Creator,
			event.Description,
			strings.Join(event.Tags, ", "),
			event.Code,
		}
		if err := writer.Write(record); err != nil {
			return nil, fmt.Errorf("ошибка записи CSV: %w", err)
		}
	}

	writer.Flush()
	if err := writer.Error(); err != nil {
		return nil, fmt.Errorf("ошибка записи CSV: %w", err)
	}
	return buf.Bytes(), nil
}
