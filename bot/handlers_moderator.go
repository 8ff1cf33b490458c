package bot

import (
	"context"
	"fmt"
	"net/http"
	"strconv"
	"strings"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/google/uuid"
	qrcode "github.com/skip2/go-qrcode"

	"github.com/volunteerhub/volunteer-bot/apperr"
	"github.com/volunteerhub/volunteer-bot/models"
)

// stateModeratorMenu — меню модератора
func (b *Bot) stateModeratorMenu(ctx context.Context, u *Update, sess *Session) (*Result, error) {
	user, err := b.authorize(u.UserID, models.RoleModerator, models.RoleAdmin)
	if err != nil {
		return nil, err
	}

	switch u.Command {
	case CmdCreateEvent:
		sess.ClearData()
		return &Result{
			Next:    models.StateEventName,
			Replies: []Reply{replyKb("➕ Введите название события:", cancelKeyboard())},
		}, nil

	case CmdEditEvents:
		events, err := b.ownedEvents(user)
		if err != nil {
			return nil, err
		}
		if len(events) == 0 {
			return &Result{Replies: []Reply{reply("У вас пока нет событий.")}}, nil
		}
		return &Result{
			Next:    models.StateEventEditSelect,
			Replies: []Reply{replyKb("✏️ Выберите событие:", eventPickKeyboard(events, "ev"))},
		}, nil

	case CmdImportCSV:
		return &Result{
			Next: models.StateCSVImport,
			Replies: []Reply{replyKb(
				"📥 Пришлите CSV-файл с колонками: Название, Дата, Время, Локация, Организатор, Описание, Теги, Код",
				cancelKeyboard(),
			)},
		}, nil

	case CmdReports:
		events, err := b.ownedEvents(user)
		if err != nil {
			return nil, err
		}
		if len(events) == 0 {
			return &Result{Replies: []Reply{reply("У вас пока нет событий для отчётов.")}}, nil
		}
		return &Result{
			Next:    models.StateReportEvent,
			Replies: []Reply{replyKb("📝 Выберите событие для отчёта:", eventPickKeyboard(events, "rpt"))},
		}, nil

	case CmdBack:
		return b.menuResult(models.StateMainMenu, user.Role), nil
	}

	res := b.menuResult(models.StateModeratorMenu, user.Role)
	res.Replies = append([]Reply{reply(msgUseMenuButtons)}, res.Replies...)
	return res, nil
}

// ownedEvents возвращает события, которые пользователь вправе изменять:
// модератор — только свои, администратор — все
func (b *Bot) ownedEvents(user *models.User) ([]*models.Event, error) {
	events, err := b.store.GetAllEvents()
	if err != nil {
		return nil, err
	}
	if user.Role == models.RoleAdmin {
		return events, nil
	}
	owned := []*models.Event{}
	for _, event := range events {
		if event.OwnedBy(user.TelegramID, user.Role) {
			owned = append(owned, event)
		}
	}
	return owned, nil
}

// Создание события: пошаговый сценарий. Каждый шаг валидирует ввод и
// складывает значение во временные данные; запись в хранилище происходит
// только на подтверждении.

func (b *Bot) stateEventName(ctx context.Context, u *Update, sess *Session) (*Result, error) {
	if u.Kind != KindText || u.Text == "" {
		return &Result{Replies: []Reply{reply("Введите название текстом.")}}, nil
	}
	sess.Set("ev_name", u.Text)
	return &Result{
		Next:    models.StateEventDate,
		Replies: []Reply{replyKb("📅 Введите дату события (ДД.ММ.ГГГГ):", cancelKeyboard())},
	}, nil
}

func (b *Bot) stateEventDate(ctx context.Context, u *Update, sess *Session) (*Result, error) {
	if u.Kind != KindText {
		return &Result{Replies: []Reply{reply("Введите дату текстом.")}}, nil
	}
	date, err := validateDate(u.Text)
	if err != nil {
		return nil, err
	}
	sess.Set("ev_date", date)
	return &Result{
		Next:    models.StateEventTime,
		Replies: []Reply{replyKb("🕐 Введите время начала (ЧЧ:ММ):", cancelKeyboard())},
	}, nil
}

func (b *Bot) stateEventTime(ctx context.Context, u *Update, sess *Session) (*Result, error) {
	if u.Kind != KindText {
		return &Result{Replies: []Reply{reply("Введите время текстом.")}}, nil
	}
	start, err := validateTime(u.Text)
	if err != nil {
		return nil, err
	}
	sess.Set("ev_time", start)
	return &Result{
		Next:    models.StateEventCity,
		Replies: []Reply{replyKb("🏙 Выберите город:", cityPickerKeyboard(""))},
	}, nil
}

func (b *Bot) stateEventCity(ctx context.Context, u *Update, sess *Session) (*Result, error) {
	if u.Kind != KindCallback || u.Action != "city" {
		return &Result{Replies: []Reply{reply("Выберите город кнопкой.")}}, nil
	}
	if !models.ValidCity(u.Arg) {
		return nil, apperr.Validation("Неизвестный город: %s", u.Arg)
	}
	sess.Set("ev_city", u.Arg)
	return &Result{
		Next:    models.StateEventCreator,
		Replies: []Reply{replyKb("👤 Укажите организатора:", skipCancelKeyboard())},
	}, nil
}

func (b *Bot) stateEventCreator(ctx context.Context, u *Update, sess *Session) (*Result, error) {
	if u.Command == CmdSkip {
		sess.Set("ev_creator", "")
	} else if u.Kind == KindText && u.Text != "" {
		sess.Set("ev_creator", u.Text)
	} else {
		return &Result{Replies: []Reply{reply("Укажите организатора текстом или пропустите.")}}, nil
	}
	return &Result{
		Next:    models.StateEventDesc,
		Replies: []Reply{replyKb("📝 Введите описание события:", skipCancelKeyboard())},
	}, nil
}

func (b *Bot) stateEventDesc(ctx context.Context, u *Update, sess *Session) (*Result, error) {
	if u.Command == CmdSkip {
		sess.Set("ev_desc", "")
	} else if u.Kind == KindText && u.Text != "" {
		sess.Set("ev_desc", u.Text)
	} else {
		return &Result{Replies: []Reply{reply("Введите описание текстом или пропустите.")}}, nil
	}
	return &Result{
		Next: models.StateEventPoints,
		Replies: []Reply{replyKb(
			fmt.Sprintf("🏆 Сколько баллов за участие? (по умолчанию %d):", models.DefaultParticipationPoints),
			skipCancelKeyboard(),
		)},
	}, nil
}

func (b *Bot) stateEventPoints(ctx context.Context, u *Update, sess *Session) (*Result, error) {
	if u.Command == CmdSkip {
		sess.Set("ev_points", models.DefaultParticipationPoints)
	} else if u.Kind == KindText {
		points, err := validatePoints(u.Text)
		if err != nil {
			return nil, err
		}
		sess.Set("ev_points", points)
	} else {
		return &Result{Replies: []Reply{reply("Введите число баллов или пропустите.")}}, nil
	}
	return &Result{
		Next:    models.StateEventTags,
		Replies: []Reply{replyKb("🏷 Отметьте теги события:", tagPickerKeyboard(sess.StrSet("ev_tags")))},
	}, nil
}

func (b *Bot) stateEventTags(ctx context.Context, u *Update, sess *Session) (*Result, error) {
	if u.Kind != KindCallback {
		return &Result{Replies: []Reply{reply("Отметьте теги кнопками.")}}, nil
	}

	selected := sess.StrSet("ev_tags")
	switch u.Action {
	case "tag":
		if !models.ValidTag(u.Arg) {
			return &Result{Replies: []Reply{reply("Неизвестный тег.")}}, nil
		}
		if selected[u.Arg] {
			delete(selected, u.Arg)
		} else {
			selected[u.Arg] = true
		}
		return &Result{
			Replies: []Reply{replyKb("🏷 Отметьте теги события:", tagPickerKeyboard(selected))},
		}, nil

	case "done":
		return &Result{
			Next: models.StateEventCode,
			Replies: []Reply{replyKb(
				"🎟 Введите код участия (или пропустите — код будет сгенерирован):",
				skipCancelKeyboard(),
			)},
		}, nil
	}

	return &Result{Replies: []Reply{reply("Отметьте теги кнопками.")}}, nil
}

func (b *Bot) stateEventCode(ctx context.Context, u *Update, sess *Session) (*Result, error) {
	if u.Command == CmdSkip {
		// Короткий уникальный код на основе UUID
		sess.Set("ev_code", uuid.NewString()[:8])
	} else if u.Kind == KindText && u.Text != "" {
		sess.Set("ev_code", strings.TrimSpace(u.Text))
	} else {
		return &Result{Replies: []Reply{reply("Введите код текстом или пропустите.")}}, nil
	}

	return &Result{
		Next:    models.StateEventConfirm,
		Replies: []Reply{replyKb(eventDraftSummary(sess), confirmCancelKeyboard())},
	}, nil
}

// eventDraftSummary собирает черновик события для подтверждения
func eventDraftSummary(sess *Session) string {
	tags := []string{}
	for _, tag := range models.Tags {
		if sess.StrSet("ev_tags")[tag] {
			tags = append(tags, tag)
		}
	}
	return fmt.Sprintf(
		"Проверьте событие:\n\n📌 %s\n📅 %s в %s\n🏙 %s\n👤 %s\n📝 %s\n🏆 Баллы: %d\n🏷 %s\n🎟 Код: %s",
		sess.Str("ev_name"), sess.Str("ev_date"), sess.Str("ev_time"),
		sess.Str("ev_city"), sess.Str("ev_creator"), sess.Str("ev_desc"),
		sess.Int("ev_points"), strings.Join(tags, ", "), sess.Str("ev_code"),
	)
}

// stateEventConfirm — подтверждение создания события. Проверяются
// обязательные поля; при неудаче состояние не продвигается.
func (b *Bot) stateEventConfirm(ctx context.Context, u *Update, sess *Session) (*Result, error) {
	if u.Command != CmdConfirm {
		return &Result{
			Replies: []Reply{replyKb("Нажмите «Подтвердить» или «Отмена».", confirmCancelKeyboard())},
		}, nil
	}

	user, err := b.authorize(u.UserID, models.RoleModerator, models.RoleAdmin)
	if err != nil {
		return nil, err
	}

	if sess.Str("ev_name") == "" || sess.Str("ev_date") == "" ||
		sess.Str("ev_time") == "" || sess.Str("ev_city") == "" {
		return nil, apperr.Validation("Заполнены не все обязательные поля, начните заново")
	}

	owner := models.AdminOwner
	if user.Role == models.RoleModerator {
		owner = models.ModeratorOwner(user.TelegramID)
	}

	tags := []string{}
	for _, tag := range models.Tags {
		if sess.StrSet("ev_tags")[tag] {
			tags = append(tags, tag)
		}
	}

	event := &models.Event{
		Name:                sess.Str("ev_name"),
		Date:                sess.Str("ev_date"),
		StartTime:           sess.Str("ev_time"),
		City:                sess.Str("ev_city"),
		Creator:             sess.Str("ev_creator"),
		Description:         sess.Str("ev_desc"),
		ParticipationPoints: sess.Int("ev_points"),
		Tags:                tags,
		Code:                sess.Str("ev_code"),
		Owner:               owner,
	}

	eventID, err := b.store.AddEvent(event)
	if err != nil {
		return nil, err
	}

	sess.ClearData()
	res := b.menuResult(models.StateModeratorMenu, user.Role)
	res.Replies = append([]Reply{reply(fmt.Sprintf("✅ Событие создано (ID %d)", eventID))}, res.Replies...)
	return res, nil
}

// stateEventEditSelect — выбор события для редактирования
func (b *Bot) stateEventEditSelect(ctx context.Context, u *Update, sess *Session) (*Result, error) {
	if u.Kind != KindCallback || u.Action != "ev" {
		return &Result{Replies: []Reply{reply("Выберите событие кнопкой.")}}, nil
	}

	eventID, err := parseID(u.Arg)
	if err != nil {
		return nil, err
	}
	event, err := b.authorizeEventOwner(u.UserID, eventID)
	if err != nil {
		return nil, err
	}

	sess.Set("edit_event", event.ID)
	return &Result{
		Next: models.StateEventEditField,
		Replies: []Reply{replyKb(
			fmt.Sprintf("📌 %s (%s, %s). Что изменить?", event.Name, event.Date, event.City),
			eventEditKeyboard(event.ID),
		)},
	}, nil
}

// stateEventEditField — выбор поля, QR-код или удаление
func (b *Bot) stateEventEditField(ctx context.Context, u *Update, sess *Session) (*Result, error) {
	if u.Kind != KindCallback {
		return &Result{Replies: []Reply{reply("Выберите действие кнопкой.")}}, nil
	}

	switch u.Action {
	case "efield":
		if _, ok := eventFieldPrompts[u.Arg]; !ok {
			return nil, apperr.Validation("Неизвестное поле: %s", u.Arg)
		}
		sess.Set("edit_field", u.Arg)
		return &Result{
			Next:    models.StateEventEditValue,
			Replies: []Reply{replyKb(eventFieldPrompts[u.Arg], cancelKeyboard())},
		}, nil

	case "qr":
		eventID, err := parseID(u.Arg)
		if err != nil {
			return nil, err
		}
		return b.eventQRResult(u.UserID, eventID)

	case "who":
		eventID, err := parseID(u.Arg)
		if err != nil {
			return nil, err
		}
		return b.eventParticipantsResult(u.UserID, eventID)

	case "del":
		eventID, err := parseID(u.Arg)
		if err != nil {
			return nil, err
		}
		if _, err := b.authorizeEventOwner(u.UserID, eventID); err != nil {
			return nil, err
		}
		return &Result{
			Replies: []Reply{replyKb(
				"❓ Удалить событие? Записи участников будут сняты.",
				deleteConfirmKeyboard(eventID),
			)},
		}, nil

	case "confirmdel":
		eventID, err := parseID(u.Arg)
		if err != nil {
			return nil, err
		}
		if _, err := b.authorizeEventOwner(u.UserID, eventID); err != nil {
			return nil, err
		}
		if err := b.store.DeleteEvent(eventID); err != nil {
			return nil, err
		}
		sess.ClearData()
		res := b.menuResult(models.StateModeratorMenu, b.roleOf(u.UserID))
		res.Replies = append([]Reply{reply("🗑 Событие удалено")}, res.Replies...)
		return res, nil
	}

	return &Result{Replies: []Reply{reply("Выберите действие кнопкой.")}}, nil
}

// eventFieldPrompts — подсказки ввода нового значения поля события
var eventFieldPrompts = map[string]string{
	"name":        "Введите новое название:",
	"date":        "Введите новую дату (ДД.ММ.ГГГГ):",
	"time":        "Введите новое время (ЧЧ:ММ):",
	"city":        "Введите новый город:",
	"creator":     "Введите нового организатора:",
	"description": "Введите новое описание:",
	"points":      "Введите новое число баллов:",
	"code":        "Введите новый код участия:",
}

// stateEventEditValue — ввод нового значения поля
func (b *Bot) stateEventEditValue(ctx context.Context, u *Update, sess *Session) (*Result, error) {
	if u.Kind != KindText || u.Text == "" {
		return &Result{Replies: []Reply{reply("Введите значение текстом.")}}, nil
	}

	eventID := sess.Int64("edit_event")
	field := sess.Str("edit_field")
	if eventID == 0 || field == "" {
		return nil, apperr.Validation("Событие не выбрано, начните заново")
	}
	if _, err := b.authorizeEventOwner(u.UserID, eventID); err != nil {
		return nil, err
	}

	value := u.Text
	switch field {
	case "date":
		date, err := validateDate(value)
		if err != nil {
			return nil, err
		}
		value = date
	case "time":
		start, err := validateTime(value)
		if err != nil {
			return nil, err
		}
		value = start
	case "city":
		if !models.ValidCity(value) {
			return nil, apperr.Validation("Неизвестный город: %s", value)
		}
	case "points":
		points, err := validatePoints(value)
		if err != nil {
			return nil, err
		}
		value = strconv.Itoa(points)
	}

	if err := b.store.UpdateEventField(eventID, field, value); err != nil {
		return nil, err
	}

	sess.ClearData()
	res := b.menuResult(models.StateModeratorMenu, b.roleOf(u.UserID))
	res.Replies = append([]Reply{reply("✅ Событие обновлено")}, res.Replies...)
	return res, nil
}

// eventParticipantsResult выводит список записанных на событие
func (b *Bot) eventParticipantsResult(userID, eventID int64) (*Result, error) {
	event, err := b.authorizeEventOwner(userID, eventID)
	if err != nil {
		return nil, err
	}

	participants, err := b.store.GetUsersForEvent(eventID)
	if err != nil {
		return nil, err
	}
	if len(participants) == 0 {
		return &Result{Replies: []Reply{reply(fmt.Sprintf("На событие «%s» пока никто не записан.", event.Name))}}, nil
	}

	var sb strings.Builder
	fmt.Fprintf(&sb, "👥 Участники «%s» (%d):\n", event.Name, len(participants))
	for _, participant := range participants {
		fmt.Fprintf(&sb, "\n%d — %s", participant.TelegramID, participant.Name)
	}
	return &Result{Replies: []Reply{reply(sb.String())}}, nil
}

// eventQRResult строит QR-код со ссылкой на бот и кодом участия события
func (b *Bot) eventQRResult(userID, eventID int64) (*Result, error) {
	event, err := b.authorizeEventOwner(userID, eventID)
	if err != nil {
		return nil, err
	}
	if event.Code == "" {
		return nil, apperr.Validation("У события нет кода участия")
	}

	link := fmt.Sprintf("https://t.me/%s?start=%s", b.api.Self.UserName, event.Code)
	png, err := qrcode.Encode(link, qrcode.Medium, 256)
	if err != nil {
		return nil, fmt.Errorf("ошибка генерации QR-кода: %w", err)
	}

	return &Result{
		Replies: []Reply{{
			Text:  fmt.Sprintf("📱 QR-код для отметки участия: %s", event.Name),
			Photo: &tgbotapi.FileBytes{Name: "event_qr.png", Bytes: png},
		}},
	}, nil
}

// stateCSVImport — приём CSV-файла с событиями. Импорт построчный,
// неудачные строки пропускаются, в ответе — число добавленных записей.
func (b *Bot) stateCSVImport(ctx context.Context, u *Update, sess *Session) (*Result, error) {
	if u.Kind != KindDocument {
		return &Result{Replies: []Reply{reply("Пришлите CSV-файл документом.")}}, nil
	}

	user, err := b.authorize(u.UserID, models.RoleModerator, models.RoleAdmin)
	if err != nil {
		return nil, err
	}
	owner := models.AdminOwner
	if user.Role == models.RoleModerator {
		owner = models.ModeratorOwner(user.TelegramID)
	}

	fileURL, err := b.api.GetFileDirectURL(u.Document.FileID)
	if err != nil {
		return nil, fmt.Errorf("ошибка получения файла: %w", err)
	}

	resp, err := http.Get(fileURL)
	if err != nil {
		return nil, fmt.Errorf("ошибка загрузки файла: %w", err)
	}
	defer resp.Body.Close()

	added, err := importEventsCSV(b.store, resp.Body, owner, b.logger)
	if err != nil {
		return nil, err
	}

	res := b.menuResult(models.StateModeratorMenu, user.Role)
	res.Replies = append([]Reply{reply(fmt.Sprintf("✅ Добавлено записей: %d", added))}, res.Replies...)
	return res, nil
}
