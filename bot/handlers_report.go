package bot

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"github.com/volunteerhub/volunteer-bot/apperr"
	"github.com/volunteerhub/volunteer-bot/models"
)

// stateReportEvent — выбор события для отчёта. Если отчёт уже есть,
// предлагается редактирование или удаление, иначе запускается создание.
func (b *Bot) stateReportEvent(ctx context.Context, u *Update, sess *Session) (*Result, error) {
	if u.Kind != KindCallback {
		return &Result{Replies: []Reply{reply("Выберите событие кнопкой.")}}, nil
	}

	switch u.Action {
	case "rpt":
		eventID, err := parseID(u.Arg)
		if err != nil {
			return nil, err
		}
		event, err := b.authorizeEventOwner(u.UserID, eventID)
		if err != nil {
			return nil, err
		}

		report, err := b.store.GetEventReport(eventID)
		if err != nil {
			return nil, err
		}
		if report != nil {
			sess.Set("report_event", eventID)
			return &Result{
				Replies: []Reply{replyKb(reportSummaryText(event, report), reportActionsKeyboard(eventID))},
			}, nil
		}

		sess.Set("report_event", eventID)
		return &Result{
			Next: models.StateReportDate,
			Replies: []Reply{replyKb(
				fmt.Sprintf("📝 Отчёт по событию «%s». Введите дату проведения (ДД.ММ.ГГГГ):", event.Name),
				cancelKeyboard(),
			)},
		}, nil

	case "rptedit":
		eventID, err := parseID(u.Arg)
		if err != nil {
			return nil, err
		}
		if _, err := b.authorizeEventOwner(u.UserID, eventID); err != nil {
			return nil, err
		}
		sess.Set("report_event", eventID)
		return &Result{
			Next:    models.StateReportEditField,
			Replies: []Reply{replyKb("Что изменить в отчёте?", reportEditKeyboard())},
		}, nil

	case "rptdel":
		eventID, err := parseID(u.Arg)
		if err != nil {
			return nil, err
		}
		if _, err := b.authorizeEventOwner(u.UserID, eventID); err != nil {
			return nil, err
		}
		if err := b.store.DeleteEventReport(eventID); err != nil {
			return nil, err
		}
		sess.ClearData()
		res := b.menuResult(models.StateModeratorMenu, b.roleOf(u.UserID))
		res.Replies = append([]Reply{reply("🗑 Отчёт удалён")}, res.Replies...)
		return res, nil
	}

	return &Result{Replies: []Reply{reply("Выберите событие кнопкой.")}}, nil
}

func reportSummaryText(event *models.Event, report *models.EventReport) string {
	return fmt.Sprintf(
		"📋 Отчёт по событию «%s»:\n\n📅 Дата: %s\n👥 Участников: %d\n📷 Фото: %s\n📝 Итоги: %s\n💬 Отзывы: %s",
		event.Name, report.ReportDate, report.ActualParticipants,
		strings.Join(report.PhotosLinks, ", "), report.Summary, report.Feedback,
	)
}

func (b *Bot) stateReportDate(ctx context.Context, u *Update, sess *Session) (*Result, error) {
	if u.Kind != KindText {
		return &Result{Replies: []Reply{reply("Введите дату текстом.")}}, nil
	}
	date, err := validateDate(u.Text)
	if err != nil {
		return nil, err
	}
	sess.Set("rpt_date", date)
	return &Result{
		Next:    models.StateReportParticipants,
		Replies: []Reply{replyKb("👥 Сколько участников пришло?", cancelKeyboard())},
	}, nil
}

func (b *Bot) stateReportParticipants(ctx context.Context, u *Update, sess *Session) (*Result, error) {
	if u.Kind != KindText {
		return &Result{Replies: []Reply{reply("Введите число текстом.")}}, nil
	}
	participants, err := validatePoints(u.Text)
	if err != nil {
		return nil, apperr.Validation("Введите неотрицательное число участников")
	}
	sess.Set("rpt_participants", participants)
	return &Result{
		Next:    models.StateReportPhotos,
		Replies: []Reply{replyKb("📷 Пришлите ссылки на фото через запятую:", skipCancelKeyboard())},
	}, nil
}

func (b *Bot) stateReportPhotos(ctx context.Context, u *Update, sess *Session) (*Result, error) {
	if u.Command == CmdSkip {
		sess.Set("rpt_photos", "")
	} else if u.Kind == KindText && u.Text != "" {
		sess.Set("rpt_photos", u.Text)
	} else {
		return &Result{Replies: []Reply{reply("Пришлите ссылки текстом или пропустите.")}}, nil
	}
	return &Result{
		Next:    models.StateReportSummary,
		Replies: []Reply{replyKb("📝 Опишите итоги события:", cancelKeyboard())},
	}, nil
}

func (b *Bot) stateReportSummary(ctx context.Context, u *Update, sess *Session) (*Result, error) {
	if u.Kind != KindText || u.Text == "" {
		return &Result{Replies: []Reply{reply("Опишите итоги текстом.")}}, nil
	}
	sess.Set("rpt_summary", u.Text)
	return &Result{
		Next:    models.StateReportFeedback,
		Replies: []Reply{replyKb("💬 Отзывы участников (если есть):", skipCancelKeyboard())},
	}, nil
}

func (b *Bot) stateReportFeedback(ctx context.Context, u *Update, sess *Session) (*Result, error) {
	if u.Command == CmdSkip {
		sess.Set("rpt_feedback", "")
	} else if u.Kind == KindText && u.Text != "" {
		sess.Set("rpt_feedback", u.Text)
	} else {
		return &Result{Replies: []Reply{reply("Пришлите отзывы текстом или пропустите.")}}, nil
	}

	return &Result{
		Next: models.StateReportConfirm,
		Replies: []Reply{replyKb(fmt.Sprintf(
			"Проверьте отчёт:\n\n📅 %s\n👥 Участников: %d\n📷 %s\n📝 %s\n💬 %s",
			sess.Str("rpt_date"), sess.Int("rpt_participants"),
			sess.Str("rpt_photos"), sess.Str("rpt_summary"), sess.Str("rpt_feedback"),
		), confirmCancelKeyboard())},
	}, nil
}

func (b *Bot) stateReportConfirm(ctx context.Context, u *Update, sess *Session) (*Result, error) {
	if u.Command != CmdConfirm {
		return &Result{
			Replies: []Reply{replyKb("Нажмите «Подтвердить» или «Отмена».", confirmCancelKeyboard())},
		}, nil
	}

	eventID := sess.Int64("report_event")
	if eventID == 0 {
		return nil, apperr.Validation("Событие не выбрано, начните заново")
	}
	if _, err := b.authorizeEventOwner(u.UserID, eventID); err != nil {
		return nil, err
	}

	photos := []string{}
	for _, link := range strings.Split(sess.Str("rpt_photos"), ",") {
		if link = strings.TrimSpace(link); link != "" {
			photos = append(photos, link)
		}
	}

	report := &models.EventReport{
		EventID:            eventID,
		ReportDate:         sess.Str("rpt_date"),
		ActualParticipants: sess.Int("rpt_participants"),
		PhotosLinks:        photos,
		Summary:            sess.Str("rpt_summary"),
		Feedback:           sess.Str("rpt_feedback"),
	}
	if err := b.store.CreateEventReport(report); err != nil {
		return nil, err
	}

	sess.ClearData()
	res := b.menuResult(models.StateModeratorMenu, b.roleOf(u.UserID))
	res.Replies = append([]Reply{reply("✅ Отчёт сохранён")}, res.Replies...)
	return res, nil
}

// reportFieldPrompts — подсказки ввода нового значения поля отчёта
var reportFieldPrompts = map[string]string{
	"date":         "Введите новую дату (ДД.ММ.ГГГГ):",
	"participants": "Введите новое число участников:",
	"photos":       "Пришлите новые ссылки на фото через запятую:",
	"summary":      "Введите новые итоги:",
	"feedback":     "Введите новые отзывы:",
}

func (b *Bot) stateReportEditField(ctx context.Context, u *Update, sess *Session) (*Result, error) {
	if u.Kind != KindCallback || u.Action != "rfield" {
		return &Result{Replies: []Reply{reply("Выберите поле кнопкой.")}}, nil
	}
	if _, ok := reportFieldPrompts[u.Arg]; !ok {
		return nil, apperr.Validation("Неизвестное поле: %s", u.Arg)
	}
	sess.Set("report_field", u.Arg)
	return &Result{
		Next:    models.StateReportEditValue,
		Replies: []Reply{replyKb(reportFieldPrompts[u.Arg], cancelKeyboard())},
	}, nil
}

func (b *Bot) stateReportEditValue(ctx context.Context, u *Update, sess *Session) (*Result, error) {
	if u.Kind != KindText || u.Text == "" {
		return &Result{Replies: []Reply{reply("Введите значение текстом.")}}, nil
	}

	eventID := sess.Int64("report_event")
	field := sess.Str("report_field")
	if eventID == 0 || field == "" {
		return nil, apperr.Validation("Отчёт не выбран, начните заново")
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
	case "participants":
		participants, err := validatePoints(value)
		if err != nil {
			return nil, apperr.Validation("Введите неотрицательное число участников")
		}
		value = strconv.Itoa(participants)
	}

	if err := b.store.UpdateEventReportField(eventID, field, value); err != nil {
		return nil, err
	}

	sess.ClearData()
	res := b.menuResult(models.StateModeratorMenu, b.roleOf(u.UserID))
	res.Replies = append([]Reply{reply("✅ Отчёт обновлён")}, res.Replies...)
	return res, nil
}
