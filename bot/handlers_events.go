package bot

import (
	"context"
	"fmt"
	"strings"

	"github.com/volunteerhub/volunteer-bot/apperr"
	"github.com/volunteerhub/volunteer-bot/models"
)

// Режимы фильтрации списка событий
const (
	filterAll  = "all"
	filterCity = "city"
	filterTag  = "tag"
)

// defaultFilter выбирает стартовый фильтр списка: сначала по городу
// пользователя, затем по его первому тегу, иначе без фильтра
func defaultFilter(user *models.User) string {
	if user.City != "" {
		return filterCity
	}
	if len(user.Tags) > 0 {
		return filterTag
	}
	return filterAll
}

// nextFilter переключает режим фильтрации по кругу, пропуская режимы,
// для которых у пользователя нет данных
func nextFilter(current string, user *models.User) string {
	order := []string{filterCity, filterTag, filterAll}
	available := func(f string) bool {
		switch f {
		case filterCity:
			return user.City != ""
		case filterTag:
			return len(user.Tags) > 0
		}
		return true
	}

	idx := 0
	for i, f := range order {
		if f == current {
			idx = i
			break
		}
	}
	for i := 1; i <= len(order); i++ {
		candidate := order[(idx+i)%len(order)]
		if available(candidate) {
			return candidate
		}
	}
	return filterAll
}

// stateEventList — постраничный просмотр событий с записью и отменой записи
func (b *Bot) stateEventList(ctx context.Context, u *Update, sess *Session) (*Result, error) {
	user, err := b.requireKnownUser(u.UserID)
	if err != nil {
		return nil, err
	}

	if u.Command == CmdBack {
		sess.ClearData()
		return b.menuResult(models.StateVolunteerHome, user.Role), nil
	}

	if u.Kind == KindCallback {
		switch u.Action {
		case "page":
			page, err := parseID(u.Arg)
			if err != nil {
				return nil, err
			}
			sess.Set("page", int(page))
			return b.renderEventList(user, sess)

		case "filter":
			sess.Set("filter", nextFilter(sess.Str("filter"), user))
			sess.Set("page", 0)
			return b.renderEventList(user, sess)

		case "reg":
			eventID, err := parseID(u.Arg)
			if err != nil {
				return nil, err
			}
			if err := b.store.RegisterUserForEvent(u.UserID, eventID); err != nil {
				return nil, err
			}
			// Перечитываем пользователя: его записи изменились
			user, err = b.requireKnownUser(u.UserID)
			if err != nil {
				return nil, err
			}
			res, err := b.renderEventList(user, sess)
			if err != nil {
				return nil, err
			}
			res.Replies = append([]Reply{reply("✅ Вы записаны на событие!")}, res.Replies...)
			return res, nil

		case "unreg":
			eventID, err := parseID(u.Arg)
			if err != nil {
				return nil, err
			}
			if err := b.store.UnregisterUserFromEvent(u.UserID, eventID); err != nil {
				return nil, err
			}
			user, err = b.requireKnownUser(u.UserID)
			if err != nil {
				return nil, err
			}
			res, err := b.renderEventList(user, sess)
			if err != nil {
				return nil, err
			}
			res.Replies = append([]Reply{reply("✅ Запись отменена.")}, res.Replies...)
			return res, nil
		}
	}

	return &Result{Replies: []Reply{reply("Используйте кнопки под списком или «Назад».")}}, nil
}

// renderEventList строит страницу списка событий согласно фильтру и
// странице из данных сценария. Номер страницы ограничивается допустимым
// диапазоном.
func (b *Bot) renderEventList(user *models.User, sess *Session) (*Result, error) {
	filter := sess.Str("filter")
	// Фильтр без данных профиля невыполним, список показывается без фильтра
	if (filter == filterCity && user.City == "") ||
		(filter == filterTag && len(user.Tags) == 0) {
		filter = filterAll
		sess.Set("filter", filter)
	}
	pageSize := b.opts.PageSize

	var total int
	var err error
	switch filter {
	case filterCity:
		total, err = b.store.CountEventsByCity(user.City)
	case filterTag:
		total, err = b.store.CountEventsByTag(user.Tags[0])
	default:
		total, err = b.store.CountEvents()
	}
	if err != nil {
		return nil, err
	}

	if total == 0 {
		return &Result{
			Next:    models.StateEventList,
			Replies: []Reply{replyKb("📭 Событий не найдено. "+filterLabel(filter, user), backKeyboard())},
		}, nil
	}

	totalPages := (total + pageSize - 1) / pageSize
	page := sess.Int("page")
	if page < 0 {
		page = 0
	}
	if page > totalPages-1 {
		page = totalPages - 1
	}
	sess.Set("page", page)

	var events []*models.Event
	offset := page * pageSize
	switch filter {
	case filterCity:
		events, err = b.store.GetEventsByCity(user.City, pageSize, offset)
	case filterTag:
		events, err = b.store.GetEventsByTag(user.Tags[0], pageSize, offset)
	default:
		events, err = b.store.GetEvents(pageSize, offset)
	}
	if err != nil {
		return nil, err
	}

	var sb strings.Builder
	fmt.Fprintf(&sb, "📅 События (стр. %d из %d). %s\n", page+1, totalPages, filterLabel(filter, user))
	for _, event := range events {
		fmt.Fprintf(&sb, "\n📌 %s\n📆 %s в %s, %s\n🏆 Баллы: %d | 👥 Участников: %d\n",
			event.Name, event.Date, event.StartTime, event.City,
			event.ParticipationPoints, event.ParticipantsCount,
		)
		if len(event.Tags) > 0 {
			fmt.Fprintf(&sb, "🏷 %s\n", strings.Join(event.Tags, ", "))
		}
		if event.Description != "" {
			fmt.Fprintf(&sb, "📝 %s\n", event.Description)
		}
	}

	return &Result{
		Next: models.StateEventList,
		Replies: []Reply{
			{Text: sb.String(), Keyboard: eventListKeyboard(events, user, page, totalPages)},
		},
	}, nil
}

// filterLabel описывает активный фильтр
func filterLabel(filter string, user *models.User) string {
	switch filter {
	case filterCity:
		return fmt.Sprintf("Фильтр: город %s", user.City)
	case filterTag:
		return fmt.Sprintf("Фильтр: тег %s", user.Tags[0])
	}
	return "Фильтр: все события"
}

// stateRedeemCode — ввод кода участия. Код начисляет баллы события один
// раз и только записанным на него пользователям.
func (b *Bot) stateRedeemCode(ctx context.Context, u *Update, sess *Session) (*Result, error) {
	if u.Kind != KindText || u.Text == "" {
		return &Result{Replies: []Reply{reply("Введите код текстом.")}}, nil
	}

	event, err := b.store.GetEventByCode(strings.TrimSpace(u.Text))
	if err != nil {
		return nil, err
	}
	if event == nil {
		return nil, apperr.NotFound("Событие с таким кодом не найдено")
	}

	points, err := b.store.RedeemEventCode(u.UserID, event.ID)
	if err != nil {
		return nil, err
	}

	res := b.menuResult(models.StateVolunteerHome, b.roleOf(u.UserID))
	res.Replies = append([]Reply{
		reply(fmt.Sprintf("🎉 Код принят! Начислено баллов: %d", points)),
	}, res.Replies...)
	return res, nil
}
