package bot

import (
	"context"
	"fmt"
	"strings"

	"github.com/volunteerhub/volunteer-bot/models"
)

// stateVolunteerHome — волонтёрский раздел
func (b *Bot) stateVolunteerHome(ctx context.Context, u *Update, sess *Session) (*Result, error) {
	user, err := b.requireKnownUser(u.UserID)
	if err != nil {
		return nil, err
	}

	switch u.Command {
	case CmdProfile:
		res := b.menuResult(models.StateProfileMenu, user.Role)
		res.Replies = append([]Reply{reply(profileSummary(user))}, res.Replies...)
		return res, nil

	case CmdEvents:
		sess.Set("page", 0)
		sess.Set("filter", defaultFilter(user))
		return b.renderEventList(user, sess)

	case CmdMyEvents:
		return b.myEventsResult(user)

	case CmdScore:
		return &Result{Replies: []Reply{reply(fmt.Sprintf("🏆 Ваши баллы: %d", user.Score))}}, nil

	case CmdRedeem:
		return &Result{
			Next:    models.StateRedeemCode,
			Replies: []Reply{replyKb("🎟 Введите код события:", cancelKeyboard())},
		}, nil

	case CmdBack:
		return b.menuResult(models.StateMainMenu, user.Role), nil
	}

	res := b.menuResult(models.StateVolunteerHome, user.Role)
	res.Replies = append([]Reply{reply(msgUseMenuButtons)}, res.Replies...)
	return res, nil
}

// profileSummary собирает текстовое представление профиля
func profileSummary(user *models.User) string {
	city := user.City
	if city == "" {
		city = "не указан"
	}
	tags := "не выбраны"
	if len(user.Tags) > 0 {
		tags = strings.Join(user.Tags, ", ")
	}
	return fmt.Sprintf(
		"👤 %s\n🏙 Город: %s\n🏷 Теги: %s\n🏆 Баллы: %d\n📅 Записей на события: %d",
		user.Name, city, tags, user.Score, len(user.RegisteredEvents),
	)
}

// myEventsResult строит список событий, на которые записан пользователь
func (b *Bot) myEventsResult(user *models.User) (*Result, error) {
	if len(user.RegisteredEvents) == 0 {
		return &Result{Replies: []Reply{reply("Вы пока не записаны ни на одно событие.")}}, nil
	}

	var sb strings.Builder
	sb.WriteString("⭐ Ваши события:\n")
	for _, eventID := range user.RegisteredEvents {
		event, err := b.store.GetEventByID(eventID)
		if err != nil {
			return nil, err
		}
		if event == nil {
			continue
		}
		fmt.Fprintf(&sb, "\n📌 %s\n📅 %s в %s, %s\n", event.Name, event.Date, event.StartTime, event.City)
	}
	return &Result{Replies: []Reply{reply(sb.String())}}, nil
}

// stateProfileMenu — меню профиля
func (b *Bot) stateProfileMenu(ctx context.Context, u *Update, sess *Session) (*Result, error) {
	user, err := b.requireKnownUser(u.UserID)
	if err != nil {
		return nil, err
	}

	switch u.Command {
	case CmdCity:
		return &Result{
			Next:    models.StateProfileCity,
			Replies: []Reply{replyKb("🏙 Выберите ваш город:", cityPickerKeyboard(user.City))},
		}, nil

	case CmdTags:
		// Текущие теги профиля заполняют множество выбора;
		// дальше правда о выборе живёт только в нём
		selected := sess.StrSet("tags")
		for _, tag := range user.Tags {
			selected[tag] = true
		}
		return &Result{
			Next:    models.StateProfileTags,
			Replies: []Reply{replyKb("🏷 Отметьте интересные направления:", tagPickerKeyboard(selected))},
		}, nil

	case CmdDeleteProfile:
		return &Result{
			Next: models.StateProfileDeleteConfirm,
			Replies: []Reply{replyKb(
				"❓ Удалить профиль? Это действие нельзя отменить.",
				yesNoKeyboard(),
			)},
		}, nil

	case CmdBack:
		return b.menuResult(models.StateVolunteerHome, user.Role), nil
	}

	res := b.menuResult(models.StateProfileMenu, user.Role)
	res.Replies = append([]Reply{reply(msgUseMenuButtons)}, res.Replies...)
	return res, nil
}

// stateProfileCity — выбор города. Выбор фиксируется в хранилище сразу.
func (b *Bot) stateProfileCity(ctx context.Context, u *Update, sess *Session) (*Result, error) {
	if u.Kind != KindCallback || u.Action != "city" {
		return &Result{Replies: []Reply{reply("Выберите город кнопкой.")}}, nil
	}
	if !models.ValidCity(u.Arg) {
		return &Result{Replies: []Reply{reply("Неизвестный город.")}}, nil
	}

	if err := b.store.UpdateUserCity(u.UserID, u.Arg); err != nil {
		return nil, err
	}

	sess.ClearData()
	res := b.menuResult(models.StateProfileMenu, b.roleOf(u.UserID))
	res.Replies = append([]Reply{reply(fmt.Sprintf("✅ Город обновлён: %s", u.Arg))}, res.Replies...)
	return res, nil
}

// stateProfileTags — переключатель тегов профиля. «Готово» фиксирует
// множество выбора в хранилище.
func (b *Bot) stateProfileTags(ctx context.Context, u *Update, sess *Session) (*Result, error) {
	if u.Kind != KindCallback {
		return &Result{Replies: []Reply{reply("Отметьте теги кнопками.")}}, nil
	}

	selected := sess.StrSet("tags")
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
			Replies: []Reply{replyKb("🏷 Отметьте интересные направления:", tagPickerKeyboard(selected))},
		}, nil

	case "done":
		tags := make([]string, 0, len(selected))
		for _, tag := range models.Tags {
			if selected[tag] {
				tags = append(tags, tag)
			}
		}
		if err := b.store.UpdateUserTags(u.UserID, tags); err != nil {
			return nil, err
		}
		sess.ClearData()
		res := b.menuResult(models.StateProfileMenu, b.roleOf(u.UserID))
		res.Replies = append([]Reply{reply("✅ Теги обновлены")}, res.Replies...)
		return res, nil
	}

	return &Result{Replies: []Reply{reply("Отметьте теги кнопками.")}}, nil
}

// stateProfileDeleteConfirm — подтверждение удаления профиля
func (b *Bot) stateProfileDeleteConfirm(ctx context.Context, u *Update, sess *Session) (*Result, error) {
	switch u.Command {
	case CmdYes:
		if err := b.store.DeleteUser(u.UserID); err != nil {
			return nil, err
		}
		b.sessions.Reset(u.UserID, models.StatePasswordEntry)
		return &Result{
			Next:    models.StatePasswordEntry,
			Replies: []Reply{reply("🗑 Профиль удалён. " + msgEnterPassword)},
		}, nil

	case CmdNo, CmdBack:
		return b.menuResult(models.StateProfileMenu, b.roleOf(u.UserID)), nil
	}

	return &Result{Replies: []Reply{replyKb("Ответьте «Да» или «Нет».", yesNoKeyboard())}}, nil
}
