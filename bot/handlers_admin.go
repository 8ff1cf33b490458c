package bot

import (
	"context"
	"fmt"
	"strings"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"github.com/volunteerhub/volunteer-bot/apperr"
	"github.com/volunteerhub/volunteer-bot/models"
)

// stateAdminMenu — меню администратора
func (b *Bot) stateAdminMenu(ctx context.Context, u *Update, sess *Session) (*Result, error) {
	switch u.Command {
	case CmdSetRole:
		return &Result{
			Next:    models.StateRoleUserID,
			Replies: []Reply{replyKb("👮 Введите Telegram ID или имя пользователя:", cancelKeyboard())},
		}, nil

	case CmdUserList:
		return b.userListResult()

	case CmdDeleteUser:
		return &Result{
			Next:    models.StateUserDeleteID,
			Replies: []Reply{replyKb("🗑 Введите Telegram ID или имя пользователя для удаления:", cancelKeyboard())},
		}, nil

	case CmdProjects:
		return b.menuResult(models.StateProjectMenu, models.RoleAdmin), nil

	case CmdExportCSV:
		return b.exportEventsResult()

	case CmdBack:
		return b.menuResult(models.StateMainMenu, models.RoleAdmin), nil
	}

	res := b.menuResult(models.StateAdminMenu, models.RoleAdmin)
	res.Replies = append([]Reply{reply(msgUseMenuButtons)}, res.Replies...)
	return res, nil
}

// userListResult строит сводку по всем пользователям
func (b *Bot) userListResult() (*Result, error) {
	users, err := b.store.GetAllUsers()
	if err != nil {
		return nil, err
	}
	if len(users) == 0 {
		return &Result{Replies: []Reply{reply("Пользователей пока нет.")}}, nil
	}

	var sb strings.Builder
	sb.WriteString("👥 Пользователи:\n")
	for _, user := range users {
		fmt.Fprintf(&sb, "\n%d — %s [%s], баллы: %d", user.TelegramID, user.Name, user.Role, user.Score)
	}
	return &Result{Replies: []Reply{reply(sb.String())}}, nil
}

// exportEventsResult выгружает все события в CSV-файл
func (b *Bot) exportEventsResult() (*Result, error) {
	events, err := b.store.GetAllEvents()
	if err != nil {
		return nil, err
	}
	if len(events) == 0 {
		return &Result{Replies: []Reply{reply("Событий для экспорта нет.")}}, nil
	}

	data, err := exportEventsCSV(events)
	if err != nil {
		return nil, err
	}

	filename := "events_export_" + time.Now().Format("20060102_150405") + ".csv"
	return &Result{
		Replies: []Reply{{
			Text:     fmt.Sprintf("📤 Экспорт событий (%d записей)", len(events)),
			Document: &tgbotapi.FileBytes{Name: filename, Bytes: data},
		}},
	}, nil
}

// resolveUser находит пользователя по числовому ID или по имени
func (b *Bot) resolveUser(query string) (*models.User, error) {
	query = strings.TrimSpace(query)
	if id, err := parseID(query); err == nil {
		user, err := b.store.GetUser(id)
		if err != nil {
			return nil, err
		}
		if user != nil {
			return user, nil
		}
	}

	user, err := b.store.FindUserByName(query)
	if err != nil {
		return nil, err
	}
	if user == nil {
		return nil, apperr.NotFound("Пользователь «%s» не найден", query)
	}
	return user, nil
}

// stateRoleUserID — выбор пользователя для смены роли
func (b *Bot) stateRoleUserID(ctx context.Context, u *Update, sess *Session) (*Result, error) {
	if u.Kind != KindText || u.Text == "" {
		return &Result{Replies: []Reply{reply("Введите ID или имя текстом.")}}, nil
	}

	target, err := b.resolveUser(u.Text)
	if err != nil {
		return nil, err
	}
	if target.TelegramID == u.UserID {
		return nil, apperr.Validation("Нельзя изменить собственную роль")
	}

	sess.Set("role_target", target.TelegramID)
	return &Result{
		Next: models.StateRolePick,
		Replies: []Reply{replyKb(
			fmt.Sprintf("Пользователь: %s (текущая роль: %s). Выберите новую роль:", target.Name, target.Role),
			roleKeyboard(),
		)},
	}, nil
}

// stateRolePick — выбор новой роли
func (b *Bot) stateRolePick(ctx context.Context, u *Update, sess *Session) (*Result, error) {
	if u.Kind != KindCallback || u.Action != "role" {
		return &Result{Replies: []Reply{reply("Выберите роль кнопкой.")}}, nil
	}
	if !models.ValidRole(u.Arg) {
		return nil, apperr.Validation("Неизвестная роль: %s", u.Arg)
	}

	targetID := sess.Int64("role_target")
	if targetID == 0 {
		return nil, apperr.Validation("Пользователь не выбран, начните заново")
	}

	if err := b.store.UpdateUserRole(targetID, models.Role(u.Arg)); err != nil {
		return nil, err
	}

	sess.ClearData()
	res := b.menuResult(models.StateAdminMenu, models.RoleAdmin)
	res.Replies = append([]Reply{reply(fmt.Sprintf("✅ Роль обновлена: %s", u.Arg))}, res.Replies...)
	return res, nil
}

// stateUserDeleteID — удаление пользователя
func (b *Bot) stateUserDeleteID(ctx context.Context, u *Update, sess *Session) (*Result, error) {
	if u.Kind != KindText || u.Text == "" {
		return &Result{Replies: []Reply{reply("Введите ID или имя текстом.")}}, nil
	}

	target, err := b.resolveUser(u.Text)
	if err != nil {
		return nil, err
	}
	if target.TelegramID == u.UserID {
		return nil, apperr.Validation("Для удаления собственного профиля используйте меню профиля")
	}

	if err := b.store.DeleteUser(target.TelegramID); err != nil {
		return nil, err
	}

	res := b.menuResult(models.StateAdminMenu, models.RoleAdmin)
	res.Replies = append([]Reply{reply(fmt.Sprintf("🗑 Пользователь %s удалён", target.Name))}, res.Replies...)
	return res, nil
}

// stateProjectMenu — меню проектов
func (b *Bot) stateProjectMenu(ctx context.Context, u *Update, sess *Session) (*Result, error) {
	if u.Kind == KindCallback && u.Action == "delproject" {
		projectID, err := parseID(u.Arg)
		if err != nil {
			return nil, err
		}
		if err := b.store.DeleteProject(projectID); err != nil {
			return nil, err
		}
		return &Result{Replies: []Reply{reply("🗑 Проект удалён")}}, nil
	}

	switch u.Command {
	case CmdAddProject:
		return &Result{
			Next:    models.StateProjectName,
			Replies: []Reply{replyKb("➕ Введите название проекта:", cancelKeyboard())},
		}, nil

	case CmdListProjects:
		projects, err := b.store.GetProjects()
		if err != nil {
			return nil, err
		}
		if len(projects) == 0 {
			return &Result{Replies: []Reply{reply("Проектов пока нет.")}}, nil
		}
		var sb strings.Builder
		sb.WriteString("📁 Проекты:\n")
		for _, project := range projects {
			fmt.Fprintf(&sb, "\n%d. %s — %s (отв.: %s)", project.ID, project.Name, project.Description, project.Responsible)
		}
		return &Result{
			Replies: []Reply{{Text: sb.String(), Keyboard: projectListKeyboard(projects)}},
		}, nil

	case CmdBack:
		return b.menuResult(models.StateAdminMenu, models.RoleAdmin), nil
	}

	res := b.menuResult(models.StateProjectMenu, models.RoleAdmin)
	res.Replies = append([]Reply{reply(msgUseMenuButtons)}, res.Replies...)
	return res, nil
}

// stateProjectName — ввод названия проекта
func (b *Bot) stateProjectName(ctx context.Context, u *Update, sess *Session) (*Result, error) {
	if u.Kind != KindText || u.Text == "" {
		return &Result{Replies: []Reply{reply("Введите название текстом.")}}, nil
	}
	sess.Set("project_name", u.Text)
	return &Result{
		Next:    models.StateProjectDesc,
		Replies: []Reply{replyKb("Введите описание проекта:", skipCancelKeyboard())},
	}, nil
}

// stateProjectDesc — ввод описания проекта
func (b *Bot) stateProjectDesc(ctx context.Context, u *Update, sess *Session) (*Result, error) {
	if u.Command == CmdSkip {
		sess.Set("project_desc", "")
	} else if u.Kind == KindText && u.Text != "" {
		sess.Set("project_desc", u.Text)
	} else {
		return &Result{Replies: []Reply{reply("Введите описание текстом или пропустите.")}}, nil
	}
	return &Result{
		Next:    models.StateProjectResp,
		Replies: []Reply{replyKb("Укажите ответственного:", cancelKeyboard())},
	}, nil
}

// stateProjectResp — ввод ответственного и сохранение проекта
func (b *Bot) stateProjectResp(ctx context.Context, u *Update, sess *Session) (*Result, error) {
	if u.Kind != KindText || u.Text == "" {
		return &Result{Replies: []Reply{reply("Укажите ответственного текстом.")}}, nil
	}

	project := &models.Project{
		Name:        sess.Str("project_name"),
		Description: sess.Str("project_desc"),
		Responsible: u.Text,
	}
	if project.Name == "" {
		return nil, apperr.Validation("Название проекта не заполнено, начните заново")
	}

	projectID, err := b.store.AddProject(project)
	if err != nil {
		return nil, err
	}

	sess.ClearData()
	res := b.menuResult(models.StateProjectMenu, models.RoleAdmin)
	res.Replies = append([]Reply{reply(fmt.Sprintf("✅ Проект создан (ID %d)", projectID))}, res.Replies...)
	return res, nil
}
