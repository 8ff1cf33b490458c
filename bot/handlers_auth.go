package bot

import (
	"context"
	"fmt"

	"github.com/volunteerhub/volunteer-bot/models"
)

// statePasswordEntry — вход в бот. Пароль волонтёра даёт роль user,
// пароль администратора — admin. Любой другой ввод повторяет запрос.
func (b *Bot) statePasswordEntry(ctx context.Context, u *Update, sess *Session) (*Result, error) {
	if u.Kind != KindText {
		return &Result{Replies: []Reply{reply(msgEnterPassword)}}, nil
	}

	var role models.Role
	switch {
	case b.opts.AdminPassword != "" && u.Text == b.opts.AdminPassword:
		role = models.RoleAdmin
	case b.opts.BotPassword != "" && u.Text == b.opts.BotPassword:
		role = models.RoleUser
	default:
		return &Result{Replies: []Reply{reply(msgWrongPassword)}}, nil
	}

	user, err := b.store.GetUser(u.UserID)
	if err != nil {
		return nil, err
	}
	if user == nil {
		user = &models.User{
			TelegramID: u.UserID,
			Name:       u.Name,
			Role:       role,
		}
	} else {
		// Повторный вход: профиль сохраняется, роль повышается
		// только паролем администратора
		if role == models.RoleAdmin {
			user.Role = models.RoleAdmin
		}
	}
	if err := b.store.SaveUser(user); err != nil {
		return nil, err
	}

	res := b.menuResult(models.StateMainMenu, user.Role)
	greeting := fmt.Sprintf("✅ Добро пожаловать, %s!", user.Name)
	res.Replies = append([]Reply{reply(greeting)}, res.Replies...)
	return res, nil
}
