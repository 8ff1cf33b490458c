package bot

import (
	"context"
	"fmt"

	"github.com/volunteerhub/volunteer-bot/apperr"
	"github.com/volunteerhub/volunteer-bot/models"
)

// authorize проверяет, что роль пользователя входит в разрешённый набор.
// Проверка — строгая принадлежность множеству, иерархия ролей не
// подразумевается: операции только для администратора должны явно
// перечислять RoleAdmin.
func (b *Bot) authorize(userID int64, allowed ...models.Role) (*models.User, error) {
	user, err := b.store.GetUser(userID)
	if err != nil {
		return nil, fmt.Errorf("ошибка проверки прав: %w", err)
	}
	if user == nil {
		return nil, apperr.Authorization("Доступ запрещён")
	}
	for _, role := range allowed {
		if user.Role == role {
			return user, nil
		}
	}
	return nil, apperr.Authorization("Доступ запрещён")
}

// requireRole оборачивает обработчик состояния проверкой роли.
// При отказе обработчик не вызывается.
func (b *Bot) requireRole(h handlerFunc, allowed ...models.Role) handlerFunc {
	return func(ctx context.Context, u *Update, sess *Session) (*Result, error) {
		if _, err := b.authorize(u.UserID, allowed...); err != nil {
			return nil, err
		}
		return h(ctx, u, sess)
	}
}

// authorizeEventOwner проверяет право пользователя изменять событие:
// модератор может менять только свои события, администратор — любые.
func (b *Bot) authorizeEventOwner(userID int64, eventID int64) (*models.Event, error) {
	user, err := b.authorize(userID, models.RoleModerator, models.RoleAdmin)
	if err != nil {
		return nil, err
	}

	event, err := b.store.GetEventByID(eventID)
	if err != nil {
		return nil, err
	}
	if event == nil {
		return nil, apperr.NotFound("Событие не найдено")
	}
	if !event.OwnedBy(userID, user.Role) {
		return nil, apperr.Authorization("Это событие принадлежит другому модератору")
	}
	return event, nil
}
