package bot

import (
	"context"
	"fmt"
	"strings"

	"github.com/volunteerhub/volunteer-bot/apperr"
	"github.com/volunteerhub/volunteer-bot/models"
)

// stateMainMenu — главное меню. Пункты администрирования и модерации
// проходят через проверку роли до входа в соответствующее меню.
func (b *Bot) stateMainMenu(ctx context.Context, u *Update, sess *Session) (*Result, error) {
	switch u.Command {
	case CmdAIChat:
		return &Result{
			Next: models.StateAIChat,
			Replies: []Reply{replyKb(
				"🤖 Задайте вопрос о волонтёрстве или событиях — я постараюсь помочь!",
				backKeyboard(),
			)},
		}, nil

	case CmdVolunteer:
		if _, err := b.requireKnownUser(u.UserID); err != nil {
			return nil, err
		}
		return b.menuResult(models.StateVolunteerHome, b.roleOf(u.UserID)), nil

	case CmdAdminMenu:
		if _, err := b.authorize(u.UserID, models.RoleAdmin); err != nil {
			return nil, err
		}
		return b.menuResult(models.StateAdminMenu, models.RoleAdmin), nil

	case CmdModeratorMenu:
		user, err := b.authorize(u.UserID, models.RoleModerator, models.RoleAdmin)
		if err != nil {
			return nil, err
		}
		return b.menuResult(models.StateModeratorMenu, user.Role), nil

	case CmdLogout:
		b.sessions.Reset(u.UserID, models.StatePasswordEntry)
		return &Result{
			Next:    models.StatePasswordEntry,
			Replies: []Reply{reply("🚪 Вы вышли. " + msgEnterPassword)},
		}, nil
	}

	// Нераспознанный ввод: то же меню повторяется
	res := b.menuResult(models.StateMainMenu, b.roleOf(u.UserID))
	res.Replies = append([]Reply{reply(msgUseMenuButtons)}, res.Replies...)
	return res, nil
}

// requireKnownUser требует, чтобы пользователь прошёл авторизацию
func (b *Bot) requireKnownUser(userID int64) (*models.User, error) {
	user, err := b.store.GetUser(userID)
	if err != nil {
		return nil, err
	}
	if user == nil {
		return nil, apperr.Authorization("Доступ запрещён")
	}
	return user, nil
}

// stateAIChat — диалог с AI-помощником. Каждый текст уходит внешнему
// сервису вместе со сводкой событий; сбой сервиса не продвигает состояние,
// пользователь может повторить вопрос.
func (b *Bot) stateAIChat(ctx context.Context, u *Update, sess *Session) (*Result, error) {
	if u.Command == CmdBack {
		return b.menuResult(models.StateMainMenu, b.roleOf(u.UserID)), nil
	}
	if u.Kind != KindText || u.Text == "" {
		return &Result{Replies: []Reply{reply("Напишите вопрос текстом или вернитесь назад.")}}, nil
	}

	events, err := b.store.GetAllEvents()
	if err != nil {
		return nil, err
	}

	answer, err := b.ai.Complete(ctx, buildAIPrompt(u.Text, events))
	if err != nil {
		return nil, apperr.RemoteService("AI-сервис недоступен", err)
	}

	return &Result{Replies: []Reply{reply(answer)}}, nil
}

// buildAIPrompt собирает запрос к AI-сервису: вопрос пользователя плюс
// каталог событий в качестве контекста
func buildAIPrompt(question string, events []*models.Event) string {
	var sb strings.Builder
	sb.WriteString("Ты — помощник волонтёрской организации. ")
	sb.WriteString("Отвечай кратко и дружелюбно на русском языке. ")
	sb.WriteString("Рекомендуй события только из списка ниже.\n\n")
	sb.WriteString("Предстоящие события:\n")
	if len(events) == 0 {
		sb.WriteString("(пока нет событий)\n")
	}
	for _, event := range events {
		fmt.Fprintf(&sb, "- %s, %s %s, %s", event.Name, event.Date, event.StartTime, event.City)
		if len(event.Tags) > 0 {
			fmt.Fprintf(&sb, " [%s]", strings.Join(event.Tags, ", "))
		}
		if event.Description != "" {
			fmt.Fprintf(&sb, " — %s", event.Description)
		}
		sb.WriteString("\n")
	}
	sb.WriteString("\nВопрос пользователя: ")
	sb.WriteString(question)
	return sb.String()
}
