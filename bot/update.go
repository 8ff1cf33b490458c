package bot

import (
	"strings"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
)

// Kind — вид входящего события
type Kind int

// Виды входящих событий
const (
	KindText Kind = iota
	KindCallback
	KindDocument
)

// Command — распознанная кнопка или команда. Обработчики переключаются по
// вариантам, а не по сырому тексту кнопок.
type Command int

// Распознаваемые команды
const (
	CmdNone Command = iota
	CmdStart
	CmdCancel
	CmdDone
	CmdBack
	CmdConfirm
	CmdSkip
	CmdYes
	CmdNo
	CmdAIChat
	CmdVolunteer
	CmdAdminMenu
	CmdModeratorMenu
	CmdLogout
	CmdProfile
	CmdEvents
	CmdMyEvents
	CmdScore
	CmdRedeem
	CmdCity
	CmdTags
	CmdDeleteProfile
	CmdSetRole
	CmdUserList
	CmdDeleteUser
	CmdProjects
	CmdAddProject
	CmdListProjects
	CmdExportCSV
	CmdCreateEvent
	CmdEditEvents
	CmdImportCSV
	CmdReports
)

// Надписи на кнопках
const (
	btnAIChat        = "🤖 AI-помощник"
	btnVolunteer     = "🙋 Волонтёрство"
	btnAdminMenu     = "⚙️ Администрирование"
	btnModeratorMenu = "🛠 Модерация"
	btnLogout        = "🚪 Выйти"

	btnProfile  = "👤 Профиль"
	btnEvents   = "📅 События"
	btnMyEvents = "⭐ Мои события"
	btnScore    = "🏆 Мои баллы"
	btnRedeem   = "🎟 Ввести код"

	btnCity          = "🏙 Город"
	btnTags          = "🏷 Теги"
	btnDeleteProfile = "🗑 Удалить профиль"

	btnSetRole    = "👮 Назначить роль"
	btnUserList   = "👥 Пользователи"
	btnDeleteUser = "🗑 Удалить пользователя"
	btnProjects   = "📁 Проекты"
	btnExportCSV  = "📤 Экспорт событий"

	btnAddProject   = "➕ Добавить проект"
	btnListProjects = "📋 Список проектов"

	btnCreateEvent = "➕ Создать событие"
	btnEditEvents  = "✏️ Редактировать события"
	btnImportCSV   = "📥 Импорт CSV"
	btnReports     = "📝 Отчёты"

	btnBack    = "⬅️ Назад"
	btnCancel  = "❌ Отмена"
	btnDone    = "✅ Готово"
	btnConfirm = "✅ Подтвердить"
	btnSkip    = "➡️ Пропустить"
	btnYes     = "✅ Да"
	btnNo      = "❌ Нет"
)

// commandLabels сопоставляет текст кнопки команде. Разбор выполняется один
// раз на границе транспорта; обработчики текстов кнопок не видят.
var commandLabels = map[string]Command{
	btnAIChat:        CmdAIChat,
	btnVolunteer:     CmdVolunteer,
	btnAdminMenu:     CmdAdminMenu,
	btnModeratorMenu: CmdModeratorMenu,
	btnLogout:        CmdLogout,
	btnProfile:       CmdProfile,
	btnEvents:        CmdEvents,
	btnMyEvents:      CmdMyEvents,
	btnScore:         CmdScore,
	btnRedeem:        CmdRedeem,
	btnCity:          CmdCity,
	btnTags:          CmdTags,
	btnDeleteProfile: CmdDeleteProfile,
	btnSetRole:       CmdSetRole,
	btnUserList:      CmdUserList,
	btnDeleteUser:    CmdDeleteUser,
	btnProjects:      CmdProjects,
	btnAddProject:    CmdAddProject,
	btnListProjects:  CmdListProjects,
	btnExportCSV:     CmdExportCSV,
	btnCreateEvent:   CmdCreateEvent,
	btnEditEvents:    CmdEditEvents,
	btnImportCSV:     CmdImportCSV,
	btnReports:       CmdReports,
	btnBack:          CmdBack,
	btnCancel:        CmdCancel,
	btnDone:          CmdDone,
	btnConfirm:       CmdConfirm,
	btnSkip:          CmdSkip,
	btnYes:           CmdYes,
	btnNo:            CmdNo,
}

// Update — входящее событие, приведённое к внутреннему виду
type Update struct {
	UserID     int64
	ChatID     int64
	Kind       Kind
	Text       string
	Command    Command
	Action     string // callback: действие
	Arg        string // callback: аргумент
	Document   *tgbotapi.Document
	Name       string // отображаемое имя пользователя
	CallbackID string
}

// parseCommand распознаёт команду по тексту сообщения
func parseCommand(text string) Command {
	text = strings.TrimSpace(text)
	if text == "/start" || strings.HasPrefix(text, "/start ") {
		return CmdStart
	}
	if text == "/cancel" {
		return CmdCancel
	}
	if cmd, ok := commandLabels[text]; ok {
		return cmd
	}
	return CmdNone
}

// parseUpdate приводит обновление Telegram к внутреннему виду.
// Возвращает nil для обновлений, которые бот не обрабатывает.
func parseUpdate(update tgbotapi.Update) *Update {
	switch {
	case update.CallbackQuery != nil:
		cq := update.CallbackQuery
		action, arg := splitCallback(cq.Data)
		u := &Update{
			UserID:     cq.From.ID,
			Kind:       KindCallback,
			Action:     action,
			Arg:        arg,
			Name:       displayName(cq.From),
			CallbackID: cq.ID,
		}
		if cq.Message != nil {
			u.ChatID = cq.Message.Chat.ID
		} else {
			u.ChatID = cq.From.ID
		}
		return u

	case update.Message != nil && update.Message.Document != nil:
		msg := update.Message
		return &Update{
			UserID:   msg.From.ID,
			ChatID:   msg.Chat.ID,
			Kind:     KindDocument,
			Document: msg.Document,
			Name:     displayName(msg.From),
		}

	case update.Message != nil:
		msg := update.Message
		u := &Update{
			UserID:  msg.From.ID,
			ChatID:  msg.Chat.ID,
			Kind:    KindText,
			Text:    strings.TrimSpace(msg.Text),
			Command: parseCommand(msg.Text),
			Name:    displayName(msg.From),
		}
		// Код участия из QR-ссылки приходит аргументом /start
		if u.Command == CmdStart {
			if _, payload, ok := strings.Cut(u.Text, " "); ok {
				u.Arg = strings.TrimSpace(payload)
			}
		}
		return u
	}

	return nil
}

// splitCallback разбирает полезную нагрузку callback-кнопки вида action:arg
func splitCallback(data string) (string, string) {
	parts := strings.SplitN(data, ":", 2)
	if len(parts) == 2 {
		return parts[0], parts[1]
	}
	return data, ""
}

func displayName(from *tgbotapi.User) string {
	if from == nil {
		return ""
	}
	name := strings.TrimSpace(from.FirstName + " " + from.LastName)
	if name == "" {
		name = from.UserName
	}
	return name
}
