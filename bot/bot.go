package bot

import (
	"context"
	"fmt"
	"sync"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"go.uber.org/zap"

	"github.com/volunteerhub/volunteer-bot/apperr"
	"github.com/volunteerhub/volunteer-bot/db"
	"github.com/volunteerhub/volunteer-bot/models"
)

// Completer — операция внешнего сервиса дополнения текста
type Completer interface {
	Complete(ctx context.Context, prompt string) (string, error)
}

// Options — параметры бота, не зависящие от транспорта
type Options struct {
	BotPassword   string
	AdminPassword string
	PageSize      int
	SessionTTL    time.Duration
}

// Bot представляет Telegram бота
type Bot struct {
	api      *tgbotapi.BotAPI
	store    db.Store
	ai       Completer
	sessions *Sessions
	logger   *zap.Logger
	opts     Options

	handlers map[models.State]handlerFunc

	queueMu sync.Mutex
	queues  map[int64]*userQueue
}

// userQueue — очередь событий одного пользователя. busy означает, что
// горутина-разборщик уже запущена.
type userQueue struct {
	pending []*Update
	busy    bool
}

// handlerFunc обрабатывает одно входящее событие в определённом состоянии
// диалога и возвращает ответы и следующее состояние
type handlerFunc func(ctx context.Context, u *Update, sess *Session) (*Result, error)

// Result — результат обработки события
type Result struct {
	Next    models.State // "" — остаться в текущем состоянии
	Replies []Reply
}

// Reply — одно исходящее сообщение
type Reply struct {
	Text     string
	Keyboard interface{}
	Document *tgbotapi.FileBytes
	Photo    *tgbotapi.FileBytes
}

func reply(text string) Reply {
	return Reply{Text: text}
}

func replyKb(text string, keyboard interface{}) Reply {
	return Reply{Text: text, Keyboard: keyboard}
}

// NewBot создает нового бота
func NewBot(token string, store db.Store, ai Completer, opts Options, logger *zap.Logger) (*Bot, error) {
	api, err := tgbotapi.NewBotAPI(token)
	if err != nil {
		return nil, err
	}

	b := newBot(api, store, ai, opts, logger)
	return b, nil
}

// newBot собирает бота без обращения к Telegram API (используется в тестах)
func newBot(api *tgbotapi.BotAPI, store db.Store, ai Completer, opts Options, logger *zap.Logger) *Bot {
	if opts.PageSize <= 0 {
		opts.PageSize = 2
	}
	if opts.SessionTTL <= 0 {
		opts.SessionTTL = 24 * time.Hour
	}

	b := &Bot{
		api:      api,
		store:    store,
		ai:       ai,
		sessions: NewSessions(opts.SessionTTL),
		logger:   logger,
		opts:     opts,
		queues:   map[int64]*userQueue{},
	}
	b.registerHandlers()
	return b
}

// registerHandlers строит таблицу диспетчеризации: состояние -> обработчик.
// Состояния административных и модераторских сценариев защищены проверкой
// роли; обёртка не вызывает обработчик при отказе.
func (b *Bot) registerHandlers() {
	admin := func(h handlerFunc) handlerFunc {
		return b.requireRole(h, models.RoleAdmin)
	}
	moderator := func(h handlerFunc) handlerFunc {
		return b.requireRole(h, models.RoleModerator, models.RoleAdmin)
	}

	b.handlers = map[models.State]handlerFunc{
		models.StatePasswordEntry: b.statePasswordEntry,
		models.StateMainMenu:      b.stateMainMenu,
		models.StateAIChat:        b.stateAIChat,

		models.StateVolunteerHome:        b.stateVolunteerHome,
		models.StateProfileMenu:          b.stateProfileMenu,
		models.StateProfileCity:          b.stateProfileCity,
		models.StateProfileTags:          b.stateProfileTags,
		models.StateProfileDeleteConfirm: b.stateProfileDeleteConfirm,

		models.StateEventList:  b.stateEventList,
		models.StateRedeemCode: b.stateRedeemCode,

		models.StateAdminMenu:    admin(b.stateAdminMenu),
		models.StateRoleUserID:   admin(b.stateRoleUserID),
		models.StateRolePick:     admin(b.stateRolePick),
		models.StateUserDeleteID: admin(b.stateUserDeleteID),
		models.StateProjectMenu:  admin(b.stateProjectMenu),
		models.StateProjectName:  admin(b.stateProjectName),
		models.StateProjectDesc:  admin(b.stateProjectDesc),
		models.StateProjectResp:  admin(b.stateProjectResp),

		models.StateModeratorMenu: moderator(b.stateModeratorMenu),
		models.StateEventName:     moderator(b.stateEventName),
		models.StateEventDate:     moderator(b.stateEventDate),
		models.StateEventTime:     moderator(b.stateEventTime),
		models.StateEventCity:     moderator(b.stateEventCity),
		models.StateEventCreator:  moderator(b.stateEventCreator),
		models.StateEventDesc:     moderator(b.stateEventDesc),
		models.StateEventPoints:   moderator(b.stateEventPoints),
		models.StateEventTags:     moderator(b.stateEventTags),
		models.StateEventCode:     moderator(b.stateEventCode),
		models.StateEventConfirm:  moderator(b.stateEventConfirm),

		models.StateEventEditSelect: moderator(b.stateEventEditSelect),
		models.StateEventEditField:  moderator(b.stateEventEditField),
		models.StateEventEditValue:  moderator(b.stateEventEditValue),

		models.StateCSVImport: moderator(b.stateCSVImport),

		models.StateReportEvent:        moderator(b.stateReportEvent),
		models.StateReportDate:         moderator(b.stateReportDate),
		models.StateReportParticipants: moderator(b.stateReportParticipants),
		models.StateReportPhotos:       moderator(b.stateReportPhotos),
		models.StateReportSummary:      moderator(b.stateReportSummary),
		models.StateReportFeedback:     moderator(b.stateReportFeedback),
		models.StateReportConfirm:      moderator(b.stateReportConfirm),
		models.StateReportEditField:    moderator(b.stateReportEditField),
		models.StateReportEditValue:    moderator(b.stateReportEditValue),
	}
}

// Sessions возвращает хранилище диалогов (для периодической очистки)
func (b *Bot) Sessions() *Sessions {
	return b.sessions
}

// Start запускает цикл получения обновлений
func (b *Bot) Start() {
	b.logger.Info("бот авторизован", zap.String("username", b.api.Self.UserName))

	u := tgbotapi.NewUpdate(0)
	u.Timeout = 60

	updates := b.api.GetUpdatesChan(u)

	for update := range updates {
		parsed := parseUpdate(update)
		if parsed == nil {
			continue
		}
		b.enqueueUpdate(context.Background(), parsed)
	}
}

// enqueueUpdate ставит событие в очередь его пользователя. Очередь каждого
// пользователя разбирает одна горутина, поэтому события одного пользователя
// обрабатываются строго в порядке поступления, а разных — параллельно.
func (b *Bot) enqueueUpdate(ctx context.Context, u *Update) {
	b.queueMu.Lock()
	queue, ok := b.queues[u.UserID]
	if !ok {
		queue = &userQueue{}
		b.queues[u.UserID] = queue
	}
	queue.pending = append(queue.pending, u)
	if queue.busy {
		b.queueMu.Unlock()
		return
	}
	queue.busy = true
	b.queueMu.Unlock()

	go b.drainQueue(ctx, u.UserID)
}

// drainQueue обрабатывает события пользователя по одному до опустошения
// очереди
func (b *Bot) drainQueue(ctx context.Context, userID int64) {
	for {
		b.queueMu.Lock()
		queue := b.queues[userID]
		if queue == nil || len(queue.pending) == 0 {
			delete(b.queues, userID)
			b.queueMu.Unlock()
			return
		}
		next := queue.pending[0]
		queue.pending = queue.pending[1:]
		b.queueMu.Unlock()

		b.handleUpdate(ctx, next)
	}
}

// handleUpdate обрабатывает одно входящее событие и отправляет ответы
func (b *Bot) handleUpdate(ctx context.Context, u *Update) {
	res := b.Dispatch(ctx, u)

	if b.api != nil && u.Kind == KindCallback && u.CallbackID != "" {
		if _, err := b.api.Request(tgbotapi.NewCallback(u.CallbackID, "")); err != nil {
			b.logger.Warn("не удалось подтвердить callback", zap.Error(err))
		}
	}

	b.deliver(u.ChatID, res.Replies)
}

// Dispatch направляет событие обработчику текущего состояния диалога и
// переводит диалог в состояние, которое вернул обработчик. Любая ошибка
// обработчика превращается в ответ пользователю; диалог при этом не
// покидает текущее состояние (кроме отказа в доступе, который возвращает
// в главное меню).
func (b *Bot) Dispatch(ctx context.Context, u *Update) *Result {
	sess := b.sessions.Get(u.UserID)
	sess.lock.Lock()
	defer sess.lock.Unlock()

	// Глобальные сигналы обрабатываются до диспетчеризации по состоянию
	if res := b.handleGlobal(u, sess); res != nil {
		sess.State = res.Next
		return res
	}

	handler, ok := b.handlers[sess.State]
	if !ok {
		// Неизвестное состояние: диалог сбрасывается к входу
		b.logger.Warn("неизвестное состояние диалога", zap.String("state", string(sess.State)))
		sess.State = models.StatePasswordEntry
		sess.ClearData()
		return &Result{Replies: []Reply{reply(msgEnterPassword)}}
	}

	res, err := handler(ctx, u, sess)
	if err != nil {
		res = b.errorResult(err, u, sess)
	}
	if res == nil {
		res = &Result{}
	}
	if res.Next != "" {
		sess.State = res.Next
	}
	return res
}

// handleGlobal обрабатывает сигналы, действующие в любом состоянии:
// /start и отмену многошагового сценария
func (b *Bot) handleGlobal(u *Update, sess *Session) *Result {
	if u.Kind == KindText && u.Command == CmdStart {
		sess.ClearData()
		user, err := b.store.GetUser(u.UserID)
		if err != nil {
			b.logger.Error("ошибка при получении пользователя", zap.Error(err))
			return &Result{Next: models.StatePasswordEntry, Replies: []Reply{reply(msgStoreApology)}}
		}
		if user == nil {
			return &Result{
				Next:    models.StatePasswordEntry,
				Replies: []Reply{reply(msgWelcome + "\n\n" + msgEnterPassword)},
			}
		}
		res := b.menuResult(models.StateMainMenu, user.Role)
		// Переход по QR-ссылке: аргумент /start содержит код участия
		if u.Arg != "" {
			res.Replies = append([]Reply{reply(b.redeemByLink(u.UserID, u.Arg))}, res.Replies...)
		}
		return res
	}

	cancelled := (u.Kind == KindText && u.Command == CmdCancel) ||
		(u.Kind == KindCallback && u.Action == "cancel")
	if cancelled {
		owner, ok := flowOwner(sess.State)
		if !ok {
			return nil
		}
		sess.ClearData()
		role := b.roleOf(u.UserID)
		res := b.menuResult(owner, role)
		res.Replies = append([]Reply{reply(msgCancelled)}, res.Replies...)
		return res
	}

	return nil
}

// redeemByLink применяет код участия из QR-ссылки и возвращает текст
// для пользователя. Семантика та же, что при ручном вводе кода.
func (b *Bot) redeemByLink(userID int64, code string) string {
	event, err := b.store.GetEventByCode(code)
	if err != nil {
		b.logger.Error("ошибка поиска события по коду", zap.Error(err))
		return msgStoreApology
	}
	if event == nil {
		return "Событие с таким кодом не найдено"
	}

	points, err := b.store.RedeemEventCode(userID, event.ID)
	if err != nil {
		switch apperr.KindOf(err) {
		case apperr.KindValidation, apperr.KindAuthorization, apperr.KindNotFound, apperr.KindConflict:
			return apperr.Message(err)
		}
		b.logger.Error("ошибка применения кода", zap.Error(err))
		return msgStoreApology
	}
	return fmt.Sprintf("🎉 Код принят! Начислено баллов: %d", points)
}

// flowOwner возвращает меню, которому принадлежит многошаговый сценарий.
// Отмена из любого состояния сценария возвращает в это меню.
func flowOwner(state models.State) (models.State, bool) {
	switch state {
	case models.StateAIChat:
		return models.StateMainMenu, true
	case models.StateProfileCity, models.StateProfileTags, models.StateProfileDeleteConfirm:
		return models.StateProfileMenu, true
	case models.StateEventList, models.StateRedeemCode:
		return models.StateVolunteerHome, true
	case models.StateRoleUserID, models.StateRolePick, models.StateUserDeleteID,
		models.StateProjectName, models.StateProjectDesc, models.StateProjectResp:
		return models.StateAdminMenu, true
	case models.StateEventName, models.StateEventDate, models.StateEventTime,
		models.StateEventCity, models.StateEventCreator, models.StateEventDesc,
		models.StateEventPoints, models.StateEventTags, models.StateEventCode,
		models.StateEventConfirm, models.StateEventEditSelect,
		models.StateEventEditField, models.StateEventEditValue,
		models.StateCSVImport, models.StateReportEvent, models.StateReportDate,
		models.StateReportParticipants, models.StateReportPhotos,
		models.StateReportSummary, models.StateReportFeedback,
		models.StateReportConfirm, models.StateReportEditField,
		models.StateReportEditValue:
		return models.StateModeratorMenu, true
	}
	return "", false
}

// roleOf возвращает роль пользователя; для неизвестных — гость
func (b *Bot) roleOf(userID int64) models.Role {
	user, err := b.store.GetUser(userID)
	if err != nil || user == nil {
		return models.RoleGuest
	}
	return user.Role
}

// Тексты сообщений
const (
	msgWelcome        = "👋 Добро пожаловать в бот координации волонтёров!"
	msgEnterPassword  = "🔑 Введите пароль для входа:"
	msgWrongPassword  = "❌ Неверный пароль. Попробуйте ещё раз:"
	msgMainMenu       = "Главное меню. Выберите раздел:"
	msgVolunteerHome  = "🙋 Волонтёрский раздел. Выберите действие:"
	msgProfileMenu    = "👤 Профиль. Выберите действие:"
	msgAdminMenu      = "⚙️ Меню администратора:"
	msgModeratorMenu  = "🛠 Меню модератора:"
	msgProjectMenu    = "📁 Проекты:"
	msgCancelled      = "Действие отменено."
	msgAccessDenied   = "⛔ У вас нет прав для выполнения этого действия."
	msgStoreApology   = "😔 Произошла ошибка. Попробуйте позже."
	msgAIApology      = "😔 AI-помощник временно недоступен. Попробуйте позже."
	msgUseMenuButtons = "Пожалуйста, используйте кнопки меню."
)

// menuResult строит ответ входа в меню для данной роли
func (b *Bot) menuResult(state models.State, role models.Role) *Result {
	switch state {
	case models.StateMainMenu:
		return &Result{Next: state, Replies: []Reply{replyKb(msgMainMenu, mainMenuKeyboard(role))}}
	case models.StateVolunteerHome:
		return &Result{Next: state, Replies: []Reply{replyKb(msgVolunteerHome, volunteerKeyboard())}}
	case models.StateProfileMenu:
		return &Result{Next: state, Replies: []Reply{replyKb(msgProfileMenu, profileKeyboard())}}
	case models.StateAdminMenu:
		return &Result{Next: state, Replies: []Reply{replyKb(msgAdminMenu, adminKeyboard())}}
	case models.StateModeratorMenu:
		return &Result{Next: state, Replies: []Reply{replyKb(msgModeratorMenu, moderatorKeyboard())}}
	case models.StateProjectMenu:
		return &Result{Next: state, Replies: []Reply{replyKb(msgProjectMenu, projectKeyboard())}}
	}
	return &Result{Next: state}
}

// errorResult превращает ошибку обработчика в ответ пользователю.
// Состояние диалога при этом не продвигается; отказ в доступе возвращает
// в главное меню.
func (b *Bot) errorResult(err error, u *Update, sess *Session) *Result {
	switch apperr.KindOf(err) {
	case apperr.KindValidation, apperr.KindNotFound, apperr.KindConflict:
		return &Result{Replies: []Reply{reply(apperr.Message(err))}}

	case apperr.KindAuthorization:
		sess.ClearData()
		role := b.roleOf(u.UserID)
		if role == models.RoleGuest {
			return &Result{
				Next:    models.StatePasswordEntry,
				Replies: []Reply{reply(msgAccessDenied), reply(msgEnterPassword)},
			}
		}
		res := b.menuResult(models.StateMainMenu, role)
		res.Replies = append([]Reply{reply(msgAccessDenied)}, res.Replies...)
		return res

	case apperr.KindRemoteService:
		b.logger.Error("ошибка AI-сервиса", zap.Error(err), zap.Int64("user_id", u.UserID))
		return &Result{Replies: []Reply{reply(msgAIApology)}}

	default:
		b.logger.Error("ошибка хранилища", zap.Error(err), zap.Int64("user_id", u.UserID))
		return &Result{Replies: []Reply{reply(msgStoreApology)}}
	}
}

// deliver отправляет ответы пользователю
func (b *Bot) deliver(chatID int64, replies []Reply) {
	if b.api == nil {
		// Сборка без транспорта (тесты): отправлять некуда
		return
	}
	for _, r := range replies {
		switch {
		case r.Document != nil:
			doc := tgbotapi.NewDocument(chatID, *r.Document)
			doc.Caption = r.Text
			if _, err := b.api.Send(doc); err != nil {
				b.logger.Error("не удалось отправить документ", zap.Error(err))
			}

		case r.Photo != nil:
			photo := tgbotapi.NewPhoto(chatID, *r.Photo)
			photo.Caption = r.Text
			if _, err := b.api.Send(photo); err != nil {
				b.logger.Error("не удалось отправить фото", zap.Error(err))
			}

		default:
			msg := tgbotapi.NewMessage(chatID, r.Text)
			if r.Keyboard != nil {
				msg.ReplyMarkup = r.Keyboard
			}
			if _, err := b.api.Send(msg); err != nil {
				b.logger.Error("не удалось отправить сообщение", zap.Error(err))
			}
		}
	}
}
