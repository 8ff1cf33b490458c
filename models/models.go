package models

import (
	"strconv"
	"time"
)

// Role определяет уровень доступа пользователя
type Role string

// Возможные роли
const (
	RoleGuest     Role = "guest"
	RoleUser      Role = "user"
	RoleModerator Role = "moderator"
	RoleAdmin     Role = "admin"
)

// ValidRole проверяет, что строка является известной ролью
func ValidRole(s string) bool {
	switch Role(s) {
	case RoleGuest, RoleUser, RoleModerator, RoleAdmin:
		return true
	}
	return false
}

// User представляет информацию о волонтёре
type User struct {
	TelegramID       int64
	Name             string
	Role             Role
	Score            int
	City             string
	Tags             []string
	RegisteredEvents []int64
	RedeemedEvents   []int64
	CreatedAt        time.Time
}

// IsRegistered проверяет, записан ли пользователь на событие
func (u *User) IsRegistered(eventID int64) bool {
	for _, id := range u.RegisteredEvents {
		if id == eventID {
			return true
		}
	}
	return false
}

// HasRedeemed проверяет, вводил ли пользователь код события
func (u *User) HasRedeemed(eventID int64) bool {
	for _, id := range u.RedeemedEvents {
		if id == eventID {
			return true
		}
	}
	return false
}

// Event представляет волонтёрское событие
type Event struct {
	ID                  int64
	Name                string
	Date                string // ДД.ММ.ГГГГ
	StartTime           string // ЧЧ:ММ
	City                string
	Creator             string
	Description         string
	ParticipationPoints int
	ParticipantsCount   int
	Tags                []string
	Code                string
	Owner               string // "admin" или "moderator:<id>"
	ProjectID           int64
	CreatedAt           time.Time
}

// DefaultParticipationPoints — баллы за участие по умолчанию
const DefaultParticipationPoints = 5

// AdminOwner — строка владельца для событий, созданных администратором
const AdminOwner = "admin"

// ModeratorOwner строит строку владельца для модератора
func ModeratorOwner(userID int64) string {
	return "moderator:" + strconv.FormatInt(userID, 10)
}

// OwnedBy проверяет, может ли пользователь изменять событие.
// Администратор не ограничен владельцем.
func (e *Event) OwnedBy(userID int64, role Role) bool {
	if role == RoleAdmin {
		return true
	}
	return e.Owner == ModeratorOwner(userID)
}

// EventReport представляет отчёт о проведённом событии.
// На одно событие допускается не более одного отчёта.
type EventReport struct {
	EventID            int64
	ReportDate         string // ДД.ММ.ГГГГ
	ActualParticipants int
	PhotosLinks        []string
	Summary            string
	Feedback           string
	CreatedAt          time.Time
}

// Project представляет проект, с которым могут быть связаны события
type Project struct {
	ID          int64
	Name        string
	Description string
	Responsible string
	CreatedAt   time.Time
}

// Cities — допустимые города
var Cities = []string{
	"Москва",
	"Санкт-Петербург",
	"Казань",
	"Новосибирск",
	"Екатеринбург",
	"Нижний Новгород",
}

// Tags — допустимые направления волонтёрства
var Tags = []string{
	"Экология",
	"Образование",
	"Спорт",
	"Культура",
	"Помощь животным",
	"Социальная помощь",
	"Донорство",
}

// ValidCity проверяет, что город входит в список допустимых
func ValidCity(city string) bool {
	for _, c := range Cities {
		if c == city {
			return true
		}
	}
	return false
}

// ValidTag проверяет, что тег входит в словарь
func ValidTag(tag string) bool {
	for _, t := range Tags {
		if t == tag {
			return true
		}
	}
	return false
}

// State — состояние диалога с пользователем
type State string

// Возможные состояния диалога
const (
	// Авторизация
	StatePasswordEntry State = "password_entry"

	// Главное меню и AI-чат
	StateMainMenu State = "main_menu"
	StateAIChat   State = "ai_chat"

	// Волонтёрский раздел
	StateVolunteerHome        State = "volunteer_home"
	StateProfileMenu          State = "profile_menu"
	StateProfileCity          State = "profile_city"
	StateProfileTags          State = "profile_tags"
	StateProfileDeleteConfirm State = "profile_delete_confirm"

	// Просмотр событий и код участия
	StateEventList  State = "event_list"
	StateRedeemCode State = "redeem_code"

	// Меню администратора
	StateAdminMenu    State = "admin_menu"
	StateRoleUserID   State = "role_user_id"
	StateRolePick     State = "role_pick"
	StateUserDeleteID State = "user_delete_id"
	StateProjectMenu  State = "project_menu"
	StateProjectName  State = "project_name"
	StateProjectDesc  State = "project_desc"
	StateProjectResp  State = "project_resp"

	// Меню модератора: создание события
	StateModeratorMenu State = "moderator_menu"
	StateEventName     State = "event_name"
	StateEventDate     State = "event_date"
	StateEventTime     State = "event_time"
	StateEventCity     State = "event_city"
	StateEventCreator  State = "event_creator"
	StateEventDesc     State = "event_desc"
	StateEventPoints   State = "event_points"
	StateEventTags     State = "event_tags"
	StateEventCode     State = "event_code"
	StateEventConfirm  State = "event_confirm"

	// Меню модератора: редактирование событий
	StateEventEditSelect State = "event_edit_select"
	StateEventEditField  State = "event_edit_field"
	StateEventEditValue  State = "event_edit_value"

	// Импорт CSV
	StateCSVImport State = "csv_import"

	// Отчёты
	StateReportEvent        State = "report_event"
	StateReportDate         State = "report_date"
	StateReportParticipants State = "report_participants"
	StateReportPhotos       State = "report_photos"
	StateReportSummary      State = "report_summary"
	StateReportFeedback     State = "report_feedback"
	StateReportConfirm      State = "report_confirm"
	StateReportEditField    State = "report_edit_field"
	StateReportEditValue    State = "report_edit_value"
)
