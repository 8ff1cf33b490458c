package db

import (
	"github.com/volunteerhub/volunteer-bot/models"
)

// Store определяет интерфейс операций с хранилищем.
// Обработчики диалога зависят от интерфейса, а не от конкретной БД.
type Store interface {
	// Пользователи
	GetUser(telegramID int64) (*models.User, error)
	SaveUser(user *models.User) error
	UpdateUserRole(telegramID int64, role models.Role) error
	UpdateUserCity(telegramID int64, city string) error
	UpdateUserTags(telegramID int64, tags []string) error
	DeleteUser(telegramID int64) error
	FindUserByName(name string) (*models.User, error)
	GetAllUsers() ([]*models.User, error)

	// События
	AddEvent(event *models.Event) (int64, error)
	GetEventByID(eventID int64) (*models.Event, error)
	GetEventByCode(code string) (*models.Event, error)
	GetAllEvents() ([]*models.Event, error)
	GetEvents(limit, offset int) ([]*models.Event, error)
	CountEvents() (int, error)
	GetEventsByCity(city string, limit, offset int) ([]*models.Event, error)
	CountEventsByCity(city string) (int, error)
	GetEventsByTag(tag string, limit, offset int) ([]*models.Event, error)
	CountEventsByTag(tag string) (int, error)
	UpdateEventField(eventID int64, field, value string) error
	DeleteEvent(eventID int64) error
	GetUsersForEvent(eventID int64) ([]*models.User, error)

	// Запись на события и баллы
	RegisterUserForEvent(telegramID, eventID int64) error
	UnregisterUserFromEvent(telegramID, eventID int64) error
	RedeemEventCode(telegramID, eventID int64) (int, error)
	AuditParticipantCounts() (int, error)

	// Отчёты
	CreateEventReport(report *models.EventReport) error
	GetEventReport(eventID int64) (*models.EventReport, error)
	UpdateEventReportField(eventID int64, field, value string) error
	DeleteEventReport(eventID int64) error

	// Проекты
	AddProject(project *models.Project) (int64, error)
	GetProjects() ([]*models.Project, error)
	GetProjectByID(projectID int64) (*models.Project, error)
	DeleteProject(projectID int64) error
}
