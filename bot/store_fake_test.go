package bot

import (
	"sort"
	"strconv"
	"strings"

	"github.com/volunteerhub/volunteer-bot/apperr"
	"github.com/volunteerhub/volunteer-bot/models"
)

// fakeStore — хранилище в памяти для тестов обработчиков.
// Повторяет семантику настоящего хранилища, включая конфликты записи.
type fakeStore struct {
	users    map[int64]*models.User
	events   map[int64]*models.Event
	reports  map[int64]*models.EventReport
	projects map[int64]*models.Project
	nextID   int64
}

func newFakeStore() *fakeStore {
	return &fakeStore{
		users:    map[int64]*models.User{},
		events:   map[int64]*models.Event{},
		reports:  map[int64]*models.EventReport{},
		projects: map[int64]*models.Project{},
	}
}

func (s *fakeStore) GetUser(telegramID int64) (*models.User, error) {
	user, ok := s.users[telegramID]
	if !ok {
		return nil, nil
	}
	copied := *user
	return &copied, nil
}

func (s *fakeStore) SaveUser(user *models.User) error {
	copied := *user
	s.users[user.TelegramID] = &copied
	return nil
}

func (s *fakeStore) UpdateUserRole(telegramID int64, role models.Role) error {
	user, ok := s.users[telegramID]
	if !ok {
		return apperr.NotFound("Пользователь не найден")
	}
	user.Role = role
	return nil
}

func (s *fakeStore) UpdateUserCity(telegramID int64, city string) error {
	user, ok := s.users[telegramID]
	if !ok {
		return apperr.NotFound("Пользователь не найден")
	}
	user.City = city
	return nil
}

func (s *fakeStore) UpdateUserTags(telegramID int64, tags []string) error {
	user, ok := s.users[telegramID]
	if !ok {
		return apperr.NotFound("Пользователь не найден")
	}
	user.Tags = tags
	return nil
}

func (s *fakeStore) DeleteUser(telegramID int64) error {
	if _, ok := s.users[telegramID]; !ok {
		return apperr.NotFound("Пользователь не найден")
	}
	delete(s.users, telegramID)
	return nil
}

func (s *fakeStore) FindUserByName(name string) (*models.User, error) {
	for _, user := range s.users {
		if user.Name == name {
			copied := *user
			return &copied, nil
		}
	}
	return nil, nil
}

func (s *fakeStore) GetAllUsers() ([]*models.User, error) {
	users := []*models.User{}
	for _, user := range s.users {
		copied := *user
		users = append(users, &copied)
	}
	sort.Slice(users, func(i, j int) bool { return users[i].TelegramID < users[j].TelegramID })
	return users, nil
}

func (s *fakeStore) AddEvent(event *models.Event) (int64, error) {
	if event.Code != "" {
		for _, other := range s.events {
			if other.Code == event.Code {
				return 0, apperr.Conflict("Событие с таким кодом уже существует")
			}
		}
	}
	s.nextID++
	copied := *event
	copied.ID = s.nextID
	s.events[copied.ID] = &copied
	return copied.ID, nil
}

func (s *fakeStore) GetEventByID(eventID int64) (*models.Event, error) {
	event, ok := s.events[eventID]
	if !ok {
		return nil, nil
	}
	copied := *event
	return &copied, nil
}

func (s *fakeStore) GetEventByCode(code string) (*models.Event, error) {
	if code == "" {
		return nil, nil
	}
	for _, event := range s.events {
		if event.Code == code {
			copied := *event
			return &copied, nil
		}
	}
	return nil, nil
}

func (s *fakeStore) sortedEvents() []*models.Event {
	events := []*models.Event{}
	for _, event := range s.events {
		copied := *event
		events = append(events, &copied)
	}
	sort.Slice(events, func(i, j int) bool { return events[i].ID < events[j].ID })
	return events
}

func (s *fakeStore) GetAllEvents() ([]*models.Event, error) {
	return s.sortedEvents(), nil
}

func page(events []*models.Event, limit, offset int) []*models.Event {
	if offset >= len(events) {
		return []*models.Event{}
	}
	end := offset + limit
	if end > len(events) {
		end = len(events)
	}
	return events[offset:end]
}

func (s *fakeStore) GetEvents(limit, offset int) ([]*models.Event, error) {
	return page(s.sortedEvents(), limit, offset), nil
}

func (s *fakeStore) CountEvents() (int, error) {
	return len(s.events), nil
}

func (s *fakeStore) byCity(city string) []*models.Event {
	filtered := []*models.Event{}
	for _, event := range s.sortedEvents() {
		if event.City == city {
			filtered = append(filtered, event)
		}
	}
	return filtered
}

func (s *fakeStore) GetEventsByCity(city string, limit, offset int) ([]*models.Event, error) {
	return page(s.byCity(city), limit, offset), nil
}

func (s *fakeStore) CountEventsByCity(city string) (int, error) {
	return len(s.byCity(city)), nil
}

func (s *fakeStore) byTag(tag string) []*models.Event {
	filtered := []*models.Event{}
	for _, event := range s.sortedEvents() {
		for _, t := range event.Tags {
			if t == tag {
				filtered = append(filtered, event)
				break
			}
		}
	}
	return filtered
}

func (s *fakeStore) GetEventsByTag(tag string, limit, offset int) ([]*models.Event, error) {
	return page(s.byTag(tag), limit, offset), nil
}

func (s *fakeStore) CountEventsByTag(tag string) (int, error) {
	return len(s.byTag(tag)), nil
}

func (s *fakeStore) UpdateEventField(eventID int64, field, value string) error {
	event, ok := s.events[eventID]
	if !ok {
		return apperr.NotFound("Событие не найдено")
	}
	switch field {
	case "name":
		event.Name = value
	case "date":
		event.Date = value
	case "time":
		event.StartTime = value
	case "city":
		event.City = value
	case "creator":
		event.Creator = value
	case "description":
		event.Description = value
	case "code":
		event.Code = value
	case "points":
		points, err := strconv.Atoi(value)
		if err != nil {
			return apperr.Validation("Некорректное число баллов")
		}
		event.ParticipationPoints = points
	case "tags":
		event.Tags = strings.Split(value, ",")
	}
	return nil
}

func (s *fakeStore) DeleteEvent(eventID int64) error {
	if _, ok := s.events[eventID]; !ok {
		return apperr.NotFound("Событие не найдено")
	}
	delete(s.events, eventID)
	delete(s.reports, eventID)
	for _, user := range s.users {
		ids := []int64{}
		for _, id := range user.RegisteredEvents {
			if id != eventID {
				ids = append(ids, id)
			}
		}
		user.RegisteredEvents = ids
	}
	return nil
}

func (s *fakeStore) GetUsersForEvent(eventID int64) ([]*models.User, error) {
	users := []*models.User{}
	for _, user := range s.users {
		if user.IsRegistered(eventID) {
			copied := *user
			users = append(users, &copied)
		}
	}
	return users, nil
}

func (s *fakeStore) RegisterUserForEvent(telegramID, eventID int64) error {
	user, ok := s.users[telegramID]
	if !ok {
		return apperr.NotFound("Пользователь не найден")
	}
	event, ok := s.events[eventID]
	if !ok {
		return apperr.NotFound("Событие не найдено")
	}
	if user.IsRegistered(eventID) {
		return apperr.Conflict("Вы уже записаны на это событие")
	}
	user.RegisteredEvents = append(user.RegisteredEvents, eventID)
	event.ParticipantsCount++
	return nil
}

func (s *fakeStore) UnregisterUserFromEvent(telegramID, eventID int64) error {
	user, ok := s.users[telegramID]
	if !ok {
		return apperr.NotFound("Пользователь не найден")
	}
	event, ok := s.events[eventID]
	if !ok {
		return apperr.NotFound("Событие не найдено")
	}
	if !user.IsRegistered(eventID) {
		return apperr.Conflict("Вы не записаны на это событие")
	}
	ids := []int64{}
	for _, id := range user.RegisteredEvents {
		if id != eventID {
			ids = append(ids, id)
		}
	}
	user.RegisteredEvents = ids
	if event.ParticipantsCount > 0 {
		event.ParticipantsCount--
	}
	return nil
}

func (s *fakeStore) RedeemEventCode(telegramID, eventID int64) (int, error) {
	user, ok := s.users[telegramID]
	if !ok {
		return 0, apperr.NotFound("Пользователь не найден")
	}
	event, ok := s.events[eventID]
	if !ok {
		return 0, apperr.NotFound("Событие не найдено")
	}
	if !user.IsRegistered(eventID) {
		return 0, apperr.Authorization("Код можно ввести только для события, на которое вы записаны")
	}
	if user.HasRedeemed(eventID) {
		return 0, apperr.Conflict("Баллы за это событие уже начислены")
	}
	user.RedeemedEvents = append(user.RedeemedEvents, eventID)
	user.Score += event.ParticipationPoints
	return event.ParticipationPoints, nil
}

func (s *fakeStore) AuditParticipantCounts() (int, error) {
	fixed := 0
	for _, event := range s.events {
		actual := 0
		for _, user := range s.users {
			if user.IsRegistered(event.ID) {
				actual++
			}
		}
		if event.ParticipantsCount != actual {
			event.ParticipantsCount = actual
			fixed++
		}
	}
	return fixed, nil
}

func (s *fakeStore) CreateEventReport(report *models.EventReport) error {
	if _, ok := s.reports[report.EventID]; ok {
		return apperr.Conflict("Отчёт для этого события уже существует")
	}
	copied := *report
	s.reports[report.EventID] = &copied
	return nil
}

func (s *fakeStore) GetEventReport(eventID int64) (*models.EventReport, error) {
	report, ok := s.reports[eventID]
	if !ok {
		return nil, nil
	}
	copied := *report
	return &copied, nil
}

func (s *fakeStore) UpdateEventReportField(eventID int64, field, value string) error {
	report, ok := s.reports[eventID]
	if !ok {
		return apperr.NotFound("Отчёт не найден")
	}
	switch field {
	case "date":
		report.ReportDate = value
	case "participants":
		participants, err := strconv.Atoi(value)
		if err != nil {
			return apperr.Validation("Некорректное число участников")
		}
		report.ActualParticipants = participants
	case "summary":
		report.Summary = value
	case "feedback":
		report.Feedback = value
	case "photos":
		report.PhotosLinks = strings.Split(value, ",")
	}
	return nil
}

func (s *fakeStore) DeleteEventReport(eventID int64) error {
	if _, ok := s.reports[eventID]; !ok {
		return apperr.NotFound("Отчёт не найден")
	}
	delete(s.reports, eventID)
	return nil
}

func (s *fakeStore) AddProject(project *models.Project) (int64, error) {
	s.nextID++
	copied := *project
	copied.ID = s.nextID
	s.projects[copied.ID] = &copied
	return copied.ID, nil
}

func (s *fakeStore) GetProjects() ([]*models.Project, error) {
	projects := []*models.Project{}
	for _, project := range s.projects {
		copied := *project
		projects = append(projects, &copied)
	}
	sort.Slice(projects, func(i, j int) bool { return projects[i].ID < projects[j].ID })
	return projects, nil
}

func (s *fakeStore) GetProjectByID(projectID int64) (*models.Project, error) {
	project, ok := s.projects[projectID]
	if !ok {
		return nil, nil
	}
	copied := *project
	return &copied, nil
}

func (s *fakeStore) DeleteProject(projectID int64) error {
	if _, ok := s.projects[projectID]; !ok {
		return apperr.NotFound("Проект не найден")
	}
	delete(s.projects, projectID)
	return nil
}
