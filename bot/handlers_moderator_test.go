package bot

import (
	"context"
	"strings"
	"testing"

	"github.com/volunteerhub/volunteer-bot/models"
)

func TestEventCreationFlow(t *testing.T) {
	store := newFakeStore()
	b := newTestBot(t, store)
	addUser(store, 10, models.RoleModerator)
	setState(b, 10, models.StateModeratorMenu)
	ctx := context.Background()

	b.Dispatch(ctx, commandUpdate(10, CmdCreateEvent))
	b.Dispatch(ctx, textUpdate(10, "Субботник в парке"))

	// Некорректная дата не продвигает сценарий
	res := b.Dispatch(ctx, textUpdate(10, "31.02.2026"))
	if got := b.sessions.Get(10).State; got != models.StateEventDate {
		t.Fatalf("состояние = %q, неверная дата не должна продвигать сценарий", got)
	}
	if got := firstText(t, res); got != "Несуществующая дата" {
		t.Errorf("ответ на неверную дату: %q", got)
	}

	b.Dispatch(ctx, textUpdate(10, "05.09.2026"))
	b.Dispatch(ctx, textUpdate(10, "10:00"))
	b.Dispatch(ctx, callbackUpdate(10, "city", "Москва"))
	b.Dispatch(ctx, commandUpdate(10, CmdSkip)) // организатор
	b.Dispatch(ctx, textUpdate(10, "Уборка парка Сокольники"))
	b.Dispatch(ctx, textUpdate(10, "7"))
	b.Dispatch(ctx, callbackUpdate(10, "tag", "Экология"))
	b.Dispatch(ctx, callbackUpdate(10, "done", ""))
	b.Dispatch(ctx, textUpdate(10, "PARK2026"))

	res = b.Dispatch(ctx, commandUpdate(10, CmdConfirm))
	if got := firstText(t, res); !strings.Contains(got, "Событие создано") {
		t.Fatalf("подтверждение: %q", got)
	}
	if got := b.sessions.Get(10).State; got != models.StateModeratorMenu {
		t.Errorf("состояние = %q, ожидался возврат в меню модератора", got)
	}

	event := store.events[1]
	if event == nil {
		t.Fatal("событие не сохранено")
	}
	if event.Name != "Субботник в парке" || event.Date != "05.09.2026" ||
		event.StartTime != "10:00" || event.City != "Москва" {
		t.Errorf("поля события: %+v", event)
	}
	if event.ParticipationPoints != 7 {
		t.Errorf("баллы = %d, ожидалось 7", event.ParticipationPoints)
	}
	if len(event.Tags) != 1 || event.Tags[0] != "Экология" {
		t.Errorf("теги = %v", event.Tags)
	}
	if event.Code != "PARK2026" {
		t.Errorf("код = %q", event.Code)
	}
	if want := models.ModeratorOwner(10); event.Owner != want {
		t.Errorf("владелец = %q, ожидался %q", event.Owner, want)
	}
}

func TestEventCreationGeneratesCode(t *testing.T) {
	store := newFakeStore()
	b := newTestBot(t, store)
	addUser(store, 10, models.RoleAdmin)
	sess := setState(b, 10, models.StateEventCode)
	sess.Set("ev_name", "Сбор книг")
	sess.Set("ev_date", "05.09.2026")
	sess.Set("ev_time", "12:00")
	sess.Set("ev_city", "Казань")
	ctx := context.Background()

	b.Dispatch(ctx, commandUpdate(10, CmdSkip))
	b.Dispatch(ctx, commandUpdate(10, CmdConfirm))

	event := store.events[1]
	if event == nil {
		t.Fatal("событие не сохранено")
	}
	if len(event.Code) != 8 {
		t.Errorf("код = %q, при пропуске ожидается сгенерированный код из 8 символов", event.Code)
	}
	if event.Owner != models.AdminOwner {
		t.Errorf("владелец = %q, администратор создаёт общие события", event.Owner)
	}
	if event.ParticipationPoints != 0 {
		// Баллы не задавались в данных сценария, подтверждение не должно падать
		t.Errorf("баллы = %d", event.ParticipationPoints)
	}
}

func TestEventEditForeignEventDenied(t *testing.T) {
	store := newFakeStore()
	b := newTestBot(t, store)
	addUser(store, 10, models.RoleModerator)
	addUser(store, 11, models.RoleModerator)
	store.AddEvent(&models.Event{Name: "Чужое", City: "Москва", Owner: models.ModeratorOwner(10)})
	setState(b, 11, models.StateEventEditSelect)

	res := b.Dispatch(context.Background(), callbackUpdate(11, "ev", "1"))

	if got := firstText(t, res); got != msgAccessDenied {
		t.Errorf("ответ = %q, ожидался отказ", got)
	}
	if got := b.sessions.Get(11).State; got != models.StateMainMenu {
		t.Errorf("состояние = %q, ожидался возврат в главное меню", got)
	}
}

func TestAdminEditsForeignEvent(t *testing.T) {
	store := newFakeStore()
	b := newTestBot(t, store)
	addUser(store, 1, models.RoleAdmin)
	store.AddEvent(&models.Event{Name: "Субботник", City: "Москва", Owner: models.ModeratorOwner(10)})
	setState(b, 1, models.StateEventEditSelect)
	ctx := context.Background()

	b.Dispatch(ctx, callbackUpdate(1, "ev", "1"))
	if got := b.sessions.Get(1).State; got != models.StateEventEditField {
		t.Fatalf("состояние = %q, администратор должен редактировать любые события", got)
	}

	b.Dispatch(ctx, callbackUpdate(1, "efield", "name"))
	res := b.Dispatch(ctx, textUpdate(1, "Субботник 2.0"))
	if got := firstText(t, res); !strings.Contains(got, "обновлено") {
		t.Errorf("ответ = %q", got)
	}
	if got := store.events[1].Name; got != "Субботник 2.0" {
		t.Errorf("название = %q", got)
	}
}

func TestEventParticipantsList(t *testing.T) {
	store := newFakeStore()
	b := newTestBot(t, store)
	addUser(store, 10, models.RoleModerator)
	anna := addUser(store, 2, models.RoleUser)
	anna.Name = "Анна"
	addUser(store, 3, models.RoleUser)
	store.AddEvent(&models.Event{Name: "Субботник", Owner: models.ModeratorOwner(10)})
	store.RegisterUserForEvent(2, 1)
	setState(b, 10, models.StateEventEditField)
	ctx := context.Background()

	res := b.Dispatch(ctx, callbackUpdate(10, "who", "1"))

	got := firstText(t, res)
	if !strings.Contains(got, "Анна") {
		t.Errorf("ответ = %q, ожидался участник в списке", got)
	}
	if strings.Contains(got, "(2)") {
		t.Errorf("ответ = %q, незаписанный пользователь попал в список", got)
	}

	store.UnregisterUserFromEvent(2, 1)
	res = b.Dispatch(ctx, callbackUpdate(10, "who", "1"))
	if got := firstText(t, res); !strings.Contains(got, "никто не записан") {
		t.Errorf("ответ = %q", got)
	}
}

func TestEventEditValueValidatesDate(t *testing.T) {
	store := newFakeStore()
	b := newTestBot(t, store)
	addUser(store, 10, models.RoleModerator)
	store.AddEvent(&models.Event{Name: "Субботник", Date: "05.09.2026", Owner: models.ModeratorOwner(10)})
	sess := setState(b, 10, models.StateEventEditValue)
	sess.Set("edit_event", int64(1))
	sess.Set("edit_field", "date")

	b.Dispatch(context.Background(), textUpdate(10, "не дата"))

	if got := store.events[1].Date; got != "05.09.2026" {
		t.Errorf("дата = %q, неверное значение не должно записываться", got)
	}
	if got := b.sessions.Get(10).State; got != models.StateEventEditValue {
		t.Errorf("состояние = %q, ошибка не должна продвигать диалог", got)
	}
}

func TestEventDeleteUnregistersUsers(t *testing.T) {
	store := newFakeStore()
	b := newTestBot(t, store)
	addUser(store, 10, models.RoleModerator)
	volunteer := addUser(store, 2, models.RoleUser)
	store.AddEvent(&models.Event{Name: "Субботник", Owner: models.ModeratorOwner(10)})
	store.RegisterUserForEvent(2, 1)
	setState(b, 10, models.StateEventEditField)

	res := b.Dispatch(context.Background(), callbackUpdate(10, "confirmdel", "1"))

	if got := firstText(t, res); !strings.Contains(got, "удалено") {
		t.Errorf("ответ = %q", got)
	}
	if _, ok := store.events[1]; ok {
		t.Error("событие должно удаляться")
	}
	if volunteer.IsRegistered(1) {
		t.Error("запись волонтёра должна сниматься при удалении события")
	}
}

func TestCSVImportRequiresDocument(t *testing.T) {
	store := newFakeStore()
	b := newTestBot(t, store)
	addUser(store, 10, models.RoleModerator)
	setState(b, 10, models.StateCSVImport)

	res := b.Dispatch(context.Background(), textUpdate(10, "вот события"))

	if got := firstText(t, res); !strings.Contains(got, "CSV") {
		t.Errorf("ответ = %q", got)
	}
	if got := b.sessions.Get(10).State; got != models.StateCSVImport {
		t.Errorf("состояние = %q", got)
	}
}

func TestReportCreateFlow(t *testing.T) {
	store := newFakeStore()
	b := newTestBot(t, store)
	addUser(store, 10, models.RoleModerator)
	store.AddEvent(&models.Event{Name: "Субботник", Owner: models.ModeratorOwner(10)})
	setState(b, 10, models.StateReportEvent)
	ctx := context.Background()

	b.Dispatch(ctx, callbackUpdate(10, "rpt", "1"))
	b.Dispatch(ctx, textUpdate(10, "06.09.2026"))
	b.Dispatch(ctx, textUpdate(10, "23"))
	b.Dispatch(ctx, textUpdate(10, "https://photos.example/1, https://photos.example/2"))
	b.Dispatch(ctx, textUpdate(10, "Собрали 40 мешков мусора"))
	b.Dispatch(ctx, commandUpdate(10, CmdSkip)) // отзывы

	res := b.Dispatch(ctx, commandUpdate(10, CmdConfirm))
	if got := firstText(t, res); !strings.Contains(got, "Отчёт сохранён") {
		t.Fatalf("подтверждение: %q", got)
	}

	report := store.reports[1]
	if report == nil {
		t.Fatal("отчёт не сохранён")
	}
	if report.ReportDate != "06.09.2026" || report.ActualParticipants != 23 {
		t.Errorf("поля отчёта: %+v", report)
	}
	if len(report.PhotosLinks) != 2 {
		t.Errorf("ссылки на фото = %v", report.PhotosLinks)
	}
	if report.Summary != "Собрали 40 мешков мусора" {
		t.Errorf("итоги = %q", report.Summary)
	}
}

func TestReportExistingShowsActions(t *testing.T) {
	store := newFakeStore()
	b := newTestBot(t, store)
	addUser(store, 10, models.RoleModerator)
	store.AddEvent(&models.Event{Name: "Субботник", Owner: models.ModeratorOwner(10)})
	store.CreateEventReport(&models.EventReport{EventID: 1, ReportDate: "06.09.2026", ActualParticipants: 23})
	setState(b, 10, models.StateReportEvent)

	res := b.Dispatch(context.Background(), callbackUpdate(10, "rpt", "1"))

	if got := firstText(t, res); !strings.Contains(got, "06.09.2026") {
		t.Errorf("сводка отчёта: %q", got)
	}
	if got := b.sessions.Get(10).State; got != models.StateReportEvent {
		t.Errorf("состояние = %q, повторное создание не должно запускаться", got)
	}
}

func TestReportEditField(t *testing.T) {
	store := newFakeStore()
	b := newTestBot(t, store)
	addUser(store, 10, models.RoleModerator)
	store.AddEvent(&models.Event{Name: "Субботник", Owner: models.ModeratorOwner(10)})
	store.CreateEventReport(&models.EventReport{EventID: 1, ActualParticipants: 23})
	setState(b, 10, models.StateReportEvent)
	ctx := context.Background()

	b.Dispatch(ctx, callbackUpdate(10, "rptedit", "1"))
	b.Dispatch(ctx, callbackUpdate(10, "rfield", "participants"))
	res := b.Dispatch(ctx, textUpdate(10, "25"))

	if got := firstText(t, res); !strings.Contains(got, "обновлён") {
		t.Errorf("ответ = %q", got)
	}
	if got := store.reports[1].ActualParticipants; got != 25 {
		t.Errorf("участников = %d, ожидалось 25", got)
	}
}

func TestReportDelete(t *testing.T) {
	store := newFakeStore()
	b := newTestBot(t, store)
	addUser(store, 10, models.RoleModerator)
	store.AddEvent(&models.Event{Name: "Субботник", Owner: models.ModeratorOwner(10)})
	store.CreateEventReport(&models.EventReport{EventID: 1})
	setState(b, 10, models.StateReportEvent)

	res := b.Dispatch(context.Background(), callbackUpdate(10, "rptdel", "1"))

	if got := firstText(t, res); !strings.Contains(got, "удалён") {
		t.Errorf("ответ = %q", got)
	}
	if _, ok := store.reports[1]; ok {
		t.Error("отчёт должен удаляться")
	}
}
