package bot

import (
	"bytes"
	"context"
	"strings"
	"testing"

	"github.com/volunteerhub/volunteer-bot/models"
)

func TestRoleAssignmentFlow(t *testing.T) {
	store := newFakeStore()
	b := newTestBot(t, store)
	addUser(store, 1, models.RoleAdmin)
	target := addUser(store, 2, models.RoleUser)
	target.Name = "Борис"
	setState(b, 1, models.StateAdminMenu)
	ctx := context.Background()

	b.Dispatch(ctx, commandUpdate(1, CmdSetRole))
	res := b.Dispatch(ctx, textUpdate(1, "Борис"))
	if got := firstText(t, res); !strings.Contains(got, "Борис") {
		t.Fatalf("поиск по имени: %q", got)
	}

	res = b.Dispatch(ctx, callbackUpdate(1, "role", "moderator"))
	if got := firstText(t, res); !strings.Contains(got, "Роль обновлена") {
		t.Fatalf("смена роли: %q", got)
	}
	if got := store.users[2].Role; got != models.RoleModerator {
		t.Errorf("роль = %q, ожидалась %q", got, models.RoleModerator)
	}
	if got := b.sessions.Get(1).State; got != models.StateAdminMenu {
		t.Errorf("состояние = %q", got)
	}
}

func TestRoleAssignmentSelfDenied(t *testing.T) {
	store := newFakeStore()
	b := newTestBot(t, store)
	admin := addUser(store, 1, models.RoleAdmin)
	admin.Name = "Админ"
	setState(b, 1, models.StateRoleUserID)

	res := b.Dispatch(context.Background(), textUpdate(1, "1"))

	if got := firstText(t, res); got != "Нельзя изменить собственную роль" {
		t.Errorf("ответ = %q", got)
	}
	if got := b.sessions.Get(1).State; got != models.StateRoleUserID {
		t.Errorf("состояние = %q, ошибка не должна продвигать диалог", got)
	}
}

func TestRoleAssignmentUnknownUser(t *testing.T) {
	store := newFakeStore()
	b := newTestBot(t, store)
	addUser(store, 1, models.RoleAdmin)
	setState(b, 1, models.StateRoleUserID)

	res := b.Dispatch(context.Background(), textUpdate(1, "Призрак"))

	if got := firstText(t, res); !strings.Contains(got, "не найден") {
		t.Errorf("ответ = %q", got)
	}
}

func TestUserDeleteSelfRedirects(t *testing.T) {
	store := newFakeStore()
	b := newTestBot(t, store)
	addUser(store, 1, models.RoleAdmin)
	setState(b, 1, models.StateUserDeleteID)

	res := b.Dispatch(context.Background(), textUpdate(1, "1"))

	if got := firstText(t, res); !strings.Contains(got, "меню профиля") {
		t.Errorf("ответ = %q", got)
	}
	if _, ok := store.users[1]; !ok {
		t.Error("собственный профиль не должен удаляться из меню администратора")
	}
}

func TestProjectCreateFlow(t *testing.T) {
	store := newFakeStore()
	b := newTestBot(t, store)
	addUser(store, 1, models.RoleAdmin)
	setState(b, 1, models.StateProjectMenu)
	ctx := context.Background()

	b.Dispatch(ctx, commandUpdate(1, CmdAddProject))
	b.Dispatch(ctx, textUpdate(1, "Чистый город"))
	b.Dispatch(ctx, commandUpdate(1, CmdSkip)) // описание
	res := b.Dispatch(ctx, textUpdate(1, "Мария"))

	if got := firstText(t, res); !strings.Contains(got, "Проект создан") {
		t.Fatalf("создание проекта: %q", got)
	}
	project := store.projects[1]
	if project == nil {
		t.Fatal("проект не сохранён")
	}
	if project.Name != "Чистый город" || project.Responsible != "Мария" {
		t.Errorf("поля проекта: %+v", project)
	}
}

func TestProjectDelete(t *testing.T) {
	store := newFakeStore()
	b := newTestBot(t, store)
	addUser(store, 1, models.RoleAdmin)
	store.AddProject(&models.Project{Name: "Чистый город"})
	setState(b, 1, models.StateProjectMenu)

	res := b.Dispatch(context.Background(), callbackUpdate(1, "delproject", "1"))

	if got := firstText(t, res); !strings.Contains(got, "удалён") {
		t.Errorf("ответ = %q", got)
	}
	if _, ok := store.projects[1]; ok {
		t.Error("проект должен удаляться")
	}
}

func TestExportCSVDocument(t *testing.T) {
	store := newFakeStore()
	b := newTestBot(t, store)
	addUser(store, 1, models.RoleAdmin)
	store.AddEvent(&models.Event{
		Name: "Субботник", Date: "05.09.2026", StartTime: "10:00",
		City: "Москва", Tags: []string{"Экология"}, Code: "SUB2026",
	})
	setState(b, 1, models.StateAdminMenu)

	res := b.Dispatch(context.Background(), commandUpdate(1, CmdExportCSV))

	if len(res.Replies) == 0 || res.Replies[0].Document == nil {
		t.Fatal("ожидался документ с выгрузкой")
	}
	data := res.Replies[0].Document.Bytes
	if !bytes.HasPrefix(data, utf8BOM) {
		t.Error("выгрузка должна начинаться с BOM")
	}
	text := string(data)
	if !strings.Contains(text, "Название") || !strings.Contains(text, "Субботник") {
		t.Errorf("содержимое выгрузки: %q", text)
	}
}

func TestExportCSVEmpty(t *testing.T) {
	store := newFakeStore()
	b := newTestBot(t, store)
	addUser(store, 1, models.RoleAdmin)
	setState(b, 1, models.StateAdminMenu)

	res := b.Dispatch(context.Background(), commandUpdate(1, CmdExportCSV))

	if got := firstText(t, res); !strings.Contains(got, "нет") {
		t.Errorf("ответ = %q", got)
	}
}

func TestProfileCityAndTags(t *testing.T) {
	store := newFakeStore()
	b := newTestBot(t, store)
	addUser(store, 1, models.RoleUser)
	setState(b, 1, models.StateProfileMenu)
	ctx := context.Background()

	b.Dispatch(ctx, commandUpdate(1, CmdCity))
	res := b.Dispatch(ctx, callbackUpdate(1, "city", "Казань"))
	if got := firstText(t, res); !strings.Contains(got, "Казань") {
		t.Fatalf("смена города: %q", got)
	}
	if got := store.users[1].City; got != "Казань" {
		t.Errorf("город = %q", got)
	}

	b.Dispatch(ctx, commandUpdate(1, CmdTags))
	b.Dispatch(ctx, callbackUpdate(1, "tag", "Экология"))
	b.Dispatch(ctx, callbackUpdate(1, "tag", "Спорт"))
	// Повторное нажатие снимает выбор
	b.Dispatch(ctx, callbackUpdate(1, "tag", "Спорт"))
	res = b.Dispatch(ctx, callbackUpdate(1, "done", ""))

	if got := firstText(t, res); !strings.Contains(got, "Теги обновлены") {
		t.Fatalf("сохранение тегов: %q", got)
	}
	tags := store.users[1].Tags
	if len(tags) != 1 || tags[0] != "Экология" {
		t.Errorf("теги = %v, повторное нажатие должно снимать выбор", tags)
	}
}

func TestProfileDeleteConfirm(t *testing.T) {
	store := newFakeStore()
	b := newTestBot(t, store)
	addUser(store, 1, models.RoleUser)
	setState(b, 1, models.StateProfileDeleteConfirm)

	res := b.Dispatch(context.Background(), commandUpdate(1, CmdYes))

	if got := firstText(t, res); !strings.Contains(got, "Профиль удалён") {
		t.Errorf("ответ = %q", got)
	}
	if _, ok := store.users[1]; ok {
		t.Error("профиль должен удаляться по подтверждению")
	}
	if got := b.sessions.Get(1).State; got != models.StatePasswordEntry {
		t.Errorf("состояние = %q, ожидался возврат ко входу", got)
	}
}
