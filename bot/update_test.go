package bot

import (
	"testing"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
)

func TestParseCommand(t *testing.T) {
	tests := []struct {
		in   string
		want Command
	}{
		{"/start", CmdStart},
		{"/start SUB2026", CmdStart},
		{"/cancel", CmdCancel},
		{btnCancel, CmdCancel},
		{btnEvents, CmdEvents},
		{btnCreateEvent, CmdCreateEvent},
		{" " + btnBack + " ", CmdBack},
		{"просто текст", CmdNone},
		{"", CmdNone},
	}
	for _, tt := range tests {
		if got := parseCommand(tt.in); got != tt.want {
			t.Errorf("parseCommand(%q) = %v, ожидалось %v", tt.in, got, tt.want)
		}
	}
}

func TestSplitCallback(t *testing.T) {
	tests := []struct {
		in     string
		action string
		arg    string
	}{
		{"reg:42", "reg", "42"},
		{"city:Санкт-Петербург", "city", "Санкт-Петербург"},
		{"done:", "done", ""},
		{"cancel", "cancel", ""},
		{"qr:7:extra", "qr", "7:extra"},
	}
	for _, tt := range tests {
		action, arg := splitCallback(tt.in)
		if action != tt.action || arg != tt.arg {
			t.Errorf("splitCallback(%q) = (%q, %q), ожидалось (%q, %q)",
				tt.in, action, arg, tt.action, tt.arg)
		}
	}
}

func TestParseUpdateMessage(t *testing.T) {
	update := tgbotapi.Update{
		Message: &tgbotapi.Message{
			From: &tgbotapi.User{ID: 1, FirstName: "Анна", LastName: "Иванова"},
			Chat: &tgbotapi.Chat{ID: 100},
			Text: "  /start SUB2026  ",
		},
	}

	u := parseUpdate(update)
	if u == nil {
		t.Fatal("parseUpdate вернул nil")
	}
	if u.Kind != KindText || u.Command != CmdStart {
		t.Errorf("Kind=%v Command=%v", u.Kind, u.Command)
	}
	if u.Arg != "SUB2026" {
		t.Errorf("Arg = %q, код из QR-ссылки должен попадать в аргумент", u.Arg)
	}
	if u.UserID != 1 || u.ChatID != 100 {
		t.Errorf("UserID=%d ChatID=%d", u.UserID, u.ChatID)
	}
	if u.Name != "Анна Иванова" {
		t.Errorf("Name = %q", u.Name)
	}
}

func TestParseUpdateCallback(t *testing.T) {
	update := tgbotapi.Update{
		CallbackQuery: &tgbotapi.CallbackQuery{
			ID:   "cb1",
			From: &tgbotapi.User{ID: 2, UserName: "volunteer2"},
			Data: "page:1",
			Message: &tgbotapi.Message{
				Chat: &tgbotapi.Chat{ID: 200},
			},
		},
	}

	u := parseUpdate(update)
	if u == nil {
		t.Fatal("parseUpdate вернул nil")
	}
	if u.Kind != KindCallback || u.Action != "page" || u.Arg != "1" {
		t.Errorf("Kind=%v Action=%q Arg=%q", u.Kind, u.Action, u.Arg)
	}
	if u.CallbackID != "cb1" || u.ChatID != 200 {
		t.Errorf("CallbackID=%q ChatID=%d", u.CallbackID, u.ChatID)
	}
	if u.Name != "volunteer2" {
		t.Errorf("Name = %q", u.Name)
	}
}

func TestParseUpdateIgnoresOther(t *testing.T) {
	if u := parseUpdate(tgbotapi.Update{}); u != nil {
		t.Errorf("пустое обновление должно игнорироваться: %+v", u)
	}
}
