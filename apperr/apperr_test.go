package apperr

import (
	"errors"
	"fmt"
	"testing"
)

func TestKindOf(t *testing.T) {
	if got := KindOf(Validation("плохой ввод")); got != KindValidation {
		t.Errorf("KindOf = %v", got)
	}
	if got := KindOf(errors.New("обычная ошибка")); got != KindUnknown {
		t.Errorf("KindOf для обычной ошибки = %v", got)
	}

	// Вид сохраняется через цепочку обёрток
	wrapped := fmt.Errorf("обработка события: %w", Conflict("уже существует"))
	if got := KindOf(wrapped); got != KindConflict {
		t.Errorf("KindOf для обёрнутой ошибки = %v", got)
	}
}

func TestMessageHidesCause(t *testing.T) {
	cause := errors.New("dial tcp: connection refused")
	err := Store("ошибка базы данных", cause)

	if got := Message(err); got != "ошибка базы данных" {
		t.Errorf("Message = %q, причина не должна показываться пользователю", got)
	}
	if !errors.Is(err, cause) {
		t.Error("причина должна быть доступна через errors.Is")
	}
}

func TestErrorFormatting(t *testing.T) {
	if got := NotFound("пользователь «%s» не найден", "Анна").Error(); got != "пользователь «Анна» не найден" {
		t.Errorf("Error = %q", got)
	}

	err := RemoteService("сервис недоступен", errors.New("timeout"))
	if got := err.Error(); got != "сервис недоступен: timeout" {
		t.Errorf("Error с причиной = %q", got)
	}
}
