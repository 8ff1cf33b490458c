// Package apperr содержит классификацию ошибок, возникающих при обработке
// сообщений: каждая ошибка несёт вид, по которому диспетчер решает, что
// показать пользователю и в каком состоянии остаться.
package apperr

import (
	"errors"
	"fmt"
)

// Kind — вид ошибки
type Kind int

const (
	// KindUnknown — неклассифицированная ошибка
	KindUnknown Kind = iota
	// KindValidation — некорректный ввод пользователя
	KindValidation
	// KindAuthorization — недостаточно прав
	KindAuthorization
	// KindNotFound — запись не найдена
	KindNotFound
	// KindConflict — конфликт с существующей записью
	KindConflict
	// KindStore — ошибка хранилища
	KindStore
	// KindRemoteService — ошибка внешнего сервиса (AI)
	KindRemoteService
)

// Error — ошибка с видом и сообщением для пользователя
type Error struct {
	Kind Kind
	Msg  string
	Err  error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return e.Msg + ": " + e.Err.Error()
	}
	return e.Msg
}

func (e *Error) Unwrap() error {
	return e.Err
}

// Validation создаёт ошибку валидации
func Validation(format string, args ...interface{}) *Error {
	return &Error{Kind: KindValidation, Msg: fmt.Sprintf(format, args...)}
}

// Authorization создаёт ошибку авторизации
func Authorization(format string, args ...interface{}) *Error {
	return &Error{Kind: KindAuthorization, Msg: fmt.Sprintf(format, args...)}
}

// NotFound создаёт ошибку отсутствия записи
func NotFound(format string, args ...interface{}) *Error {
	return &Error{Kind: KindNotFound, Msg: fmt.Sprintf(format, args...)}
}

// Conflict создаёт ошибку конфликта
func Conflict(format string, args ...interface{}) *Error {
	return &Error{Kind: KindConflict, Msg: fmt.Sprintf(format, args...)}
}

// Store оборачивает ошибку хранилища
func Store(msg string, err error) *Error {
	return &Error{Kind: KindStore, Msg: msg, Err: err}
}

// RemoteService оборачивает ошибку внешнего сервиса
func RemoteService(msg string, err error) *Error {
	return &Error{Kind: KindRemoteService, Msg: msg, Err: err}
}

// KindOf возвращает вид ошибки или KindUnknown
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return KindUnknown
}

// Message возвращает текст ошибки, предназначенный пользователю.
// Для ошибок хранилища и внешних сервисов внутренняя причина не раскрывается.
func Message(err error) string {
	var e *Error
	if errors.As(err, &e) {
		return e.Msg
	}
	return err.Error()
}
