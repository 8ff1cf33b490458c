package bot

import (
	"sync"
	"time"

	"github.com/volunteerhub/volunteer-bot/models"
)

// Session хранит состояние диалога с пользователем и временные данные
// незавершённого сценария. Данные никогда не разделяются между
// пользователями и очищаются при завершении или отмене сценария.
type Session struct {
	State    models.State
	Data     map[string]interface{}
	lastSeen time.Time

	// Сериализует обработку событий одного пользователя
	lock sync.Mutex
}

// Set сохраняет значение во временных данных сценария
func (s *Session) Set(key string, value interface{}) {
	s.Data[key] = value
}

// Str возвращает строковое значение из временных данных
func (s *Session) Str(key string) string {
	if v, ok := s.Data[key].(string); ok {
		return v
	}
	return ""
}

// Int возвращает числовое значение из временных данных
func (s *Session) Int(key string) int {
	if v, ok := s.Data[key].(int); ok {
		return v
	}
	return 0
}

// Int64 возвращает идентификатор из временных данных
func (s *Session) Int64(key string) int64 {
	if v, ok := s.Data[key].(int64); ok {
		return v
	}
	return 0
}

// StrSet возвращает множество строк из временных данных, создавая его при
// необходимости. Множество выбора — единственный источник истины для
// отрисовки переключателей.
func (s *Session) StrSet(key string) map[string]bool {
	if v, ok := s.Data[key].(map[string]bool); ok {
		return v
	}
	set := map[string]bool{}
	s.Data[key] = set
	return set
}

// ClearData очищает временные данные сценария
func (s *Session) ClearData() {
	s.Data = map[string]interface{}{}
}

// Sessions управляет состояниями диалогов всех пользователей
type Sessions struct {
	mu  sync.Mutex
	m   map[int64]*Session
	ttl time.Duration
}

// NewSessions создает хранилище состояний с заданным временем жизни
func NewSessions(ttl time.Duration) *Sessions {
	return &Sessions{
		m:   make(map[int64]*Session),
		ttl: ttl,
	}
}

// Get возвращает состояние пользователя, создавая его при первом обращении.
// Новый диалог начинается с ввода пароля.
func (s *Sessions) Get(userID int64) *Session {
	s.mu.Lock()
	defer s.mu.Unlock()

	sess, exists := s.m[userID]
	if !exists {
		sess = &Session{
			State: models.StatePasswordEntry,
			Data:  map[string]interface{}{},
		}
		s.m[userID] = sess
	}
	sess.lastSeen = time.Now()
	return sess
}

// Reset сбрасывает диалог пользователя в указанное состояние
func (s *Sessions) Reset(userID int64, state models.State) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.m[userID] = &Session{
		State:    state,
		Data:     map[string]interface{}{},
		lastSeen: time.Now(),
	}
}

// Sweep удаляет диалоги, неактивные дольше времени жизни.
// Возвращает число удалённых диалогов.
func (s *Sessions) Sweep() int {
	s.mu.Lock()
	defer s.mu.Unlock()

	cutoff := time.Now().Add(-s.ttl)
	removed := 0
	for userID, sess := range s.m {
		if sess.lastSeen.Before(cutoff) {
			delete(s.m, userID)
			removed++
		}
	}
	return removed
}

// Len возвращает число активных диалогов
func (s *Sessions) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.m)
}
