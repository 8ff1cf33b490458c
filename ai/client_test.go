package ai

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"go.uber.org/zap"
)

func TestCompleteSendsPromptAndAuth(t *testing.T) {
	var gotAuth string
	var gotReq chatRequest

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotAuth = r.Header.Get("Authorization")
		if err := json.NewDecoder(r.Body).Decode(&gotReq); err != nil {
			t.Errorf("разбор запроса: %v", err)
		}
		json.NewEncoder(w).Encode(map[string]interface{}{
			"choices": []map[string]interface{}{
				{"message": map[string]string{"role": "assistant", "content": "Советую субботник."}},
			},
		})
	}))
	defer server.Close()

	client := New(server.URL, "secret-key", "gpt-4o-mini", zap.NewNop())
	answer, err := client.Complete(context.Background(), "Куда пойти?")
	if err != nil {
		t.Fatalf("Complete: %v", err)
	}

	if answer != "Советую субботник." {
		t.Errorf("ответ = %q", answer)
	}
	if gotAuth != "Bearer secret-key" {
		t.Errorf("Authorization = %q", gotAuth)
	}
	if gotReq.Model != "gpt-4o-mini" {
		t.Errorf("модель = %q", gotReq.Model)
	}
	if len(gotReq.Messages) != 1 || gotReq.Messages[0].Content != "Куда пойти?" {
		t.Errorf("сообщения = %+v", gotReq.Messages)
	}
}

func TestCompleteNon200(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, `{"error": "rate limited"}`, http.StatusTooManyRequests)
	}))
	defer server.Close()

	client := New(server.URL, "", "gpt-4o-mini", zap.NewNop())
	if _, err := client.Complete(context.Background(), "вопрос"); err == nil {
		t.Fatal("ожидалась ошибка при статусе 429")
	}
}

func TestCompleteEmptyChoices(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"choices": []}`))
	}))
	defer server.Close()

	client := New(server.URL, "", "gpt-4o-mini", zap.NewNop())
	if _, err := client.Complete(context.Background(), "вопрос"); err == nil {
		t.Fatal("ожидалась ошибка при пустом ответе")
	}
}

func TestCompleteContextCancel(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	client := New("http://127.0.0.1:0", "", "gpt-4o-mini", zap.NewNop())
	if _, err := client.Complete(ctx, "вопрос"); err == nil {
		t.Fatal("ожидалась ошибка отменённого контекста")
	}
}
