// Package ai содержит клиент внешнего сервиса дополнения текста.
// Ядро диалога использует единственную операцию Complete и трактует любой
// сбой как недоступность сервиса.
package ai

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"go.uber.org/zap"
)

// Client — клиент API дополнения текста
type Client struct {
	httpClient *http.Client
	apiURL     string
	apiKey     string
	model      string
	logger     *zap.Logger
}

// New создает клиент AI-сервиса
func New(apiURL, apiKey, model string, logger *zap.Logger) *Client {
	return &Client{
		httpClient: &http.Client{Timeout: 30 * time.Second},
		apiURL:     apiURL,
		apiKey:     apiKey,
		model:      model,
		logger:     logger,
	}
}

type chatRequest struct {
	Model    string        `json:"model"`
	Messages []chatMessage `json:"messages"`
}

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type chatResponse struct {
	Choices []struct {
		Message chatMessage `json:"message"`
	} `json:"choices"`
}

// Complete отправляет запрос сервису и возвращает текст ответа
func (c *Client) Complete(ctx context.Context, prompt string) (string, error) {
	body, err := json.Marshal(chatRequest{
		Model: c.model,
		Messages: []chatMessage{
			{Role: "user", Content: prompt},
		},
	})
	if err != nil {
		return "", fmt.Errorf("ошибка при сериализации запроса: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.apiURL, bytes.NewReader(body))
	if err != nil {
		return "", fmt.Errorf("ошибка при создании запроса: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	if c.apiKey != "" {
		req.Header.Set("Authorization", "Bearer "+c.apiKey)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("ошибка при обращении к AI-сервису: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		data, _ := io.ReadAll(io.LimitReader(resp.Body, 1024))
		c.logger.Warn("AI-сервис вернул ошибку",
			zap.Int("status", resp.StatusCode),
			zap.ByteString("body", data),
		)
		return "", fmt.Errorf("AI-сервис вернул статус %d", resp.StatusCode)
	}

	var parsed chatResponse
	if err := json.NewDecoder(resp.Body).Decode(&parsed); err != nil {
		return "", fmt.Errorf("ошибка при разборе ответа AI-сервиса: %w", err)
	}
	if len(parsed.Choices) == 0 {
		return "", fmt.Errorf("AI-сервис вернул пустой ответ")
	}

	return parsed.Choices[0].Message.Content, nil
}
