package senders

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"
)

// Ошибки отправителей
var (
	ErrSendFailed   = errors.New("failed to send alert")
	ErrServerReject = errors.New("server rejected alert")
)

// AlertLocation представляет координаты в теле запроса
type AlertLocation struct {
	Latitude  float64 `json:"latitude"`
	Longitude float64 `json:"longitude"`
}

// AlertRequest представляет тело запроса создания алерта
type AlertRequest struct {
	UserID   string         `json:"userId"`
	Location *AlertLocation `json:"location,omitempty"`
	Message  string         `json:"message"`
}

// AlertSender интерфейс для отправки алертов на backend
type AlertSender interface {
	// Send отправляет один алерт
	Send(ctx context.Context, req AlertRequest) error

	// Validate проверяет готовность отправителя
	Validate() error
}

// HTTPSender отправляет алерты на backend по HTTP JSON API
type HTTPSender struct {
	client  *http.Client
	baseURL string
}

// NewHTTPSender создает новый HTTP отправитель
func NewHTTPSender(baseURL string) *HTTPSender {
	return &HTTPSender{
		client:  &http.Client{Timeout: 10 * time.Second},
		baseURL: baseURL,
	}
}

// Send отправляет алерт на POST /api/alerts
func (s *HTTPSender) Send(ctx context.Context, req AlertRequest) error {
	body, err := json.Marshal(req)
	if err != nil {
		return fmt.Errorf("failed to marshal alert: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost,
		s.baseURL+"/api/alerts", bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("failed to build request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")

	resp, err := s.client.Do(httpReq)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrSendFailed, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusCreated {
		payload, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return fmt.Errorf("%w: status %d: %s", ErrServerReject, resp.StatusCode, payload)
	}

	return nil
}

// Validate проверяет что базовый URL задан
func (s *HTTPSender) Validate() error {
	if s.baseURL == "" {
		return fmt.Errorf("base URL not configured")
	}
	return nil
}
