package alert

import (
	"context"
	"fmt"
	"math"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// Service реализует прием алертов (Application Layer).
// Create отвечает вызывающему сразу после персистентной записи алерта;
// каналы доставки запускаются в фоне и не влияют на ответ.
type Service struct {
	repo       Repository
	dispatcher *Dispatcher
	events     EventPublisher
	listLimit  int
	logger     *zap.Logger
}

// NewService создает новый Service
func NewService(repo Repository, dispatcher *Dispatcher, events EventPublisher, listLimit int, logger *zap.Logger) *Service {
	if listLimit <= 0 {
		listLimit = 200
	}
	return &Service{
		repo:       repo,
		dispatcher: dispatcher,
		events:     events,
		listLimit:  listLimit,
		logger:     logger,
	}
}

// Create валидирует запрос, сохраняет алерт и запускает рассылку.
// Возвращает персистентный алерт до завершения какого-либо канала;
// ошибки каналов никогда не доходят до вызывающего.
func (s *Service) Create(ctx context.Context, req CreateAlertRequest) (*Alert, error) {
	if err := validateCreateRequest(req); err != nil {
		return nil, err
	}

	a := &Alert{
		ID:     uuid.New().String(),
		UserID: req.UserID,
		Location: Location{
			Latitude:  *req.Location.Latitude,
			Longitude: *req.Location.Longitude,
		},
		Message:   req.Message,
		CreatedAt: time.Now(),
	}

	if err := s.repo.Create(ctx, a); err != nil {
		return nil, fmt.Errorf("failed to persist alert: %w", err)
	}

	s.logger.Info("Alert created",
		zap.String("alert_id", a.ID),
		zap.String("user_id", a.UserID),
	)
	if s.events != nil {
		s.events.Publish("alert.created", a)
	}

	// Fire-and-forget: результат рассылки вызывающему не нужен
	s.dispatcher.Dispatch(ctx, a)

	return a, nil
}

// List возвращает последние алерты
func (s *Service) List(ctx context.Context, limit int) ([]*Alert, error) {
	if limit <= 0 || limit > s.listLimit {
		limit = s.listLimit
	}
	return s.repo.List(ctx, limit)
}

func validateCreateRequest(req CreateAlertRequest) error {
	if req.UserID == "" {
		return &ValidationError{Field: "userId"}
	}
	if req.Location == nil || req.Location.Latitude == nil || req.Location.Longitude == nil {
		return &ValidationError{Field: "location"}
	}
	if math.IsNaN(*req.Location.Latitude) || math.IsNaN(*req.Location.Longitude) ||
		math.IsInf(*req.Location.Latitude, 0) || math.IsInf(*req.Location.Longitude, 0) {
		return &ValidationError{Field: "location"}
	}
	if req.Message == "" {
		return &ValidationError{Field: "message"}
	}
	return nil
}
