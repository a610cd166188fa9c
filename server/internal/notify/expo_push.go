package notify

import (
	"context"
	"fmt"

	expo "github.com/oliveroneill/exponent-server-sdk-golang/sdk"
	"go.uber.org/zap"
)

// Expo ограничивает размер одного запроса
const expoChunkSize = 100

// ExpoPushSender реализует PushSender поверх Expo push service
type ExpoPushSender struct {
	client *expo.PushClient
	logger *zap.Logger
}

// NewExpoPushSender создает клиента Expo push service
func NewExpoPushSender(logger *zap.Logger) *ExpoPushSender {
	return &ExpoPushSender{
		client: expo.NewPushClient(nil),
		logger: logger,
	}
}

// Send отправляет батч уведомление всем валидным токенам.
// Токены с неверным форматом отбрасываются до обращения к провайдеру,
// остальные отправляются чанками по expoChunkSize сообщений.
func (s *ExpoPushSender) Send(ctx context.Context, msg PushMessage) error {
	if len(msg.Tokens) == 0 {
		return nil
	}

	messages := make([]expo.PushMessage, 0, len(msg.Tokens))
	for _, raw := range msg.Tokens {
		token, err := expo.NewExponentPushToken(raw)
		if err != nil {
			s.logger.Warn("Dropping invalid push token", zap.String("token", raw))
			continue
		}
		messages = append(messages, expo.PushMessage{
			To:       []expo.ExponentPushToken{token},
			Title:    msg.Title,
			Body:     msg.Body,
			Data:     msg.Data,
			Sound:    "default",
			Priority: expo.DefaultPriority,
		})
	}
	if len(messages) == 0 {
		return nil
	}

	for start := 0; start < len(messages); start += expoChunkSize {
		end := start + expoChunkSize
		if end > len(messages) {
			end = len(messages)
		}

		responses, err := s.client.PublishMultiple(messages[start:end])
		if err != nil {
			return fmt.Errorf("expo publish: %w", err)
		}
		for _, response := range responses {
			if err := response.ValidateResponse(); err != nil {
				s.logger.Warn("Expo push receipt reported failure", zap.Error(err))
			}
		}
	}

	return nil
}
