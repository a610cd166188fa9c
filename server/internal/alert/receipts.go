package alert

import (
	"context"
	"errors"
	"fmt"

	"go.uber.org/zap"
)

// Receipt представляет асинхронную квитанцию доставки от SMS провайдера
// (форма статус-коллбэка Twilio)
type Receipt struct {
	MessageSid    string
	MessageStatus string
	To            string
	From          string
	ErrorCode     *int
	ErrorMessage  *string
}

// ApplyReceipt применяет квитанцию доставки к алерту.
// Квитанция без подходящего алерта подтверждается без ошибки: она могла
// обогнать запись или относиться к чужому сообщению. Терминальный отказ
// (failed/undelivered) запускает тот же fallback-путь, что и операторский
// канал; CAS на fallbackSent делает обработчик идемпотентным при дублях.
func (s *Service) ApplyReceipt(ctx context.Context, receipt Receipt) error {
	if receipt.MessageSid == "" {
		return nil
	}

	a, err := s.repo.GetBySMSSid(ctx, receipt.MessageSid)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			s.logger.Debug("No alert found for delivery receipt",
				zap.String("message_sid", receipt.MessageSid),
			)
			return nil
		}
		return fmt.Errorf("failed to look up alert by sms sid: %w", err)
	}

	if err := s.repo.UpdateSMSStatus(ctx, a.ID, receipt.MessageStatus, receipt.ErrorCode, receipt.ErrorMessage); err != nil {
		s.logger.Error("Failed to update alert with SMS status",
			zap.String("alert_id", a.ID),
			zap.Error(err),
		)
	}

	if s.events != nil {
		s.events.Publish("sms.status", map[string]interface{}{
			"alertId": a.ID,
			"sid":     receipt.MessageSid,
			"status":  receipt.MessageStatus,
		})
	}

	if isTerminalFailure(receipt.MessageStatus) {
		s.dispatcher.SendFallback(ctx, a)
	}

	return nil
}
