package alert

import (
	"context"
	"fmt"
	"strconv"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/Krimson/guardian/server/internal/contact"
	"github.com/Krimson/guardian/server/internal/notify"
	"github.com/Krimson/guardian/server/internal/presence"
	"github.com/Krimson/guardian/server/internal/user"
)

// Channel идентифицирует независимый канал доставки
type Channel string

const (
	ChannelEmail       Channel = "email"
	ChannelOperatorSMS Channel = "operator_sms"
	ChannelContactSMS  Channel = "contact_sms"
	ChannelPush        Channel = "push"
)

// ChannelOutcome содержит структурированный результат работы одного канала.
// Вызывающий создание алерта его не ждет; результат нужен тестам и
// операционному наблюдению через websocket фид.
type ChannelOutcome struct {
	Channel      Channel `json:"channel"`
	Recipients   int     `json:"recipients"`
	Failed       int     `json:"failed"`
	FallbackSent bool    `json:"fallbackSent,omitempty"`
	Skipped      bool    `json:"skipped,omitempty"`
	Err          error   `json:"-"`
}

// Result позволяет дождаться завершения всех каналов одной рассылки
type Result struct {
	wg       sync.WaitGroup
	mu       sync.Mutex
	outcomes []ChannelOutcome
}

func (r *Result) record(outcome ChannelOutcome) {
	r.mu.Lock()
	r.outcomes = append(r.outcomes, outcome)
	r.mu.Unlock()
}

// Wait блокируется до завершения всех каналов и возвращает их результаты
func (r *Result) Wait() []ChannelOutcome {
	r.wg.Wait()
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]ChannelOutcome(nil), r.outcomes...)
}

// ContactResolver отдает экстренные контакты пользователя
type ContactResolver interface {
	Resolve(ctx context.Context, userID string) ([]contact.EmergencyContact, error)
}

// NearbySelector отдает push-токены устройств рядом с точкой алерта
type NearbySelector interface {
	SelectNearby(ctx context.Context, origin presence.Origin, excludeUserIDs []string, radiusMeters float64) ([]string, error)
}

// EventPublisher публикует события жизненного цикла алерта (websocket фид).
// Реализация может отсутствовать, nil безопасен.
type EventPublisher interface {
	Publish(eventType string, payload interface{})
}

// DispatcherConfig задает настройки каналов доставки
type DispatcherConfig struct {
	OperatorNumber    string
	FromNumber        string
	StatusCallbackURL string
	EmailTo           []string
	RadiusMeters      float64
}

// Dispatcher разводит персистентный алерт по независимым каналам доставки.
// Все зависимости передаются явно при конструировании: никакого
// динамического поиска отправителей во время вызова.
type Dispatcher struct {
	repo     Repository
	contacts ContactResolver
	users    user.Repository
	nearby   NearbySelector
	sms      notify.SMSSender
	push     notify.PushSender
	email    notify.EmailSender
	events   EventPublisher
	cfg      DispatcherConfig
	logger   *zap.Logger
}

// NewDispatcher создает новый Dispatcher
func NewDispatcher(
	repo Repository,
	contacts ContactResolver,
	users user.Repository,
	nearby NearbySelector,
	sms notify.SMSSender,
	push notify.PushSender,
	email notify.EmailSender,
	events EventPublisher,
	cfg DispatcherConfig,
	logger *zap.Logger,
) *Dispatcher {
	return &Dispatcher{
		repo:     repo,
		contacts: contacts,
		users:    users,
		nearby:   nearby,
		sms:      sms,
		push:     push,
		email:    email,
		events:   events,
		cfg:      cfg,
		logger:   logger,
	}
}

// Dispatch запускает четыре канала доставки и возвращается немедленно.
// Каналы не блокируют друг друга; ни один результат канала не нужен
// другому каналу. Падение канала логируется и остается внутри него.
func (d *Dispatcher) Dispatch(ctx context.Context, a *Alert) *Result {
	// Каналы переживают HTTP запрос, породивший алерт
	ctx = context.WithoutCancel(ctx)

	channels := []struct {
		name Channel
		run  func(context.Context, *Alert) ChannelOutcome
	}{
		{ChannelEmail, d.sendEmail},
		{ChannelContactSMS, d.sendContactSMS},
		{ChannelOperatorSMS, d.sendOperatorSMS},
		{ChannelPush, d.sendPush},
	}

	result := &Result{}
	result.wg.Add(len(channels))

	for _, ch := range channels {
		go func(name Channel, run func(context.Context, *Alert) ChannelOutcome) {
			defer result.wg.Done()

			outcome := run(ctx, a)
			outcome.Channel = name
			if outcome.Err != nil {
				d.logger.Error("Notification channel failed",
					zap.String("channel", string(name)),
					zap.String("alert_id", a.ID),
					zap.Error(outcome.Err),
				)
			}

			result.record(outcome)
			d.publish("dispatch.outcome", map[string]interface{}{
				"alertId": a.ID,
				"outcome": outcome,
				"error":   errString(outcome.Err),
			})
		}(ch.name, ch.run)
	}

	return result
}

// ===== Email канал =====

// sendEmail работает как best-effort: ошибка логируется, не ретраится
// и не влияет на состояние алерта
func (d *Dispatcher) sendEmail(ctx context.Context, a *Alert) ChannelOutcome {
	if len(d.cfg.EmailTo) == 0 {
		return ChannelOutcome{Skipped: true}
	}

	msg := notify.EmailMessage{
		To:      d.cfg.EmailTo,
		Subject: fmt.Sprintf("🚨 Emergency Alert: %s", displayUser(a)),
		Text:    alertEmailText(a),
		HTML:    alertEmailHTML(a),
	}

	if err := d.email.Send(ctx, msg); err != nil {
		return ChannelOutcome{Recipients: len(d.cfg.EmailTo), Failed: len(d.cfg.EmailTo), Err: err}
	}

	d.logger.Info("Alert email sent", zap.String("alert_id", a.ID))
	return ChannelOutcome{Recipients: len(d.cfg.EmailTo)}
}

// ===== Contact SMS канал =====

// sendContactSMS шлет SMS каждому экстренному контакту конкурентно.
// Семантика settle-all: отказ одного получателя не отменяет остальных,
// каждый результат фиксируется отдельно.
func (d *Dispatcher) sendContactSMS(ctx context.Context, a *Alert) ChannelOutcome {
	contacts, err := d.contacts.Resolve(ctx, a.UserID)
	if err != nil {
		return ChannelOutcome{Err: fmt.Errorf("failed to resolve contacts: %w", err)}
	}
	if len(contacts) == 0 {
		return ChannelOutcome{Skipped: true}
	}

	body := contactSMSText(a)

	var wg sync.WaitGroup
	var mu sync.Mutex
	failed := 0

	wg.Add(len(contacts))
	for _, c := range contacts {
		go func(c contact.EmergencyContact) {
			defer wg.Done()

			_, err := d.sms.Send(ctx, notify.SMSMessage{
				To:   c.Phone,
				From: d.cfg.FromNumber,
				Body: body,
			})
			if err != nil {
				d.logger.Error("Failed to send SMS to contact",
					zap.String("alert_id", a.ID),
					zap.String("phone", c.Phone),
					zap.Error(err),
				)
				mu.Lock()
				failed++
				mu.Unlock()
			}
		}(c)
	}
	wg.Wait()

	return ChannelOutcome{Recipients: len(contacts), Failed: failed}
}

// ===== Operator SMS канал (primary + fallback) =====

// sendOperatorSMS шлет короткое SMS на операторский номер.
// Результат сохраняется в репозиторий независимо от исхода; отказ
// транспорта, синхронный статус failed/undelivered или код ошибки
// немедленно запускают fallback. Алерт вызывающего не изменяется:
// его уже читает HTTP ответ в соседней горутине.
func (d *Dispatcher) sendOperatorSMS(ctx context.Context, a *Alert) ChannelOutcome {
	if d.cfg.OperatorNumber == "" {
		d.logger.Info("No SMS receiver configured, skipping SMS", zap.String("alert_id", a.ID))
		return ChannelOutcome{Skipped: true}
	}

	result, err := d.sms.Send(ctx, notify.SMSMessage{
		To:             d.cfg.OperatorNumber,
		From:           d.cfg.FromNumber,
		Body:           shortAlertText(a),
		StatusCallback: d.cfg.StatusCallbackURL,
	})
	if err != nil {
		fallback := d.SendFallback(ctx, a)
		return ChannelOutcome{Recipients: 1, Failed: 1, FallbackSent: fallback, Err: err}
	}

	state := SMSState{
		Sid:          result.Sid,
		Status:       result.Status,
		To:           result.To,
		From:         result.From,
		ErrorCode:    result.ErrorCode,
		ErrorMessage: result.ErrorMessage,
		UpdatedAt:    time.Now(),
	}
	if err := d.repo.UpdateSMSState(ctx, a.ID, state); err != nil {
		d.logger.Error("Failed to persist sms state",
			zap.String("alert_id", a.ID),
			zap.Error(err),
		)
	}

	// Приватная копия: состояние отправки нужно только fallback'у
	sent := *a
	sent.SMS = &state

	outcome := ChannelOutcome{Recipients: 1}
	if isTerminalFailure(result.Status) || result.ErrorCode != nil {
		outcome.Failed = 1
		outcome.FallbackSent = d.SendFallback(ctx, &sent)
	}

	return outcome
}

// SendFallback шлет минимальное запасное SMS, если fallback для этого
// алерта еще не отправлялся. Флаг переводится compare-and-swap'ом до
// отправки: при гонке диспетчера и реконсилятора отправит ровно один.
func (d *Dispatcher) SendFallback(ctx context.Context, a *Alert) bool {
	to := d.cfg.OperatorNumber
	if to == "" && a.SMS != nil {
		to = a.SMS.To
	}
	if to == "" || d.cfg.FromNumber == "" {
		d.logger.Warn("SMS to/from not configured, skipping fallback", zap.String("alert_id", a.ID))
		return false
	}

	won, err := d.repo.MarkFallbackSent(ctx, a.ID)
	if err != nil {
		d.logger.Error("Failed to mark fallback sent",
			zap.String("alert_id", a.ID),
			zap.Error(err),
		)
		return false
	}
	if !won {
		return false
	}

	if _, err := d.sms.Send(ctx, notify.SMSMessage{
		To:   to,
		From: d.cfg.FromNumber,
		Body: fallbackSMSText(a),
	}); err != nil {
		// Флаг уже потрачен: fallback не ретраится
		d.logger.Error("Fallback SMS error",
			zap.String("alert_id", a.ID),
			zap.Error(err),
		)
		return true
	}

	d.logger.Info("Fallback SMS sent",
		zap.String("alert_id", a.ID),
		zap.String("to", to),
	)
	return true
}

// ===== Push канал =====

// sendPush шлет одно батч-уведомление всем устройствам в радиусе.
// Пустой набор кандидатов считается no-op, не ошибкой.
func (d *Dispatcher) sendPush(ctx context.Context, a *Alert) ChannelOutcome {
	origin := presence.Origin{
		Latitude:  a.Location.Latitude,
		Longitude: a.Location.Longitude,
	}

	tokens, err := d.nearby.SelectNearby(ctx, origin, d.originatorIDs(ctx, a.UserID), d.cfg.RadiusMeters)
	if err != nil {
		return ChannelOutcome{Err: fmt.Errorf("failed to select nearby devices: %w", err)}
	}
	if len(tokens) == 0 {
		d.logger.Info("No nearby device tokens to notify", zap.String("alert_id", a.ID))
		return ChannelOutcome{Skipped: true}
	}

	err = d.push.Send(ctx, notify.PushMessage{
		Tokens: tokens,
		Title:  "🚨 Emergency Nearby",
		Body:   "Someone nearby triggered an SOS. Open the app for details.",
		Data: map[string]string{
			"alertId":   a.ID,
			"latitude":  strconv.FormatFloat(a.Location.Latitude, 'f', -1, 64),
			"longitude": strconv.FormatFloat(a.Location.Longitude, 'f', -1, 64),
		},
	})
	if err != nil {
		return ChannelOutcome{Recipients: len(tokens), Failed: len(tokens), Err: err}
	}

	d.logger.Info("Push notifications sent",
		zap.String("alert_id", a.ID),
		zap.Int("devices", len(tokens)),
	)
	return ChannelOutcome{Recipients: len(tokens)}
}

// originatorIDs собирает обе формы идентификатора инициатора
// (каноническую и легаси), чтобы исключить его из push-рассылки
func (d *Dispatcher) originatorIDs(ctx context.Context, userID string) []string {
	ids := []string{userID}
	if d.users == nil || userID == "" {
		return ids
	}

	if _, err := uuid.Parse(userID); err == nil {
		if u, err := d.users.GetByID(ctx, userID); err == nil && u.UserCode != "" {
			ids = append(ids, u.UserCode)
		}
	} else {
		if u, err := d.users.GetByCode(ctx, userID); err == nil {
			ids = append(ids, u.ID)
		}
	}

	return ids
}

func (d *Dispatcher) publish(eventType string, payload interface{}) {
	if d.events != nil {
		d.events.Publish(eventType, payload)
	}
}

// isTerminalFailure распознает терминальные состояния доставки у SMS провайдера
func isTerminalFailure(status string) bool {
	return status == "failed" || status == "undelivered"
}

func errString(err error) string {
	if err == nil {
		return ""
	}
	return err.Error()
}
