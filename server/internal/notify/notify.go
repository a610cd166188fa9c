package notify

import "context"

// SMSMessage описывает исходящее SMS сообщение
type SMSMessage struct {
	To             string
	From           string
	Body           string
	StatusCallback string
}

// SMSResult содержит синхронный ответ SMS провайдера
type SMSResult struct {
	Sid          string
	Status       string
	To           string
	From         string
	ErrorCode    *int
	ErrorMessage *string
}

// SMSSender отправляет SMS сообщения через внешнего провайдера
type SMSSender interface {
	Send(ctx context.Context, msg SMSMessage) (*SMSResult, error)
	Fetch(ctx context.Context, sid string) (*SMSResult, error)
}

// PushMessage описывает батч push-уведомление
type PushMessage struct {
	Tokens []string
	Title  string
	Body   string
	Data   map[string]string
}

// PushSender отправляет push-уведомления.
// Невалидные токены отбрасываются реализацией до вызова провайдера.
type PushSender interface {
	Send(ctx context.Context, msg PushMessage) error
}

// EmailMessage описывает исходящее письмо
type EmailMessage struct {
	To      []string
	Subject string
	Text    string
	HTML    string
}

// EmailSender отправляет email уведомления
type EmailSender interface {
	Send(ctx context.Context, msg EmailMessage) error
}
