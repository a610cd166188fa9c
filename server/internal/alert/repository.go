package alert

import "context"

// Repository определяет интерфейс хранилища алертов (Domain Layer).
// Все мутации sms-подсостояния выполняются одиночными запросами
// read-modify-write на стороне БД: диспетчер и реконсилятор работают
// с одной записью конкурентно.
type Repository interface {
	Create(ctx context.Context, alert *Alert) error
	GetByID(ctx context.Context, id string) (*Alert, error)
	GetBySMSSid(ctx context.Context, sid string) (*Alert, error)
	List(ctx context.Context, limit int) ([]*Alert, error)

	// UpdateSMSState записывает полный результат синхронной отправки
	UpdateSMSState(ctx context.Context, alertID string, state SMSState) error

	// UpdateSMSStatus обновляет статус/ошибки по квитанции провайдера
	UpdateSMSStatus(ctx context.Context, alertID string, status string, errorCode *int, errorMessage *string) error

	// MarkFallbackSent атомарно переводит sms_fallback_sent false→true.
	// Возвращает true только вызывающему, выигравшему переход.
	MarkFallbackSent(ctx context.Context, alertID string) (bool, error)
}
