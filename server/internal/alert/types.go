package alert

import (
	"errors"
	"fmt"
	"time"
)

// ErrNotFound возвращается, когда алерт не найден
var ErrNotFound = errors.New("alert not found")

// ValidationError описывает отклоненный синхронно невалидный запрос.
// Field называет отсутствующее или некорректное поле.
type ValidationError struct {
	Field string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("valid %s required", e.Field)
}

// Location представляет координаты алерта. Обязательна и неизменяема
// после создания.
type Location struct {
	Latitude  float64 `json:"latitude"`
	Longitude float64 `json:"longitude"`
}

// SMSState содержит состояние доставки операторского SMS.
// Обновляется диспетчером после отправки и реконсилятором по асинхронным
// квитанциям провайдера. FallbackSent переходит false→true не более одного
// раза за время жизни алерта.
type SMSState struct {
	Sid          string    `json:"sid,omitempty"`
	Status       string    `json:"status,omitempty"`
	To           string    `json:"to,omitempty"`
	From         string    `json:"from,omitempty"`
	ErrorCode    *int      `json:"errorCode,omitempty"`
	ErrorMessage *string   `json:"errorMessage,omitempty"`
	UpdatedAt    time.Time `json:"updatedAt,omitempty"`
	FallbackSent bool      `json:"fallbackSent"`
}

// Alert представляет персистентный SOS алерт
type Alert struct {
	ID        string    `json:"id"`
	UserID    string    `json:"userId"`
	Location  Location  `json:"location"`
	Message   string    `json:"message"`
	CreatedAt time.Time `json:"createdAt"`
	SMS       *SMSState `json:"sms,omitempty"`
}

// LocationInput представляет координаты в запросе создания алерта.
// Указатели позволяют отличить отсутствующее поле от нулевого значения.
type LocationInput struct {
	Latitude  *float64 `json:"latitude"`
	Longitude *float64 `json:"longitude"`
}

// CreateAlertRequest представляет запрос на создание алерта
type CreateAlertRequest struct {
	UserID   string         `json:"userId"`
	Location *LocationInput `json:"location"`
	Message  string         `json:"message"`
}
