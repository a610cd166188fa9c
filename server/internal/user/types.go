package user

import (
	"errors"
	"time"
)

// ErrNotFound возвращается, когда пользователь не найден ни по одному идентификатору
var ErrNotFound = errors.New("user not found")

// User представляет зарегистрированного пользователя.
// ID хранит канонический идентификатор (uuid), UserCode хранит легаси
// строковый код, под которым пользователь мог быть зарегистрирован
// в старом клиенте.
type User struct {
	ID        string    `json:"id"`
	UserCode  string    `json:"user_code,omitempty"`
	Name      string    `json:"name,omitempty"`
	Email     string    `json:"email,omitempty"`
	CreatedAt time.Time `json:"created_at"`
}
