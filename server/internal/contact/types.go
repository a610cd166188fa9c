package contact

import "time"

// EmergencyContact представляет экстренный контакт пользователя.
// Контакт принадлежит одному пользователю и виден только ему;
// пайплайн рассылки читает контакты, но никогда их не изменяет.
type EmergencyContact struct {
	ID        string    `json:"id"`
	UserID    string    `json:"user_id"`
	Name      string    `json:"name"`
	Phone     string    `json:"phone"`
	CreatedAt time.Time `json:"created_at"`
}

// CreateContactRequest представляет запрос на добавление контакта
type CreateContactRequest struct {
	UserID string `json:"user_id,omitempty"`
	Name   string `json:"name"`
	Phone  string `json:"phone"`
}
