package presence

import "time"

// GeoPoint представляет последнюю известную позицию устройства
type GeoPoint struct {
	Latitude  float64   `json:"latitude"`
	Longitude float64   `json:"longitude"`
	UpdatedAt time.Time `json:"updated_at"`
}

// Device представляет регистрацию устройства.
// Запись обновляется внешним коллаборатором "update presence"
// и читается селектором ближайших устройств.
type Device struct {
	UserID      string    `json:"user_id"`
	UserCode    string    `json:"user_code,omitempty"`
	DeviceToken string    `json:"device_token,omitempty"`
	Location    *GeoPoint `json:"location,omitempty"`
}

// UpdateRequest представляет запрос на обновление присутствия.
// Токен и позиция обновляются независимо: отсутствующее поле
// не затирает ранее сохраненное значение.
type UpdateRequest struct {
	UserID      string `json:"user_id"`
	UserCode    string `json:"user_code,omitempty"`
	DeviceToken string `json:"device_token,omitempty"`
	Location    *struct {
		Latitude  float64 `json:"latitude"`
		Longitude float64 `json:"longitude"`
	} `json:"last_location,omitempty"`
}
