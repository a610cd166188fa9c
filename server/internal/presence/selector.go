package presence

import (
	"context"
	"fmt"
	"math"

	"go.uber.org/zap"
)

// Радиус Земли для haversine
const earthRadiusMeters = 6371000.0

// Origin представляет точку алерта
type Origin struct {
	Latitude  float64
	Longitude float64
}

// Selector выбирает устройства в заданном радиусе от точки алерта
type Selector struct {
	store  Store
	logger *zap.Logger
}

// NewSelector создает новый Selector
func NewSelector(store Store, logger *zap.Logger) *Selector {
	return &Selector{
		store:  store,
		logger: logger,
	}
}

// SelectNearby возвращает push-токены устройств в радиусе radiusMeters от origin.
// Инициатор алерта исключается по любой форме идентификатора (канонической
// или легаси). Устройства без токена и записи с некорректной позицией
// пропускаются; ошибка одного кандидата не прерывает скан.
func (s *Selector) SelectNearby(ctx context.Context, origin Origin, excludeUserIDs []string, radiusMeters float64) ([]string, error) {
	devices, err := s.store.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list devices: %w", err)
	}

	exclude := make(map[string]struct{}, len(excludeUserIDs))
	for _, id := range excludeUserIDs {
		if id != "" {
			exclude[id] = struct{}{}
		}
	}

	var tokens []string
	for _, device := range devices {
		if _, ok := exclude[device.UserID]; ok {
			continue
		}
		if device.UserCode != "" {
			if _, ok := exclude[device.UserCode]; ok {
				continue
			}
		}
		if device.DeviceToken == "" {
			continue
		}
		if device.Location == nil {
			continue
		}

		distance, err := distanceMeters(origin.Latitude, origin.Longitude, device.Location.Latitude, device.Location.Longitude)
		if err != nil {
			s.logger.Warn("Distance compute error for device",
				zap.String("user_id", device.UserID),
				zap.Error(err),
			)
			continue
		}

		if distance <= radiusMeters {
			tokens = append(tokens, device.DeviceToken)
		}
	}

	return tokens, nil
}

// distanceMeters вычисляет расстояние по дуге большого круга (haversine)
func distanceMeters(lat1, lon1, lat2, lon2 float64) (float64, error) {
	for _, v := range []float64{lat1, lon1, lat2, lon2} {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return 0, fmt.Errorf("malformed coordinate: %v", v)
		}
	}

	dLat := toRad(lat2 - lat1)
	dLon := toRad(lon2 - lon1)

	a := math.Sin(dLat/2)*math.Sin(dLat/2) +
		math.Cos(toRad(lat1))*math.Cos(toRad(lat2))*math.Sin(dLon/2)*math.Sin(dLon/2)
	c := 2 * math.Atan2(math.Sqrt(a), math.Sqrt(1-a))

	return earthRadiusMeters * c, nil
}

func toRad(deg float64) float64 {
	return deg * math.Pi / 180
}
