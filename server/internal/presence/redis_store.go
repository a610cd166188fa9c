package presence

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

// ErrNotFound возвращается, когда регистрация устройства отсутствует
var ErrNotFound = errors.New("device registration not found")

// Store определяет интерфейс хранилища регистраций устройств
type Store interface {
	Upsert(ctx context.Context, device Device) error
	Get(ctx context.Context, userID string) (*Device, error)
	List(ctx context.Context) ([]Device, error)
}

// RedisStore реализует Store для Redis: одна JSON запись на устройство
type RedisStore struct {
	client *redis.Client
	logger *zap.Logger
}

// NewRedisStore создает новый экземпляр RedisStore
func NewRedisStore(client *redis.Client, logger *zap.Logger) *RedisStore {
	return &RedisStore{
		client: client,
		logger: logger,
	}
}

func deviceKey(userID string) string {
	return fmt.Sprintf("presence:%s", userID)
}

// Upsert сливает новую регистрацию с существующей: токен и позиция
// обновляются независимыми коллабораторами, поэтому пустое поле
// не должно затирать ранее сохраненное значение.
func (s *RedisStore) Upsert(ctx context.Context, device Device) error {
	existing, err := s.Get(ctx, device.UserID)
	if err != nil && !errors.Is(err, ErrNotFound) {
		return err
	}

	if existing != nil {
		if device.DeviceToken == "" {
			device.DeviceToken = existing.DeviceToken
		}
		if device.Location == nil {
			device.Location = existing.Location
		}
		if device.UserCode == "" {
			device.UserCode = existing.UserCode
		}
	}

	data, err := json.Marshal(device)
	if err != nil {
		return fmt.Errorf("failed to marshal device: %w", err)
	}

	if err := s.client.Set(ctx, deviceKey(device.UserID), data, 0).Err(); err != nil {
		return fmt.Errorf("failed to save device: %w", err)
	}

	return nil
}

func (s *RedisStore) Get(ctx context.Context, userID string) (*Device, error) {
	data, err := s.client.Get(ctx, deviceKey(userID)).Result()
	if err != nil {
		if err == redis.Nil {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to get device: %w", err)
	}

	var device Device
	if err := json.Unmarshal([]byte(data), &device); err != nil {
		return nil, fmt.Errorf("failed to unmarshal device: %w", err)
	}

	return &device, nil
}

// List возвращает все регистрации устройств.
// Поврежденные записи пропускаются с предупреждением, скан не прерывается.
func (s *RedisStore) List(ctx context.Context) ([]Device, error) {
	var devices []Device

	iter := s.client.Scan(ctx, 0, "presence:*", 0).Iterator()
	for iter.Next(ctx) {
		data, err := s.client.Get(ctx, iter.Val()).Result()
		if err != nil {
			s.logger.Warn("Failed to read presence key",
				zap.String("key", iter.Val()),
				zap.Error(err),
			)
			continue
		}

		var device Device
		if err := json.Unmarshal([]byte(data), &device); err != nil {
			s.logger.Warn("Skipping malformed presence record",
				zap.String("key", iter.Val()),
				zap.Error(err),
			)
			continue
		}
		devices = append(devices, device)
	}

	if err := iter.Err(); err != nil {
		return nil, fmt.Errorf("failed to scan presence keys: %w", err)
	}

	return devices, nil
}
