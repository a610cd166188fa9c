package contact

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/Krimson/guardian/server/internal/user"
)

// Resolver сопоставляет произвольный идентификатор пользователя
// (канонический uuid или легаси строковый код) со списком его экстренных контактов
type Resolver struct {
	users    user.Repository
	contacts Repository
	logger   *zap.Logger
}

// NewResolver создает новый Resolver
func NewResolver(users user.Repository, contacts Repository, logger *zap.Logger) *Resolver {
	return &Resolver{
		users:    users,
		contacts: contacts,
		logger:   logger,
	}
}

// Resolve возвращает экстренные контакты пользователя.
// Отсутствие пользователя или контактов считается валидным результатом
// (пустой список), а не ошибкой: пайплайн рассылки трактует это
// как "некому отправлять".
func (r *Resolver) Resolve(ctx context.Context, userID string) ([]EmergencyContact, error) {
	if userID == "" {
		return nil, nil
	}

	resolvedID, err := r.resolveCanonicalID(ctx, userID)
	if err != nil {
		return nil, err
	}
	if resolvedID == "" {
		r.logger.Warn("No user found for contact resolution", zap.String("user_id", userID))
		return nil, nil
	}

	contacts, err := r.contacts.ListByUser(ctx, resolvedID)
	if err != nil {
		return nil, fmt.Errorf("failed to list contacts for user %s: %w", resolvedID, err)
	}

	return contacts, nil
}

// resolveCanonicalID приводит идентификатор к каноническому виду.
// Если строка уже является uuid, используем ее напрямую,
// иначе ищем пользователя по легаси коду.
func (r *Resolver) resolveCanonicalID(ctx context.Context, userID string) (string, error) {
	if _, err := uuid.Parse(userID); err == nil {
		return userID, nil
	}

	u, err := r.users.GetByCode(ctx, userID)
	if err != nil {
		if errors.Is(err, user.ErrNotFound) {
			return "", nil
		}
		return "", fmt.Errorf("failed to resolve user by code: %w", err)
	}

	return u.ID, nil
}
