package contact

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	_ "github.com/lib/pq"
	"go.uber.org/zap"
)

// ErrNotFound возвращается, когда контакт не найден
var ErrNotFound = errors.New("contact not found")

// Repository определяет интерфейс хранилища экстренных контактов
type Repository interface {
	Create(ctx context.Context, contact *EmergencyContact) error
	GetByID(ctx context.Context, id string) (*EmergencyContact, error)
	ListByUser(ctx context.Context, userID string) ([]EmergencyContact, error)
	Delete(ctx context.Context, id string) error
}

// PostgresRepository реализует Repository для PostgreSQL
type PostgresRepository struct {
	db     *sql.DB
	logger *zap.Logger
}

// NewPostgresRepository создает новый экземпляр PostgresRepository
func NewPostgresRepository(db *sql.DB, logger *zap.Logger) *PostgresRepository {
	return &PostgresRepository{
		db:     db,
		logger: logger,
	}
}

func (r *PostgresRepository) Create(ctx context.Context, contact *EmergencyContact) error {
	query := `
		INSERT INTO emergency_contacts (id, user_id, name, phone, created_at)
		VALUES ($1, $2, $3, $4, $5)
	`

	_, err := r.db.ExecContext(ctx, query,
		contact.ID,
		contact.UserID,
		contact.Name,
		contact.Phone,
		contact.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to create contact: %w", err)
	}

	return nil
}

func (r *PostgresRepository) GetByID(ctx context.Context, id string) (*EmergencyContact, error) {
	query := `
		SELECT id, user_id, name, phone, created_at
		FROM emergency_contacts
		WHERE id = $1
	`

	var c EmergencyContact
	err := r.db.QueryRowContext(ctx, query, id).Scan(
		&c.ID,
		&c.UserID,
		&c.Name,
		&c.Phone,
		&c.CreatedAt,
	)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to get contact: %w", err)
	}

	return &c, nil
}

func (r *PostgresRepository) ListByUser(ctx context.Context, userID string) ([]EmergencyContact, error) {
	query := `
		SELECT id, user_id, name, phone, created_at
		FROM emergency_contacts
		WHERE user_id = $1
		ORDER BY created_at DESC
	`

	rows, err := r.db.QueryContext(ctx, query, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to list contacts: %w", err)
	}
	defer rows.Close()

	var contacts []EmergencyContact
	for rows.Next() {
		var c EmergencyContact
		if err := rows.Scan(&c.ID, &c.UserID, &c.Name, &c.Phone, &c.CreatedAt); err != nil {
			r.logger.Warn("Skipping malformed contact row", zap.Error(err))
			continue
		}
		contacts = append(contacts, c)
	}

	return contacts, rows.Err()
}

func (r *PostgresRepository) Delete(ctx context.Context, id string) error {
	result, err := r.db.ExecContext(ctx, `DELETE FROM emergency_contacts WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("failed to delete contact: %w", err)
	}

	rowsAffected, _ := result.RowsAffected()
	if rowsAffected == 0 {
		return ErrNotFound
	}

	return nil
}
