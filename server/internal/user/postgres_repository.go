package user

import (
	"context"
	"database/sql"
	"fmt"

	_ "github.com/lib/pq"
	"go.uber.org/zap"
)

// Repository определяет интерфейс хранилища пользователей (read-only для пайплайна)
type Repository interface {
	GetByID(ctx context.Context, id string) (*User, error)
	GetByCode(ctx context.Context, code string) (*User, error)
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

func (r *PostgresRepository) GetByID(ctx context.Context, id string) (*User, error) {
	return r.get(ctx, `SELECT id, user_code, name, email, created_at FROM users WHERE id = $1`, id)
}

func (r *PostgresRepository) GetByCode(ctx context.Context, code string) (*User, error) {
	return r.get(ctx, `SELECT id, user_code, name, email, created_at FROM users WHERE user_code = $1`, code)
}

func (r *PostgresRepository) get(ctx context.Context, query, arg string) (*User, error) {
	var u User
	var userCode, name, email sql.NullString

	err := r.db.QueryRowContext(ctx, query, arg).Scan(
		&u.ID,
		&userCode,
		&name,
		&email,
		&u.CreatedAt,
	)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to get user: %w", err)
	}

	u.UserCode = userCode.String
	u.Name = name.String
	u.Email = email.String
	return &u, nil
}
