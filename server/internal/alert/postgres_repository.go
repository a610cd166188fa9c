package alert

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	_ "github.com/lib/pq"
	"go.uber.org/zap"
)

// PostgresRepository реализует Repository для PostgreSQL (Infrastructure Layer)
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

// NewPostgresRepositoryFromDSN создает репозиторий из строки подключения
func NewPostgresRepositoryFromDSN(dsn string, logger *zap.Logger) (*PostgresRepository, error) {
	db, err := sql.Open("postgres", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	if err := db.Ping(); err != nil {
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	db.SetMaxOpenConns(25)
	db.SetMaxIdleConns(5)
	db.SetConnMaxLifetime(5 * time.Minute)

	return &PostgresRepository{db: db, logger: logger}, nil
}

// Close закрывает соединение с БД
func (r *PostgresRepository) Close() error {
	return r.db.Close()
}

const alertColumns = `
	id, user_id, latitude, longitude, message, created_at,
	sms_sid, sms_status, sms_to, sms_from, sms_error_code, sms_error_message,
	sms_updated_at, sms_fallback_sent
`

func (r *PostgresRepository) Create(ctx context.Context, alert *Alert) error {
	query := `
		INSERT INTO alerts (id, user_id, latitude, longitude, message, created_at, sms_fallback_sent)
		VALUES ($1, $2, $3, $4, $5, $6, FALSE)
	`

	_, err := r.db.ExecContext(ctx, query,
		alert.ID,
		alert.UserID,
		alert.Location.Latitude,
		alert.Location.Longitude,
		alert.Message,
		alert.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to create alert: %w", err)
	}

	return nil
}

func (r *PostgresRepository) GetByID(ctx context.Context, id string) (*Alert, error) {
	query := `SELECT ` + alertColumns + ` FROM alerts WHERE id = $1`
	return r.scanAlert(r.db.QueryRowContext(ctx, query, id))
}

func (r *PostgresRepository) GetBySMSSid(ctx context.Context, sid string) (*Alert, error) {
	query := `SELECT ` + alertColumns + ` FROM alerts WHERE sms_sid = $1`
	return r.scanAlert(r.db.QueryRowContext(ctx, query, sid))
}

func (r *PostgresRepository) List(ctx context.Context, limit int) ([]*Alert, error) {
	query := `SELECT ` + alertColumns + ` FROM alerts ORDER BY created_at DESC LIMIT $1`

	rows, err := r.db.QueryContext(ctx, query, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to list alerts: %w", err)
	}
	defer rows.Close()

	var alerts []*Alert
	for rows.Next() {
		alert, err := r.scanAlert(rows)
		if err != nil {
			r.logger.Warn("Skipping malformed alert row", zap.Error(err))
			continue
		}
		alerts = append(alerts, alert)
	}

	return alerts, rows.Err()
}

func (r *PostgresRepository) UpdateSMSState(ctx context.Context, alertID string, state SMSState) error {
	query := `
		UPDATE alerts
		SET sms_sid = $2, sms_status = $3, sms_to = $4, sms_from = $5,
		    sms_error_code = $6, sms_error_message = $7, sms_updated_at = $8
		WHERE id = $1
	`

	result, err := r.db.ExecContext(ctx, query,
		alertID,
		nullString(state.Sid),
		nullString(state.Status),
		nullString(state.To),
		nullString(state.From),
		state.ErrorCode,
		state.ErrorMessage,
		state.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to update sms state: %w", err)
	}

	rowsAffected, _ := result.RowsAffected()
	if rowsAffected == 0 {
		return ErrNotFound
	}

	return nil
}

func (r *PostgresRepository) UpdateSMSStatus(ctx context.Context, alertID string, status string, errorCode *int, errorMessage *string) error {
	query := `
		UPDATE alerts
		SET sms_status = $2, sms_error_code = $3, sms_error_message = $4, sms_updated_at = $5
		WHERE id = $1
	`

	result, err := r.db.ExecContext(ctx, query,
		alertID,
		nullString(status),
		errorCode,
		errorMessage,
		time.Now(),
	)
	if err != nil {
		return fmt.Errorf("failed to update sms status: %w", err)
	}

	rowsAffected, _ := result.RowsAffected()
	if rowsAffected == 0 {
		return ErrNotFound
	}

	return nil
}

// MarkFallbackSent выполняет compare-and-swap на sms_fallback_sent.
// Инвариант "не более одного fallback на алерт" обеспечивается
// условием WHERE: переход выигрывает ровно один вызывающий.
func (r *PostgresRepository) MarkFallbackSent(ctx context.Context, alertID string) (bool, error) {
	query := `
		UPDATE alerts
		SET sms_fallback_sent = TRUE, sms_updated_at = $2
		WHERE id = $1 AND sms_fallback_sent = FALSE
	`

	result, err := r.db.ExecContext(ctx, query, alertID, time.Now())
	if err != nil {
		return false, fmt.Errorf("failed to mark fallback sent: %w", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("failed to read rows affected: %w", err)
	}

	return rowsAffected == 1, nil
}

// ===== Сканирование =====

type rowScanner interface {
	Scan(dest ...interface{}) error
}

func (r *PostgresRepository) scanAlert(row rowScanner) (*Alert, error) {
	var a Alert
	var sid, status, to, from, errorMessage sql.NullString
	var errorCode sql.NullInt64
	var updatedAt sql.NullTime
	var fallbackSent bool

	err := row.Scan(
		&a.ID,
		&a.UserID,
		&a.Location.Latitude,
		&a.Location.Longitude,
		&a.Message,
		&a.CreatedAt,
		&sid,
		&status,
		&to,
		&from,
		&errorCode,
		&errorMessage,
		&updatedAt,
		&fallbackSent,
	)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to scan alert: %w", err)
	}

	if sid.Valid || status.Valid || fallbackSent {
		state := &SMSState{
			Sid:          sid.String,
			Status:       status.String,
			To:           to.String,
			From:         from.String,
			FallbackSent: fallbackSent,
		}
		if errorCode.Valid {
			code := int(errorCode.Int64)
			state.ErrorCode = &code
		}
		if errorMessage.Valid {
			msg := errorMessage.String
			state.ErrorMessage = &msg
		}
		if updatedAt.Valid {
			state.UpdatedAt = updatedAt.Time
		}
		a.SMS = state
	}

	return &a, nil
}

func nullString(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}
