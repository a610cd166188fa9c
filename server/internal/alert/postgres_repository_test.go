package alert

import (
	"context"
	"database/sql"
	"errors"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func setupMockDB(t *testing.T) (*sql.DB, sqlmock.Sqlmock, *PostgresRepository) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)

	repo := NewPostgresRepository(db, zap.NewNop())
	return db, mock, repo
}

var alertTestColumns = []string{
	"id", "user_id", "latitude", "longitude", "message", "created_at",
	"sms_sid", "sms_status", "sms_to", "sms_from", "sms_error_code", "sms_error_message",
	"sms_updated_at", "sms_fallback_sent",
}

func TestPostgresRepository_Create(t *testing.T) {
	db, mock, repo := setupMockDB(t)
	defer db.Close()

	a := testAlert()

	mock.ExpectExec(`INSERT INTO alerts`).
		WithArgs(a.ID, a.UserID, a.Location.Latitude, a.Location.Longitude, a.Message, a.CreatedAt).
		WillReturnResult(sqlmock.NewResult(0, 1))

	err := repo.Create(context.Background(), a)

	require.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresRepository_GetByID(t *testing.T) {
	db, mock, repo := setupMockDB(t)
	defer db.Close()

	createdAt := time.Now()
	rows := sqlmock.NewRows(alertTestColumns).
		AddRow("alert-1", "user-1", 55.7558, 37.6173, "help", createdAt,
			nil, nil, nil, nil, nil, nil, nil, false)

	mock.ExpectQuery(`FROM alerts WHERE id`).
		WithArgs("alert-1").
		WillReturnRows(rows)

	a, err := repo.GetByID(context.Background(), "alert-1")

	require.NoError(t, err)
	assert.Equal(t, "alert-1", a.ID)
	assert.Equal(t, 55.7558, a.Location.Latitude)
	// SMS подсостояние отсутствует, пока операторская отправка не выполнена
	assert.Nil(t, a.SMS)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresRepository_GetByID_NotFound(t *testing.T) {
	db, mock, repo := setupMockDB(t)
	defer db.Close()

	mock.ExpectQuery(`FROM alerts WHERE id`).
		WithArgs("missing").
		WillReturnError(sql.ErrNoRows)

	_, err := repo.GetByID(context.Background(), "missing")

	assert.True(t, errors.Is(err, ErrNotFound))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresRepository_GetBySMSSid(t *testing.T) {
	db, mock, repo := setupMockDB(t)
	defer db.Close()

	createdAt := time.Now()
	errCode := 30003
	rows := sqlmock.NewRows(alertTestColumns).
		AddRow("alert-1", "user-1", 55.7558, 37.6173, "help", createdAt,
			"SM1001", "undelivered", "+15550100", "+15550200", errCode, "Unreachable",
			createdAt, true)

	mock.ExpectQuery(`FROM alerts WHERE sms_sid`).
		WithArgs("SM1001").
		WillReturnRows(rows)

	a, err := repo.GetBySMSSid(context.Background(), "SM1001")

	require.NoError(t, err)
	require.NotNil(t, a.SMS)
	assert.Equal(t, "SM1001", a.SMS.Sid)
	assert.Equal(t, "undelivered", a.SMS.Status)
	require.NotNil(t, a.SMS.ErrorCode)
	assert.Equal(t, 30003, *a.SMS.ErrorCode)
	assert.True(t, a.SMS.FallbackSent)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresRepository_List(t *testing.T) {
	db, mock, repo := setupMockDB(t)
	defer db.Close()

	createdAt := time.Now()
	rows := sqlmock.NewRows(alertTestColumns).
		AddRow("alert-2", "user-1", 55.7558, 37.6173, "second", createdAt,
			nil, nil, nil, nil, nil, nil, nil, false).
		AddRow("alert-1", "user-1", 55.7558, 37.6173, "first", createdAt.Add(-time.Minute),
			nil, nil, nil, nil, nil, nil, nil, false)

	mock.ExpectQuery(`FROM alerts ORDER BY created_at DESC`).
		WithArgs(50).
		WillReturnRows(rows)

	alerts, err := repo.List(context.Background(), 50)

	require.NoError(t, err)
	require.Len(t, alerts, 2)
	assert.Equal(t, "alert-2", alerts[0].ID)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresRepository_UpdateSMSState(t *testing.T) {
	db, mock, repo := setupMockDB(t)
	defer db.Close()

	state := SMSState{
		Sid:       "SM1001",
		Status:    "queued",
		To:        "+15550100",
		From:      "+15550200",
		UpdatedAt: time.Now(),
	}

	mock.ExpectExec(`UPDATE alerts`).
		WillReturnResult(sqlmock.NewResult(0, 1))

	err := repo.UpdateSMSState(context.Background(), "alert-1", state)

	require.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresRepository_UpdateSMSStatus_NotFound(t *testing.T) {
	db, mock, repo := setupMockDB(t)
	defer db.Close()

	mock.ExpectExec(`UPDATE alerts`).
		WillReturnResult(sqlmock.NewResult(0, 0))

	err := repo.UpdateSMSStatus(context.Background(), "missing", "delivered", nil, nil)

	assert.True(t, errors.Is(err, ErrNotFound))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresRepository_MarkFallbackSent(t *testing.T) {
	db, mock, repo := setupMockDB(t)
	defer db.Close()

	// Первый вызов выигрывает CAS
	mock.ExpectExec(`sms_fallback_sent = FALSE`).
		WillReturnResult(sqlmock.NewResult(0, 1))
	// Второй проигрывает: условие WHERE не совпало
	mock.ExpectExec(`sms_fallback_sent = FALSE`).
		WillReturnResult(sqlmock.NewResult(0, 0))

	won, err := repo.MarkFallbackSent(context.Background(), "alert-1")
	require.NoError(t, err)
	assert.True(t, won)

	won, err = repo.MarkFallbackSent(context.Background(), "alert-1")
	require.NoError(t, err)
	assert.False(t, won)

	assert.NoError(t, mock.ExpectationsWereMet())
}
