package repository

import (
	"context"
	"testing"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/pashagolub/pgxmock/v3"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/algobasket/hissabbook-api-system/internal/domain"
	"github.com/algobasket/hissabbook-api-system/pkg/xerrors"
)

func userColumns() []string {
	return []string{"id", "email", "password_hash", "status", "created_at", "last_login_at"}
}

func TestCreateUserInsertsNewRow(t *testing.T) {
	mockPool, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mockPool.Close()

	repo := NewUserRepository(mockPool)
	now := time.Now()

	mockPool.ExpectQuery("INSERT INTO users").
		WithArgs("555", "user@example.com", nil).
		WillReturnRows(pgxmock.NewRows(userColumns()).
			AddRow("555", "user@example.com", nil, "active", now, &now))

	saved, created, err := repo.CreateUser(context.Background(), &domain.User{
		ID:    "555",
		Email: "user@example.com",
	})
	require.NoError(t, err)
	assert.True(t, created)
	assert.Equal(t, "555", saved.ID)
	assert.Nil(t, saved.PasswordHash)

	require.NoError(t, mockPool.ExpectationsWereMet())
}

func TestCreateUserConvergesOnConflict(t *testing.T) {
	mockPool, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mockPool.Close()

	repo := NewUserRepository(mockPool)
	now := time.Now()
	hash := "$2a$10$existinghash"

	// The upsert returns the row that won; its id differs from ours.
	mockPool.ExpectQuery("INSERT INTO users").
		WithArgs("556", "user@example.com", nil).
		WillReturnRows(pgxmock.NewRows(userColumns()).
			AddRow("111", "user@example.com", &hash, "active", now, &now))

	saved, created, err := repo.CreateUser(context.Background(), &domain.User{
		ID:    "556",
		Email: "user@example.com",
	})
	require.NoError(t, err)
	assert.False(t, created)
	assert.Equal(t, "111", saved.ID)
	require.NotNil(t, saved.PasswordHash)
	assert.Equal(t, hash, *saved.PasswordHash)

	require.NoError(t, mockPool.ExpectationsWereMet())
}

func TestGetUserByEmail(t *testing.T) {
	mockPool, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mockPool.Close()

	repo := NewUserRepository(mockPool)
	now := time.Now()

	mockPool.ExpectQuery("FROM users").
		WithArgs("user@example.com").
		WillReturnRows(pgxmock.NewRows(userColumns()).
			AddRow("555", "user@example.com", nil, "active", now, &now))

	user, err := repo.GetUserByEmail(context.Background(), "user@example.com")
	require.NoError(t, err)
	assert.Equal(t, "555", user.ID)

	require.NoError(t, mockPool.ExpectationsWereMet())
}

func TestGetUserByEmailNotFound(t *testing.T) {
	mockPool, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mockPool.Close()

	repo := NewUserRepository(mockPool)

	mockPool.ExpectQuery("FROM users").
		WithArgs("ghost@example.com").
		WillReturnError(pgx.ErrNoRows)

	_, err = repo.GetUserByEmail(context.Background(), "ghost@example.com")
	assert.ErrorIs(t, err, xerrors.ErrUserNotFound)

	require.NoError(t, mockPool.ExpectationsWereMet())
}

func TestGetUserByPhoneJoinsProfile(t *testing.T) {
	mockPool, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mockPool.Close()

	repo := NewUserRepository(mockPool)
	now := time.Now()

	mockPool.ExpectQuery("JOIN user_profiles").
		WithArgs("919876543210").
		WillReturnRows(pgxmock.NewRows(userColumns()).
			AddRow("555", "phone_919876543210@hissabbook.temp", nil, "active", now, &now))

	user, err := repo.GetUserByPhone(context.Background(), "919876543210")
	require.NoError(t, err)
	assert.Equal(t, "555", user.ID)

	require.NoError(t, mockPool.ExpectationsWereMet())
}

func TestUpdateLastLogin(t *testing.T) {
	mockPool, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mockPool.Close()

	repo := NewUserRepository(mockPool)

	mockPool.ExpectExec("UPDATE users SET last_login_at").
		WithArgs("555").
		WillReturnResult(pgxmock.NewResult("UPDATE", 1))
	require.NoError(t, repo.UpdateLastLogin(context.Background(), "555"))

	mockPool.ExpectExec("UPDATE users SET last_login_at").
		WithArgs("ghost").
		WillReturnResult(pgxmock.NewResult("UPDATE", 0))
	assert.ErrorIs(t, repo.UpdateLastLogin(context.Background(), "ghost"), xerrors.ErrUserNotFound)

	require.NoError(t, mockPool.ExpectationsWereMet())
}

func TestSetPassword(t *testing.T) {
	mockPool, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mockPool.Close()

	repo := NewUserRepository(mockPool)

	mockPool.ExpectExec("UPDATE users SET password_hash").
		WithArgs("$2a$10$newhash", "555").
		WillReturnResult(pgxmock.NewResult("UPDATE", 1))

	require.NoError(t, repo.SetPassword(context.Background(), "555", "$2a$10$newhash"))
	require.NoError(t, mockPool.ExpectationsWereMet())
}
