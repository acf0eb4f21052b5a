package repository

import (
	"testing"

	"github.com/ikkim/dongnetalk-backend/internal/app/model"
	"github.com/ikkim/dongnetalk-backend/internal/db"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

func setupUserTest(t *testing.T) UserRepository {
	testDB, err := db.SetupTestDB(t)
	require.NoError(t, err)

	return NewUserRepository(testDB)
}

func createTestUser(t *testing.T, repo UserRepository, email string, confirmed bool) *model.User {
	t.Helper()

	user := &model.User{
		Email:          email,
		PasswordHash:   "hashedpassword",
		Name:           "Test User",
		EmailConfirmed: confirmed,
		Role:           model.RoleUser,
	}
	require.NoError(t, repo.Create(user))
	return user
}

func TestUserRepository_Create(t *testing.T) {
	repo := setupUserTest(t)

	tests := []struct {
		name    string
		user    *model.User
		wantErr bool
	}{
		{
			name: "Valid user",
			user: &model.User{
				Email:        "test@example.com",
				PasswordHash: "hashedpassword",
				Name:         "Test User",
				Role:         model.RoleUser,
			},
			wantErr: false,
		},
		{
			name: "Duplicate email",
			user: &model.User{
				Email:        "test@example.com",
				PasswordHash: "hashedpassword",
				Name:         "Another User",
				Role:         model.RoleUser,
			},
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := repo.Create(tt.user)

			if tt.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
				assert.NotZero(t, tt.user.ID)
			}
		})
	}
}

func TestUserRepository_FindByEmail(t *testing.T) {
	repo := setupUserTest(t)
	created := createTestUser(t, repo, "find@example.com", false)

	found, err := repo.FindByEmail("find@example.com")
	require.NoError(t, err)
	assert.Equal(t, created.ID, found.ID)

	_, err = repo.FindByEmail("missing@example.com")
	assert.ErrorIs(t, err, gorm.ErrRecordNotFound)
}

func TestUserRepository_FindConfirmedByEmail(t *testing.T) {
	repo := setupUserTest(t)

	createTestUser(t, repo, "unconfirmed@example.com", false)
	confirmed := createTestUser(t, repo, "confirmed@example.com", true)

	// 미인증 계정은 조회되지 않음
	_, err := repo.FindConfirmedByEmail("unconfirmed@example.com")
	assert.ErrorIs(t, err, gorm.ErrRecordNotFound)

	found, err := repo.FindConfirmedByEmail("confirmed@example.com")
	require.NoError(t, err)
	assert.Equal(t, confirmed.ID, found.ID)
}

func TestUserRepository_ConfirmEmail(t *testing.T) {
	repo := setupUserTest(t)
	user := createTestUser(t, repo, "pending@example.com", false)

	require.NoError(t, repo.ConfirmEmail(user.Email))

	found, err := repo.FindByID(user.ID)
	require.NoError(t, err)
	assert.True(t, found.EmailConfirmed)
}

func TestUserRepository_UpdateCredentials(t *testing.T) {
	repo := setupUserTest(t)
	user := createTestUser(t, repo, "reset@example.com", false)

	require.NoError(t, repo.UpdateCredentials(user.Email, "newhash"))

	found, err := repo.FindByID(user.ID)
	require.NoError(t, err)
	assert.Equal(t, "newhash", found.PasswordHash)
	// 비밀번호 재설정은 이메일 소유 증명이므로 인증 상태도 확정된다
	assert.True(t, found.EmailConfirmed)
}

func TestUserRepository_List(t *testing.T) {
	repo := setupUserTest(t)

	createTestUser(t, repo, "a@example.com", true)
	createTestUser(t, repo, "b@example.com", true)
	createTestUser(t, repo, "c@example.com", false)

	users, total, err := repo.List(2, 0)
	require.NoError(t, err)
	assert.Equal(t, int64(3), total)
	assert.Len(t, users, 2)

	users, total, err = repo.List(2, 2)
	require.NoError(t, err)
	assert.Equal(t, int64(3), total)
	assert.Len(t, users, 1)
}

func TestUserRepository_Delete(t *testing.T) {
	repo := setupUserTest(t)
	user := createTestUser(t, repo, "delete@example.com", true)

	require.NoError(t, repo.Delete(user.ID))

	_, err := repo.FindByID(user.ID)
	assert.ErrorIs(t, err, gorm.ErrRecordNotFound)
}
