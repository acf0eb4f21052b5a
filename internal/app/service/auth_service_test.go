package service

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/ikkim/dongnetalk-backend/config"
	"github.com/ikkim/dongnetalk-backend/internal/app/model"
	"github.com/ikkim/dongnetalk-backend/internal/app/repository"
	"github.com/ikkim/dongnetalk-backend/internal/db"
	"github.com/ikkim/dongnetalk-backend/pkg/mailer"
	"github.com/ikkim/dongnetalk-backend/pkg/redis"
	"github.com/ikkim/dongnetalk-backend/pkg/util"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

type authServiceFixture struct {
	service   AuthService
	userRepo  repository.UserRepository
	tokenRepo repository.MailTokenRepository
	db        *gorm.DB
}

func setupAuthServiceTest(t *testing.T) authServiceFixture {
	testDB, err := db.SetupTestDB(t)
	require.NoError(t, err)

	userRepo := repository.NewUserRepository(testDB)
	tokenRepo := repository.NewMailTokenRepository(testDB)

	// 자격 증명 없는 mailer는 발송 대신 로그만 남긴다
	mail := mailer.NewMailer(mailer.Config{
		BaseURL: "http://localhost:5173",
	})

	authService := NewAuthService(
		userRepo,
		tokenRepo,
		mail,
		"test-session-secret",
		7*24*time.Hour,
	)

	return authServiceFixture{
		service:   authService,
		userRepo:  userRepo,
		tokenRepo: tokenRepo,
		db:        testDB,
	}
}

// registerAndFetchToken은 가입 후 발급된 메일 토큰을 DB에서 직접 꺼낸다.
// 테스트에서는 메일이 발송되지 않으므로 토큰을 저장소에서 읽는다.
func registerAndFetchToken(t *testing.T, f authServiceFixture, email string) (*model.User, string) {
	t.Helper()

	user, err := f.service.Register("Test User", email, "password123", "password123")
	require.NoError(t, err)

	token := fetchTokenFor(t, f, email, model.PurposeSignUp)
	return user, token
}

// fetchTokenFor는 발급된 메일 토큰을 DB에서 직접 꺼낸다.
// 저장소 인터페이스에는 이메일 조회가 없으므로 gorm으로 조회한다.
func fetchTokenFor(t *testing.T, f authServiceFixture, email string, purpose model.MailTokenPurpose) string {
	t.Helper()

	var mailToken model.MailToken
	err := f.db.Where("email = ? AND purpose = ? AND consumed = ?", email, purpose, false).
		Order("id DESC").First(&mailToken).Error
	require.NoError(t, err)
	return mailToken.Token
}

func TestAuthService_Register(t *testing.T) {
	f := setupAuthServiceTest(t)

	tests := []struct {
		name            string
		userName        string
		email           string
		password        string
		passwordConfirm string
		wantErr         error
	}{
		{
			name:            "Valid registration",
			userName:        "Test User",
			email:           "test@example.com",
			password:        "password123",
			passwordConfirm: "password123",
			wantErr:         nil,
		},
		{
			name:            "Empty password",
			userName:        "Test User",
			email:           "empty@example.com",
			password:        "",
			passwordConfirm: "",
			wantErr:         ErrPasswordRequired,
		},
		{
			name:            "Password confirmation mismatch",
			userName:        "Test User",
			email:           "mismatch@example.com",
			password:        "password123",
			passwordConfirm: "password456",
			wantErr:         ErrPasswordMismatch,
		},
		{
			name:            "Duplicate email",
			userName:        "Another User",
			email:           "test@example.com",
			password:        "password789",
			passwordConfirm: "password789",
			wantErr:         ErrEmailAlreadyExists,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			user, err := f.service.Register(tt.userName, tt.email, tt.password, tt.passwordConfirm)

			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
				assert.Nil(t, user)

				// 검증 실패 시 계정이 만들어지지 않아야 한다
				if tt.email != "test@example.com" {
					_, findErr := f.userRepo.FindByEmail(tt.email)
					assert.ErrorIs(t, findErr, gorm.ErrRecordNotFound)
				}
			} else {
				require.NoError(t, err)
				require.NotNil(t, user)
				assert.Equal(t, tt.email, user.Email)
				assert.False(t, user.EmailConfirmed)
				assert.Equal(t, model.RoleUser, user.Role)
				assert.NotEqual(t, tt.password, user.PasswordHash)
			}
		})
	}
}

func TestAuthService_VerifySignup(t *testing.T) {
	f := setupAuthServiceTest(t)
	_, token := registerAndFetchToken(t, f, "verify@example.com")

	// 인증 전에는 로그인 불가
	_, _, err := f.service.Login("verify@example.com", "password123")
	assert.ErrorIs(t, err, ErrInvalidCredentials)

	user, sessionToken, err := f.service.VerifySignup(token)
	require.NoError(t, err)
	assert.True(t, user.EmailConfirmed)
	assert.NotEmpty(t, sessionToken)

	// 세션 토큰에 사용자 정보가 담긴다
	claims, err := util.ValidateSessionToken(sessionToken, "test-session-secret")
	require.NoError(t, err)
	assert.Equal(t, user.ID, claims.UserID)

	// 인증 후에는 로그인 가능
	_, _, err = f.service.Login("verify@example.com", "password123")
	assert.NoError(t, err)

	// 같은 링크를 다시 방문하면 실패한다 (단일 사용)
	_, _, err = f.service.VerifySignup(token)
	assert.ErrorIs(t, err, ErrTokenNotFound)
}

func TestAuthService_VerifySignup_UnusableTokens(t *testing.T) {
	f := setupAuthServiceTest(t)

	// 존재하지 않는 토큰
	_, _, err := f.service.VerifySignup("no-such-token")
	assert.ErrorIs(t, err, ErrTokenNotFound)

	// 만료된 토큰
	expired := &model.MailToken{
		Email:     "expired@example.com",
		Token:     "expired-token",
		Purpose:   model.PurposeSignUp,
		ExpiresAt: time.Now().Add(-time.Hour),
	}
	require.NoError(t, f.tokenRepo.Create(expired))
	_, _, err = f.service.VerifySignup("expired-token")
	assert.ErrorIs(t, err, ErrTokenNotFound)

	// 용도가 다른 토큰 (비밀번호 재설정 토큰으로 가입 인증 불가)
	wrongPurpose := &model.MailToken{
		Email:     "wrong@example.com",
		Token:     "reset-token",
		Purpose:   model.PurposePasswordReset,
		ExpiresAt: time.Now().Add(time.Hour),
	}
	require.NoError(t, f.tokenRepo.Create(wrongPurpose))
	_, _, err = f.service.VerifySignup("reset-token")
	assert.ErrorIs(t, err, ErrTokenNotFound)
}

func TestAuthService_Login(t *testing.T) {
	f := setupAuthServiceTest(t)
	_, token := registerAndFetchToken(t, f, "login@example.com")
	_, _, err := f.service.VerifySignup(token)
	require.NoError(t, err)

	tests := []struct {
		name     string
		email    string
		password string
		wantErr  error
	}{
		{
			name:     "Valid login",
			email:    "login@example.com",
			password: "password123",
			wantErr:  nil,
		},
		{
			name:     "Wrong password",
			email:    "login@example.com",
			password: "wrongpassword",
			wantErr:  ErrInvalidCredentials,
		},
		{
			name:     "Unknown email",
			email:    "unknown@example.com",
			password: "password123",
			wantErr:  ErrInvalidCredentials,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			user, sessionToken, err := f.service.Login(tt.email, tt.password)

			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
				assert.Nil(t, user)
				assert.Empty(t, sessionToken)
			} else {
				require.NoError(t, err)
				require.NotNil(t, user)
				assert.NotEmpty(t, sessionToken)
			}
		})
	}
}

func TestAuthService_Logout(t *testing.T) {
	mr := miniredis.RunT(t)
	require.NoError(t, redis.Init(&config.RedisConfig{
		Host: mr.Host(),
		Port: mr.Port(),
	}))
	t.Cleanup(func() { redis.Close() })

	f := setupAuthServiceTest(t)
	ctx := context.Background()

	err := f.service.Logout(ctx, "session-to-revoke", time.Now().Add(time.Hour))
	require.NoError(t, err)

	revoked, err := redis.IsSessionRevoked(ctx, "session-to-revoke")
	require.NoError(t, err)
	assert.True(t, revoked)

	// 이미 만료된 세션은 블랙리스트에 올릴 필요가 없다
	err = f.service.Logout(ctx, "already-expired", time.Now().Add(-time.Minute))
	require.NoError(t, err)

	revoked, err = redis.IsSessionRevoked(ctx, "already-expired")
	require.NoError(t, err)
	assert.False(t, revoked)
}

func TestAuthService_RequestPasswordReset(t *testing.T) {
	f := setupAuthServiceTest(t)
	registerAndFetchToken(t, f, "reset@example.com")

	// 존재하는 계정: 토큰이 발급된다
	require.NoError(t, f.service.RequestPasswordReset("reset@example.com"))
	token := fetchTokenFor(t, f, "reset@example.com", model.PurposePasswordReset)
	assert.NotEmpty(t, token)

	// 존재하지 않는 계정: 에러 없이 동일하게 응답 (계정 존재 여부 비공개)
	require.NoError(t, f.service.RequestPasswordReset("ghost@example.com"))
}

func TestAuthService_ResetPassword(t *testing.T) {
	f := setupAuthServiceTest(t)
	registerAndFetchToken(t, f, "newpass@example.com")
	require.NoError(t, f.service.RequestPasswordReset("newpass@example.com"))
	token := fetchTokenFor(t, f, "newpass@example.com", model.PurposePasswordReset)

	// 검증 실패는 토큰을 소모하지 않는다
	_, _, err := f.service.ResetPassword(token, "short", "short")
	assert.ErrorIs(t, err, ErrPasswordTooShort)

	_, _, err = f.service.ResetPassword(token, "newpassword1", "newpassword2")
	assert.ErrorIs(t, err, ErrPasswordMismatch)

	// 토큰은 여전히 유효하다
	require.NoError(t, f.service.ValidateResetToken(token))

	// 정상 재설정: 새 비밀번호 적용 + 이메일 인증 확정 + 자동 로그인
	user, sessionToken, err := f.service.ResetPassword(token, "newpassword1", "newpassword1")
	require.NoError(t, err)
	assert.True(t, user.EmailConfirmed)
	assert.NotEmpty(t, sessionToken)

	// 새 비밀번호로 로그인 가능, 이전 비밀번호는 거부
	_, _, err = f.service.Login("newpass@example.com", "newpassword1")
	assert.NoError(t, err)
	_, _, err = f.service.Login("newpass@example.com", "password123")
	assert.ErrorIs(t, err, ErrInvalidCredentials)

	// 토큰 재사용 불가
	_, _, err = f.service.ResetPassword(token, "anotherpass1", "anotherpass1")
	assert.ErrorIs(t, err, ErrTokenNotFound)
}

func TestAuthService_ValidateResetToken(t *testing.T) {
	f := setupAuthServiceTest(t)

	assert.ErrorIs(t, f.service.ValidateResetToken("missing"), ErrTokenNotFound)

	expired := &model.MailToken{
		Email:     "expired@example.com",
		Token:     "expired-reset",
		Purpose:   model.PurposePasswordReset,
		ExpiresAt: time.Now().Add(-time.Minute),
	}
	require.NoError(t, f.tokenRepo.Create(expired))
	assert.ErrorIs(t, f.service.ValidateResetToken("expired-reset"), ErrTokenNotFound)

	// 만료 토큰은 검증 시점에 소모되어 이후에도 계속 거부된다
	assert.ErrorIs(t, f.service.ValidateResetToken("expired-reset"), ErrTokenNotFound)
}

func TestAuthService_AdminOperations(t *testing.T) {
	f := setupAuthServiceTest(t)

	for _, email := range []string{"u1@example.com", "u2@example.com", "u3@example.com"} {
		_, err := f.service.Register("User", email, "password123", "password123")
		require.NoError(t, err)
	}

	users, total, err := f.service.ListUsers(1, 2)
	require.NoError(t, err)
	assert.Equal(t, int64(3), total)
	assert.Len(t, users, 2)

	require.NoError(t, f.service.DeleteUser(users[0].ID))

	_, total, err = f.service.ListUsers(1, 10)
	require.NoError(t, err)
	assert.Equal(t, int64(2), total)

	assert.ErrorIs(t, f.service.DeleteUser(9999), ErrUserNotFound)
}
