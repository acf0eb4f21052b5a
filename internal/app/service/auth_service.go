package service

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/ikkim/dongnetalk-backend/internal/app/model"
	"github.com/ikkim/dongnetalk-backend/internal/app/repository"
	"github.com/ikkim/dongnetalk-backend/pkg/logger"
	"github.com/ikkim/dongnetalk-backend/pkg/mailer"
	"github.com/ikkim/dongnetalk-backend/pkg/redis"
	"github.com/ikkim/dongnetalk-backend/pkg/util"
	"gorm.io/gorm"
)

var (
	ErrEmailAlreadyExists = errors.New("email already exists")
	ErrInvalidCredentials = errors.New("invalid email or password")
	ErrUserNotFound       = errors.New("user not found")
	ErrPasswordRequired   = errors.New("password is required")
	ErrPasswordMismatch   = errors.New("password confirmation does not match")
	ErrPasswordTooShort   = errors.New("password must be at least 6 characters")

	// ErrTokenNotFound is the single outcome for every unusable mail token:
	// nonexistent, expired, consumed or wrong purpose. The caller cannot
	// tell these apart, only the logs can.
	ErrTokenNotFound = errors.New("token not found or no longer valid")
)

const (
	// SignUpTokenExpiry is the duration for which a signup confirmation token is valid
	SignUpTokenExpiry = 48 * time.Hour
	// ResetTokenExpiry is the duration for which a password reset token is valid
	ResetTokenExpiry = 1 * time.Hour
	// MailTokenLength is the byte length of a mail token
	MailTokenLength = 32
	// MinPasswordLength is the minimum accepted password length
	MinPasswordLength = 6
)

type AuthService interface {
	Register(name, email, password, passwordConfirm string) (*model.User, error)
	VerifySignup(token string) (*model.User, string, error)
	Login(email, password string) (*model.User, string, error)
	Logout(ctx context.Context, sessionID string, expiresAt time.Time) error
	RequestPasswordReset(email string) error
	ValidateResetToken(token string) error
	ResetPassword(token, password, passwordConfirm string) (*model.User, string, error)
	GetUserByID(id uint) (*model.User, error)
	UpdateProfile(userID uint, name string) (*model.User, error)

	// Admin operations, gated by the role middleware
	ListUsers(page, pageSize int) ([]model.User, int64, error)
	DeleteUser(id uint) error
}

type authService struct {
	userRepo      repository.UserRepository
	tokenRepo     repository.MailTokenRepository
	mailer        *mailer.Mailer
	sessionSecret string
	sessionExpiry time.Duration
}

func NewAuthService(
	userRepo repository.UserRepository,
	tokenRepo repository.MailTokenRepository,
	mail *mailer.Mailer,
	sessionSecret string,
	sessionExpiry time.Duration,
) AuthService {
	return &authService{
		userRepo:      userRepo,
		tokenRepo:     tokenRepo,
		mailer:        mail,
		sessionSecret: sessionSecret,
		sessionExpiry: sessionExpiry,
	}
}

// Register creates an unconfirmed account and emails a signup confirmation
// link. No session is established until the link is visited.
func (s *authService) Register(name, email, password, passwordConfirm string) (*model.User, error) {
	logger.Info("Attempting user registration", map[string]interface{}{
		"email": email,
		"name":  name,
	})

	if password == "" {
		return nil, ErrPasswordRequired
	}
	if password != passwordConfirm {
		return nil, ErrPasswordMismatch
	}

	// Check if user already exists
	existingUser, err := s.userRepo.FindByEmail(email)
	if err != nil && !errors.Is(err, gorm.ErrRecordNotFound) {
		logger.Error("Failed to check existing user", err, map[string]interface{}{
			"email": email,
		})
		return nil, err
	}
	if existingUser != nil {
		logger.Warn("Registration failed: email already exists", map[string]interface{}{
			"email": email,
		})
		return nil, ErrEmailAlreadyExists
	}

	hashedPassword, err := util.HashPassword(password)
	if err != nil {
		logger.Error("Failed to hash password", err, map[string]interface{}{
			"email": email,
		})
		return nil, err
	}

	user := &model.User{
		Email:          email,
		PasswordHash:   hashedPassword,
		Name:           name,
		EmailConfirmed: false,
		Role:           model.RoleUser,
	}

	if err := s.userRepo.Create(user); err != nil {
		logger.Error("Failed to create user in database", err, map[string]interface{}{
			"email": email,
		})
		return nil, err
	}

	mailToken, err := s.createMailToken(email, model.PurposeSignUp, SignUpTokenExpiry)
	if err != nil {
		return nil, err
	}

	// Email delivery is best-effort: a failure leaves the account pending
	// and the user can request a new link via forgot-password.
	if err := s.mailer.SendWelcomeEmail(email, name, s.mailer.VerificationLink(mailToken.Token)); err != nil {
		logger.Error("Failed to send welcome email", err, map[string]interface{}{
			"email": email,
		})
	}

	logger.Info("User registered, confirmation pending", map[string]interface{}{
		"user_id": user.ID,
		"email":   email,
	})

	return user, nil
}

// VerifySignup consumes a signup confirmation token, confirms the account
// and establishes a session (auto-login). Any unusable token yields
// ErrTokenNotFound; dead tokens are consumed so they cannot be probed again.
func (s *authService) VerifySignup(token string) (*model.User, string, error) {
	logger.Info("Processing signup verification")

	mailToken, err := s.tokenRepo.FindByToken(token)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			logger.Warn("Signup verification failed: token does not exist", nil)
			return nil, "", ErrTokenNotFound
		}
		return nil, "", err
	}

	if !mailToken.IsValidFor(model.PurposeSignUp) {
		logger.Warn("Signup verification failed: token unusable", map[string]interface{}{
			"email":   mailToken.Email,
			"purpose": mailToken.Purpose,
			"expired": mailToken.IsExpired(),
		})
		if _, err := s.tokenRepo.Consume(token); err != nil {
			return nil, "", err
		}
		return nil, "", ErrTokenNotFound
	}

	// The conditional consume decides the race between concurrent visits
	// of the same link. Only the winner mutates the account.
	won, err := s.tokenRepo.Consume(token)
	if err != nil {
		return nil, "", err
	}
	if !won {
		logger.Warn("Signup verification failed: token already consumed", map[string]interface{}{
			"email": mailToken.Email,
		})
		return nil, "", ErrTokenNotFound
	}

	user, err := s.userRepo.FindByEmail(mailToken.Email)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			// Account vanished between token issuance and consumption
			logger.Warn("Signup verification failed: no account for token email", map[string]interface{}{
				"email": mailToken.Email,
			})
			return nil, "", ErrTokenNotFound
		}
		return nil, "", err
	}

	if err := s.userRepo.ConfirmEmail(mailToken.Email); err != nil {
		return nil, "", err
	}
	user.EmailConfirmed = true

	sessionToken, err := s.issueSession(user)
	if err != nil {
		return nil, "", err
	}

	logger.Info("Signup verified successfully", map[string]interface{}{
		"user_id": user.ID,
		"email":   user.Email,
	})

	return user, sessionToken, nil
}

// Login authenticates a confirmed account. Unknown emails, unconfirmed
// accounts and wrong passwords all collapse into ErrInvalidCredentials.
func (s *authService) Login(email, password string) (*model.User, string, error) {
	logger.Info("Login attempt", map[string]interface{}{
		"email": email,
	})

	user, err := s.userRepo.FindConfirmedByEmail(email)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			logger.Warn("Login failed: no confirmed account", map[string]interface{}{
				"email": email,
			})
			return nil, "", ErrInvalidCredentials
		}
		logger.Error("Failed to find user", err, map[string]interface{}{
			"email": email,
		})
		return nil, "", err
	}

	if !util.VerifyPassword(user.PasswordHash, password) {
		logger.Warn("Login failed: invalid password", map[string]interface{}{
			"email":   email,
			"user_id": user.ID,
		})
		return nil, "", ErrInvalidCredentials
	}

	sessionToken, err := s.issueSession(user)
	if err != nil {
		return nil, "", err
	}

	logger.Info("User logged in successfully", map[string]interface{}{
		"user_id": user.ID,
		"email":   email,
		"role":    user.Role,
	})

	return user, sessionToken, nil
}

// Logout revokes the session id until the cookie would have expired anyway
func (s *authService) Logout(ctx context.Context, sessionID string, expiresAt time.Time) error {
	remaining := time.Until(expiresAt)
	if remaining <= 0 {
		return nil
	}
	return redis.RevokeSession(ctx, sessionID, remaining)
}

// RequestPasswordReset creates a reset token and emails the reset link.
// The response never reveals whether the account exists.
func (s *authService) RequestPasswordReset(email string) error {
	logger.Info("Processing password reset request", map[string]interface{}{
		"email": email,
	})

	user, err := s.userRepo.FindByEmail(email)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			// Indistinguishable from the success path to prevent enumeration
			logger.Warn("Password reset requested for non-existent email", map[string]interface{}{
				"email": email,
			})
			return nil
		}
		logger.Error("Failed to find user for password reset", err, map[string]interface{}{
			"email": email,
		})
		return err
	}

	mailToken, err := s.createMailToken(email, model.PurposePasswordReset, ResetTokenExpiry)
	if err != nil {
		return err
	}

	if err := s.mailer.SendPasswordResetEmail(email, s.mailer.ResetLink(mailToken.Token)); err != nil {
		logger.Error("Failed to send password reset email", err, map[string]interface{}{
			"email": email,
		})
	}

	logger.Info("Password reset token issued", map[string]interface{}{
		"email":   email,
		"user_id": user.ID,
	})

	return nil
}

// ValidateResetToken checks a reset token before the form is shown.
// Unusable tokens are consumed so a dead link cannot be probed repeatedly.
func (s *authService) ValidateResetToken(token string) error {
	mailToken, err := s.tokenRepo.FindByToken(token)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrTokenNotFound
		}
		return err
	}

	if !mailToken.IsValidFor(model.PurposePasswordReset) {
		logger.Warn("Reset token unusable", map[string]interface{}{
			"email":   mailToken.Email,
			"purpose": mailToken.Purpose,
			"expired": mailToken.IsExpired(),
		})
		if _, err := s.tokenRepo.Consume(token); err != nil {
			return err
		}
		return ErrTokenNotFound
	}

	return nil
}

// ResetPassword applies a new password for the account bound to a valid
// reset token, confirms the email and establishes a session (auto-login).
// The token is re-validated here as a defense against stale resubmission.
func (s *authService) ResetPassword(token, password, passwordConfirm string) (*model.User, string, error) {
	logger.Info("Processing password reset with token")

	// Validation failures must leave the token untouched
	if len(password) < MinPasswordLength {
		return nil, "", ErrPasswordTooShort
	}
	if password != passwordConfirm {
		return nil, "", ErrPasswordMismatch
	}

	mailToken, err := s.tokenRepo.FindByToken(token)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			logger.Warn("Password reset failed: token does not exist", nil)
			return nil, "", ErrTokenNotFound
		}
		return nil, "", err
	}

	if !mailToken.IsValidFor(model.PurposePasswordReset) {
		logger.Warn("Password reset failed: token unusable", map[string]interface{}{
			"email":   mailToken.Email,
			"purpose": mailToken.Purpose,
			"expired": mailToken.IsExpired(),
		})
		if _, err := s.tokenRepo.Consume(token); err != nil {
			return nil, "", err
		}
		return nil, "", ErrTokenNotFound
	}

	hashedPassword, err := util.HashPassword(password)
	if err != nil {
		logger.Error("Failed to hash new password", err, map[string]interface{}{
			"email": mailToken.Email,
		})
		return nil, "", err
	}

	won, err := s.tokenRepo.Consume(token)
	if err != nil {
		return nil, "", err
	}
	if !won {
		logger.Warn("Password reset failed: token already consumed", map[string]interface{}{
			"email": mailToken.Email,
		})
		return nil, "", ErrTokenNotFound
	}

	// Proving control of the mailbox also confirms the email address
	if err := s.userRepo.UpdateCredentials(mailToken.Email, hashedPassword); err != nil {
		return nil, "", err
	}

	user, err := s.userRepo.FindByEmail(mailToken.Email)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			logger.Warn("Password reset: no account for token email", map[string]interface{}{
				"email": mailToken.Email,
			})
			return nil, "", ErrTokenNotFound
		}
		return nil, "", err
	}

	sessionToken, err := s.issueSession(user)
	if err != nil {
		return nil, "", err
	}

	logger.Info("Password reset successful", map[string]interface{}{
		"user_id": user.ID,
		"email":   user.Email,
	})

	return user, sessionToken, nil
}

func (s *authService) GetUserByID(id uint) (*model.User, error) {
	user, err := s.userRepo.FindByID(id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			logger.Warn("User not found", map[string]interface{}{
				"user_id": id,
			})
			return nil, ErrUserNotFound
		}
		logger.Error("Failed to fetch user", err, map[string]interface{}{
			"user_id": id,
		})
		return nil, err
	}

	return user, nil
}

func (s *authService) UpdateProfile(userID uint, name string) (*model.User, error) {
	logger.Info("Updating user profile", map[string]interface{}{
		"user_id": userID,
	})

	user, err := s.userRepo.FindByID(userID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrUserNotFound
		}
		logger.Error("Failed to fetch user for profile update", err, map[string]interface{}{
			"user_id": userID,
		})
		return nil, err
	}

	if name == "" || name == user.Name {
		return user, nil
	}

	user.Name = name
	if err := s.userRepo.Update(user); err != nil {
		logger.Error("Failed to update user profile", err, map[string]interface{}{
			"user_id": userID,
		})
		return nil, err
	}

	logger.Info("User profile updated successfully", map[string]interface{}{
		"user_id": user.ID,
		"name":    user.Name,
	})

	return user, nil
}

func (s *authService) ListUsers(page, pageSize int) ([]model.User, int64, error) {
	limit, offset := paginate(page, pageSize)

	users, total, err := s.userRepo.List(limit, offset)
	if err != nil {
		logger.Error("Failed to list users", err, map[string]interface{}{
			"page":      page,
			"page_size": pageSize,
		})
		return nil, 0, err
	}

	return users, total, nil
}

func (s *authService) DeleteUser(id uint) error {
	if _, err := s.userRepo.FindByID(id); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrUserNotFound
		}
		return err
	}

	if err := s.userRepo.Delete(id); err != nil {
		logger.Error("Failed to delete user", err, map[string]interface{}{
			"user_id": id,
		})
		return err
	}

	logger.Info("User deleted", map[string]interface{}{
		"user_id": id,
	})

	return nil
}

// createMailToken allocates an unguessable token bound to an email and purpose
func (s *authService) createMailToken(email string, purpose model.MailTokenPurpose, expiry time.Duration) (*model.MailToken, error) {
	token, err := generateMailToken()
	if err != nil {
		logger.Error("Failed to generate mail token", err, map[string]interface{}{
			"email": email,
		})
		return nil, err
	}

	mailToken := &model.MailToken{
		Email:     email,
		Token:     token,
		Purpose:   purpose,
		ExpiresAt: time.Now().Add(expiry),
		Consumed:  false,
	}

	if err := s.tokenRepo.Create(mailToken); err != nil {
		logger.Error("Failed to create mail token record", err, map[string]interface{}{
			"email":   email,
			"purpose": purpose,
		})
		return nil, err
	}

	return mailToken, nil
}

// issueSession signs a session token for the user, keyed by a fresh session id
func (s *authService) issueSession(user *model.User) (string, error) {
	sessionID := uuid.NewString()
	token, err := util.GenerateSessionToken(
		user.ID,
		user.Email,
		string(user.Role),
		sessionID,
		s.sessionSecret,
		s.sessionExpiry,
	)
	if err != nil {
		logger.Error("Failed to generate session token", err, map[string]interface{}{
			"user_id": user.ID,
		})
		return "", err
	}
	return token, nil
}

// generateMailToken creates a cryptographically secure random token
func generateMailToken() (string, error) {
	bytes := make([]byte, MailTokenLength)
	if _, err := rand.Read(bytes); err != nil {
		return "", err
	}
	return hex.EncodeToString(bytes), nil
}
