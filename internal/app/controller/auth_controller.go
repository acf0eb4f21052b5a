package controller

import (
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/ikkim/dongnetalk-backend/internal/app/model"
	"github.com/ikkim/dongnetalk-backend/internal/app/service"
	apperrors "github.com/ikkim/dongnetalk-backend/internal/errors"
	"github.com/ikkim/dongnetalk-backend/internal/middleware"
)

type AuthController struct {
	authService   service.AuthService
	sessionExpiry time.Duration
}

func NewAuthController(authService service.AuthService, sessionExpiry time.Duration) *AuthController {
	return &AuthController{
		authService:   authService,
		sessionExpiry: sessionExpiry,
	}
}

type RegisterRequest struct {
	Name            string `json:"name" binding:"required"`
	Email           string `json:"email" binding:"required,email"`
	Password        string `json:"password" binding:"required"`
	PasswordConfirm string `json:"password_confirm" binding:"required"`
}

type LoginRequest struct {
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required"`
}

type ForgotPasswordRequest struct {
	Email string `json:"email" binding:"required,email"`
}

type ResetPasswordRequest struct {
	Token           string `json:"token" binding:"required"`
	Password        string `json:"password" binding:"required"`
	PasswordConfirm string `json:"password_confirm" binding:"required"`
}

type UpdateProfileRequest struct {
	Name string `json:"name"`
}

// userResponse shapes a user for JSON responses. PasswordHash never leaves the server.
func userResponse(user *model.User) gin.H {
	return gin.H{
		"id":              user.ID,
		"email":           user.Email,
		"name":            user.Name,
		"email_confirmed": user.EmailConfirmed,
		"role":            user.Role,
		"created_at":      user.CreatedAt,
	}
}

// setSessionCookie attaches the signed session token as an HttpOnly cookie
func (ctrl *AuthController) setSessionCookie(c *gin.Context, token string) {
	c.SetSameSite(http.SameSiteLaxMode)
	c.SetCookie(middleware.SessionCookieName, token, int(ctrl.sessionExpiry.Seconds()), "/", "", false, true)
}

// clearSessionCookie expires the session cookie on the client
func clearSessionCookie(c *gin.Context) {
	c.SetSameSite(http.SameSiteLaxMode)
	c.SetCookie(middleware.SessionCookieName, "", -1, "/", "", false, true)
}

// Register handles user registration
// POST /api/v1/auth/register
func (ctrl *AuthController) Register(c *gin.Context) {
	log := middleware.GetLoggerFromContext(c)

	var req RegisterRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		log.Warn("Invalid registration request", map[string]interface{}{
			"error": err.Error(),
		})
		apperrors.BadRequest(c, apperrors.ValidationInvalidInput, "입력 정보가 올바르지 않습니다")
		return
	}

	log.Debug("Processing registration", map[string]interface{}{
		"email": req.Email,
		"name":  req.Name,
	})

	user, err := ctrl.authService.Register(req.Name, req.Email, req.Password, req.PasswordConfirm)
	if err != nil {
		if errors.Is(err, service.ErrPasswordRequired) {
			apperrors.RespondWithValidationError(c, map[string]string{
				"password": "비밀번호를 입력해주세요",
			})
			return
		}
		if errors.Is(err, service.ErrPasswordMismatch) {
			log.Warn("Registration failed: password confirmation mismatch", map[string]interface{}{
				"email": req.Email,
			})
			apperrors.RespondWithValidationError(c, map[string]string{
				"password_confirm": "비밀번호가 일치하지 않습니다",
			})
			return
		}
		if errors.Is(err, service.ErrEmailAlreadyExists) {
			log.Warn("Registration failed: email already exists", map[string]interface{}{
				"email": req.Email,
			})
			apperrors.Conflict(c, apperrors.AuthEmailAlreadyExists, "이미 사용 중인 이메일입니다")
			return
		}
		log.Error("Registration failed", err, map[string]interface{}{
			"email": req.Email,
		})
		apperrors.ParseAndRespond(c, http.StatusInternalServerError, err, "register user")
		return
	}

	log.Info("User registered, verification mail queued", map[string]interface{}{
		"user_id": user.ID,
		"email":   user.Email,
	})

	c.JSON(http.StatusCreated, gin.H{
		"message": "가입 확인 메일을 발송했습니다. 메일함을 확인해주세요",
		"user":    userResponse(user),
	})
}

// VerifyEmail confirms a registration via the mailed token and signs the user in
// GET /api/v1/auth/verify-email?token=...
func (ctrl *AuthController) VerifyEmail(c *gin.Context) {
	log := middleware.GetLoggerFromContext(c)

	token := c.Query("token")
	if token == "" {
		apperrors.BadRequest(c, apperrors.ValidationInvalidInput, "토큰이 필요합니다")
		return
	}

	user, sessionToken, err := ctrl.authService.VerifySignup(token)
	if err != nil {
		if errors.Is(err, service.ErrTokenNotFound) {
			log.Warn("Email verification failed: token not usable", nil)
			apperrors.TokenInvalid(c)
			return
		}
		log.Error("Email verification failed", err, nil)
		apperrors.ParseAndRespond(c, http.StatusInternalServerError, err, "verify email")
		return
	}

	log.Info("Email verified, session established", map[string]interface{}{
		"user_id": user.ID,
		"email":   user.Email,
	})

	ctrl.setSessionCookie(c, sessionToken)
	c.JSON(http.StatusOK, gin.H{
		"message": "이메일 인증이 완료되었습니다",
		"user":    userResponse(user),
	})
}

// Login handles user login
// POST /api/v1/auth/login
func (ctrl *AuthController) Login(c *gin.Context) {
	log := middleware.GetLoggerFromContext(c)

	var req LoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		log.Warn("Invalid login request", map[string]interface{}{
			"error": err.Error(),
		})
		apperrors.BadRequest(c, apperrors.ValidationInvalidInput, "입력 정보가 올바르지 않습니다")
		return
	}

	log.Debug("Processing login", map[string]interface{}{
		"email": req.Email,
	})

	user, sessionToken, err := ctrl.authService.Login(req.Email, req.Password)
	if err != nil {
		if errors.Is(err, service.ErrInvalidCredentials) {
			// 미인증 계정도 동일한 메시지로 응답한다 (계정 존재 여부 노출 방지)
			log.Warn("Login failed: invalid credentials", map[string]interface{}{
				"email": req.Email,
			})
			apperrors.Unauthorized(c, "이메일 또는 비밀번호가 올바르지 않습니다")
			return
		}
		log.Error("Login failed", err, map[string]interface{}{
			"email": req.Email,
		})
		apperrors.ParseAndRespond(c, http.StatusInternalServerError, err, "login")
		return
	}

	log.Info("Login successful", map[string]interface{}{
		"user_id": user.ID,
		"email":   user.Email,
	})

	ctrl.setSessionCookie(c, sessionToken)
	c.JSON(http.StatusOK, gin.H{
		"message": "Login successful",
		"user":    userResponse(user),
	})
}

// Logout revokes the current session and clears the cookie
// POST /api/v1/auth/logout
func (ctrl *AuthController) Logout(c *gin.Context) {
	log := middleware.GetLoggerFromContext(c)

	sessionID, exists := middleware.GetSessionID(c)
	if exists {
		expiry, _ := middleware.GetSessionExpiry(c)
		if err := ctrl.authService.Logout(c.Request.Context(), sessionID, expiry); err != nil {
			log.Error("Failed to revoke session during logout", err, nil)
			// Don't fail the request, logout should always succeed from user perspective
		}
	}

	if userID, ok := middleware.GetUserID(c); ok {
		log.Info("User logged out", map[string]interface{}{
			"user_id": userID,
		})
	}

	clearSessionCookie(c)
	c.JSON(http.StatusOK, gin.H{
		"message": "Logged out successfully",
	})
}

// ForgotPassword handles password reset requests.
// 존재하지 않는 이메일이어도 동일한 응답을 반환한다.
// POST /api/v1/auth/forgot-password
func (ctrl *AuthController) ForgotPassword(c *gin.Context) {
	log := middleware.GetLoggerFromContext(c)

	var req ForgotPasswordRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		log.Warn("Invalid forgot password request", map[string]interface{}{
			"error": err.Error(),
		})
		apperrors.BadRequest(c, apperrors.ValidationInvalidInput, "입력 정보가 올바르지 않습니다")
		return
	}

	if err := ctrl.authService.RequestPasswordReset(req.Email); err != nil {
		log.Error("Failed to process password reset request", err, map[string]interface{}{
			"email": req.Email,
		})
		apperrors.InternalError(c, "요청을 처리하지 못했습니다")
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"message": "해당 이메일로 가입된 계정이 있다면 재설정 메일이 발송됩니다",
	})
}

// ShowResetPassword checks whether a reset token is still usable,
// so the client can render the form or an error page.
// GET /api/v1/auth/reset-password?token=...
func (ctrl *AuthController) ShowResetPassword(c *gin.Context) {
	log := middleware.GetLoggerFromContext(c)

	token := c.Query("token")
	if token == "" {
		apperrors.BadRequest(c, apperrors.ValidationInvalidInput, "토큰이 필요합니다")
		return
	}

	if err := ctrl.authService.ValidateResetToken(token); err != nil {
		if errors.Is(err, service.ErrTokenNotFound) {
			log.Warn("Reset password form requested with unusable token", nil)
			apperrors.TokenInvalid(c)
			return
		}
		log.Error("Failed to validate reset token", err, nil)
		apperrors.ParseAndRespond(c, http.StatusInternalServerError, err, "validate reset token")
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"message": "새 비밀번호를 입력해주세요",
		"token":   token,
	})
}

// ResetPassword sets a new password via the mailed token and signs the user in
// POST /api/v1/auth/reset-password
func (ctrl *AuthController) ResetPassword(c *gin.Context) {
	log := middleware.GetLoggerFromContext(c)

	var req ResetPasswordRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		log.Warn("Invalid reset password request", map[string]interface{}{
			"error": err.Error(),
		})
		apperrors.BadRequest(c, apperrors.ValidationInvalidInput, "입력 정보가 올바르지 않습니다")
		return
	}

	user, sessionToken, err := ctrl.authService.ResetPassword(req.Token, req.Password, req.PasswordConfirm)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrPasswordRequired):
			apperrors.RespondWithValidationError(c, map[string]string{
				"password": "비밀번호를 입력해주세요",
			})
		case errors.Is(err, service.ErrPasswordTooShort):
			apperrors.RespondWithValidationError(c, map[string]string{
				"password": "비밀번호는 6자 이상이어야 합니다",
			})
		case errors.Is(err, service.ErrPasswordMismatch):
			apperrors.RespondWithValidationError(c, map[string]string{
				"password_confirm": "비밀번호가 일치하지 않습니다",
			})
		case errors.Is(err, service.ErrTokenNotFound):
			log.Warn("Password reset failed: token not usable", nil)
			apperrors.TokenInvalid(c)
		default:
			log.Error("Failed to reset password", err, nil)
			apperrors.InternalError(c, "비밀번호 재설정에 실패했습니다")
		}
		return
	}

	log.Info("Password reset successful", map[string]interface{}{
		"user_id": user.ID,
	})

	ctrl.setSessionCookie(c, sessionToken)
	c.JSON(http.StatusOK, gin.H{
		"message": "비밀번호가 변경되었습니다",
		"user":    userResponse(user),
	})
}

// GetMe returns current user information
// GET /api/v1/auth/me
func (ctrl *AuthController) GetMe(c *gin.Context) {
	log := middleware.GetLoggerFromContext(c)

	userID, exists := middleware.GetUserID(c)
	if !exists {
		log.Warn("Unauthorized access to GetMe endpoint", nil)
		apperrors.Unauthorized(c, "로그인이 필요합니다")
		return
	}

	user, err := ctrl.authService.GetUserByID(userID)
	if err != nil {
		if errors.Is(err, service.ErrUserNotFound) {
			log.Warn("User not found", map[string]interface{}{
				"user_id": userID,
			})
			apperrors.NotFound(c, apperrors.ResourceNotFound, "사용자를 찾을 수 없습니다")
			return
		}
		log.Error("Failed to get user information", err, map[string]interface{}{
			"user_id": userID,
		})
		apperrors.ParseAndRespond(c, http.StatusInternalServerError, err, "get user")
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"user": userResponse(user),
	})
}

// UpdateMe updates current user's profile
// PUT /api/v1/auth/me
func (ctrl *AuthController) UpdateMe(c *gin.Context) {
	log := middleware.GetLoggerFromContext(c)

	userID, exists := middleware.GetUserID(c)
	if !exists {
		log.Warn("Unauthorized access to UpdateMe endpoint", nil)
		apperrors.Unauthorized(c, "로그인이 필요합니다")
		return
	}

	var req UpdateProfileRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		log.Warn("Invalid update profile request", map[string]interface{}{
			"user_id": userID,
			"error":   err.Error(),
		})
		apperrors.BadRequest(c, apperrors.ValidationInvalidInput, "입력 정보가 올바르지 않습니다")
		return
	}

	user, err := ctrl.authService.UpdateProfile(userID, req.Name)
	if err != nil {
		if errors.Is(err, service.ErrUserNotFound) {
			log.Warn("User not found for profile update", map[string]interface{}{
				"user_id": userID,
			})
			apperrors.NotFound(c, apperrors.ResourceNotFound, "사용자를 찾을 수 없습니다")
			return
		}
		log.Error("Failed to update profile", err, map[string]interface{}{
			"user_id": userID,
		})
		apperrors.ParseAndRespond(c, http.StatusInternalServerError, err, "update profile")
		return
	}

	log.Info("Profile updated", map[string]interface{}{
		"user_id": user.ID,
	})

	c.JSON(http.StatusOK, gin.H{
		"message": "프로필이 수정되었습니다",
		"user":    userResponse(user),
	})
}
