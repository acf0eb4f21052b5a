package middleware

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/ikkim/dongnetalk-backend/internal/app/model"
	"github.com/ikkim/dongnetalk-backend/internal/errors"
	"github.com/ikkim/dongnetalk-backend/pkg/redis"
	"github.com/ikkim/dongnetalk-backend/pkg/util"
)

// SessionCookieName is the cookie carrying the signed session token
const SessionCookieName = "session"

// Context keys for user information
const (
	UserIDKey        = "user_id"
	UserEmailKey     = "user_email"
	UserRoleKey      = "user_role"
	SessionIDKey     = "session_id"
	SessionExpiryKey = "session_expires_at"
)

type AuthMiddleware struct {
	sessionSecret string
}

func NewAuthMiddleware(sessionSecret string) *AuthMiddleware {
	return &AuthMiddleware{
		sessionSecret: sessionSecret,
	}
}

// Authenticate validates the session cookie (required).
// A session is valid when its signature checks out, it has not expired
// and it has not been revoked by a logout.
func (m *AuthMiddleware) Authenticate() gin.HandlerFunc {
	return func(c *gin.Context) {
		log := GetLoggerFromContext(c)

		token, err := c.Cookie(SessionCookieName)
		if err != nil || token == "" {
			log.Warn("Missing session cookie", map[string]interface{}{
				"path": c.Request.URL.Path,
			})
			errors.Unauthorized(c, "로그인이 필요합니다")
			c.Abort()
			return
		}

		claims, err := util.ValidateSessionToken(token, m.sessionSecret)
		if err != nil {
			log.Warn("Session validation failed", map[string]interface{}{
				"path":  c.Request.URL.Path,
				"error": err.Error(),
			})

			// 세션 만료 에러인 경우 명확히 표시
			if err == util.ErrExpiredToken {
				errors.RespondWithError(c, http.StatusUnauthorized, errors.AuthSessionExpired, "로그인이 만료되었습니다")
			} else {
				errors.RespondWithError(c, http.StatusUnauthorized, errors.AuthSessionInvalid, "유효하지 않은 세션입니다")
			}
			c.Abort()
			return
		}

		revoked, err := redis.IsSessionRevoked(c.Request.Context(), claims.ID)
		if err != nil {
			log.Error("Failed to check session revocation", err, map[string]interface{}{
				"path": c.Request.URL.Path,
			})
			errors.InternalError(c, "")
			c.Abort()
			return
		}
		if revoked {
			log.Warn("Revoked session used", map[string]interface{}{
				"path":    c.Request.URL.Path,
				"user_id": claims.UserID,
			})
			errors.RespondWithError(c, http.StatusUnauthorized, errors.AuthSessionRevoked, "로그아웃된 세션입니다")
			c.Abort()
			return
		}

		// Set user information in context
		c.Set(UserIDKey, claims.UserID)
		c.Set(UserEmailKey, claims.Email)
		c.Set(UserRoleKey, model.UserRole(claims.Role))
		c.Set(SessionIDKey, claims.ID)
		c.Set(SessionExpiryKey, claims.ExpiresAt.Time)

		log.Debug("User authenticated successfully", map[string]interface{}{
			"user_id": claims.UserID,
			"email":   claims.Email,
			"role":    claims.Role,
		})

		c.Next()
	}
}

// OptionalAuthenticate validates the session cookie if present (optional)
// - If the session is present and valid: sets user info in context
// - If the session is missing or invalid: continues without user info
func (m *AuthMiddleware) OptionalAuthenticate() gin.HandlerFunc {
	return func(c *gin.Context) {
		log := GetLoggerFromContext(c)

		token, err := c.Cookie(SessionCookieName)
		if err != nil || token == "" {
			// No session - continue as guest
			c.Next()
			return
		}

		claims, err := util.ValidateSessionToken(token, m.sessionSecret)
		if err != nil {
			// Invalid or expired session - continue as guest
			log.Debug("Session validation failed - continuing as guest", map[string]interface{}{
				"path":  c.Request.URL.Path,
				"error": err.Error(),
			})
			c.Next()
			return
		}

		revoked, err := redis.IsSessionRevoked(c.Request.Context(), claims.ID)
		if err != nil || revoked {
			c.Next()
			return
		}

		c.Set(UserIDKey, claims.UserID)
		c.Set(UserEmailKey, claims.Email)
		c.Set(UserRoleKey, model.UserRole(claims.Role))
		c.Set(SessionIDKey, claims.ID)
		c.Set(SessionExpiryKey, claims.ExpiresAt.Time)

		c.Next()
	}
}

// RequireRole checks if user has one of the required roles.
// This is the authorization gate for restricted operations; handlers behind
// it can assume the role check already passed.
func (m *AuthMiddleware) RequireRole(roles ...string) gin.HandlerFunc {
	return func(c *gin.Context) {
		log := GetLoggerFromContext(c)

		userRole, exists := c.Get(UserRoleKey)
		if !exists {
			log.Warn("Role information not found in context", map[string]interface{}{
				"path": c.Request.URL.Path,
			})
			errors.RespondWithError(c, http.StatusForbidden, errors.AuthzRoleNotFound, "권한 정보를 찾을 수 없습니다")
			c.Abort()
			return
		}

		role := userRole.(model.UserRole)
		userID, _ := GetUserID(c)

		for _, r := range roles {
			if role == model.UserRole(r) {
				c.Next()
				return
			}
		}

		log.Warn("Insufficient permissions", map[string]interface{}{
			"user_id":        userID,
			"user_role":      role,
			"required_roles": roles,
			"path":           c.Request.URL.Path,
		})
		errors.Forbidden(c, "접근 권한이 없습니다")
		c.Abort()
	}
}

// GetUserID extracts user ID from context
func GetUserID(c *gin.Context) (uint, bool) {
	userID, exists := c.Get(UserIDKey)
	if !exists {
		return 0, false
	}
	return userID.(uint), true
}

// GetUserEmail extracts user email from context
func GetUserEmail(c *gin.Context) (string, bool) {
	email, exists := c.Get(UserEmailKey)
	if !exists {
		return "", false
	}
	return email.(string), true
}

// GetUserRole extracts user role from context
func GetUserRole(c *gin.Context) (model.UserRole, bool) {
	role, exists := c.Get(UserRoleKey)
	if !exists {
		return "", false
	}
	return role.(model.UserRole), true
}

// GetSessionID extracts the session id from context
func GetSessionID(c *gin.Context) (string, bool) {
	sessionID, exists := c.Get(SessionIDKey)
	if !exists {
		return "", false
	}
	return sessionID.(string), true
}

// GetSessionExpiry extracts the session expiry from context
func GetSessionExpiry(c *gin.Context) (time.Time, bool) {
	expiry, exists := c.Get(SessionExpiryKey)
	if !exists {
		return time.Time{}, false
	}
	return expiry.(time.Time), true
}
