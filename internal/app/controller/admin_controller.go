package controller

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/ikkim/dongnetalk-backend/internal/app/service"
	apperrors "github.com/ikkim/dongnetalk-backend/internal/errors"
	"github.com/ikkim/dongnetalk-backend/internal/middleware"
)

// AdminController exposes user administration endpoints.
// 라우터에서 RequireRole("admin")으로 보호된다.
type AdminController struct {
	authService service.AuthService
}

func NewAdminController(authService service.AuthService) *AdminController {
	return &AdminController{
		authService: authService,
	}
}

// ListUsers returns all accounts, paginated
// GET /api/v1/admin/users
func (ctrl *AdminController) ListUsers(c *gin.Context) {
	log := middleware.GetLoggerFromContext(c)

	page, pageSize := parsePagination(c)

	users, total, err := ctrl.authService.ListUsers(page, pageSize)
	if err != nil {
		log.Error("Failed to list users", err, nil)
		apperrors.InternalError(c, "사용자 목록을 불러오지 못했습니다")
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"users":     users,
		"total":     total,
		"page":      page,
		"page_size": pageSize,
	})
}

// DeleteUser removes an account
// DELETE /api/v1/admin/users/:id
func (ctrl *AdminController) DeleteUser(c *gin.Context) {
	log := middleware.GetLoggerFromContext(c)

	targetID, err := strconv.ParseUint(c.Param("id"), 10, 32)
	if err != nil {
		apperrors.BadRequest(c, apperrors.ValidationInvalidID, "잘못된 사용자 ID입니다")
		return
	}

	adminID, _ := middleware.GetUserID(c)
	if uint(targetID) == adminID {
		apperrors.BadRequest(c, apperrors.ValidationInvalidInput, "자기 자신의 계정은 삭제할 수 없습니다")
		return
	}

	if err := ctrl.authService.DeleteUser(uint(targetID)); err != nil {
		if errors.Is(err, service.ErrUserNotFound) {
			apperrors.NotFound(c, apperrors.ResourceNotFound, "사용자를 찾을 수 없습니다")
			return
		}
		log.Error("Failed to delete user", err, map[string]interface{}{
			"target_id": targetID,
		})
		apperrors.InternalError(c, "사용자 삭제에 실패했습니다")
		return
	}

	log.Info("User deleted by admin", map[string]interface{}{
		"admin_id":  adminID,
		"target_id": targetID,
	})

	c.JSON(http.StatusOK, gin.H{
		"message": "사용자가 삭제되었습니다",
	})
}
