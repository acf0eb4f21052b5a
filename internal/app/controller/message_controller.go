package controller

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"github.com/ikkim/dongnetalk-backend/internal/app/service"
	apperrors "github.com/ikkim/dongnetalk-backend/internal/errors"
	"github.com/ikkim/dongnetalk-backend/internal/middleware"
	ws "github.com/ikkim/dongnetalk-backend/internal/websocket"
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(r *http.Request) bool {
		origin := r.Header.Get("Origin")
		// 허용된 도메인 목록
		allowedOrigins := map[string]bool{
			"http://localhost:5173": true, // 개발 환경
			"http://localhost:3000": true, // 개발 환경
		}
		return allowedOrigins[origin]
	},
}

type MessageController struct {
	messageService service.MessageService
	hub            *ws.Hub
}

func NewMessageController(messageService service.MessageService, hub *ws.Hub) *MessageController {
	return &MessageController{
		messageService: messageService,
		hub:            hub,
	}
}

// SendMessageRequest 메시지 전송 요청
type SendMessageRequest struct {
	RecipientID uint   `json:"recipient_id" binding:"required"`
	Content     string `json:"content" binding:"required,max=2000"`
}

// Send creates a message for another user
// POST /api/v1/messages
func (ctrl *MessageController) Send(c *gin.Context) {
	log := middleware.GetLoggerFromContext(c)

	userID, ok := middleware.GetUserID(c)
	if !ok {
		apperrors.Unauthorized(c, "로그인이 필요합니다")
		return
	}

	var req SendMessageRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		log.Warn("Invalid send message request", map[string]interface{}{
			"error": err.Error(),
		})
		apperrors.BadRequest(c, apperrors.ValidationInvalidInput, "입력 정보가 올바르지 않습니다")
		return
	}

	message, err := ctrl.messageService.SendMessage(userID, req.RecipientID, req.Content)
	if err != nil {
		if errors.Is(err, service.ErrSelfMessage) {
			apperrors.BadRequest(c, apperrors.MessageSelfSend, "자기 자신에게는 메시지를 보낼 수 없습니다")
			return
		}
		if errors.Is(err, service.ErrRecipientNotFound) {
			log.Warn("Message to unknown recipient", map[string]interface{}{
				"sender_id":    userID,
				"recipient_id": req.RecipientID,
			})
			apperrors.NotFound(c, apperrors.RecipientNotFound, "받는 사람을 찾을 수 없습니다")
			return
		}
		log.Error("Failed to send message", err, map[string]interface{}{
			"sender_id":    userID,
			"recipient_id": req.RecipientID,
		})
		apperrors.ParseAndRespond(c, http.StatusInternalServerError, err, "send message")
		return
	}

	log.Info("Message sent", map[string]interface{}{
		"message_id":   message.ID,
		"sender_id":    userID,
		"recipient_id": req.RecipientID,
	})

	c.JSON(http.StatusCreated, gin.H{
		"message": "메시지를 보냈습니다",
		"data":    message,
	})
}

// Inbox lists messages received by the current user, newest first
// GET /api/v1/messages?page=1&page_size=20
func (ctrl *MessageController) Inbox(c *gin.Context) {
	log := middleware.GetLoggerFromContext(c)

	userID, ok := middleware.GetUserID(c)
	if !ok {
		apperrors.Unauthorized(c, "로그인이 필요합니다")
		return
	}

	page, pageSize := parsePagination(c)

	messages, total, err := ctrl.messageService.GetInbox(userID, page, pageSize)
	if err != nil {
		log.Error("Failed to list inbox", err, map[string]interface{}{
			"user_id": userID,
		})
		apperrors.InternalError(c, "메시지 목록을 불러오지 못했습니다")
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"messages":  messages,
		"total":     total,
		"page":      page,
		"page_size": pageSize,
	})
}

// Sent lists messages sent by the current user, newest first
// GET /api/v1/messages/sent
func (ctrl *MessageController) Sent(c *gin.Context) {
	log := middleware.GetLoggerFromContext(c)

	userID, ok := middleware.GetUserID(c)
	if !ok {
		apperrors.Unauthorized(c, "로그인이 필요합니다")
		return
	}

	page, pageSize := parsePagination(c)

	messages, total, err := ctrl.messageService.GetSent(userID, page, pageSize)
	if err != nil {
		log.Error("Failed to list sent messages", err, map[string]interface{}{
			"user_id": userID,
		})
		apperrors.InternalError(c, "메시지 목록을 불러오지 못했습니다")
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"messages":  messages,
		"total":     total,
		"page":      page,
		"page_size": pageSize,
	})
}

// UnreadCount returns the number of unread messages in the inbox
// GET /api/v1/messages/unread-count
func (ctrl *MessageController) UnreadCount(c *gin.Context) {
	log := middleware.GetLoggerFromContext(c)

	userID, ok := middleware.GetUserID(c)
	if !ok {
		apperrors.Unauthorized(c, "로그인이 필요합니다")
		return
	}

	count, err := ctrl.messageService.GetUnreadCount(userID)
	if err != nil {
		log.Error("Failed to count unread messages", err, map[string]interface{}{
			"user_id": userID,
		})
		apperrors.InternalError(c, "읽지 않은 메시지 수를 불러오지 못했습니다")
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"unread_count": count,
	})
}

// MarkRead marks a received message as read
// PUT /api/v1/messages/:id/read
func (ctrl *MessageController) MarkRead(c *gin.Context) {
	log := middleware.GetLoggerFromContext(c)

	userID, ok := middleware.GetUserID(c)
	if !ok {
		apperrors.Unauthorized(c, "로그인이 필요합니다")
		return
	}

	messageID, err := strconv.ParseUint(c.Param("id"), 10, 32)
	if err != nil {
		apperrors.BadRequest(c, apperrors.ValidationInvalidID, "잘못된 메시지 ID입니다")
		return
	}

	if err := ctrl.messageService.MarkAsRead(uint(messageID), userID); err != nil {
		if errors.Is(err, service.ErrMessageNotFound) {
			apperrors.NotFound(c, apperrors.MessageNotFound, "메시지를 찾을 수 없습니다")
			return
		}
		if errors.Is(err, service.ErrMessageAccessDenied) {
			apperrors.Forbidden(c, "해당 메시지에 접근할 권한이 없습니다")
			return
		}
		log.Error("Failed to mark message as read", err, map[string]interface{}{
			"message_id": messageID,
			"user_id":    userID,
		})
		apperrors.InternalError(c, "메시지를 읽음 처리하지 못했습니다")
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"message": "읽음 처리되었습니다",
	})
}

// Delete removes a message the user is a party to
// DELETE /api/v1/messages/:id
func (ctrl *MessageController) Delete(c *gin.Context) {
	log := middleware.GetLoggerFromContext(c)

	userID, ok := middleware.GetUserID(c)
	if !ok {
		apperrors.Unauthorized(c, "로그인이 필요합니다")
		return
	}

	messageID, err := strconv.ParseUint(c.Param("id"), 10, 32)
	if err != nil {
		apperrors.BadRequest(c, apperrors.ValidationInvalidID, "잘못된 메시지 ID입니다")
		return
	}

	role, _ := middleware.GetUserRole(c)

	if err := ctrl.messageService.DeleteMessage(uint(messageID), userID, role == "admin"); err != nil {
		if errors.Is(err, service.ErrMessageNotFound) {
			apperrors.NotFound(c, apperrors.MessageNotFound, "메시지를 찾을 수 없습니다")
			return
		}
		if errors.Is(err, service.ErrMessageAccessDenied) {
			apperrors.Forbidden(c, "해당 메시지를 삭제할 권한이 없습니다")
			return
		}
		log.Error("Failed to delete message", err, map[string]interface{}{
			"message_id": messageID,
			"user_id":    userID,
		})
		apperrors.InternalError(c, "메시지 삭제에 실패했습니다")
		return
	}

	log.Info("Message deleted", map[string]interface{}{
		"message_id": messageID,
		"user_id":    userID,
	})

	c.JSON(http.StatusOK, gin.H{
		"message": "메시지가 삭제되었습니다",
	})
}

// WebSocketHandler WebSocket 연결 처리 (새 메시지 실시간 푸시)
// GET /api/v1/ws
func (ctrl *MessageController) WebSocketHandler(c *gin.Context) {
	log := middleware.GetLoggerFromContext(c)

	// 미들웨어에서 이미 인증 완료
	userID, ok := middleware.GetUserID(c)
	if !ok {
		apperrors.Unauthorized(c, "로그인이 필요합니다")
		return
	}

	conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		log.Error("Failed to upgrade to WebSocket", err, nil)
		return
	}

	client := &ws.Client{
		Hub:    ctrl.hub,
		Conn:   &ws.Conn{Conn: conn},
		UserID: userID,
		Send:   make(chan []byte, 256),
	}

	ctrl.hub.Register(client)

	go client.WritePump()
	go client.ReadPump()

	log.Info("WebSocket connection established", map[string]interface{}{
		"user_id": userID,
	})
}

// parsePagination reads page/page_size query params with sane defaults
func parsePagination(c *gin.Context) (page, pageSize int) {
	page, _ = strconv.Atoi(c.DefaultQuery("page", "1"))
	pageSize, _ = strconv.Atoi(c.DefaultQuery("page_size", "20"))
	return page, pageSize
}
