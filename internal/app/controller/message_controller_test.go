package controller

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/gin-gonic/gin"
	"github.com/ikkim/dongnetalk-backend/config"
	"github.com/ikkim/dongnetalk-backend/internal/app/model"
	"github.com/ikkim/dongnetalk-backend/internal/app/repository"
	"github.com/ikkim/dongnetalk-backend/internal/app/service"
	"github.com/ikkim/dongnetalk-backend/internal/db"
	"github.com/ikkim/dongnetalk-backend/internal/middleware"
	"github.com/ikkim/dongnetalk-backend/pkg/redis"
	"github.com/ikkim/dongnetalk-backend/pkg/util"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type messageControllerFixture struct {
	router    *gin.Engine
	sender    *model.User
	recipient *model.User
}

func setupMessageControllerTest(t *testing.T) messageControllerFixture {
	gin.SetMode(gin.TestMode)

	testDB, err := db.SetupTestDB(t)
	require.NoError(t, err)

	mr := miniredis.RunT(t)
	require.NoError(t, redis.Init(&config.RedisConfig{
		Host: mr.Host(),
		Port: mr.Port(),
	}))
	t.Cleanup(func() { redis.Close() })

	userRepo := repository.NewUserRepository(testDB)
	messageRepo := repository.NewMessageRepository(testDB)
	messageService := service.NewMessageService(messageRepo, userRepo, nil)

	ctrl := NewMessageController(messageService, nil)
	authMiddleware := middleware.NewAuthMiddleware("test-secret")

	router := gin.New()
	messages := router.Group("/messages")
	messages.Use(authMiddleware.Authenticate())
	{
		messages.POST("", ctrl.Send)
		messages.GET("", ctrl.Inbox)
		messages.GET("/sent", ctrl.Sent)
		messages.GET("/unread-count", ctrl.UnreadCount)
		messages.PUT("/:id/read", ctrl.MarkRead)
		messages.DELETE("/:id", ctrl.Delete)
	}

	sender := &model.User{
		Email:          "sender@example.com",
		PasswordHash:   "hash",
		Name:           "Sender",
		EmailConfirmed: true,
		Role:           model.RoleUser,
	}
	require.NoError(t, userRepo.Create(sender))

	recipient := &model.User{
		Email:          "recipient@example.com",
		PasswordHash:   "hash",
		Name:           "Recipient",
		EmailConfirmed: true,
		Role:           model.RoleUser,
	}
	require.NoError(t, userRepo.Create(recipient))

	return messageControllerFixture{
		router:    router,
		sender:    sender,
		recipient: recipient,
	}
}

func sessionCookieFor(t *testing.T, user *model.User) *http.Cookie {
	t.Helper()

	token, err := util.GenerateSessionToken(
		user.ID,
		user.Email,
		string(user.Role),
		fmt.Sprintf("sid-%d", user.ID),
		"test-secret",
		time.Hour,
	)
	require.NoError(t, err)

	return &http.Cookie{Name: middleware.SessionCookieName, Value: token}
}

func doRequest(router *gin.Engine, method, path string, body interface{}, cookie *http.Cookie) *httptest.ResponseRecorder {
	var buf bytes.Buffer
	if body != nil {
		json.NewEncoder(&buf).Encode(body)
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	if cookie != nil {
		req.AddCookie(cookie)
	}
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	return w
}

func TestMessageController_Send(t *testing.T) {
	f := setupMessageControllerTest(t)
	senderCookie := sessionCookieFor(t, f.sender)

	// 인증 없이는 거부
	w := doRequest(f.router, "POST", "/messages", SendMessageRequest{
		RecipientID: f.recipient.ID,
		Content:     "hello",
	}, nil)
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	// 정상 전송
	w = doRequest(f.router, "POST", "/messages", SendMessageRequest{
		RecipientID: f.recipient.ID,
		Content:     "주말에 모임 있어요",
	}, senderCookie)
	assert.Equal(t, http.StatusCreated, w.Code)

	// 자기 자신에게는 전송 불가
	w = doRequest(f.router, "POST", "/messages", SendMessageRequest{
		RecipientID: f.sender.ID,
		Content:     "메모",
	}, senderCookie)
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Contains(t, w.Body.String(), "MESSAGE_SELF_SEND")

	// 존재하지 않는 수신자
	w = doRequest(f.router, "POST", "/messages", SendMessageRequest{
		RecipientID: 9999,
		Content:     "누구세요",
	}, senderCookie)
	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.Contains(t, w.Body.String(), "RECIPIENT_NOT_FOUND")
}

func TestMessageController_InboxFlow(t *testing.T) {
	f := setupMessageControllerTest(t)
	senderCookie := sessionCookieFor(t, f.sender)
	recipientCookie := sessionCookieFor(t, f.recipient)

	w := doRequest(f.router, "POST", "/messages", SendMessageRequest{
		RecipientID: f.recipient.ID,
		Content:     "first",
	}, senderCookie)
	require.Equal(t, http.StatusCreated, w.Code)

	// 수신자의 받은 쪽지함에 보인다
	w = doRequest(f.router, "GET", "/messages", nil, recipientCookie)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "first")

	// 발신자의 보낸 쪽지함에도 보인다
	w = doRequest(f.router, "GET", "/messages/sent", nil, senderCookie)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "first")

	// 읽지 않은 쪽지 1건
	w = doRequest(f.router, "GET", "/messages/unread-count", nil, recipientCookie)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"unread_count":1`)

	// 메시지 ID를 받은 쪽지함 응답에서 꺼낸다
	var listResp struct {
		Messages []model.Message `json:"messages"`
	}
	w = doRequest(f.router, "GET", "/messages", nil, recipientCookie)
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &listResp))
	require.Len(t, listResp.Messages, 1)
	messageID := listResp.Messages[0].ID

	// 발신자는 읽음 처리 불가
	w = doRequest(f.router, "PUT", fmt.Sprintf("/messages/%d/read", messageID), nil, senderCookie)
	assert.Equal(t, http.StatusForbidden, w.Code)

	// 수신자가 읽음 처리
	w = doRequest(f.router, "PUT", fmt.Sprintf("/messages/%d/read", messageID), nil, recipientCookie)
	assert.Equal(t, http.StatusOK, w.Code)

	w = doRequest(f.router, "GET", "/messages/unread-count", nil, recipientCookie)
	assert.Contains(t, w.Body.String(), `"unread_count":0`)

	// 수신자가 쪽지 삭제
	w = doRequest(f.router, "DELETE", fmt.Sprintf("/messages/%d", messageID), nil, recipientCookie)
	assert.Equal(t, http.StatusOK, w.Code)

	w = doRequest(f.router, "DELETE", fmt.Sprintf("/messages/%d", messageID), nil, recipientCookie)
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestMessageController_InvalidID(t *testing.T) {
	f := setupMessageControllerTest(t)
	cookie := sessionCookieFor(t, f.sender)

	w := doRequest(f.router, "PUT", "/messages/not-a-number/read", nil, cookie)
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Contains(t, w.Body.String(), "VALIDATION_INVALID_ID")
}
