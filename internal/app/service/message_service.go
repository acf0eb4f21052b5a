package service

import (
	"encoding/json"
	"errors"

	"github.com/ikkim/dongnetalk-backend/internal/app/model"
	"github.com/ikkim/dongnetalk-backend/internal/app/repository"
	"github.com/ikkim/dongnetalk-backend/internal/websocket"
	"github.com/ikkim/dongnetalk-backend/pkg/logger"
	"gorm.io/gorm"
)

var (
	ErrMessageNotFound     = errors.New("message not found")
	ErrRecipientNotFound   = errors.New("recipient not found")
	ErrSelfMessage         = errors.New("cannot send a message to yourself")
	ErrMessageAccessDenied = errors.New("no access to this message")
)

type MessageService interface {
	SendMessage(senderID, recipientID uint, content string) (*model.Message, error)
	GetInbox(userID uint, page, pageSize int) ([]model.Message, int64, error)
	GetSent(userID uint, page, pageSize int) ([]model.Message, int64, error)
	GetUnreadCount(userID uint) (int64, error)
	MarkAsRead(messageID, userID uint) error
	DeleteMessage(messageID, userID uint, isAdmin bool) error
}

type messageService struct {
	messageRepo repository.MessageRepository
	userRepo    repository.UserRepository
	hub         *websocket.Hub
}

func NewMessageService(
	messageRepo repository.MessageRepository,
	userRepo repository.UserRepository,
	hub *websocket.Hub,
) MessageService {
	return &messageService{
		messageRepo: messageRepo,
		userRepo:    userRepo,
		hub:         hub,
	}
}

// SendMessage stores a direct message and pushes it to the recipient's
// connected websocket clients. The push is best-effort.
func (s *messageService) SendMessage(senderID, recipientID uint, content string) (*model.Message, error) {
	if senderID == recipientID {
		return nil, ErrSelfMessage
	}

	if _, err := s.userRepo.FindByID(recipientID); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			logger.Warn("Message rejected: recipient does not exist", map[string]interface{}{
				"sender_id":    senderID,
				"recipient_id": recipientID,
			})
			return nil, ErrRecipientNotFound
		}
		return nil, err
	}

	message := &model.Message{
		SenderID:    senderID,
		RecipientID: recipientID,
		Content:     content,
	}

	if err := s.messageRepo.Create(message); err != nil {
		return nil, err
	}

	// Reload with sender preloaded for the push payload
	created, err := s.messageRepo.FindByID(message.ID)
	if err != nil {
		return nil, err
	}

	s.pushToRecipient(created)

	logger.Info("Message sent", map[string]interface{}{
		"message_id":   created.ID,
		"sender_id":    senderID,
		"recipient_id": recipientID,
	})

	return created, nil
}

func (s *messageService) GetInbox(userID uint, page, pageSize int) ([]model.Message, int64, error) {
	limit, offset := paginate(page, pageSize)
	return s.messageRepo.ListInbox(userID, limit, offset)
}

func (s *messageService) GetSent(userID uint, page, pageSize int) ([]model.Message, int64, error) {
	limit, offset := paginate(page, pageSize)
	return s.messageRepo.ListSent(userID, limit, offset)
}

func (s *messageService) GetUnreadCount(userID uint) (int64, error) {
	return s.messageRepo.CountUnread(userID)
}

// MarkAsRead marks a message read. Only the recipient may do this.
func (s *messageService) MarkAsRead(messageID, userID uint) error {
	message, err := s.messageRepo.FindByID(messageID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrMessageNotFound
		}
		return err
	}

	if message.RecipientID != userID {
		logger.Warn("Mark-as-read denied", map[string]interface{}{
			"message_id": messageID,
			"user_id":    userID,
		})
		return ErrMessageAccessDenied
	}

	return s.messageRepo.MarkAsRead(messageID)
}

// DeleteMessage removes a message. Sender, recipient and admins may delete.
func (s *messageService) DeleteMessage(messageID, userID uint, isAdmin bool) error {
	message, err := s.messageRepo.FindByID(messageID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrMessageNotFound
		}
		return err
	}

	if !isAdmin && message.SenderID != userID && message.RecipientID != userID {
		logger.Warn("Message deletion denied", map[string]interface{}{
			"message_id": messageID,
			"user_id":    userID,
		})
		return ErrMessageAccessDenied
	}

	if err := s.messageRepo.Delete(messageID); err != nil {
		return err
	}

	logger.Info("Message deleted", map[string]interface{}{
		"message_id": messageID,
		"user_id":    userID,
		"as_admin":   isAdmin,
	})
	return nil
}

func (s *messageService) pushToRecipient(message *model.Message) {
	if s.hub == nil {
		return
	}

	payload, err := json.Marshal(map[string]interface{}{
		"type":    "new_message",
		"message": message,
	})
	if err != nil {
		logger.Error("Failed to marshal message push payload", err, map[string]interface{}{
			"message_id": message.ID,
		})
		return
	}

	s.hub.SendToUser(message.RecipientID, payload)
}

func paginate(page, pageSize int) (limit, offset int) {
	if page < 1 {
		page = 1
	}
	if pageSize < 1 || pageSize > 100 {
		pageSize = 20
	}
	return pageSize, (page - 1) * pageSize
}
