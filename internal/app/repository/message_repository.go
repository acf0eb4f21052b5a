package repository

import (
	"time"

	"github.com/ikkim/dongnetalk-backend/internal/app/model"
	"github.com/ikkim/dongnetalk-backend/pkg/logger"
	"gorm.io/gorm"
)

type MessageRepository interface {
	Create(message *model.Message) error
	FindByID(id uint) (*model.Message, error)
	ListInbox(recipientID uint, limit, offset int) ([]model.Message, int64, error)
	ListSent(senderID uint, limit, offset int) ([]model.Message, int64, error)
	MarkAsRead(id uint) error
	CountUnread(recipientID uint) (int64, error)
	Delete(id uint) error
}

type messageRepository struct {
	db *gorm.DB
}

func NewMessageRepository(db *gorm.DB) MessageRepository {
	return &messageRepository{db: db}
}

func (r *messageRepository) Create(message *model.Message) error {
	logger.Debug("Creating message in database", map[string]interface{}{
		"sender_id":    message.SenderID,
		"recipient_id": message.RecipientID,
	})

	if err := r.db.Create(message).Error; err != nil {
		logger.Error("Failed to create message in database", err, map[string]interface{}{
			"sender_id":    message.SenderID,
			"recipient_id": message.RecipientID,
		})
		return err
	}

	return nil
}

func (r *messageRepository) FindByID(id uint) (*model.Message, error) {
	logger.Debug("Finding message by ID in database", map[string]interface{}{
		"message_id": id,
	})

	var message model.Message
	if err := r.db.Preload("Sender").Preload("Recipient").
		First(&message, id).Error; err != nil {
		logger.Error("Failed to find message by ID in database", err, map[string]interface{}{
			"message_id": id,
		})
		return nil, err
	}

	return &message, nil
}

func (r *messageRepository) ListInbox(recipientID uint, limit, offset int) ([]model.Message, int64, error) {
	logger.Debug("Listing inbox messages from database", map[string]interface{}{
		"recipient_id": recipientID,
	})

	var total int64
	if err := r.db.Model(&model.Message{}).
		Where("recipient_id = ?", recipientID).
		Count(&total).Error; err != nil {
		logger.Error("Failed to count inbox messages in database", err, map[string]interface{}{
			"recipient_id": recipientID,
		})
		return nil, 0, err
	}

	var messages []model.Message
	if err := r.db.Preload("Sender").
		Where("recipient_id = ?", recipientID).
		Order("created_at DESC").
		Limit(limit).Offset(offset).
		Find(&messages).Error; err != nil {
		logger.Error("Failed to list inbox messages from database", err, map[string]interface{}{
			"recipient_id": recipientID,
		})
		return nil, 0, err
	}

	return messages, total, nil
}

func (r *messageRepository) ListSent(senderID uint, limit, offset int) ([]model.Message, int64, error) {
	logger.Debug("Listing sent messages from database", map[string]interface{}{
		"sender_id": senderID,
	})

	var total int64
	if err := r.db.Model(&model.Message{}).
		Where("sender_id = ?", senderID).
		Count(&total).Error; err != nil {
		logger.Error("Failed to count sent messages in database", err, map[string]interface{}{
			"sender_id": senderID,
		})
		return nil, 0, err
	}

	var messages []model.Message
	if err := r.db.Preload("Recipient").
		Where("sender_id = ?", senderID).
		Order("created_at DESC").
		Limit(limit).Offset(offset).
		Find(&messages).Error; err != nil {
		logger.Error("Failed to list sent messages from database", err, map[string]interface{}{
			"sender_id": senderID,
		})
		return nil, 0, err
	}

	return messages, total, nil
}

func (r *messageRepository) MarkAsRead(id uint) error {
	logger.Debug("Marking message as read in database", map[string]interface{}{
		"message_id": id,
	})

	now := time.Now()
	if err := r.db.Model(&model.Message{}).Where("id = ? AND is_read = ?", id, false).
		Updates(map[string]interface{}{
			"is_read": true,
			"read_at": now,
		}).Error; err != nil {
		logger.Error("Failed to mark message as read in database", err, map[string]interface{}{
			"message_id": id,
		})
		return err
	}

	return nil
}

func (r *messageRepository) CountUnread(recipientID uint) (int64, error) {
	var count int64
	if err := r.db.Model(&model.Message{}).
		Where("recipient_id = ? AND is_read = ?", recipientID, false).
		Count(&count).Error; err != nil {
		logger.Error("Failed to count unread messages in database", err, map[string]interface{}{
			"recipient_id": recipientID,
		})
		return 0, err
	}
	return count, nil
}

func (r *messageRepository) Delete(id uint) error {
	logger.Debug("Deleting message from database", map[string]interface{}{
		"message_id": id,
	})

	if err := r.db.Delete(&model.Message{}, id).Error; err != nil {
		logger.Error("Failed to delete message from database", err, map[string]interface{}{
			"message_id": id,
		})
		return err
	}

	return nil
}
