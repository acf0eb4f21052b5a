package model

import (
	"time"

	"gorm.io/gorm"
)

// Message 1:1 쪽지 모델
type Message struct {
	ID          uint `gorm:"primarykey" json:"id"`
	SenderID    uint `gorm:"not null;index:idx_sender_created,priority:1;index" json:"sender_id"`    // 보낸 사람
	RecipientID uint `gorm:"not null;index:idx_recipient_read,priority:1;index" json:"recipient_id"` // 받는 사람
	Sender      User `gorm:"constraint:OnUpdate:CASCADE,OnDelete:RESTRICT" json:"sender,omitempty"`
	Recipient   User `gorm:"foreignKey:RecipientID;constraint:OnUpdate:CASCADE,OnDelete:RESTRICT" json:"recipient,omitempty"`

	Content string `gorm:"type:text;not null" json:"content"` // 메시지 내용

	// 읽음 처리
	IsRead bool       `gorm:"default:false;index:idx_recipient_read,priority:2" json:"is_read"`
	ReadAt *time.Time `json:"read_at,omitempty"`

	CreatedAt time.Time      `gorm:"index:idx_sender_created,priority:2" json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"-"`
}

func (Message) TableName() string {
	return "messages"
}
