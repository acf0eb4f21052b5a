package model

import (
	"time"
)

type MailTokenPurpose string // 메일 토큰 용도

const (
	PurposeSignUp        MailTokenPurpose = "sign_up"        // 가입 확인
	PurposePasswordReset MailTokenPurpose = "password_reset" // 비밀번호 재설정
)

// MailToken 이메일 링크로 전달되는 1회용 토큰
// 계정과 FK가 아니라 이메일 값으로 연결됨
type MailToken struct {
	ID        uint             `gorm:"primaryKey" json:"id"`                         // 토큰 ID
	Email     string           `gorm:"size:255;not null;index" json:"email"`         // 대상 이메일
	Token     string           `gorm:"size:255;not null;unique;index" json:"-"`      // 토큰 값 (노출 금지)
	Purpose   MailTokenPurpose `gorm:"type:varchar(20);not null" json:"purpose"`     // 용도
	ExpiresAt time.Time        `gorm:"not null" json:"expires_at"`                   // 만료 시각
	Consumed  bool             `gorm:"default:false" json:"consumed"`                // 사용 여부
	CreatedAt time.Time        `json:"created_at"`                                   // 생성 시각
}

func (MailToken) TableName() string {
	return "mail_tokens"
}

// IsExpired 만료 여부
func (t *MailToken) IsExpired() bool {
	return time.Now().After(t.ExpiresAt)
}

// IsValidFor 해당 용도로 사용 가능한지 여부
func (t *MailToken) IsValidFor(purpose MailTokenPurpose) bool {
	return t.Purpose == purpose && !t.Consumed && !t.IsExpired()
}
