package repository

import (
	"time"

	"github.com/ikkim/dongnetalk-backend/internal/app/model"
	"github.com/ikkim/dongnetalk-backend/pkg/logger"
	"gorm.io/gorm"
)

type MailTokenRepository interface {
	Create(token *model.MailToken) error
	FindByToken(token string) (*model.MailToken, error)
	Consume(token string) (bool, error)
	DeleteExpired() error
}

type mailTokenRepository struct {
	db *gorm.DB
}

func NewMailTokenRepository(db *gorm.DB) MailTokenRepository {
	return &mailTokenRepository{db: db}
}

func (r *mailTokenRepository) Create(token *model.MailToken) error {
	logger.Debug("Creating mail token in database", map[string]interface{}{
		"email":   token.Email,
		"purpose": token.Purpose,
	})

	if err := r.db.Create(token).Error; err != nil {
		logger.Error("Failed to create mail token in database", err, map[string]interface{}{
			"email":   token.Email,
			"purpose": token.Purpose,
		})
		return err
	}

	logger.Debug("Mail token created in database", map[string]interface{}{
		"id":      token.ID,
		"email":   token.Email,
		"purpose": token.Purpose,
	})
	return nil
}

// FindByToken returns the stored token regardless of its expiry or consumed
// state. Callers must check those fields themselves so that nonexistent,
// expired and consumed tokens can be handled uniformly.
func (r *mailTokenRepository) FindByToken(token string) (*model.MailToken, error) {
	logger.Debug("Finding mail token in database", nil)

	var mailToken model.MailToken
	if err := r.db.Where("token = ?", token).First(&mailToken).Error; err != nil {
		logger.Error("Failed to find mail token in database", err, nil)
		return nil, err
	}

	return &mailToken, nil
}

// Consume marks a token consumed with a conditional atomic update and reports
// whether this call won the transition. Consuming a nonexistent or already
// consumed token is a no-op, never an error. The returned bool gates the
// account mutation that follows, so a token can authorize at most one change.
func (r *mailTokenRepository) Consume(token string) (bool, error) {
	logger.Debug("Consuming mail token in database", nil)

	result := r.db.Model(&model.MailToken{}).
		Where("token = ? AND consumed = ?", token, false).
		Update("consumed", true)
	if result.Error != nil {
		logger.Error("Failed to consume mail token in database", result.Error, nil)
		return false, result.Error
	}

	won := result.RowsAffected == 1
	logger.Debug("Mail token consume attempt finished", map[string]interface{}{
		"won": won,
	})
	return won, nil
}

func (r *mailTokenRepository) DeleteExpired() error {
	logger.Debug("Deleting expired mail tokens from database")

	result := r.db.Where("expires_at < ?", time.Now()).Delete(&model.MailToken{})
	if result.Error != nil {
		logger.Error("Failed to delete expired mail tokens from database", result.Error, nil)
		return result.Error
	}

	logger.Debug("Expired mail tokens deleted from database", map[string]interface{}{
		"count": result.RowsAffected,
	})
	return nil
}
