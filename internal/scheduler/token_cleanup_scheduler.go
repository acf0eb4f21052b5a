package scheduler

import (
	"github.com/ikkim/dongnetalk-backend/internal/app/repository"
	"github.com/ikkim/dongnetalk-backend/pkg/logger"
	"github.com/robfig/cron/v3"
)

// TokenCleanupScheduler 만료된 메일 토큰 정리 스케줄러
// 만료된 토큰은 조회 시점에도 거부되므로 정리는 저장 공간 관리 목적이다
type TokenCleanupScheduler struct {
	cron      *cron.Cron
	tokenRepo repository.MailTokenRepository
}

// NewTokenCleanupScheduler 토큰 정리 스케줄러 생성
func NewTokenCleanupScheduler(tokenRepo repository.MailTokenRepository) *TokenCleanupScheduler {
	return &TokenCleanupScheduler{
		cron:      cron.New(),
		tokenRepo: tokenRepo,
	}
}

// Start 스케줄러 시작
func (s *TokenCleanupScheduler) Start() error {
	// 매일 새벽 4시에 만료된 토큰 삭제 (KST 기준)
	// cron 표현식: "0 4 * * *" = 매일 4시 0분
	_, err := s.cron.AddFunc("0 4 * * *", func() {
		logger.Info("Starting scheduled mail token cleanup", nil)

		if err := s.tokenRepo.DeleteExpired(); err != nil {
			logger.Error("Failed to delete expired mail tokens", err)
			return
		}

		logger.Info("Expired mail tokens cleaned up", nil)
	})

	if err != nil {
		logger.Error("Failed to add cron job for token cleanup", err)
		return err
	}

	s.cron.Start()
	logger.Info("Token cleanup scheduler started successfully (daily at 4:00 AM)", nil)

	return nil
}

// Stop 스케줄러 중지
func (s *TokenCleanupScheduler) Stop() {
	logger.Info("Stopping token cleanup scheduler...", nil)
	s.cron.Stop()
	logger.Info("Token cleanup scheduler stopped", nil)
}
