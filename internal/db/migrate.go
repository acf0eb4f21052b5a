package db

import (
	"os"

	"github.com/ikkim/dongnetalk-backend/internal/app/model"
	"github.com/ikkim/dongnetalk-backend/pkg/logger"
	"github.com/ikkim/dongnetalk-backend/pkg/util"
)

// Migrate runs database migrations
func Migrate() error {
	logger.Info("Running database migrations...")

	models := []interface{}{
		&model.User{},
		&model.MailToken{},
		&model.Message{},
	}

	if err := DB.AutoMigrate(models...); err != nil {
		logger.Error("Failed to run migrations", err)
		return err
	}

	if err := seedAdminAccount(); err != nil {
		logger.Error("Failed to seed admin account during migration", err)
		return err
	}

	logger.Info("Database migrations completed successfully", map[string]interface{}{
		"models_count": len(models),
	})
	return nil
}

// Seed adds initial data to the database (optional)
func Seed() error {
	return seedAdminAccount()
}

// seedAdminAccount 관리자 계정 생성 (ADMIN_EMAIL/ADMIN_PASSWORD 설정 시)
func seedAdminAccount() error {
	email := os.Getenv("ADMIN_EMAIL")
	password := os.Getenv("ADMIN_PASSWORD")
	if email == "" || password == "" {
		logger.Debug("Admin credentials not configured, skipping admin seed")
		return nil
	}

	var count int64
	if err := DB.Model(&model.User{}).Where("email = ?", email).Count(&count).Error; err != nil {
		return err
	}
	if count > 0 {
		logger.Info("Admin account already exists, skipping...", map[string]interface{}{
			"email": email,
		})
		return nil
	}

	hashedPassword, err := util.HashPassword(password)
	if err != nil {
		return err
	}

	admin := &model.User{
		Email:          email,
		PasswordHash:   hashedPassword,
		Name:           "관리자",
		EmailConfirmed: true,
		Role:           model.RoleAdmin,
	}

	if err := DB.Create(admin).Error; err != nil {
		logger.Error("Failed to create admin account", err, map[string]interface{}{
			"email": email,
		})
		return err
	}

	logger.Info("Admin account seeded successfully", map[string]interface{}{
		"email": email,
	})
	return nil
}
