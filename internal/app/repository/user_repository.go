package repository

import (
	"github.com/ikkim/dongnetalk-backend/internal/app/model"
	"github.com/ikkim/dongnetalk-backend/pkg/logger"
	"gorm.io/gorm"
)

type UserRepository interface {
	Create(user *model.User) error
	FindByID(id uint) (*model.User, error)
	FindByEmail(email string) (*model.User, error)
	FindConfirmedByEmail(email string) (*model.User, error)
	Update(user *model.User) error
	ConfirmEmail(email string) error
	UpdateCredentials(email, passwordHash string) error
	List(limit, offset int) ([]model.User, int64, error)
	Delete(id uint) error
}

type userRepository struct {
	db *gorm.DB
}

func NewUserRepository(db *gorm.DB) UserRepository {
	return &userRepository{db: db}
}

func (r *userRepository) Create(user *model.User) error {
	logger.Debug("Creating user in database", map[string]interface{}{
		"email": user.Email,
	})

	if err := r.db.Create(user).Error; err != nil {
		logger.Error("Failed to create user in database", err, map[string]interface{}{
			"email": user.Email,
		})
		return err
	}

	logger.Debug("User created in database", map[string]interface{}{
		"user_id": user.ID,
		"email":   user.Email,
	})
	return nil
}

func (r *userRepository) FindByID(id uint) (*model.User, error) {
	logger.Debug("Finding user by ID in database", map[string]interface{}{
		"user_id": id,
	})

	var user model.User
	err := r.db.First(&user, id).Error
	if err != nil {
		logger.Error("Failed to find user by ID in database", err, map[string]interface{}{
			"user_id": id,
		})
		return nil, err
	}

	return &user, nil
}

func (r *userRepository) FindByEmail(email string) (*model.User, error) {
	logger.Debug("Finding user by email in database", map[string]interface{}{
		"email": email,
	})

	var user model.User
	err := r.db.Where("email = ?", email).First(&user).Error
	if err != nil {
		logger.Error("Failed to find user by email in database", err, map[string]interface{}{
			"email": email,
		})
		return nil, err
	}

	return &user, nil
}

// FindConfirmedByEmail only matches accounts that completed email verification.
// Unconfirmed accounts are invisible to the login flow.
func (r *userRepository) FindConfirmedByEmail(email string) (*model.User, error) {
	logger.Debug("Finding confirmed user by email in database", map[string]interface{}{
		"email": email,
	})

	var user model.User
	err := r.db.Where("email = ? AND email_confirmed = ?", email, true).First(&user).Error
	if err != nil {
		logger.Error("Failed to find confirmed user by email in database", err, map[string]interface{}{
			"email": email,
		})
		return nil, err
	}

	return &user, nil
}

func (r *userRepository) Update(user *model.User) error {
	logger.Debug("Updating user in database", map[string]interface{}{
		"user_id": user.ID,
		"email":   user.Email,
	})

	if err := r.db.Save(user).Error; err != nil {
		logger.Error("Failed to update user in database", err, map[string]interface{}{
			"user_id": user.ID,
			"email":   user.Email,
		})
		return err
	}

	return nil
}

// ConfirmEmail flips email_confirmed for the account matching the email
func (r *userRepository) ConfirmEmail(email string) error {
	logger.Debug("Confirming user email in database", map[string]interface{}{
		"email": email,
	})

	if err := r.db.Model(&model.User{}).Where("email = ?", email).
		Update("email_confirmed", true).Error; err != nil {
		logger.Error("Failed to confirm user email in database", err, map[string]interface{}{
			"email": email,
		})
		return err
	}

	return nil
}

// UpdateCredentials replaces the password hash for the account matching the email
func (r *userRepository) UpdateCredentials(email, passwordHash string) error {
	logger.Debug("Updating user credentials in database", map[string]interface{}{
		"email": email,
	})

	if err := r.db.Model(&model.User{}).Where("email = ?", email).
		Updates(map[string]interface{}{
			"password_hash":   passwordHash,
			"email_confirmed": true,
		}).Error; err != nil {
		logger.Error("Failed to update user credentials in database", err, map[string]interface{}{
			"email": email,
		})
		return err
	}

	return nil
}

func (r *userRepository) List(limit, offset int) ([]model.User, int64, error) {
	logger.Debug("Listing users from database", map[string]interface{}{
		"limit":  limit,
		"offset": offset,
	})

	var total int64
	if err := r.db.Model(&model.User{}).Count(&total).Error; err != nil {
		logger.Error("Failed to count users in database", err, nil)
		return nil, 0, err
	}

	var users []model.User
	if err := r.db.Order("created_at DESC").Limit(limit).Offset(offset).
		Find(&users).Error; err != nil {
		logger.Error("Failed to list users from database", err, nil)
		return nil, 0, err
	}

	return users, total, nil
}

func (r *userRepository) Delete(id uint) error {
	logger.Debug("Deleting user from database", map[string]interface{}{
		"user_id": id,
	})

	if err := r.db.Delete(&model.User{}, id).Error; err != nil {
		logger.Error("Failed to delete user from database", err, map[string]interface{}{
			"user_id": id,
		})
		return err
	}

	return nil
}
