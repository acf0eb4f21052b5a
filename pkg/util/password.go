package util

import (
	"errors"

	"golang.org/x/crypto/bcrypt"
)

const bcryptCost = 12

// ErrEmptyPassword is returned when an empty password is given to HashPassword
var ErrEmptyPassword = errors.New("password must not be empty")

// HashPassword hashes a plain text password with a random salt.
// Each call produces a different digest for the same input.
func HashPassword(password string) (string, error) {
	if password == "" {
		return "", ErrEmptyPassword
	}
	bytes, err := bcrypt.GenerateFromPassword([]byte(password), bcryptCost)
	if err != nil {
		return "", err
	}
	return string(bytes), nil
}

// VerifyPassword checks if a plain text password matches a hashed password
func VerifyPassword(hashedPassword, password string) bool {
	err := bcrypt.CompareHashAndPassword([]byte(hashedPassword), []byte(password))
	return err == nil
}
