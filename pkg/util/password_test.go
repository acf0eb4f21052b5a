package util

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestHashPassword(t *testing.T) {
	tests := []struct {
		name     string
		password string
		wantErr  error
	}{
		{
			name:     "Valid password",
			password: "password123",
			wantErr:  nil,
		},
		{
			name:     "Empty password rejected",
			password: "",
			wantErr:  ErrEmptyPassword,
		},
		{
			name:     "Long password",
			password: "this-is-a-very-long-password-with-special-chars!@#$%^&*()",
			wantErr:  nil,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			hash, err := HashPassword(tt.password)

			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
				assert.Empty(t, hash)
			} else {
				assert.NoError(t, err)
				assert.NotEmpty(t, hash)
				assert.NotEqual(t, tt.password, hash)

				// Verify that the hash starts with bcrypt prefix
				assert.Contains(t, hash, "$2a$")
			}
		})
	}
}

func TestHashPassword_DifferentSalts(t *testing.T) {
	hash1, err := HashPassword("samePassword")
	assert.NoError(t, err)

	hash2, err := HashPassword("samePassword")
	assert.NoError(t, err)

	// Same input hashes to different digests
	assert.NotEqual(t, hash1, hash2)
}

func TestVerifyPassword(t *testing.T) {
	password := "mySecurePassword123"
	hash, err := HashPassword(password)
	assert.NoError(t, err)

	tests := []struct {
		name           string
		hashedPassword string
		password       string
		want           bool
	}{
		{
			name:           "Correct password",
			hashedPassword: hash,
			password:       password,
			want:           true,
		},
		{
			name:           "Wrong password",
			hashedPassword: hash,
			password:       "wrongPassword",
			want:           false,
		},
		{
			name:           "Empty password",
			hashedPassword: hash,
			password:       "",
			want:           false,
		},
		{
			name:           "Invalid hash",
			hashedPassword: "not-a-bcrypt-hash",
			password:       password,
			want:           false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := VerifyPassword(tt.hashedPassword, tt.password)
			assert.Equal(t, tt.want, got)
		})
	}
}
