package handler

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/saikiran76/dailyfix-core/internal/domain"
)

// Test boundaries
const (
	MaxUserIDLength = 255
)

type TestStruct struct {
	Platform  string `validate:"platform"`
	UserID    string `validate:"required,max=255,excludesall=\x00\n\r\t"`
	LoginType string `validate:"login_type"`
}

func TestValidator_PlatformValidation(t *testing.T) {
	InitValidator()
	v := GetValidator()

	tests := []struct {
		name     string
		platform string
		wantErr  bool
	}{
		{"valid whatsapp", domain.PlatformWhatsApp, false},
		{"valid telegram", "telegram", false},
		{"valid matrix", domain.PlatformMatrix, false},

		// Empty allowed (not required)
		{"empty platform allowed", "", false},

		// Case insensitive
		{"uppercase platform", "WHATSAPP", false},

		{"invalid platform", "invalidplatform", true},
		{"typo", "whatsap", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			input := TestStruct{
				Platform:  tt.platform,
				UserID:    "validuser",
				LoginType: domain.LoginTypeQR,
			}

			err := v.ValidateStruct(input)

			if tt.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestValidator_UserIDValidation(t *testing.T) {
	InitValidator()
	v := GetValidator()

	tests := []struct {
		name    string
		userID  string
		wantErr bool
	}{
		{"valid user id", "validuser", false},
		{"alphanumeric", "user123", false},
		{"with underscore", "user_name", false},

		// Boundary
		{"one char (just inside)", "a", false},
		{"exactly max length", strings.Repeat("a", MaxUserIDLength), false},
		{"over max length", strings.Repeat("a", MaxUserIDLength+1), true},

		{"empty user id", "", true},
		{"with newline", "user\nname", true},
		{"with tab", "user\tname", true},
		{"with null byte", "user\x00name", true},
		{"with carriage return", "user\rname", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			input := TestStruct{
				Platform:  domain.PlatformWhatsApp,
				UserID:    tt.userID,
				LoginType: domain.LoginTypeQR,
			}

			err := v.ValidateStruct(input)

			if tt.wantErr {
				require.Error(t, err)
			} else {
				require.NoError(t, err)
			}
		})
	}
}

func TestValidator_LoginTypeValidation(t *testing.T) {
	InitValidator()
	v := GetValidator()

	tests := []struct {
		name      string
		loginType string
		wantErr   bool
	}{
		{"qr", domain.LoginTypeQR, false},
		{"phone", domain.LoginTypePhone, false},
		{"empty allowed", "", false},
		{"uppercase", "QR", false},
		{"invalid", "password", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			input := TestStruct{
				Platform:  domain.PlatformWhatsApp,
				UserID:    "validuser",
				LoginType: tt.loginType,
			}

			err := v.ValidateStruct(input)

			if tt.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestValidator_MultipleFieldErrors(t *testing.T) {
	InitValidator()
	v := GetValidator()

	t.Run("all fields invalid", func(t *testing.T) {
		input := TestStruct{
			Platform:  "invalid",
			UserID:    "", // Required field
			LoginType: "password",
		}

		err := v.ValidateStruct(input)

		require.Error(t, err)
		// Should have errors for all three fields
		assert.Contains(t, err.Error(), "Platform")
		assert.Contains(t, err.Error(), "UserID")
		assert.Contains(t, err.Error(), "LoginType")
	})
}
