package auth

import (
	"errors"
	"strings"
	"unicode"

	"golang.org/x/crypto/bcrypt"
)

var (
	ErrWeakPassword = errors.New("password must be at least 8 characters and include uppercase, lowercase, digit, and special character")
)

const (
	bcryptCost        = 12
	minPasswordLength = 8

	// The accepted special characters. Anything outside letters, digits
	// and this set makes the password invalid.
	specialChars = "@#$%^&*!"
)

// ValidatePassword checks the password strength rule: length >= 8 with at
// least one lowercase letter, one uppercase letter, one digit and one
// special character.
func ValidatePassword(password string) error {
	if len(password) < minPasswordLength {
		return ErrWeakPassword
	}

	var hasLower, hasUpper, hasDigit, hasSpecial bool
	for _, r := range password {
		switch {
		case unicode.IsLower(r) && r < 128:
			hasLower = true
		case unicode.IsUpper(r) && r < 128:
			hasUpper = true
		case r >= '0' && r <= '9':
			hasDigit = true
		case strings.ContainsRune(specialChars, r):
			hasSpecial = true
		default:
			return ErrWeakPassword
		}
	}

	if !hasLower || !hasUpper || !hasDigit || !hasSpecial {
		return ErrWeakPassword
	}
	return nil
}

// HashPassword validates the strength rule and hashes the password using
// bcrypt.
func HashPassword(password string) (string, error) {
	if err := ValidatePassword(password); err != nil {
		return "", err
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcryptCost)
	if err != nil {
		return "", err
	}

	return string(hash), nil
}

// CheckPassword compares a password with its hash
func CheckPassword(password, hash string) bool {
	err := bcrypt.CompareHashAndPassword([]byte(hash), []byte(password))
	return err == nil
}
