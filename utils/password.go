package utils

import (
	"errors"
	"strings"
	"unicode"

	"golang.org/x/crypto/bcrypt"
)

const minPasswordLength = 8

// ValidatePassword applies the minimal password rules: long enough, not
// purely numeric and not equal to the username.
func ValidatePassword(password, username string) error {
	if len([]rune(password)) < minPasswordLength {
		return errors.New("password must contain at least 8 characters")
	}
	numeric := true
	for _, r := range password {
		if !unicode.IsDigit(r) {
			numeric = false
			break
		}
	}
	if numeric {
		return errors.New("password cannot be entirely numeric")
	}
	if username != "" && strings.EqualFold(password, username) {
		return errors.New("password is too similar to the username")
	}
	return nil
}

// HashPassword returns the bcrypt hash of the password.
func HashPassword(password string) (string, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return "", err
	}
	return string(hash), nil
}

// CheckPassword compares a bcrypt hash with its possible plaintext equivalent.
func CheckPassword(hash, password string) bool {
	return bcrypt.CompareHashAndPassword([]byte(hash), []byte(password)) == nil
}
