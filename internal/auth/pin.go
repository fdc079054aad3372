package auth

import (
	"errors"
	"fmt"

	"golang.org/x/crypto/bcrypt"
)

// PINLength is the number of digits in a profile PIN
const PINLength = 4

// ErrInvalidPIN is returned when a PIN is not exactly four digits
var ErrInvalidPIN = errors.New("PIN must be 4 digits")

// ValidPIN reports whether pin is exactly four ASCII digits
func ValidPIN(pin string) bool {
	if len(pin) != PINLength {
		return false
	}
	for _, c := range pin {
		if c < '0' || c > '9' {
			return false
		}
	}
	return true
}

// HashPIN validates and hashes a PIN for storage
func HashPIN(pin string) (string, error) {
	if !ValidPIN(pin) {
		return "", ErrInvalidPIN
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(pin), bcrypt.DefaultCost)
	if err != nil {
		return "", fmt.Errorf("hashing PIN: %w", err)
	}
	return string(hash), nil
}

// CheckPIN compares a PIN against a stored hash. An empty hash means the
// profile is not protected and any PIN is accepted.
func CheckPIN(hash, pin string) bool {
	if hash == "" {
		return true
	}
	return bcrypt.CompareHashAndPassword([]byte(hash), []byte(pin)) == nil
}

// IsHashed reports whether a stored value already looks like a bcrypt hash
func IsHashed(value string) bool {
	_, err := bcrypt.Cost([]byte(value))
	return err == nil
}
