package hash

import (
	"fmt"

	"golang.org/x/crypto/bcrypt"
)

const (
	bcryptCost     = 10
	minTokenLength = 12
	// bcrypt ignores everything past 72 bytes.
	maxTokenLength = 72
)

// Hash returns a bcrypt hash suitable for SYNC_TOKEN_HASH.
func Hash(token string) (string, error) {
	if len(token) < minTokenLength {
		return "", fmt.Errorf("token must be at least %d characters", minTokenLength)
	}
	if len(token) > maxTokenLength {
		return "", fmt.Errorf("token must be at most %d bytes", maxTokenLength)
	}

	hashedBytes, err := bcrypt.GenerateFromPassword([]byte(token), bcryptCost)
	if err != nil {
		return "", fmt.Errorf("failed to hash token: %w", err)
	}

	return string(hashedBytes), nil
}

func Compare(hashedToken, token string) error {
	return bcrypt.CompareHashAndPassword([]byte(hashedToken), []byte(token))
}
