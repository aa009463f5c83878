package uid

import (
	"crypto/rand"
	"encoding/hex"
	"fmt"
)

func randomHex(n int) (string, error) {
	bytes := make([]byte, n)
	if _, err := rand.Read(bytes); err != nil {
		return "", err
	}
	return hex.EncodeToString(bytes), nil
}

// GenerateGameID returns a random 128-bit hex game ID
func GenerateGameID() string {
	id, _ := randomHex(16)
	return id
}

// GenerateSessionID returns a random 256-bit hex login session ID
func GenerateSessionID() (string, error) {
	id, err := randomHex(32)
	if err != nil {
		return "", fmt.Errorf("failed to generate session ID: %w", err)
	}
	return id, nil
}
