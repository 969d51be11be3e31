package pkg

import (
	"crypto/rand"
	"encoding/base64"
	"fmt"
	"math/big"
)

const (
	sessionIDBytes = 32
	gameIDSpace    = 100_000_000
)

// GenerateNewSessionID - generates an opaque player identifier.
func GenerateNewSessionID() (string, error) {
	b := make([]byte, sessionIDBytes)
	if _, err := rand.Read(b); err != nil {
		return "", fmt.Errorf("failed to read random bytes: %w", err)
	}

	return base64.RawURLEncoding.EncodeToString(b), nil
}

// GenerateGameID - generates an eight digit code players can share to join.
func GenerateGameID() (string, error) {
	n, err := rand.Int(rand.Reader, big.NewInt(gameIDSpace))
	if err != nil {
		return "", fmt.Errorf("failed to generate game id: %w", err)
	}

	return fmt.Sprintf("%08d", n.Int64()), nil
}
