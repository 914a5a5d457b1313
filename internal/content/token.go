package content

import (
	"fmt"

	gonanoid "github.com/matoous/go-nanoid/v2"
)

const (
	TokenLength   = 10
	TokenAlphabet = "_-0123456789abcdefghijklmnopqrstuvwxyzABCDEFGHIJKLMNOPQRSTUVWXYZ"
)

// TokenFunc returns a random token.
type TokenFunc func() (string, error)

// NewToken returns TokenLength random characters from TokenAlphabet.
func NewToken() (string, error) {
	id, err := gonanoid.Generate(TokenAlphabet, TokenLength)
	if err != nil {
		return "", fmt.Errorf("failed to generate token: %w", err)
	}
	return id, nil
}
