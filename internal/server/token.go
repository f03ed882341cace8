package server

import (
	"crypto/rand"
	"fmt"
)

const (
	tokenLength   = 32
	tokenAlphabet = "ABCDEFGHIJKLMNOPQRSTUVWXYZabcdefghijklmnopqrstuvwxyz0123456789"
)

// NewToken mints a 32-character alphanumeric bearer token.
// Байты из crypto/rand отображаются в алфавит через rejection sampling,
// чтобы распределение осталось равномерным.
func NewToken() (string, error) {
	out := make([]byte, 0, tokenLength)
	buf := make([]byte, tokenLength*2)
	for len(out) < tokenLength {
		if _, err := rand.Read(buf); err != nil {
			return "", fmt.Errorf("generating token: %w", err)
		}
		for _, b := range buf {
			// 248 — наибольшее кратное len(alphabet), влезающее в байт.
			if b >= 248 {
				continue
			}
			out = append(out, tokenAlphabet[int(b)%len(tokenAlphabet)])
			if len(out) == tokenLength {
				break
			}
		}
	}
	return string(out), nil
}
