// Package random генерирует криптографически стойкие токены.
package random

import (
	"crypto/rand"
	"encoding/hex"
	"fmt"
)

// NewHex возвращает hex-строку из n случайных байт.
func NewHex(n int) (string, error) {
	buf := make([]byte, n)
	if _, err := rand.Read(buf); err != nil {
		return "", fmt.Errorf("random.NewHex: %w", err)
	}
	return hex.EncodeToString(buf), nil
}
