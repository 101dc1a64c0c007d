package utils

import (
	"crypto/sha256"
	"encoding/hex"
	"strings"
)

// NormalizeEmail returns the form used to compare addresses for duplicates
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// HashString creates a SHA-256 hash of the input string
func HashString(input string) string {
	h := sha256.Sum256([]byte(input))
	return hex.EncodeToString(h[:])
}

// HashEmail returns a short, stable identifier for an address so logs don't carry raw emails
func HashEmail(email string) string {
	return HashString(NormalizeEmail(email))[:12]
}
