package service

import (
	"crypto/sha256"
	"crypto/subtle"
	"encoding/hex"
	"strings"
)

// HashPassword returns the lowercase hex SHA-256 digest of password. The
// format matches the password_hash column of existing deployments.
func HashPassword(password string) string {
	sum := sha256.Sum256([]byte(password))
	return hex.EncodeToString(sum[:])
}

// VerifyPassword compares password against a stored digest in constant time.
func VerifyPassword(password, hash string) bool {
	want := strings.ToLower(strings.TrimSpace(hash))
	got := HashPassword(password)
	return subtle.ConstantTimeCompare([]byte(got), []byte(want)) == 1
}
