package auth

import (
	"crypto/hmac"
	"crypto/rand"
	"crypto/sha512"
	"encoding/hex"
	"fmt"
	"math/big"
	"strings"

	"golang.org/x/crypto/pbkdf2"
)

const (
	saltLength     = 16
	hashIterations = 10000
	hashKeyLength  = 64
)

// HashPassword derives a salted PBKDF2-HMAC-SHA512 hash of the password and
// returns it as "salt_hex:hash_hex". A fresh random salt is generated on
// every call, so hashing the same password twice yields different strings.
func HashPassword(password string) (string, error) {
	salt := make([]byte, saltLength)
	if _, err := rand.Read(salt); err != nil {
		return "", fmt.Errorf("generate salt: %w", err)
	}

	saltHex := hex.EncodeToString(salt)
	hash := pbkdf2.Key([]byte(password), []byte(saltHex), hashIterations, hashKeyLength, sha512.New)
	return saltHex + ":" + hex.EncodeToString(hash), nil
}

// VerifyPassword re-derives the hash from the stored salt and compares the
// digests in constant time. Malformed stored values return false, never an
// error or a panic.
func VerifyPassword(password, stored string) bool {
	parts := strings.SplitN(stored, ":", 2)
	if len(parts) != 2 || parts[0] == "" || parts[1] == "" {
		return false
	}

	expected, err := hex.DecodeString(parts[1])
	if err != nil {
		return false
	}

	derived := pbkdf2.Key([]byte(password), []byte(parts[0]), hashIterations, hashKeyLength, sha512.New)
	return hmac.Equal(derived, expected)
}

const passwordCharset = "abcdefghijklmnopqrstuvwxyzABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789!@#$%^&*"

// GenerateRandomPassword returns a random password of the given length drawn
// from a mixed character set. Used by the admin reset-password flow.
func GenerateRandomPassword(length int) (string, error) {
	if length <= 0 {
		length = 12
	}
	var b strings.Builder
	for i := 0; i < length; i++ {
		n, err := rand.Int(rand.Reader, big.NewInt(int64(len(passwordCharset))))
		if err != nil {
			return "", fmt.Errorf("generate password: %w", err)
		}
		b.WriteByte(passwordCharset[n.Int64()])
	}
	return b.String(), nil
}

// ValidatePasswordStrength checks the minimum password policy and returns a
// human-readable reason per violated rule. An empty slice means the password
// is acceptable.
func ValidatePasswordStrength(password string) []string {
	var errs []string

	if len(password) < 8 {
		errs = append(errs, "password must be at least 8 characters")
	}
	if !strings.ContainsAny(password, "abcdefghijklmnopqrstuvwxyz") {
		errs = append(errs, "password must contain a lowercase letter")
	}
	if !strings.ContainsAny(password, "ABCDEFGHIJKLMNOPQRSTUVWXYZ") {
		errs = append(errs, "password must contain an uppercase letter")
	}
	if !strings.ContainsAny(password, "0123456789") {
		errs = append(errs, "password must contain a digit")
	}
	if !strings.ContainsAny(password, "!@#$%^&*()_+-=[]{};':\"\\|,.<>/?") {
		errs = append(errs, "password must contain a special character")
	}

	return errs
}
