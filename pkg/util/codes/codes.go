package codes

import (
	"crypto/rand"
	"encoding/base64"
	"encoding/hex"
	"errors"
	"fmt"
	"math/big"
	"strings"
)

var (
	ErrInvalidLength = errors.New("invalid code length")
)

const (
	// ShareTokenByteLength is the number of random bytes for patient share
	// tokens (produces 32 base64url chars)
	ShareTokenByteLength = 24

	// ResetTokenByteLength is the number of random bytes for password reset
	// tokens (produces 32 hex chars)
	ResetTokenByteLength = 16
)

// GenerateShareToken creates an unguessable token for read-only patient
// share links. Format: URL-safe base64 string.
func GenerateShareToken(byteLength int) (string, error) {
	if byteLength < 1 {
		byteLength = ShareTokenByteLength
	}
	return GenerateURLSafeToken(byteLength)
}

// GenerateResetToken creates a secure token for password reset URLs.
// Returns a 32-character hex string.
func GenerateResetToken() (string, error) {
	return GenerateSecureToken(ResetTokenByteLength)
}

// GenerateSecureToken creates a cryptographically secure hex token.
// byteLength specifies the number of random bytes (output will be 2x this length in hex).
func GenerateSecureToken(byteLength int) (string, error) {
	if byteLength < 1 {
		return "", ErrInvalidLength
	}

	b := make([]byte, byteLength)
	if _, err := rand.Read(b); err != nil {
		return "", fmt.Errorf("failed to generate random bytes: %w", err)
	}

	return hex.EncodeToString(b), nil
}

// GenerateURLSafeToken creates a URL-safe base64-encoded token.
// byteLength specifies the number of random bytes.
func GenerateURLSafeToken(byteLength int) (string, error) {
	if byteLength < 1 {
		return "", ErrInvalidLength
	}

	b := make([]byte, byteLength)
	if _, err := rand.Read(b); err != nil {
		return "", fmt.Errorf("failed to generate random bytes: %w", err)
	}

	return base64.RawURLEncoding.EncodeToString(b), nil
}

// GenerateNumericCode creates a numeric-only code of specified length.
func GenerateNumericCode(length int) (string, error) {
	if length < 1 {
		return "", ErrInvalidLength
	}

	max := new(big.Int)
	max.Exp(big.NewInt(10), big.NewInt(int64(length)), nil)

	n, err := rand.Int(rand.Reader, max)
	if err != nil {
		return "", fmt.Errorf("failed to generate random number: %w", err)
	}

	format := fmt.Sprintf("%%0%dd", length)
	return fmt.Sprintf(format, n), nil
}

// NormalizeCode normalizes a code for comparison (uppercase, trim whitespace).
func NormalizeCode(code string) string {
	return strings.ToUpper(strings.TrimSpace(code))
}

// FormatCode formats a code with dashes for readability.
// e.g., "ABCD1234" -> "ABCD-1234" with groupSize=4
func FormatCode(code string, groupSize int) string {
	if groupSize < 1 || len(code) <= groupSize {
		return code
	}

	var parts []string
	for i := 0; i < len(code); i += groupSize {
		end := i + groupSize
		if end > len(code) {
			end = len(code)
		}
		parts = append(parts, code[i:end])
	}

	return strings.Join(parts, "-")
}

// ParseCode removes formatting (dashes, spaces) from a code.
func ParseCode(formatted string) string {
	code := strings.ReplaceAll(formatted, "-", "")
	code = strings.ReplaceAll(code, " ", "")
	return strings.ToUpper(strings.TrimSpace(code))
}
