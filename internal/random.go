package internal

import (
	"crypto/rand"
	"crypto/sha256"
	"encoding/hex"
	"math/big"
	"strconv"
)

const (
	otpMin         = 100000
	otpSpan        = 900000
	resetTokenSize = 32
)

// NewOTPCode returns a uniformly random six digit code in [100000, 999999].
func NewOTPCode() (string, error) {
	n, err := rand.Int(rand.Reader, big.NewInt(otpSpan))
	if err != nil {
		return "", err
	}
	return strconv.FormatInt(n.Int64()+otpMin, 10), nil
}

// HashOTPCode returns the digest under which a code is stored.
func HashOTPCode(code string) [32]byte {
	return sha256.Sum256([]byte(code))
}

// NewResetToken returns 32 random bytes hex-encoded (64 characters).
func NewResetToken() (string, error) {
	var raw [resetTokenSize]byte
	if _, err := rand.Read(raw[:]); err != nil {
		return "", err
	}
	return hex.EncodeToString(raw[:]), nil
}

// HashResetToken returns the hex SHA-256 digest persisted for a reset token.
func HashResetToken(token string) string {
	sum := sha256.Sum256([]byte(token))
	return hex.EncodeToString(sum[:])
}
