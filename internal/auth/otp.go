package auth

import (
	"context"
	"crypto/rand"
	"crypto/sha256"
	"crypto/subtle"
	"encoding/hex"
	"fmt"
	"math/big"
	"time"
)

const (
	otpExpiry  = 10 * time.Minute
	devOTPCode = "123456"
)

// OTPSender delivers a plaintext code to the user out of band. resent selects
// the resend wording.
type OTPSender interface {
	SendOTP(ctx context.Context, email, code string, resent bool) error
}

// CodeSource produces the six-digit code for a new challenge.
type CodeSource func() (string, error)

// RandomCode draws a six-digit code (100000-999999) from crypto/rand.
func RandomCode() (string, error) {
	n, err := rand.Int(rand.Reader, big.NewInt(900000))
	if err != nil {
		return "", fmt.Errorf("generate otp: %w", err)
	}
	return fmt.Sprintf("%06d", n.Int64()+100000), nil
}

// FixedDevCode always returns 123456. Only wired when OTP_DEV_MODE is on.
func FixedDevCode() (string, error) {
	return devOTPCode, nil
}

// hashOTPHex returns SHA-256(email:code:salt) as hex for DB storage
func hashOTPHex(email, code, salt string) string {
	sum := sha256.Sum256([]byte(fmt.Sprintf("%s:%s:%s", email, code, salt)))
	return hex.EncodeToString(sum[:])
}

func hashesEqual(a, b string) bool {
	return subtle.ConstantTimeCompare([]byte(a), []byte(b)) == 1
}
