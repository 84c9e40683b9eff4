package repo

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/focusnest/server/internal/model"
)

// OtpRepo manages the single OTP challenge embedded in each user row.
type OtpRepo interface {
	ReplaceChallenge(ctx context.Context, userID uuid.UUID, otpHashHex string, expiresAt time.Time) error
	ConsumeChallenge(ctx context.Context, email, otpHashHex string, now time.Time) (model.User, error)
}

type otpRepo struct {
	db *sql.DB
}

// NewOtpRepo creates a new OtpRepo instance
func NewOtpRepo(db *sql.DB) OtpRepo {
	return &otpRepo{db: db}
}

// ReplaceChallenge overwrites any existing challenge (expired or not) for the user.
// Concurrent callers race; the last write wins.
func (r *otpRepo) ReplaceChallenge(ctx context.Context, userID uuid.UUID, otpHashHex string, expiresAt time.Time) error {
	result, err := r.db.ExecContext(ctx, `
		UPDATE users
		SET otp_hash = $2, otp_expires_at = $3, updated_at = now()
		WHERE id = $1
	`, userID, otpHashHex, expiresAt)
	if err != nil {
		return fmt.Errorf("replace challenge: %w", err)
	}
	n, _ := result.RowsAffected()
	if n == 0 {
		return fmt.Errorf("user %s: %w", userID, ErrNotFound)
	}
	return nil
}

// ConsumeChallenge checks and clears the challenge in one statement: the row is
// only updated when the hash matches and now is strictly before the expiry, so
// of two concurrent valid attempts exactly one gets a row back. A failed match
// leaves the challenge untouched and returns ErrNotFound.
func (r *otpRepo) ConsumeChallenge(ctx context.Context, email, otpHashHex string, now time.Time) (model.User, error) {
	row := r.db.QueryRowContext(ctx, `
		UPDATE users
		SET otp_hash = NULL, otp_expires_at = NULL, updated_at = now()
		WHERE email = $1
		  AND otp_hash = $2
		  AND otp_expires_at > $3
		RETURNING `+userColumns, email, otpHashHex, now)
	user, err := scanUser(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return model.User{}, fmt.Errorf("no matching challenge: %w", ErrNotFound)
		}
		return model.User{}, fmt.Errorf("consume challenge: %w", err)
	}
	return user, nil
}
