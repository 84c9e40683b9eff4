package repo

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/lib/pq"

	"github.com/focusnest/server/internal/model"
)

var (
	// ErrNotFound is returned when no row matches.
	ErrNotFound = errors.New("not found")
	// ErrDuplicate is returned when a unique constraint rejects a write.
	ErrDuplicate = errors.New("already exists")
)

const uniqueViolation = "23505"

// UserRepo defines the interface for user repository operations
type UserRepo interface {
	Create(ctx context.Context, user *model.User) error
	GetByID(ctx context.Context, id uuid.UUID) (model.User, error)
	GetByEmail(ctx context.Context, email string) (model.User, error)
	UpdateFocusPeaks(ctx context.Context, id uuid.UUID, peaks []string) (model.User, error)
}

const userColumns = `id, first_name, last_name, email, password_hash, focus_peaks,
	otp_hash, otp_expires_at, created_at, updated_at`

type rowScanner interface {
	Scan(dest ...any) error
}

func scanUser(row rowScanner) (model.User, error) {
	var user model.User
	var peaks pq.StringArray
	err := row.Scan(
		&user.ID,
		&user.FirstName,
		&user.LastName,
		&user.Email,
		&user.PasswordHash,
		&peaks,
		&user.OTPHash,
		&user.OTPExpiresAt,
		&user.CreatedAt,
		&user.UpdatedAt,
	)
	if err != nil {
		return model.User{}, err
	}
	user.FocusPeaks = []string(peaks)
	if user.FocusPeaks == nil {
		user.FocusPeaks = []string{}
	}
	return user, nil
}

type userRepo struct {
	db *sql.DB
}

// NewUserRepo creates a new UserRepo instance
func NewUserRepo(db *sql.DB) UserRepo {
	return &userRepo{db: db}
}

// Create inserts the user and fills in ID and timestamps. A taken email yields ErrDuplicate.
func (r *userRepo) Create(ctx context.Context, user *model.User) error {
	peaks := user.FocusPeaks
	if peaks == nil {
		peaks = []string{}
	}
	query := `
		INSERT INTO users (first_name, last_name, email, password_hash, focus_peaks)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING id, created_at, updated_at
	`
	err := r.db.QueryRowContext(ctx, query,
		user.FirstName, user.LastName, user.Email, user.PasswordHash, pq.Array(peaks),
	).Scan(&user.ID, &user.CreatedAt, &user.UpdatedAt)
	if err != nil {
		var pqErr *pq.Error
		if errors.As(err, &pqErr) && pqErr.Code == uniqueViolation {
			return fmt.Errorf("insert user: %w", ErrDuplicate)
		}
		return fmt.Errorf("failed to insert user: %w", err)
	}
	user.FocusPeaks = peaks
	return nil
}

// GetByID retrieves a user by ID
func (r *userRepo) GetByID(ctx context.Context, id uuid.UUID) (model.User, error) {
	row := r.db.QueryRowContext(ctx, `SELECT `+userColumns+` FROM users WHERE id = $1`, id)
	user, err := scanUser(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return model.User{}, fmt.Errorf("user %s: %w", id, ErrNotFound)
		}
		return model.User{}, fmt.Errorf("failed to query user: %w", err)
	}
	return user, nil
}

// GetByEmail retrieves a user by exact (case-sensitive) email
func (r *userRepo) GetByEmail(ctx context.Context, email string) (model.User, error) {
	row := r.db.QueryRowContext(ctx, `SELECT `+userColumns+` FROM users WHERE email = $1`, email)
	user, err := scanUser(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return model.User{}, fmt.Errorf("user by email: %w", ErrNotFound)
		}
		return model.User{}, fmt.Errorf("failed to query user: %w", err)
	}
	return user, nil
}

// UpdateFocusPeaks replaces the user's focus peaks and returns the updated user.
func (r *userRepo) UpdateFocusPeaks(ctx context.Context, id uuid.UUID, peaks []string) (model.User, error) {
	if peaks == nil {
		peaks = []string{}
	}
	row := r.db.QueryRowContext(ctx, `
		UPDATE users SET focus_peaks = $2, updated_at = now()
		WHERE id = $1
		RETURNING `+userColumns, id, pq.Array(peaks))
	user, err := scanUser(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return model.User{}, fmt.Errorf("user %s: %w", id, ErrNotFound)
		}
		return model.User{}, fmt.Errorf("update focus peaks: %w", err)
	}
	return user, nil
}
