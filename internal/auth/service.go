package auth

import (
	"context"
	"errors"
	"log/slog"
	"net/mail"
	"strings"
	"time"

	"github.com/focusnest/server/internal/apperr"
	"github.com/focusnest/server/internal/model"
	"github.com/focusnest/server/internal/repo"
)

const (
	minPasswordLength = 6

	msgOTPSent          = "OTP sent to your email. Please verify to complete login."
	msgOTPResent        = "OTP resent to your email"
	msgInvalidLogin     = "Invalid email or password"
	msgInvalidOTP       = "Invalid or expired OTP"
	msgUserExists       = "User already exists"
	msgUserNotFound     = "User not found"
	msgRegisterRequired = "first_name, last_name, email and password are required"
)

// RegisterInput carries the fields of a new identity.
type RegisterInput struct {
	FirstName string
	LastName  string
	Email     string
	Password  string
}

// OTPIssued acknowledges a new challenge. DevOTP is only set in dev mode.
type OTPIssued struct {
	Message string
	DevOTP  string
}

// AuthService owns the login state machine:
// NoChallenge -> ChallengeIssued (login/resend) -> NoChallenge (verify).
// An expired challenge is never matched and is overwritten by the next issuance.
type AuthService struct {
	users   repo.UserRepo
	otps    repo.OtpRepo
	tokens  *JWTService
	hasher  *Hasher
	sender  OTPSender
	salt    string
	codes   CodeSource
	devMode bool
	logger  *slog.Logger
	now     func() time.Time
}

// Option customizes an AuthService.
type Option func(*AuthService)

// WithDevMode fixes the code to 123456 and echoes it in OTPIssued.
func WithDevMode() Option {
	return func(s *AuthService) {
		s.devMode = true
		s.codes = FixedDevCode
	}
}

// WithClock replaces time.Now for challenge issuance and verification.
func WithClock(now func() time.Time) Option {
	return func(s *AuthService) { s.now = now }
}

// WithCodeSource replaces the OTP code generator.
func WithCodeSource(codes CodeSource) Option {
	return func(s *AuthService) { s.codes = codes }
}

// NewAuthService creates a new auth service
func NewAuthService(
	users repo.UserRepo,
	otps repo.OtpRepo,
	tokens *JWTService,
	hasher *Hasher,
	sender OTPSender,
	salt string,
	logger *slog.Logger,
	opts ...Option,
) *AuthService {
	s := &AuthService{
		users:  users,
		otps:   otps,
		tokens: tokens,
		hasher: hasher,
		sender: sender,
		salt:   salt,
		codes:  RandomCode,
		logger: logger,
		now:    time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Register creates the identity and returns it with a session token. No OTP
// challenge is created.
func (s *AuthService) Register(ctx context.Context, in RegisterInput) (*model.User, string, error) {
	in.FirstName = strings.TrimSpace(in.FirstName)
	in.LastName = strings.TrimSpace(in.LastName)
	in.Email = strings.TrimSpace(in.Email)

	if in.FirstName == "" || in.LastName == "" || in.Email == "" || in.Password == "" {
		return nil, "", apperr.BadRequest(msgRegisterRequired)
	}
	if addr, err := mail.ParseAddress(in.Email); err != nil || addr.Address != in.Email {
		return nil, "", apperr.BadRequest("email is not a valid address")
	}
	if len(in.Password) < minPasswordLength {
		return nil, "", apperr.BadRequest("password must be at least 6 characters")
	}

	if _, err := s.users.GetByEmail(ctx, in.Email); err == nil {
		return nil, "", apperr.Conflict(msgUserExists)
	} else if !errors.Is(err, repo.ErrNotFound) {
		return nil, "", apperr.Internal(err)
	}

	hash, err := s.hasher.Hash(in.Password)
	if err != nil {
		return nil, "", apperr.Internal(err)
	}

	user := &model.User{
		FirstName:    in.FirstName,
		LastName:     in.LastName,
		Email:        in.Email,
		PasswordHash: hash,
		FocusPeaks:   []string{},
	}
	if err := s.users.Create(ctx, user); err != nil {
		// lost the race against a concurrent registration
		if errors.Is(err, repo.ErrDuplicate) {
			return nil, "", apperr.Conflict(msgUserExists)
		}
		return nil, "", apperr.Internal(err)
	}

	token, err := s.tokens.Mint(user.ID)
	if err != nil {
		return nil, "", apperr.Internal(err)
	}

	s.logger.InfoContext(ctx, "user registered", "user_id", user.ID, "email", maskEmail(user.Email))
	return user, token, nil
}

// Login checks the password and, on success, issues and delivers a fresh challenge.
func (s *AuthService) Login(ctx context.Context, email, password string) (*OTPIssued, error) {
	email = strings.TrimSpace(email)
	if email == "" || password == "" {
		return nil, apperr.BadRequest("email and password are required")
	}

	user, err := s.users.GetByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, repo.ErrNotFound) {
			return nil, apperr.Unauthorized(msgInvalidLogin)
		}
		return nil, apperr.Internal(err)
	}
	if !s.hasher.Matches(user.PasswordHash, password) {
		s.logger.InfoContext(ctx, "login rejected", "email", maskEmail(email))
		return nil, apperr.Unauthorized(msgInvalidLogin)
	}

	return s.issueChallenge(ctx, user, false)
}

// ResendOTP issues a new challenge without a password check, replacing any
// existing one.
func (s *AuthService) ResendOTP(ctx context.Context, email string) (*OTPIssued, error) {
	email = strings.TrimSpace(email)
	if email == "" {
		return nil, apperr.BadRequest("email is required")
	}

	user, err := s.users.GetByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, repo.ErrNotFound) {
			return nil, apperr.NotFound(msgUserNotFound)
		}
		return nil, apperr.Internal(err)
	}

	return s.issueChallenge(ctx, user, true)
}

// VerifyOTP consumes the active challenge and mints a session token. Every
// rejection leaves the stored challenge untouched.
func (s *AuthService) VerifyOTP(ctx context.Context, email, code string) (*model.User, string, error) {
	email = strings.TrimSpace(email)
	code = strings.TrimSpace(code)
	if email == "" || code == "" {
		return nil, "", apperr.BadRequest("email and code are required")
	}

	now := s.now()
	user, err := s.users.GetByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, repo.ErrNotFound) {
			return nil, "", apperr.Unauthorized(msgInvalidOTP)
		}
		return nil, "", apperr.Internal(err)
	}

	provided := hashOTPHex(user.Email, code, s.salt)
	if !user.HasActiveChallenge(now) || !hashesEqual(provided, *user.OTPHash) {
		s.logger.InfoContext(ctx, "otp rejected", "email", maskEmail(email))
		return nil, "", apperr.Unauthorized(msgInvalidOTP)
	}

	// The read above is only a fast reject; the conditional update decides
	// which of several concurrent attempts wins.
	verified, err := s.otps.ConsumeChallenge(ctx, user.Email, provided, now)
	if err != nil {
		if errors.Is(err, repo.ErrNotFound) {
			return nil, "", apperr.Unauthorized(msgInvalidOTP)
		}
		return nil, "", apperr.Internal(err)
	}

	token, err := s.tokens.Mint(verified.ID)
	if err != nil {
		return nil, "", apperr.Internal(err)
	}

	s.logger.InfoContext(ctx, "otp verified", "user_id", verified.ID)
	return &verified, token, nil
}

func (s *AuthService) issueChallenge(ctx context.Context, user model.User, resent bool) (*OTPIssued, error) {
	code, err := s.codes()
	if err != nil {
		return nil, apperr.Internal(err)
	}
	expiresAt := s.now().Add(otpExpiry)

	if err := s.otps.ReplaceChallenge(ctx, user.ID, hashOTPHex(user.Email, code, s.salt), expiresAt); err != nil {
		return nil, apperr.Internal(err)
	}

	if err := s.sender.SendOTP(ctx, user.Email, code, resent); err != nil {
		s.logger.ErrorContext(ctx, "otp delivery failed", "email", maskEmail(user.Email), "error", err)
		return nil, apperr.Internal(err)
	}

	s.logger.InfoContext(ctx, "otp issued", "email", maskEmail(user.Email), "resent", resent, "expires_at", expiresAt)

	ack := &OTPIssued{Message: msgOTPSent}
	if resent {
		ack.Message = msgOTPResent
	}
	if s.devMode {
		ack.DevOTP = code
	}
	return ack, nil
}

// maskEmail masks the local part of an email for logging (e.g., ad***@example.com)
func maskEmail(email string) string {
	at := strings.LastIndex(email, "@")
	if at < 0 {
		return "****"
	}
	local, domain := email[:at], email[at:]
	if len(local) <= 2 {
		return strings.Repeat("*", len(local)) + domain
	}
	return local[:2] + strings.Repeat("*", len(local)-2) + domain
}
