package auth

import (
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/focusnest/server/internal/apperr"
)

func TestJWTService_MintValidate(t *testing.T) {
	s := NewJWTService("secret")
	id := uuid.New()

	token, err := s.Mint(id)
	require.NoError(t, err)

	got, err := s.Validate(token)
	require.NoError(t, err)
	assert.Equal(t, id, got)
}

func TestJWTService_Expiry(t *testing.T) {
	issued := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	s := NewJWTService("secret")
	s.now = func() time.Time { return issued }
	id := uuid.New()

	token, err := s.Mint(id)
	require.NoError(t, err)

	s.now = func() time.Time { return issued.Add(7*24*time.Hour - time.Second) }
	_, err = s.Validate(token)
	assert.NoError(t, err)

	s.now = func() time.Time { return issued.Add(7*24*time.Hour + time.Second) }
	_, err = s.Validate(token)
	assert.True(t, apperr.Is(err, apperr.KindUnauthorized))
}

func TestJWTService_Rejects(t *testing.T) {
	s := NewJWTService("secret")
	token, err := s.Mint(uuid.New())
	require.NoError(t, err)

	_, err = NewJWTService("other-secret").Validate(token)
	assert.True(t, apperr.Is(err, apperr.KindUnauthorized), "wrong secret")

	_, err = s.Validate("not.a.token")
	assert.True(t, apperr.Is(err, apperr.KindUnauthorized), "garbage")

	none, err := jwt.NewWithClaims(jwt.SigningMethodNone, jwt.RegisteredClaims{
		Subject:   uuid.NewString(),
		ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
	}).SignedString(jwt.UnsafeAllowNoneSignatureType)
	require.NoError(t, err)
	_, err = s.Validate(none)
	assert.True(t, apperr.Is(err, apperr.KindUnauthorized), "alg none")

	bad, err := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.RegisteredClaims{
		Subject:   "not-a-uuid",
		ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
	}).SignedString([]byte("secret"))
	require.NoError(t, err)
	_, err = s.Validate(bad)
	assert.True(t, apperr.Is(err, apperr.KindUnauthorized), "bad subject")

	noExp, err := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.RegisteredClaims{
		Subject: uuid.NewString(),
	}).SignedString([]byte("secret"))
	require.NoError(t, err)
	_, err = s.Validate(noExp)
	assert.True(t, apperr.Is(err, apperr.KindUnauthorized), "missing exp")
}
