package apperr

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestKindOf(t *testing.T) {
	wrapped := fmt.Errorf("verify: %w", Unauthorized("Invalid or expired OTP"))
	assert.Equal(t, KindUnauthorized, KindOf(wrapped))
	assert.True(t, Is(wrapped, KindUnauthorized))
	assert.Equal(t, KindInternal, KindOf(errors.New("boom")))
	assert.False(t, Is(nil, KindInternal))
}

func TestMessageOf_hidesInternalDetail(t *testing.T) {
	assert.Equal(t, "internal server error", MessageOf(errors.New("pq: connection refused")))
	assert.Equal(t, "internal server error", MessageOf(Internal(errors.New("pq: connection refused"))))
	assert.Equal(t, "Title is required", MessageOf(BadRequest("Title is required")))
}

func TestWrap_unwrapsCause(t *testing.T) {
	cause := errors.New("dial tcp: timeout")
	err := Wrap(KindUpstreamUnavailable, "completion service unavailable", cause)
	assert.ErrorIs(t, err, cause)
	assert.Contains(t, err.Error(), "upstream_unavailable")
}
