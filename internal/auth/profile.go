package auth

import (
	"context"
	"errors"
	"strings"

	"github.com/google/uuid"

	"github.com/focusnest/server/internal/apperr"
	"github.com/focusnest/server/internal/model"
	"github.com/focusnest/server/internal/repo"
)

const maxFocusPeaks = 24

// Me returns the identity behind a validated session token.
func (s *AuthService) Me(ctx context.Context, userID uuid.UUID) (*model.User, error) {
	user, err := s.users.GetByID(ctx, userID)
	if err != nil {
		if errors.Is(err, repo.ErrNotFound) {
			return nil, apperr.NotFound(msgUserNotFound)
		}
		return nil, apperr.Internal(err)
	}
	return &user, nil
}

// SetFocusPeaks replaces the user's focus peaks. The list must be non-empty
// and every entry non-blank; order is kept.
func (s *AuthService) SetFocusPeaks(ctx context.Context, userID uuid.UUID, peaks []string) ([]string, error) {
	if len(peaks) == 0 {
		return nil, apperr.BadRequest("focusPeaks must be a non-empty array")
	}
	if len(peaks) > maxFocusPeaks {
		return nil, apperr.BadRequest("focusPeaks has too many entries")
	}
	cleaned := make([]string, 0, len(peaks))
	for _, p := range peaks {
		p = strings.TrimSpace(p)
		if p == "" {
			return nil, apperr.BadRequest("focusPeaks entries must not be blank")
		}
		cleaned = append(cleaned, p)
	}

	user, err := s.users.UpdateFocusPeaks(ctx, userID, cleaned)
	if err != nil {
		if errors.Is(err, repo.ErrNotFound) {
			return nil, apperr.NotFound(msgUserNotFound)
		}
		return nil, apperr.Internal(err)
	}
	s.logger.InfoContext(ctx, "focus peaks updated", "user_id", userID, "count", len(user.FocusPeaks))
	return user.FocusPeaks, nil
}
