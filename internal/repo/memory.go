package repo

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/focusnest/server/internal/model"
)

// MemoryUserStore is an in-memory UserRepo and OtpRepo. It backs service and
// handler tests; values are copied in and out so callers never share state.
type MemoryUserStore struct {
	mu      sync.Mutex
	byID    map[uuid.UUID]model.User
	byEmail map[string]uuid.UUID
	nowF    func() time.Time
}

// NewMemoryUserStore returns an empty in-memory user store.
func NewMemoryUserStore() *MemoryUserStore {
	return &MemoryUserStore{
		byID:    make(map[uuid.UUID]model.User),
		byEmail: make(map[string]uuid.UUID),
		nowF:    func() time.Time { return time.Now().UTC() },
	}
}

func cloneUser(u model.User) model.User {
	c := u
	c.FocusPeaks = append([]string{}, u.FocusPeaks...)
	if u.OTPHash != nil {
		h := *u.OTPHash
		c.OTPHash = &h
	}
	if u.OTPExpiresAt != nil {
		e := *u.OTPExpiresAt
		c.OTPExpiresAt = &e
	}
	return c
}

func (s *MemoryUserStore) Create(ctx context.Context, user *model.User) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, taken := s.byEmail[user.Email]; taken {
		return ErrDuplicate
	}
	now := s.nowF()
	user.ID = uuid.New()
	user.CreatedAt = now
	user.UpdatedAt = now
	if user.FocusPeaks == nil {
		user.FocusPeaks = []string{}
	}
	s.byID[user.ID] = cloneUser(*user)
	s.byEmail[user.Email] = user.ID
	return nil
}

func (s *MemoryUserStore) GetByID(ctx context.Context, id uuid.UUID) (model.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	u, ok := s.byID[id]
	if !ok {
		return model.User{}, ErrNotFound
	}
	return cloneUser(u), nil
}

func (s *MemoryUserStore) GetByEmail(ctx context.Context, email string) (model.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	id, ok := s.byEmail[email]
	if !ok {
		return model.User{}, ErrNotFound
	}
	return cloneUser(s.byID[id]), nil
}

func (s *MemoryUserStore) UpdateFocusPeaks(ctx context.Context, id uuid.UUID, peaks []string) (model.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	u, ok := s.byID[id]
	if !ok {
		return model.User{}, ErrNotFound
	}
	u.FocusPeaks = append([]string{}, peaks...)
	u.UpdatedAt = s.nowF()
	s.byID[id] = u
	return cloneUser(u), nil
}

func (s *MemoryUserStore) ReplaceChallenge(ctx context.Context, userID uuid.UUID, otpHashHex string, expiresAt time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	u, ok := s.byID[userID]
	if !ok {
		return ErrNotFound
	}
	u.OTPHash = &otpHashHex
	u.OTPExpiresAt = &expiresAt
	u.UpdatedAt = s.nowF()
	s.byID[userID] = u
	return nil
}

// ConsumeChallenge mirrors the conditional UPDATE of the PostgreSQL store:
// match, expiry check and clear happen under one lock.
func (s *MemoryUserStore) ConsumeChallenge(ctx context.Context, email, otpHashHex string, now time.Time) (model.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	id, ok := s.byEmail[email]
	if !ok {
		return model.User{}, ErrNotFound
	}
	u := s.byID[id]
	if u.OTPHash == nil || *u.OTPHash != otpHashHex || !u.HasActiveChallenge(now) {
		return model.User{}, ErrNotFound
	}
	u.OTPHash = nil
	u.OTPExpiresAt = nil
	u.UpdatedAt = s.nowF()
	s.byID[id] = u
	return cloneUser(u), nil
}

// MemoryTaskStore is an in-memory TaskRepo.
type MemoryTaskStore struct {
	mu    sync.Mutex
	tasks map[uuid.UUID]model.Task
	seq   int64
	order map[uuid.UUID]int64
	nowF  func() time.Time
}

// NewMemoryTaskStore returns an empty in-memory task store.
func NewMemoryTaskStore() *MemoryTaskStore {
	return &MemoryTaskStore{
		tasks: make(map[uuid.UUID]model.Task),
		order: make(map[uuid.UUID]int64),
		nowF:  func() time.Time { return time.Now().UTC() },
	}
}

// Len reports how many tasks are stored across all owners.
func (s *MemoryTaskStore) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.tasks)
}

func (s *MemoryTaskStore) Create(ctx context.Context, task *model.Task) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	now := s.nowF()
	task.ID = uuid.New()
	task.CreatedAt = now
	task.UpdatedAt = now
	s.seq++
	s.order[task.ID] = s.seq
	s.tasks[task.ID] = *task
	return nil
}

func (s *MemoryTaskStore) GetByID(ctx context.Context, ownerID, id uuid.UUID) (model.Task, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	t, ok := s.tasks[id]
	if !ok || t.UserID != ownerID {
		return model.Task{}, ErrNotFound
	}
	return t, nil
}

func (s *MemoryTaskStore) ListByOwner(ctx context.Context, ownerID uuid.UUID, limit, offset int) ([]model.Task, int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	owned := make([]model.Task, 0)
	for _, t := range s.tasks {
		if t.UserID == ownerID {
			owned = append(owned, t)
		}
	}
	// newest first; insertion sequence breaks timestamp ties
	sort.Slice(owned, func(i, j int) bool {
		return s.order[owned[i].ID] > s.order[owned[j].ID]
	})
	total := len(owned)
	if offset >= total {
		return []model.Task{}, total, nil
	}
	end := offset + limit
	if end > total {
		end = total
	}
	return owned[offset:end], total, nil
}

func (s *MemoryTaskStore) Update(ctx context.Context, task *model.Task) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	existing, ok := s.tasks[task.ID]
	if !ok || existing.UserID != task.UserID {
		return ErrNotFound
	}
	task.CreatedAt = existing.CreatedAt
	task.UpdatedAt = s.nowF()
	s.tasks[task.ID] = *task
	return nil
}

func (s *MemoryTaskStore) Delete(ctx context.Context, ownerID, id uuid.UUID) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	t, ok := s.tasks[id]
	if !ok || t.UserID != ownerID {
		return ErrNotFound
	}
	delete(s.tasks, id)
	delete(s.order, id)
	return nil
}
