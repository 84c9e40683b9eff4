// Package task implements task CRUD on top of the repositories, running
// scheduling enrichment before a new task is stored.
package task

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/focusnest/server/internal/apperr"
	"github.com/focusnest/server/internal/model"
	"github.com/focusnest/server/internal/repo"
	"github.com/focusnest/server/internal/scheduling"
)

const (
	defaultPage  = 1
	defaultLimit = 10
	maxLimit     = 100

	msgTaskNotFound  = "Task not found"
	msgTitleRequired = "Title is required"
	msgUserNotFound  = "User not found"
)

// Enricher back-fills cognitive load and focus slot on a draft.
type Enricher interface {
	Enrich(ctx context.Context, peaks []string, draft *scheduling.Draft) scheduling.Report
}

// CreateInput holds the caller-supplied fields of a new task. Nil means omitted.
type CreateInput struct {
	Title           string
	Description     string
	StartDate       *time.Time
	EndDate         *time.Time
	DueDate         *time.Time
	Priority        *model.Priority
	Status          *model.Status
	CognitiveLoad   *model.CognitiveLoad
	FocusSlot       *string
	RescheduleCount *int
}

// UpdateInput holds the fields to change. Only non-nil fields are applied; an
// empty FocusSlot clears it.
type UpdateInput struct {
	Title           *string
	Description     *string
	StartDate       *time.Time
	EndDate         *time.Time
	DueDate         *time.Time
	Priority        *model.Priority
	Status          *model.Status
	CognitiveLoad   *model.CognitiveLoad
	FocusSlot       *string
	RescheduleCount *int
}

// Page is one page of an owner's tasks, newest first.
type Page struct {
	CurrentPage int
	TotalPages  int
	TotalTasks  int
	Tasks       []model.Task
}

// Service handles task operations for a single owner at a time.
type Service struct {
	tasks    repo.TaskRepo
	users    repo.UserRepo
	enricher Enricher
	logger   *slog.Logger
}

// NewService creates a new task service
func NewService(tasks repo.TaskRepo, users repo.UserRepo, enricher Enricher, logger *slog.Logger) *Service {
	return &Service{tasks: tasks, users: users, enricher: enricher, logger: logger}
}

// Create validates the input, enriches missing load and slot, then stores the
// task. The row is written only after enrichment has finished; a caller that
// went away in the meantime gets nothing written.
func (s *Service) Create(ctx context.Context, ownerID uuid.UUID, in CreateInput) (*model.Task, error) {
	t := model.Task{
		UserID:      ownerID,
		Title:       strings.TrimSpace(in.Title),
		Description: strings.TrimSpace(in.Description),
		StartDate:   in.StartDate,
		EndDate:     in.EndDate,
		DueDate:     in.DueDate,
		Priority:    model.PriorityMedium,
		Status:      model.StatusPending,
	}
	if in.Priority != nil {
		t.Priority = *in.Priority
	}
	if in.Status != nil {
		t.Status = *in.Status
	}
	if in.RescheduleCount != nil {
		t.RescheduleCount = *in.RescheduleCount
	}
	if err := validate(&t, in.CognitiveLoad); err != nil {
		return nil, err
	}

	owner, err := s.users.GetByID(ctx, ownerID)
	if err != nil {
		if errors.Is(err, repo.ErrNotFound) {
			return nil, apperr.NotFound(msgUserNotFound)
		}
		return nil, apperr.Internal(err)
	}

	draft := &scheduling.Draft{
		Title:         t.Title,
		Description:   t.Description,
		CognitiveLoad: in.CognitiveLoad,
		FocusSlot:     nonBlank(in.FocusSlot),
	}
	report := s.enricher.Enrich(ctx, owner.FocusPeaks, draft)
	t.CognitiveLoad = draft.CognitiveLoad
	t.FocusSlot = draft.FocusSlot

	if err := ctx.Err(); err != nil {
		s.logger.WarnContext(ctx, "task not saved, request ended during enrichment", "user_id", ownerID)
		return nil, apperr.Wrap(apperr.KindUpstreamUnavailable, "request ended before the task was saved", err)
	}

	if err := s.tasks.Create(ctx, &t); err != nil {
		return nil, apperr.Internal(err)
	}

	s.logger.InfoContext(ctx, "task created", "task_id", t.ID, "user_id", ownerID,
		"load", report.Load, "slot", report.Slot)
	return &t, nil
}

// List returns one page of the owner's tasks. page and limit default to 1 and
// 10; limit is capped at 100.
func (s *Service) List(ctx context.Context, ownerID uuid.UUID, page, limit int) (Page, error) {
	if page < 1 {
		page = defaultPage
	}
	if limit < 1 {
		limit = defaultLimit
	}
	if limit > maxLimit {
		limit = maxLimit
	}

	tasks, total, err := s.tasks.ListByOwner(ctx, ownerID, limit, (page-1)*limit)
	if err != nil {
		return Page{}, apperr.Internal(err)
	}
	if tasks == nil {
		tasks = []model.Task{}
	}
	return Page{
		CurrentPage: page,
		TotalPages:  (total + limit - 1) / limit,
		TotalTasks:  total,
		Tasks:       tasks,
	}, nil
}

// Get returns the owner's task.
func (s *Service) Get(ctx context.Context, ownerID, id uuid.UUID) (*model.Task, error) {
	t, err := s.tasks.GetByID(ctx, ownerID, id)
	if err != nil {
		return nil, notFoundOrInternal(err)
	}
	return &t, nil
}

// Update applies the supplied fields. No enrichment runs on update.
func (s *Service) Update(ctx context.Context, ownerID, id uuid.UUID, in UpdateInput) (*model.Task, error) {
	t, err := s.tasks.GetByID(ctx, ownerID, id)
	if err != nil {
		return nil, notFoundOrInternal(err)
	}

	if in.Title != nil {
		t.Title = strings.TrimSpace(*in.Title)
	}
	if in.Description != nil {
		t.Description = strings.TrimSpace(*in.Description)
	}
	if in.StartDate != nil {
		t.StartDate = in.StartDate
	}
	if in.EndDate != nil {
		t.EndDate = in.EndDate
	}
	if in.DueDate != nil {
		t.DueDate = in.DueDate
	}
	if in.Priority != nil {
		t.Priority = *in.Priority
	}
	if in.Status != nil {
		t.Status = *in.Status
	}
	if in.CognitiveLoad != nil {
		t.CognitiveLoad = in.CognitiveLoad
	}
	if in.FocusSlot != nil {
		t.FocusSlot = nonBlank(in.FocusSlot)
	}
	if in.RescheduleCount != nil {
		t.RescheduleCount = *in.RescheduleCount
	}
	if err := validate(&t, t.CognitiveLoad); err != nil {
		return nil, err
	}

	if err := s.tasks.Update(ctx, &t); err != nil {
		return nil, notFoundOrInternal(err)
	}
	return &t, nil
}

// Delete removes the owner's task.
func (s *Service) Delete(ctx context.Context, ownerID, id uuid.UUID) error {
	if err := s.tasks.Delete(ctx, ownerID, id); err != nil {
		if errors.Is(err, repo.ErrNotFound) {
			return apperr.NotFound("Task not found or already deleted")
		}
		return apperr.Internal(err)
	}
	s.logger.InfoContext(ctx, "task deleted", "task_id", id, "user_id", ownerID)
	return nil
}

func validate(t *model.Task, load *model.CognitiveLoad) error {
	if t.Title == "" {
		return apperr.BadRequest(msgTitleRequired)
	}
	if !t.Priority.Valid() {
		return apperr.BadRequest("priority must be one of Low, Medium, High")
	}
	if !t.Status.Valid() {
		return apperr.BadRequest("status must be one of Pending, In Progress, Completed")
	}
	if load != nil && !load.Valid() {
		return apperr.BadRequest("cognitiveLoad must be one of Low, Medium, High")
	}
	if t.RescheduleCount < 0 {
		return apperr.BadRequest("rescheduleCount must not be negative")
	}
	return nil
}

func notFoundOrInternal(err error) error {
	if errors.Is(err, repo.ErrNotFound) {
		return apperr.NotFound(msgTaskNotFound)
	}
	return apperr.Internal(err)
}

func nonBlank(s *string) *string {
	if s == nil {
		return nil
	}
	v := strings.TrimSpace(*s)
	if v == "" {
		return nil
	}
	return &v
}
