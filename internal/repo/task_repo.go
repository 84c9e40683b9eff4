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

// TaskRepo defines the interface for task persistence. Every lookup is scoped
// to the owner so one user can never see or touch another user's task.
type TaskRepo interface {
	Create(ctx context.Context, task *model.Task) error
	GetByID(ctx context.Context, ownerID, id uuid.UUID) (model.Task, error)
	ListByOwner(ctx context.Context, ownerID uuid.UUID, limit, offset int) ([]model.Task, int, error)
	Update(ctx context.Context, task *model.Task) error
	Delete(ctx context.Context, ownerID, id uuid.UUID) error
}

const taskColumns = `id, user_id, title, description, start_date, end_date, due_date,
	priority, status, cognitive_load, focus_slot, reschedule_count, created_at, updated_at`

func scanTask(row rowScanner) (model.Task, error) {
	var t model.Task
	var priority, status string
	var load, slot sql.NullString
	var start, end, due sql.NullTime
	err := row.Scan(
		&t.ID,
		&t.UserID,
		&t.Title,
		&t.Description,
		&start,
		&end,
		&due,
		&priority,
		&status,
		&load,
		&slot,
		&t.RescheduleCount,
		&t.CreatedAt,
		&t.UpdatedAt,
	)
	if err != nil {
		return model.Task{}, err
	}
	t.Priority = model.Priority(priority)
	t.Status = model.Status(status)
	t.StartDate = timePtr(start)
	t.EndDate = timePtr(end)
	t.DueDate = timePtr(due)
	if load.Valid {
		l := model.CognitiveLoad(load.String)
		t.CognitiveLoad = &l
	}
	if slot.Valid {
		s := slot.String
		t.FocusSlot = &s
	}
	return t, nil
}

func timePtr(v sql.NullTime) *time.Time {
	if !v.Valid {
		return nil
	}
	t := v.Time
	return &t
}

func nullTime(t *time.Time) sql.NullTime {
	if t == nil {
		return sql.NullTime{}
	}
	return sql.NullTime{Time: *t, Valid: true}
}

func nullLoad(l *model.CognitiveLoad) sql.NullString {
	if l == nil {
		return sql.NullString{}
	}
	return sql.NullString{String: string(*l), Valid: true}
}

func nullString(s *string) sql.NullString {
	if s == nil {
		return sql.NullString{}
	}
	return sql.NullString{String: *s, Valid: true}
}

type taskRepo struct {
	db *sql.DB
}

// NewTaskRepo creates a new TaskRepo instance
func NewTaskRepo(db *sql.DB) TaskRepo {
	return &taskRepo{db: db}
}

// Create inserts the task and fills in ID and timestamps.
func (r *taskRepo) Create(ctx context.Context, task *model.Task) error {
	query := `
		INSERT INTO tasks (user_id, title, description, start_date, end_date, due_date,
			priority, status, cognitive_load, focus_slot, reschedule_count)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
		RETURNING id, created_at, updated_at
	`
	err := r.db.QueryRowContext(ctx, query,
		task.UserID,
		task.Title,
		task.Description,
		nullTime(task.StartDate),
		nullTime(task.EndDate),
		nullTime(task.DueDate),
		string(task.Priority),
		string(task.Status),
		nullLoad(task.CognitiveLoad),
		nullString(task.FocusSlot),
		task.RescheduleCount,
	).Scan(&task.ID, &task.CreatedAt, &task.UpdatedAt)
	if err != nil {
		return fmt.Errorf("failed to insert task: %w", err)
	}
	return nil
}

// GetByID returns the owner's task with the given ID
func (r *taskRepo) GetByID(ctx context.Context, ownerID, id uuid.UUID) (model.Task, error) {
	row := r.db.QueryRowContext(ctx,
		`SELECT `+taskColumns+` FROM tasks WHERE id = $1 AND user_id = $2`, id, ownerID)
	t, err := scanTask(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return model.Task{}, fmt.Errorf("task %s: %w", id, ErrNotFound)
		}
		return model.Task{}, fmt.Errorf("failed to query task: %w", err)
	}
	return t, nil
}

// ListByOwner returns one page of the owner's tasks, newest first, plus the
// owner's total task count.
func (r *taskRepo) ListByOwner(ctx context.Context, ownerID uuid.UUID, limit, offset int) ([]model.Task, int, error) {
	var total int
	if err := r.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM tasks WHERE user_id = $1`, ownerID).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("count tasks: %w", err)
	}

	rows, err := r.db.QueryContext(ctx, `
		SELECT `+taskColumns+`
		FROM tasks
		WHERE user_id = $1
		ORDER BY created_at DESC, id DESC
		LIMIT $2 OFFSET $3
	`, ownerID, limit, offset)
	if err != nil {
		return nil, 0, fmt.Errorf("list tasks: %w", err)
	}
	defer rows.Close()

	tasks := make([]model.Task, 0, limit)
	for rows.Next() {
		t, err := scanTask(rows)
		if err != nil {
			return nil, 0, fmt.Errorf("scan task: %w", err)
		}
		tasks = append(tasks, t)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, fmt.Errorf("list tasks: %w", err)
	}
	return tasks, total, nil
}

// Update writes every mutable column of the task and refreshes UpdatedAt.
func (r *taskRepo) Update(ctx context.Context, task *model.Task) error {
	err := r.db.QueryRowContext(ctx, `
		UPDATE tasks
		SET title = $3, description = $4, start_date = $5, end_date = $6, due_date = $7,
			priority = $8, status = $9, cognitive_load = $10, focus_slot = $11,
			reschedule_count = $12, updated_at = now()
		WHERE id = $1 AND user_id = $2
		RETURNING updated_at
	`,
		task.ID,
		task.UserID,
		task.Title,
		task.Description,
		nullTime(task.StartDate),
		nullTime(task.EndDate),
		nullTime(task.DueDate),
		string(task.Priority),
		string(task.Status),
		nullLoad(task.CognitiveLoad),
		nullString(task.FocusSlot),
		task.RescheduleCount,
	).Scan(&task.UpdatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return fmt.Errorf("task %s: %w", task.ID, ErrNotFound)
		}
		return fmt.Errorf("failed to update task: %w", err)
	}
	return nil
}

// Delete removes the owner's task
func (r *taskRepo) Delete(ctx context.Context, ownerID, id uuid.UUID) error {
	result, err := r.db.ExecContext(ctx, `DELETE FROM tasks WHERE id = $1 AND user_id = $2`, id, ownerID)
	if err != nil {
		return fmt.Errorf("failed to delete task: %w", err)
	}
	n, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to delete task: %w", err)
	}
	if n == 0 {
		return fmt.Errorf("task %s: %w", id, ErrNotFound)
	}
	return nil
}
