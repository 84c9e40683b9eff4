package repo

import (
	"context"
	"database/sql"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/google/uuid"
	"github.com/lib/pq"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/focusnest/server/internal/model"
)

func newMock(t *testing.T) (*sql.DB, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	return db, mock
}

var userCols = []string{"id", "first_name", "last_name", "email", "password_hash", "focus_peaks",
	"otp_hash", "otp_expires_at", "created_at", "updated_at"}

func TestUserRepo_Create(t *testing.T) {
	db, mock := newMock(t)
	r := NewUserRepo(db)
	id := uuid.New()
	now := time.Now().UTC()

	mock.ExpectQuery(`INSERT INTO users`).
		WithArgs("Ada", "Lovelace", "ada@example.com", "hash", sqlmock.AnyArg()).
		WillReturnRows(sqlmock.NewRows([]string{"id", "created_at", "updated_at"}).AddRow(id.String(), now, now))

	u := &model.User{FirstName: "Ada", LastName: "Lovelace", Email: "ada@example.com", PasswordHash: "hash"}
	require.NoError(t, r.Create(context.Background(), u))
	assert.Equal(t, id, u.ID)
	assert.NotNil(t, u.FocusPeaks)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestUserRepo_Create_DuplicateEmail(t *testing.T) {
	db, mock := newMock(t)
	r := NewUserRepo(db)

	mock.ExpectQuery(`INSERT INTO users`).
		WillReturnError(&pq.Error{Code: "23505", Message: "duplicate key value violates unique constraint"})

	err := r.Create(context.Background(), &model.User{Email: "ada@example.com"})
	assert.ErrorIs(t, err, ErrDuplicate)
}

func TestUserRepo_GetByEmail(t *testing.T) {
	db, mock := newMock(t)
	r := NewUserRepo(db)
	id := uuid.New()
	now := time.Now().UTC()

	mock.ExpectQuery(`SELECT .+ FROM users WHERE email = \$1`).
		WithArgs("ada@example.com").
		WillReturnRows(sqlmock.NewRows(userCols).
			AddRow(id.String(), "Ada", "Lovelace", "ada@example.com", "hash", "{9-11AM,7-9PM}", nil, nil, now, now))

	u, err := r.GetByEmail(context.Background(), "ada@example.com")
	require.NoError(t, err)
	assert.Equal(t, id, u.ID)
	assert.Equal(t, []string{"9-11AM", "7-9PM"}, u.FocusPeaks)
	assert.Nil(t, u.OTPHash)
	assert.Nil(t, u.OTPExpiresAt)
}

func TestUserRepo_GetByEmail_NotFound(t *testing.T) {
	db, mock := newMock(t)
	r := NewUserRepo(db)

	mock.ExpectQuery(`SELECT .+ FROM users WHERE email = \$1`).
		WithArgs("nobody@example.com").
		WillReturnRows(sqlmock.NewRows(userCols))

	_, err := r.GetByEmail(context.Background(), "nobody@example.com")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestUserRepo_GetByID_EmptyPeaksNeverNil(t *testing.T) {
	db, mock := newMock(t)
	r := NewUserRepo(db)
	id := uuid.New()
	now := time.Now().UTC()

	mock.ExpectQuery(`SELECT .+ FROM users WHERE id = \$1`).
		WillReturnRows(sqlmock.NewRows(userCols).
			AddRow(id.String(), "Ada", "Lovelace", "ada@example.com", "hash", "{}", nil, nil, now, now))

	u, err := r.GetByID(context.Background(), id)
	require.NoError(t, err)
	assert.NotNil(t, u.FocusPeaks)
	assert.Empty(t, u.FocusPeaks)
}

func TestOtpRepo_ReplaceChallenge_UnknownUser(t *testing.T) {
	db, mock := newMock(t)
	r := NewOtpRepo(db)

	mock.ExpectExec(`UPDATE users\s+SET otp_hash = \$2, otp_expires_at = \$3`).
		WillReturnResult(sqlmock.NewResult(0, 0))

	err := r.ReplaceChallenge(context.Background(), uuid.New(), "hash", time.Now())
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestOtpRepo_ConsumeChallenge(t *testing.T) {
	db, mock := newMock(t)
	r := NewOtpRepo(db)
	id := uuid.New()
	now := time.Date(2025, 3, 1, 9, 0, 0, 0, time.UTC)

	mock.ExpectQuery(`UPDATE users\s+SET otp_hash = NULL, otp_expires_at = NULL.+otp_expires_at > \$3`).
		WithArgs("ada@example.com", "hash", now).
		WillReturnRows(sqlmock.NewRows(userCols).
			AddRow(id.String(), "Ada", "Lovelace", "ada@example.com", "pw", "{}", nil, nil, now, now))

	u, err := r.ConsumeChallenge(context.Background(), "ada@example.com", "hash", now)
	require.NoError(t, err)
	assert.Equal(t, id, u.ID)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestOtpRepo_ConsumeChallenge_NoMatch(t *testing.T) {
	db, mock := newMock(t)
	r := NewOtpRepo(db)

	mock.ExpectQuery(`UPDATE users`).WillReturnRows(sqlmock.NewRows(userCols))

	_, err := r.ConsumeChallenge(context.Background(), "ada@example.com", "wrong", time.Now())
	assert.ErrorIs(t, err, ErrNotFound)
}

var taskCols = []string{"id", "user_id", "title", "description", "start_date", "end_date", "due_date",
	"priority", "status", "cognitive_load", "focus_slot", "reschedule_count", "created_at", "updated_at"}

func TestTaskRepo_GetByID(t *testing.T) {
	db, mock := newMock(t)
	r := NewTaskRepo(db)
	owner, id := uuid.New(), uuid.New()
	now := time.Now().UTC()

	mock.ExpectQuery(`SELECT .+ FROM tasks WHERE id = \$1 AND user_id = \$2`).
		WithArgs(id, owner).
		WillReturnRows(sqlmock.NewRows(taskCols).AddRow(
			id.String(), owner.String(), "Write quarterly report", "", nil, nil, now,
			"High", "Pending", "High", "9-11AM", 0, now, now))

	got, err := r.GetByID(context.Background(), owner, id)
	require.NoError(t, err)
	assert.Equal(t, model.PriorityHigh, got.Priority)
	require.NotNil(t, got.CognitiveLoad)
	assert.Equal(t, model.LoadHigh, *got.CognitiveLoad)
	require.NotNil(t, got.FocusSlot)
	assert.Equal(t, "9-11AM", *got.FocusSlot)
	assert.Nil(t, got.StartDate)
	require.NotNil(t, got.DueDate)
}

func TestTaskRepo_GetByID_OtherOwner(t *testing.T) {
	db, mock := newMock(t)
	r := NewTaskRepo(db)

	mock.ExpectQuery(`SELECT .+ FROM tasks`).WillReturnRows(sqlmock.NewRows(taskCols))

	_, err := r.GetByID(context.Background(), uuid.New(), uuid.New())
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestTaskRepo_Create_NullableColumns(t *testing.T) {
	db, mock := newMock(t)
	r := NewTaskRepo(db)
	id := uuid.New()
	now := time.Now().UTC()

	mock.ExpectQuery(`INSERT INTO tasks`).
		WithArgs(sqlmock.AnyArg(), "Title", "", nil, nil, nil, "Medium", "Pending", nil, nil, 0).
		WillReturnRows(sqlmock.NewRows([]string{"id", "created_at", "updated_at"}).AddRow(id.String(), now, now))

	task := &model.Task{UserID: uuid.New(), Title: "Title", Priority: model.PriorityMedium, Status: model.StatusPending}
	require.NoError(t, r.Create(context.Background(), task))
	assert.Equal(t, id, task.ID)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestTaskRepo_ListByOwner(t *testing.T) {
	db, mock := newMock(t)
	r := NewTaskRepo(db)
	owner := uuid.New()
	now := time.Now().UTC()

	mock.ExpectQuery(`SELECT COUNT\(\*\) FROM tasks WHERE user_id = \$1`).
		WithArgs(owner).
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(12))
	mock.ExpectQuery(`ORDER BY created_at DESC`).
		WithArgs(owner, 10, 10).
		WillReturnRows(sqlmock.NewRows(taskCols).
			AddRow(uuid.NewString(), owner.String(), "b", "", nil, nil, nil, "Medium", "Pending", nil, nil, 0, now, now).
			AddRow(uuid.NewString(), owner.String(), "a", "", nil, nil, nil, "Low", "Completed", "Low", nil, 2, now, now))

	tasks, total, err := r.ListByOwner(context.Background(), owner, 10, 10)
	require.NoError(t, err)
	assert.Equal(t, 12, total)
	require.Len(t, tasks, 2)
	assert.Nil(t, tasks[0].CognitiveLoad)
	assert.Equal(t, 2, tasks[1].RescheduleCount)
}

func TestTaskRepo_Delete_NotFound(t *testing.T) {
	db, mock := newMock(t)
	r := NewTaskRepo(db)

	mock.ExpectExec(`DELETE FROM tasks WHERE id = \$1 AND user_id = \$2`).
		WillReturnResult(sqlmock.NewResult(0, 0))

	err := r.Delete(context.Background(), uuid.New(), uuid.New())
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestTaskRepo_Update_NotFound(t *testing.T) {
	db, mock := newMock(t)
	r := NewTaskRepo(db)

	mock.ExpectQuery(`UPDATE tasks`).WillReturnRows(sqlmock.NewRows([]string{"updated_at"}))

	err := r.Update(context.Background(), &model.Task{ID: uuid.New(), UserID: uuid.New(), Title: "x"})
	assert.ErrorIs(t, err, ErrNotFound)
}
