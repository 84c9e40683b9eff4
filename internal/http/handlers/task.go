package handlers

import (
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/focusnest/server/internal/apperr"
	"github.com/focusnest/server/internal/model"
	"github.com/focusnest/server/internal/task"
)

const msgTaskDeleted = "Task deleted successfully"

// TaskHandler handles /task endpoints. Every operation is scoped to the
// authenticated user.
type TaskHandler struct {
	tasks  *task.Service
	logger *slog.Logger
}

func NewTaskHandler(tasks *task.Service, logger *slog.Logger) *TaskHandler {
	return &TaskHandler{tasks: tasks, logger: logger}
}

// taskRequest is shared by create and update. Absent fields stay nil.
type taskRequest struct {
	Title           *string   `json:"title"`
	Description     *string   `json:"description"`
	StartDate       *flexTime `json:"startDate"`
	EndDate         *flexTime `json:"endDate"`
	DueDate         *flexTime `json:"dueDate"`
	Priority        *string   `json:"priority"`
	Status          *string   `json:"status"`
	CognitiveLoad   *string   `json:"cognitiveLoad"`
	FocusSlot       *string   `json:"focusSlot"`
	RescheduleCount *int      `json:"rescheduleCount"`
}

func (req taskRequest) load() *model.CognitiveLoad {
	if req.CognitiveLoad == nil {
		return nil
	}
	if l, ok := model.ParseCognitiveLoad(*req.CognitiveLoad); ok {
		return &l
	}
	// Left as sent so validation reports it.
	l := model.CognitiveLoad(*req.CognitiveLoad)
	return &l
}

type taskResponse struct {
	ID              string               `json:"id"`
	UserID          string               `json:"userId"`
	Title           string               `json:"title"`
	Description     string               `json:"description"`
	StartDate       *time.Time           `json:"startDate,omitempty"`
	EndDate         *time.Time           `json:"endDate,omitempty"`
	DueDate         *time.Time           `json:"dueDate,omitempty"`
	Priority        model.Priority       `json:"priority"`
	Status          model.Status         `json:"status"`
	CognitiveLoad   *model.CognitiveLoad `json:"cognitiveLoad,omitempty"`
	FocusSlot       *string              `json:"focusSlot,omitempty"`
	RescheduleCount int                  `json:"rescheduleCount"`
	CreatedAt       time.Time            `json:"createdAt"`
	UpdatedAt       time.Time            `json:"updatedAt"`
}

func newTaskResponse(t *model.Task) taskResponse {
	return taskResponse{
		ID:              t.ID.String(),
		UserID:          t.UserID.String(),
		Title:           t.Title,
		Description:     t.Description,
		StartDate:       t.StartDate,
		EndDate:         t.EndDate,
		DueDate:         t.DueDate,
		Priority:        t.Priority,
		Status:          t.Status,
		CognitiveLoad:   t.CognitiveLoad,
		FocusSlot:       t.FocusSlot,
		RescheduleCount: t.RescheduleCount,
		CreatedAt:       t.CreatedAt,
		UpdatedAt:       t.UpdatedAt,
	}
}

type pageResponse struct {
	CurrentPage int            `json:"currentPage"`
	TotalPages  int            `json:"totalPages"`
	TotalTasks  int            `json:"totalTasks"`
	Tasks       []taskResponse `json:"tasks"`
}

type messageResponse struct {
	Message string `json:"message"`
}

// HandleCreate handles POST /task
func (h *TaskHandler) HandleCreate(w http.ResponseWriter, r *http.Request) {
	userID, err := currentUser(r)
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}
	var req taskRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, r, h.logger, err)
		return
	}

	in := task.CreateInput{
		StartDate:       req.StartDate.ptr(),
		EndDate:         req.EndDate.ptr(),
		DueDate:         req.DueDate.ptr(),
		Priority:        (*model.Priority)(req.Priority),
		Status:          (*model.Status)(req.Status),
		CognitiveLoad:   req.load(),
		FocusSlot:       req.FocusSlot,
		RescheduleCount: req.RescheduleCount,
	}
	if req.Title != nil {
		in.Title = *req.Title
	}
	if req.Description != nil {
		in.Description = *req.Description
	}

	created, err := h.tasks.Create(r.Context(), userID, in)
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}
	writeJSON(w, http.StatusCreated, newTaskResponse(created))
}

// HandleList handles GET /task?page=&limit=
func (h *TaskHandler) HandleList(w http.ResponseWriter, r *http.Request) {
	userID, err := currentUser(r)
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}

	// Unparseable values fall back to the service defaults.
	page, _ := strconv.Atoi(r.URL.Query().Get("page"))
	limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))

	p, err := h.tasks.List(r.Context(), userID, page, limit)
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}
	resp := pageResponse{
		CurrentPage: p.CurrentPage,
		TotalPages:  p.TotalPages,
		TotalTasks:  p.TotalTasks,
		Tasks:       make([]taskResponse, 0, len(p.Tasks)),
	}
	for i := range p.Tasks {
		resp.Tasks = append(resp.Tasks, newTaskResponse(&p.Tasks[i]))
	}
	writeJSON(w, http.StatusOK, resp)
}

// HandleGet handles GET /task/{id}
func (h *TaskHandler) HandleGet(w http.ResponseWriter, r *http.Request) {
	userID, id, err := ownerAndTaskID(r)
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}

	t, err := h.tasks.Get(r.Context(), userID, id)
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, newTaskResponse(t))
}

// HandleUpdate handles PUT /task/{id}
func (h *TaskHandler) HandleUpdate(w http.ResponseWriter, r *http.Request) {
	userID, id, err := ownerAndTaskID(r)
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}
	var req taskRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, r, h.logger, err)
		return
	}

	updated, err := h.tasks.Update(r.Context(), userID, id, task.UpdateInput{
		Title:           req.Title,
		Description:     req.Description,
		StartDate:       req.StartDate.ptr(),
		EndDate:         req.EndDate.ptr(),
		DueDate:         req.DueDate.ptr(),
		Priority:        (*model.Priority)(req.Priority),
		Status:          (*model.Status)(req.Status),
		CognitiveLoad:   req.load(),
		FocusSlot:       req.FocusSlot,
		RescheduleCount: req.RescheduleCount,
	})
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, newTaskResponse(updated))
}

// HandleDelete handles DELETE /task/{id}
func (h *TaskHandler) HandleDelete(w http.ResponseWriter, r *http.Request) {
	userID, id, err := ownerAndTaskID(r)
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}

	if err := h.tasks.Delete(r.Context(), userID, id); err != nil {
		writeError(w, r, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, messageResponse{Message: msgTaskDeleted})
}

// ownerAndTaskID reads the caller and the {id} URL param. A malformed ID
// cannot name an existing task, so it is reported as not found.
func ownerAndTaskID(r *http.Request) (uuid.UUID, uuid.UUID, error) {
	userID, err := currentUser(r)
	if err != nil {
		return uuid.Nil, uuid.Nil, err
	}
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		return uuid.Nil, uuid.Nil, apperr.NotFound("Task not found")
	}
	return userID, id, nil
}
