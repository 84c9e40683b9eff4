package handlers

import (
	"log/slog"
	"net/http"

	"github.com/focusnest/server/internal/auth"
	"github.com/focusnest/server/internal/model"
	"github.com/focusnest/server/internal/scheduling"
)

// AIHandler exposes the classifier and recommender as standalone endpoints.
type AIHandler struct {
	authService *auth.AuthService
	classifier  *scheduling.Classifier
	recommender *scheduling.Recommender
	logger      *slog.Logger
}

func NewAIHandler(authService *auth.AuthService, classifier *scheduling.Classifier, recommender *scheduling.Recommender, logger *slog.Logger) *AIHandler {
	return &AIHandler{authService: authService, classifier: classifier, recommender: recommender, logger: logger}
}

type scheduleRequest struct {
	Title         string `json:"title"`
	CognitiveLoad string `json:"cognitiveLoad"`
}

type scheduleResponse struct {
	SuggestedFocusSlot string `json:"suggestedFocusSlot"`
	Reason             string `json:"reason"`
}

type cognitiveLoadRequest struct {
	Title       string `json:"title"`
	Description string `json:"description"`
}

type cognitiveLoadResponse struct {
	CognitiveLoad model.CognitiveLoad `json:"cognitiveLoad"`
}

// HandleSchedule handles POST /tasks/schedule
func (h *AIHandler) HandleSchedule(w http.ResponseWriter, r *http.Request) {
	userID, err := currentUser(r)
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}
	var req scheduleRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, r, h.logger, err)
		return
	}

	user, err := h.authService.Me(r.Context(), userID)
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}

	// An unknown label stays invalid and is rejected by the recommender.
	load, _ := model.ParseCognitiveLoad(req.CognitiveLoad)
	rec, err := h.recommender.Recommend(r.Context(), user.FocusPeaks, req.Title, load)
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, scheduleResponse{SuggestedFocusSlot: rec.Slot, Reason: rec.Reason})
}

// HandleCognitiveLoad handles POST /tasks/cognitive-load
func (h *AIHandler) HandleCognitiveLoad(w http.ResponseWriter, r *http.Request) {
	var req cognitiveLoadRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, r, h.logger, err)
		return
	}

	c, err := h.classifier.Classify(r.Context(), req.Title, req.Description)
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, cognitiveLoadResponse{CognitiveLoad: c.Load})
}
