package scheduling

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/focusnest/server/internal/apperr"
	"github.com/focusnest/server/internal/llm"
	"github.com/focusnest/server/internal/model"
)

const (
	recommenderRole = "You are a productivity assistant that plans deep work around a person's energy levels."

	slotPrefix   = "focus slot:"
	reasonPrefix = "reason:"

	msgNoFocusPeaks = "User has not set focus preferences yet."
)

var recommenderSampling = llm.Sampling{Temperature: 0.7, TopP: 1.0}

// SlotRecommendation is one recommended focus peak. Reason is advisory and may be empty.
type SlotRecommendation struct {
	Slot   string
	Reason string
}

// Recommender picks a focus slot for a task from the user's focus peaks.
type Recommender struct {
	gateway llm.Gateway
	logger  *slog.Logger
}

// NewRecommender creates a new Recommender
func NewRecommender(gateway llm.Gateway, logger *slog.Logger) *Recommender {
	return &Recommender{gateway: gateway, logger: logger}
}

// Recommend asks for one slot plus a short reason.
func (r *Recommender) Recommend(ctx context.Context, peaks []string, title string, load model.CognitiveLoad) (SlotRecommendation, error) {
	title = strings.TrimSpace(title)
	if title == "" || !load.Valid() {
		return SlotRecommendation{}, apperr.BadRequest("Title and cognitiveLoad are required")
	}
	if len(peaks) == 0 {
		return SlotRecommendation{}, apperr.BadRequest(msgNoFocusPeaks)
	}

	reply, err := r.gateway.Complete(ctx, recommenderRole, recommendationPrompt(peaks, title, load), recommenderSampling)
	if err != nil {
		return SlotRecommendation{}, err
	}

	rec, ok := parseRecommendation(reply)
	if !ok {
		r.logger.WarnContext(ctx, "focus slot reply had no slot", "reply", truncate(reply, 80))
		return SlotRecommendation{}, apperr.New(apperr.KindUpstreamError, "could not read a focus slot from the completion service")
	}
	return rec, nil
}

func recommendationPrompt(peaks []string, title string, load model.CognitiveLoad) string {
	var b strings.Builder
	b.WriteString("Based on the user's focus time preferences and the task below, suggest the best time block for the work.\n\n")
	b.WriteString("Provide:\n")
	b.WriteString("1. The recommended focus slot, chosen from the user's focus peaks.\n")
	b.WriteString("2. A short reason why that slot fits, based on energy levels or cognitive load.\n\n")
	fmt.Fprintf(&b, "User's Focus Peaks: %s\n", strings.Join(peaks, ", "))
	fmt.Fprintf(&b, "Task: %s\n", title)
	fmt.Fprintf(&b, "Cognitive Load: %s\n\n", load)
	b.WriteString("Respond in exactly this format:\n")
	b.WriteString("Focus Slot: <recommended slot>\n")
	b.WriteString("Reason: <brief explanation>")
	return b.String()
}

// parseRecommendation reads the slot from the first line and the reason from
// the next non-empty line. Label prefixes are matched case-insensitively.
func parseRecommendation(reply string) (SlotRecommendation, bool) {
	lines := strings.Split(strings.TrimSpace(reply), "\n")
	for i := range lines {
		lines[i] = strings.TrimSpace(lines[i])
	}

	slot := stripPrefix(lines[0], slotPrefix)
	if slot == "" {
		return SlotRecommendation{}, false
	}

	rec := SlotRecommendation{Slot: slot}
	for _, line := range lines[1:] {
		if line == "" {
			continue
		}
		rec.Reason = stripPrefix(line, reasonPrefix)
		break
	}
	return rec, true
}

func stripPrefix(line, prefix string) string {
	if len(line) >= len(prefix) && strings.EqualFold(line[:len(prefix)], prefix) {
		line = line[len(prefix):]
	}
	return strings.TrimSpace(line)
}
