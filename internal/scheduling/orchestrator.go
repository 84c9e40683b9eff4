package scheduling

import (
	"context"
	"log/slog"

	"github.com/focusnest/server/internal/apperr"
	"github.com/focusnest/server/internal/llm"
	"github.com/focusnest/server/internal/model"
)

// Draft holds the task fields the enricher may fill in. Nil means "not supplied".
type Draft struct {
	Title         string
	Description   string
	CognitiveLoad *model.CognitiveLoad
	FocusSlot     *string
}

// Outcome records what happened to one enrichment step.
type Outcome string

const (
	OutcomeSupplied  Outcome = "supplied"  // caller gave a value, no call made
	OutcomeComputed  Outcome = "computed"  // value came from the completion service
	OutcomeDefaulted Outcome = "defaulted" // reply unparseable, Medium used
	OutcomeSkipped   Outcome = "skipped"   // no focus peaks to choose from
	OutcomeDegraded  Outcome = "degraded"  // call failed, field left unset
)

// Report summarizes one Enrich call.
type Report struct {
	Load Outcome
	Slot Outcome
}

// Enricher back-fills a task's cognitive load and focus slot when the caller
// left them out. It never fails: gateway errors leave the field unset.
type Enricher struct {
	classifier  *Classifier
	recommender *Recommender
	logger      *slog.Logger
}

// NewEnricher creates an Enricher whose classifier falls back to Medium.
func NewEnricher(gateway llm.Gateway, logger *slog.Logger) *Enricher {
	return &Enricher{
		classifier:  NewClassifier(gateway, DefaultToMedium, logger),
		recommender: NewRecommender(gateway, logger),
		logger:      logger,
	}
}

// Enrich runs classification then slot recommendation, in that order, and
// mutates draft in place. Supplied values are kept as they are.
func (e *Enricher) Enrich(ctx context.Context, peaks []string, draft *Draft) Report {
	var report Report

	// Load used to steer the slot prompt; stays Medium if classification failed.
	hint := model.LoadMedium

	if draft.CognitiveLoad != nil {
		report.Load = OutcomeSupplied
		hint = *draft.CognitiveLoad
	} else {
		c, err := e.classifier.Classify(ctx, draft.Title, draft.Description)
		if err != nil {
			e.logger.WarnContext(ctx, "cognitive load enrichment failed",
				"kind", apperr.KindOf(err), "error", err)
			report.Load = OutcomeDegraded
		} else {
			load := c.Load
			draft.CognitiveLoad = &load
			hint = load
			report.Load = OutcomeComputed
			if c.Defaulted {
				report.Load = OutcomeDefaulted
			}
		}
	}

	switch {
	case draft.FocusSlot != nil:
		report.Slot = OutcomeSupplied
	case len(peaks) == 0:
		report.Slot = OutcomeSkipped
	case ctx.Err() != nil:
		report.Slot = OutcomeDegraded
	default:
		rec, err := e.recommender.Recommend(ctx, peaks, draft.Title, hint)
		if err != nil {
			e.logger.WarnContext(ctx, "focus slot enrichment failed",
				"kind", apperr.KindOf(err), "error", err)
			report.Slot = OutcomeDegraded
		} else {
			slot := rec.Slot
			draft.FocusSlot = &slot
			report.Slot = OutcomeComputed
		}
	}

	e.logger.DebugContext(ctx, "task enriched", "load", report.Load, "slot", report.Slot)
	return report
}
