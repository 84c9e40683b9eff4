// Package scheduling turns task text into a cognitive-load label and a focus
// slot recommendation by asking the completion service and parsing its reply.
package scheduling

import (
	"context"
	"fmt"
	"log/slog"
	"regexp"
	"strings"

	"github.com/focusnest/server/internal/apperr"
	"github.com/focusnest/server/internal/llm"
	"github.com/focusnest/server/internal/model"
)

// FallbackPolicy decides what an unparseable classification reply means.
type FallbackPolicy int

const (
	// FailOnUnparseable turns an unparseable reply into KindUpstreamError.
	FailOnUnparseable FallbackPolicy = iota
	// DefaultToMedium substitutes Medium for an unparseable reply.
	DefaultToMedium
)

const classifierRole = "You are a productivity assistant that rates how mentally demanding tasks are."

var classifierSampling = llm.Sampling{Temperature: 0.3, TopP: 1.0}

var loadLabel = regexp.MustCompile(`(?i)\b(low|medium|high)\b`)

// Classification is the outcome of one classification call. Defaulted is set
// when the reply held no label and DefaultToMedium supplied one.
type Classification struct {
	Load      model.CognitiveLoad
	Defaulted bool
}

// Classifier labels a task Low, Medium or High.
type Classifier struct {
	gateway llm.Gateway
	policy  FallbackPolicy
	logger  *slog.Logger
}

// NewClassifier creates a new Classifier
func NewClassifier(gateway llm.Gateway, policy FallbackPolicy, logger *slog.Logger) *Classifier {
	return &Classifier{gateway: gateway, policy: policy, logger: logger}
}

// Classify asks the completion service for a label. At least one of title and
// description must be non-blank. Gateway errors are returned unchanged under
// either policy.
func (c *Classifier) Classify(ctx context.Context, title, description string) (Classification, error) {
	title = strings.TrimSpace(title)
	description = strings.TrimSpace(description)
	if title == "" && description == "" {
		return Classification{}, apperr.BadRequest("Title or description is required")
	}

	reply, err := c.gateway.Complete(ctx, classifierRole, classificationPrompt(title, description), classifierSampling)
	if err != nil {
		return Classification{}, err
	}

	load, ok := parseLoad(reply)
	if ok {
		return Classification{Load: load}, nil
	}

	if c.policy == DefaultToMedium {
		c.logger.WarnContext(ctx, "unparseable cognitive load reply, using Medium", "reply", truncate(reply, 80))
		return Classification{Load: model.LoadMedium, Defaulted: true}, nil
	}
	return Classification{}, apperr.New(apperr.KindUpstreamError, "could not read a cognitive load from the completion service")
}

func classificationPrompt(title, description string) string {
	var b strings.Builder
	b.WriteString("You are a productivity expert. Classify the cognitive load of the task below as \"Low\", \"Medium\" or \"High\".\n\n")
	b.WriteString("Examples:\n")
	b.WriteString("- Writing an article = High\n")
	b.WriteString("- Reading emails = Low\n")
	b.WriteString("- Reviewing a pull request = Medium\n\n")
	b.WriteString("Respond with only the label.\n\n")
	fmt.Fprintf(&b, "Task Title: %q\n", title)
	fmt.Fprintf(&b, "Task Description: %q\n", description)
	b.WriteString("Cognitive Load:")
	return b.String()
}

// parseLoad extracts the first whole-word label from the reply, then
// validates it against the enumeration.
func parseLoad(reply string) (model.CognitiveLoad, bool) {
	m := loadLabel.FindStringSubmatch(strings.TrimSpace(reply))
	if m == nil {
		return "", false
	}
	return model.ParseCognitiveLoad(m[1])
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}
