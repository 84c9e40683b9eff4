package scheduling

import (
	"context"
	"io"
	"log/slog"
	"sync"

	"github.com/focusnest/server/internal/apperr"
	"github.com/focusnest/server/internal/llm"
)

type call struct {
	role     string
	prompt   string
	sampling llm.Sampling
}

type reply struct {
	text string
	err  error
}

// fakeGateway answers classifier and recommender prompts from fixed replies
// and records every call.
type fakeGateway struct {
	mu        sync.Mutex
	classify  reply
	recommend reply
	calls     []call
}

func (f *fakeGateway) Complete(ctx context.Context, role, prompt string, s llm.Sampling) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls = append(f.calls, call{role: role, prompt: prompt, sampling: s})
	if err := ctx.Err(); err != nil {
		return "", apperr.Wrap(apperr.KindUpstreamUnavailable, "completion service timed out", err)
	}
	r := f.recommend
	if role == classifierRole {
		r = f.classify
	}
	return r.text, r.err
}

func (f *fakeGateway) count(role string) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	n := 0
	for _, c := range f.calls {
		if c.role == role {
			n++
		}
	}
	return n
}

func (f *fakeGateway) lastPrompt(role string) string {
	f.mu.Lock()
	defer f.mu.Unlock()
	for i := len(f.calls) - 1; i >= 0; i-- {
		if f.calls[i].role == role {
			return f.calls[i].prompt
		}
	}
	return ""
}

func quietLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func unreachable() error {
	return apperr.New(apperr.KindUpstreamUnavailable, "completion service unreachable")
}
