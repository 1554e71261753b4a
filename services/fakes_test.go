package services

import (
	"context"
	"errors"
	"strings"
	"sync"
)

// scriptedGateway trả lần lượt từng phản hồi, hết script thì lặp lại phản hồi cuối.
type scriptedGateway struct {
	mu        sync.Mutex
	responses []string
	errs      []error
	calls     int
	byPrompt  map[string]string
}

func newScriptedGateway(responses ...string) *scriptedGateway {
	return &scriptedGateway{responses: responses}
}

func (g *scriptedGateway) Complete(ctx context.Context, systemPrompt, userPrompt string, params CompletionParams) (string, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	idx := g.calls
	g.calls++

	if err := ctx.Err(); err != nil {
		return "", err
	}
	for marker, resp := range g.byPrompt {
		if containsFold(systemPrompt, marker) {
			return resp, nil
		}
	}
	if idx < len(g.errs) && g.errs[idx] != nil {
		return "", g.errs[idx]
	}
	if len(g.responses) == 0 {
		return "", errors.New("no scripted response")
	}
	if idx >= len(g.responses) {
		idx = len(g.responses) - 1
	}
	return g.responses[idx], nil
}

func (g *scriptedGateway) Calls() int {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.calls
}

func containsFold(s, sub string) bool {
	return sub != "" && strings.Contains(strings.ToLower(s), strings.ToLower(sub))
}

type recordingNotifier struct {
	mu     sync.Mutex
	events []ProgressEvent
}

func (n *recordingNotifier) NotifyProgress(fileID string, ev ProgressEvent) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.events = append(n.events, ev)
}

func (n *recordingNotifier) stages(kind string) []string {
	n.mu.Lock()
	defer n.mu.Unlock()
	var out []string
	for _, ev := range n.events {
		if ev.Kind == kind {
			out = append(out, ev.Stage)
		}
	}
	return out
}
