package agents

import (
	"context"
	"sync"
)

// scriptedLLM returns its responses in order, repeating the last one.
type scriptedLLM struct {
	mu        sync.Mutex
	responses []string
	errs      []error
	requests  []CompletionRequest
}

func (s *scriptedLLM) Complete(ctx context.Context, req CompletionRequest) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	i := len(s.requests)
	s.requests = append(s.requests, req)

	if i < len(s.errs) && s.errs[i] != nil {
		return "", s.errs[i]
	}
	if len(s.responses) == 0 {
		return "", nil
	}
	if i >= len(s.responses) {
		i = len(s.responses) - 1
	}
	return s.responses[i], nil
}

func (s *scriptedLLM) calls() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.requests)
}
