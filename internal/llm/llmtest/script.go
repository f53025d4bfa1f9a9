// Package llmtest provides a scripted llm.Generator for tests.
package llmtest

import (
	"context"
	"fmt"
	"strings"
	"sync"
)

// Reply is one scripted answer: Text, or Err when non-nil.
type Reply struct {
	Text string
	Err  error
}

// Script answers prompts from a queue. Rules registered with On take precedence and
// match by substring, which keeps tests independent of prompt wording elsewhere.
type Script struct {
	mu      sync.Mutex
	queue   []Reply
	rules   []rule
	prompts []string
}

type rule struct {
	contains string
	replies  []Reply
}

// New returns a script that answers with the given texts in order.
func New(texts ...string) *Script {
	s := &Script{}
	for _, t := range texts {
		s.queue = append(s.queue, Reply{Text: t})
	}
	return s
}

// Then queues a text reply.
func (s *Script) Then(text string) *Script {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.queue = append(s.queue, Reply{Text: text})
	return s
}

// ThenErr queues a failure.
func (s *Script) ThenErr(err error) *Script {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.queue = append(s.queue, Reply{Err: err})
	return s
}

// On answers prompts containing substr with replies, in order; the last reply repeats.
func (s *Script) On(substr string, replies ...Reply) *Script {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.rules = append(s.rules, rule{contains: substr, replies: replies})
	return s
}

// Generate implements llm.Generator.
func (s *Script) Generate(ctx context.Context, prompt string) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.prompts = append(s.prompts, prompt)

	for i := range s.rules {
		r := &s.rules[i]
		if !strings.Contains(prompt, r.contains) || len(r.replies) == 0 {
			continue
		}
		reply := r.replies[0]
		if len(r.replies) > 1 {
			r.replies = r.replies[1:]
		}
		return reply.Text, reply.Err
	}

	if len(s.queue) == 0 {
		return "", fmt.Errorf("llmtest: no scripted reply for prompt %d", len(s.prompts))
	}
	reply := s.queue[0]
	s.queue = s.queue[1:]
	return reply.Text, reply.Err
}

// Prompts returns every prompt received so far.
func (s *Script) Prompts() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]string(nil), s.prompts...)
}

// Calls returns the number of Generate calls.
func (s *Script) Calls() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.prompts)
}

// Remaining returns the number of unconsumed queued replies.
func (s *Script) Remaining() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.queue)
}
