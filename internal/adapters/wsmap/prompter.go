package wsmap

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
)

// Prompter asks questions through the browser and waits for the answer.
type Prompter struct {
	t       Transport
	timeout time.Duration

	mu      sync.Mutex
	pending map[string]chan string
}

// NewPrompter creates a Prompter. A zero timeout waits until ctx ends.
func NewPrompter(t Transport, timeout time.Duration) *Prompter {
	return &Prompter{t: t, timeout: timeout, pending: make(map[string]chan string)}
}

// Prompt sends the question and blocks for the answer. A dismissed prompt
// answers "".
func (p *Prompter) Prompt(ctx context.Context, message string) (string, error) {
	id := uuid.NewString()
	ch := make(chan string, 1)

	p.mu.Lock()
	p.pending[id] = ch
	p.mu.Unlock()
	defer func() {
		p.mu.Lock()
		delete(p.pending, id)
		p.mu.Unlock()
	}()

	if err := send(p.t, ServerMessage{Op: OpPrompt, PromptID: id, Text: message}); err != nil {
		return "", fmt.Errorf("send prompt: %w", err)
	}

	if p.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, p.timeout)
		defer cancel()
	}

	select {
	case answer := <-ch:
		return answer, nil
	case <-ctx.Done():
		return "", fmt.Errorf("prompt %s: %w", id, ctx.Err())
	}
}

// Resolve delivers an answer. It reports false for unknown or already
// answered prompts.
func (p *Prompter) Resolve(id, answer string) bool {
	p.mu.Lock()
	ch, ok := p.pending[id]
	if ok {
		delete(p.pending, id)
	}
	p.mu.Unlock()
	if !ok {
		return false
	}
	ch <- answer
	return true
}

// Pending returns the number of unanswered prompts.
func (p *Prompter) Pending() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return len(p.pending)
}
