// Package aitest provides deterministic in-memory providers for tests.
package aitest

import (
	"context"
	"errors"
	"hash/fnv"
	"strings"
	"sync"
	"unicode"
)

// HashEmbedder maps every lower-cased word to a bucket and counts them, so
// texts sharing words get similar vectors without any network access.
type HashEmbedder struct {
	Dim int
	// Err, when set, is returned by every call.
	Err error

	mu    sync.Mutex
	calls int
}

// Embed returns the bag-of-words vector of text.
func (e *HashEmbedder) Embed(ctx context.Context, text string) ([]float32, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	e.mu.Lock()
	e.calls++
	e.mu.Unlock()

	if e.Err != nil {
		return nil, e.Err
	}

	dim := e.Dim
	if dim <= 0 {
		dim = 64
	}

	vec := make([]float32, dim)
	words := strings.FieldsFunc(strings.ToLower(text), func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r)
	})
	for _, word := range words {
		h := fnv.New32a()
		_, _ = h.Write([]byte(word))
		vec[h.Sum32()%uint32(dim)]++
	}
	return vec, nil
}

// Model returns a fixed name.
func (e *HashEmbedder) Model() string { return "hash-embedder" }

// Calls returns how many times Embed ran.
func (e *HashEmbedder) Calls() int {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.calls
}

// Reply is one scripted generator answer.
type Reply struct {
	Text string
	Err  error
}

// ScriptedGenerator answers prompts from a script. Replies are chosen by the
// first Match key contained in the prompt, falling back to the Default queue.
// The last reply of a queue repeats once the queue is drained.
type ScriptedGenerator struct {
	Match   map[string][]Reply
	Default []Reply

	mu      sync.Mutex
	prompts []string
	served  map[string]int
}

// GenerateContent returns the next scripted reply for prompt.
func (g *ScriptedGenerator) GenerateContent(ctx context.Context, prompt string) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}

	g.mu.Lock()
	defer g.mu.Unlock()

	g.prompts = append(g.prompts, prompt)
	if g.served == nil {
		g.served = make(map[string]int)
	}

	key, queue := "", g.Default
	for match, replies := range g.Match {
		if strings.Contains(prompt, match) {
			key, queue = match, replies
			break
		}
	}
	if len(queue) == 0 {
		return "", errors.New("no scripted reply")
	}

	n := g.served[key]
	g.served[key] = n + 1
	reply := queue[min(n, len(queue)-1)]
	return reply.Text, reply.Err
}

// Model returns a fixed name.
func (g *ScriptedGenerator) Model() string { return "scripted-generator" }

// Prompts returns every prompt received so far.
func (g *ScriptedGenerator) Prompts() []string {
	g.mu.Lock()
	defer g.mu.Unlock()
	return append([]string(nil), g.prompts...)
}
