// Package feedback asks a language model for strengths, weaknesses and a
// role-fit explanation and turns its unreliable replies into typed results.
package feedback

import (
	"context"
	"strings"
	"time"

	"github.com/mitchellh/mapstructure"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/spigell/cv-align/internal/ai"
)

const (
	fieldStrengths  = "strengths"
	fieldWeaknesses = "weaknesses"
	fieldRoleFit    = "role_fit"
)

// Request is the input of one feedback run.
type Request struct {
	JobDescription string
	Candidate      string
	Score          float64
}

// Result is the feedback of one run. Lists are never nil.
type Result struct {
	Strengths          []string `json:"strengths"`
	Weaknesses         []string `json:"weaknesses"`
	RoleFitExplanation string   `json:"role_fit_explanation"`
}

// Options configures a Generator.
type Options struct {
	MaxRetries    int
	RetryInterval time.Duration
	// Parallel runs the three model calls concurrently.
	Parallel     bool
	MaxLogLength int
	Prompts      Prompts
}

// DefaultOptions returns two retries half a second apart, run in parallel,
// with the built-in prompts.
func DefaultOptions() Options {
	return Options{
		MaxRetries:    DefaultMaxRetries,
		RetryInterval: DefaultRetryInterval,
		Parallel:      true,
		MaxLogLength:  defaultMaxLogLength,
		Prompts:       DefaultPrompts(),
	}
}

// Generator produces feedback with one isolated model call per field group.
type Generator struct {
	caller   *Caller
	prompts  Prompts
	parallel bool
	logger   *zap.Logger
}

// NewGenerator builds a Generator. Empty prompts fall back to the built-in ones.
func NewGenerator(generator ai.Generator, opts Options, log *zap.Logger) *Generator {
	if log == nil {
		log = zap.NewNop()
	}

	prompts := DefaultPrompts()
	prompts.merge(opts.Prompts)

	return &Generator{
		caller:   NewCaller(generator, opts.MaxRetries, opts.RetryInterval, opts.MaxLogLength, log),
		prompts:  prompts,
		parallel: opts.Parallel,
		logger:   log,
	}
}

// Generate never fails: a field group whose calls all fail comes back empty
// without affecting the others.
func (g *Generator) Generate(ctx context.Context, req Request) *Result {
	var strengths, weaknesses, roleFit Outcome

	calls := []struct {
		name     string
		template string
		out      *Outcome
	}{
		{name: fieldStrengths, template: g.prompts.Strengths, out: &strengths},
		{name: fieldWeaknesses, template: g.prompts.Weaknesses, out: &weaknesses},
		{name: fieldRoleFit, template: g.prompts.RoleFit, out: &roleFit},
	}

	if g.parallel {
		var group errgroup.Group
		for _, call := range calls {
			prompt := buildPrompt(call.template, req.JobDescription, req.Candidate, req.Score)
			group.Go(func() error {
				*call.out = g.caller.Call(ctx, call.name, prompt)
				return nil
			})
		}
		_ = group.Wait()
	} else {
		for _, call := range calls {
			prompt := buildPrompt(call.template, req.JobDescription, req.Candidate, req.Score)
			*call.out = g.caller.Call(ctx, call.name, prompt)
		}
	}

	result := &Result{
		Strengths:          NormalizeStrings(ListField(strengths.Data, fieldStrengths)),
		Weaknesses:         NormalizeStrings(ListField(weaknesses.Data, fieldWeaknesses)),
		RoleFitExplanation: roleFitExplanation(roleFit.Data),
	}

	g.logger.Info("feedback generated",
		zap.Int("strengths", len(result.Strengths)),
		zap.Int("weaknesses", len(result.Weaknesses)),
		zap.Bool("role_fit", result.RoleFitExplanation != ""),
		zap.Stringer("strengths_state", strengths.State),
		zap.Stringer("weaknesses_state", weaknesses.State),
		zap.Stringer("role_fit_state", roleFit.State),
	)

	return result
}

type roleFitReply struct {
	Explanation string `mapstructure:"role_fit_explanation"`
}

// roleFitExplanation reads the explanation, coercing scalars to text. Values
// that cannot be read as text give an empty explanation.
func roleFitExplanation(data map[string]any) string {
	var reply roleFitReply
	if err := mapstructure.WeakDecode(data, &reply); err != nil {
		return ""
	}
	return strings.TrimSpace(reply.Explanation)
}
