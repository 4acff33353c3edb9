package feedback

import (
	"context"
	"time"
	"unicode/utf8"

	"go.uber.org/zap"

	"github.com/spigell/cv-align/internal/ai"
	"github.com/spigell/cv-align/internal/logger"
	"github.com/spigell/cv-align/internal/utils"
)

const (
	DefaultMaxRetries    = 2
	DefaultRetryInterval = 500 * time.Millisecond

	defaultMaxLogLength = 200
	emptyReply          = "{}"
)

// State is the position of a call in its retry cycle.
type State int

const (
	StateAttempting State = iota
	StateSucceeded
	StateExhausted
)

func (s State) String() string {
	switch s {
	case StateAttempting:
		return "attempting"
	case StateSucceeded:
		return "succeeded"
	case StateExhausted:
		return "exhausted"
	default:
		return "unknown"
	}
}

// Outcome is what Call produced. Data is never nil.
type Outcome struct {
	Data     map[string]any
	Attempts int
	State    State
}

// Caller asks a model for a JSON object until one parses.
type Caller struct {
	generator  ai.Generator
	maxRetries int
	interval   time.Duration
	maxLogLen  int
	logger     *zap.Logger
}

// NewCaller returns a Caller making at most maxRetries+1 attempts with a
// fixed pause of interval between them.
func NewCaller(generator ai.Generator, maxRetries int, interval time.Duration, maxLogLength int, log *zap.Logger) *Caller {
	if maxRetries < 0 {
		maxRetries = 0
	}
	if interval < 0 {
		interval = 0
	}
	if maxLogLength <= 0 {
		maxLogLength = defaultMaxLogLength
	}
	if log == nil {
		log = zap.NewNop()
	}
	if generator != nil {
		log = logger.WithModel(log, "", generator.Model())
	}

	return &Caller{
		generator:  generator,
		maxRetries: maxRetries,
		interval:   interval,
		maxLogLen:  maxLogLength,
		logger:     log,
	}
}

// Call sends prompt and returns the first non-empty object parsed from a
// reply. Model errors count as failed attempts. When every attempt fails the
// last reply gets one more parse and an empty object is the floor.
func (c *Caller) Call(ctx context.Context, name, prompt string) Outcome {
	log := c.logger.With(zap.String("field_group", name))
	last := emptyReply

	for attempt := 0; attempt <= c.maxRetries; attempt++ {
		log.Debug("model attempt",
			zap.Int("attempt", attempt+1),
			zap.Int("max_attempts", c.maxRetries+1),
			zap.Int("prompt_length", utf8.RuneCountInString(prompt)),
			zap.String("prompt_preview", utils.TruncateForLog(prompt, c.maxLogLen)),
		)

		raw := c.invoke(ctx, log, prompt)
		last = raw

		if data, err := Parse(raw); err == nil && len(data) > 0 {
			log.Debug("model reply parsed", zap.Int("attempt", attempt+1))
			return Outcome{Data: data, Attempts: attempt + 1, State: StateSucceeded}
		}

		log.Debug("model reply not usable",
			zap.Int("attempt", attempt+1),
			zap.String("response_preview", utils.TruncateForLog(raw, c.maxLogLen)),
		)

		if attempt == c.maxRetries {
			break
		}
		if err := utils.WaitFor(ctx, c.interval); err != nil {
			log.Warn("retries interrupted", zap.Error(err))
			return c.exhausted(log, last, attempt+1)
		}
	}

	return c.exhausted(log, last, c.maxRetries+1)
}

func (c *Caller) invoke(ctx context.Context, log *zap.Logger, prompt string) string {
	if c.generator == nil {
		log.Warn("no model configured")
		return emptyReply
	}

	raw, err := c.generator.GenerateContent(ctx, prompt)
	if err != nil {
		log.Warn("model call failed", zap.Error(err))
		return emptyReply
	}
	return raw
}

func (c *Caller) exhausted(log *zap.Logger, last string, attempts int) Outcome {
	data, err := Parse(last)
	if err != nil || data == nil {
		data = map[string]any{}
	}
	log.Warn("retries exhausted", zap.Int("attempts", attempts), zap.Bool("recovered", len(data) > 0))
	return Outcome{Data: data, Attempts: attempts, State: StateExhausted}
}
