package scoring

import (
	"context"
	"errors"
	"fmt"

	"go.uber.org/zap"

	"github.com/spigell/cv-align/internal/logger"
	"github.com/spigell/cv-align/internal/vectorstore"
)

// Source reads stored vectors.
type Source interface {
	Vectors(key vectorstore.Key) (*vectorstore.Snapshot, error)
}

// Request names the documents to compare.
type Request struct {
	TenantID    string
	JobID       string
	CandidateID string
}

// Result is the outcome of Engine.Score.
type Result struct {
	TenantID    string   `json:"tenant_id"`
	JobID       string   `json:"job_id"`
	CandidateID string   `json:"candidate_id"`
	Score       float64  `json:"score"`
	Strategy    Strategy `json:"strategy"`
	Vectors     int      `json:"vectors"`
}

// Engine scores stored candidate documents against the stored query.
type Engine struct {
	source Source
	policy Policy
	logger *zap.Logger
}

// NewEngine validates policy and returns an engine reading from source.
func NewEngine(source Source, policy Policy, log *zap.Logger) (*Engine, error) {
	if source == nil {
		return nil, errors.New("vector source is required")
	}
	if err := policy.Validate(); err != nil {
		return nil, err
	}
	if log == nil {
		log = zap.NewNop()
	}
	return &Engine{source: source, policy: policy, logger: log}, nil
}

// Policy returns the policy the engine applies.
func (e *Engine) Policy() Policy { return e.policy }

// Score loads the query and candidate vectors of the request and scores them.
// When candidate records carry candidate ids and the request names one, only
// that candidate's vectors are used.
func (e *Engine) Score(ctx context.Context, req Request) (*Result, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	query, err := e.source.Vectors(vectorstore.QueryKey(req.TenantID, req.JobID))
	if err != nil {
		return nil, fmt.Errorf("load query document: %w", err)
	}
	if len(query.Vectors) == 0 {
		return nil, fmt.Errorf("load query document: %w", vectorstore.ErrNotFound)
	}

	candidates, err := e.source.Vectors(vectorstore.CandidateKey(req.TenantID, req.JobID))
	if err != nil {
		return nil, fmt.Errorf("load candidate document: %w", err)
	}

	vectors, err := forCandidate(candidates, req.CandidateID)
	if err != nil {
		return nil, err
	}

	score, err := Score(query.Vectors[0], vectors, e.policy)
	if err != nil {
		return nil, err
	}

	e.logger.Info("candidate scored",
		append(logger.Document{TenantID: req.TenantID, JobID: req.JobID, CandidateID: req.CandidateID}.Fields(),
			zap.Float64("score", score),
			zap.String("strategy", string(e.policy.Strategy)),
			zap.Int("vectors", len(vectors)),
		)...,
	)

	return &Result{
		TenantID:    req.TenantID,
		JobID:       req.JobID,
		CandidateID: req.CandidateID,
		Score:       score,
		Strategy:    e.policy.Strategy,
		Vectors:     len(vectors),
	}, nil
}

func forCandidate(snap *vectorstore.Snapshot, candidateID string) ([][]float32, error) {
	if candidateID == "" {
		return snap.Vectors, nil
	}

	tagged := false
	var vectors [][]float32
	for i, rec := range snap.Records {
		if rec.CandidateID == "" {
			continue
		}
		tagged = true
		if rec.CandidateID == candidateID && i < len(snap.Vectors) {
			vectors = append(vectors, snap.Vectors[i])
		}
	}

	if !tagged {
		return snap.Vectors, nil
	}
	if len(vectors) == 0 {
		return nil, fmt.Errorf("candidate %q: %w", candidateID, vectorstore.ErrNotFound)
	}
	return vectors, nil
}
