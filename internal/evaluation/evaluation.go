// Package evaluation runs the full candidate evaluation: both documents are
// ingested, the candidate is scored and feedback is generated.
package evaluation

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/spigell/cv-align/internal/embedding"
	"github.com/spigell/cv-align/internal/feedback"
	"github.com/spigell/cv-align/internal/logger"
	"github.com/spigell/cv-align/internal/scoring"
	"github.com/spigell/cv-align/internal/utils"
)

const (
	StatusShortlisted = "can be shortlisted"
	StatusRejected    = "can be rejected"

	DefaultShortlistThreshold = 70.0

	uploadDateLayout = "2006-01-02"
)

// Ingester stores query and candidate documents.
type Ingester interface {
	IngestQuery(ctx context.Context, doc embedding.Document) (*embedding.Result, error)
	IngestCandidate(ctx context.Context, doc embedding.Document) (*embedding.Result, error)
}

// Scorer scores a stored candidate.
type Scorer interface {
	Score(ctx context.Context, req scoring.Request) (*scoring.Result, error)
}

// Reviewer produces feedback and contact details.
type Reviewer interface {
	Generate(ctx context.Context, req feedback.Request) *feedback.Result
	Profile(ctx context.Context, candidate string) *feedback.Profile
}

// Request describes one evaluation. An empty CandidateID gets a fresh UUID.
type Request struct {
	TenantID       string
	JobID          string
	CandidateID    string
	JobTitle       string
	JobDescription string
	Candidate      string
}

// Result is the evaluation report.
type Result struct {
	CandidateID string   `json:"candidateId"`
	Name        string   `json:"name"`
	Email       string   `json:"email"`
	Phone       string   `json:"phone"`
	UploadDate  string   `json:"uploadDate"`
	Score       float64  `json:"score"`
	Status      string   `json:"status"`
	Strengths   []string `json:"strengths"`
	Weaknesses  []string `json:"weaknesses"`
	Feedback    string   `json:"feedback"`
	JobTitle    string   `json:"jobTitle"`
}

// Evaluator wires ingestion, scoring and feedback together.
type Evaluator struct {
	ingester  Ingester
	scorer    Scorer
	reviewer  Reviewer
	threshold float64
	logger    *zap.Logger

	now   func() time.Time
	newID func() string
}

// New returns an Evaluator shortlisting candidates scoring at least threshold.
func New(ingester Ingester, scorer Scorer, reviewer Reviewer, threshold float64, log *zap.Logger) (*Evaluator, error) {
	if ingester == nil || scorer == nil || reviewer == nil {
		return nil, errors.New("ingester, scorer and reviewer are required")
	}
	if threshold < 0 || threshold > 100 {
		return nil, fmt.Errorf("shortlist threshold must be in [0, 100], got %v", threshold)
	}
	if log == nil {
		log = zap.NewNop()
	}

	return &Evaluator{
		ingester:  ingester,
		scorer:    scorer,
		reviewer:  reviewer,
		threshold: threshold,
		logger:    log,
		now:       time.Now,
		newID:     uuid.NewString,
	}, nil
}

// Status maps a score to the shortlist decision.
func (e *Evaluator) Status(score float64) string {
	if score >= e.threshold {
		return StatusShortlisted
	}
	return StatusRejected
}

// Evaluate runs every step in order. Ingestion and scoring errors abort the
// evaluation; feedback problems only leave fields empty.
func (e *Evaluator) Evaluate(ctx context.Context, req Request) (*Result, error) {
	candidateID := strings.TrimSpace(req.CandidateID)
	if candidateID == "" {
		candidateID = e.newID()
	}

	log := logger.WithDocument(e.logger, logger.Document{TenantID: req.TenantID, JobID: req.JobID, CandidateID: candidateID})
	candidate := utils.OneLine(req.Candidate)

	if _, err := e.ingester.IngestQuery(ctx, embedding.Document{
		TenantID: req.TenantID,
		JobID:    req.JobID,
		Text:     req.JobDescription,
	}); err != nil {
		return nil, fmt.Errorf("ingest job description: %w", err)
	}

	if _, err := e.ingester.IngestCandidate(ctx, embedding.Document{
		TenantID:    req.TenantID,
		JobID:       req.JobID,
		CandidateID: candidateID,
		Text:        candidate,
	}); err != nil {
		return nil, fmt.Errorf("ingest candidate: %w", err)
	}

	scored, err := e.scorer.Score(ctx, scoring.Request{
		TenantID:    req.TenantID,
		JobID:       req.JobID,
		CandidateID: candidateID,
	})
	if err != nil {
		return nil, fmt.Errorf("score candidate: %w", err)
	}

	review := e.reviewer.Generate(ctx, feedback.Request{
		JobDescription: req.JobDescription,
		Candidate:      candidate,
		Score:          scored.Score,
	})
	profile := e.reviewer.Profile(ctx, req.Candidate)

	result := &Result{
		CandidateID: candidateID,
		Name:        profile.Name,
		Email:       profile.Email,
		Phone:       profile.Phone,
		UploadDate:  e.now().Format(uploadDateLayout),
		Score:       scored.Score,
		Status:      e.Status(scored.Score),
		Strengths:   review.Strengths,
		Weaknesses:  review.Weaknesses,
		Feedback:    review.RoleFitExplanation,
		JobTitle:    req.JobTitle,
	}

	log.Info("candidate evaluated", zap.Float64("score", result.Score), zap.String("status", result.Status))

	return result, nil
}
