package evaluation

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/spf13/afero"
	"go.uber.org/zap"

	"github.com/spigell/cv-align/internal/ai/aitest"
	"github.com/spigell/cv-align/internal/embedding"
	"github.com/spigell/cv-align/internal/feedback"
	"github.com/spigell/cv-align/internal/scoring"
	"github.com/spigell/cv-align/internal/vectorstore"
)

type fixture struct {
	evaluator *Evaluator
	store     *vectorstore.Manager
	embedder  *aitest.HashEmbedder
}

func newFixture(t *testing.T) *fixture {
	t.Helper()

	store, err := vectorstore.New(afero.NewMemMapFs(), "/vector_store", zap.NewNop())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	embedder := &aitest.HashEmbedder{Dim: 256}
	pipeline, err := embedding.New(store, embedder, nil, zap.NewNop())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	engine, err := scoring.NewEngine(store, scoring.DefaultPolicy(), zap.NewNop())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	gen := &aitest.ScriptedGenerator{Match: map[string][]aitest.Reply{
		`{"strengths"`:            {{Text: `{"strengths": ["Python", "SQL"]}`}},
		`{"weaknesses"`:           {{Text: `{"weaknesses": ["No cloud deployment"]}`}},
		`{"role_fit_explanation"`: {{Text: `{"role_fit_explanation": "Strong match."}`}},
		`{"name"`:                 {{Text: `{"name": "Asha Rao", "email": "asha@example.com", "phone": "9876543210"}`}},
	}}
	opts := feedback.DefaultOptions()
	opts.RetryInterval = 0
	reviewer := feedback.NewGenerator(gen, opts, zap.NewNop())

	evaluator, err := New(pipeline, engine, reviewer, DefaultShortlistThreshold, zap.NewNop())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	evaluator.now = func() time.Time { return time.Date(2025, 3, 14, 12, 0, 0, 0, time.UTC) }
	evaluator.newID = func() string { return "generated-id" }

	return &fixture{evaluator: evaluator, store: store, embedder: embedder}
}

func TestEvaluateShortlistsMatchingCandidate(t *testing.T) {
	f := newFixture(t)

	result, err := f.evaluator.Evaluate(context.Background(), Request{
		TenantID:       "6",
		JobID:          "22",
		JobTitle:       "Backend Engineer",
		JobDescription: "Hiring backend engineer with Python and SQL experience.",
		Candidate:      "Backend engineer\nskilled in Python and SQL",
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if result.Score != 100 || result.Status != StatusShortlisted {
		t.Fatalf("unexpected score/status: %v %q", result.Score, result.Status)
	}
	if result.CandidateID != "generated-id" || result.UploadDate != "2025-03-14" || result.JobTitle != "Backend Engineer" {
		t.Fatalf("unexpected metadata: %+v", result)
	}
	if result.Name != "Asha Rao" || result.Email != "asha@example.com" || result.Phone != "9876543210" {
		t.Fatalf("unexpected profile: %+v", result)
	}
	if len(result.Strengths) != 2 || len(result.Weaknesses) != 1 || result.Feedback != "Strong match." {
		t.Fatalf("unexpected feedback: %+v", result)
	}

	snap, err := f.store.Vectors(vectorstore.CandidateKey("6", "22"))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if snap.Records[0].CandidateID != "generated-id" {
		t.Fatalf("candidate id must be stored, got %+v", snap.Records[0])
	}
}

func TestEvaluateRejectsUnrelatedCandidate(t *testing.T) {
	f := newFixture(t)

	result, err := f.evaluator.Evaluate(context.Background(), Request{
		TenantID:       "6",
		JobID:          "22",
		CandidateID:    "chef",
		JobDescription: "Hiring backend engineer with Python and SQL experience.",
		Candidate:      "Pastry chef baking croissants daily",
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if result.Score != 0 || result.Status != StatusRejected || result.CandidateID != "chef" {
		t.Fatalf("unexpected result: %+v", result)
	}
}

func TestEvaluateStopsOnIngestFailure(t *testing.T) {
	f := newFixture(t)
	f.embedder.Err = errors.New("embedding model offline")

	if _, err := f.evaluator.Evaluate(context.Background(), Request{
		TenantID:       "6",
		JobID:          "22",
		JobDescription: "jd",
		Candidate:      "cv",
	}); err == nil {
		t.Fatalf("expected error")
	}

	if _, err := f.evaluator.Evaluate(context.Background(), Request{TenantID: "6", JobID: "22"}); !errors.Is(err, embedding.ErrEmptyDocument) {
		t.Fatalf("expected ErrEmptyDocument, got %v", err)
	}
}

func TestStatusThreshold(t *testing.T) {
	e := &Evaluator{threshold: DefaultShortlistThreshold}

	tests := map[float64]string{
		100:   StatusShortlisted,
		70:    StatusShortlisted,
		69.99: StatusRejected,
		0:     StatusRejected,
	}
	for score, expect := range tests {
		if got := e.Status(score); got != expect {
			t.Fatalf("score %v: expected %q, got %q", score, expect, got)
		}
	}
}

func TestNewValidatesArguments(t *testing.T) {
	if _, err := New(nil, nil, nil, 70, nil); err == nil {
		t.Fatalf("expected error for missing collaborators")
	}

	f := newFixture(t)
	if _, err := New(f.evaluator.ingester, f.evaluator.scorer, f.evaluator.reviewer, 101, nil); err == nil {
		t.Fatalf("expected error for threshold above 100")
	}
}
