package feedback

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"reflect"
	"strings"
	"testing"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"

	"github.com/spigell/cv-align/internal/ai/aitest"
)

const (
	matchStrengths  = `{"strengths"`
	matchWeaknesses = `{"weaknesses"`
	matchRoleFit    = `{"role_fit_explanation"`
)

func TestGeneratorAssemblesResult(t *testing.T) {
	for _, parallel := range []bool{true, false} {
		gen := &aitest.ScriptedGenerator{Match: map[string][]aitest.Reply{
			matchStrengths:  {{Text: `{"strengths": ["Python", {"tool": "Docker"}, 3]}`}},
			matchWeaknesses: {{Text: "Here: {weaknesses: [\"No AWS\",],}"}},
			matchRoleFit:    {{Text: `{"role_fit_explanation": "Solid backend fit."}`}},
		}}

		opts := DefaultOptions()
		opts.Parallel = parallel
		opts.RetryInterval = 0

		result := NewGenerator(gen, opts, zap.NewNop()).Generate(context.Background(), Request{
			JobDescription: "Backend Engineer with Python",
			Candidate:      "Python developer",
			Score:          72.5,
		})

		expect := &Result{
			Strengths:          []string{"Python", "tool: Docker"},
			Weaknesses:         []string{"No AWS"},
			RoleFitExplanation: "Solid backend fit.",
		}
		if !reflect.DeepEqual(result, expect) {
			t.Fatalf("parallel=%v: expected %+v, got %+v", parallel, expect, result)
		}

		prompts := gen.Prompts()
		if len(prompts) != 3 {
			t.Fatalf("expected 3 prompts, got %d", len(prompts))
		}
		for _, prompt := range prompts {
			if !strings.Contains(prompt, "Backend Engineer with Python") || !strings.Contains(prompt, "Python developer") {
				t.Fatalf("prompt is missing documents: %q", prompt)
			}
			if strings.Contains(prompt, "{{") {
				t.Fatalf("prompt has unfilled placeholders: %q", prompt)
			}
			if strings.Contains(prompt, matchRoleFit) && !strings.Contains(prompt, "72.5") {
				t.Fatalf("role fit prompt is missing the score: %q", prompt)
			}
		}
	}
}

func TestGeneratorIsolatesFailures(t *testing.T) {
	core, observed := observer.New(zapcore.InfoLevel)
	gen := &aitest.ScriptedGenerator{Match: map[string][]aitest.Reply{
		matchStrengths:  {{Err: errors.New("model down")}},
		matchWeaknesses: {{Text: `{"weaknesses": "should be a list"}`}},
		matchRoleFit:    {{Text: `{"role_fit_explanation": "Partial fit."}`}},
	}}

	opts := DefaultOptions()
	opts.RetryInterval = 0

	result := NewGenerator(gen, opts, zap.New(core)).Generate(context.Background(), Request{
		JobDescription: "jd",
		Candidate:      "cv",
		Score:          10,
	})

	if result.Strengths == nil || len(result.Strengths) != 0 {
		t.Fatalf("expected empty strengths, got %#v", result.Strengths)
	}
	if result.Weaknesses == nil || len(result.Weaknesses) != 0 {
		t.Fatalf("expected empty weaknesses, got %#v", result.Weaknesses)
	}
	if result.RoleFitExplanation != "Partial fit." {
		t.Fatalf("unexpected role fit: %q", result.RoleFitExplanation)
	}

	entries := observed.FilterMessage("feedback generated").All()
	if len(entries) != 1 {
		t.Fatalf("expected summary log entry, got %d", len(entries))
	}
	if state := entries[0].ContextMap()["strengths_state"]; state != "exhausted" {
		t.Fatalf("expected strengths to be exhausted, got %v", state)
	}
}

func TestGeneratorWithoutModel(t *testing.T) {
	result := NewGenerator(nil, Options{}, nil).Generate(context.Background(), Request{})

	if result.Strengths == nil || result.Weaknesses == nil || result.RoleFitExplanation != "" {
		t.Fatalf("unexpected result: %+v", result)
	}
}

func TestLoadPrompts(t *testing.T) {
	defaults, err := LoadPrompts("")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	for name, template := range map[string]string{
		"strengths":  defaults.Strengths,
		"weaknesses": defaults.Weaknesses,
		"role_fit":   defaults.RoleFit,
	} {
		if !strings.Contains(template, placeholderJob) || !strings.Contains(template, placeholderCandidate) {
			t.Fatalf("%s template is missing placeholders", name)
		}
	}
	if !strings.Contains(defaults.RoleFit, placeholderScore) {
		t.Fatalf("role fit template is missing the score placeholder")
	}

	path := filepath.Join(t.TempDir(), "prompts.yaml")
	override := "strengths: |\n  Custom {{JOB_DESCRIPTION}} vs {{CANDIDATE}}\nweaknesses: \"\"\n"
	if err := os.WriteFile(path, []byte(override), 0o600); err != nil {
		t.Fatalf("write prompts file: %v", err)
	}

	prompts, err := LoadPrompts(path)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if prompts.Strengths != "Custom {{JOB_DESCRIPTION}} vs {{CANDIDATE}}\n" {
		t.Fatalf("unexpected strengths override: %q", prompts.Strengths)
	}
	if prompts.Weaknesses != defaults.Weaknesses || prompts.RoleFit != defaults.RoleFit {
		t.Fatalf("empty overrides must keep defaults")
	}

	if _, err := LoadPrompts(filepath.Join(t.TempDir(), "missing.yaml")); err == nil {
		t.Fatalf("expected error for missing file")
	}

	bad := filepath.Join(t.TempDir(), "bad.yaml")
	if err := os.WriteFile(bad, []byte("strengths: [unclosed"), 0o600); err != nil {
		t.Fatalf("write prompts file: %v", err)
	}
	if _, err := LoadPrompts(bad); err == nil {
		t.Fatalf("expected error for invalid yaml")
	}
}

func TestBuildPrompt(t *testing.T) {
	got := buildPrompt("{{JOB_DESCRIPTION}} | {{CANDIDATE}} | {{SCORE}}", "  jd ", "cv\n", 81)
	if got != "jd | cv | 81" {
		t.Fatalf("unexpected prompt: %q", got)
	}
}

func TestBuildPromptLeavesPlaceholdersInDocuments(t *testing.T) {
	got := buildPrompt(
		"JD: {{JOB_DESCRIPTION}}\nCV: {{CANDIDATE}}\nScore: {{SCORE}}",
		"Template engineer, knows {{CANDIDATE}} and {{SCORE}} syntax",
		"Writes {{JOB_DESCRIPTION}} docs",
		64.5,
	)

	want := "JD: Template engineer, knows {{CANDIDATE}} and {{SCORE}} syntax\nCV: Writes {{JOB_DESCRIPTION}} docs\nScore: 64.5"
	if got != want {
		t.Fatalf("unexpected prompt:\n%s\nwant:\n%s", got, want)
	}
}
