package feedback

import (
	_ "embed"
	"fmt"
	"os"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"
)

const (
	placeholderJob       = "{{JOB_DESCRIPTION}}"
	placeholderCandidate = "{{CANDIDATE}}"
	placeholderScore     = "{{SCORE}}"
)

//go:embed prompts/strengths.md
var strengthsPrompt string

//go:embed prompts/weaknesses.md
var weaknessesPrompt string

//go:embed prompts/role_fit.md
var roleFitPrompt string

//go:embed prompts/profile.md
var profilePrompt string

// Prompts holds the templates. Placeholders are {{JOB_DESCRIPTION}},
// {{CANDIDATE}} and {{SCORE}}; the profile template only uses {{CANDIDATE}}.
type Prompts struct {
	Strengths  string `yaml:"strengths"`
	Weaknesses string `yaml:"weaknesses"`
	RoleFit    string `yaml:"role_fit"`
	Profile    string `yaml:"profile"`
}

// DefaultPrompts returns the built-in templates.
func DefaultPrompts() Prompts {
	return Prompts{
		Strengths:  strengthsPrompt,
		Weaknesses: weaknessesPrompt,
		RoleFit:    roleFitPrompt,
		Profile:    profilePrompt,
	}
}

// LoadPrompts returns the built-in templates overridden by the non-empty
// entries of the YAML file at path. An empty path keeps the defaults.
func LoadPrompts(path string) (Prompts, error) {
	prompts := DefaultPrompts()

	path = strings.TrimSpace(path)
	if path == "" {
		return prompts, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return Prompts{}, fmt.Errorf("reading prompts file %q: %w", path, err)
	}

	var override Prompts
	if err := yaml.Unmarshal(data, &override); err != nil {
		return Prompts{}, fmt.Errorf("decoding prompts file %q: %w", path, err)
	}

	prompts.merge(override)
	return prompts, nil
}

func (p *Prompts) merge(override Prompts) {
	if strings.TrimSpace(override.Strengths) != "" {
		p.Strengths = override.Strengths
	}
	if strings.TrimSpace(override.Weaknesses) != "" {
		p.Weaknesses = override.Weaknesses
	}
	if strings.TrimSpace(override.RoleFit) != "" {
		p.RoleFit = override.RoleFit
	}
	if strings.TrimSpace(override.Profile) != "" {
		p.Profile = override.Profile
	}
}

func buildPrompt(template, jobDescription, candidate string, score float64) string {
	// One pass, so placeholders inside the documents are left as written.
	return strings.NewReplacer(
		placeholderJob, strings.TrimSpace(jobDescription),
		placeholderCandidate, strings.TrimSpace(candidate),
		placeholderScore, strconv.FormatFloat(score, 'f', -1, 64),
	).Replace(template)
}
