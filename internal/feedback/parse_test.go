package feedback

import (
	"reflect"
	"testing"
)

func TestExtractJSON(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name   string
		input  string
		expect string
	}{
		{name: "plain object", input: `{"a": 1}`, expect: `{"a": 1}`},
		{name: "code fence", input: "```json\n{\"a\": 1}\n```", expect: `{"a": 1}`},
		{name: "bare fence", input: "```\n{\"a\": 1}\n```", expect: `{"a": 1}`},
		{name: "surrounding prose", input: `Sure! Here it is: {"a": {"b": 2}} Hope it helps.`, expect: `{"a": {"b": 2}}`},
		{name: "greedy span", input: `{"a": 1} and {"b": 2}`, expect: `{"a": 1} and {"b": 2}`},
		{name: "no braces", input: "  nothing here  ", expect: "nothing here"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			if got := ExtractJSON(tt.input); got != tt.expect {
				t.Fatalf("expected %q, got %q", tt.expect, got)
			}
		})
	}
}

func TestRepairPasses(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name   string
		input  string
		expect string
	}{
		{name: "trailing commas", input: `{"a": [1, 2,], "b": 3,}`, expect: `{"a": [1, 2], "b": 3}`},
		{name: "trailing comma before whitespace", input: "{\"a\": 1 ,\n}", expect: "{\"a\": 1 \n}"},
		{name: "bare keys", input: `{strengths: ["SQL"], role_fit-explanation : "ok"}`, expect: `{"strengths": ["SQL"], "role_fit-explanation" : "ok"}`},
		{name: "string literals untouched", input: `{"note": "a, ] b: c,}"}`, expect: `{"note": "a, ] b: c,}"}`},
		{name: "escaped quotes", input: `{"q": "say \"x: y,}\"", k: 1,}`, expect: `{"q": "say \"x: y,}\"", "k": 1}`},
		{name: "values stay bare", input: `{"ok": true, "n": null}`, expect: `{"ok": true, "n": null}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			got := Repair(tt.input)
			if got != tt.expect {
				t.Fatalf("expected %q, got %q", tt.expect, got)
			}
			if again := Repair(got); again != got {
				t.Fatalf("repair must be idempotent: %q -> %q", got, again)
			}
		})
	}

	if RepairPasses[0].Name != "trailing_commas" || RepairPasses[1].Name != "bare_keys" {
		t.Fatalf("unexpected pass order: %+v", RepairPasses)
	}
}

func TestParse(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		input   string
		expect  map[string]any
		wantErr bool
	}{
		{
			name:   "repaired reply with noise",
			input:  "noise {\"strengths\": [\"SQL\",],} trailing",
			expect: map[string]any{"strengths": []any{"SQL"}},
		},
		{
			name:   "fenced reply",
			input:  "```json\n{\"role_fit_explanation\": \"Good fit\"}\n```",
			expect: map[string]any{"role_fit_explanation": "Good fit"},
		},
		{
			name:   "bare keys",
			input:  `{weaknesses: ["No AWS"]}`,
			expect: map[string]any{"weaknesses": []any{"No AWS"}},
		},
		{
			name:   "empty object",
			input:  "{}",
			expect: map[string]any{},
		},
		{name: "array top level", input: `["SQL"]`, wantErr: true},
		{name: "garbage", input: "I cannot help with that", wantErr: true},
		{name: "unbalanced", input: `{"strengths": ["SQL"}`, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			got, err := Parse(tt.input)
			if tt.wantErr {
				if err == nil {
					t.Fatalf("expected error, got %v", got)
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if !reflect.DeepEqual(got, tt.expect) {
				t.Fatalf("expected %v, got %v", tt.expect, got)
			}
		})
	}
}

func TestListFieldAndNormalizeStrings(t *testing.T) {
	t.Parallel()

	data := map[string]any{
		"strengths": []any{
			"  Python  ",
			map[string]any{"skill": "SQL", "level": "advanced", "years": float64(3)},
			float64(42),
			true,
			nil,
			[]any{"nested"},
		},
		"weaknesses": "not a list",
	}

	got := NormalizeStrings(ListField(data, "strengths"))
	expect := []string{"Python", "level: advanced, skill: SQL, years: 3"}
	if !reflect.DeepEqual(got, expect) {
		t.Fatalf("expected %q, got %q", expect, got)
	}

	if got := NormalizeStrings(ListField(data, "weaknesses")); got == nil || len(got) != 0 {
		t.Fatalf("expected empty non-nil list, got %#v", got)
	}
	if got := NormalizeStrings(ListField(nil, "missing")); got == nil || len(got) != 0 {
		t.Fatalf("expected empty non-nil list, got %#v", got)
	}
}

func TestRoleFitExplanation(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name   string
		data   map[string]any
		expect string
	}{
		{name: "string", data: map[string]any{"role_fit_explanation": " Strong backend fit. "}, expect: "Strong backend fit."},
		{name: "number coerced", data: map[string]any{"role_fit_explanation": float64(7)}, expect: "7"},
		{name: "missing", data: map[string]any{"other": "x"}, expect: ""},
		{name: "object", data: map[string]any{"role_fit_explanation": map[string]any{"a": 1}}, expect: ""},
		{name: "nil map", data: nil, expect: ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			if got := roleFitExplanation(tt.data); got != tt.expect {
				t.Fatalf("expected %q, got %q", tt.expect, got)
			}
		})
	}
}
