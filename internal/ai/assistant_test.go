package ai

import "testing"

func TestNormalizeProvider(t *testing.T) {
	t.Parallel()

	cases := map[string]string{
		"":         ProviderGemini,
		" Gemini ": ProviderGemini,
		"openai":   ProviderOpenAI,
		"OLLAMA":   ProviderOpenAI,
	}

	for input, expected := range cases {
		got, err := NormalizeProvider(input)
		if err != nil {
			t.Fatalf("unexpected error for %q: %v", input, err)
		}
		if got != expected {
			t.Fatalf("expected %q for %q, got %q", expected, input, got)
		}
	}

	if _, err := NormalizeProvider("anthropic"); err == nil {
		t.Fatalf("expected error for unsupported provider")
	}
}
