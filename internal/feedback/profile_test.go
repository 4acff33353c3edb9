package feedback

import (
	"context"
	"strings"
	"testing"

	"github.com/spigell/cv-align/internal/ai/aitest"
)

func TestProfile(t *testing.T) {
	tests := []struct {
		name   string
		reply  string
		expect Profile
	}{
		{
			name:   "all fields",
			reply:  `{"name": " Asha Rao ", "email": "asha@example.com", "phone": "+91 98765 43210"}`,
			expect: Profile{Name: "Asha Rao", Email: "asha@example.com", Phone: "+91 98765 43210"},
		},
		{
			name:   "phone aliases and numbers",
			reply:  `{"name": "Asha", "phone": "", "mobile": 9876543210}`,
			expect: Profile{Name: "Asha", Phone: "9876543210"},
		},
		{
			name:   "unexpected shape",
			reply:  `{"name": ["Asha"]}`,
			expect: Profile{},
		},
		{
			name:   "list valued phone keeps other fields",
			reply:  `{"name": "Ann Lee", "email": "ann@x.io", "phone": ["+1 555", "+1 666"]}`,
			expect: Profile{Name: "Ann Lee", Email: "ann@x.io"},
		},
		{
			name:   "malformed phone falls back to alias",
			reply:  `{"name": "Ann Lee", "phone": {"home": "+1 555"}, "phone_number": "+1 777"}`,
			expect: Profile{Name: "Ann Lee", Phone: "+1 777"},
		},
		{
			name:   "garbage",
			reply:  "no contact details",
			expect: Profile{},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			gen := &aitest.ScriptedGenerator{Default: []aitest.Reply{{Text: tt.reply}}}
			opts := DefaultOptions()
			opts.RetryInterval = 0

			got := NewGenerator(gen, opts, nil).Profile(context.Background(), "Asha Rao\nasha@example.com")
			if *got != tt.expect {
				t.Fatalf("expected %+v, got %+v", tt.expect, *got)
			}

			prompts := gen.Prompts()
			if !strings.Contains(prompts[0], "asha@example.com") || strings.Contains(prompts[0], "{{") {
				t.Fatalf("unexpected prompt: %q", prompts[0])
			}
		})
	}
}
