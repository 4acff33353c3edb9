package feedback

import (
	"context"
	"strings"

	"github.com/mitchellh/mapstructure"
	"go.uber.org/zap"
)

const fieldProfile = "profile"

// Profile holds the contact details found in a résumé. Missing values are empty.
type Profile struct {
	Name  string `json:"name"`
	Email string `json:"email"`
	Phone string `json:"phone"`
}

// Keys the model may use for each contact field, in order of preference.
var profileKeys = struct {
	name, email, phone []string
}{
	name:  []string{"name"},
	email: []string{"email"},
	phone: []string{"phone", "phone_number", "mobile"},
}

// Profile asks the model for the candidate's contact details. Like Generate
// it never fails; a field the reply does not carry as a scalar stays empty.
func (g *Generator) Profile(ctx context.Context, candidate string) *Profile {
	prompt := buildPrompt(g.prompts.Profile, "", candidate, 0)
	outcome := g.caller.Call(ctx, fieldProfile, prompt)

	return &Profile{
		Name:  g.profileField(outcome.Data, profileKeys.name...),
		Email: g.profileField(outcome.Data, profileKeys.email...),
		Phone: g.profileField(outcome.Data, profileKeys.phone...),
	}
}

// profileField returns the first non-empty value among keys. Each value is
// decoded on its own so one malformed field does not drop the others.
func (g *Generator) profileField(data map[string]any, keys ...string) string {
	for _, key := range keys {
		raw, ok := data[key]
		if !ok || raw == nil {
			continue
		}

		var value string
		if err := mapstructure.WeakDecode(raw, &value); err != nil {
			g.logger.Warn("profile field has unexpected shape", zap.String("field", key), zap.Error(err))
			continue
		}
		if value = strings.TrimSpace(value); value != "" {
			return value
		}
	}
	return ""
}
