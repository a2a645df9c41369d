// ABOUTME: System prompt and follow-up narration prompt builders
// ABOUTME: Also formats raw skill output as indented JSON
package routing

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/WildEllie/t3nets/internal/models"
)

// DefaultVoice is used when a tenant has no system prompt override
const DefaultVoice = "Be direct, helpful, and action-oriented. Flag risks early. Suggest actions."

// BuildSystemPrompt renders the tenant-aware system prompt
func BuildSystemPrompt(tenant *models.Tenant, user *models.User, channel models.ChannelType) string {
	var b strings.Builder

	fmt.Fprintf(&b, "You are an AI assistant for %s on the T3nets platform.\n\n", tenant.Name)
	if user != nil && user.DisplayName != "" {
		if user.Email != "" {
			fmt.Fprintf(&b, "You are talking to %s (%s).\n\n", user.DisplayName, user.Email)
		} else {
			fmt.Fprintf(&b, "You are talking to %s.\n\n", user.DisplayName)
		}
	}

	voice := tenant.Settings.SystemPromptOverride
	if strings.TrimSpace(voice) == "" {
		voice = DefaultVoice
	}
	b.WriteString(voice)
	b.WriteString("\n\n")

	if channel != "" {
		fmt.Fprintf(&b, "Communication channel: %s\n", channel)
	}
	switch channel {
	case models.ChannelSMS:
		b.WriteString("Keep responses concise, under 160 characters when possible.\n")
	case models.ChannelVoice:
		b.WriteString("Use natural spoken language. Simplify numbers. Keep it brief.\n")
	}

	b.WriteString("\nWhen you need to take action or fetch data, use the available tools.\n")
	b.WriteString("When you can answer directly from conversation context, do so without tools.\n")
	b.WriteString("When you have data to present, format it clearly with structure.\n")
	b.WriteString("Be honest about what you don't know.")

	return b.String()
}

// BuildNarrationPrompt asks the model to explain a rule-matched skill result
func BuildNarrationPrompt(question string, match *RouteMatch, result models.SkillResult) string {
	tool := match.Skill
	if match.Action != "" {
		tool = fmt.Sprintf("%s (action: %s)", match.Skill, match.Action)
	}

	return fmt.Sprintf(`The user asked: "%s"

I ran the %s tool and it returned this data:
%s

Answer the user's question from this data. Be clear and concise, lead with what matters most, call out risks or blockers explicitly, and suggest concrete next actions. If the data contains an error, explain it plainly and say what would fix it.`,
		question, tool, FormatRaw(result))
}

// FormatRaw renders a skill result as 2-space indented JSON
func FormatRaw(result models.SkillResult) string {
	if result == nil {
		result = models.SkillResult{}
	}
	data, err := json.MarshalIndent(result, "", "  ")
	if err != nil {
		return fmt.Sprintf("%v", map[string]any(result))
	}
	return string(data)
}
