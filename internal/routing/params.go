// ABOUTME: Pluggable parameter extraction for (skill, action) pairs
// ABOUTME: Extractors add skill-specific params on top of the mandatory "action" key
package routing

import "regexp"

// ParamExtractor derives extra parameters from normalized message text
type ParamExtractor func(normalized string) map[string]any

var emailPattern = regexp.MustCompile(`[\w.+-]+@[\w-]+\.[\w.]+`)

// ExtractAssigneeEmail adds assignee_email when the text contains an email address
func ExtractAssigneeEmail(normalized string) map[string]any {
	email := emailPattern.FindString(normalized)
	if email == "" {
		return nil
	}
	return map[string]any{"assignee_email": email}
}

func extractorKey(skill, action string) string {
	return skill + "/" + action
}

func defaultExtractors() map[string]ParamExtractor {
	return map[string]ParamExtractor{
		extractorKey("sprint_status", "mine"): ExtractAssigneeEmail,
	}
}
