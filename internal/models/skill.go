// ABOUTME: Skill definitions, invocation requests and results
// ABOUTME: SkillResult is free-form JSON; failures are carried as {"error": reason}
package models

// SkillDefinition describes a skill as loaded from its skill.yaml
type SkillDefinition struct {
	Name                string         `yaml:"name" json:"name"`
	Description         string         `yaml:"description" json:"description"`
	Parameters          map[string]any `yaml:"parameters" json:"parameters,omitempty"`
	RequiresIntegration string         `yaml:"requires_integration" json:"requires_integration,omitempty"`
	Triggers            []string       `yaml:"triggers" json:"triggers,omitempty"`
	SupportsRaw         bool           `yaml:"supports_raw" json:"supports_raw"`
}

// Tool converts the definition into a model tool
func (d SkillDefinition) Tool() ToolDefinition {
	schema := d.Parameters
	if schema == nil {
		schema = map[string]any{"type": "object", "properties": map[string]any{}}
	}
	return ToolDefinition{
		Name:        d.Name,
		Description: d.Description,
		InputSchema: schema,
	}
}

// SkillInvocation asks the skill bus to run one skill
type SkillInvocation struct {
	RequestID    string         `json:"request_id"`
	TenantID     string         `json:"tenant_id"`
	SessionID    string         `json:"session_id"`
	SkillName    string         `json:"skill_name"`
	Params       map[string]any `json:"params"`
	ReplyChannel string         `json:"reply_channel"`
	ReplyTarget  string         `json:"reply_target"`
}

// SkillResult is the structured output of a skill
type SkillResult map[string]any

// ErrorResult builds a result carrying only an error reason
func ErrorResult(reason string) SkillResult {
	return SkillResult{"error": reason}
}

// ErrorMessage returns the error reason, if the result is a failure
func (r SkillResult) ErrorMessage() (string, bool) {
	v, ok := r["error"]
	if !ok {
		return "", false
	}
	s, ok := v.(string)
	return s, ok
}
