// ABOUTME: Compiled per-skill trigger rules and their confidence scoring
// ABOUTME: Triggers come from the skill definition, patterns and actions from the corpus
package routing

import (
	"fmt"
	"regexp"
	"strings"
	"unicode/utf8"

	"github.com/WildEllie/t3nets/internal/models"
)

// DefaultAction is used for a selected skill that declares no action rules
const DefaultAction = "default"

type actionRule struct {
	pattern *regexp.Regexp
	action  string
}

// TriggerRuleSet is the compiled rule base for one skill
type TriggerRuleSet struct {
	Skill       string
	SupportsRaw bool
	Triggers    []string
	Patterns    []*regexp.Regexp
	actions     []actionRule
}

// CompileRuleSet builds the rule set for def using the corpus entry rules
func CompileRuleSet(def models.SkillDefinition, rules SkillRules) (*TriggerRuleSet, error) {
	rs := &TriggerRuleSet{
		Skill:       def.Name,
		SupportsRaw: def.SupportsRaw,
	}

	for _, t := range def.Triggers {
		t = strings.ToLower(strings.TrimSpace(t))
		if t != "" {
			rs.Triggers = append(rs.Triggers, t)
		}
	}

	for _, p := range rules.Patterns {
		re, err := regexp.Compile("(?i)" + p)
		if err != nil {
			return nil, fmt.Errorf("skill %s: invalid pattern %q: %w", def.Name, p, err)
		}
		rs.Patterns = append(rs.Patterns, re)
	}

	for _, a := range rules.Actions {
		re, err := regexp.Compile("(?i)" + a.Pattern)
		if err != nil {
			return nil, fmt.Errorf("skill %s: invalid action pattern %q: %w", def.Name, a.Pattern, err)
		}
		rs.actions = append(rs.actions, actionRule{pattern: re, action: a.Action})
	}

	return rs, nil
}

// CompileRuleSets compiles one rule set per definition, in definition order
func CompileRuleSets(defs []models.SkillDefinition, corpus Corpus) ([]*TriggerRuleSet, error) {
	sets := make([]*TriggerRuleSet, 0, len(defs))
	for _, def := range defs {
		rs, err := CompileRuleSet(def, corpus[def.Name])
		if err != nil {
			return nil, err
		}
		sets = append(sets, rs)
	}
	return sets, nil
}

// Score returns the confidence in [0,1] that normalized text targets this skill.
// normalized must already be trimmed and lower-cased.
func (rs *TriggerRuleSet) Score(normalized string) float64 {
	if normalized == "" {
		return 0
	}

	score := 0.0
	textLen := max(utf8.RuneCountInString(normalized), 1)
	for _, trigger := range rs.Triggers {
		if strings.Contains(normalized, trigger) {
			ratio := float64(utf8.RuneCountInString(trigger)) / float64(textLen)
			score = max(score, 0.7+0.3*ratio)
		}
	}

	hits := 0
	for _, p := range rs.Patterns {
		if p.MatchString(normalized) {
			hits++
		}
	}
	if hits > 0 {
		score = max(score, min(0.5+0.15*float64(hits), 0.9))
	}

	return clamp01(score)
}

// Action returns the action of the first matching rule, else the last rule's action
func (rs *TriggerRuleSet) Action(normalized string) string {
	for _, r := range rs.actions {
		if r.pattern.MatchString(normalized) {
			return r.action
		}
	}
	if len(rs.actions) > 0 {
		return rs.actions[len(rs.actions)-1].action
	}
	return DefaultAction
}

// RuleCount returns the number of triggers, patterns and action rules
func (rs *TriggerRuleSet) RuleCount() int {
	return len(rs.Triggers) + len(rs.Patterns) + len(rs.actions)
}

func clamp01(v float64) float64 {
	return min(max(v, 0), 1)
}
