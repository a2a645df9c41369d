// ABOUTME: Rule matcher picking the best enabled skill for a message without a model call
// ABOUTME: Strictly-highest confidence wins, ties keep enabled order, below threshold is no match
package routing

import (
	"strings"

	"github.com/rs/zerolog"

	"github.com/WildEllie/t3nets/internal/logging"
)

// DefaultThreshold is the minimum confidence for a rule match
const DefaultThreshold = 0.5

// RouteMatch is the outcome of a successful rule match
type RouteMatch struct {
	Skill      string         `json:"skill"`
	Action     string         `json:"action"`
	Params     map[string]any `json:"params"`
	Confidence float64        `json:"confidence"`
}

// Candidate is the score of one enabled skill
type Candidate struct {
	Skill      string  `json:"skill"`
	Confidence float64 `json:"confidence"`
}

// Matcher scores messages against compiled rule sets. Safe for concurrent use.
type Matcher struct {
	ruleSets   map[string]*TriggerRuleSet
	threshold  float64
	extractors map[string]ParamExtractor
	logger     zerolog.Logger
}

// MatcherOption configures a Matcher
type MatcherOption func(*Matcher)

// WithThreshold sets the minimum confidence, clamped to [0,1]
func WithThreshold(threshold float64) MatcherOption {
	return func(m *Matcher) {
		m.threshold = clamp01(threshold)
	}
}

// WithExtractor registers (or replaces) the parameter extractor for skill/action
func WithExtractor(skill, action string, fn ParamExtractor) MatcherOption {
	return func(m *Matcher) {
		m.extractors[extractorKey(skill, action)] = fn
	}
}

// NewMatcher creates a matcher over the given rule sets
func NewMatcher(ruleSets []*TriggerRuleSet, opts ...MatcherOption) *Matcher {
	m := &Matcher{
		ruleSets:   make(map[string]*TriggerRuleSet, len(ruleSets)),
		threshold:  DefaultThreshold,
		extractors: defaultExtractors(),
		logger:     logging.Get("routing.matcher"),
	}
	for _, rs := range ruleSets {
		m.ruleSets[rs.Skill] = rs
	}
	for _, opt := range opts {
		opt(m)
	}

	total := 0
	for _, rs := range m.ruleSets {
		total += rs.RuleCount()
	}
	m.logger.Debug().Int("skills", len(m.ruleSets)).Int("rules", total).Float64("threshold", m.threshold).Msg("Rule matcher ready")

	return m
}

// Threshold returns the configured minimum confidence
func (m *Matcher) Threshold() float64 {
	return m.threshold
}

// RuleSet returns the compiled rules for skill
func (m *Matcher) RuleSet(skill string) (*TriggerRuleSet, bool) {
	rs, ok := m.ruleSets[skill]
	return rs, ok
}

// Candidates scores every known enabled skill, in enabled order, skipping duplicates
func (m *Matcher) Candidates(text string, enabled []string) []Candidate {
	normalized := normalize(text)
	seen := make(map[string]bool, len(enabled))
	var out []Candidate
	for _, name := range enabled {
		if seen[name] {
			continue
		}
		seen[name] = true
		rs, ok := m.ruleSets[name]
		if !ok {
			continue
		}
		out = append(out, Candidate{Skill: name, Confidence: rs.Score(normalized)})
	}
	return out
}

// Match returns the best enabled skill for text, or nil when nothing clears the threshold
func (m *Matcher) Match(text string, enabled []string) *RouteMatch {
	normalized := normalize(text)

	var best *TriggerRuleSet
	bestScore := 0.0
	for _, c := range m.Candidates(normalized, enabled) {
		if c.Confidence > bestScore {
			best = m.ruleSets[c.Skill]
			bestScore = c.Confidence
		}
	}

	if best == nil || bestScore < m.threshold {
		ev := m.logger.Debug().Float64("threshold", m.threshold)
		if best != nil {
			ev = ev.Str("best", best.Skill).Float64("confidence", bestScore)
		}
		ev.Msg("No confident rule match")
		return nil
	}

	action := best.Action(normalized)
	match := &RouteMatch{
		Skill:      best.Skill,
		Action:     action,
		Params:     m.extractParams(normalized, best.Skill, action),
		Confidence: bestScore,
	}

	m.logger.Info().Str("skill", match.Skill).Str("action", match.Action).Float64("confidence", match.Confidence).Msg("Rule matched")
	return match
}

func (m *Matcher) extractParams(normalized, skill, action string) map[string]any {
	params := map[string]any{}
	if fn, ok := m.extractors[extractorKey(skill, action)]; ok && fn != nil {
		for k, v := range fn(normalized) {
			params[k] = v
		}
	}
	params["action"] = action
	return params
}

func normalize(text string) string {
	return strings.ToLower(strings.TrimSpace(text))
}
