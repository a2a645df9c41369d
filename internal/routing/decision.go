// ABOUTME: Routing decision computed once per message before any collaborator call
// ABOUTME: Tagged variant: conversational, rule matched (with match), or model routed
package routing

import (
	"strings"

	"github.com/WildEllie/t3nets/internal/models"
)

// Tier is the handling tier chosen for a message
type Tier int

const (
	TierConversational Tier = iota
	TierRuleMatched
	TierModelRouted
)

// String returns the state name of the tier
func (t Tier) String() string {
	switch t {
	case TierConversational:
		return "CONVERSATIONAL"
	case TierRuleMatched:
		return "RULE_MATCHED"
	case TierModelRouted:
		return "MODEL_ROUTED"
	default:
		return "UNKNOWN"
	}
}

// Route returns the label persisted with the turn
func (t Tier) Route() models.Route {
	switch t {
	case TierConversational:
		return models.RouteConversational
	case TierRuleMatched:
		return models.RouteRule
	default:
		return models.RouteAI
	}
}

// Decision is the routing outcome for one message
type Decision struct {
	Tier  Tier
	Raw   bool
	Text  string
	Match *RouteMatch // set only for TierRuleMatched
}

// Decide classifies clean text. raw forces the skill path even for chit-chat.
func Decide(matcher *Matcher, clean string, raw bool, enabled []string) Decision {
	if !raw && IsConversational(clean) {
		return Decision{Tier: TierConversational, Text: clean}
	}
	if match := matcher.Match(clean, enabled); match != nil {
		return Decision{Tier: TierRuleMatched, Raw: raw, Text: clean, Match: match}
	}
	return Decision{Tier: TierModelRouted, Raw: raw, Text: clean}
}

// Explanation is a printable view of a Decision plus the per-skill scores behind it
type Explanation struct {
	Tier       string       `json:"tier"`
	Route      models.Route `json:"route"`
	Raw        bool         `json:"raw"`
	Text       string       `json:"text"`
	Match      *RouteMatch  `json:"match,omitempty"`
	Threshold  float64      `json:"threshold"`
	Candidates []Candidate  `json:"candidates"`
}

// Explain decides text and reports the scores of every enabled skill
func Explain(matcher *Matcher, text string, enabled []string) Explanation {
	clean, raw := StripRawFlag(strings.TrimSpace(text))
	d := Decide(matcher, clean, raw, enabled)
	candidates := matcher.Candidates(clean, enabled)
	if candidates == nil {
		candidates = []Candidate{}
	}
	return Explanation{
		Tier:       d.Tier.String(),
		Route:      d.Tier.Route(),
		Raw:        d.Raw,
		Text:       d.Text,
		Match:      d.Match,
		Threshold:  matcher.Threshold(),
		Candidates: candidates,
	}
}
